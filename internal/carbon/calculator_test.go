package carbon

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carbon-scribe/esg-metrics/esg-metrics-backend/internal/config"
)

func sampleYear() YearlyCarbonData {
	return YearlyCarbonData{
		Year: 2023,
		Sequestration: SequestrationData{
			SOCAreaHa:     100,
			AnnualSummary: SequestrationSummary{SequestrationTotalTCO2: 50},
		},
		Emissions: EmissionData{
			Scope1: ScopeEmissions{Sources: []EmissionRow{
				{Source: "Diesel fleet", TCO2ePerHaPerYear: 1.2, IsActive: true},
			}},
			Scope2: ScopeEmissions{Sources: []EmissionRow{
				{Source: "Grid electricity", TCO2ePerHaPerYear: 0.8, IsActive: true},
			}},
		},
	}
}

func TestRecalculate(t *testing.T) {
	calc := NewCalculator(config.DefaultCarbonConfig())
	year := sampleYear()

	calc.Recalculate(&year)

	assert.Equal(t, 1.2, year.Emissions.Scope1.TotalTCO2ePerHa)
	assert.Equal(t, 120.0, year.Emissions.Scope1.TotalTCO2e)
	assert.Equal(t, 0.8, year.Emissions.Scope2.TotalTCO2ePerHa)
	assert.Equal(t, 80.0, year.Emissions.Scope2.TotalTCO2e)
	assert.Equal(t, 2.0, year.Emissions.TotalScopeEmissionTCO2ePerHa)
	assert.Equal(t, 200.0, year.Emissions.TotalScopeEmissionTCO2e)
	assert.Equal(t, 150.0, year.Emissions.NetTotalEmissionTCO2e)
}

func TestRecalculate_IgnoresInactiveRows(t *testing.T) {
	calc := NewCalculator(config.DefaultCarbonConfig())
	year := sampleYear()
	year.Emissions.Scope1.Sources = append(year.Emissions.Scope1.Sources,
		EmissionRow{Source: "Retired boiler", TCO2ePerHaPerYear: 5, IsActive: false})

	calc.Recalculate(&year)

	assert.Equal(t, 1.2, year.Emissions.Scope1.TotalTCO2ePerHa)
}

func TestRecalculate_OverwritesStaleDerivedFigures(t *testing.T) {
	calc := NewCalculator(config.DefaultCarbonConfig())
	year := sampleYear()
	year.Emissions.TotalScopeEmissionTCO2e = 9999
	year.Emissions.NetTotalEmissionTCO2e = -1

	calc.Recalculate(&year)

	assert.Equal(t, 200.0, year.Emissions.TotalScopeEmissionTCO2e)
	assert.Equal(t, 150.0, year.Emissions.NetTotalEmissionTCO2e)
}

func TestArea(t *testing.T) {
	year := sampleYear()
	assert.Equal(t, 100.0, Area(&year))

	year.Sequestration.SOCAreaHa = 0
	year.Sequestration.ReportingAreaHa = 250
	assert.Equal(t, 250.0, Area(&year))

	year.Sequestration.ReportingAreaHa = 0
	assert.Equal(t, 1.0, Area(&year))
}

func TestIntensity(t *testing.T) {
	calc := NewCalculator(config.DefaultCarbonConfig())
	year := sampleYear()
	calc.Recalculate(&year)

	result := calc.Intensity(&year, "agriculture")
	assert.Equal(t, 100.0, result.AreaHa)
	assert.Equal(t, 2.0, result.TotalTCO2ePerHa)
	assert.Equal(t, 1.5, result.NetTCO2ePerHa)
	require.NotNil(t, result.PerProductionUnit)
	assert.Equal(t, 2.0, *result.PerProductionUnit)
}

func TestIntensity_UnknownIndustryHasNoPerUnitFigure(t *testing.T) {
	calc := NewCalculator(config.DefaultCarbonConfig())
	year := sampleYear()
	calc.Recalculate(&year)

	result := calc.Intensity(&year, "mining")
	assert.Nil(t, result.PerProductionUnit)

	result = calc.Intensity(&year, "")
	assert.Nil(t, result.PerProductionUnit)
}
