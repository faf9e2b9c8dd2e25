package carbon

import (
	"math"

	"carbon-scribe/esg-metrics/esg-metrics-backend/internal/config"
)

// Calculator derives scope totals, net balance and intensity figures from
// a year's rows. Industry intensity multipliers arrive as configuration;
// they vary by sector and are never hardcoded here.
type Calculator struct {
	industryIntensity map[string]float64
	classifier        *Classifier
}

func NewCalculator(cfg config.CarbonConfig) *Calculator {
	return &Calculator{
		industryIntensity: cfg.IndustryIntensity,
		classifier:        NewClassifier(cfg.Classification),
	}
}

// Classifier exposes the calculator's row classifier.
func (c *Calculator) Classifier() *Classifier {
	return c.classifier
}

// Area returns the normalization area for a year: SOC area when reported,
// otherwise reporting area, otherwise 1 so per-ha and absolute figures
// coincide.
func Area(y *YearlyCarbonData) float64 {
	if y.Sequestration.SOCAreaHa > 0 {
		return y.Sequestration.SOCAreaHa
	}
	if y.Sequestration.ReportingAreaHa > 0 {
		return y.Sequestration.ReportingAreaHa
	}
	return 1
}

// Recalculate rewrites every derived emission figure of a year from its
// rows. net_total is always total minus sequestration; callers must never
// set it independently.
func (c *Calculator) Recalculate(y *YearlyCarbonData) {
	area := Area(y)

	recalcScope(&y.Emissions.Scope1, area)
	recalcScope(&y.Emissions.Scope2, area)
	recalcScope(&y.Emissions.Scope3, area)

	y.Emissions.TotalScopeEmissionTCO2ePerHa = round6(y.Emissions.Scope1.TotalTCO2ePerHa +
		y.Emissions.Scope2.TotalTCO2ePerHa +
		y.Emissions.Scope3.TotalTCO2ePerHa)
	y.Emissions.TotalScopeEmissionTCO2e = round6(y.Emissions.Scope1.TotalTCO2e +
		y.Emissions.Scope2.TotalTCO2e +
		y.Emissions.Scope3.TotalTCO2e)
	y.Emissions.NetTotalEmissionTCO2e = round6(y.Emissions.TotalScopeEmissionTCO2e -
		y.Sequestration.AnnualSummary.SequestrationTotalTCO2)
}

func recalcScope(scope *ScopeEmissions, area float64) {
	var perHa float64
	for _, row := range scope.Rows() {
		if !row.IsActive {
			continue
		}
		perHa += row.TCO2ePerHaPerYear
	}
	scope.TotalTCO2ePerHa = round6(perHa)
	scope.TotalTCO2e = round6(perHa * area)
}

// IntensityResult carries emission intensity figures for one year.
type IntensityResult struct {
	Year                 int                `json:"year"`
	AreaHa               float64            `json:"area_ha"`
	PerScopeTCO2ePerHa   map[string]float64 `json:"per_scope_tco2e_per_ha"`
	TotalTCO2ePerHa      float64            `json:"total_tco2e_per_ha"`
	NetTCO2ePerHa        float64            `json:"net_tco2e_per_ha"`
	// PerProductionUnit is absent when the company's industry has no
	// configured multiplier; there is no silent default.
	PerProductionUnit *float64 `json:"per_production_unit,omitempty"`
}

// Intensity computes area-normalized intensity plus the optional
// per-production-unit figure for the given industry.
func (c *Calculator) Intensity(y *YearlyCarbonData, industry string) IntensityResult {
	area := Area(y)
	result := IntensityResult{
		Year:   y.Year,
		AreaHa: area,
		PerScopeTCO2ePerHa: map[string]float64{
			"scope1": y.Emissions.Scope1.TotalTCO2ePerHa,
			"scope2": y.Emissions.Scope2.TotalTCO2ePerHa,
			"scope3": y.Emissions.Scope3.TotalTCO2ePerHa,
		},
		TotalTCO2ePerHa: y.Emissions.TotalScopeEmissionTCO2ePerHa,
		NetTCO2ePerHa:   round6(y.Emissions.NetTotalEmissionTCO2e / area),
	}
	if multiplier, ok := c.industryIntensity[industry]; ok && multiplier > 0 {
		perUnit := round6(y.Emissions.TotalScopeEmissionTCO2e / (area * multiplier))
		result.PerProductionUnit = &perUnit
	}
	return result
}

// ScopeBreakdown buckets a scope's active rows into semantic categories
// by keyword matching. Best-effort; unmatched rows land in "other".
func (c *Calculator) ScopeBreakdown(y *YearlyCarbonData) map[string]map[string]float64 {
	return map[string]map[string]float64{
		"scope1": c.classifier.Breakdown(ScopeOne, y.Emissions.Scope1.Rows()),
		"scope2": c.classifier.Breakdown(ScopeTwo, y.Emissions.Scope2.Rows()),
		"scope3": c.classifier.Breakdown(ScopeThree, y.Emissions.Scope3.Rows()),
	}
}

func round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}
