package carbon

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"carbon-scribe/esg-metrics/esg-metrics-backend/internal/records"
)

// YearlyCarbonData is one reporting year of the carbon emission
// accounting record: gross emissions by scope, biogenic sequestration and
// the derived balance.
type YearlyCarbonData struct {
	Year          int               `json:"year"`
	Sequestration SequestrationData `json:"sequestration"`
	Emissions     EmissionData      `json:"emissions"`
	DataQuality   DataQualityInfo   `json:"data_quality"`
	// IsActive is the soft-delete flag. Deleted years stay in the payload
	// for the audit trail; reads filter them out.
	IsActive bool `json:"is_active"`
}

// SequestrationData covers biomass and soil organic carbon capture.
type SequestrationData struct {
	ReportingAreaHa float64                `json:"reporting_area_ha"`
	SOCAreaHa       float64                `json:"soc_area_ha"`
	MonthlyData     []MonthlySequestration `json:"monthly_data,omitempty"`
	Methodologies   []string               `json:"methodologies,omitempty"`
	AnnualSummary   SequestrationSummary   `json:"annual_summary"`
}

type MonthlySequestration struct {
	Month int     `json:"month"`
	TCO2  float64 `json:"tco2"`
}

type SequestrationSummary struct {
	SequestrationTotalTCO2 float64 `json:"sequestration_total_tco2"`
	BiomassTCO2            float64 `json:"biomass_tco2,omitempty"`
	SoilTCO2               float64 `json:"soil_tco2,omitempty"`
}

// EmissionData holds per-scope rows and the derived totals. Totals are
// recomputed on every write, never stored independently of the rows.
type EmissionData struct {
	Scope1 ScopeEmissions `json:"scope1"`
	Scope2 ScopeEmissions `json:"scope2"`
	Scope3 ScopeEmissions `json:"scope3"`

	TotalScopeEmissionTCO2ePerHa float64 `json:"total_scope_emission_tco2e_per_ha"`
	TotalScopeEmissionTCO2e      float64 `json:"total_scope_emission_tco2e"`
	NetTotalEmissionTCO2e        float64 `json:"net_total_emission_tco2e"`
}

// ScopeEmissions is one scope's rows and totals. Scope 1 and 2 report
// sources; scope 3 reports GHG-Protocol categories. Both slots share the
// row shape.
type ScopeEmissions struct {
	Sources    []EmissionRow `json:"sources,omitempty"`
	Categories []EmissionRow `json:"categories,omitempty"`

	TotalTCO2ePerHa float64 `json:"total_tco2e_per_ha"`
	TotalTCO2e      float64 `json:"total_tco2e"`
}

// Rows returns whichever slot the scope uses.
func (s *ScopeEmissions) Rows() []EmissionRow {
	if len(s.Categories) > 0 {
		return s.Categories
	}
	return s.Sources
}

// EmissionRow is one emission source or category entry.
type EmissionRow struct {
	Source            string   `json:"source,omitempty"`
	Category          string   `json:"category,omitempty"`
	Parameter         string   `json:"parameter,omitempty"`
	Unit              string   `json:"unit,omitempty"`
	Quantity          string   `json:"quantity,omitempty"`
	QuantityValue     *float64 `json:"quantity_value,omitempty"`
	EmissionFactor    string   `json:"emission_factor,omitempty"`
	GWP               *float64 `json:"gwp,omitempty"`
	TCO2ePerHaPerYear float64  `json:"tco2e_per_ha_per_year"`
	Justification     string   `json:"justification,omitempty"`
	Reference         string   `json:"reference,omitempty"`
	Notes             string   `json:"notes,omitempty"`
	IsActive          bool     `json:"is_active"`
}

// Label returns the free-text name used for classification.
func (r *EmissionRow) Label() string {
	if r.Source != "" {
		return r.Source
	}
	return r.Category
}

// DataQualityInfo is the per-year verification annotation.
type DataQualityInfo struct {
	CompletenessScore  float64    `json:"completeness_score"`
	VerificationStatus string     `json:"verification_status,omitempty"`
	VerifiedBy         *uuid.UUID `json:"verified_by,omitempty"`
	VerifiedAt         *time.Time `json:"verified_at,omitempty"`
	VerificationNotes  string     `json:"verification_notes,omitempty"`
}

// DecodeYears unmarshals the carbon payload of a record.
func DecodeYears(record *records.MetricRecord) ([]YearlyCarbonData, error) {
	if len(record.CarbonYears) == 0 {
		return nil, nil
	}
	var years []YearlyCarbonData
	if err := json.Unmarshal(record.CarbonYears, &years); err != nil {
		return nil, fmt.Errorf("failed to decode carbon years for record %s: %w", record.ID, err)
	}
	return years, nil
}

// EncodeYears marshals the carbon payload back into a record.
func EncodeYears(record *records.MetricRecord, years []YearlyCarbonData) error {
	data, err := json.Marshal(years)
	if err != nil {
		return fmt.Errorf("failed to encode carbon years: %w", err)
	}
	record.CarbonYears = datatypes.JSON(data)
	return nil
}
