package carbon

import (
	"fmt"
	"math"
	"strconv"

	"carbon-scribe/esg-metrics/esg-metrics-backend/internal/records"
)

// netBalanceTolerance is the absolute slack allowed between the stored
// net balance and total minus sequestration.
const netBalanceTolerance = 1e-6

// PayloadValidator contributes carbon-specific findings to the record
// validation pass.
type PayloadValidator struct{}

func NewPayloadValidator() *PayloadValidator {
	return &PayloadValidator{}
}

func (v *PayloadValidator) ValidatePayload(record *records.MetricRecord) []records.ValidationIssue {
	years, err := DecodeYears(record)
	if err != nil {
		return []records.ValidationIssue{{
			Field:    "carbon_years",
			Message:  fmt.Sprintf("carbon payload is unreadable: %v", err),
			Severity: records.SeverityCritical,
		}}
	}

	var issues []records.ValidationIssue
	seen := make(map[int]bool, len(years))
	for _, year := range years {
		// Soft-deleted years are history, not part of the reported data.
		if !year.IsActive {
			continue
		}
		label := strconv.Itoa(year.Year)

		if seen[year.Year] {
			issues = append(issues, records.ValidationIssue{
				Year:     label,
				Field:    "year",
				Message:  "duplicate reporting year",
				Severity: records.SeverityCritical,
			})
		}
		seen[year.Year] = true

		if year.Sequestration.ReportingAreaHa < 0 || year.Sequestration.SOCAreaHa < 0 {
			issues = append(issues, records.ValidationIssue{
				Year:     label,
				Field:    "sequestration",
				Message:  "area must not be negative",
				Severity: records.SeverityError,
			})
		}
		if year.DataQuality.CompletenessScore < 0 || year.DataQuality.CompletenessScore > 100 {
			issues = append(issues, records.ValidationIssue{
				Year:     label,
				Field:    "data_quality.completeness_score",
				Message:  "must be between 0 and 100",
				Severity: records.SeverityError,
			})
		}

		expectedNet := year.Emissions.TotalScopeEmissionTCO2e - year.Sequestration.AnnualSummary.SequestrationTotalTCO2
		if math.Abs(year.Emissions.NetTotalEmissionTCO2e-expectedNet) > netBalanceTolerance {
			issues = append(issues, records.ValidationIssue{
				Year:     label,
				Field:    "emissions.net_total_emission_tco2e",
				Message:  "net balance does not equal total emissions minus sequestration",
				Severity: records.SeverityCritical,
			})
		}

		issues = append(issues, validateRows(label, "emissions.scope1.sources", year.Emissions.Scope1.Sources)...)
		issues = append(issues, validateRows(label, "emissions.scope2.sources", year.Emissions.Scope2.Sources)...)
		issues = append(issues, validateRows(label, "emissions.scope3.categories", year.Emissions.Scope3.Categories)...)
	}
	return issues
}

func validateRows(yearLabel, path string, rows []EmissionRow) []records.ValidationIssue {
	var issues []records.ValidationIssue
	for i, row := range rows {
		if row.Quantity != "" && row.QuantityValue == nil {
			if _, err := records.ParseNumericValue(row.Quantity); err != nil {
				issues = append(issues, records.ValidationIssue{
					Year:     yearLabel,
					Field:    fmt.Sprintf("%s[%d].quantity", path, i),
					Message:  err.Error(),
					Severity: records.SeverityError,
				})
			}
		}
		if row.Label() == "" {
			issues = append(issues, records.ValidationIssue{
				Year:     yearLabel,
				Field:    fmt.Sprintf("%s[%d]", path, i),
				Message:  "row has no source or category label",
				Severity: records.SeverityWarning,
			})
		}
	}
	return issues
}
