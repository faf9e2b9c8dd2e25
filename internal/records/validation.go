package records

import (
	"fmt"
	"math"
)

// runValidationPass inspects every metric and the domain payload,
// collecting findings with severities instead of failing on the first
// problem, and derives the record's data quality score.
func (s *Service) runValidationPass(record *MetricRecord) ([]ValidationIssue, float64) {
	var issues []ValidationIssue

	metrics, err := record.DecodeMetrics()
	if err != nil {
		issues = append(issues, ValidationIssue{
			Field:    "metrics",
			Message:  fmt.Sprintf("metrics payload is unreadable: %v", err),
			Severity: SeverityCritical,
		})
		return issues, 0
	}

	populated := 0
	activeMetrics := 0
	for _, metric := range metrics {
		if !metric.IsActive {
			continue
		}
		activeMetrics++
		issues = append(issues, validateMetric(metric)...)
		if metricHasData(metric) {
			populated++
		}
	}

	if validator, ok := s.validators[record.Domain]; ok {
		issues = append(issues, validator.ValidatePayload(record)...)
	}

	score := qualityScore(activeMetrics, populated, issues)
	return issues, score
}

func validateMetric(metric Metric) []ValidationIssue {
	var issues []ValidationIssue

	slots := 0
	if len(metric.YearlyData) > 0 {
		slots++
	}
	if metric.SingleValue != nil {
		slots++
	}
	if len(metric.ListData) > 0 {
		slots++
	}
	if metric.SummaryVal != "" {
		slots++
	}
	if slots > 1 {
		issues = append(issues, ValidationIssue{
			MetricName: metric.MetricName,
			Field:      "data_type",
			Message:    "multiple data slots populated for one metric",
			Severity:   SeverityCritical,
		})
	}

	seenYears := make(map[string]bool, len(metric.YearlyData))
	for _, datum := range metric.YearlyData {
		if seenYears[datum.Year] {
			issues = append(issues, ValidationIssue{
				MetricName: metric.MetricName,
				Year:       datum.Year,
				Field:      "year",
				Message:    "duplicate year in yearly series",
				Severity:   SeverityCritical,
			})
		}
		seenYears[datum.Year] = true
		issues = append(issues, validateDatum(metric.MetricName, datum)...)
	}
	if metric.SingleValue != nil {
		issues = append(issues, validateDatum(metric.MetricName, *metric.SingleValue)...)
	}
	return issues
}

func validateDatum(metricName string, datum YearlyDatum) []ValidationIssue {
	var issues []ValidationIssue

	if datum.FiscalYear < 1900 || datum.FiscalYear > 2200 {
		issues = append(issues, ValidationIssue{
			MetricName: metricName,
			Year:       datum.Year,
			Field:      "fiscal_year",
			Message:    fmt.Sprintf("fiscal year %d out of range", datum.FiscalYear),
			Severity:   SeverityError,
		})
	}
	if datum.Value != "" {
		if _, err := ParseNumericValue(datum.Value); err != nil {
			issues = append(issues, ValidationIssue{
				MetricName: metricName,
				Year:       datum.Year,
				Field:      "value",
				Message:    err.Error(),
				Severity:   SeverityError,
			})
		}
	}
	if math.IsNaN(datum.NumericValue) || math.IsInf(datum.NumericValue, 0) {
		issues = append(issues, ValidationIssue{
			MetricName: metricName,
			Year:       datum.Year,
			Field:      "numeric_value",
			Message:    "numeric value is not finite",
			Severity:   SeverityError,
		})
	}
	if datum.Unit == "" && datum.Value != "" {
		issues = append(issues, ValidationIssue{
			MetricName: metricName,
			Year:       datum.Year,
			Field:      "unit",
			Message:    "unit is missing",
			Severity:   SeverityWarning,
		})
	}
	return issues
}

func metricHasData(metric Metric) bool {
	return len(metric.YearlyData) > 0 || metric.SingleValue != nil ||
		len(metric.ListData) > 0 || metric.SummaryVal != ""
}

// qualityScore blends completeness (populated metrics) with cleanliness
// (findings weighted by severity) into a 0-100 score.
func qualityScore(activeMetrics, populated int, issues []ValidationIssue) float64 {
	if activeMetrics == 0 {
		return 0
	}
	completeness := float64(populated) / float64(activeMetrics)

	var penalty float64
	for _, issue := range issues {
		switch issue.Severity {
		case SeverityCritical:
			penalty += 0.25
		case SeverityError:
			penalty += 0.10
		case SeverityWarning:
			penalty += 0.02
		}
	}
	cleanliness := 1 - math.Min(1, penalty)

	score := (completeness*0.6 + cleanliness*0.4) * 100
	return math.Round(score*100) / 100
}
