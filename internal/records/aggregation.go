package records

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"carbon-scribe/esg-metrics/esg-metrics-backend/pkg/apperrors"
)

// SeriesValue is one year of a projected time series.
type SeriesValue struct {
	Year         string  `json:"year"`
	Value        string  `json:"value"`
	NumericValue float64 `json:"numeric_value"`
	SourceNotes  string  `json:"source_notes,omitempty"`
}

// MetricSeries is the read-side projection of one named metric.
type MetricSeries struct {
	Category string        `json:"category"`
	Unit     string        `json:"unit,omitempty"`
	Values   []SeriesValue `json:"values"`
}

// DomainSummary aggregates one domain of a company summary.
type DomainSummary struct {
	Domain             Domain             `json:"domain"`
	Versions           int                `json:"versions"`
	ActiveMetrics      int                `json:"active_metrics"`
	YearsCovered       int                `json:"years_covered"`
	VerificationStatus VerificationStatus `json:"verification_status"`
	DataQualityScore   *float64           `json:"data_quality_score,omitempty"`
}

// GetMetricsByNames projects the active record's metrics into a
// name-keyed map of time series, optionally filtered to a year set.
// Missing names are simply absent from the result.
func (s *Service) GetMetricsByNames(ctx context.Context, companyID uuid.UUID, domain Domain, names []string, years []string) (map[string]MetricSeries, error) {
	record, err := s.repo.GetActive(ctx, companyID, domain)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return map[string]MetricSeries{}, nil
		}
		return nil, err
	}
	metrics, err := record.DecodeMetrics()
	if err != nil {
		return nil, apperrors.Internal("failed to decode metrics", err)
	}

	wanted := make(map[string]bool, len(names))
	for _, name := range names {
		wanted[name] = true
	}
	yearFilter := make(map[string]bool, len(years))
	for _, year := range years {
		yearFilter[year] = true
	}

	out := make(map[string]MetricSeries)
	for _, metric := range metrics {
		if !metric.IsActive || !wanted[metric.MetricName] {
			continue
		}

		series := MetricSeries{Category: metric.Category}
		for _, datum := range yearlyValues(metric) {
			if len(yearFilter) > 0 && !yearFilter[datum.Year] {
				continue
			}
			if series.Unit == "" {
				series.Unit = datum.Unit
			}
			series.Values = append(series.Values, SeriesValue{
				Year:         datum.Year,
				Value:        datum.Value,
				NumericValue: datum.NumericValue,
				SourceNotes:  joinSourceNotes(datum),
			})
		}
		sort.Slice(series.Values, func(i, j int) bool {
			return series.Values[i].Year < series.Values[j].Year
		})
		out[metric.MetricName] = series
	}
	return out, nil
}

// MetricValueByYear looks up one year of a metric. Sparse data returns
// nil, never an error.
func MetricValueByYear(metric Metric, year string) *YearlyDatum {
	for _, datum := range yearlyValues(metric) {
		if datum.Year == year {
			d := datum
			return &d
		}
	}
	return nil
}

// UniqueYearsFromMetrics returns the sorted distinct years across metrics.
func UniqueYearsFromMetrics(metrics []Metric) []string {
	seen := make(map[string]bool)
	for _, metric := range metrics {
		for _, datum := range yearlyValues(metric) {
			seen[datum.Year] = true
		}
	}
	years := make([]string, 0, len(seen))
	for year := range seen {
		years = append(years, year)
	}
	sort.Strings(years)
	return years
}

// CompanySummary fans read-only per-domain aggregation out in parallel;
// there is no shared mutable state beyond the guarded result slice.
func (s *Service) CompanySummary(ctx context.Context, companyID uuid.UUID) ([]DomainSummary, error) {
	domains := []Domain{
		DomainBiodiversity, DomainWorkforce, DomainCommunity,
		DomainEnergy, DomainWaste, DomainCarbon,
	}

	var mu sync.Mutex
	summaries := make([]DomainSummary, 0, len(domains))

	g, gctx := errgroup.WithContext(ctx)
	for _, domain := range domains {
		g.Go(func() error {
			versions, err := s.repo.ListVersions(gctx, companyID, domain)
			if err != nil {
				return err
			}
			if len(versions) == 0 {
				return nil
			}

			summary := DomainSummary{Domain: domain, Versions: len(versions)}
			for _, v := range versions {
				if !v.IsActive {
					continue
				}
				summary.VerificationStatus = v.VerificationStatus
				summary.DataQualityScore = v.DataQualityScore
				metrics, err := v.DecodeMetrics()
				if err != nil {
					return apperrors.Internal("failed to decode metrics", err)
				}
				for _, m := range metrics {
					if m.IsActive {
						summary.ActiveMetrics++
					}
				}
				summary.YearsCovered = len(UniqueYearsFromMetrics(metrics))
			}

			mu.Lock()
			summaries = append(summaries, summary)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(summaries, func(i, j int) bool { return summaries[i].Domain < summaries[j].Domain })
	return summaries, nil
}

// yearlyValues flattens whichever slot of the metric carries dated values.
func yearlyValues(metric Metric) []YearlyDatum {
	switch metric.DataType {
	case DataTypeYearlySeries:
		return metric.YearlyData
	case DataTypeSingleValue:
		if metric.SingleValue != nil {
			return []YearlyDatum{*metric.SingleValue}
		}
	}
	return nil
}

func joinSourceNotes(datum YearlyDatum) string {
	switch {
	case datum.Source != "" && datum.Notes != "":
		return datum.Source + "; " + datum.Notes
	case datum.Source != "":
		return datum.Source
	default:
		return datum.Notes
	}
}
