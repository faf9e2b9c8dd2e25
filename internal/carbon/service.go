package carbon

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"carbon-scribe/esg-metrics/esg-metrics-backend/internal/config"
	"carbon-scribe/esg-metrics/esg-metrics-backend/internal/records"
	"carbon-scribe/esg-metrics/esg-metrics-backend/pkg/analytics"
	"carbon-scribe/esg-metrics/esg-metrics-backend/pkg/apperrors"
)

// totalEmissionsMetric is the independently reported figure the
// confidence score checks scope sums against.
const totalEmissionsMetric = "total_emissions"

// Service is the carbon emission accounting engine. It stores yearly
// accounting payloads on the carbon domain record through the record
// store's guarded mutation path, so the version chain and concurrency
// invariants hold for carbon data exactly as for plain metrics.
type Service struct {
	store      *records.Service
	calculator *Calculator
	cfg        config.CarbonConfig
	logger     *zap.Logger
}

func NewService(store *records.Service, cfg config.CarbonConfig, logger *zap.Logger) *Service {
	return &Service{
		store:      store,
		calculator: NewCalculator(cfg),
		cfg:        cfg,
		logger:     logger,
	}
}

// Calculator exposes the underlying calculator for report formatters.
func (s *Service) Calculator() *Calculator {
	return s.calculator
}

// AddYearlyData appends a new reporting year to the active carbon record.
// Adding a year that already exists fails with Conflict; callers must use
// UpdateYearlyData to change existing years, never silently overwrite.
func (s *Service) AddYearlyData(ctx context.Context, companyID uuid.UUID, year YearlyCarbonData, actor records.Actor) (*YearlyCarbonData, error) {
	if err := s.prepareYear(&year, true); err != nil {
		return nil, err
	}
	year.IsActive = true

	var added *YearlyCarbonData
	_, err := s.store.MutateActiveRecord(ctx, companyID, records.DomainCarbon, actor, func(record *records.MetricRecord) error {
		years, err := DecodeYears(record)
		if err != nil {
			return apperrors.Internal("failed to decode carbon years", err)
		}

		s.calculator.Recalculate(&year)
		for i := range years {
			if years[i].Year != year.Year {
				continue
			}
			if years[i].IsActive {
				return apperrors.Conflict("yearly data for %d already exists; use update instead", year.Year)
			}
			// Re-adding a soft-deleted year replaces it in place; the old
			// content survives in earlier snapshots of the chain.
			years[i] = year
			added = &years[i]
			return EncodeYears(record, years)
		}

		years = append(years, year)
		sort.Slice(years, func(i, j int) bool { return years[i].Year < years[j].Year })
		added = &year
		return EncodeYears(record, years)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("carbon year added",
		zap.String("company_id", companyID.String()),
		zap.Int("year", year.Year))
	return added, nil
}

// UpdateYearlyData replaces an existing reporting year. Operating on a
// year that is not present fails with NotFound.
func (s *Service) UpdateYearlyData(ctx context.Context, companyID uuid.UUID, yearNum int, year YearlyCarbonData, actor records.Actor) (*YearlyCarbonData, error) {
	year.Year = yearNum
	if err := s.prepareYear(&year, false); err != nil {
		return nil, err
	}
	year.IsActive = true

	var updated *YearlyCarbonData
	_, err := s.store.MutateActiveRecord(ctx, companyID, records.DomainCarbon, actor, func(record *records.MetricRecord) error {
		years, err := DecodeYears(record)
		if err != nil {
			return apperrors.Internal("failed to decode carbon years", err)
		}
		for i := range years {
			if years[i].Year == yearNum && years[i].IsActive {
				s.calculator.Recalculate(&year)
				years[i] = year
				updated = &years[i]
				return EncodeYears(record, years)
			}
		}
		return apperrors.NotFound("no yearly data for %d; add yearly data first", yearNum)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteYearlyData soft-deletes a year: it stays in the payload flagged
// inactive and disappears from reads, so the data remains auditable even
// without a new chain snapshot.
func (s *Service) DeleteYearlyData(ctx context.Context, companyID uuid.UUID, yearNum int, actor records.Actor) error {
	_, err := s.store.MutateActiveRecord(ctx, companyID, records.DomainCarbon, actor, func(record *records.MetricRecord) error {
		years, err := DecodeYears(record)
		if err != nil {
			return apperrors.Internal("failed to decode carbon years", err)
		}
		for i := range years {
			if years[i].Year == yearNum && years[i].IsActive {
				years[i].IsActive = false
				return EncodeYears(record, years)
			}
		}
		return apperrors.NotFound("no yearly data for %d; add yearly data first", yearNum)
	})
	return err
}

// GetYearlyData returns one reporting year of the active record.
func (s *Service) GetYearlyData(ctx context.Context, companyID uuid.UUID, yearNum int) (*YearlyCarbonData, error) {
	years, err := s.listYears(ctx, companyID)
	if err != nil {
		return nil, err
	}
	for i := range years {
		if years[i].Year == yearNum {
			return &years[i], nil
		}
	}
	return nil, apperrors.NotFound("no yearly data for %d; add yearly data first", yearNum)
}

// ListYears returns all reporting years of the active record, ascending.
func (s *Service) ListYears(ctx context.Context, companyID uuid.UUID) ([]YearlyCarbonData, error) {
	return s.listYears(ctx, companyID)
}

// Intensity computes intensity figures for one year.
func (s *Service) Intensity(ctx context.Context, companyID uuid.UUID, yearNum int, industry string) (*IntensityResult, error) {
	year, err := s.GetYearlyData(ctx, companyID, yearNum)
	if err != nil {
		return nil, err
	}
	result := s.calculator.Intensity(year, industry)
	return &result, nil
}

// YearSummary is one year of the cross-year carbon summary.
type YearSummary struct {
	Year                   int     `json:"year"`
	Scope1TCO2e            float64 `json:"scope1_tco2e"`
	Scope2TCO2e            float64 `json:"scope2_tco2e"`
	Scope3TCO2e            float64 `json:"scope3_tco2e"`
	TotalTCO2e             float64 `json:"total_tco2e"`
	SequestrationTotalTCO2 float64 `json:"sequestration_total_tco2"`
	NetTotalTCO2e          float64 `json:"net_total_tco2e"`
}

// Summary is the cross-year projection report formatters consume.
type Summary struct {
	Years          []YearSummary                 `json:"years"`
	Trend          analytics.Trend               `json:"trend"`
	TrendChangePct float64                       `json:"trend_change_pct"`
	LatestYear     *int                          `json:"latest_year,omitempty"`
	Breakdown      map[string]map[string]float64 `json:"breakdown,omitempty"`
}

// YearlySummary projects every reporting year into totals, classifies the
// net-emission trend over the window and buckets the latest year's rows.
func (s *Service) YearlySummary(ctx context.Context, companyID uuid.UUID) (*Summary, error) {
	years, err := s.listYears(ctx, companyID)
	if err != nil {
		return nil, err
	}

	summary := &Summary{Years: make([]YearSummary, 0, len(years))}
	points := make([]analytics.Point, 0, len(years))
	for _, y := range years {
		summary.Years = append(summary.Years, YearSummary{
			Year:                   y.Year,
			Scope1TCO2e:            y.Emissions.Scope1.TotalTCO2e,
			Scope2TCO2e:            y.Emissions.Scope2.TotalTCO2e,
			Scope3TCO2e:            y.Emissions.Scope3.TotalTCO2e,
			TotalTCO2e:             y.Emissions.TotalScopeEmissionTCO2e,
			SequestrationTotalTCO2: y.Sequestration.AnnualSummary.SequestrationTotalTCO2,
			NetTotalTCO2e:          y.Emissions.NetTotalEmissionTCO2e,
		})
		points = append(points, analytics.Point{Year: y.Year, Value: y.Emissions.NetTotalEmissionTCO2e})
	}
	summary.Trend, summary.TrendChangePct = analytics.TrendForSeries(points)

	if len(years) > 0 {
		latest := years[len(years)-1]
		summary.LatestYear = &latest.Year
		summary.Breakdown = s.calculator.ScopeBreakdown(&latest)
	}
	return summary, nil
}

// Confidence scores how trustworthy the company's carbon data is.
func (s *Service) Confidence(ctx context.Context, companyID uuid.UUID) (*ConfidenceResult, error) {
	record, err := s.store.GetActiveRecord(ctx, companyID, records.DomainCarbon)
	if err != nil {
		return nil, err
	}
	decoded, err := DecodeYears(record)
	if err != nil {
		return nil, apperrors.Internal("failed to decode carbon years", err)
	}
	years := make([]YearlyCarbonData, 0, len(decoded))
	for _, y := range decoded {
		if y.IsActive {
			years = append(years, y)
		}
	}
	sort.Slice(years, func(i, j int) bool { return years[i].Year < years[j].Year })
	metrics, err := record.DecodeMetrics()
	if err != nil {
		return nil, apperrors.Internal("failed to decode metrics", err)
	}

	present := make(map[string]bool, len(metrics))
	for _, metric := range metrics {
		if metric.IsActive {
			present[metric.MetricName] = true
		}
	}

	input := ConfidenceInput{
		RequiredMetrics: s.cfg.RequiredMetrics,
		PresentMetrics:  present,
		YearsCovered:    len(years),
		Verification:    record.VerificationStatus,
	}

	if len(years) > 0 {
		latest := years[len(years)-1]
		input.ComputedTotal = latest.Emissions.TotalScopeEmissionTCO2e
		for _, metric := range metrics {
			if !metric.IsActive || metric.MetricName != totalEmissionsMetric {
				continue
			}
			if datum := records.MetricValueByYear(metric, strconv.Itoa(latest.Year)); datum != nil {
				reported := datum.NumericValue
				input.ReportedTotal = &reported
			}
		}
	}

	result := ConfidenceScore(input)
	return &result, nil
}

func (s *Service) listYears(ctx context.Context, companyID uuid.UUID) ([]YearlyCarbonData, error) {
	record, err := s.store.GetActiveRecord(ctx, companyID, records.DomainCarbon)
	if err != nil {
		return nil, err
	}
	years, err := DecodeYears(record)
	if err != nil {
		return nil, apperrors.Internal("failed to decode carbon years", err)
	}
	active := make([]YearlyCarbonData, 0, len(years))
	for _, y := range years {
		if y.IsActive {
			active = append(active, y)
		}
	}
	sort.Slice(active, func(i, j int) bool { return active[i].Year < active[j].Year })
	return active, nil
}

// prepareYear validates the payload and parses raw row quantities.
// Unparsable numerics fail with a field-level validation error instead of
// being coerced to zero. markRowsActive is set on first ingestion, where
// the caller has no say over row flags yet.
func (s *Service) prepareYear(year *YearlyCarbonData, markRowsActive bool) error {
	var fields []apperrors.FieldError

	if year.Year < 1900 || year.Year > 2200 {
		fields = append(fields, apperrors.FieldError{
			Field:   "year",
			Message: fmt.Sprintf("year %d out of range", year.Year),
		})
	}
	if year.Sequestration.ReportingAreaHa < 0 {
		fields = append(fields, apperrors.FieldError{Field: "sequestration.reporting_area_ha", Message: "must not be negative"})
	}
	if year.Sequestration.SOCAreaHa < 0 {
		fields = append(fields, apperrors.FieldError{Field: "sequestration.soc_area_ha", Message: "must not be negative"})
	}
	if year.DataQuality.CompletenessScore < 0 || year.DataQuality.CompletenessScore > 100 {
		fields = append(fields, apperrors.FieldError{Field: "data_quality.completeness_score", Message: "must be between 0 and 100"})
	}

	fields = append(fields, prepareRows("emissions.scope1.sources", year.Emissions.Scope1.Sources, markRowsActive)...)
	fields = append(fields, prepareRows("emissions.scope2.sources", year.Emissions.Scope2.Sources, markRowsActive)...)
	fields = append(fields, prepareRows("emissions.scope3.categories", year.Emissions.Scope3.Categories, markRowsActive)...)

	if len(fields) > 0 {
		return apperrors.Validation(fmt.Sprintf("invalid yearly carbon data for %d", year.Year), fields...)
	}
	return nil
}

func prepareRows(path string, rows []EmissionRow, markActive bool) []apperrors.FieldError {
	var fields []apperrors.FieldError
	for i := range rows {
		if markActive {
			rows[i].IsActive = true
		}
		if rows[i].Quantity != "" && rows[i].QuantityValue == nil {
			value, err := records.ParseNumericValue(rows[i].Quantity)
			if err != nil {
				fields = append(fields, apperrors.FieldError{
					Field:   fmt.Sprintf("%s[%d].quantity", path, i),
					Message: err.Error(),
				})
				continue
			}
			rows[i].QuantityValue = &value
		}
		if rows[i].GWP != nil && *rows[i].GWP < 0 {
			fields = append(fields, apperrors.FieldError{
				Field:   fmt.Sprintf("%s[%d].gwp", path, i),
				Message: "must not be negative",
			})
		}
	}
	return fields
}
