package records

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"carbon-scribe/esg-metrics/esg-metrics-backend/internal/identity"
	"carbon-scribe/esg-metrics/esg-metrics-backend/pkg/apperrors"
	"carbon-scribe/esg-metrics/esg-metrics-backend/pkg/workflows"
)

// Actor is the already-authenticated caller of an operation. Roles come
// from the identity service; this core only checks them.
type Actor struct {
	ID   uuid.UUID
	Role string
}

const (
	RoleOwner    = "owner"
	RoleVerifier = "verifier"
	RoleMember   = "member"
)

// Elevated reports whether the actor may verify records and restore
// versions.
func (a Actor) Elevated() bool {
	return a.Role == RoleOwner || a.Role == RoleVerifier
}

// PayloadValidator lets a domain package contribute validation findings
// for its own payload without this package depending on it.
type PayloadValidator interface {
	ValidatePayload(record *MetricRecord) []ValidationIssue
}

// Requests

type YearlyDatumSpec struct {
	Year   string `json:"year"`
	Value  string `json:"value"`
	Unit   string `json:"unit"`
	Source string `json:"source"`
	Notes  string `json:"notes"`
}

type MetricSpec struct {
	Category     string            `json:"category"`
	Subcategory  string            `json:"subcategory"`
	MetricName   string            `json:"metric_name"`
	DataType     DataType          `json:"data_type"`
	YearlyData   []YearlyDatumSpec `json:"yearly_data"`
	SingleValue  *YearlyDatumSpec  `json:"single_value"`
	ListData     []string          `json:"list_data"`
	SummaryValue string            `json:"summary_value"`
}

type CreateRecordRequest struct {
	CompanyID      uuid.UUID    `json:"company_id"`
	Domain         Domain       `json:"domain"`
	Metrics        []MetricSpec `json:"metrics"`
	Version        int          `json:"version"`
	ImportBatchID  string       `json:"import_batch_id"`
	SourceFilename string       `json:"source_filename"`
}

// BulkResult reports the outcome of one item of a bulk upsert.
type BulkResult struct {
	MetricName string `json:"metric_name"`
	Status     string `json:"status"`
	Error      string `json:"error,omitempty"`
}

// RecordVersion is one entry of the versions listing with resolved
// identities.
type RecordVersion struct {
	Record     MetricRecord       `json:"record"`
	CreatedBy  identity.Identity  `json:"created_by"`
	VerifiedBy *identity.Identity `json:"verified_by,omitempty"`
	DeletedBy  *identity.Identity `json:"deleted_by,omitempty"`
}

// Service owns record lifecycle, the version chain invariants and the
// verification/validation workflow.
type Service struct {
	repo       *Repository
	resolver   identity.Resolver
	logger     *zap.Logger
	locks      *keyLock
	verifSM    *workflows.StateMachine
	validSM    *workflows.StateMachine
	validators map[Domain]PayloadValidator
}

func NewService(repo *Repository, resolver identity.Resolver, logger *zap.Logger) *Service {
	return &Service{
		repo:       repo,
		resolver:   resolver,
		logger:     logger,
		locks:      newKeyLock(),
		verifSM:    workflows.NewVerificationStateMachine(),
		validSM:    workflows.NewValidationStateMachine(),
		validators: make(map[Domain]PayloadValidator),
	}
}

// RegisterPayloadValidator attaches a domain payload validator. Called at
// wiring time, before the service handles traffic.
func (s *Service) RegisterPayloadValidator(domain Domain, v PayloadValidator) {
	s.validators[domain] = v
}

// CreateRecord creates the first record of a chain. Manual creation is
// for first-time ingestion only; if an active record exists the caller
// must go through upsert or restore instead.
func (s *Service) CreateRecord(ctx context.Context, req CreateRecordRequest, actor Actor) (*MetricRecord, error) {
	if !req.Domain.Valid() {
		return nil, apperrors.Validation("unknown domain", apperrors.FieldError{Field: "domain", Message: fmt.Sprintf("unknown domain %q", req.Domain)})
	}
	if req.CompanyID == uuid.Nil {
		return nil, apperrors.Validation("company_id is required", apperrors.FieldError{Field: "company_id", Message: "required"})
	}

	unlock := s.locks.Acquire(req.CompanyID, req.Domain)
	defer unlock()

	if _, err := s.repo.GetActive(ctx, req.CompanyID, req.Domain); err == nil {
		return nil, apperrors.Conflict("an active %s record already exists for company %s", req.Domain, req.CompanyID)
	} else if !apperrors.IsNotFound(err) {
		return nil, err
	}

	metrics := make([]Metric, 0, len(req.Metrics))
	for _, spec := range req.Metrics {
		metric, err := s.buildMetric(spec, actor)
		if err != nil {
			return nil, err
		}
		metrics = append(metrics, *metric)
	}

	maxVersion, err := s.repo.MaxVersion(ctx, req.CompanyID, req.Domain)
	if err != nil {
		return nil, err
	}
	version := req.Version
	if version <= 0 {
		version = maxVersion + 1
	} else if version <= maxVersion {
		// Versions are monotonic per chain; a reused number would corrupt
		// the versions listing.
		return nil, apperrors.Conflict("version %d is not above the chain's current version %d", version, maxVersion)
	}

	record := &MetricRecord{
		ID:                 uuid.New(),
		CompanyID:          req.CompanyID,
		Domain:             req.Domain,
		Version:            version,
		IsActive:           true,
		VerificationStatus: VerificationUnverified,
		ValidationStatus:   ValidationNotValidated,
		ImportBatchID:      req.ImportBatchID,
		SourceFilename:     req.SourceFilename,
		CreatedBy:          actor.ID,
		CreatedAt:          time.Now().UTC(),
	}
	if err := record.EncodeMetrics(metrics); err != nil {
		return nil, apperrors.Internal("failed to encode metrics", err)
	}
	if err := s.repo.Create(ctx, record); err != nil {
		s.logger.Error("create record failed",
			zap.String("company_id", req.CompanyID.String()),
			zap.String("domain", string(req.Domain)),
			zap.Error(err))
		return nil, err
	}

	s.logger.Info("record created",
		zap.String("record_id", record.ID.String()),
		zap.String("company_id", req.CompanyID.String()),
		zap.String("domain", string(req.Domain)),
		zap.Int("version", record.Version))
	return record, nil
}

// UpsertMetric finds or creates the metric identified by
// (category, metric_name, subcategory) inside the active record and
// replaces its data slot. It never duplicates a metric for the same key.
func (s *Service) UpsertMetric(ctx context.Context, companyID uuid.UUID, domain Domain, spec MetricSpec, actor Actor) (*MetricRecord, error) {
	unlock := s.locks.Acquire(companyID, domain)
	defer unlock()

	record, err := s.repo.GetActive(ctx, companyID, domain)
	if err != nil {
		return nil, err
	}
	if err := s.applyMetricSpec(record, spec, actor); err != nil {
		return nil, err
	}
	if err := s.saveMutation(ctx, record, actor); err != nil {
		return nil, err
	}
	return record, nil
}

// BulkUpdateMetrics applies each spec independently and reports a
// per-item result. A failing item never rolls back its siblings.
func (s *Service) BulkUpdateMetrics(ctx context.Context, companyID uuid.UUID, domain Domain, specs []MetricSpec, actor Actor) ([]BulkResult, error) {
	unlock := s.locks.Acquire(companyID, domain)
	defer unlock()

	record, err := s.repo.GetActive(ctx, companyID, domain)
	if err != nil {
		return nil, err
	}

	results := make([]BulkResult, 0, len(specs))
	applied := 0
	for _, spec := range specs {
		if err := s.applyMetricSpec(record, spec, actor); err != nil {
			results = append(results, BulkResult{MetricName: spec.MetricName, Status: "error", Error: err.Error()})
			continue
		}
		applied++
		results = append(results, BulkResult{MetricName: spec.MetricName, Status: "ok"})
	}

	if applied > 0 {
		if err := s.saveMutation(ctx, record, actor); err != nil {
			return nil, err
		}
	}
	return results, nil
}

// DeleteMetric soft-deletes one metric inside a record. The metric stays
// in storage for the audit trail and versions view.
func (s *Service) DeleteMetric(ctx context.Context, recordID, metricID uuid.UUID, actor Actor) error {
	record, err := s.repo.GetByID(ctx, recordID)
	if err != nil {
		return err
	}

	unlock := s.locks.Acquire(record.CompanyID, record.Domain)
	defer unlock()

	// Reload under the lock; the first read raced other writers, so the
	// active check must happen on this read.
	record, err = s.repo.GetByID(ctx, recordID)
	if err != nil {
		return err
	}
	if !record.IsActive {
		return apperrors.Conflict("record %s is deactivated and read-only", recordID)
	}

	metrics, err := record.DecodeMetrics()
	if err != nil {
		return apperrors.Internal("failed to decode metrics", err)
	}
	found := false
	for i := range metrics {
		if metrics[i].ID == metricID {
			metrics[i].IsActive = false
			found = true
			break
		}
	}
	if !found {
		return apperrors.NotFound("metric %s not found in record %s", metricID, recordID)
	}
	if err := record.EncodeMetrics(metrics); err != nil {
		return apperrors.Internal("failed to encode metrics", err)
	}
	return s.saveMutation(ctx, record, actor)
}

// DeleteRecord soft-deletes a whole record. It remains queryable through
// the versions listing.
func (s *Service) DeleteRecord(ctx context.Context, recordID uuid.UUID, actor Actor) error {
	record, err := s.repo.GetByID(ctx, recordID)
	if err != nil {
		return err
	}

	unlock := s.locks.Acquire(record.CompanyID, record.Domain)
	defer unlock()

	record, err = s.repo.GetByID(ctx, recordID)
	if err != nil {
		return err
	}
	if !record.IsActive {
		// A concurrent delete or restore may have deactivated the record
		// between the first read and taking the lock.
		return apperrors.Conflict("record %s is already deactivated", recordID)
	}

	now := time.Now().UTC()
	record.IsActive = false
	record.DeletedBy = &actor.ID
	record.DeletedAt = &now
	if err := s.saveMutation(ctx, record, actor); err != nil {
		return err
	}

	s.logger.Info("record deleted",
		zap.String("record_id", recordID.String()),
		zap.String("company_id", record.CompanyID.String()))
	return nil
}

// RestoreVersion creates a new active record as a value copy of a
// historical snapshot and deactivates the current active record, all in
// one transaction.
func (s *Service) RestoreVersion(ctx context.Context, companyID uuid.UUID, domain Domain, targetID uuid.UUID, actor Actor) (*MetricRecord, error) {
	if !actor.Elevated() {
		return nil, apperrors.Forbidden("restoring a version requires an owner or verifier role")
	}

	unlock := s.locks.Acquire(companyID, domain)
	defer unlock()

	target, err := s.repo.GetByID(ctx, targetID)
	if err != nil {
		return nil, err
	}
	// A foreign record id must look exactly like an absent one.
	if target.CompanyID != companyID || target.Domain != domain {
		return nil, apperrors.NotFound("record %s not found", targetID)
	}

	var restored *MetricRecord
	err = s.repo.WithTransaction(ctx, func(tx *Repository) error {
		maxVersion, err := tx.MaxVersion(ctx, companyID, domain)
		if err != nil {
			return err
		}

		var previousID *uuid.UUID
		current, err := tx.GetActive(ctx, companyID, domain)
		if err == nil {
			current.IsActive = false
			now := time.Now().UTC()
			current.LastUpdatedBy = &actor.ID
			current.LastUpdatedAt = &now
			if err := tx.Save(ctx, current); err != nil {
				return err
			}
			previousID = &current.ID
		} else if !apperrors.IsNotFound(err) {
			return err
		}

		targetRef := target.ID
		restored = &MetricRecord{
			ID:                 uuid.New(),
			CompanyID:          companyID,
			Domain:             domain,
			Version:            maxVersion + 1,
			IsActive:           true,
			PreviousVersionID:  previousID,
			RestoredFromID:     &targetRef,
			VerificationStatus: VerificationUnverified,
			ValidationStatus:   ValidationNotValidated,
			Metrics:            append([]byte(nil), target.Metrics...),
			CarbonYears:        append([]byte(nil), target.CarbonYears...),
			CreatedBy:          actor.ID,
			CreatedAt:          time.Now().UTC(),
		}
		return tx.Create(ctx, restored)
	})
	if err != nil {
		s.logger.Error("restore version failed",
			zap.String("company_id", companyID.String()),
			zap.String("target_id", targetID.String()),
			zap.Error(err))
		return nil, err
	}

	s.logger.Info("version restored",
		zap.String("company_id", companyID.String()),
		zap.String("restored_from", targetID.String()),
		zap.Int("version", restored.Version))
	return restored, nil
}

// GetDataVersions returns every snapshot of the chain, newest first, with
// creator and verifier identities resolved.
func (s *Service) GetDataVersions(ctx context.Context, companyID uuid.UUID, domain Domain) ([]RecordVersion, error) {
	versions, err := s.repo.ListVersions(ctx, companyID, domain)
	if err != nil {
		return nil, err
	}

	var ids []uuid.UUID
	for _, v := range versions {
		ids = append(ids, v.CreatedBy)
		if v.VerifiedBy != nil {
			ids = append(ids, *v.VerifiedBy)
		}
		if v.DeletedBy != nil {
			ids = append(ids, *v.DeletedBy)
		}
	}
	identities, err := s.resolver.Resolve(ctx, ids)
	if err != nil {
		// The listing is still useful without display names.
		s.logger.Warn("identity resolution failed", zap.Error(err))
		identities = map[uuid.UUID]identity.Identity{}
	}

	out := make([]RecordVersion, 0, len(versions))
	for _, v := range versions {
		entry := RecordVersion{Record: v, CreatedBy: identities[v.CreatedBy]}
		if v.VerifiedBy != nil {
			id := identities[*v.VerifiedBy]
			entry.VerifiedBy = &id
		}
		if v.DeletedBy != nil {
			id := identities[*v.DeletedBy]
			entry.DeletedBy = &id
		}
		out = append(out, entry)
	}
	return out, nil
}

// GetActiveRecord returns the active record for (company, domain).
func (s *Service) GetActiveRecord(ctx context.Context, companyID uuid.UUID, domain Domain) (*MetricRecord, error) {
	return s.repo.GetActive(ctx, companyID, domain)
}

// GetRecordByID returns any snapshot by id.
func (s *Service) GetRecordByID(ctx context.Context, id uuid.UUID) (*MetricRecord, error) {
	return s.repo.GetByID(ctx, id)
}

// MutateActiveRecord loads the active record under the per-key write lock,
// applies fn and persists the result with the optimistic revision check.
// Domain services build their payload mutations on top of this.
func (s *Service) MutateActiveRecord(ctx context.Context, companyID uuid.UUID, domain Domain, actor Actor, fn func(record *MetricRecord) error) (*MetricRecord, error) {
	unlock := s.locks.Acquire(companyID, domain)
	defer unlock()

	record, err := s.repo.GetActive(ctx, companyID, domain)
	if err != nil {
		return nil, err
	}
	if err := fn(record); err != nil {
		return nil, err
	}
	if err := s.saveMutation(ctx, record, actor); err != nil {
		return nil, err
	}
	return record, nil
}

// applyMetricSpec upserts one metric into the record's decoded metrics,
// matching on (category, metric_name, subcategory).
func (s *Service) applyMetricSpec(record *MetricRecord, spec MetricSpec, actor Actor) error {
	incoming, err := s.buildMetric(spec, actor)
	if err != nil {
		return err
	}

	metrics, err := record.DecodeMetrics()
	if err != nil {
		return apperrors.Internal("failed to decode metrics", err)
	}

	replaced := false
	for i := range metrics {
		if metrics[i].Key() == incoming.Key() {
			incoming.ID = metrics[i].ID
			incoming.IsActive = true
			metrics[i] = *incoming
			replaced = true
			break
		}
	}
	if !replaced {
		metrics = append(metrics, *incoming)
	}
	return record.EncodeMetrics(metrics)
}

// buildMetric validates a spec and produces a Metric with parsed values.
// Unparsable numerics fail here rather than being coerced to zero.
func (s *Service) buildMetric(spec MetricSpec, actor Actor) (*Metric, error) {
	var fields []apperrors.FieldError
	if spec.MetricName == "" {
		fields = append(fields, apperrors.FieldError{Field: "metric_name", Message: "required"})
	}
	if spec.Category == "" {
		fields = append(fields, apperrors.FieldError{Field: "category", Message: "required"})
	}

	metric := &Metric{
		ID:          uuid.New(),
		Category:    spec.Category,
		Subcategory: spec.Subcategory,
		MetricName:  spec.MetricName,
		IsActive:    true,
	}

	switch spec.DataType {
	case DataTypeYearlySeries:
		yearly, yearlyFields := parseYearlySpecs(spec.YearlyData, actor)
		fields = append(fields, yearlyFields...)
		if err := metric.SetData(DataTypeYearlySeries, yearly, nil, nil, ""); err != nil {
			return nil, apperrors.Internal("failed to set metric data", err)
		}
	case DataTypeSingleValue:
		if spec.SingleValue == nil {
			fields = append(fields, apperrors.FieldError{Field: "single_value", Message: "required for data_type single_value"})
		} else {
			parsed, parseFields := parseYearlySpecs([]YearlyDatumSpec{*spec.SingleValue}, actor)
			fields = append(fields, parseFields...)
			if len(parsed) == 1 {
				if err := metric.SetData(DataTypeSingleValue, nil, &parsed[0], nil, ""); err != nil {
					return nil, apperrors.Internal("failed to set metric data", err)
				}
			}
		}
	case DataTypeList:
		if err := metric.SetData(DataTypeList, nil, nil, spec.ListData, ""); err != nil {
			return nil, apperrors.Internal("failed to set metric data", err)
		}
	case DataTypeSummary:
		if err := metric.SetData(DataTypeSummary, nil, nil, nil, spec.SummaryValue); err != nil {
			return nil, apperrors.Internal("failed to set metric data", err)
		}
	default:
		fields = append(fields, apperrors.FieldError{Field: "data_type", Message: fmt.Sprintf("unknown data type %q", spec.DataType)})
	}

	if len(fields) > 0 {
		return nil, apperrors.Validation(fmt.Sprintf("invalid metric %q", spec.MetricName), fields...)
	}
	return metric, nil
}

// parseYearlySpecs parses year labels and values, collecting field errors
// instead of failing fast.
func parseYearlySpecs(specs []YearlyDatumSpec, actor Actor) ([]YearlyDatum, []apperrors.FieldError) {
	var fields []apperrors.FieldError
	seen := make(map[string]bool, len(specs))
	out := make([]YearlyDatum, 0, len(specs))
	now := time.Now().UTC()

	for _, spec := range specs {
		if seen[spec.Year] {
			fields = append(fields, apperrors.FieldError{
				Field:   "yearly_data." + spec.Year,
				Message: fmt.Sprintf("duplicate year %q", spec.Year),
			})
			continue
		}
		seen[spec.Year] = true

		fiscalYear, err := parseFiscalYear(spec.Year)
		if err != nil {
			fields = append(fields, apperrors.FieldError{
				Field:   "yearly_data." + spec.Year + ".year",
				Message: err.Error(),
			})
			continue
		}

		numeric, err := ParseNumericValue(spec.Value)
		if err != nil {
			fields = append(fields, apperrors.FieldError{
				Field:   "yearly_data." + spec.Year + ".value",
				Message: err.Error(),
			})
			continue
		}

		out = append(out, YearlyDatum{
			Year:         spec.Year,
			FiscalYear:   fiscalYear,
			Value:        spec.Value,
			NumericValue: numeric,
			Unit:         spec.Unit,
			Source:       spec.Source,
			Notes:        spec.Notes,
			AddedBy:      actor.ID,
			AddedAt:      now,
		})
	}
	return out, fields
}

func parseFiscalYear(label string) (int, error) {
	trimmed := strings.TrimSpace(strings.TrimPrefix(strings.TrimPrefix(label, "FY"), "fy"))
	year, err := strconv.Atoi(trimmed)
	if err != nil {
		return 0, fmt.Errorf("cannot parse year label %q", label)
	}
	if year < 1900 || year > 2200 {
		return 0, fmt.Errorf("year %d out of range", year)
	}
	return year, nil
}

// ParseNumericValue parses a raw metric value. Thousands separators are
// tolerated; anything else unparsable is an error, not a zero.
func ParseNumericValue(raw string) (float64, error) {
	cleaned := strings.TrimSpace(strings.ReplaceAll(raw, ",", ""))
	if cleaned == "" {
		return 0, nil
	}
	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("cannot parse numeric value %q", raw)
	}
	return value, nil
}

// saveMutation stamps provenance and persists the record.
func (s *Service) saveMutation(ctx context.Context, record *MetricRecord, actor Actor) error {
	now := time.Now().UTC()
	record.LastUpdatedBy = &actor.ID
	record.LastUpdatedAt = &now
	if err := s.repo.Save(ctx, record); err != nil {
		if apperrors.KindOf(err) == apperrors.KindInternal {
			s.logger.Error("record save failed",
				zap.String("record_id", record.ID.String()),
				zap.String("company_id", record.CompanyID.String()),
				zap.Error(err))
		}
		return err
	}
	return nil
}
