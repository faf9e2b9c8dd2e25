package records

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Domain identifies which sustainability area a record belongs to. One
// company holds at most one active record per domain.
type Domain string

const (
	DomainBiodiversity Domain = "biodiversity"
	DomainWorkforce    Domain = "workforce"
	DomainCommunity    Domain = "community"
	DomainEnergy       Domain = "energy"
	DomainWaste        Domain = "waste"
	DomainCarbon       Domain = "carbon_emission_accounting"
)

// Valid reports whether d is a known domain.
func (d Domain) Valid() bool {
	switch d {
	case DomainBiodiversity, DomainWorkforce, DomainCommunity,
		DomainEnergy, DomainWaste, DomainCarbon:
		return true
	}
	return false
}

// VerificationStatus is the trust state of a record.
type VerificationStatus string

const (
	VerificationUnverified    VerificationStatus = "unverified"
	VerificationPendingReview VerificationStatus = "pending_review"
	VerificationVerified      VerificationStatus = "verified"
	VerificationAudited       VerificationStatus = "audited"
	VerificationDisputed      VerificationStatus = "disputed"
)

// ValidationStatus is the data-quality state of a record.
type ValidationStatus string

const (
	ValidationNotValidated ValidationStatus = "not_validated"
	ValidationValidating   ValidationStatus = "validating"
	ValidationValidated    ValidationStatus = "validated"
	ValidationFailed       ValidationStatus = "failed_validation"
)

// Severity grades a validation issue.
type Severity string

const (
	SeverityWarning  Severity = "warning"
	SeverityError    Severity = "error"
	SeverityCritical Severity = "critical"
)

// ValidationIssue is one entry in a record's validation_errors list.
// Issues are collected, never thrown; a partially invalid record stays
// inspectable.
type ValidationIssue struct {
	MetricName string   `json:"metric_name,omitempty"`
	Year       string   `json:"year,omitempty"`
	Field      string   `json:"field"`
	Message    string   `json:"message"`
	Severity   Severity `json:"severity"`
}

// DataType selects which payload slot of a Metric is populated.
type DataType string

const (
	DataTypeYearlySeries DataType = "yearly_series"
	DataTypeSingleValue  DataType = "single_value"
	DataTypeList         DataType = "list"
	DataTypeSummary      DataType = "summary"
)

// YearlyDatum is one year of a yearly_series metric.
type YearlyDatum struct {
	Year          string     `json:"year"`
	FiscalYear    int        `json:"fiscal_year"`
	Value         string     `json:"value"`
	NumericValue  float64    `json:"numeric_value"`
	Unit          string     `json:"unit,omitempty"`
	Source        string     `json:"source,omitempty"`
	Notes         string     `json:"notes,omitempty"`
	AddedBy       uuid.UUID  `json:"added_by,omitempty"`
	AddedAt       time.Time  `json:"added_at,omitempty"`
	LastUpdatedBy *uuid.UUID `json:"last_updated_by,omitempty"`
	LastUpdatedAt *time.Time `json:"last_updated_at,omitempty"`
}

// Metric is one polymorphic entry inside a record. Exactly one payload
// slot is populated, selected by DataType; SetData keeps the others
// unreachable.
type Metric struct {
	ID          uuid.UUID     `json:"id"`
	Category    string        `json:"category"`
	Subcategory string        `json:"subcategory,omitempty"`
	MetricName  string        `json:"metric_name"`
	DataType    DataType      `json:"data_type"`
	YearlyData  []YearlyDatum `json:"yearly_data,omitempty"`
	SingleValue *YearlyDatum  `json:"single_value,omitempty"`
	ListData    []string      `json:"list_data,omitempty"`
	SummaryVal  string        `json:"summary_value,omitempty"`
	IsActive    bool          `json:"is_active"`
}

// Key identifies a metric within a record for upsert matching.
func (m *Metric) Key() string {
	return m.Category + "|" + m.MetricName + "|" + m.Subcategory
}

// SetData replaces the payload slot selected by dataType and clears the
// other three.
func (m *Metric) SetData(dataType DataType, yearly []YearlyDatum, single *YearlyDatum, list []string, summary string) error {
	m.YearlyData = nil
	m.SingleValue = nil
	m.ListData = nil
	m.SummaryVal = ""

	switch dataType {
	case DataTypeYearlySeries:
		m.YearlyData = yearly
	case DataTypeSingleValue:
		m.SingleValue = single
	case DataTypeList:
		m.ListData = list
	case DataTypeSummary:
		m.SummaryVal = summary
	default:
		return fmt.Errorf("unknown data type %q", dataType)
	}
	m.DataType = dataType
	return nil
}

// MetricRecord is one immutable-once-deactivated snapshot of a company's
// metrics for a domain. The version chain is a sequence of these rows;
// exactly one per (company, domain) is active.
type MetricRecord struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CompanyID uuid.UUID `gorm:"type:uuid;not null;index:idx_company_domain" json:"company_id"`
	Domain    Domain    `gorm:"type:varchar(64);not null;index:idx_company_domain" json:"domain"`

	Version  int  `gorm:"not null" json:"version"`
	IsActive bool `gorm:"not null;default:true" json:"is_active"`
	// Revision guards in-place writes: it increments on every update of
	// the snapshot and stale writers fail with a conflict.
	Revision int `gorm:"not null;default:0" json:"revision"`

	PreviousVersionID *uuid.UUID `gorm:"type:uuid" json:"previous_version,omitempty"`
	RestoredFromID    *uuid.UUID `gorm:"type:uuid" json:"restored_from,omitempty"`

	VerificationStatus VerificationStatus `gorm:"type:varchar(32);not null;default:'unverified'" json:"verification_status"`
	VerifiedBy         *uuid.UUID         `gorm:"type:uuid" json:"verified_by,omitempty"`
	VerifiedAt         *time.Time         `json:"verified_at,omitempty"`
	VerificationNotes  string             `json:"verification_notes,omitempty"`

	ValidationStatus ValidationStatus `gorm:"type:varchar(32);not null;default:'not_validated'" json:"validation_status"`
	ValidationErrors datatypes.JSON   `json:"validation_errors,omitempty"`
	DataQualityScore *float64         `json:"data_quality_score,omitempty"`

	// Metrics holds the []Metric payload. The carbon domain additionally
	// carries its yearly accounting payload in CarbonYears.
	Metrics     datatypes.JSON `json:"metrics"`
	CarbonYears datatypes.JSON `json:"carbon_years,omitempty"`

	ImportBatchID  string `json:"import_batch_id,omitempty"`
	SourceFilename string `json:"source_filename,omitempty"`

	CreatedBy     uuid.UUID  `gorm:"type:uuid" json:"created_by"`
	CreatedAt     time.Time  `json:"created_at"`
	LastUpdatedBy *uuid.UUID `gorm:"type:uuid" json:"last_updated_by,omitempty"`
	LastUpdatedAt *time.Time `json:"last_updated_at,omitempty"`
	DeletedBy     *uuid.UUID `gorm:"type:uuid" json:"deleted_by,omitempty"`
	DeletedAt     *time.Time `json:"deleted_at,omitempty"`
}

func (MetricRecord) TableName() string {
	return "metric_records"
}

// DecodeMetrics unmarshals the metrics payload.
func (r *MetricRecord) DecodeMetrics() ([]Metric, error) {
	if len(r.Metrics) == 0 {
		return nil, nil
	}
	var metrics []Metric
	if err := json.Unmarshal(r.Metrics, &metrics); err != nil {
		return nil, fmt.Errorf("failed to decode metrics for record %s: %w", r.ID, err)
	}
	return metrics, nil
}

// EncodeMetrics marshals metrics back into the record.
func (r *MetricRecord) EncodeMetrics(metrics []Metric) error {
	data, err := json.Marshal(metrics)
	if err != nil {
		return fmt.Errorf("failed to encode metrics: %w", err)
	}
	r.Metrics = datatypes.JSON(data)
	return nil
}

// DecodeValidationIssues unmarshals the validation_errors payload.
func (r *MetricRecord) DecodeValidationIssues() ([]ValidationIssue, error) {
	if len(r.ValidationErrors) == 0 {
		return nil, nil
	}
	var issues []ValidationIssue
	if err := json.Unmarshal(r.ValidationErrors, &issues); err != nil {
		return nil, fmt.Errorf("failed to decode validation errors for record %s: %w", r.ID, err)
	}
	return issues, nil
}

// HasCriticalIssues reports whether the last validation pass left any
// critical findings on the record.
func (r *MetricRecord) HasCriticalIssues() bool {
	issues, err := r.DecodeValidationIssues()
	if err != nil {
		return false
	}
	for _, issue := range issues {
		if issue.Severity == SeverityCritical {
			return true
		}
	}
	return false
}
