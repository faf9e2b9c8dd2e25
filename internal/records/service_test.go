package records

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"carbon-scribe/esg-metrics/esg-metrics-backend/internal/identity"
	"carbon-scribe/esg-metrics/esg-metrics-backend/pkg/apperrors"
)

func setupTestService(t *testing.T) (*Service, *Repository) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	// Each pooled connection gets its own :memory: database, so keep the
	// pool at one connection for parallel readers to see the same data.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, AutoMigrate(db))

	repo := NewRepository(db)
	svc := NewService(repo, identity.NewStaticResolver(nil), zap.NewNop())
	return svc, repo
}

func testActor(role string) Actor {
	return Actor{ID: uuid.New(), Role: role}
}

func headcountSpec() MetricSpec {
	return MetricSpec{
		Category:   "employment",
		MetricName: "total_headcount",
		DataType:   DataTypeYearlySeries,
		YearlyData: []YearlyDatumSpec{
			{Year: "FY2022", Value: "1,250", Unit: "people"},
			{Year: "FY2023", Value: "1310", Unit: "people"},
		},
	}
}

func TestCreateRecord(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()
	actor := testActor(RoleMember)
	companyID := uuid.New()

	record, err := svc.CreateRecord(ctx, CreateRecordRequest{
		CompanyID: companyID,
		Domain:    DomainWorkforce,
		Metrics:   []MetricSpec{headcountSpec()},
	}, actor)
	require.NoError(t, err)

	assert.Equal(t, 1, record.Version)
	assert.True(t, record.IsActive)
	assert.Equal(t, VerificationUnverified, record.VerificationStatus)
	assert.Equal(t, ValidationNotValidated, record.ValidationStatus)

	metrics, err := record.DecodeMetrics()
	require.NoError(t, err)
	require.Len(t, metrics, 1)
	require.Len(t, metrics[0].YearlyData, 2)
	assert.Equal(t, 2022, metrics[0].YearlyData[0].FiscalYear)
	assert.Equal(t, 1250.0, metrics[0].YearlyData[0].NumericValue)
}

func TestCreateRecord_SecondActiveConflicts(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()
	actor := testActor(RoleMember)
	companyID := uuid.New()

	_, err := svc.CreateRecord(ctx, CreateRecordRequest{CompanyID: companyID, Domain: DomainWorkforce}, actor)
	require.NoError(t, err)

	_, err = svc.CreateRecord(ctx, CreateRecordRequest{CompanyID: companyID, Domain: DomainWorkforce}, actor)
	assert.True(t, apperrors.IsConflict(err))

	// A different domain for the same company is unaffected.
	_, err = svc.CreateRecord(ctx, CreateRecordRequest{CompanyID: companyID, Domain: DomainEnergy}, actor)
	assert.NoError(t, err)
}

func TestCreateRecord_RejectsBadInput(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()
	actor := testActor(RoleMember)

	_, err := svc.CreateRecord(ctx, CreateRecordRequest{CompanyID: uuid.New(), Domain: "finance"}, actor)
	assert.True(t, apperrors.IsValidation(err))

	_, err = svc.CreateRecord(ctx, CreateRecordRequest{Domain: DomainWaste}, actor)
	assert.True(t, apperrors.IsValidation(err))

	_, err = svc.CreateRecord(ctx, CreateRecordRequest{
		CompanyID: uuid.New(),
		Domain:    DomainWaste,
		Metrics: []MetricSpec{{
			Category:   "disposal",
			MetricName: "landfill_tonnes",
			DataType:   DataTypeYearlySeries,
			YearlyData: []YearlyDatumSpec{{Year: "FY2023", Value: "not a number"}},
		}},
	}, actor)
	require.True(t, apperrors.IsValidation(err))
	var appErr *apperrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.NotEmpty(t, appErr.Fields)
}

func TestCreateRecord_RejectsReusedVersion(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()
	actor := testActor(RoleMember)
	companyID := uuid.New()

	v1, err := svc.CreateRecord(ctx, CreateRecordRequest{CompanyID: companyID, Domain: DomainWorkforce}, actor)
	require.NoError(t, err)
	require.NoError(t, svc.DeleteRecord(ctx, v1.ID, actor))

	// Versions are monotonic per chain even across soft deletes; a number
	// at or below the chain's max is never minted twice.
	_, err = svc.CreateRecord(ctx, CreateRecordRequest{CompanyID: companyID, Domain: DomainWorkforce, Version: 1}, actor)
	assert.True(t, apperrors.IsConflict(err))

	// Gaps above the max are allowed, e.g. when re-importing numbered
	// snapshots from an upstream system.
	v5, err := svc.CreateRecord(ctx, CreateRecordRequest{CompanyID: companyID, Domain: DomainWorkforce, Version: 5}, actor)
	require.NoError(t, err)
	assert.Equal(t, 5, v5.Version)

	versions, err := svc.GetDataVersions(ctx, companyID, DomainWorkforce)
	require.NoError(t, err)
	require.Len(t, versions, 2)
	assert.Equal(t, 5, versions[0].Record.Version)
	assert.Equal(t, 1, versions[1].Record.Version)
}

func TestUpsertMetric_ReplacesByKey(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()
	actor := testActor(RoleMember)
	companyID := uuid.New()

	_, err := svc.CreateRecord(ctx, CreateRecordRequest{
		CompanyID: companyID,
		Domain:    DomainWorkforce,
		Metrics:   []MetricSpec{headcountSpec()},
	}, actor)
	require.NoError(t, err)

	updated := headcountSpec()
	updated.YearlyData = append(updated.YearlyData, YearlyDatumSpec{Year: "FY2024", Value: "1400", Unit: "people"})

	record, err := svc.UpsertMetric(ctx, companyID, DomainWorkforce, updated, actor)
	require.NoError(t, err)

	metrics, err := record.DecodeMetrics()
	require.NoError(t, err)
	// Same (category, metric_name, subcategory) key replaces in place.
	require.Len(t, metrics, 1)
	assert.Len(t, metrics[0].YearlyData, 3)

	other := MetricSpec{
		Category:    "employment",
		Subcategory: "seasonal",
		MetricName:  "total_headcount",
		DataType:    DataTypeSingleValue,
		SingleValue: &YearlyDatumSpec{Year: "2024", Value: "85", Unit: "people"},
	}
	record, err = svc.UpsertMetric(ctx, companyID, DomainWorkforce, other, actor)
	require.NoError(t, err)

	metrics, err = record.DecodeMetrics()
	require.NoError(t, err)
	assert.Len(t, metrics, 2)
}

func TestUpsertMetric_NoActiveRecord(t *testing.T) {
	svc, _ := setupTestService(t)
	_, err := svc.UpsertMetric(context.Background(), uuid.New(), DomainWorkforce, headcountSpec(), testActor(RoleMember))
	assert.True(t, apperrors.IsNotFound(err))
}

func TestBulkUpdateMetrics_PartialSuccess(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()
	actor := testActor(RoleMember)
	companyID := uuid.New()

	_, err := svc.CreateRecord(ctx, CreateRecordRequest{CompanyID: companyID, Domain: DomainEnergy}, actor)
	require.NoError(t, err)

	specs := []MetricSpec{
		{
			Category:   "consumption",
			MetricName: "grid_electricity_kwh",
			DataType:   DataTypeYearlySeries,
			YearlyData: []YearlyDatumSpec{{Year: "FY2023", Value: "480000", Unit: "kWh"}},
		},
		{
			Category:   "consumption",
			MetricName: "diesel_litres",
			DataType:   DataTypeYearlySeries,
			YearlyData: []YearlyDatumSpec{{Year: "FY2023", Value: "lots"}},
		},
		{
			Category:   "generation",
			MetricName: "renewable_sources",
			DataType:   DataTypeList,
			ListData:   []string{"solar", "biogas"},
		},
	}

	results, err := svc.BulkUpdateMetrics(ctx, companyID, DomainEnergy, specs, actor)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "ok", results[0].Status)
	assert.Equal(t, "error", results[1].Status)
	assert.NotEmpty(t, results[1].Error)
	assert.Equal(t, "ok", results[2].Status)

	record, err := svc.GetActiveRecord(ctx, companyID, DomainEnergy)
	require.NoError(t, err)
	metrics, err := record.DecodeMetrics()
	require.NoError(t, err)
	assert.Len(t, metrics, 2)
}

func TestBulkUpdateMetrics_AllItemsFail(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()
	actor := testActor(RoleMember)
	companyID := uuid.New()

	created, err := svc.CreateRecord(ctx, CreateRecordRequest{
		CompanyID: companyID,
		Domain:    DomainEnergy,
		Metrics:   []MetricSpec{headcountSpec()},
	}, actor)
	require.NoError(t, err)

	specs := []MetricSpec{
		{
			Category:   "consumption",
			MetricName: "diesel_litres",
			DataType:   DataTypeYearlySeries,
			YearlyData: []YearlyDatumSpec{{Year: "FY2023", Value: "lots"}},
		},
		{
			MetricName: "grid_electricity_kwh",
			DataType:   DataTypeYearlySeries,
		},
	}

	results, err := svc.BulkUpdateMetrics(ctx, companyID, DomainEnergy, specs, actor)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "error", results[0].Status)
	assert.Equal(t, "error", results[1].Status)

	// Nothing applied, so nothing was written.
	reloaded, err := svc.GetActiveRecord(ctx, companyID, DomainEnergy)
	require.NoError(t, err)
	assert.Equal(t, []byte(created.Metrics), []byte(reloaded.Metrics))
	assert.Equal(t, created.Revision, reloaded.Revision)
	assert.Nil(t, reloaded.LastUpdatedAt)
}

func TestDeleteMetric_SoftDelete(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()
	actor := testActor(RoleMember)
	companyID := uuid.New()

	record, err := svc.CreateRecord(ctx, CreateRecordRequest{
		CompanyID: companyID,
		Domain:    DomainWorkforce,
		Metrics:   []MetricSpec{headcountSpec()},
	}, actor)
	require.NoError(t, err)

	metrics, err := record.DecodeMetrics()
	require.NoError(t, err)
	metricID := metrics[0].ID

	require.NoError(t, svc.DeleteMetric(ctx, record.ID, metricID, actor))

	reloaded, err := svc.GetRecordByID(ctx, record.ID)
	require.NoError(t, err)
	metrics, err = reloaded.DecodeMetrics()
	require.NoError(t, err)
	// The metric stays in storage, only its flag flips.
	require.Len(t, metrics, 1)
	assert.False(t, metrics[0].IsActive)

	err = svc.DeleteMetric(ctx, record.ID, uuid.New(), actor)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestDeleteRecord(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()
	actor := testActor(RoleMember)
	companyID := uuid.New()

	record, err := svc.CreateRecord(ctx, CreateRecordRequest{CompanyID: companyID, Domain: DomainWorkforce}, actor)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteRecord(ctx, record.ID, actor))

	reloaded, err := svc.GetRecordByID(ctx, record.ID)
	require.NoError(t, err)
	assert.False(t, reloaded.IsActive)
	require.NotNil(t, reloaded.DeletedBy)
	assert.Equal(t, actor.ID, *reloaded.DeletedBy)
	assert.NotNil(t, reloaded.DeletedAt)

	err = svc.DeleteRecord(ctx, record.ID, actor)
	assert.True(t, apperrors.IsConflict(err))

	_, err = svc.GetActiveRecord(ctx, companyID, DomainWorkforce)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestDeleteRecord_ConcurrentDeletesHaveOneWinner(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()
	companyID := uuid.New()
	first := testActor(RoleMember)
	second := testActor(RoleMember)

	record, err := svc.CreateRecord(ctx, CreateRecordRequest{CompanyID: companyID, Domain: DomainWorkforce}, first)
	require.NoError(t, err)

	errs := make(chan error, 2)
	go func() { errs <- svc.DeleteRecord(ctx, record.ID, first) }()
	go func() { errs <- svc.DeleteRecord(ctx, record.ID, second) }()

	var conflicts, successes int
	for i := 0; i < 2; i++ {
		if err := <-errs; err != nil {
			require.True(t, apperrors.IsConflict(err))
			conflicts++
		} else {
			successes++
		}
	}
	// The loser must see the record already deactivated, never overwrite
	// the winner's deletion stamp.
	assert.Equal(t, 1, successes)
	assert.Equal(t, 1, conflicts)

	reloaded, err := svc.GetRecordByID(ctx, record.ID)
	require.NoError(t, err)
	require.NotNil(t, reloaded.DeletedBy)
	assert.Contains(t, []uuid.UUID{first.ID, second.ID}, *reloaded.DeletedBy)
}

func TestDeactivatedRecordIsReadOnly(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()
	owner := testActor(RoleOwner)
	companyID := uuid.New()

	record, err := svc.CreateRecord(ctx, CreateRecordRequest{
		CompanyID: companyID,
		Domain:    DomainWorkforce,
		Metrics:   []MetricSpec{headcountSpec()},
	}, owner)
	require.NoError(t, err)
	metrics, err := record.DecodeMetrics()
	require.NoError(t, err)

	require.NoError(t, svc.DeleteRecord(ctx, record.ID, owner))

	err = svc.DeleteMetric(ctx, record.ID, metrics[0].ID, owner)
	assert.True(t, apperrors.IsConflict(err))

	_, err = svc.UpdateVerificationStatus(ctx, record.ID, VerificationPendingReview, "", owner)
	assert.True(t, apperrors.IsConflict(err))

	_, err = svc.RunValidation(ctx, record.ID, owner)
	assert.True(t, apperrors.IsConflict(err))
}

func TestRestoreVersion(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()
	owner := testActor(RoleOwner)
	companyID := uuid.New()

	v1, err := svc.CreateRecord(ctx, CreateRecordRequest{
		CompanyID: companyID,
		Domain:    DomainWorkforce,
		Metrics:   []MetricSpec{headcountSpec()},
	}, owner)
	require.NoError(t, err)

	// Move the chain forward so v1 becomes history.
	require.NoError(t, svc.DeleteRecord(ctx, v1.ID, owner))
	v2, err := svc.CreateRecord(ctx, CreateRecordRequest{CompanyID: companyID, Domain: DomainWorkforce}, owner)
	require.NoError(t, err)
	require.Equal(t, 2, v2.Version)

	restored, err := svc.RestoreVersion(ctx, companyID, DomainWorkforce, v1.ID, owner)
	require.NoError(t, err)

	assert.Equal(t, 3, restored.Version)
	assert.True(t, restored.IsActive)
	require.NotNil(t, restored.RestoredFromID)
	assert.Equal(t, v1.ID, *restored.RestoredFromID)
	require.NotNil(t, restored.PreviousVersionID)
	assert.Equal(t, v2.ID, *restored.PreviousVersionID)
	assert.Equal(t, VerificationUnverified, restored.VerificationStatus)
	assert.Equal(t, ValidationNotValidated, restored.ValidationStatus)

	// Content is a value copy of the target.
	restoredMetrics, err := restored.DecodeMetrics()
	require.NoError(t, err)
	sourceMetrics, err := v1.DecodeMetrics()
	require.NoError(t, err)
	assert.Equal(t, sourceMetrics, restoredMetrics)

	previous, err := svc.GetRecordByID(ctx, v2.ID)
	require.NoError(t, err)
	assert.False(t, previous.IsActive)

	active, err := svc.GetActiveRecord(ctx, companyID, DomainWorkforce)
	require.NoError(t, err)
	assert.Equal(t, restored.ID, active.ID)
}

func TestRestoreVersion_RequiresElevatedRole(t *testing.T) {
	svc, _ := setupTestService(t)
	_, err := svc.RestoreVersion(context.Background(), uuid.New(), DomainWorkforce, uuid.New(), testActor(RoleMember))
	assert.True(t, apperrors.IsForbidden(err))
}

func TestRestoreVersion_ForeignRecordLooksAbsent(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()
	owner := testActor(RoleOwner)

	other, err := svc.CreateRecord(ctx, CreateRecordRequest{CompanyID: uuid.New(), Domain: DomainWorkforce}, owner)
	require.NoError(t, err)

	_, err = svc.RestoreVersion(ctx, uuid.New(), DomainWorkforce, other.ID, owner)
	assert.True(t, apperrors.IsNotFound(err))

	_, err = svc.RestoreVersion(ctx, other.CompanyID, DomainEnergy, other.ID, owner)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestSave_OptimisticConflict(t *testing.T) {
	svc, repo := setupTestService(t)
	ctx := context.Background()
	actor := testActor(RoleMember)
	companyID := uuid.New()

	record, err := svc.CreateRecord(ctx, CreateRecordRequest{CompanyID: companyID, Domain: DomainWorkforce}, actor)
	require.NoError(t, err)

	first, err := repo.GetByID(ctx, record.ID)
	require.NoError(t, err)
	second, err := repo.GetByID(ctx, record.ID)
	require.NoError(t, err)

	require.NoError(t, repo.Save(ctx, first))

	err = repo.Save(ctx, second)
	require.True(t, apperrors.IsConflict(err))
	// The stale copy keeps the revision it read, so a reload-and-retry works.
	assert.Equal(t, record.Revision, second.Revision)
}

func TestGetDataVersions(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()
	owner := testActor(RoleOwner)
	companyID := uuid.New()

	v1, err := svc.CreateRecord(ctx, CreateRecordRequest{CompanyID: companyID, Domain: DomainWorkforce}, owner)
	require.NoError(t, err)
	require.NoError(t, svc.DeleteRecord(ctx, v1.ID, owner))
	_, err = svc.CreateRecord(ctx, CreateRecordRequest{CompanyID: companyID, Domain: DomainWorkforce}, owner)
	require.NoError(t, err)

	versions, err := svc.GetDataVersions(ctx, companyID, DomainWorkforce)
	require.NoError(t, err)
	require.Len(t, versions, 2)
	assert.Equal(t, 2, versions[0].Record.Version)
	assert.Equal(t, 1, versions[1].Record.Version)
	require.NotNil(t, versions[1].DeletedBy)
}

func TestUpdateVerificationStatus(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()
	owner := testActor(RoleOwner)
	companyID := uuid.New()

	record, err := svc.CreateRecord(ctx, CreateRecordRequest{
		CompanyID: companyID,
		Domain:    DomainWorkforce,
		Metrics:   []MetricSpec{headcountSpec()},
	}, owner)
	require.NoError(t, err)

	_, err = svc.UpdateVerificationStatus(ctx, record.ID, VerificationVerified, "", testActor(RoleMember))
	assert.True(t, apperrors.IsForbidden(err))

	// unverified cannot jump straight to verified.
	_, err = svc.UpdateVerificationStatus(ctx, record.ID, VerificationVerified, "", owner)
	assert.True(t, apperrors.IsConflict(err))

	updated, err := svc.UpdateVerificationStatus(ctx, record.ID, VerificationPendingReview, "submitted for review", owner)
	require.NoError(t, err)
	assert.Equal(t, VerificationPendingReview, updated.VerificationStatus)

	updated, err = svc.UpdateVerificationStatus(ctx, record.ID, VerificationVerified, "checked against invoices", owner)
	require.NoError(t, err)
	assert.Equal(t, VerificationVerified, updated.VerificationStatus)
	require.NotNil(t, updated.VerifiedBy)
	assert.Equal(t, owner.ID, *updated.VerifiedBy)
	assert.NotNil(t, updated.VerifiedAt)
}

func TestUpdateVerificationStatus_CriticalIssuesBlockVerification(t *testing.T) {
	svc, repo := setupTestService(t)
	ctx := context.Background()
	owner := testActor(RoleOwner)
	companyID := uuid.New()

	record, err := svc.CreateRecord(ctx, CreateRecordRequest{CompanyID: companyID, Domain: DomainWorkforce}, owner)
	require.NoError(t, err)

	// Inject a metric with two populated slots, which the validation pass
	// grades critical.
	broken := Metric{
		ID:         uuid.New(),
		Category:   "employment",
		MetricName: "total_headcount",
		DataType:   DataTypeYearlySeries,
		YearlyData: []YearlyDatum{{Year: "FY2023", FiscalYear: 2023, Value: "10", NumericValue: 10, Unit: "people"}},
		SummaryVal: "ten",
		IsActive:   true,
	}
	require.NoError(t, record.EncodeMetrics([]Metric{broken}))
	require.NoError(t, repo.Save(ctx, record))

	validated, err := svc.RunValidation(ctx, record.ID, owner)
	require.NoError(t, err)
	assert.Equal(t, ValidationFailed, validated.ValidationStatus)
	assert.True(t, validated.HasCriticalIssues())

	_, err = svc.UpdateVerificationStatus(ctx, record.ID, VerificationPendingReview, "", owner)
	require.NoError(t, err)
	_, err = svc.UpdateVerificationStatus(ctx, record.ID, VerificationVerified, "", owner)
	assert.True(t, apperrors.IsValidation(err))
}

func TestRunValidation(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()
	actor := testActor(RoleMember)
	companyID := uuid.New()

	record, err := svc.CreateRecord(ctx, CreateRecordRequest{
		CompanyID: companyID,
		Domain:    DomainWorkforce,
		Metrics:   []MetricSpec{headcountSpec()},
	}, actor)
	require.NoError(t, err)

	validated, err := svc.RunValidation(ctx, record.ID, actor)
	require.NoError(t, err)
	assert.Equal(t, ValidationValidated, validated.ValidationStatus)
	require.NotNil(t, validated.DataQualityScore)
	assert.Greater(t, *validated.DataQualityScore, 0.0)

	// Re-running is always allowed.
	_, err = svc.RunValidation(ctx, record.ID, actor)
	assert.NoError(t, err)
}

func TestRunValidation_MissingUnitIsOnlyAWarning(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()
	actor := testActor(RoleMember)
	companyID := uuid.New()

	record, err := svc.CreateRecord(ctx, CreateRecordRequest{
		CompanyID: companyID,
		Domain:    DomainWorkforce,
		Metrics: []MetricSpec{{
			Category:   "employment",
			MetricName: "total_headcount",
			DataType:   DataTypeYearlySeries,
			YearlyData: []YearlyDatumSpec{{Year: "FY2023", Value: "1310"}},
		}},
	}, actor)
	require.NoError(t, err)

	validated, err := svc.RunValidation(ctx, record.ID, actor)
	require.NoError(t, err)
	assert.Equal(t, ValidationValidated, validated.ValidationStatus)

	issues, err := validated.DecodeValidationIssues()
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, SeverityWarning, issues[0].Severity)
	assert.Equal(t, "unit", issues[0].Field)
}

func TestParseNumericValue(t *testing.T) {
	value, err := ParseNumericValue("1,234.5")
	require.NoError(t, err)
	assert.Equal(t, 1234.5, value)

	value, err = ParseNumericValue("  ")
	require.NoError(t, err)
	assert.Zero(t, value)

	_, err = ParseNumericValue("n/a")
	assert.Error(t, err)
}

func TestParseFiscalYear(t *testing.T) {
	for label, expected := range map[string]int{
		"FY2023": 2023,
		"fy2023": 2023,
		"2023":   2023,
	} {
		year, err := parseFiscalYear(label)
		require.NoError(t, err, label)
		assert.Equal(t, expected, year)
	}

	_, err := parseFiscalYear("FY1850")
	assert.Error(t, err)
	_, err = parseFiscalYear("202X")
	assert.Error(t, err)
}
