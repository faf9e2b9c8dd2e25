package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"carbon-scribe/esg-metrics/esg-metrics-backend/internal/carbon"
	"carbon-scribe/esg-metrics/esg-metrics-backend/internal/records"
	"carbon-scribe/esg-metrics/esg-metrics-backend/pkg/apperrors"
)

// Handler is the thin HTTP delivery layer. Authentication happens
// upstream; the gateway forwards the resolved actor in headers.
type Handler struct {
	records    *records.Service
	carbon     *carbon.Service
	logger     *zap.Logger
	production bool
}

func NewHandler(recordsService *records.Service, carbonService *carbon.Service, logger *zap.Logger, production bool) *Handler {
	return &Handler{
		records:    recordsService,
		carbon:     carbonService,
		logger:     logger,
		production: production,
	}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	companies := r.Group("/companies/:companyID")
	{
		companies.GET("/summary", h.CompanySummary)

		domain := companies.Group("/:domain")
		{
			domain.POST("/records", h.CreateRecord)
			domain.GET("/records/active", h.GetActiveRecord)
			domain.PUT("/metrics", h.UpsertMetric)
			domain.PUT("/metrics/bulk", h.BulkUpdateMetrics)
			domain.GET("/metrics/series", h.GetMetricsByNames)
			domain.GET("/versions", h.GetDataVersions)
			domain.POST("/versions/:recordID/restore", h.RestoreVersion)
		}

		carbonGroup := companies.Group("/carbon")
		{
			carbonGroup.POST("/years", h.AddYearlyData)
			carbonGroup.GET("/years", h.ListYears)
			carbonGroup.GET("/years/:year", h.GetYearlyData)
			carbonGroup.PUT("/years/:year", h.UpdateYearlyData)
			carbonGroup.DELETE("/years/:year", h.DeleteYearlyData)
			carbonGroup.GET("/years/:year/intensity", h.Intensity)
			carbonGroup.GET("/summary", h.CarbonSummary)
			carbonGroup.GET("/confidence", h.Confidence)
		}
	}

	rec := r.Group("/records/:recordID")
	{
		rec.GET("", h.GetRecord)
		rec.DELETE("", h.DeleteRecord)
		rec.DELETE("/metrics/:metricID", h.DeleteMetric)
		rec.POST("/verification", h.UpdateVerificationStatus)
		rec.POST("/validate", h.RunValidation)
	}
}

// Record endpoints

func (h *Handler) CreateRecord(c *gin.Context) {
	companyID, domain, ok := h.companyDomain(c)
	if !ok {
		return
	}
	var req records.CreateRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeError(c, apperrors.Validation("invalid request body", apperrors.FieldError{Field: "body", Message: err.Error()}))
		return
	}
	req.CompanyID = companyID
	req.Domain = domain

	record, err := h.records.CreateRecord(c.Request.Context(), req, h.actor(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, record)
}

func (h *Handler) GetActiveRecord(c *gin.Context) {
	companyID, domain, ok := h.companyDomain(c)
	if !ok {
		return
	}
	record, err := h.records.GetActiveRecord(c.Request.Context(), companyID, domain)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

func (h *Handler) GetRecord(c *gin.Context) {
	recordID, ok := h.uuidParam(c, "recordID")
	if !ok {
		return
	}
	record, err := h.records.GetRecordByID(c.Request.Context(), recordID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

func (h *Handler) UpsertMetric(c *gin.Context) {
	companyID, domain, ok := h.companyDomain(c)
	if !ok {
		return
	}
	var spec records.MetricSpec
	if err := c.ShouldBindJSON(&spec); err != nil {
		h.writeError(c, apperrors.Validation("invalid request body", apperrors.FieldError{Field: "body", Message: err.Error()}))
		return
	}
	record, err := h.records.UpsertMetric(c.Request.Context(), companyID, domain, spec, h.actor(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

func (h *Handler) BulkUpdateMetrics(c *gin.Context) {
	companyID, domain, ok := h.companyDomain(c)
	if !ok {
		return
	}
	var payload struct {
		Metrics []records.MetricSpec `json:"metrics"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		h.writeError(c, apperrors.Validation("invalid request body", apperrors.FieldError{Field: "body", Message: err.Error()}))
		return
	}
	results, err := h.records.BulkUpdateMetrics(c.Request.Context(), companyID, domain, payload.Metrics, h.actor(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": results})
}

func (h *Handler) DeleteMetric(c *gin.Context) {
	recordID, ok := h.uuidParam(c, "recordID")
	if !ok {
		return
	}
	metricID, ok := h.uuidParam(c, "metricID")
	if !ok {
		return
	}
	if err := h.records.DeleteMetric(c.Request.Context(), recordID, metricID, h.actor(c)); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

func (h *Handler) DeleteRecord(c *gin.Context) {
	recordID, ok := h.uuidParam(c, "recordID")
	if !ok {
		return
	}
	if err := h.records.DeleteRecord(c.Request.Context(), recordID, h.actor(c)); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

func (h *Handler) GetDataVersions(c *gin.Context) {
	companyID, domain, ok := h.companyDomain(c)
	if !ok {
		return
	}
	versions, err := h.records.GetDataVersions(c.Request.Context(), companyID, domain)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"versions": versions})
}

func (h *Handler) RestoreVersion(c *gin.Context) {
	companyID, domain, ok := h.companyDomain(c)
	if !ok {
		return
	}
	recordID, ok := h.uuidParam(c, "recordID")
	if !ok {
		return
	}
	record, err := h.records.RestoreVersion(c.Request.Context(), companyID, domain, recordID, h.actor(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, record)
}

func (h *Handler) UpdateVerificationStatus(c *gin.Context) {
	recordID, ok := h.uuidParam(c, "recordID")
	if !ok {
		return
	}
	var payload struct {
		Status records.VerificationStatus `json:"status"`
		Notes  string                     `json:"notes"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		h.writeError(c, apperrors.Validation("invalid request body", apperrors.FieldError{Field: "body", Message: err.Error()}))
		return
	}
	record, err := h.records.UpdateVerificationStatus(c.Request.Context(), recordID, payload.Status, payload.Notes, h.actor(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

func (h *Handler) RunValidation(c *gin.Context) {
	recordID, ok := h.uuidParam(c, "recordID")
	if !ok {
		return
	}
	record, err := h.records.RunValidation(c.Request.Context(), recordID, h.actor(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

func (h *Handler) GetMetricsByNames(c *gin.Context) {
	companyID, domain, ok := h.companyDomain(c)
	if !ok {
		return
	}
	names := splitQuery(c.Query("names"))
	years := splitQuery(c.Query("years"))
	series, err := h.records.GetMetricsByNames(c.Request.Context(), companyID, domain, names, years)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, series)
}

func (h *Handler) CompanySummary(c *gin.Context) {
	companyID, ok := h.uuidParam(c, "companyID")
	if !ok {
		return
	}
	summaries, err := h.records.CompanySummary(c.Request.Context(), companyID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"domains": summaries})
}

// Carbon endpoints

func (h *Handler) AddYearlyData(c *gin.Context) {
	companyID, ok := h.uuidParam(c, "companyID")
	if !ok {
		return
	}
	var year carbon.YearlyCarbonData
	if err := c.ShouldBindJSON(&year); err != nil {
		h.writeError(c, apperrors.Validation("invalid request body", apperrors.FieldError{Field: "body", Message: err.Error()}))
		return
	}
	added, err := h.carbon.AddYearlyData(c.Request.Context(), companyID, year, h.actor(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, added)
}

func (h *Handler) UpdateYearlyData(c *gin.Context) {
	companyID, ok := h.uuidParam(c, "companyID")
	if !ok {
		return
	}
	yearNum, ok := h.yearParam(c)
	if !ok {
		return
	}
	var year carbon.YearlyCarbonData
	if err := c.ShouldBindJSON(&year); err != nil {
		h.writeError(c, apperrors.Validation("invalid request body", apperrors.FieldError{Field: "body", Message: err.Error()}))
		return
	}
	updated, err := h.carbon.UpdateYearlyData(c.Request.Context(), companyID, yearNum, year, h.actor(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *Handler) DeleteYearlyData(c *gin.Context) {
	companyID, ok := h.uuidParam(c, "companyID")
	if !ok {
		return
	}
	yearNum, ok := h.yearParam(c)
	if !ok {
		return
	}
	if err := h.carbon.DeleteYearlyData(c.Request.Context(), companyID, yearNum, h.actor(c)); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

func (h *Handler) GetYearlyData(c *gin.Context) {
	companyID, ok := h.uuidParam(c, "companyID")
	if !ok {
		return
	}
	yearNum, ok := h.yearParam(c)
	if !ok {
		return
	}
	year, err := h.carbon.GetYearlyData(c.Request.Context(), companyID, yearNum)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, year)
}

func (h *Handler) ListYears(c *gin.Context) {
	companyID, ok := h.uuidParam(c, "companyID")
	if !ok {
		return
	}
	years, err := h.carbon.ListYears(c.Request.Context(), companyID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"years": years})
}

func (h *Handler) Intensity(c *gin.Context) {
	companyID, ok := h.uuidParam(c, "companyID")
	if !ok {
		return
	}
	yearNum, ok := h.yearParam(c)
	if !ok {
		return
	}
	result, err := h.carbon.Intensity(c.Request.Context(), companyID, yearNum, c.Query("industry"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) CarbonSummary(c *gin.Context) {
	companyID, ok := h.uuidParam(c, "companyID")
	if !ok {
		return
	}
	summary, err := h.carbon.YearlySummary(c.Request.Context(), companyID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *Handler) Confidence(c *gin.Context) {
	companyID, ok := h.uuidParam(c, "companyID")
	if !ok {
		return
	}
	result, err := h.carbon.Confidence(c.Request.Context(), companyID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Helpers

func (h *Handler) actor(c *gin.Context) records.Actor {
	actor := records.Actor{Role: c.GetHeader("X-User-Role")}
	if id, err := uuid.Parse(c.GetHeader("X-User-ID")); err == nil {
		actor.ID = id
	}
	if actor.Role == "" {
		actor.Role = records.RoleMember
	}
	return actor
}

func (h *Handler) companyDomain(c *gin.Context) (uuid.UUID, records.Domain, bool) {
	companyID, ok := h.uuidParam(c, "companyID")
	if !ok {
		return uuid.Nil, "", false
	}
	domain := records.Domain(c.Param("domain"))
	if !domain.Valid() {
		h.writeError(c, apperrors.Validation("unknown domain", apperrors.FieldError{Field: "domain", Message: "unknown domain " + c.Param("domain")}))
		return uuid.Nil, "", false
	}
	return companyID, domain, true
}

func (h *Handler) uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		h.writeError(c, apperrors.Validation("invalid id", apperrors.FieldError{Field: name, Message: "must be a uuid"}))
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) yearParam(c *gin.Context) (int, bool) {
	year, err := strconv.Atoi(c.Param("year"))
	if err != nil {
		h.writeError(c, apperrors.Validation("invalid year", apperrors.FieldError{Field: "year", Message: "must be an integer"}))
		return 0, false
	}
	return year, true
}

func (h *Handler) writeError(c *gin.Context, err error) {
	kind := apperrors.KindOf(err)

	status := http.StatusInternalServerError
	switch kind {
	case apperrors.KindNotFound:
		status = http.StatusNotFound
	case apperrors.KindConflict:
		status = http.StatusConflict
	case apperrors.KindValidation:
		status = http.StatusUnprocessableEntity
	case apperrors.KindForbidden:
		status = http.StatusForbidden
	}

	body := gin.H{"error": err.Error(), "kind": kind}
	var appErr *apperrors.Error
	if errors.As(err, &appErr) && len(appErr.Fields) > 0 {
		body["fields"] = appErr.Fields
	}

	if kind == apperrors.KindInternal {
		h.logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		if h.production {
			// Internal detail stays in the logs outside development.
			body = gin.H{"error": "internal error", "kind": kind}
		}
	}
	c.JSON(status, body)
}

func splitQuery(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := parts[:0]
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
