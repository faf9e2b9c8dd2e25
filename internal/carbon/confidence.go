package carbon

import (
	"math"

	"carbon-scribe/esg-metrics/esg-metrics-backend/internal/records"
)

// Confidence score weights. Checklist coverage dominates; year coverage
// contributes per distinct year up to the cap.
const (
	checklistWeight     = 40.0
	perYearPoints       = 4.0
	yearCoverageCap     = 20.0
	verifiedBonus       = 20.0
	pendingBonus        = 10.0
	consistencyFull     = 20.0
	consistencyPartial  = 10.0
	consistencyTightPct = 5.0
	consistencyLoosePct = 10.0
)

// ConfidenceInput is everything the score depends on, gathered by the
// service so the computation itself stays pure.
type ConfidenceInput struct {
	RequiredMetrics []string
	PresentMetrics  map[string]bool
	YearsCovered    int
	Verification    records.VerificationStatus
	// ReportedTotal is an independently reported total-emissions figure,
	// when one exists, checked against ComputedTotal for internal
	// consistency.
	ReportedTotal *float64
	ComputedTotal float64
}

// ConfidenceResult is the scored outcome with its qualitative label.
type ConfidenceResult struct {
	Score            float64  `json:"score"`
	Label            string   `json:"label"`
	ChecklistPresent int      `json:"checklist_present"`
	ChecklistTotal   int      `json:"checklist_total"`
	MissingMetrics   []string `json:"missing_metrics,omitempty"`
	YearsCovered     int      `json:"years_covered"`
}

// ConfidenceScore computes the 0-100 data confidence score: checklist
// coverage, capped year coverage, verification bonus and an internal
// consistency check with partial credit.
func ConfidenceScore(input ConfidenceInput) ConfidenceResult {
	result := ConfidenceResult{
		ChecklistTotal: len(input.RequiredMetrics),
		YearsCovered:   input.YearsCovered,
	}

	var score float64

	if len(input.RequiredMetrics) > 0 {
		for _, name := range input.RequiredMetrics {
			if input.PresentMetrics[name] {
				result.ChecklistPresent++
			} else {
				result.MissingMetrics = append(result.MissingMetrics, name)
			}
		}
		score += checklistWeight * float64(result.ChecklistPresent) / float64(result.ChecklistTotal)
	}

	score += math.Min(yearCoverageCap, float64(input.YearsCovered)*perYearPoints)

	switch input.Verification {
	case records.VerificationVerified, records.VerificationAudited:
		score += verifiedBonus
	case records.VerificationPendingReview:
		score += pendingBonus
	}

	if input.ReportedTotal != nil {
		score += consistencyCredit(*input.ReportedTotal, input.ComputedTotal)
	}

	result.Score = math.Round(math.Min(100, score)*100) / 100
	result.Label = ScoreLabel(result.Score)
	return result
}

// consistencyCredit compares the independently reported total against the
// sum of scope totals: full credit within 5%, partial within 10%.
func consistencyCredit(reported, computed float64) float64 {
	if reported == 0 && computed == 0 {
		return consistencyFull
	}
	base := math.Max(math.Abs(reported), math.Abs(computed))
	if base == 0 {
		return 0
	}
	deviation := math.Abs(reported-computed) / base * 100
	switch {
	case deviation <= consistencyTightPct:
		return consistencyFull
	case deviation <= consistencyLoosePct:
		return consistencyPartial
	default:
		return 0
	}
}

// ScoreLabel maps a score to its qualitative band.
func ScoreLabel(score float64) string {
	switch {
	case score >= 90:
		return "Excellent"
	case score >= 75:
		return "Good"
	case score >= 60:
		return "Satisfactory"
	case score >= 40:
		return "Needs Improvement"
	default:
		return "Poor"
	}
}
