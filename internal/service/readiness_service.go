package service

import (
	"math"

	"github.com/Prezentytu/fiziyo-admin-portal-sub000/internal/domain"
)

// ReadinessPolicy holds the deployment-tunable thresholds behind the
// default rule set.
type ReadinessPolicy struct {
	MinPatientDescriptionLen int
	MaxMainTags              int
}

// DefaultReadinessPolicy mirrors the shared catalog's house rules.
var DefaultReadinessPolicy = ReadinessPolicy{
	MinPatientDescriptionLen: 50,
	MaxMainTags:              3,
}

// ReadinessEngine evaluates an exercise snapshot against a rule set and
// reports which publish-readiness rules pass. The rule set is data: a
// deployment swaps or extends the slice without touching the engine.
type ReadinessEngine struct {
	rules []domain.ValidationRule
}

// NewReadinessEngine builds an engine over the given rules. Pass the
// result of DefaultRules for standard behavior.
func NewReadinessEngine(rules []domain.ValidationRule) *ReadinessEngine {
	return &ReadinessEngine{rules: rules}
}

// Evaluate runs every rule against the snapshot. Rules are independent
// and side-effect free; results are recomputed on every call.
func (e *ReadinessEngine) Evaluate(ex *domain.Exercise) []domain.ValidationResult {
	results := make([]domain.ValidationResult, 0, len(e.rules))
	for _, rule := range e.rules {
		results = append(results, domain.ValidationResult{
			RuleID:   rule.ID,
			Category: rule.Category,
			Severity: rule.Severity,
			Message:  rule.Message,
			Passed:   rule.Check(ex),
		})
	}
	return results
}

// BlockingFailures filters the error-severity failures: the only
// results that gate the approve transition.
func BlockingFailures(results []domain.ValidationResult) []domain.ValidationResult {
	var blocking []domain.ValidationResult
	for _, r := range results {
		if !r.Passed && r.Severity == domain.SeverityError {
			blocking = append(blocking, r)
		}
	}
	return blocking
}

// Score is the passed/total percentage, rounded to an integer. Display
// only; gating is strictly "zero unresolved errors".
func Score(results []domain.ValidationResult) int {
	if len(results) == 0 {
		return 100
	}
	passed := 0
	for _, r := range results {
		if r.Passed {
			passed++
		}
	}
	return int(math.Round(float64(passed) / float64(len(results)) * 100))
}

// DefaultRules is the standard 12-rule publish-readiness set. Policy
// thresholds come from cfg so deployments can tune them.
func DefaultRules(cfg ReadinessPolicy) []domain.ValidationRule {
	minDesc := cfg.MinPatientDescriptionLen
	maxMain := cfg.MaxMainTags

	return []domain.ValidationRule{
		{
			ID: "content.name", Category: domain.CategoryContent, Severity: domain.SeverityError,
			Message: "Exercise name is required",
			Check:   func(ex *domain.Exercise) bool { return ex.Name != "" },
		},
		{
			ID: "content.patient_description", Category: domain.CategoryContent, Severity: domain.SeverityError,
			Message: "Patient-facing description is too short",
			Check:   func(ex *domain.Exercise) bool { return len(ex.PatientDescription) >= minDesc },
		},
		{
			ID: "content.clinician_description", Category: domain.CategoryContent, Severity: domain.SeverityWarning,
			Message: "Clinician-facing description is empty",
			Check:   func(ex *domain.Exercise) bool { return ex.ClinicianDescription != "" },
		},
		{
			ID: "content.type", Category: domain.CategoryContent, Severity: domain.SeverityError,
			Message: "Exercise type must be declared",
			Check:   func(ex *domain.Exercise) bool { return ex.Type != "" },
		},
		{
			ID: "content.difficulty", Category: domain.CategoryContent, Severity: domain.SeverityError,
			Message: "Difficulty level must be declared",
			Check:   func(ex *domain.Exercise) bool { return ex.Difficulty.Rank() > 0 },
		},
		{
			ID: "content.body_side", Category: domain.CategoryContent, Severity: domain.SeverityInfo,
			Message: "Body side is not declared",
			Check:   func(ex *domain.Exercise) bool { return ex.BodySide != "" },
		},
		{
			ID: "media.any", Category: domain.CategoryMedia, Severity: domain.SeverityError,
			Message: "At least one media asset is required",
			Check:   func(ex *domain.Exercise) bool { return ex.Media.HasAny() },
		},
		{
			ID: "media.video", Category: domain.CategoryMedia, Severity: domain.SeverityWarning,
			Message: "A demonstration video is recommended",
			Check:   func(ex *domain.Exercise) bool { return ex.Media.VideoKey != "" },
		},
		{
			ID: "tags.main_present", Category: domain.CategoryTags, Severity: domain.SeverityError,
			Message: "At least one main tag is required",
			Check:   func(ex *domain.Exercise) bool { return len(ex.MainTags) > 0 },
		},
		{
			ID: "tags.main_cap", Category: domain.CategoryTags, Severity: domain.SeverityError,
			Message: "Too many main tags",
			Check:   func(ex *domain.Exercise) bool { return len(ex.MainTags) <= maxMain },
		},
		{
			ID: "parameters.dosing", Category: domain.CategoryParameters, Severity: domain.SeverityError,
			Message: "Dosing parameters must match the exercise type",
			Check: func(ex *domain.Exercise) bool {
				switch ex.Type {
				case domain.TypeRepetitions:
					return ex.Params.Sets > 0 && ex.Params.Reps > 0
				case domain.TypeTimed, domain.TypeIsometricHold:
					return ex.Params.Sets > 0 && ex.Params.DurationSec > 0
				}
				return false
			},
		},
		{
			ID: "parameters.rest", Category: domain.CategoryParameters, Severity: domain.SeverityInfo,
			Message: "Rest time between sets is not set",
			Check:   func(ex *domain.Exercise) bool { return ex.Params.RestSec > 0 },
		},
	}
}
