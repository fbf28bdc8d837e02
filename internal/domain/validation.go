package domain

// Severity classifies a validation outcome. Only error-severity
// failures block the approve transition.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// RuleCategory groups readiness rules for display.
type RuleCategory string

const (
	CategoryContent    RuleCategory = "content"
	CategoryMedia      RuleCategory = "media"
	CategoryTags       RuleCategory = "tags"
	CategoryParameters RuleCategory = "parameters"
)

// ValidationRule is a pure, category-tagged predicate over an exercise
// snapshot. Rule sets are data, not control flow: deployments swap or
// extend the slice without touching the engine.
type ValidationRule struct {
	ID       string
	Category RuleCategory
	Severity Severity
	Message  string
	Check    func(ex *Exercise) bool
}

// ValidationResult pairs a rule with its outcome for one evaluation.
// Results have no persistent identity; they are recomputed every time.
type ValidationResult struct {
	RuleID   string       `json:"ruleId"`
	Category RuleCategory `json:"category"`
	Severity Severity     `json:"severity"`
	Message  string       `json:"message"`
	Passed   bool         `json:"passed"`
}
