package workflows

// StateMachine enforces record status transitions
type StateMachine struct {
	allowedTransitions map[string][]string
}

// NewVerificationStateMachine returns the state machine for the record
// trust workflow.
func NewVerificationStateMachine() *StateMachine {
	return &StateMachine{
		allowedTransitions: map[string][]string{
			"unverified":     {"pending_review"},
			"pending_review": {"verified", "disputed"},
			"verified":       {"audited", "disputed"},
			"audited":        {"disputed"},
			"disputed":       {"pending_review"}, // Allow re-submitting disputed records
		},
	}
}

// NewValidationStateMachine returns the state machine for the data-quality
// validation workflow. Terminal states loop back through validating so a
// record can always be re-validated.
func NewValidationStateMachine() *StateMachine {
	return &StateMachine{
		allowedTransitions: map[string][]string{
			"not_validated":     {"validating"},
			"validating":        {"validated", "failed_validation"},
			"validated":         {"validating"},
			"failed_validation": {"validating"},
		},
	}
}

// CanTransition checks if a status transition is allowed
func (sm *StateMachine) CanTransition(from, to string) bool {
	allowed, exists := sm.allowedTransitions[from]
	if !exists {
		return false
	}
	for _, allowedTo := range allowed {
		if allowedTo == to {
			return true
		}
	}
	return false
}

// GetAllowedTransitions returns the allowed next statuses for a given status
func (sm *StateMachine) GetAllowedTransitions(from string) []string {
	allowed, exists := sm.allowedTransitions[from]
	if !exists {
		return []string{}
	}
	return allowed
}
