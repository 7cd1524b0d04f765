package tasks

import (
	"fmt"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data
}

// Operation phase enumeration
type Phase int

const (
	ResolvePlatform Phase = iota
	FindLinked
	FindCandidate
	LinkAccount
	CreateAccount
	ListLinked
	DeleteAccounts
	CreateTasks
)

func (p Phase) String() string {
	switch p {
	case ResolvePlatform:
		return "resolve_platform"
	case FindLinked:
		return "find_linked"
	case FindCandidate:
		return "find_candidate"
	case LinkAccount:
		return "link_account"
	case CreateAccount:
		return "create_account"
	case ListLinked:
		return "list_linked"
	case DeleteAccounts:
		return "delete_accounts"
	case CreateTasks:
		return "create_tasks"
	default:
		return ""
	}
}

// sendProgress sends a progress update through the channel without blocking.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

func syncStepUpdate(phase Phase, step int, message string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   phase,
		Step:    step,
		Total:   4,
		Message: message,
	}
}

func listLinkedUpdate(integrationID string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ListLinked,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Listing accounts linked to %s...", integrationID),
	}
}

func deleteAccountUpdate(step, total int, outcome CascadeOutcome) ProgressUpdate {
	msg := fmt.Sprintf("[%d/%d] ✓ deleted %s", step, total, outcome.AccountID)
	if outcome.Err != nil {
		msg = fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, outcome.AccountID, outcome.Err)
	}
	return ProgressUpdate{
		Phase:   DeleteAccounts,
		Step:    step,
		Total:   total,
		Message: msg,
		Data:    outcome,
	}
}

func taskCreatedUpdate(step, total int, outcome TaskOutcome) ProgressUpdate {
	msg := fmt.Sprintf("[%d/%d] ✓ %s → task %s (%s)", step, total, outcome.IntegrationID, outcome.TaskID, outcome.Status)
	if outcome.Err != nil {
		msg = fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, outcome.IntegrationID, outcome.Err)
	}
	return ProgressUpdate{
		Phase:   CreateTasks,
		Step:    step,
		Total:   total,
		Message: msg,
		Data:    outcome,
	}
}
