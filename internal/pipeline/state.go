package pipeline

import "fmt"

// State is the lifecycle position of one folder task.
type State string

const (
	StateDiscovered State = "discovered"
	StateDebouncing State = "debouncing"
	StateLoading    State = "loading"
	StateValidating State = "validating"
	StateUploading  State = "uploading"
	StateMinting    State = "minting"
	StateCompleted  State = "completed"
	StateFailed     State = "failed"
)

// Terminal reports whether s releases the task.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed
}

func isAllowedTransition(from, to State) bool {
	switch from {
	case StateDiscovered:
		return to == StateDebouncing || to == StateLoading
	case StateDebouncing:
		return to == StateDebouncing || to == StateLoading
	case StateLoading:
		return to == StateValidating || to == StateFailed
	case StateValidating:
		return to == StateUploading || to == StateFailed
	case StateUploading:
		return to == StateMinting || to == StateFailed
	case StateMinting:
		return to == StateCompleted || to == StateFailed
	default:
		return false
	}
}

func checkTransition(folder string, from, to State) error {
	if !isAllowedTransition(from, to) {
		return fmt.Errorf("disallowed transition for %q: %s -> %s", folder, from, to)
	}
	return nil
}
