package setup

// Status is the lifecycle state of a field setup
type Status string

const (
	StatusScheduled  Status = "scheduled"   // Visit booked, work not started
	StatusInProgress Status = "in_progress" // Technician on site
	StatusCompleted  Status = "completed"   // Evidence collected, awaiting supervision
	StatusApproved   Status = "approved"    // Terminal
	StatusRejected   Status = "rejected"    // Terminal
)

// transitions is the single source of truth for legal status changes.
// Approved and rejected have no outgoing edges.
var transitions = map[Status][]Status{
	StatusScheduled:  {StatusInProgress},
	StatusInProgress: {StatusCompleted},
	StatusCompleted:  {StatusApproved, StatusRejected},
	StatusApproved:   {},
	StatusRejected:   {},
}

// IsValid reports whether s is a known status
func (s Status) IsValid() bool {
	_, ok := transitions[s]
	return ok
}

// IsTerminal reports whether no further transition is possible
func (s Status) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// CanTransition reports whether moving from one status to another is legal
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
