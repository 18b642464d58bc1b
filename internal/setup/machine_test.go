package setup

import "testing"

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to Status
		want     bool
	}{
		{StatusScheduled, StatusInProgress, true},
		{StatusInProgress, StatusCompleted, true},
		{StatusCompleted, StatusApproved, true},
		{StatusCompleted, StatusRejected, true},

		{StatusScheduled, StatusCompleted, false},
		{StatusScheduled, StatusApproved, false},
		{StatusInProgress, StatusApproved, false},
		{StatusInProgress, StatusRejected, false},
		{StatusCompleted, StatusInProgress, false},
		{StatusApproved, StatusRejected, false},
		{StatusApproved, StatusCompleted, false},
		{StatusRejected, StatusApproved, false},
		{StatusRejected, StatusInProgress, false},
		{StatusInProgress, StatusInProgress, false},
		{Status("bogus"), StatusCompleted, false},
	}

	for _, tc := range tests {
		if got := CanTransition(tc.from, tc.to); got != tc.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestTerminalStates(t *testing.T) {
	for _, s := range []Status{StatusApproved, StatusRejected} {
		if !s.IsTerminal() {
			t.Errorf("%s should be terminal", s)
		}
		for _, to := range []Status{StatusScheduled, StatusInProgress, StatusCompleted, StatusApproved, StatusRejected} {
			if CanTransition(s, to) {
				t.Errorf("Terminal state %s must not transition to %s", s, to)
			}
		}
	}

	for _, s := range []Status{StatusScheduled, StatusInProgress, StatusCompleted} {
		if s.IsTerminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
}

func TestStatusIsValid(t *testing.T) {
	for _, s := range []Status{StatusScheduled, StatusInProgress, StatusCompleted, StatusApproved, StatusRejected} {
		if !s.IsValid() {
			t.Errorf("%s should be valid", s)
		}
	}
	if Status("done").IsValid() {
		t.Error("Unknown status should not be valid")
	}
}
