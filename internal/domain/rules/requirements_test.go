package rules

import (
	"testing"

	"github.com/BizSimLabs/SalonTycoon/server/internal/domain/metric"
)

func testState() State {
	return State{
		Level:         3,
		Flags:         map[string]bool{"tutorial_done": true},
		Metrics:       map[metric.ID]float64{metric.Cash: 500},
		UpgradeLevels: map[string]int{"chairs": 2},
		StaffCounts:   map[string]int{"stylist": 1},
	}
}

func TestMetPerKind(t *testing.T) {
	st := testState()

	cases := []struct {
		name string
		req  Requirement
		want bool
	}{
		{"flag set", Requirement{Kind: KindFlag, Key: "tutorial_done"}, true},
		{"flag missing", Requirement{Kind: KindFlag, Key: "secret_unlocked"}, false},
		{"level met", Requirement{Kind: KindLevelMin, Threshold: 3}, true},
		{"level unmet", Requirement{Kind: KindLevelMin, Threshold: 4}, false},
		{"metric met", Requirement{Kind: KindMetricMin, Metric: metric.Cash, Threshold: 500}, true},
		{"metric unmet", Requirement{Kind: KindMetricMin, Metric: metric.Cash, Threshold: 501}, false},
		{"upgrade owned", Requirement{Kind: KindUpgradeOwned, Key: "chairs", Threshold: 2}, true},
		{"upgrade level too low", Requirement{Kind: KindUpgradeOwned, Key: "chairs", Threshold: 3}, false},
		{"staff count met", Requirement{Kind: KindStaffCount, Key: "stylist", Threshold: 1}, true},
		{"staff count unmet", Requirement{Kind: KindStaffCount, Key: "receptionist", Threshold: 1}, false},
		{"unknown kind degrades to unmet", Requirement{Kind: "MOON_PHASE"}, false},
	}

	for _, tc := range cases {
		if got := tc.req.Met(st); got != tc.want {
			t.Errorf("%s: Met() = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestEvaluateEmptyListIsAvailable(t *testing.T) {
	if got := Evaluate(nil, testState()); got != Available {
		t.Errorf("Expected empty requirement list to be Available, got %s", got)
	}
}

func TestEvaluateAllMet(t *testing.T) {
	reqs := []Requirement{
		{Kind: KindLevelMin, Threshold: 2},
		{Kind: KindFlag, Key: "tutorial_done"},
	}
	if got := Evaluate(reqs, testState()); got != Available {
		t.Errorf("Expected Available when all clauses hold, got %s", got)
	}
}

func TestEvaluateUnmetIsLocked(t *testing.T) {
	reqs := []Requirement{
		{Kind: KindLevelMin, Threshold: 2},
		{Kind: KindLevelMin, Threshold: 10},
	}
	if got := Evaluate(reqs, testState()); got != Locked {
		t.Errorf("Expected Locked for an unmet visible clause, got %s", got)
	}
}

func TestHiddenTakesPrecedenceOverLocked(t *testing.T) {
	reqs := []Requirement{
		{Kind: KindLevelMin, Threshold: 10},                      // locked
		{Kind: KindLevelMin, Threshold: 20, HideWhenUnmet: true}, // hidden
	}
	if got := Evaluate(reqs, testState()); got != Hidden {
		t.Errorf("Expected Hidden to win over Locked, got %s", got)
	}
}

func TestMetHiddenClauseDoesNotHide(t *testing.T) {
	reqs := []Requirement{
		{Kind: KindLevelMin, Threshold: 2, HideWhenUnmet: true},
		{Kind: KindLevelMin, Threshold: 10},
	}
	if got := Evaluate(reqs, testState()); got != Locked {
		t.Errorf("A met hide-clause must not hide; expected Locked, got %s", got)
	}
}

func TestEvaluateDoesNotMutateState(t *testing.T) {
	st := testState()
	Evaluate([]Requirement{{Kind: KindFlag, Key: "never_set"}}, st)

	if st.Flags["never_set"] {
		t.Error("Evaluate mutated the flag map")
	}
	if len(st.Flags) != 1 {
		t.Errorf("Evaluate grew the flag map to %d entries", len(st.Flags))
	}
}
