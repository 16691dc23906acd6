package effects

import (
	"math"
	"testing"

	"github.com/BizSimLabs/SalonTycoon/server/internal/domain/metric"
)

func newTestManager() *Manager {
	return NewManager(metric.NewCatalog(nil))
}

func addEffect(t *testing.T, m *Manager, e Effect) {
	t.Helper()
	if err := m.Add(e); err != nil {
		t.Fatalf("Add(%s) failed: %v", e.ID, err)
	}
}

func TestCapacityStacking(t *testing.T) {
	m := newTestManager()

	// Base 2 rooms plus one extra chair
	addEffect(t, m, Effect{
		ID:     "upgrade:chairs:capacity",
		Source: Source{Category: "upgrade", ID: "chairs"},
		Metric: metric.ServiceCapacity,
		Type:   TypeAdd,
		Value:  1,
	})

	got := m.CalculateBase(metric.ServiceCapacity)
	if got != 3 {
		t.Errorf("Expected capacity 3 with one ADD +1 on base 2, got %v", got)
	}

	m.RemoveBySource("upgrade", "chairs")
	got = m.CalculateBase(metric.ServiceCapacity)
	if got != 2 {
		t.Errorf("Expected capacity back to base 2 after removal, got %v", got)
	}
}

func TestPercentAndMultiplyStages(t *testing.T) {
	m := newTestManager()

	addEffect(t, m, Effect{
		ID:     "campaign:flyers:rev",
		Source: Source{Category: "campaign", ID: "flyers"},
		Metric: metric.ServiceRevenueMultiplier,
		Type:   TypePercent,
		Value:  50,
	})
	addEffect(t, m, Effect{
		ID:     "upgrade:products:rev",
		Source: Source{Category: "upgrade", ID: "products"},
		Metric: metric.ServiceRevenueMultiplier,
		Type:   TypeMultiply,
		Value:  2,
	})

	// Base 1 * (1 + 50/100) * 2 = 3
	got := m.CalculateBase(metric.ServiceRevenueMultiplier)
	if got != 3 {
		t.Errorf("Expected 1 * 1.5 * 2 = 3, got %v", got)
	}
}

func TestCalculateOrderIndependence(t *testing.T) {
	build := func(order []Effect) float64 {
		m := newTestManager()
		for _, e := range order {
			if err := m.Add(e); err != nil {
				t.Fatalf("Add failed: %v", err)
			}
		}
		return m.Calculate(metric.ServiceRevenueMultiplier, 10)
	}

	a := Effect{ID: "a", Source: Source{Category: "staff", ID: "s1"}, Metric: metric.ServiceRevenueMultiplier, Type: TypeAdd, Value: 5}
	b := Effect{ID: "b", Source: Source{Category: "staff", ID: "s2"}, Metric: metric.ServiceRevenueMultiplier, Type: TypePercent, Value: 20}
	c := Effect{ID: "c", Source: Source{Category: "staff", ID: "s3"}, Metric: metric.ServiceRevenueMultiplier, Type: TypeMultiply, Value: 1.5}

	first := build([]Effect{a, b, c})
	second := build([]Effect{c, a, b})
	third := build([]Effect{b, c, a})

	if first != second || second != third {
		t.Errorf("Expected identical results regardless of insertion order, got %v, %v, %v", first, second, third)
	}

	// (10 + 5) * 1.2 * 1.5 = 27
	if math.Abs(first-27) > 1e-9 {
		t.Errorf("Expected (10+5)*1.2*1.5 = 27, got %v", first)
	}
}

func TestSetLastAddedWins(t *testing.T) {
	m := newTestManager()

	addEffect(t, m, Effect{
		ID:     "first-set",
		Source: Source{Category: "upgrade", ID: "u1"},
		Metric: metric.ServiceCapacity,
		Type:   TypeSet,
		Value:  5,
	})
	addEffect(t, m, Effect{
		ID:     "second-set",
		Source: Source{Category: "upgrade", ID: "u2"},
		Metric: metric.ServiceCapacity,
		Type:   TypeSet,
		Value:  9,
	})

	if got := m.CalculateBase(metric.ServiceCapacity); got != 9 {
		t.Errorf("Expected newest SET (9) to win, got %v", got)
	}

	// Removing the winning SET should expose the older one again.
	m.RemoveBySource("upgrade", "u2")
	if got := m.CalculateBase(metric.ServiceCapacity); got != 5 {
		t.Errorf("Expected older SET (5) after removing newest, got %v", got)
	}
}

func TestSetOverridesOtherStages(t *testing.T) {
	m := newTestManager()

	addEffect(t, m, Effect{ID: "add", Source: Source{Category: "staff", ID: "s1"}, Metric: metric.ServiceCapacity, Type: TypeAdd, Value: 100})
	addEffect(t, m, Effect{ID: "set", Source: Source{Category: "upgrade", ID: "u1"}, Metric: metric.ServiceCapacity, Type: TypeSet, Value: 4})

	if got := m.CalculateBase(metric.ServiceCapacity); got != 4 {
		t.Errorf("Expected SET to override the additive stage entirely, got %v", got)
	}
}

func TestAddReplacesSameID(t *testing.T) {
	m := newTestManager()

	e := Effect{
		ID:     "staff:s1:speed",
		Source: Source{Category: "staff", ID: "s1"},
		Metric: metric.ServiceSpeedMultiplier,
		Type:   TypeMultiply,
		Value:  1.2,
	}
	addEffect(t, m, e)

	// Re-applying the same id must replace, not stack.
	e.Value = 1.5
	addEffect(t, m, e)

	if m.ActiveCount() != 1 {
		t.Errorf("Expected 1 active effect after re-applying same id, got %d", m.ActiveCount())
	}
	if got := m.CalculateBase(metric.ServiceSpeedMultiplier); got != 1.5 {
		t.Errorf("Expected replaced value 1.5, got %v", got)
	}
}

func TestReplacedSetTakesFreshSequence(t *testing.T) {
	m := newTestManager()

	addEffect(t, m, Effect{ID: "set-a", Source: Source{Category: "upgrade", ID: "a"}, Metric: metric.ServiceCapacity, Type: TypeSet, Value: 5})
	addEffect(t, m, Effect{ID: "set-b", Source: Source{Category: "upgrade", ID: "b"}, Metric: metric.ServiceCapacity, Type: TypeSet, Value: 9})

	// Re-apply the first SET; it should now be the newest and win.
	addEffect(t, m, Effect{ID: "set-a", Source: Source{Category: "upgrade", ID: "a"}, Metric: metric.ServiceCapacity, Type: TypeSet, Value: 7})

	if got := m.CalculateBase(metric.ServiceCapacity); got != 7 {
		t.Errorf("Expected re-applied SET to win with 7, got %v", got)
	}
}

func TestRemoveBySource(t *testing.T) {
	m := newTestManager()

	addEffect(t, m, Effect{ID: "e1", Source: Source{Category: "staff", ID: "s1"}, Metric: metric.ServiceCapacity, Type: TypeAdd, Value: 1})
	addEffect(t, m, Effect{ID: "e2", Source: Source{Category: "staff", ID: "s1"}, Metric: metric.ServiceSpeedMultiplier, Type: TypeMultiply, Value: 1.1})
	addEffect(t, m, Effect{ID: "e3", Source: Source{Category: "staff", ID: "s2"}, Metric: metric.ServiceCapacity, Type: TypeAdd, Value: 1})

	removed := m.RemoveBySource("staff", "s1")
	if removed != 2 {
		t.Errorf("Expected 2 effects removed for staff s1, got %d", removed)
	}
	if m.ActiveCount() != 1 {
		t.Errorf("Expected 1 effect remaining, got %d", m.ActiveCount())
	}

	// Unknown source is a silent no-op.
	if removed := m.RemoveBySource("staff", "ghost"); removed != 0 {
		t.Errorf("Expected 0 removed for unknown source, got %d", removed)
	}
}

func TestNotifications(t *testing.T) {
	m := newTestManager()

	fired := 0
	unsubscribe := m.Subscribe(func() { fired++ })

	addEffect(t, m, Effect{ID: "e1", Source: Source{Category: "staff", ID: "s1"}, Metric: metric.ServiceCapacity, Type: TypeAdd, Value: 1})
	if fired != 1 {
		t.Errorf("Expected 1 notification after Add, got %d", fired)
	}

	// Removing a source with no effects must not notify.
	m.RemoveBySource("staff", "ghost")
	if fired != 1 {
		t.Errorf("Expected no notification for no-op removal, got %d", fired)
	}

	m.RemoveBySource("staff", "s1")
	if fired != 2 {
		t.Errorf("Expected notification after real removal, got %d", fired)
	}

	unsubscribe()
	addEffect(t, m, Effect{ID: "e2", Source: Source{Category: "staff", ID: "s2"}, Metric: metric.ServiceCapacity, Type: TypeAdd, Value: 1})
	if fired != 2 {
		t.Errorf("Expected no notification after unsubscribe, got %d", fired)
	}
}

func TestSecondsClockExpiry(t *testing.T) {
	m := newTestManager()

	addEffect(t, m, Effect{
		ID:              "campaign:flyers:spawn",
		Source:          Source{Category: "campaign", ID: "flyers"},
		Metric:          metric.SpawnIntervalSeconds,
		Type:            TypePercent,
		Value:           -20,
		DurationSeconds: 1.0,
	})

	m.Tick(0.5)
	if m.ActiveCount() != 1 {
		t.Errorf("Expected effect alive at 0.5s remaining, got %d active", m.ActiveCount())
	}

	m.Tick(0.5)
	if m.ActiveCount() != 0 {
		t.Errorf("Expected effect expired after full duration, got %d active", m.ActiveCount())
	}
}

func TestMonthClockIndependentOfTick(t *testing.T) {
	m := newTestManager()

	addEffect(t, m, Effect{
		ID:             "campaign:radio:rev",
		Source:         Source{Category: "campaign", ID: "radio"},
		Metric:         metric.ServiceRevenueMultiplier,
		Type:           TypePercent,
		Value:          25,
		DurationMonths: 2,
	})

	// Hours of ticking must not consume a month-boxed effect.
	for i := 0; i < 100000; i++ {
		m.Tick(0.1)
	}
	if m.ActiveCount() != 1 {
		t.Fatalf("Expected month-boxed effect to survive ticking, got %d active", m.ActiveCount())
	}

	m.AdvanceMonth()
	if m.ActiveCount() != 1 {
		t.Errorf("Expected effect alive with 1 month remaining, got %d active", m.ActiveCount())
	}

	m.AdvanceMonth()
	if m.ActiveCount() != 0 {
		t.Errorf("Expected effect expired after 2 months, got %d active", m.ActiveCount())
	}
}

func TestPermanentEffectsSurviveBothClocks(t *testing.T) {
	m := newTestManager()

	addEffect(t, m, Effect{ID: "perm", Source: Source{Category: "staff", ID: "s1"}, Metric: metric.ServiceCapacity, Type: TypeAdd, Value: 1})

	m.Tick(1e9)
	m.AdvanceMonth()
	if m.ActiveCount() != 1 {
		t.Errorf("Expected permanent effect to survive both clocks, got %d active", m.ActiveCount())
	}
}

func TestValidateRejections(t *testing.T) {
	valid := Effect{
		ID:     "ok",
		Source: Source{Category: "staff", ID: "s1"},
		Metric: metric.ServiceCapacity,
		Type:   TypeAdd,
		Value:  1,
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("Expected valid effect to pass, got %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Effect)
	}{
		{"missing id", func(e *Effect) { e.ID = "" }},
		{"missing metric", func(e *Effect) { e.Metric = "" }},
		{"unknown type", func(e *Effect) { e.Type = "DIVIDE" }},
		{"NaN value", func(e *Effect) { e.Value = math.NaN() }},
		{"infinite value", func(e *Effect) { e.Value = math.Inf(1) }},
		{"negative seconds", func(e *Effect) { e.DurationSeconds = -1 }},
		{"negative months", func(e *Effect) { e.DurationMonths = -1 }},
		{"both clocks", func(e *Effect) { e.DurationSeconds = 10; e.DurationMonths = 1 }},
	}

	for _, tc := range cases {
		e := valid
		tc.mutate(&e)
		if err := e.Validate(); err == nil {
			t.Errorf("Expected %s to be rejected", tc.name)
		}
	}
}

func TestRejectedEffectDoesNotMutateState(t *testing.T) {
	m := newTestManager()

	bad := Effect{ID: "bad", Source: Source{Category: "staff", ID: "s1"}, Metric: metric.ServiceCapacity, Type: "DIVIDE", Value: 2}
	if err := m.Add(bad); err == nil {
		t.Fatal("Expected Add to reject unknown type")
	}
	if m.ActiveCount() != 0 {
		t.Errorf("Expected no effects after rejected Add, got %d", m.ActiveCount())
	}
}

func TestUnknownMetricDefaultsToZeroBase(t *testing.T) {
	m := newTestManager()

	addEffect(t, m, Effect{ID: "e", Source: Source{Category: "staff", ID: "s1"}, Metric: "made_up_metric", Type: TypeAdd, Value: 3})
	if got := m.CalculateBase("made_up_metric"); got != 3 {
		t.Errorf("Expected unknown metric to fold from base 0, got %v", got)
	}
}
