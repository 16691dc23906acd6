package effects

import "github.com/BizSimLabs/SalonTycoon/server/internal/domain/metric"

// entry wraps an active effect with its insertion sequence number.
// The sequence breaks ties between simultaneous SET effects: the one added
// last wins. Re-applying an existing id takes a fresh sequence number.
type entry struct {
	effect Effect
	seq    int64
}

// Manager owns the set of active effects for one session.
//
// It is an explicit instance passed by reference to the simulation and to
// presentation adapters, never a package-level singleton, so independent
// sessions and tests cannot contaminate each other. It assumes a single
// logical thread of control; callers serialize access (see game.Session).
type Manager struct {
	catalog   *metric.Catalog
	entries   []entry
	nextSeq   int64
	listeners []func()
}

// NewManager creates an empty effect manager backed by the given catalog.
func NewManager(catalog *metric.Catalog) *Manager {
	return &Manager{catalog: catalog}
}

// Subscribe registers a listener invoked after every change to the active
// set (add, removal by source, duration expiry). Listeners receive no
// payload; they re-derive what they need via Calculate. The returned
// function unsubscribes.
func (m *Manager) Subscribe(fn func()) func() {
	m.listeners = append(m.listeners, fn)
	idx := len(m.listeners) - 1
	return func() { m.listeners[idx] = nil }
}

func (m *Manager) notify() {
	for _, fn := range m.listeners {
		if fn != nil {
			fn()
		}
	}
}

// Add inserts an effect. An effect with the same id replaces the existing
// one (idempotent re-application when a level-up regenerates the same
// source's contribution). The effect must already be validated.
func (m *Manager) Add(e Effect) error {
	if err := e.Validate(); err != nil {
		return err
	}
	m.nextSeq++
	for i := range m.entries {
		if m.entries[i].effect.ID == e.ID {
			m.entries[i] = entry{effect: e, seq: m.nextSeq}
			m.notify()
			return nil
		}
	}
	m.entries = append(m.entries, entry{effect: e, seq: m.nextSeq})
	m.notify()
	return nil
}

// RemoveBySource removes every effect owned by the given source and returns
// how many were removed. Removing a source with no effects is a no-op and
// fires no notification, so readers can keep skipping recomputation.
func (m *Manager) RemoveBySource(category, id string) int {
	kept := m.entries[:0]
	removed := 0
	for _, en := range m.entries {
		if en.effect.Source.Category == category && en.effect.Source.ID == id {
			removed++
			continue
		}
		kept = append(kept, en)
	}
	m.entries = kept
	if removed > 0 {
		m.notify()
	}
	return removed
}

// Calculate folds all active effects for the metric onto the supplied base:
//
//	1. acc = base + sum of ADD values
//	2. acc *= 1 + sum of PERCENT values / 100
//	3. acc *= product of MULTIPLY values
//	4. if any SET effect exists, the newest one overrides stages 1-3
//
// The stage order is a contract: sums and products commute within their
// stage, so the result never depends on the order effects were added.
// Calculate never mutates state; an empty set returns base unchanged.
func (m *Manager) Calculate(id metric.ID, base float64) float64 {
	addSum := 0.0
	pctSum := 0.0
	mulProd := 1.0
	var setValue float64
	var setSeq int64 = -1

	for _, en := range m.entries {
		if en.effect.Metric != id {
			continue
		}
		switch en.effect.Type {
		case TypeAdd:
			addSum += en.effect.Value
		case TypePercent:
			pctSum += en.effect.Value
		case TypeMultiply:
			mulProd *= en.effect.Value
		case TypeSet:
			if en.seq > setSeq {
				setSeq = en.seq
				setValue = en.effect.Value
			}
		}
	}

	if setSeq >= 0 {
		return setValue
	}
	return (base + addSum) * (1 + pctSum/100) * mulProd
}

// CalculateBase is Calculate seeded with the catalog's base value, for
// callers without a better contextual base.
func (m *Manager) CalculateBase(id metric.ID) float64 {
	return m.Calculate(id, m.catalog.Base(id))
}

// Tick advances the elapsed-seconds expiry clock. Effects whose remaining
// duration reaches zero are removed and a single notification fires.
// Month-boxed effects are untouched; that clock only moves in AdvanceMonth.
func (m *Manager) Tick(elapsedSeconds float64) {
	kept := m.entries[:0]
	expired := 0
	for _, en := range m.entries {
		if en.effect.DurationSeconds > 0 {
			en.effect.DurationSeconds -= elapsedSeconds
			if en.effect.DurationSeconds <= 0 {
				expired++
				continue
			}
		}
		kept = append(kept, en)
	}
	m.entries = kept
	if expired > 0 {
		m.notify()
	}
}

// AdvanceMonth advances the month expiry clock by one month.
func (m *Manager) AdvanceMonth() {
	kept := m.entries[:0]
	expired := 0
	for _, en := range m.entries {
		if en.effect.DurationMonths > 0 {
			en.effect.DurationMonths--
			if en.effect.DurationMonths <= 0 {
				expired++
				continue
			}
		}
		kept = append(kept, en)
	}
	m.entries = kept
	if expired > 0 {
		m.notify()
	}
}

// ActiveCount returns the number of active effects.
func (m *Manager) ActiveCount() int {
	return len(m.entries)
}

// Snapshot returns a copy of the active effects for HUD and debug views.
func (m *Manager) Snapshot() []Effect {
	out := make([]Effect, len(m.entries))
	for i, en := range m.entries {
		out[i] = en.effect
	}
	return out
}
