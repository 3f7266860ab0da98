package phase

import (
	"github.com/charmbracelet/log"
)

// Listener is called with the new and previous phase after each change
type Listener func(current, previous Phase)

type subscription struct {
	id int
	fn Listener
}

// Machine validates and applies phase transitions. It is not safe for
// concurrent use; the engine owning it is single-threaded.
type Machine struct {
	current     Phase
	subscribers []subscription
	nextID      int
	logger      *log.Logger
}

// NewMachine returns a machine in the betting phase
func NewMachine(logger *log.Logger) *Machine {
	if logger == nil {
		logger = log.Default()
	}
	return &Machine{
		current: Betting,
		logger:  logger.WithPrefix("phase"),
	}
}

// Current returns the current phase
func (m *Machine) Current() Phase {
	return m.current
}

// CanTransition reports whether target is a legal next phase. Same-phase
// moves and unknown phases are always rejected.
func (m *Machine) CanTransition(target Phase) bool {
	if !target.IsValid() || target == m.current {
		return false
	}
	for _, next := range transitions[m.current] {
		if next == target {
			return true
		}
	}
	return false
}

// CanTransitionName is CanTransition for a boundary phase name
func (m *Machine) CanTransitionName(name string) bool {
	target, ok := Parse(name)
	if !ok {
		return false
	}
	return m.CanTransition(target)
}

// Transition moves to target and notifies subscribers. On failure the phase
// is left unchanged.
func (m *Machine) Transition(target Phase) (Phase, error) {
	if !m.CanTransition(target) {
		return m.current, &InvalidTransitionError{From: m.current, To: target}
	}
	previous := m.current
	m.current = target
	m.logger.Debug("Phase changed", "from", previous, "to", target)
	m.notify(target, previous)
	return target, nil
}

// Reset forces the machine back to betting without validation. Subscribers
// hear about it only if the phase actually changed.
func (m *Machine) Reset() {
	if m.current == Betting {
		return
	}
	previous := m.current
	m.current = Betting
	m.logger.Debug("Phase reset", "from", previous)
	m.notify(Betting, previous)
}

// IsActionAllowed reports whether a player may perform a in the current phase
func (m *Machine) IsActionAllowed(a Action) bool {
	return allowedActions[m.current][a]
}

// IsActionAllowedName is IsActionAllowed for a boundary action name
func (m *Machine) IsActionAllowedName(name string) bool {
	a := ParseAction(name)
	if a == ActionUnknown {
		return false
	}
	return m.IsActionAllowed(a)
}

// Subscribe registers fn and returns a function that removes it
func (m *Machine) Subscribe(fn Listener) func() {
	m.nextID++
	id := m.nextID
	m.subscribers = append(m.subscribers, subscription{id: id, fn: fn})

	return func() {
		for i, sub := range m.subscribers {
			if sub.id == id {
				m.subscribers = append(m.subscribers[:i:i], m.subscribers[i+1:]...)
				return
			}
		}
	}
}

func (m *Machine) notify(current, previous Phase) {
	subs := append([]subscription(nil), m.subscribers...)
	for _, sub := range subs {
		m.deliver(sub, current, previous)
	}
}

// deliver isolates a panicking listener so the rest still run
func (m *Machine) deliver(sub subscription, current, previous Phase) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("Phase listener panicked", "subscriber", sub.id, "panic", r)
		}
	}()
	sub.fn(current, previous)
}
