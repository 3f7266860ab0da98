package engine

import (
	"slices"
	"time"

	"github.com/charmbracelet/log"
	"github.com/lox/blackjack/internal/phase"
)

// EventType identifies an engine event
type EventType string

const (
	EventTypePhaseChange   EventType = "phase_change"
	EventTypeStateChange   EventType = "state_change"
	EventTypeRoundResolved EventType = "round_resolved"
	EventTypeShoeShuffled  EventType = "shoe_shuffled"
)

// String returns the string representation of the event type
func (et EventType) String() string {
	return string(et)
}

// Event is anything published to engine subscribers. Every event carries a
// snapshot taken after the action that produced it committed. Each
// subscriber receives its own copy of the snapshot.
type Event interface {
	EventType() EventType
	Timestamp() time.Time
	Snapshot() RoundState

	// isolated returns a copy sharing no slices with the original
	isolated() Event
}

// PhaseChangeEvent is published once per phase transition
type PhaseChangeEvent struct {
	Current   phase.Phase
	Previous  phase.Phase
	State     RoundState
	timestamp time.Time
}

func (e PhaseChangeEvent) EventType() EventType { return EventTypePhaseChange }
func (e PhaseChangeEvent) Timestamp() time.Time { return e.timestamp }
func (e PhaseChangeEvent) Snapshot() RoundState { return e.State }
func (e PhaseChangeEvent) isolated() Event {
	e.State = e.State.Clone()
	return e
}

// StateChangeEvent is published after every successful mutating action
type StateChangeEvent struct {
	Action    string
	State     RoundState
	timestamp time.Time
}

func (e StateChangeEvent) EventType() EventType { return EventTypeStateChange }
func (e StateChangeEvent) Timestamp() time.Time { return e.timestamp }
func (e StateChangeEvent) Snapshot() RoundState { return e.State }
func (e StateChangeEvent) isolated() Event {
	e.State = e.State.Clone()
	return e
}

// RoundResolvedEvent is published when a round has been settled
type RoundResolvedEvent struct {
	RoundID   string
	Results   []HandResult
	Net       int
	State     RoundState
	timestamp time.Time
}

func (e RoundResolvedEvent) EventType() EventType { return EventTypeRoundResolved }
func (e RoundResolvedEvent) Timestamp() time.Time { return e.timestamp }
func (e RoundResolvedEvent) Snapshot() RoundState { return e.State }
func (e RoundResolvedEvent) isolated() Event {
	e.State = e.State.Clone()
	e.Results = slices.Clone(e.Results)
	return e
}

// ShoeShuffledEvent is published when the shoe is rebuilt before a deal
type ShoeShuffledEvent struct {
	Remaining int
	State     RoundState
	timestamp time.Time
}

func (e ShoeShuffledEvent) EventType() EventType { return EventTypeShoeShuffled }
func (e ShoeShuffledEvent) Timestamp() time.Time { return e.timestamp }
func (e ShoeShuffledEvent) Snapshot() RoundState { return e.State }
func (e ShoeShuffledEvent) isolated() Event {
	e.State = e.State.Clone()
	return e
}

// Subscriber receives engine events
type Subscriber interface {
	OnEvent(event Event)
}

// SubscriberFunc adapts a plain function to Subscriber
type SubscriberFunc func(Event)

func (f SubscriberFunc) OnEvent(event Event) { f(event) }

type subscription struct {
	id  int
	sub Subscriber
}

// eventBus delivers events synchronously in subscription order
type eventBus struct {
	subscribers []subscription
	nextID      int
	logger      *log.Logger
}

func (b *eventBus) subscribe(sub Subscriber) func() {
	b.nextID++
	id := b.nextID
	b.subscribers = append(b.subscribers, subscription{id: id, sub: sub})

	return func() {
		for i, s := range b.subscribers {
			if s.id == id {
				b.subscribers = append(b.subscribers[:i:i], b.subscribers[i+1:]...)
				return
			}
		}
	}
}

func (b *eventBus) publish(event Event) {
	subs := append([]subscription(nil), b.subscribers...)
	for _, s := range subs {
		b.deliver(s, event)
	}
}

func (b *eventBus) deliver(s subscription, event Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("Subscriber panicked", "subscriber", s.id, "event", event.EventType(), "panic", r)
		}
	}()
	s.sub.OnEvent(event.isolated())
}
