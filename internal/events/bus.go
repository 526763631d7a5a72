// Package events dispatches entity lifecycle events to registered reactions.
//
// Dispatch is synchronous and ordered: Publish runs every reaction for the
// event's kind and entity, in registration order, on the caller's goroutine,
// and stops at the first reaction that returns an error.
package events

import (
	"context"
	"fmt"
	"sync"

	"messaging_backend/internal/logger"
	"messaging_backend/internal/metrics"

	"gorm.io/gorm"
)

type Kind string

const (
	BeforeSave  Kind = "before-save"
	AfterCreate Kind = "after-create"
	AfterDelete Kind = "after-delete"
)

type Entity string

const (
	EntityMessage Entity = "message"
	EntityUser    Entity = "user"
)

type Event struct {
	Kind   Kind
	Entity Entity
	// Payload is the prospective state on BeforeSave, the persisted entity on
	// AfterCreate and the removed entity on AfterDelete. BeforeSave reactions
	// may mutate it.
	Payload any
	// Prior is the persisted state on BeforeSave, nil when the entity is new.
	Prior any
	// ActorID is the user performing the mutation, empty when unknown.
	ActorID string
	// DB is the handle of the publishing transaction.
	DB *gorm.DB
}

type Reaction func(ctx context.Context, ev Event) error

// ReactionError wraps the error of the reaction that aborted a publish.
type ReactionError struct {
	Reaction string
	Kind     Kind
	Entity   Entity
	Err      error
}

func (e *ReactionError) Error() string {
	return fmt.Sprintf("reaction %s on %s/%s: %v", e.Reaction, e.Entity, e.Kind, e.Err)
}

func (e *ReactionError) Unwrap() error {
	return e.Err
}

type topic struct {
	kind   Kind
	entity Entity
}

type registration struct {
	name     string
	reaction Reaction
}

type Bus struct {
	mu        sync.RWMutex
	reactions map[topic][]registration
}

func NewBus() *Bus {
	return &Bus{reactions: make(map[topic][]registration)}
}

// Subscribe appends a reaction for kind/entity. Safe for concurrent use.
func (b *Bus) Subscribe(kind Kind, entity Entity, name string, r Reaction) {
	b.mu.Lock()
	defer b.mu.Unlock()
	key := topic{kind, entity}
	b.reactions[key] = append(b.reactions[key], registration{name: name, reaction: r})
}

// Reactions lists the registered reaction names for kind/entity in order.
func (b *Bus) Reactions(kind Kind, entity Entity) []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	regs := b.reactions[topic{kind, entity}]
	names := make([]string, len(regs))
	for i, r := range regs {
		names[i] = r.name
	}
	return names
}

// Publish runs the reactions registered for ev. The first error aborts the
// remaining reactions and is returned as a *ReactionError.
func (b *Bus) Publish(ctx context.Context, ev Event) error {
	b.mu.RLock()
	regs := append([]registration(nil), b.reactions[topic{ev.Kind, ev.Entity}]...)
	b.mu.RUnlock()

	metrics.EventsPublished.WithLabelValues(string(ev.Kind), string(ev.Entity)).Inc()

	for _, reg := range regs {
		if err := reg.reaction(ctx, ev); err != nil {
			metrics.ReactionFailures.WithLabelValues(reg.name).Inc()
			logger.CtxWarn(ctx, "reaction failed",
				"reaction", reg.name,
				"kind", ev.Kind,
				"entity", ev.Entity,
				"error", err,
			)
			return &ReactionError{Reaction: reg.name, Kind: ev.Kind, Entity: ev.Entity, Err: err}
		}
	}
	return nil
}
