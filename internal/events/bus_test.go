package events

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus_RunsReactionsInRegistrationOrder(t *testing.T) {
	bus := NewBus()
	var calls []string

	for _, name := range []string{"first", "second", "third"} {
		name := name
		bus.Subscribe(AfterCreate, EntityMessage, name, func(ctx context.Context, ev Event) error {
			calls = append(calls, name)
			return nil
		})
	}

	err := bus.Publish(context.Background(), Event{Kind: AfterCreate, Entity: EntityMessage})
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second", "third"}, calls)
	assert.Equal(t, []string{"first", "second", "third"}, bus.Reactions(AfterCreate, EntityMessage))
}

func TestBus_ErrorAbortsRemainingAndPropagates(t *testing.T) {
	bus := NewBus()
	boom := errors.New("boom")
	var calls []string

	bus.Subscribe(AfterDelete, EntityUser, "ok", func(ctx context.Context, ev Event) error {
		calls = append(calls, "ok")
		return nil
	})
	bus.Subscribe(AfterDelete, EntityUser, "fails", func(ctx context.Context, ev Event) error {
		calls = append(calls, "fails")
		return boom
	})
	bus.Subscribe(AfterDelete, EntityUser, "never", func(ctx context.Context, ev Event) error {
		calls = append(calls, "never")
		return nil
	})

	err := bus.Publish(context.Background(), Event{Kind: AfterDelete, Entity: EntityUser})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)

	var reactionErr *ReactionError
	require.ErrorAs(t, err, &reactionErr)
	assert.Equal(t, "fails", reactionErr.Reaction)
	assert.Equal(t, []string{"ok", "fails"}, calls)
}

func TestBus_DispatchesOnlyMatchingTopic(t *testing.T) {
	bus := NewBus()
	called := false
	bus.Subscribe(BeforeSave, EntityMessage, "history", func(ctx context.Context, ev Event) error {
		called = true
		return nil
	})

	require.NoError(t, bus.Publish(context.Background(), Event{Kind: AfterCreate, Entity: EntityMessage}))
	require.NoError(t, bus.Publish(context.Background(), Event{Kind: BeforeSave, Entity: EntityUser}))
	assert.False(t, called)

	require.NoError(t, bus.Publish(context.Background(), Event{Kind: BeforeSave, Entity: EntityMessage}))
	assert.True(t, called)
}

func TestBus_BeforeSaveReactionMutatesPayload(t *testing.T) {
	type draft struct{ Edited bool }
	bus := NewBus()
	bus.Subscribe(BeforeSave, EntityMessage, "mark", func(ctx context.Context, ev Event) error {
		ev.Payload.(*draft).Edited = true
		return nil
	})

	d := &draft{}
	require.NoError(t, bus.Publish(context.Background(), Event{Kind: BeforeSave, Entity: EntityMessage, Payload: d}))
	assert.True(t, d.Edited)
}

func TestBus_ConcurrentSubscribeAndPublish(t *testing.T) {
	bus := NewBus()
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			bus.Subscribe(AfterCreate, EntityMessage, "noop", func(ctx context.Context, ev Event) error { return nil })
		}()
		go func() {
			defer wg.Done()
			_ = bus.Publish(context.Background(), Event{Kind: AfterCreate, Entity: EntityMessage})
		}()
	}
	wg.Wait()

	assert.Len(t, bus.Reactions(AfterCreate, EntityMessage), 20)
}
