package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDispatcherDeliversToInterestedSubscriber(t *testing.T) {
	d := NewDispatcher()
	_, ch := d.Subscribe([]Type{TypeNewBlock})

	d.Dispatch(Event{Type: TypeNewBlock, Location: BlockLocation(1)})
	d.Dispatch(Event{Type: TypeReorg, Location: BlockLocation(1)})

	select {
	case e := <-ch:
		require.Equal(t, TypeNewBlock, e.Type)
	case <-time.After(time.Second):
		t.Fatal("expected an event")
	}

	select {
	case e := <-ch:
		t.Fatalf("unexpected second event %v", e)
	default:
	}
}

func TestDispatcherEmptyTypesMeansEverything(t *testing.T) {
	d := NewDispatcher()
	_, ch := d.Subscribe(nil)

	d.Dispatch(Event{Type: TypeRuneEtched})
	d.Dispatch(Event{Type: TypeRuneBurned})

	for i := 0; i < 2; i++ {
		select {
		case <-ch:
		case <-time.After(time.Second):
			t.Fatal("expected an event")
		}
	}
}

func TestDispatcherEvictsFullSubscriber(t *testing.T) {
	d := NewDispatcher()
	id, ch := d.Subscribe(nil)

	for i := 0; i < subscriberBufferSize+5; i++ {
		d.Dispatch(Event{Type: TypeNewBlock})
	}
	require.Equal(t, 0, d.SubscriberCount())

	d.mu.RLock()
	_, stillPresent := d.subs[id]
	d.mu.RUnlock()
	require.False(t, stillPresent)

	_, ok := <-ch
	for ok {
		_, ok = <-ch
	}
}

func TestDispatcherUnsubscribeClosesChannel(t *testing.T) {
	d := NewDispatcher()
	id, ch := d.Subscribe(nil)
	d.Unsubscribe(id)

	_, ok := <-ch
	require.False(t, ok)

	require.Equal(t, 0, d.SubscriberCount())
}
