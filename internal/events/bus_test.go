package events

import "testing"

func TestBusDeliversToSubscribers(t *testing.T) {
	bus := NewBus()
	a := bus.Subscribe(EventCalendarImported)
	b := bus.Subscribe(EventCalendarImported)
	other := bus.Subscribe(EventCacheFlush)

	bus.Publish(EventCalendarImported, Payload{"calendar": "Work"})

	for i, sub := range []Subscriber{a, b} {
		select {
		case p := <-sub:
			if p["calendar"] != "Work" {
				t.Fatalf("subscriber %d payload = %v", i, p)
			}
		default:
			t.Fatalf("subscriber %d received nothing", i)
		}
	}
	select {
	case p := <-other:
		t.Fatalf("unrelated subscriber received %v", p)
	default:
	}
}

func TestBusDropsWhenSubscriberFull(t *testing.T) {
	bus := NewBus()
	sub := bus.Subscribe(EventCacheFlush)

	for i := 0; i < cap(sub)+5; i++ {
		bus.Publish(EventCacheFlush, Payload{"n": i})
	}
	if got := len(sub); got != cap(sub) {
		t.Fatalf("buffered = %d, want %d", got, cap(sub))
	}
}

func TestBusUnsubscribeClosesOnce(t *testing.T) {
	bus := NewBus()
	sub := bus.Subscribe(EventCalendarImported)

	bus.Unsubscribe(EventCalendarImported, sub)
	if _, ok := <-sub; ok {
		t.Fatal("channel still open after Unsubscribe")
	}

	// A second Unsubscribe must not close the channel again.
	bus.Unsubscribe(EventCalendarImported, sub)
	bus.Publish(EventCalendarImported, Payload{})
}

func TestBusPublishRacesUnsubscribe(t *testing.T) {
	bus := NewBus()
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 1000; i++ {
			bus.Publish(EventCalendarImported, Payload{"n": i})
		}
	}()

	for i := 0; i < 1000; i++ {
		sub := bus.Subscribe(EventCalendarImported)
		bus.Unsubscribe(EventCalendarImported, sub)
	}
	<-done
}
