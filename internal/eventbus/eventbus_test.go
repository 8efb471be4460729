package eventbus

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/kljensen/icaltoday/internal/config"
	"github.com/kljensen/icaltoday/internal/events"
)

func receive(t *testing.T, sub events.Subscriber) events.Payload {
	t.Helper()
	select {
	case p := <-sub:
		return p
	case <-time.After(time.Second):
		t.Fatal("no event delivered")
		return nil
	}
}

func TestNewSelectsBackend(t *testing.T) {
	bus, err := New(Config{Backend: "memory"}, zerolog.Nop())
	if err != nil {
		t.Fatalf("New(memory): %v", err)
	}
	if _, ok := bus.(*events.Bus); !ok {
		t.Fatalf("memory backend = %T, want *events.Bus", bus)
	}

	if _, err := New(Config{Backend: "kafka"}, zerolog.Nop()); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}

func TestNATSBusFallsBackWhenUnreachable(t *testing.T) {
	bus := NewNATSBus(NATSConfig{URL: "nats://127.0.0.1:1", Timeout: 200 * time.Millisecond}, "node-a", zerolog.Nop())
	defer bus.Close()

	if bus.Connected() {
		t.Fatal("Connected() = true for unreachable server")
	}

	sub := bus.Subscribe(events.EventCalendarImported)
	bus.Publish(events.EventCalendarImported, events.Payload{"calendar": "Work"})
	if got := receive(t, sub)["calendar"]; got != "Work" {
		t.Fatalf("calendar = %v, want Work", got)
	}
	if got := bus.subject(events.EventCalendarImported); got != "icaltoday.events.calendar.imported" {
		t.Fatalf("subject = %q", got)
	}
}

func TestRedisBusFallsBackWhenUnreachable(t *testing.T) {
	cfg := DefaultRedisConfig()
	cfg.Addr = "127.0.0.1:1"
	cfg.DialTimeout = 200 * time.Millisecond
	bus := NewRedisBus(cfg, "node-a", zerolog.Nop())

	sub := bus.Subscribe(events.EventCacheFlush)
	bus.Publish(events.EventCacheFlush, events.Payload{"reason": "test"})
	if got := receive(t, sub)["reason"]; got != "test" {
		t.Fatalf("reason = %v, want test", got)
	}

	if err := bus.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	// Publishing after Close stays local.
	bus.Publish(events.EventCacheFlush, events.Payload{})
}

func TestDeliverRemoteSkipsOwnMessages(t *testing.T) {
	local := events.NewBus()
	sub := local.Subscribe(events.EventCalendarImported)

	own, err := marshalMessage(events.EventCalendarImported, events.Payload{"calendar": "Mine"}, "node-a")
	if err != nil {
		t.Fatalf("marshalMessage: %v", err)
	}
	deliverRemote(local, "node-a", own, zerolog.Nop())
	select {
	case p := <-sub:
		t.Fatalf("own message delivered: %v", p)
	default:
	}

	remote, err := marshalMessage(events.EventCalendarImported, events.Payload{"calendar": "Theirs"}, "node-b")
	if err != nil {
		t.Fatalf("marshalMessage: %v", err)
	}
	deliverRemote(local, "node-a", remote, zerolog.Nop())
	if got := receive(t, sub)["calendar"]; got != "Theirs" {
		t.Fatalf("calendar = %v, want Theirs", got)
	}
}

func TestDeliverRemoteDropsMalformed(t *testing.T) {
	local := events.NewBus()
	sub := local.Subscribe(events.EventCalendarImported)

	for _, data := range []string{"not json", `{"payload":{}}`} {
		deliverRemote(local, "node-a", []byte(data), zerolog.Nop())
	}
	select {
	case p := <-sub:
		t.Fatalf("malformed message delivered: %v", p)
	default:
	}
}

func TestMessageWireFormat(t *testing.T) {
	data, err := marshalMessage(events.EventCacheFlush, events.Payload{"k": "v"}, "node-a")
	if err != nil {
		t.Fatalf("marshalMessage: %v", err)
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("decode: %v", err)
	}
	for _, key := range []string{"event_type", "payload", "timestamp", "node_id", "message_id"} {
		if _, ok := raw[key]; !ok {
			t.Fatalf("wire message missing %q: %s", key, data)
		}
	}
}

func TestNodeIDIsUnique(t *testing.T) {
	a, b := NodeID(), NodeID()
	if a == b {
		t.Fatalf("NodeID() returned %q twice", a)
	}
	if !strings.Contains(a, "-") {
		t.Fatalf("NodeID() = %q, want host-suffix", a)
	}
}

func TestConfigFrom(t *testing.T) {
	cfg := ConfigFrom(&config.Config{
		EventBus:  "redis",
		NATSURL:   "nats://broker:4222",
		RedisAddr: "cache:6379",
		RedisDB:   2,
	})
	if cfg.Backend != BackendRedis {
		t.Fatalf("Backend = %q, want redis", cfg.Backend)
	}
	if cfg.NATS.URL != "nats://broker:4222" || cfg.NATS.SubjectPrefix == "" {
		t.Fatalf("NATS = %+v", cfg.NATS)
	}
	if cfg.Redis.Addr != "cache:6379" || cfg.Redis.DB != 2 || cfg.Redis.ChannelPrefix == "" {
		t.Fatalf("Redis = %+v", cfg.Redis)
	}
}
