/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package eventbus fans events out to other icaltoday processes over NATS or
// Redis pub/sub. Local subscribers always receive local publishes directly.
package eventbus

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/kljensen/icaltoday/internal/config"
	"github.com/kljensen/icaltoday/internal/events"
)

// Backend names.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendNATS   = "nats"
)

// Bus is the event bus shared by the server and the command line.
type Bus interface {
	events.Publisher
	Subscribe(eventType events.EventType) events.Subscriber
	Unsubscribe(eventType events.EventType, sub events.Subscriber)
	Close() error
}

// Config selects and configures the bus backend.
type Config struct {
	Backend string
	NATS    NATSConfig
	Redis   RedisConfig
}

// ConfigFrom maps process configuration onto bus configuration.
func ConfigFrom(cfg *config.Config) Config {
	natsCfg := DefaultNATSConfig()
	natsCfg.URL = cfg.NATSURL
	natsCfg.Token = cfg.NATSToken

	redisCfg := DefaultRedisConfig()
	redisCfg.Addr = cfg.RedisAddr
	redisCfg.Password = cfg.RedisPassword
	redisCfg.DB = cfg.RedisDB

	return Config{Backend: cfg.EventBus, NATS: natsCfg, Redis: redisCfg}
}

// New returns the configured bus. Unreachable brokers degrade to a local bus.
func New(cfg Config, logger zerolog.Logger) (Bus, error) {
	logger = logger.With().Str("component", "eventbus").Logger()
	nodeID := NodeID()

	switch strings.ToLower(cfg.Backend) {
	case "", BackendMemory:
		return events.NewBus(), nil
	case BackendNATS:
		return NewNATSBus(cfg.NATS, nodeID, logger), nil
	case BackendRedis:
		return NewRedisBus(cfg.Redis, nodeID, logger), nil
	default:
		return nil, fmt.Errorf("unknown event bus backend %q", cfg.Backend)
	}
}

// NodeID identifies this process in published messages.
func NodeID() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "unknown"
	}
	return host + "-" + uuid.NewString()[:8]
}

// message is the wire format shared by all remote backends.
type message struct {
	EventType events.EventType `json:"event_type"`
	Payload   events.Payload   `json:"payload"`
	Timestamp time.Time        `json:"timestamp"`
	NodeID    string           `json:"node_id"`
	MessageID string           `json:"message_id"`
}

func marshalMessage(eventType events.EventType, payload events.Payload, nodeID string) ([]byte, error) {
	return json.Marshal(message{
		EventType: eventType,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
		NodeID:    nodeID,
		MessageID: uuid.NewString(),
	})
}

func unmarshalMessage(data []byte) (*message, error) {
	var msg message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("unmarshal event message: %w", err)
	}
	if msg.EventType == "" {
		return nil, fmt.Errorf("unmarshal event message: missing event type")
	}
	return &msg, nil
}

// deliverRemote hands a remote message to local subscribers unless this node
// sent it.
func deliverRemote(local *events.Bus, nodeID string, data []byte, logger zerolog.Logger) {
	msg, err := unmarshalMessage(data)
	if err != nil {
		logger.Warn().Err(err).Msg("dropping malformed event")
		return
	}
	if msg.NodeID == nodeID {
		return
	}
	local.Publish(msg.EventType, msg.Payload)
	logger.Debug().
		Str("event_type", string(msg.EventType)).
		Str("source_node", msg.NodeID).
		Msg("delivered remote event")
}
