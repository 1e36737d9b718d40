// Package redis publishes content change events to a Redis pub/sub channel
// so caches and page renderers can react to owner edits.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	goredis "github.com/redis/go-redis/v9"
	"github.com/tendant/simple-linkbio/pkg/linkbio"
)

// DefaultChannel is used when no channel is configured.
const DefaultChannel = "linkbio:events"

// Publisher is the subset of the go-redis client used by the sink.
type Publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *goredis.IntCmd
}

// EventSink implements linkbio.EventSink over Redis PUBLISH.
type EventSink struct {
	client  Publisher
	channel string
}

// New creates an event sink publishing on channel
func New(client Publisher, channel string) (*EventSink, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	if channel == "" {
		channel = DefaultChannel
	}
	return &EventSink{client: client, channel: channel}, nil
}

// NewFromURL parses a redis:// URL and creates the client and sink
func NewFromURL(redisURL, channel string) (*EventSink, *goredis.Client, error) {
	opts, err := goredis.ParseURL(redisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	client := goredis.NewClient(opts)
	sink, err := New(client, channel)
	if err != nil {
		client.Close()
		return nil, nil, err
	}
	return sink, client, nil
}

// Publish sends the event as JSON
func (s *EventSink) Publish(ctx context.Context, event linkbio.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}
	if err := s.client.Publish(ctx, s.channel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish %s: %w", event.Type, err)
	}
	return nil
}
