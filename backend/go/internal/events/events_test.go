package events

import (
	"MindGraphDB/backend/go/internal/models"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error { return nil }

func TestKafkaPublisher_Publish(t *testing.T) {
	w := &fakeWriter{}
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	p := &KafkaPublisher{writer: w, now: func() time.Time { return at }}

	require.NoError(t, p.Publish(context.Background(), ModelTrained, map[string]interface{}{"accuracy": 0.9}))
	require.Len(t, w.msgs, 1)
	assert.Equal(t, ModelTrained, string(w.msgs[0].Key))

	var event models.DomainEvent
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &event))
	assert.Equal(t, ModelTrained, event.Type)
	assert.True(t, at.Equal(event.OccurredAt))
	assert.Equal(t, 0.9, event.Payload["accuracy"])
}

func TestKafkaPublisher_WriteError(t *testing.T) {
	p := &KafkaPublisher{writer: &fakeWriter{err: errors.New("broker down")}, now: time.Now}
	assert.Error(t, p.Publish(context.Background(), StudentsLoaded, nil))
}
