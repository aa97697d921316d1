package consumer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	"auditwatch/internal/platform/kafka"
)

func TestNew_RequiresConfiguration(t *testing.T) {
	cfg := kafka.DefaultConsumerConfig()

	_, err := New(cfg, nil, nil)
	assert.ErrorContains(t, err, "brokers")

	cfg.Brokers = "localhost:9092"
	cfg.GroupID = ""
	_, err = New(cfg, nil, nil)
	assert.ErrorContains(t, err, "group")

	cfg.GroupID = "g"
	cfg.Topics = nil
	_, err = New(cfg, nil, nil)
	assert.ErrorContains(t, err, "topics")
}

func TestToMessage_CopiesRecord(t *testing.T) {
	ts := time.Date(2026, 3, 3, 2, 0, 0, 0, time.UTC)
	msg := toMessage(&kgo.Record{
		Topic:     kafka.TopicAccessEvents,
		Partition: 2,
		Offset:    41,
		Key:       []byte("k"),
		Value:     []byte("v"),
		Headers:   []kgo.RecordHeader{{Key: "source", Value: []byte("ehr")}},
		Timestamp: ts,
	})
	require.NotNil(t, msg)
	assert.Equal(t, kafka.TopicAccessEvents, msg.Topic)
	assert.Equal(t, int32(2), msg.Partition)
	assert.Equal(t, int64(41), msg.Offset)
	assert.Equal(t, "ehr", msg.Headers["source"])
	assert.Equal(t, ts, msg.Timestamp)
}
