package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"auditwatch/internal/audit/metrics"
	"auditwatch/internal/platform/kafka/consumer"
	id "auditwatch/pkg/domain"
	dErrors "auditwatch/pkg/domain-errors"
	"auditwatch/pkg/platform/httputil"
)

// IngestHandler records access events consumed from Kafka. The message key
// is the event id, so redelivered messages are recorded once.
type IngestHandler struct {
	service Service
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewIngestHandler(service Service, logger *slog.Logger, m *metrics.Metrics) *IngestHandler {
	return &IngestHandler{service: service, logger: logger, metrics: m}
}

// Handle returns nil for messages that can never succeed so their offset is
// committed; store failures return an error and the message is redelivered.
func (h *IngestHandler) Handle(ctx context.Context, msg *consumer.Message) error {
	eventID, err := id.ParseEventID(string(msg.Key))
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to parse event ID from message key",
			"key", string(msg.Key),
			"partition", msg.Partition,
			"offset", msg.Offset,
		)
		h.metrics.IncrementConsumed("malformed")
		return nil
	}

	var req RecordEventRequest
	if err := json.Unmarshal(msg.Value, &req); err != nil {
		h.logger.ErrorContext(ctx, "failed to unmarshal audit payload",
			"event_id", eventID.String(),
			"error", err,
		)
		h.metrics.IncrementConsumed("malformed")
		return nil
	}
	if err := httputil.PrepareRequest(&req); err != nil {
		h.reject(ctx, eventID, err)
		return nil
	}
	cmd, err := req.ToCommand()
	if err != nil {
		h.reject(ctx, eventID, err)
		return nil
	}
	cmd.ID = eventID

	_, err = h.service.Record(ctx, cmd)
	switch {
	case err == nil:
		h.metrics.IncrementConsumed("recorded")
		return nil
	case dErrors.HasCode(err, dErrors.CodeConflict):
		h.logger.DebugContext(ctx, "audit event already recorded", "event_id", eventID.String())
		h.metrics.IncrementConsumed("duplicate")
		return nil
	case dErrors.HasCode(err, dErrors.CodeValidation):
		h.reject(ctx, eventID, err)
		return nil
	default:
		h.metrics.IncrementConsumed("error")
		return fmt.Errorf("record audit event %s: %w", eventID, err)
	}
}

func (h *IngestHandler) reject(ctx context.Context, eventID id.EventID, err error) {
	h.logger.WarnContext(ctx, "audit event rejected",
		"event_id", eventID.String(),
		"error", err,
	)
	h.metrics.IncrementConsumed("rejected")
}

var _ consumer.Handler = (*IngestHandler)(nil)
