package kafka

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/IBM/sarama"

	"livonto/internal/app/policies"
)

// NotificationHandler turns booking lifecycle events from the broker into
// notifier dispatches. Malformed messages are logged and acknowledged so one
// bad payload cannot wedge the partition.
type NotificationHandler struct {
	Notifier policies.Notifier
	Logger   *slog.Logger
}

type eventEnvelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type bookingEventData struct {
	BookingID string `json:"BookingID"`
}

func (h NotificationHandler) Handle(ctx context.Context, msg *sarama.ConsumerMessage) error {
	var envelope eventEnvelope
	if err := json.Unmarshal(msg.Value, &envelope); err != nil {
		h.log().Warn("dropping malformed event", slog.String("topic", msg.Topic), slog.Any("error", err))
		return nil
	}
	var data bookingEventData
	if err := json.Unmarshal(envelope.Data, &data); err != nil {
		h.log().Warn("dropping event without booking data", slog.String("type", envelope.Type), slog.Any("error", err))
		return nil
	}
	notification := policies.Notification{
		Kind:      envelope.Type,
		BookingID: data.BookingID,
		Payload:   envelope.Data,
	}
	if err := h.Notifier.Notify(ctx, notification); err != nil {
		h.log().Error("notification dispatch failed",
			slog.String("type", envelope.Type),
			slog.String("booking_id", data.BookingID),
			slog.Any("error", err))
		return err
	}
	return nil
}

func (h NotificationHandler) log() *slog.Logger {
	if h.Logger == nil {
		return slog.Default()
	}
	return h.Logger
}
