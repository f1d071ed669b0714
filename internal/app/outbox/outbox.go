package outbox

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"livonto/internal/domain/shared/events"
)

// EventRecord is a serialized domain event staged for publication.
type EventRecord struct {
	ID         string
	Name       string
	Aggregate  string
	Payload    []byte
	Headers    map[string]string
	OccurredAt time.Time
}

// Outbox stages event records inside the current transaction; Flush hands
// staged records to the durable store once the command succeeds.
type Outbox interface {
	Add(ctx context.Context, record EventRecord) error
	Flush(ctx context.Context) error
}

// EventEncoder turns a domain event into a wire record.
type EventEncoder interface {
	Encode(ev events.DomainEvent) (EventRecord, error)
}

// JSONEventEncoder marshals the event struct as JSON.
type JSONEventEncoder struct{}

func (JSONEventEncoder) Encode(ev events.DomainEvent) (EventRecord, error) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return EventRecord{}, err
	}
	return EventRecord{
		ID:         uuid.NewString(),
		Name:       ev.EventName(),
		Aggregate:  ev.AggregateID(),
		Payload:    payload,
		OccurredAt: ev.OccurredAt(),
	}, nil
}

// RecordDomainEvents encodes and stages a batch of aggregate events.
func RecordDomainEvents(ctx context.Context, box Outbox, enc EventEncoder, evs []events.DomainEvent) error {
	if box == nil || len(evs) == 0 {
		return nil
	}
	if enc == nil {
		enc = JSONEventEncoder{}
	}
	for _, ev := range evs {
		record, err := enc.Encode(ev)
		if err != nil {
			return err
		}
		if err := box.Add(ctx, record); err != nil {
			return err
		}
	}
	return nil
}
