package events

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	EventNameRowChanged = "RowChanged"
	rowChangedSchema    = "pizzeria.RowChanged.v1"
)

// EventEnvelope represents the common envelope for all events.
type EventEnvelope[T any] struct {
	EventName     string    `json:"eventName"`
	EventVersion  int       `json:"eventVersion"`
	EventID       string    `json:"eventId"`
	CorrelationID string    `json:"correlationId,omitempty"`
	Producer      string    `json:"producer"`
	PartitionKey  string    `json:"partitionKey"`
	OccurredAt    time.Time `json:"occurredAt"`
	Schema        string    `json:"schema"`
	Payload       T         `json:"payload"`
}

// Change says that a row of a watched table changed. Consumers must not rely
// on anything beyond "something changed"; RowID is a hint.
type Change struct {
	Table string `json:"table"`
	Op    string `json:"op"`
	RowID string `json:"rowId,omitempty"`
}

type ChangeEnvelope = EventEnvelope[Change]

func newChangeEnvelope(c Change, correlationID string, occurredAt time.Time) ChangeEnvelope {
	return ChangeEnvelope{
		EventName:     EventNameRowChanged,
		EventVersion:  1,
		EventID:       uuid.NewString(),
		CorrelationID: correlationID,
		Producer:      serviceName,
		PartitionKey:  c.Table,
		OccurredAt:    occurredAt,
		Schema:        rowChangedSchema,
		Payload:       c,
	}
}

// Validate ensures the envelope contains the expected event identity.
func (e EventEnvelope[T]) Validate(expectedName string, expectedVersion int) error {
	if e.EventName != expectedName {
		return fmt.Errorf("unexpected eventName: %s", e.EventName)
	}
	if e.EventVersion != expectedVersion {
		return fmt.Errorf("unexpected eventVersion: %d", e.EventVersion)
	}
	if e.PartitionKey == "" {
		return fmt.Errorf("missing partitionKey")
	}
	return nil
}
