package events

import (
	"time"
)

// DomainEvent is the base interface for all domain events
// Events represent something that has happened in the past
type DomainEvent interface {
	GetAggregateID() string
	GetEventType() string
	GetTimestamp() time.Time
	GetVersion() int
}

// BaseEvent provides common event fields
type BaseEvent struct {
	AggregateID string    `json:"aggregate_id"`
	EventType   string    `json:"event_type"`
	Timestamp   time.Time `json:"timestamp"`
	Version     int       `json:"version"`
}

func (e BaseEvent) GetAggregateID() string  { return e.AggregateID }
func (e BaseEvent) GetEventType() string    { return e.EventType }
func (e BaseEvent) GetTimestamp() time.Time { return e.Timestamp }
func (e BaseEvent) GetVersion() int         { return e.Version }

const (
	TypeMapBuilt      = "decision.map.built"
	TypeRecordSaved   = "decision.record.saved"
	TypeRecordDeleted = "decision.record.deleted"
)

// MapBuilt is raised after a map has been assembled
type MapBuilt struct {
	BaseEvent
	RequestID         string `json:"request_id"`
	Domain            string `json:"domain"`
	Title             string `json:"title"`
	OptionCount       int    `json:"option_count"`
	TotalFutureStates int    `json:"total_future_states"`
	BestOption        string `json:"best_option"`
	WorstOption       string `json:"worst_option"`
	LLMUsed           bool   `json:"llm_used"`
	FallbackNodes     int    `json:"fallback_nodes"`
}

// NewMapBuilt creates a MapBuilt event keyed by the request id
func NewMapBuilt(requestID, domain, title string, optionCount, total int, best, worst string, llmUsed bool, fallbackNodes int, timestamp time.Time) MapBuilt {
	return MapBuilt{
		BaseEvent: BaseEvent{
			AggregateID: requestID,
			EventType:   TypeMapBuilt,
			Timestamp:   timestamp,
			Version:     1,
		},
		RequestID:         requestID,
		Domain:            domain,
		Title:             title,
		OptionCount:       optionCount,
		TotalFutureStates: total,
		BestOption:        best,
		WorstOption:       worst,
		LLMUsed:           llmUsed,
		FallbackNodes:     fallbackNodes,
	}
}

// History Events

// RecordSaved is raised when a decision record is persisted
type RecordSaved struct {
	BaseEvent
	RecordID string `json:"record_id"`
	Domain   string `json:"domain"`
}

// NewRecordSaved creates a RecordSaved event
func NewRecordSaved(recordID, domain string, timestamp time.Time) RecordSaved {
	return RecordSaved{
		BaseEvent: BaseEvent{
			AggregateID: recordID,
			EventType:   TypeRecordSaved,
			Timestamp:   timestamp,
			Version:     1,
		},
		RecordID: recordID,
		Domain:   domain,
	}
}

// RecordDeleted is raised when a decision record is removed
type RecordDeleted struct {
	BaseEvent
	RecordID string `json:"record_id"`
}

// NewRecordDeleted creates a RecordDeleted event
func NewRecordDeleted(recordID string, timestamp time.Time) RecordDeleted {
	return RecordDeleted{
		BaseEvent: BaseEvent{
			AggregateID: recordID,
			EventType:   TypeRecordDeleted,
			Timestamp:   timestamp,
			Version:     1,
		},
		RecordID: recordID,
	}
}
