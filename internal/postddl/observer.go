package postddl

import "time"

// EventType represents the lifecycle phases of a post-DDL plan
type EventType string

const (
	EventCompiled   EventType = "compiled"
	EventExecStart  EventType = "exec_start"
	EventTableStart EventType = "table_start"
	EventTableEnd   EventType = "table_end"
	EventCacheAdded EventType = "cache_added"
	EventCacheFreed EventType = "cache_released"
	EventExecEnd    EventType = "exec_end"
)

// Event represents one lifecycle event of a plan
type Event struct {
	Type      EventType   // Type of event
	PlanID    string      // Plan ID for tracing
	Table     string      // Table being processed (empty for plan level events)
	Timestamp time.Time   // When the event occurred
	Data      interface{} // Phase-specific data (e.g. count, error)
}

// Observer receives events at the major phases of plan execution
type Observer interface {
	OnEvent(event Event)
}
