package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventType names a ledger mutation.
type EventType string

const (
	EventFineAssigned  EventType = "fine.assigned"
	EventMemberAdded   EventType = "member.added"
	EventMemberRemoved EventType = "member.removed"
	EventFinesCleared  EventType = "fines.cleared"
)

func (t EventType) IsValid() bool {
	switch t {
	case EventFineAssigned, EventMemberAdded, EventMemberRemoved, EventFinesCleared:
		return true
	default:
		return false
	}
}

// LedgerEvent announces a committed change to the roster or the ledger.
// It carries no state a consumer must trust: the mirror reloads the full
// datasets from the primary store.
type LedgerEvent struct {
	Type      EventType `json:"type"`
	Member    string    `json:"member"`
	FineType  string    `json:"fine_type,omitempty"`
	Amount    int64     `json:"amount,omitempty"`
	Count     int       `json:"count,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func NewLedgerEvent(typ EventType, member string) LedgerEvent {
	return LedgerEvent{
		Type:      typ,
		Member:    member,
		Timestamp: time.Now().UTC(),
	}
}

func (e LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// LedgerEventFromJSON decodes an event and rejects unknown types.
func LedgerEventFromJSON(data []byte) (LedgerEvent, error) {
	var ev LedgerEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return LedgerEvent{}, err
	}
	if !ev.Type.IsValid() {
		return LedgerEvent{}, fmt.Errorf("unknown event type %q", ev.Type)
	}
	return ev, nil
}
