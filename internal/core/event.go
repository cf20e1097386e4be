package core

import (
	"fmt"
	"time"

	"github.com/timada-org/doorphone/internal/door"
)

// TimeLayout is ISO-8601 in UTC with millisecond precision.
const TimeLayout = "2006-01-02T15:04:05.000Z07:00"

type Kind string

const (
	KindDoor   Kind = "door"
	KindDash   Kind = "dash"
	KindRecord Kind = "record"
	KindOpened Kind = "opened"
)

// PressedKinds are the kinds a door stream listens to.
var PressedKinds = []Kind{KindDoor, KindDash, KindRecord}

func ParseKind(value string) (Kind, error) {
	switch k := Kind(value); k {
	case KindDoor, KindDash, KindRecord, KindOpened:
		return k, nil
	}

	return "", fmt.Errorf("unknown event kind %q", value)
}

// Pressed reports whether k is the result of a press action.
func (k Kind) Pressed() bool {
	return k == KindDoor || k == KindDash || k == KindRecord
}

func (k Kind) Topic() Topic {
	if k == KindOpened {
		return TopicDoorOpened
	}

	return Topic(string(k) + "-pressed")
}

// DoorEvent is the unit of publication. It is passed by value, so a listener
// never sees changes made by another.
type DoorEvent struct {
	ID          int64   `json:"id"`
	IDFrom      *int64  `json:"idFrom,omitempty"`
	TriggeredAt string  `json:"triggeredAt"`
	Name        string  `json:"name"`
	NameFrom    *string `json:"nameFrom,omitempty"`
	Type        Kind    `json:"type"`
}

func NewDoorEvent(kind Kind, target door.Door, at time.Time) DoorEvent {
	return DoorEvent{
		ID:          target.ID,
		TriggeredAt: at.UTC().Format(TimeLayout),
		Name:        target.Name,
		Type:        kind,
	}
}
