package Models

import "strings"

type Priority string

const (
	PriorityNormal Priority = "NORMAL"
	PriorityUrgent Priority = "URGENT"
)

// TimestampLayout matches the locale string shown on the delivery queue cards.
const TimestampLayout = "1/2/2006, 3:04:05 PM"

// TaskIDPrefix is prepended to the millisecond sequence of every task id.
const TaskIDPrefix = "MED-"

// Task is a delivery request in the robot queue. Tasks are never updated
// after creation.
type Task struct {
	ID          string   `json:"id"`
	Priority    Priority `json:"priority"`
	Source      string   `json:"source"`
	Destination string   `json:"destination"`
	Items       []string `json:"items"`
	Requester   string   `json:"requester"`
	Timestamp   string   `json:"timestamp"`
	// Sequence is the millisecond value the id was derived from.
	Sequence int64 `json:"sequence"`
}

// NewTask holds the fields supplied on submission.
type NewTask struct {
	Priority    Priority `json:"priority" validate:"required,oneof=NORMAL URGENT"`
	Source      string   `json:"source" validate:"required"`
	Destination string   `json:"destination" validate:"required"`
	Items       []string `json:"items" validate:"required,min=1,dive,required"`
	Requester   string   `json:"requester" validate:"required"`
}

// Normalize trims the free text fields and defaults the priority to NORMAL.
func (n NewTask) Normalize() NewTask {
	out := NewTask{
		Priority:    Priority(strings.ToUpper(strings.TrimSpace(string(n.Priority)))),
		Source:      strings.TrimSpace(n.Source),
		Destination: strings.TrimSpace(n.Destination),
		Requester:   strings.TrimSpace(n.Requester),
	}
	if out.Priority == "" {
		out.Priority = PriorityNormal
	}
	for _, item := range n.Items {
		out.Items = append(out.Items, strings.TrimSpace(item))
	}
	return out
}

func (t Task) IsUrgent() bool {
	return t.Priority == PriorityUrgent
}

// DemoTasks is the queue the ward tablets ship with.
func DemoTasks() []Task {
	return []Task{
		{
			ID:          "MED-20015",
			Priority:    PriorityNormal,
			Source:      "Storage Room",
			Destination: "Room A1",
			Items:       []string{"Gloves"},
			Requester:   "Jessie",
			Timestamp:   "10/11/2025, 8:00:28 PM",
			Sequence:    20015,
		},
		{
			ID:          "MED-20016",
			Priority:    PriorityUrgent,
			Source:      "Pharmacy",
			Destination: "ICU",
			Items:       []string{"Morphine 10mg", "IV Fluids"},
			Requester:   "Alice",
			Timestamp:   "10/11/2025, 8:15:45 PM",
			Sequence:    20016,
		},
	}
}
