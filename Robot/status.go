// Package Robot mirrors the delivery robot's live status and carries the
// commands sent to it.
package Robot

import "time"

const DefaultID = "MED-001"

type Status struct {
	ID          string    `json:"id"`
	Online      bool      `json:"online"`
	X           float64   `json:"x"`
	Y           float64   `json:"y"`
	CurrentTask string    `json:"currentTask"`
	Battery     int       `json:"battery"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Placeholder is shown until the robot reports for the first time.
func Placeholder(id string) Status {
	return Status{
		ID:          id,
		Online:      true,
		X:           43.3,
		Y:           18,
		CurrentTask: "Going to Patient Room",
		Battery:     24,
	}
}

type Band struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

func BatteryBand(percent int) Band {
	switch {
	case percent > 75:
		return Band{Name: "green", Color: "#7bb662"}
	case percent > 50:
		return Band{Name: "yellow", Color: "#f0dd0f"}
	case percent > 25:
		return Band{Name: "orange", Color: "#fb8c00"}
	default:
		return Band{Name: "red", Color: "#e53935"}
	}
}

// StatusColor is the indicator dot color.
func StatusColor(online bool) string {
	if online {
		return "#4caf50"
	}
	return "#f44336"
}
