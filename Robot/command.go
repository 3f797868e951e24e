package Robot

import (
	"fmt"
	"strings"
	"time"
)

type CommandKind string

const (
	Pause  CommandKind = "pause"
	Resume CommandKind = "resume"
	Stop   CommandKind = "stop"
)

type CommandSource string

const (
	Manual CommandSource = "manual"
	Voice  CommandSource = "voice"
)

// Command is the latest instruction for a robot, kept at robotCommands/{id}.
type Command struct {
	Kind     CommandKind   `json:"kind"`
	Source   CommandSource `json:"source"`
	IssuedBy string        `json:"issuedBy"`
	IssuedAt time.Time     `json:"issuedAt"`
}

func ParseKind(value string) (CommandKind, error) {
	switch kind := CommandKind(strings.ToLower(strings.TrimSpace(value))); kind {
	case Pause, Resume, Stop:
		return kind, nil
	default:
		return "", fmt.Errorf("unknown robot command %q", value)
	}
}

// Acknowledgement is the confirmation line shown after a command is sent.
func (k CommandKind) Acknowledgement() string {
	switch k {
	case Pause:
		return "Robot paused"
	case Resume:
		return "Robot resumed"
	case Stop:
		return "Robot stopped"
	}
	return ""
}
