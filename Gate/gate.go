// Package Gate derives the permitted actions from the capability flags.
// Nothing here is cached; callers pass the current flags every time.
package Gate

import "Lulan/Models"

type Action string

const (
	// VoiceCommand is speaking a robot command through the microphone.
	VoiceCommand Action = "voice-command"
	// ManualRobotCommand is the pause/resume/stop buttons on the dashboard.
	ManualRobotCommand Action = "manual-robot-command"
)

// CanUseVoice holds only when face authentication happened in this session
// and voice was enabled after it.
func CanUseVoice(flags Models.CapabilityFlags) bool {
	return flags.IsFaceAuthenticated && flags.IsVoiceEnabled
}

func Allowed(action Action, flags Models.CapabilityFlags) bool {
	switch action {
	case VoiceCommand:
		return CanUseVoice(flags)
	case ManualRobotCommand:
		return true
	default:
		return false
	}
}

// Permitted lists the allowed actions in a stable order.
func Permitted(flags Models.CapabilityFlags) []Action {
	var actions []Action
	for _, action := range []Action{ManualRobotCommand, VoiceCommand} {
		if Allowed(action, flags) {
			actions = append(actions, action)
		}
	}
	return actions
}
