package Models

import "time"

type TemplateKind string

const (
	TemplateFace  TemplateKind = "face"
	TemplateVoice TemplateKind = "voice"
)

// TemplateDetails is the profile snapshot attached at capture time.
type TemplateDetails struct {
	Name    string `json:"name"`
	Contact string `json:"contact"`
	Email   string `json:"email"`
}

// BiometricTemplate is an opaque capture handle plus its detail block.
type BiometricTemplate struct {
	ID         string          `json:"id"`
	Kind       TemplateKind    `json:"kind"`
	URI        string          `json:"uri"`
	Digest     string          `json:"digest,omitempty"`
	Preview    []byte          `json:"preview,omitempty"`
	Details    TemplateDetails `json:"details"`
	CapturedAt time.Time       `json:"captured_at"`
}

// CapabilityFlags gate voice commands. IsDarkMode and NotificationsEnabled
// are presentation settings kept alongside.
type CapabilityFlags struct {
	IsFaceAuthenticated  bool `json:"isFaceAuthenticated"`
	IsVoiceEnabled       bool `json:"isVoiceEnabled"`
	IsDarkMode           bool `json:"isDarkMode"`
	NotificationsEnabled bool `json:"notificationsEnabled"`
}

func DefaultFlags() CapabilityFlags {
	return CapabilityFlags{NotificationsEnabled: true}
}
