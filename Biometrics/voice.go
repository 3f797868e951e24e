package Biometrics

import (
	"errors"
	"strings"
	"time"

	"Lulan/Gate"
	"Lulan/Models"
	"Lulan/Robot"
	"Lulan/Store"
)

var (
	ErrNoSavedFace  = errors.New("no saved face data found")
	ErrFaceMismatch = errors.New("face verification failed")
)

// VoiceSession re-verifies the face before every recording.
type VoiceSession struct {
	Store    *Store.Store
	Verifier Verifier
}

func NewVoiceSession(store *Store.Store, verifier Verifier) *VoiceSession {
	return &VoiceSession{Store: store, Verifier: verifier}
}

// Begin checks the gate and matches sample against the saved faces.
func (v *VoiceSession) Begin(sample []byte) error {
	if !Gate.CanUseVoice(v.Store.Flags()) {
		return Models.ErrVoiceRequiresFace
	}
	matched := false
	found := false
	for _, template := range v.Store.Templates() {
		if template.Kind != Models.TemplateFace {
			continue
		}
		found = true
		if v.Verifier.Verify(template, sample) {
			matched = true
			break
		}
	}
	switch {
	case !found:
		return ErrNoSavedFace
	case !matched:
		return ErrFaceMismatch
	}
	return nil
}

// SimulatedTranscript stands in for speech recognition, banded by recording
// length.
func SimulatedTranscript(duration time.Duration) string {
	seconds := duration.Round(time.Second) / time.Second
	switch {
	case seconds < 3:
		return "Hello"
	case seconds < 6:
		return "Hello, this is a test recording"
	case seconds < 10:
		return "Hello, this is a longer test recording to demonstrate speech to text functionality"
	default:
		return "Hello, this is a very long test recording that demonstrates the speech to text functionality working properly with extended audio input"
	}
}

// ParseCommand finds the first robot command word in a transcript.
func ParseCommand(transcript string) (Robot.CommandKind, bool) {
	words := strings.FieldsFunc(strings.ToLower(transcript), func(r rune) bool {
		return !(r >= 'a' && r <= 'z')
	})
	for _, word := range words {
		switch word {
		case "pause", "wait", "hold":
			return Robot.Pause, true
		case "resume", "continue", "go":
			return Robot.Resume, true
		case "stop", "halt":
			return Robot.Stop, true
		}
	}
	return "", false
}
