package Store

import "Lulan/Models"

func (s *Store) Flags() Models.CapabilityFlags {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.flags
}

// SetFaceAuthenticated clearing face authentication also clears voice.
func (s *Store) SetFaceAuthenticated(authenticated bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flags.IsFaceAuthenticated = authenticated
	if !authenticated {
		s.flags.IsVoiceEnabled = false
	}
}

// SetVoiceEnabled rejects enabling voice before face authentication and
// leaves voice disabled in that case.
func (s *Store) SetVoiceEnabled(enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if enabled && !s.flags.IsFaceAuthenticated {
		s.flags.IsVoiceEnabled = false
		return Models.ErrVoiceRequiresFace
	}
	s.flags.IsVoiceEnabled = enabled
	return nil
}

func (s *Store) SetDarkMode(dark bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flags.IsDarkMode = dark
}

func (s *Store) SetNotificationsEnabled(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flags.NotificationsEnabled = enabled
}
