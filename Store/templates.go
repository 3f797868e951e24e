package Store

import (
	"fmt"

	"github.com/google/uuid"

	"Lulan/Models"
)

func (s *Store) Templates() []Models.BiometricTemplate {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Models.BiometricTemplate(nil), s.templates...)
}

// AddBiometricTemplate appends a template, assigning an id and capture time
// when missing.
func (s *Store) AddBiometricTemplate(template Models.BiometricTemplate) Models.BiometricTemplate {
	s.mu.Lock()
	defer s.mu.Unlock()
	if template.ID == "" {
		template.ID = uuid.NewString()
	}
	if template.CapturedAt.IsZero() {
		template.CapturedAt = s.now()
	}
	s.templates = append(s.templates, template)
	return template
}

// UpdateBiometricTemplate replaces the template at index, keeping its id.
func (s *Store) UpdateBiometricTemplate(index int, template Models.BiometricTemplate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.templates) {
		return Models.OutOfRange(index, len(s.templates))
	}
	template.ID = s.templates[index].ID
	if template.CapturedAt.IsZero() {
		template.CapturedAt = s.now()
	}
	s.templates[index] = template
	return nil
}

func (s *Store) DeleteBiometricTemplate(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.templates) {
		return Models.OutOfRange(index, len(s.templates))
	}
	s.templates = append(s.templates[:index:index], s.templates[index+1:]...)
	return nil
}

func (s *Store) UpdateBiometricTemplateByID(id string, template Models.BiometricTemplate) error {
	index, err := s.templateIndex(id)
	if err != nil {
		return err
	}
	return s.UpdateBiometricTemplate(index, template)
}

func (s *Store) DeleteBiometricTemplateByID(id string) error {
	index, err := s.templateIndex(id)
	if err != nil {
		return err
	}
	return s.DeleteBiometricTemplate(index)
}

func (s *Store) ClearBiometricTemplates() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.templates = nil
}

func (s *Store) templateIndex(id string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i, template := range s.templates {
		if template.ID == id {
			return i, nil
		}
	}
	return -1, fmt.Errorf("template %s: %w", id, Models.ErrNotFound)
}
