package Store

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"Lulan/Directory"
	"Lulan/Models"
)

func (s *Store) Roster() []Models.UserRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Models.UserRecord(nil), s.roster...)
}

// FindUsername resolves a roster username to its entry.
func (s *Store) FindUsername(username string) (Models.UserRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, record := range s.roster {
		if record.Username != "" && record.Username == username {
			return record, true
		}
	}
	return Models.UserRecord{}, false
}

// IsAdmin reports whether the attached identity has an administrator roster entry.
func (s *Store) IsAdmin() bool {
	return s.requireAdmin() == nil
}

func (s *Store) requireAdmin() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.identity == nil {
		return Models.ErrUnauthenticated
	}
	for _, record := range s.roster {
		if record.ID == s.identity.UID {
			if record.IsAdmin {
				return nil
			}
			break
		}
	}
	return Models.ErrForbidden
}

func (s *Store) AddUserRecord(ctx context.Context, record Models.UserRecord) (Models.UserRecord, error) {
	if err := s.requireAdmin(); err != nil {
		return Models.UserRecord{}, err
	}
	if err := Models.Validate(record); err != nil {
		return Models.UserRecord{}, err
	}
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if err := s.writeRecord(ctx, record); err != nil {
		return Models.UserRecord{}, err
	}
	return record, nil
}

// UpdateUserRecord replaces the roster entry at index. The bounds check runs
// before any remote call and the entry keeps its id.
func (s *Store) UpdateUserRecord(ctx context.Context, index int, record Models.UserRecord) error {
	if err := s.requireAdmin(); err != nil {
		return err
	}
	current, err := s.recordAt(index)
	if err != nil {
		return err
	}
	record.ID = current.ID
	if err := Models.Validate(record); err != nil {
		return err
	}
	return s.writeRecord(ctx, record)
}

func (s *Store) DeleteUserRecord(ctx context.Context, index int) error {
	if err := s.requireAdmin(); err != nil {
		return err
	}
	current, err := s.recordAt(index)
	if err != nil {
		return err
	}
	return s.deleteRecord(ctx, current.ID)
}

func (s *Store) UpdateUserRecordByID(ctx context.Context, id string, record Models.UserRecord) error {
	if err := s.requireAdmin(); err != nil {
		return err
	}
	if _, err := s.recordByID(id); err != nil {
		return err
	}
	record.ID = id
	if err := Models.Validate(record); err != nil {
		return err
	}
	return s.writeRecord(ctx, record)
}

func (s *Store) DeleteUserRecordByID(ctx context.Context, id string) error {
	if err := s.requireAdmin(); err != nil {
		return err
	}
	if _, err := s.recordByID(id); err != nil {
		return err
	}
	return s.deleteRecord(ctx, id)
}

func (s *Store) recordAt(index int) (Models.UserRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if index < 0 || index >= len(s.roster) {
		return Models.UserRecord{}, Models.OutOfRange(index, len(s.roster))
	}
	return s.roster[index], nil
}

func (s *Store) recordByID(id string) (Models.UserRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.rosterIndexLocked(id); i >= 0 {
		return s.roster[i], nil
	}
	return Models.UserRecord{}, fmt.Errorf("user %s: %w", id, Models.ErrNotFound)
}

func (s *Store) rosterIndexLocked(id string) int {
	for i, record := range s.roster {
		if record.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) writeRecord(ctx context.Context, record Models.UserRecord) error {
	path := Directory.UserPath(record.ID)
	if err := s.dir.Set(ctx, path, record); err != nil {
		return Models.RemoteWriteFailure(path, err)
	}
	s.mu.Lock()
	if i := s.rosterIndexLocked(record.ID); i >= 0 {
		s.roster[i] = record
	} else {
		s.roster = append(s.roster, record)
	}
	s.mu.Unlock()
	return nil
}

func (s *Store) deleteRecord(ctx context.Context, id string) error {
	path := Directory.UserPath(id)
	if err := s.dir.Delete(ctx, path); err != nil {
		return Models.RemoteWriteFailure(path, err)
	}
	s.mu.Lock()
	if i := s.rosterIndexLocked(id); i >= 0 {
		s.roster = append(s.roster[:i:i], s.roster[i+1:]...)
	}
	s.mu.Unlock()
	return nil
}
