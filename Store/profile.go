package Store

import (
	"context"

	"Lulan/Directory"
	"Lulan/Models"
)

func (s *Store) Profile() Models.UserProfile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profile
}

// UpdateUserProfile writes the profile through to userProfiles/{uid}. The
// cache only changes after the remote write succeeded.
func (s *Store) UpdateUserProfile(ctx context.Context, profile Models.UserProfile) error {
	s.mu.RLock()
	identity := s.identity
	gen := s.generation
	s.mu.RUnlock()
	if identity == nil {
		return Models.ErrUnauthenticated
	}
	if err := Models.Validate(profile); err != nil {
		return err
	}

	path := Directory.ProfilePath(identity.UID)
	if err := s.dir.Set(ctx, path, profile); err != nil {
		return Models.RemoteWriteFailure(path, err)
	}

	s.mu.Lock()
	if s.generation == gen {
		s.profile = profile
	}
	s.mu.Unlock()
	return nil
}
