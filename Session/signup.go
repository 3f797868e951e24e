package Session

import (
	"context"
	"errors"
	"log"
	"strings"

	"Lulan/Directory"
	"Lulan/Models"
)

// SignUp validates the form, checks uniqueness against the roster mirror,
// creates the account and writes its roster entry and profile. A failed
// document write deletes the new account again.
func (m *Manager) SignUp(ctx context.Context, req Models.SignUpRequest) (Models.Identity, error) {
	req.Email = strings.TrimSpace(req.Email)
	req.Username = strings.TrimSpace(req.Username)
	req.Contact = strings.TrimSpace(req.Contact)

	if err := Models.Validate(req); err != nil {
		return Models.Identity{}, err
	}
	if req.Password != req.ConfirmPassword {
		return Models.Identity{}, Models.Invalid("confirm_password", "Passwords do not match")
	}
	if !req.AcceptedTerms {
		return Models.Identity{}, Models.Invalid("accepted_terms", "Please accept the terms and conditions")
	}
	if err := m.checkUnique(req); err != nil {
		return Models.Identity{}, err
	}

	previous, err := m.begin()
	if err != nil {
		return Models.Identity{}, err
	}

	identity, err := m.dir.SignUp(ctx, req.Email, req.Password, req.Name)
	if errors.Is(err, Directory.ErrEmailExists) {
		m.abort(previous)
		return Models.Identity{}, &Models.DuplicateFieldError{Field: "email"}
	}
	if err != nil {
		m.abort(previous)
		return Models.Identity{}, Models.AuthFailure(err)
	}

	if err := m.writeAccountDocs(ctx, identity, req.Record(identity.UID), req.Profile()); err != nil {
		m.rollback(ctx, identity)
		m.abort(previous)
		return Models.Identity{}, err
	}
	return m.complete(ctx, identity)
}

// checkUnique rejects the first of email, username and contact already in
// the roster.
func (m *Manager) checkUnique(req Models.SignUpRequest) error {
	roster := m.roster.Roster()
	for _, record := range roster {
		if strings.EqualFold(record.Email, req.Email) {
			return &Models.DuplicateFieldError{Field: "email"}
		}
	}
	for _, record := range roster {
		if record.Username != "" && record.Username == req.Username {
			return &Models.DuplicateFieldError{Field: "username"}
		}
	}
	for _, record := range roster {
		if record.Contact != "" && record.Contact == req.Contact {
			return &Models.DuplicateFieldError{Field: "contact"}
		}
	}
	return nil
}

func (m *Manager) writeAccountDocs(ctx context.Context, identity Models.Identity, record Models.UserRecord, profile Models.UserProfile) error {
	userPath := Directory.UserPath(identity.UID)
	if err := m.dir.Set(ctx, userPath, record); err != nil {
		return Models.RemoteWriteFailure(userPath, err)
	}
	profilePath := Directory.ProfilePath(identity.UID)
	if err := m.dir.Set(ctx, profilePath, profile); err != nil {
		if cleanupErr := m.dir.Delete(ctx, userPath); cleanupErr != nil {
			log.Printf("Error removing %s during rollback: %v", userPath, cleanupErr)
		}
		return Models.RemoteWriteFailure(profilePath, err)
	}
	return nil
}

func (m *Manager) rollback(ctx context.Context, identity Models.Identity) {
	if err := m.dir.DeleteAccount(ctx, identity); err != nil {
		log.Printf("Error rolling back account %s: %v", identity.UID, err)
	}
}
