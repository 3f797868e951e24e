package Session

import (
	"context"
	"errors"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"Lulan/Directory"
	"Lulan/Models"
)

var ErrGoogleDisabled = errors.New("google sign-in is not configured")

// GoogleConfig builds the OAuth2 client used for the consent flow.
func GoogleConfig(clientID, clientSecret, redirectURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Scopes:       []string{"openid", "email", "profile"},
		Endpoint:     google.Endpoint,
	}
}

func (m *Manager) GoogleAuthURL(state string) (string, error) {
	if m.google == nil {
		return "", ErrGoogleDisabled
	}
	return m.google.AuthCodeURL(state, oauth2.AccessTypeOnline), nil
}

// SignInWithGoogle exchanges an authorization code for an id token and signs
// in with it.
func (m *Manager) SignInWithGoogle(ctx context.Context, code string) (Models.Identity, error) {
	if m.google == nil {
		return Models.Identity{}, ErrGoogleDisabled
	}
	token, err := m.google.Exchange(ctx, code)
	if err != nil {
		return Models.Identity{}, Models.AuthFailure(err)
	}
	idToken, _ := token.Extra("id_token").(string)
	if idToken == "" {
		return Models.Identity{}, Models.AuthFailure(errors.New("token response has no id_token"))
	}
	return m.SignInWithGoogleToken(ctx, idToken)
}

// SignInWithGoogleToken signs in with a Google id token. The first sign-in
// of an account creates its roster entry and an empty profile.
func (m *Manager) SignInWithGoogleToken(ctx context.Context, idToken string) (Models.Identity, error) {
	previous, err := m.begin()
	if err != nil {
		return Models.Identity{}, err
	}

	identity, err := m.dir.SignInWithIDP(ctx, Directory.GoogleProvider, idToken)
	if err != nil {
		m.abort(previous)
		return Models.Identity{}, Models.AuthFailure(err)
	}

	_, err = m.dir.Get(ctx, Directory.UserPath(identity.UID))
	switch {
	case isNotFound(err):
		record := Models.UserRecord{ID: identity.UID, Name: identity.DisplayName, Email: identity.Email}
		if err := m.writeAccountDocs(ctx, identity, record, Models.UserProfile{}); err != nil {
			m.abort(previous)
			return Models.Identity{}, err
		}
	case err != nil:
		m.abort(previous)
		return Models.Identity{}, Models.AuthFailure(err)
	}
	return m.complete(ctx, identity)
}
