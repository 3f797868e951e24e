package Biometrics

import (
	"context"
	"errors"

	"Lulan/Models"
	"Lulan/Store"
)

var (
	ErrIncompleteProfile = errors.New("complete your user profile in Settings before capturing a face")
	ErrTemplateExists    = errors.New("a face is already saved; replace or delete it first")
)

// Capture is a single camera frame.
type Capture struct {
	URI   string
	Image []byte
}

type Enroller struct {
	Store *Store.Store
}

func NewEnroller(store *Store.Store) *Enroller {
	return &Enroller{Store: store}
}

// CaptureFace saves the capture as the user's face template, records its URI
// in the profile and grants face authentication and voice. With an existing
// template it fails with ErrTemplateExists unless replace is set.
func (e *Enroller) CaptureFace(ctx context.Context, capture Capture, replace bool) (Models.BiometricTemplate, error) {
	identity, ok := e.Store.Identity()
	if !ok {
		return Models.BiometricTemplate{}, Models.ErrUnauthenticated
	}
	profile := e.Store.Profile()
	email := profile.Email
	if email == "" {
		email = identity.Email
	}
	if profile.Name == "" || profile.Contact == "" || email == "" {
		return Models.BiometricTemplate{}, ErrIncompleteProfile
	}
	if len(e.faces()) > 0 && !replace {
		return Models.BiometricTemplate{}, ErrTemplateExists
	}

	template := Models.BiometricTemplate{
		Kind:    Models.TemplateFace,
		URI:     capture.URI,
		Details: Models.TemplateDetails{Name: profile.Name, Contact: profile.Contact, Email: email},
	}
	if len(capture.Image) > 0 {
		template.Digest = Digest(capture.Image)
		preview, err := Thumbnail(capture.Image)
		if err != nil {
			return Models.BiometricTemplate{}, Models.Invalid("image", err.Error())
		}
		template.Preview = preview
	}

	profile.FaceURI = capture.URI
	if err := e.Store.UpdateUserProfile(ctx, profile); err != nil {
		return Models.BiometricTemplate{}, err
	}

	if replace {
		e.Store.ClearBiometricTemplates()
	}
	saved := e.Store.AddBiometricTemplate(template)
	e.Store.SetFaceAuthenticated(true)
	if err := e.Store.SetVoiceEnabled(true); err != nil {
		return Models.BiometricTemplate{}, err
	}
	return saved, nil
}

// DeleteFace drops the saved face, clears the profile face URI and revokes
// face authentication, which also disables voice.
func (e *Enroller) DeleteFace(ctx context.Context) error {
	profile := e.Store.Profile()
	if profile.FaceURI != "" {
		profile.FaceURI = ""
		if err := e.Store.UpdateUserProfile(ctx, profile); err != nil {
			return err
		}
	}
	e.Store.ClearBiometricTemplates()
	e.Store.SetFaceAuthenticated(false)
	return nil
}

func (e *Enroller) faces() []Models.BiometricTemplate {
	var faces []Models.BiometricTemplate
	for _, template := range e.Store.Templates() {
		if template.Kind == Models.TemplateFace {
			faces = append(faces, template)
		}
	}
	return faces
}
