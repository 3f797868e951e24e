package Models

import "strings"

// Identity is the handle issued by the directory for a signed in account.
type Identity struct {
	UID          string `json:"uid"`
	Email        string `json:"email"`
	DisplayName  string `json:"display_name"`
	IDToken      string `json:"-"`
	RefreshToken string `json:"-"`
}

// UserProfile belongs to exactly one identity and is mirrored at
// userProfiles/{uid}.
type UserProfile struct {
	Name    string `json:"name"`
	Contact string `json:"contact"`
	Email   string `json:"email" validate:"omitempty,email"`
	Gender  string `json:"gender"`
	FaceURI string `json:"faceUri,omitempty"`
}

func (p UserProfile) IsZero() bool {
	return p == UserProfile{}
}

// Complete reports whether the fields a face capture attaches are present.
func (p UserProfile) Complete() bool {
	return strings.TrimSpace(p.Name) != "" &&
		strings.TrimSpace(p.Contact) != "" &&
		strings.TrimSpace(p.Email) != ""
}

// UserRecord is a roster entry at users/{id}. The local copy is a read-only
// mirror used for administrative listing and username resolution.
type UserRecord struct {
	ID       string `json:"id"`
	Name     string `json:"name" validate:"required"`
	Username string `json:"username"`
	Contact  string `json:"contact"`
	Email    string `json:"email" validate:"required,email"`
	Gender   string `json:"gender"`
	FaceURI  string `json:"faceUri,omitempty"`
	IsAdmin  bool   `json:"isAdmin"`
}

// SignUpRequest carries everything the registration form collects.
type SignUpRequest struct {
	Email            string `json:"email" validate:"required,email"`
	Password         string `json:"password" validate:"required,min=6"`
	ConfirmPassword  string `json:"confirm_password" validate:"required"`
	Name             string `json:"name" validate:"required"`
	Username         string `json:"username" validate:"required,alphanum"`
	Contact          string `json:"contact" validate:"required"`
	Gender           string `json:"gender"`
	AcceptedTerms    bool   `json:"accepted_terms"`
	IsAdminRequested bool   `json:"is_admin"`
}

// Record builds the roster entry written for a new account.
func (r SignUpRequest) Record(uid string) UserRecord {
	return UserRecord{
		ID:       uid,
		Name:     r.Name,
		Username: r.Username,
		Contact:  r.Contact,
		Email:    r.Email,
		Gender:   r.Gender,
		IsAdmin:  r.IsAdminRequested,
	}
}

// Profile builds the profile document written for a new account.
func (r SignUpRequest) Profile() UserProfile {
	return UserProfile{
		Name:    r.Name,
		Contact: r.Contact,
		Email:   r.Email,
		Gender:  r.Gender,
	}
}
