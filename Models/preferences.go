package Models

import (
	"errors"

	"gorm.io/gorm"
)

// LoggedInKey is the flag written on sign-in and removed on sign-out.
const LoggedInKey = "userLoggedIn"

type Preference struct {
	gorm.Model
	Name  string `json:"name" gorm:"uniqueIndex;size:64"`
	Value string `json:"value"`
}

// Preferences persists the cold start login flag. It is never authoritative;
// the live session identity always wins.
type Preferences struct {
	DB *gorm.DB
}

func NewPreferences(db *gorm.DB) *Preferences {
	return &Preferences{DB: db}
}

func (p *Preferences) SetLoggedIn(loggedIn bool) error {
	if !loggedIn {
		return p.DB.Unscoped().Where("name = ?", LoggedInKey).Delete(&Preference{}).Error
	}

	var pref Preference
	err := p.DB.Where("name = ?", LoggedInKey).FirstOrCreate(&pref, Preference{
		Name:  LoggedInKey,
		Value: "true",
	}).Error
	if err != nil {
		return err
	}

	if pref.Value != "true" {
		pref.Value = "true"
		return p.DB.Save(&pref).Error
	}
	return nil
}

func (p *Preferences) LoggedIn() (bool, error) {
	var pref Preference
	err := p.DB.Where("name = ?", LoggedInKey).First(&pref).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return pref.Value == "true", nil
}
