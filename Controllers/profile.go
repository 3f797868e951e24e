package Controllers

import (
	"github.com/gofiber/fiber/v2"

	"Lulan/Gate"
	"Lulan/Models"
	"Lulan/Store"
)

// ProfileController handles the signed in user's profile and settings
type ProfileController struct {
	Store *Store.Store
}

func NewProfileController(store *Store.Store) *ProfileController {
	return &ProfileController{Store: store}
}

type toggleInput struct {
	Enabled bool `json:"enabled"`
}

func (p *ProfileController) GetProfile(c *fiber.Ctx) error {
	return c.JSON(p.Store.Profile())
}

func (p *ProfileController) UpdateProfile(c *fiber.Ctx) error {
	var input Models.UserProfile
	if err := c.BodyParser(&input); err != nil {
		return badBody(c, err)
	}
	if err := p.Store.UpdateUserProfile(c.UserContext(), input); err != nil {
		return Fail(c, err)
	}
	return c.JSON(p.Store.Profile())
}

func (p *ProfileController) flagsResponse(c *fiber.Ctx) error {
	flags := p.Store.Flags()
	return c.JSON(fiber.Map{
		"flags":         flags,
		"can_use_voice": Gate.CanUseVoice(flags),
		"permitted":     Gate.Permitted(flags),
	})
}

func (p *ProfileController) GetFlags(c *fiber.Ctx) error {
	return p.flagsResponse(c)
}

// SetFlag handles PUT /flags/:flag with {"enabled": bool}
func (p *ProfileController) SetFlag(c *fiber.Ctx) error {
	var input toggleInput
	if err := c.BodyParser(&input); err != nil {
		return badBody(c, err)
	}

	switch c.Params("flag") {
	case "face":
		// Granting happens through a capture on POST /face.
		if input.Enabled {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Capture your face to enable face recognition."})
		}
		p.Store.SetFaceAuthenticated(false)
	case "voice":
		if err := p.Store.SetVoiceEnabled(input.Enabled); err != nil {
			return Fail(c, err)
		}
	case "dark-mode":
		p.Store.SetDarkMode(input.Enabled)
	case "notifications":
		p.Store.SetNotificationsEnabled(input.Enabled)
	default:
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Unknown setting"})
	}
	return p.flagsResponse(c)
}
