package Controllers

import (
	"io"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"Lulan/Biometrics"
	"Lulan/Models"
	"Lulan/Robot"
	"Lulan/Store"
)

const maxCaptureBytes = 8 << 20

// BiometricController handles saved templates, face enrollment and voice
// commands
type BiometricController struct {
	Store    *Store.Store
	Enroller *Biometrics.Enroller
	Voice    *Biometrics.VoiceSession
	Robot    *Robot.Monitor
}

func NewBiometricController(store *Store.Store, enroller *Biometrics.Enroller, voice *Biometrics.VoiceSession, robot *Robot.Monitor) *BiometricController {
	return &BiometricController{Store: store, Enroller: enroller, Voice: voice, Robot: robot}
}

func (b *BiometricController) GetTemplates(c *fiber.Ctx) error {
	return c.JSON(b.Store.Templates())
}

func (b *BiometricController) AddTemplate(c *fiber.Ctx) error {
	var input Models.BiometricTemplate
	if err := c.BodyParser(&input); err != nil {
		return badBody(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(b.Store.AddBiometricTemplate(input))
}

func (b *BiometricController) UpdateTemplate(c *fiber.Ctx) error {
	index, err := strconv.Atoi(c.Params("index"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid template index"})
	}
	var input Models.BiometricTemplate
	if err := c.BodyParser(&input); err != nil {
		return badBody(c, err)
	}
	if err := b.Store.UpdateBiometricTemplate(index, input); err != nil {
		return Fail(c, err)
	}
	return c.JSON(b.Store.Templates())
}

func (b *BiometricController) DeleteTemplate(c *fiber.Ctx) error {
	index, err := strconv.Atoi(c.Params("index"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid template index"})
	}
	if err := b.Store.DeleteBiometricTemplate(index); err != nil {
		return Fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (b *BiometricController) UpdateTemplateByID(c *fiber.Ctx) error {
	var input Models.BiometricTemplate
	if err := c.BodyParser(&input); err != nil {
		return badBody(c, err)
	}
	if err := b.Store.UpdateBiometricTemplateByID(c.Params("id"), input); err != nil {
		return Fail(c, err)
	}
	return c.JSON(b.Store.Templates())
}

func (b *BiometricController) DeleteTemplateByID(c *fiber.Ctx) error {
	if err := b.Store.DeleteBiometricTemplateByID(c.Params("id")); err != nil {
		return Fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func readUpload(c *fiber.Ctx, field string) ([]byte, error) {
	header, err := c.FormFile(field)
	if err != nil {
		return nil, nil
	}
	file, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return io.ReadAll(io.LimitReader(file, maxCaptureBytes))
}

// CaptureFace handles a multipart upload with "image", "uri" and "replace"
func (b *BiometricController) CaptureFace(c *fiber.Ctx) error {
	image, err := readUpload(c, "image")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Failed to capture face."})
	}
	uri := c.FormValue("uri")
	if uri == "" {
		if header, err := c.FormFile("image"); err == nil {
			uri = "upload://" + header.Filename
		}
	}
	if uri == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Failed to capture face."})
	}
	replace, _ := strconv.ParseBool(c.FormValue("replace"))

	template, err := b.Enroller.CaptureFace(c.UserContext(), Biometrics.Capture{URI: uri, Image: image}, replace)
	if err != nil {
		return Fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":  "Face captured and authenticated. Voice commands are now enabled.",
		"template": template,
	})
}

func (b *BiometricController) DeleteFace(c *fiber.Ctx) error {
	if err := b.Enroller.DeleteFace(c.UserContext()); err != nil {
		return Fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Your saved face has been deleted."})
}

type voiceInput struct {
	// Sample is the face frame checked before listening, base64 in JSON.
	Sample          []byte  `json:"sample"`
	Transcript      string  `json:"transcript"`
	DurationSeconds float64 `json:"duration_seconds"`
}

// VoiceCommand re-verifies the face, turns the recording into a transcript
// and forwards any robot command it contains
func (b *BiometricController) VoiceCommand(c *fiber.Ctx) error {
	var input voiceInput
	if err := c.BodyParser(&input); err != nil {
		return badBody(c, err)
	}
	if err := b.Voice.Begin(input.Sample); err != nil {
		return Fail(c, err)
	}

	transcript := input.Transcript
	if transcript == "" {
		transcript = Biometrics.SimulatedTranscript(time.Duration(input.DurationSeconds * float64(time.Second)))
	}
	body := fiber.Map{"transcript": transcript}

	kind, ok := Biometrics.ParseCommand(transcript)
	if !ok {
		return c.JSON(body)
	}
	identity, _ := b.Store.Identity()
	cmd, err := b.Robot.SendCommand(c.UserContext(), Robot.Command{Kind: kind, Source: Robot.Voice, IssuedBy: identity.UID}, b.Store.Flags())
	if err != nil {
		return Fail(c, err)
	}
	body["command"] = cmd
	body["message"] = kind.Acknowledgement()
	return c.JSON(body)
}
