package Controllers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"Lulan/Models"
	"Lulan/Session"
	"Lulan/middleware"
)

const oauthStateCookie = "oauth_state"

// AuthController handles sign-in, sign-up and sign-out
type AuthController struct {
	Session *Session.Manager
	Secret  string
}

func NewAuthController(session *Session.Manager, secret string) *AuthController {
	return &AuthController{Session: session, Secret: secret}
}

type signInInput struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

func (a *AuthController) respondSignedIn(c *fiber.Ctx, status int, identity Models.Identity) error {
	if err := middleware.SetSessionCookie(c, a.Secret, identity); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to issue session"})
	}
	return c.Status(status).JSON(fiber.Map{
		"identity": identity,
		"graph":    a.Session.Graph(),
	})
}

// SignIn accepts an email or username with a password
func (a *AuthController) SignIn(c *fiber.Ctx) error {
	var input signInInput
	if err := c.BodyParser(&input); err != nil {
		return badBody(c, err)
	}
	identity, err := a.Session.SignIn(c.UserContext(), input.Identifier, input.Password)
	if err != nil {
		return Fail(c, err)
	}
	return a.respondSignedIn(c, fiber.StatusOK, identity)
}

// SignUp registers a new account and signs it in
func (a *AuthController) SignUp(c *fiber.Ctx) error {
	var input Models.SignUpRequest
	if err := c.BodyParser(&input); err != nil {
		return badBody(c, err)
	}
	identity, err := a.Session.SignUp(c.UserContext(), input)
	if err != nil {
		return Fail(c, err)
	}
	return a.respondSignedIn(c, fiber.StatusCreated, identity)
}

// GoogleRedirect sends the browser to the Google consent screen
func (a *AuthController) GoogleRedirect(c *fiber.Ctx) error {
	state := uuid.NewString()
	url, err := a.Session.GoogleAuthURL(state)
	if err != nil {
		return Fail(c, err)
	}
	c.Cookie(&fiber.Cookie{Name: oauthStateCookie, Value: state, HTTPOnly: true, SameSite: "Lax"})
	return c.Redirect(url, fiber.StatusFound)
}

// GoogleCallback completes the consent flow
func (a *AuthController) GoogleCallback(c *fiber.Ctx) error {
	if state := c.Cookies(oauthStateCookie); state == "" || state != c.Query("state") {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid OAuth state"})
	}
	code := c.Query("code")
	if code == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Missing authorization code"})
	}
	identity, err := a.Session.SignInWithGoogle(c.UserContext(), code)
	if err != nil {
		return Fail(c, err)
	}
	return a.respondSignedIn(c, fiber.StatusOK, identity)
}

// SignOut always clears the session cookie, even when the remote sign-out fails
func (a *AuthController) SignOut(c *fiber.Ctx) error {
	err := a.Session.SignOut(c.UserContext())
	middleware.ClearSessionCookie(c)
	if err != nil {
		return Fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Signed out", "graph": a.Session.Graph()})
}

func (a *AuthController) DeleteAccount(c *fiber.Ctx) error {
	if err := a.Session.DeleteAccount(c.UserContext()); err != nil {
		return Fail(c, err)
	}
	middleware.ClearSessionCookie(c)
	return c.JSON(fiber.Map{"message": "Your account has been successfully deleted."})
}

// State reports the session state and which navigation graph to mount
func (a *AuthController) State(c *fiber.Ctx) error {
	body := fiber.Map{
		"state":         a.Session.State().String(),
		"graph":         a.Session.Graph(),
		"initial_graph": a.Session.InitialGraph(),
	}
	if identity, ok := a.Session.Identity(); ok {
		body["identity"] = identity
	}
	return c.JSON(body)
}
