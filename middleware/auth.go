package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"

	"Lulan/Models"
)

const (
	CookieName  = "jwt"
	IdentityKey = "identity"
	tokenTTL    = 24 * time.Hour
)

// IdentitySource is the live session the cookie is checked against.
type IdentitySource interface {
	Identity() (Models.Identity, bool)
}

// IssueToken signs a session token for identity.
func IssueToken(secret string, identity Models.Identity, now time.Time) (string, time.Time, error) {
	expires := now.Add(tokenTTL)
	claims := jwt.RegisteredClaims{
		Issuer:    "lulan",
		Subject:   identity.UID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expires),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	return token, expires, err
}

// SetSessionCookie issues the token and stores it in the session cookie.
func SetSessionCookie(c *fiber.Ctx, secret string, identity Models.Identity) error {
	token, expires, err := IssueToken(secret, identity, time.Now())
	if err != nil {
		return err
	}
	c.Cookie(&fiber.Cookie{
		Name:     CookieName,
		Value:    token,
		Expires:  expires,
		HTTPOnly: true,
		SameSite: "Lax",
	})
	return nil
}

func ClearSessionCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     CookieName,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
	})
}

// Verify accepts a request only when its cookie names the identity that is
// signed in right now.
func Verify(secret string, session IdentitySource) fiber.Handler {
	return func(c *fiber.Ctx) error {
		cookie := c.Cookies(CookieName)
		if cookie == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Not Logged In.",
			})
		}

		token, err := jwt.ParseWithClaims(cookie, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Invalid or expired token",
			})
		}

		claims, ok := token.Claims.(*jwt.RegisteredClaims)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Invalid token claims",
			})
		}

		identity, signedIn := session.Identity()
		if !signedIn || identity.UID != claims.Subject {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": Models.Message(Models.ErrUnauthenticated),
			})
		}

		c.Locals(IdentityKey, identity)
		return c.Next()
	}
}
