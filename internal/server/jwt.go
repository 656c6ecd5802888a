package server

import (
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/snsupratim/pdfrag/internal/session"
)

// signToken issues a signed JWT for the user and returns the token plus its
// unique id, which keys the revocable session record.
func signToken(userID string, secret []byte, ttl time.Duration) (string, string, error) {
	tokenID := uuid.NewString()
	claims := jwt.MapClaims{
		"sub": userID,
		"jti": tokenID,
		"exp": time.Now().Add(ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	return signed, tokenID, err
}

// withAuth validates the JWT from the Authorization header or auth cookie,
// requires a live session record for its id, and stores user_id and
// token_id on the echo context.
func withAuth(next echo.HandlerFunc, secret []byte, sessions session.Store) echo.HandlerFunc {
	return func(c echo.Context) error {
		tok := extractToken(c)
		if tok == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing token")
		}
		parsed, err := jwt.Parse(tok, func(t *jwt.Token) (interface{}, error) { return secret, nil })
		if err != nil || !parsed.Valid {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
		}
		claims, ok := parsed.Claims.(jwt.MapClaims)
		if !ok {
			return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
		}
		sub, _ := claims["sub"].(string)
		jti, _ := claims["jti"].(string)
		if sub == "" || jti == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
		}
		userID, live, err := sessions.Get(c.Request().Context(), jti)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		if !live || userID != sub {
			return echo.NewHTTPError(http.StatusUnauthorized, "session revoked")
		}
		c.Set("user_id", sub)
		c.Set("token_id", jti)
		return next(c)
	}
}

func extractToken(c echo.Context) string {
	if h := c.Request().Header.Get("Authorization"); len(h) > 7 && h[:7] == "Bearer " {
		return h[7:]
	}
	if ck, err := c.Cookie("auth"); err == nil {
		return ck.Value
	}
	return ""
}
