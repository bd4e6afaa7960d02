// Package control is the local control-plane: a small gin HTTP+WS surface
// on the configured control port (default 8082) that lets the price
// ingestion process run as a separate process and stream signal ticks in
// (§6 "Local control-plane interface"), and exposes read-only health/status/
// metrics for operators. Grounded on the teacher's internal/api (auth.go,
// middleware.go, websocket.go), trimmed from a multi-user account/session
// REST API down to the single unauthenticated-by-default local surface the
// spec describes, with the same JWT shape kept as an optional guard.
package control

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// signalClaims is the JWT claim shape for the optional bearer-token guard,
// mirroring the teacher's UserClaims (subject + registered claims) without
// the user-account fields this local surface has no use for.
type signalClaims struct {
	jwt.RegisteredClaims
}

// GenerateToken mints a bearer token for a local process that will push
// signal ticks, valid until expiresAt.
func GenerateToken(secret string, expiresAt time.Time) (string, error) {
	claims := signalClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "control-plane",
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func parseToken(tokenStr, secret string) error {
	token, err := jwt.ParseWithClaims(tokenStr, &signalClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	if err != nil {
		return err
	}
	if !token.Valid {
		return errors.New("control: invalid token")
	}
	return nil
}

// authMiddleware enforces the JWT guard when a secret is configured; with no
// secret configured the local control-plane is intentionally open (it is
// meant to run loopback-only alongside the engine process).
func authMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret == "" {
			c.Next()
			return
		}
		header := c.GetHeader("Authorization")
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		if err := parseToken(parts[1], secret); err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		c.Next()
	}
}
