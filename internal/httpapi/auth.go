package httpapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
)

const userIDKey = "user_id"

// RequireUser accepts an HS256 bearer token and stores its subject as the
// caller's user ID. The "user_id" claim is accepted when "sub" is absent.
func RequireUser(secret string) gin.HandlerFunc {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		panic("RequireUser: secret is required")
	}

	return func(c *gin.Context) {
		authz := strings.TrimSpace(c.GetHeader("Authorization"))
		if !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse{Error: "missing bearer token"})
			return
		}
		raw := strings.TrimSpace(authz[len("bearer "):])

		token, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("unexpected signing method")
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse{Error: "invalid token"})
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse{Error: "invalid token claims"})
			return
		}

		userID := strClaim(claims, "sub")
		if userID == "" {
			userID = strClaim(claims, "user_id")
		}
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse{Error: "token has no subject"})
			return
		}

		c.Set(userIDKey, userID)
		c.Next()
	}
}

// RequireAdmin limits a route to the listed user IDs. An empty list lets
// every authenticated user through.
func RequireAdmin(adminIDs []string) gin.HandlerFunc {
	admins := make(map[string]struct{}, len(adminIDs))
	for _, id := range adminIDs {
		if id = strings.TrimSpace(id); id != "" {
			admins[id] = struct{}{}
		}
	}

	return func(c *gin.Context) {
		if len(admins) == 0 {
			c.Next()
			return
		}
		if _, ok := admins[currentUser(c)]; !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, errorResponse{Error: "admin access required"})
			return
		}
		c.Next()
	}
}

// IssueToken signs a token for userID that expires after ttl.
func IssueToken(secret, userID string, ttl time.Duration) (string, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "", errors.New("user id is required")
	}
	now := time.Now().UTC()
	claims := jwt.MapClaims{
		"sub": userID,
		"iat": now.Unix(),
		"exp": now.Add(ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func currentUser(c *gin.Context) string {
	return c.GetString(userIDKey)
}

func strClaim(m jwt.MapClaims, key string) string {
	if v, ok := m[key]; ok {
		if s, ok := v.(string); ok {
			return strings.TrimSpace(s)
		}
	}
	return ""
}
