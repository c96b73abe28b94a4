package middleware

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"clinic-backend/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	ctxUserID = "user_id"
	ctxRole   = "role"

	// AdminKeyHeader carries the shared admin secret.
	AdminKeyHeader = "X-Admin-Key"
)

// Claims are the custom JWT claims issued at login.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Auth issues and checks bearer tokens and the shared admin key.
type Auth struct {
	secret   []byte
	ttl      time.Duration
	adminKey string
}

func NewAuth(secret string, ttl time.Duration, adminKey string) *Auth {
	return &Auth{secret: []byte(secret), ttl: ttl, adminKey: adminKey}
}

// IssueToken signs an HS256 token for a verified account.
func (a *Auth) IssueToken(userID string, role models.Role) (string, error) {
	now := time.Now()
	claims := Claims{
		Role: string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// ParseToken validates tokenStr and returns its claims.
func (a *Auth) ParseToken(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}

// IsAdminKey reports whether key matches the configured admin secret.
func (a *Auth) IsAdminKey(key string) bool {
	if a.adminKey == "" || key == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(key), []byte(a.adminKey)) == 1
}

// AdminOnly admits requests carrying the admin key header.
func (a *Auth) AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !a.IsAdminKey(c.GetHeader(AdminKeyHeader)) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Invalid admin key"})
			return
		}
		c.Set(ctxRole, models.RoleAdmin)
		c.Next()
	}
}

// Allow admits the admin key, or a valid bearer token whose role is one of
// roles. With no roles listed any authenticated account is admitted.
func (a *Auth) Allow(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		if a.IsAdminKey(c.GetHeader(AdminKeyHeader)) {
			c.Set(ctxRole, models.RoleAdmin)
			c.Next()
			return
		}

		authHeader := c.GetHeader("Authorization")
		tokenStr, found := strings.CutPrefix(authHeader, "Bearer ")
		if authHeader == "" || !found {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Authentication required"})
			return
		}

		claims, err := a.ParseToken(tokenStr)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Invalid or expired token"})
			return
		}

		role := models.Role(claims.Role)
		if len(roles) > 0 && !hasRole(roles, role) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "Insufficient permissions"})
			return
		}

		c.Set(ctxUserID, claims.Subject)
		c.Set(ctxRole, role)
		c.Next()
	}
}

func hasRole(roles []models.Role, r models.Role) bool {
	for _, allowed := range roles {
		if allowed == r {
			return true
		}
	}
	return false
}

// CurrentUser returns the caller set by Allow or AdminOnly. Admin callers
// have an empty user id.
func CurrentUser(c *gin.Context) (string, models.Role) {
	role, _ := c.Get(ctxRole)
	r, _ := role.(models.Role)
	return c.GetString(ctxUserID), r
}
