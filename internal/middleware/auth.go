package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/SAP-F-2025/learning-service/internal/config"
	"github.com/SAP-F-2025/learning-service/internal/handlers"
	"github.com/SAP-F-2025/learning-service/internal/services"
	"github.com/SAP-F-2025/learning-service/internal/utils"
	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

// TokenVerifier turns a bearer token into the caller's identity.
type TokenVerifier interface {
	Verify(token string) (services.Identity, error)
}

// NewTokenVerifier picks the verifier for the configured auth mode.
func NewTokenVerifier(cfg config.AuthConfig) (TokenVerifier, error) {
	switch cfg.Mode {
	case "casdoor":
		return NewCasdoorVerifier(cfg), nil
	case "jwt":
		if cfg.JWTSecret == "" {
			return nil, errors.New("JWT_SECRET is required in jwt auth mode")
		}
		return NewHMACVerifier(cfg.JWTSecret), nil
	default:
		return nil, fmt.Errorf("unknown auth mode %q", cfg.Mode)
	}
}

// ===== CASDOOR =====

type CasdoorVerifier struct{}

func NewCasdoorVerifier(cfg config.AuthConfig) *CasdoorVerifier {
	casdoorsdk.InitConfig(
		cfg.CasdoorEndpoint,
		cfg.CasdoorClientID,
		cfg.CasdoorClientSecret,
		cfg.CasdoorCertificate,
		cfg.CasdoorOrganization,
		cfg.CasdoorApplication,
	)
	return &CasdoorVerifier{}
}

func (v *CasdoorVerifier) Verify(token string) (services.Identity, error) {
	claims, err := casdoorsdk.ParseJwtToken(token)
	if err != nil {
		return services.Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	userID := claims.User.Id
	if userID == "" {
		userID = claims.Subject
	}
	name := claims.User.DisplayName
	if name == "" {
		name = claims.User.Name
	}
	return services.Identity{UserID: userID, FullName: name, Email: claims.User.Email}, nil
}

// ===== HMAC JWT =====

// Claims carried by locally issued tokens. The subject is the user id.
type Claims struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	jwt.RegisteredClaims
}

type HMACVerifier struct {
	secret []byte
}

func NewHMACVerifier(secret string) *HMACVerifier {
	return &HMACVerifier{secret: []byte(secret)}
}

// Issue signs a token for development and tests.
func (v *HMACVerifier) Issue(userID, name, email string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		Name:  name,
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    "learning-service",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}

func (v *HMACVerifier) Verify(tokenStr string) (services.Identity, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return services.Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return services.Identity{}, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return services.Identity{UserID: claims.Subject, FullName: claims.Name, Email: claims.Email}, nil
}

// ===== MIDDLEWARE =====

// Auth verifies the bearer token, registers the user on first contact and
// stores the identity in the gin context.
func Auth(verifier TokenVerifier, users services.UserService, logger utils.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, found := strings.CutPrefix(header, "Bearer ")
		if !found || strings.TrimSpace(token) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, handlers.ErrorResponse{
				Message: "Missing bearer token",
				Code:    "UNAUTHORIZED",
			})
			return
		}

		identity, err := verifier.Verify(strings.TrimSpace(token))
		if err != nil {
			logger.Warn("Token rejected", "error", err, "path", c.Request.URL.Path)
			c.AbortWithStatusJSON(http.StatusUnauthorized, handlers.ErrorResponse{
				Message: "Invalid token",
				Code:    "UNAUTHORIZED",
			})
			return
		}

		if _, err := users.EnsureUser(c.Request.Context(), identity); err != nil {
			if errors.Is(err, services.ErrUnauthorized) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, handlers.ErrorResponse{
					Message: "Token has no user id",
					Code:    "UNAUTHORIZED",
				})
				return
			}
			logger.LogError(err, "Failed to register user", "user_id", identity.UserID)
			c.AbortWithStatusJSON(http.StatusInternalServerError, handlers.ErrorResponse{
				Message: "Internal server error",
			})
			return
		}

		c.Set(handlers.ContextUserID, identity.UserID)
		c.Set(handlers.ContextUserName, identity.FullName)
		c.Set(handlers.ContextUserEmail, identity.Email)
		c.Next()
	}
}
