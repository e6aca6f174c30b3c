package middleware

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/SAP-F-2025/learning-service/internal/config"
	"github.com/SAP-F-2025/learning-service/internal/handlers"
	"github.com/SAP-F-2025/learning-service/internal/models"
	"github.com/SAP-F-2025/learning-service/internal/services"
	"github.com/SAP-F-2025/learning-service/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeUsers records EnsureUser calls; other methods are unused here.
type fakeUsers struct {
	services.UserService
	ensured []services.Identity
	err     error
}

func (f *fakeUsers) EnsureUser(_ context.Context, identity services.Identity) (*models.User, error) {
	f.ensured = append(f.ensured, identity)
	if f.err != nil {
		return nil, f.err
	}
	return &models.User{ID: identity.UserID}, nil
}

func testLogger() utils.Logger {
	return utils.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func setupAuthRouter(verifier TokenVerifier, users services.UserService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(Auth(verifier, users, testLogger()))
	router.GET("/whoami", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(handlers.ContextUserID)+"|"+c.GetString(handlers.ContextUserEmail))
	})
	return router
}

func TestHMACVerifier_RoundTrip(t *testing.T) {
	verifier := NewHMACVerifier("secret")

	token, err := verifier.Issue("u-1", "Lan", "lan@example.com", time.Hour)
	require.NoError(t, err)

	identity, err := verifier.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, services.Identity{UserID: "u-1", FullName: "Lan", Email: "lan@example.com"}, identity)
}

func TestHMACVerifier_Rejects(t *testing.T) {
	verifier := NewHMACVerifier("secret")

	t.Run("wrong secret", func(t *testing.T) {
		token, err := NewHMACVerifier("other").Issue("u-1", "", "", time.Hour)
		require.NoError(t, err)
		_, err = verifier.Verify(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		token, err := verifier.Issue("u-1", "", "", -time.Minute)
		require.NoError(t, err)
		_, err = verifier.Verify(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("missing subject", func(t *testing.T) {
		token, err := verifier.Issue("", "", "", time.Hour)
		require.NoError(t, err)
		_, err = verifier.Verify(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("other signing method", func(t *testing.T) {
		claims := &Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "u-1"}}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("secret"))
		require.NoError(t, err)
		_, err = verifier.Verify(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestNewTokenVerifier(t *testing.T) {
	_, err := NewTokenVerifier(config.AuthConfig{Mode: "jwt"})
	assert.Error(t, err)

	_, err = NewTokenVerifier(config.AuthConfig{Mode: "basic"})
	assert.Error(t, err)

	v, err := NewTokenVerifier(config.AuthConfig{Mode: "jwt", JWTSecret: "s"})
	require.NoError(t, err)
	assert.IsType(t, &HMACVerifier{}, v)
}

func TestAuth(t *testing.T) {
	verifier := NewHMACVerifier("secret")
	token, err := verifier.Issue("u-1", "Lan", "lan@example.com", time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name       string
		header     string
		usersErr   error
		wantStatus int
		wantBody   string
	}{
		{"valid token", "Bearer " + token, nil, http.StatusOK, "u-1|lan@example.com"},
		{"missing header", "", nil, http.StatusUnauthorized, ""},
		{"wrong scheme", "Basic " + token, nil, http.StatusUnauthorized, ""},
		{"garbage token", "Bearer nope", nil, http.StatusUnauthorized, ""},
		{"registration failure", "Bearer " + token, errors.New("db down"), http.StatusInternalServerError, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := &fakeUsers{err: tt.usersErr}
			router := setupAuthRouter(verifier, users)

			req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantBody != "" {
				assert.Equal(t, tt.wantBody, w.Body.String())
				require.Len(t, users.ensured, 1)
				assert.Equal(t, "Lan", users.ensured[0].FullName)
			}
		})
	}
}
