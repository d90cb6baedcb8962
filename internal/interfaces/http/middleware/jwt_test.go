package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/erp/layaway/internal/domain/shared"
	"github.com/erp/layaway/internal/infrastructure/auth"
	"github.com/erp/layaway/internal/infrastructure/config"
	"github.com/erp/layaway/internal/infrastructure/security"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var testNow = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

func newTestJWTService(clock shared.Clock) *auth.JWTService {
	svc := auth.NewJWTService(config.JWTConfig{
		Secret: "test-secret-key-at-least-32-chars",
		Issuer: "test-issuer",
	})
	svc.SetClock(clock)
	return svc
}

func issueTestToken(t *testing.T, svc *auth.JWTService) (string, *auth.Claims) {
	t.Helper()
	token, claims, err := svc.IssueAccessToken(auth.IssueTokenInput{
		StoreID:  uuid.New(),
		UserID:   uuid.New(),
		Username: "cashier",
		Roles:    []string{"CASHIER"},
	})
	require.NoError(t, err)
	return token, claims
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error.Code
}

func newJWTRouter(cfg JWTMiddlewareConfig) *gin.Engine {
	router := gin.New()
	router.Use(JWTAuthMiddleware(cfg))
	router.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/swagger/index.html", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"actor": GetJWTActorID(c),
			"store": GetJWTStoreID(c),
		})
	})
	return router
}

func TestJWTAuthMiddleware_ValidToken(t *testing.T) {
	svc := newTestJWTService(shared.NewFakeClock(testNow))
	token, claims := issueTestToken(t, svc)
	router := newJWTRouter(DefaultJWTConfig(svc))

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set(AuthHeaderKey, BearerPrefix+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, claims.UserID, body["actor"])
	assert.Equal(t, claims.StoreID, body["store"])
}

func TestJWTAuthMiddleware_Rejections(t *testing.T) {
	clock := shared.NewFakeClock(testNow)
	svc := newTestJWTService(clock)
	token, _ := issueTestToken(t, svc)

	other := auth.NewJWTService(config.JWTConfig{Secret: "another-secret-key-of-32-characters", Issuer: "test-issuer"})
	other.SetClock(clock)
	foreign, _, err := other.IssueAccessToken(auth.IssueTokenInput{StoreID: uuid.New(), UserID: uuid.New()})
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		code   string
	}{
		{"missing header", "", "INVALID_TOKEN"},
		{"no bearer prefix", "Token " + token, "INVALID_TOKEN"},
		{"empty token", BearerPrefix, "INVALID_TOKEN"},
		{"garbage", BearerPrefix + "not-a-jwt", "INVALID_TOKEN"},
		{"wrong signature", BearerPrefix + foreign, "INVALID_TOKEN"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events := security.NewEventLogger(10, clock, nil)
			cfg := DefaultJWTConfig(svc)
			cfg.Events = events
			router := newJWTRouter(cfg)

			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			if tt.header != "" {
				req.Header.Set(AuthHeaderKey, tt.header)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, tt.code, errorCode(t, rec))
			require.Len(t, events.Recent(1), 1)
			assert.Equal(t, security.EventTokenMalformed, events.Recent(1)[0].Type)
		})
	}
}

func TestJWTAuthMiddleware_ExpiredToken(t *testing.T) {
	clock := shared.NewFakeClock(testNow)
	svc := newTestJWTService(clock)
	token, _ := issueTestToken(t, svc)
	events := security.NewEventLogger(10, clock, nil)
	cfg := DefaultJWTConfig(svc)
	cfg.Events = events
	router := newJWTRouter(cfg)

	clock.Advance(time.Hour)
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set(AuthHeaderKey, BearerPrefix+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "TOKEN_EXPIRED", errorCode(t, rec))
	assert.Equal(t, security.EventAuthFailed, events.Recent(1)[0].Type)
}

func TestJWTAuthMiddleware_RevokedToken(t *testing.T) {
	clock := shared.NewFakeClock(testNow)
	svc := newTestJWTService(clock)
	token, claims := issueTestToken(t, svc)
	blacklist := auth.NewInMemoryTokenBlacklist(clock)
	require.NoError(t, blacklist.AddToBlacklist(context.Background(), claims.ID, time.Hour))

	cfg := DefaultJWTConfig(svc)
	cfg.TokenBlacklist = blacklist
	router := newJWTRouter(cfg)

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set(AuthHeaderKey, BearerPrefix+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "TOKEN_REVOKED", errorCode(t, rec))
}

func TestJWTAuthMiddleware_SkipPaths(t *testing.T) {
	router := newJWTRouter(DefaultJWTConfig(newTestJWTService(shared.NewFakeClock(testNow))))

	for _, path := range []string{"/health", "/swagger/index.html"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestGetJWTClaims_NotFound(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.Nil(t, GetJWTClaims(c))
	assert.Empty(t, GetJWTActorID(c))
	assert.Empty(t, GetJWTStoreID(c))
}
