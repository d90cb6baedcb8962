package middleware

import (
	"net/http"
	"strings"

	"github.com/erp/layaway/internal/infrastructure/logger"
	"github.com/erp/layaway/internal/infrastructure/security"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Store context keys and headers
const (
	StoreIDKey    = "store_id"
	ActorIDKey    = "actor_id"
	StoreIDHeader = "X-Store-ID"
	ActorIDHeader = "X-Actor-ID"
)

// StoreContextConfig holds configuration for the store context middleware
type StoreContextConfig struct {
	// HeaderFallback accepts X-Store-ID and X-Actor-ID when no JWT claims are present
	HeaderFallback bool
	SkipPaths      []string
	Events         *security.EventLogger
}

// DefaultStoreContextConfig returns the default configuration
func DefaultStoreContextConfig() StoreContextConfig {
	return StoreContextConfig{
		SkipPaths: []string{"/health", "/api/v1/health", "/swagger"},
	}
}

// StoreContext resolves the store partition key and the acting user of the
// request. JWT claims win; an X-Store-ID header that contradicts the token is
// rejected.
func StoreContext(cfg StoreContextConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		for _, skip := range cfg.SkipPaths {
			if path == skip || strings.HasPrefix(path, skip+"/") {
				c.Next()
				return
			}
		}

		storeID := GetJWTStoreID(c)
		actorID := GetJWTActorID(c)
		header := c.GetHeader(StoreIDHeader)

		if storeID != "" && header != "" && header != storeID {
			if cfg.Events != nil {
				cfg.Events.Record(security.Event{
					Type:      security.EventStoreMismatch,
					ClientIP:  c.ClientIP(),
					Path:      path,
					StoreID:   storeID,
					ActorID:   actorID,
					RequestID: c.GetString(RequestIDContextKey),
					Detail:    "header store " + header,
				})
			}
			respondStoreError(c, http.StatusForbidden, "FORBIDDEN", "Store header does not match token")
			return
		}
		if storeID == "" && cfg.HeaderFallback {
			storeID = header
			actorID = c.GetHeader(ActorIDHeader)
		}

		if _, err := uuid.Parse(storeID); err != nil {
			respondStoreError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Store identification required")
			return
		}
		if _, err := uuid.Parse(actorID); err != nil {
			respondStoreError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Actor identification required")
			return
		}

		c.Set(StoreIDKey, storeID)
		c.Set(ActorIDKey, actorID)

		ctx := c.Request.Context()
		reqLog := logger.FromContext(ctx)
		ctx, reqLog = logger.WithStoreID(ctx, reqLog, storeID)
		ctx, _ = logger.WithActorID(ctx, reqLog, actorID)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

func respondStoreError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

// GetStoreUUID returns the store resolved by StoreContext
func GetStoreUUID(c *gin.Context) (uuid.UUID, error) {
	return uuid.Parse(c.GetString(StoreIDKey))
}

// GetActorUUID returns the acting user resolved by StoreContext
func GetActorUUID(c *gin.Context) (uuid.UUID, error) {
	return uuid.Parse(c.GetString(ActorIDKey))
}
