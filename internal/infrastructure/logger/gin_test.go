package logger

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newObservedRouter(level zapcore.Level, pre ...gin.HandlerFunc) (*gin.Engine, *observer.ObservedLogs) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(level)
	router := gin.New()
	router.Use(pre...)
	router.Use(GinMiddleware(zap.New(core)))
	return router, logs
}

func requestLog(t *testing.T, logs *observer.ObservedLogs) observer.LoggedEntry {
	t.Helper()
	entries := logs.FilterMessage("HTTP Request").All()
	require.Len(t, entries, 1)
	return entries[0]
}

func TestGinMiddleware_LevelByStatus(t *testing.T) {
	tests := []struct {
		name   string
		status int
		level  zapcore.Level
	}{
		{"created", http.StatusCreated, zapcore.InfoLevel},
		{"conflict", http.StatusConflict, zapcore.WarnLevel},
		{"unprocessable", http.StatusUnprocessableEntity, zapcore.WarnLevel},
		{"internal", http.StatusInternalServerError, zapcore.ErrorLevel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, logs := newObservedRouter(zapcore.DebugLevel)
			router.POST("/api/v1/layaway-orders", func(c *gin.Context) {
				c.Status(tt.status)
			})

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/layaway-orders", nil))

			assert.Equal(t, tt.status, w.Code)
			entry := requestLog(t, logs)
			assert.Equal(t, tt.level, entry.Level)
			assert.Equal(t, int64(tt.status), entry.ContextMap()["status"])
		})
	}
}

func TestGinMiddleware_RequestScopedLogger(t *testing.T) {
	router, logs := newObservedRouter(zapcore.InfoLevel, func(c *gin.Context) {
		c.Set("request_id", "req-42")
		c.Set("store_id", "store-7")
		c.Next()
	})
	router.POST("/api/v1/layaway-orders/:id/payments", func(c *gin.Context) {
		assert.Equal(t, "req-42", GetRequestID(c.Request.Context()))
		FromContext(c.Request.Context()).Info("payment applied")
		GetGinLogger(c).Info("handler done")
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/layaway-orders/9/payments?dry_run=1", nil))

	for _, msg := range []string{"payment applied", "handler done"} {
		entries := logs.FilterMessage(msg).All()
		require.Len(t, entries, 1, msg)
		fields := entries[0].ContextMap()
		assert.Equal(t, "req-42", fields["request_id"])
		assert.Equal(t, "POST", fields["method"])
		assert.Equal(t, "/api/v1/layaway-orders/9/payments", fields["path"])
	}

	fields := requestLog(t, logs).ContextMap()
	assert.Equal(t, "store-7", fields["store_id"])
	assert.Equal(t, "dry_run=1", fields["query"])
	assert.Contains(t, fields, "latency")
	assert.Contains(t, fields, "client_ip")
	assert.Contains(t, fields, "body_size")
	assert.NotContains(t, fields, "user_agent")
	assert.NotContains(t, fields, "errors")
}

func TestGinMiddleware_OptionalFieldsOmitted(t *testing.T) {
	router, logs := newObservedRouter(zapcore.InfoLevel)
	router.GET("/health", func(c *gin.Context) {
		assert.Empty(t, GetRequestID(c.Request.Context()))
		c.Status(http.StatusOK)
	})

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	fields := requestLog(t, logs).ContextMap()
	assert.NotContains(t, fields, "store_id")
	assert.NotContains(t, fields, "query")
	assert.Equal(t, "", fields["request_id"])
}

func TestGinMiddleware_HandlerErrors(t *testing.T) {
	router, logs := newObservedRouter(zapcore.InfoLevel)
	router.POST("/api/v1/transactions/:id/void", func(c *gin.Context) {
		_ = c.Error(errors.New("transaction already voided"))
		c.Status(http.StatusConflict)
	})

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/v1/transactions/3/void", nil))

	entry := requestLog(t, logs)
	assert.Equal(t, zapcore.WarnLevel, entry.Level)
	assert.Equal(t, []interface{}{"transaction already voided"}, entry.ContextMap()["errors"])
}

func TestRecovery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zapcore.ErrorLevel)

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set("request_id", "req-panic")
		c.Next()
	})
	router.Use(Recovery(zap.New(core)))
	router.GET("/panic", func(c *gin.Context) {
		panic("ledger exploded")
	})

	w := httptest.NewRecorder()
	assert.NotPanics(t, func() {
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))
	})
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	entries := logs.FilterMessage("Panic recovered").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "req-panic", fields["request_id"])
	assert.Equal(t, "/panic", fields["path"])
	assert.Equal(t, "ledger exploded", fields["error"])
	assert.Contains(t, fields, "stacktrace")
}

func TestGetGinLogger_NotSet(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	l := GetGinLogger(c)
	require.NotNil(t, l)
	assert.NotPanics(t, func() { l.Info("dropped") })

	c.Set("logger", "not a logger")
	assert.NotNil(t, GetGinLogger(c))
}
