package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/erp/layaway/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type paymentBody struct {
	Amount  decimal.Decimal  `json:"amount" binding:"decimal_gt0"`
	Deposit *decimal.Decimal `json:"deposit" binding:"omitempty,decimal_gte0"`
	Method  string           `json:"method" binding:"required,oneof=CASH CARD"`
}

func newValidationRouter() *gin.Engine {
	SetupValidator()
	router := gin.New()
	router.Use(RequestID())
	router.POST("/pay", func(c *gin.Context) {
		var body paymentBody
		if err := c.ShouldBindJSON(&body); err != nil {
			HandleValidationError(c, err)
			return
		}
		c.Status(http.StatusOK)
	})
	return router
}

func postJSON(router http.Handler, payload string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/pay", bytes.NewBufferString(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(RequestIDHeader, "req-42")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestValidation_DecimalTags(t *testing.T) {
	router := newValidationRouter()

	tests := []struct {
		name    string
		payload string
		want    int
	}{
		{"valid", `{"amount":"10.50","method":"CASH"}`, http.StatusOK},
		{"valid with zero deposit", `{"amount":"1","deposit":"0","method":"CARD"}`, http.StatusOK},
		{"zero amount", `{"amount":"0","method":"CASH"}`, http.StatusBadRequest},
		{"negative amount", `{"amount":"-5","method":"CASH"}`, http.StatusBadRequest},
		{"negative deposit", `{"amount":"5","deposit":"-1","method":"CASH"}`, http.StatusBadRequest},
		{"unknown method", `{"amount":"5","method":"BARTER"}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, postJSON(router, tt.payload).Code)
		})
	}
}

func TestHandleValidationError_Body(t *testing.T) {
	rec := postJSON(newValidationRouter(), `{"amount":"0"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
	assert.Equal(t, "req-42", resp.Error.RequestID)

	fields := map[string]string{}
	for _, f := range resp.Error.Fields {
		fields[f.Field] = f.Message
	}
	assert.Equal(t, "Must be a positive amount", fields["amount"])
	assert.Equal(t, "This field is required", fields["method"])
}

func TestFormatValidationErrors_NonValidatorError(t *testing.T) {
	resp := FormatValidationErrors(assert.AnError, "req-1")
	assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
	assert.Empty(t, resp.Error.Fields)
}
