package middleware

import (
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newSwaggerRouter(cfg SwaggerConfig, jwt gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	router.GET("/swagger/*any", SwaggerProtection(cfg, jwt), func(c *gin.Context) {
		c.String(http.StatusOK, "docs")
	})
	return router
}

func swaggerRequest(router http.Handler, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/swagger/index.html", nil)
	req.RemoteAddr = remoteAddr
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestSwaggerProtection(t *testing.T) {
	deny := func(c *gin.Context) { c.AbortWithStatus(http.StatusUnauthorized) }
	allow := func(c *gin.Context) {}

	tests := []struct {
		name   string
		cfg    SwaggerConfig
		jwt    gin.HandlerFunc
		remote string
		want   int
	}{
		{"disabled", SwaggerConfig{}, nil, "10.0.0.1:1", http.StatusNotFound},
		{"open", SwaggerConfig{Enabled: true}, nil, "10.0.0.1:1", http.StatusOK},
		{"ip allowed", SwaggerConfig{Enabled: true, AllowedIPs: []string{"10.0.0.1"}}, nil, "10.0.0.1:1", http.StatusOK},
		{"ip denied", SwaggerConfig{Enabled: true, AllowedIPs: []string{"10.0.0.1"}}, nil, "10.0.0.2:1", http.StatusForbidden},
		{"cidr allowed", SwaggerConfig{Enabled: true, AllowedIPs: []string{"192.168.0.0/16"}}, nil, "192.168.4.7:1", http.StatusOK},
		{"auth rejected", SwaggerConfig{Enabled: true, RequireAuth: true}, deny, "10.0.0.1:1", http.StatusUnauthorized},
		{"auth passed", SwaggerConfig{Enabled: true, RequireAuth: true}, allow, "10.0.0.1:1", http.StatusOK},
		{"ip checked before auth", SwaggerConfig{Enabled: true, RequireAuth: true, AllowedIPs: []string{"10.0.0.1"}}, deny, "10.9.9.9:1", http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := swaggerRequest(newSwaggerRouter(tt.cfg, tt.jwt), tt.remote)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestIsIPAllowed(t *testing.T) {
	_, network, _ := net.ParseCIDR("172.16.0.0/12")
	ips := []net.IP{net.ParseIP("127.0.0.1")}
	nets := []*net.IPNet{network}

	assert.True(t, isIPAllowed(net.ParseIP("127.0.0.1"), ips, nets))
	assert.True(t, isIPAllowed(net.ParseIP("172.20.1.1"), ips, nets))
	assert.False(t, isIPAllowed(net.ParseIP("8.8.8.8"), ips, nets))
	assert.False(t, isIPAllowed(nil, ips, nets))
}
