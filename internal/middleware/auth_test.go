package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRequireAdminToken(t *testing.T) {
	cases := []struct {
		name     string
		token    string
		header   string
		value    string
		expected int
	}{
		{"header", "s3cret", "x-admin-token", "s3cret", http.StatusOK},
		{"bearer", "s3cret", "Authorization", "Bearer s3cret", http.StatusOK},
		{"wrong", "s3cret", "x-admin-token", "guess", http.StatusNotFound},
		{"missing", "s3cret", "", "", http.StatusNotFound},
		{"unset", "", "x-admin-token", "", http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := gin.New()
			r.POST("/verify", RequireAdminToken(tc.token), func(c *gin.Context) { c.Status(http.StatusOK) })
			req := httptest.NewRequest(http.MethodPost, "/verify", nil)
			if tc.header != "" {
				req.Header.Set(tc.header, tc.value)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tc.expected, w.Code)
		})
	}
}

func TestExtractTokenOrder(t *testing.T) {
	var got string
	r := gin.New()
	r.GET("/ws", func(c *gin.Context) { got = ExtractToken(c) })

	req := httptest.NewRequest(http.MethodGet, "/ws?token=from-query", nil)
	req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: "from-cookie"})
	req.Header.Set("Authorization", "Bearer from-header")
	r.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "from-header", got)

	req = httptest.NewRequest(http.MethodGet, "/ws?token=from-query", nil)
	req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: "from-cookie"})
	r.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "from-cookie", got)

	req = httptest.NewRequest(http.MethodGet, "/ws?token=from-query", nil)
	r.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "from-query", got)
}
