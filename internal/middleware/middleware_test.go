package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

const secret = "test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

func sign(t *testing.T, claims jwt.MapClaims, key string) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(key))
	require.NoError(t, err)
	return s
}

func router() *gin.Engine {
	r := gin.New()
	r.Use(RequestID(), AuthMiddleware(secret))
	r.GET("/me", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"id":   UserID(c),
			"name": UserName(c),
			"role": c.GetString(ContextUserRole),
		})
	})
	r.GET("/admin", RequireRole(RoleAdmin, RoleService), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func do(r http.Handler, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	r := router()
	exp := time.Now().Add(time.Hour).Unix()

	w := do(r, "/me", sign(t, jwt.MapClaims{"sub": 7, "role": "client", "name": "Ana", "exp": exp}, secret))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":7,"name":"Ana","role":"client"}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))

	w = do(r, "/me", sign(t, jwt.MapClaims{"sub": "12", "exp": exp}, secret))
	assert.Equal(t, http.StatusOK, w.Code)

	cases := map[string]string{
		"missing":      "",
		"wrong key":    sign(t, jwt.MapClaims{"sub": 7, "exp": exp}, "other"),
		"expired":      sign(t, jwt.MapClaims{"sub": 7, "exp": time.Now().Add(-time.Minute).Unix()}, secret),
		"no subject":   sign(t, jwt.MapClaims{"role": "client", "exp": exp}, secret),
		"bad subject":  sign(t, jwt.MapClaims{"sub": "abc", "exp": exp}, secret),
		"zero subject": sign(t, jwt.MapClaims{"sub": 0, "exp": exp}, secret),
		"fractional":   sign(t, jwt.MapClaims{"sub": 1.9, "exp": exp}, secret),
		"not a token":  "garbage",
	}
	for name, tok := range cases {
		t.Run(name, func(t *testing.T) {
			w := do(r, "/me", tok)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Contains(t, w.Body.String(), "errorCode")
		})
	}
}

func TestRequireRole(t *testing.T) {
	r := router()
	exp := time.Now().Add(time.Hour).Unix()

	w := do(r, "/admin", sign(t, jwt.MapClaims{"sub": 1, "role": "service", "exp": exp}, secret))
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(r, "/admin", sign(t, jwt.MapClaims{"sub": 1, "role": "client", "exp": exp}, secret))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "insufficient_role")
}

func TestRequestIDPropagates(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(ContextRequestID)) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "abc-123", w.Body.String())
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
}

func TestRequestLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)

	r := gin.New()
	r.Use(RequestID(), RequestLogger(zap.New(core)))
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/boom", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	do(r, "/ok", "")
	do(r, "/boom", "")

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, zap.InfoLevel, entries[0].Level)
	assert.Equal(t, zap.ErrorLevel, entries[1].Level)
	assert.Equal(t, "/boom", entries[1].ContextMap()["path"])
}

func TestCORSPreflight(t *testing.T) {
	r := gin.New()
	r.Use(CORSMiddleware())
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/x", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", "GET")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))
}
