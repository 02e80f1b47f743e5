package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"servicehub/models"
	"servicehub/services/api"
	"servicehub/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var testSecret = []byte("test-secret")

func init() {
	gin.SetMode(gin.TestMode)
}

func token(t *testing.T, subject, role string) string {
	t.Helper()
	tok, err := utils.GenerateSessionToken(subject, role, testSecret, time.Hour)
	require.NoError(t, err)
	return tok
}

func protectedRouter(roles ...models.Role) *gin.Engine {
	r := gin.New()
	r.Use(SessionAuth(testSecret, "token"))
	if len(roles) > 0 {
		r.Use(RequireRole(roles...))
	}
	r.GET("/whoami", func(c *gin.Context) {
		id, role := CurrentUser(c)
		c.JSON(http.StatusOK, gin.H{"id": id, "role": role, "cookie": api.CookieFrom(c.Request.Context())})
	})
	return r
}

func TestSessionAuthFromCookie(t *testing.T) {
	r := protectedRouter()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	tok := token(t, "u1", "user")
	req.AddCookie(&http.Cookie{Name: "token", Value: tok})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":"u1","role":"user","cookie":"token=`+tok+`"}`, w.Body.String())
}

func TestSessionAuthFromBearerSynthesisesCookie(t *testing.T) {
	r := protectedRouter()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	tok := token(t, "t1", "technician")
	req.Header.Set("Authorization", "Bearer "+tok)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"cookie":"token=`+tok+`"`)
}

func TestSessionAuthRejects(t *testing.T) {
	cases := map[string]func(*http.Request){
		"no token":     func(*http.Request) {},
		"garbage":      func(r *http.Request) { r.AddCookie(&http.Cookie{Name: "token", Value: "nope"}) },
		"unknown role": func(r *http.Request) { r.AddCookie(&http.Cookie{Name: "token", Value: token(t, "x", "root")}) },
	}
	want := map[string]int{"no token": 401, "garbage": 401, "unknown role": 403}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
			mutate(req)
			w := httptest.NewRecorder()
			protectedRouter().ServeHTTP(w, req)
			assert.Equal(t, want[name], w.Code)
		})
	}
}

func TestRequireRole(t *testing.T) {
	r := protectedRouter(models.RoleAdmin)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: token(t, "u1", "user")})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: token(t, "a1", "admin")})
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimit(t *testing.T) {
	r := gin.New()
	r.Use(RateLimitMiddleware(2))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Forwarded-For", "10.0.0.1, 172.16.0.1")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{204, 204, 429}, codes)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-For", "10.0.0.2")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestLimiterSweep(t *testing.T) {
	s := newRateLimiterStore(10)
	now := time.Now()
	s.getLimiter("a", now)
	s.getLimiter("b", now.Add(limiterIdleTTL+time.Minute))
	s.getLimiter("b", now.Add(2*limiterIdleTTL+time.Minute))
	assert.Len(t, s.limiters, 1)
}

func TestRequestLogger(t *testing.T) {
	r := gin.New()
	r.Use(RequestLogger(zap.NewNop()))
	r.GET("/", func(c *gin.Context) {
		_, ok := c.Get("logger")
		assert.True(t, ok)
		c.String(http.StatusOK, c.GetString("requestID"))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	id := w.Header().Get(RequestIDHeader)
	assert.Len(t, id, 36)
	assert.Equal(t, id, w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "3f1c1c7e-6b8f-4f4e-9d7a-2d1a0b1c2d3e")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "3f1c1c7e-6b8f-4f4e-9d7a-2d1a0b1c2d3e", w.Header().Get(RequestIDHeader))
}
