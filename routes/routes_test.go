package routes

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"servicehub/handlers"
	"servicehub/models"
	"servicehub/services/api"
	"servicehub/services/payment"
	"servicehub/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var secret = []byte("routes-secret")

func init() {
	gin.SetMode(gin.TestMode)
}

func testEngine(t *testing.T) (*gin.Engine, *[]string) {
	t.Helper()
	var cookies []string
	remote := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookies = append(cookies, r.Header.Get("Cookie"))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data": map[string]any{
				"users":      []models.User{{ID: "u1", Name: "Ann"}},
				"pagination": map[string]int{"page": 1, "pages": 1, "total": 1},
			},
		})
	}))
	t.Cleanup(remote.Close)

	hb := &handlers.HandlerBundle{
		API:      api.NewClient(remote.URL, models.RoleUser),
		Payments: payment.NewService(nil, nil),
	}
	r := gin.New()
	RegisterRoutes(r, hb, Options{
		SessionSecret: secret,
		SessionCookie: "token",
		CORSOrigins:   []string{"http://app.example.com"},
	})
	return r, &cookies
}

func session(t *testing.T, role string) string {
	t.Helper()
	tok, err := utils.GenerateSessionToken("id-"+role, role, secret, time.Hour)
	require.NoError(t, err)
	return tok
}

func TestRoutesRequireSession(t *testing.T) {
	r, _ := testEngine(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/admin/users", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRoutesEnforceRole(t *testing.T) {
	r, cookies := testEngine(t)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/users", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: session(t, "user")})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, *cookies)

	tok := session(t, "admin")
	req = httptest.NewRequest(http.MethodGet, "/api/admin/users", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: tok})
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "Ann")
	require.Len(t, *cookies, 1)
	assert.Equal(t, "token="+tok, (*cookies)[0])
}

func TestRoutesCORSPreflight(t *testing.T) {
	r, _ := testEngine(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/user/bookings", nil)
	req.Header.Set("Origin", "http://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
}
