package auth

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	authsvc "marketplace-backend/internal/application/auth"
	"marketplace-backend/internal/interfaces/handlers/handlertest"
	"marketplace-backend/internal/middleware"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupAuthApp(t *testing.T) (*fiber.App, *authsvc.TokenService) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		rdb.Close()
		mr.Close()
	})
	st := handlertest.Store(t)
	tokens := &authsvc.TokenService{Secret: []byte("test-secret"), TTL: time.Hour, Rdb: rdb}
	h := &Handlers{Service: &authsvc.Service{Users: st.Users, Tokens: tokens, SaltRounds: 4}}

	app := handlertest.App()
	app.Post("/register", h.Register)
	app.Post("/login", h.Login)
	app.Post("/logout", h.Logout)
	app.Get("/current-user", middleware.RequireAuth(tokens), h.CurrentUser)
	return app, tokens
}

func post(t *testing.T, app *fiber.App, path string, body interface{}) *http.Response {
	b, _ := json.Marshal(body)
	req := httptest.NewRequest("POST", path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]interface{} {
	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestRegister_ThenDuplicate(t *testing.T) {
	app, _ := setupAuthApp(t)
	body := map[string]string{"username": "alice123", "email": "a@x.com", "password": "Password1!"}

	resp := post(t, app, "/register", body)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, decodeBody(t, resp)["token"])

	resp = post(t, app, "/register", body)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
	assert.Equal(t, "User already exists", decodeBody(t, resp)["error"])
}

func TestRegister_ValidationDetails(t *testing.T) {
	app, _ := setupAuthApp(t)
	resp := post(t, app, "/register", map[string]string{"username": "al", "email": "nope", "password": "short"})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	out := decodeBody(t, resp)
	assert.Equal(t, "Validation failed", out["error"])
	assert.Len(t, out["details"], 3)
}

func TestLogin_WrongPasswordThenUsableToken(t *testing.T) {
	app, _ := setupAuthApp(t)
	post(t, app, "/register", map[string]string{"username": "alice123", "email": "a@x.com", "password": "Password1!"})

	resp := post(t, app, "/login", map[string]string{"email": "a@x.com", "password": "wrong-password"})
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Invalid credentials", decodeBody(t, resp)["error"])

	resp = post(t, app, "/login", map[string]string{"email": "A@X.com", "password": "Password1!"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var cookie *http.Cookie
	for _, ck := range resp.Cookies() {
		if ck.Name == TokenCookie {
			cookie = ck
		}
	}
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, 3600, cookie.MaxAge)
	token := decodeBody(t, resp)["token"].(string)
	assert.Equal(t, token, cookie.Value)

	req := httptest.NewRequest("GET", "/current-user", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	me, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, me.StatusCode)
	assert.NotEmpty(t, decodeBody(t, me)["userId"])
}

func TestLogout(t *testing.T) {
	app, _ := setupAuthApp(t)

	resp := post(t, app, "/logout", nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "No token found", decodeBody(t, resp)["error"])

	post(t, app, "/register", map[string]string{"username": "alice123", "email": "a@x.com", "password": "Password1!"})
	login := post(t, app, "/login", map[string]string{"email": "a@x.com", "password": "Password1!"})
	token := decodeBody(t, login)["token"].(string)

	req := httptest.NewRequest("POST", "/logout", nil)
	req.AddCookie(&http.Cookie{Name: TokenCookie, Value: token})
	out, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, out.StatusCode)
	assert.Equal(t, "Logged out successfully", decodeBody(t, out)["message"])

	req = httptest.NewRequest("GET", "/current-user", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	me, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, me.StatusCode)
}
