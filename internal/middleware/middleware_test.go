package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	authsvc "marketplace-backend/internal/application/auth"
	"marketplace-backend/internal/pkg/apperr"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		rdb.Close()
		mr.Close()
	})
	return rdb, mr
}

func decode(t *testing.T, app *fiber.App, method, path string, header map[string]string) (int, map[string]interface{}) {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	var out map[string]interface{}
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp.StatusCode, out
}

func TestRequireAuth(t *testing.T) {
	rdb, _ := newRedis(t)
	tokens := &authsvc.TokenService{Secret: []byte("secret"), TTL: time.Hour, Rdb: rdb}
	app := fiber.New()
	app.Get("/me", RequireAuth(tokens), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"userId": UserID(c)})
	})

	code, body := decode(t, app, "GET", "/me", nil)
	assert.Equal(t, fiber.StatusUnauthorized, code)
	assert.Equal(t, "Authentication required", body["error"])

	code, body = decode(t, app, "GET", "/me", map[string]string{"Authorization": "Bearer garbage"})
	assert.Equal(t, fiber.StatusUnauthorized, code)
	assert.Equal(t, "Invalid or expired token", body["error"])

	token, err := tokens.Issue("64b000000000000000000001")
	require.NoError(t, err)
	code, body = decode(t, app, "GET", "/me", map[string]string{"Authorization": "Bearer " + token})
	assert.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, "64b000000000000000000001", body["userId"])

	claims, err := tokens.Parse(token)
	require.NoError(t, err)
	require.NoError(t, tokens.Revoke(context.Background(), claims))
	code, _ = decode(t, app, "GET", "/me", map[string]string{"Authorization": "Bearer " + token})
	assert.Equal(t, fiber.StatusUnauthorized, code)
}

func TestBearerToken_CookieIgnored(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error { return c.SendString(BearerToken(c)) })

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Cookie", "token=abc")
	resp, err := app.Test(req)
	require.NoError(t, err)
	buf := make([]byte, 8)
	n, _ := resp.Body.Read(buf)
	assert.Equal(t, "", string(buf[:n]))
}

func TestErrorHandler(t *testing.T) {
	failing := func(err error) fiber.Handler {
		return func(*fiber.Ctx) error { return err }
	}
	build := func(production bool) *fiber.App {
		app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(production)})
		app.Get("/internal", failing(apperr.Internal("Failed to fetch listings", errors.New("socket closed"))))
		app.Get("/plain", failing(errors.New("boom")))
		app.Get("/validation", failing(apperr.Validation([]apperr.FieldError{{Field: "title", Message: "title is required"}})))
		return app
	}

	prod := build(true)
	code, body := decode(t, prod, "GET", "/internal", nil)
	assert.Equal(t, 500, code)
	assert.Equal(t, "Failed to fetch listings", body["error"])
	_, body = decode(t, prod, "GET", "/plain", nil)
	assert.Equal(t, "Internal Server Error", body["error"])

	dev := build(false)
	_, body = decode(t, dev, "GET", "/internal", nil)
	assert.Equal(t, "Failed to fetch listings: socket closed", body["error"])
	_, body = decode(t, dev, "GET", "/plain", nil)
	assert.Equal(t, "boom", body["error"])

	code, body = decode(t, prod, "GET", "/validation", nil)
	assert.Equal(t, 400, code)
	assert.Equal(t, "Validation failed", body["error"])
	assert.Len(t, body["details"], 1)

	code, body = decode(t, prod, "GET", "/nowhere", nil)
	assert.Equal(t, 404, code)
	assert.Equal(t, "Not Found - API endpoint does not exist or route not handled", body["error"])
}

func TestHealthMarker_RecordsErrors(t *testing.T) {
	rdb, mr := newRedis(t)
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(true)})
	app.Use(HealthMarker(rdb))
	app.Get("/api/ok", func(c *fiber.Ctx) error { return c.SendStatus(200) })
	app.Get("/api/fail", func(*fiber.Ctx) error { return errors.New("db down") })
	app.Get("/health/json", func(c *fiber.Ctx) error { return c.SendStatus(200) })

	decode(t, app, "GET", "/api/ok", nil)
	decode(t, app, "GET", "/api/fail", nil)
	decode(t, app, "GET", "/health/json", nil)

	total, err := mr.Get(KeyReqTotal)
	require.NoError(t, err)
	assert.Equal(t, "2", total)
	failed, err := mr.Get(KeyReqErrors)
	require.NoError(t, err)
	assert.Equal(t, "1", failed)

	entries, err := mr.List(KeyErrorLog)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(entries[0]), &entry))
	assert.Equal(t, "/api/fail", entry["path"])
	assert.Equal(t, "db down", entry["message"])
}

func TestHealthMarker_NilRedis(t *testing.T) {
	app := fiber.New()
	app.Use(HealthMarker(nil))
	app.Get("/api/ok", func(c *fiber.Ctx) error { return c.SendStatus(204) })
	code, _ := decode(t, app, "GET", "/api/ok", nil)
	assert.Equal(t, 204, code)
}

func TestCORS(t *testing.T) {
	app := fiber.New()
	app.Use(CORS(CORSConfig{AllowedOrigins: []string{"http://localhost:5173/"}}))
	app.Get("/api/listings", func(c *fiber.Ctx) error { return c.SendStatus(200) })

	req := httptest.NewRequest("OPTIONS", "/api/listings", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 204, resp.StatusCode)
	assert.Equal(t, "http://localhost:5173", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", resp.Header.Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest("GET", "/api/listings", nil)
	req.Header.Set("Origin", "http://evil.example")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestTracing_KeepsValidIncomingID(t *testing.T) {
	app := fiber.New()
	app.Use(Tracing())
	app.Get("/", func(c *fiber.Ctx) error { return c.SendString(GetTraceID(c)) })

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-Trace-Id", "6f1c1d5e-8d7a-4b6c-9b51-2a3f0c6d8e90")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, "6f1c1d5e-8d7a-4b6c-9b51-2a3f0c6d8e90", resp.Header.Get("X-Trace-Id"))

	req = httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-Trace-Id", "not-a-uuid")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.NotEqual(t, "not-a-uuid", resp.Header.Get("X-Trace-Id"))
	assert.Len(t, resp.Header.Get("X-Trace-Id"), 36)
}
