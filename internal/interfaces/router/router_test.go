package router

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"marketplace-backend/internal/config"
	"marketplace-backend/internal/infrastructure/store"
	"marketplace-backend/internal/pkg/metrics"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupApp(t *testing.T) *fiber.App {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	st, err := store.NewMemory()
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = st.Close(context.Background())
		rdb.Close()
		mr.Close()
	})
	cfg := &config.Config{
		Env:            "test",
		JWTSecret:      "router-test-secret",
		JWTExpiresIn:   time.Hour,
		SaltRounds:     4,
		ClientURL:      "http://localhost:5173",
		HealthAdminKey: "admin",
	}
	return CreateApp(cfg, Deps{Store: st, Redis: rdb, Metrics: metrics.New()})
}

func call(t *testing.T, app *fiber.App, method, path string, body interface{}, token string) (int, []byte) {
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, raw
}

func register(t *testing.T, app *fiber.App, username, email string) string {
	code, raw := call(t, app, "POST", "/api/auth/register", map[string]string{
		"username": username, "email": email, "password": "Password1!",
	}, "")
	require.Equal(t, fiber.StatusOK, code, string(raw))
	var out map[string]string
	require.NoError(t, json.Unmarshal(raw, &out))
	return out["token"]
}

func TestMarketplaceFlow(t *testing.T) {
	app := setupApp(t)
	sellerToken := register(t, app, "seller1", "seller@example.com")
	buyerToken := register(t, app, "buyer1", "buyer@example.com")

	code, _ := call(t, app, "POST", "/api/listings", map[string]interface{}{
		"title": "Bike", "description": "Road bike", "price": 120, "category": "Sports", "condition": "Used",
	}, "")
	assert.Equal(t, fiber.StatusUnauthorized, code)

	code, raw := call(t, app, "POST", "/api/listings", map[string]interface{}{
		"title": "Bike", "description": "Road bike", "price": 120, "category": "Sports", "condition": "Used",
	}, sellerToken)
	require.Equal(t, fiber.StatusCreated, code, string(raw))
	var created struct {
		Listing struct {
			ID string `json:"_id"`
		} `json:"listing"`
	}
	require.NoError(t, json.Unmarshal(raw, &created))
	listingID := created.Listing.ID

	code, raw = call(t, app, "GET", "/api/listings/search?query=bike", nil, "")
	require.Equal(t, fiber.StatusOK, code, string(raw))
	var found []map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &found))
	require.Len(t, found, 1)

	code, raw = call(t, app, "POST", "/api/messages/offer", map[string]interface{}{
		"listingId": listingID, "offeredPrice": 100,
	}, buyerToken)
	require.Equal(t, fiber.StatusCreated, code, string(raw))

	code, raw = call(t, app, "GET", "/api/listings/"+listingID+"/potential-buyers", nil, sellerToken)
	require.Equal(t, fiber.StatusOK, code, string(raw))
	var buyers []map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &buyers))
	require.Len(t, buyers, 1)
	buyerID := buyers[0]["_id"].(string)

	code, _ = call(t, app, "PUT", "/api/listings/"+listingID+"/sold", map[string]string{"buyerId": buyerID}, sellerToken)
	require.Equal(t, fiber.StatusOK, code)

	code, raw = call(t, app, "POST", "/api/reviews", map[string]interface{}{
		"revieweeId": buyerID, "listingId": listingID, "rating": 5,
	}, sellerToken)
	require.Equal(t, fiber.StatusCreated, code, string(raw))

	code, raw = call(t, app, "GET", "/api/users/purchases", nil, buyerToken)
	require.Equal(t, fiber.StatusOK, code)
	var purchases []map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &purchases))
	assert.Len(t, purchases, 1)
}

func TestUnknownRoute(t *testing.T) {
	app := setupApp(t)
	code, raw := call(t, app, "GET", "/api/nothing-here", nil, "")
	assert.Equal(t, fiber.StatusNotFound, code)
	assert.JSONEq(t, `{"error":"Not Found - API endpoint does not exist or route not handled"}`, string(raw))
}

func TestHealthAndMetricsEndpoints(t *testing.T) {
	app := setupApp(t)
	register(t, app, "alice123", "a@x.com")

	code, raw := call(t, app, "GET", "/health/json", nil, "")
	require.Equal(t, fiber.StatusOK, code)
	var health map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &health))
	assert.Equal(t, "ok", health["status"])
	assert.Equal(t, 1.0, health["traffic"].(map[string]interface{})["totalRequests"])

	code, raw = call(t, app, "GET", "/metrics", nil, "")
	require.Equal(t, fiber.StatusOK, code)
	assert.Contains(t, string(raw), "marketplace_users_registered_total 1")
	assert.Contains(t, string(raw), `route="/api/auth/register"`)
}
