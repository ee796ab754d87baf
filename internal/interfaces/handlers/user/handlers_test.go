package user

import (
	"context"
	"testing"

	usersvc "marketplace-backend/internal/application/user"
	"marketplace-backend/internal/domain"
	"marketplace-backend/internal/infrastructure/geocoding"
	"marketplace-backend/internal/infrastructure/store"
	"marketplace-backend/internal/interfaces/handlers/handlertest"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupUserApp(t *testing.T) (*fiber.App, *store.Store) {
	st := handlertest.Store(t)
	geo := &handlertest.Geocoder{Places: map[string]*geocoding.Result{
		"10001": handlertest.Place("10001", "New York", "NY", -73.99, 40.75),
	}}
	h := &Handlers{Service: &usersvc.Service{Users: st.Users, Listings: st.Listings, Reviews: st.Reviews, Geocoder: geo}}

	app := handlertest.App()
	app.Get("/profile/:userId", h.PublicProfile)
	auth := app.Group("", handlertest.AsUser)
	auth.Get("/list", h.List)
	auth.Get("/profile", h.Profile)
	auth.Put("/profile", h.UpdateProfile)
	auth.Get("/purchases", h.Purchases)
	auth.Get("/sold-items", h.SoldItems)
	return app, st
}

func TestList_ExcludesCaller(t *testing.T) {
	app, st := setupUserApp(t)
	me := handlertest.SeedUser(t, st, "zed_user")
	handlertest.SeedUser(t, st, "bob_user")
	handlertest.SeedUser(t, st, "amy_user")

	code, raw := handlertest.Do(t, app, "GET", "/list", nil, me.ID)
	require.Equal(t, fiber.StatusOK, code)
	users := handlertest.Array(t, raw)
	require.Len(t, users, 2)
	assert.Equal(t, "amy_user", users[0].(map[string]interface{})["username"])
	assert.NotContains(t, users[0], "email")
}

func TestProfile_HidesPassword(t *testing.T) {
	app, st := setupUserApp(t)
	me := handlertest.SeedUser(t, st, "alice123")

	code, raw := handlertest.Do(t, app, "GET", "/profile", nil, me.ID)
	require.Equal(t, fiber.StatusOK, code)
	out := handlertest.Object(t, raw)
	assert.Equal(t, "alice123", out["username"])
	assert.NotContains(t, out, "password")
	assert.NotContains(t, out, "PasswordHash")
}

func TestUpdateProfile(t *testing.T) {
	app, st := setupUserApp(t)
	me := handlertest.SeedUser(t, st, "alice123")
	handlertest.SeedUser(t, st, "taken_name")

	code, raw := handlertest.Do(t, app, "PUT", "/profile", map[string]interface{}{"username": " abc "}, me.ID)
	assert.Equal(t, fiber.StatusBadRequest, code)
	body := handlertest.Object(t, raw)
	assert.Equal(t, "Validation failed", body["error"])
	details := body["details"].([]interface{})
	require.Len(t, details, 1)
	assert.Equal(t, "username", details[0].(map[string]interface{})["field"])
	assert.Equal(t, "username must be at least 4 characters", details[0].(map[string]interface{})["message"])

	code, _ = handlertest.Do(t, app, "PUT", "/profile", map[string]interface{}{"username": "abcdefghijklmnopqrstu"}, me.ID)
	assert.Equal(t, fiber.StatusBadRequest, code)

	code, raw = handlertest.Do(t, app, "PUT", "/profile", map[string]interface{}{"username": "taken_name"}, me.ID)
	assert.Equal(t, fiber.StatusConflict, code)
	assert.Equal(t, "Username is already taken", handlertest.Object(t, raw)["error"])

	code, raw = handlertest.Do(t, app, "PUT", "/profile", map[string]interface{}{"location": map[string]string{"zipCode": "99999"}}, me.ID)
	assert.Equal(t, fiber.StatusBadRequest, code)
	assert.Equal(t, "Invalid zip code", handlertest.Object(t, raw)["error"])

	code, raw = handlertest.Do(t, app, "PUT", "/profile", map[string]interface{}{
		"firstName": " Alice ",
		"location":  map[string]string{"zipCode": "10001"},
	}, me.ID)
	require.Equal(t, fiber.StatusOK, code)
	out := handlertest.Object(t, raw)
	assert.Equal(t, "Alice", out["firstName"])
	loc := out["location"].(map[string]interface{})
	assert.Equal(t, "New York", loc["city"])
	assert.Equal(t, "10001", loc["zipCode"])
}

func TestPublicProfile(t *testing.T) {
	app, st := setupUserApp(t)
	ctx := context.Background()
	seller := handlertest.SeedUser(t, st, "seller1")
	buyer := handlertest.SeedUser(t, st, "buyer1")
	handlertest.SeedListing(t, st, seller.ID, "Desk", 40)
	sold := handlertest.SeedListing(t, st, seller.ID, "Chair", 15)
	_, err := st.Listings.MarkSold(ctx, sold.ID, buyer.ID, false)
	require.NoError(t, err)
	require.NoError(t, st.Reviews.Create(ctx, &domain.Review{
		ReviewerID: buyer.ID, RevieweeID: seller.ID, RoleReviewed: domain.RoleSeller, Rating: 4, TransactionID: sold.ID,
	}))

	code, _ := handlertest.Do(t, app, "GET", "/profile/not-an-id", nil, "")
	assert.Equal(t, fiber.StatusBadRequest, code)
	code, _ = handlertest.Do(t, app, "GET", "/profile/"+domain.NewID(), nil, "")
	assert.Equal(t, fiber.StatusNotFound, code)

	code, raw := handlertest.Do(t, app, "GET", "/profile/"+seller.ID, nil, "")
	require.Equal(t, fiber.StatusOK, code)
	out := handlertest.Object(t, raw)
	assert.Equal(t, "seller1", out["user"].(map[string]interface{})["username"])
	assert.Len(t, out["listings"], 1)
	assert.Equal(t, 4.0, out["averageRating"])
	assert.Equal(t, 1.0, out["totalReviews"])
	review := out["reviews"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, "buyer1", review["reviewer"].(map[string]interface{})["username"])
}

func TestPurchasesAndSoldItems(t *testing.T) {
	app, st := setupUserApp(t)
	seller := handlertest.SeedUser(t, st, "seller1")
	buyer := handlertest.SeedUser(t, st, "buyer1")
	l := handlertest.SeedListing(t, st, seller.ID, "Lamp", 12)
	_, err := st.Listings.MarkSold(context.Background(), l.ID, buyer.ID, false)
	require.NoError(t, err)

	code, raw := handlertest.Do(t, app, "GET", "/purchases", nil, buyer.ID)
	require.Equal(t, fiber.StatusOK, code)
	bought := handlertest.Array(t, raw)
	require.Len(t, bought, 1)
	assert.Equal(t, "seller1", bought[0].(map[string]interface{})["createdBy"].(map[string]interface{})["username"])

	code, raw = handlertest.Do(t, app, "GET", "/sold-items", nil, seller.ID)
	require.Equal(t, fiber.StatusOK, code)
	soldItems := handlertest.Array(t, raw)
	require.Len(t, soldItems, 1)
	assert.Equal(t, "buyer1", soldItems[0].(map[string]interface{})["buyer"].(map[string]interface{})["username"])
}
