package favorites

import (
	"testing"

	favsvc "marketplace-backend/internal/application/favorites"
	"marketplace-backend/internal/domain"
	"marketplace-backend/internal/interfaces/handlers/handlertest"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFavorites(t *testing.T) {
	st := handlertest.Store(t)
	h := &Handlers{Service: &favsvc.Service{Favorites: st.Favorites, Listings: st.Listings, Users: st.Users}}
	app := handlertest.App()
	auth := app.Group("", handlertest.AsUser)
	auth.Get("/ids", h.IDs)
	auth.Get("/", h.List)
	auth.Post("/", h.Add)
	auth.Delete("/:listingId", h.Remove)

	seller := handlertest.SeedUser(t, st, "seller1")
	me := handlertest.SeedUser(t, st, "shopper")
	first := handlertest.SeedListing(t, st, seller.ID, "Desk", 40)
	second := handlertest.SeedListing(t, st, seller.ID, "Chair", 20)

	code, raw := handlertest.Do(t, app, "POST", "/", map[string]string{}, me.ID)
	assert.Equal(t, fiber.StatusBadRequest, code)
	assert.Equal(t, "Listing ID is required", handlertest.Object(t, raw)["error"])

	code, _ = handlertest.Do(t, app, "POST", "/", map[string]string{"listingId": "bad"}, me.ID)
	assert.Equal(t, fiber.StatusBadRequest, code)
	code, _ = handlertest.Do(t, app, "POST", "/", map[string]string{"listingId": domain.NewID()}, me.ID)
	assert.Equal(t, fiber.StatusNotFound, code)

	code, raw = handlertest.Do(t, app, "POST", "/", map[string]string{"listingId": first.ID}, me.ID)
	require.Equal(t, fiber.StatusCreated, code)
	assert.Equal(t, "Listing favorited successfully", handlertest.Object(t, raw)["message"])

	code, raw = handlertest.Do(t, app, "POST", "/", map[string]string{"listingId": first.ID}, me.ID)
	require.Equal(t, fiber.StatusOK, code)
	again := handlertest.Object(t, raw)
	assert.Equal(t, "Already favorited", again["message"])
	assert.Equal(t, first.ID, again["favorite"].(map[string]interface{})["listing"])

	code, _ = handlertest.Do(t, app, "POST", "/", map[string]string{"listingId": second.ID}, me.ID)
	require.Equal(t, fiber.StatusCreated, code)

	code, raw = handlertest.Do(t, app, "GET", "/ids", nil, me.ID)
	require.Equal(t, fiber.StatusOK, code)
	assert.ElementsMatch(t, []interface{}{first.ID, second.ID}, handlertest.Array(t, raw))

	code, raw = handlertest.Do(t, app, "GET", "/", nil, me.ID)
	require.Equal(t, fiber.StatusOK, code)
	listings := handlertest.Array(t, raw)
	require.Len(t, listings, 2)
	assert.Equal(t, "seller1", listings[0].(map[string]interface{})["createdBy"].(map[string]interface{})["username"])

	code, raw = handlertest.Do(t, app, "DELETE", "/"+first.ID, nil, me.ID)
	require.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, "Favorite removed successfully", handlertest.Object(t, raw)["message"])

	code, raw = handlertest.Do(t, app, "DELETE", "/"+first.ID, nil, me.ID)
	assert.Equal(t, fiber.StatusNotFound, code)
	assert.Equal(t, "Favorite not found for this user/listing", handlertest.Object(t, raw)["error"])
}
