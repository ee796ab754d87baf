package location

import (
	"testing"

	locsvc "marketplace-backend/internal/application/location"
	"marketplace-backend/internal/infrastructure/geocoding"
	"marketplace-backend/internal/interfaces/handlers/handlertest"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZipFromCoords(t *testing.T) {
	geo := &handlertest.Geocoder{Places: map[string]*geocoding.Result{
		"94103": handlertest.Place("94103", "San Francisco", "CA", -122.41, 37.77),
	}}
	h := &Handlers{Service: &locsvc.Service{Geocoder: geo}}
	app := handlertest.App()
	app.Get("/zip-from-coords", h.ZipFromCoords)

	code, raw := handlertest.Do(t, app, "GET", "/zip-from-coords?latitude=37.77", nil, "")
	assert.Equal(t, fiber.StatusBadRequest, code)
	assert.Equal(t, "Latitude and longitude are required.", handlertest.Object(t, raw)["error"])

	code, _ = handlertest.Do(t, app, "GET", "/zip-from-coords?latitude=abc&longitude=1", nil, "")
	assert.Equal(t, fiber.StatusBadRequest, code)

	code, raw = handlertest.Do(t, app, "GET", "/zip-from-coords?latitude=37.77&longitude=-122.41", nil, "")
	require.Equal(t, fiber.StatusOK, code)
	out := handlertest.Object(t, raw)
	assert.Equal(t, "94103", out["zipCode"])
	assert.Equal(t, "San Francisco, CA 94103, USA", out["formattedAddress"])

	code, raw = handlertest.Do(t, app, "GET", "/zip-from-coords?latitude=10&longitude=10", nil, "")
	assert.Equal(t, fiber.StatusInternalServerError, code)
	assert.Equal(t, "Failed to retrieve zip code from coordinates.", handlertest.Object(t, raw)["error"])
}
