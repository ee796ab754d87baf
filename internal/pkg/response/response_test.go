package response

import (
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"

	"marketplace-backend/internal/pkg/apperr"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromError_ClientError(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		return FromError(c, apperr.Validation([]apperr.FieldError{{Field: "email", Message: "Email is required"}}))
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	assert.Equal(t, 400, resp.StatusCode)

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "Validation failed", body["error"])
	details, ok := body["details"].([]interface{})
	require.True(t, ok)
	assert.Len(t, details, 1)
}

func TestFromError_ServerErrorPassesThrough(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: func(c *fiber.Ctx, err error) error {
		return Error(c, "handled", 500, nil)
	}})
	app.Get("/", func(c *fiber.Ctx) error {
		return FromError(c, errors.New("db down"))
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	assert.Equal(t, 500, resp.StatusCode)

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "handled", body["error"])
	_, hasDetails := body["details"]
	assert.False(t, hasDetails)
}
