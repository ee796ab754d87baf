// Package handlertest holds fixtures shared by the handler tests: an
// in-memory store, fake collaborators and request helpers.
package handlertest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"marketplace-backend/internal/domain"
	"marketplace-backend/internal/infrastructure/geocoding"
	"marketplace-backend/internal/infrastructure/store"
	"marketplace-backend/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

// UserHeader carries the caller id into AsUser.
const UserHeader = "X-Test-User"

// Store returns a migrated in-memory store closed with the test.
func Store(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.NewMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close(context.Background()) })
	return st
}

// AsUser stands in for RequireAuth: the caller is whoever UserHeader names.
func AsUser(c *fiber.Ctx) error {
	if id := c.Get(UserHeader); id != "" {
		middleware.SetUserID(c, id)
	}
	return c.Next()
}

// App returns a fiber app with the production error handler.
func App() *fiber.App {
	return fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler(true)})
}

// Do sends body as JSON (nil for none) as user ("" for anonymous) and
// returns the status and raw body.
func Do(t *testing.T, app *fiber.App, method, path string, body interface{}, user string) (int, []byte) {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if user != "" {
		req.Header.Set(UserHeader, user)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, raw
}

// Object decodes a JSON object body.
func Object(t *testing.T, raw []byte) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	return out
}

// Array decodes a JSON array body.
func Array(t *testing.T, raw []byte) []interface{} {
	t.Helper()
	var out []interface{}
	require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	return out
}

// SeedUser stores a user with a placeholder password hash.
func SeedUser(t *testing.T, st *store.Store, username string) *domain.User {
	t.Helper()
	u := &domain.User{Username: username, Email: strings.ToLower(username) + "@example.com", PasswordHash: "x"}
	require.NoError(t, st.Users.Create(context.Background(), u))
	return u
}

// SeedListing stores an unsold listing owned by owner.
func SeedListing(t *testing.T, st *store.Store, owner, title string, price float64) *domain.Listing {
	t.Helper()
	l := &domain.Listing{
		Title:       title,
		Description: title + " in good shape",
		Price:       price,
		Category:    "Electronics",
		Condition:   "Used",
		CreatedBy:   owner,
	}
	require.NoError(t, st.Listings.Create(context.Background(), l))
	return l
}

// Geocoder resolves the zip codes in Places and fails for everything else.
type Geocoder struct {
	Places map[string]*geocoding.Result
}

func (g *Geocoder) Geocode(_ context.Context, zip string) (*geocoding.Result, error) {
	if r, ok := g.Places[zip]; ok {
		return r, nil
	}
	return nil, geocoding.ErrNoResults
}

func (g *Geocoder) ReverseGeocode(_ context.Context, lat, lng float64) (*geocoding.Result, error) {
	for _, r := range g.Places {
		if len(r.Coordinates) == 2 && r.Coordinates[0] == lng && r.Coordinates[1] == lat {
			return r, nil
		}
	}
	return nil, geocoding.ErrNoResults
}

// Place builds a geocoding result.
func Place(zip, city, state string, lng, lat float64) *geocoding.Result {
	return &geocoding.Result{
		Location:         domain.Location{ZipCode: zip, City: city, State: state, Coordinates: []float64{lng, lat}},
		FormattedAddress: city + ", " + state + " " + zip + ", USA",
	}
}

// Images records uploads and deletions in memory.
type Images struct {
	mu       sync.Mutex
	Uploaded []string
	Deleted  []string
	Fail     bool
}

func (h *Images) Upload(_ context.Context, filename, _ string, r io.Reader, _ int64) (*domain.Image, error) {
	if h.Fail {
		return nil, errors.New("image host unavailable")
	}
	if _, err := io.Copy(io.Discard, r); err != nil {
		return nil, err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	id := "marketplace/" + filename + "-" + time.Now().Format("150405.000000")
	h.Uploaded = append(h.Uploaded, id)
	return &domain.Image{PublicID: id, URL: "https://img.example.com/" + id}, nil
}

func (h *Images) Delete(_ context.Context, publicID string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Deleted = append(h.Deleted, publicID)
	return nil
}
