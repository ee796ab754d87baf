package geocoding

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"googlemaps.github.io/maps"
)

const testKey = "AIzaTestKey"

const zipBody = `{"status":"OK","results":[{"formatted_address":"New York, NY 10001, USA",
 "address_components":[
  {"long_name":"10001","short_name":"10001","types":["postal_code"]},
  {"long_name":"New York","short_name":"New York","types":["locality","political"]},
  {"long_name":"New York","short_name":"NY","types":["administrative_area_level_1","political"]}],
 "geometry":{"location":{"lat":40.7506,"lng":-73.9972}}}]}`

func newClient(t *testing.T, body string, check func(r *http.Request)) *GoogleClient {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/maps/api/geocode/json", r.URL.Path)
		if check != nil {
			check(r)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	c, err := NewGoogle(testKey, maps.WithBaseURL(srv.URL))
	require.NoError(t, err)
	return c
}

func TestGeocode_ParsesPlace(t *testing.T) {
	c := newClient(t, zipBody, func(r *http.Request) {
		assert.Equal(t, "10001", r.URL.Query().Get("address"))
		assert.Equal(t, testKey, r.URL.Query().Get("key"))
	})

	res, err := c.Geocode(context.Background(), "10001")
	require.NoError(t, err)
	assert.Equal(t, "10001", res.ZipCode)
	assert.Equal(t, "New York", res.City)
	assert.Equal(t, "NY", res.State)
	assert.Equal(t, []float64{-73.9972, 40.7506}, res.Coordinates)
}

func TestReverseGeocode_FindsPostalCode(t *testing.T) {
	c := newClient(t, zipBody, func(r *http.Request) {
		assert.Equal(t, "40.75,-73.99", r.URL.Query().Get("latlng"))
	})

	res, err := c.ReverseGeocode(context.Background(), 40.75, -73.99)
	require.NoError(t, err)
	assert.Equal(t, "10001", res.ZipCode)
	assert.Equal(t, "New York, NY 10001, USA", res.FormattedAddress)
	assert.Equal(t, []float64{-73.99, 40.75}, res.Coordinates)
}

func TestGeocode_ZeroResults(t *testing.T) {
	c := newClient(t, `{"status":"ZERO_RESULTS","results":[]}`, nil)

	_, err := c.Geocode(context.Background(), "00000")
	assert.ErrorIs(t, err, ErrNoResults)
}

func TestGeocode_MissingKey(t *testing.T) {
	_, err := NewGoogle("")
	assert.Error(t, err)
}

func TestGeocode_RequestDenied(t *testing.T) {
	c := newClient(t, `{"status":"REQUEST_DENIED","error_message":"The provided API key is invalid.","results":[]}`, nil)

	_, err := c.Geocode(context.Background(), "10001")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoResults)
}
