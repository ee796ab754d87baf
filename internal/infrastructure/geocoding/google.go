// Package geocoding resolves zip codes and coordinates through the Google
// Geocoding API.
package geocoding

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"marketplace-backend/internal/domain"

	"googlemaps.github.io/maps"
)

// ErrNoResults is returned when the API knows no place for the input.
var ErrNoResults = errors.New("geocoding: no results")

// Result is a geocoded place. Coordinates are [lng, lat].
type Result struct {
	domain.Location
	FormattedAddress string `json:"formattedAddress"`
}

// Geocoder turns zip codes into places and coordinates into zip codes.
type Geocoder interface {
	Geocode(ctx context.Context, zipCode string) (*Result, error)
	ReverseGeocode(ctx context.Context, lat, lng float64) (*Result, error)
}

// GoogleClient is a Geocoder backed by the Google Maps client.
type GoogleClient struct {
	client *maps.Client
}

// NewGoogle builds a client for apiKey. Extra options are applied after the
// key, so tests can point the client at another base URL.
func NewGoogle(apiKey string, opts ...maps.ClientOption) (*GoogleClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("geocoding: GOOGLE_MAPS_API_KEY is not set")
	}
	c, err := maps.NewClient(append([]maps.ClientOption{maps.WithAPIKey(apiKey)}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("geocoding: %w", err)
	}
	return &GoogleClient{client: c}, nil
}

func (c *GoogleClient) Geocode(ctx context.Context, zipCode string) (*Result, error) {
	zipCode = strings.TrimSpace(zipCode)
	results, err := c.client.Geocode(ctx, &maps.GeocodingRequest{Address: zipCode})
	if err = check(results, err); err != nil {
		return nil, err
	}
	first := results[0]
	res := &Result{FormattedAddress: first.FormattedAddress}
	res.ZipCode = zipCode
	res.Coordinates = []float64{first.Geometry.Location.Lng, first.Geometry.Location.Lat}
	fillPlace(res, first.AddressComponents)
	return res, nil
}

func (c *GoogleClient) ReverseGeocode(ctx context.Context, lat, lng float64) (*Result, error) {
	results, err := c.client.ReverseGeocode(ctx, &maps.GeocodingRequest{LatLng: &maps.LatLng{Lat: lat, Lng: lng}})
	if err = check(results, err); err != nil {
		return nil, err
	}
	first := results[0]
	res := &Result{FormattedAddress: first.FormattedAddress}
	res.Coordinates = []float64{lng, lat}
	for _, comp := range first.AddressComponents {
		if hasType(comp.Types, "postal_code") {
			res.ZipCode = comp.LongName
			break
		}
	}
	fillPlace(res, first.AddressComponents)
	return res, nil
}

// check folds an empty result set and the client's ZERO_RESULTS status error
// into ErrNoResults.
func check(results []maps.GeocodingResult, err error) error {
	if err != nil {
		if strings.Contains(err.Error(), "ZERO_RESULTS") {
			return ErrNoResults
		}
		return fmt.Errorf("geocoding request: %w", err)
	}
	if len(results) == 0 {
		return ErrNoResults
	}
	return nil
}

func fillPlace(res *Result, comps []maps.AddressComponent) {
	for _, comp := range comps {
		switch {
		case hasType(comp.Types, "locality"):
			res.City = comp.LongName
		case hasType(comp.Types, "administrative_area_level_1"):
			res.State = comp.ShortName
		}
	}
}

func hasType(types []string, want string) bool {
	for _, t := range types {
		if t == want {
			return true
		}
	}
	return false
}
