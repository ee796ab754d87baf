package location

import (
	"context"
	"errors"
	"math"
	"strconv"
	"strings"

	"marketplace-backend/internal/infrastructure/geocoding"
	"marketplace-backend/internal/pkg/apperr"
)

const msgLookupFailed = "Failed to retrieve zip code from coordinates."

type Service struct {
	Geocoder geocoding.Geocoder
}

type ZipResult struct {
	ZipCode          string `json:"zipCode"`
	FormattedAddress string `json:"formattedAddress"`
}

// ZipFromCoords reverse geocodes the raw latitude and longitude query values.
func (s *Service) ZipFromCoords(ctx context.Context, latitude, longitude string) (*ZipResult, error) {
	latitude, longitude = strings.TrimSpace(latitude), strings.TrimSpace(longitude)
	if latitude == "" || longitude == "" {
		return nil, apperr.BadRequest("Latitude and longitude are required.")
	}
	lat, errLat := strconv.ParseFloat(latitude, 64)
	lng, errLng := strconv.ParseFloat(longitude, 64)
	if errLat != nil || errLng != nil || math.IsNaN(lat) || math.IsNaN(lng) ||
		lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return nil, apperr.BadRequest("Latitude and longitude must be valid coordinates.")
	}
	if s.Geocoder == nil {
		return nil, apperr.Internal(msgLookupFailed, errors.New("geocoder not configured"))
	}
	res, err := s.Geocoder.ReverseGeocode(ctx, lat, lng)
	if err != nil {
		return nil, apperr.Internal(msgLookupFailed, err)
	}
	return &ZipResult{ZipCode: res.ZipCode, FormattedAddress: res.FormattedAddress}, nil
}
