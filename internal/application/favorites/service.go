package favorites

import (
	"context"
	"errors"
	"strings"

	"marketplace-backend/internal/application/refs"
	"marketplace-backend/internal/domain"
	"marketplace-backend/internal/pkg/apperr"
)

type Service struct {
	Favorites domain.FavoriteRepository
	Listings  domain.ListingRepository
	Users     domain.UserRepository
}

// AddResult tells the handler whether the favorite was new. Favorite is nil
// when a concurrent request won the insert.
type AddResult struct {
	Created  bool
	Favorite *domain.Favorite
}

func (s *Service) IDs(ctx context.Context, userID string) ([]string, error) {
	favs, err := s.Favorites.ListForUser(ctx, userID)
	if err != nil {
		return nil, apperr.Internal("Failed to fetch favorite IDs", err)
	}
	ids := make([]string, 0, len(favs))
	for _, f := range favs {
		ids = append(ids, f.ListingID)
	}
	return ids, nil
}

// ListFavorites returns the favorited listings, newest favorite first. Listings
// deleted since they were favorited are dropped.
func (s *Service) ListFavorites(ctx context.Context, userID string) ([]domain.ListingView, error) {
	const failure = "Failed to fetch favorites"
	favs, err := s.Favorites.ListForUser(ctx, userID)
	if err != nil {
		return nil, apperr.Internal(failure, err)
	}
	ids := make([]string, 0, len(favs))
	for _, f := range favs {
		ids = append(ids, f.ListingID)
	}
	found, err := refs.Listings(ctx, s.Listings, ids)
	if err != nil {
		return nil, apperr.Internal(failure, err)
	}
	ordered := make([]domain.Listing, 0, len(found))
	for _, id := range ids {
		if l, ok := found[id]; ok {
			ordered = append(ordered, *l)
		}
	}
	views, err := refs.ListingViews(ctx, s.Users, ordered, false)
	if err != nil {
		return nil, apperr.Internal(failure, err)
	}
	return views, nil
}

// Add favorites listingID. Adding twice is not an error.
func (s *Service) Add(ctx context.Context, userID, listingID string) (*AddResult, error) {
	const failure = "Failed to add favorite"
	listingID = strings.TrimSpace(listingID)
	if listingID == "" {
		return nil, apperr.BadRequest("Listing ID is required")
	}
	if !domain.IsValidID(listingID) {
		return nil, apperr.BadRequest("Invalid listing ID format")
	}
	if _, err := s.Listings.FindByID(ctx, listingID); errors.Is(err, domain.ErrNotFound) {
		return nil, apperr.NotFound("Listing not found")
	} else if err != nil {
		return nil, apperr.Internal(failure, err)
	}

	existing, err := s.Favorites.Find(ctx, userID, listingID)
	if err == nil {
		return &AddResult{Favorite: existing}, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, apperr.Internal(failure, err)
	}

	f := &domain.Favorite{UserID: userID, ListingID: listingID}
	if err := s.Favorites.Add(ctx, f); err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			return &AddResult{}, nil
		}
		return nil, apperr.Internal(failure, err)
	}
	return &AddResult{Created: true, Favorite: f}, nil
}

func (s *Service) Remove(ctx context.Context, userID, listingID string) error {
	err := s.Favorites.Remove(ctx, userID, listingID)
	if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrInvalidID) {
		return apperr.NotFound("Favorite not found for this user/listing")
	}
	if err != nil {
		return apperr.Internal("Failed to remove favorite", err)
	}
	return nil
}
