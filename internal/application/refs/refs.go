// Package refs populates user and listing references for API responses.
package refs

import (
	"context"

	"marketplace-backend/internal/domain"
)

// Users loads the referenced users keyed by id. Email is kept only when
// withEmail is set.
func Users(ctx context.Context, repo domain.UserRepository, ids []string, withEmail bool) (map[string]domain.UserRef, error) {
	found, err := repo.FindRefs(ctx, unique(ids))
	if err != nil {
		return nil, err
	}
	out := make(map[string]domain.UserRef, len(found))
	for _, u := range found {
		if !withEmail {
			u.Email = ""
		}
		out[u.ID] = u
	}
	return out, nil
}

// Listings loads the referenced listings keyed by id.
func Listings(ctx context.Context, repo domain.ListingRepository, ids []string) (map[string]*domain.Listing, error) {
	found, err := repo.FindByIDs(ctx, unique(ids))
	if err != nil {
		return nil, err
	}
	out := make(map[string]*domain.Listing, len(found))
	for i := range found {
		out[found[i].ID] = &found[i]
	}
	return out, nil
}

// ListingViews attaches the seller, and the buyer when withBuyer is set.
func ListingViews(ctx context.Context, repo domain.UserRepository, listings []domain.Listing, withBuyer bool) ([]domain.ListingView, error) {
	ids := make([]string, 0, len(listings)*2)
	for _, l := range listings {
		ids = append(ids, l.CreatedBy)
		if withBuyer && l.BuyerID != "" {
			ids = append(ids, l.BuyerID)
		}
	}
	users, err := Users(ctx, repo, ids, false)
	if err != nil {
		return nil, err
	}
	out := make([]domain.ListingView, 0, len(listings))
	for _, l := range listings {
		v := domain.ListingView{Listing: l, CreatedBy: lookup(users, l.CreatedBy)}
		if withBuyer {
			v.Buyer = lookup(users, l.BuyerID)
		}
		out = append(out, v)
	}
	return out, nil
}

func lookup(m map[string]domain.UserRef, id string) *domain.UserRef {
	if u, ok := m[id]; ok {
		return &u
	}
	return nil
}

func unique(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
