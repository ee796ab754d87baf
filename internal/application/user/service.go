package user

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"marketplace-backend/internal/application/refs"
	"marketplace-backend/internal/domain"
	"marketplace-backend/internal/infrastructure/geocoding"
	"marketplace-backend/internal/pkg/apperr"
	"marketplace-backend/internal/pkg/validation"
)

const profileListLimit = 10

// Service holds the repositories behind the user endpoints.
type Service struct {
	Users    domain.UserRepository
	Listings domain.ListingRepository
	Reviews  domain.ReviewRepository
	Geocoder geocoding.Geocoder
}

// UpdateProfileInput is the PUT /profile body. Absent fields stay unchanged.
type UpdateProfileInput struct {
	Username  *string        `json:"username" validate:"omitnil,min=4,max=20"`
	FirstName *string        `json:"firstName"`
	LastName  *string        `json:"lastName"`
	Location  *LocationInput `json:"location"`
}

type LocationInput struct {
	ZipCode string `json:"zipCode"`
}

// PublicProfile is what anyone can see about a user.
type PublicProfile struct {
	User          PublicUser          `json:"user"`
	Listings      []domain.Listing    `json:"listings"`
	Reviews       []domain.ReviewView `json:"reviews"`
	AverageRating float64             `json:"averageRating"`
	TotalReviews  int64               `json:"totalReviews"`
}

type PublicUser struct {
	Username  string          `json:"username"`
	CreatedAt time.Time       `json:"createdAt"`
	Location  *PublicLocation `json:"location,omitempty"`
}

type PublicLocation struct {
	City  string `json:"city,omitempty"`
	State string `json:"state,omitempty"`
}

// List returns every other user, ordered by username.
func (s *Service) List(ctx context.Context, callerID string) ([]domain.UserRef, error) {
	users, err := s.Users.ListExcept(ctx, callerID)
	if err != nil {
		return nil, apperr.Internal("Failed to fetch users", err)
	}
	for i := range users {
		users[i].Email = ""
	}
	return users, nil
}

func (s *Service) Profile(ctx context.Context, userID string) (*domain.User, error) {
	u, err := s.Users.FindByID(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrInvalidID) {
		return nil, apperr.NotFound("User not found")
	}
	if err != nil {
		return nil, apperr.Internal("Failed to fetch profile", err)
	}
	return u, nil
}

func (s *Service) UpdateProfile(ctx context.Context, userID string, in UpdateProfileInput) (*domain.User, error) {
	if in.Username != nil {
		name := strings.TrimSpace(*in.Username)
		in.Username = &name
	}
	if err := validation.Check(in); err != nil {
		return nil, err
	}

	var upd domain.ProfileUpdate
	if in.Username != nil {
		name := *in.Username
		existing, err := s.Users.FindByUsername(ctx, name)
		switch {
		case err == nil && existing.ID != userID:
			return nil, apperr.Conflict("Username is already taken")
		case err != nil && !errors.Is(err, domain.ErrNotFound):
			return nil, apperr.Internal("Failed to update profile", err)
		}
		upd.Username = &name
	}
	if in.FirstName != nil {
		v := strings.TrimSpace(*in.FirstName)
		upd.FirstName = &v
	}
	if in.LastName != nil {
		v := strings.TrimSpace(*in.LastName)
		upd.LastName = &v
	}
	if in.Location != nil && strings.TrimSpace(in.Location.ZipCode) != "" {
		loc, err := s.geocode(ctx, in.Location.ZipCode)
		if err != nil {
			return nil, err
		}
		upd.Location = loc
	}

	u, err := s.Users.UpdateProfile(ctx, userID, upd)
	switch {
	case errors.Is(err, domain.ErrDuplicate):
		return nil, apperr.Conflict("Username is already taken")
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrInvalidID):
		return nil, apperr.NotFound("User not found")
	case err != nil:
		return nil, apperr.Internal("Failed to update profile", err)
	}
	return u, nil
}

// geocode resolves zip into a location. Without a geocoder the zip is kept as is.
func (s *Service) geocode(ctx context.Context, zip string) (*domain.Location, error) {
	zip = strings.TrimSpace(zip)
	if s.Geocoder == nil {
		return &domain.Location{ZipCode: zip}, nil
	}
	res, err := s.Geocoder.Geocode(ctx, zip)
	if err != nil {
		return nil, apperr.BadRequest("Invalid zip code")
	}
	loc := res.Location
	loc.ZipCode = zip
	return &loc, nil
}

func (s *Service) PublicProfile(ctx context.Context, userID string) (*PublicProfile, error) {
	if !domain.IsValidID(userID) {
		return nil, apperr.BadRequest("Invalid user ID format")
	}
	u, err := s.Users.FindByID(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, apperr.NotFound("User not found")
	}
	if err != nil {
		return nil, apperr.Internal("Failed to fetch profile", err)
	}

	unsold := false
	listings, err := s.Listings.Find(ctx, domain.ListingFilter{
		CreatedBy: userID,
		Sold:      &unsold,
		Sort:      domain.SortNewest,
		Limit:     profileListLimit,
	})
	if err != nil {
		return nil, apperr.Internal("Failed to fetch profile", err)
	}
	reviews, err := s.Reviews.ListForReviewee(ctx, userID, profileListLimit)
	if err != nil {
		return nil, apperr.Internal("Failed to fetch profile", err)
	}
	total, err := s.Reviews.CountForReviewee(ctx, userID)
	if err != nil {
		return nil, apperr.Internal("Failed to fetch profile", err)
	}
	ids := make([]string, 0, len(reviews))
	for _, r := range reviews {
		ids = append(ids, r.ReviewerID)
	}
	reviewers, err := refs.Users(ctx, s.Users, ids, false)
	if err != nil {
		return nil, apperr.Internal("Failed to fetch profile", err)
	}

	out := &PublicProfile{
		User:         PublicUser{Username: u.Username, CreatedAt: u.CreatedAt},
		Listings:     listings,
		Reviews:      make([]domain.ReviewView, 0, len(reviews)),
		TotalReviews: total,
	}
	if u.Location != nil && (u.Location.City != "" || u.Location.State != "") {
		out.User.Location = &PublicLocation{City: u.Location.City, State: u.Location.State}
	}
	sum := 0
	for _, r := range reviews {
		v := domain.ReviewView{Review: r}
		if ref, ok := reviewers[r.ReviewerID]; ok {
			v.Reviewer = &ref
		}
		out.Reviews = append(out.Reviews, v)
		sum += r.Rating
	}
	if len(reviews) > 0 {
		out.AverageRating = math.Round(float64(sum)/float64(len(reviews))*10) / 10
	}
	return out, nil
}

// Purchases lists the sold listings bought by userID with their sellers.
func (s *Service) Purchases(ctx context.Context, userID string) ([]domain.ListingView, error) {
	sold := true
	listings, err := s.Listings.Find(ctx, domain.ListingFilter{BuyerID: userID, Sold: &sold, Sort: domain.SortNewest})
	if err != nil {
		return nil, apperr.Internal("Failed to fetch purchases", err)
	}
	views, err := refs.ListingViews(ctx, s.Users, listings, false)
	if err != nil {
		return nil, apperr.Internal("Failed to fetch purchases", err)
	}
	return views, nil
}

// SoldItems lists userID's sold listings with their buyers.
func (s *Service) SoldItems(ctx context.Context, userID string) ([]domain.ListingView, error) {
	sold := true
	listings, err := s.Listings.Find(ctx, domain.ListingFilter{CreatedBy: userID, Sold: &sold, Sort: domain.SortNewest})
	if err != nil {
		return nil, apperr.Internal("Failed to fetch sold items", err)
	}
	views, err := refs.ListingViews(ctx, s.Users, listings, true)
	if err != nil {
		return nil, apperr.Internal("Failed to fetch sold items", err)
	}
	return views, nil
}
