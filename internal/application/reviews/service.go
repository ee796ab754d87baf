package reviews

import (
	"context"
	"errors"
	"strings"

	"marketplace-backend/internal/application/refs"
	"marketplace-backend/internal/domain"
	"marketplace-backend/internal/pkg/apperr"
	"marketplace-backend/internal/pkg/metrics"
	"marketplace-backend/internal/pkg/validation"
)

const msgDuplicate = "You have already submitted a review for this transaction"

type Service struct {
	Reviews  domain.ReviewRepository
	Listings domain.ListingRepository
	Users    domain.UserRepository
	Metrics  *metrics.Metrics
}

type CreateInput struct {
	RevieweeID string `json:"revieweeId" validate:"required,objectid"`
	ListingID  string `json:"listingId" validate:"required,objectid"`
	Rating     *int   `json:"rating" validate:"required,min=1,max=5"`
	Comment    string `json:"comment" validate:"max=150"`
}

// UserReviews is every review a user received.
type UserReviews struct {
	Reviews       []domain.ReviewView `json:"reviews"`
	AverageRating float64             `json:"averageRating"`
	TotalReviews  int                 `json:"totalReviews"`
}

// Create stores a review of one side of a sold listing by the other side.
func (s *Service) Create(ctx context.Context, reviewerID string, in CreateInput) (*domain.ReviewView, error) {
	const failure = "Failed to submit review"
	in.Comment = strings.TrimSpace(in.Comment)
	if err := validation.Check(in); err != nil {
		return nil, err
	}
	if reviewerID == in.RevieweeID {
		return nil, apperr.Forbidden("Cannot review yourself")
	}

	listing, err := s.Listings.FindByID(ctx, in.ListingID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, apperr.NotFound("Listing (transaction) not found")
	}
	if err != nil {
		return nil, apperr.Internal(failure, err)
	}
	role, err := Eligibility(listing, reviewerID, in.RevieweeID)
	if err != nil {
		return nil, err
	}

	exists, err := s.Reviews.Exists(ctx, reviewerID, in.RevieweeID, listing.ID)
	if err != nil {
		return nil, apperr.Internal(failure, err)
	}
	if exists {
		return nil, apperr.Conflict(msgDuplicate)
	}

	r := &domain.Review{
		ReviewerID:    reviewerID,
		RevieweeID:    in.RevieweeID,
		RoleReviewed:  role,
		Rating:        *in.Rating,
		Comment:       in.Comment,
		TransactionID: listing.ID,
	}
	if err := s.Reviews.Create(ctx, r); err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			return nil, apperr.Conflict(msgDuplicate)
		}
		return nil, apperr.Internal(failure, err)
	}
	s.Metrics.ReviewCreated()

	users, err := refs.Users(ctx, s.Users, []string{r.ReviewerID, r.RevieweeID}, false)
	if err != nil {
		return nil, apperr.Internal(failure, err)
	}
	v := &domain.ReviewView{Review: *r}
	if u, ok := users[r.ReviewerID]; ok {
		v.Reviewer = &u
	}
	if u, ok := users[r.RevieweeID]; ok {
		v.Reviewee = &u
	}
	return v, nil
}

// Eligibility checks that reviewer and reviewee are the two sides of the
// sold listing and returns the role being reviewed.
func Eligibility(l *domain.Listing, reviewerID, revieweeID string) (domain.Role, error) {
	if !l.Sold {
		return "", apperr.BadRequest("Cannot review a listing that has not been marked as sold")
	}
	seller, buyer := l.CreatedBy, l.BuyerID
	party := func(id string) bool { return id == seller || (buyer != "" && id == buyer) }

	if !party(reviewerID) {
		return "", apperr.Forbidden("You were not part of this transaction")
	}
	if l.SoldExternally && reviewerID == seller {
		return "", apperr.BadRequest("Cannot review buyer for an externally sold item")
	}
	if !party(revieweeID) {
		return "", apperr.BadRequest("The reviewed user was not part of this transaction")
	}
	if !(reviewerID == seller && revieweeID == buyer) && !(reviewerID == buyer && revieweeID == seller) {
		return "", apperr.Forbidden("Reviewer and reviewee do not match transaction participants")
	}
	if revieweeID == seller {
		return domain.RoleSeller, nil
	}
	return domain.RoleBuyer, nil
}

// ForUser returns every review userID received, newest first.
func (s *Service) ForUser(ctx context.Context, userID string) (*UserReviews, error) {
	const failure = "Failed to fetch reviews"
	if !domain.IsValidID(userID) {
		return nil, apperr.BadRequest("Invalid user ID format")
	}
	if _, err := s.Users.FindByID(ctx, userID); errors.Is(err, domain.ErrNotFound) {
		return nil, apperr.NotFound("User not found")
	} else if err != nil {
		return nil, apperr.Internal(failure, err)
	}
	reviews, err := s.Reviews.ListForReviewee(ctx, userID, 0)
	if err != nil {
		return nil, apperr.Internal(failure, err)
	}

	userIDs := make([]string, 0, len(reviews))
	listingIDs := make([]string, 0, len(reviews))
	for _, r := range reviews {
		userIDs = append(userIDs, r.ReviewerID)
		listingIDs = append(listingIDs, r.TransactionID)
	}
	reviewers, err := refs.Users(ctx, s.Users, userIDs, false)
	if err != nil {
		return nil, apperr.Internal(failure, err)
	}
	listings, err := refs.Listings(ctx, s.Listings, listingIDs)
	if err != nil {
		return nil, apperr.Internal(failure, err)
	}

	out := &UserReviews{Reviews: make([]domain.ReviewView, 0, len(reviews)), TotalReviews: len(reviews)}
	sum := 0
	for _, r := range reviews {
		v := domain.ReviewView{Review: r}
		if u, ok := reviewers[r.ReviewerID]; ok {
			v.Reviewer = &u
		}
		if l, ok := listings[r.TransactionID]; ok {
			v.Transaction = l.Ref()
		}
		out.Reviews = append(out.Reviews, v)
		sum += r.Rating
	}
	if len(reviews) > 0 {
		out.AverageRating = float64(sum) / float64(len(reviews))
	}
	return out, nil
}
