package listings

import (
	"context"
	"errors"
	"io"
	"math"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"marketplace-backend/internal/application/refs"
	"marketplace-backend/internal/domain"
	"marketplace-backend/internal/infrastructure/geocoding"
	"marketplace-backend/internal/infrastructure/imagehost"
	"marketplace-backend/internal/pkg/apperr"
	"marketplace-backend/internal/pkg/metrics"
	"marketplace-backend/internal/pkg/validation"

	"github.com/rs/zerolog/log"
)

// MaxImageSize is the largest accepted listing image.
const MaxImageSize = 5 << 20

const (
	msgNotFound  = "Listing not found"
	msgNotOwner  = "Access denied: You are not the owner of this listing"
	msgInvalidID = "Invalid listing ID format"
)

// Service holds the listing repository and the collaborators used to
// geocode locations and host images.
type Service struct {
	Listings      domain.ListingRepository
	Users         domain.UserRepository
	Conversations domain.ConversationRepository
	Geocoder      geocoding.Geocoder
	Images        imagehost.Host
	Metrics       *metrics.Metrics
}

// ImageUpload is a file received with a create or update request.
type ImageUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

type CreateInput struct {
	Title       string   `json:"title" form:"title" validate:"required,max=120"`
	Description string   `json:"description" form:"description" validate:"required,max=5000"`
	Price       *float64 `json:"price" form:"price" validate:"required,gte=0"`
	Category    string   `json:"category" form:"category" validate:"required"`
	Condition   string   `json:"condition" form:"condition" validate:"required"`
	ZipCode     string   `json:"zipCode" form:"zipCode" validate:"omitempty,zipcode"`
}

// UpdateInput carries the fields to change; nil means unchanged.
type UpdateInput struct {
	Title       *string  `json:"title" form:"title" validate:"omitnil,min=1,max=120"`
	Description *string  `json:"description" form:"description" validate:"omitnil,min=1,max=5000"`
	Price       *float64 `json:"price" form:"price" validate:"omitnil,gte=0"`
	Category    *string  `json:"category" form:"category" validate:"omitnil,min=1"`
	Condition   *string  `json:"condition" form:"condition" validate:"omitnil,min=1"`
	ZipCode     string   `json:"zipCode" form:"zipCode" validate:"omitempty,zipcode"`
}

// SearchInput is the raw query of GET /search.
type SearchInput struct {
	Query     string `query:"query"`
	Category  string `query:"category"`
	Condition string `query:"condition"`
	MinPrice  string `query:"minPrice"`
	MaxPrice  string `query:"maxPrice"`
	SortBy    string `query:"sortBy"`
	ZipCode   string `query:"zipCode"`
}

func (s *Service) Create(ctx context.Context, userID string, in CreateInput, img *ImageUpload) (*domain.Listing, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.ZipCode = strings.TrimSpace(in.ZipCode)
	if err := validation.Check(in); err != nil {
		return nil, err
	}
	if err := checkImage(img); err != nil {
		return nil, err
	}

	l := &domain.Listing{
		Title:       in.Title,
		Description: in.Description,
		Price:       *in.Price,
		Category:    in.Category,
		Condition:   in.Condition,
		CreatedBy:   userID,
		Images:      []domain.Image{},
	}
	if in.ZipCode != "" {
		loc, err := s.locate(ctx, in.ZipCode)
		if err != nil {
			return nil, err
		}
		l.Location = loc
	}
	if img != nil {
		uploaded, err := s.upload(ctx, img)
		if err != nil {
			return nil, err
		}
		l.Images = []domain.Image{*uploaded}
	}

	if err := s.Listings.Create(ctx, l); err != nil {
		s.discard(l.Images)
		return nil, apperr.Internal("Failed to create listing", err)
	}
	s.Metrics.ListingCreated()
	return l, nil
}

// Browse lists unsold listings, nearest first when zip resolves to a point
// and newest first otherwise.
func (s *Service) Browse(ctx context.Context, zip string) ([]domain.ListingView, error) {
	unsold := false
	f := domain.ListingFilter{Sold: &unsold, Sort: domain.SortNewest}
	if point := s.point(ctx, zip); point != nil {
		f.Near = point
		f.Sort = domain.SortDistance
	}
	return s.find(ctx, f, "Failed to retrieve listings")
}

func (s *Service) Search(ctx context.Context, in SearchInput) ([]domain.ListingView, error) {
	unsold := false
	f := domain.ListingFilter{
		Query:     strings.TrimSpace(in.Query),
		Condition: in.Condition,
		Sold:      &unsold,
		Sort:      parseSort(in.SortBy),
	}
	if in.Category != "All" {
		f.Category = in.Category
	}
	var details []apperr.FieldError
	var err error
	if f.MinPrice, err = parsePrice(in.MinPrice); err != nil {
		details = append(details, apperr.FieldError{Field: "minPrice", Message: "minPrice must be a number"})
	}
	if f.MaxPrice, err = parsePrice(in.MaxPrice); err != nil {
		details = append(details, apperr.FieldError{Field: "maxPrice", Message: "maxPrice must be a number"})
	}
	if len(details) > 0 {
		return nil, apperr.Validation(details)
	}

	if point := s.point(ctx, in.ZipCode); point != nil {
		f.Near = point
	} else if f.Sort == domain.SortDistance {
		f.Sort = domain.SortNewest
	}
	return s.find(ctx, f, "Unable to fetch listings")
}

func (s *Service) find(ctx context.Context, f domain.ListingFilter, failure string) ([]domain.ListingView, error) {
	listings, err := s.Listings.Find(ctx, f)
	if err != nil {
		return nil, apperr.Internal(failure, err)
	}
	views, err := refs.ListingViews(ctx, s.Users, listings, false)
	if err != nil {
		return nil, apperr.Internal(failure, err)
	}
	return views, nil
}

// Get returns a listing with its seller's username and email.
func (s *Service) Get(ctx context.Context, id string) (*domain.ListingView, error) {
	l, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, l, "Failed to retrieve listing")
}

func (s *Service) Update(ctx context.Context, userID, id string, in UpdateInput, img *ImageUpload) (*domain.Listing, error) {
	l, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	trim(in.Title)
	trim(in.Description)
	in.ZipCode = strings.TrimSpace(in.ZipCode)
	if err := validation.Check(in); err != nil {
		return nil, err
	}
	if err := checkImage(img); err != nil {
		return nil, err
	}

	ch := domain.ListingChanges{
		Title:       in.Title,
		Description: in.Description,
		Price:       in.Price,
		Category:    in.Category,
		Condition:   in.Condition,
	}
	if in.ZipCode != "" {
		if ch.Location, err = s.locate(ctx, in.ZipCode); err != nil {
			return nil, err
		}
	}
	if img != nil {
		uploaded, err := s.upload(ctx, img)
		if err != nil {
			return nil, err
		}
		ch.Images = []domain.Image{*uploaded}
	}

	updated, err := s.Listings.Update(ctx, id, ch)
	if errors.Is(err, domain.ErrNotFound) {
		s.discard(ch.Images)
		return nil, apperr.NotFound(msgNotFound)
	}
	if err != nil {
		s.discard(ch.Images)
		return nil, apperr.Internal("Unable to update listing", err)
	}
	if ch.Images != nil {
		s.discard(l.Images)
	}
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, userID, id string) error {
	l, err := s.owned(ctx, userID, id)
	if err != nil {
		return err
	}
	err = s.Listings.Delete(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return apperr.NotFound(msgNotFound)
	}
	if err != nil {
		return apperr.Internal("Unable to delete listing", err)
	}
	s.discard(l.Images)
	return nil
}

// PotentialBuyers returns everyone who has a conversation with the owner
// about the listing.
func (s *Service) PotentialBuyers(ctx context.Context, userID, id string) ([]domain.UserRef, error) {
	if _, err := s.owned(ctx, userID, id); err != nil {
		return nil, err
	}
	convs, err := s.Conversations.ListForListing(ctx, id)
	if err != nil {
		return nil, apperr.Internal("Failed to retrieve potential buyers", err)
	}
	var ids []string
	for i := range convs {
		if other := convs[i].Other(userID); other != "" && convs[i].HasParticipant(userID) {
			ids = append(ids, other)
		}
	}
	users, err := refs.Users(ctx, s.Users, ids, false)
	if err != nil {
		return nil, apperr.Internal("Failed to retrieve potential buyers", err)
	}
	out := make([]domain.UserRef, 0, len(users))
	for _, uid := range ids {
		if u, ok := users[uid]; ok {
			out = append(out, u)
			delete(users, uid)
		}
	}
	return out, nil
}

// MarkSold records the buyer of an unsold listing. buyerID may be
// domain.ExternalBuyer for a sale made off the platform.
func (s *Service) MarkSold(ctx context.Context, userID, id, buyerID string) (*domain.ListingView, error) {
	buyerID = strings.TrimSpace(buyerID)
	if buyerID == "" {
		return nil, apperr.BadRequest("Buyer information is required")
	}
	l, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if l.Sold {
		return nil, apperr.BadRequest("Listing is already marked as sold")
	}

	external := buyerID == domain.ExternalBuyer
	if !external {
		if !domain.IsValidID(buyerID) {
			return nil, apperr.BadRequest("Invalid buyer ID format provided")
		}
		if buyerID == userID {
			return nil, apperr.BadRequest("You cannot sell a listing to yourself")
		}
		if _, err := s.Users.FindByID(ctx, buyerID); errors.Is(err, domain.ErrNotFound) {
			return nil, apperr.BadRequest("Buyer not found")
		} else if err != nil {
			return nil, apperr.Internal("Failed to mark listing as sold", err)
		}
	} else {
		buyerID = ""
	}

	sold, err := s.Listings.MarkSold(ctx, id, buyerID, external)
	switch {
	case errors.Is(err, domain.ErrConflict):
		return nil, apperr.BadRequest("Listing is already marked as sold")
	case errors.Is(err, domain.ErrNotFound):
		return nil, apperr.NotFound(msgNotFound)
	case err != nil:
		return nil, apperr.Internal("Failed to mark listing as sold", err)
	}
	s.Metrics.ListingSold(external)
	return s.view(ctx, sold, "Failed to mark listing as sold")
}

func (s *Service) view(ctx context.Context, l *domain.Listing, failure string) (*domain.ListingView, error) {
	users, err := refs.Users(ctx, s.Users, []string{l.CreatedBy, l.BuyerID}, true)
	if err != nil {
		return nil, apperr.Internal(failure, err)
	}
	v := &domain.ListingView{Listing: *l}
	if u, ok := users[l.CreatedBy]; ok {
		v.CreatedBy = &u
	}
	if u, ok := users[l.BuyerID]; ok {
		u.Email = ""
		v.Buyer = &u
	}
	return v, nil
}

func (s *Service) load(ctx context.Context, id string) (*domain.Listing, error) {
	if !domain.IsValidID(id) {
		return nil, apperr.BadRequest(msgInvalidID)
	}
	l, err := s.Listings.FindByID(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, apperr.NotFound(msgNotFound)
	}
	if err != nil {
		return nil, apperr.Internal("Failed to retrieve listing", err)
	}
	return l, nil
}

func (s *Service) owned(ctx context.Context, userID, id string) (*domain.Listing, error) {
	l, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if l.CreatedBy != userID {
		return nil, apperr.Forbidden(msgNotOwner)
	}
	return l, nil
}

func (s *Service) locate(ctx context.Context, zip string) (*domain.Location, error) {
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

// point geocodes zip for proximity queries. Failures only disable proximity.
func (s *Service) point(ctx context.Context, zip string) []float64 {
	zip = strings.TrimSpace(zip)
	if zip == "" || s.Geocoder == nil {
		return nil
	}
	res, err := s.Geocoder.Geocode(ctx, zip)
	if err != nil {
		log.Warn().Err(err).Str("zip", zip).Msg("geocode for proximity failed")
		return nil
	}
	if !res.HasPoint() {
		return nil
	}
	return res.Coordinates
}

func (s *Service) upload(ctx context.Context, img *ImageUpload) (*domain.Image, error) {
	if s.Images == nil {
		return nil, apperr.New(http.StatusServiceUnavailable, "Image uploads are not available")
	}
	uploaded, err := s.Images.Upload(ctx, img.Filename, img.ContentType, img.Body, img.Size)
	if err != nil {
		return nil, apperr.Internal("Image upload failed", err)
	}
	return uploaded, nil
}

// discard removes images that are no longer referenced. Failures only leave
// an orphan on the host.
func (s *Service) discard(images []domain.Image) {
	if s.Images == nil {
		return
	}
	for _, img := range images {
		if img.PublicID == "" {
			continue
		}
		if err := s.Images.Delete(context.Background(), img.PublicID); err != nil {
			log.Warn().Err(err).Str("public_id", img.PublicID).Msg("image cleanup failed")
		}
	}
}

func checkImage(img *ImageUpload) error {
	if img == nil {
		return nil
	}
	switch strings.ToLower(filepath.Ext(img.Filename)) {
	case ".jpg", ".jpeg", ".png":
	default:
		return apperr.BadRequest("Unsupported file type! Only .jpg, .jpeg and .png images are allowed")
	}
	if img.Size > MaxImageSize {
		return apperr.BadRequest("Image must be 5 MB or smaller")
	}
	return nil
}

func parseSort(s string) domain.ListingSort {
	switch domain.ListingSort(s) {
	case domain.SortPriceAsc, domain.SortPriceDesc, domain.SortDistance:
		return domain.ListingSort(s)
	}
	return domain.SortNewest
}

func parsePrice(s string) (*float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, strconv.ErrSyntax
	}
	return &v, nil
}

func trim(s *string) {
	if s != nil {
		*s = strings.TrimSpace(*s)
	}
}
