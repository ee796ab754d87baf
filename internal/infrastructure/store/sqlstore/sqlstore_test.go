package sqlstore

import (
	"context"
	"testing"

	"marketplace-backend/internal/domain"
	"marketplace-backend/internal/infrastructure/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupStore(t *testing.T) *Store {
	t.Helper()
	db, err := database.OpenSQLite(":memory:")
	require.NoError(t, err)
	s := New(db)
	require.NoError(t, s.Migrate())
	t.Cleanup(func() { _ = s.Close(context.Background()) })
	return s
}

func seedUser(t *testing.T, s *Store, name string) *domain.User {
	t.Helper()
	u := &domain.User{Username: name, Email: name + "@example.com", PasswordHash: "hash"}
	require.NoError(t, s.Users.Create(context.Background(), u))
	return u
}

func TestUsers_CreateFindAndDuplicate(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	alice := seedUser(t, s, "alice")

	got, err := s.Users.FindByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, got.ID)
	assert.Equal(t, "hash", got.PasswordHash)

	err = s.Users.Create(ctx, &domain.User{Username: "alice", Email: "other@example.com", PasswordHash: "x"})
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	_, err = s.Users.FindByID(ctx, "bad")
	assert.ErrorIs(t, err, domain.ErrInvalidID)
	_, err = s.Users.FindByID(ctx, domain.NewID())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUsers_ListExceptAndUpdateProfile(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	zed := seedUser(t, s, "zed")
	seedUser(t, s, "bob")
	seedUser(t, s, "amy")

	refs, err := s.Users.ListExcept(ctx, zed.ID)
	require.NoError(t, err)
	require.Len(t, refs, 2)
	assert.Equal(t, "amy", refs[0].Username)
	assert.Equal(t, "bob", refs[1].Username)

	name := "zedd"
	updated, err := s.Users.UpdateProfile(ctx, zed.ID, domain.ProfileUpdate{
		Username: &name,
		Location: &domain.Location{ZipCode: "10001", City: "New York", State: "NY"},
	})
	require.NoError(t, err)
	assert.Equal(t, "zedd", updated.Username)
	require.NotNil(t, updated.Location)
	assert.Equal(t, "New York", updated.Location.City)

	taken := "bob"
	_, err = s.Users.UpdateProfile(ctx, zed.ID, domain.ProfileUpdate{Username: &taken})
	assert.ErrorIs(t, err, domain.ErrDuplicate)
}

func TestListings_FilterSortAndDistance(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	owner := seedUser(t, s, "seller")

	mk := func(title string, price float64, coords []float64) *domain.Listing {
		l := &domain.Listing{Title: title, Description: title + " for sale", Price: price, Category: "Home", Condition: "Good", CreatedBy: owner.ID}
		if coords != nil {
			l.Location = &domain.Location{ZipCode: "00000", Coordinates: coords}
		}
		require.NoError(t, s.Listings.Create(ctx, l))
		return l
	}
	nyc := mk("Lamp 50%", 12, []float64{-73.99, 40.75})
	la := mk("Table", 18, []float64{-118.24, 33.97})
	mk("Sofa", 500, nil)

	unsold := false
	lo, hi := 10.0, 20.0
	got, err := s.Listings.Find(ctx, domain.ListingFilter{Sold: &unsold, MinPrice: &lo, MaxPrice: &hi, Sort: domain.SortPriceDesc})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, la.ID, got[0].ID)

	got, err = s.Listings.Find(ctx, domain.ListingFilter{Query: "50%"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, nyc.ID, got[0].ID)

	got, err = s.Listings.Find(ctx, domain.ListingFilter{Near: []float64{-118.0, 34.0}, Sort: domain.SortDistance})
	require.NoError(t, err)
	require.Len(t, got, 2, "listings without coordinates are excluded")
	assert.Equal(t, la.ID, got[0].ID)
	require.NotNil(t, got[0].Distance)
	assert.Less(t, *got[0].Distance, 50000.0)
}

func TestListings_MarkSold(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	owner := seedUser(t, s, "seller")
	buyer := seedUser(t, s, "buyer")
	l := &domain.Listing{Title: "Chair", Price: 20, CreatedBy: owner.ID}
	require.NoError(t, s.Listings.Create(ctx, l))

	sold, err := s.Listings.MarkSold(ctx, l.ID, buyer.ID, false)
	require.NoError(t, err)
	assert.True(t, sold.Sold)
	assert.Equal(t, buyer.ID, sold.BuyerID)
	assert.NotNil(t, sold.SoldAt)

	_, err = s.Listings.MarkSold(ctx, l.ID, "", true)
	assert.ErrorIs(t, err, domain.ErrConflict)

	purchases, err := s.Listings.Find(ctx, domain.ListingFilter{BuyerID: buyer.ID})
	require.NoError(t, err)
	assert.Len(t, purchases, 1)
}

func TestConversations_OfferCompareAndSet(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	a, b := seedUser(t, s, "alice"), seedUser(t, s, "bob")
	listingID := domain.NewID()

	c1, err := s.Conversations.FindOrCreate(ctx, a.ID, b.ID, listingID)
	require.NoError(t, err)
	c2, err := s.Conversations.FindOrCreate(ctx, b.ID, a.ID, listingID)
	require.NoError(t, err)
	assert.Equal(t, c1.ID, c2.ID)

	first := domain.NewID()
	state := domain.OfferState{Status: domain.OfferInitial, OriginalPrice: 100, CurrentPrice: 80, MessageID: first, ProposedBy: a.ID}
	require.NoError(t, s.Conversations.SetOffer(ctx, c1.ID, first, state, ""))

	second := domain.NewID()
	state.Status, state.MessageID = domain.OfferCounter, second
	require.NoError(t, s.Conversations.SetOffer(ctx, c1.ID, second, state, first))

	err = s.Conversations.SetOffer(ctx, c1.ID, domain.NewID(), state, first)
	assert.ErrorIs(t, err, domain.ErrConflict, "stale offer message")

	got, err := s.Conversations.FindByID(ctx, c1.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Offer)
	assert.Equal(t, domain.OfferCounter, got.Offer.Status)
	assert.Equal(t, second, got.LastMessageID)

	mine, err := s.Conversations.ListForUser(ctx, b.ID)
	require.NoError(t, err)
	assert.Len(t, mine, 1)
}

func TestMessages_MarkRead(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	a, b := seedUser(t, s, "alice"), seedUser(t, s, "bob")
	conv, err := s.Conversations.FindOrCreate(ctx, a.ID, b.ID, domain.NewID())
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		require.NoError(t, s.Messages.Create(ctx, &domain.Message{ConversationID: conv.ID, SenderID: a.ID, RecipientID: b.ID, Content: "hi"}))
	}
	offer := &domain.Message{ConversationID: conv.ID, SenderID: b.ID, RecipientID: a.ID, Content: "offer",
		Offer: &domain.Offer{Type: domain.OfferInitial, OriginalPrice: 10, OfferedPrice: 8}}
	require.NoError(t, s.Messages.Create(ctx, offer))

	n, err := s.Messages.MarkRead(ctx, conv.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	got, err := s.Messages.FindByID(ctx, offer.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Offer)
	assert.Equal(t, 8.0, got.Offer.OfferedPrice)
}

func TestReviewsAndFavorites_Unique(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	a, b := seedUser(t, s, "alice"), seedUser(t, s, "bob")
	listingID := domain.NewID()

	require.NoError(t, s.Reviews.Create(ctx, &domain.Review{ReviewerID: a.ID, RevieweeID: b.ID, TransactionID: listingID, Rating: 5}))
	err := s.Reviews.Create(ctx, &domain.Review{ReviewerID: a.ID, RevieweeID: b.ID, TransactionID: listingID, Rating: 3})
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	n, err := s.Reviews.CountForReviewee(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	require.NoError(t, s.Favorites.Add(ctx, &domain.Favorite{UserID: a.ID, ListingID: listingID}))
	assert.ErrorIs(t, s.Favorites.Add(ctx, &domain.Favorite{UserID: a.ID, ListingID: listingID}), domain.ErrDuplicate)
	assert.ErrorIs(t, s.Favorites.Remove(ctx, b.ID, listingID), domain.ErrNotFound)
}

func TestHaversine(t *testing.T) {
	d := haversine([]float64{-73.9857, 40.7484}, []float64{-118.2437, 34.0522})
	assert.InDelta(t, 3944000, d, 20000)
	assert.Zero(t, haversine([]float64{1, 1}, []float64{1, 1}))
}
