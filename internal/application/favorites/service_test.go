package favorites

import (
	"context"
	"net/http"
	"testing"

	"marketplace-backend/internal/domain"
	"marketplace-backend/internal/interfaces/handlers/handlertest"
	"marketplace-backend/internal/pkg/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestService_AddListRemove(t *testing.T) {
	st := handlertest.Store(t)
	svc := &Service{Favorites: st.Favorites, Listings: st.Listings, Users: st.Users}
	ctx := context.Background()

	seller := handlertest.SeedUser(t, st, "seller1")
	me := handlertest.SeedUser(t, st, "shopper")
	lamp := handlertest.SeedListing(t, st, seller.ID, "Lamp", 15)
	sofa := handlertest.SeedListing(t, st, seller.ID, "Sofa", 300)

	res, err := svc.Add(ctx, me.ID, lamp.ID)
	require.NoError(t, err)
	assert.True(t, res.Created)

	res, err = svc.Add(ctx, me.ID, lamp.ID)
	require.NoError(t, err)
	assert.False(t, res.Created)
	require.NotNil(t, res.Favorite)
	assert.Equal(t, lamp.ID, res.Favorite.ListingID)

	_, err = svc.Add(ctx, me.ID, sofa.ID)
	require.NoError(t, err)

	views, err := svc.ListFavorites(ctx, me.ID)
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, "seller1", views[0].CreatedBy.Username)

	require.NoError(t, st.Listings.Delete(ctx, sofa.ID))
	views, err = svc.ListFavorites(ctx, me.ID)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, lamp.ID, views[0].ID)

	ids, err := svc.IDs(ctx, me.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{lamp.ID, sofa.ID}, ids)

	require.NoError(t, svc.Remove(ctx, me.ID, lamp.ID))
	err = svc.Remove(ctx, me.ID, lamp.ID)
	e, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, e.Status)
}

func TestService_AddRejectsUnknownListing(t *testing.T) {
	st := handlertest.Store(t)
	svc := &Service{Favorites: st.Favorites, Listings: st.Listings, Users: st.Users}
	me := handlertest.SeedUser(t, st, "shopper")

	_, err := svc.Add(context.Background(), me.ID, domain.NewID())
	e, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, e.Status)

	_, err = svc.Add(context.Background(), me.ID, "not-an-id")
	e, ok = apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, e.Status)
}
