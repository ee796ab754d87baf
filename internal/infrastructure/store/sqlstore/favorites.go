package sqlstore

import (
	"context"
	"time"

	"marketplace-backend/internal/domain"

	"gorm.io/gorm"
)

type FavoriteRepository struct {
	db *gorm.DB
}

func (r *FavoriteRepository) Add(ctx context.Context, f *domain.Favorite) error {
	if f.ID == "" {
		f.ID = domain.NewID()
	}
	f.CreatedAt = time.Now().UTC()
	row := favoriteRow{ID: f.ID, UserID: f.UserID, ListingID: f.ListingID, CreatedAt: f.CreatedAt}
	return translate(r.db.WithContext(ctx).Create(&row).Error)
}

func (r *FavoriteRepository) Find(ctx context.Context, userID, listingID string) (*domain.Favorite, error) {
	var row favoriteRow
	err := r.db.WithContext(ctx).Where("user_id = ? AND listing_id = ?", userID, listingID).First(&row).Error
	if err != nil {
		return nil, translate(err)
	}
	return row.toDomain(), nil
}

func (r *FavoriteRepository) ListForUser(ctx context.Context, userID string) ([]domain.Favorite, error) {
	var rows []favoriteRow
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC, id DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Favorite, 0, len(rows))
	for i := range rows {
		out = append(out, *rows[i].toDomain())
	}
	return out, nil
}

func (r *FavoriteRepository) Remove(ctx context.Context, userID, listingID string) error {
	res := r.db.WithContext(ctx).Where("user_id = ? AND listing_id = ?", userID, listingID).Delete(&favoriteRow{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
