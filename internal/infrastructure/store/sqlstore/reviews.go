package sqlstore

import (
	"context"
	"time"

	"marketplace-backend/internal/domain"

	"gorm.io/gorm"
)

type ReviewRepository struct {
	db *gorm.DB
}

func (r *ReviewRepository) Create(ctx context.Context, rv *domain.Review) error {
	if rv.ID == "" {
		rv.ID = domain.NewID()
	}
	now := time.Now().UTC()
	rv.CreatedAt, rv.UpdatedAt = now, now
	row := reviewRow{
		ID:            rv.ID,
		ReviewerID:    rv.ReviewerID,
		RevieweeID:    rv.RevieweeID,
		TransactionID: rv.TransactionID,
		RoleReviewed:  string(rv.RoleReviewed),
		Rating:        rv.Rating,
		Comment:       rv.Comment,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	return translate(r.db.WithContext(ctx).Create(&row).Error)
}

func (r *ReviewRepository) Exists(ctx context.Context, reviewerID, revieweeID, transactionID string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&reviewRow{}).
		Where("reviewer_id = ? AND reviewee_id = ? AND transaction_id = ?", reviewerID, revieweeID, transactionID).
		Count(&n).Error
	return n > 0, err
}

func (r *ReviewRepository) ListForReviewee(ctx context.Context, revieweeID string, limit int) ([]domain.Review, error) {
	q := r.db.WithContext(ctx).Where("reviewee_id = ?", revieweeID).Order("created_at DESC, id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var rows []reviewRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Review, 0, len(rows))
	for i := range rows {
		out = append(out, *rows[i].toDomain())
	}
	return out, nil
}

func (r *ReviewRepository) CountForReviewee(ctx context.Context, revieweeID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&reviewRow{}).Where("reviewee_id = ?", revieweeID).Count(&n).Error
	return n, err
}
