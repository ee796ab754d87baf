package sqlstore

import (
	"context"
	"time"

	"marketplace-backend/internal/domain"

	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func (r *UserRepository) Create(ctx context.Context, u *domain.User) error {
	if u.ID == "" {
		u.ID = domain.NewID()
	}
	now := time.Now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now
	zip, city, state, lng, lat := splitLocation(u.Location)
	row := userRow{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Password:  u.PasswordHash,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		ZipCode:   zip,
		City:      city,
		State:     state,
		Lng:       lng,
		Lat:       lat,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return translate(r.db.WithContext(ctx).Create(&row).Error)
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	return r.first(ctx, "id = ?", id)
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.first(ctx, "email = ?", email)
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.first(ctx, "username = ?", username)
}

func (r *UserRepository) first(ctx context.Context, query string, arg interface{}) (*domain.User, error) {
	var row userRow
	if err := r.db.WithContext(ctx).Where(query, arg).First(&row).Error; err != nil {
		return nil, translate(err)
	}
	return row.toDomain(), nil
}

func (r *UserRepository) FindRefs(ctx context.Context, ids []string) ([]domain.UserRef, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []userRow
	if err := r.db.WithContext(ctx).Select("id", "username", "email").Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	return toRefs(rows), nil
}

func (r *UserRepository) ListExcept(ctx context.Context, id string) ([]domain.UserRef, error) {
	var rows []userRow
	err := r.db.WithContext(ctx).
		Select("id", "username", "email").
		Where("id <> ?", id).
		Order("username ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return toRefs(rows), nil
}

func toRefs(rows []userRow) []domain.UserRef {
	out := make([]domain.UserRef, 0, len(rows))
	for _, row := range rows {
		out = append(out, domain.UserRef{ID: row.ID, Username: row.Username, Email: row.Email})
	}
	return out
}

func (r *UserRepository) UpdateProfile(ctx context.Context, id string, upd domain.ProfileUpdate) (*domain.User, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	changes := map[string]interface{}{"updated_at": time.Now().UTC()}
	if upd.Username != nil {
		changes["username"] = *upd.Username
	}
	if upd.FirstName != nil {
		changes["first_name"] = *upd.FirstName
	}
	if upd.LastName != nil {
		changes["last_name"] = *upd.LastName
	}
	if upd.Location != nil {
		zip, city, state, lng, lat := splitLocation(upd.Location)
		changes["zip_code"] = zip
		changes["city"] = city
		changes["state"] = state
		changes["lng"] = lng
		changes["lat"] = lat
	}
	res := r.db.WithContext(ctx).Model(&userRow{}).Where("id = ?", id).Updates(changes)
	if res.Error != nil {
		return nil, translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, domain.ErrNotFound
	}
	return r.FindByID(ctx, id)
}
