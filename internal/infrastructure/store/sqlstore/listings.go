package sqlstore

import (
	"context"
	"math"
	"sort"
	"strings"
	"time"

	"marketplace-backend/internal/domain"

	"gorm.io/gorm"
)

// earthRadius matches the sphere MongoDB uses for $geoNear distances.
const earthRadius = 6378100.0

type ListingRepository struct {
	db *gorm.DB
}

func (r *ListingRepository) Create(ctx context.Context, l *domain.Listing) error {
	if l.ID == "" {
		l.ID = domain.NewID()
	}
	if l.Images == nil {
		l.Images = []domain.Image{}
	}
	images, err := encodeJSON(l.Images)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	l.CreatedAt, l.UpdatedAt = now, now
	zip, city, state, lng, lat := splitLocation(l.Location)
	row := listingRow{
		ID:          l.ID,
		Title:       l.Title,
		Description: l.Description,
		Price:       l.Price,
		Category:    l.Category,
		Condition:   l.Condition,
		Images:      images,
		ZipCode:     zip,
		City:        city,
		State:       state,
		Lng:         lng,
		Lat:         lat,
		CreatedBy:   l.CreatedBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return translate(r.db.WithContext(ctx).Create(&row).Error)
}

func (r *ListingRepository) FindByID(ctx context.Context, id string) (*domain.Listing, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	var row listingRow
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		return nil, translate(err)
	}
	return row.toDomain()
}

func (r *ListingRepository) FindByIDs(ctx context.Context, ids []string) ([]domain.Listing, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []listingRow
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	return toListings(rows)
}

// Find applies f in SQL. Proximity is computed in Go with the haversine
// formula because neither SQLite nor plain Postgres ship spherical distance.
func (r *ListingRepository) Find(ctx context.Context, f domain.ListingFilter) ([]domain.Listing, error) {
	q := r.db.WithContext(ctx).Model(&listingRow{})
	if f.Sold != nil {
		q = q.Where("sold = ?", *f.Sold)
	}
	if f.Query != "" {
		like := "%" + escapeLike(strings.ToLower(f.Query)) + "%"
		q = q.Where("(LOWER(title) LIKE ? ESCAPE '\\' OR LOWER(description) LIKE ? ESCAPE '\\')", like, like)
	}
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if f.Condition != "" {
		q = q.Where("condition = ?", f.Condition)
	}
	if f.MinPrice != nil {
		q = q.Where("price >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		q = q.Where("price <= ?", *f.MaxPrice)
	}
	if f.CreatedBy != "" {
		q = q.Where("created_by = ?", f.CreatedBy)
	}
	if f.BuyerID != "" {
		q = q.Where("buyer_id = ?", f.BuyerID)
	}
	q = q.Order(listingOrder(f.Sort))

	near := len(f.Near) == 2
	if near {
		q = q.Where("lng IS NOT NULL AND lat IS NOT NULL")
	} else if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}

	var rows []listingRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	listings, err := toListings(rows)
	if err != nil || !near {
		return listings, err
	}

	for i := range listings {
		d := haversine(f.Near, listings[i].Location.Coordinates)
		listings[i].Distance = &d
	}
	if f.Sort == domain.SortDistance {
		sort.SliceStable(listings, func(i, j int) bool {
			return *listings[i].Distance < *listings[j].Distance
		})
	}
	if f.Limit > 0 && len(listings) > f.Limit {
		listings = listings[:f.Limit]
	}
	return listings, nil
}

func listingOrder(s domain.ListingSort) string {
	switch s {
	case domain.SortPriceAsc:
		return "price ASC, created_at DESC"
	case domain.SortPriceDesc:
		return "price DESC, created_at DESC"
	}
	return "created_at DESC, id DESC"
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// haversine returns the great-circle distance in metres between two [lng, lat] points.
func haversine(a, b []float64) float64 {
	toRad := func(d float64) float64 { return d * math.Pi / 180 }
	lat1, lat2 := toRad(a[1]), toRad(b[1])
	dLat := lat2 - lat1
	dLng := toRad(b[0] - a[0])
	h := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadius * math.Asin(math.Min(1, math.Sqrt(h)))
}

func toListings(rows []listingRow) ([]domain.Listing, error) {
	out := make([]domain.Listing, 0, len(rows))
	for i := range rows {
		l, err := rows[i].toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, *l)
	}
	return out, nil
}

func (r *ListingRepository) Update(ctx context.Context, id string, ch domain.ListingChanges) (*domain.Listing, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	changes := map[string]interface{}{"updated_at": time.Now().UTC()}
	if ch.Title != nil {
		changes["title"] = *ch.Title
	}
	if ch.Description != nil {
		changes["description"] = *ch.Description
	}
	if ch.Price != nil {
		changes["price"] = *ch.Price
	}
	if ch.Category != nil {
		changes["category"] = *ch.Category
	}
	if ch.Condition != nil {
		changes["condition"] = *ch.Condition
	}
	if ch.Location != nil {
		zip, city, state, lng, lat := splitLocation(ch.Location)
		changes["zip_code"] = zip
		changes["city"] = city
		changes["state"] = state
		changes["lng"] = lng
		changes["lat"] = lat
	}
	if ch.Images != nil {
		images, err := encodeJSON(ch.Images)
		if err != nil {
			return nil, err
		}
		changes["images"] = images
	}
	res := r.db.WithContext(ctx).Model(&listingRow{}).Where("id = ?", id).Updates(changes)
	if res.Error != nil {
		return nil, translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, domain.ErrNotFound
	}
	return r.FindByID(ctx, id)
}

func (r *ListingRepository) Delete(ctx context.Context, id string) error {
	if err := checkID(id); err != nil {
		return err
	}
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&listingRow{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *ListingRepository) MarkSold(ctx context.Context, id, buyerID string, external bool) (*domain.Listing, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	changes := map[string]interface{}{
		"sold":            true,
		"sold_externally": external,
		"sold_at":         now,
		"updated_at":      now,
	}
	if !external {
		if err := checkID(buyerID); err != nil {
			return nil, err
		}
		changes["buyer_id"] = buyerID
	}
	res := r.db.WithContext(ctx).Model(&listingRow{}).
		Where("id = ? AND sold = ?", id, false).
		Updates(changes)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		var n int64
		if err := r.db.WithContext(ctx).Model(&listingRow{}).Where("id = ?", id).Count(&n).Error; err != nil {
			return nil, err
		}
		if n == 0 {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrConflict
	}
	return r.FindByID(ctx, id)
}
