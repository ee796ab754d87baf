package domain

import "time"

// ExternalBuyer marks a listing sold outside the platform.
const ExternalBuyer = "EXTERNAL"

type Image struct {
	PublicID string `json:"public_id"`
	URL      string `json:"url"`
}

type Listing struct {
	ID             string     `json:"_id"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	Price          float64    `json:"price"`
	Category       string     `json:"category"`
	Condition      string     `json:"condition"`
	Images         []Image    `json:"images"`
	Location       *Location  `json:"location,omitempty"`
	CreatedBy      string     `json:"createdBy"`
	Sold           bool       `json:"sold"`
	BuyerID        string     `json:"buyerId,omitempty"`
	SoldExternally bool       `json:"soldExternally"`
	SoldAt         *time.Time `json:"soldAt,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
	// Distance in metres from the search point; only set by proximity queries.
	Distance *float64 `json:"distance,omitempty"`
}

// ListingView is a listing with its user references populated.
type ListingView struct {
	Listing
	CreatedBy *UserRef `json:"createdBy"`
	Buyer     *UserRef `json:"buyer,omitempty"`
}

// ListingRef is the populated form of a listing reference.
type ListingRef struct {
	ID     string  `json:"_id"`
	Title  string  `json:"title"`
	Price  float64 `json:"price"`
	Images []Image `json:"images"`
}

func (l *Listing) Ref() *ListingRef {
	return &ListingRef{ID: l.ID, Title: l.Title, Price: l.Price, Images: l.Images}
}

type ListingSort string

const (
	SortNewest    ListingSort = "createdAt_desc"
	SortPriceAsc  ListingSort = "price_asc"
	SortPriceDesc ListingSort = "price_desc"
	SortDistance  ListingSort = "distance_asc"
)

// ListingFilter selects listings. Zero values mean "no constraint".
type ListingFilter struct {
	Query     string
	Category  string
	Condition string
	MinPrice  *float64
	MaxPrice  *float64
	CreatedBy string
	BuyerID   string
	Sold      *bool
	// Near is a [lng, lat] point. When set only listings with coordinates are
	// returned and each carries its Distance.
	Near  []float64
	Sort  ListingSort
	Limit int
}

// ListingChanges holds the mutable fields of a listing update.
type ListingChanges struct {
	Title       *string
	Description *string
	Price       *float64
	Category    *string
	Condition   *string
	Location    *Location
	Images      []Image
}
