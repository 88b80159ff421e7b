package domain

import "time"

// Product is a catalog entry managed by admins and served publicly.
type Product struct {
	ID          string
	Name        string
	Price       float64
	Description string
	ImageURL    string
	Images      []string
	Category    string
	Sizes       []string
	Stock       int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ProductFilter narrows a catalog listing. Category matches exactly; Search is a
// case-insensitive substring match against name or description. Empty fields are
// ignored.
type ProductFilter struct {
	Category string
	Search   string
}

// UploadedImage describes an asset stored on the media host. Only the URL strings
// end up persisted on a product.
type UploadedImage struct {
	URL       string `json:"url"`
	SecureURL string `json:"secure_url"`
	PublicID  string `json:"public_id"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
}
