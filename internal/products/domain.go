// Package products manages the product catalog backed by the upstream API.
package products

import "fmt"

// Status is the catalog lifecycle state of a product.
type Status string

const (
	StatusActive   Status = "active"
	StatusDraft    Status = "draft"
	StatusArchived Status = "archived"
)

// Product is a catalog entry as shown in the admin console.
type Product struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
	Price    int64  `json:"price"`
	Stock    int    `json:"stock"`
	Status   Status `json:"status"`
}

// backendPost is the raw record the upstream content API returns. The
// catalog fields the console needs are derived from it.
type backendPost struct {
	ID     int    `json:"id"`
	Title  string `json:"title"`
	Body   string `json:"body"`
	UserID int    `json:"userId"`
}

// fromBackend derives the catalog fields missing from the upstream record.
// The derivations are deterministic per ID so reloads stay stable.
func fromBackend(p backendPost) Product {
	return Product{
		ID:       p.ID,
		Name:     p.Title,
		Category: deriveCategory(p.ID),
		Price:    derivePrice(p.ID),
		Stock:    deriveStock(p.ID),
		Status:   deriveStatus(p.ID),
	}
}

func derivePrice(id int) int64 {
	return int64(id*100000)%5000000 + 500000
}

func deriveStock(id int) int {
	return (id * 10) % 100
}

func deriveStatus(id int) Status {
	switch {
	case id%3 == 0:
		return StatusArchived
	case id%2 == 0:
		return StatusDraft
	default:
		return StatusActive
	}
}

func deriveCategory(id int) string {
	if id%4 == 0 {
		return "Electronics"
	}
	return "Accessories"
}

// Form carries the create/update form fields.
type Form struct {
	Name     string `validate:"required,min=2"`
	Category string `validate:"required"`
	Price    int64  `validate:"min=0"`
	Stock    int    `validate:"min=0"`
	Status   Status `validate:"oneof=active draft archived"`
}

// FormatPrice renders a price in whole-currency units for table cells.
func FormatPrice(price int64) string {
	return fmt.Sprintf("$%d.%02d", price/100, price%100)
}
