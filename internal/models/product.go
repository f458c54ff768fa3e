package models

import "fmt"

// Product represents a catalog record as served by the products API.
// ID is assigned by the server and never set by the client.
type Product struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Category    string  `json:"category"`
}

// Draft is a product payload without an identifier. It is the request body
// for both create and update.
type Draft struct {
	Name        string  `json:"name" validate:"required"`
	Description string  `json:"description" validate:"required"`
	Price       float64 `json:"price" validate:"finite,gte=0"`
	Category    string  `json:"category" validate:"required"`
}

// Draft returns the product's fields without its identifier.
func (p Product) Draft() Draft {
	return Draft{
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Category:    p.Category,
	}
}

// WithID attaches a server-assigned identifier to the draft.
func (d Draft) WithID(id int64) Product {
	return Product{
		ID:          id,
		Name:        d.Name,
		Description: d.Description,
		Price:       d.Price,
		Category:    d.Category,
	}
}

// FormatPrice renders the price the way the catalog displays it.
func (p Product) FormatPrice() string {
	return fmt.Sprintf("$%.2f", p.Price)
}
