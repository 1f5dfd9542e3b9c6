// Package catalog defines the application's core catalog and storefront domain entities.
package catalog

import "time"

// Product statuses as exposed to the dashboard filter panel.
const (
	ProductActive     = "active"
	ProductInactive   = "inactive"
	ProductOutOfStock = "out_of_stock"
)

// ValidProductStatus reports whether s is one of the known product statuses.
func ValidProductStatus(s string) bool {
	switch s {
	case ProductActive, ProductInactive, ProductOutOfStock:
		return true
	}
	return false
}

type ProductNode struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	NodeType    string     `json:"nodeType"`
	Slug        string     `json:"slug"`
	CategoryID  *string    `json:"categoryId,omitempty"`
	Description *string    `json:"description,omitempty"`
	PriceCents  int64      `json:"priceCents"`
	Status      string     `json:"status"`
	ImageURL    *string    `json:"imageUrl,omitempty"`
	Created     time.Time  `json:"created"`
	Changed     *time.Time `json:"changed,omitempty"`
}

type CategoryNode struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	NodeType string `json:"nodeType"`
	Slug     string `json:"slug"`
	Weight   int    `json:"weight"`
}

type CustomerNode struct {
	ID       string     `json:"id"`
	Name     string     `json:"name"`
	NodeType string     `json:"nodeType"`
	Email    string     `json:"email"`
	Phone    *string    `json:"phone,omitempty"`
	Address  *string    `json:"address,omitempty"`
	Created  time.Time  `json:"created"`
	Changed  *time.Time `json:"changed,omitempty"`
}
