// Package repositories defines the repository interfaces for catalog and
// order entities. These repositories abstract the data persistence details,
// ensuring the core application is clean and decoupled from the database.
package repositories

import (
	"time"

	"github.com/plateful/plateful-go/internal/domain/entities/catalog"
)

// PageQuery carries the pagination parameters shared by every collection
// endpoint. Page is 1-based.
type PageQuery struct {
	Page  int
	Limit int
}

// Offset returns the SQL offset for the query.
func (q PageQuery) Offset() int {
	if q.Page < 1 {
		return 0
	}
	return (q.Page - 1) * q.Limit
}

// Normalize clamps the query to sane bounds: page at least 1, limit
// defaulting to 20 and capped at 100.
func (q *PageQuery) Normalize() {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit <= 0 {
		q.Limit = 20
	}
	if q.Limit > 100 {
		q.Limit = 100
	}
}

type ProductQuery struct {
	PageQuery
	Search        string
	CategoryID    string
	Status        string
	MinPriceCents int64
	MaxPriceCents int64
}

type OrderQuery struct {
	PageQuery
	Search        string
	Status        string
	PaymentStatus string
	From          *time.Time
	To            *time.Time
}

type CustomerQuery struct {
	PageQuery
	Search string
}

type SpecialQuery struct {
	PageQuery
	Search string
	Active *bool
}

type ProductRepository interface {
	FindByID(tenantID, id string) (*catalog.ProductNode, error)
	FindBySlug(tenantID, slug string) (*catalog.ProductNode, error)
	FindByIDs(tenantID string, ids []string) ([]*catalog.ProductNode, error)
	FindAll(tenantID string) ([]*catalog.ProductNode, error)
	FindPage(tenantID string, query ProductQuery) ([]*catalog.ProductNode, int, error)
	Store(tenantID string, product *catalog.ProductNode) error
	Update(tenantID string, product *catalog.ProductNode) error
	UpdateStatus(tenantID, id, status string) error
	Delete(tenantID, id string) error
}

type CategoryRepository interface {
	FindByID(tenantID, id string) (*catalog.CategoryNode, error)
	FindAll(tenantID string) ([]*catalog.CategoryNode, error)
	Store(tenantID string, category *catalog.CategoryNode) error
	Update(tenantID string, category *catalog.CategoryNode) error
	Delete(tenantID, id string) error
}

type OrderRepository interface {
	FindByID(tenantID, id string) (*catalog.OrderNode, error)
	FindPage(tenantID string, query OrderQuery) ([]*catalog.OrderNode, int, error)
	UpdateStatus(tenantID, id, status string) error
	UpdatePayment(tenantID, id, paymentStatus string) error
	Delete(tenantID, id string) error
}

type CustomerRepository interface {
	FindByID(tenantID, id string) (*catalog.CustomerNode, error)
	FindAll(tenantID string) ([]*catalog.CustomerNode, error)
	FindPage(tenantID string, query CustomerQuery) ([]*catalog.CustomerNode, int, error)
	Update(tenantID string, customer *catalog.CustomerNode) error
	Delete(tenantID, id string) error
}

type SpecialRepository interface {
	FindByID(tenantID, id string) (*catalog.SpecialNode, error)
	FindBySlug(tenantID, slug string) (*catalog.SpecialNode, error)
	FindAll(tenantID string) ([]*catalog.SpecialNode, error)
	FindPage(tenantID string, query SpecialQuery) ([]*catalog.SpecialNode, int, error)
	Store(tenantID string, special *catalog.SpecialNode) error
	Update(tenantID string, special *catalog.SpecialNode) error
	UpdateSchedule(tenantID, id string, days []string) error
	Delete(tenantID, id string) error
}
