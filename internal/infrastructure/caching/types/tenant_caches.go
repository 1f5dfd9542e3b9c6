// Package types defines cache data structures for multi-tenant catalog,
// draft-editing, and dashboard state.
package types

import (
	"sync"
	"time"

	"github.com/plateful/plateful-go/internal/domain/draft"
	"github.com/plateful/plateful-go/internal/domain/entities/catalog"
	"github.com/plateful/plateful-go/internal/domain/repositories"
)

// TenantCatalogCache holds all catalog nodes for a single tenant
type TenantCatalogCache struct {
	Products   map[string]*catalog.ProductNode  // id -> node
	Categories map[string]*catalog.CategoryNode // id -> node
	Customers  map[string]*catalog.CustomerNode // id -> node
	Specials   map[string]*catalog.SpecialNode  // id -> node

	// Lookup indices
	SlugToID       map[string]string // slug -> id (products and specials)
	AllProductIDs  []string
	AllCategoryIDs []string
	AllCustomerIDs []string
	AllSpecialIDs  []string

	// Catalog map cache
	FullCatalogMap        []FullCatalogMapItem `json:"fullCatalogMap,omitempty"`
	CatalogMapLastUpdated time.Time            `json:"catalogMapLastUpdated"`

	// Cache metadata
	LastUpdated time.Time
	Mu          sync.RWMutex // Exported for access
}

// FullCatalogMapItem is one row of the compact cross-entity index the
// dashboard uses for client-side search.
type FullCatalogMapItem struct {
	ID    string `json:"id"`
	Type  string `json:"type"`
	Title string `json:"title"`
	Slug  string `json:"slug"`
}

// TenantDraftCache holds the open schedule-editing sessions for a single
// tenant. Sessions are short-lived and purged by the cleanup worker once
// idle past their TTL.
type TenantDraftCache struct {
	Sessions   map[string]*DraftSession // sessionId -> session
	LastLoaded time.Time
	Mu         sync.RWMutex // Exported for access
}

// DraftSession is one open batch-editing view: the engine holding its
// baseline/draft state plus the collection query that seeded it, kept so a
// refresh re-runs the same fetch.
type DraftSession struct {
	SessionID    string                    `json:"sessionId"`
	Engine       *draft.Engine             `json:"-"`
	Query        repositories.SpecialQuery `json:"-"`
	CreatedAt    time.Time                 `json:"createdAt"`
	LastActivity time.Time                 `json:"lastActivity"`
}

// TenantDashboardCache holds the computed dashboard summary for a single
// tenant (short TTL).
type TenantDashboardCache struct {
	Summary *DashboardSummary
	Mu      sync.RWMutex // Exported for access
}

// DashboardSummary is the landing-page counts block.
type DashboardSummary struct {
	OrdersByStatus    map[string]int `json:"ordersByStatus"`
	RevenueTodayCents int64          `json:"revenueTodayCents"`
	ActiveProducts    int            `json:"activeProducts"`
	ActiveSpecials    int            `json:"activeSpecials"`
	ComputedAt        time.Time      `json:"computedAt"`
}
