package caching

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/plateful/plateful-go/internal/domain/entities/catalog"
	"github.com/plateful/plateful-go/internal/infrastructure/caching/types"
)

func seedCache() *types.TenantCatalogCache {
	return &types.TenantCatalogCache{
		Products: map[string]*catalog.ProductNode{
			"p1": {ID: "p1", Title: "Margherita", NodeType: "Product", Slug: "margherita", PriceCents: 1250, Status: catalog.ProductActive},
		},
		Categories: map[string]*catalog.CategoryNode{
			"c1": {ID: "c1", Title: "Pizza", NodeType: "Category", Slug: "pizza", Weight: 1},
		},
		Customers:      map[string]*catalog.CustomerNode{},
		Specials:       map[string]*catalog.SpecialNode{},
		SlugToID:       map[string]string{"margherita": "p1"},
		AllProductIDs:  []string{"p1"},
		AllCategoryIDs: []string{"c1"},
		FullCatalogMap: []types.FullCatalogMapItem{{ID: "p1", Type: "Product", Title: "Margherita", Slug: "margherita"}},
		LastUpdated:    time.Now().UTC(),
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s := NewSnapshotter(dir, nil)

	src := seedCache()
	if err := s.Write("bistro", src); err != nil {
		t.Fatalf("write snapshot: %v", err)
	}

	dst := &types.TenantCatalogCache{
		Products:   map[string]*catalog.ProductNode{},
		Categories: map[string]*catalog.CategoryNode{},
		Customers:  map[string]*catalog.CustomerNode{},
		Specials:   map[string]*catalog.SpecialNode{},
		SlugToID:   map[string]string{},
	}
	ok, err := s.Restore("bistro", dst, time.Hour)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if !ok {
		t.Fatal("expected restore to hydrate from a fresh snapshot")
	}

	p, exists := dst.Products["p1"]
	if !exists {
		t.Fatal("product p1 missing after restore")
	}
	if p.Title != "Margherita" || p.PriceCents != 1250 {
		t.Errorf("product fields lost in round trip: %+v", p)
	}
	if dst.SlugToID["margherita"] != "p1" {
		t.Error("slug index lost in round trip")
	}
	if len(dst.FullCatalogMap) != 1 {
		t.Errorf("catalog map lost in round trip: %d items", len(dst.FullCatalogMap))
	}
}

func TestRestoreMissingSnapshotFallsThrough(t *testing.T) {
	s := NewSnapshotter(t.TempDir(), nil)

	dst := seedCache()
	ok, err := s.Restore("nobody", dst, time.Hour)
	if err != nil {
		t.Fatalf("missing snapshot should not error: %v", err)
	}
	if ok {
		t.Fatal("restore reported success with no snapshot on disk")
	}
}

func TestRestoreRejectsStaleSnapshot(t *testing.T) {
	dir := t.TempDir()
	s := NewSnapshotter(dir, nil)

	if err := s.Write("bistro", seedCache()); err != nil {
		t.Fatalf("write snapshot: %v", err)
	}

	dst := &types.TenantCatalogCache{
		Products:   map[string]*catalog.ProductNode{},
		Categories: map[string]*catalog.CategoryNode{},
		Customers:  map[string]*catalog.CustomerNode{},
		Specials:   map[string]*catalog.SpecialNode{},
		SlugToID:   map[string]string{},
	}
	ok, err := s.Restore("bistro", dst, -time.Second)
	if err != nil {
		t.Fatalf("stale snapshot should not error: %v", err)
	}
	if ok {
		t.Fatal("restore accepted a snapshot older than maxAge")
	}
	if len(dst.Products) != 0 {
		t.Error("stale restore must not touch the cache")
	}
}

func TestLoadRejectsCorruptHeader(t *testing.T) {
	dir := t.TempDir()
	s := NewSnapshotter(dir, nil)

	if err := os.WriteFile(filepath.Join(dir, "bistro.cbor"), []byte{0xde, 0xad, 0xbe, 0xef, 0, 0, 0, 0}, 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := s.Load("bistro"); err != ErrSnapshotBadMagic {
		t.Fatalf("expected ErrSnapshotBadMagic, got %v", err)
	}
}
