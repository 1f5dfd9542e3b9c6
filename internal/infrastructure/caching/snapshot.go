package caching

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/plateful/plateful-go/internal/domain/entities/catalog"
	"github.com/plateful/plateful-go/internal/infrastructure/caching/types"
	"github.com/plateful/plateful-go/internal/infrastructure/observability/logging"
)

// Snapshot file format constants.
const (
	SnapshotHeaderSize = 8
	SnapshotMagic      = 0x5053 // ASCII 'PS'
	SnapshotVersion    = 1
)

// Errors returned when reading a snapshot file.
var (
	ErrSnapshotTooShort   = errors.New("snapshot file too short for header")
	ErrSnapshotBadMagic   = errors.New("invalid magic bytes in snapshot header")
	ErrSnapshotBadVersion = errors.New("unsupported snapshot version")
	ErrSnapshotTruncated  = errors.New("snapshot payload shorter than header length")
)

// CatalogSnapshot is the serializable mirror of a tenant's catalog cache.
// It is written to disk on shutdown and used to warm the cache on boot so
// a restart does not force a full reload from the database.
type CatalogSnapshot struct {
	TenantID       string                           `json:"tenantId"`
	Products       map[string]*catalog.ProductNode  `json:"products"`
	Categories     map[string]*catalog.CategoryNode `json:"categories"`
	Customers      map[string]*catalog.CustomerNode `json:"customers"`
	Specials       map[string]*catalog.SpecialNode  `json:"specials"`
	SlugToID       map[string]string                `json:"slugToId"`
	AllProductIDs  []string                         `json:"allProductIds"`
	AllCategoryIDs []string                         `json:"allCategoryIds"`
	AllCustomerIDs []string                         `json:"allCustomerIds"`
	AllSpecialIDs  []string                         `json:"allSpecialIds"`
	FullCatalogMap []types.FullCatalogMapItem       `json:"fullCatalogMap"`
	WrittenAt      time.Time                        `json:"writtenAt"`
}

// Snapshotter persists per-tenant catalog caches as CBOR files under a
// single directory, one file per tenant.
type Snapshotter struct {
	dir    string
	logger *logging.ChanneledLogger
}

// NewSnapshotter creates a snapshotter rooted at dir.
func NewSnapshotter(dir string, logger *logging.ChanneledLogger) *Snapshotter {
	return &Snapshotter{dir: dir, logger: logger}
}

func (s *Snapshotter) path(tenantID string) string {
	return filepath.Join(s.dir, tenantID+".cbor")
}

// encodeSnapshotHeader writes the 8-byte snapshot file header.
//
// File layout:
//
//	[0:2]  magic   (big-endian uint16, 0x5053)
//	[2]    version (uint8, 1)
//	[3]    reserved
//	[4:8]  length  (little-endian uint32, payload bytes)
func encodeSnapshotHeader(payloadLength uint32) []byte {
	buf := make([]byte, SnapshotHeaderSize)
	binary.BigEndian.PutUint16(buf[0:2], SnapshotMagic)
	buf[2] = SnapshotVersion
	buf[3] = 0
	binary.LittleEndian.PutUint32(buf[4:8], payloadLength)
	return buf
}

// decodeSnapshotHeader validates the header and returns the payload length.
func decodeSnapshotHeader(data []byte) (uint32, error) {
	if len(data) < SnapshotHeaderSize {
		return 0, ErrSnapshotTooShort
	}
	if binary.BigEndian.Uint16(data[0:2]) != SnapshotMagic {
		return 0, ErrSnapshotBadMagic
	}
	if data[2] != SnapshotVersion {
		return 0, ErrSnapshotBadVersion
	}
	return binary.LittleEndian.Uint32(data[4:8]), nil
}

// Write captures the tenant's catalog cache and persists it atomically.
// The cache is read-locked only while the in-memory copy is taken.
func (s *Snapshotter) Write(tenantID string, cache *types.TenantCatalogCache) error {
	cache.Mu.RLock()
	snap := &CatalogSnapshot{
		TenantID:       tenantID,
		Products:       cache.Products,
		Categories:     cache.Categories,
		Customers:      cache.Customers,
		Specials:       cache.Specials,
		SlugToID:       cache.SlugToID,
		AllProductIDs:  cache.AllProductIDs,
		AllCategoryIDs: cache.AllCategoryIDs,
		AllCustomerIDs: cache.AllCustomerIDs,
		AllSpecialIDs:  cache.AllSpecialIDs,
		FullCatalogMap: cache.FullCatalogMap,
		WrittenAt:      time.Now().UTC(),
	}
	payload, err := cbor.Marshal(snap)
	cache.Mu.RUnlock()
	if err != nil {
		return fmt.Errorf("cbor encode: %w", err)
	}

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("snapshot dir: %w", err)
	}

	frame := make([]byte, SnapshotHeaderSize+len(payload))
	copy(frame[0:SnapshotHeaderSize], encodeSnapshotHeader(uint32(len(payload))))
	copy(frame[SnapshotHeaderSize:], payload)

	// Write to a temp file then rename so a crash never leaves a half
	// snapshot where the loader can find it.
	tmp := s.path(tenantID) + ".tmp"
	if err := os.WriteFile(tmp, frame, 0644); err != nil {
		return fmt.Errorf("snapshot write: %w", err)
	}
	if err := os.Rename(tmp, s.path(tenantID)); err != nil {
		return fmt.Errorf("snapshot rename: %w", err)
	}

	if s.logger != nil {
		s.logger.Cache().Info("Wrote catalog snapshot", "tenantId", tenantID, "bytes", len(frame))
	}
	return nil
}

// Load reads and decodes a tenant's snapshot file.
func (s *Snapshotter) Load(tenantID string) (*CatalogSnapshot, error) {
	data, err := os.ReadFile(s.path(tenantID))
	if err != nil {
		return nil, err
	}

	length, err := decodeSnapshotHeader(data)
	if err != nil {
		return nil, err
	}
	if len(data) < SnapshotHeaderSize+int(length) {
		return nil, ErrSnapshotTruncated
	}

	var snap CatalogSnapshot
	if err := cbor.Unmarshal(data[SnapshotHeaderSize:SnapshotHeaderSize+int(length)], &snap); err != nil {
		return nil, fmt.Errorf("cbor unmarshal: %w", err)
	}
	return &snap, nil
}

// Restore hydrates a tenant's catalog cache from its snapshot file. It
// returns false without error when no snapshot exists or the snapshot is
// older than maxAge, so callers fall back to a database load.
func (s *Snapshotter) Restore(tenantID string, cache *types.TenantCatalogCache, maxAge time.Duration) (bool, error) {
	snap, err := s.Load(tenantID)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}

	if time.Since(snap.WrittenAt) > maxAge {
		if s.logger != nil {
			s.logger.Cache().Debug("Catalog snapshot too old, skipping restore",
				"tenantId", tenantID, "writtenAt", snap.WrittenAt)
		}
		return false, nil
	}

	cache.Mu.Lock()
	defer cache.Mu.Unlock()

	cache.Products = snap.Products
	cache.Categories = snap.Categories
	cache.Customers = snap.Customers
	cache.Specials = snap.Specials
	cache.SlugToID = snap.SlugToID
	cache.AllProductIDs = snap.AllProductIDs
	cache.AllCategoryIDs = snap.AllCategoryIDs
	cache.AllCustomerIDs = snap.AllCustomerIDs
	cache.AllSpecialIDs = snap.AllSpecialIDs
	cache.FullCatalogMap = snap.FullCatalogMap
	cache.CatalogMapLastUpdated = snap.WrittenAt
	cache.LastUpdated = snap.WrittenAt

	// Nil maps would panic later in the stores; normalize after a restore
	// from an empty snapshot.
	if cache.Products == nil {
		cache.Products = make(map[string]*catalog.ProductNode)
	}
	if cache.Categories == nil {
		cache.Categories = make(map[string]*catalog.CategoryNode)
	}
	if cache.Customers == nil {
		cache.Customers = make(map[string]*catalog.CustomerNode)
	}
	if cache.Specials == nil {
		cache.Specials = make(map[string]*catalog.SpecialNode)
	}
	if cache.SlugToID == nil {
		cache.SlugToID = make(map[string]string)
	}

	if s.logger != nil {
		s.logger.Cache().Info("Restored catalog cache from snapshot",
			"tenantId", tenantID,
			"products", len(cache.Products),
			"categories", len(cache.Categories),
			"customers", len(cache.Customers),
			"specials", len(cache.Specials))
	}
	return true, nil
}

// Remove deletes a tenant's snapshot file, ignoring a missing file.
func (s *Snapshotter) Remove(tenantID string) error {
	err := os.Remove(s.path(tenantID))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
