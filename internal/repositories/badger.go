package repositories

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/desertthunder/blissify/internal/models"
)

// Key prefixes for BadgerDB storage
const (
	pairKeyPrefix     = "pair:"
	neighborKeyPrefix = "nbr:"
	keySep            = "\x00"
)

// BadgerPairCache implements models.PairCache on BadgerDB.
//
// Each pair is stored once under its canonical key, with a neighbor index entry per endpoint so that lookups from
// either side are a prefix scan.
type BadgerPairCache struct {
	db *badger.DB
}

// NewBadgerPairCache creates a pair cache on an open BadgerDB.
func NewBadgerPairCache(db *badger.DB) *BadgerPairCache {
	return &BadgerPairCache{db: db}
}

// OpenBadgerPairCache opens (or creates) a BadgerDB in dir and wraps it.
func OpenBadgerPairCache(dir string) (*BadgerPairCache, error) {
	db, err := badger.Open(badger.DefaultOptions(dir).WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return NewBadgerPairCache(db), nil
}

// Close closes the underlying BadgerDB.
func (c *BadgerPairCache) Close() error {
	return c.db.Close()
}

func pairKey(k models.PairKey) []byte {
	return []byte(pairKeyPrefix + k.A + keySep + k.B)
}

func neighborKey(from, to string) []byte {
	return []byte(neighborKeyPrefix + from + keySep + to)
}

// Insert stores res under key and indexes both endpoints in one transaction.
func (c *BadgerPairCache) Insert(ctx context.Context, key models.PairKey, res models.PairResult) (bool, error) {
	data, err := json.Marshal(res)
	if err != nil {
		return false, fmt.Errorf("marshal pair: %w", err)
	}

	err = c.db.Update(func(txn *badger.Txn) error {
		pk := pairKey(key)
		_, err := txn.Get(pk)
		if err == nil {
			return ErrAlreadyCached
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("get pair: %w", err)
		}

		if err := txn.Set(pk, data); err != nil {
			return fmt.Errorf("set pair: %w", err)
		}
		if err := txn.Set(neighborKey(key.A, key.B), nil); err != nil {
			return fmt.Errorf("set neighbor index: %w", err)
		}
		if err := txn.Set(neighborKey(key.B, key.A), nil); err != nil {
			return fmt.Errorf("set neighbor index: %w", err)
		}
		return nil
	})

	switch {
	case errors.Is(err, ErrAlreadyCached), errors.Is(err, badger.ErrConflict):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("cache pair %s: %w", key, err)
	}
	return true, nil
}

// Neighbors returns the cached comparisons anchored at id, closest first.
func (c *BadgerPairCache) Neighbors(ctx context.Context, id string, exclude models.IDSet) ([]models.Neighbor, error) {
	var neighbors []models.Neighbor

	err := c.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := neighborKey(id, "")
		var others []string
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			other := string(bytes.TrimPrefix(it.Item().Key(), prefix))
			if !exclude.Has(other) {
				others = append(others, other)
			}
		}

		for _, other := range others {
			key, err := models.NewPairKey(id, other)
			if err != nil {
				return err
			}

			item, err := txn.Get(pairKey(key))
			if errors.Is(err, badger.ErrKeyNotFound) {
				continue
			}
			if err != nil {
				return fmt.Errorf("get pair: %w", err)
			}

			n := models.Neighbor{ID: other}
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &n.PairResult)
			}); err != nil {
				return fmt.Errorf("decode pair %s: %w", key, err)
			}
			neighbors = append(neighbors, n)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list neighbors of %s: %w", id, err)
	}

	sort.SliceStable(neighbors, func(i, j int) bool {
		if neighbors[i].Distance != neighbors[j].Distance {
			return neighbors[i].Distance < neighbors[j].Distance
		}
		return neighbors[i].ID < neighbors[j].ID
	})
	return neighbors, nil
}

// Count returns the number of cached pairs.
func (c *BadgerPairCache) Count(ctx context.Context) (int, error) {
	count := 0
	err := c.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(pairKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			count++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("count pairs: %w", err)
	}
	return count, nil
}
