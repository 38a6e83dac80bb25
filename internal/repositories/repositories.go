package repositories

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/desertthunder/blissify/internal/models"
)

// ErrAlreadyCached reports that a pair was already present when an insert was attempted.
//
// [models.PairCache] implementations translate it to a false insert result rather than returning it.
var ErrAlreadyCached = errors.New("pair already cached")

// CountingCache is a [models.PairCache] that can report its size.
type CountingCache interface {
	models.PairCache
	Count(ctx context.Context) (int, error)
}

// nopCloser wraps a cache whose storage is owned by someone else.
type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// OpenPairCache returns the pair cache for backend along with the closer for its storage.
//
// The sqlite backend shares the fingerprint database; badger opens its own directory.
func OpenPairCache(backend string, songs *SongRepository, badgerDir string) (CountingCache, io.Closer, error) {
	switch backend {
	case "", "sqlite":
		return NewDistanceRepository(songs.db), nopCloser{}, nil
	case "badger":
		cache, err := OpenBadgerPairCache(badgerDir)
		if err != nil {
			return nil, nil, err
		}
		return cache, cache, nil
	default:
		return nil, nil, fmt.Errorf("unknown pair cache backend %q", backend)
	}
}
