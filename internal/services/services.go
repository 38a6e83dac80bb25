// package services implements the live playback queue collaborators
//
// MPD over TCP or a unix socket, plus an in-memory queue for dry runs
package services

import (
	"github.com/fhs/gompd/v2/mpd"
)

// mpdClient is the subset of [mpd.Client] used by the queue adapter.
type mpdClient interface {
	Ping() error
	Status() (mpd.Attrs, error)
	PlaylistInfo(start, end int) ([]mpd.Attrs, error)
	GetFiles() ([]string, error)
	Add(uri string) error
	Close() error
}

var _ mpdClient = (*mpd.Client)(nil)

// DialFunc opens a new player connection.
type DialFunc func() (mpdClient, error)

// MPDDialer returns a DialFunc for the given network and address, authenticating when password is set.
func MPDDialer(network, addr, password string) DialFunc {
	return func() (mpdClient, error) {
		var (
			c   *mpd.Client
			err error
		)
		if password != "" {
			c, err = mpd.DialAuthenticated(network, addr, password)
		} else {
			c, err = mpd.Dial(network, addr)
		}
		if err != nil {
			return nil, err
		}
		return c, nil
	}
}
