// Package inventory is a reference implementation of an inventory
// sidecar kept outside the core cluster model: an async
// host->datacenter Resolver backed by a persistent {host,dc,timestamp}
// cache. Only the contract and this reference implementation live here;
// the actual lookup transport is injected as a Lookup func.
package inventory

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/buntdb"
)

// Entry is one row of the persistent host inventory cache.
type Entry struct {
	Host      string `json:"host"`
	DC        string `json:"dc"`
	Timestamp int64  `json:"timestamp"`
}

// Store is the narrow persistence contract the resolver needs, grounded
// in aistore's dbdriver.Driver (dbdriver/api.go) but trimmed to the
// single collection this cache actually uses.
type Store interface {
	Set(host string, e Entry) error
	Get(host string) (Entry, error)
	Delete(host string) error
	List() ([]Entry, error)
	Close() error
}

// ErrNotFound mirrors dbdriver.ErrNotFound's shape for a missing host.
type ErrNotFound struct {
	Host string
}

func (e *ErrNotFound) Error() string { return fmt.Sprintf("inventory: host %q not found", e.Host) }

// BuntStore is a Store backed by github.com/tidwall/buntdb, an embedded
// key/value store named in go.mod without an existing buntdb-backed
// driver anywhere in the dbdriver package; this is that driver,
// following dbdriver.Driver's Set/Get/List/Delete shape against buntdb's
// real transaction API.
type BuntStore struct {
	db *buntdb.DB
}

func OpenBuntStore(path string) (*BuntStore, error) {
	db, err := buntdb.Open(path)
	if err != nil {
		return nil, err
	}
	return &BuntStore{db: db}, nil
}

func (s *BuntStore) Set(host string, e Entry) error {
	raw, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *buntdb.Tx) error {
		_, _, err := tx.Set(host, string(raw), nil)
		return err
	})
}

func (s *BuntStore) Get(host string) (Entry, error) {
	var e Entry
	err := s.db.View(func(tx *buntdb.Tx) error {
		raw, err := tx.Get(host)
		if err != nil {
			if err == buntdb.ErrNotFound {
				return &ErrNotFound{Host: host}
			}
			return err
		}
		return json.Unmarshal([]byte(raw), &e)
	})
	return e, err
}

func (s *BuntStore) Delete(host string) error {
	return s.db.Update(func(tx *buntdb.Tx) error {
		_, err := tx.Delete(host)
		if err == buntdb.ErrNotFound {
			return nil
		}
		return err
	})
}

func (s *BuntStore) List() ([]Entry, error) {
	var out []Entry
	err := s.db.View(func(tx *buntdb.Tx) error {
		return tx.Ascend("", func(key, value string) bool {
			var e Entry
			if err := json.Unmarshal([]byte(value), &e); err == nil {
				out = append(out, e)
			}
			return true
		})
	})
	return out, err
}

func (s *BuntStore) Close() error { return s.db.Close() }
