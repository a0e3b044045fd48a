// Package query is the read-only request surface: a Go interface over
// the cluster model plus a thin text-protocol adapter. No network
// listener lives here — RPC/command handling is an external collaborator
// that calls these read-only accessors.
package query

import (
	"github.com/agodin/mastermind/cluster"
	"github.com/agodin/mastermind/storage"
)

// Reader is satisfied by *storage.Storage. It is declared separately so
// handlers and tests can depend on the narrow read contract instead of
// the full Storage type.
type Reader interface {
	Summary() storage.Summary
	Node(key string) (*cluster.Node, error)
	Nodes() []*cluster.Node
	Backend(key string) (*cluster.Backend, error)
	FS(key string) (*cluster.FS, error)
	Group(id uint64) (*cluster.Group, error)
}

var _ Reader = (*storage.Storage)(nil)

// NodeListBackends returns the backends owned by the node named by key,
// for the "node-list-backends <node>" request.
func NodeListBackends(r Reader, key string) ([]*cluster.Backend, error) {
	n, err := r.Node(key)
	if err != nil {
		return nil, err
	}
	return n.Backends(), nil
}

// FSListBackends returns the backends currently bound to the filesystem
// named by key, for the "fs-list-backends <host/fsid>" request.
func FSListBackends(r Reader, key string) ([]*cluster.Backend, error) {
	f, err := r.FS(key)
	if err != nil {
		return nil, err
	}
	return f.Members(), nil
}
