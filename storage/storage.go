// Package storage is the top-level registry: the single entry point for
// ingesting a new stats snapshot batch and for read-only queries, holding
// host->Node, fsid->FS, group_id->Group, key->Couple and name->Namespace
// maps, each behind its own RWMutex. It mirrors the ownership shape of
// aistore's cluster.BMD/meta.Smap: Storage is the sole owner of every
// entity; everything else holds non-owning references.
package storage

import (
	"strconv"
	"sync"

	"github.com/golang/glog"

	"github.com/agodin/mastermind/cluster"
	"github.com/agodin/mastermind/config"
	"github.com/agodin/mastermind/metrics"
)

type Storage struct {
	cfg *config.Holder
	m   *metrics.Metrics

	nodesMu sync.RWMutex
	nodes   map[string]*cluster.Node

	fsMu sync.RWMutex
	fs   map[string]*cluster.FS

	groupsMu sync.RWMutex
	groups   map[uint64]*cluster.Group

	couplesMu sync.RWMutex
	couples   map[string]*cluster.Couple

	nsMu       sync.RWMutex
	namespaces map[string]*cluster.Namespace
}

// New constructs an empty Storage. cfg is the immutable config holder
// injected at construction following the global configuration singleton
// pattern; m may be nil to disable metrics.
func New(cfg *config.Holder, m *metrics.Metrics) *Storage {
	return &Storage{
		cfg:        cfg,
		m:          m,
		nodes:      make(map[string]*cluster.Node),
		fs:         make(map[string]*cluster.FS),
		groups:     make(map[uint64]*cluster.Group),
		couples:    make(map[string]*cluster.Couple),
		namespaces: make(map[string]*cluster.Namespace),
	}
}

func fsKey(host string, fsid uint64) string {
	return host + "/" + strconv.FormatUint(fsid, 10)
}

func (s *Storage) upsertNode(host, port, family string) *cluster.Node {
	key := cluster.NodeKey(host, port, family)
	s.nodesMu.RLock()
	n, ok := s.nodes[key]
	s.nodesMu.RUnlock()
	if ok {
		return n
	}
	s.nodesMu.Lock()
	defer s.nodesMu.Unlock()
	if n, ok := s.nodes[key]; ok {
		return n
	}
	n = cluster.NewNode(host, port, family)
	s.nodes[key] = n
	return n
}

func (s *Storage) upsertFS(host string, fsid uint64) *cluster.FS {
	key := fsKey(host, fsid)
	s.fsMu.RLock()
	f, ok := s.fs[key]
	s.fsMu.RUnlock()
	if ok {
		return f
	}
	s.fsMu.Lock()
	defer s.fsMu.Unlock()
	if f, ok := s.fs[key]; ok {
		return f
	}
	f = cluster.NewFS(host, fsid)
	s.fs[key] = f
	return f
}

func (s *Storage) upsertGroup(id uint64) *cluster.Group {
	s.groupsMu.RLock()
	g, ok := s.groups[id]
	s.groupsMu.RUnlock()
	if ok {
		return g
	}
	s.groupsMu.Lock()
	defer s.groupsMu.Unlock()
	if g, ok := s.groups[id]; ok {
		return g
	}
	g = cluster.NewGroup(id)
	s.groups[id] = g
	return g
}

// CreateOrGetCouple implements cluster.CoupleBinder: it resolves every
// named group id (creating unseen ones, which may not yet have any
// backends) and returns the existing couple for that id list if one is
// already registered.
func (s *Storage) CreateOrGetCouple(ids []int64, self *cluster.Group) *cluster.Couple {
	key := cluster.CoupleKey(ids)

	s.couplesMu.RLock()
	c, ok := s.couples[key]
	s.couplesMu.RUnlock()
	if ok {
		return c
	}

	groups := make([]*cluster.Group, len(ids))
	for i, id := range ids {
		if uint64(id) == self.ID() {
			groups[i] = self
			continue
		}
		groups[i] = s.upsertGroup(uint64(id))
	}

	s.couplesMu.Lock()
	defer s.couplesMu.Unlock()
	if c, ok := s.couples[key]; ok {
		return c
	}
	c = cluster.NewCouple(groups)
	s.couples[key] = c
	return c
}

// BindNamespace implements cluster.CoupleBinder.
func (s *Storage) BindNamespace(name string, c *cluster.Couple) {
	s.nsMu.RLock()
	ns, ok := s.namespaces[name]
	s.nsMu.RUnlock()
	if !ok {
		s.nsMu.Lock()
		if ns, ok = s.namespaces[name]; !ok {
			ns = cluster.NewNamespace(name)
			s.namespaces[name] = ns
		}
		s.nsMu.Unlock()
	}
	ns.AddCouple(c)
}

// reportStatus records the entity's current status in metrics and, at
// verbose log levels, in glog — not strictly a transition (it fires every
// ingest, not just on change), but cheap enough not to bother diffing.
func (s *Storage) reportStatus(kind string, status cluster.Status) {
	s.m.StatusTransition(kind, status.String())
	glog.V(1).Infof("mastermind: %s -> %s", kind, status)
}
