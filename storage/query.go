package storage

import (
	"strconv"
	"strings"

	"github.com/agodin/mastermind/cluster"
	"github.com/agodin/mastermind/cmn/cos"
)

// Node/FS/Group/Couple/Namespace lookups — read paths that take a single
// map read-lock and return; none of them ever upgrades to a write lock.

func (s *Storage) Node(key string) (*cluster.Node, error) {
	s.nodesMu.RLock()
	defer s.nodesMu.RUnlock()
	n, ok := s.nodes[key]
	if !ok {
		return nil, cos.NewErrNotFound("node", key)
	}
	return n, nil
}

func (s *Storage) Nodes() []*cluster.Node {
	s.nodesMu.RLock()
	defer s.nodesMu.RUnlock()
	out := make([]*cluster.Node, 0, len(s.nodes))
	for _, n := range s.nodes {
		out = append(out, n)
	}
	return out
}

// Backend looks up a backend by its Storage key, "<host:port:family>/<id>"
// (the same shape as Backend.Key()).
func (s *Storage) Backend(key string) (*cluster.Backend, error) {
	i := strings.LastIndex(key, "/")
	if i < 0 {
		return nil, cos.NewErrNotFound("backend", key)
	}
	nodeKey, idPart := key[:i], key[i+1:]
	id, err := strconv.ParseUint(idPart, 10, 64)
	if err != nil {
		return nil, cos.NewErrNotFound("backend", key)
	}
	node, err := s.Node(nodeKey)
	if err != nil {
		return nil, cos.NewErrNotFound("backend", key)
	}
	b, ok := node.Backend(id)
	if !ok {
		return nil, cos.NewErrNotFound("backend", key)
	}
	return b, nil
}

func (s *Storage) FS(key string) (*cluster.FS, error) {
	s.fsMu.RLock()
	defer s.fsMu.RUnlock()
	f, ok := s.fs[key]
	if !ok {
		return nil, cos.NewErrNotFound("fs", key)
	}
	return f, nil
}

func (s *Storage) Group(id uint64) (*cluster.Group, error) {
	s.groupsMu.RLock()
	defer s.groupsMu.RUnlock()
	g, ok := s.groups[id]
	if !ok {
		return nil, cos.NewErrNotFound("group", strconv.FormatUint(id, 10))
	}
	return g, nil
}

func (s *Storage) Couple(key string) (*cluster.Couple, error) {
	s.couplesMu.RLock()
	defer s.couplesMu.RUnlock()
	c, ok := s.couples[key]
	if !ok {
		return nil, cos.NewErrNotFound("couple", key)
	}
	return c, nil
}

func (s *Storage) Namespace(name string) (*cluster.Namespace, error) {
	s.nsMu.RLock()
	defer s.nsMu.RUnlock()
	ns, ok := s.namespaces[name]
	if !ok {
		return nil, cos.NewErrNotFound("namespace", name)
	}
	return ns, nil
}

// Snapshot is the dedicated, lock-consistent cross-entity read path: it
// takes every top-level map's read-lock, in lock order, and copies out
// the current entity sets before releasing any of them, so a reader
// never observes one map mid-update while reading another.
type Snapshot struct {
	Nodes      []*cluster.Node
	FS         []*cluster.FS
	Groups     []*cluster.Group
	Couples    []*cluster.Couple
	Namespaces []*cluster.Namespace
}

// Summary is the aggregate projection backing the "summary" request:
// entity counts and a per-entity-kind breakdown of status counts.
type Summary struct {
	NodeCount      int
	FSCount        int
	GroupCount     int
	CoupleCount    int
	NamespaceCount int

	FSStatus     map[string]int
	GroupStatus  map[string]int
	CoupleStatus map[string]int
}

func (s *Storage) Summary() Summary {
	snap := s.Snapshot()
	sum := Summary{
		NodeCount:      len(snap.Nodes),
		FSCount:        len(snap.FS),
		GroupCount:     len(snap.Groups),
		CoupleCount:    len(snap.Couples),
		NamespaceCount: len(snap.Namespaces),
		FSStatus:       map[string]int{},
		GroupStatus:    map[string]int{},
		CoupleStatus:   map[string]int{},
	}
	for _, f := range snap.FS {
		sum.FSStatus[f.Status().String()]++
	}
	for _, g := range snap.Groups {
		st, _ := g.Status()
		sum.GroupStatus[st.String()]++
	}
	for _, c := range snap.Couples {
		st, _ := c.Status()
		sum.CoupleStatus[st.String()]++
	}
	return sum
}

func (s *Storage) Snapshot() Snapshot {
	s.nodesMu.RLock()
	s.fsMu.RLock()
	s.groupsMu.RLock()
	s.couplesMu.RLock()
	s.nsMu.RLock()
	defer s.nsMu.RUnlock()
	defer s.couplesMu.RUnlock()
	defer s.groupsMu.RUnlock()
	defer s.fsMu.RUnlock()
	defer s.nodesMu.RUnlock()

	snap := Snapshot{
		Nodes:      make([]*cluster.Node, 0, len(s.nodes)),
		FS:         make([]*cluster.FS, 0, len(s.fs)),
		Groups:     make([]*cluster.Group, 0, len(s.groups)),
		Couples:    make([]*cluster.Couple, 0, len(s.couples)),
		Namespaces: make([]*cluster.Namespace, 0, len(s.namespaces)),
	}
	for _, n := range s.nodes {
		snap.Nodes = append(snap.Nodes, n)
	}
	for _, f := range s.fs {
		snap.FS = append(snap.FS, f)
	}
	for _, g := range s.groups {
		snap.Groups = append(snap.Groups, g)
	}
	for _, c := range s.couples {
		snap.Couples = append(snap.Couples, c)
	}
	for _, ns := range s.namespaces {
		snap.Namespaces = append(snap.Namespaces, ns)
	}
	return snap
}
