package storage

import (
	"github.com/agodin/mastermind/cluster"
	"github.com/agodin/mastermind/parser"
)

// Ingest applies one parsed monitor-stats batch for the node identified by
// host:port:family, running the full bind-update-recompute pipeline.
// wallNowSec is the wall clock used by CheckStalled; callers pass
// time.Now().Unix() in production and a fixed value in tests.
func (s *Storage) Ingest(host, port, family string, res *parser.Result, wallNowSec uint64) {
	node := s.upsertNode(host, port, family)
	node.UpdateStat(res.Node)
	la1 := node.La1()

	cfg := s.cfg.Load()

	touchedFS := map[string]*cluster.FS{}
	touchedGroups := map[uint64]*cluster.Group{}
	touchedBackends := make([]*cluster.Backend, 0, len(res.Backends))

	for _, bs := range res.Backends {
		bs.StatCommitRofsErrors = res.RofsErrors[bs.BackendID]

		backend, _ := node.UpsertBackend(bs.BackendID)

		fs := s.upsertFS(host, bs.Vfs.Fsid)
		if old := backend.FS(); old != fs {
			if old != nil {
				old.RemoveMember(backend)
			}
			fs.AddMember(backend)
			backend.SetFS(fs)
		}
		touchedFS[fsKey(fs.Host(), fs.Fsid())] = fs

		s.rebindGroup(backend, bs.Config.Group, touchedGroups)

		backend.Update(bs, la1)
		backend.Recalculate(cfg)
		backend.CheckStalled(wallNowSec, int64(cfg.StaleTimeout))

		touchedBackends = append(touchedBackends, backend)
		s.m.BackendIngested()
	}

	for _, fs := range touchedFS {
		fs.Update()
		status := fs.UpdateStatus()
		s.reportStatus("fs", status)
	}

	touchedCouples := map[string]*cluster.Couple{}
	for _, g := range touchedGroups {
		g.ProcessMetadata(s, cfg)
		if c := g.Couple(); c != nil {
			touchedCouples[c.Key()] = c
		}
	}

	for _, b := range touchedBackends {
		status := b.UpdateStatus()
		s.reportStatus("backend", status)
	}

	for _, c := range touchedCouples {
		status := c.UpdateStatus(cfg)
		s.reportStatus("couple", status)
	}

	s.m.BatchParsed()
}

// rebindGroup re-parents backend from its previously bound group (if any)
// to the group named by newGroupID. newGroupID of 0 means "no group" and
// simply detaches.
func (s *Storage) rebindGroup(backend *cluster.Backend, newGroupID uint64, touched map[uint64]*cluster.Group) {
	old := backend.Group()
	if old != nil && old.ID() == newGroupID {
		touched[old.ID()] = old
		return
	}
	if old != nil {
		old.RemoveMember(backend)
		touched[old.ID()] = old
	}
	if newGroupID == 0 {
		backend.SetGroup(nil)
		return
	}
	g := s.upsertGroup(newGroupID)
	g.AddMember(backend)
	backend.SetGroup(g)
	touched[g.ID()] = g
}
