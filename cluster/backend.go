package cluster

import (
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/agodin/mastermind/config"
	"github.com/agodin/mastermind/entity"
)

// Backend is a single storage slot on a node: one blob set on one
// filesystem. It owns its own lock; fs and group are non-owning
// back-references maintained by Storage.
type Backend struct {
	mu sync.RWMutex

	nodeKey  string
	id       uint64
	basePath string

	stat *entity.BackendStat
	calc entity.CalculatedBackend

	fs    *FS
	group *Group

	status     Status
	statusText string

	initialized bool
	updatedAt   time.Time
}

func NewBackend(nodeKey string, id uint64) *Backend {
	return &Backend{nodeKey: nodeKey, id: id, status: StatusInit}
}

func (b *Backend) ID() uint64      { return b.id }
func (b *Backend) NodeKey() string { return b.nodeKey }

// Key is the Storage-level identity: node_key/backend_id.
func (b *Backend) Key() string {
	return backendKey(b.nodeKey, b.id)
}

func backendKey(nodeKey string, id uint64) string {
	return nodeKey + "/" + strconv.FormatUint(id, 10)
}

// Stat returns a copy of the current raw snapshot.
func (b *Backend) Stat() entity.BackendStat {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.stat == nil {
		return entity.BackendStat{}
	}
	return *b.stat
}

// Calculated returns a copy of the current derived fields.
func (b *Backend) Calculated() entity.CalculatedBackend {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.calc
}

// GroupID returns the group id this backend's latest stat names, or 0.
func (b *Backend) GroupID() uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.stat == nil {
		return 0
	}
	return b.stat.Config.Group
}

// SetFS/SetGroup rebind non-owning references; called by Storage during
// ingest. Each takes only this Backend's lock; no Storage map lock is
// held at the call.
func (b *Backend) SetFS(fs *FS) {
	b.mu.Lock()
	b.fs = fs
	b.mu.Unlock()
}

func (b *Backend) FS() *FS {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.fs
}

func (b *Backend) SetGroup(g *Group) {
	b.mu.Lock()
	b.group = g
	b.mu.Unlock()
}

func (b *Backend) Group() *Group {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.group
}

// Update merges a newer snapshot, computing rate fields as the delta over
// dt against the previously stored snapshot. la1 is the owning node's
// current load average, read by the caller under the node's lock before
// entering Backend's lock (lock order: Node -> Backend).
func (b *Backend) Update(stat *entity.BackendStat, la1 float64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	old := b.stat
	if old == nil {
		b.stat = stat
		b.basePath = stat.Config.BasePath()
		b.initialized = true
		b.updatedAt = time.Now()
		return
	}

	// An older snapshot must never overwrite a newer one.
	if old.TsMicros() > stat.TsMicros() {
		return
	}

	dt := float64(stat.TsMicros()-old.TsMicros()) / 1e6
	if dt > 1.0 && stat.Dstat.Error == 0 {
		b.updateRates(old, stat, dt, la1)
	}
	b.updateRofsDrift(old, stat)

	b.stat = stat
	b.basePath = stat.Config.BasePath()
	b.updatedAt = time.Now()
}

// UpdatedAt returns the wall-clock time of the last Update call, for
// logging/rendering only — status derivation never consults it.
func (b *Backend) UpdatedAt() time.Time {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.updatedAt
}

func (b *Backend) updateRates(old, nu *entity.BackendStat, dt, la1 float64) {
	if nu.Dstat.ReadIOs >= old.Dstat.ReadIOs {
		b.calc.ReadRPS = uint64(math.Floor(float64(nu.Dstat.ReadIOs-old.Dstat.ReadIOs) / dt))
	}
	if nu.Dstat.WriteIOs >= old.Dstat.WriteIOs {
		b.calc.WriteRPS = uint64(math.Floor(float64(nu.Dstat.WriteIOs-old.Dstat.WriteIOs) / dt))
	}

	denom := la1
	if denom < 0.01 {
		denom = 0.01
	}
	b.calc.MaxReadRPS = capAt100(float64(b.calc.ReadRPS) / denom)
	b.calc.MaxWriteRPS = capAt100(float64(b.calc.WriteRPS) / denom)

	diskReadDelta, diskReadOK := deltaOf(old.Command.EllDiskRead.Size, nu.Command.EllDiskRead.Size)
	if diskReadOK {
		b.calc.DiskReadRate = diskReadDelta / dt
	}
	if dw, ok := deltaOf(old.Command.EllDiskWrite.Size, nu.Command.EllDiskWrite.Size); ok {
		b.calc.DiskWriteRate = dw / dt
	}
	cacheReadDelta, cacheReadOK := deltaOf(old.Command.EllCacheRead.Size, nu.Command.EllCacheRead.Size)
	if cacheReadOK {
		b.calc.CacheReadRate = cacheReadDelta / dt
	}
	if cw, ok := deltaOf(old.Command.EllCacheWrite.Size, nu.Command.EllCacheWrite.Size); ok {
		b.calc.CacheWriteRate = cw / dt
	}

	if diskReadOK && cacheReadOK {
		b.calc.NetReadRate = (diskReadDelta + cacheReadDelta) / dt
	}
}

// deltaOf returns newV-oldV as a float and true, or (0, false) when the
// counter appears to have gone backwards — callers leave the prior rate
// in place rather than write a negative one.
func deltaOf(oldV, newV uint64) (float64, bool) {
	if newV < oldV {
		return 0, false
	}
	return float64(newV - oldV), true
}

func capAt100(v float64) float64 {
	if v > 100 {
		return 100
	}
	return v
}

// updateRofsDrift implements the read-only-error drift rule. A restart
// (last_start advances) or a counter reset (rofs count regresses) zeroes
// the diff; otherwise the diff accumulates the observed delta. The diff is
// cleared only here, never by recalculate().
func (b *Backend) updateRofsDrift(old, nu *entity.BackendStat) {
	oldStart := old.Status.LastStartTsSec*1e6 + old.Status.LastStartTsUsec
	newStart := nu.Status.LastStartTsSec*1e6 + nu.Status.LastStartTsUsec

	switch {
	case oldStart < newStart:
		b.calc.StatCommitRofsErrorsDiff = 0
	case old.StatCommitRofsErrors > nu.StatCommitRofsErrors:
		b.calc.StatCommitRofsErrorsDiff = 0
	default:
		b.calc.StatCommitRofsErrorsDiff += nu.StatCommitRofsErrors - old.StatCommitRofsErrors
	}
}

// Recalculate is a pure function of the current stat and the collector's
// global config; calling it twice with the same stat yields identical
// derived fields.
func (b *Backend) Recalculate(cfg *config.Config) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.stat == nil {
		return
	}
	b.recalculateLocked(cfg)
}

func (b *Backend) recalculateLocked(cfg *config.Config) {
	s := b.stat
	c := &b.calc

	c.VfsTotal = s.Vfs.Blocks * s.Vfs.Bsize
	c.VfsFree = s.Vfs.Bavail * s.Vfs.Bsize
	c.VfsUsed = satSub(c.VfsTotal, c.VfsFree)

	c.Records = satSub(s.Summary.RecordsTotal, s.Summary.RecordsRemoved)
	denomRecords := s.Summary.RecordsTotal
	if denomRecords < 1 {
		denomRecords = 1
	}
	c.Fragmentation = float64(s.Summary.RecordsRemoved) / float64(denomRecords)

	if s.Config.BlobSizeLimit > 0 {
		total := s.Config.BlobSizeLimit
		if c.VfsTotal < total {
			total = c.VfsTotal
		}
		c.TotalSpace = total
		c.UsedSpace = s.Summary.BaseSize
		rem := satSub(c.TotalSpace, c.UsedSpace)
		c.FreeSpace = minU64(c.VfsFree, rem)
	} else {
		c.TotalSpace = c.VfsTotal
		c.UsedSpace = c.VfsUsed
		c.FreeSpace = c.VfsFree
	}

	vfsTotalDenom := c.VfsTotal
	if vfsTotalDenom < 1 {
		vfsTotalDenom = 1
	}
	c.FreeSpaceReqShare = uint64(math.Ceil(float64(cfg.ReservedSpaceBytes) * float64(c.TotalSpace) / float64(vfsTotalDenom)))
	c.EffectiveSpace = satSub(c.TotalSpace, c.FreeSpaceReqShare)
	shrink := satSub(c.TotalSpace, c.EffectiveSpace)
	c.EffectiveFreeSpace = satSub(c.FreeSpace, shrink)
}

func satSub(a, b uint64) uint64 {
	if b >= a {
		return 0
	}
	return a - b
}

func minU64(a, b uint64) uint64 {
	if a < b {
		return a
	}
	return b
}

// Full reports whether this backend should be treated as admission-full.
// reserved is the fractional headroom (Config.FullThreshold), distinct
// from ReservedSpaceBytes used by Recalculate.
func (b *Backend) Full(reserved float64) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	threshold := float64(b.calc.EffectiveSpace) * (1 - reserved)
	return float64(b.calc.UsedSpace) >= threshold || b.calc.EffectiveFreeSpace == 0
}

// CheckStalled sets the stalled flag from the wall clock: a backend whose
// last stat timestamp is older than staleTimeout is stalled, but a wall
// clock that is behind ts_sec never marks it stalled.
func (b *Backend) CheckStalled(wallNowSec uint64, staleTimeout int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.stat == nil {
		return
	}
	if wallNowSec < b.stat.TsSec {
		b.calc.Stalled = false
		return
	}
	age := int64(wallNowSec - b.stat.TsSec)
	b.calc.Stalled = age > staleTimeout
}

// UpdateStatus applies the total-order status rule. It reads the owning
// FS's status under the FS's own read lock, following the lock order
// Backend -> FS, and must not call back into this Backend.
func (b *Backend) UpdateStatus() Status {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.stat == nil {
		b.status = StatusInit
		return b.status
	}

	switch {
	case b.calc.Stalled || b.stat.Status.State != entity.BackendEnabled:
		b.status = StatusStalled
	case b.fs != nil && b.fs.Status() == StatusBroken:
		b.status = StatusBroken
	case b.stat.Status.ReadOnly || b.calc.StatCommitRofsErrorsDiff > 0:
		b.status = StatusRO
	default:
		b.status = StatusOK
	}
	return b.status
}

func (b *Backend) Status() Status {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.status
}
