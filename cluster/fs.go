package cluster

import (
	"sync"
	"time"
)

// FS is a filesystem identified by (host, fsid); it survives backend
// churn and is owned by Storage. Member backends are tracked as
// non-owning references keyed by their Storage key.
type FS struct {
	mu sync.RWMutex

	host string
	fsid uint64

	tsSec      uint64
	totalSpace uint64
	status     Status
	updatedAt  time.Time

	members map[string]*Backend
}

func NewFS(host string, fsid uint64) *FS {
	return &FS{host: host, fsid: fsid, members: make(map[string]*Backend)}
}

func (f *FS) Host() string { return f.host }
func (f *FS) Fsid() uint64 { return f.fsid }

// AddMember binds a backend to this FS. Idempotent.
func (f *FS) AddMember(b *Backend) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.members[b.Key()] = b
}

// RemoveMember unbinds a backend, e.g. on re-parenting.
func (f *FS) RemoveMember(b *Backend) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.members, b.Key())
}

func (f *FS) Members() []*Backend {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]*Backend, 0, len(f.members))
	for _, b := range f.members {
		out = append(out, b)
	}
	return out
}

// Update recomputes ts and total_space as the maximum observed across the
// FS's current member backends' vfs_total_space — a full recompute
// rather than an incremental high-water mark, so a removed or shrunk
// backend can lower total_space on the next ingest.
func (f *FS) Update() {
	members := f.Members()
	var maxTotal, maxTs uint64
	for _, b := range members {
		if vt := b.Calculated().VfsTotal; vt > maxTotal {
			maxTotal = vt
		}
		if ts := b.Stat().TsSec; ts > maxTs {
			maxTs = ts
		}
	}
	f.mu.Lock()
	f.totalSpace = maxTotal
	f.tsSec = maxTs
	f.updatedAt = time.Now()
	f.mu.Unlock()
}

func (f *FS) TotalSpace() uint64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.totalSpace
}

func (f *FS) TsSec() uint64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.tsSec
}

func (f *FS) UpdatedAt() time.Time {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.updatedAt
}

// UpdateStatus sums total_space across OK/BROKEN members; BROKEN iff that
// sum exceeds this FS's own total_space. Members in any other status
// (notably STALLED) are excluded from the sum.
func (f *FS) UpdateStatus() Status {
	members := f.Members()
	var sum uint64
	for _, b := range members {
		st := b.Status()
		if st != StatusOK && st != StatusBroken {
			continue
		}
		sum += b.Calculated().TotalSpace
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if sum > f.totalSpace {
		f.status = StatusBroken
	} else {
		f.status = StatusOK
	}
	return f.status
}

func (f *FS) Status() Status {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.status
}
