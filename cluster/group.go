package cluster

import (
	"bytes"
	"fmt"
	"sync"
	"time"
	"unsafe"

	"github.com/agodin/mastermind/config"
	"github.com/agodin/mastermind/metadata"
)

// CoupleBinder is the narrow slice of Storage that Group needs to resolve
// its couple and namespace binding, kept as an interface so Group never
// reaches back into the full Storage type — no cycles in ownership.
type CoupleBinder interface {
	CreateOrGetCouple(ids []int64, g *Group) *Couple
	BindNamespace(namespace string, c *Couple)
}

// Group is a logical replica-set member identified by an integer id. Its
// metadata blob is written out-of-band and decoded here; metadata access
// is guarded by its own lock, separate from the group's member/status
// lock.
type Group struct {
	mu sync.RWMutex

	id uint64

	members map[string]*Backend
	couple  *Couple

	status     Status
	statusText string
	updatedAt  time.Time

	metaMu sync.Mutex
	blob   []byte
	parsed *metadata.GroupMetadata
	dirty  bool
}

func NewGroup(id uint64) *Group {
	return &Group{id: id, members: make(map[string]*Backend), status: StatusInit}
}

func (g *Group) ID() uint64 { return g.id }

func (g *Group) AddMember(b *Backend) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.members[b.Key()] = b
}

func (g *Group) RemoveMember(b *Backend) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.members, b.Key())
}

func (g *Group) Members() []*Backend {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]*Backend, 0, len(g.members))
	for _, b := range g.members {
		out = append(out, b)
	}
	return out
}

func (g *Group) MemberCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.members)
}

func (g *Group) Couple() *Couple {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.couple
}

func (g *Group) setCouple(c *Couple) {
	g.mu.Lock()
	g.couple = c
	g.mu.Unlock()
}

func (g *Group) Status() (Status, string) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.status, g.statusText
}

func (g *Group) setStatus(s Status, text string) {
	g.mu.Lock()
	g.status = s
	g.statusText = text
	g.updatedAt = time.Now()
	g.mu.Unlock()
}

func (g *Group) UpdatedAt() time.Time {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.updatedAt
}

// Namespace returns the decoded namespace name, or "" if metadata hasn't
// decoded yet.
func (g *Group) Namespace() string {
	g.metaMu.Lock()
	defer g.metaMu.Unlock()
	if g.parsed == nil {
		return ""
	}
	return g.parsed.Namespace
}

// MetadataBlob returns the currently stored raw blob, for byte-equality
// comparisons against another group.
func (g *Group) MetadataBlob() []byte {
	g.metaMu.Lock()
	defer g.metaMu.Unlock()
	return g.blob
}

// SaveMetadata stores blob if it differs from the currently stored one,
// marking the group dirty so ProcessMetadata will redecode it. A
// byte-identical blob is not stored again and marks the group clean.
func (g *Group) SaveMetadata(blob []byte) {
	g.metaMu.Lock()
	defer g.metaMu.Unlock()
	if bytes.Equal(g.blob, blob) {
		g.dirty = false
		return
	}
	g.blob = blob
	g.dirty = true
}

func (g *Group) MetadataDirty() bool {
	g.metaMu.Lock()
	defer g.metaMu.Unlock()
	return g.dirty
}

// SameMetadata compares two groups' raw blobs byte-for-byte, locking both
// groups' metadata mutexes in address order to avoid deadlock.
func SameMetadata(a, b *Group) bool {
	if a == b {
		return true
	}
	first, second := a, b
	if uintptr(unsafe.Pointer(a)) > uintptr(unsafe.Pointer(b)) {
		first, second = b, a
	}
	first.metaMu.Lock()
	defer first.metaMu.Unlock()
	second.metaMu.Lock()
	defer second.metaMu.Unlock()
	return bytes.Equal(a.blob, b.blob)
}

// ProcessMetadata is idempotent (a no-op when clean) and implements the
// decode/validate/status derivation pipeline.
func (g *Group) ProcessMetadata(binder CoupleBinder, cfg *config.Config) {
	g.metaMu.Lock()
	dirty := g.dirty
	blob := g.blob
	g.metaMu.Unlock()
	if !dirty {
		return
	}

	parsed, err := metadata.Decode(blob)
	if err != nil {
		g.metaMu.Lock()
		g.dirty = false
		g.metaMu.Unlock()
		g.setStatus(StatusBad, err.Error())
		return
	}

	g.metaMu.Lock()
	g.parsed = parsed
	g.dirty = false
	g.metaMu.Unlock()

	var couple *Couple
	if existing := g.Couple(); existing != nil {
		if !existing.Check(parsed.Couple) {
			g.setStatus(StatusBad, fmt.Sprintf(
				"metadata couple %v does not match bound couple %v", parsed.Couple, existing.GroupIDs()))
			return
		}
		couple = existing
	} else {
		couple = binder.CreateOrGetCouple(parsed.Couple, g)
		g.setCouple(couple)
	}
	binder.BindNamespace(parsed.Namespace, couple)

	g.deriveStatus(parsed, cfg)
}

// deriveStatus implements the bottom-up status rule list.
func (g *Group) deriveStatus(parsed *metadata.GroupMetadata, cfg *config.Config) {
	members := g.Members()
	if len(members) == 0 {
		g.setStatus(StatusInit, "")
		return
	}
	if len(members) > 1 && cfg.ForbiddenDHTGroups {
		g.setStatus(StatusBroken, "multiple backends in a forbidden-DHT group")
		return
	}

	var anyBad, anyRO, anyOther bool
	for _, b := range members {
		switch b.Status() {
		case StatusBad:
			anyBad = true
		case StatusRO:
			anyRO = true
		case StatusOK:
			// fine
		default:
			anyOther = true
		}
	}

	switch {
	case anyBad:
		g.setStatus(StatusBroken, "member backend is BAD")
	case anyRO && parsed.Service.Migrating:
		g.setStatus(StatusMigrating, "")
	case anyRO:
		g.setStatus(StatusRO, "")
	case anyOther:
		g.setStatus(StatusBad, "member backend in an unrecognised status")
	default:
		g.setStatus(StatusCoupled, "")
	}
}

// Frozen reports the decoded frozen flag, false if metadata hasn't decoded
// yet.
func (g *Group) Frozen() bool {
	g.metaMu.Lock()
	defer g.metaMu.Unlock()
	return g.parsed != nil && g.parsed.Frozen
}

// TotalSpace is the maximum total_space across member backends — used by
// Couple's forbidden-unmatched-space check.
func (g *Group) TotalSpace() uint64 {
	var max uint64
	for _, b := range g.Members() {
		if ts := b.Calculated().TotalSpace; ts > max {
			max = ts
		}
	}
	return max
}

// AnyFull reports whether any member backend is admission-full.
func (g *Group) AnyFull(reserved float64) bool {
	for _, b := range g.Members() {
		if b.Full(reserved) {
			return true
		}
	}
	return false
}
