package cluster

import (
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/OneOfOne/xxhash"

	"github.com/agodin/mastermind/config"
)

// Couple is an ordered tuple of groups treated as a replicated unit. Its
// key is the colon-join of its group ids in ascending order.
type Couple struct {
	mu sync.RWMutex

	groups     []*Group
	status     Status
	statusText string
	updatedAt  time.Time
}

// CoupleKey returns the colon-joined key for a sorted-ascending id list.
func CoupleKey(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ":")
}

func NewCouple(groups []*Group) *Couple {
	sorted := make([]*Group, len(groups))
	copy(sorted, groups)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID() < sorted[j].ID() })
	return &Couple{groups: sorted, status: StatusInit}
}

func (c *Couple) GroupIDs() []int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ids := make([]int64, len(c.groups))
	for i, g := range c.groups {
		ids[i] = int64(g.ID())
	}
	return ids
}

func (c *Couple) Key() string {
	return CoupleKey(c.GroupIDs())
}

// ShardHint returns an xxhash64 digest of the couple's key, the same
// hash family aistore uses for HRW mountpath selection.
func (c *Couple) ShardHint() uint64 {
	return xxhash.ChecksumString64(c.Key())
}

func (c *Couple) Groups() []*Group {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*Group, len(c.groups))
	copy(out, c.groups)
	return out
}

// Check reports whether ids equals this couple's group ids in order.
func (c *Couple) Check(ids []int64) bool {
	cur := c.GroupIDs()
	if len(cur) != len(ids) {
		return false
	}
	for i := range cur {
		if cur[i] != ids[i] {
			return false
		}
	}
	return true
}

func (c *Couple) Status() (Status, string) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.status, c.statusText
}

func (c *Couple) setStatus(s Status, text string) {
	c.mu.Lock()
	c.status = s
	c.statusText = text
	c.updatedAt = time.Now()
	c.mu.Unlock()
}

func (c *Couple) UpdatedAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.updatedAt
}

// UpdateStatus derives this couple's status: empty is BAD; mismatched
// metadata across member groups is BAD; any frozen group makes the
// couple FROZEN; all-COUPLED groups resolve to FULL/OK/BROKEN; any other
// mix surfaces the worst status seen among the groups.
func (c *Couple) UpdateStatus(cfg *config.Config) Status {
	groups := c.Groups()
	if len(groups) == 0 {
		c.setStatus(StatusBad, "Couple has no groups")
		return StatusBad
	}

	for i := 0; i < len(groups); i++ {
		for j := i + 1; j < len(groups); j++ {
			if !SameMetadata(groups[i], groups[j]) {
				c.setStatus(StatusBad, "different metadata")
				return StatusBad
			}
		}
	}

	for _, g := range groups {
		if g.Frozen() {
			c.setStatus(StatusFrozen, "")
			return StatusFrozen
		}
	}

	allCoupled := true
	for _, g := range groups {
		st, _ := g.Status()
		if st != StatusCoupled {
			allCoupled = false
			break
		}
	}
	if allCoupled {
		return c.updateStatusAllCoupled(groups, cfg)
	}

	return c.updateStatusWorst(groups)
}

func (c *Couple) updateStatusAllCoupled(groups []*Group, cfg *config.Config) Status {
	if cfg.ForbiddenUnmatchedGroupTotalSpace && spacesDiffer(groups) {
		c.setStatus(StatusBroken, "groups disagree on total_space")
		return StatusBroken
	}
	for _, g := range groups {
		if g.AnyFull(cfg.FullThreshold) {
			c.setStatus(StatusFull, "")
			return StatusFull
		}
	}
	c.setStatus(StatusOK, "")
	return StatusOK
}

func spacesDiffer(groups []*Group) bool {
	if len(groups) == 0 {
		return false
	}
	first := groups[0].TotalSpace()
	for _, g := range groups[1:] {
		if g.TotalSpace() != first {
			return true
		}
	}
	return false
}

// updateStatusWorst scans groups that are not all-COUPLED and surfaces the
// worst status, ranked INIT < BAD < BROKEN, with any RO/MIGRATING group
// pulling the couple to BAD.
func (c *Couple) updateStatusWorst(groups []*Group) Status {
	worst := StatusInit
	for _, g := range groups {
		st, _ := g.Status()
		switch st {
		case StatusRO, StatusMigrating:
			worst = worstCoupleStatus(worst, StatusBad)
		case StatusBad, StatusBroken, StatusInit:
			worst = worstCoupleStatus(worst, st)
		}
	}
	c.setStatus(worst, "")
	return worst
}
