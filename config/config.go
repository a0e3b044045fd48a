// Package config holds the collector's global, hot-reloadable
// configuration, modeled as an immutable value behind an atomic pointer —
// the same "global configuration singleton" shape aistore uses for its own
// daemon config (cmn.GCO), backed here by go.uber.org/atomic.
package config

import "go.uber.org/atomic"

// Config is the immutable set of thresholds the cluster model consults.
// A new Config value replaces the old one wholesale on reload; nothing
// ever mutates a Config in place.
type Config struct {
	// StaleTimeout is the age (wall_now - stat.ts) past which a backend is
	// considered stalled.
	StaleTimeout Duration

	// ReservedSpaceBytes is the collector-wide, byte-denominated reserve
	// per filesystem. recalculate() prorates it onto each backend by that
	// backend's share of the filesystem (total_space/vfs_total) to get
	// free_space_req_share. Kept as a global knob rather than a per-backend
	// stat field — see DESIGN.md's Open Question note on reserved_space.
	ReservedSpaceBytes uint64

	// FullThreshold is the separate fractional headroom used by
	// Backend.full()'s admission check (used_space >= effective_space *
	// (1 - FullThreshold)), distinct from ReservedSpaceBytes above.
	FullThreshold float64

	// ForbiddenDHTGroups, when true, forces any group with more than one
	// backend into BROKEN.
	ForbiddenDHTGroups bool

	// ForbiddenUnmatchedGroupTotalSpace, when true, forces a couple whose
	// groups have mismatched total_space into BROKEN even when every
	// group is COUPLED.
	ForbiddenUnmatchedGroupTotalSpace bool
}

// Duration is seconds, kept as its own type so config files can use a
// plain integer without importing time semantics into the model.
type Duration int64

// Default returns the configuration this collector ships with absent an
// external override.
func Default() *Config {
	return &Config{
		StaleTimeout:                      120,
		ReservedSpaceBytes:                5 << 30, // 5GiB
		FullThreshold:                     0.05,
		ForbiddenDHTGroups:                true,
		ForbiddenUnmatchedGroupTotalSpace: false,
	}
}

// Holder is the atomic-swap injection point: Storage is constructed with
// one, and a hot-reload replaces the pointer — no caller ever observes a
// partially-updated Config.
type Holder struct {
	p atomic.Pointer[Config]
}

func NewHolder(cfg *Config) *Holder {
	h := &Holder{}
	h.Store(cfg)
	return h
}

func (h *Holder) Load() *Config   { return h.p.Load() }
func (h *Holder) Store(c *Config) { h.p.Store(c) }
