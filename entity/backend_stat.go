package entity

// BackendConfig is backend.config.* from the monitor-stats document. The
// reserved space (in bytes) used in recalculate() is a collector-wide config
// value (see config.Config), not a per-backend stat field.
type BackendConfig struct {
	BlobSize      uint64
	BlobSizeLimit uint64
	Data          string
	File          string
	Group         uint64
}

// Dstat is backend.dstat.* — raw disk-level counters.
type Dstat struct {
	Error     uint64
	IOTicks   uint64
	ReadIOs   uint64
	ReadSectors uint64
	ReadTicks uint64
	WriteIOs  uint64
	WriteTicks uint64
}

// SummaryStats is backend.summary_stats.*.
type SummaryStats struct {
	BaseSize          uint64
	RecordsRemoved     uint64
	RecordsRemovedSize uint64
	RecordsTotal       uint64
	WantDefrag         uint64
}

// Vfs is backend.vfs.*.
type Vfs struct {
	Bavail uint64
	Blocks uint64
	Bsize  uint64
	Error  uint64
	Fsid   uint64
}

// SizeTime is a {size,time} pair, as carried by every commands.* leaf.
type SizeTime struct {
	Size uint64
	Time uint64
}

// CommandStat is the four size/time pairs the parser keeps out of the full
// commands.{LOOKUP|READ|WRITE}.{cache|disk}.{internal|outside} tree: the
// sum of internal+outside for READ.cache, READ.disk, WRITE.cache and
// WRITE.disk.
type CommandStat struct {
	EllCacheRead  SizeTime
	EllDiskRead   SizeTime
	EllCacheWrite SizeTime
	EllDiskWrite  SizeTime
}

// IO is io.{blocking,nonblocking}.current_size.
type IO struct {
	BlockingCurrentSize    uint64
	NonblockingCurrentSize uint64
}

// Status is status.* — backend-reported health flags.
type Status struct {
	DefragState     uint64
	LastStartTsSec  uint64
	LastStartTsUsec uint64
	ReadOnly        bool
	State           uint64
}

// BackendEnabled mirrors the eblob backend state enum value meaning
// "ENABLED"; other values keep the backend STALLED regardless of
// staleness.
const BackendEnabled uint64 = 1

// BackendStat is one backend's full raw snapshot for one ingest batch.
type BackendStat struct {
	BackendID uint64

	MaxBlobBaseSize uint64 // max over base_stats.*.base_size

	Config  BackendConfig
	Dstat   Dstat
	Summary SummaryStats
	Vfs     Vfs
	Command CommandStat
	IO      IO
	Status  Status

	// StatCommitRofsErrors is the raw counter value for this batch —
	// eblob.<id>.disk.stat_commit.errors.30, merged in by Storage.ingest
	// from the parser's side table (the parser itself only produces the
	// per-backend-id map; merging onto the stat is the ingestion step's
	// job).
	StatCommitRofsErrors uint64

	TsSec  uint64
	TsUsec uint64
}

func (s *BackendStat) TsMicros() uint64 {
	return s.TsSec*1e6 + s.TsUsec
}

// BasePath is data_path if non-empty, else file_path.
func (c *BackendConfig) BasePath() string {
	if c.Data != "" {
		return c.Data
	}
	return c.File
}
