package entity

// CalculatedBackend carries the rates and space-accounting fields derived
// from a BackendStat by Backend.update/recalculate. It is a plain value
// type; the cluster.Backend that owns it is responsible for locking.
type CalculatedBackend struct {
	ReadRPS  uint64
	WriteRPS uint64

	// MaxReadRPS/MaxWriteRPS are saturated at 100.
	MaxReadRPS  float64
	MaxWriteRPS float64

	DiskReadRate  float64
	DiskWriteRate float64
	CacheReadRate float64
	CacheWriteRate float64
	NetReadRate   float64

	VfsTotal uint64
	VfsFree  uint64
	VfsUsed  uint64

	Records       uint64
	Fragmentation float64

	TotalSpace uint64
	UsedSpace  uint64
	FreeSpace  uint64

	FreeSpaceReqShare  uint64
	EffectiveSpace     uint64
	EffectiveFreeSpace uint64

	// StatCommitRofsErrorsDiff accumulates across updates; it is cleared
	// only on observed restart or counter regression, never by
	// recalculate(). See cluster.Backend.update.
	StatCommitRofsErrorsDiff uint64

	Stalled bool
}
