// Package entity holds the plain value types produced by the stats parser:
// raw per-node and per-backend counters, plus the derived scalars computed
// from them. None of these types carry locks or back-references — that
// belongs to the cluster graph built on top of them.
package entity

// NodeStat is the per-node portion of one monitor-stats document: load
// average and network byte counters, timestamped by the document's own
// "timestamp" object.
type NodeStat struct {
	TsSec   uint64
	TsUsec  uint64
	La1     float64
	TxBytes uint64
	RxBytes uint64
}

// TsMicros returns the timestamp as a single microsecond count, used by
// callers that need to order or diff two stats.
func (s *NodeStat) TsMicros() uint64 {
	return s.TsSec*1e6 + s.TsUsec
}
