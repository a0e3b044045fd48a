package parser

import (
	jsoniter "github.com/json-iterator/go"

	"github.com/agodin/mastermind/entity"
)

// readBackends parses the top-level "backends" object: one member per
// backend, keyed by backend id (as a string in JSON).
func readBackends(iter *jsoniter.Iterator) ([]*entity.BackendStat, bool) {
	var out []*entity.BackendStat
	for key := iter.ReadObject(); key != ""; key = iter.ReadObject() {
		b := &entity.BackendStat{}
		if !readBackend(iter, b) {
			return nil, false
		}
		out = append(out, b)
		_ = key // the member key duplicates backend.backend_id; the field wins
	}
	if iter.Error != nil {
		return nil, false
	}
	return out, true
}

func readBackend(iter *jsoniter.Iterator, b *entity.BackendStat) bool {
	for key := iter.ReadObject(); key != ""; key = iter.ReadObject() {
		switch key {
		case "backend_id":
			b.BackendID = iter.ReadUint64()
		case "backend":
			if !readBackendInner(iter, b) {
				return false
			}
		case "commands":
			if !readCommands(iter, &b.Command) {
				return false
			}
		case "io":
			if !readIO(iter, &b.IO) {
				return false
			}
		case "status":
			if !readStatus(iter, &b.Status) {
				return false
			}
		default:
			iter.Skip()
		}
	}
	return iter.Error == nil
}

func readBackendInner(iter *jsoniter.Iterator, b *entity.BackendStat) bool {
	for key := iter.ReadObject(); key != ""; key = iter.ReadObject() {
		switch key {
		case "base_stats":
			if !readBaseStats(iter, b) {
				return false
			}
		case "config":
			if !readConfig(iter, &b.Config) {
				return false
			}
		case "dstat":
			if !readDstat(iter, &b.Dstat) {
				return false
			}
		case "summary_stats":
			if !readSummaryStats(iter, &b.Summary) {
				return false
			}
		case "vfs":
			if !readVfs(iter, &b.Vfs) {
				return false
			}
		default:
			iter.Skip()
		}
	}
	return iter.Error == nil
}

// readBaseStats computes max_blob_base_size as the max over every member's
// base_size.
func readBaseStats(iter *jsoniter.Iterator, b *entity.BackendStat) bool {
	for name := iter.ReadObject(); name != ""; name = iter.ReadObject() {
		for k := iter.ReadObject(); k != ""; k = iter.ReadObject() {
			if k == "base_size" {
				if v := iter.ReadUint64(); v > b.MaxBlobBaseSize {
					b.MaxBlobBaseSize = v
				}
			} else {
				iter.Skip()
			}
		}
	}
	return iter.Error == nil
}

func readConfig(iter *jsoniter.Iterator, c *entity.BackendConfig) bool {
	for key := iter.ReadObject(); key != ""; key = iter.ReadObject() {
		switch key {
		case "blob_size":
			c.BlobSize = iter.ReadUint64()
		case "blob_size_limit":
			c.BlobSizeLimit = iter.ReadUint64()
		case "data":
			c.Data = iter.ReadString()
		case "file":
			c.File = iter.ReadString()
		case "group":
			c.Group = iter.ReadUint64()
		default:
			iter.Skip()
		}
	}
	return iter.Error == nil
}

func readDstat(iter *jsoniter.Iterator, d *entity.Dstat) bool {
	for key := iter.ReadObject(); key != ""; key = iter.ReadObject() {
		switch key {
		case "error":
			d.Error = iter.ReadUint64()
		case "io_ticks":
			d.IOTicks = iter.ReadUint64()
		case "read_ios":
			d.ReadIOs = iter.ReadUint64()
		case "read_sectors":
			d.ReadSectors = iter.ReadUint64()
		case "read_ticks":
			d.ReadTicks = iter.ReadUint64()
		case "write_ios":
			d.WriteIOs = iter.ReadUint64()
		case "write_ticks":
			d.WriteTicks = iter.ReadUint64()
		default:
			iter.Skip()
		}
	}
	return iter.Error == nil
}

func readSummaryStats(iter *jsoniter.Iterator, s *entity.SummaryStats) bool {
	for key := iter.ReadObject(); key != ""; key = iter.ReadObject() {
		switch key {
		case "base_size":
			s.BaseSize = iter.ReadUint64()
		case "records_removed":
			s.RecordsRemoved = iter.ReadUint64()
		case "records_removed_size":
			s.RecordsRemovedSize = iter.ReadUint64()
		case "records_total":
			s.RecordsTotal = iter.ReadUint64()
		case "want_defrag":
			s.WantDefrag = iter.ReadUint64()
		default:
			iter.Skip()
		}
	}
	return iter.Error == nil
}

func readVfs(iter *jsoniter.Iterator, v *entity.Vfs) bool {
	for key := iter.ReadObject(); key != ""; key = iter.ReadObject() {
		switch key {
		case "bavail":
			v.Bavail = iter.ReadUint64()
		case "blocks":
			v.Blocks = iter.ReadUint64()
		case "bsize":
			v.Bsize = iter.ReadUint64()
		case "error":
			v.Error = iter.ReadUint64()
		case "fsid":
			v.Fsid = iter.ReadUint64()
		default:
			iter.Skip()
		}
	}
	return iter.Error == nil
}

// readCommands keeps only READ.{cache,disk} and WRITE.{cache,disk}, each
// summed over {internal,outside}. LOOKUP and every other shape is skipped.
func readCommands(iter *jsoniter.Iterator, cmd *entity.CommandStat) bool {
	for verb := iter.ReadObject(); verb != ""; verb = iter.ReadObject() {
		switch verb {
		case "READ":
			if !readVerb(iter, &cmd.EllCacheRead, &cmd.EllDiskRead) {
				return false
			}
		case "WRITE":
			if !readVerb(iter, &cmd.EllCacheWrite, &cmd.EllDiskWrite) {
				return false
			}
		default:
			iter.Skip()
		}
	}
	return iter.Error == nil
}

func readVerb(iter *jsoniter.Iterator, cache, disk *entity.SizeTime) bool {
	for loc := iter.ReadObject(); loc != ""; loc = iter.ReadObject() {
		var dst *entity.SizeTime
		switch loc {
		case "cache":
			dst = cache
		case "disk":
			dst = disk
		default:
			iter.Skip()
			continue
		}
		if !readInternalOutside(iter, dst) {
			return false
		}
	}
	return iter.Error == nil
}

func readInternalOutside(iter *jsoniter.Iterator, dst *entity.SizeTime) bool {
	for key := iter.ReadObject(); key != ""; key = iter.ReadObject() {
		switch key {
		case "internal", "outside":
			for f := iter.ReadObject(); f != ""; f = iter.ReadObject() {
				switch f {
				case "size":
					dst.Size += iter.ReadUint64()
				case "time":
					dst.Time += iter.ReadUint64()
				default:
					iter.Skip()
				}
			}
		default:
			iter.Skip()
		}
	}
	return iter.Error == nil
}

func readIO(iter *jsoniter.Iterator, io *entity.IO) bool {
	for key := iter.ReadObject(); key != ""; key = iter.ReadObject() {
		switch key {
		case "blocking":
			io.BlockingCurrentSize = readCurrentSize(iter)
		case "nonblocking":
			io.NonblockingCurrentSize = readCurrentSize(iter)
		default:
			iter.Skip()
		}
	}
	return iter.Error == nil
}

func readCurrentSize(iter *jsoniter.Iterator) (size uint64) {
	for key := iter.ReadObject(); key != ""; key = iter.ReadObject() {
		if key == "current_size" {
			size = iter.ReadUint64()
		} else {
			iter.Skip()
		}
	}
	return
}

func readStatus(iter *jsoniter.Iterator, st *entity.Status) bool {
	for key := iter.ReadObject(); key != ""; key = iter.ReadObject() {
		switch key {
		case "defrag_state":
			st.DefragState = iter.ReadUint64()
		case "last_start":
			for k := iter.ReadObject(); k != ""; k = iter.ReadObject() {
				switch k {
				case "tv_sec":
					st.LastStartTsSec = iter.ReadUint64()
				case "tv_usec":
					st.LastStartTsUsec = iter.ReadUint64()
				default:
					iter.Skip()
				}
			}
		case "read_only":
			st.ReadOnly = iter.ReadBool()
		case "state":
			st.State = iter.ReadUint64()
		default:
			iter.Skip()
		}
	}
	return iter.Error == nil
}
