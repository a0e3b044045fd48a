// Package parser implements a streaming, event-driven consumer of one
// monitor-stats JSON document, in the same ad hoc SAX style aistore uses
// for one-off JSON field extraction (see cmn/api.go, ais/backend/gcp.go):
// jsoniter.Iterator.ReadObject/ReadArray loops rather than a full struct
// unmarshal, so unknown keys are skipped for free and required-field type
// mismatches are caught without reflection.
package parser

import (
	"github.com/pkg/errors"
	jsoniter "github.com/json-iterator/go"

	"github.com/agodin/mastermind/entity"
)

var jsonCfg = jsoniter.ConfigCompatibleWithStandardLibrary

// Result is the output of parsing one monitor-stats document: the node's
// own stat, one BackendStat per member of "backends", and the rofs-error
// side table keyed by backend_id.
type Result struct {
	Node       entity.NodeStat
	Backends   []*entity.BackendStat
	RofsErrors map[uint64]uint64
}

// StatsParser walks one monitor-stats document. It is not safe for
// concurrent use; callers parse one document per call to Parse.
type StatsParser struct {
	err error
}

func New() *StatsParser {
	return &StatsParser{}
}

// Good reports whether the most recent Parse succeeded. It is false only
// after a malformed document or a type mismatch on a required field.
func (p *StatsParser) Good() bool { return p.err == nil }

// Err returns the diagnostic for the most recent failed Parse, or nil.
func (p *StatsParser) Err() error { return p.err }

// Parse consumes raw, a single monitor-stats document, and returns the
// flattened Result. On failure it returns a non-nil error and the caller
// must discard the whole batch — parse errors are batch-fatal, never
// partial.
func (p *StatsParser) Parse(raw []byte) (*Result, error) {
	p.err = nil
	iter := jsonCfg.BorrowIterator(raw)
	defer jsonCfg.ReturnIterator(iter)

	res := &Result{RofsErrors: make(map[uint64]uint64)}
	var tsSec, tsUsec uint64
	haveTimestamp := false

	for key := iter.ReadObject(); key != ""; key = iter.ReadObject() {
		switch key {
		case "timestamp":
			s, u, ok := readTimestamp(iter)
			if !ok {
				return nil, p.fail("timestamp: malformed")
			}
			tsSec, tsUsec = s, u
			haveTimestamp = true
		case "procfs":
			if !readProcfs(iter, &res.Node) {
				return nil, p.fail("procfs: malformed")
			}
		case "backends":
			backends, ok := readBackends(iter)
			if !ok {
				return nil, p.fail("backends: malformed")
			}
			res.Backends = backends
		case "stats":
			if !readStats(iter, res.RofsErrors) {
				return nil, p.fail("stats: malformed")
			}
		default:
			iter.Skip()
		}
	}
	if iter.Error != nil {
		return nil, p.fail(errors.Wrap(iter.Error, "top-level").Error())
	}
	if !haveTimestamp {
		return nil, p.fail("missing required \"timestamp\"")
	}

	res.Node.TsSec, res.Node.TsUsec = tsSec, tsUsec
	for _, b := range res.Backends {
		b.TsSec, b.TsUsec = tsSec, tsUsec
	}
	return res, nil
}

func (p *StatsParser) fail(msg string) error {
	p.err = errors.New("statsparser: " + msg)
	return p.err
}

// readTimestamp parses {"tv_sec":U,"tv_usec":U}.
func readTimestamp(iter *jsoniter.Iterator) (sec, usec uint64, ok bool) {
	ok = true
	for key := iter.ReadObject(); key != ""; key = iter.ReadObject() {
		switch key {
		case "tv_sec":
			sec = iter.ReadUint64()
		case "tv_usec":
			usec = iter.ReadUint64()
		default:
			iter.Skip()
		}
	}
	if iter.Error != nil {
		ok = false
	}
	return
}

// readProcfs parses procfs.vm.la[0] and procfs.net.net_interfaces.*,
// summing tx/rx bytes across every interface except "lo".
func readProcfs(iter *jsoniter.Iterator, node *entity.NodeStat) bool {
	for key := iter.ReadObject(); key != ""; key = iter.ReadObject() {
		switch key {
		case "vm":
			if !readVM(iter, node) {
				return false
			}
		case "net":
			if !readNet(iter, node) {
				return false
			}
		default:
			iter.Skip()
		}
	}
	return iter.Error == nil
}

func readVM(iter *jsoniter.Iterator, node *entity.NodeStat) bool {
	for key := iter.ReadObject(); key != ""; key = iter.ReadObject() {
		switch key {
		case "la":
			first := true
			for iter.ReadArray() {
				v := iter.ReadFloat64()
				if first {
					node.La1 = v
					first = false
				}
			}
		default:
			iter.Skip()
		}
	}
	return iter.Error == nil
}

func readNet(iter *jsoniter.Iterator, node *entity.NodeStat) bool {
	for key := iter.ReadObject(); key != ""; key = iter.ReadObject() {
		switch key {
		case "net_interfaces":
			if !readNetInterfaces(iter, node) {
				return false
			}
		default:
			iter.Skip()
		}
	}
	return iter.Error == nil
}

func readNetInterfaces(iter *jsoniter.Iterator, node *entity.NodeStat) bool {
	for ifname := iter.ReadObject(); ifname != ""; ifname = iter.ReadObject() {
		rx, tx, ok := readInterface(iter)
		if !ok {
			return false
		}
		if ifname == "lo" {
			continue
		}
		node.RxBytes += rx
		node.TxBytes += tx
	}
	return iter.Error == nil
}

func readInterface(iter *jsoniter.Iterator) (rx, tx uint64, ok bool) {
	ok = true
	for key := iter.ReadObject(); key != ""; key = iter.ReadObject() {
		switch key {
		case "receive":
			rx = readBytesField(iter)
		case "transmit":
			tx = readBytesField(iter)
		default:
			iter.Skip()
		}
	}
	if iter.Error != nil {
		ok = false
	}
	return
}

func readBytesField(iter *jsoniter.Iterator) (bytes uint64) {
	for key := iter.ReadObject(); key != ""; key = iter.ReadObject() {
		if key == "bytes" {
			bytes = iter.ReadUint64()
		} else {
			iter.Skip()
		}
	}
	return
}
