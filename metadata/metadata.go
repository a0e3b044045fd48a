// Package metadata decodes a group's out-of-band, MessagePack-packed
// metadata blob. It operates directly on tinylib/msgp's raw byte-slice
// reader primitives rather than a generated Unmarshaler, because the
// blob's top-level shape is dynamic (a map in the current format, a bare
// array in the legacy one) and the set of recognised keys must be
// enumerated explicitly so unknown keys degrade gracefully instead of
// failing the decode.
package metadata

import (
	"sort"

	"github.com/pkg/errors"
	"github.com/tinylib/msgp/msgp"
)

// Service is the metadata's optional service.{status,job_id} block.
type Service struct {
	Migrating bool
	JobID     string
}

// GroupMetadata is the decoded shape of a group's metadata blob:
// {version, couple, namespace, frozen, service}, or the legacy bare array
// of couple ids (version=1, namespace="default").
type GroupMetadata struct {
	Version   int64
	Couple    []int64
	Namespace string
	Frozen    bool
	Service   Service
}

const migratingStatus = "MIGRATING"

// Decode parses blob per the rules above. A malformed blob or a
// type-mismatched field returns a non-nil error naming the offending key;
// the caller (cluster.Group) turns that into a BAD status with a
// diagnostic message.
func Decode(blob []byte) (*GroupMetadata, error) {
	if len(blob) == 0 {
		return nil, errors.New("empty metadata blob")
	}
	typ := msgp.NextType(blob)
	switch typ {
	case msgp.ArrayType:
		return decodeLegacyArray(blob)
	case msgp.MapType:
		return decodeMap(blob)
	default:
		return nil, errors.Errorf("metadata: unexpected top-level type %v", typ)
	}
}

func decodeLegacyArray(blob []byte) (*GroupMetadata, error) {
	ids, _, err := readIntArray(blob)
	if err != nil {
		return nil, errors.Wrap(err, "metadata: legacy couple array")
	}
	if err := validateCouple(ids); err != nil {
		return nil, err
	}
	return &GroupMetadata{
		Version:   1,
		Couple:    ids,
		Namespace: "default",
	}, nil
}

func decodeMap(blob []byte) (*GroupMetadata, error) {
	sz, rest, err := msgp.ReadMapHeaderBytes(blob)
	if err != nil {
		return nil, errors.Wrap(err, "metadata: map header")
	}
	gm := &GroupMetadata{}
	haveCouple := false
	for i := uint32(0); i < sz; i++ {
		var key string
		key, rest, err = msgp.ReadStringBytes(rest)
		if err != nil {
			return nil, errors.Wrap(err, "metadata: key")
		}
		switch key {
		case "version":
			var v int64
			v, rest, err = msgp.ReadInt64Bytes(rest)
			if err != nil {
				return nil, errors.Wrap(err, "metadata: version")
			}
			gm.Version = v
		case "couple":
			var ids []int64
			ids, rest, err = readIntArrayBytes(rest)
			if err != nil {
				return nil, errors.Wrap(err, "metadata: couple")
			}
			if err := validateCouple(ids); err != nil {
				return nil, err
			}
			gm.Couple = ids
			haveCouple = true
		case "namespace":
			var s string
			s, rest, err = msgp.ReadStringBytes(rest)
			if err != nil {
				return nil, errors.Wrap(err, "metadata: namespace")
			}
			gm.Namespace = s
		case "frozen":
			var b bool
			b, rest, err = msgp.ReadBoolBytes(rest)
			if err != nil {
				return nil, errors.Wrap(err, "metadata: frozen")
			}
			gm.Frozen = b
		case "service":
			var svc Service
			svc, rest, err = decodeService(rest)
			if err != nil {
				return nil, err
			}
			gm.Service = svc
		default:
			rest, err = msgp.Skip(rest)
			if err != nil {
				return nil, errors.Wrapf(err, "metadata: skip unknown key %q", key)
			}
		}
	}
	if !haveCouple {
		return nil, errors.New("metadata: missing required key \"couple\"")
	}
	return gm, nil
}

func decodeService(blob []byte) (Service, []byte, error) {
	var svc Service
	sz, rest, err := msgp.ReadMapHeaderBytes(blob)
	if err != nil {
		return svc, rest, errors.Wrap(err, "metadata: service header")
	}
	for i := uint32(0); i < sz; i++ {
		var key string
		key, rest, err = msgp.ReadStringBytes(rest)
		if err != nil {
			return svc, rest, errors.Wrap(err, "metadata: service key")
		}
		switch key {
		case "status":
			var s string
			s, rest, err = msgp.ReadStringBytes(rest)
			if err != nil {
				return svc, rest, errors.Wrap(err, "metadata: service.status")
			}
			svc.Migrating = s == migratingStatus
		case "job_id":
			var s string
			s, rest, err = msgp.ReadStringBytes(rest)
			if err != nil {
				return svc, rest, errors.Wrap(err, "metadata: service.job_id")
			}
			svc.JobID = s
		default:
			rest, err = msgp.Skip(rest)
			if err != nil {
				return svc, rest, errors.Wrapf(err, "metadata: skip unknown service key %q", key)
			}
		}
	}
	return svc, rest, nil
}

func readIntArray(blob []byte) ([]int64, []byte, error) {
	return readIntArrayBytes(blob)
}

func readIntArrayBytes(blob []byte) ([]int64, []byte, error) {
	sz, rest, err := msgp.ReadArrayHeaderBytes(blob)
	if err != nil {
		return nil, rest, err
	}
	ids := make([]int64, 0, sz)
	for i := uint32(0); i < sz; i++ {
		var v int64
		v, rest, err = msgp.ReadInt64Bytes(rest)
		if err != nil {
			return nil, rest, err
		}
		ids = append(ids, v)
	}
	return ids, rest, nil
}

// validateCouple requires couple to be a sorted-ascending array of
// positive integers.
func validateCouple(ids []int64) error {
	if len(ids) == 0 {
		return errors.New("metadata: couple must be non-empty")
	}
	if !sort.SliceIsSorted(ids, func(i, j int) bool { return ids[i] < ids[j] }) {
		return errors.New("metadata: couple is not sorted ascending")
	}
	for i, id := range ids {
		if id <= 0 {
			return errors.Errorf("metadata: couple[%d]=%d is not positive", i, id)
		}
		if i > 0 && ids[i-1] == id {
			return errors.Errorf("metadata: couple has duplicate id %d", id)
		}
	}
	return nil
}
