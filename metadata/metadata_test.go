package metadata

import (
	"testing"

	"github.com/tinylib/msgp/msgp"
)

func mapBlob(t *testing.T, version int64, couple []int64, namespace string, frozen bool, migrating bool, jobID string) []byte {
	t.Helper()
	var b []byte
	b = msgp.AppendMapHeader(b, 5)
	b = msgp.AppendString(b, "version")
	b = msgp.AppendInt64(b, version)
	b = msgp.AppendString(b, "couple")
	b = msgp.AppendArrayHeader(b, uint32(len(couple)))
	for _, id := range couple {
		b = msgp.AppendInt64(b, id)
	}
	b = msgp.AppendString(b, "namespace")
	b = msgp.AppendString(b, namespace)
	b = msgp.AppendString(b, "frozen")
	b = msgp.AppendBool(b, frozen)
	b = msgp.AppendString(b, "service")
	b = msgp.AppendMapHeader(b, 2)
	b = msgp.AppendString(b, "status")
	if migrating {
		b = msgp.AppendString(b, "MIGRATING")
	} else {
		b = msgp.AppendString(b, "")
	}
	b = msgp.AppendString(b, "job_id")
	b = msgp.AppendString(b, jobID)
	return b
}

func legacyArrayBlob(ids []int64) []byte {
	var b []byte
	b = msgp.AppendArrayHeader(b, uint32(len(ids)))
	for _, id := range ids {
		b = msgp.AppendInt64(b, id)
	}
	return b
}

func TestDecodeMapShape(t *testing.T) {
	blob := mapBlob(t, 3, []int64{1, 2, 3}, "ns1", true, true, "job-1")

	gm, err := Decode(blob)
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	if gm.Version != 3 || gm.Namespace != "ns1" || !gm.Frozen {
		t.Fatalf("unexpected decode: %+v", gm)
	}
	if !gm.Service.Migrating || gm.Service.JobID != "job-1" {
		t.Fatalf("unexpected service: %+v", gm.Service)
	}
	if len(gm.Couple) != 3 || gm.Couple[0] != 1 || gm.Couple[2] != 3 {
		t.Fatalf("unexpected couple: %v", gm.Couple)
	}
}

func TestDecodeLegacyArrayShape(t *testing.T) {
	blob := legacyArrayBlob([]int64{4, 5})

	gm, err := Decode(blob)
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	if gm.Version != 1 || gm.Namespace != "default" {
		t.Fatalf("legacy defaults not applied: %+v", gm)
	}
	if len(gm.Couple) != 2 || gm.Couple[0] != 4 || gm.Couple[1] != 5 {
		t.Fatalf("unexpected couple: %v", gm.Couple)
	}
}

func TestDecodeRejectsUnsortedCouple(t *testing.T) {
	blob := mapBlob(t, 1, []int64{3, 1, 2}, "ns", false, false, "")
	if _, err := Decode(blob); err == nil {
		t.Fatal("Decode() succeeded on unsorted couple, want error")
	}
}

func TestDecodeRejectsDuplicateCouple(t *testing.T) {
	blob := mapBlob(t, 1, []int64{1, 1, 2}, "ns", false, false, "")
	if _, err := Decode(blob); err == nil {
		t.Fatal("Decode() succeeded on duplicate couple id, want error")
	}
}

func TestDecodeRejectsNonPositiveCouple(t *testing.T) {
	blob := mapBlob(t, 1, []int64{0, 1}, "ns", false, false, "")
	if _, err := Decode(blob); err == nil {
		t.Fatal("Decode() succeeded on non-positive couple id, want error")
	}
}

func TestDecodeRejectsEmptyBlob(t *testing.T) {
	if _, err := Decode(nil); err == nil {
		t.Fatal("Decode() succeeded on empty blob, want error")
	}
}

func TestDecodeRejectsMapWithoutCouple(t *testing.T) {
	var b []byte
	b = msgp.AppendMapHeader(b, 1)
	b = msgp.AppendString(b, "namespace")
	b = msgp.AppendString(b, "ns")

	if _, err := Decode(b); err == nil {
		t.Fatal("Decode() succeeded without required \"couple\" key, want error")
	}
}
