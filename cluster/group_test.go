package cluster

import (
	"testing"

	"github.com/tinylib/msgp/msgp"

	"github.com/agodin/mastermind/config"
)

// fakeBinder is a minimal CoupleBinder for Group tests: it always creates
// a fresh couple from the requested ids, bypassing Storage entirely.
type fakeBinder struct {
	namespaces map[string]*Couple
}

func newFakeBinder() *fakeBinder { return &fakeBinder{namespaces: map[string]*Couple{}} }

func (f *fakeBinder) CreateOrGetCouple(ids []int64, g *Group) *Couple {
	groups := make([]*Group, len(ids))
	for i, id := range ids {
		if uint64(id) == g.ID() {
			groups[i] = g
			continue
		}
		groups[i] = NewGroup(uint64(id))
	}
	return NewCouple(groups)
}

func (f *fakeBinder) BindNamespace(namespace string, c *Couple) {
	f.namespaces[namespace] = c
}

func groupMetaBlob(couple []int64, namespace string, frozen bool) []byte {
	var b []byte
	b = msgp.AppendMapHeader(b, 3)
	b = msgp.AppendString(b, "couple")
	b = msgp.AppendArrayHeader(b, uint32(len(couple)))
	for _, id := range couple {
		b = msgp.AppendInt64(b, id)
	}
	b = msgp.AppendString(b, "namespace")
	b = msgp.AppendString(b, namespace)
	b = msgp.AppendString(b, "frozen")
	b = msgp.AppendBool(b, frozen)
	return b
}

func TestGroupSaveMetadataNoopOnByteEqualBlob(t *testing.T) {
	g := NewGroup(1)
	blob := groupMetaBlob([]int64{1}, "ns", false)

	g.SaveMetadata(blob)
	if !g.MetadataDirty() {
		t.Fatal("MetadataDirty() = false after first SaveMetadata, want true")
	}
	g.ProcessMetadata(newFakeBinder(), config.Default())
	if g.MetadataDirty() {
		t.Fatal("MetadataDirty() = true after ProcessMetadata, want false")
	}

	g.SaveMetadata(blob) // byte-identical
	if g.MetadataDirty() {
		t.Fatal("SaveMetadata marked dirty on byte-identical blob")
	}
}

func TestGroupProcessMetadataBindsCoupleAndNamespace(t *testing.T) {
	g := NewGroup(1)
	g.SaveMetadata(groupMetaBlob([]int64{1}, "ns1", false))
	binder := newFakeBinder()

	g.ProcessMetadata(binder, config.Default())

	if g.Couple() == nil {
		t.Fatal("Couple() is nil after ProcessMetadata")
	}
	if _, ok := binder.namespaces["ns1"]; !ok {
		t.Fatal("BindNamespace was not called with \"ns1\"")
	}
}

func TestGroupProcessMetadataBadOnCoupleMismatch(t *testing.T) {
	g := NewGroup(1)
	binder := newFakeBinder()
	g.SaveMetadata(groupMetaBlob([]int64{1, 2}, "ns", false))
	g.ProcessMetadata(binder, config.Default())

	g.SaveMetadata(groupMetaBlob([]int64{1, 3}, "ns", false))
	g.ProcessMetadata(binder, config.Default())

	st, _ := g.Status()
	if st != StatusBad {
		t.Fatalf("Status() = %v, want BAD on couple mismatch", st)
	}
}

func TestGroupDeriveStatusInitWhenNoMembers(t *testing.T) {
	g := NewGroup(1)
	g.SaveMetadata(groupMetaBlob([]int64{1}, "ns", false))
	g.ProcessMetadata(newFakeBinder(), config.Default())

	st, _ := g.Status()
	if st != StatusInit {
		t.Fatalf("Status() = %v, want INIT with no member backends", st)
	}
}

func TestGroupDeriveStatusBrokenOnForbiddenDHT(t *testing.T) {
	g := NewGroup(1)
	g.AddMember(NewBackend("h1:1025:1", 1))
	g.AddMember(NewBackend("h1:1025:1", 2))
	g.SaveMetadata(groupMetaBlob([]int64{1}, "ns", false))

	cfg := config.Default()
	cfg.ForbiddenDHTGroups = true
	g.ProcessMetadata(newFakeBinder(), cfg)

	st, _ := g.Status()
	if st != StatusBroken {
		t.Fatalf("Status() = %v, want BROKEN for multi-backend group under forbidden_dht_groups", st)
	}
}

func TestGroupDeriveStatusCoupledWhenAllMembersOK(t *testing.T) {
	g := NewGroup(1)
	b := NewBackend("h1:1025:1", 1)
	b.status = StatusOK
	g.AddMember(b)
	g.SaveMetadata(groupMetaBlob([]int64{1}, "ns", false))

	g.ProcessMetadata(newFakeBinder(), config.Default())

	st, _ := g.Status()
	if st != StatusCoupled {
		t.Fatalf("Status() = %v, want COUPLED", st)
	}
}

func TestSameMetadataComparesByteEquality(t *testing.T) {
	g1 := NewGroup(1)
	g2 := NewGroup(2)
	g1.SaveMetadata([]byte("abc"))
	g2.SaveMetadata([]byte("abc"))
	if !SameMetadata(g1, g2) {
		t.Fatal("SameMetadata() = false for byte-identical blobs")
	}
	g2.SaveMetadata([]byte("xyz"))
	if SameMetadata(g1, g2) {
		t.Fatal("SameMetadata() = true for differing blobs")
	}
}
