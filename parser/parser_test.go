package parser

import "testing"

const sampleDoc = `{
	"timestamp": {"tv_sec": 1000, "tv_usec": 500},
	"procfs": {
		"vm": {"la": [1.5, 1.2, 1.0]},
		"net": {
			"net_interfaces": {
				"lo": {"receive": {"bytes": 999}, "transmit": {"bytes": 999}},
				"eth0": {"receive": {"bytes": 100}, "transmit": {"bytes": 50}},
				"eth1": {"receive": {"bytes": 20}, "transmit": {"bytes": 10}}
			}
		}
	},
	"backends": {
		"1": {
			"backend_id": 1,
			"backend": {
				"config": {"blob_size": 10, "blob_size_limit": 0, "data": "/data1", "file": "data", "group": 3},
				"dstat": {"read_ios": 5, "write_ios": 2},
				"summary_stats": {"records_total": 50, "records_removed": 5},
				"vfs": {"blocks": 1000, "bsize": 1, "bavail": 200, "fsid": 42}
			},
			"status": {"state": 1, "read_only": false}
		}
	},
	"stats": {
		"eblob.1.disk.stat_commit.errors.30": {"count": 7},
		"eblob.1.disk.stat_commit.errors.1": {"count": 999},
		"some.other.unrelated.key.here": {"count": 1}
	}
}`

func TestParseExtractsNodeBackendsAndRofsErrors(t *testing.T) {
	p := New()
	res, err := p.Parse([]byte(sampleDoc))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if !p.Good() {
		t.Fatal("Good() = false after a successful parse")
	}

	if res.Node.TsSec != 1000 || res.Node.TsUsec != 500 {
		t.Fatalf("timestamp not propagated to node stat: %+v", res.Node)
	}
	if res.Node.La1 != 1.5 {
		t.Fatalf("La1 = %v, want 1.5 (first element of vm.la)", res.Node.La1)
	}
	if res.Node.RxBytes != 120 || res.Node.TxBytes != 60 {
		t.Fatalf("rx/tx = %d/%d, want 120/60 excluding \"lo\"", res.Node.RxBytes, res.Node.TxBytes)
	}

	if len(res.Backends) != 1 {
		t.Fatalf("len(Backends) = %d, want 1", len(res.Backends))
	}
	b := res.Backends[0]
	if b.BackendID != 1 || b.Config.Group != 3 || b.Vfs.Fsid != 42 {
		t.Fatalf("unexpected backend: %+v", b)
	}
	if b.TsSec != 1000 || b.TsUsec != 500 {
		t.Fatalf("backend timestamp not stamped from top-level timestamp: %+v", b)
	}

	if got := res.RofsErrors[1]; got != 7 {
		t.Fatalf("RofsErrors[1] = %d, want 7 (only code 30 counted)", got)
	}
	if len(res.RofsErrors) != 1 {
		t.Fatalf("RofsErrors has %d entries, want 1", len(res.RofsErrors))
	}
}

func TestParseFailsWithoutTimestamp(t *testing.T) {
	p := New()
	_, err := p.Parse([]byte(`{"procfs":{}}`))
	if err == nil {
		t.Fatal("Parse() succeeded without a timestamp field, want error")
	}
	if p.Good() {
		t.Fatal("Good() = true after a failed parse")
	}
	if p.Err() == nil {
		t.Fatal("Err() = nil after a failed parse")
	}
}

func TestParseFailsOnMalformedTimestamp(t *testing.T) {
	p := New()
	_, err := p.Parse([]byte(`{"timestamp": "not-an-object"}`))
	if err == nil {
		t.Fatal("Parse() succeeded on a malformed timestamp, want error")
	}
}

func TestParseBackendIDFieldWinsOverMemberKey(t *testing.T) {
	p := New()
	doc := `{
		"timestamp": {"tv_sec": 1, "tv_usec": 0},
		"backends": {
			"5": {"backend_id": 9}
		}
	}`
	res, err := p.Parse([]byte(doc))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if len(res.Backends) != 1 || res.Backends[0].BackendID != 9 {
		t.Fatalf("backend_id field did not win over the member key: %+v", res.Backends)
	}
}
