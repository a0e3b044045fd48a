package query

import (
	"strings"
	"testing"

	"github.com/agodin/mastermind/config"
	"github.com/agodin/mastermind/entity"
	"github.com/agodin/mastermind/parser"
	"github.com/agodin/mastermind/storage"
)

func fixtureStorage(t *testing.T) *storage.Storage {
	t.Helper()
	s := storage.New(config.NewHolder(config.Default()), nil)
	res := &parser.Result{
		Node: entity.NodeStat{TsSec: 100},
		Backends: []*entity.BackendStat{
			{
				BackendID: 1,
				TsSec:     100,
				Config:    entity.BackendConfig{Group: 5},
				Vfs:       entity.Vfs{Fsid: 9, Blocks: 1000, Bsize: 1, Bavail: 500},
				Summary:   entity.SummaryStats{RecordsTotal: 10},
			},
		},
		RofsErrors: map[uint64]uint64{},
	}
	s.Ingest("h1", "1025", "1", res, 100)
	return s
}

func TestDispatchSummary(t *testing.T) {
	s := fixtureStorage(t)
	out, err := Dispatch(s, "summary")
	if err != nil {
		t.Fatalf("Dispatch() error: %v", err)
	}
	if !strings.Contains(out, `"NodeCount":1`) {
		t.Fatalf("summary output missing NodeCount: %s", out)
	}
}

func TestDispatchListNodes(t *testing.T) {
	s := fixtureStorage(t)
	out, err := Dispatch(s, "list-nodes")
	if err != nil {
		t.Fatalf("Dispatch() error: %v", err)
	}
	if !strings.Contains(out, `"host":"h1"`) {
		t.Fatalf("list-nodes output missing host: %s", out)
	}
}

func TestDispatchNodeInfo(t *testing.T) {
	s := fixtureStorage(t)
	out, err := Dispatch(s, "node-info h1:1025:1")
	if err != nil {
		t.Fatalf("Dispatch() error: %v", err)
	}
	if !strings.Contains(out, `"host":"h1"`) {
		t.Fatalf("node-info output missing host: %s", out)
	}
}

func TestDispatchNodeInfoNotFound(t *testing.T) {
	s := fixtureStorage(t)
	if _, err := Dispatch(s, "node-info nope:0:0"); err == nil {
		t.Fatal("Dispatch() succeeded for an unknown node, want error")
	}
}

func TestDispatchNodeListBackends(t *testing.T) {
	s := fixtureStorage(t)
	out, err := Dispatch(s, "node-list-backends h1:1025:1")
	if err != nil {
		t.Fatalf("Dispatch() error: %v", err)
	}
	if !strings.Contains(out, `"key":"h1:1025:1/1"`) {
		t.Fatalf("node-list-backends output missing backend key: %s", out)
	}
}

func TestDispatchBackendInfo(t *testing.T) {
	s := fixtureStorage(t)
	out, err := Dispatch(s, "backend-info h1:1025:1/1")
	if err != nil {
		t.Fatalf("Dispatch() error: %v", err)
	}
	if !strings.Contains(out, `"key":"h1:1025:1/1"`) {
		t.Fatalf("backend-info output missing key: %s", out)
	}
}

func TestDispatchFSInfoAndListBackends(t *testing.T) {
	s := fixtureStorage(t)
	if _, err := Dispatch(s, "fs-info h1/9"); err != nil {
		t.Fatalf("Dispatch(fs-info) error: %v", err)
	}
	out, err := Dispatch(s, "fs-list-backends h1/9")
	if err != nil {
		t.Fatalf("Dispatch(fs-list-backends) error: %v", err)
	}
	if !strings.Contains(out, `"key":"h1:1025:1/1"`) {
		t.Fatalf("fs-list-backends output missing backend key: %s", out)
	}
}

func TestDispatchGroupInfo(t *testing.T) {
	s := fixtureStorage(t)
	out, err := Dispatch(s, "group-info 5")
	if err != nil {
		t.Fatalf("Dispatch() error: %v", err)
	}
	if !strings.Contains(out, `"id":5`) {
		t.Fatalf("group-info output missing id: %s", out)
	}
}

func TestDispatchGroupInfoBadUsage(t *testing.T) {
	s := fixtureStorage(t)
	if _, err := Dispatch(s, "group-info not-a-number"); err == nil {
		t.Fatal("Dispatch() succeeded on a non-numeric group id, want error")
	}
	if _, err := Dispatch(s, "group-info"); err == nil {
		t.Fatal("Dispatch() succeeded with no argument, want error")
	}
}

func TestDispatchUnknownCommand(t *testing.T) {
	s := fixtureStorage(t)
	if _, err := Dispatch(s, "frobnicate"); err == nil {
		t.Fatal("Dispatch() succeeded on an unknown command, want error")
	}
}

func TestDispatchEmptyLine(t *testing.T) {
	s := fixtureStorage(t)
	if _, err := Dispatch(s, "   "); err == nil {
		t.Fatal("Dispatch() succeeded on a blank line, want error")
	}
}
