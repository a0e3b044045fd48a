package cluster

import (
	"testing"

	"github.com/agodin/mastermind/config"
	"github.com/agodin/mastermind/entity"
)

func stat(tsSec, tsUsec, readIOs, writeIOs uint64) *entity.BackendStat {
	return &entity.BackendStat{
		TsSec:  tsSec,
		TsUsec: tsUsec,
		Dstat:  entity.Dstat{ReadIOs: readIOs, WriteIOs: writeIOs},
		Vfs:    entity.Vfs{Blocks: 1000, Bsize: 1, Bavail: 400},
		Summary: entity.SummaryStats{
			RecordsTotal: 100,
		},
	}
}

func TestBackendUpdateComputesRatesAfterOneSecond(t *testing.T) {
	b := NewBackend("n1:1025:1", 1)
	b.Update(stat(100, 0, 0, 0), 0.5)
	b.Update(stat(102, 0, 20, 10), 0.5)

	calc := b.Calculated()
	if calc.ReadRPS != 10 {
		t.Fatalf("ReadRPS = %d, want 10", calc.ReadRPS)
	}
	if calc.WriteRPS != 5 {
		t.Fatalf("WriteRPS = %d, want 5", calc.WriteRPS)
	}
}

func TestBackendUpdateIgnoresOlderSnapshot(t *testing.T) {
	b := NewBackend("n1:1025:1", 1)
	b.Update(stat(200, 0, 50, 50), 0.5)
	b.Update(stat(100, 0, 0, 0), 0.5)

	if got := b.Stat().TsSec; got != 200 {
		t.Fatalf("stat overwritten by older snapshot: ts_sec = %d, want 200", got)
	}
}

func TestBackendUpdateSkipsRatesUnderOneSecondDt(t *testing.T) {
	b := NewBackend("n1:1025:1", 1)
	b.Update(stat(100, 0, 0, 0), 0.5)
	b.Update(stat(100, 500000, 20, 10), 0.5) // dt = 0.5s

	calc := b.Calculated()
	if calc.ReadRPS != 0 || calc.WriteRPS != 0 {
		t.Fatalf("rates computed despite dt <= 1.0: %+v", calc)
	}
}

func TestBackendRofsDriftResetsOnRestart(t *testing.T) {
	b := NewBackend("n1:1025:1", 1)
	old := stat(100, 0, 0, 0)
	old.Status.LastStartTsSec = 50
	old.StatCommitRofsErrors = 5
	b.Update(old, 0.5)

	nu := stat(102, 0, 0, 0)
	nu.Status.LastStartTsSec = 101 // restart observed
	nu.StatCommitRofsErrors = 2
	b.Update(nu, 0.5)

	if got := b.Calculated().StatCommitRofsErrorsDiff; got != 0 {
		t.Fatalf("StatCommitRofsErrorsDiff = %d, want 0 after restart", got)
	}
}

func TestBackendRofsDriftAccumulates(t *testing.T) {
	b := NewBackend("n1:1025:1", 1)
	old := stat(100, 0, 0, 0)
	old.Status.LastStartTsSec = 50
	old.StatCommitRofsErrors = 5
	b.Update(old, 0.5)

	nu := stat(102, 0, 0, 0)
	nu.Status.LastStartTsSec = 50
	nu.StatCommitRofsErrors = 8
	b.Update(nu, 0.5)

	if got := b.Calculated().StatCommitRofsErrorsDiff; got != 3 {
		t.Fatalf("StatCommitRofsErrorsDiff = %d, want 3", got)
	}
}

func TestBackendRecalculateIsPure(t *testing.T) {
	b := NewBackend("n1:1025:1", 1)
	b.Update(stat(100, 0, 0, 0), 0.5)
	cfg := config.Default()

	b.Recalculate(cfg)
	first := b.Calculated()
	b.Recalculate(cfg)
	second := b.Calculated()

	if first != second {
		t.Fatalf("Recalculate not idempotent: %+v != %+v", first, second)
	}
}

func TestBackendFullWhenEffectiveFreeSpaceZero(t *testing.T) {
	b := NewBackend("n1:1025:1", 1)
	s := stat(100, 0, 0, 0)
	s.Vfs = entity.Vfs{Blocks: 100, Bsize: 1, Bavail: 0}
	b.Update(s, 0.5)
	b.Recalculate(config.Default())

	if !b.Full(0.05) {
		t.Fatal("Full() = false, want true when effective_free_space is 0")
	}
}

func TestBackendCheckStalledRespectsWallClockBehindTs(t *testing.T) {
	b := NewBackend("n1:1025:1", 1)
	b.Update(stat(1000, 0, 0, 0), 0.5)

	b.CheckStalled(900, 120) // wall clock behind ts_sec
	if b.Calculated().Stalled {
		t.Fatal("Stalled = true, want false when wall clock is behind ts_sec")
	}

	b.CheckStalled(2000, 120)
	if !b.Calculated().Stalled {
		t.Fatal("Stalled = false, want true once age exceeds stale_timeout")
	}
}

func TestBackendUpdateStatusPrecedence(t *testing.T) {
	b := NewBackend("n1:1025:1", 1)
	s := stat(100, 0, 0, 0)
	s.Status.State = entity.BackendEnabled
	b.Update(s, 0.5)
	b.Recalculate(config.Default())
	b.CheckStalled(100, 120)

	if got := b.UpdateStatus(); got != StatusOK {
		t.Fatalf("UpdateStatus() = %v, want OK", got)
	}

	s2 := stat(101, 0, 0, 0)
	s2.Status.State = entity.BackendEnabled
	s2.Status.ReadOnly = true
	b.Update(s2, 0.5)
	if got := b.UpdateStatus(); got != StatusRO {
		t.Fatalf("UpdateStatus() = %v, want RO", got)
	}
}
