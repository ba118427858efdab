package store

import (
	"sync"
	"testing"

	"github.com/ashstone-io/testpool/types"
)

func TestSinglePassingTest(t *testing.T) {
	h := New(nil)
	if err := h.RegisterProcess("progA"); err != nil {
		t.Fatalf("RegisterProcess: %v", err)
	}
	h.Store(Event{Kind: EventRegister, ProgramName: "progA", FunctionName: "t1"})
	h.Store(Event{Kind: EventStatus, ProgramName: "progA", FunctionName: "t1", Status: types.StatusSuccess})

	report, err := h.Compile()
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if len(report.Programs) != 1 || report.Programs[0].Name != "progA" {
		t.Fatalf("unexpected programs: %+v", report.Programs)
	}
	idx := report.Programs[0].Tests["t1"]
	if report.Statuses[idx] != types.StatusSuccess {
		t.Fatalf("status = %v, want Success", report.Statuses[idx])
	}
	if report.Logs[idx] != nil {
		t.Fatalf("logs = %v, want nil", report.Logs[idx])
	}
}

func TestMixedStatuses(t *testing.T) {
	h := New(nil)
	_ = h.RegisterProcess("p")
	h.Store(Event{Kind: EventRegister, ProgramName: "p", FunctionName: "a"})
	h.Store(Event{Kind: EventRegister, ProgramName: "p", FunctionName: "b"})
	h.Store(Event{Kind: EventStatus, ProgramName: "p", FunctionName: "b", Status: types.StatusSuccess})

	report, err := h.Compile()
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	tests := report.Programs[0].Tests
	if report.Statuses[tests["a"]] != types.StatusFail {
		t.Errorf("a = %v, want Fail", report.Statuses[tests["a"]])
	}
	if report.Statuses[tests["b"]] != types.StatusSuccess {
		t.Errorf("b = %v, want Success", report.Statuses[tests["b"]])
	}
}

func TestLogsThenStatus(t *testing.T) {
	h := New(nil)
	_ = h.RegisterProcess("p")
	h.Store(Event{Kind: EventRegister, ProgramName: "p", FunctionName: "x"})
	h.Store(Event{Kind: EventLog, ProgramName: "p", FunctionName: "x", LogKind: types.LogDebug, Msg: "hi"})
	h.Store(Event{Kind: EventLog, ProgramName: "p", FunctionName: "x", LogKind: types.LogInfo, Msg: "ok"})
	h.Store(Event{Kind: EventStatus, ProgramName: "p", FunctionName: "x", Status: types.StatusSuccess})

	report, err := h.Compile()
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	idx := report.Programs[0].Tests["x"]
	logs := report.Logs[idx]
	if len(logs) != 2 || logs[0].Msg != "hi" || logs[1].Msg != "ok" {
		t.Fatalf("logs = %+v", logs)
	}
	if report.Statuses[idx] != types.StatusSuccess {
		t.Fatalf("status = %v, want Success", report.Statuses[idx])
	}
}

func TestUnknownTestDiscarded(t *testing.T) {
	h := New(nil)
	_ = h.RegisterProcess("p")
	h.Store(Event{Kind: EventStatus, ProgramName: "p", FunctionName: "missing", Status: types.StatusSuccess})

	report, err := h.Compile()
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if len(report.Statuses) != 0 {
		t.Fatalf("statuses = %v, want empty", report.Statuses)
	}
}

func TestDuplicateRegistrationIsNonFatal(t *testing.T) {
	h := New(nil)
	_ = h.RegisterProcess("p")
	h.Store(Event{Kind: EventRegister, ProgramName: "p", FunctionName: "a"})
	h.Store(Event{Kind: EventRegister, ProgramName: "p", FunctionName: "a"})

	report, err := h.Compile()
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if len(report.Statuses) != 1 {
		t.Fatalf("statuses = %v, want len 1", report.Statuses)
	}
}

func TestCompileRequiresUniqueOwnership(t *testing.T) {
	h := New(nil)
	clone := h.Clone()

	if _, err := h.Compile(); err != ErrStillShared {
		t.Fatalf("Compile err = %v, want ErrStillShared", err)
	}

	clone.Release()
	if _, err := h.Compile(); err != nil {
		t.Fatalf("Compile after release: %v", err)
	}
}

func TestEmptyRunCompilesCleanly(t *testing.T) {
	h := New(nil)
	report, err := h.Compile()
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if len(report.Programs) != 0 || len(report.Statuses) != 0 || len(report.Logs) != 0 {
		t.Fatalf("expected empty report, got %+v", report)
	}
}

func TestConcurrentRegistrationAcrossPrograms(t *testing.T) {
	h := New(nil)
	const programs = 8
	const testsPerProgram = 20

	var wg sync.WaitGroup
	for p := 0; p < programs; p++ {
		name := "p" + string(rune('A'+p))
		if err := h.RegisterProcess(name); err != nil {
			t.Fatalf("RegisterProcess(%s): %v", name, err)
		}
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			for i := 0; i < testsPerProgram; i++ {
				fn := "t" + string(rune('0'+i%10))
				h.Store(Event{Kind: EventRegister, ProgramName: name, FunctionName: fn + string(rune('a'+i/10))})
			}
		}(name)
	}
	wg.Wait()

	report, err := h.Compile()
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if len(report.Programs) != programs {
		t.Fatalf("programs = %d, want %d", len(report.Programs), programs)
	}
	if len(report.Statuses) != len(report.Logs) {
		t.Fatalf("len(statuses)=%d != len(logs)=%d", len(report.Statuses), len(report.Logs))
	}
}
