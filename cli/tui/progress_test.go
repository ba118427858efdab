package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ashstone-io/testpool/metrics"
)

func TestProgressModelViewRendersCounts(t *testing.T) {
	mtr := metrics.NewCollector()
	mtr.IncSpawnSuccess()
	mtr.IncChildExitedOK()

	m := progressModel{total: 3, mtr: mtr}
	out := m.View()

	if !strings.Contains(out, "spawned") || !strings.Contains(out, "1") {
		t.Errorf("view missing spawned count: %q", out)
	}
	if !strings.Contains(out, "1/3 total") {
		t.Errorf("view missing total progress: %q", out)
	}
	if !strings.Contains(out, "running") {
		t.Errorf("view missing state label: %q", out)
	}
}

func TestProgressModelState(t *testing.T) {
	cases := []struct {
		name  string
		total int
		setup func(*metrics.Collector)
		want  string
	}{
		{"idle", 3, func(*metrics.Collector) {}, "idle"},
		{"running", 3, func(c *metrics.Collector) { c.IncSpawnSuccess() }, "running"},
		{"succeeded", 1, func(c *metrics.Collector) {
			c.IncSpawnSuccess()
			c.IncChildExitedOK()
		}, "succeeded"},
		{"failed", 2, func(c *metrics.Collector) {
			c.IncSpawnSuccess()
			c.IncChildExitedNonzero()
		}, "failed"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mtr := metrics.NewCollector()
			tc.setup(mtr)
			m := progressModel{total: tc.total, mtr: mtr}
			if got := m.state(mtr.Snapshot()); got != tc.want {
				t.Errorf("state = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestProgressModelQuitsOnQ(t *testing.T) {
	m := progressModel{total: 1, mtr: metrics.NewCollector()}
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("expected a quit command")
	}
}
