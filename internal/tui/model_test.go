package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"darkroom/internal/progress"
	"darkroom/pkg/imgutil"
)

func TestLabel(t *testing.T) {
	cases := []struct {
		state progress.State
		unit  Unit
		want  string
	}{
		{progress.State{Done: 3, Total: 10}, Items, "3/10"},
		{progress.State{Done: 0, Total: progress.Unknown}, Items, "0 done"},
		{progress.State{Done: 1000, Total: 4000}, Bytes, "1.0 kB of 4.0 kB"},
		{progress.State{Done: 0, Total: progress.Unknown}, Bytes, "0 B"},
	}
	for _, tc := range cases {
		if got := Label(tc.state, tc.unit); got != tc.want {
			t.Errorf("Label(%+v) = %q, want %q", tc.state, got, tc.want)
		}
	}
}

func TestModelFollowsUpdatesUntilClosed(t *testing.T) {
	updates := make(chan progress.State, 1)
	m := NewModel("Saving", Items, updates)

	updates <- progress.State{Done: 2, Total: 5}
	msg := listenForUpdates(updates)()
	next, cmd := m.Update(msg)
	if cmd == nil {
		t.Fatal("expected to keep listening")
	}
	view := next.View()
	if !strings.Contains(view, "Saving") || !strings.Contains(view, "2/5") {
		t.Fatalf("view = %q", view)
	}

	close(updates)
	next, _ = next.Update(listenForUpdates(updates)())
	if next.View() != "" {
		t.Fatal("view not cleared after updates closed")
	}
}

func TestModelResizesBar(t *testing.T) {
	m := NewModel("Exporting", Bytes, nil)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 200, Height: 40})
	if w := next.(Model).bar.Width; w != 60 {
		t.Fatalf("bar width = %d", w)
	}
	next, _ = m.Update(tea.WindowSizeMsg{Width: 15, Height: 40})
	if w := next.(Model).bar.Width; w != 20 {
		t.Fatalf("bar width = %d", w)
	}
}

func TestExportRows(t *testing.T) {
	rows := ExportRows("/tmp/a.jpg", 2048,
		imgutil.Info{Kind: imgutil.KindJPEG, Width: 600, Height: 400},
		imgutil.Metadata{Make: "Nikon", Model: "Z6", Orientation: 6})

	got := map[string]string{}
	for _, r := range rows {
		got[r.Label] = r.Value
	}
	if got["Camera"] != "Nikon Z6" || got["Dimensions"] != "600x400" || got["Format"] != "jpeg" {
		t.Fatalf("rows = %+v", rows)
	}
	if _, ok := got["Taken"]; ok {
		t.Fatal("empty field rendered")
	}
	if out := RenderSummary(rows); !strings.Contains(out, "Nikon Z6") {
		t.Fatalf("summary = %q", out)
	}
}
