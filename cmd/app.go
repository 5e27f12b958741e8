package cmd

import (
	"fmt"
	"net/http"
	"os"
	"sort"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"darkroom/internal/editor"
	"darkroom/internal/progress"
	"darkroom/internal/transport"
	"darkroom/internal/tui"
)

// documentFlags select what a command edits.
type documentFlags struct {
	batch  string
	photos []string
}

func (f *documentFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.batch, "batch", "", "Edit the batch with this id instead of a single photo")
	cmd.Flags().StringSliceVar(&f.photos, "photo", nil, "Batch member path, for thumbnail refreshes (repeatable)")
}

func (f *documentFlags) document(args []string) (editor.Document, error) {
	if f.batch != "" {
		if len(args) > 0 {
			return editor.Document{}, fmt.Errorf("a photo path cannot be combined with --batch")
		}
		return editor.Document{Batch: f.batch, Photos: f.photos}, nil
	}
	if len(args) != 1 {
		return editor.Document{}, fmt.Errorf("expected one photo path")
	}
	return editor.Document{Path: args[0]}, nil
}

func newClient(dl transport.Downloader) *transport.Client {
	opts := []transport.Option{
		transport.WithHTTPClient(&http.Client{Timeout: cfg.Timeout()}),
		transport.WithLogger(logger),
	}
	if dl != nil {
		opts = append(opts, transport.WithDownloader(dl))
	}
	return transport.New(opts...)
}

func newSession(client *transport.Client, doc editor.Document, extra ...editor.Option) *editor.Session {
	var (
		alerter  editor.Alerter  = editor.LogAlerter{Logger: logger}
		prompter editor.Prompter = editor.Answer(cfg.UI.AutoUpgrade)
	)
	if cfg.UI.GUIAlerts {
		alerter = editor.DialogAlerter{Logger: logger}
		prompter = editor.DialogPrompter{}
	} else if !cfg.UI.AutoUpgrade && interactive() {
		prompter = editor.Stdio()
	}
	opts := append([]editor.Option{
		editor.WithAlerter(alerter),
		editor.WithPrompter(prompter),
		editor.WithLogger(logger),
	}, extra...)
	return editor.New(client, cfg.ServerURL, doc, opts...)
}

func interactive() bool {
	fd := os.Stderr.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// withProgress runs a request, showing its progress in the terminal UI when
// stderr is a terminal and in the debug log otherwise.
func withProgress(title string, unit tui.Unit, run func(progress.Func) error) error {
	if !interactive() {
		return run(func(s progress.State) {
			logger.Debug().Int64("done", s.Done).Int64("total", s.Total).Msg(title)
		})
	}

	updates := make(chan progress.State, 64)
	uiDone := make(chan struct{})
	go func() {
		if err := tui.Run(title, unit, updates, os.Stderr); err != nil {
			logger.Debug().Err(err).Msg("progress display failed")
		}
		close(uiDone)
	}()

	err := run(func(s progress.State) {
		select {
		case updates <- s:
		default:
		}
	})
	close(updates)
	<-uiDone
	return err
}

// parseAssignments splits key=value flags.
func parseAssignments(pairs []string) (map[string]string, error) {
	out := make(map[string]string, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid setting %q, want name=value", p)
		}
		out[k] = strings.TrimSpace(v)
	}
	return out, nil
}

// modeSettings are applied before the values they imply, so an explicit value
// in the same batch of changes wins.
var modeSettings = []string{"tone", "autoTone", "whiteBalance"}

func applySettings(s *editor.Session, values map[string]string) error {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.SliceStable(keys, func(i, j int) bool {
		ri, rj := modeRank(keys[i]), modeRank(keys[j])
		if ri != rj {
			return ri < rj
		}
		return keys[i] < keys[j]
	})
	for _, k := range keys {
		if k == "orientation" {
			if err := applyRotation(s, values[k]); err == nil {
				continue
			}
		}
		if err := s.SetSetting(k, values[k]); err != nil {
			return err
		}
	}
	return nil
}

func applyRotation(s *editor.Session, op string) error {
	switch op {
	case "ccw", "cw", "hz", "vt":
		return s.Rotate(op)
	}
	return fmt.Errorf("not a rotation")
}

func modeRank(k string) int {
	for i, m := range modeSettings {
		if k == m {
			return i
		}
	}
	return len(modeSettings)
}
