package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"darkroom/internal/editor"
	"darkroom/internal/preview"
	"darkroom/internal/query"
)

var (
	previewDoc     documentFlags
	previewSize    int
	previewZoom    bool
	previewOutput  string
	previewSet     []string
	previewWatch   string
	previewTimeout time.Duration
)

var previewCmd = &cobra.Command{
	Use:   "preview [flags] <photo>",
	Short: "Render a preview of a photo with edited settings",
	Long: "Renders a preview into a file. With --watch the preview is kept in step with a settings " +
		"file, and commands read from stdin (size N, zoom, refresh, wb X Y, save, quit) drive the session.",
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := previewDoc.document(args)
		if err != nil {
			return err
		}
		assignments, err := parseAssignments(previewSet)
		if err != nil {
			return err
		}
		output := previewOutput
		if output == "" {
			output = cfg.Preview.Output
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		client := newClient(nil)
		frames := make(chan preview.Frame, 1)
		failures := make(chan error, 1)
		display := &preview.FileDisplay{
			Path:     output,
			Logger:   logger,
			OnFrame:  func(f preview.Frame) { offer(frames, f) },
			OnFailed: func(err error) { offer(failures, err) },
		}

		coord := preview.New(preview.HTTPLoader{Client: client, URL: doc.URL(cfg.ServerURL)}, display, preview.Options{
			ResizeDebounce:   cfg.ResizeDebounce(),
			SettingsDebounce: cfg.SettingsDebounce(),
			Logger:           logger,
		})
		defer coord.Close()
		session := newSession(client, doc, editor.WithPreview(coord))

		if err := session.Load(ctx); err != nil && !errors.Is(err, editor.ErrNoSettings) {
			return err
		}
		if err := applySettings(session, assignments); err != nil {
			return err
		}
		session.RequestPreview(requestedSize())

		if previewWatch == "" {
			return waitForPreview(ctx, frames, failures, output)
		}
		return watchSettings(ctx, session, coord, previewWatch, frames)
	},
}

func requestedSize() query.Size {
	if previewZoom {
		return query.Unbounded
	}
	return query.Size(previewSize)
}

// offer delivers v unless the receiver is behind, in which case the older
// value is replaced.
func offer[T any](ch chan T, v T) {
	for {
		select {
		case ch <- v:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}

func waitForPreview(ctx context.Context, frames <-chan preview.Frame, failures <-chan error, output string) error {
	ctx, cancel := context.WithTimeout(ctx, previewTimeout)
	defer cancel()
	for {
		select {
		case f := <-frames:
			if f.Stale {
				continue
			}
			fmt.Printf("Preview written to %s (%dx%d)\n", output, f.Info.Width, f.Info.Height)
			return nil
		case err := <-failures:
			return fmt.Errorf("preview failed: %w", err)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func watchSettings(ctx context.Context, session *editor.Session, coord *preview.Coordinator, path string, frames <-chan preview.Frame) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()
	// Editors often replace files on save; watching the directory survives that.
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}
	file := &watchedSettings{path: abs}
	if err := file.apply(session); err != nil {
		logger.Warn().Err(err).Str("file", abs).Msg("settings file not applied")
	}

	commands := make(chan string)
	go readCommands(os.Stdin, commands)

	logger.Info().Str("file", abs).Msg("watching settings")
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs || event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			if err := file.apply(session); err != nil {
				logger.Warn().Err(err).Str("file", abs).Msg("settings file not applied")
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error().Err(err).Msg("watcher error")

		case line, ok := <-commands:
			if !ok {
				commands = nil
				continue
			}
			quit, err := runCommand(ctx, session, coord, line)
			if err != nil {
				logger.Warn().Err(err).Str("command", line).Msg("command failed")
			}
			if quit {
				return nil
			}

		case f := <-frames:
			if !f.Stale {
				logger.Debug().Uint64("seq", f.Seq).Msg("preview current")
			}
		}
	}
}

// watchedSettings is a settings file under watch. Each apply passes on only the
// values that changed since the previous read, so relative operations such as
// orientation = "cw" act once per edit of that line.
type watchedSettings struct {
	path string
	last map[string]string
}

func (f *watchedSettings) apply(session *editor.Session) error {
	values, err := readSettingsFile(f.path)
	if err != nil {
		return err
	}
	changed := make(map[string]string, len(values))
	for k, v := range values {
		if prev, ok := f.last[k]; !ok || prev != v {
			changed[k] = v
		}
	}
	if err := applySettings(session, changed); err != nil {
		return err
	}
	f.last = values
	return nil
}

func readSettingsFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse settings: %w", err)
	}
	values := make(map[string]string, len(raw))
	for k, v := range raw {
		values[k] = fmt.Sprint(v)
	}
	return values, nil
}

func readCommands(r io.Reader, out chan<- string) {
	defer close(out)
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			out <- line
		}
	}
}

func runCommand(ctx context.Context, session *editor.Session, coord *preview.Coordinator, line string) (bool, error) {
	fields := strings.Fields(line)
	switch fields[0] {
	case "quit", "q":
		return true, nil
	case "zoom":
		session.RequestPreview(query.Unbounded)
	case "refresh":
		coord.Refresh()
	case "size":
		if len(fields) != 2 {
			return false, errors.New("usage: size N")
		}
		n, err := strconv.Atoi(fields[1])
		if err != nil || n <= 0 {
			return false, fmt.Errorf("invalid size %q", fields[1])
		}
		session.RequestPreview(query.Size(n))
	case "wb":
		if len(fields) != 3 {
			return false, errors.New("usage: wb X Y")
		}
		x, errX := strconv.ParseFloat(fields[1], 64)
		y, errY := strconv.ParseFloat(fields[2], 64)
		if errX != nil || errY != nil {
			return false, errors.New("wb takes two fractions between 0 and 1")
		}
		return false, session.WhiteBalanceAt(ctx, x, y)
	case "save":
		return false, session.Save(ctx, nil)
	case "status":
		snap, err := coord.Snapshot(ctx)
		if err != nil {
			return false, err
		}
		fmt.Printf("state=%s requests=%d dirty=%v\n", snap.State, snap.Requests, session.Dirty())
	default:
		return false, fmt.Errorf("unknown command %q", fields[0])
	}
	return false, nil
}

func init() {
	previewDoc.register(previewCmd)
	previewCmd.Flags().IntVar(&previewSize, "size", 1024, "Long edge of the preview in pixels")
	previewCmd.Flags().BoolVar(&previewZoom, "zoom", false, "Render at full resolution")
	previewCmd.Flags().StringVarP(&previewOutput, "output", "o", "", "Preview file (default from config)")
	previewCmd.Flags().StringArrayVar(&previewSet, "set", nil, "Change a setting, name=value (repeatable)")
	previewCmd.Flags().StringVar(&previewWatch, "watch", "", "Keep the preview in step with this TOML settings file")
	previewCmd.Flags().DurationVar(&previewTimeout, "timeout", 2*time.Minute, "Give up waiting for a single preview after this long")
	rootCmd.AddCommand(previewCmd)
}
