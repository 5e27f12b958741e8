package editor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ncruces/zenity"
	"github.com/rs/zerolog"

	"darkroom/internal/transport"
)

// Alerter tells the user about failed operations and other problems.
type Alerter interface {
	Error(title string, err error)
	Warning(message string)
}

// Prompter asks the user a yes/no question.
type Prompter interface {
	Confirm(message string) bool
}

var endsInWord = regexp.MustCompile(`\w$`)

// AlertText renders an operation failure the way it is shown to the user:
// the error name on the first line, then "Save failed." or
// "Save failed with: <message>.". HTTP failures are named by their status
// text, anything else is an "Error".
func AlertText(title string, err error) string {
	name, msg := "Error", ""
	var (
		he *transport.HTTPError
		pf *transport.PartialFailureError
	)
	switch {
	case errors.As(err, &pf):
		name, msg = pf.StatusText, pf.Message()
	case errors.As(err, &he):
		name, msg = he.StatusText, he.Message
	case err != nil:
		msg = err.Error()
	}
	if name == "" {
		name = "Error"
	}
	if msg == "" {
		return name + "\n" + title + "."
	}
	sep := " "
	if len(msg) > 25 {
		sep = "\n"
	}
	if endsInWord.MatchString(msg) {
		msg += "."
	}
	return name + "\n" + title + " with:" + sep + msg
}

// LogAlerter reports through the logger. It is used when no one is watching a
// screen.
type LogAlerter struct {
	Logger zerolog.Logger
}

func (a LogAlerter) Error(title string, err error) {
	a.Logger.Error().Err(err).Msg(AlertText(title, err))
}

func (a LogAlerter) Warning(message string) {
	a.Logger.Warn().Msg(message)
}

// DialogAlerter shows native message boxes.
type DialogAlerter struct {
	Logger zerolog.Logger
}

func (a DialogAlerter) Error(title string, err error) {
	a.Logger.Error().Err(err).Msg(title)
	if derr := zenity.Error(AlertText(title, err), zenity.Title(title), zenity.ErrorIcon); derr != nil {
		a.Logger.Debug().Err(derr).Msg("error dialog unavailable")
	}
}

func (a DialogAlerter) Warning(message string) {
	a.Logger.Warn().Msg(message)
	if derr := zenity.Warning(message, zenity.WarningIcon); derr != nil {
		a.Logger.Debug().Err(derr).Msg("warning dialog unavailable")
	}
}

// DialogPrompter asks with a native question box.
type DialogPrompter struct{}

func (DialogPrompter) Confirm(message string) bool {
	return zenity.Question(message, zenity.QuestionIcon) == nil
}

// TerminalPrompter asks on a terminal and reads a y/n answer. Anything but a
// yes is a no. It reads exactly one line, so In can be shared with other
// line readers.
type TerminalPrompter struct {
	In  io.Reader
	Out io.Writer
}

func (p TerminalPrompter) Confirm(message string) bool {
	fmt.Fprintf(p.Out, "%s [y/N] ", message)
	line, err := readLine(p.In)
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

// readLine reads up to and including the next newline one byte at a time.
func readLine(r io.Reader) (string, error) {
	var (
		line strings.Builder
		b    [1]byte
	)
	for {
		n, err := r.Read(b[:])
		if n > 0 {
			if b[0] == '\n' {
				return line.String(), nil
			}
			line.WriteByte(b[0])
		}
		if err != nil {
			return line.String(), err
		}
	}
}

// Answer is a Prompter with a fixed reply, for non-interactive runs.
type Answer bool

func (a Answer) Confirm(string) bool { return bool(a) }

// DialogDownloader lets the user pick where an export goes, starting from the
// name the server suggested. Canceling the dialog drops the download.
type DialogDownloader struct {
	Dir string
}

var ErrDownloadCanceled = errors.New("download canceled")

func (d DialogDownloader) Download(ctx context.Context, blob transport.Blob) (string, error) {
	name := blob.Name
	if name == "" {
		name = "export"
	}
	target, err := zenity.SelectFileSave(
		zenity.Context(ctx),
		zenity.Title("Export"),
		zenity.Filename(filepath.Join(d.Dir, name)),
		zenity.ConfirmOverwrite(),
	)
	if errors.Is(err, zenity.ErrCanceled) {
		return "", ErrDownloadCanceled
	}
	if err != nil {
		return "", err
	}
	dl := transport.DirDownloader{Dir: filepath.Dir(target), Overwrite: true}
	blob.Name = filepath.Base(target)
	return dl.Download(ctx, blob)
}

// Stdio is a TerminalPrompter on the process' standard streams.
func Stdio() TerminalPrompter {
	return TerminalPrompter{In: os.Stdin, Out: os.Stderr}
}
