// Package editor is the editing session of one photo or batch: it loads the
// stored settings, applies edits, keeps the preview in step and saves or
// exports through the transport.
package editor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"darkroom/internal/progress"
	"darkroom/internal/query"
	"darkroom/internal/transport"
)

const (
	incompatibleProcess = "This file was processed with an incompatible version of Camera Raw.\n" +
		"Previous edits will not be faithfully reproduced."
	olderProcess = "This file was processed with an older version of Camera Raw.\n" +
		"Previous edits may not be faithfully reproduced.\n\n" +
		"Update to the current Camera Raw process version?"

	oldestProcess = 6.7
)

var (
	// ErrNoSettings means the server has no editable settings for the document.
	ErrNoSettings = errors.New("no settings to edit")
	// ErrOutsidePhoto is returned for white balance points off the image.
	ErrOutsidePhoto = errors.New("point is outside the photo")
	// ErrNoWhiteBalance means the server could not measure a white balance.
	ErrNoWhiteBalance = errors.New("no white balance at point")
)

// Document is what a session edits: a single photo or a batch of photos
// sharing one set of settings.
type Document struct {
	// Path of a single photo.
	Path string
	// Batch id; Photos lists the batch members for thumbnail refreshes.
	Batch  string
	Photos []string
}

func (d Document) resource() string {
	if d.Batch != "" {
		return "/batch/" + url.PathEscape(d.Batch)
	}
	return "/photo/" + escapePath(d.Path)
}

// URL of the document on the server at serverURL.
func (d Document) URL(serverURL string) string {
	return strings.TrimRight(serverURL, "/") + d.resource()
}

func (d Document) thumbs() []string {
	paths := d.Photos
	if d.Batch == "" {
		paths = []string{d.Path}
	}
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		out = append(out, "/thumb/"+escapePath(p))
	}
	return out
}

func escapePath(p string) string {
	return (&url.URL{Path: strings.TrimPrefix(p, "/")}).EscapedPath()
}

// Previewer receives the desired preview state.
type Previewer interface {
	SetSettings(query.Query)
	Resize(query.Size)
}

// Session holds the settings being edited. It is safe for concurrent use.
type Session struct {
	client   *transport.Client
	server   string
	doc      Document
	preview  Previewer
	alerter  Alerter
	prompter Prompter
	logger   zerolog.Logger

	mu       sync.Mutex
	settings query.Settings
	asShot   *whiteBalance
	loaded   bool
	dirty    bool
	edits    uint64
}

type whiteBalance struct {
	Temperature float64 `json:"temperature"`
	Tint        float64 `json:"tint"`
}

// Option customizes a Session.
type Option func(*Session)

func WithPreview(p Previewer) Option {
	return func(s *Session) { s.preview = p }
}

func WithAlerter(a Alerter) Option {
	return func(s *Session) { s.alerter = a }
}

func WithPrompter(p Prompter) Option {
	return func(s *Session) { s.prompter = p }
}

func WithLogger(l zerolog.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// New creates a session for doc on the server at serverURL. Until Load is
// called it edits default settings.
func New(client *transport.Client, serverURL string, doc Document, opts ...Option) *Session {
	s := &Session{
		client:   client,
		server:   strings.TrimRight(serverURL, "/"),
		doc:      doc,
		prompter: Answer(false),
		logger:   zerolog.Nop(),
		settings: query.Defaults(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.alerter == nil {
		s.alerter = LogAlerter{Logger: s.logger}
	}
	s.logger = s.logger.With().Str("component", "editor").Logger()
	return s
}

// URL of the edited document.
func (s *Session) URL() string {
	return s.doc.URL(s.server)
}

func (s *Session) Settings() query.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

// Loaded reports whether stored settings were loaded.
func (s *Session) Loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded
}

// Dirty reports whether there are edits that were not saved.
func (s *Session) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

// Load fetches the stored settings, upgrading their process version when
// needed, and then the As Shot white balance. The session is dirty afterwards
// only if the process version was upgraded.
func (s *Session) Load(ctx context.Context) error {
	out, err := s.client.Send(ctx, http.MethodGet, s.URL()+"?settings", transport.Options{})
	if err != nil {
		s.alerter.Error("Load failed", err)
		return err
	}
	js, ok := out.(transport.JSON)
	if !ok || isEmptyJSON(js.Value) {
		// Nothing stored: the session goes on editing its defaults.
		s.mu.Lock()
		s.pushLocked()
		s.mu.Unlock()
		return ErrNoSettings
	}
	var loaded query.Settings
	if err := js.Decode(&loaded); err != nil {
		err = fmt.Errorf("decoding settings: %w", err)
		s.alerter.Error("Load failed", err)
		return err
	}

	upgraded := false
	if loaded.Process == 0 || loaded.Process < oldestProcess || loaded.Process > query.CurrentProcess {
		if loaded.Process != 0 {
			s.alerter.Warning(incompatibleProcess)
		}
		loaded.Process = query.CurrentProcess
		upgraded = true
	}
	if loaded.Process < query.CurrentProcess && s.prompter.Confirm(olderProcess) {
		loaded.Process = query.CurrentProcess
		upgraded = true
	}
	if loaded.Orientation == 0 {
		loaded.Orientation = 1
	}
	loaded.Normalize()

	s.mu.Lock()
	s.settings = loaded
	s.loaded = true
	s.dirty = upgraded
	s.edits++
	s.pushLocked()
	s.mu.Unlock()

	s.logger.Info().
		Float64("process", loaded.Process).
		Bool("upgraded", upgraded).
		Str("profile", loaded.Profile).
		Msg("settings loaded")

	s.loadAsShot(ctx)
	return nil
}

// loadAsShot fetches the camera white balance. Failures are not reported:
// the presets still work without it.
func (s *Session) loadAsShot(ctx context.Context) {
	out, err := s.client.Send(ctx, http.MethodGet, s.URL()+"?wb", transport.Options{})
	if err != nil {
		s.logger.Debug().Err(err).Msg("as shot white balance unavailable")
		return
	}
	wb, ok := decodeWhiteBalance(out)
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.asShot = &wb
	if s.settings.WhiteBalance == query.WhiteBalanceAsShot {
		s.settings.Temperature = wb.Temperature
		s.settings.Tint = wb.Tint
	}
}

func isEmptyJSON(v []byte) bool {
	switch strings.TrimSpace(string(v)) {
	case "", `""`, "null":
		return true
	}
	return false
}

func decodeWhiteBalance(out transport.Outcome) (whiteBalance, bool) {
	js, ok := out.(transport.JSON)
	if !ok {
		return whiteBalance{}, false
	}
	var wb whiteBalance
	if err := js.Decode(&wb); err != nil || wb.Temperature == 0 {
		return whiteBalance{}, false
	}
	return wb, true
}

// SetSetting changes one setting by its wire name and requests a matching
// preview.
func (s *Session) SetSetting(name, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.settings.Set(name, value); err != nil {
		return err
	}
	if name == "whiteBalance" && value == query.WhiteBalanceAsShot && s.asShot != nil {
		s.settings.Temperature = s.asShot.Temperature
		s.settings.Tint = s.asShot.Tint
	}
	s.touchLocked()
	return nil
}

// Rotate rotates (ccw, cw) or flips (hz, vt) the photo.
func (s *Session) Rotate(op string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.settings.Rotate(op); err != nil {
		return err
	}
	s.touchLocked()
	return nil
}

// RequestPreview records the size the preview is displayed at.
func (s *Session) RequestPreview(size query.Size) {
	if s.preview != nil {
		s.preview.Resize(size)
	}
}

func (s *Session) touchLocked() {
	s.dirty = true
	s.edits++
	s.pushLocked()
}

func (s *Session) pushLocked() {
	if s.preview != nil {
		s.preview.SetSettings(s.settings.Query())
	}
}

// Save stores the current settings on the server. Edits made while the save
// was running keep the session dirty. Thumbnails are refreshed whatever the
// outcome.
func (s *Session) Save(ctx context.Context, onProgress progress.Func) error {
	s.mu.Lock()
	q := query.Join(query.Flag("save"), s.settings.Query())
	gen := s.edits
	s.mu.Unlock()

	_, err := s.client.Send(ctx, http.MethodPost, s.URL()+"?"+q.Encode(), transport.Options{OnProgress: onProgress})
	if err != nil {
		s.alerter.Error("Save failed", err)
	} else {
		s.mu.Lock()
		if s.edits == gen {
			s.dirty = false
		}
		s.mu.Unlock()
		s.logger.Info().Str("url", s.URL()).Msg("settings saved")
	}

	for _, thumb := range s.doc.thumbs() {
		if perr := s.client.Ping(ctx, s.server+thumb); perr != nil {
			s.logger.Debug().Err(perr).Str("thumb", thumb).Msg("thumbnail refresh failed")
		}
	}
	return err
}

// Export renders the photo with the current settings and the given output
// options. Attachments are delivered by the client's Downloader.
func (s *Session) Export(ctx context.Context, opts query.ExportOptions, onProgress progress.Func) (transport.Outcome, error) {
	eq, err := opts.Query()
	if err != nil {
		err = fmt.Errorf("export options: %w", err)
		s.alerter.Error("Export failed", err)
		return nil, err
	}
	s.mu.Lock()
	q := query.Join(query.Flag("export"), s.settings.Query(), eq)
	s.mu.Unlock()

	out, err := s.client.Send(ctx, http.MethodPost, s.URL()+"?"+q.Encode(), transport.Options{OnProgress: onProgress})
	if err != nil {
		s.alerter.Error("Export failed", err)
		return nil, err
	}
	if blob, ok := out.(transport.Blob); ok {
		s.logger.Info().Str("name", blob.Name).Str("path", blob.Path).Int("bytes", len(blob.Data)).Msg("exported")
	}
	return out, nil
}

// Print fetches the printable page of the photo rendered with the current
// settings and delivers it through the client's Downloader. The page loads its
// image from the server, so it is given a base URL pointing there.
func (s *Session) Print(ctx context.Context, onProgress progress.Func) (transport.Blob, error) {
	s.mu.Lock()
	q := query.Join(query.Flag("print"), s.settings.Query())
	s.mu.Unlock()

	out, err := s.client.Send(ctx, http.MethodGet, s.URL()+"?"+q.Encode(), transport.Options{
		OnProgress: onProgress,
		Accept:     "text/html",
	})
	if err != nil {
		s.alerter.Error("Print failed", err)
		return transport.Blob{}, err
	}

	var blob transport.Blob
	switch out := out.(type) {
	case transport.Blob:
		return out, nil
	case transport.Raw:
		blob = transport.Blob{
			Name:        s.doc.printName(),
			ContentType: out.ContentType,
			Data:        withBase(out.Data, s.URL()),
		}
	default:
		err = fmt.Errorf("unexpected %s response", out.Shape())
		s.alerter.Error("Print failed", err)
		return transport.Blob{}, err
	}

	blob, err = s.client.Deliver(ctx, blob)
	if err != nil {
		s.alerter.Error("Print failed", err)
		return transport.Blob{}, err
	}
	s.logger.Info().Str("path", blob.Path).Msg("print page ready")
	return blob, nil
}

func (d Document) printName() string {
	if d.Batch != "" {
		return "batch-" + d.Batch + ".print.html"
	}
	base := path.Base(d.Path)
	return strings.TrimSuffix(base, path.Ext(base)) + ".print.html"
}

// withBase makes the relative links of an HTML page resolve against pageURL.
func withBase(page []byte, pageURL string) []byte {
	tag := `<base href="` + html.EscapeString(pageURL) + `">`
	lower := bytes.ToLower(page)
	if i := bytes.Index(lower, []byte("<head>")); i >= 0 {
		at := i + len("<head>")
		out := make([]byte, 0, len(page)+len(tag))
		out = append(out, page[:at]...)
		out = append(out, tag...)
		return append(out, page[at:]...)
	}
	return append([]byte(tag), page...)
}

// WhiteBalanceAt sets a custom white balance measured at a point of the
// displayed photo, x and y being fractions of its width and height.
func (s *Session) WhiteBalanceAt(ctx context.Context, x, y float64) error {
	if x < 0 || y < 0 || x > 1 || y > 1 {
		return ErrOutsidePhoto
	}
	s.mu.Lock()
	ux, uy := s.settings.Unorient(x, y)
	s.mu.Unlock()

	u := s.URL() + "?wb=" + strconv.FormatFloat(ux, 'f', -1, 64) + "," + strconv.FormatFloat(uy, 'f', -1, 64)
	out, err := s.client.Send(ctx, http.MethodGet, u, transport.Options{})
	if err != nil {
		s.alerter.Error("White balance failed", err)
		return err
	}
	wb, ok := decodeWhiteBalance(out)
	if !ok {
		s.alerter.Error("White balance failed", nil)
		return ErrNoWhiteBalance
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings.WhiteBalance = query.WhiteBalanceCustom
	s.settings.Temperature = wb.Temperature
	s.settings.Tint = wb.Tint
	s.touchLocked()
	return nil
}
