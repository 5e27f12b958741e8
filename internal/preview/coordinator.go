// Package preview keeps a server-rendered preview in step with the latest
// editing settings and viewport size.
//
// A Coordinator owns three pairs of (settings query, size): the desired one,
// the one being loaded, and the one last rendered successfully. All of them
// live on a single event loop goroutine, which is what guarantees that at
// most one preview request is in flight.
package preview

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"darkroom/internal/query"
	"darkroom/pkg/imgutil"
)

// State of the coordinator.
type State int

const (
	Idle State = iota
	// Loading: a request is in flight and covers the desired state.
	Loading
	// LoadingStale: a request is in flight but the desired state moved on.
	LoadingStale
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case LoadingStale:
		return "loading-stale"
	default:
		return "idle"
	}
}

// Target is what a preview is rendered from.
type Target struct {
	Query query.Query
	Size  query.Size
}

// Covers reports whether a render of t can stand in for o: same settings and
// at least the required size.
func (t Target) Covers(o Target) bool {
	return t.Query.Equal(o.Query) && t.Size.Covers(o.Size)
}

func (t Target) valid() bool {
	return t.Query != nil && t.Size > 0
}

// Image is a rendered preview.
type Image struct {
	Data []byte
	Info imgutil.Info
}

// Frame is an image handed to the display together with what produced it.
// Stale frames are shown to avoid flicker, but a newer render is on its way.
type Frame struct {
	Image
	Target Target
	Seq    uint64
	Stale  bool
}

// Loader renders a target. It is never called concurrently by a Coordinator.
type Loader interface {
	Load(ctx context.Context, t Target) (Image, error)
}

// Display is the collaborator showing previews. Its methods run on the
// coordinator's goroutine and must not call back into the coordinator.
type Display interface {
	Show(Frame)
	Busy(bool)
	Failed(error)
}

// Options tune a Coordinator.
type Options struct {
	// ResizeDebounce batches viewport changes.
	ResizeDebounce time.Duration
	// SettingsDebounce batches settings changes; zero applies them at once.
	SettingsDebounce time.Duration
	Logger           zerolog.Logger
}

// DefaultResizeDebounce matches the delay the editor waits after a resize.
const DefaultResizeDebounce = 500 * time.Millisecond

// Snapshot is a copy of the coordinator's state.
type Snapshot struct {
	State    State
	Desired  Target
	InFlight *Target
	Rendered *Target
	Requests uint64
}

var ErrClosed = errors.New("preview: coordinator closed")

type eventKind int

const (
	evSettings eventKind = iota
	evResize
	evRefresh
	evSnapshot
)

type event struct {
	kind  eventKind
	query query.Query
	size  query.Size
	reply chan Snapshot
}

type result struct {
	target Target
	seq    uint64
	image  Image
	err    error
}

// Coordinator schedules preview loads. Create one per editing session with
// New and release it with Close.
type Coordinator struct {
	loader  Loader
	display Display
	opts    Options
	logger  zerolog.Logger

	events chan event
	done   chan struct{}
	exited chan struct{}
	ctx    context.Context
	cancel context.CancelFunc
}

func New(loader Loader, display Display, opts Options) *Coordinator {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Coordinator{
		loader:  loader,
		display: display,
		opts:    opts,
		logger:  opts.Logger.With().Str("component", "preview").Logger(),
		events:  make(chan event),
		done:    make(chan struct{}),
		exited:  make(chan struct{}),
		ctx:     ctx,
		cancel:  cancel,
	}
	go c.run()
	return c
}

// SetSettings records a new desired settings query.
func (c *Coordinator) SetSettings(q query.Query) {
	c.send(event{kind: evSettings, query: q})
}

// Resize records a new required size. Loads caused by resizes are debounced
// and only happen when the size grew.
func (c *Coordinator) Resize(size query.Size) {
	c.send(event{kind: evResize, size: size})
}

// Refresh re-evaluates the desired state without changing it. It is how a
// user retries after a failed load.
func (c *Coordinator) Refresh() {
	c.send(event{kind: evRefresh})
}

// Snapshot returns the current state.
func (c *Coordinator) Snapshot(ctx context.Context) (Snapshot, error) {
	reply := make(chan Snapshot, 1)
	select {
	case c.events <- event{kind: evSnapshot, reply: reply}:
	case <-c.done:
		return Snapshot{}, ErrClosed
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	}
	select {
	case s := <-reply:
		return s, nil
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	}
}

// Close stops the event loop and cancels an in-flight load.
func (c *Coordinator) Close() {
	select {
	case <-c.done:
	default:
		close(c.done)
	}
	c.cancel()
	<-c.exited
}

func (c *Coordinator) send(e event) {
	select {
	case c.events <- e:
	case <-c.done:
	}
}

// loop state, owned by run.
type loop struct {
	desired  Target
	inflight *Target
	rendered *Target
	seq      uint64
	busy     bool
}

func (c *Coordinator) run() {
	defer close(c.exited)

	var (
		st      loop
		timer   *time.Timer
		timerC  <-chan time.Time
		results = make(chan result, 1)
	)
	schedule := func(d time.Duration) {
		if d <= 0 {
			if timer != nil {
				timer.Stop()
				timerC = nil
			}
			c.load(&st, results)
			return
		}
		if timer == nil {
			timer = time.NewTimer(d)
		} else {
			timer.Stop()
			timer.Reset(d)
		}
		timerC = timer.C
	}
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case e := <-c.events:
			switch e.kind {
			case evSettings:
				st.desired.Query = e.query
				schedule(c.opts.SettingsDebounce)
			case evResize:
				st.desired.Size = e.size
				schedule(c.opts.ResizeDebounce)
			case evRefresh:
				c.load(&st, results)
			case evSnapshot:
				e.reply <- st.snapshot()
			}

		case <-timerC:
			timerC = nil
			c.load(&st, results)

		case res := <-results:
			c.finish(&st, res, results)

		case <-c.done:
			return
		}
	}
}

// load issues a request for the desired state unless one is in flight or the
// last render already covers it.
func (c *Coordinator) load(st *loop, results chan<- result) {
	if st.inflight != nil {
		return
	}
	if !st.desired.valid() {
		return
	}
	if st.rendered != nil && st.rendered.Covers(st.desired) {
		c.setBusy(st, false)
		return
	}

	target := st.desired
	st.inflight = &target
	st.seq++
	seq := st.seq
	c.setBusy(st, true)
	c.logger.Debug().Uint64("seq", seq).Stringer("size", target.Size).Msg("loading preview")

	go func() {
		img, err := c.loader.Load(c.ctx, target)
		results <- result{target: target, seq: seq, image: img, err: err}
	}()
}

func (c *Coordinator) finish(st *loop, res result, results chan<- result) {
	st.inflight = nil
	current := res.target.Covers(st.desired)

	if res.err == nil {
		if current {
			rendered := res.target
			st.rendered = &rendered
		} else {
			// The display no longer shows the last current render.
			st.rendered = nil
		}
		c.display.Show(Frame{Image: res.image, Target: res.target, Seq: res.seq, Stale: !current})
	}

	if !current {
		// Superseded while in flight: a late error is not reported, and the
		// latest desired state is requested right away.
		if res.err != nil {
			c.logger.Debug().Err(res.err).Uint64("seq", res.seq).Msg("superseded preview failed")
		}
		c.load(st, results)
		return
	}

	if res.err != nil && !errors.Is(res.err, context.Canceled) {
		c.logger.Warn().Err(res.err).Uint64("seq", res.seq).Msg("preview failed")
		c.display.Failed(res.err)
	}
	c.setBusy(st, false)
}

func (c *Coordinator) setBusy(st *loop, busy bool) {
	if st.busy == busy {
		return
	}
	st.busy = busy
	c.display.Busy(busy)
}

func (st *loop) state() State {
	switch {
	case st.inflight == nil:
		return Idle
	case st.inflight.Covers(st.desired):
		return Loading
	default:
		return LoadingStale
	}
}

func (st *loop) snapshot() Snapshot {
	s := Snapshot{State: st.state(), Desired: st.desired, Requests: st.seq}
	if st.inflight != nil {
		t := *st.inflight
		s.InFlight = &t
	}
	if st.rendered != nil {
		t := *st.rendered
		s.Rendered = &t
	}
	return s
}
