package progress

import "testing"

func TestByteProgress(t *testing.T) {
	var seen []State
	r := NewReporter(false, func(s State) { seen = append(seen, s) })

	if got := r.OnRawProgress(Event{Loaded: 10, Total: 100}); got != (State{Done: 10, Total: 100}) {
		t.Fatalf("got %+v", got)
	}
	r.OnRawProgress(Event{Loaded: 100, Total: 100})
	if len(seen) != 2 || seen[1].Ratio() != 1 {
		t.Fatalf("callbacks: %+v", seen)
	}
}

func TestUnknownLengthIsIndeterminate(t *testing.T) {
	r := NewReporter(false, nil)
	got := r.OnRawProgress(Event{Loaded: 512, Total: -1})
	if !got.Indeterminate() || got.Done != 0 {
		t.Fatalf("got %+v", got)
	}
	if got.Ratio() != 0 {
		t.Fatalf("ratio = %v", got.Ratio())
	}
}

func TestMultiStatusCountsTakePriority(t *testing.T) {
	r := NewReporter(true, nil)

	body := []byte("{\"code\":200,\"done\":1,\"total\":4}\n{\"code\":200,\"do")
	got := r.OnRawProgress(Event{Loaded: int64(len(body)), Total: 1000, Body: body})
	if got != (State{Done: 1, Total: 4}) {
		t.Fatalf("got %+v", got)
	}

	body = append(body, []byte("ne\":2,\"total\":4}\n")...)
	got = r.OnRawProgress(Event{Loaded: int64(len(body)), Total: 1000, Body: body})
	if got != (State{Done: 2, Total: 4}) {
		t.Fatalf("got %+v", got)
	}
}

func TestMultiStatusWithoutCountsKeepsLastState(t *testing.T) {
	r := NewReporter(true, nil)
	got := r.OnRawProgress(Event{Loaded: 20, Total: 40, Body: []byte("{\"code\":200}\n")})
	if !got.Indeterminate() {
		t.Fatalf("byte counts must not be used for multi-status streams: %+v", got)
	}
}

func TestProgressNeverDecreases(t *testing.T) {
	r := NewReporter(true, nil)
	r.OnRawProgress(Event{Body: []byte("{\"done\":3,\"total\":4}\n")})
	got := r.OnRawProgress(Event{Body: []byte("{\"done\":2,\"total\":4}\n")})
	if got.Done != 3 {
		t.Fatalf("done went backwards: %+v", got)
	}
}

func TestNoProgressAfterClose(t *testing.T) {
	calls := 0
	r := NewReporter(false, func(State) { calls++ })
	r.OnRawProgress(Event{Loaded: 1, Total: 2})
	r.Close()
	got := r.OnRawProgress(Event{Loaded: 2, Total: 2})
	if calls != 1 {
		t.Fatalf("callback after close: %d calls", calls)
	}
	if got != (State{Done: 1, Total: 2}) {
		t.Fatalf("state after close: %+v", got)
	}
}
