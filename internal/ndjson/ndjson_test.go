package ndjson

import (
	"strings"
	"testing"
)

func TestParseLast(t *testing.T) {
	cases := []struct {
		name      string
		in        string
		wantNil   bool
		wantDone  int64
		wantTotal int64
	}{
		{name: "empty", in: "", wantNil: true},
		{name: "partial only", in: `{"done":1`, wantNil: true},
		{name: "single", in: "{\"done\":1,\"total\":4}\n", wantDone: 1, wantTotal: 4},
		{name: "trailing partial", in: "{\"done\":1}\n{\"done\":2", wantDone: 1},
		{name: "several", in: "{\"done\":1,\"total\":3}\n{\"done\":2,\"total\":3}\n", wantDone: 2, wantTotal: 3},
		{name: "crlf and blank", in: "{\"done\":3,\"total\":3}\r\n\n", wantDone: 3, wantTotal: 3},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec, err := ParseLast([]byte(tc.in))
			if err != nil {
				t.Fatalf("ParseLast: %v", err)
			}
			if tc.wantNil {
				if rec != nil {
					t.Fatalf("expected nil, got %#v", rec)
				}
				return
			}
			done, ok := rec.Int("done")
			if !ok || done != tc.wantDone {
				t.Fatalf("done = %d, %v; want %d", done, ok, tc.wantDone)
			}
			total, ok := rec.Int("total")
			if tc.wantTotal == 0 {
				if ok {
					t.Fatalf("unexpected total %d", total)
				}
				return
			}
			if total != tc.wantTotal {
				t.Fatalf("total = %d; want %d", total, tc.wantTotal)
			}
		})
	}
}

func TestParseLastMalformed(t *testing.T) {
	if _, err := ParseLast([]byte("{not json}\n")); err == nil {
		t.Fatal("expected error")
	}
}

func TestParseAll(t *testing.T) {
	recs, err := ParseAll([]byte("{\"code\":200}\n{\"code\":404}\n"))
	if err != nil {
		t.Fatalf("ParseAll: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("got %d records", len(recs))
	}
	failed := 0
	for _, r := range recs {
		if r.Failed() {
			failed++
		}
	}
	if failed != 1 {
		t.Fatalf("failed = %d", failed)
	}

	recs, err = ParseAll(nil)
	if err != nil || len(recs) != 0 {
		t.Fatalf("empty buffer: %v, %v", recs, err)
	}
}

func TestParseAllReportsLine(t *testing.T) {
	_, err := ParseAll([]byte("{\"code\":200}\n{\"code\":\n"))
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestParseAllRejectsInteriorBlankLine(t *testing.T) {
	recs, err := ParseAll([]byte("{\"code\":200}\n\n{\"code\":200}\n"))
	if err == nil {
		t.Fatalf("blank line accepted, got %d records", len(recs))
	}
	if !strings.Contains(err.Error(), "line 2") {
		t.Fatalf("err = %v", err)
	}

	recs, err = ParseAll([]byte("{\"code\":200}\r\n\n\n"))
	if err != nil || len(recs) != 1 {
		t.Fatalf("trailing blank lines: %v, %v", recs, err)
	}
}

func TestRecordAccessors(t *testing.T) {
	rec, err := ParseLast([]byte("{\"code\":500,\"text\":\"Internal Server Error\",\"done\":\"x\"}\n"))
	if err != nil {
		t.Fatal(err)
	}
	if code, ok := rec.Code(); !ok || code != 500 {
		t.Fatalf("code = %d, %v", code, ok)
	}
	if rec.String("text") != "Internal Server Error" {
		t.Fatalf("text = %q", rec.String("text"))
	}
	if _, ok := rec.Number("done"); ok {
		t.Fatal("string field should not read as a number")
	}
	if !rec.Failed() {
		t.Fatal("expected failed record")
	}
}
