package query

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestBuildIsDeterministic(t *testing.T) {
	a := Defaults()
	a.Exposure = 0.35
	a.Clarity = 12
	a.LensProfile = true
	a.Profiles = []string{"Camera Standard"}

	b := Defaults()
	b.LensProfile = true
	b.Clarity = 12
	b.Exposure = 0.35
	b.Profiles = []string{"Camera Standard"}

	if diff := cmp.Diff(a, b); diff != "" {
		t.Fatalf("fixtures differ: %s", diff)
	}

	for _, size := range []Size{0, 1280, Unbounded} {
		qa, qb := Build(a, size), Build(b, size)
		if !qa.Equal(qb) || qa.Encode() != qb.Encode() {
			t.Fatalf("size %v: %q != %q", size, qa.Encode(), qb.Encode())
		}
	}
}

func TestDefaultsOnlyCarryAlwaysIncludedKeys(t *testing.T) {
	got := Defaults().Query()
	want := Query{
		{Key: "orientation", Value: "1"},
		{Key: "process", Value: "11"},
		{Key: "profile", Value: "Adobe Standard"},
		{Key: "whiteBalance", Value: "As Shot"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected query (-want +got):\n%s", diff)
	}
	if enc := got.Encode(); enc != "orientation=1&process=11&profile=Adobe+Standard&whiteBalance=As+Shot" {
		t.Fatalf("unexpected encoding: %s", enc)
	}
}

func TestBuildPreviewSize(t *testing.T) {
	q := Build(Defaults(), 1920)
	if v, ok := q.Get("preview"); !ok || v != "1920" {
		t.Fatalf("preview = %q, %v", v, ok)
	}
	if q[0].Key != "preview" {
		t.Fatalf("preview must lead the query, got %q", q.Encode())
	}

	zoom := Build(Defaults(), Unbounded).Encode()
	if zoom[:len("preview&")] != "preview&" {
		t.Fatalf("zoomed preview should use a bare key, got %q", zoom)
	}
}

func TestQueryNumbersAreUnrounded(t *testing.T) {
	s := Defaults()
	s.Exposure = 0.333333
	s.Contrast = -7
	q := s.Query()
	if v, _ := q.Get("exposure"); v != "0.333333" {
		t.Fatalf("exposure = %q", v)
	}
	if v, _ := q.Get("contrast"); v != "-7" {
		t.Fatalf("contrast = %q", v)
	}
}

func TestAutoToneOmitsAdjustments(t *testing.T) {
	s := Defaults()
	if err := s.Set("exposure", "1.5"); err != nil {
		t.Fatal(err)
	}
	if err := s.Set("tone", ToneAuto); err != nil {
		t.Fatal(err)
	}
	q := s.Query()
	if _, ok := q.Get("exposure"); ok {
		t.Fatalf("exposure should be omitted under auto tone: %s", q)
	}
	if v, _ := q.Get("autoTone"); v != "1" {
		t.Fatalf("autoTone = %q", v)
	}
}

func TestCustomWhiteBalanceCarriesTemperatureAndTint(t *testing.T) {
	s := Defaults()
	if err := s.Set("temperature", "4800"); err != nil {
		t.Fatal(err)
	}
	q := s.Query()
	if v, _ := q.Get("whiteBalance"); v != WhiteBalanceCustom {
		t.Fatalf("whiteBalance = %q", v)
	}
	if v, _ := q.Get("temperature"); v != "4800" {
		t.Fatalf("temperature = %q", v)
	}
	if v, ok := q.Get("tint"); !ok || v != "0" {
		t.Fatalf("tint = %q, %v", v, ok)
	}
}

func TestSetRejectsUnknownAndInvalid(t *testing.T) {
	s := Defaults()
	if err := s.Set("bogus", "1"); err == nil {
		t.Fatal("expected error for unknown setting")
	}
	if err := s.Set("exposure", "bright"); err == nil {
		t.Fatal("expected error for unparsable value")
	}
	if diff := cmp.Diff(Defaults(), s); diff != "" {
		t.Fatalf("failed Set mutated settings: %s", diff)
	}
}

func TestSetToneDefaultResetsAdjustments(t *testing.T) {
	s := Defaults()
	_ = s.Set("shadows", "40")
	_ = s.Set("vibrance", "-10")
	if s.Tone != ToneCustom {
		t.Fatalf("tone = %q, want Custom", s.Tone)
	}
	if err := s.Set("tone", ToneDefault); err != nil {
		t.Fatal(err)
	}
	if s.Shadows != 0 || s.Vibrance != 0 {
		t.Fatalf("adjustments not reset: %+v", s)
	}
}

func TestWhiteBalancePreset(t *testing.T) {
	s := Defaults()
	if err := s.Set("whiteBalance", "Tungsten"); err != nil {
		t.Fatal(err)
	}
	if s.Temperature != 2850 || s.Tint != 0 {
		t.Fatalf("preset not applied: %v/%v", s.Temperature, s.Tint)
	}
	if _, ok := s.Query().Get("temperature"); ok {
		t.Fatal("preset white balance should not send temperature")
	}
}

func TestRotate(t *testing.T) {
	s := Defaults()
	for _, want := range []int{6, 3, 8, 1} {
		if err := s.Rotate("cw"); err != nil {
			t.Fatal(err)
		}
		if s.Orientation != want {
			t.Fatalf("orientation = %d, want %d", s.Orientation, want)
		}
	}
	if err := s.Rotate("diagonal"); err == nil {
		t.Fatal("expected error")
	}
}

func TestViewportSize(t *testing.T) {
	if got := ViewportSize(800, 600, 2, false); got != 1600 {
		t.Fatalf("got %v", got)
	}
	if got := ViewportSize(333, 100, 1.5, false); got != 500 {
		t.Fatalf("got %v", got)
	}
	if got := ViewportSize(800, 600, 2, true); got != Unbounded {
		t.Fatalf("got %v", got)
	}
	if !Unbounded.Covers(4000) || Size(1000).Covers(1200) {
		t.Fatal("Covers ordering broken")
	}
}

func TestExportOptionsQuery(t *testing.T) {
	q, err := ExportOptions{DNG: true, Preview: "medium", Embed: true, Quality: 90}.Query()
	if err != nil {
		t.Fatal(err)
	}
	if enc := q.Encode(); enc != "dng=true&embed=true&preview=medium" {
		t.Fatalf("dng export query = %q", enc)
	}

	q, err = ExportOptions{Quality: 90}.Query()
	if err != nil {
		t.Fatal(err)
	}
	if len(q) != 0 {
		t.Fatalf("jpeg without resampling should send nothing, got %q", q.Encode())
	}

	q, err = ExportOptions{Resample: true, Quality: 8, Fit: "dims", Long: 2048, DimUnit: "px"}.Query()
	if err != nil {
		t.Fatal(err)
	}
	if v, _ := q.Get("fit"); v != "dims" {
		t.Fatalf("fit = %q in %q", v, q.Encode())
	}
	for i := 1; i < len(q); i++ {
		if q[i-1].Key > q[i].Key {
			t.Fatalf("keys not sorted: %q", q.Encode())
		}
	}
}
