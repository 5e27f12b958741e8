package query

import (
	"math"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/gorilla/schema"
)

// Param is one key/value pair of a canonical query. A Bare param is encoded as
// its key alone ("preview" rather than "preview=").
type Param struct {
	Key   string
	Value string
	Bare  bool
}

// Query is an ordered list of params. Two queries built from equal inputs are
// byte-for-byte identical when encoded.
type Query []Param

// Encode renders the query in wire form, without the leading "?".
func (q Query) Encode() string {
	var b strings.Builder
	for i, p := range q {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(p.Key))
		if p.Bare {
			continue
		}
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(p.Value))
	}
	return b.String()
}

func (q Query) String() string { return q.Encode() }

func (q Query) Equal(o Query) bool {
	if len(q) != len(o) {
		return false
	}
	for i := range q {
		if q[i] != o[i] {
			return false
		}
	}
	return true
}

// Get returns the value of the first param named key.
func (q Query) Get(key string) (string, bool) {
	for _, p := range q {
		if p.Key == key {
			return p.Value, true
		}
	}
	return "", false
}

// Flag returns a query holding a single bare key, such as "save" or "export".
func Flag(key string) Query {
	return Query{{Key: key, Bare: true}}
}

// Join concatenates queries in order.
func Join(qs ...Query) Query {
	n := 0
	for _, q := range qs {
		n += len(q)
	}
	out := make(Query, 0, n)
	for _, q := range qs {
		out = append(out, q...)
	}
	return out
}

// Size is the pixel length of the long edge a preview must be rendered at.
type Size int

// Unbounded asks for a full resolution render (zoom view).
const Unbounded Size = math.MaxInt

func (s Size) Bounded() bool { return s != Unbounded }

func (s Size) String() string {
	if !s.Bounded() {
		return "full"
	}
	return strconv.Itoa(int(s))
}

// Covers reports whether a render at s is at least as large as one at o.
func (s Size) Covers(o Size) bool { return s >= o }

// ViewportSize is the size a preview must have to fill a width x height
// viewport at the given device pixel ratio.
func ViewportSize(width, height int, pixelRatio float64, zoomed bool) Size {
	if zoomed {
		return Unbounded
	}
	if pixelRatio <= 0 {
		pixelRatio = 1
	}
	edge := max(width, height)
	if edge <= 0 {
		return 0
	}
	return Size(math.Ceil(float64(edge) * pixelRatio))
}

// Build serializes settings plus the requested preview size into the query of
// a preview request. The size comes first, then the settings query.
func Build(s Settings, size Size) Query {
	return WithSize(size, s.Query())
}

// WithSize prefixes a settings query with the preview size param.
func WithSize(size Size, settings Query) Query {
	q := make(Query, 0, len(settings)+1)
	if size.Bounded() {
		q = append(q, Param{Key: "preview", Value: strconv.Itoa(int(size))})
	} else {
		q = append(q, Param{Key: "preview", Bare: true})
	}
	return append(q, settings...)
}

// Query serializes the settings alone. Orientation, process, profile and white
// balance are always present; every other setting only when it differs from
// its no-op value.
func (s Settings) Query() Query {
	q := make(Query, 0, 24)
	add := func(k, v string) { q = append(q, Param{Key: k, Value: v}) }
	num := func(k string, v float64) {
		if v != 0 {
			add(k, formatFloat(v))
		}
	}

	add("orientation", strconv.Itoa(s.Orientation))
	add("process", formatFloat(s.Process))
	add("profile", s.Profile)
	add("whiteBalance", s.WhiteBalance)

	if s.ToneCurve != "" {
		add("toneCurve", s.ToneCurve)
	}
	if s.WhiteBalance == WhiteBalanceCustom {
		add("temperature", formatFloat(s.Temperature))
		add("tint", formatFloat(s.Tint))
	}
	if s.Tone == ToneAuto || s.AutoTone {
		add("autoTone", "1")
	} else {
		num("exposure", s.Exposure)
		num("contrast", s.Contrast)
		num("highlights", s.Highlights)
		num("shadows", s.Shadows)
		num("whites", s.Whites)
		num("blacks", s.Blacks)
		num("vibrance", s.Vibrance)
		num("saturation", s.Saturation)
	}
	num("texture", s.Texture)
	num("clarity", s.Clarity)
	num("dehaze", s.Dehaze)
	num("sharpness", s.Sharpness)
	num("luminanceNR", s.LuminanceNR)
	num("colorNR", s.ColorNR)
	if s.LensProfile {
		add("lensProfile", "1")
	}
	if s.AutoLateralCA {
		add("autoLateralCA", "1")
	}
	return q
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// ExportOptions are the output options of an export request.
type ExportOptions struct {
	DNG     bool   `schema:"dng,omitempty"`
	Preview string `schema:"preview,omitempty"`
	Lossy   bool   `schema:"lossy,omitempty"`
	Embed   bool   `schema:"embed,omitempty"`

	Resample bool    `schema:"resample,omitempty"`
	Quality  int     `schema:"quality,omitempty"`
	Fit      string  `schema:"fit,omitempty"`
	Long     float64 `schema:"long,omitempty"`
	Short    float64 `schema:"short,omitempty"`
	Width    float64 `schema:"width,omitempty"`
	Height   float64 `schema:"height,omitempty"`
	DimUnit  string  `schema:"dimunit,omitempty"`
	Density  int     `schema:"density,omitempty"`
	DenUnit  string  `schema:"denunit,omitempty"`
	MPixels  float64 `schema:"mpixels,omitempty"`
}

var exportEncoder = schema.NewEncoder()

// Query serializes the options in sorted key order. DNG exports carry only DNG
// options, JPEG exports only resampling options when resampling.
func (e ExportOptions) Query() (Query, error) {
	opts := e
	if opts.DNG {
		opts = ExportOptions{DNG: true, Preview: e.Preview, Lossy: e.Lossy, Embed: e.Embed}
	} else if !opts.Resample {
		opts = ExportOptions{}
	} else {
		opts.Preview, opts.Lossy, opts.Embed = "", false, false
	}

	values := url.Values{}
	if err := exportEncoder.Encode(opts, values); err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	q := make(Query, 0, len(keys))
	for _, k := range keys {
		for _, v := range values[k] {
			q = append(q, Param{Key: k, Value: v})
		}
	}
	return q, nil
}
