package query

import (
	"fmt"
	"strings"

	"github.com/gorilla/schema"
)

// Tone modes.
const (
	ToneDefault = "Default"
	ToneAuto    = "Auto"
	ToneCustom  = "Custom"
)

// White balance modes that are not presets.
const (
	WhiteBalanceAsShot = "As Shot"
	WhiteBalanceAuto   = "Auto"
	WhiteBalanceCustom = "Custom"
)

// CurrentProcess is the newest process version the server renders with.
const CurrentProcess = 11.0

// Settings is the editable state of one photo. Field names in the schema and json
// tags are the wire names used by the server.
type Settings struct {
	Orientation int     `schema:"orientation" json:"orientation,omitempty"`
	Process     float64 `schema:"process" json:"process,omitempty"`
	Profile     string  `schema:"profile" json:"profile,omitempty"`

	WhiteBalance string  `schema:"whiteBalance" json:"whiteBalance,omitempty"`
	Temperature  float64 `schema:"temperature" json:"temperature,omitempty"`
	Tint         float64 `schema:"tint" json:"tint"`

	Tone       string  `schema:"tone" json:"-"`
	ToneCurve  string  `schema:"toneCurve" json:"toneCurve,omitempty"`
	AutoTone   bool    `schema:"autoTone" json:"autoTone"`
	Exposure   float64 `schema:"exposure" json:"exposure"`
	Contrast   float64 `schema:"contrast" json:"contrast"`
	Highlights float64 `schema:"highlights" json:"highlights"`
	Shadows    float64 `schema:"shadows" json:"shadows"`
	Whites     float64 `schema:"whites" json:"whites"`
	Blacks     float64 `schema:"blacks" json:"blacks"`
	Vibrance   float64 `schema:"vibrance" json:"vibrance"`
	Saturation float64 `schema:"saturation" json:"saturation"`

	Texture     float64 `schema:"texture" json:"texture"`
	Clarity     float64 `schema:"clarity" json:"clarity"`
	Dehaze      float64 `schema:"dehaze" json:"dehaze"`
	Sharpness   float64 `schema:"sharpness" json:"sharpness"`
	LuminanceNR float64 `schema:"luminanceNR" json:"luminanceNR"`
	ColorNR     float64 `schema:"colorNR" json:"colorNR"`

	LensProfile   bool `schema:"lensProfile" json:"lensProfile"`
	AutoLateralCA bool `schema:"autoLateralCA" json:"autoLateralCA"`

	// Profiles lists camera-specific profiles offered by the server on load.
	Profiles []string `schema:"-" json:"profiles,omitempty"`
}

// Defaults returns the settings of a photo that was never edited.
func Defaults() Settings {
	return Settings{
		Orientation:  1,
		Process:      CurrentProcess,
		Profile:      "Adobe Standard",
		WhiteBalance: WhiteBalanceAsShot,
		Tone:         ToneDefault,
	}
}

var setter = func() *schema.Decoder {
	dec := schema.NewDecoder()
	dec.IgnoreUnknownKeys(false)
	return dec
}()

// Set assigns a single setting by its wire name. Values are parsed with the
// field's type; unknown names and unparsable values are rejected and leave s
// unchanged.
func (s *Settings) Set(name, value string) error {
	if name == "" {
		return fmt.Errorf("set: empty setting name")
	}
	next := *s
	if err := setter.Decode(&next, map[string][]string{name: {value}}); err != nil {
		return fmt.Errorf("set %s: %w", name, err)
	}
	switch name {
	case "tone":
		next.setTone(value)
	case "whiteBalance":
		next.ApplyWhiteBalance(value)
	case "autoTone":
		if next.AutoTone {
			next.Tone = ToneAuto
		} else if next.Tone == ToneAuto {
			next.Tone = ToneCustom
		}
	}
	if _, ok := toneAdjustments[name]; ok && next.Tone != ToneAuto {
		next.Tone = ToneCustom
	}
	if (name == "temperature" || name == "tint") && next.WhiteBalance != WhiteBalanceCustom {
		next.WhiteBalance = WhiteBalanceCustom
	}
	*s = next
	return nil
}

func (s *Settings) setTone(mode string) {
	s.Tone = mode
	s.AutoTone = mode == ToneAuto
	if mode == ToneDefault {
		s.Exposure, s.Contrast, s.Highlights, s.Shadows = 0, 0, 0, 0
		s.Whites, s.Blacks, s.Vibrance, s.Saturation = 0, 0, 0, 0
	}
}

// Normalize derives the tone mode from the loaded values, the way an editor
// form presents a freshly loaded photo.
func (s *Settings) Normalize() {
	switch {
	case s.AutoTone:
		s.Tone = ToneAuto
	case s.Exposure != 0 || s.Contrast != 0 || s.Highlights != 0 || s.Shadows != 0 ||
		s.Whites != 0 || s.Blacks != 0 || s.Vibrance != 0 || s.Saturation != 0:
		s.Tone = ToneCustom
	default:
		s.Tone = ToneDefault
	}
	if s.WhiteBalance == "" {
		s.WhiteBalance = WhiteBalanceAsShot
	}
}

var toneAdjustments = map[string]struct{}{
	"exposure": {}, "contrast": {}, "highlights": {}, "shadows": {},
	"whites": {}, "blacks": {}, "vibrance": {}, "saturation": {},
}

type whiteBalancePreset struct {
	Temperature float64
	Tint        float64
}

var whiteBalancePresets = map[string]whiteBalancePreset{
	"Daylight":    {Temperature: 5500, Tint: 10},
	"Cloudy":      {Temperature: 6500, Tint: 10},
	"Shade":       {Temperature: 7500, Tint: 10},
	"Tungsten":    {Temperature: 2850, Tint: 0},
	"Fluorescent": {Temperature: 3800, Tint: 20},
	"Flash":       {Temperature: 5500, Tint: 0},
}

// ApplyWhiteBalance switches the white balance mode. Presets also set the
// temperature and tint they stand for.
func (s *Settings) ApplyWhiteBalance(mode string) {
	s.WhiteBalance = mode
	if p, ok := whiteBalancePresets[mode]; ok {
		s.Temperature = p.Temperature
		s.Tint = p.Tint
	}
}

// IsMonochrome reports whether the profile renders without color, in which
// case color controls have no effect.
func (s Settings) IsMonochrome() bool {
	for _, marker := range []string{"B&W", "Monochrome", "Monotone", "ACROS", "BW"} {
		if strings.Contains(s.Profile, marker) {
			return true
		}
	}
	return false
}

// orientations maps an EXIF orientation (index) to the result of a rotation
// or flip. Index 0 is used for unknown orientations.
var orientations = map[string][9]int{
	"ccw": {8, 8, 5, 6, 7, 4, 1, 2, 3},
	"cw":  {6, 6, 7, 8, 5, 2, 3, 4, 1},
	"hz":  {2, 2, 1, 4, 3, 6, 5, 8, 7},
	"vt":  {4, 4, 3, 2, 1, 8, 7, 6, 5},
}

// Rotate applies a rotation (ccw, cw) or flip (hz, vt) to the orientation.
func (s *Settings) Rotate(op string) error {
	table, ok := orientations[op]
	if !ok {
		return fmt.Errorf("rotate: unknown operation %q", op)
	}
	idx := s.Orientation
	if idx < 0 || idx >= len(table) {
		idx = 0
	}
	s.Orientation = table[idx]
	return nil
}

// Unorient maps a point given in displayed image coordinates (0..1) back to
// the sensor orientation.
func (s Settings) Unorient(x, y float64) (float64, float64) {
	switch s.Orientation {
	case 2:
		return 1 - x, y
	case 3:
		return 1 - x, 1 - y
	case 4:
		return x, 1 - y
	case 5:
		return y, x
	case 6:
		return y, 1 - x
	case 7:
		return 1 - y, 1 - x
	case 8:
		return 1 - y, x
	default:
		return x, y
	}
}
