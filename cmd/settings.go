package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
)

var (
	settingsDoc  documentFlags
	settingsJSON bool
)

// settingsFile is the editable part of the settings in the layout of a
// settings file for preview --watch.
type settingsFile struct {
	Orientation  int     `toml:"orientation" json:"orientation"`
	Process      float64 `toml:"process" json:"process"`
	Profile      string  `toml:"profile" json:"profile"`
	WhiteBalance string  `toml:"whiteBalance" json:"whiteBalance"`
	Temperature  float64 `toml:"temperature" json:"temperature"`
	Tint         float64 `toml:"tint" json:"tint"`
	Tone         string  `toml:"tone" json:"tone"`
	ToneCurve    string  `toml:"toneCurve,omitempty" json:"toneCurve,omitempty"`
	Exposure     float64 `toml:"exposure" json:"exposure"`
	Contrast     float64 `toml:"contrast" json:"contrast"`
	Highlights   float64 `toml:"highlights" json:"highlights"`
	Shadows      float64 `toml:"shadows" json:"shadows"`
	Whites       float64 `toml:"whites" json:"whites"`
	Blacks       float64 `toml:"blacks" json:"blacks"`
	Vibrance     float64 `toml:"vibrance" json:"vibrance"`
	Saturation   float64 `toml:"saturation" json:"saturation"`
	Texture      float64 `toml:"texture" json:"texture"`
	Clarity      float64 `toml:"clarity" json:"clarity"`
	Dehaze       float64 `toml:"dehaze" json:"dehaze"`
	Sharpness    float64 `toml:"sharpness" json:"sharpness"`
	LuminanceNR  float64 `toml:"luminanceNR" json:"luminanceNR"`
	ColorNR      float64 `toml:"colorNR" json:"colorNR"`
	LensProfile  bool    `toml:"lensProfile" json:"lensProfile"`
	LateralCA    bool    `toml:"autoLateralCA" json:"autoLateralCA"`
}

var settingsCmd = &cobra.Command{
	Use:   "settings [flags] <photo>",
	Short: "Print the stored settings of a photo",
	Long: "Loads the settings of a photo the way the editor does, including process version " +
		"upgrades, and prints them as TOML. The output can be used as a settings file for preview --watch.",
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := settingsDoc.document(args)
		if err != nil {
			return err
		}
		session := newSession(newClient(nil), doc)
		if err := session.Load(context.Background()); err != nil {
			return err
		}

		s := session.Settings()
		out := settingsFile{
			Orientation: s.Orientation, Process: s.Process, Profile: s.Profile,
			WhiteBalance: s.WhiteBalance, Temperature: s.Temperature, Tint: s.Tint,
			Tone: s.Tone, ToneCurve: s.ToneCurve,
			Exposure: s.Exposure, Contrast: s.Contrast, Highlights: s.Highlights, Shadows: s.Shadows,
			Whites: s.Whites, Blacks: s.Blacks, Vibrance: s.Vibrance, Saturation: s.Saturation,
			Texture: s.Texture, Clarity: s.Clarity, Dehaze: s.Dehaze, Sharpness: s.Sharpness,
			LuminanceNR: s.LuminanceNR, ColorNR: s.ColorNR,
			LensProfile: s.LensProfile, LateralCA: s.AutoLateralCA,
		}

		if settingsJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		}
		data, err := toml.Marshal(out)
		if err != nil {
			return err
		}
		if _, err := cmd.OutOrStdout().Write(data); err != nil {
			return err
		}
		if session.Dirty() {
			fmt.Fprintln(os.Stderr, "Note: the process version was upgraded; save to keep it.")
		}
		return nil
	},
}

func init() {
	settingsDoc.register(settingsCmd)
	settingsCmd.Flags().BoolVar(&settingsJSON, "json", false, "Print JSON instead of TOML")
	rootCmd.AddCommand(settingsCmd)
}
