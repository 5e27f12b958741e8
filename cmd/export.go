package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"darkroom/internal/editor"
	"darkroom/internal/progress"
	"darkroom/internal/query"
	"darkroom/internal/transport"
	"darkroom/internal/tui"
	"darkroom/pkg/imgutil"
)

var (
	exportDoc    documentFlags
	exportSet    []string
	exportFormat string
	exportDir    string
	exportOpts   query.ExportOptions
)

var exportCmd = &cobra.Command{
	Use:   "export [flags] <photo>",
	Short: "Export a photo as JPEG or DNG with the current settings",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := exportDoc.document(args)
		if err != nil {
			return err
		}
		assignments, err := parseAssignments(exportSet)
		if err != nil {
			return err
		}
		opts := exportOpts
		switch exportFormat {
		case "jpeg", "jpg":
			opts.DNG = false
		case "dng":
			opts.DNG = true
		default:
			return fmt.Errorf("unknown format %q, want jpeg or dng", exportFormat)
		}
		if cmd.Flags().Changed("quality") || cmd.Flags().Changed("long") || cmd.Flags().Changed("fit") {
			opts.Resample = true
		}

		dir := exportDir
		if dir == "" {
			dir = cfg.DownloadDir
		}
		var dl transport.Downloader = transport.DirDownloader{Dir: dir}
		if cfg.UI.SaveDialog {
			dl = editor.DialogDownloader{Dir: dir}
		}

		ctx := context.Background()
		session := newSession(newClient(dl), doc)
		if err := session.Load(ctx); err != nil && !errors.Is(err, editor.ErrNoSettings) {
			return err
		}
		if err := applySettings(session, assignments); err != nil {
			return err
		}

		unit := tui.Bytes
		if doc.Batch != "" {
			unit = tui.Items
		}
		var out transport.Outcome
		err = withProgress("Exporting…", unit, func(fn progress.Func) error {
			var err error
			out, err = session.Export(ctx, opts, fn)
			return err
		})
		var pf *transport.PartialFailureError
		if errors.As(err, &pf) {
			printFailures(pf)
		}
		if errors.Is(err, editor.ErrDownloadCanceled) {
			fmt.Fprintln(os.Stdout, "Export canceled.")
			return nil
		}
		if err != nil {
			return err
		}

		switch out := out.(type) {
		case transport.Blob:
			printExport(out)
		case transport.MultiStatus:
			fmt.Fprintln(os.Stdout, tui.Success(fmt.Sprintf("Exported %d photos to %s", len(out.Items), dir)))
		default:
			fmt.Fprintln(os.Stdout, "Export finished.")
		}
		return nil
	},
}

func printExport(blob transport.Blob) {
	info, err := imgutil.Inspect(blob.Data)
	if err != nil {
		logger.Debug().Err(err).Msg("exported file not inspected")
	}
	md, err := imgutil.ReadMetadata(blob.Data)
	if err != nil {
		logger.Debug().Err(err).Msg("exported file has unreadable metadata")
	}
	path := blob.Path
	if abs, absErr := filepath.Abs(path); absErr == nil {
		path = abs
	}
	fmt.Fprintln(os.Stdout, tui.RenderSummary(tui.ExportRows(path, len(blob.Data), info, md)))
}

func init() {
	exportDoc.register(exportCmd)
	f := exportCmd.Flags()
	f.StringArrayVar(&exportSet, "set", nil, "Change a setting before exporting, name=value (repeatable)")
	f.StringVar(&exportFormat, "format", "jpeg", "Output format: jpeg or dng")
	f.StringVarP(&exportDir, "output", "o", "", "Directory for exported files (default from config)")

	f.StringVar(&exportOpts.Preview, "dng-preview", "", "DNG embedded preview: none, medium or full")
	f.BoolVar(&exportOpts.Lossy, "lossy", false, "Lossy DNG compression")
	f.BoolVar(&exportOpts.Embed, "embed", false, "Embed the original RAW in the DNG")

	f.BoolVar(&exportOpts.Resample, "resample", false, "Resample the JPEG")
	f.IntVar(&exportOpts.Quality, "quality", 0, "JPEG quality 1-12")
	f.StringVar(&exportOpts.Fit, "fit", "", "Resampling fit: long, short, dims or mpix")
	f.Float64Var(&exportOpts.Long, "long", 0, "Long side length")
	f.Float64Var(&exportOpts.Short, "short", 0, "Short side length")
	f.Float64Var(&exportOpts.Width, "width", 0, "Width")
	f.Float64Var(&exportOpts.Height, "height", 0, "Height")
	f.StringVar(&exportOpts.DimUnit, "dimunit", "", "Unit of lengths: px, in or cm")
	f.IntVar(&exportOpts.Density, "density", 0, "Pixel density")
	f.StringVar(&exportOpts.DenUnit, "denunit", "", "Unit of density: ppi or ppcm")
	f.Float64Var(&exportOpts.MPixels, "mpixels", 0, "Megapixels when fitting by pixel count")
	rootCmd.AddCommand(exportCmd)
}
