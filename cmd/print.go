package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"darkroom/internal/editor"
	"darkroom/internal/progress"
	"darkroom/internal/transport"
	"darkroom/internal/tui"
)

var (
	printDoc documentFlags
	printSet []string
	printDir string
)

var printCmd = &cobra.Command{
	Use:   "print [flags] <photo>",
	Short: "Save a printable page of a photo with the current settings",
	Long:  "Fetches the server's print page for the edited photo and saves it as HTML, ready to open in a browser and print.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := printDoc.document(args)
		if err != nil {
			return err
		}
		assignments, err := parseAssignments(printSet)
		if err != nil {
			return err
		}

		dir := printDir
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

		var blob transport.Blob
		err = withProgress("Printing…", tui.Bytes, func(fn progress.Func) error {
			var err error
			blob, err = session.Print(ctx, fn)
			return err
		})
		if errors.Is(err, editor.ErrDownloadCanceled) {
			fmt.Fprintln(os.Stdout, "Print canceled.")
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Fprintln(os.Stdout, tui.Success("Print page saved to "+blob.Path))
		return nil
	},
}

func init() {
	printDoc.register(printCmd)
	printCmd.Flags().StringArrayVar(&printSet, "set", nil, "Change a setting before printing, name=value (repeatable)")
	printCmd.Flags().StringVarP(&printDir, "output", "o", "", "Directory for the print page (default from config)")
	rootCmd.AddCommand(printCmd)
}
