package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"darkroom/internal/inspect"
	"darkroom/internal/progress"
	"darkroom/internal/tui"
)

var inspectWorkers int

var inspectCmd = &cobra.Command{
	Use:   "inspect <file>...",
	Short: "Describe exported images: format, size and camera metadata",
	Long:  "Lists every named image with its dimensions and EXIF camera data, and flags leftovers of interrupted downloads.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var (
			summary inspect.Summary
			reports []inspect.Report
		)
		err := withProgress("Inspecting…", tui.Items, func(fn progress.Func) error {
			updates := make(chan inspect.Update, 64)
			done := make(chan struct{})
			go func() {
				defer close(done)
				state := progress.State{}
				for u := range updates {
					state.Total += int64(u.TotalDelta)
					state.Done += int64(u.ProcessedDelta + u.ErrorDelta)
					fn(state)
				}
			}()

			var err error
			summary, reports, err = inspect.Run(context.Background(), args, inspect.Options{Workers: inspectWorkers}, updates)
			close(updates)
			<-done
			return err
		})
		if err != nil {
			return err
		}

		rows := make([]tui.SummaryRow, 0, len(reports))
		for _, r := range reports {
			rows = append(rows, tui.SummaryRow{Label: r.Path, Value: describe(r)})
		}
		if len(rows) > 0 {
			fmt.Fprintln(os.Stdout, tui.RenderSummary(rows))
		}

		fmt.Fprintln(os.Stdout, tui.Success(fmt.Sprintf("%d images, %s", summary.Processed, humanize.Bytes(uint64(summary.Bytes)))))
		if summary.Errors > 0 {
			fmt.Fprintln(os.Stdout, tui.Warn(fmt.Sprintf("%d files could not be read", summary.Errors)))
		}
		if summary.Leftovers > 0 {
			fmt.Fprintln(os.Stdout, tui.Warn(fmt.Sprintf("%d interrupted downloads left behind (*.tmp)", summary.Leftovers)))
		}
		return nil
	},
}

func describe(r inspect.Report) string {
	parts := []string{r.Info.Kind.String()}
	if r.Info.Width > 0 && r.Info.Height > 0 {
		parts = append(parts, fmt.Sprintf("%dx%d", r.Info.Width, r.Info.Height))
	}
	parts = append(parts, humanize.Bytes(uint64(r.Size)))
	if camera := strings.TrimSpace(r.Metadata.Make + " " + r.Metadata.Model); camera != "" {
		parts = append(parts, camera)
	}
	if r.Metadata.Taken != "" {
		parts = append(parts, r.Metadata.Taken)
	}
	return strings.Join(parts, ", ")
}

func init() {
	inspectCmd.Flags().IntVar(&inspectWorkers, "workers", 0, "Files inspected in parallel (default one per CPU)")
	rootCmd.AddCommand(inspectCmd)
}
