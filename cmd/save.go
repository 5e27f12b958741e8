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
	saveDoc documentFlags
	saveSet []string
)

var saveCmd = &cobra.Command{
	Use:   "save [flags] <photo>",
	Short: "Apply setting changes and save them on the server",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := saveDoc.document(args)
		if err != nil {
			return err
		}
		assignments, err := parseAssignments(saveSet)
		if err != nil {
			return err
		}

		ctx := context.Background()
		session := newSession(newClient(nil), doc)
		if err := session.Load(ctx); err != nil && !errors.Is(err, editor.ErrNoSettings) {
			return err
		}
		if err := applySettings(session, assignments); err != nil {
			return err
		}
		if !session.Dirty() {
			fmt.Fprintln(os.Stdout, tui.Warn("Nothing to save."))
			return nil
		}

		unit := tui.Bytes
		if doc.Batch != "" {
			unit = tui.Items
		}
		err = withProgress("Saving…", unit, func(fn progress.Func) error {
			return session.Save(ctx, fn)
		})
		var pf *transport.PartialFailureError
		if errors.As(err, &pf) {
			printFailures(pf)
		}
		if err != nil {
			return err
		}
		fmt.Fprintln(os.Stdout, tui.Success("Saved "+session.URL()))
		return nil
	},
}

// printFailures lists the failed items of a batch.
func printFailures(pf *transport.PartialFailureError) {
	rows := make([]tui.SummaryRow, 0, pf.Failed)
	for i, item := range pf.Items.Items {
		if !item.Failed() {
			continue
		}
		code, _ := item.Code()
		rows = append(rows, tui.SummaryRow{
			Label: fmt.Sprintf("#%d (%d)", i+1, code),
			Value: item.String("text"),
		})
	}
	fmt.Fprintln(os.Stdout, tui.RenderSummary(rows))
}

func init() {
	saveDoc.register(saveCmd)
	saveCmd.Flags().StringArrayVar(&saveSet, "set", nil, "Change a setting, name=value (repeatable)")
	rootCmd.AddCommand(saveCmd)
}
