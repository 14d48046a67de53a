package main

import (
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/blackcoderx/apman/pkg/core"
	"github.com/blackcoderx/apman/pkg/storage"
	"github.com/blackcoderx/apman/pkg/tui"
)

var (
	benchDuration time.Duration
	benchRPS      int
	benchUsers    int
	benchRampUp   time.Duration
	benchData     string
	benchFrom     string
	historyLimit  int
)

func init() {
	f := benchCmd.Flags()
	f.DurationVar(&benchDuration, "duration", 10*time.Second, "how long to run")
	f.IntVar(&benchRPS, "rps", 10, "requests per second across all users")
	f.IntVar(&benchUsers, "users", 1, "concurrent users")
	f.DurationVar(&benchRampUp, "ramp-up", 0, "spread user start times over this window")
	f.StringVarP(&benchData, "data", "d", "", "call data as JSON")
	f.StringVar(&benchFrom, "from", "", "take the operation and data from a saved call")

	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "number of entries to show (0 for all)")

	rootCmd.AddCommand(benchCmd, historyCmd)
}

var benchCmd = &cobra.Command{
	Use:   "bench [operation]",
	Short: "Load test one operation",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var saved *storage.SavedCall
		if benchFrom != "" {
			var err error
			if saved, err = storage.LoadCall(workspaceDir(), benchFrom); err != nil {
				return fmt.Errorf("failed to load call '%s': %w", benchFrom, err)
			}
		}

		client, err := loadClient(nil)
		if err != nil {
			return err
		}

		name, err := operationName(client, args, saved, false)
		if err != nil {
			return err
		}
		op, ok := client.Operation(name)
		if !ok {
			return fmt.Errorf("%w: %s", core.ErrUnknownOperation, name)
		}
		data, err := callInput(op, benchData, "", false, saved)
		if err != nil {
			return err
		}
		if saved != nil {
			for k, v := range saved.Headers {
				client.AddHeader(k, v)
			}
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		params := core.LoadParams{
			Duration:          benchDuration,
			RequestsPerSecond: benchRPS,
			ConcurrentUsers:   benchUsers,
			RampUp:            benchRampUp,
		}
		fmt.Fprintln(cmd.ErrOrStderr(), tui.DimStyle.Render(
			fmt.Sprintf("running %s for %s at %d req/s with %d users", name, benchDuration, benchRPS, benchUsers)))

		result, err := core.RunLoad(ctx, op, data, params)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), result.Format())
		return nil
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent calls",
	RunE: func(cmd *cobra.Command, args []string) error {
		entries, err := storage.LoadHistory(workspaceDir(), historyLimit)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for _, e := range entries {
			status := tui.StatusBadge(e.Status, fmt.Sprint(e.Status))
			if e.Error != "" && e.Status == 0 {
				status = tui.ErrorStyle.Render("error")
			}
			fmt.Fprintf(out, "%s %s %s %s %s\n",
				tui.DimStyle.Render(e.Time.Local().Format(time.DateTime)),
				tui.MethodBadge(e.Method),
				tui.NameStyle.Render(e.Operation),
				status,
				tui.DimStyle.Render(fmt.Sprintf("%dms", e.DurationMS)))
		}
		return nil
	},
}
