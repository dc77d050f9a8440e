package cmd

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dhansen/plenarycrawl/internal/worker"
	"github.com/dhansen/plenarycrawl/pkg/queue"
)

var (
	postprocessResetRules []string
	postprocessResetForce bool
)

var postprocessingCmd = &cobra.Command{
	Use:   "postprocessing",
	Short: "Run or reset the postprocessing (extraction) stage.",
}

var postprocessingStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the postprocessing scheduler and worker pool, standalone.",
	RunE:  runPostprocessingStart,
}

var postprocessingResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Clear extracted data so documents are reprocessed.",
	Long: `Without --rule, resets every document whose extraction was left stuck
mid-flight by an interrupted worker (enqueued=true, data=NULL). With one or
more --rule flags, forces a full reprocess of every document matching those
rules, discarding any data already extracted; requires -f to confirm.`,
	RunE: runPostprocessingReset,
}

func init() {
	postprocessingCmd.AddCommand(postprocessingStartCmd)
	postprocessingCmd.AddCommand(postprocessingResetCmd)
	postprocessingResetCmd.Flags().StringArrayVar(&postprocessResetRules, "rule", nil, "rule name to reset (repeatable)")
	postprocessingResetCmd.Flags().BoolVarP(&postprocessResetForce, "force", "f", false, "confirm discarding already-extracted data")
}

func runPostprocessingStart(c *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(c.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfgFile)
	if err != nil {
		return err
	}
	defer a.close()

	shutdown := worker.NewShutdownFlag()
	documentQ := queue.New[worker.PostprocessItem](a.cfg.PostProcessingWorker.Instances * 2)

	var workers []worker.Worker
	workers = append(workers, worker.NewPostprocessScheduler(
		shutdown, a.docs, documentQ,
		worker.PostprocessSchedulerConfig{
			PrefetchLimit: a.cfg.PostProcessingScheduler.PrefetchLimit,
			SleepOnEmpty:  a.cfg.PostProcessingScheduler.SleepOnEmpty,
		},
		a.recorder,
	))
	for i := 0; i < a.cfg.PostProcessingWorker.Instances; i++ {
		name := fmt.Sprintf("postprocess_worker_%d", i)
		workers = append(workers, worker.NewPostprocessWorker(name, shutdown, documentQ, a.docs, a.rules, a.recorder))
	}

	for _, w := range workers {
		go func(w worker.Worker) {
			_ = w.Run(ctx)
		}(w)
	}

	<-ctx.Done()
	shutdown.Set()
	return nil
}

// validatePostprocessResetFlags requires -f whenever --rule narrows the
// reset, since that path discards already-extracted data rather than just
// requeueing stuck rows.
func validatePostprocessResetFlags(rules []string, force bool) error {
	if len(rules) > 0 && !force {
		return fmt.Errorf("resetting rules %v discards extracted data; pass -f to confirm", rules)
	}
	return nil
}

func runPostprocessingReset(c *cobra.Command, args []string) error {
	if err := validatePostprocessResetFlags(postprocessResetRules, postprocessResetForce); err != nil {
		return err
	}

	ctx := c.Context()
	a, err := newApp(ctx, cfgFile)
	if err != nil {
		return err
	}
	defer a.close()

	if len(postprocessResetRules) == 0 {
		n, err := a.docs.ResetEnqueuedWhereDataNull(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.OutOrStdout(), "reset %d stuck document(s)\n", n)
		return nil
	}

	var total int64
	for _, name := range postprocessResetRules {
		n, err := a.docs.ResetPostprocessingByRule(ctx, name)
		if err != nil {
			return fmt.Errorf("reset rule %q: %w", name, err)
		}
		total += n
	}
	fmt.Fprintf(c.OutOrStdout(), "reset %d document(s) across %d rule(s)\n", total, len(postprocessResetRules))
	return nil
}
