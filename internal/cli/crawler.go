package cmd

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dhansen/plenarycrawl/internal/supervisor"
	"github.com/dhansen/plenarycrawl/internal/worker"
	"github.com/dhansen/plenarycrawl/pkg/queue"
)

var crawlerCmd = &cobra.Command{
	Use:   "crawler",
	Short: "Run the crawl pipeline.",
}

var crawlerStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start every crawl worker and block until interrupted.",
	RunE:  runCrawlerStart,
}

func init() {
	crawlerCmd.AddCommand(crawlerStartCmd)
}

// runCrawlerStart wires the five long-running workers named in the system
// overview onto their shared queues and hands them to a Supervisor: one
// RateRegulator, one SessionDayProbe, one URLMinter, Downloader.Instances
// downloaders, one PostprocessScheduler and PostProcessingWorker.Instances
// postprocess workers.
func runCrawlerStart(c *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(c.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfgFile)
	if err != nil {
		return err
	}
	defer a.close()

	probeID, err := a.probeRuleID(ctx)
	if err != nil {
		return fmt.Errorf("resolve probe rule: %w", err)
	}

	shutdown := worker.NewShutdownFlag()
	tokenQ := queue.New[worker.Token](a.cfg.TokenBucketWorker.QueueCapacity)
	urlQ := queue.New[worker.MintedURL](a.cfg.Downloader.Instances * 2)
	documentQ := queue.New[worker.PostprocessItem](a.cfg.PostProcessingWorker.Instances * 2)

	startDate, err := parseDate(a.cfg.SessionDayChecker.StartDate)
	if err != nil {
		return fmt.Errorf("parse sessiondaychecker.startdate: %w", err)
	}

	var workers []worker.Worker

	workers = append(workers, worker.NewRateRegulator(
		shutdown, tokenQ, a.reqs,
		worker.RegulatorConfig{
			InitialInterval: a.cfg.TokenBucketWorker.InitialInterval,
			MinInterval:     a.cfg.TokenBucketWorker.MinInterval,
			Window:          a.cfg.TokenBucketWorker.Window,
		},
		a.recorder,
	))

	workers = append(workers, worker.NewSessionDayProbe(
		shutdown, tokenQ, a.days, a.urls, a.reqs, a.rules, probeID, a.fetch,
		worker.SessionDayProbeConfig{
			StartDate:     startDate,
			Offset:        a.cfg.SessionDayChecker.Offset,
			PrefetchLimit: a.cfg.SessionDayChecker.PrefetchLimit,
			UserAgent:     a.cfg.General.UserAgent,
			SleepOnEmpty:  a.cfg.SessionDayChecker.SleepOnEmpty,
		},
		a.recorder,
	))

	workers = append(workers, worker.NewURLMinter(
		shutdown, a.urls, a.rules, probeID, urlQ,
		worker.URLMinterConfig{
			PrefetchLimit: a.cfg.DateUrlGenerator.PrefetchLimit,
			SleepOnEmpty:  a.cfg.DateUrlGenerator.SleepOnEmpty,
		},
		a.recorder,
	))

	for i := 0; i < a.cfg.Downloader.Instances; i++ {
		name := fmt.Sprintf("downloader_%d", i)
		workers = append(workers, worker.NewDownloader(
			name, shutdown, tokenQ, urlQ, a.reqs, a.docs, a.fetch,
			worker.DownloaderConfig{
				DataDir:              a.cfg.Downloader.Path,
				Extension:            a.cfg.Downloader.Extension,
				UserAgent:            a.cfg.General.UserAgent,
				RequestTimeoutFactor: a.cfg.Downloader.RequestTimeoutFactor,
				StopWaitSecs:         a.cfg.Downloader.StopWaitSecs,
				SleepOnEmpty:         a.cfg.Downloader.SleepOnEmpty,
				SleepOnError:         a.cfg.Downloader.SleepOnError,
			},
			a.recorder,
		))
	}

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

	sup := supervisor.New(shutdown, workers, supervisor.Config{
		StartTimeout: a.cfg.Supervisor.StartTimeout,
		StopTimeout:  a.cfg.Supervisor.StopTimeout,
	}, a.urls, a.docs, a.recorder)

	return sup.Run(ctx)
}
