package orchestrator

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"time"

	"github.com/use-agent/scrapechat/config"
	"github.com/use-agent/scrapechat/models"
	"github.com/use-agent/scrapechat/monitoring"
	"github.com/use-agent/scrapechat/spider"
)

// Outcome classifies a finished extraction run. EmptyResult means the
// strategy ran without error but the pages yielded no records; callers
// report it differently from Failed.
type Outcome int

const (
	Succeeded Outcome = iota
	EmptyResult
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Succeeded:
		return "succeeded"
	case EmptyResult:
		return "empty"
	default:
		return "failed"
	}
}

// Orchestrator drives one strategy run to completion: it budgets the run
// (wall-clock ceiling plus page-fetch allowance), spools yielded records to a
// temporary raw-capture file, aggregates them in discovery order and
// classifies the terminal state.
type Orchestrator struct {
	fetcher spider.Fetcher
	cfg     config.FetchConfig
	tmpDir  string
}

// New creates an Orchestrator. tmpDir is where per-run spool files live;
// empty means the OS temp directory.
func New(fetcher spider.Fetcher, cfg config.FetchConfig, tmpDir string) *Orchestrator {
	return &Orchestrator{fetcher: fetcher, cfg: cfg, tmpDir: tmpDir}
}

// Run executes the strategy against the target URL. The run moves through
// dispatching (seed normalization), fetching and parsing (strategy-internal),
// then aggregation into a terminal outcome. The temporary spool file is
// removed on every exit path, including failures.
func (o *Orchestrator) Run(ctx context.Context, sp spider.Spider, targetURL string) (*models.ExtractionResult, Outcome, error) {
	start := time.Now()
	defer func() {
		monitoring.ScrapeRunDuration.WithLabelValues(sp.Name()).Observe(time.Since(start).Seconds())
	}()

	ctx, cancel := context.WithTimeout(ctx, o.cfg.RunTimeout)
	defer cancel()

	// Dispatching: normalize the seed exactly once, then hand the strategy
	// a budget-bounded fetcher.
	seed, err := sp.Seed(targetURL)
	if err != nil {
		monitoring.ScrapeRunsTotal.WithLabelValues(sp.Name(), Failed.String()).Inc()
		return nil, Failed, models.NewChatError(models.ErrCodeExtractionFailed, "could not prepare the target URL", err)
	}
	fetcher := spider.WithBudget(o.fetcher, o.cfg.MaxPages)

	spool, err := os.CreateTemp(o.tmpDir, "scrape_*.jsonl")
	if err != nil {
		monitoring.ScrapeRunsTotal.WithLabelValues(sp.Name(), Failed.String()).Inc()
		return nil, Failed, models.NewChatError(models.ErrCodeInternal, "could not create spool file", err)
	}
	defer func() {
		spool.Close()
		if rmErr := os.Remove(spool.Name()); rmErr != nil {
			slog.Warn("spool cleanup failed", "path", spool.Name(), "error", rmErr)
		}
	}()

	enc := json.NewEncoder(spool)
	result := &models.ExtractionResult{}
	emit := func(rec models.Record) {
		result.Records = append(result.Records, rec)
		if encErr := enc.Encode(rec); encErr != nil {
			slog.Warn("spool write failed", "error", encErr)
		}
	}

	slog.Info("extraction run starting", "strategy", sp.Name(), "seed", seed)
	if runErr := sp.Run(ctx, fetcher, seed, emit); runErr != nil {
		monitoring.ScrapeRunsTotal.WithLabelValues(sp.Name(), Failed.String()).Inc()
		slog.Error("extraction run failed", "strategy", sp.Name(), "seed", seed, "error", runErr)
		return nil, Failed, models.NewChatError(models.ErrCodeExtractionFailed, "scraping run failed", runErr)
	}

	if result.IsEmpty() {
		monitoring.ScrapeRunsTotal.WithLabelValues(sp.Name(), EmptyResult.String()).Inc()
		slog.Info("extraction run yielded no records", "strategy", sp.Name(), "seed", seed)
		return result, EmptyResult, nil
	}

	monitoring.ScrapeRunsTotal.WithLabelValues(sp.Name(), Succeeded.String()).Inc()
	slog.Info("extraction run finished", "strategy", sp.Name(), "records", len(result.Records), "duration", time.Since(start).Round(time.Millisecond))
	return result, Succeeded, nil
}
