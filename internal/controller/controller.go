// Package controller runs the import and enrichment workflows against the
// brewery database. Records are processed independently: a failing record
// is logged, counted and recorded while the sweep continues.
package controller

import (
	"context"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/brewery-sync/internal/model"
	"github.com/sells-group/brewery-sync/internal/reconcile"
	"github.com/sells-group/brewery-sync/internal/resilience"
	"github.com/sells-group/brewery-sync/internal/store"
	"github.com/sells-group/brewery-sync/pkg/notion"
	"github.com/sells-group/brewery-sync/pkg/openbrewery"
)

// Upserter writes one brewery to the database.
type Upserter interface {
	Upsert(ctx context.Context, b model.Brewery) (*reconcile.Result, error)
}

// Enricher computes and writes derived fields for one page.
type Enricher interface {
	Enrich(ctx context.Context, page notionapi.Page) model.Outcome
}

// Config holds workflow parameters.
type Config struct {
	DatabaseID    string
	State         string
	PerPage       int
	Concurrency   int
	ProgressEvery int
}

// Option configures a Controller.
type Option func(*Controller)

// WithSource sets the directory client used by ImportAll.
func WithSource(c openbrewery.Client) Option {
	return func(ctl *Controller) { ctl.source = c }
}

// WithUpserter overrides the default reconcile.Upserter.
func WithUpserter(u Upserter) Option {
	return func(ctl *Controller) { ctl.upserter = u }
}

// WithEnricher sets the enricher used by EnrichAll and EnrichSingle.
func WithEnricher(e Enricher) Option {
	return func(ctl *Controller) { ctl.enricher = e }
}

// WithStore records every run in the ledger.
func WithStore(s store.Store) Option {
	return func(ctl *Controller) { ctl.store = s }
}

// WithProgress overrides the progress reporter factory.
func WithProgress(fn func(model.Workflow) Progress) Option {
	return func(ctl *Controller) { ctl.progress = fn }
}

// Controller assembles the workflows.
type Controller struct {
	cfg      Config
	notion   notion.Client
	source   openbrewery.Client
	upserter Upserter
	enricher Enricher
	store    store.Store
	progress func(model.Workflow) Progress
}

// New returns a Controller for the database in cfg.
func New(cfg Config, client notion.Client, opts ...Option) *Controller {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	c := &Controller{cfg: cfg, notion: client}
	for _, o := range opts {
		o(c)
	}
	if c.upserter == nil {
		c.upserter = reconcile.NewUpserter(client, cfg.DatabaseID)
	}
	if c.progress == nil {
		every := cfg.ProgressEvery
		c.progress = func(wf model.Workflow) Progress { return NewLogProgress(wf, every) }
	}
	return c
}

// ImportAll fetches every brewery for the configured state and upserts each
// one. A fetch failure aborts the run before any write.
func (c *Controller) ImportAll(ctx context.Context) (model.Summary, error) {
	if c.source == nil {
		return model.Summary{}, eris.New("controller: import requires a brewery source")
	}

	runID, err := c.begin(ctx, model.WorkflowImport)
	if err != nil {
		return model.Summary{}, err
	}

	breweries, err := openbrewery.FetchAll(ctx, c.source, c.cfg.State, c.cfg.PerPage)
	if err != nil {
		err = eris.Wrap(err, "controller: fetch breweries")
		c.finish(ctx, runID, model.Summary{}, nil, err)
		return model.Summary{}, err
	}

	summary, outcomes, err := sweep(ctx, breweries, c.cfg.Concurrency, c.progress(model.WorkflowImport), c.importOne)
	c.finish(ctx, runID, summary, outcomes, err)
	return summary, err
}

func (c *Controller) importOne(ctx context.Context, b model.Brewery) model.Outcome {
	if b.ID == "" {
		zap.L().Warn("controller: brewery without id", zap.String("name", b.Name))
		return model.Skipped("", b.Name, model.ReasonInvalidID)
	}

	res, err := c.upserter.Upsert(ctx, b)
	if err != nil {
		zap.L().Error("controller: upsert failed",
			zap.String("brewery_id", b.ID),
			zap.String("error_class", resilience.ClassifyError(err)),
			zap.Error(err),
		)
		return model.Failed(b.ID, b.Name, err)
	}
	return res.Outcome(b)
}

// EnrichAll enriches every page in the database.
func (c *Controller) EnrichAll(ctx context.Context) (model.Summary, error) {
	if c.enricher == nil {
		return model.Summary{}, eris.New("controller: enrichment is not configured")
	}

	runID, err := c.begin(ctx, model.WorkflowEnrichAll)
	if err != nil {
		return model.Summary{}, err
	}

	pages, err := notion.QueryAll(ctx, c.notion, c.cfg.DatabaseID, nil)
	if err != nil {
		err = eris.Wrap(err, "controller: read database")
		c.finish(ctx, runID, model.Summary{}, nil, err)
		return model.Summary{}, err
	}

	summary, outcomes, err := sweep(ctx, pages, c.cfg.Concurrency, c.progress(model.WorkflowEnrichAll), c.enricher.Enrich)
	c.finish(ctx, runID, summary, outcomes, err)
	return summary, err
}

// EnrichSingle enriches one page by id. A page that does not exist, or an
// id Notion rejects, is logged and counted as the run's only skip.
func (c *Controller) EnrichSingle(ctx context.Context, pageID string) (model.Summary, error) {
	if c.enricher == nil {
		return model.Summary{}, eris.New("controller: enrichment is not configured")
	}

	runID, err := c.begin(ctx, model.WorkflowEnrichSingle)
	if err != nil {
		return model.Summary{}, err
	}

	log := zap.L().With(zap.String("page_id", pageID))

	page, err := c.notion.RetrievePage(ctx, pageID)
	switch {
	case notion.IsNotFound(err):
		log.Warn("controller: page not found", zap.Error(err))
		return c.skipSingle(ctx, runID, model.Skipped(pageID, "", model.ReasonNotFound)), nil
	case notion.IsValidation(err):
		log.Warn("controller: invalid page id", zap.Error(err))
		return c.skipSingle(ctx, runID, model.Skipped(pageID, "", model.ReasonInvalidID)), nil
	case err != nil:
		err = eris.Wrapf(err, "controller: retrieve page %s", pageID)
		c.finish(ctx, runID, model.Summary{}, nil, err)
		return model.Summary{}, err
	}

	summary, outcomes, err := sweep(ctx, []notionapi.Page{*page}, 1, c.progress(model.WorkflowEnrichSingle), c.enricher.Enrich)
	c.finish(ctx, runID, summary, outcomes, err)
	return summary, err
}

// skipSingle counts and records o as the only outcome of a single-page run.
func (c *Controller) skipSingle(ctx context.Context, runID string, o model.Outcome) model.Summary {
	var summary model.Summary
	summary.Add(o)
	c.finish(ctx, runID, summary, []model.Outcome{o}, nil)
	return summary
}

// begin creates a ledger run when a store is configured.
func (c *Controller) begin(ctx context.Context, wf model.Workflow) (string, error) {
	if c.store == nil {
		return "", nil
	}
	run, err := c.store.CreateRun(ctx, wf)
	if err != nil {
		return "", eris.Wrapf(err, "controller: create %s run", wf)
	}
	zap.L().Info("controller: run started", zap.String("run_id", run.ID), zap.String("workflow", string(wf)))
	return run.ID, nil
}

// finish records outcomes and closes the run. Ledger errors are logged, not
// returned, so they never mask the workflow result.
func (c *Controller) finish(ctx context.Context, runID string, summary model.Summary, outcomes []model.Outcome, runErr error) {
	if c.store == nil || runID == "" {
		return
	}
	ctx = context.WithoutCancel(ctx)
	log := zap.L().With(zap.String("run_id", runID))

	if err := c.store.RecordOutcomes(ctx, runID, outcomes); err != nil {
		log.Warn("controller: record outcomes failed", zap.Error(err))
	}

	var err error
	if runErr != nil {
		err = c.store.FailRun(ctx, runID, summary, runErr)
	} else {
		err = c.store.CompleteRun(ctx, runID, summary)
	}
	if err != nil {
		log.Warn("controller: finish run failed", zap.Error(err))
	}
}
