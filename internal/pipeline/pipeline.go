// Package pipeline orchestrates the cleanse-and-curate flow: load the
// raw datasets, validate them against their rule sets, quarantine or
// repair failing records, normalize the survivors, and write the
// cleansed and curated outputs. Every run is tracked in the state store.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/curator-io/curator/internal/config"
	"github.com/curator-io/curator/internal/curate"
	"github.com/curator-io/curator/internal/normalize"
	"github.com/curator-io/curator/internal/quarantine"
	"github.com/curator-io/curator/internal/rules"
	"github.com/curator-io/curator/internal/state"
	"github.com/curator-io/curator/internal/table"
)

// Pipeline executes the full flow for one configuration.
type Pipeline struct {
	cfg    *config.Config
	logger *slog.Logger
	store  state.Store
	now    func() time.Time

	ownStore bool
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithStore injects a run-history store. When absent the pipeline opens
// a SQLite store at the configured state path.
func WithStore(store state.Store) Option {
	return func(p *Pipeline) { p.store = store }
}

// WithClock overrides the time source used for repairs and recency metrics.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// New creates a Pipeline for the given configuration.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) *Pipeline {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	p := &Pipeline{
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// DatasetStats summarizes one dataset's journey through a run.
type DatasetStats struct {
	Dataset     string
	RowsIn      int
	RowsOut     int
	Quarantined int
	Repaired    int
}

// Result is the outcome of a completed run.
type Result struct {
	RunID           string
	Orders          DatasetStats
	Products        DatasetStats
	CuratedProducts int
	Outputs         []string
}

// Run executes the pipeline end to end. The run is recorded in the
// state store regardless of outcome; failed runs leave no curated
// outputs behind.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	if err := p.openStore(); err != nil {
		return nil, err
	}
	if p.ownStore {
		defer func() { _ = p.store.Close() }()
	}

	run, err := p.store.CreateRun()
	if err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}
	p.logger.Info("starting run", "run_id", run.ID)

	res, runErr := p.execute(ctx, run.ID)
	if runErr != nil {
		p.logger.Error("run failed", "run_id", run.ID, "error", runErr.Error())
		_ = p.store.CompleteRun(run.ID, state.RunStatusFailed, runErr.Error())
		return res, runErr
	}

	p.logger.Info("run completed", "run_id", run.ID,
		"orders_out", res.Orders.RowsOut, "products_out", res.Products.RowsOut,
		"curated_products", res.CuratedProducts)
	if err := p.store.CompleteRun(run.ID, state.RunStatusCompleted, ""); err != nil {
		return res, fmt.Errorf("failed to complete run: %w", err)
	}
	return res, nil
}

func (p *Pipeline) openStore() error {
	if p.store != nil {
		return nil
	}
	if dir := filepath.Dir(p.cfg.StatePath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create state directory: %w", err)
		}
	}
	s := state.NewSQLiteStore(p.logger)
	if err := s.Open(p.cfg.StatePath); err != nil {
		return err
	}
	if err := s.InitSchema(); err != nil {
		_ = s.Close()
		return err
	}
	p.store = s
	p.ownStore = true
	return nil
}

func (p *Pipeline) execute(ctx context.Context, runID string) (*Result, error) {
	res := &Result{RunID: runID}

	// Load
	orders, products, err := p.load(ctx, runID)
	if err != nil {
		return res, err
	}
	res.Orders.Dataset, res.Products.Dataset = orders.Name, products.Name
	res.Orders.RowsIn, res.Products.RowsIn = orders.Len(), products.Len()

	// Validate. Products go first so order foreign keys resolve against
	// the already-validated product set.
	if err := ctx.Err(); err != nil {
		return res, err
	}
	ordersSet, productsSet, err := p.cfg.RuleSets()
	if err != nil {
		return res, err
	}

	eng := rules.NewEngine(p.logger, rules.WithClock(p.now))
	ledger := quarantine.NewLedger()

	validProducts, productAnns := eng.Apply(products, productsSet, nil)
	ledger.Commit(products.Name, productAnns)

	refs := map[string]*table.Table{products.Name: validProducts}
	validOrders, orderAnns := eng.Apply(orders, ordersSet, refs)
	ledger.Commit(orders.Name, orderAnns)

	res.Products = p.recordValidation(runID, res.Products, products, validProducts, productAnns)
	res.Orders = p.recordValidation(runID, res.Orders, orders, validOrders, orderAnns)

	if err := p.writeQuarantine(res, ledger, orders, products); err != nil {
		return res, err
	}

	// A dataset that validates to empty leaves nothing to curate. The
	// error ledgers above are already on disk for inspection.
	if validOrders.IsEmpty() {
		return res, fmt.Errorf("orders dataset validated to empty (%d rows quarantined)", orders.Len())
	}
	if validProducts.IsEmpty() {
		return res, fmt.Errorf("products dataset validated to empty (%d rows quarantined)", products.Len())
	}

	// Normalize
	norm := normalize.New(p.cfg.Normalization, p.logger)
	cleanOrders := norm.Apply(validOrders)
	cleanProducts := norm.Apply(validProducts)

	ordersOut := filepath.Join(p.cfg.CleansedDir, "clean_orders.csv")
	productsOut := filepath.Join(p.cfg.CleansedDir, "clean_products.csv")
	if err := table.WriteCSV(cleanOrders, ordersOut); err != nil {
		return res, fmt.Errorf("failed to write cleansed orders: %w", err)
	}
	if err := table.WriteCSV(cleanProducts, productsOut); err != nil {
		return res, fmt.Errorf("failed to write cleansed products: %w", err)
	}
	res.Outputs = append(res.Outputs, ordersOut, productsOut)
	p.recordStage(runID, orders.Name, "normalize", cleanOrders.Len(), cleanOrders.Len(), 0)
	p.recordStage(runID, products.Name, "normalize", cleanProducts.Len(), cleanProducts.Len(), 0)
	p.logger.Info("normalization complete",
		"clean_orders", cleanOrders.Len(), "clean_products", cleanProducts.Len())

	// Curate
	curator := curate.New(p.logger, curate.WithClock(p.now))
	records, err := curator.Curate(cleanOrders, cleanProducts)
	if err != nil {
		return res, fmt.Errorf("curation failed: %w", err)
	}

	perfOut := filepath.Join(p.cfg.CuratedDir, "product_performance.csv")
	if err := table.WriteRowsCSV(perfOut, curate.Header(), curate.Rows(records)); err != nil {
		return res, fmt.Errorf("failed to write product performance: %w", err)
	}

	joined := curator.JoinOrders(cleanOrders, cleanProducts)
	joinedOut := filepath.Join(p.cfg.CuratedDir, "curated_orders.csv")
	if err := table.WriteCSV(joined, joinedOut); err != nil {
		return res, fmt.Errorf("failed to write curated orders: %w", err)
	}

	res.Outputs = append(res.Outputs, perfOut, joinedOut)
	res.CuratedProducts = len(records)
	p.recordStage(runID, products.Name, "curate", cleanProducts.Len(), len(records), 0)

	return res, nil
}

// load reads both raw datasets. A missing file, a malformed file, or an
// empty dataset aborts the run: there is nothing meaningful to cleanse.
func (p *Pipeline) load(ctx context.Context, runID string) (orders, products *table.Table, err error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	ordersSchema, _, err := p.cfg.OrdersTableSchema()
	if err != nil {
		return nil, nil, err
	}
	productsSchema, _, err := p.cfg.ProductsTableSchema()
	if err != nil {
		return nil, nil, err
	}

	orders, err = table.ReadCSV(p.cfg.OrdersPath, "orders", ordersSchema)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load orders: %w", err)
	}
	products, err = table.ReadCSV(p.cfg.ProductsPath, "products", productsSchema)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load products: %w", err)
	}

	if orders.IsEmpty() {
		return nil, nil, fmt.Errorf("orders dataset %s is empty", p.cfg.OrdersPath)
	}
	if products.IsEmpty() {
		return nil, nil, fmt.Errorf("products dataset %s is empty", p.cfg.ProductsPath)
	}

	orders.Profile().Log(p.logger)
	products.Profile().Log(p.logger)

	p.recordStage(runID, orders.Name, "load", orders.Len(), orders.Len(), 0)
	p.recordStage(runID, products.Name, "load", products.Len(), products.Len(), 0)

	return orders, products, nil
}

// recordValidation fills in the dataset stats and persists the stage.
func (p *Pipeline) recordValidation(runID string, stats DatasetStats, raw, valid *table.Table, anns []quarantine.Annotation) DatasetStats {
	stats.RowsOut = valid.Len()
	stats.Quarantined = raw.Len() - valid.Len()
	for _, a := range anns {
		if a.Severity == quarantine.SeverityWarning {
			stats.Repaired++
		}
	}
	p.recordStage(runID, raw.Name, "validate", raw.Len(), valid.Len(), stats.Quarantined)
	p.logger.Info("validation complete", "dataset", raw.Name,
		"rows_in", raw.Len(), "rows_out", valid.Len(),
		"quarantined", stats.Quarantined, "repaired", stats.Repaired)
	return stats
}

// writeQuarantine exports the annotated error records for both datasets.
// The files are written even when no records failed, so downstream
// consumers can rely on their presence.
func (p *Pipeline) writeQuarantine(res *Result, ledger *quarantine.Ledger, orders, products *table.Table) error {
	for _, t := range []*table.Table{orders, products} {
		header, rows := ledger.Export(t.Name, t.ColumnNames())
		path := filepath.Join(p.cfg.QuarantineDir, t.Name+"_error_records.csv")
		if err := table.WriteRowsCSV(path, header, rows); err != nil {
			return fmt.Errorf("failed to write %s error records: %w", t.Name, err)
		}
		res.Outputs = append(res.Outputs, path)
	}
	return nil
}

func (p *Pipeline) recordStage(runID, dataset, stage string, rowsIn, rowsOut, quarantined int) {
	err := p.store.RecordStage(&state.StageStat{
		RunID:       runID,
		Dataset:     dataset,
		Stage:       stage,
		RowsIn:      rowsIn,
		RowsOut:     rowsOut,
		Quarantined: quarantined,
	})
	if err != nil {
		p.logger.Warn("failed to record stage stats",
			"dataset", dataset, "stage", stage, "error", err.Error())
	}
}
