package syncjob

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/uptrace/bun"
	"go.uber.org/zap"

	"github.com/chainsafe/sales-sync/pkg/bsale"
	"github.com/chainsafe/sales-sync/pkg/config"
	"github.com/chainsafe/sales-sync/pkg/entity"
	"github.com/chainsafe/sales-sync/pkg/pgutil"
	"github.com/chainsafe/sales-sync/pkg/pipeline"
	"github.com/chainsafe/sales-sync/pkg/salesstore"
	"github.com/chainsafe/sales-sync/pkg/shopify"
	"github.com/chainsafe/sales-sync/pkg/sink"
	"github.com/chainsafe/sales-sync/pkg/sink/csvfile"
	"github.com/chainsafe/sales-sync/pkg/sink/objectstore"
	"github.com/chainsafe/sales-sync/pkg/sink/pgtable"
	"github.com/chainsafe/sales-sync/pkg/syncer"
)

// deps holds everything one sync pass needs.
type deps struct {
	db       *bun.DB
	store    salesstore.Store
	pipeline *pipeline.Pipeline
	tasks    []*pipeline.Task
}

func (d *deps) close() {
	if d.db != nil {
		_ = d.db.Close()
	}
}

func (s *Server) build(ctx context.Context, logger *zap.Logger) (*deps, error) {
	cfg := s.cfg
	d := &deps{}

	if cfg.NeedsDatabase() {
		db, err := pgutil.ConnectDB(ctx, &cfg.Database)
		if err != nil {
			return nil, err
		}
		d.db = db
		d.store = salesstore.NewStore(db)
		logger.Info("Connected to database",
			zap.String("host", cfg.Database.Host),
			zap.String("database", cfg.Database.Database),
		)
	}

	sinks, watermark, err := s.sinks(ctx, d.store, logger)
	if err != nil {
		d.close()
		return nil, err
	}

	tasks, err := s.tasks(logger)
	if err != nil {
		d.close()
		return nil, err
	}
	d.tasks = tasks

	opts := []pipeline.Option{
		pipeline.WithLogger(logger),
		pipeline.WithPersistPartial(cfg.Sync.PersistPartial),
	}
	if watermark != nil {
		opts = append(opts, pipeline.WithWatermark(watermark))
	}
	if d.store != nil {
		opts = append(opts, pipeline.WithRunStore(d.store))
	}
	d.pipeline = pipeline.New(sinks, opts...)

	return d, nil
}

// sinks builds the configured outputs and picks the watermark source.
func (s *Server) sinks(ctx context.Context, store salesstore.Store, logger *zap.Logger) (*sink.Multi, sink.Watermark, error) {
	out := s.cfg.Output
	var (
		sinks     []sink.Sink
		csvSink   *csvfile.Sink
		tableSink *pgtable.Sink
	)

	if out.CSV.Enabled {
		csvSink = csvfile.New(out.CSV.Dir, out.CSV.AppendGlobal, logger)
		sinks = append(sinks, csvSink)
	}
	if out.ObjectStore.Enabled {
		client, err := objectstore.NewClient(ctx, out.ObjectStore)
		if err != nil {
			return nil, nil, err
		}
		sinks = append(sinks, objectstore.New(client, out.ObjectStore.Bucket, out.ObjectStore.Prefix, logger))
	}
	if store != nil {
		tableSink = pgtable.New(store, logger)
		if out.Table.Enabled {
			sinks = append(sinks, tableSink)
		}
	}
	if len(sinks) == 0 {
		return nil, nil, fmt.Errorf("no output configured: enable output.csv, output.object_store or output.table")
	}

	var watermark sink.Watermark
	switch s.cfg.Sync.WatermarkSource {
	case config.WatermarkFromTable:
		if tableSink != nil {
			watermark = tableSink
		}
	case config.WatermarkFromCSV:
		if csvSink == nil {
			csvSink = csvfile.New(out.CSV.Dir, true, logger)
		}
		watermark = csvSink
	}

	return sink.NewMulti(logger, sinks...), watermark, nil
}

// tasks resolves the configured entities into pipeline tasks.
func (s *Server) tasks(logger *zap.Logger) ([]*pipeline.Task, error) {
	cfg := s.cfg
	var tasks []*pipeline.Task

	if len(cfg.Sync.Entities) > 0 {
		registry := entity.Default()
		if cfg.Sync.MappingFile != "" {
			specs, err := entity.LoadFile(cfg.Sync.MappingFile)
			if err != nil {
				return nil, err
			}
			registry.Merge(specs...)
		}
		specs, err := registry.Select(cfg.Sync.Entities)
		if err != nil {
			return nil, err
		}

		client, err := bsale.New(bsale.Config{
			BaseURL:     cfg.Bsale.BaseURL,
			AccessToken: cfg.Bsale.AccessToken,
			Timeout:     cfg.Bsale.Timeout,
		},
			bsale.WithLogger(logger),
			bsale.WithRateLimit(cfg.Bsale.RequestsPerSecond),
		)
		if err != nil {
			return nil, err
		}
		runner := syncer.NewLog(syncer.NewProcedure(client, cfg.Bsale.PageSize, logger), logger)

		loc := cfg.Sync.DayBoundaryLocation()
		for _, spec := range specs {
			tasks = append(tasks, &pipeline.Task{
				Spec:     spec,
				Fetch:    s.lookup(spec),
				Runner:   runner,
				Location: loc,
				Lookback: cfg.Sync.Lookback,
			})
		}
	}

	if cfg.Shopify.Enabled && len(s.opts.Params) == 0 {
		task, err := s.shopifyTask(logger)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}

	if len(s.opts.Entities) > 0 {
		tasks = slices.DeleteFunc(tasks, func(t *pipeline.Task) bool {
			return !slices.Contains(s.opts.Entities, t.Spec.Name)
		})
	}
	if len(tasks) == 0 {
		return nil, fmt.Errorf("no entities selected")
	}
	return tasks, nil
}

// lookup returns the fetch spec of a params pass, or nil for a regular sync.
func (s *Server) lookup(spec *entity.Spec) *syncer.Spec {
	if len(s.opts.Params) == 0 {
		return nil
	}
	fetch := spec.Spec
	fetch.Params = maps.Clone(spec.Params)
	if fetch.Params == nil {
		fetch.Params = make(map[string]string, len(s.opts.Params))
	}
	maps.Copy(fetch.Params, s.opts.Params)
	if s.opts.Window == nil {
		fetch.DateParam = ""
	}
	return &fetch
}

func (s *Server) shopifyTask(logger *zap.Logger) (*pipeline.Task, error) {
	cfg := s.cfg.Shopify

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("shopify timezone: %w", err)
	}

	client, err := shopify.New(shopify.Config{
		Store:       cfg.Store,
		AccessToken: cfg.AccessToken,
		APIVersion:  cfg.APIVersion,
		Timeout:     cfg.Timeout,
	}, shopify.WithLogger(logger))
	if err != nil {
		return nil, err
	}

	return &pipeline.Task{
		Spec:      shopify.DailySpec(),
		Fetch:     shopify.OrdersSpec(),
		Runner:    syncer.NewLog(syncer.NewProcedure(client, cfg.PageSize, logger), logger),
		Location:  loc,
		Lookback:  cfg.Lookback,
		WholeDays: true,
		Transform: func(rs *syncer.ResultSet) *syncer.ResultSet {
			return shopify.DailyResultSet(shopify.Aggregate(rs.Records, loc), rs.Window)
		},
	}, nil
}
