package main

import (
	"context"

	"github.com/koustreak/idwiden/internal/catalog"
	"github.com/koustreak/idwiden/internal/database"
	"github.com/koustreak/idwiden/internal/database/mysql"
	"github.com/koustreak/idwiden/internal/database/postgres"
	"github.com/koustreak/idwiden/internal/errs"
	"github.com/koustreak/idwiden/internal/filestore/minio"
	"github.com/koustreak/idwiden/internal/report"
	"github.com/koustreak/idwiden/internal/schema"
)

// loadCatalog reads the catalog file, overlays the live schema when a
// database is configured, and builds the immutable catalog.
func (a *app) loadCatalog(ctx context.Context) (*catalog.Catalog, error) {
	file, err := catalog.Load(a.cfg.Catalog)
	if err != nil {
		return nil, err
	}

	if a.cfg.Database.Enabled() {
		if err := a.seed(ctx, file); err != nil {
			return nil, err
		}
	}

	cat, err := catalog.Build(file)
	if err != nil {
		return nil, err
	}
	for _, w := range cat.Registry.Warnings() {
		a.log.Warn(w)
	}
	a.log.InfoWith("catalog loaded", map[string]any{
		"entities": cat.Table.Len(),
		"rules":    len(cat.Registry.Rules()),
	})
	return cat, nil
}

func (a *app) seed(ctx context.Context, file *catalog.File) error {
	dbCfg := a.cfg.Database
	if dbCfg.QueryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, dbCfg.QueryTimeout)
		defer cancel()
	}

	db, err := openDB(ctx, &dbCfg)
	if err != nil {
		return err
	}
	defer db.Close()

	known := make([]string, 0, len(file.Entities))
	for _, e := range file.Entities {
		known = append(known, e.Name)
	}

	res, err := schema.NewSeeder(db, a.log).Seed(ctx, known)
	if err != nil {
		return err
	}
	for _, s := range res.Skipped {
		a.log.Debugf("schema: skipped %s", s)
	}
	for _, note := range file.Override(res.Entities) {
		a.log.Warn(note)
	}
	return nil
}

func openDB(ctx context.Context, cfg *database.Config) (database.DB, error) {
	switch cfg.Driver {
	case database.DriverPostgres:
		db, err := postgres.New(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return db, nil
	case database.DriverMySQL:
		db, err := mysql.New(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return db, nil
	}
	return nil, errs.Newf(errs.ErrKindConfiguration, "unsupported database driver %q", cfg.Driver)
}

// publish hands the summary to every configured sink and logs where it went.
func (a *app) publish(ctx context.Context, sum *report.Summary) error {
	var sinks []report.Sink

	if a.cfg.Report.Path != "" {
		sinks = append(sinks, report.FileSink{Path: a.cfg.Report.Path})
	}

	store := a.cfg.Report.Store
	if store.Enabled() {
		drv, err := minio.New(ctx, &store)
		if err != nil {
			return err
		}
		defer drv.Close()
		sinks = append(sinks, report.StoreSink{
			Store:   drv,
			Bucket:  store.Bucket,
			Prefix:  store.Prefix,
			LinkTTL: store.LinkTTL,
		})
	}

	for _, sink := range sinks {
		loc, err := sink.Publish(ctx, sum)
		if err != nil {
			return err
		}
		a.log.With().Str("run_id", sum.RunID).Logger().Infof("report written to %s", loc)
	}
	return nil
}
