package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/redbay-eng/drainfield-placer/internal/catalog"
	"github.com/redbay-eng/drainfield-placer/internal/config"
	"github.com/redbay-eng/drainfield-placer/internal/fit"
	"github.com/redbay-eng/drainfield-placer/internal/placer"
	"github.com/redbay-eng/drainfield-placer/internal/requirements"
	"github.com/redbay-eng/drainfield-placer/internal/resilience"
	"github.com/redbay-eng/drainfield-placer/internal/selection"
	"github.com/redbay-eng/drainfield-placer/internal/store"
)

// appEnv holds what the selection commands share.
type appEnv struct {
	Catalog *catalog.Catalog
	Tables  *requirements.Tables // nil when the tables directory is unusable
	Store   store.RunStore       // nil unless requested
	Service *placer.Service
}

// Close releases the run store.
func (e *appEnv) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// initEnv loads the catalog and tables and builds the selection service.
// The run store is opened and migrated when withStore is set. Callers
// should defer env.Close().
func initEnv(ctx context.Context, c *config.Config, withStore bool) (*appEnv, error) {
	log := zap.L().With(zap.String("component", "cli"))

	manifest := catalog.DefaultManifest()
	if c.Catalog.Manifest != "" {
		m, err := catalog.LoadManifest(c.Catalog.Manifest)
		if err != nil {
			return nil, err
		}
		manifest = m
	}
	cat, stats, err := catalog.Load(ctx, c.Catalog.Dir, manifest)
	if err != nil {
		return nil, eris.Wrap(err, "load catalog")
	}
	log.Info("catalog loaded",
		zap.String("dir", c.Catalog.Dir),
		zap.Int("patterns", cat.Len()),
		zap.Int("files", stats.Loaded),
		zap.Int("missing", stats.Missing),
		zap.Int("invalid", stats.Invalid),
	)

	env := &appEnv{Catalog: cat}

	tables, err := requirements.Load(ctx, c.Tables.Dir)
	if err != nil {
		log.Warn("regulatory tables unavailable, using area formula", zap.String("dir", c.Tables.Dir), zap.Error(err))
	} else {
		env.Tables = tables
	}

	opts := []selection.Option{
		selection.WithProducts(c.Selection.Products...),
		selection.WithSearcher(fit.New(fit.Options{
			Step:         c.Search.RotationStep,
			Perturbation: c.Search.Perturbation,
			Tolerance:    c.Search.Tolerance,
		})),
	}
	if env.Tables != nil && env.Tables.Drainfield != nil {
		opts = append(opts, selection.WithAreaSource(env.Tables.Drainfield))
	}
	sel := selection.New(cat, opts...)

	svcOpts := []placer.Option{placer.WithTables(env.Tables)}
	if withStore {
		st, err := store.Open(ctx, storeConfig(c))
		if err != nil {
			return nil, err
		}
		if err := st.Migrate(ctx); err != nil {
			_ = st.Close()
			return nil, eris.Wrap(err, "migrate store")
		}
		env.Store = st
		svcOpts = append(svcOpts, placer.WithRunStore(st))
	}
	env.Service = placer.New(sel, svcOpts...)

	return env, nil
}

func storeConfig(c *config.Config) store.Config {
	return store.Config{
		Driver:      c.Store.Driver,
		DatabaseURL: c.Store.DatabaseURL,
		Retry:       retryConfig(c.Store.Retry),
	}
}

func retryConfig(r config.RetryConfig) resilience.RetryConfig {
	rc := resilience.DefaultRetryConfig()
	if r.MaxAttempts > 0 {
		rc.MaxAttempts = r.MaxAttempts
	}
	if r.InitialBackoff > 0 {
		rc.InitialBackoff = r.InitialBackoff
	}
	if r.MaxBackoff > 0 {
		rc.MaxBackoff = r.MaxBackoff
	}
	return rc
}
