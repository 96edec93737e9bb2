package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/regioniq/insight-cli/internal/insight"
	"github.com/regioniq/insight-cli/internal/region"
	"github.com/regioniq/insight-cli/internal/signal"
	"github.com/regioniq/insight-cli/internal/store"
)

// initStore opens the configured store backend.
func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "regioniq.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, &store.PoolConfig{
			MaxConns: cfg.Store.Pool.MaxConns,
			MinConns: cfg.Store.Pool.MinConns,
		})
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// loadCatalog returns the configured signal catalogue or the built-in one.
func loadCatalog() (signal.Catalog, error) {
	if cfg.Engine.CatalogPath == "" {
		return signal.DefaultCatalog(), nil
	}
	return signal.LoadCatalog(cfg.Engine.CatalogPath)
}

// engineEnv bundles the store and the services built on it.
type engineEnv struct {
	Store     store.Store
	Catalog   signal.Catalog
	Hierarchy *region.Hierarchy
	Insights  *insight.Service
}

// Close releases the store.
func (e *engineEnv) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// initEngine opens the store and wires the insight service over it.
func initEngine(ctx context.Context) (*engineEnv, error) {
	cat, err := loadCatalog()
	if err != nil {
		return nil, err
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}

	provider := store.NewProvider(st)
	names, err := provider.RegionNames(ctx)
	if err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "load region names")
	}

	h, err := region.LoadHierarchy(cfg.Engine.HierarchyPath, names)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	return &engineEnv{
		Store:     st,
		Catalog:   cat,
		Hierarchy: h,
		Insights:  insight.NewService(provider, provider, h, cat, cfg.Engine.HorizonYear),
	}, nil
}
