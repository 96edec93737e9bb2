package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/regioniq/insight-cli/internal/model"
	"github.com/regioniq/insight-cli/internal/persistence"
	"github.com/regioniq/insight-cli/internal/region"
	"github.com/regioniq/insight-cli/internal/signal"
)

// Provider serves insight inputs from a Store. Region codes are translated
// to the store's codes before querying.
type Provider struct {
	store Store
}

// NewProvider wraps s.
func NewProvider(s Store) *Provider {
	return &Provider{store: s}
}

// FetchCurrentAndGrowth returns each metric's baseline value at year, its
// 5-year CAGR and the prior-year value.
func (p *Provider) FetchCurrentAndGrowth(ctx context.Context, regionCode string, metricIDs []string, year int) (model.MetricValues, error) {
	obs, err := p.store.QueryObservations(ctx, ObservationFilter{
		Metrics:   metricIDs,
		Regions:   []string{region.ToDBCode(regionCode)},
		Scenarios: []model.Scenario{model.ScenarioBaseline},
		FromYear:  year - signal.GrowthYears,
		ToYear:    year,
	})
	if err != nil {
		return nil, eris.Wrapf(err, "store: current and growth for %s", regionCode)
	}
	return persistence.ValuesForYear(BuildForecastSeries(obs), model.ScenarioBaseline, metricIDs, year), nil
}

// FetchForecastSeries returns every stored scenario series for the metrics.
func (p *Provider) FetchForecastSeries(ctx context.Context, regionCode string, metricIDs []string) (model.ForecastTimeSeries, error) {
	obs, err := p.store.QueryObservations(ctx, ObservationFilter{
		Metrics: metricIDs,
		Regions: []string{region.ToDBCode(regionCode)},
	})
	if err != nil {
		return nil, eris.Wrapf(err, "store: forecast series for %s", regionCode)
	}
	return BuildForecastSeries(obs), nil
}

// RegionNames returns stored region names keyed by UI code.
func (p *Provider) RegionNames(ctx context.Context) (map[string]string, error) {
	regions, err := p.store.ListRegions(ctx, "")
	if err != nil {
		return nil, eris.Wrap(err, "store: region names")
	}
	names := make(map[string]string, len(regions))
	for _, r := range regions {
		names[region.ToUICode(r.Code)] = r.Name
	}
	return names, nil
}
