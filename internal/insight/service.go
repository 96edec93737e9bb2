// Package insight assembles the full regional insight: signals, archetype,
// persistence, lens implications and peer context for one region and year.
package insight

import (
	"context"
	"slices"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/regioniq/insight-cli/internal/archetype"
	"github.com/regioniq/insight-cli/internal/lens"
	"github.com/regioniq/insight-cli/internal/model"
	"github.com/regioniq/insight-cli/internal/peer"
	"github.com/regioniq/insight-cli/internal/persistence"
	"github.com/regioniq/insight-cli/internal/region"
	"github.com/regioniq/insight-cli/internal/signal"
)

// peerFetchLimit bounds concurrent peer fetches.
const peerFetchLimit = 8

// MetricProvider returns current values and 5-year growth for a region.
type MetricProvider interface {
	FetchCurrentAndGrowth(ctx context.Context, regionCode string, metricIDs []string, year int) (model.MetricValues, error)
}

// ForecastProvider returns per-scenario series for a region.
type ForecastProvider interface {
	FetchForecastSeries(ctx context.Context, regionCode string, metricIDs []string) (model.ForecastTimeSeries, error)
}

// PeerResolver returns the level, parent and peers of a region.
type PeerResolver interface {
	Resolve(code string) (region.Resolution, error)
}

// Request selects the region, year, ranked metric and asset lens.
type Request struct {
	Region string
	Year   int
	Metric string
	Lens   lens.AssetLens
}

// MetricInsight is the peer comparison for the requested metric.
type MetricInsight struct {
	MetricID   string             `json:"metric_id"`
	Value      float64            `json:"value"`
	Rank       peer.RankResult    `json:"rank"`
	Growth     *peer.GrowthResult `json:"growth,omitempty"`
	Highlights []string           `json:"highlights"`
}

// PeerContext describes the peer group used for ranking.
type PeerContext struct {
	ParentName     string `json:"parent_name"`
	PeerGroupLabel string `json:"peer_group_label"`
	PeerCount      int    `json:"peer_count"`
}

// Response is the assembled insight.
type Response struct {
	RegionCode     string                    `json:"region_code"`
	Level          model.Level               `json:"level"`
	Year           int                       `json:"year"`
	Lens           lens.AssetLens            `json:"lens"`
	CatalogVersion string                    `json:"catalog_version"`
	MetricInsights *MetricInsight            `json:"metric_insights"`
	Signals        []signal.Result           `json:"signals"`
	Archetype      *archetype.Result         `json:"archetype"`
	Persistence    []persistence.Persistence `json:"persistence"`
	Logistics      lens.Implications         `json:"logistics"`
	Positioning    lens.Implications         `json:"positioning"`
	PeerContext    PeerContext               `json:"peer_context"`
}

// Service builds insight responses from its providers.
type Service struct {
	metrics   MetricProvider
	forecasts ForecastProvider
	peers     PeerResolver
	catalog   signal.Catalog
	rules     []archetype.Rule
	projector *persistence.Projector
}

// NewService returns a service over the given providers and signal catalogue.
func NewService(metrics MetricProvider, forecasts ForecastProvider, peers PeerResolver, cat signal.Catalog, horizon int) *Service {
	return &Service{
		metrics:   metrics,
		forecasts: forecasts,
		peers:     peers,
		catalog:   cat,
		rules:     archetype.DefaultRules(),
		projector: persistence.NewProjector(cat, horizon),
	}
}

// Catalog returns the signal catalogue in use.
func (s *Service) Catalog() signal.Catalog {
	return s.catalog
}

// Build fetches everything the request needs in parallel and runs the
// classification core over the frozen snapshot. Any provider error is fatal.
func (s *Service) Build(ctx context.Context, req Request) (*Response, error) {
	if req.Year <= 0 {
		return nil, eris.New("insight: year is required")
	}
	if req.Metric == "" {
		req.Metric = model.MetricJobs
	}
	metricCfg, ok := peer.LookupConfig(req.Metric)
	if !ok {
		return nil, eris.Errorf("insight: unknown metric %q", req.Metric)
	}
	if req.Lens == "" {
		req.Lens = lens.LensGeneral
	}

	res, err := s.peers.Resolve(req.Region)
	if err != nil {
		return nil, eris.Wrapf(err, "insight: resolve region %s", req.Region)
	}

	log := zap.L().With(
		zap.String("component", "insight"),
		zap.String("region", res.Code),
		zap.Int("year", req.Year),
	)

	metricIDs := s.catalog.MetricIDs()
	if !slices.Contains(metricIDs, req.Metric) {
		metricIDs = append(metricIDs, req.Metric)
	}

	var (
		subject   model.MetricValues
		national  model.MetricValues
		forecast  model.ForecastTimeSeries
		peerVals  = make([]model.MetricValues, len(res.PeerCodes))
		rankedIDs = []string{req.Metric}
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(peerFetchLimit + 3)

	g.Go(func() error {
		v, fetchErr := s.metrics.FetchCurrentAndGrowth(gCtx, res.Code, metricIDs, req.Year)
		if fetchErr != nil {
			return eris.Wrapf(fetchErr, "insight: fetch metrics for %s", res.Code)
		}
		subject = v
		return nil
	})

	g.Go(func() error {
		v, fetchErr := s.metrics.FetchCurrentAndGrowth(gCtx, region.UKCode, rankedIDs, req.Year)
		if fetchErr != nil {
			return eris.Wrap(fetchErr, "insight: fetch national metrics")
		}
		national = v
		return nil
	})

	g.Go(func() error {
		v, fetchErr := s.forecasts.FetchForecastSeries(gCtx, res.Code, s.catalog.MetricIDs())
		if fetchErr != nil {
			return eris.Wrapf(fetchErr, "insight: fetch forecast for %s", res.Code)
		}
		forecast = v
		return nil
	})

	for i, code := range res.PeerCodes {
		g.Go(func() error {
			v, fetchErr := s.metrics.FetchCurrentAndGrowth(gCtx, code, rankedIDs, req.Year)
			if fetchErr != nil {
				return eris.Wrapf(fetchErr, "insight: fetch peer %s", code)
			}
			peerVals[i] = v
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	signals := signal.ComputeAllSignals(s.catalog, subject)
	arch := archetype.Derive(signals, s.rules)

	projections := make([]persistence.Persistence, 0, len(signals))
	for i, sig := range signals {
		p := s.projector.ComputeSignalPersistence(sig.ID, sig.Outcome, forecast, req.Year)
		projections = append(projections, p)
		if suffix := persistence.FormatSuffix(p, req.Year); suffix != "" {
			signals[i].Conclusion += suffix
		}
	}

	resp := &Response{
		RegionCode:     res.Code,
		Level:          res.Level,
		Year:           req.Year,
		Lens:           req.Lens,
		CatalogVersion: s.catalog.Version,
		MetricInsights: buildMetricInsight(req.Metric, metricCfg, subject, national, peerVals, res.PeerGroupLabel),
		Signals:        signals,
		Archetype:      arch,
		Persistence:    projections,
		Logistics:      lens.DeriveLogisticsImplications(signals),
		Positioning:    lens.DeriveAssetPositioning(signals, req.Lens),
		PeerContext: PeerContext{
			ParentName:     res.ParentName,
			PeerGroupLabel: res.PeerGroupLabel,
			PeerCount:      len(res.PeerCodes),
		},
	}

	archID := ""
	if arch != nil {
		archID = arch.ID
	}
	log.Debug("insight built",
		zap.Int("signals", len(signals)),
		zap.String("archetype", archID),
		zap.Int("peers", len(res.PeerCodes)),
	)
	return resp, nil
}

// buildMetricInsight ranks the subject against peers that report the metric.
// It returns nil when the subject has no current value.
func buildMetricInsight(metricID string, cfg peer.MetricConfig, subject, national model.MetricValues, peers []model.MetricValues, peerGroupLabel string) *MetricInsight {
	current := subject.Current(metricID)
	if current == nil {
		return nil
	}

	var peerValues []float64
	var peerGrowth []*float64
	for _, pv := range peers {
		if v := pv.Current(metricID); v != nil {
			peerValues = append(peerValues, *v)
		}
		peerGrowth = append(peerGrowth, pv.Growth(metricID))
	}

	mi := &MetricInsight{
		MetricID: metricID,
		Value:    *current,
		Rank:     peer.ComputeRank(*current, peerValues, cfg, peerGroupLabel),
	}
	if g := subject.Growth(metricID); g != nil {
		gr := peer.ComputeGrowth(*g, peerGrowth, national.Growth(metricID), cfg)
		mi.Growth = &gr
	}
	mi.Highlights = peer.GenerateHighlights(peer.HighlightInput{
		Config:         cfg,
		Rank:           mi.Rank,
		PeerGroupLabel: peerGroupLabel,
		Growth:         mi.Growth,
		Value:          *current,
		National:       national.Current(metricID),
	})
	return mi
}
