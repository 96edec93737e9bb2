package peer

import (
	"fmt"
	"math"
	"sort"

	"github.com/regioniq/insight-cli/internal/signal"
)

// Highlight thresholds.
const (
	maxHighlights        = 3
	rankHighlightMaxPos  = 3
	rankHighlightMinSize = 5
	growthDeltaPP        = 0.5
	nationalDeltaRatio   = 0.10
)

// RankResult is the subject's position in its peer group.
type RankResult struct {
	Position   int     `json:"position"`
	Total      int     `json:"total"`
	Percentile float64 `json:"percentile"`
	Tier       Tier    `json:"tier"`
	Conclusion string  `json:"conclusion"`
}

// GrowthResult compares the subject's 5-year CAGR with its peers and the nation.
type GrowthResult struct {
	Value       float64    `json:"value"`
	PeerAvg     *float64   `json:"peer_avg"`
	NationalAvg *float64   `json:"national_avg"`
	Band        GrowthBand `json:"band"`
	Conclusion  string     `json:"conclusion"`
}

// ComputeRank inserts value into peerValues, sorts descending and returns the
// 1-based position of the subject. Equal values keep input order with the
// subject ahead of its peers. NaN peers are ignored.
func ComputeRank(value float64, peerValues []float64, cfg MetricConfig, peerGroupLabel string) RankResult {
	if math.IsNaN(value) {
		return RankResult{}
	}

	type entry struct {
		v       float64
		subject bool
	}
	entries := make([]entry, 0, len(peerValues)+1)
	entries = append(entries, entry{v: value, subject: true})
	for _, v := range peerValues {
		if math.IsNaN(v) {
			continue
		}
		entries = append(entries, entry{v: v})
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].v > entries[j].v })

	res := RankResult{Total: len(entries)}
	for i, e := range entries {
		if e.subject {
			res.Position = i + 1
			break
		}
	}

	res.Percentile = 100
	if res.Total > 1 {
		res.Percentile = float64(res.Total-res.Position) / float64(res.Total-1) * 100
	}

	total := float64(res.Total)
	switch {
	case res.Position <= int(math.Ceil(total*0.25)):
		res.Tier = TierTop
	case res.Position >= int(math.Ceil(total*0.75)):
		res.Tier = TierBottom
	default:
		res.Tier = TierMiddle
	}

	res.Conclusion = signal.Render(cfg.RankTemplates[res.Tier], map[string]string{
		"label":      cfg.Label,
		"value":      signal.FormatValue(value, cfg.Unit, cfg.Precision),
		"position":   Ordinal(res.Position),
		"total":      fmt.Sprint(res.Total),
		"peer_group": peerGroupLabel,
	})
	return res
}

// ComputeGrowth compares a CAGR with the mean of the valid peer CAGRs and a
// national CAGR. Negative growth always selects the declining template.
func ComputeGrowth(value float64, peerGrowth []*float64, national *float64, cfg MetricConfig) GrowthResult {
	res := GrowthResult{Value: value, NationalAvg: national}

	var sum float64
	var n int
	for _, g := range peerGrowth {
		if g == nil || math.IsNaN(*g) {
			continue
		}
		sum += *g
		n++
	}
	if n > 0 {
		avg := sum / float64(n)
		res.PeerAvg = &avg
	}

	switch {
	case value < 0:
		res.Band = GrowthDeclining
	case value >= cfg.StrongGrowth:
		res.Band = GrowthStrong
	case value <= cfg.WeakGrowth:
		res.Band = GrowthWeak
	default:
		res.Band = GrowthModerate
	}

	vars := map[string]string{
		"label":    cfg.Label,
		"value":    signal.FormatValue(math.Abs(value), signal.UnitPercent, 1),
		"peer_avg": formatRate(res.PeerAvg),
		"national": formatRate(national),
	}
	res.Conclusion = signal.Render(cfg.GrowthTemplates[res.Band], vars)
	return res
}

func formatRate(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return signal.FormatValue(*v, signal.UnitPercent, 1)
}

// HighlightInput gathers what GenerateHighlights needs for one metric.
type HighlightInput struct {
	Config         MetricConfig
	Rank           RankResult
	PeerGroupLabel string
	Growth         *GrowthResult
	Value          float64
	National       *float64
}

// GenerateHighlights returns at most three short highlights. Each is emitted
// only when it clears its materiality bar.
func GenerateHighlights(in HighlightInput) []string {
	out := make([]string, 0, maxHighlights)

	if in.Rank.Position > 0 && in.Rank.Position <= rankHighlightMaxPos && in.Rank.Total >= rankHighlightMinSize {
		out = append(out, fmt.Sprintf("%s: %s of %d %s", in.Config.Label, Ordinal(in.Rank.Position), in.Rank.Total, in.PeerGroupLabel))
	}

	if in.Growth != nil && in.Growth.PeerAvg != nil {
		delta := in.Growth.Value - *in.Growth.PeerAvg
		if math.Abs(delta) >= growthDeltaPP {
			dir := "faster"
			if delta < 0 {
				dir = "slower"
			}
			out = append(out, fmt.Sprintf("%s growing %spp a year %s than %s",
				in.Config.Label, signal.FormatValue(math.Abs(delta), signal.UnitRatio, 1), dir, in.PeerGroupLabel))
		}
	}

	if in.Config.CompareNational && in.National != nil && *in.National > 0 {
		ratio := in.Value / *in.National
		if math.Abs(ratio-1) > nationalDeltaRatio {
			dir := "above"
			if ratio < 1 {
				dir = "below"
			}
			out = append(out, fmt.Sprintf("%s %s %s the UK figure of %s",
				in.Config.Label, signal.FormatValue(math.Abs(ratio-1)*100, signal.UnitPercent, 0), dir,
				signal.FormatValue(*in.National, in.Config.Unit, in.Config.Precision)))
		}
	}

	if len(out) > maxHighlights {
		out = out[:maxHighlights]
	}
	return out
}

// Ordinal renders 1 as "1st", 2 as "2nd", 11 as "11th" and so on.
func Ordinal(n int) string {
	suffix := "th"
	switch n % 100 {
	case 11, 12, 13:
	default:
		switch n % 10 {
		case 1:
			suffix = "st"
		case 2:
			suffix = "nd"
		case 3:
			suffix = "rd"
		}
	}
	return fmt.Sprintf("%d%s", n, suffix)
}
