package telemetry

import (
	"log/slog"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/accrete/components"
)

// WindowStats holds aggregated statistics for a time window.
type WindowStats struct {
	WindowStartTick int32   `csv:"-"`
	WindowEndTick   int32   `csv:"window_end"`
	SimTimeSec      float64 `csv:"sim_time"`

	// Population at window end
	Moving     int     `csv:"moving"`
	Static     int     `csv:"static"`
	StaticFill float64 `csv:"static_fill"` // static / static capacity

	// Events during window
	Spawns         int     `csv:"spawns"`
	BoundarySpawns int     `csv:"boundary_spawns"`
	Seeds          int     `csv:"seeds"`
	Fusions        int     `csv:"fusions"`
	Dropped        int     `csv:"dropped"`
	FusionRate     float64 `csv:"fusion_rate"` // fusions per simulated second

	// Rejected pair evaluations by reason
	RejectTooFar    int `csv:"reject_too_far"`
	RejectPortBusy  int `csv:"reject_port_busy"`
	RejectNoPort    int `csv:"reject_no_port"`
	RejectSiteMask  int `csv:"reject_site_mask"`
	PairEvaluations int `csv:"pair_evaluations"`

	// Drift time before capture, fusions in this window only
	CaptureAgeMean float64 `csv:"capture_age_mean"`
	CaptureAgeP50  float64 `csv:"capture_age_p50"`
	CaptureAgeP90  float64 `csv:"capture_age_p90"`

	// Cluster shape (sampled at window end)
	RadiusMean       float64 `csv:"radius_mean"`
	RadiusP50        float64 `csv:"radius_p50"`
	RadiusP90        float64 `csv:"radius_p90"`
	RadiusMax        float64 `csv:"radius_max"`
	GyrationRadius   float64 `csv:"gyration_radius"`
	FractalDimension float64 `csv:"fractal_dimension"` // mass-radius estimate, 0 when too small

	// Spatial index load
	BucketMax  int     `csv:"bucket_max"`
	BucketMean float64 `csv:"bucket_mean"` // over non-empty buckets

	// Lineage
	MaxDepth  int     `csv:"max_depth"`
	MeanDepth float64 `csv:"mean_depth"`
	Branches  int     `csv:"branches"`
	Tips      int     `csv:"tips"`
}

// minFractalSamples is the smallest cluster the dimension estimate is attempted on.
const minFractalSamples = 16

// fractalShells is the number of radii sampled for the mass-radius fit.
const fractalShells = 8

// Quantiles returns the mean and the 50th and 90th percentile of values.
func Quantiles(values []float64) (mean, p50, p90 float64) {
	if len(values) == 0 {
		return 0, 0, 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	mean = stat.Mean(sorted, nil)
	p50 = stat.Quantile(0.5, stat.Empirical, sorted, nil)
	p90 = stat.Quantile(0.9, stat.Empirical, sorted, nil)
	return mean, p50, p90
}

// Radii returns the distance of every position from centre.
func Radii(positions []components.Vector, centre components.Vector) []float64 {
	out := make([]float64, len(positions))
	for i, p := range positions {
		out[i] = components.Length(components.Sub(p, centre))
	}
	return out
}

// GyrationRadius returns the root mean square distance of positions from their centroid.
func GyrationRadius(positions []components.Vector) float64 {
	if len(positions) == 0 {
		return 0
	}
	xs := make([]float64, len(positions))
	ys := make([]float64, len(positions))
	for i, p := range positions {
		xs[i] = p.X
		ys[i] = p.Y
	}
	cx := stat.Mean(xs, nil)
	cy := stat.Mean(ys, nil)

	sq := make([]float64, len(positions))
	for i := range positions {
		dx, dy := xs[i]-cx, ys[i]-cy
		sq[i] = dx*dx + dy*dy
	}
	return math.Sqrt(stat.Mean(sq, nil))
}

// FractalDimension estimates the mass-radius dimension D from N(r) ~ r^D, fitting
// log N against log r over geometrically spaced radii. radii need not be sorted.
// Returns 0 when there are too few particles for a meaningful fit.
func FractalDimension(radii []float64, minRadius float64) float64 {
	if len(radii) < minFractalSamples {
		return 0
	}
	sorted := make([]float64, len(radii))
	copy(sorted, radii)
	sort.Float64s(sorted)

	rMax := sorted[len(sorted)-1]
	rMin := math.Max(minRadius, rMax/32)
	if rMin <= 0 || rMax <= rMin {
		return 0
	}

	logR := make([]float64, 0, fractalShells)
	logN := make([]float64, 0, fractalShells)
	ratio := math.Pow(rMax/rMin, 1/float64(fractalShells-1))
	r := rMin
	for i := 0; i < fractalShells; i++ {
		n := sort.Search(len(sorted), func(j int) bool { return sorted[j] > r })
		if n > 0 {
			logR = append(logR, math.Log(r))
			logN = append(logN, math.Log(float64(n)))
		}
		r *= ratio
	}
	if len(logR) < 3 {
		return 0
	}

	_, beta := stat.LinearRegression(logR, logN, nil, false)
	return beta
}

// Occupancy returns the fullest bucket and the mean over non-empty buckets.
func Occupancy(counts []int) (maxCount int, mean float64) {
	var sum, used int
	for _, c := range counts {
		if c == 0 {
			continue
		}
		used++
		sum += c
		if c > maxCount {
			maxCount = c
		}
	}
	if used > 0 {
		mean = float64(sum) / float64(used)
	}
	return maxCount, mean
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("window_start", int(s.WindowStartTick)),
		slog.Int("window_end", int(s.WindowEndTick)),
		slog.Float64("sim_time", s.SimTimeSec),
		slog.Int("moving", s.Moving),
		slog.Int("static", s.Static),
		slog.Float64("static_fill", s.StaticFill),
		slog.Int("spawns", s.Spawns),
		slog.Int("seeds", s.Seeds),
		slog.Int("fusions", s.Fusions),
		slog.Int("dropped", s.Dropped),
		slog.Float64("fusion_rate", s.FusionRate),
		slog.Int("reject_too_far", s.RejectTooFar),
		slog.Int("reject_port_busy", s.RejectPortBusy),
		slog.Int("reject_no_port", s.RejectNoPort),
		slog.Int("reject_site_mask", s.RejectSiteMask),
		slog.Float64("capture_age_mean", s.CaptureAgeMean),
		slog.Float64("capture_age_p90", s.CaptureAgeP90),
		slog.Float64("radius_p90", s.RadiusP90),
		slog.Float64("radius_max", s.RadiusMax),
		slog.Float64("gyration_radius", s.GyrationRadius),
		slog.Float64("fractal_dimension", s.FractalDimension),
		slog.Int("bucket_max", s.BucketMax),
		slog.Int("max_depth", s.MaxDepth),
		slog.Int("branches", s.Branches),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats",
		"window_end", s.WindowEndTick,
		"sim_time", s.SimTimeSec,
		"moving", s.Moving,
		"static", s.Static,
		"static_fill", s.StaticFill,
		"spawns", s.Spawns,
		"fusions", s.Fusions,
		"dropped", s.Dropped,
		"fusion_rate", s.FusionRate,
		"capture_age_p50", s.CaptureAgeP50,
		"radius_p90", s.RadiusP90,
		"gyration_radius", s.GyrationRadius,
		"fractal_dimension", s.FractalDimension,
		"bucket_max", s.BucketMax,
		"bucket_mean", s.BucketMean,
		"max_depth", s.MaxDepth,
		"mean_depth", s.MeanDepth,
	)
}
