package metrics

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/immunosim/internal/dynamo"
	"github.com/san-kum/immunosim/internal/immunity"
)

const DefaultClearanceFraction = 0.01

// Derived summarizes a trajectory. ClearanceTime is +Inf when the viral load
// never drops below the clearance threshold.
type Derived struct {
	PeakViralLoad  float64
	PeakViralTime  float64
	ClearanceTime  float64
	MaxTCells      float64
	PeakAntibodies float64
}

// Cleared reports whether a clearance time was found.
func (d Derived) Cleared() bool {
	return !math.IsInf(d.ClearanceTime, 1)
}

// Thresholds tunes metric extraction.
type Thresholds struct {
	// ClearanceFraction of the peak viral load below which the virus counts
	// as cleared.
	ClearanceFraction float64 `yaml:"clearance_fraction" json:"clearance_fraction"`
}

func DefaultThresholds() Thresholds {
	return Thresholds{ClearanceFraction: DefaultClearanceFraction}
}

func Extract(grid dynamo.TimeGrid, traj *dynamo.Trajectory) Derived {
	return ExtractWith(grid, traj, DefaultThresholds())
}

// ExtractWith computes Derived from a trajectory sampled on grid. Ties on
// the peak resolve to the earliest grid point. Clearance is the earliest
// grid time whose viral load is strictly below the threshold, which can be
// the first point when the run starts below it.
func ExtractWith(grid dynamo.TimeGrid, traj *dynamo.Trajectory, th Thresholds) Derived {
	v := traj.Column(immunity.IdxV)

	peakIdx := floats.MaxIdx(v)
	peak := v[peakIdx]
	threshold := peak * th.ClearanceFraction

	clearance := math.Inf(1)
	for i, val := range v {
		if val < threshold {
			clearance = grid[i]
			break
		}
	}

	return Derived{
		PeakViralLoad:  peak,
		PeakViralTime:  grid[peakIdx],
		ClearanceTime:  clearance,
		MaxTCells:      floats.Max(traj.Column(immunity.IdxT)),
		PeakAntibodies: floats.Max(traj.Column(immunity.IdxA)),
	}
}
