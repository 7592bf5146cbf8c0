package integrators

import (
	"context"
	"fmt"
	"math"

	"github.com/san-kum/immunosim/internal/dynamo"
)

// Dormand-Prince coefficients (RK45)
var (
	a2 = 1.0 / 5.0
	a3 = 3.0 / 10.0
	a4 = 4.0 / 5.0
	a5 = 8.0 / 9.0

	b21 = 1.0 / 5.0
	b31 = 3.0 / 40.0
	b32 = 9.0 / 40.0
	b41 = 44.0 / 45.0
	b42 = -56.0 / 15.0
	b43 = 32.0 / 9.0
	b51 = 19372.0 / 6561.0
	b52 = -25360.0 / 2187.0
	b53 = 64448.0 / 6561.0
	b54 = -212.0 / 729.0
	b61 = 9017.0 / 3168.0
	b62 = -355.0 / 33.0
	b63 = 46732.0 / 5247.0
	b64 = 49.0 / 176.0
	b65 = -5103.0 / 18656.0

	c1 = 35.0 / 384.0
	c3 = 500.0 / 1113.0
	c4 = 125.0 / 192.0
	c5 = -2187.0 / 6784.0
	c6 = 11.0 / 84.0

	dc1 = c1 - 5179.0/57600.0
	dc3 = c3 - 7571.0/16695.0
	dc4 = c4 - 393.0/640.0
	dc5 = c5 - -92097.0/339200.0
	dc6 = c6 - 187.0/2100.0
	dc7 = -1.0 / 40.0
)

const (
	DefaultRelTol   = 1e-6
	DefaultAbsTol   = 1e-6
	DefaultMaxSteps = 50000
)

// DormandPrince is an embedded RK5(4) solver with error control. A value
// holds only settings, so one instance may serve concurrent runs.
type DormandPrince struct {
	RelTol float64
	AbsTol float64
	// MaxSteps bounds attempted steps (accepted and rejected) between two
	// consecutive grid points.
	MaxSteps int

	safety   float64
	minScale float64
	maxScale float64
}

func NewDormandPrince() *DormandPrince {
	return &DormandPrince{
		RelTol:   DefaultRelTol,
		AbsTol:   DefaultAbsTol,
		MaxSteps: DefaultMaxSteps,
		safety:   0.9,
		minScale: 0.2,
		maxScale: 10.0,
	}
}

// Solve integrates sys with the default tolerances.
func Solve(ctx context.Context, sys dynamo.System, x0 dynamo.State, grid dynamo.TimeGrid) (*dynamo.Trajectory, error) {
	return NewDormandPrince().Integrate(ctx, sys, x0, grid)
}

type dpScratch struct {
	k    [7]dynamo.State
	tmp  dynamo.State
	yNew dynamo.State
}

func newDPScratch(n int) *dpScratch {
	return &dpScratch{
		tmp:  make(dynamo.State, n),
		yNew: make(dynamo.State, n),
	}
}

// Integrate samples sys at every point of grid starting from x0 at grid[0].
// Row 0 is x0; negative components are clamped to zero after integration.
func (d *DormandPrince) Integrate(ctx context.Context, sys dynamo.System, x0 dynamo.State, grid dynamo.TimeGrid) (*dynamo.Trajectory, error) {
	n := len(x0)
	if n != sys.StateDim() {
		return nil, fmt.Errorf("%w: state has %d components, system expects %d", dynamo.ErrDimensionMismatch, n, sys.StateDim())
	}
	if len(grid) == 0 {
		return nil, fmt.Errorf("%w: no points", dynamo.ErrInvalidGrid)
	}

	data := make([]float64, len(grid)*n)
	copy(data, x0)

	w := newDPScratch(n)
	y := x0.Clone()
	t := grid[0]

	w.k[0] = sys.Derive(y, t)
	if !w.k[0].IsValid() {
		return nil, &dynamo.IntegrationError{Time: t, State: y.Clone(), Reason: "non-finite derivative at initial state"}
	}

	h := 0.0
	if len(grid) > 1 {
		h = d.initialStep(y, w.k[0], grid.Span())
	}
	for row := 1; row < len(grid); row++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		tout := grid[row]
		steps := 0

		for t < tout {
			if steps >= d.MaxSteps {
				return nil, &dynamo.IntegrationError{Step: steps, Time: t, State: y.Clone(), Reason: "step budget exhausted"}
			}

			hh := h
			last := false
			if t+hh >= tout {
				hh = tout - t
				last = true
			}
			if hh <= 16*epsilon*math.Max(math.Abs(t), 1) {
				return nil, &dynamo.IntegrationError{Step: steps, Time: t, State: y.Clone(), Reason: "step size underflow"}
			}

			errNorm := d.attempt(sys, w, y, t, hh)
			steps++

			if math.IsNaN(errNorm) || math.IsInf(errNorm, 0) {
				h = hh * d.minScale
				continue
			}

			if errNorm > 1 {
				h = hh * math.Max(d.minScale, d.safety*math.Pow(errNorm, -0.2))
				continue
			}

			if last {
				t = tout
			} else {
				t += hh
			}
			y, w.yNew = w.yNew, y
			w.k[0] = w.k[6]

			factor := d.maxScale
			if errNorm > 0 {
				factor = math.Min(d.maxScale, d.safety*math.Pow(errNorm, -0.2))
			}
			if hh < h && factor >= 1 {
				// The step was shortened to hit tout; keep the larger size.
				h = math.Max(h, hh*factor)
			} else {
				h = hh * factor
			}
		}

		copy(data[row*n:(row+1)*n], y)
	}

	dynamo.State(data).ClampNonNegative()
	return dynamo.NewTrajectory(len(grid), n, data)
}

const epsilon = 2.220446049250313e-16

// attempt takes one trial step of size dt from (t, y) with w.k[0] = f(t, y).
// It fills w.yNew and w.k[6] and returns the RMS error norm.
func (d *DormandPrince) attempt(sys dynamo.System, w *dpScratch, y dynamo.State, t, dt float64) float64 {
	n := len(y)
	k := &w.k
	x := w.tmp

	for i := 0; i < n; i++ {
		x[i] = y[i] + dt*b21*k[0][i]
	}
	k[1] = sys.Derive(x, t+a2*dt)

	for i := 0; i < n; i++ {
		x[i] = y[i] + dt*(b31*k[0][i]+b32*k[1][i])
	}
	k[2] = sys.Derive(x, t+a3*dt)

	for i := 0; i < n; i++ {
		x[i] = y[i] + dt*(b41*k[0][i]+b42*k[1][i]+b43*k[2][i])
	}
	k[3] = sys.Derive(x, t+a4*dt)

	for i := 0; i < n; i++ {
		x[i] = y[i] + dt*(b51*k[0][i]+b52*k[1][i]+b53*k[2][i]+b54*k[3][i])
	}
	k[4] = sys.Derive(x, t+a5*dt)

	for i := 0; i < n; i++ {
		x[i] = y[i] + dt*(b61*k[0][i]+b62*k[1][i]+b63*k[2][i]+b64*k[3][i]+b65*k[4][i])
	}
	k[5] = sys.Derive(x, t+dt)

	yNew := w.yNew
	for i := 0; i < n; i++ {
		yNew[i] = y[i] + dt*(c1*k[0][i]+c3*k[2][i]+c4*k[3][i]+c5*k[4][i]+c6*k[5][i])
	}
	k[6] = sys.Derive(yNew, t+dt)
	if !yNew.IsValid() || !k[6].IsValid() {
		return math.Inf(1)
	}

	sum := 0.0
	for i := 0; i < n; i++ {
		errEst := dt * (dc1*k[0][i] + dc3*k[2][i] + dc4*k[3][i] + dc5*k[4][i] + dc6*k[5][i] + dc7*k[6][i])
		scale := d.AbsTol + d.RelTol*math.Max(math.Abs(y[i]), math.Abs(yNew[i]))
		e := errEst / scale
		sum += e * e
	}
	return math.Sqrt(sum / float64(n))
}

// initialStep picks the first trial step from the scaled sizes of y and f.
func (d *DormandPrince) initialStep(y, f dynamo.State, span float64) float64 {
	var d0, d1 float64
	for i := range y {
		sc := d.AbsTol + d.RelTol*math.Abs(y[i])
		d0 += (y[i] / sc) * (y[i] / sc)
		d1 += (f[i] / sc) * (f[i] / sc)
	}
	n := float64(len(y))
	d0 = math.Sqrt(d0 / n)
	d1 = math.Sqrt(d1 / n)

	h := 1e-6
	if d0 >= 1e-5 && d1 >= 1e-5 {
		h = 0.01 * d0 / d1
	}
	return math.Min(h, span)
}
