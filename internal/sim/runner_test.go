package sim_test

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/immunosim/internal/config"
	"github.com/san-kum/immunosim/internal/dynamo"
	"github.com/san-kum/immunosim/internal/immunity"
	"github.com/san-kum/immunosim/internal/integrators"
	"github.com/san-kum/immunosim/internal/sim"
)

type countingObserver struct {
	mu     sync.Mutex
	ok     int
	failed int
}

func (o *countingObserver) OnRun(_ *sim.Result, err error, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err != nil {
		o.failed++
		return
	}
	o.ok++
}

var _ = Describe("Runner", func() {
	var (
		ctx    context.Context
		runner *sim.Runner
		obs    *countingObserver
	)

	BeforeEach(func() {
		ctx = context.Background()
		obs = &countingObserver{}
		runner = sim.New(sim.WithObserver(obs))
	})

	Describe("the default scenario", func() {
		var res *sim.Result

		BeforeEach(func() {
			var err error
			res, err = runner.Run(ctx, sim.Request{})
			Expect(err).NotTo(HaveOccurred())
		})

		It("samples the full default grid", func() {
			Expect(res.Grid.Len()).To(Equal(config.DefaultSteps))
			Expect(res.Grid.Start()).To(Equal(0.0))
			Expect(res.Grid.End()).To(Equal(30.0))
			Expect(res.Trajectory.Rows()).To(Equal(config.DefaultSteps))
			Expect(res.Integrator).To(Equal("rk45"))
		})

		It("starts at the initial state", func() {
			Expect([]float64(res.Trajectory.Row(0))).To(Equal([]float64{10, 1, 20, 0}))
		})

		It("never goes negative", func() {
			for j := 0; j < immunity.NumVars; j++ {
				for _, v := range res.Trajectory.Column(j) {
					Expect(v).To(BeNumerically(">=", 0))
				}
			}
		})

		It("peaks inside the window and clears", func() {
			d := runner.Metrics(res)
			Expect(d.PeakViralLoad).To(BeNumerically("~", 62.6, 0.5))
			Expect(d.PeakViralTime).To(BeNumerically(">", 0))
			Expect(d.PeakViralTime).To(BeNumerically("<", 30))
			Expect(d.Cleared()).To(BeTrue())
			Expect(d.ClearanceTime).To(BeNumerically(">", d.PeakViralTime))
		})

		It("is stable", func() {
			Expect(runner.Stability(res).Stable).To(BeTrue())
		})

		It("notifies observers", func() {
			Expect(obs.ok).To(Equal(1))
			Expect(obs.failed).To(BeZero())
		})
	})

	It("is deterministic", func() {
		a, err := runner.Run(ctx, sim.Request{})
		Expect(err).NotTo(HaveOccurred())
		b, err := runner.Run(ctx, sim.Request{})
		Expect(err).NotTo(HaveOccurred())
		for j := 0; j < immunity.NumVars; j++ {
			Expect(a.Trajectory.Column(j)).To(Equal(b.Trajectory.Column(j)))
		}
	})

	It("expands T cells for a large inoculum", func() {
		res, err := runner.Run(ctx, sim.Request{Initial: map[string]float64{"V": 1000, "I": 10}})
		Expect(err).NotTo(HaveOccurred())
		Expect(runner.Metrics(res).MaxTCells).To(BeNumerically(">", 20))
	})

	It("honours a custom grid", func() {
		res, err := runner.Run(ctx, sim.Request{Grid: &sim.GridSpec{Start: 0, End: 10, Steps: 11}})
		Expect(err).NotTo(HaveOccurred())
		Expect([]float64(res.Grid)).To(HaveLen(11))
		Expect(res.Grid[5]).To(BeNumerically("~", 5, 1e-12))
	})

	It("integrates grids with more points than the step budget", func() {
		steps := integrators.DefaultMaxSteps + 10000
		res, err := runner.Run(ctx, sim.Request{Grid: &sim.GridSpec{Start: 0, End: 30, Steps: steps}})
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Trajectory.Rows()).To(Equal(steps))
		Expect(runner.Metrics(res).PeakViralLoad).To(BeNumerically("~", 62.6, 0.5))
	})

	Describe("invalid input", func() {
		It("rejects an out-of-range parameter", func() {
			_, err := runner.Run(ctx, sim.Request{Overrides: map[string]float64{"beta": -1}})
			Expect(errors.Is(err, dynamo.ErrParameterOutOfRange)).To(BeTrue())

			var pe *dynamo.ParameterOutOfRangeError
			Expect(errors.As(err, &pe)).To(BeTrue())
			Expect(pe.Name).To(Equal("beta"))
			Expect(obs.failed).To(Equal(1))
		})

		It("rejects an unknown parameter", func() {
			_, err := runner.Run(ctx, sim.Request{Overrides: map[string]float64{"gamma": 1}})
			Expect(errors.Is(err, dynamo.ErrUnknownParameter)).To(BeTrue())
		})

		It("rejects an out-of-range initial condition", func() {
			_, err := runner.Run(ctx, sim.Request{Initial: map[string]float64{"T": 1e9}})
			Expect(errors.Is(err, dynamo.ErrInitialConditionOutOfRange)).To(BeTrue())
		})

		It("rejects a degenerate grid", func() {
			_, err := runner.Run(ctx, sim.Request{Grid: &sim.GridSpec{Start: 5, End: 5, Steps: 10}})
			Expect(errors.Is(err, dynamo.ErrInvalidGrid)).To(BeTrue())
		})
	})

	It("stops when the context is cancelled", func() {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := runner.Run(cctx, sim.Request{})
		Expect(errors.Is(err, context.Canceled)).To(BeTrue())
	})

	Describe("FromConfig", func() {
		It("uses the preset's settings", func() {
			cfg := config.GetPreset("long-term")
			Expect(cfg).NotTo(BeNil())
			r, err := sim.FromConfig(cfg)
			Expect(err).NotTo(HaveOccurred())

			res, err := r.Run(ctx, sim.Request{})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Grid.End()).To(Equal(100.0))
		})

		It("rejects an unknown integrator", func() {
			cfg := config.DefaultConfig()
			cfg.Simulation.Integrator = "leapfrog"
			_, err := sim.FromConfig(cfg)
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("persistence", func() {
		var res *sim.Result

		BeforeEach(func() {
			var err error
			res, err = runner.Run(ctx, sim.Request{Grid: &sim.GridSpec{Start: 0, End: 30, Steps: 50}})
			Expect(err).NotTo(HaveOccurred())
		})

		DescribeTable("round-trips through an archive",
			func(name string) {
				dest := filepath.Join(GinkgoT().TempDir(), name)
				id, err := runner.Persist(ctx, res, dest)
				Expect(err).NotTo(HaveOccurred())
				Expect(id).To(HavePrefix("run_"))

				archive, err := sim.OpenArchive(dest)
				Expect(err).NotTo(HaveOccurred())
				DeferCleanup(archive.Close)

				meta, err := archive.Load(ctx, id)
				Expect(err).NotTo(HaveOccurred())
				Expect(meta.Stable).To(BeTrue())
				Expect(meta.Steps).To(Equal(50))
				Expect(meta.Metrics.PeakViralLoad).To(Equal(runner.Metrics(res).PeakViralLoad))

				grid, traj, err := archive.LoadTrajectory(ctx, id)
				Expect(err).NotTo(HaveOccurred())
				Expect([]float64(grid)).To(Equal([]float64(res.Grid)))
				Expect(traj.Column(immunity.IdxV)).To(Equal(res.Trajectory.Column(immunity.IdxV)))
			},
			Entry("run directory", "results"),
			Entry("sqlite", "runs.db"),
		)
	})
})

var _ = Describe("Sweep", func() {
	runner := sim.New()

	It("returns one point per value in order", func() {
		points, err := runner.Sweep(context.Background(), sim.SweepSpec{
			Name: "k_a", Min: 1e-6, Max: 2e-3, Points: 3,
			Base: sim.Request{
				Overrides: map[string]float64{"k_t": 1e-7},
				Grid:      &sim.GridSpec{Start: 0, End: 30, Steps: 200},
			},
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(points).To(HaveLen(3))
		Expect(points[0].Value).To(Equal(1e-6))
		Expect(points[2].Value).To(Equal(2e-3))
		for _, p := range points {
			Expect(p.Err).NotTo(HaveOccurred())
			Expect(p.Stable).To(BeTrue())
		}
		Expect(math.IsInf(points[0].Metrics.ClearanceTime, 1)).To(BeTrue())
		Expect(points[2].Metrics.Cleared()).To(BeTrue())
	})

	It("sweeps initial compartments", func() {
		points, err := runner.Sweep(context.Background(), sim.SweepSpec{
			Name: "V", Min: 10, Max: 1000, Points: 2, Concurrency: 1,
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(points[1].Metrics.PeakViralLoad).To(BeNumerically(">", points[0].Metrics.PeakViralLoad))
	})

	It("records per-point validation failures", func() {
		points, err := runner.Sweep(context.Background(), sim.SweepSpec{
			Name: "beta", Min: 1e-6, Max: 2, Points: 2,
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(points[0].Err).NotTo(HaveOccurred())
		Expect(errors.Is(points[1].Err, dynamo.ErrParameterOutOfRange)).To(BeTrue())
	})

	It("rejects an unknown name", func() {
		_, err := runner.Sweep(context.Background(), sim.SweepSpec{Name: "zeta", Min: 0, Max: 1, Points: 2})
		Expect(errors.Is(err, dynamo.ErrUnknownParameter)).To(BeTrue())
	})
})
