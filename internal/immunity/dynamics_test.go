package immunity_test

import (
	"context"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/immunosim/internal/dynamo"
	"github.com/san-kum/immunosim/internal/immunity"
	"github.com/san-kum/immunosim/internal/integrators"
	"github.com/san-kum/immunosim/internal/metrics"
)

func simulate(ps immunity.ParameterSet, init immunity.InitialState, grid dynamo.TimeGrid) *dynamo.Trajectory {
	traj, err := integrators.Solve(context.Background(), immunity.NewModel(ps), init.State(), grid)
	Expect(err).NotTo(HaveOccurred())
	return traj
}

var _ = Describe("Viral immunity dynamics", func() {
	var grid dynamo.TimeGrid

	BeforeEach(func() {
		var err error
		grid, err = dynamo.Linspace(0, 30, 1000)
		Expect(err).NotTo(HaveOccurred())
	})

	Context("with the immune response switched off", func() {
		var withImmunity, without metrics.Derived

		BeforeEach(func() {
			p := immunity.DefaultParams()
			p.KT = 0
			p.KA = 0

			init := immunity.DefaultInitialState()
			withImmunity = metrics.Extract(grid, simulate(immunity.DefaultParameterSet(), init, grid))
			without = metrics.Extract(grid, simulate(immunity.UncheckedParameterSet(p), init, grid))
		})

		It("peaks at least as high as the immune-competent run", func() {
			Expect(without.PeakViralLoad).To(BeNumerically(">=", withImmunity.PeakViralLoad))
		})

		It("clears no earlier than the immune-competent run", func() {
			Expect(withImmunity.Cleared()).To(BeTrue())
			Expect(without.ClearanceTime).To(BeNumerically(">=", withImmunity.ClearanceTime))
		})
	})

	Context("with minimal immune killing", func() {
		It("never clears within 30 days", func() {
			p, err := immunity.DefaultParams().With(map[string]float64{"k_t": 1e-7, "k_a": 1e-6})
			Expect(err).NotTo(HaveOccurred())
			ps, err := immunity.NewParameterSet(p)
			Expect(err).NotTo(HaveOccurred())

			d := metrics.Extract(grid, simulate(ps, immunity.DefaultInitialState(), grid))
			Expect(math.IsInf(d.ClearanceTime, 1)).To(BeTrue())
		})
	})

	Context("with a large inoculum", func() {
		It("expands the T cell pool beyond its starting size", func() {
			init, err := immunity.NewInitialState(1000, 10, 20, 0)
			Expect(err).NotTo(HaveOccurred())

			traj := simulate(immunity.DefaultParameterSet(), init, grid)
			d := metrics.Extract(grid, traj)
			Expect(d.MaxTCells).To(BeNumerically(">", 20))
			Expect(metrics.IsStable(traj)).To(BeTrue())
		})
	})

	It("is reproducible bit for bit", func() {
		a := simulate(immunity.DefaultParameterSet(), immunity.DefaultInitialState(), grid)
		b := simulate(immunity.DefaultParameterSet(), immunity.DefaultInitialState(), grid)
		Expect(a.Column(immunity.IdxV)).To(Equal(b.Column(immunity.IdxV)))
		Expect(a.Column(immunity.IdxA)).To(Equal(b.Column(immunity.IdxA)))
	})
})
