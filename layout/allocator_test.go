package layout

import (
	"errors"
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/multiq/crosstalk"
	"github.com/sarchlab/multiq/device"
	"github.com/sarchlab/multiq/errs"
	"github.com/sarchlab/multiq/hooking"
	"github.com/sarchlab/multiq/task"
)

func cx(a, b int) task.Op { return task.Op{Kind: "cx", Units: []int{a, b}} }

func pairTask(id string, weight int) *task.Task {
	ops := []task.Op{}
	for i := 0; i < weight; i++ {
		ops = append(ops, cx(0, 1))
	}

	return task.MustNew(id, id, 2, ops)
}

func mustLine(n int) *device.Graph {
	d, err := device.Line("line", n, 1, 0.99)
	Expect(err).NotTo(HaveOccurred())

	return d
}

func unitsOf(a *Allocator, t *task.Task) []int {
	units, ok := a.Assignment().TaskUnits(t.ID, t.NumUnits())
	Expect(ok).To(BeTrue())

	return units
}

var _ = Describe("Allocator", func() {
	It("should fill the device and then overflow", func() {
		alloc := MakeBuilder().WithDevice(mustLine(5)).Build("Allocator")
		a := pairTask("A", 3)
		b := pairTask("B", 1)
		c := pairTask("C", 1)

		Expect(alloc.State()).To(Equal(StateEmpty))

		comp, floaded, err := alloc.Run(a, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(floaded).To(BeFalse())
		Expect(alloc.State()).To(Equal(StateAccumulating))
		Expect(unitsOf(alloc, a)).To(Equal([]int{0, 1}))

		comp, floaded, err = alloc.Run(b, comp)
		Expect(err).NotTo(HaveOccurred())
		Expect(floaded).To(BeFalse())
		Expect(unitsOf(alloc, b)).To(Equal([]int{2, 3}))

		prior := comp
		comp, floaded, err = alloc.Run(c, comp)
		Expect(err).NotTo(HaveOccurred())
		Expect(floaded).To(BeTrue())
		Expect(comp).To(BeIdenticalTo(prior))
		Expect(alloc.State()).To(Equal(StateFull))
		Expect(alloc.Overflow()).To(BeIdenticalTo(c))

		Expect(comp.Registers()).To(HaveLen(2))
		Expect(alloc.TaskIDs()).To(Equal([]string{"A", "B"}))
		Expect(func() { _, _, _ = alloc.Run(c, comp) }).To(Panic())

		alloc.Reset()
		Expect(alloc.State()).To(Equal(StateEmpty))
		Expect(alloc.Available()).To(HaveLen(5))
		Expect(alloc.Overflow()).To(BeNil())
	})

	It("should prefer reliable readouts", func() {
		d, err := device.MakeBuilder().
			WithUnit(0, 0.5).WithUnit(1, 1).WithUnit(2, 1).WithUnit(3, 1).
			WithLink(0, 1, 0.99).WithLink(1, 2, 0.99).WithLink(2, 3, 0.99).
			Build("line")
		Expect(err).NotTo(HaveOccurred())

		alloc := MakeBuilder().WithDevice(d).Build("Allocator")
		a := pairTask("A", 1)

		_, _, err = alloc.Run(a, nil)

		Expect(err).NotTo(HaveOccurred())
		Expect(unitsOf(alloc, a)).To(Equal([]int{1, 2}))
	})

	It("should grow placements from placed neighbours", func() {
		alloc := MakeBuilder().WithDevice(mustLine(5)).Build("Allocator")
		t := task.MustNew("T", "T", 4, []task.Op{
			cx(0, 1), cx(0, 1), cx(1, 2),
		})

		_, _, err := alloc.Run(t, nil)

		Expect(err).NotTo(HaveOccurred())
		Expect(unitsOf(alloc, t)).To(Equal([]int{0, 1, 2, 3}))
	})

	It("should steer away from links degraded by crosstalk", func() {
		rules := crosstalk.NewRules()
		rules.Add(device.MakeLinkKey(0, 1), device.MakeLinkKey(2, 3), 10)

		alloc := MakeBuilder().
			WithDevice(mustLine(5)).
			WithCrosstalkRules(rules).
			Build("Allocator")

		updates := []crosstalk.Update{}
		alloc.AcceptHook(hooking.HookFunc(func(ctx hooking.HookCtx) {
			if ctx.Pos == HookPosCrosstalk {
				updates = append(updates, ctx.Item.(crosstalk.Update))
			}
		}))

		a := pairTask("A", 1)
		b := pairTask("B", 1)

		comp, _, err := alloc.Run(a, nil)
		Expect(err).NotTo(HaveOccurred())
		_, _, err = alloc.Run(b, comp)
		Expect(err).NotTo(HaveOccurred())

		Expect(updates).To(HaveLen(1))
		Expect(alloc.Model().Reliability(device.MakeLinkKey(2, 3))).To(
			BeNumerically("~", 0.9, 1e-12))
		Expect(unitsOf(alloc, b)).To(Equal([]int{3, 4}))
	})

	It("should keep the neighbourhood of placed tasks free", func() {
		alloc := MakeBuilder().
			WithDevice(mustLine(6)).
			WithExclusionHops(1).
			Build("Allocator")
		a := pairTask("A", 1)
		b := pairTask("B", 1)

		comp, _, err := alloc.Run(a, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(alloc.Available()).To(Equal([]int{3, 4, 5}))

		_, _, err = alloc.Run(b, comp)
		Expect(err).NotTo(HaveOccurred())
		Expect(unitsOf(alloc, b)).To(Equal([]int{3, 4}))
		Expect(alloc.State()).To(Equal(StateFull))
	})

	It("should place units without interactions on the lowest free unit", func() {
		alloc := MakeBuilder().WithDevice(mustLine(5)).Build("Allocator")
		t := task.MustNew("T", "T", 3, []task.Op{
			{Kind: "x", Units: []int{0}}, cx(1, 2),
		})

		_, _, err := alloc.Run(t, nil)

		Expect(err).NotTo(HaveOccurred())
		Expect(unitsOf(alloc, t)).To(Equal([]int{2, 0, 1}))
	})

	It("should place every component when splitting", func() {
		alloc := MakeBuilder().
			WithDevice(mustLine(6)).
			WithComponentSplit(true).
			Build("Allocator")
		t := task.MustNew("T", "T", 4, []task.Op{
			cx(0, 1), cx(2, 3), cx(2, 3),
		})

		_, _, err := alloc.Run(t, nil)

		Expect(err).NotTo(HaveOccurred())
		Expect(unitsOf(alloc, t)).To(Equal([]int{2, 3, 0, 1}))
	})

	Context("when a task cannot be placed", func() {
		var d *device.Graph

		BeforeEach(func() {
			var err error
			d, err = device.MakeBuilder().
				WithUnit(0, 1).WithUnit(1, 1).WithUnit(2, 1).
				WithUnit(3, 1).WithUnit(4, 1).
				WithLink(0, 1, 0.99).WithLink(1, 2, 0.99).
				Build("island")
			Expect(err).NotTo(HaveOccurred())
		})

		It("should fail on a fresh allocation", func() {
			alloc := MakeBuilder().WithDevice(d).Build("Allocator")
			t := task.MustNew("T", "T", 4, []task.Op{cx(0, 1), cx(2, 3)})

			_, floaded, err := alloc.Run(t, nil)

			var placeErr *errs.PlacementError
			Expect(errors.As(err, &placeErr)).To(BeTrue())
			Expect(floaded).To(BeFalse())
			Expect(alloc.State()).To(Equal(StateEmpty))
		})

		It("should overflow and roll back on a later call", func() {
			rules := crosstalk.NewRules()
			rules.Add(device.MakeLinkKey(1, 2), device.MakeLinkKey(0, 1), 2)

			alloc := MakeBuilder().
				WithDevice(d).
				WithCrosstalkRules(rules).
				Build("Allocator")

			single := task.MustNew("S", "S", 1, nil)
			comp, _, err := alloc.Run(single, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(unitsOf(alloc, single)).To(Equal([]int{0}))

			t := task.MustNew("T", "T", 4, []task.Op{cx(0, 1), cx(0, 1), cx(2, 3)})
			_, floaded, err := alloc.Run(t, comp)

			Expect(err).NotTo(HaveOccurred())
			Expect(floaded).To(BeTrue())
			Expect(alloc.Overflow()).To(BeIdenticalTo(t))
			Expect(alloc.Available()).To(Equal([]int{1, 2, 3, 4}))
			Expect(alloc.Assignment().Len()).To(Equal(1))
			Expect(alloc.Model().Consumed(device.MakeLinkKey(1, 2))).To(BeFalse())
			Expect(alloc.Model().Reliability(device.MakeLinkKey(0, 1))).To(Equal(0.99))
		})

		It("should report tasks larger than the device", func() {
			alloc := MakeBuilder().WithDevice(d).Build("Allocator")
			t := task.MustNew("T", "T", 6, nil)

			_, _, err := alloc.Run(t, nil)

			var capErr *errs.CapacityError
			Expect(errors.As(err, &capErr)).To(BeTrue())
		})
	})

	It("should keep assignments injective and within capacity", func() {
		d, err := device.Grid("grid", 4, 4, 0.97, 0.98)
		Expect(err).NotTo(HaveOccurred())

		rng := rand.New(rand.NewSource(11))

		for round := 0; round < 30; round++ {
			alloc := MakeBuilder().
				WithDevice(d).
				WithExclusionHops(rng.Intn(2)).
				Build("Allocator")

			var comp *task.Composite
			for i := 0; alloc.State() != StateFull && i < 10; i++ {
				t := randomTask(rng, i)

				next, _, err := alloc.Run(t, comp)
				if err != nil {
					break
				}

				comp = next
			}

			assignment := alloc.Assignment()
			seen := map[int]bool{}
			for _, p := range assignment.Placements() {
				Expect(seen).NotTo(HaveKey(p.Physical))
				seen[p.Physical] = true
			}

			Expect(assignment.Len()).To(BeNumerically("<=", d.NumUnits()))
			Expect(assignment.Len() + len(alloc.Available())).To(
				BeNumerically("<=", d.NumUnits()))
		}
	})
})

func randomTask(rng *rand.Rand, i int) *task.Task {
	n := 1 + rng.Intn(5)
	ops := []task.Op{}

	for k := 0; k < rng.Intn(8) && n > 1; k++ {
		a := rng.Intn(n)
		b := (a + 1 + rng.Intn(n-1)) % n
		ops = append(ops, cx(a, b))
	}

	return task.MustNew(string(rune('a'+i)), "random", n, ops)
}
