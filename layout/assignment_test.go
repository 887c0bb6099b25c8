package layout

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Assignment", func() {
	var a *Assignment

	BeforeEach(func() {
		a = NewAssignment()
		a.Assign("t1", 0, 4)
		a.Assign("t1", 1, 2)
	})

	It("should look up both ways", func() {
		p, ok := a.Lookup("t1", 1)
		Expect(ok).To(BeTrue())
		Expect(p).To(Equal(2))

		owner, ok := a.Owner(4)
		Expect(ok).To(BeTrue())
		Expect(owner).To(Equal(VirtualUnit{TaskID: "t1", Virtual: 0}))

		_, ok = a.Owner(3)
		Expect(ok).To(BeFalse())
	})

	It("should panic when a physical unit is reused", func() {
		Expect(func() { a.Assign("t2", 0, 4) }).To(Panic())
	})

	It("should panic when a virtual unit is reassigned", func() {
		Expect(func() { a.Assign("t1", 0, 7) }).To(Panic())
	})

	It("should list placements in order", func() {
		Expect(a.Placements()).To(Equal([]Placement{
			{VirtualUnit: VirtualUnit{TaskID: "t1", Virtual: 0}, Physical: 4},
			{VirtualUnit: VirtualUnit{TaskID: "t1", Virtual: 1}, Physical: 2},
		}))
		Expect(a.PhysicalUnits()).To(Equal([]int{2, 4}))

		units, ok := a.TaskUnits("t1", 2)
		Expect(ok).To(BeTrue())
		Expect(units).To(Equal([]int{4, 2}))

		_, ok = a.TaskUnits("t1", 3)
		Expect(ok).To(BeFalse())
	})

	It("should copy independently", func() {
		c := a.Copy()
		c.Assign("t2", 0, 0)

		Expect(a.Len()).To(Equal(2))
		Expect(c.Len()).To(Equal(3))
	})
})
