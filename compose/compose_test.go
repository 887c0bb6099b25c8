package compose

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/multiq/cost"
	"github.com/sarchlab/multiq/errs"
	"github.com/sarchlab/multiq/hooking"
	"github.com/sarchlab/multiq/task"
	"go.uber.org/mock/gomock"
)

func chain(id string, units, weight int) *task.Task {
	ops := []task.Op{}
	for i := 0; i < weight; i++ {
		ops = append(ops, task.Op{Kind: "cx", Units: []int{0, 1}})
	}

	return task.MustNew(id, id, units, ops)
}

func ids(b Batch) []string {
	return b.TaskIDs()
}

func remaining(c interface{ Compose() (Batch, bool, error) }) [][]string {
	out := [][]string{}

	for {
		b, ok, err := c.Compose()
		Expect(err).NotTo(HaveOccurred())

		if !ok {
			return out
		}

		out = append(out, ids(b))
	}
}

var _ = Describe("Exhaustive", func() {
	It("should group tasks that fit under the threshold", func() {
		a := chain("A", 2, 3)
		b := chain("B", 2, 1)

		c, err := MakeBuilder().
			WithCapacity(5).
			WithThreshold(10).
			WithTasks([]*task.Task{a, b}).
			BuildExhaustive("Composer")
		Expect(err).NotTo(HaveOccurred())

		batch, ok, err := c.Compose()

		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeTrue())
		Expect(ids(batch)).To(Equal([]string{"A", "B"}))
		Expect(batch.Cost).To(Equal(8.0))
		Expect(batch.Accepted).To(BeTrue())
		Expect(c.Len()).To(BeZero())

		_, ok, err = c.Compose()
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeFalse())
	})

	It("should drop the task that crosses the threshold", func() {
		c, err := MakeBuilder().
			WithCapacity(10).
			WithThreshold(10).
			WithTasks([]*task.Task{
				chain("A", 2, 1), chain("B", 2, 1), chain("C", 2, 4),
			}).
			BuildExhaustive("Composer")
		Expect(err).NotTo(HaveOccurred())

		Expect(remaining(c)).To(Equal([][]string{{"A", "B"}, {"C"}}))
	})

	It("should prefer the cheaper group among equal sizes", func() {
		c, err := MakeBuilder().
			WithCapacity(5).
			WithThreshold(100).
			WithTasks([]*task.Task{
				chain("A", 2, 1), chain("B", 2, 5), chain("C", 2, 2),
			}).
			BuildExhaustive("Composer")
		Expect(err).NotTo(HaveOccurred())

		Expect(remaining(c)).To(Equal([][]string{{"A", "C"}, {"B"}}))
	})

	It("should drop the task that fills the device", func() {
		c, err := MakeBuilder().
			WithCapacity(4).
			WithThreshold(100).
			WithTasks([]*task.Task{chain("A", 2, 1), chain("B", 2, 1)}).
			BuildExhaustive("Composer")
		Expect(err).NotTo(HaveOccurred())

		batch, ok, err := c.Compose()

		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeTrue())
		Expect(ids(batch)).To(Equal([]string{"A"}))
		Expect(batch.Cost).To(BeZero())
		Expect(batch.Accepted).To(BeFalse())
		Expect(remaining(c)).To(Equal([][]string{{"B"}}))
	})

	It("should keep the whole group when the queue runs out", func() {
		c, err := MakeBuilder().
			WithCapacity(5).
			WithThreshold(100).
			WithTasks([]*task.Task{chain("A", 2, 1), chain("B", 2, 1)}).
			BuildExhaustive("Composer")
		Expect(err).NotTo(HaveOccurred())

		Expect(remaining(c)).To(Equal([][]string{{"A", "B"}}))
	})

	It("should fall back to a single task with zero cost", func() {
		c, err := MakeBuilder().
			WithCapacity(5).
			WithThreshold(100).
			WithTasks([]*task.Task{chain("A", 3, 1), chain("B", 3, 1)}).
			BuildExhaustive("Composer")
		Expect(err).NotTo(HaveOccurred())

		batch, ok, err := c.Compose()

		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeTrue())
		Expect(ids(batch)).To(Equal([]string{"A"}))
		Expect(batch.Cost).To(BeZero())
		Expect(batch.Accepted).To(BeFalse())
		Expect(c.Len()).To(Equal(1))
	})

	It("should only search the queue window", func() {
		c, err := MakeBuilder().
			WithCapacity(10).
			WithThreshold(100).
			WithMaxQueueWindow(2).
			WithTasks([]*task.Task{
				chain("A", 2, 1), chain("B", 2, 1), chain("C", 2, 1),
			}).
			BuildExhaustive("Composer")
		Expect(err).NotTo(HaveOccurred())

		Expect(remaining(c)).To(Equal([][]string{{"A", "B"}, {"C"}}))
	})

	Context("with mocked collaborators", func() {
		var (
			mockCtrl *gomock.Controller
			costFunc *MockFunction
		)

		BeforeEach(func() {
			mockCtrl = gomock.NewController(GinkgoT())
			costFunc = NewMockFunction(mockCtrl)
		})

		AfterEach(func() {
			mockCtrl.Finish()
		})

		It("should report cost function errors", func() {
			costFunc.EXPECT().Cost(gomock.Any()).
				Return(0.0, errors.New("bad table"))

			c, err := MakeBuilder().
				WithCapacity(5).
				WithCostFunction(costFunc).
				WithTasks([]*task.Task{chain("A", 2, 1), chain("B", 2, 1)}).
				BuildExhaustive("Composer")
			Expect(err).NotTo(HaveOccurred())

			_, _, err = c.Compose()

			Expect(err).To(MatchError("bad table"))
			Expect(c.Len()).To(Equal(2))
		})

		It("should invoke hooks with the batch", func() {
			costFunc.EXPECT().Cost(gomock.Any()).Return(1.0, nil).AnyTimes()
			hook := NewMockHook(mockCtrl)

			c, err := MakeBuilder().
				WithCapacity(5).
				WithCostFunction(costFunc).
				WithTasks([]*task.Task{chain("A", 2, 1), chain("B", 2, 1)}).
				BuildExhaustive("Composer")
			Expect(err).NotTo(HaveOccurred())
			c.AcceptHook(hook)

			hook.EXPECT().Func(gomock.Any()).Do(func(ctx hooking.HookCtx) {
				Expect(ctx.Pos).To(BeIdenticalTo(HookPosBatchComposed))
				Expect(ctx.Item.(Batch).TaskIDs()).To(Equal([]string{"A", "B"}))
				Expect(ctx.Item.(Batch).ID).To(Equal("1"))
			})

			_, _, err = c.Compose()
			Expect(err).NotTo(HaveOccurred())
		})
	})
})

var _ = Describe("Knapsack", func() {
	It("should pick the most valuable subset", func() {
		chosen, value := SolveKnapsack([]int{2, 3, 4}, []float64{3, 4, 5}, 5)

		Expect(chosen).To(Equal([]int{0, 1}))
		Expect(value).To(Equal(7.0))
	})

	It("should return nothing if nothing fits", func() {
		chosen, value := SolveKnapsack([]int{6}, []float64{3}, 5)

		Expect(chosen).To(BeEmpty())
		Expect(value).To(BeZero())
	})

	It("should match brute force", func() {
		rng := newRand(7)

		for round := 0; round < 200; round++ {
			n := 1 + rng.Intn(7)
			capacity := 1 + rng.Intn(12)
			weights := make([]int, n)
			values := make([]float64, n)

			for i := range weights {
				weights[i] = 1 + rng.Intn(6)
				values[i] = float64(rng.Intn(20))
			}

			chosen, value := SolveKnapsack(weights, values, capacity)

			w, v := 0, 0.0
			for _, i := range chosen {
				w += weights[i]
				v += values[i]
			}

			Expect(w).To(BeNumerically("<=", capacity))
			Expect(v).To(Equal(value))
			Expect(value).To(Equal(bruteForce(weights, values, capacity)))
		}
	})

	It("should remove the chosen tasks and keep the rest in order", func() {
		values := map[string]float64{"A": 3, "B": 4, "C": 5, "D": 1}
		valueFunc := cost.FunctionFunc(func(ts []*task.Task) (float64, error) {
			return values[ts[0].ID], nil
		})

		c, err := MakeBuilder().
			WithCapacity(5).
			WithValueFunction(valueFunc).
			WithTasks([]*task.Task{
				chain("A", 2, 1), chain("B", 3, 1),
				chain("C", 4, 1), chain("D", 5, 1),
			}).
			BuildKnapsack("Composer")
		Expect(err).NotTo(HaveOccurred())

		Expect(remaining(c)).To(Equal([][]string{{"A", "B"}, {"C"}, {"D"}}))
	})

	It("should use success estimates by default", func() {
		c, err := MakeBuilder().
			WithCapacity(4).
			WithTasks([]*task.Task{
				chain("A", 2, 1), chain("B", 2, 50), chain("C", 2, 2),
			}).
			BuildKnapsack("Composer")
		Expect(err).NotTo(HaveOccurred())

		batch, _, err := c.Compose()

		Expect(err).NotTo(HaveOccurred())
		Expect(ids(batch)).To(Equal([]string{"A", "C"}))
	})
})

var _ = Describe("Greedy", func() {
	It("should take tasks from the front until one overflows", func() {
		c, err := MakeBuilder().
			WithCapacity(5).
			WithTasks([]*task.Task{
				chain("A", 2, 1), chain("B", 2, 1),
				chain("C", 2, 1), chain("D", 3, 1),
			}).
			BuildGreedy("Composer")
		Expect(err).NotTo(HaveOccurred())

		Expect(remaining(c)).To(Equal([][]string{{"A", "B"}, {"C", "D"}}))
	})
})

var _ = Describe("Builder", func() {
	It("should reject tasks larger than the device", func() {
		_, err := MakeBuilder().
			WithCapacity(2).
			WithTasks([]*task.Task{chain("A", 3, 1)}).
			Build(KindGreedy, "Composer")

		var capErr *errs.CapacityError
		Expect(errors.As(err, &capErr)).To(BeTrue())
		Expect(capErr.TaskID).To(Equal("A"))
	})

	It("should reject unknown kinds", func() {
		_, err := MakeBuilder().WithCapacity(2).Build("random", "Composer")

		Expect(err).To(HaveOccurred())
	})

	It("should build every kind", func() {
		for _, k := range []Kind{KindExhaustive, KindKnapsack, KindGreedy} {
			c, err := MakeBuilder().WithCapacity(2).Build(k, "Composer")

			Expect(err).NotTo(HaveOccurred())
			Expect(c.Name()).To(Equal("Composer"))
		}
	})
})
