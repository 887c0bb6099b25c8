package compose

import (
	"github.com/sarchlab/multiq/cost"
	"github.com/sarchlab/multiq/task"
)

// Knapsack selects the subset of the queue with the highest total value that
// fits in the device. Each task is valued on its own.
type Knapsack struct {
	composerBase

	valueFunc cost.Function
}

// Compose emits the next batch.
func (c *Knapsack) Compose() (Batch, bool, error) {
	if len(c.queue) == 0 {
		return Batch{}, false, nil
	}

	weights := make([]int, len(c.queue))
	values := make([]float64, len(c.queue))

	for i, t := range c.queue {
		v, err := c.valueFunc.Cost([]*task.Task{t})
		if err != nil {
			return Batch{}, false, err
		}

		weights[i] = t.NumUnits()
		values[i] = v
	}

	chosen, value := SolveKnapsack(weights, values, c.capacity)
	if len(chosen) == 0 {
		return c.emit(c, c.single()), true, nil
	}

	b := Batch{
		Tasks:    c.removeIndices(chosen),
		Cost:     value,
		Accepted: true,
	}

	return c.emit(c, b), true, nil
}

// SolveKnapsack solves the 0/1 knapsack problem. It returns the chosen item
// indices in ascending order and their total value.
func SolveKnapsack(
	weights []int,
	values []float64,
	capacity int,
) ([]int, float64) {
	if len(weights) != len(values) {
		panic("weights and values must have the same length")
	}

	n := len(weights)
	width := capacity + 1

	// took[i+1][w] records whether item i is in the best selection of the
	// first i+1 items within capacity w.
	dp := make([][]float64, n+1)
	took := make([][]bool, n+1)

	for i := range dp {
		dp[i] = make([]float64, width)
		took[i] = make([]bool, width)
	}

	for i := 0; i < n; i++ {
		for w := 0; w < width; w++ {
			dp[i+1][w] = dp[i][w]

			if weights[i] < 0 || w < weights[i] {
				continue
			}

			take := dp[i][w-weights[i]] + values[i]
			if take > dp[i+1][w] {
				dp[i+1][w] = take
				took[i+1][w] = true
			}
		}
	}

	chosen := []int{}
	cur := width - 1

	for i := n - 1; i >= 0; i-- {
		if took[i+1][cur] {
			chosen = append(chosen, i)
			cur -= weights[i]
		}
	}

	for l, r := 0, len(chosen)-1; l < r; l, r = l+1, r-1 {
		chosen[l], chosen[r] = chosen[r], chosen[l]
	}

	return chosen, dp[n][width-1]
}
