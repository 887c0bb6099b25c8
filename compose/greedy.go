package compose

// Greedy takes tasks from the front of the queue until the next one does not
// fit.
type Greedy struct {
	composerBase
}

// Compose emits the next batch.
func (c *Greedy) Compose() (Batch, bool, error) {
	if len(c.queue) == 0 {
		return Batch{}, false, nil
	}

	b := Batch{Accepted: true}
	units := 0

	for len(c.queue) > 0 && units+c.queue[0].NumUnits() <= c.capacity {
		t := c.popFront()
		units += t.NumUnits()
		b.Tasks = append(b.Tasks, t)
	}

	return c.emit(c, b), true, nil
}
