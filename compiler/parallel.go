package compiler

import (
	"context"
	"fmt"

	"github.com/sarchlab/multiq/task"
	"golang.org/x/sync/errgroup"
)

// A Target is a queue of tasks to compile with a compiler of its own.
type Target struct {
	Compiler *Compiler
	Tasks    []*task.Task
}

// CompileAll compiles independent targets in parallel. The programs are
// returned in the order of the targets. The first error cancels the other
// targets.
func CompileAll(ctx context.Context, targets []Target) ([][]Program, error) {
	results := make([][]Program, len(targets))

	g, ctx := errgroup.WithContext(ctx)

	for i, target := range targets {
		i, target := i, target
		g.Go(func() error {
			programs, err := target.Compiler.Compile(ctx, target.Tasks)
			if err != nil {
				return fmt.Errorf("%s: %w", target.Compiler.Name(), err)
			}

			results[i] = programs

			return nil
		})
	}

	err := g.Wait()
	if err != nil {
		return nil, err
	}

	return results, nil
}
