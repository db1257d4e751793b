package main

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"

	"github.com/oisee/veccol/pkg/interp"
)

// benchTask is one expression to repeatedly evaluate against a shared
// environment, the bench equivalent of pkg/search/worker.go's
// SearchTask.
type benchTask struct {
	Expr string
}

// benchPool distributes benchTasks across goroutines and tallies
// throughput, directly modeled on pkg/search/worker.go's WorkerPool:
// a buffered task channel, a fixed goroutine count draining it, and a
// ticking progress reporter running alongside.
type benchPool struct {
	NumWorkers int
	Iterations int
	env        *interp.Env

	evaluated atomic.Int64
	failed    atomic.Int64
}

func newBenchPool(numWorkers, iterations int, env *interp.Env) *benchPool {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	return &benchPool{NumWorkers: numWorkers, Iterations: iterations, env: env}
}

func (bp *benchPool) run(tasks []benchTask, verbose bool) time.Duration {
	ch := make(chan benchTask, len(tasks))
	for _, t := range tasks {
		ch <- t
	}
	close(ch)

	done := make(chan struct{})
	start := time.Now()
	if verbose {
		go func() {
			ticker := time.NewTicker(2 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-done:
					return
				case <-ticker.C:
					n := bp.evaluated.Load()
					elapsed := time.Since(start)
					fmt.Printf("  [%s] %d evals | %.1fK evals/s\n",
						elapsed.Round(time.Second), n, float64(n)/elapsed.Seconds()/1e3)
				}
			}
		}()
	}

	var wg sync.WaitGroup
	for i := 0; i < bp.NumWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for task := range ch {
				bp.runTask(task)
			}
		}()
	}
	wg.Wait()
	close(done)
	return time.Since(start)
}

func (bp *benchPool) runTask(task benchTask) {
	for i := 0; i < bp.Iterations; i++ {
		if _, err := bp.env.Eval(task.Expr); err != nil {
			bp.failed.Add(1)
			continue
		}
		bp.evaluated.Add(1)
	}
}

func newBenchCmd() *cobra.Command {
	var cols []string
	var workers int
	var iterations int
	var verbose bool

	cmd := &cobra.Command{
		Use:   "bench [expr...]",
		Short: "Benchmark evaluation throughput across one or more expressions",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env := interp.New(nil)
			for _, spec := range cols {
				name, col, err := parseColumnSpec(spec)
				if err != nil {
					return err
				}
				env.Register(name, col)
			}

			pool := newBenchPool(workers, iterations, env)
			tasks := make([]benchTask, len(args))
			for i, expr := range args {
				tasks[i] = benchTask{Expr: expr}
			}

			elapsed := pool.run(tasks, verbose)
			evaluated := pool.evaluated.Load()
			failed := pool.failed.Load()
			rate := float64(evaluated) / elapsed.Seconds()

			fmt.Printf("%d expressions x %d iterations across %d workers\n", len(args), iterations, pool.NumWorkers)
			fmt.Printf("%d evaluated, %d failed, %.2fs elapsed, %.1fK evals/s\n",
				evaluated, failed, elapsed.Seconds(), rate/1e3)
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&cols, "col", nil, `column literal "name:type=v1,v2,..." (repeatable)`)
	cmd.Flags().IntVar(&workers, "workers", 0, "Number of workers (0 = NumCPU)")
	cmd.Flags().IntVar(&iterations, "iterations", 1000, "Evaluations per expression per worker pass")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Print periodic throughput")
	return cmd
}
