package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"runtime/pprof"
	"time"

	"github.com/delaneyj/tendril/reactive"
	"github.com/jamiealquiza/tachymeter"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/urfave/cli/v3"
)

const (
	itersKey      = "iters"
	maxSizeKey    = "max"
	cpuProfileKey = "cpuprofile"
)

func main() {
	cmd := &cli.Command{
		Name:  "benchmark",
		Usage: "Measure write to effect latency through chains of memos",
		Flags: []cli.Flag{
			&cli.UintFlag{
				Name:  itersKey,
				Usage: "Writes timed per graph shape",
				Value: 100,
			},
			&cli.UintFlag{
				Name:  maxSizeKey,
				Usage: "Largest width and height to build",
				Value: 1_000,
			},
			&cli.StringFlag{
				Name:  cpuProfileKey,
				Usage: "Write a CPU profile to this file",
			},
		},
		Action: benchmark,
	}
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func benchmark(ctx context.Context, cmd *cli.Command) error {
	if path := cmd.String(cpuProfileKey); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create profile: %w", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			return fmt.Errorf("start profile: %w", err)
		}
		defer pprof.StopCPUProfile()
	}

	iters := int(cmd.Uint(itersKey))
	var sizes []int
	for size := 1; size <= int(cmd.Uint(maxSizeKey)); size *= 10 {
		sizes = append(sizes, size)
	}
	if len(sizes) == 0 {
		return fmt.Errorf("--%s must be at least 1", maxSizeKey)
	}

	log.Printf("warming up")
	if err := propagate(sizes[:1], sizes[:1], iters, false); err != nil {
		return err
	}
	return propagate(sizes, sizes, iters, true)
}

// propagate builds w chains of h memos hanging off one signal, each ending in
// an effect, and times a write until the flush it causes has finished.
func propagate(ww, hh []int, iters int, shouldRender bool) error {
	tbl := table.NewWriter()
	tbl.SetTitle("tendril")
	tbl.SetOutputMirror(os.Stdout)
	tbl.AppendHeader(table.Row{"benchmark", "avg", "min", "p75", "p99", "max"})

	for _, w := range ww {
		for _, h := range hh {
			tach := tachymeter.New(&tachymeter.Config{Size: iters})

			rt := reactive.NewRuntime()
			src := reactive.NewSignal(rt, 1)
			for i := 0; i < w; i++ {
				last := reactive.Getter[int](src.Get)
				for j := 0; j < h; j++ {
					prev := last
					last = reactive.Memo(rt, func() (int, error) {
						return prev() + 1, nil
					})
				}

				reactive.Effect(rt, func() error {
					last()
					return nil
				})
			}

			for i := 0; i < iters; i++ {
				start := time.Now()
				src.Set(src.Peek() + 1)
				if err := rt.Drain(); err != nil {
					return fmt.Errorf("propagate %d * %d: %w", w, h, err)
				}
				tach.AddTime(time.Since(start))
			}

			calc := tach.Calc()
			tbl.AppendRows([]table.Row{
				{
					fmt.Sprintf("propagate: %d * %d", w, h),
					calc.Time.Avg,
					calc.Time.Min,
					calc.Time.P75,
					calc.Time.P99,
					calc.Time.Max,
				},
			})
		}
	}

	if shouldRender {
		tbl.Render()
	}
	return nil
}
