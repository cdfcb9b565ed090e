package main

import (
	"context"
	"fmt"
	"log"
	"math"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/delaneyj/tendril/reactive"
	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v3"
)

const (
	repeatsKey = "repeats"
	onlyKey    = "only"
)

type benchmarkTestConfig struct {
	name           string  // friendly name for the test, should be unique
	width          int     // width of dependency graph to construct
	totalLayers    int     // depth of dependency graph to construct
	staticFraction float64 // fraction of nodes that always read all their sources
	nSources       int     // number of sources each node reads
	readFraction   float64 // fraction of leaves read after each write
	iterations     int64   // number of writes per run
}

var perfTestCfgs = []benchmarkTestConfig{
	{
		name:           "simple component",
		width:          10,
		staticFraction: 1,
		nSources:       2,
		totalLayers:    5,
		readFraction:   0.2,
		iterations:     600000,
	},
	{
		name:           "dynamic component",
		width:          10,
		totalLayers:    10,
		staticFraction: 0.75,
		nSources:       6,
		readFraction:   0.2,
		iterations:     15000,
	},
	{
		name:           "large web app",
		width:          1000,
		totalLayers:    12,
		staticFraction: 0.95,
		nSources:       4,
		readFraction:   1,
		iterations:     7000,
	},
	{
		name:           "wide dense",
		width:          1000,
		totalLayers:    5,
		staticFraction: 1,
		nSources:       25,
		readFraction:   1,
		iterations:     3000,
	},
	{
		name:           "deep",
		width:          5,
		totalLayers:    500,
		staticFraction: 1,
		nSources:       3,
		readFraction:   1,
		iterations:     500,
	},
	{
		name:           "very dynamic",
		width:          100,
		totalLayers:    15,
		staticFraction: 0.5,
		nSources:       6,
		readFraction:   1,
		iterations:     2000,
	},
}

func main() {
	cmd := &cli.Command{
		Name:  "benchmark_graph",
		Usage: "Run layered dynamic graph workloads and report update throughput",
		Flags: []cli.Flag{
			&cli.UintFlag{
				Name:  repeatsKey,
				Usage: "Timed runs per workload, the best one is reported",
				Value: 5,
			},
			&cli.StringFlag{
				Name:  onlyKey,
				Usage: "Run only workloads whose name contains this text",
			},
		},
		Action: run,
	}
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

type results struct {
	sum      int
	count    int64
	duration time.Duration
}

func run(ctx context.Context, cmd *cli.Command) error {
	log.Print("Starting graph benchmark, please wait...")
	defer log.Print("Finished graph benchmark")

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{
		"size", "nSources", "read%", "static%",
		"nTimes", "test", "time", "updates", "updateRate", "title",
	})

	testRepeats := int(cmd.Uint(repeatsKey))
	only := cmd.String(onlyKey)
	for _, cfg := range perfTestCfgs {
		if only != "" && !strings.Contains(cfg.name, only) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		log.Printf("Running '%s' config", cfg.name)
		counter := new(int64)
		rt := reactive.NewRuntime()
		graph := makeGraph(rt, &cfg, counter)

		runOnce := func() (int, error) {
			return runGraph(rt, graph, cfg.iterations, cfg.readFraction)
		}
		// warm up
		if _, err := runOnce(); err != nil {
			return fmt.Errorf("%s: %w", cfg.name, err)
		}

		best := &results{duration: time.Hour}
		for i := 0; i < testRepeats; i++ {
			log.Printf("Running '%s' config, iteration %d/%d %d%%", cfg.name, i+1, testRepeats, (i+1)*100/testRepeats)
			*counter = 0
			start := time.Now()
			sum, err := runOnce()
			if err != nil {
				return fmt.Errorf("%s: %w", cfg.name, err)
			}
			duration := time.Since(start)

			if duration < best.duration {
				best.duration = duration
				best.sum = sum
				best.count = *counter
			}
		}

		updateRate := float64(best.count) / (float64(best.duration) / float64(time.Millisecond))
		table.Append([]string{
			fmt.Sprintf("%dx%d", cfg.width, cfg.totalLayers),
			fmt.Sprint(cfg.nSources),
			fmt.Sprint(cfg.readFraction),
			fmt.Sprint(cfg.staticFraction),
			humanize.Comma(cfg.iterations),
			cfg.name,
			fmt.Sprint(best.duration),
			humanize.Comma(best.count),
			humanize.Comma(int64(updateRate)),
			title(&cfg),
		})
	}
	table.Render()
	return nil
}

func title(cfg *benchmarkTestConfig) string {
	sb := strings.Builder{}
	sb.WriteString(fmt.Sprintf("%dx%d %d sources", cfg.width, cfg.totalLayers, cfg.nSources))
	if cfg.staticFraction < 1 {
		sb.WriteString(" dynamic")
	}
	if cfg.readFraction < 1 {
		sb.WriteString(fmt.Sprintf(" read %0.2f%%", 100*cfg.readFraction))
	}
	return sb.String()
}

type graph struct {
	sources []*reactive.Signal[int]
	layers  [][]reactive.Getter[int]
}

func makeGraph(rt *reactive.Runtime, cfg *benchmarkTestConfig, counter *int64) *graph {
	g := &graph{sources: make([]*reactive.Signal[int], cfg.width)}
	prevRow := make([]reactive.Getter[int], cfg.width)
	for i := range g.sources {
		g.sources[i] = reactive.NewSignal(rt, i)
		prevRow[i] = g.sources[i].Get
	}

	random := rand.New(rand.NewSource(0))
	for l := 0; l < cfg.totalLayers-1; l++ {
		row := makeRow(rt, prevRow, cfg, counter, random)
		g.layers = append(g.layers, row)
		prevRow = row
	}
	return g
}

func makeRow(rt *reactive.Runtime, sources []reactive.Getter[int], cfg *benchmarkTestConfig, counter *int64, random *rand.Rand) []reactive.Getter[int] {
	row := make([]reactive.Getter[int], len(sources))
	for myDex := range sources {
		mySources := make([]reactive.Getter[int], 0, cfg.nSources)
		for sourceDex := 0; sourceDex < cfg.nSources; sourceDex++ {
			mySources = append(mySources, sources[(myDex+sourceDex)%len(sources)])
		}

		if random.Float64() < cfg.staticFraction {
			row[myDex] = reactive.Memo(rt, func() (int, error) {
				*counter++
				sum := 0
				for _, source := range mySources {
					sum += source()
				}
				return sum, nil
			})
			continue
		}

		first, tail := mySources[0], mySources[1:]
		row[myDex] = reactive.Memo(rt, func() (int, error) {
			*counter++
			sum := first()
			shouldDrop := sum&0x1 > 0
			dropDex := 0
			if len(tail) > 0 {
				dropDex = sum % len(tail)
			}
			for i, source := range tail {
				if shouldDrop && i == dropDex {
					continue
				}
				sum += source()
			}
			return sum, nil
		})
	}
	return row
}

// runGraph writes one source per iteration, lets the flush settle and reads
// some or all of the leaves. It returns the sum of the leaves read at the end.
func runGraph(rt *reactive.Runtime, g *graph, iterations int64, readFraction float64) (int, error) {
	random := rand.New(rand.NewSource(0))
	var readLeaves []reactive.Getter[int]
	if len(g.layers) > 0 {
		last := g.layers[len(g.layers)-1]
		skipCount := int(math.Round(float64(len(last)) * (1 - readFraction)))
		readLeaves = removeElems(last, skipCount, random)
	} else {
		for _, s := range g.sources {
			readLeaves = append(readLeaves, s.Get)
		}
	}

	for i := 0; i < int(iterations); i++ {
		sourceDex := i % len(g.sources)
		g.sources[sourceDex].Set(i + sourceDex)
		if err := rt.Drain(); err != nil {
			return 0, err
		}

		for _, leaf := range readLeaves {
			leaf()
		}
	}

	sum := 0
	for _, leaf := range readLeaves {
		sum += leaf()
	}
	return sum, nil
}

func removeElems[T any](src []T, rmCount int, random *rand.Rand) []T {
	out := make([]T, len(src))
	copy(out, src)
	for i := 0; i < rmCount && len(out) > 0; i++ {
		rmDex := random.Intn(len(out))
		out[rmDex] = out[len(out)-1]
		out = out[:len(out)-1]
	}
	return out
}
