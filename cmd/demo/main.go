package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"slices"
	"strings"

	"github.com/delaneyj/tendril/dom"
	"github.com/delaneyj/tendril/eventloop"
	"github.com/delaneyj/tendril/metrics"
	"github.com/delaneyj/tendril/reactive"
	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v3"
	"golang.org/x/net/html"
)

const (
	stepsKey   = "steps"
	keyedKey   = "keyed"
	verboseKey = "verbose"
)

func main() {
	cmd := &cli.Command{
		Name:  "demo",
		Usage: "Render a reactive list on an event loop and print every frame",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  stepsKey,
				Usage: "Number of list edits to apply",
				Value: 6,
			},
			&cli.BoolFlag{
				Name:  keyedKey,
				Usage: "Reconcile by id attribute instead of by position",
			},
			&cli.BoolFlag{
				Name:  verboseKey,
				Usage: "Log scheduler flushes",
			},
		},
		Action: demo,
	}
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

var theme = reactive.NewInjection("theme", "plain")

// edits cycles through the list operations the reconciler has to handle.
var edits = []func([]string, int) []string{
	func(items []string, step int) []string {
		return append(items, fmt.Sprintf("item %d", step))
	},
	func(items []string, _ int) []string {
		out := slices.Clone(items)
		slices.Reverse(out)
		return out
	},
	func(items []string, _ int) []string {
		if len(items) == 0 {
			return items
		}
		return slices.Clone(items[1:])
	},
	func(items []string, step int) []string {
		out := slices.Clone(items)
		if len(out) > 0 {
			out[len(out)/2] = strings.ToUpper(out[len(out)/2])
		}
		return out
	},
}

func demo(ctx context.Context, cmd *cli.Command) error {
	level := slog.LevelInfo
	if cmd.Bool(verboseKey) {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(metrics.WithRegistry(registry))

	var uncaught []error
	loop := eventloop.New(
		eventloop.WithLogger(logger),
		eventloop.WithUncaught(func(err error) {
			uncaught = append(uncaught, err)
		}),
	)
	runErr := make(chan error, 1)
	go func() {
		runErr <- loop.Run(ctx)
	}()

	var (
		items  *reactive.Signal[[]string]
		frames []string
	)
	err := loop.Do(ctx, func() {
		rt := reactive.NewRuntime(
			reactive.WithHost(loop),
			reactive.WithHooks(collector),
			reactive.WithLogger(logger),
		)
		items = reactive.NewSignal(rt, []string{"milk", "eggs"})

		ul := dom.Element("ul", nil)
		anchor := dom.Anchor(ul)

		view := func(f *dom.Fragment) error {
			class := reactive.Inject(rt, theme)
			for _, item := range items.Get() {
				f.Element("li", []html.Attribute{
					dom.Attr("id", strings.ToLower(item)),
					dom.Attr("class", class),
				}, dom.Text(item))
			}
			return nil
		}

		reactive.Provide(rt, theme, "fancy", func() error {
			if cmd.Bool(keyedKey) {
				dom.RenderKeyed(rt, anchor, dom.AttrKey("id"), view)
			} else {
				dom.Render(rt, anchor, view)
			}
			return nil
		})

		reactive.Effect(rt, func() error {
			items.Get()
			frame, err := dom.OuterHTML(ul)
			if err != nil {
				return fmt.Errorf("render frame: %w", err)
			}
			frames = append(frames, frame)
			return nil
		})
	})
	if err != nil {
		return err
	}

	steps := int(cmd.Int(stepsKey))
	for step := 1; step <= steps; step++ {
		edit := edits[(step-1)%len(edits)]
		if err := loop.Do(ctx, func() {
			items.Update(func(prev []string) []string {
				return edit(prev, step)
			})
		}); err != nil {
			return err
		}
	}

	var out []string
	var errs []error
	if err := loop.Do(ctx, func() {
		out = slices.Clone(frames)
		errs = slices.Clone(uncaught)
	}); err != nil {
		return err
	}
	loop.Stop()
	if err := <-runErr; err != nil {
		return err
	}

	for i, frame := range out {
		fmt.Printf("frame %d: %s\n", i, frame)
	}
	if err := printMetrics(registry); err != nil {
		return err
	}
	return errors.Join(errs...)
}

func printMetrics(registry *prometheus.Registry) error {
	families, err := registry.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"metric", "labels", "value"})
	for _, family := range families {
		for _, m := range family.GetMetric() {
			var labels []string
			for _, l := range m.GetLabel() {
				labels = append(labels, l.GetName()+"="+l.GetValue())
			}

			var value string
			switch {
			case m.GetCounter() != nil:
				value = humanize.Comma(int64(m.GetCounter().GetValue()))
			case m.GetHistogram() != nil:
				h := m.GetHistogram()
				value = fmt.Sprintf("%s samples, sum %s", humanize.Comma(int64(h.GetSampleCount())), humanize.Ftoa(h.GetSampleSum()))
			default:
				continue
			}
			table.Append([]string{family.GetName(), strings.Join(labels, ","), value})
		}
	}
	table.Render()
	return nil
}
