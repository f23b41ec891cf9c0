package main

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/df07/go-bvh/pkg/bench"
	"github.com/df07/go-bvh/pkg/bvh"
	"github.com/df07/go-bvh/pkg/core"
	"github.com/df07/go-bvh/pkg/scene"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"
)

// maxReportedMismatches bounds the mismatches logged by the verify command
const maxReportedMismatches = 10

// sceneConfig collects the scene and accelerator flags shared by every command
type sceneConfig struct {
	Scene    string
	Count    int
	Seed     int64
	Split    string
	MaxPrims int
	Workers  int
}

func sceneConfigFromContext(ctx *cli.Context) sceneConfig {
	return sceneConfig{
		Scene:    ctx.String("scene"),
		Count:    ctx.Int("count"),
		Seed:     ctx.Int64("seed"),
		Split:    ctx.String("split"),
		MaxPrims: ctx.Int("max-prims"),
		Workers:  ctx.Int("workers"),
	}
}

// splitMethods returns the methods to build with. "all" selects every method; an
// empty value keeps the scene's own choice.
func (cfg sceneConfig) splitMethods(fromScene bvh.SplitMethod) ([]bvh.SplitMethod, error) {
	switch strings.ToLower(cfg.Split) {
	case "":
		return []bvh.SplitMethod{fromScene}, nil
	case "all":
		return []bvh.SplitMethod{bvh.SAH, bvh.HLBVH, bvh.Middle, bvh.EqualCounts}, nil
	}
	method, err := bvh.ParseSplitMethod(cfg.Split)
	if err != nil {
		return nil, err
	}
	return []bvh.SplitMethod{method}, nil
}

// loadScenes resolves the scene once and builds it with every selected split method
func loadScenes(cfg sceneConfig) ([]*scene.Scene, error) {
	if cfg.Scene == "" {
		return nil, fmt.Errorf("missing scene")
	}
	desc, err := scene.Resolve(cfg.Scene, cfg.Count, cfg.Seed)
	if err != nil {
		return nil, err
	}

	opts := desc.Options()
	if cfg.MaxPrims > 0 {
		opts.MaxPrimsInNode = cfg.MaxPrims
	}
	if cfg.Workers > 0 {
		opts.Workers = cfg.Workers
	}
	methods, err := cfg.splitMethods(opts.SplitMethod)
	if err != nil {
		return nil, err
	}

	prims, err := desc.CreatePrimitives()
	if err != nil {
		return nil, fmt.Errorf("failed to create scene %q: %w", desc.Name, err)
	}
	logger.Infof("scene %q: %d primitives", desc.Name, len(prims))

	scenes := make([]*scene.Scene, 0, len(methods))
	for _, method := range methods {
		opts.SplitMethod = method
		scenes = append(scenes, scene.New(desc.Name, prims, opts))
	}
	return scenes, nil
}

// BuildScene builds the selected scene and prints tree statistics.
func BuildScene(ctx *cli.Context) error {
	setupLogging(ctx)

	scenes, err := loadScenes(sceneConfigFromContext(ctx))
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	table := newTable(&buf, []string{"Split", "Prims", "Nodes", "Leaves", "Max depth", "Avg depth", "Max leaf", "Treelets", "SAH cost", "Build time"})
	for _, s := range scenes {
		stats := s.Aggregate.Stats()
		table.Append([]string{
			s.Options.SplitMethod.String(),
			fmt.Sprintf("%d", stats.TotalPrimitives),
			fmt.Sprintf("%d", stats.TotalNodes),
			fmt.Sprintf("%d", stats.LeafNodes),
			fmt.Sprintf("%d", stats.MaxDepth),
			fmt.Sprintf("%.1f", stats.AvgDepth),
			fmt.Sprintf("%d", stats.MaxLeafPrimitives),
			fmt.Sprintf("%d", stats.Treelets),
			fmt.Sprintf("%.2f", stats.SAHCost),
			stats.BuildTime.Round(time.Microsecond).String(),
		})
	}
	table.Render()
	logger.Noticef("build statistics for %q\n%s", scenes[0].Name, buf.String())
	return nil
}

// BenchScene traces random rays against the selected scene on a worker pool.
func BenchScene(ctx *cli.Context) error {
	setupLogging(ctx)

	cfg := sceneConfigFromContext(ctx)
	scenes, err := loadScenes(cfg)
	if err != nil {
		return err
	}
	rays := bench.RandomRays(scenes[0].WorldBound(), ctx.Int("rays"), cfg.Seed)

	var buf bytes.Buffer
	table := newTable(&buf, []string{"Split", "Query", "Rays", "Hits", "Workers", "Time", "Mrays/s"})
	for _, s := range scenes {
		for _, anyHit := range []bool{false, true} {
			summary := bench.Run(s, rays, bench.Config{
				Workers:   cfg.Workers,
				BatchSize: ctx.Int("batch"),
				AnyHit:    anyHit,
			})
			query := "closest"
			if anyHit {
				query = "any"
			}
			table.Append([]string{
				s.Options.SplitMethod.String(),
				query,
				fmt.Sprintf("%d", summary.Rays),
				fmt.Sprintf("%d", summary.Hits),
				fmt.Sprintf("%d", summary.Workers),
				summary.Duration.Round(time.Microsecond).String(),
				fmt.Sprintf("%.2f", summary.RaysPerSecond()/1e6),
			})
		}
	}
	table.Render()
	logger.Noticef("ray throughput for %q\n%s", scenes[0].Name, buf.String())
	return nil
}

// VerifyScene checks the tree structure and compares BVH queries against a linear
// scan over the same primitives. Any disagreement makes the command fail.
func VerifyScene(ctx *cli.Context) error {
	setupLogging(ctx)

	cfg := sceneConfigFromContext(ctx)
	scenes, err := loadScenes(cfg)
	if err != nil {
		return err
	}

	failed := 0
	for _, s := range scenes {
		if err := verifyScene(s, ctx.Int("rays"), cfg.Seed); err != nil {
			logger.Errorf("%s: %v", s.Options.SplitMethod, err)
			failed++
			continue
		}
		logger.Noticef("%s: ok", s.Options.SplitMethod)
	}

	if failed > 0 {
		return cli.NewExitError(fmt.Sprintf("verification failed for %d of %d builds", failed, len(scenes)), 1)
	}
	return nil
}

func verifyScene(s *scene.Scene, numRays int, seed int64) error {
	if err := s.Aggregate.Verify(); err != nil {
		return fmt.Errorf("invalid tree: %w", err)
	}

	reference := bench.NewLinearScan(s.Primitives)
	rays := bench.RandomRays(reference.WorldBound(), numRays, seed)
	mismatches := bench.Compare(reference, s, rays)
	if len(mismatches) == 0 {
		return nil
	}

	for i, m := range mismatches {
		if i == maxReportedMismatches {
			logger.Warningf("... %d more", len(mismatches)-i)
			break
		}
		logger.Warning(m.String())
	}
	return fmt.Errorf("%d of %d rays disagree with the linear scan", len(mismatches), len(rays))
}

func newTable(buf *bytes.Buffer, header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader(header)
	return table
}

// Scenes satisfy the same query interface as the linear scan
var _ core.Intersector = (*scene.Scene)(nil)
