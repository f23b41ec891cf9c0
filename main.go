package main

import (
	"os"

	"github.com/df07/go-bvh/pkg/log"
	"github.com/urfave/cli"
)

var logger = log.New("bvh-tool")

func main() {
	app := cli.NewApp()
	app.Name = "bvh"
	app.Usage = "build, benchmark and verify bounding volume hierarchies"
	app.Version = "0.1.0"
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "v",
			Usage: "enable verbose logging",
		},
		cli.BoolFlag{
			Name:  "vv",
			Usage: "enable even more verbose logging",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:  "build",
			Usage: "build a BVH over a scene and print tree statistics",
			Description: `
Load a YAML scene file or generate a built-in scene, build the accelerator and
report node counts, depth and the SAH cost of the resulting tree.

Use --split all to compare every split method on the same scene.`,
			Flags:  sceneFlags(),
			Action: BuildScene,
		},
		{
			Name:  "bench",
			Usage: "measure closest-hit and any-hit ray throughput",
			Flags: append(sceneFlags(),
				cli.IntFlag{
					Name:  "rays",
					Value: 100000,
					Usage: "number of random rays to trace",
				},
				cli.IntFlag{
					Name:  "batch",
					Value: 256,
					Usage: "rays per worker task",
				},
			),
			Action: BenchScene,
		},
		{
			Name:  "verify",
			Usage: "check tree invariants and compare queries against a linear scan",
			Flags: append(sceneFlags(),
				cli.IntFlag{
					Name:  "rays",
					Value: 10000,
					Usage: "number of random rays to compare",
				},
			),
			Action: VerifyScene,
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Error(err)
		os.Exit(1)
	}
}

func setupLogging(ctx *cli.Context) {
	if ctx.GlobalBool("v") {
		log.SetLevel(log.Info)
	}

	if ctx.GlobalBool("vv") {
		log.SetLevel(log.Debug)
	}
}

func sceneFlags() []cli.Flag {
	return []cli.Flag{
		cli.StringFlag{
			Name:  "scene, s",
			Value: "spheregrid",
			Usage: "YAML scene file or built-in scene (cubes, spheregrid, triangles)",
		},
		cli.IntFlag{
			Name:  "count",
			Usage: "size of a built-in scene (0 uses its default)",
		},
		cli.Int64Flag{
			Name:  "seed",
			Value: 1,
			Usage: "random seed for generated scenes and rays",
		},
		cli.StringFlag{
			Name:  "split",
			Usage: "split method: sah, hlbvh, middle, equal (overrides the scene file)",
		},
		cli.IntFlag{
			Name:  "max-prims",
			Usage: "maximum primitives per leaf (overrides the scene file)",
		},
		cli.IntFlag{
			Name:  "workers, w",
			Usage: "worker goroutines (0 uses every CPU)",
		},
	}
}
