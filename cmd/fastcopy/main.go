// Copyright 2020 Qizhou Guo
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Command fastcopy is the CLI entry point: `fastcopy [-t threads] <src>... <dst>`.
package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/kr/pretty"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"

	"github.com/WineChord/fastcopy/config"
	"github.com/WineChord/fastcopy/datanode"
	"github.com/WineChord/fastcopy/namenode"
	"github.com/WineChord/fastcopy/orchestrator"
	"github.com/WineChord/fastcopy/pathglob"
)

var log = logrus.New()

func main() {
	app := cli.NewApp()
	app.Name = "fastcopy"
	app.Usage = "copy files within a cluster without leaving their datanodes"
	app.UsageText = "fastcopy [options] <src> [<src> ...] <dst>"
	app.Flags = []cli.Flag{
		cli.IntFlag{
			Name:  "threads, t",
			Usage: "number of files to copy concurrently",
			Value: config.Default().FilePoolSize,
		},
		cli.StringFlag{
			Name:  "config, c",
			Usage: "path to a YAML config file overlaying the defaults",
		},
		cli.BoolFlag{
			Name:  "verbose, v",
			Usage: "enable debug logging",
		},
	}
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		log.WithError(err).Fatal("fastcopy failed")
	}
}

func run(c *cli.Context) error {
	if c.Bool("verbose") {
		log.SetLevel(logrus.DebugLevel)
	}

	args := c.Args()
	if len(args) < 2 {
		return cli.NewExitError("expected at least one source and a destination", 2)
	}
	sources, dest := []string(args[:len(args)-1]), args[len(args)-1]

	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}
	if t := c.Int("threads"); t > 0 {
		cfg.FilePoolSize = t
	}
	log.Debugf("config: %# v", pretty.Formatter(cfg))

	reqs, err := pathglob.Expand(&osFS{}, sources, dest)
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}
	log.Debugf("expanded %d request(s): %# v", len(reqs), pretty.Formatter(reqs))

	orch := orchestrator.New(
		func(addr string) (namenode.RPC, error) { return namenode.Dial(addr) },
		datanode.Dial,
		cfg,
		logrus.NewEntry(log),
	)
	defer func() {
		if err := orch.Shutdown(); err != nil {
			log.WithError(err).Warn("error during shutdown")
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	go func() {
		<-sigCh
		log.Warn("interrupted, cancelling in-flight copies")
		cancel()
	}()

	results := orch.Copy(ctx, reqs)

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			log.WithError(r.Err).WithFields(logrus.Fields{"src": r.Src, "dst": r.Dst}).Error("copy failed")
			continue
		}
		log.WithFields(logrus.Fields{
			"src": r.Src, "dst": r.Dst, "blocks": r.Blocks, "bytes": r.Bytes,
		}).Info("copy succeeded")
	}
	if failed > 0 {
		return cli.NewExitError("one or more copies failed", 1)
	}
	return nil
}
