/* Copyright 2019 Comcast Cable Communications Management, LLC
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 * http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package main is a simulated robot that reads driver station
// messages from a coupling (stdin, MQTT, or a WebSocket) and writes
// each cycle's Report back to it.
//
//	botsim --io std --db matches.db < match.jsonl
//	botsim --io mq -- --broker tcp://field --in ds/6135 --out robot/6135
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/frc6135/botcore/sio"
	"github.com/frc6135/botcore/storage/bolt"
	"github.com/frc6135/botcore/tools"

	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"
)

func main() {

	var (
		coupling      = pflag.String("io", "std", `IO protocol: "std", "mq", or "ws"`)
		configFile    = pflag.String("config", "", "Optional robot config (YAML)")
		chooserFile   = pflag.String("chooser", "", "Optional file naming the autonomous routine, watched for changes")
		dbFile        = pflag.String("db", "", "Optional BoltDB match log")
		telemetryAddr = pflag.String("telemetry", "", "Optional address for the telemetry WebSocket server")
		libDir        = pflag.String("lib-dir", "", "Directory for file:// script libraries")
		controlsHTML  = pflag.String("controls-html", "", "Write the controls reference page to this file and exit")

		wait      = pflag.Duration("wait", time.Second, "Wait this long after input EOF before shutting down")
		haltOnEOF = pflag.Bool("halt-on-eof", false, "Stop on input EOF")
		verbose   = pflag.BoolP("verbose", "v", false, "Verbose")
		devLog    = pflag.Bool("dev-log", false, "Human-friendly logging")
		help      = pflag.BoolP("help", "h", false, "Get usage")
	)

	pflag.CommandLine.SetInterspersed(false)
	pflag.Parse()

	if *help {
		pflag.PrintDefaults()

		{
			fmt.Fprintf(os.Stderr, "\n--io std (default):\n\n")
			_, fs := NewStdCouplings(nil, nil)
			fs.PrintDefaults()
		}

		{
			fmt.Fprintf(os.Stderr, "\n--io mq:\n\n")
			_, fs := NewMQTTCouplings(nil, nil)
			fs.PrintDefaults()
		}

		{
			fmt.Fprintf(os.Stderr, "\n--io ws:\n\n")
			_, fs := NewWebSocketCouplings(nil, nil)
			fs.PrintDefaults()
		}

		os.Exit(0)
	}

	logger, err := newLogger(*devLog, *verbose)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()
	log := logger.Sugar()

	conf, err := ReadConfig(*configFile)
	if err != nil {
		log.Fatal(err)
	}

	if *controlsHTML != "" {
		if err := writeControlsPage(conf, *controlsHTML); err != nil {
			log.Fatal(err)
		}
		return
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	var (
		cio sio.Couplings
		std *sio.Stdio
	)
	switch *coupling {
	case "std":
		std, _ = NewStdCouplings(pflag.Args(), logger)
		cio = std
	case "mq", "mqtt":
		cio, _ = NewMQTTCouplings(pflag.Args(), logger)
	case "ws":
		cio, _ = NewWebSocketCouplings(pflag.Args(), logger)
	default:
		log.Fatalf("unknown io: '%s'", *coupling)
	}

	bot, err := NewBot(conf, *libDir, *verbose, logger)
	if err != nil {
		log.Fatal(err)
	}
	bot.Robot.HaltOnInputEOF = *haltOnEOF

	if *dbFile != "" {
		store := bolt.NewStorage(*dbFile, logger)
		store.Debug = *verbose
		if err := store.Open(); err != nil {
			log.Fatal(err)
		}
		defer store.Close()
		bot.Robot.Recorder = store
	}

	log.Infof("botsim starting: %s", bot.Describe())

	if err := cio.Start(ctx); err != nil {
		log.Fatal(err)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer cancel()
		return bot.Robot.Loop(gctx, cio)
	})

	g.Go(func() error {
		return bot.Diagnostics.Run(gctx)
	})

	if *chooserFile != "" {
		fc := sio.NewFileChooser(*chooserFile, bot.Robot.Selector, logger)
		fc.Verbose = *verbose
		g.Go(func() error {
			return fc.Run(gctx)
		})
	}

	if *telemetryAddr != "" {
		g.Go(func() error {
			return bot.Telemetry.Serve(gctx, *telemetryAddr)
		})
	}

	if std != nil {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return nil
			case <-std.InputEOF:
			}
			log.Infof("input EOF (waiting %v)", *wait)
			select {
			case <-gctx.Done():
			case <-time.After(*wait):
			}
			cancel()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		log.Errorf("botsim: %v", err)
	}

	sctx, scancel := context.WithTimeout(context.Background(), *wait)
	defer scancel()
	if err := cio.Stop(sctx); err != nil {
		log.Errorf("error from io.Stop: %v", err)
	}
}

func newLogger(dev, verbose bool) (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	if dev {
		config = zap.NewDevelopmentConfig()
	}
	if verbose {
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	// Stdout carries the coupling's output.
	config.OutputPaths = []string{"stderr"}
	return config.Build()
}

func writeControlsPage(conf *Config, filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	if err = tools.RenderControlsPage(conf.Controls, "Controls", nil, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
