// cmd/tweetscope/main.go

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/log"

	"tweetscope/internal/adapter/archive"
	"tweetscope/internal/adapter/storage"
	"tweetscope/internal/adapter/twitter"
	"tweetscope/internal/config"
	"tweetscope/internal/domain/tweet"
	"tweetscope/internal/logging"
	"tweetscope/internal/service/pipeline"
	"tweetscope/internal/service/report"
)

func main() {
	cfg, err := parseFlags(flag.CommandLine, os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		flag.CommandLine.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		palette := report.NewPalette(os.Stderr, !cfg.NoColor)
		fmt.Fprintln(os.Stderr, palette.Warn("Error: "+err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg Config) error {
	env, err := config.Load()
	if err != nil {
		return err
	}

	level := env.LogLevel
	if cfg.LogLevel != "" {
		level = cfg.LogLevel
	}
	logger, err := logging.New(os.Stderr, level, "tweetscope")
	if err != nil {
		return err
	}

	source, err := newSource(cfg, env, logger)
	if err != nil {
		return err
	}

	handle := strings.TrimPrefix(cfg.Handle, "@")

	var recorders []tweet.Recorder
	if cfg.Save {
		rf, err := storage.NewRunFile(env.Storage.SaveFolder, handle, time.Now())
		if err != nil {
			return err
		}
		defer func() {
			if err := rf.Close(); err != nil {
				logger.Warn("failed to close run file", "path", rf.Path(), "error", err)
				return
			}
			logger.Info("raw tweets saved", "path", rf.Path(), "count", rf.Count())
		}()
		recorders = append(recorders, rf)
	}

	archivePath := cfg.ArchiveDB
	if archivePath == "" {
		archivePath = env.Storage.ArchiveDB
	}
	if archivePath != "" {
		ta, err := storage.NewTweetArchive(archivePath)
		if err != nil {
			return err
		}
		defer ta.Close()
		recorders = append(recorders, ta)
	}

	runner := pipeline.NewRunner(source, logger.WithPrefix("pipeline"))
	runner.RegisterEventHandler(func(e pipeline.Event) error {
		logger.Debug("run event", "state", string(e.State), "retrieved", e.Retrieved,
			"target", e.Target, "message", e.Message)
		return nil
	})

	res, err := runner.Run(ctx, pipeline.Request{
		Handle:    handle,
		Options:   cfg.Options(),
		Palette:   report.NewPalette(os.Stdout, !cfg.NoColor && !cfg.JSON),
		Recorders: recorders,
	})
	if err != nil {
		return err
	}

	if cfg.JSON {
		err = report.WriteJSON(os.Stdout, res)
	} else {
		err = report.WriteText(os.Stdout, res)
	}
	if err != nil {
		return err
	}

	if cfg.ExportPath != "" {
		if err := report.Export(cfg.ExportPath, res, cfg.JSON); err != nil {
			return err
		}
		logger.Info("report exported", "path", cfg.ExportPath)
	}

	return nil
}

// newSource picks the replay file when given, the live API otherwise
func newSource(cfg Config, env config.Config, logger *log.Logger) (tweet.Source, error) {
	if cfg.Replay != "" {
		replay, err := archive.NewReplay(cfg.Replay)
		if err != nil {
			return nil, err
		}
		return replay, nil
	}

	if err := env.RequireTwitter(); err != nil {
		return nil, err
	}
	client, err := twitter.NewClient(env.Twitter, logger.WithPrefix("twitter"))
	if err != nil {
		return nil, err
	}
	return client, nil
}
