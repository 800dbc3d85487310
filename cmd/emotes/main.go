// Command emotes builds the emote packs: it slices every configured sprite
// sheet into tiles, removes the matte around each emote, writes the PNGs and
// the manifest the chat client loads.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/nvr-ai/emotes/background"
	"github.com/nvr-ai/emotes/config"
	"github.com/nvr-ai/emotes/manifest"
	"github.com/nvr-ai/emotes/onnx"
	"github.com/nvr-ai/emotes/pack"
	"github.com/nvr-ai/emotes/profiler"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		configDir    string
		manifestPath string
		workers      int
		urlPrefix    string
		modelPath    string
		onnxLib      string
		modelSize    int
		threads      int
		timeout      time.Duration
		retries      int
		backoff      time.Duration
		keepGoing    bool
		logLevel     string
		profile      bool
	)
	retry := background.DefaultRetryPolicy()
	model := onnx.DefaultConfig()

	flag.StringVar(&configDir, "config-dir", config.DefaultConfigDir, "Directory of emote pack configs (.json, .yaml)")
	flag.StringVar(&manifestPath, "manifest", config.DefaultManifestPath, "Path of the manifest to write")
	flag.IntVar(&workers, "workers", 0, "Tiles processed concurrently (0 = number of CPUs)")
	flag.StringVar(&urlPrefix, "url-prefix", manifest.DefaultURLPrefix, "Public URL prefix of the emote files")
	flag.StringVar(&modelPath, "model", os.Getenv("EMOTES_MODEL"), "Segmentation ONNX model, required by the rembg modes")
	flag.StringVar(&onnxLib, "onnx-lib", model.LibraryPath, "Path to the onnxruntime shared library")
	flag.IntVar(&modelSize, "model-size", model.InputSize, "Square input size of the segmentation model")
	flag.IntVar(&threads, "threads", 0, "Intra-op threads of the segmentation model (0 = runtime default)")
	flag.DurationVar(&timeout, "timeout", retry.Timeout, "Deadline of one segmentation attempt")
	flag.IntVar(&retries, "retries", retry.Attempts, "Segmentation attempts per tile")
	flag.DurationVar(&backoff, "backoff", retry.Backoff, "Base wait between segmentation attempts")
	flag.BoolVar(&keepGoing, "keep-going", false, "Skip failed packs instead of aborting")
	flag.StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn, error")
	flag.BoolVar(&profile, "profile", false, "Log stage timings when done")
	flag.Parse()

	level, err := parseLevel(logLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})).
		With("run_id", uuid.NewString())
	pack.SetLogger(logger)

	var prof *profiler.Profiler
	if profile {
		prof = profiler.New()
	}

	builder := pack.NewBuilder(pack.Options{
		Workers:   workers,
		URLPrefix: urlPrefix,
		Service: func() (background.Service, error) {
			cfg := model
			cfg.ModelPath = modelPath
			cfg.LibraryPath = onnxLib
			cfg.InputSize = modelSize
			cfg.Threads = threads
			logger.Info("loading segmentation model", "model", cfg.ModelPath, "size", cfg.InputSize)
			return onnx.NewSegmenter(cfg)
		},
		Retry: background.RetryPolicy{
			Timeout:  timeout,
			Attempts: retries,
			Backoff:  backoff,
		},
		KeepGoing: keepGoing,
		Profiler:  prof,
	})
	defer func() {
		if err := builder.Close(); err != nil {
			logger.Warn("closing segmentation model", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	m, err := builder.Run(ctx, configDir, manifestPath)
	if profile {
		prof.LogSummary(logger)
	}
	if err != nil {
		logger.Error("emote build failed", "error", err)
		return 1
	}

	items := 0
	for _, p := range m.Packs {
		items += len(p.Items)
	}
	logger.Info("emote build done", "packs", len(m.Packs), "items", items, "elapsed", time.Since(start))
	return 0
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, fmt.Errorf("invalid -log-level %q", s)
	}
	return level, nil
}
