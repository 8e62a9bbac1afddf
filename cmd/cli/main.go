// Command cli analyzes an audio file and prints the resulting analysis as
// JSON.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/mlx93/VideoGen/internal/analyzer"
	"github.com/mlx93/VideoGen/internal/cache"
	"github.com/mlx93/VideoGen/internal/config"
	"github.com/mlx93/VideoGen/internal/cost"
	"github.com/mlx93/VideoGen/internal/transcribe"
	"github.com/mlx93/VideoGen/pkg/logger"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to YAML config (or VIDEOGEN_CONFIG)")
		inputPath  = flag.String("in", "", "audio file to analyze (WAV)")
		jobID      = flag.String("job", "", "job identifier (generated when empty)")
		noCache    = flag.Bool("no-cache", false, "skip cache lookup and write")
	)
	flag.Parse()

	if *inputPath == "" {
		fmt.Fprintln(os.Stderr, "usage: cli -in <file.wav> [-config <file>] [-job <id>] [-no-cache]")
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("config: %v", err)
	}

	data, err := os.ReadFile(*inputPath)
	if err != nil {
		logger.Fatalf("reading %s: %v", *inputPath, err)
	}

	job := *jobID
	if job == "" {
		job = uuid.NewString()
	}

	opts := []analyzer.Option{
		analyzer.WithMaxUploadBytes(int64(cfg.Limits.MaxUploadMB) * 1024 * 1024),
		analyzer.WithCacheTTL(time.Duration(cfg.Cache.TTLHours) * time.Hour),
	}

	if !*noCache {
		durable, err := cache.NewSQLiteStore(cfg.Cache.DBPath)
		if err != nil {
			logger.Warnf("durable cache unavailable: %v", err)
			opts = append(opts, analyzer.WithCache(cache.NewTiered(cache.NewMemoryStore(), nil)))
		} else {
			defer durable.Close()
			opts = append(opts, analyzer.WithCache(cache.NewTiered(cache.NewMemoryStore(), durable)))
		}
	}

	costs := cost.NewTracker()
	if cfg.Transcription.URL != "" {
		opts = append(opts, analyzer.WithTranscriber(
			transcribe.NewClient(cfg.Transcription.URL, transcribe.WithCostRecorder(costs))))
	}

	svc := analyzer.NewService(opts...)

	analysis, err := svc.Parse(context.Background(), data, job)
	if err != nil {
		logger.Fatalf("analysis failed: %v", err)
	}

	if spent := costs.Total(job); spent > 0 {
		logger.Infof("external cost for job %s: $%.6f", job, spent)
	}

	out, err := json.MarshalIndent(analysis, "", "  ")
	if err != nil {
		logger.Fatalf("encoding result: %v", err)
	}
	fmt.Println(string(out))
}
