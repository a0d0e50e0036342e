package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"vidgend/internal/config"
	"vidgend/internal/gpu"
	"vidgend/internal/httpapi"
	"vidgend/internal/jobs"
	"vidgend/internal/runner"
	"vidgend/internal/scheduler"
)

func main() {
	// Flags with environment variable defaults
	defaultAddr := ":7860"
	if v := os.Getenv("VIDGEND_ADDR"); v != "" {
		defaultAddr = v
	}
	addr := flag.String("addr", defaultAddr, "HTTP listen address, e.g. :7860")
	configPath := flag.String("config", os.Getenv("VIDGEND_CONFIG"), "Path to config file (.yaml/.json/.toml)")
	engineDir := flag.String("engine-dir", "", "Working directory for engine subprocesses")
	generateScript := flag.String("generate-script", "generate.py", "Engine entry script, relative to engine-dir")
	pythonBin := flag.String("python-bin", "", "Python interpreter for single-GPU runs (default python3)")
	launchBin := flag.String("launch-bin", "", "Distributed launcher for multi-GPU runs (default torchrun)")
	outputDir := flag.String("output-dir", "outputs", "Directory for generated videos")
	gpuCount := flag.Int("gpu-count", 0, "GPU pool size (0=autodetect via nvidia-smi)")
	timeoutSec := flag.Int("timeout-sec", 0, "Default per-job execution timeout in seconds (0=2h)")
	corsOrigins := flag.String("cors-origins", "", "Comma-separated allowed CORS origins (empty=CORS disabled)")
	logLevel := flag.String("log-level", "info", "Log level: debug, info, warn, error")
	flag.Parse()

	lvl, err := zerolog.ParseLevel(*logLevel)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	log := zerolog.New(os.Stderr).Level(lvl).With().Timestamp().Str("svc", "vidgend").Logger()

	var cfg config.Config
	if *configPath != "" {
		cfg, err = config.Load(*configPath)
		if err != nil {
			log.Fatal().Err(err).Str("path", *configPath).Msg("failed to load config")
		}
	}

	// Flags override file values when set.
	if *engineDir != "" {
		cfg.EngineDir = *engineDir
	}
	if *generateScript != "" && cfg.GenerateScript == "" {
		cfg.GenerateScript = *generateScript
	}
	if *pythonBin != "" {
		cfg.PythonBin = *pythonBin
	}
	if *launchBin != "" {
		cfg.LaunchBin = *launchBin
	}
	if *outputDir != "" && cfg.OutputDir == "" {
		cfg.OutputDir = *outputDir
	}
	if *gpuCount > 0 {
		cfg.GPUCount = *gpuCount
	}
	if *timeoutSec > 0 {
		cfg.TimeoutSec = *timeoutSec
	}
	if origins := splitCSV(*corsOrigins); len(origins) > 0 {
		cfg.CORSEnabled = true
		cfg.CORSOrigins = origins
	}
	if cfg.Addr != "" && *addr == defaultAddr {
		*addr = cfg.Addr
	}

	deviceCount := cfg.GPUCount
	if deviceCount <= 0 {
		deviceCount = gpu.Count()
		log.Info().Int("count", deviceCount).Msg("detected gpu pool")
	}

	sched := scheduler.NewWithConfig(scheduler.Config{
		DeviceCount: deviceCount,
		Logger:      log.With().Str("comp", "scheduler").Logger(),
	})
	coord := scheduler.NewCoordinator(sched)
	engine := runner.New(runner.Config{
		PythonBin: cfg.PythonBin,
		LaunchBin: cfg.LaunchBin,
		Logger:    log.With().Str("comp", "runner").Logger(),
	})
	orch := jobs.New(sched, coord, engine, jobs.Config{
		EngineDir:      cfg.EngineDir,
		GenerateScript: cfg.GenerateScript,
		Checkpoints:    cfg.Checkpoints,
		OutputDir:      cfg.OutputDir,
		DefaultTimeout: time.Duration(cfg.TimeoutSec) * time.Second,
		Logger:         log.With().Str("comp", "jobs").Logger(),
	})

	httpapi.SetLogger(log.With().Str("comp", "http").Logger())
	if cfg.CORSEnabled {
		httpapi.SetCORSOptions(true, cfg.CORSOrigins,
			[]string{"GET", "POST", "OPTIONS"},
			[]string{"Accept", "Content-Type"})
	}

	mux := httpapi.NewMux(orch)
	srv := &http.Server{Addr: *addr, Handler: mux}

	go func() {
		log.Info().Str("addr", *addr).Int("gpus", deviceCount).Msg("vidgend listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Graceful shutdown (Ctrl+C / SIGTERM). In-flight generations poll their
	// cancellation predicates; the shutdown timeout only bounds the HTTP drain.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Warn().Err(err).Msg("graceful shutdown error")
	}
}

func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
