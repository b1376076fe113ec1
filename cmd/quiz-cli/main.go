package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/term"

	"github.com/stemsi/exstem-cbt/internal/bank"
	"github.com/stemsi/exstem-cbt/internal/cli"
	"github.com/stemsi/exstem-cbt/internal/config"
	"github.com/stemsi/exstem-cbt/internal/database"
	"github.com/stemsi/exstem-cbt/internal/logger"
	"github.com/stemsi/exstem-cbt/internal/persistence"
	"github.com/stemsi/exstem-cbt/internal/service"
	"github.com/stemsi/exstem-cbt/internal/worker"
)

func main() {
	var (
		exportDir string
		logPath   string
	)
	flag.StringVar(&exportDir, "export-dir", ".", "Directory result.json is written to")
	flag.StringVar(&logPath, "log", "", "Log file (default: <DATA_DIR>/quiz-cli.log)")
	flag.Parse()

	cfg := config.Load()
	if err := run(cfg, exportDir, logPath); err != nil {
		fmt.Fprintln(os.Stderr, "quiz-cli:", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, exportDir, logPath string) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return fmt.Errorf("stdin is not a terminal")
	}

	// The screen owns stdout, so logs go to a file.
	if logPath == "" {
		if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
			return err
		}
		logPath = filepath.Join(cfg.DataDir, "quiz-cli.log")
	}
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer logFile.Close()
	log := logger.SetupTo(logFile, cfg.LogLevel, "json")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	qb, err := bank.LoadOrDefault(cfg.BankPath)
	if err != nil {
		return fmt.Errorf("load question bank: %w", err)
	}

	backend, err := database.Open(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("open slot store: %w", err)
	}
	defer backend.Close()

	svc := service.NewSessionService(qb, cfg.Quiz, persistence.NewAdapter(backend.Store, cfg.Quiz.PersistKey, log), log)
	svc.Init(ctx)

	workerCtx, workerCancel := context.WithCancel(ctx)
	var workers sync.WaitGroup
	defer func() {
		workerCancel()
		workers.Wait()
	}()

	timerWorker := worker.NewTimerWorker(svc, cfg.TickInterval, log)
	workers.Add(1)
	go func() {
		defer workers.Done()
		timerWorker.Start(workerCtx)
	}()
	if backend.Mirror != nil {
		mirrorWorker := worker.NewSlotMirrorWorker(backend.Redis, backend.Mirror, log)
		workers.Add(1)
		go func() {
			defer workers.Done()
			mirrorWorker.Start(workerCtx)
		}()
	}

	oldState, err := term.MakeRaw(int(os.Stdin.Fd()))
	if err != nil {
		return fmt.Errorf("enter raw mode: %w", err)
	}
	defer term.Restore(int(os.Stdin.Fd()), oldState)

	runErr := cli.NewRunner(svc, os.Stdin, os.Stdout, exportDir, log).Run(ctx)
	fmt.Print("\r\n")
	return runErr
}

func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
