package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rvance/ntdf-rtmp/internal/logger"
	"github.com/rvance/ntdf-rtmp/internal/orchestrator"
)

func main() {
	cfg, err := parseFlags(os.Args[1:])
	if err != nil {
		os.Exit(2)
	}
	if cfg.showVersion {
		fmt.Println(version)
		return
	}

	logger.Init()
	if err := logger.SetLevel(cfg.logLevel); err != nil {
		fmt.Printf("Warning: invalid log level %q, using default\n", cfg.logLevel)
	}
	log := logger.Logger().With("component", "cli")

	sub := orchestrator.NewSubscriber(orchestrator.Config{
		RTMPURL:    cfg.rtmpURL,
		StreamKey:  cfg.streamKey,
		KASURL:     cfg.kasURL,
		KASToken:   cfg.kasToken,
		RewrapPath: cfg.rewrapPath,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := sub.Connect(); err != nil {
		log.Error("connect failed", "error", err)
		os.Exit(1)
	}
	log.Info("subscriber playing", "url", cfg.rtmpURL, "version", version)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}
			frame, err := sub.Next(ctx)
			if err != nil {
				log.Error("read frame failed", "error", err)
				return
			}
			log.Debug("frame decoded", "kind", frame.Kind, "ts", frame.Timestamp, "state", sub.State().String())
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case <-done:
		log.Info("stream ended")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	closeDone := make(chan struct{})
	go func() {
		if err := sub.Disconnect(); err != nil {
			log.Error("disconnect error", "error", err)
		}
		close(closeDone)
	}()

	select {
	case <-closeDone:
		log.Info("subscriber stopped cleanly")
	case <-shutdownCtx.Done():
		log.Error("forced exit after timeout")
	}
}
