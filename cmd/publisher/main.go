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

	pub := orchestrator.NewPublisher(orchestrator.Config{
		RTMPURL:      cfg.rtmpURL,
		StreamKey:    cfg.streamKey,
		KASURL:       cfg.kasURL,
		KASToken:     cfg.kasToken,
		RewrapPath:   cfg.rewrapPath,
		Width:        cfg.width,
		Height:       cfg.height,
		Framerate:    cfg.framerate,
		VideoBitrate: cfg.videoBitrate,
		AudioBitrate: cfg.audioBitrate,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := pub.Initialize(ctx); err != nil {
		log.Error("initialize failed", "error", err)
		os.Exit(1)
	}
	if err := pub.Connect(); err != nil {
		log.Error("connect failed", "error", err)
		os.Exit(1)
	}
	log.Info("publisher streaming", "url", cfg.rtmpURL, "version", version)

	// Frame production is left to an embedder driving pub.SendVideo /
	// pub.SendAudio directly; this CLI only owns the connection lifecycle.
	<-ctx.Done()
	log.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	done := make(chan struct{})
	go func() {
		if err := pub.Disconnect(); err != nil {
			log.Error("disconnect error", "error", err)
		}
		close(done)
	}()

	select {
	case <-done:
		log.Info("publisher stopped cleanly")
	case <-shutdownCtx.Done():
		log.Error("forced exit after timeout")
	}
}
