// Command chat runs a small relay server: every message a client sends
// is forwarded to all other connected clients. It demonstrates the
// socket framework with the default frame codec.
package main

import (
	"context"
	"errors"
	"flag"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Zereker/itre/socket"
)

func main() {
	configPath := flag.String("config", "", "path to config.toml")
	flag.Parse()

	output := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	}
	log.Logger = zerolog.New(output).With().Timestamp().Str("app", "chat").Logger()

	cfg := DefaultConfig()
	if *configPath != "" {
		loaded, err := LoadConfig(*configPath)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to load chat config")
		}
		cfg = loaded
		log.Info().Str("path", *configPath).Msg("loaded chat config")
	}

	addr, err := net.ResolveTCPAddr("tcp", cfg.Addr)
	if err != nil {
		log.Fatal().Err(err).Str("addr", cfg.Addr).Msg("invalid listen address")
	}

	server, err := socket.New(addr,
		socket.ServerLoggerOption(zerologAdapter{logger: log.Logger}),
		socket.ServerShutdownTimeoutOption(cfg.ShutdownTimeout),
	)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create server")
	}

	// First signal starts the graceful shutdown; a second one bypasses
	// the remaining shutdown timeout.
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info().Msg("shutting down, send again to force")
		cancel()
		<-sigCh
		log.Info().Msg("forcing shutdown")
		server.Close()
	}()

	log.Info().Str("addr", cfg.Addr).Bool("compress", cfg.Compress).Msg("chat relay started")
	if err := server.Serve(ctx, newHub(ctx, cfg)); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("server stopped with error")
	}
}
