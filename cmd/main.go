package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/Netflix/go-env"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"

	"tcp-chat/moderation"
	"tcp-chat/runtime"
	"tcp-chat/runtime/workers"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes all components, manages the server lifecycle, and centralizes error reporting.
// Only a failure to bind the listening socket (or bad configuration) is fatal;
// every per-connection failure stays contained in that connection's goroutine.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if err := validator.New().Struct(config); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Moderation (embedded word list)
	moderator, err := moderation.NewDefaultModerator([]rune(config.CensorReplacement)[0], log)
	if err != nil {
		return fmt.Errorf("moderation setup failed: %w", err)
	}

	// 3. Registry: the single owner of sessions and rooms
	registry := runtime.NewRegistry(log, config.MaxChatSize, moderator)

	// 4. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 5. Listener: the only fatal failure path after startup
	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", address, err)
	}
	log.Info("Server listen on", "address", address)

	// 6. Workers under supervision: accept loop + admin console
	sup := workers.NewSupervisor(log, config.RestartInterval)
	sup.Add(workers.NewAcceptor(log, listener, registry, workers.AcceptorConfig{
		MaxConnections: config.MaxConnections,
		ReadBufferSize: config.MaxBufferSize,
		SendQueueSize:  config.SendQueueSize,
		SendTimeout:    config.SendTimeout,
	}))
	if config.EnableAdminCommands {
		// The admin 'exit' command cancels the same context as SIGTERM.
		sup.Add(workers.NewAdminConsole(log, registry, os.Stdin, os.Stdout, stop))
	}

	// 7. Blocks until every worker finished (signal, admin exit, or fatal error)
	sup.Run(ctx)

	// 8. Final cleanup
	registry.CloseAll("server shutting down")
	log.Info("Program stopped cleanly")
	return nil
}
