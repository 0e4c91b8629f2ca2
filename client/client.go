package main

import (
	"bufio"
	"fmt"
	"net"
	"os"
	"strings"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
)

// Exit codes for the client application.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

// Config defines the client-side environment variables.
type Config struct {
	Host          string `env:"SERVER_HOST,default=127.0.0.1"`
	Port          int    `env:"SERVER_PORT,default=10000"`
	MaxPacketSize int    `env:"MAX_PACKET_SIZE,default=1024"`
	LogLevel      string `env:"LOG_LEVEL,default=INFO"`
}

func main() {
	// The main function manages the OS exit code based on run()'s return.
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Client error: %v\n", err)
	}
	os.Exit(code)
}

// run connects to the chat server, prints everything it receives, and
// forwards stdin lines until the user types 'exit' or the server hangs up.
func run() (int, error) {
	// 1. Load configuration from environment variables.
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Establish the TCP connection.
	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	conn, err := net.Dial("tcp", address)
	if err != nil {
		return exitRuntime, fmt.Errorf("could not connect to server at %s: %w", address, err)
	}
	defer func() {
		log.Info("Closing connection...")
		_ = conn.Close()
	}()
	fmt.Println("Connected to server")

	// 3. Print every raw chunk the server sends.
	serverGone := make(chan struct{})
	go func() {
		defer close(serverGone)
		buf := make([]byte, config.MaxPacketSize)
		for {
			n, err := conn.Read(buf)
			if err != nil {
				return
			}
			fmt.Println(string(buf[:n]))
		}
	}()

	// 4. Forward stdin lines to the server.
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-serverGone:
			log.Info("Server closed the connection")
			return exitOK, nil
		case line, ok := <-lines:
			if !ok {
				return exitOK, nil
			}
			if strings.EqualFold(strings.TrimSpace(line), "exit") {
				fmt.Println("Exiting...")
				return exitOK, nil
			}
			if _, err := conn.Write([]byte(line)); err != nil {
				return exitRuntime, fmt.Errorf("send failed: %w", err)
			}
		}
	}
}
