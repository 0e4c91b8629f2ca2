package workers

import (
	"bytes"
	"context"
	"log/slog"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"

	"tcp-chat/domain"
	"tcp-chat/runtime"
)

func TestAdminConsole_CommandsAndShutdown(t *testing.T) {
	req := require.New(t)
	registry := runtime.NewRegistry(logs.GetLoggerFromLevel(slog.LevelDebug), 2, nil)

	server, client := net.Pipe()
	defer client.Close()
	s := domain.NewSession(registry.NextSessionID(), server, 16, 1024, time.Second, logs.GetLoggerFromLevel(slog.LevelDebug))
	s.SetName("Alice")
	req.True(registry.Register(s, 0))
	defer s.Close("test teardown")

	in := strings.NewReader("status\nbroadcast\nhello everyone\nbogus\nexit\n")
	var out bytes.Buffer
	shutdownCalled := false
	console := NewAdminConsole(logs.GetLoggerFromLevel(slog.LevelDebug), registry, in, &out,
		func() { shutdownCalled = true })

	err := console.Run(context.Background())
	req.NoError(err)

	// exit triggered the shutdown hook
	req.True(shutdownCalled)

	// status printed the directory
	req.Contains(out.String(), "Connected clients: 1")
	req.Contains(out.String(), "Alice")

	// unknown commands print the help line
	req.Contains(out.String(), "Available commands: status, broadcast")

	// broadcast reached the connected session
	_ = client.SetReadDeadline(time.Now().Add(time.Second))
	buf := make([]byte, 1024)
	n, err := client.Read(buf)
	req.NoError(err)
	req.Equal("[Broadcast] hello everyone\n", string(buf[:n]))
}
