package workers

import (
	"context"
	"log/slog"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"

	"tcp-chat/runtime"
)

func testAcceptor(t *testing.T, registry *runtime.Registry) *Acceptor {
	t.Helper()
	return NewAcceptor(logs.GetLoggerFromLevel(slog.LevelDebug), nil, registry, AcceptorConfig{
		MaxConnections: 5,
		ReadBufferSize: 1024,
		SendQueueSize:  16,
		SendTimeout:    time.Second,
	})
}

func readUntil(t *testing.T, conn net.Conn, want string) string {
	t.Helper()
	var received strings.Builder
	buf := make([]byte, 1024)
	deadline := time.Now().Add(2 * time.Second)
	for {
		_ = conn.SetReadDeadline(deadline)
		n, err := conn.Read(buf)
		require.NoErrorf(t, err, "waiting for %q, got so far %q", want, received.String())
		received.Write(buf[:n])
		if strings.Contains(received.String(), want) {
			return received.String()
		}
	}
}

func TestAcceptor_Onboarding_CreateRoomAfterRetries(t *testing.T) {
	req := require.New(t)
	registry := runtime.NewRegistry(logs.GetLoggerFromLevel(slog.LevelDebug), 2, nil)
	acceptor := testAcceptor(t, registry)

	server, client := net.Pipe()
	defer client.Close()
	go acceptor.handle(server)

	readUntil(t, client, "Welcome! Please write your name: ")
	_, err := client.Write([]byte("Alice"))
	req.NoError(err)

	readUntil(t, client, "currently there are no available rooms")

	// Garbage input re-prompts with the room listing, indefinitely
	_, err = client.Write([]byte("banana"))
	req.NoError(err)
	readUntil(t, client, "Please select a room to join:\nNo available rooms\n")

	// A room id that does not exist is refused, loop continues
	_, err = client.Write([]byte("7"))
	req.NoError(err)
	readUntil(t, client, "Chat room 7 is full or does not exist.")

	// 'new' finally creates the room
	_, err = client.Write([]byte("new"))
	req.NoError(err)
	readUntil(t, client, "New chat room 1 created.\nWaiting for another client to join...\n")

	req.Equal(1, registry.RoomCount())
	req.Equal(1, registry.SessionCount())
	room := registry.RoomsSnapshot()[0]
	req.Equal([]string{"Alice"}, room.Names)
}

func TestAcceptor_ClientVanishing_CleansUpSessionAndRoom(t *testing.T) {
	req := require.New(t)
	registry := runtime.NewRegistry(logs.GetLoggerFromLevel(slog.LevelDebug), 2, nil)
	acceptor := testAcceptor(t, registry)

	server, client := net.Pipe()
	go acceptor.handle(server)

	readUntil(t, client, "Welcome!")
	_, err := client.Write([]byte("Ghost"))
	req.NoError(err)
	readUntil(t, client, "no available rooms")
	_, err = client.Write([]byte("new"))
	req.NoError(err)
	readUntil(t, client, "New chat room 1 created.")

	// When the peer drops, the session and its now-empty room are reclaimed
	req.NoError(client.Close())
	req.Eventually(func() bool {
		return registry.SessionCount() == 0 && registry.RoomCount() == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestAcceptor_RefusesSessionWhenDirectoryIsFull(t *testing.T) {
	req := require.New(t)
	registry := runtime.NewRegistry(logs.GetLoggerFromLevel(slog.LevelDebug), 2, nil)
	acceptor := NewAcceptor(logs.GetLoggerFromLevel(slog.LevelDebug), nil, registry, AcceptorConfig{
		MaxConnections: 1,
		ReadBufferSize: 1024,
		SendQueueSize:  16,
		SendTimeout:    time.Second,
	})

	first, firstClient := net.Pipe()
	defer firstClient.Close()
	go acceptor.handle(first)
	readUntil(t, firstClient, "name: ")
	_, err := firstClient.Write([]byte("Alice"))
	req.NoError(err)
	readUntil(t, firstClient, "no available rooms")

	// A second connection that slipped past the accept-time gate is still
	// refused when it tries to enter the directory
	second, secondClient := net.Pipe()
	defer secondClient.Close()
	go acceptor.handle(second)
	readUntil(t, secondClient, "name: ")
	_, err = secondClient.Write([]byte("Bob"))
	req.NoError(err)
	readUntil(t, secondClient, "Server is full, please try again later.\n")
	req.Equal(1, registry.SessionCount())
}

func TestAcceptor_Run_StopsWhenContextCanceled(t *testing.T) {
	req := require.New(t)
	registry := runtime.NewRegistry(logs.GetLoggerFromLevel(slog.LevelDebug), 2, nil)
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	req.NoError(err)

	acceptor := NewAcceptor(logs.GetLoggerFromLevel(slog.LevelDebug), listener, registry, AcceptorConfig{
		MaxConnections: 1,
		ReadBufferSize: 1024,
		SendQueueSize:  16,
		SendTimeout:    time.Second,
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- acceptor.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		req.NoError(err)
	case <-time.After(2 * time.Second):
		req.Fail("accept loop did not stop on cancellation")
	}
}

func TestAcceptor_Run_FinishesWhenListenerDies(t *testing.T) {
	req := require.New(t)
	registry := runtime.NewRegistry(logs.GetLoggerFromLevel(slog.LevelDebug), 2, nil)
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	req.NoError(err)
	req.NoError(listener.Close())

	acceptor := NewAcceptor(logs.GetLoggerFromLevel(slog.LevelDebug), listener, registry, AcceptorConfig{
		MaxConnections: 1,
		ReadBufferSize: 1024,
		SendQueueSize:  16,
		SendTimeout:    time.Second,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- acceptor.Run(ctx) }()

	// A permanently broken listener finishes the worker so the supervisor
	// does not restart against it
	select {
	case err := <-done:
		req.NoError(err)
	case <-time.After(2 * time.Second):
		req.Fail("accept loop kept running on a dead listener")
	}
}
