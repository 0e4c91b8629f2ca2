package workers

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"tcp-chat/domain"
	"tcp-chat/errors"
	"tcp-chat/runtime"
)

const (
	namePrompt       = "Welcome! Please write your name: "
	serverFullNotice = "Server is full, please try again later.\n"
)

// AcceptorConfig bounds the per-connection resources of accepted clients.
type AcceptorConfig struct {
	MaxConnections int
	ReadBufferSize int
	SendQueueSize  int
	SendTimeout    time.Duration
}

// Acceptor accepts TCP connections and walks each one through onboarding:
// name prompt, then room selection or creation, then the chat read loop.
// Each connection gets its own goroutine; a failure there never reaches the
// accept loop or other sessions.
type Acceptor struct {
	log      *slog.Logger
	listener net.Listener
	registry *runtime.Registry
	cfg      AcceptorConfig
}

func NewAcceptor(log *slog.Logger, listener net.Listener, registry *runtime.Registry, cfg AcceptorConfig) *Acceptor {
	return &Acceptor{log: log, listener: listener, registry: registry, cfg: cfg}
}

func (w *Acceptor) Run(ctx context.Context) error {
	// Closing the listener is the only way to unblock Accept.
	go func() {
		<-ctx.Done()
		_ = w.listener.Close()
	}()

	w.log.Info("Server is running and waiting for connections...", "addr", w.listener.Addr().String())
	for {
		conn, err := w.listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			// A dead listener cannot recover. Finishing the worker here
			// keeps the supervisor from restarting against it forever.
			w.log.Error("Accept failed, stopping accept loop", "err", err)
			return nil
		}

		// Fast-path refusal before allocating a session. Registration later
		// re-checks occupancy under the lock, so connections that slip past
		// this gate mid-onboarding still cannot exceed the limit.
		if w.registry.SessionCount() >= w.cfg.MaxConnections {
			w.log.Warn("Max connections reached, refusing new connection",
				"remote", conn.RemoteAddr().String(), "err", errors.ErrServerFull)
			_, _ = conn.Write([]byte(serverFullNotice))
			_ = conn.Close()
			continue
		}

		go w.handle(conn)
	}
}

// handle runs the whole lifecycle of one connection.
func (w *Acceptor) handle(conn net.Conn) {
	log := w.log.With("conn", uuid.NewString(), "remote", conn.RemoteAddr().String())
	log.Info("Accepted connection")

	if _, err := conn.Write([]byte(namePrompt)); err != nil {
		log.Error("Failed to greet client", "err", err)
		_ = conn.Close()
		return
	}

	name, err := readChunk(conn, w.cfg.ReadBufferSize)
	if err != nil {
		log.Info("Client left before naming itself")
		_ = conn.Close()
		return
	}
	name = strings.TrimSpace(name)
	log.Info("Client set name", "name", name)

	s := domain.NewSession(w.registry.NextSessionID(), conn, w.cfg.SendQueueSize, w.cfg.ReadBufferSize, w.cfg.SendTimeout, w.log)
	s.SetName(name)
	if !w.registry.Register(s, w.cfg.MaxConnections) {
		log.Warn("Max connections reached, refusing session", "name", name, "err", errors.ErrServerFull)
		_, _ = conn.Write([]byte(serverFullNotice))
		s.Close("server full")
		return
	}

	if !w.chooseRoom(s, name, log) {
		return
	}

	// Active: every inbound read triggers routing directly, no polling.
	for {
		text, err := s.ReadNext()
		if err != nil {
			w.registry.Disconnect(s, "read failed or peer closed")
			return
		}
		w.registry.RouteMessage(s, text)
	}
}

// chooseRoom runs the room-selection protocol until the session lands in a
// room or disconnects. Malformed input re-prompts indefinitely.
func (w *Acceptor) chooseRoom(s *domain.Session, name string, log *slog.Logger) bool {
	var prompt string
	if w.registry.HasAvailableRoom() {
		prompt = fmt.Sprintf("Hello %s, join Available chat rooms (type the id):\n%s\nor create new chat (type 'new')",
			name, w.registry.ListAvailableRooms())
	} else {
		prompt = fmt.Sprintf("Hello %s, currently there are no available rooms\nSend 'new' to create chat or wait for rooms (refresh by sending a message)", name)
	}
	if err := s.TrySend(prompt); err != nil {
		w.registry.Disconnect(s, "failed to send room prompt")
		return false
	}

	for {
		data, err := s.ReadNext()
		if err != nil {
			w.registry.Disconnect(s, "disconnected during onboarding")
			return false
		}
		choice := strings.TrimSpace(data)

		if choice == "new" {
			room := w.registry.CreateRoom(s)
			_ = s.TrySend(fmt.Sprintf("New chat room %d created.\nWaiting for another client to join...\n", int(room.ID)))
			return true
		}

		roomID, convErr := strconv.Atoi(choice)
		if convErr != nil {
			_ = s.TrySend(fmt.Sprintf("Please select a room to join:\n%s\n", w.registry.ListAvailableRooms()))
			continue
		}

		if err := w.registry.JoinRoom(s, domain.RoomID(roomID)); err != nil {
			log.Debug("Room selection rejected", "room", roomID, "err", err)
			_ = s.TrySend(fmt.Sprintf("Chat room %d is full or does not exist.\nPlease select another room: %s :\n",
				roomID, w.registry.ListAvailableRooms()))
			continue
		}

		_ = s.TrySend(fmt.Sprintf("Joined chat room %d. You can start chatting now!\n", roomID))
		log.Info("Client joined room", "room", roomID)
		return true
	}
}

// readChunk reads one raw chunk from the wire before a Session exists.
func readChunk(conn net.Conn, size int) (string, error) {
	buf := make([]byte, size)
	n, err := conn.Read(buf)
	if err != nil {
		return "", err
	}
	return string(buf[:n]), nil
}
