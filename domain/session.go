package domain

import (
	"log/slog"
	"net"
	"sync"
	"time"

	"tcp-chat/errors"
)

type SessionID int

// Session is the server-side representative of one connected client.
//
// The outbound path is a bounded queue drained by a single writer goroutine,
// so two logical senders (room fan-out, admin broadcast) never interleave
// writes on the wire. A peer that cannot keep up fills the queue and gets
// disconnected instead of stalling everyone else.
type Session struct {
	ID         SessionID
	RemoteAddr string

	conn        net.Conn
	out         chan []byte
	done        chan struct{}
	closeOnce   sync.Once
	sendTimeout time.Duration
	readBuf     int
	log         *slog.Logger

	mu     sync.Mutex
	name   string
	roomID *RoomID
}

func NewSession(id SessionID, conn net.Conn, queueSize, readBuf int, sendTimeout time.Duration, log *slog.Logger) *Session {
	s := &Session{
		ID:          id,
		RemoteAddr:  conn.RemoteAddr().String(),
		conn:        conn,
		out:         make(chan []byte, queueSize),
		done:        make(chan struct{}),
		sendTimeout: sendTimeout,
		readBuf:     readBuf,
		log:         log,
	}
	go s.writeLoop()
	return s
}

func (s *Session) SetName(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.name = name
}

func (s *Session) Name() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.name
}

// AssignRoom records the room this session belongs to.
// Membership itself is owned by the Registry.
func (s *Session) AssignRoom(id RoomID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roomID = &id
}

func (s *Session) ClearRoom() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roomID = nil
}

// Room returns the current room id, or false while the session is in the lobby.
func (s *Session) Room() (RoomID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.roomID == nil {
		return 0, false
	}
	return *s.roomID, true
}

// ReadNext blocks until the peer sends something or the connection dies.
// One read call boundary is one application message: the stream carries no
// framing, so rapid input may merge and large input may split.
func (s *Session) ReadNext() (string, error) {
	buf := make([]byte, s.readBuf)
	n, err := s.conn.Read(buf)
	if err != nil {
		return "", err
	}
	return string(buf[:n]), nil
}

// TrySend enqueues text for the writer goroutine. It never blocks:
// a full queue means the peer is too slow and the caller should
// disconnect it.
func (s *Session) TrySend(text string) error {
	select {
	case <-s.done:
		return errors.ErrSessionClosed
	default:
	}
	select {
	case s.out <- []byte(text):
		return nil
	case <-s.done:
		return errors.ErrSessionClosed
	default:
		return errors.ErrSendFailed
	}
}

// Close shuts the connection down and stops the writer goroutine.
// Idempotent and safe to call from any goroutine: the read loop,
// a peer fan-out that failed, or the admin console.
func (s *Session) Close(reason string) {
	s.closeOnce.Do(func() {
		close(s.done)
		_ = s.conn.Close()
		s.log.Info("Session closed", "session", int(s.ID), "remote", s.RemoteAddr, "reason", reason)
	})
}

func (s *Session) Closed() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

func (s *Session) writeLoop() {
	for {
		select {
		case <-s.done:
			return
		case payload := <-s.out:
			if s.sendTimeout > 0 {
				_ = s.conn.SetWriteDeadline(time.Now().Add(s.sendTimeout))
			}
			if _, err := s.conn.Write(payload); err != nil {
				s.log.Warn("Write to peer failed", "session", int(s.ID), "remote", s.RemoteAddr, "err", err)
				s.Close("write failed")
				return
			}
		}
	}
}
