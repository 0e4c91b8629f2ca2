// Package runtime owns the live state of the chat server: the directory of
// connected sessions and open rooms, and the fan-out of messages between them.
// It orchestrates the system without containing transport or UI logic.
package runtime

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/abadojack/whatlanggo"
	"github.com/samber/lo"

	"tcp-chat/domain"
	"tcp-chat/errors"
	"tcp-chat/moderation"
)

// Registry is the process-wide directory of sessions and rooms and the only
// place rooms are created and destroyed.
//
// One RWMutex guards the session set, the room set, room membership, and
// both id counters. Fan-out never happens under the lock: callers snapshot
// the recipients, release, then send, so a failing send can re-enter the
// Registry to disconnect the dead peer.
type Registry struct {
	log       *slog.Logger
	capacity  int
	moderator *moderation.Moderator

	mu            sync.RWMutex
	sessions      map[domain.SessionID]*domain.Session
	rooms         map[domain.RoomID]*domain.Room
	roomOrder     []domain.RoomID
	nextSessionID domain.SessionID
	nextRoomID    domain.RoomID
}

// NewRegistry creates an empty registry. roomCapacity bounds every room.
// moderator may be nil to disable censoring.
func NewRegistry(log *slog.Logger, roomCapacity int, moderator *moderation.Moderator) *Registry {
	return &Registry{
		log:           log,
		capacity:      roomCapacity,
		moderator:     moderator,
		sessions:      make(map[domain.SessionID]*domain.Session),
		rooms:         make(map[domain.RoomID]*domain.Room),
		nextSessionID: 1,
		nextRoomID:    1,
	}
}

// Register adds the session to the directory when it holds fewer than limit
// sessions, limit <= 0 meaning unbounded. The occupancy check and the insert
// share the lock, so concurrent accepts cannot push the directory past the
// limit no matter how many connections are mid-onboarding.
func (r *Registry) Register(s *domain.Session, limit int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if limit > 0 && len(r.sessions) >= limit {
		return false
	}
	r.sessions[s.ID] = s
	return true
}

// NextSessionID hands out a process-unique monotonic session id.
func (r *Registry) NextSessionID() domain.SessionID {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := r.nextSessionID
	r.nextSessionID++
	return id
}

// CreateRoom allocates the next room id, creates the room with the founding
// session inside, and announces it to every lobby session.
func (r *Registry) CreateRoom(founder *domain.Session) *domain.Room {
	r.mu.Lock()
	id := r.nextRoomID
	r.nextRoomID++
	room := domain.NewRoom(id, r.capacity)
	room.TryAdd(founder)
	r.rooms[id] = room
	r.roomOrder = append(r.roomOrder, id)
	lobby := r.lobbySessionsLocked(founder)
	r.mu.Unlock()

	r.log.Info("Created new chat room", "room", int(id), "founder", founder.Name(), "remote", founder.RemoteAddr)
	r.fanOut(lobby, domain.RoomCreatedNotice(founder.Name(), id))
	return room
}

// JoinRoom adds the session to an existing room. Members already present
// receive the join notice; the joiner does not.
func (r *Registry) JoinRoom(s *domain.Session, id domain.RoomID) error {
	r.mu.Lock()
	room, ok := r.rooms[id]
	if !ok {
		r.mu.Unlock()
		return errors.ErrRoomNotFound
	}
	if room.Full() {
		r.mu.Unlock()
		return errors.ErrRoomFull
	}
	peers := room.Members()
	room.TryAdd(s)
	r.mu.Unlock()

	r.log.Info("Session joined room", "session", int(s.ID), "name", s.Name(), "room", int(id))
	r.fanOut(peers, domain.JoinedNotice(s.Name()))
	return nil
}

// Disconnect tears a session down: closes its connection (unblocking its
// read loop), removes it from the directory and from its room, notifies the
// remaining members, and destroys the room if it just emptied.
//
// Idempotent and safe to call concurrently from the session's own read loop,
// a failed fan-out elsewhere, or the admin console.
func (r *Registry) Disconnect(s *domain.Session, reason string) {
	s.Close(reason)

	r.mu.Lock()
	delete(r.sessions, s.ID)
	var remaining []*domain.Session
	name := s.Name()
	removed := false
	if id, ok := s.Room(); ok {
		if room, ok := r.rooms[id]; ok {
			removed = room.Remove(s)
			if room.Len() == 0 {
				delete(r.rooms, id)
				r.roomOrder = lo.Without(r.roomOrder, id)
				r.log.Info("Closing chat room", "room", int(id))
			} else {
				remaining = room.Members()
			}
		}
	}
	r.mu.Unlock()

	if removed && len(remaining) > 0 {
		r.fanOut(remaining, domain.LeftNotice(name))
	}
}

// RouteMessage delivers user chat text to every other member of the sender's
// room, censored and formatted as "[name]: text". A dead peer is dropped
// without aborting delivery to the rest and without failing the sender.
func (r *Registry) RouteMessage(s *domain.Session, text string) {
	id, ok := s.Room()
	if !ok {
		r.log.Debug("Dropping message from lobby session", "session", int(s.ID))
		return
	}

	if r.moderator != nil {
		censored, words := r.moderator.Censor(text)
		if len(words) > 0 {
			lang := whatlanggo.Detect(text).Lang.Iso6391()
			r.log.Warn("Censored message content", "session", int(s.ID), "name", s.Name(), "lang", lang, "words", len(words))
		}
		text = censored
	}

	r.mu.RLock()
	room, found := r.rooms[id]
	var peers []*domain.Session
	if found {
		peers = room.Members()
	}
	r.mu.RUnlock()

	payload := domain.FormatChat(s.Name(), text)
	for _, peer := range peers {
		if peer == s {
			continue
		}
		r.sendOrDrop(peer, payload)
	}
}

// BroadcastSystem delivers a system notice to every member of the room.
func (r *Registry) BroadcastSystem(id domain.RoomID, text string) {
	r.mu.RLock()
	var members []*domain.Session
	if room, ok := r.rooms[id]; ok {
		members = room.Members()
	}
	r.mu.RUnlock()
	r.fanOut(members, text)
}

// BroadcastAll delivers text to every connected session. With excludeBusy
// set, sessions currently inside a room are skipped.
func (r *Registry) BroadcastAll(text string, excludeBusy bool) {
	r.mu.RLock()
	targets := lo.Filter(lo.Values(r.sessions), func(s *domain.Session, _ int) bool {
		if !excludeBusy {
			return true
		}
		_, busy := s.Room()
		return !busy
	})
	r.mu.RUnlock()
	r.fanOut(targets, text)
}

// ListAvailableRooms renders every non-full room in creation order,
// or "No available rooms".
func (r *Registry) ListAvailableRooms() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var entries []string
	for _, id := range r.roomOrder {
		if room, ok := r.rooms[id]; ok && !room.Full() {
			entries = append(entries, room.Summary())
		}
	}
	if len(entries) == 0 {
		return "No available rooms"
	}
	return strings.Join(entries, "\n")
}

// HasAvailableRoom reports whether at least one non-full room exists.
func (r *Registry) HasAvailableRoom() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, room := range r.rooms {
		if !room.Full() {
			return true
		}
	}
	return false
}

// FindRoom returns the room by id, nil if absent.
func (r *Registry) FindRoom(id domain.RoomID) *domain.Room {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.rooms[id]
}

func (r *Registry) SessionCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

func (r *Registry) RoomCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}

// SessionsSnapshot returns the connected sessions for the admin console.
func (r *Registry) SessionsSnapshot() []*domain.Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return lo.Values(r.sessions)
}

// RoomStatus is a point-in-time view of one room for the admin console.
type RoomStatus struct {
	ID      domain.RoomID
	Members int
	Full    bool
	Names   []string
}

// RoomsSnapshot returns room views in creation order. Rooms carry no lock of
// their own, so the views are computed here under the registry lock; live
// *Room state never leaves it.
func (r *Registry) RoomsSnapshot() []RoomStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()
	views := make([]RoomStatus, 0, len(r.roomOrder))
	for _, id := range r.roomOrder {
		if room, ok := r.rooms[id]; ok {
			views = append(views, RoomStatus{
				ID:      room.ID,
				Members: room.Len(),
				Full:    room.Full(),
				Names:   room.MemberNames(),
			})
		}
	}
	return views
}

// CloseAll disconnects every session, used at shutdown.
func (r *Registry) CloseAll(reason string) {
	for _, s := range r.SessionsSnapshot() {
		r.Disconnect(s, reason)
	}
}

// fanOut sends text to each target, dropping peers whose queue is full or
// whose connection is gone. Never called with the registry lock held.
func (r *Registry) fanOut(targets []*domain.Session, text string) {
	for _, s := range targets {
		r.sendOrDrop(s, text)
	}
}

func (r *Registry) sendOrDrop(s *domain.Session, text string) {
	if err := s.TrySend(text); err != nil {
		r.log.Error("Failed to send message", "session", int(s.ID), "remote", s.RemoteAddr, "err", err)
		r.Disconnect(s, "send failed")
	}
}

// lobbySessionsLocked snapshots sessions with no room, excluding the founder.
// Caller holds the lock.
func (r *Registry) lobbySessionsLocked(exclude *domain.Session) []*domain.Session {
	var out []*domain.Session
	for _, s := range r.sessions {
		if s == exclude {
			continue
		}
		if _, busy := s.Room(); !busy {
			out = append(out, s)
		}
	}
	return out
}
