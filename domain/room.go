package domain

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
)

type RoomID int

// Room is a capacity-bounded group of sessions, members kept in join order.
//
// A Room carries no lock of its own: every mutation and every read of the
// member list happens under the Registry's lock. A room lives as long as it
// has at least one member; the Registry destroys it the moment it empties.
type Room struct {
	ID       RoomID
	capacity int
	members  []*Session
}

func NewRoom(id RoomID, capacity int) *Room {
	return &Room{ID: id, capacity: capacity}
}

// TryAdd joins the session if there is space left and assigns its room id.
// Returns false without mutating anything when the room is full.
func (r *Room) TryAdd(s *Session) bool {
	if len(r.members) >= r.capacity {
		return false
	}
	r.members = append(r.members, s)
	s.AssignRoom(r.ID)
	return true
}

// Remove drops the session if present and clears its room id.
func (r *Room) Remove(s *Session) bool {
	for i, member := range r.members {
		if member == s {
			r.members = append(r.members[:i], r.members[i+1:]...)
			s.ClearRoom()
			return true
		}
	}
	return false
}

func (r *Room) Full() bool {
	return len(r.members) == r.capacity
}

func (r *Room) Len() int {
	return len(r.members)
}

// Members returns a snapshot of the member list so callers can fan out
// without holding the Registry lock.
func (r *Room) Members() []*Session {
	out := make([]*Session, len(r.members))
	copy(out, r.members)
	return out
}

func (r *Room) MemberNames() []string {
	return lo.Map(r.members, func(s *Session, _ int) string {
		return s.Name()
	})
}

func (r *Room) Summary() string {
	return fmt.Sprintf("Chat Room: %d | Users: %s", int(r.ID), strings.Join(r.MemberNames(), ","))
}
