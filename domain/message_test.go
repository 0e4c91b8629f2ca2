package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMessageFormats(t *testing.T) {
	req := require.New(t)

	req.Equal("[Alice]: hi", FormatChat("Alice", "hi"))
	req.Equal("Bob has joined the chat room.\n", JoinedNotice("Bob"))
	req.Equal("Bob has left the chat.\n", LeftNotice("Bob"))
	req.Equal("A new chat room has been created by Alice. Room ID: 1.\n", RoomCreatedNotice("Alice", 1))
	req.Equal("[Broadcast] maintenance at noon\n", AdminBroadcast("maintenance at noon"))
}
