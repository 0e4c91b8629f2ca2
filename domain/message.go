// Package domain contains core concepts of the chat system:
// sessions, rooms, and the wire text they exchange.
// No network listening, configuration, or UI logic should be added here.
package domain

import "fmt"

// FormatChat renders user chat text the way peers receive it.
func FormatChat(sender, text string) string {
	return fmt.Sprintf("[%s]: %s", sender, text)
}

// System notices are unprefixed plain text ending in a newline,
// distinct from user chat text.

func JoinedNotice(name string) string {
	return fmt.Sprintf("%s has joined the chat room.\n", name)
}

func LeftNotice(name string) string {
	return fmt.Sprintf("%s has left the chat.\n", name)
}

func RoomCreatedNotice(name string, id RoomID) string {
	return fmt.Sprintf("A new chat room has been created by %s. Room ID: %d.\n", name, int(id))
}

func AdminBroadcast(text string) string {
	return fmt.Sprintf("[Broadcast] %s\n", text)
}
