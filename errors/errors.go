package errors

import "fmt"

var (
	ErrWorkerPanic       = fmt.Errorf("worker panic")
	ErrSessionClosed     = fmt.Errorf("session is closed")
	ErrSendFailed        = fmt.Errorf("send to peer failed")
	ErrRoomFull          = fmt.Errorf("chat room is full")
	ErrRoomNotFound      = fmt.Errorf("chat room does not exist")
	ErrServerFull        = fmt.Errorf("server reached its connection limit")
	ErrOnlyCensoredFiles = fmt.Errorf("censored directory contains directories")
	ErrEmptyWords        = fmt.Errorf("no words have been found")
)
