package main

import "time"

type Config struct {
	Host                string        `env:"SERVER_HOST,default=127.0.0.1"`
	Port                int           `env:"SERVER_PORT,default=10000"`
	MaxConnections      int           `env:"MAX_CONNECTIONS,default=5" validate:"min=1"`
	MaxBufferSize       int           `env:"MAX_BUFFER_SIZE,default=1024" validate:"min=1"`
	MaxChatSize         int           `env:"MAX_CHAT_SIZE,default=2" validate:"min=1"`
	SendQueueSize       int           `env:"SEND_QUEUE_SIZE,default=32" validate:"min=1"`
	SendTimeout         time.Duration `env:"SEND_TIMEOUT,default=5s"`
	RestartInterval     time.Duration `env:"RESTART_INTERVAL,default=200ms"`
	CensorReplacement   string        `env:"MODERATION_CHARACTER_REPLACEMENT,default=*" validate:"len=1"`
	LogLevel            string        `env:"LOG_LEVEL,default=DEBUG"`
	EnableAdminCommands bool          `env:"ENABLE_ADMIN_COMMANDS,default=true"`
}
