package moderation

import (
	"bufio"
	"embed"
	"log/slog"
	"strings"

	"tcp-chat/errors"
)

//go:embed censored/*
var censoredFolder embed.FS

// LoadEmbeddedWords reads every file under censored/ and returns one banned
// word per non-empty line.
func LoadEmbeddedWords() ([]string, error) {
	entries, err := censoredFolder.ReadDir("censored")
	if err != nil {
		return nil, err
	}

	var words []string
	for _, entry := range entries {
		if entry.IsDir() {
			return nil, errors.ErrOnlyCensoredFiles
		}
		f, err := censoredFolder.Open("censored/" + entry.Name())
		if err != nil {
			return nil, err
		}
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			word := strings.TrimSpace(scanner.Text())
			if word != "" {
				words = append(words, word)
			}
		}
		_ = f.Close()
		if err := scanner.Err(); err != nil {
			return nil, err
		}
	}

	if len(words) == 0 {
		return nil, errors.ErrEmptyWords
	}
	return words, nil
}

// NewDefaultModerator builds a moderator from the embedded word list.
func NewDefaultModerator(censoredChar rune, log *slog.Logger) (*Moderator, error) {
	words, err := LoadEmbeddedWords()
	if err != nil {
		return nil, err
	}
	return NewModerator(words, censoredChar, log)
}
