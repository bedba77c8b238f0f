package main

import (
	"github.com/rs/zerolog"
)

// zerologAdapter bridges the socket Logger interface onto a zerolog
// logger. Args follow the slog convention of alternating keys and values.
type zerologAdapter struct {
	logger zerolog.Logger
}

func (z zerologAdapter) Debug(msg string, args ...any) { z.emit(z.logger.Debug(), msg, args) }

func (z zerologAdapter) Info(msg string, args ...any) { z.emit(z.logger.Info(), msg, args) }

func (z zerologAdapter) Warn(msg string, args ...any) { z.emit(z.logger.Warn(), msg, args) }

func (z zerologAdapter) Error(msg string, args ...any) { z.emit(z.logger.Error(), msg, args) }

func (z zerologAdapter) emit(event *zerolog.Event, msg string, args []any) {
	for i := 0; i+1 < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			continue
		}
		event = event.Interface(key, args[i+1])
	}
	event.Msg(msg)
}
