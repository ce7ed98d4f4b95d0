package log

import (
	"context"

	"github.com/rs/zerolog"
)

type ctxKey struct{}

// WithLogger returns a context carrying the given logger.
func WithLogger(ctx context.Context, logger zerolog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, &logger)
}

// Ctx returns the logger carried by ctx, or the global logger when the
// context has none. Handlers put a scoped logger in the context so
// service and repository code logs with request or connection metadata
// without threading it explicitly.
func Ctx(ctx context.Context) zerolog.Logger {
	if l, ok := ctx.Value(ctxKey{}).(*zerolog.Logger); ok {
		return *l
	}
	return L()
}

// WithChannel derives a context whose logger carries the channel id,
// so everything logged on the join/leave/broadcast path is attributable
// to its room.
func WithChannel(ctx context.Context, channelID string) context.Context {
	l := Ctx(ctx).With().Str(FieldChannelID, channelID).Logger()
	return WithLogger(ctx, l)
}
