package logger

import (
	"log/slog"
	"time"
)

// Error records err under "error". A nil error yields an empty Attr,
// which slog drops.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

func FlagCode(code string) slog.Attr { return slog.String("flag_code", code) }

// FlagID records a flag identifier; nil yields an empty Attr.
func FlagID(id any) slog.Attr {
	if id == nil {
		return slog.Attr{}
	}
	return slog.Any("flag_id", id)
}

func ChangeKind(kind string) slog.Attr { return slog.String("change_kind", kind) }

func CacheKey(key string) slog.Attr { return slog.String("cache_key", key) }

func RequestID(id string) slog.Attr { return slog.String("request_id", id) }

func Duration(d time.Duration) slog.Attr { return slog.Duration("duration", d) }

func Component(name string) slog.Attr { return slog.String("component", name) }
