package logger_test

import (
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/flagkit/pkg/logger"
)

func TestAttrs(t *testing.T) {
	t.Parallel()
	err := errors.New("boom")

	tests := []struct {
		name    string
		attr    slog.Attr
		wantKey string
		want    any
	}{
		{name: "error", attr: logger.Error(err), wantKey: "error", want: err},
		{name: "flag code", attr: logger.FlagCode("BETA"), wantKey: "flag_code", want: "BETA"},
		{name: "flag id", attr: logger.FlagID("0b6f"), wantKey: "flag_id", want: "0b6f"},
		{name: "change kind", attr: logger.ChangeKind("created"), wantKey: "change_kind", want: "created"},
		{name: "cache key", attr: logger.CacheKey("BETA"), wantKey: "cache_key", want: "BETA"},
		{name: "request id", attr: logger.RequestID("abc"), wantKey: "request_id", want: "abc"},
		{name: "duration", attr: logger.Duration(time.Second), wantKey: "duration", want: time.Second},
		{name: "component", attr: logger.Component("featureflag"), wantKey: "component", want: "featureflag"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.wantKey, tt.attr.Key)
			assert.Equal(t, tt.want, tt.attr.Value.Any())
		})
	}
}

func TestAttrs_NilValues(t *testing.T) {
	t.Parallel()
	assert.True(t, logger.Error(nil).Equal(slog.Attr{}))
	assert.True(t, logger.FlagID(nil).Equal(slog.Attr{}))
}
