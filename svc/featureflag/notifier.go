package featureflag

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrymomot/flagkit/pkg/feature"
)

// ChangeKind names a flag mutation.
type ChangeKind string

const (
	ChangeCreated  ChangeKind = "created"
	ChangeUpdated  ChangeKind = "updated"
	ChangeEnabled  ChangeKind = "enabled"
	ChangeDisabled ChangeKind = "disabled"
	ChangeDeleted  ChangeKind = "deleted"
)

// ParseChangeKind converts a case-insensitive name to a ChangeKind.
func ParseChangeKind(s string) (ChangeKind, error) {
	k := ChangeKind(strings.ToLower(strings.TrimSpace(s)))
	switch k {
	case ChangeCreated, ChangeUpdated, ChangeEnabled, ChangeDisabled, ChangeDeleted:
		return k, nil
	}
	return "", fmt.Errorf("unknown change kind %q", s)
}

// Notifier announces flag changes to an external channel.
type Notifier interface {
	Notify(ctx context.Context, flag *feature.Flag, kind ChangeKind) error
}

// NoOpNotifier discards every change.
type NoOpNotifier struct{}

func (NoOpNotifier) Notify(context.Context, *feature.Flag, ChangeKind) error { return nil }

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(ctx context.Context, flag *feature.Flag, kind ChangeKind) error

func (f NotifierFunc) Notify(ctx context.Context, flag *feature.Flag, kind ChangeKind) error {
	return f(ctx, flag, kind)
}
