package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Environment names understood by WithEnvironment.
const (
	EnvDevelopment = "development"
	EnvStaging     = "staging"
	EnvProduction  = "production"
)

// Option configures New.
type Option func(*config)

type config struct {
	level      slog.Level
	text       bool
	output     io.Writer
	attrs      []slog.Attr
	extractors []ContextExtractor
}

// preset is the format and level picked for an environment.
type preset struct {
	env   string
	level slog.Level
	text  bool
}

var presets = map[string]preset{
	EnvDevelopment: {env: EnvDevelopment, level: slog.LevelDebug, text: true},
	"dev":          {env: EnvDevelopment, level: slog.LevelDebug, text: true},
	EnvStaging:     {env: EnvStaging, level: slog.LevelInfo},
	"stage":        {env: EnvStaging, level: slog.LevelInfo},
	EnvProduction:  {env: EnvProduction, level: slog.LevelInfo},
	"prod":         {env: EnvProduction, level: slog.LevelInfo},
}

// WithEnvironment applies the preset for env and tags every record with
// "service" and "env". Development logs text at debug level; staging and
// production log JSON at info level. Unknown names fall back to development.
func WithEnvironment(env, service string) Option {
	return func(c *config) {
		p, ok := presets[strings.ToLower(env)]
		if !ok {
			p = presets[EnvDevelopment]
		}
		c.level, c.text = p.level, p.text
		if service != "" {
			c.attrs = append(c.attrs, slog.String("service", service))
		}
		c.attrs = append(c.attrs, slog.String("env", p.env))
	}
}

// WithLevel sets the minimum level.
func WithLevel(l slog.Level) Option {
	return func(c *config) { c.level = l }
}

// WithText switches between text (true) and JSON (false) output.
func WithText(text bool) Option {
	return func(c *config) { c.text = text }
}

// WithOutput sets the destination. Nil is ignored.
func WithOutput(w io.Writer) Option {
	return func(c *config) {
		if w != nil {
			c.output = w
		}
	}
}

// WithAttr adds static attributes to every record.
func WithAttr(attrs ...slog.Attr) Option {
	return func(c *config) { c.attrs = append(c.attrs, attrs...) }
}

// WithContextExtractors registers functions that add attributes taken from
// the context passed to the *Context logging methods. Nil entries are skipped.
func WithContextExtractors(extractors ...ContextExtractor) Option {
	return func(c *config) {
		for _, ex := range extractors {
			if ex != nil {
				c.extractors = append(c.extractors, ex)
			}
		}
	}
}

// New builds a logger. Without options it writes JSON at info level to stdout.
func New(opts ...Option) *slog.Logger {
	cfg := &config{level: slog.LevelInfo, output: os.Stdout}
	for _, opt := range opts {
		opt(cfg)
	}

	handlerOpts := &slog.HandlerOptions{Level: cfg.level}
	var h slog.Handler
	if cfg.text {
		h = slog.NewTextHandler(cfg.output, handlerOpts)
	} else {
		h = slog.NewJSONHandler(cfg.output, handlerOpts)
	}
	if len(cfg.attrs) > 0 {
		h = h.WithAttrs(cfg.attrs)
	}
	if len(cfg.extractors) > 0 {
		h = &contextHandler{next: h, extractors: cfg.extractors}
	}
	return slog.New(h)
}

// SetAsDefault installs l as the slog default logger.
func SetAsDefault(l *slog.Logger) {
	slog.SetDefault(l)
}
