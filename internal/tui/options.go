package tui

import "strings"

type Option func(*Model)

// WithKeyConfig applies configured key overrides.
func WithKeyConfig(cfg KeyConfig) Option {
	return func(m *Model) {
		m.keys.applyConfig(cfg)
	}
}

// WithTitle replaces the header title, usually with the active namespace.
func WithTitle(title string) Option {
	return func(m *Model) {
		if title = strings.TrimSpace(title); title != "" {
			m.title = title
		}
	}
}

// WithClipboard replaces the clipboard writer used by the copy-report key.
func WithClipboard(write func(string) error) Option {
	return func(m *Model) {
		if write != nil {
			m.copy = write
		}
	}
}
