package application

import (
	"github.com/rs/zerolog"

	"github.com/agentstation/learnstream/pkg/logging"
	"github.com/agentstation/learnstream/pkg/stream"
)

// Mock is an Application for tests. Unset funcs return zero values, a nop
// logger and the "json" output format.
type Mock struct {
	ClientFunc       func(opts ...stream.Option) (*stream.Client, error)
	StreamURLFunc    func() string
	CredentialFunc   func() string
	LoggerFunc       func() *zerolog.Logger
	OutputFormatFunc func() string
	VersionValue     string
}

var _ Application = (*Mock)(nil)

// Client implements Application.
func (m *Mock) Client(opts ...stream.Option) (*stream.Client, error) {
	if m.ClientFunc != nil {
		return m.ClientFunc(opts...)
	}
	return nil, nil
}

// StreamURL implements Application.
func (m *Mock) StreamURL() string {
	if m.StreamURLFunc != nil {
		return m.StreamURLFunc()
	}
	return ""
}

// Credential implements Application.
func (m *Mock) Credential() string {
	if m.CredentialFunc != nil {
		return m.CredentialFunc()
	}
	return ""
}

// Logger implements Application.
func (m *Mock) Logger() *zerolog.Logger {
	if m.LoggerFunc != nil {
		return m.LoggerFunc()
	}
	return logging.NewNopLogger()
}

// OutputFormat implements Application.
func (m *Mock) OutputFormat() string {
	if m.OutputFormatFunc != nil {
		return m.OutputFormatFunc()
	}
	return "json"
}

// Version implements Application.
func (m *Mock) Version() string {
	if m.VersionValue != "" {
		return m.VersionValue
	}
	return "test"
}

// Commit implements Application.
func (m *Mock) Commit() string { return "none" }

// Date implements Application.
func (m *Mock) Date() string { return "unknown" }

// BuiltBy implements Application.
func (m *Mock) BuiltBy() string { return "test" }
