package output

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// Sink defines a destination for check results.
type Sink interface {
	Write(v any) error
	Close() error
}

// Manager fans every event out to its sinks. A sink whose Write fails is
// logged and skipped for the rest of the run so one broken destination does
// not repeat the same error for every event; the others keep receiving.
type Manager struct {
	sinks  []Sink
	broken []bool
	logger *zap.Logger
}

func NewManager(logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{logger: logger}
}

func (m *Manager) AddSink(s Sink) error {
	if m == nil {
		return fmt.Errorf("output manager is nil")
	}
	if s == nil {
		return fmt.Errorf("sink must not be nil")
	}
	m.sinks = append(m.sinks, s)
	m.broken = append(m.broken, false)
	return nil
}

// Len returns the number of sinks.
func (m *Manager) Len() int {
	if m == nil {
		return 0
	}
	return len(m.sinks)
}

func (m *Manager) Write(v any) error {
	if m == nil {
		return fmt.Errorf("output manager is nil")
	}
	var errs []error
	for i, s := range m.sinks {
		if m.broken[i] {
			continue
		}
		if err := s.Write(v); err != nil {
			m.broken[i] = true
			m.logger.Warn("output sink failed; skipping it for the rest of the run",
				zap.String("sink", fmt.Sprintf("%T", s)), zap.Error(err))
			errs = append(errs, fmt.Errorf("write %T: %w", s, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("errors writing to sinks: %w", errors.Join(errs...))
	}
	return nil
}

// Close closes every sink, including broken ones, so files are released.
func (m *Manager) Close() error {
	if m == nil {
		return fmt.Errorf("output manager is nil")
	}
	var errs []error
	for _, s := range m.sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %T: %w", s, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("errors closing sinks: %w", errors.Join(errs...))
	}
	return nil
}
