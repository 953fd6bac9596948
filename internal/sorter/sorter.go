package sorter

import (
	"log/slog"

	"foldersort/internal/classify"
	"foldersort/internal/logging"
)

// Sorter builds and executes classification trees. A Sorter holds only
// immutable configuration and may be shared by concurrent runs on distinct
// roots.
type Sorter struct {
	classifier    *classify.Classifier
	logger        *slog.Logger
	pinDefault    bool
	dirPermission uint32
}

// Option customizes a Sorter.
type Option func(*Sorter)

// WithAlwaysCreateDefault pre-seeds the default category so its folder is
// created even when no file is classified into it.
func WithAlwaysCreateDefault(enabled bool) Option {
	return func(s *Sorter) {
		s.pinDefault = enabled
	}
}

// New constructs a Sorter. A nil classifier uses the built-in rules.
func New(classifier *classify.Classifier, logger *slog.Logger, opts ...Option) *Sorter {
	if classifier == nil {
		classifier = classify.New(nil)
	}
	s := &Sorter{
		classifier:    classifier,
		logger:        logging.NewComponentLogger(logger, "sorter"),
		dirPermission: 0o755,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Classifier exposes the classifier the sorter plans with.
func (s *Sorter) Classifier() *classify.Classifier {
	return s.classifier
}
