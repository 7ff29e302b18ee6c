package graph

import (
	"errors"
	"fmt"
	"strings"
)

// ErrDuplicateVersion is returned when a (contract, version label) pair has
// already been committed. Publish is append-only; re-submission is rejected
// rather than silently ignored so callers can tell "already applied" from
// "new".
var ErrDuplicateVersion = errors.New("contract version already published")

// ErrNotFound is returned by queries against a contract or version that is
// absent from the snapshot.
var ErrNotFound = errors.New("contract or version not found in graph")

// CycleError reports a publish that would close a dependency cycle. Path is
// the concrete sequence of version nodes from the rejected node back to the
// point of closure.
type CycleError struct {
	Path []VersionRef
}

func (e *CycleError) Error() string {
	parts := make([]string, 0, len(e.Path))
	for _, ref := range e.Path {
		parts = append(parts, ref.Key())
	}
	return fmt.Sprintf("dependency cycle detected: %s", strings.Join(parts, " -> "))
}
