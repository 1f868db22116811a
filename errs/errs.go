// Package errs collects the sentinel errors FastCopy classifies on, per the
// error kinds in spec.md §7. Callers compare with errors.Is/errors.Cause
// (github.com/pkg/errors) since these sentinels travel wrapped through
// several layers of RPC and job-level context.
package errs

import "github.com/pkg/errors"

var (
	// ErrNotReplicatedYet is returned by AddBlock/AddBlockAndFetchMetaInfo
	// when the previous block hasn't finished replicating. FileCopyJob
	// retries on this, bounded, before treating it as fatal.
	ErrNotReplicatedYet = errors.New("not replicated yet")

	// ErrCrossFederation marks a source/destination namenode pair where one
	// side is federation-aware and the other isn't. Always fatal,
	// surfaced before any block is allocated.
	ErrCrossFederation = errors.New("cross-federation copy not supported")

	// ErrCommitTimeout marks a complete() poll loop that exceeded
	// MAX_WAIT_TIME without the namenode reporting the file committed.
	ErrCommitTimeout = errors.New("commit timed out")

	// ErrDrainTimeout marks a per-file block pool that didn't finish
	// draining within MAX_WAIT_TIME.
	ErrDrainTimeout = errors.New("block pool drain timed out")

	// ErrSourceNotFound marks a missing source path (precondition error).
	ErrSourceNotFound = errors.New("source path not found")

	// ErrDestinationTypeMismatch marks a destination whose existing type
	// (file vs directory) conflicts with the requested copy.
	ErrDestinationTypeMismatch = errors.New("destination type mismatch")

	// ErrEmptyGlob marks a source glob pattern that expanded to zero paths.
	ErrEmptyGlob = errors.New("source pattern matched no files")
)
