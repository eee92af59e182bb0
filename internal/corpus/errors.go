package corpus

import "errors"

// ErrBackendUnavailable marks search failures caused by the embedding
// backend or the index being unreachable. Callers degrade these to a
// user-safe message instead of failing the turn.
var ErrBackendUnavailable = errors.New("retrieval backend unavailable")

// ErrInvalidK is returned by index implementations when the result cap is
// not positive. The Store never forwards k=0 to an index.
var ErrInvalidK = errors.New("result cap must be positive")

// ErrChunkEmbeddingMismatch is returned when an upsert receives unequal
// chunk and embedding counts.
var ErrChunkEmbeddingMismatch = errors.New("chunk and embedding counts differ")
