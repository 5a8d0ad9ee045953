package errors

import stdErrors "errors"

// MVCCError is a specialized error type for the transaction layer. It embeds
// baseError to inherit standard error functionality, then adds the context a
// caller needs to decide whether to retry a transaction: which version was
// involved, which key triggered a conflict, and which lifecycle operation was
// in progress.
type MVCCError struct {
	*baseError

	// version identifies the transaction version involved in the error, if any.
	version uint64

	// key identifies the user key involved in the error, if any.
	key string

	// operation names the MVCC operation being performed (e.g. "Begin",
	// "Set", "Commit", "Rollback") when the error occurred.
	operation string
}

// NewMVCCError creates a new MVCC-specific error with the provided context.
func NewMVCCError(err error, code ErrorCode, msg string) *MVCCError {
	return &MVCCError{baseError: NewBaseError(err, code, msg)}
}

// WithMessage updates the error message while maintaining the MVCCError type.
func (me *MVCCError) WithMessage(msg string) *MVCCError {
	me.baseError.WithMessage(msg)
	return me
}

// WithCode sets the error code while preserving the MVCCError type.
func (me *MVCCError) WithCode(code ErrorCode) *MVCCError {
	me.baseError.WithCode(code)
	return me
}

// WithDetail adds contextual information while maintaining the MVCCError type.
func (me *MVCCError) WithDetail(key string, value any) *MVCCError {
	me.baseError.WithDetail(key, value)
	return me
}

// WithVersion records the transaction version involved in the error.
func (me *MVCCError) WithVersion(version uint64) *MVCCError {
	me.version = version
	return me
}

// WithKey records the user key involved in the error.
func (me *MVCCError) WithKey(key string) *MVCCError {
	me.key = key
	return me
}

// WithOperation records which MVCC operation was being performed.
func (me *MVCCError) WithOperation(operation string) *MVCCError {
	me.operation = operation
	return me
}

// Version returns the transaction version associated with the error.
func (me *MVCCError) Version() uint64 {
	return me.version
}

// Key returns the user key associated with the error.
func (me *MVCCError) Key() string {
	return me.key
}

// Operation returns the MVCC operation that was being performed.
func (me *MVCCError) Operation() string {
	return me.operation
}

// NewWriteConflictError builds the error returned when a transaction's
// conflict-check range scan finds a version it cannot see.
func NewWriteConflictError(version uint64, key string) *MVCCError {
	return NewMVCCError(nil, ErrorCodeSerialization, "write-write conflict detected").
		WithVersion(version).
		WithKey(key).
		WithOperation("Set").
		WithDetail("retryable", true)
}

// NewReadOnlyError builds the error returned when a write is attempted
// against a read-only transaction.
func NewReadOnlyError(version uint64, key string) *MVCCError {
	return NewMVCCError(nil, ErrorCodeReadOnly, "write attempted on read-only transaction").
		WithVersion(version).
		WithKey(key).
		WithOperation("Set").
		WithDetail("retryable", false)
}

// NewSnapshotNotFoundError builds an error for a version whose Snapshot
// record does not exist. BeginReadOnlyVersion does not return it: it treats
// a missing Snapshot record as an empty active set.
func NewSnapshotNotFoundError(version uint64) *MVCCError {
	return NewMVCCError(nil, ErrorCodeInvalidData, "snapshot not found for requested version").
		WithVersion(version).
		WithOperation("BeginReadOnlyVersion").
		WithDetail("recoverable", false)
}

// NewAbortError builds the error a Transaction returns when an operation
// (a write or a second Commit) is attempted after it already committed or
// rolled back.
func NewAbortError(operation string) *MVCCError {
	return NewMVCCError(nil, ErrorCodeAbort, "transaction has already finished").
		WithOperation(operation).
		WithDetail("retryable", true)
}

// NewTransactionNotActiveError builds the error returned when Resume is
// asked to reconstruct a read-write transaction whose Active(version) marker
// is gone: it already committed, already rolled back, or never began.
func NewTransactionNotActiveError(version uint64) *MVCCError {
	return NewMVCCError(nil, ErrorCodeAbort, "transaction is no longer active").
		WithVersion(version).
		WithOperation("Resume").
		WithDetail("retryable", false)
}

// IsMVCCError checks if the given error is an MVCCError or contains one in
// its error chain.
func IsMVCCError(err error) bool {
	var me *MVCCError
	return stdErrors.As(err, &me)
}

// AsMVCCError extracts an MVCCError from an error chain, exposing Version(),
// Key(), and Operation() for retry and logging decisions.
func AsMVCCError(err error) (*MVCCError, bool) {
	var me *MVCCError
	if stdErrors.As(err, &me) {
		return me, true
	}
	return nil, false
}
