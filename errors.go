package linhash

import (
	"errors"
	"fmt"
)

var (
	// ErrAllocationFailure is returned when the backing array could not grow.
	// The structure that reported it is left exactly as it was before the call.
	ErrAllocationFailure = errors.New("allocation failure")

	// ErrDuplicateKey is returned by a unique table when an insert or update
	// would make two records share a key.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrNotFound is returned when the record passed to Delete or Update
	// is not linked in the table.
	ErrNotFound = errors.New("record not found")

	// ErrInvalidKey is returned when a key extractor cannot be applied to
	// the record type.
	ErrInvalidKey = errors.New("invalid key extractor")

	// ErrCorrupted is returned by Check when the chain structure violates
	// one of the table invariants.
	ErrCorrupted = errors.New("hash table corrupted")

	// ErrOutOfRange is returned by Array.Set for a negative index.
	ErrOutOfRange = errors.New("index out of range")

	// ErrClosed is returned by mutations on a closed table.
	ErrClosed = errors.New("hash table closed")

	// ErrMemoryLimitExceeded is returned by a BudgetAllocator when a request
	// does not fit in the remaining budget.
	ErrMemoryLimitExceeded = errors.New("memory limit exceeded")
)

// KeyError reports the key involved in a failed table mutation.
//
// The sentinel (ErrDuplicateKey or ErrNotFound) can be matched with errors.Is.
type KeyError struct {
	Op    string
	Key   []byte
	cause error
}

func (e *KeyError) Error() string {
	return fmt.Sprintf("%s %q: %v", e.Op, e.Key, e.cause)
}

func (e *KeyError) Unwrap() error { return e.cause }

func keyError(op string, key []byte, cause error) error {
	return &KeyError{Op: op, Key: append([]byte(nil), key...), cause: cause}
}

func allocError(err error) error {
	if errors.Is(err, ErrAllocationFailure) {
		return err
	}

	return fmt.Errorf("%w: %w", ErrAllocationFailure, err)
}
