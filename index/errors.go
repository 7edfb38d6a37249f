package index

import "fmt"

// InitializationError reports that the persisted metadata index could not be
// read or parsed. It is recoverable: the engine stays uninitialized and the
// next operation retries.
type InitializationError struct {
	Err error
}

func (e *InitializationError) Error() string {
	return fmt.Sprintf("index not initialized: %v", e.Err)
}

func (e *InitializationError) Unwrap() error { return e.Err }

// StorageError reports a mutation that did not commit because persistence
// failed. Neither the metadata index nor the chunk store reflect the
// attempted change; the caller may retry.
type StorageError struct {
	Op         string
	DocumentID string
	Err        error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.DocumentID, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }
