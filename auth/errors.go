// ABOUTME: Typed errors raised while authorizing
// ABOUTME: Callers match them with errors.As to choose a response
package auth

import "fmt"

// ExchangeError means the provider rejected an authorization code.
type ExchangeError struct {
	Err error
}

func (e *ExchangeError) Error() string {
	return fmt.Sprintf("failed to exchange authorization code: %v", e.Err)
}

func (e *ExchangeError) Unwrap() error { return e.Err }

// PersistError means a credential was obtained but could not be stored.
type PersistError struct {
	Err error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("failed to save credential: %v", e.Err)
}

func (e *PersistError) Unwrap() error { return e.Err }
