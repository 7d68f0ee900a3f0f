package mock

import "errors"

// Mock package errors.
var (
	// ErrInjected is a generic failure tests can hand to the fake.
	ErrInjected = errors.New("injected failure")
)
