// Package errors provides the bridge error taxonomy.
//
// Registration errors are fatal to startup. Per-request errors are converted
// by the dispatcher into an error envelope and never crash the process.
package errors

// Kind is a machine-readable error kind reported to the UI layer as
// error_kind.
type Kind string

const (
	// Registration-time errors.
	KindDuplicateCommand   Kind = "DuplicateCommand"
	KindInvalidCommandName Kind = "InvalidCommandName"
	KindRegistrySealed     Kind = "RegistrySealed"

	// Per-request errors.
	KindCommandNotFound      Kind = "CommandNotFound"
	KindMalformedRequest     Kind = "MalformedRequest"
	KindArgumentTypeMismatch Kind = "ArgumentTypeMismatch"

	// KindHandlerError is reported for handler failures that carry no kind of
	// their own.
	KindHandlerError Kind = "HandlerError"
	// KindInternal is reported when a response cannot be produced, e.g. the
	// handler result does not serialize.
	KindInternal Kind = "Internal"
)

// Registration reports whether the kind belongs to the startup-time group.
func (k Kind) Registration() bool {
	switch k {
	case KindDuplicateCommand, KindInvalidCommandName, KindRegistrySealed:
		return true
	default:
		return false
	}
}

// String returns the wire form of the kind.
func (k Kind) String() string {
	return string(k)
}
