package sentinel

// Compile-time check that Error implements the error interface.
var _ error = Error("")

// Error is a string-backed error type that can be declared as a const.
// Const declaration makes the sentinel immutable: unlike errors.New values
// stored in vars, it cannot be reassigned by client code.
//
// Error is comparable, so errors.Is matches it through wrapped chains with
// the default == comparison.
type Error string

// Error implements the error interface.
func (e Error) Error() string {
	return string(e)
}
