package engine

import "errors"

// UserFormulaError reports a custom formula that could not be parsed or
// evaluated. Message is safe to show to the user.
type UserFormulaError struct {
	Formula string
	Message string
	Err     error
}

func (e *UserFormulaError) Error() string {
	return e.Message
}

func (e *UserFormulaError) Unwrap() error {
	return e.Err
}

// errUnavailable stops an expression evaluation when an operand cannot be
// computed for the query.
var errUnavailable = errors.New("operand unavailable")

// errNotNumeric stops an expression evaluation when an operand is a record.
var errNotNumeric = errors.New("operand is not numeric")
