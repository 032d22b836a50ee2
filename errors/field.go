package errors

import (
	"fmt"

	"github.com/pkg/errors"
)

// AppendField adds the error of a single message field to errs. Nothing is
// added if fieldErr is nil. Field names follow the Go struct field names.
func AppendField(errs error, field string, fieldErr error) error {
	if isNilErr(fieldErr) {
		return errs
	}
	if stackTrace(fieldErr) == nil {
		fieldErr = errors.WithStack(fieldErr)
	}
	return Append(errs, &fieldError{parent: fieldErr, field: field})
}

// fieldError binds an error to the message field it was reported for.
type fieldError struct {
	parent error
	field  string
}

func (err *fieldError) Error() string {
	return fmt.Sprintf("field %q: %s", err.field, err.parent)
}

func (err *fieldError) Cause() error {
	return err.parent
}

// FieldErrors returns all errors appended for the given field.
func FieldErrors(err error, field string) []error {
	var res []error
	for !isNilErr(err) {
		if fe, ok := err.(*fieldError); ok && fe.field == field {
			return append(res, err)
		}
		if u, ok := err.(unpacker); ok {
			for _, e := range u.Unpack() {
				res = append(res, FieldErrors(e, field)...)
			}
			return res
		}
		c, ok := err.(causer)
		if !ok {
			break
		}
		err = c.Cause()
	}
	return res
}
