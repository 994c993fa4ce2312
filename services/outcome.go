package services

import (
	"errors"

	"ecom-admin/auth"
)

// Codes for request problems outside the authorization taxonomy.
const (
	CodeInvalidArgument auth.Code = "INVALID_ARGUMENT"
	CodeConflict        auth.Code = "CONFLICT"
)

// Outcome maps any service error onto an outcome code and a message safe to show callers.
// Validation and conflict messages are written by the services and carry no internal detail.
func Outcome(err error) (auth.Code, string) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return CodeInvalidArgument, err.Error()
	case errors.Is(err, ErrEmailTaken):
		return CodeConflict, err.Error()
	}
	return auth.CodeOf(err), auth.PublicMessage(err)
}
