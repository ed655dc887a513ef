package commands

import (
	"context"
	"errors"

	goerrors "github.com/goliatone/go-errors"
)

// Text codes attached to errors leaving a Handler.
const (
	CodeInvalidMessage = "EDIT_INVALID"
	CodeCanceled       = "EDIT_CANCELED"
	CodeTimeout        = "EDIT_TIMEOUT"
	CodeFailed         = "EDIT_FAILED"
)

func alreadyTagged(err error) bool {
	return err == nil || goerrors.IsWrapped(err)
}

func invalidMessage(err error) error {
	if alreadyTagged(err) {
		return err
	}
	return goerrors.Wrap(err, goerrors.CategoryValidation, "edit rejected").WithTextCode(CodeInvalidMessage)
}

func contextFailure(err error) error {
	if alreadyTagged(err) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return goerrors.Wrap(err, goerrors.CategoryCommand, "edit exceeded its deadline").WithTextCode(CodeTimeout)
	}
	return goerrors.Wrap(err, goerrors.CategoryCommand, "edit cancelled").WithTextCode(CodeCanceled)
}

func executionFailure(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return contextFailure(err)
	}
	if alreadyTagged(err) {
		return err
	}
	return goerrors.Wrap(err, goerrors.CategoryCommand, "edit failed").WithTextCode(CodeFailed)
}

// TimedOut reports whether err is a handler deadline failure.
func TimedOut(err error) bool {
	return errors.Is(err, context.DeadlineExceeded)
}
