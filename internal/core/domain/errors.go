package domain

import (
	"errors"
	"fmt"
)

// Kind classifies a failure by the reconciliation stage that produced it.
// Every external side-effect failure must be attributable to one stage.
type Kind string

const (
	KindValidation     Kind = "validation"
	KindNotFound       Kind = "not_found"
	KindPersistence    Kind = "persistence"
	KindConfigWrite    Kind = "config_write"
	KindActivation     Kind = "activation"
	KindReload         Kind = "reload"
	KindCertIssuance   Kind = "certificate_issuance"
	KindCertRevocation Kind = "certificate_revocation"
	KindAuth           Kind = "authentication"
	KindUnexpected     Kind = "unexpected"
)

// Error attributes a failure to a stage and the operation that hit it.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Err != nil && e.Message != "" {
		msg = fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	if e.Op != "" {
		return fmt.Sprintf("%s: %s", e.Op, msg)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// E builds a stage error.
func E(kind Kind, op, message string, err error) *Error {
	return &Error{Kind: kind, Op: op, Message: message, Err: err}
}

// KindOf extracts the stage kind; unclassified errors map to KindUnexpected.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindUnexpected
}

func IsKind(err error, kind Kind) bool { return err != nil && KindOf(err) == kind }
