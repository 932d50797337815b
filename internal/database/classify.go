package database

import (
	"context"
	"errors"
	"strings"

	"github.com/carddemo/carddemo-api/internal/models"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrorClass is the closed set of database failure categories. Classification
// is deliberately heuristic (message-substring matching plus error codes) and
// isolated here so the rules are testable apart from the retry loop.
type ErrorClass int

const (
	ClassTimeout ErrorClass = iota
	ClassConnection
	ClassConstraint
	ClassIntegrity
	ClassUnknownRecoverable
	ClassUnknown
)

// Recoverable reports whether an error of this class is worth retrying.
func (c ErrorClass) Recoverable() bool {
	switch c {
	case ClassTimeout, ClassConnection, ClassUnknownRecoverable:
		return true
	default:
		return false
	}
}

// Tag returns the action tag recorded in logs for this class.
func (c ErrorClass) Tag() string {
	switch c {
	case ClassTimeout:
		return "timeout_retry"
	case ClassConnection:
		return "connection_retry"
	case ClassConstraint:
		return "constraint_violation"
	case ClassIntegrity:
		return "integrity_violation"
	case ClassUnknownRecoverable:
		return "recoverable_retry"
	default:
		return "unknown_error"
	}
}

var (
	connectionIndicators  = []string{"connection", "connect", "network", "host", "server", "unreachable", "refused"}
	constraintIndicators  = []string{"constraint", "unique", "foreign key", "not null", "primary key"}
	recoverableIndicators = []string{"connection", "timeout", "network", "temporary", "retry"}
)

// Classify assigns a database error to one of the closed classes.
// First match wins: timeout, connection, constraint, integrity, then the
// generic recoverable indicators, then unknown.
func Classify(err error) ErrorClass {
	msg := strings.ToLower(err.Error())

	if errors.Is(err, context.DeadlineExceeded) || containsAny(msg, "timeout", "time out") {
		return ClassTimeout
	}

	if containsAny(msg, connectionIndicators...) {
		return ClassConnection
	}

	if errors.Is(err, models.ErrConflict) || containsAny(msg, constraintIndicators...) {
		return ClassConstraint
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// 22xxx data exceptions, 23xxx integrity violations
		if strings.HasPrefix(pgErr.Code, "22") || strings.HasPrefix(pgErr.Code, "23") {
			return ClassIntegrity
		}
	}

	if containsAny(msg, recoverableIndicators...) {
		return ClassUnknownRecoverable
	}

	return ClassUnknown
}

func containsAny(msg string, indicators ...string) bool {
	for _, indicator := range indicators {
		if strings.Contains(msg, indicator) {
			return true
		}
	}
	return false
}

// isDomainError reports whether err is a mapped domain sentinel rather than
// a raw database failure. These never enter the retry loop.
func isDomainError(err error) bool {
	for _, sentinel := range []error{
		models.ErrNotFound, models.ErrConflict, models.ErrBadRequest,
		models.ErrUnauthorized, models.ErrForbidden,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}
