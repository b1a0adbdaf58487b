package apierror

import (
	"errors"
	"familynotes/cmd/internal/domain/entity"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrorResponse abstracts all API error responses to the user.
//
// This interface does not implement `error`, since its only purpose
// is to be used for API responses and not for logging circumstances.
//
// In general, the whole ErrorResponse can be sent for serialization.
type ErrorResponse interface {
	// Code is the HTTP status code to be returned.
	Code() int
}

type Kind string

const (
	KindNotFound                  Kind = "NotFound"
	KindForbidden                 Kind = "Forbidden"
	KindUnauthorized              Kind = "Unauthorized"
	KindBadRequest                Kind = "BadRequest"
	KindValidation                Kind = "ValidationFailed"
	KindInternal                  Kind = "Internal"
	KindLifecycleConflict         Kind = "LifecycleConflict"
	KindAlreadyResponded          Kind = "AlreadyResponded"
	KindMaxRepresentatives        Kind = "MaxRepresentativesReached"
	KindInvitationExpired         Kind = "InvitationExpired"
	KindInvitationAlreadyAccepted Kind = "InvitationAlreadyAccepted"
	KindSelfInvite                Kind = "SelfInviteRejected"
	KindDuplicateMembership       Kind = "DuplicateMembership"
	KindBlockedByLifecycle        Kind = "ActionBlockedByLifecycle"
	KindLastMember                Kind = "LastMemberGuard"
)

type APIError struct {
	Message string `json:"message"`
	Kind    Kind   `json:"kind"`
	Status  int    `json:"-"`

	// Lifecycle snapshot at the time of rejection, so callers can explain
	// why without refetching.
	LifecycleStatus entity.LifecycleStatus `json:"lifecycle_status,omitempty"`
	DeletionStatus  entity.DeletionStatus  `json:"deletion_status,omitempty"`
}

func (a *APIError) Code() int {
	return a.Status
}

// WithLifecycle returns a copy carrying the lifecycle snapshot.
func (a *APIError) WithLifecycle(l *entity.NoteLifecycle) *APIError {
	cp := *a
	if l != nil {
		cp.LifecycleStatus = l.Status
		cp.DeletionStatus = l.DeletionStatus
	}
	return &cp
}

type StructuredError struct {
	Errors map[string][]string `json:"errors"`
	Kind   Kind                `json:"kind"`
	Status int                 `json:"-"`
}

func (s *StructuredError) Code() int {
	return s.Status
}

func (s *StructuredError) Add(field, problem string) {
	s.Errors[field] = append(s.Errors[field], problem)
}

var (
	MalformedBodyError    = NewSimple(http.StatusBadRequest, KindBadRequest, "Malformed JSON body")
	InternalServerError   = NewSimple(http.StatusInternalServerError, KindInternal, "Internal server error")
	NotFoundError         = NewSimple(http.StatusNotFound, KindNotFound, "Resource not found")
	UnauthorizedError     = NewSimple(http.StatusUnauthorized, KindUnauthorized, "Missing or invalid credentials")
	InvalidAuthTokenError = NewSimple(http.StatusUnauthorized, KindUnauthorized, "Invalid auth token")

	/*
	 * Consent & lifecycle
	 */
	AlreadyRespondedError = NewSimple(http.StatusConflict, KindAlreadyResponded, "You have already responded, decisions cannot be changed")

	/*
	 * Invitations & membership
	 */
	InvitationExpiredError         = NewSimple(http.StatusGone, KindInvitationExpired, "Invitation has expired")
	InvitationAlreadyAcceptedError = NewSimple(http.StatusConflict, KindInvitationAlreadyAccepted, "Invitation was already accepted")
	SelfInviteError                = NewSimple(http.StatusBadRequest, KindSelfInvite, "You cannot join your own family")
	DuplicateMembershipError       = NewSimple(http.StatusConflict, KindDuplicateMembership, "You are already a member of this family")
	LastMemberError                = NewSimple(http.StatusConflict, KindLastMember, "The family cannot be left without members")
)

// FromValidationError maps validator failures to a field-keyed error.
// Anything else is reported as a malformed body.
func FromValidationError(err error) ErrorResponse {
	var ve validator.ValidationErrors
	ok := errors.As(err, &ve)
	if !ok {
		return MalformedBodyError
	}

	problems := map[string][]string{}
	for _, fe := range ve {
		field := strings.ToLower(fe.Field())

		switch fe.Tag() {
		case "required":
			problems[field] = append(problems[field], "This field is required")
		case "min":
			problems[field] = append(problems[field], "Value is too short, min: "+fe.Param())
		case "max":
			problems[field] = append(problems[field], "Value is too long, max: "+fe.Param())
		case "oneof":
			problems[field] = append(problems[field], "Value must be one of: "+fe.Param())
		case "category":
			problems[field] = append(problems[field], "Value must be a known category")
		case "nodupes":
			problems[field] = append(problems[field], "Value cannot contain duplicates")
		case "nospaces":
			problems[field] = append(problems[field], "Value cannot contain whitespaces")

		default:
			problems[field] = append(problems[field], "Invalid value provided")
		}
	}

	return &StructuredError{
		Errors: problems,
		Kind:   KindValidation,
		Status: http.StatusBadRequest,
	}
}

func NewSimple(status int, kind Kind, msg string, args ...any) *APIError {
	if len(args) > 0 {
		msg = fmt.Sprintf(msg, args...)
	}
	return &APIError{Status: status, Kind: kind, Message: msg}
}

func NewStructured(code int) *StructuredError {
	return &StructuredError{
		Errors: make(map[string][]string),
		Kind:   KindValidation,
		Status: code,
	}
}

func NewInvalidParamTypeError(name, dataType string) *APIError {
	return NewSimple(http.StatusBadRequest, KindBadRequest, "Parameter '%s' has invalid type, expected: %s", name, dataType)
}

func NewMissingParamError(name string) *APIError {
	return NewSimple(http.StatusBadRequest, KindBadRequest, "Missing required parameter '%s'", name)
}

func NewForbiddenError(msg string) *APIError {
	return NewSimple(http.StatusForbidden, KindForbidden, msg)
}

// NewLifecycleConflictError reports that the status precondition no longer
// holds. The caller should refetch; someone else most likely acted first.
func NewLifecycleConflictError(l *entity.NoteLifecycle, msg string) *APIError {
	return NewSimple(http.StatusConflict, KindLifecycleConflict, msg).WithLifecycle(l)
}

// NewBlockedByLifecycleError rejects membership changes that would corrupt an
// episode in flight.
func NewBlockedByLifecycleError(l *entity.NoteLifecycle, msg string) *APIError {
	return NewSimple(http.StatusConflict, KindBlockedByLifecycle, msg).WithLifecycle(l)
}

func NewMaxRepresentativesError(limit int) *APIError {
	return NewSimple(http.StatusConflict, KindMaxRepresentatives, "This family already has %d representatives (max: %d)", limit, limit)
}

// IsKind reports whether resp is an *APIError of the given kind.
func IsKind(resp ErrorResponse, kind Kind) bool {
	switch e := resp.(type) {
	case *APIError:
		return e.Kind == kind
	case *StructuredError:
		return e.Kind == kind
	default:
		return false
	}
}
