package apperr

import "errors"

// Kind classifies an error for callers that need to decide how to react to it
// (HTTP status, retry, user-facing toast).
type Kind int

const (
	KindInternal Kind = iota
	KindUnauthenticated
	KindForbidden
	KindNotFound
	KindConflict
	KindInsufficientFunds
	KindValidation
	KindTransient
)

func (k Kind) String() string {
	switch k {
	case KindUnauthenticated:
		return "UNAUTHENTICATED"
	case KindForbidden:
		return "FORBIDDEN"
	case KindNotFound:
		return "NOT_FOUND"
	case KindConflict:
		return "CONFLICT"
	case KindInsufficientFunds:
		return "INSUFFICIENT_FUNDS"
	case KindValidation:
		return "VALIDATION_ERROR"
	case KindTransient:
		return "TRANSIENT"
	default:
		return "INTERNAL"
	}
}

// Error is a business-rule failure returned to callers.
type Error struct {
	Kind    Kind
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Is reports whether target is the same error, or a kind-level sentinel
// (no Code) of the same Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t == e {
		return true
	}
	return t.Code == "" && t.Kind == e.Kind
}

// New creates a coded error of the given kind.
func New(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

// Validation creates a VALIDATION_ERROR with a custom message.
func Validation(message string) *Error {
	return New(KindValidation, KindValidation.String(), message)
}

// KindOf returns the Kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// CodeOf returns the code of the first *Error in err's chain.
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		if e.Code != "" {
			return e.Code
		}
		return e.Kind.String()
	}
	return KindInternal.String()
}

// Kind-level sentinels. errors.Is(err, ErrConflict) matches every conflict.
var (
	ErrUnauthenticated   = &Error{Kind: KindUnauthenticated, Message: "authentication required"}
	ErrForbidden         = &Error{Kind: KindForbidden, Message: "forbidden"}
	ErrNotFound          = &Error{Kind: KindNotFound, Message: "not found"}
	ErrConflict          = &Error{Kind: KindConflict, Message: "conflict"}
	ErrInsufficientFunds = &Error{Kind: KindInsufficientFunds, Message: "insufficient funds"}
	ErrValidation        = &Error{Kind: KindValidation, Message: "validation error"}
	ErrTransient         = &Error{Kind: KindTransient, Message: "temporary failure, please retry"}
)

var (
	ErrSessionNotFound    = New(KindNotFound, "SESSION_NOT_FOUND", "match session not found")
	ErrInvitationNotFound = New(KindNotFound, "INVITATION_NOT_FOUND", "invitation not found")

	ErrNotCreator     = New(KindForbidden, "NOT_CREATOR", "only the session creator can do this")
	ErrNotParticipant = New(KindForbidden, "NOT_PARTICIPANT", "only participants can do this")
	ErrWrongPassword  = New(KindForbidden, "WRONG_PASSWORD", "wrong session password")
	ErrNotInvitee     = New(KindForbidden, "NOT_INVITEE", "only the invitee can respond to this invitation")
	ErrNotInviter     = New(KindForbidden, "NOT_INVITER", "only the inviter can cancel this invitation")

	ErrSessionFull         = New(KindConflict, "SESSION_FULL", "team is already full")
	ErrAlreadyJoined       = New(KindConflict, "ALREADY_JOINED", "user already joined this session")
	ErrAlreadyParticipant  = New(KindConflict, "ALREADY_PARTICIPANT", "invitee is already a participant")
	ErrInvalidState        = New(KindConflict, "INVALID_STATE", "session is not in a valid state for this operation")
	ErrRosterNotFull       = New(KindConflict, "ROSTER_NOT_FULL", "session roster is not full")
	ErrExpired             = New(KindConflict, "EXPIRED", "invitation has expired")
	ErrDuplicateInvitation = New(KindConflict, "DUPLICATE_INVITATION", "a pending invitation already exists")
	ErrInvalidTransition   = New(KindConflict, "INVALID_TRANSITION", "invitation can no longer be changed")
)
