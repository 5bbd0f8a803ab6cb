package model

import "errors"

var (
	ErrInvalidTenant        = errors.New("invalid tenant domain")
	ErrIncompleteSubmission = errors.New("incomplete form submission")
	ErrUnknownConversation  = errors.New("unknown conversation")
	ErrAuthStateMismatch    = errors.New("auth state does not match pending sign-in")
	ErrDirectory            = errors.New("directory service error")
	ErrNoHandler            = errors.New("no handler registered for action")
)
