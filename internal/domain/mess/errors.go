package mess

import "errors"

var (
	ErrMessNotFound       = errors.New("mess not found")
	ErrMessIDTaken        = errors.New("mess id already taken")
	ErrMemberNotFound     = errors.New("member not found")
	ErrNotMember          = errors.New("not a member of this mess")
	ErrNotAdmin           = errors.New("admin privileges required")
	ErrWrongJoinKey       = errors.New("join key does not match")
	ErrEmptyDescription   = errors.New("description is required")
	ErrInvalidAmount      = errors.New("amount must be a positive number")
	ErrInvalidMealKey     = errors.New("invalid meal key")
	ErrInvalidMessID      = errors.New("mess id must be 8 uppercase alphanumeric characters")
	ErrInvalidJoinKey     = errors.New("join key must be 6 digits")
	ErrIDGenerationFailed = errors.New("mess id generation failed")
)
