package errors

import "fmt"

var (
	ErrInvalidIdentity = fmt.Errorf("invalid user identity")
	ErrNotFound        = fmt.Errorf("not found")
	ErrSelfReference   = fmt.Errorf("actor and target are the same user")
	ErrBlocked         = fmt.Errorf("delivery blocked by relationship state")
	ErrNotIdentified   = fmt.Errorf("event received before join completed")
	ErrStorageFailure  = fmt.Errorf("storage failure")

	ErrUserAlreadyExists  = fmt.Errorf("user already exists")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")
	ErrInvalidPassword    = fmt.Errorf("password does not meet complexity rules")
	ErrTokenGeneration    = fmt.Errorf("token generation failed")

	ErrWorkerPanic = fmt.Errorf("worker panic")
)
