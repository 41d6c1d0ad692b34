package gate

import "errors"

var (
	ErrUnauthorized    = errors.New("gate: not authorized")
	ErrNoPolicyDefined = errors.New("gate: no policy for resource type")
)
