package shared

import "errors"

// ErrInvalidCredentials indicates a failed password login. It deliberately
// does not say whether the login exists.
var ErrInvalidCredentials = errors.New("invalid credentials")
