package client

import "errors"

// ErrVerificationMismatch is the fatal error raised when a client's
// post-run check finds the server disagreeing with its own local mirror
// for some key it wrote.
var ErrVerificationMismatch = errors.New("client: verification mismatch")
