package credentials

import "errors"

// ErrAssumeRole wraps any role-assumption failure. Fatal for the request
// that needed the credential; the broker never retries internally.
var ErrAssumeRole = errors.New("role assumption failed")

var errMissingCredentials = errors.New("response contained no credentials")

func errAssume(err error) error {
	return errors.Join(ErrAssumeRole, err)
}

// IsAuthFailure reports whether err stems from a failed role assumption.
func IsAuthFailure(err error) bool {
	return errors.Is(err, ErrAssumeRole)
}
