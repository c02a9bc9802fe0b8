package access

import "errors"

// ErrNoCredentials matches any *NoCredentialsError via errors.Is.
var ErrNoCredentials = errors.New("no API key credentials configured")

// NoCredentialsError reports that the credential source resolved to an empty
// list. It is fatal to a build and is not retried; an operator has to supply
// at least one credential.
type NoCredentialsError struct {
	// Source names where the credentials were loaded from, when known.
	Source string
}

func (e *NoCredentialsError) Error() string {
	if e.Source != "" {
		return ErrNoCredentials.Error() + " (source: " + e.Source + "); refusing to provision an unauthenticated API"
	}
	return ErrNoCredentials.Error() + "; refusing to provision an unauthenticated API"
}

// Is makes errors.Is(err, ErrNoCredentials) hold.
func (e *NoCredentialsError) Is(target error) bool {
	return target == ErrNoCredentials
}
