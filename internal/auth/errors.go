package auth

import "errors"

var (
	// ErrUnauthenticated is returned by Require when the request has no valid session.
	ErrUnauthenticated = errors.New("authentication required")

	// ErrForbidden is returned by Require when the session lacks the permission.
	ErrForbidden = errors.New("permission denied")

	// ErrNoIDToken is returned when the OAuth2 token response doesn't contain an ID token.
	ErrNoIDToken = errors.New("no id_token in token response")

	// ErrUserAccountDisabled is returned when attempting to authenticate a disabled user account.
	ErrUserAccountDisabled = errors.New("user account is disabled")

	// ErrInvalidPassword is returned when the provided password is incorrect during authentication.
	ErrInvalidPassword = errors.New("invalid password")

	// ErrUserNotFound is returned when a user cannot be found in the database or directory.
	ErrUserNotFound = errors.New("user not found")

	// ErrMultipleUsersFound is returned when a directory search expected one user but found multiple.
	ErrMultipleUsersFound = errors.New("multiple users found")

	// ErrAutoCreateDisabled is returned when an unknown external user logs in and auto creation is off.
	ErrAutoCreateDisabled = errors.New("external user is unknown and auto creation is disabled")

	// ErrUsernameTaken is returned when an external identity maps to a username owned by another account.
	ErrUsernameTaken = errors.New("username is already used by another account")
)
