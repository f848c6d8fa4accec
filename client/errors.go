package client

import "errors"

// Errors for profile operations.
var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrNoProfiles      = errors.New("no profiles configured")
	ErrProfileExists   = errors.New("profile already exists")
)

// Errors for configuration validation.
var (
	ErrConfigRequired = errors.New("config is required")
	ErrAPIKeyRequired = errors.New("api key is required")
)

// Errors for input validation.
var (
	ErrNoPaths      = errors.New("no paths provided")
	ErrNotAJPEG     = errors.New("not a jpeg file")
	ErrLoginFailed  = errors.New("invalid username or password")
	ErrNotLoggedIn  = errors.New("login required")
	ErrEmptyImageID = errors.New("image id is required")
)
