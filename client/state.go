package client

import (
	"context"
	"sort"
)

// AppState models a gallery session. Anyone can browse the gallery;
// logging in with the owner's credentials unlocks upload and delete.
type AppState struct {
	client *Client

	// Credentials the session was configured with, checked on Login.
	username string
	password string

	Authenticated bool
	LoginError    string
	Images        []ImageData
	Loading       bool
	Uploading     bool
}

// NewAppState creates a session bound to a client and the owner's
// credentials.
func NewAppState(c *Client, username, password string) *AppState {
	return &AppState{
		client:   c,
		username: username,
		password: password,
	}
}

// Load fetches the gallery from the server, sorted newest first.
func (s *AppState) Load(ctx context.Context) error {
	s.Loading = true
	defer func() { s.Loading = false }()

	images, err := s.client.List(ctx)
	if err != nil {
		return err
	}

	sort.SliceStable(images, func(i, j int) bool {
		return images[i].Date.After(images[j].Date)
	})
	s.Images = images
	return nil
}

// Login checks the supplied credentials against the session's configured
// pair. On failure LoginError is set and the session stays logged out.
func (s *AppState) Login(username, password string) bool {
	if s.username == "" || username != s.username || password != s.password {
		s.LoginError = ErrLoginFailed.Error()
		s.Authenticated = false
		return false
	}
	s.Authenticated = true
	s.LoginError = ""
	return true
}

// Logout ends the authenticated session. The gallery stays viewable.
func (s *AppState) Logout() {
	s.Authenticated = false
}

// Upload sends local files to the gallery. On success the list is
// reloaded from the server rather than patched locally.
func (s *AppState) Upload(ctx context.Context, paths []string) (*UploadOutcome, error) {
	if !s.Authenticated {
		return nil, ErrNotLoggedIn
	}

	s.Uploading = true
	defer func() { s.Uploading = false }()

	outcome, err := s.client.Upload(ctx, paths)
	if err != nil {
		return outcome, err
	}

	if err := s.Load(ctx); err != nil {
		return outcome, err
	}
	return outcome, nil
}

// Delete removes an image from the gallery and reloads the list.
func (s *AppState) Delete(ctx context.Context, id string) error {
	if !s.Authenticated {
		return ErrNotLoggedIn
	}

	if err := s.client.Delete(ctx, id); err != nil {
		return err
	}

	return s.Load(ctx)
}

// Grouped returns the current images bucketed by month.
func (s *AppState) Grouped() map[string][]ImageData {
	return GroupByMonth(s.Images)
}

// SortedMonths returns the months of the current images, newest first.
func (s *AppState) SortedMonths() []string {
	return SortedMonths(s.Grouped())
}
