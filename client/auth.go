package client

import "context"

// Authentication endpoints. The backend keeps the session in an httpOnly
// cookie, so beyond the envelope there is no token handling here.

// SyncProfile establishes a server session from an external identity
// provider login and returns the synced user snapshot. Callers owning a
// SessionStore should record the result with store.Set.
func (c *Client) SyncProfile(ctx context.Context, req SyncProfileRequest) (*SyncProfileResponse, error) {
	if req.AuthingID == "" {
		return nil, errMissing("authingId")
	}
	if req.Token == "" {
		return nil, errMissing("token")
	}
	var resp SyncProfileResponse
	if err := c.post(ctx, "/auth/sync", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Logout tears down the server-side session. The server clears the session
// cookie; local state is the SessionStore owner's responsibility.
func (c *Client) Logout(ctx context.Context) error {
	return c.post(ctx, "/auth/logout", nil, nil)
}
