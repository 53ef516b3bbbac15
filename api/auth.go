package api

import (
	"context"
	"errors"
	"net/http"
)

type signInRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// SignIn exchanges credentials for a session token and identity snapshot.
// Any non-2xx status is reported as a [StatusError]; the session manager
// treats all of them as invalid credentials.
func (c *Client) SignIn(ctx context.Context, username, password string) (*SignInResponse, error) {
	if username == "" || password == "" {
		return nil, errors.New("api: username and password required")
	}

	var out SignInResponse
	err := c.do(ctx, http.MethodPost, "/api/auth/signin", signInRequest{
		Username: username,
		Password: password,
	}, &out)
	if err != nil {
		return nil, err
	}
	if out.AccessToken == "" {
		return nil, errors.New("api: signin response missing accessToken")
	}
	return &out, nil
}
