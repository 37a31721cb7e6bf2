package client

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/conduit-lang/nanowrimo/pkg/nano/fault"
	"github.com/conduit-lang/nanowrimo/pkg/nano/model"
	"github.com/conduit-lang/nanowrimo/pkg/nano/session"
	"github.com/conduit-lang/nanowrimo/pkg/nano/transport"
)

const (
	signInPath = "users/sign_in"
	logoutPath = "users/logout"
)

// Login signs in with the stored credentials
func (c *Client) Login(ctx context.Context) error {
	creds := c.session.Credentials()
	if !creds.Complete() {
		return fault.Contract("login", "no credentials to log in with")
	}
	_, err := c.login(ctx, creds)
	return err
}

// LoginWith signs in with new credentials. They replace the stored ones only
// when the login succeeds.
func (c *Client) LoginWith(ctx context.Context, identifier, secret string) error {
	creds := session.Credentials{Identifier: identifier, Secret: secret}
	if !creds.Complete() {
		return fault.Contract("login", "identifier and secret are both required")
	}
	_, err := c.login(ctx, creds)
	return err
}

// login performs the sign-in exchange. It never carries a token and is
// never retried.
func (c *Client) login(ctx context.Context, creds session.Credentials) (string, error) {
	const op = "login"

	body, err := c.send(ctx, op, &transport.Request{
		Method: http.MethodPost,
		Path:   signInPath,
		Body:   model.LoginRequest{Identifier: creds.Identifier, Password: creds.Secret},
	})
	if err != nil {
		c.logger.Info("login failed", zap.String("identifier", creds.Identifier), zap.Error(err))
		return "", err
	}

	var resp model.LoginResponse
	if err := decodeJSON(op, body, &resp); err != nil {
		return "", err
	}
	if resp.AuthToken == "" {
		return "", fault.Decodef(op, "response has no auth_token")
	}

	if err := c.session.Authenticate(ctx, creds, resp.AuthToken); err != nil {
		c.logger.Warn("could not save session token", zap.String("identifier", creds.Identifier), zap.Error(err))
	}
	c.logger.Info("logged in", zap.String("identifier", creds.Identifier))
	return resp.AuthToken, nil
}

// relogin replaces a rejected token. Concurrent callers holding the same
// stale token share a single sign-in exchange.
func (c *Client) relogin(ctx context.Context, stale string) (string, error) {
	token, err, _ := c.logins.Do("login", func() (interface{}, error) {
		if current := c.session.Token(); current != "" && current != stale {
			return current, nil
		}
		creds := c.session.Credentials()
		if !creds.Complete() {
			return "", fault.Contract("login", "token expired and no credentials are stored")
		}
		return c.login(ctx, creds)
	})
	if err != nil {
		return "", err
	}
	return token.(string), nil
}

// Logout ends the session. Calling it without a session is a contract
// failure and sends nothing.
func (c *Client) Logout(ctx context.Context) error {
	const op = "logout"

	token := c.session.Token()
	if token == "" {
		return fault.Contract(op, "not logged in")
	}
	if _, err := c.send(ctx, op, &transport.Request{
		Method: http.MethodPost,
		Path:   logoutPath,
		Token:  token,
	}); err != nil {
		return err
	}

	identifier := c.session.Credentials().Identifier
	if err := c.session.Clear(ctx); err != nil {
		c.logger.Warn("could not remove saved session token", zap.String("identifier", identifier), zap.Error(err))
	}
	c.logger.Info("logged out", zap.String("identifier", identifier))
	return nil
}

// ChangeCredentials switches the account the client acts for. An empty
// string means the value is omitted: both set logs in as the new account,
// both empty leaves the client anonymous, and exactly one set is a contract
// failure detected before anything is sent.
func (c *Client) ChangeCredentials(ctx context.Context, identifier, secret string) error {
	creds := session.Credentials{Identifier: identifier, Secret: secret}
	if !creds.Complete() && !creds.Empty() {
		return fault.Contract("change credentials", "identifier and secret must be given together")
	}

	if c.session.Authenticated() {
		if err := c.Logout(ctx); err != nil {
			return err
		}
	}

	if creds.Empty() {
		c.session.SetCredentials(session.Credentials{})
		return nil
	}
	c.session.SetCredentials(creds)
	_, err := c.login(ctx, creds)
	return err
}
