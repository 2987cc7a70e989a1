package idp

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/whatthepack/whatthepack/pkg/domain/types"
	"github.com/whatthepack/whatthepack/pkg/utils/apperr"
)

// OAuth drives the browser-facing authorization-code login flow, as opposed
// to Client which talks to the management API with machine credentials.
type OAuth struct {
	domain       string
	clientID     string
	clientSecret string
	httpClient   *http.Client
}

// NewOAuth creates an OAuth helper for the login flow
func NewOAuth(domain, clientID, clientSecret string) *OAuth {
	return &OAuth{
		domain:       domain,
		clientID:     clientID,
		clientSecret: clientSecret,
		httpClient:   &http.Client{Timeout: 15 * time.Second},
	}
}

// NewOAuthWithHTTP creates an OAuth helper with a caller-supplied HTTP client
func NewOAuthWithHTTP(domain, clientID, clientSecret string, httpClient *http.Client) *OAuth {
	return &OAuth{
		domain:       domain,
		clientID:     clientID,
		clientSecret: clientSecret,
		httpClient:   httpClient,
	}
}

// Configured reports whether login can be offered
func (o *OAuth) Configured() bool {
	return o != nil && o.domain != "" && o.clientID != ""
}

// AuthorizeURL builds the provider's authorization endpoint URL. remoteOrgID
// pre-arms the provider with the tenant's organization so the login page is
// scoped to it; empty means an organization-less login.
func (o *OAuth) AuthorizeURL(redirectURI, state string, remoteOrgID types.RemoteOrgID) string {
	u := url.URL{
		Scheme: "https",
		Host:   o.domain,
		Path:   "/authorize",
	}

	q := u.Query()
	q.Set("response_type", "code")
	q.Set("client_id", o.clientID)
	q.Set("redirect_uri", redirectURI)
	q.Set("scope", "openid profile email")
	q.Set("state", state)
	if remoteOrgID != "" {
		q.Set("organization", remoteOrgID.String())
	}
	u.RawQuery = q.Encode()

	return u.String()
}

// Exchange trades an authorization code for an access token
func (o *OAuth) Exchange(ctx context.Context, code, redirectURI string) (string, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("client_id", o.clientID)
	form.Set("client_secret", o.clientSecret)
	form.Set("code", code)
	form.Set("redirect_uri", redirectURI)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		"https://"+o.domain+"/oauth/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", goerr.Wrap(err, "failed to build code exchange request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return "", goerr.Wrap(err, "code exchange failed",
			goerr.T(apperr.ErrTagExternalService))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", goerr.New("code exchange returned non-200",
			goerr.V("status", resp.StatusCode),
			goerr.V("body", string(respBody)),
			goerr.T(apperr.ErrTagExternalService))
	}

	var tokenResp struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return "", goerr.Wrap(err, "failed to decode token response")
	}
	if tokenResp.AccessToken == "" {
		return "", goerr.New("token response missing access_token",
			goerr.T(apperr.ErrTagExternalService))
	}

	return tokenResp.AccessToken, nil
}

// Profile is the identity claimed by a logged-in user
type Profile struct {
	Subject types.Subject
	Name    string
	Email   string
	Role    types.Role
}

// UserInfo fetches the logged-in user's profile. The role claim is optional;
// absent or unknown values default to owner at session creation.
func (o *OAuth) UserInfo(ctx context.Context, accessToken string) (*Profile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		"https://"+o.domain+"/userinfo", nil)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to build userinfo request")
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return nil, goerr.Wrap(err, "userinfo request failed",
			goerr.T(apperr.ErrTagExternalService))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, goerr.New("userinfo returned non-200",
			goerr.V("status", resp.StatusCode),
			goerr.T(apperr.ErrTagExternalService))
	}

	var claims struct {
		Sub   string `json:"sub"`
		Name  string `json:"name"`
		Email string `json:"email"`
		Role  string `json:"https://whatthepack.today/role"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&claims); err != nil {
		return nil, goerr.Wrap(err, "failed to decode userinfo response")
	}
	if claims.Sub == "" {
		return nil, goerr.New("userinfo response missing sub",
			goerr.T(apperr.ErrTagExternalService))
	}

	return &Profile{
		Subject: types.Subject(claims.Sub),
		Name:    claims.Name,
		Email:   claims.Email,
		Role:    types.Role(claims.Role),
	}, nil
}
