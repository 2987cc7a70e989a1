package idp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/whatthepack/whatthepack/pkg/domain/interfaces"
	"github.com/whatthepack/whatthepack/pkg/domain/types"
	"github.com/whatthepack/whatthepack/pkg/utils/apperr"
)

// Client talks to the identity provider's management API over REST with a
// machine-to-machine client-credentials token. Tokens are cached until
// shortly before expiry.
type Client struct {
	domain       string
	clientID     string
	clientSecret string
	httpClient   *http.Client

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

// New creates a new management API client
func New(domain, clientID, clientSecret string) *Client {
	return NewWithHTTP(domain, clientID, clientSecret, &http.Client{Timeout: 15 * time.Second})
}

// NewWithHTTP creates a client with a caller-supplied HTTP client
func NewWithHTTP(domain, clientID, clientSecret string, httpClient *http.Client) *Client {
	return &Client{
		domain:       domain,
		clientID:     clientID,
		clientSecret: clientSecret,
		httpClient:   httpClient,
	}
}

// Token returns a valid management API token, fetching a fresh one via the
// client-credentials exchange when the cached token is missing or stale
func (c *Client) Token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && time.Now().Before(c.tokenExpiry) {
		return c.token, nil
	}

	payload := map[string]string{
		"grant_type":    "client_credentials",
		"client_id":     c.clientID,
		"client_secret": c.clientSecret,
		"audience":      fmt.Sprintf("https://%s/api/v2/", c.domain),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", goerr.Wrap(err, "failed to encode token request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		fmt.Sprintf("https://%s/oauth/token", c.domain), bytes.NewReader(body))
	if err != nil {
		return "", goerr.Wrap(err, "failed to build token request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", goerr.Wrap(err, "token exchange failed",
			goerr.T(apperr.ErrTagRemoteProvisioning))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", goerr.New("token exchange returned non-200",
			goerr.V("status", resp.StatusCode),
			goerr.V("body", string(respBody)),
			goerr.T(apperr.ErrTagRemoteProvisioning))
	}

	var tokenResp struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return "", goerr.Wrap(err, "failed to decode token response")
	}
	if tokenResp.AccessToken == "" {
		return "", goerr.New("token response missing access_token",
			goerr.T(apperr.ErrTagRemoteProvisioning))
	}

	c.token = tokenResp.AccessToken
	// Refresh a minute early to avoid racing the expiry
	c.tokenExpiry = time.Now().Add(time.Duration(tokenResp.ExpiresIn)*time.Second - time.Minute)

	return c.token, nil
}

// do issues an authenticated management API request and decodes the JSON
// response into out (when out is non-nil)
func (c *Client) do(ctx context.Context, method, path string, payload, out any) error {
	token, err := c.Token(ctx)
	if err != nil {
		return err
	}

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return goerr.Wrap(err, "failed to encode request payload")
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method,
		fmt.Sprintf("https://%s/api/v2%s", c.domain, path), body)
	if err != nil {
		return goerr.Wrap(err, "failed to build management API request")
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return goerr.Wrap(err, "management API request failed",
			goerr.V("path", path),
			goerr.T(apperr.ErrTagRemoteProvisioning))
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return goerr.New("management API resource not found",
			goerr.V("path", path),
			goerr.T(apperr.ErrTagNotFound))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return goerr.New("management API returned error",
			goerr.V("path", path),
			goerr.V("status", resp.StatusCode),
			goerr.V("body", string(respBody)),
			goerr.T(apperr.ErrTagRemoteProvisioning))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return goerr.Wrap(err, "failed to decode management API response")
		}
	}

	return nil
}

type remoteOrgDoc struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
}

func (d remoteOrgDoc) toModel() *interfaces.RemoteOrg {
	return &interfaces.RemoteOrg{
		ID:          types.RemoteOrgID(d.ID),
		Name:        d.Name,
		DisplayName: d.DisplayName,
	}
}

// CreateOrg creates a new remote organization
func (c *Client) CreateOrg(ctx context.Context, name, displayName string) (*interfaces.RemoteOrg, error) {
	payload := map[string]string{
		"name":         name,
		"display_name": displayName,
	}

	var doc remoteOrgDoc
	if err := c.do(ctx, http.MethodPost, "/organizations", payload, &doc); err != nil {
		return nil, goerr.Wrap(err, "failed to create remote organization",
			goerr.V("name", name))
	}

	return doc.toModel(), nil
}

// FindOrgByName searches remote organizations by exact name; nil when absent
func (c *Client) FindOrgByName(ctx context.Context, name string) (*interfaces.RemoteOrg, error) {
	path := "/organizations/name/" + url.PathEscape(name)

	var doc remoteOrgDoc
	if err := c.do(ctx, http.MethodGet, path, nil, &doc); err != nil {
		if goerr.HasTag(err, apperr.ErrTagNotFound) {
			return nil, nil
		}
		return nil, goerr.Wrap(err, "failed to search remote organization",
			goerr.V("name", name))
	}
	if doc.ID == "" {
		return nil, nil
	}

	return doc.toModel(), nil
}

// GetOrgForUser returns the remote organization already linked to the
// subject's profile metadata, or nil when none is linked
func (c *Client) GetOrgForUser(ctx context.Context, subject types.Subject) (*interfaces.RemoteOrg, error) {
	path := "/users/" + url.PathEscape(subject.String()) + "/organizations"

	var docs []remoteOrgDoc
	if err := c.do(ctx, http.MethodGet, path, nil, &docs); err != nil {
		if goerr.HasTag(err, apperr.ErrTagNotFound) {
			return nil, nil
		}
		return nil, goerr.Wrap(err, "failed to get organizations for user",
			goerr.V("subject", subject))
	}
	if len(docs) == 0 {
		return nil, nil
	}

	return docs[0].toModel(), nil
}

// AddMember adds the subject as a member of the remote organization
func (c *Client) AddMember(ctx context.Context, orgID types.RemoteOrgID, subject types.Subject) error {
	path := "/organizations/" + url.PathEscape(orgID.String()) + "/members"
	payload := map[string][]string{"members": {subject.String()}}

	if err := c.do(ctx, http.MethodPost, path, payload, nil); err != nil {
		return goerr.Wrap(err, "failed to add organization member",
			goerr.V("orgID", orgID),
			goerr.V("subject", subject))
	}

	return nil
}

// AssignRole assigns the named role to the subject within the organization
func (c *Client) AssignRole(ctx context.Context, orgID types.RemoteOrgID, subject types.Subject, role types.Role) error {
	path := "/organizations/" + url.PathEscape(orgID.String()) +
		"/members/" + url.PathEscape(subject.String()) + "/roles"
	payload := map[string][]string{"roles": {role.String()}}

	if err := c.do(ctx, http.MethodPost, path, payload, nil); err != nil {
		return goerr.Wrap(err, "failed to assign organization role",
			goerr.V("orgID", orgID),
			goerr.V("role", role))
	}

	return nil
}

// connectionStrategy is one way of enabling a login connection. Strategies
// are tried in order until one succeeds.
type connectionStrategy func(ctx context.Context, orgID types.RemoteOrgID, connectionName string) error

func (c *Client) enableByConnectionID(ctx context.Context, orgID types.RemoteOrgID, connectionName string) error {
	path := "/organizations/" + url.PathEscape(orgID.String()) + "/enabled_connections"
	payload := map[string]any{
		"connection_id":              connectionName,
		"assign_membership_on_login": false,
	}
	return c.do(ctx, http.MethodPost, path, payload, nil)
}

func (c *Client) enableByConnectionName(ctx context.Context, orgID types.RemoteOrgID, connectionName string) error {
	path := "/organizations/" + url.PathEscape(orgID.String()) + "/connections"
	payload := map[string]any{
		"name":                       connectionName,
		"assign_membership_on_login": false,
	}
	return c.do(ctx, http.MethodPost, path, payload, nil)
}

func (c *Client) enableByPatch(ctx context.Context, orgID types.RemoteOrgID, connectionName string) error {
	path := "/organizations/" + url.PathEscape(orgID.String()) +
		"/enabled_connections/" + url.PathEscape(connectionName)
	payload := map[string]any{
		"assign_membership_on_login": false,
	}
	return c.do(ctx, http.MethodPatch, path, payload, nil)
}

// EnableConnection enables the named login connection for the organization.
// Provider deployments differ in which endpoint shape they accept, so each
// known shape is tried in order until one succeeds.
func (c *Client) EnableConnection(ctx context.Context, orgID types.RemoteOrgID, connectionName string) error {
	strategies := []connectionStrategy{
		c.enableByConnectionID,
		c.enableByConnectionName,
		c.enableByPatch,
	}

	var lastErr error
	for _, strategy := range strategies {
		if err := strategy(ctx, orgID, connectionName); err != nil {
			lastErr = err
			continue
		}
		return nil
	}

	return goerr.Wrap(lastErr, "all connection enable strategies failed",
		goerr.V("orgID", orgID),
		goerr.V("connection", connectionName),
		goerr.T(apperr.ErrTagRemoteProvisioning))
}

// PatchUserMetadata updates the subject's app metadata
func (c *Client) PatchUserMetadata(ctx context.Context, subject types.Subject, metadata map[string]any) error {
	path := "/users/" + url.PathEscape(subject.String())
	payload := map[string]any{"app_metadata": metadata}

	if err := c.do(ctx, http.MethodPatch, path, payload, nil); err != nil {
		return goerr.Wrap(err, "failed to patch user metadata",
			goerr.V("subject", subject))
	}

	return nil
}

// ResendVerificationEmail triggers a new verification email for the subject
func (c *Client) ResendVerificationEmail(ctx context.Context, subject types.Subject) error {
	payload := map[string]string{"user_id": subject.String()}

	if err := c.do(ctx, http.MethodPost, "/jobs/verification-email", payload, nil); err != nil {
		return goerr.Wrap(err, "failed to resend verification email",
			goerr.V("subject", subject))
	}

	return nil
}
