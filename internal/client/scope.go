package client

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	api "github.com/fieldservice/jobvisit/api/v1alpha1"
	"github.com/fieldservice/jobvisit/internal/auth"
	"github.com/fieldservice/jobvisit/internal/scope"
	"github.com/fieldservice/jobvisit/pkg/requestid"
)

// ScopeClient talks to the scope endpoints over HTTP. It is what a remote
// session saves through and what its refresher polls.
type ScopeClient struct {
	http *resty.Client
}

var (
	_ scope.Patcher = (*ScopeClient)(nil)
	_ scope.Fetcher = (*ScopeClient)(nil)
)

type scopeBody struct {
	Items []scope.Item `json:"items"`
}

// ErrUnexpectedStatus is returned for any non-2xx answer.
type ErrUnexpectedStatus struct {
	StatusCode int
	Message    string
}

func (e *ErrUnexpectedStatus) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Message)
}

func NewScopeClient(cfg *Config) (*ScopeClient, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	timeout := cfg.Service.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}

	role := cfg.Actor.Role
	if role == "" {
		role = auth.RoleTechnician
	}

	c := resty.New().
		SetBaseURL(cfg.Service.Server).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetHeader(auth.ActorIDHeader, cfg.Actor.ID).
		SetHeader(auth.ActorRoleHeader, role).
		SetError(&api.Error{})

	return &ScopeClient{http: c}, nil
}

func (c *ScopeClient) GetScope(ctx context.Context, ref scope.Ref) ([]scope.Item, error) {
	var body scopeBody
	resp, err := c.request(ctx).
		SetResult(&body).
		SetPathParams(map[string]string{"kind": string(ref.Kind), "id": ref.ID}).
		Get("/api/v1/scopes/{kind}/{id}")
	if err != nil {
		return nil, fmt.Errorf("failed to get scope %s: %w", ref, err)
	}
	if err := checkResponse(resp); err != nil {
		return nil, err
	}
	return body.Items, nil
}

func (c *ScopeClient) PatchScope(ctx context.Context, ref scope.Ref, patch scope.Patch) ([]scope.Item, error) {
	var body scopeBody
	resp, err := c.request(ctx).
		SetBody(patch).
		SetResult(&body).
		SetPathParams(map[string]string{"kind": string(ref.Kind), "id": ref.ID}).
		Patch("/api/v1/scopes/{kind}/{id}")
	if err != nil {
		return nil, fmt.Errorf("failed to patch scope %s: %w", ref, err)
	}
	if err := checkResponse(resp); err != nil {
		zap.S().Named("scope_client").Warnw("scope patch rejected", "ref", ref.String(), "status", resp.StatusCode())
		return nil, err
	}
	return body.Items, nil
}

func (c *ScopeClient) request(ctx context.Context) *resty.Request {
	req := c.http.R().SetContext(ctx)
	if id := requestid.FromContext(ctx); id != "" {
		req.SetHeader(requestid.Header, id)
	}
	return req
}

func checkResponse(resp *resty.Response) error {
	if resp.IsSuccess() {
		return nil
	}
	message := http.StatusText(resp.StatusCode())
	if e, ok := resp.Error().(*api.Error); ok && e.Message != "" {
		message = e.Message
	}
	return &ErrUnexpectedStatus{StatusCode: resp.StatusCode(), Message: message}
}
