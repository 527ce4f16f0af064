package amocrm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"amocrm-leads/internal/common/config"
	commonhttp "amocrm-leads/internal/common/http"
	"amocrm-leads/internal/common/logger"
	"amocrm-leads/internal/common/metrics"
	"amocrm-leads/internal/common/observability"
	"amocrm-leads/internal/common/validation"
)

const (
	OpListLeads      = "ListLeads"
	OpGetUser        = "GetUser"
	OpGetStatus      = "GetStatus"
	OpGetContact     = "GetContact"
	OpTestConnection = "TestConnection"
)

var contactDocument = validation.MustCompileDocumentSchema(contactSchema)

// Client calls the amoCRM v4 REST API. One Client is shared by all requests.
type Client struct {
	http   *commonhttp.Client
	obs    *observability.Observability
	logger logger.Logger
}

func NewClient(cfg config.AmoCRMConfig, obs *observability.Observability, log logger.Logger) *Client {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Client{
		http: commonhttp.NewClient(
			config.GetDuration(cfg.Timeout),
			commonhttp.WithBaseURL(cfg.BaseURL),
			commonhttp.WithBearerToken(cfg.AccessToken),
			commonhttp.WithMaxBodyBytes(cfg.MaxBodyBytes),
		),
		obs:    obs,
		logger: log.With(map[string]interface{}{"component": "amocrm"}),
	}
}

// ListLeads returns the leads matching query (all leads when query is empty)
// with their contact references embedded. A 204 answer yields no leads.
func (c *Client) ListLeads(ctx context.Context, query string) ([]Lead, error) {
	params := url.Values{}
	if query != "" {
		params.Set("query", query)
	}
	params.Set("with", "contacts")

	var page LeadsPage
	err := c.call(ctx, OpListLeads, func(ctx context.Context) error {
		err := c.http.GetJSON(ctx, "/api/v4/leads", params, &page)
		if errors.Is(err, commonhttp.ErrNoContent) {
			return nil
		}
		return err
	}, attribute.String("amocrm.query", query))
	if err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}

	return page.Embedded.Leads, nil
}

func (c *Client) GetUser(ctx context.Context, userID int64) (*User, error) {
	var user User
	err := c.call(ctx, OpGetUser, func(ctx context.Context) error {
		return c.getObject(ctx, fmt.Sprintf("/api/v4/users/%d", userID), &user)
	}, attribute.Int64("amocrm.user_id", userID))
	if err != nil {
		return nil, fmt.Errorf("get user %d: %w", userID, err)
	}
	return &user, nil
}

func (c *Client) GetStatus(ctx context.Context, pipelineID, statusID int64) (*PipelineStatus, error) {
	var status PipelineStatus
	path := fmt.Sprintf("/api/v4/leads/pipelines/%d/statuses/%d", pipelineID, statusID)
	err := c.call(ctx, OpGetStatus, func(ctx context.Context) error {
		return c.getObject(ctx, path, &status)
	}, attribute.Int64("amocrm.pipeline_id", pipelineID), attribute.Int64("amocrm.status_id", statusID))
	if err != nil {
		return nil, fmt.Errorf("get status %d/%d: %w", pipelineID, statusID, err)
	}
	return &status, nil
}

// GetContact fetches a contact and checks its shape before decoding.
func (c *Client) GetContact(ctx context.Context, contactID int64) (*RawContact, error) {
	var contact RawContact
	err := c.call(ctx, OpGetContact, func(ctx context.Context) error {
		resp, err := c.http.Get(ctx, fmt.Sprintf("/api/v4/contacts/%d", contactID), nil)
		if err != nil {
			return err
		}
		if resp.StatusCode == http.StatusNoContent || len(resp.Body) == 0 {
			return errors.New("empty response")
		}
		if err := contactDocument.Validate(resp.Body); err != nil {
			return err
		}
		if err := json.Unmarshal(resp.Body, &contact); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
		return nil
	}, attribute.Int64("amocrm.contact_id", contactID))
	if err != nil {
		return nil, fmt.Errorf("get contact %d: %w", contactID, err)
	}
	return &contact, nil
}

// TestConnection checks that the base URL and token are accepted.
func (c *Client) TestConnection(ctx context.Context) error {
	var account Account
	err := c.call(ctx, OpTestConnection, func(ctx context.Context) error {
		return c.getObject(ctx, "/api/v4/account", &account)
	})
	if err != nil {
		return fmt.Errorf("test connection: %w", err)
	}
	return nil
}

// getObject is GetJSON where 204 is an error: single-object endpoints
// always answer with a body.
func (c *Client) getObject(ctx context.Context, path string, out interface{}) error {
	err := c.http.GetJSON(ctx, path, nil, out)
	if errors.Is(err, commonhttp.ErrNoContent) {
		return errors.New("empty response")
	}
	return err
}

func (c *Client) call(ctx context.Context, operation string, fn func(ctx context.Context) error, attrs ...attribute.KeyValue) error {
	ctx, span := c.obs.StartSpan(ctx, "amocrm."+operation, attrs...)
	start := time.Now()

	err := fn(ctx)

	metrics.UpstreamRequestDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	metrics.UpstreamRequests.WithLabelValues(operation, outcome(err)).Inc()
	observability.EndSpan(span, err)

	if err != nil {
		c.logger.Warn("CRM call failed", map[string]interface{}{
			"operation":  operation,
			"error":      err.Error(),
			"durationMs": time.Since(start).Milliseconds(),
			"traceId":    observability.TraceID(ctx),
		})
	}
	return err
}

func outcome(err error) string {
	if err == nil {
		return "success"
	}
	var statusErr *commonhttp.StatusError
	switch {
	case errors.As(err, &statusErr):
		return "status_error"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "error"
	}
}
