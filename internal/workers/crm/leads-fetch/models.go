package leadsfetch

import (
	"context"

	"amocrm-leads/internal/common/amocrm"
	"amocrm-leads/internal/common/logger"
	"amocrm-leads/internal/common/observability"
)

// Input is the parsed query string of GET /leads. An empty Query means
// no filter.
type Input struct {
	Query string `json:"query,omitempty"`
}

// CRM is the subset of the amoCRM client the service depends on.
type CRM interface {
	ListLeads(ctx context.Context, query string) ([]amocrm.Lead, error)
	GetUser(ctx context.Context, userID int64) (*amocrm.User, error)
	GetStatus(ctx context.Context, pipelineID, statusID int64) (*amocrm.PipelineStatus, error)
	GetContact(ctx context.Context, contactID int64) (*amocrm.RawContact, error)
	TestConnection(ctx context.Context) error
}

type ServiceDependencies struct {
	CRM           CRM
	Logger        logger.Logger
	Observability *observability.Observability
}
