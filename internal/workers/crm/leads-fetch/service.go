package leadsfetch

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"amocrm-leads/internal/common/amocrm"
	"amocrm-leads/internal/common/errors"
	"amocrm-leads/internal/common/logger"
	"amocrm-leads/internal/common/observability"
	"amocrm-leads/internal/models"
)

type Service struct {
	config *Config
	logger logger.Logger
	crm    CRM
	obs    *observability.Observability
}

func NewService(deps ServiceDependencies, config *Config) *Service {
	log := deps.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Service{
		config: config,
		logger: log,
		crm:    deps.CRM,
		obs:    deps.Observability,
	}
}

// FetchEnrichedLeads searches leads and joins each one with its responsible
// user, pipeline status and primary contacts. The result keeps the CRM's
// lead order. Any CRM failure aborts the whole call with an upstream error;
// no partial list is ever returned.
func (s *Service) FetchEnrichedLeads(ctx context.Context, query string) ([]models.EnrichedLead, error) {
	ctx, span := s.obs.StartSpan(ctx, "leads.fetch", attribute.String("leads.query", query))
	start := time.Now()

	result, err := s.fetch(ctx, query)
	observability.EndSpan(span, err)
	if err != nil {
		return nil, errors.NewUpstreamFetchError(err)
	}

	s.logger.Debug("Leads enriched", map[string]interface{}{
		"query":      query,
		"leads":      len(result),
		"durationMs": time.Since(start).Milliseconds(),
		"traceId":    observability.TraceID(ctx),
	})
	return result, nil
}

func (s *Service) fetch(ctx context.Context, query string) ([]models.EnrichedLead, error) {
	leads, err := s.crm.ListLeads(ctx, query)
	if err != nil {
		return nil, err
	}

	result := make([]models.EnrichedLead, len(leads))
	if len(leads) == 0 {
		return result, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.config.LeadConcurrency)
	for i, lead := range leads {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			enriched, err := s.enrichLead(gctx, lead)
			if err != nil {
				return fmt.Errorf("lead %d: %w", lead.ID, err)
			}
			result[i] = enriched
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return result, nil
}

// enrichLead runs the user, status and contact lookups of one lead
// concurrently.
func (s *Service) enrichLead(ctx context.Context, lead amocrm.Lead) (models.EnrichedLead, error) {
	var (
		user   *amocrm.User
		status *amocrm.PipelineStatus
	)
	contactIDs := lead.PrimaryContactIDs()
	contacts := make([]models.Contact, len(contactIDs))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		user, err = s.crm.GetUser(gctx, lead.ResponsibleUserID)
		return err
	})
	g.Go(func() error {
		var err error
		status, err = s.crm.GetStatus(gctx, lead.PipelineID, lead.StatusID)
		return err
	})
	for i, id := range contactIDs {
		g.Go(func() error {
			raw, err := s.crm.GetContact(gctx, id)
			if err != nil {
				return err
			}
			contacts[i] = amocrm.TransformContact(*raw)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return models.EnrichedLead{}, err
	}

	return models.EnrichedLead{
		ID:         lead.ID,
		Name:       lead.Name,
		Price:      lead.Price,
		GroupID:    lead.GroupID,
		StatusID:   lead.StatusID,
		PipelineID: lead.PipelineID,
		CreatedAt:  lead.CreatedAt,
		ResponsibleUser: models.UserSummary{
			ID:    user.ID,
			Name:  user.Name,
			Email: user.Email,
		},
		Status: models.StatusSummary{
			ID:    status.ID,
			Name:  status.Name,
			Color: status.Color,
		},
		Contacts: contacts,
	}, nil
}

func (s *Service) TestConnection(ctx context.Context) error {
	if s.crm == nil {
		return fmt.Errorf("amoCRM client not configured")
	}
	return s.crm.TestConnection(ctx)
}
