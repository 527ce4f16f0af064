package leadsfetch

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"amocrm-leads/internal/common/config"
	"amocrm-leads/internal/common/errors"
	"amocrm-leads/internal/common/logger"
	"amocrm-leads/internal/common/metrics"
	"amocrm-leads/internal/common/middleware"
	"amocrm-leads/internal/common/observability"
	"amocrm-leads/internal/common/validation"
	"amocrm-leads/internal/models"
)

const (
	TaskType = "crm.leads.fetch"
	Route    = "/leads"
)

type Handler struct {
	config  *Config
	logger  logger.Logger
	service *Service
	obs     *observability.Observability
	errors  *errors.ErrorHandler
	schema  validation.JSONSchema
}

type HandlerOptions struct {
	AppConfig     *config.Config
	CRM           CRM
	CustomConfig  *Config
	Logger        logger.Logger
	Observability *observability.Observability
}

func NewHandler(opts HandlerOptions) (*Handler, error) {
	workerConfig := createConfigFromAppConfig(opts.AppConfig, opts.CustomConfig)

	if err := workerConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for leads-fetch: %w", err)
	}
	if opts.CRM == nil {
		return nil, fmt.Errorf("leads-fetch requires a CRM client")
	}

	var loggerInstance logger.Logger
	if opts.Logger != nil {
		loggerInstance = opts.Logger
	} else {
		loggerInstance = logger.NewStructured("info", "json")
	}
	loggerInstance = loggerInstance.With(map[string]interface{}{"worker": TaskType})

	handler := &Handler{
		config: workerConfig,
		logger: loggerInstance,
		obs:    opts.Observability,
		errors: errors.NewErrorHandler(loggerInstance),
		schema: GetInputSchema(workerConfig.MinQueryLength),
	}

	handler.service = NewService(ServiceDependencies{
		CRM:           opts.CRM,
		Logger:        loggerInstance,
		Observability: opts.Observability,
	}, workerConfig)

	return handler, nil
}

// ServeHTTP serves GET /leads?query=.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	startTime := time.Now()
	metrics.HandlerRequestsActive.WithLabelValues(TaskType).Inc()
	defer metrics.HandlerRequestsActive.WithLabelValues(TaskType).Dec()

	requestID := middleware.RequestIDFromContext(r.Context())

	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		h.fail(w, r, requestID, errors.NewMethodNotAllowedError(r.Method))
		return
	}

	if !h.config.Enabled {
		h.logger.Info("Handler disabled by configuration", nil)
		h.fail(w, r, requestID, errors.NewHandlerDisabledError(TaskType))
		return
	}

	input, err := h.parseInput(r)
	if err != nil {
		h.fail(w, r, requestID, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.config.Timeout)
	defer cancel()

	h.logger.Info("Processing leads fetch request", map[string]interface{}{
		"requestId": requestID,
		"query":     input.Query,
	})

	leads, err := h.Execute(ctx, input)
	duration := time.Since(startTime)
	metrics.HandlerRequestDuration.WithLabelValues(TaskType).Observe(duration.Seconds())
	if err != nil {
		h.obs.RecordRequest(ctx, "error")
		h.obs.RecordFetchDuration(ctx, duration, "error")
		h.fail(w, r, requestID, err)
		return
	}

	errors.WriteJSON(w, http.StatusOK, leads)

	metrics.HandlerRequestsCompleted.WithLabelValues(TaskType).Inc()
	h.obs.RecordRequest(ctx, "success")
	h.obs.RecordLeadsReturned(ctx, len(leads))
	h.obs.RecordFetchDuration(ctx, duration, "success")

	h.logger.Info("Leads fetch completed", map[string]interface{}{
		"requestId":  requestID,
		"leads":      len(leads),
		"durationMs": duration.Milliseconds(),
	})
}

// Execute runs the aggregation for already validated input.
func (h *Handler) Execute(ctx context.Context, input *Input) ([]models.EnrichedLead, error) {
	return h.service.FetchEnrichedLeads(ctx, input.Query)
}

func (h *Handler) parseInput(r *http.Request) (*Input, error) {
	query := r.URL.Query().Get("query")

	variables := map[string]interface{}{}
	if query != "" {
		variables["query"] = query
	}

	result := validation.ValidateInput(variables, h.schema)
	if !result.Valid {
		return nil, errors.NewValidationError(
			result.Errors[0].Message,
			strings.Join(result.GetErrorMessages(), "; "),
		)
	}

	return &Input{Query: query}, nil
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, requestID string, err error) {
	metrics.HandlerRequestsFailed.WithLabelValues(TaskType, extractErrorCode(err)).Inc()
	h.errors.HandleHTTPError(w, r, requestID, err)
}

// Register mounts the handler on mux. A disabled handler is still mounted
// and answers 503.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.Handle(Route, h)

	h.logger.Info("Leads fetch handler registered", map[string]interface{}{
		"route":           Route,
		"timeout":         h.config.Timeout.String(),
		"leadConcurrency": h.config.LeadConcurrency,
		"enabled":         h.config.Enabled,
	})
}

// HealthCheck verifies the CRM accepts the configured credentials.
func (h *Handler) HealthCheck(ctx context.Context) error {
	if err := h.service.TestConnection(ctx); err != nil {
		return fmt.Errorf("crm health check failed: %w", err)
	}
	return nil
}

func (h *Handler) GetTaskType() string {
	return TaskType
}

func (h *Handler) IsEnabled() bool {
	return h.config.Enabled
}

func extractErrorCode(err error) string {
	return string(errors.Normalize(err).Code)
}

func createConfigFromAppConfig(appConfig *config.Config, customConfig *Config) *Config {
	if customConfig != nil {
		return customConfig
	}

	cfg := DefaultConfig()

	if appConfig != nil {
		workerCfg := config.GetWorkerConfig(appConfig, config.LeadsFetchWorker)
		cfg.Enabled = workerCfg.Enabled
		if workerCfg.Timeout > 0 {
			cfg.Timeout = config.GetDuration(workerCfg.Timeout)
		}
		if appConfig.AmoCRM.LeadConcurrency > 0 {
			cfg.LeadConcurrency = appConfig.AmoCRM.LeadConcurrency
		}
	}

	return cfg
}
