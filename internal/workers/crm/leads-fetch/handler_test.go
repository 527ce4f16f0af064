package leadsfetch

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"amocrm-leads/internal/common/amocrm"
	"amocrm-leads/internal/common/config"
	"amocrm-leads/internal/common/errors"
	"amocrm-leads/internal/common/logger"
	"amocrm-leads/internal/common/middleware"
	"amocrm-leads/internal/common/observability"
	"amocrm-leads/internal/models"
	"amocrm-leads/internal/testhelpers"
)

// ==========================
// Test Helpers
// ==========================

func createValidConfig() *Config {
	return &Config{
		Enabled:         true,
		Timeout:         5 * time.Second,
		MinQueryLength:  3,
		LeadConcurrency: 1,
	}
}

func seedCRM(crm *testhelpers.FakeCRM) {
	crm.AddLead(amocrm.Lead{
		ID: 1, Name: "Website redesign", Price: 50000, ResponsibleUserID: 10,
		StatusID: 100, PipelineID: 1000, CreatedAt: 1700000000,
		Embedded: amocrm.LeadEmbedded{Contacts: []amocrm.ContactRef{{ID: 5, IsMain: true}, {ID: 6}}},
	})
	crm.AddUser(amocrm.User{ID: 10, Name: "Anna", Email: "anna@example.com"})
	crm.AddStatus(amocrm.PipelineStatus{ID: 100, PipelineID: 1000, Name: "First contact", Color: "#99ccff"})
	crm.AddContact(5, "Ivan", map[string]string{amocrm.FieldCodePhone: "123"})
	crm.AddContact(6, "Not primary", nil)
}

func createTestHandler(t *testing.T, crm *testhelpers.FakeCRM, cfg *Config) *Handler {
	t.Helper()
	client := amocrm.NewClient(config.AmoCRMConfig{
		BaseURL:     crm.URL(),
		AccessToken: crm.Token,
		Timeout:     2000,
	}, observability.NewNoop(), logger.NewTestLogger(t))

	handler, err := NewHandler(HandlerOptions{
		CRM:           client,
		CustomConfig:  cfg,
		Logger:        logger.NewTestLogger(t),
		Observability: observability.NewNoop(),
	})
	require.NoError(t, err)
	return handler
}

func serve(h http.Handler, method, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, http.NoBody)
	rec := httptest.NewRecorder()
	middleware.Chain(h, middleware.RequestID()).ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errors.ErrorResponse {
	t.Helper()
	var body errors.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

// ==========================
// Handler Creation Tests
// ==========================

func TestHandler_NewHandler(t *testing.T) {
	crm := testhelpers.NewFakeCRM(t)
	client := amocrm.NewClient(config.AmoCRMConfig{BaseURL: crm.URL(), AccessToken: crm.Token, Timeout: 1000}, nil, nil)

	tests := []struct {
		name    string
		opts    HandlerOptions
		wantErr bool
		errMsg  string
	}{
		{
			name: "valid configuration",
			opts: HandlerOptions{CRM: client, CustomConfig: createValidConfig(), Logger: logger.NewNoOpLogger()},
		},
		{
			name: "defaults from app config",
			opts: HandlerOptions{CRM: client, AppConfig: &config.Config{}},
		},
		{
			name:    "missing CRM client",
			opts:    HandlerOptions{CustomConfig: createValidConfig()},
			wantErr: true,
			errMsg:  "requires a CRM client",
		},
		{
			name: "zero timeout",
			opts: HandlerOptions{CRM: client, CustomConfig: &Config{
				Enabled: true, MinQueryLength: 3, LeadConcurrency: 1,
			}},
			wantErr: true,
			errMsg:  "timeout must be positive",
		},
		{
			name: "zero concurrency",
			opts: HandlerOptions{CRM: client, CustomConfig: &Config{
				Enabled: true, Timeout: time.Second, MinQueryLength: 3,
			}},
			wantErr: true,
			errMsg:  "lead_concurrency must be at least 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, err := NewHandler(tt.opts)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				assert.Nil(t, handler)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, TaskType, handler.GetTaskType())
			assert.True(t, handler.IsEnabled())
		})
	}
}

func TestCreateConfigFromAppConfig(t *testing.T) {
	appConfig := &config.Config{
		AmoCRM: config.AmoCRMConfig{LeadConcurrency: 4},
		Workers: map[string]config.WorkerConfig{
			config.LeadsFetchWorker: {Enabled: false, Timeout: 1500},
		},
	}

	cfg := createConfigFromAppConfig(appConfig, nil)

	assert.False(t, cfg.Enabled)
	assert.Equal(t, 1500*time.Millisecond, cfg.Timeout)
	assert.Equal(t, 4, cfg.LeadConcurrency)
	assert.Equal(t, 3, cfg.MinQueryLength)

	custom := createValidConfig()
	assert.Same(t, custom, createConfigFromAppConfig(appConfig, custom))
}

// ==========================
// Request Tests
// ==========================

func TestHandler_ServeHTTP_Success(t *testing.T) {
	crm := testhelpers.NewFakeCRM(t)
	seedCRM(crm)
	handler := createTestHandler(t, crm, createValidConfig())

	rec := serve(handler, http.MethodGet, "/leads?query=web")

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")

	var leads []models.EnrichedLead
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &leads))
	require.Len(t, leads, 1)
	assert.Equal(t, "Website redesign", leads[0].Name)
	assert.Equal(t, models.UserSummary{ID: 10, Name: "Anna", Email: "anna@example.com"}, leads[0].ResponsibleUser)
	assert.Equal(t, models.StatusSummary{ID: 100, Name: "First contact", Color: "#99ccff"}, leads[0].Status)
	assert.Equal(t, []models.Contact{{ID: 5, Name: "Ivan", Phone: "123"}}, leads[0].Contacts)

	assert.Equal(t, 0, crm.RequestCount("/api/v4/contacts/6"))
}

func TestHandler_ServeHTTP_QueryValidation(t *testing.T) {
	tests := []struct {
		name       string
		target     string
		wantStatus int
	}{
		{"two characters", "/leads?query=ab", http.StatusBadRequest},
		{"two cyrillic characters", "/leads?query=%D0%B0%D0%B1", http.StatusBadRequest},
		{"three characters", "/leads?query=abc", http.StatusOK},
		{"absent", "/leads", http.StatusOK},
		{"empty", "/leads?query=", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			crm := testhelpers.NewFakeCRM(t)
			handler := createTestHandler(t, crm, createValidConfig())

			rec := serve(handler, http.MethodGet, tt.target)

			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			if tt.wantStatus == http.StatusBadRequest {
				body := decodeError(t, rec)
				assert.Equal(t, errors.MessageQueryTooShort, body.Message)
				assert.Equal(t, errors.ErrCodeValidationFailed, body.Code)
				assert.Empty(t, crm.Requests())
			}
		})
	}
}

func TestHandler_ServeHTTP_AbsentQuerySendsNoFilter(t *testing.T) {
	crm := testhelpers.NewFakeCRM(t)
	seedCRM(crm)
	handler := createTestHandler(t, crm, createValidConfig())

	rec := serve(handler, http.MethodGet, "/leads")

	require.Equal(t, http.StatusOK, rec.Code)
	list := crm.Requests()[0]
	assert.Equal(t, "/api/v4/leads", list.URL.Path)
	_, hasQuery := list.URL.Query()["query"]
	assert.False(t, hasQuery)
}

func TestHandler_ServeHTTP_EmptyResultIsArray(t *testing.T) {
	crm := testhelpers.NewFakeCRM(t)
	handler := createTestHandler(t, crm, createValidConfig())

	rec := serve(handler, http.MethodGet, "/leads?query=nothing")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
	assert.Equal(t, 1, len(crm.Requests()))
}

func TestHandler_ServeHTTP_UpstreamFailures(t *testing.T) {
	tests := []struct {
		name  string
		setup func(crm *testhelpers.FakeCRM)
	}{
		{"list fails", func(crm *testhelpers.FakeCRM) { crm.Fail("/api/v4/leads", http.StatusBadGateway) }},
		{"user fails", func(crm *testhelpers.FakeCRM) { crm.Fail("/api/v4/users/10", http.StatusInternalServerError) }},
		{"status missing", func(crm *testhelpers.FakeCRM) {
			crm.Fail("/api/v4/leads/pipelines/1000/statuses/100", http.StatusNotFound)
		}},
		{"malformed contact", func(crm *testhelpers.FakeCRM) {
			crm.AddContactJSON(5, `{"id":"five","custom_fields_values":"nope"}`)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			crm := testhelpers.NewFakeCRM(t)
			seedCRM(crm)
			tt.setup(crm)
			handler := createTestHandler(t, crm, createValidConfig())

			rec := serve(handler, http.MethodGet, "/leads?query=web")

			require.Equal(t, http.StatusInternalServerError, rec.Code)
			body := decodeError(t, rec)
			assert.Equal(t, errors.MessageUpstreamFetchFailed, body.Message)
			assert.Equal(t, errors.ErrCodeUpstreamFetchFailed, body.Code)
			assert.Empty(t, body.Details)
			assert.Equal(t, rec.Header().Get(middleware.HeaderRequestID), body.RequestID)
			assert.NotContains(t, rec.Body.String(), "Website redesign")
		})
	}
}

func durationSamples(t *testing.T) uint64 {
	t.Helper()
	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != "handler_request_duration_seconds" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, label := range m.GetLabel() {
				if label.GetName() == "task_type" && label.GetValue() == TaskType {
					return m.GetHistogram().GetSampleCount()
				}
			}
		}
	}
	return 0
}

func TestHandler_ServeHTTP_RecordsDurationOnFailure(t *testing.T) {
	crm := testhelpers.NewFakeCRM(t)
	seedCRM(crm)
	crm.Fail("/api/v4/leads", http.StatusBadGateway)
	handler := createTestHandler(t, crm, createValidConfig())

	before := durationSamples(t)
	rec := serve(handler, http.MethodGet, "/leads?query=web")

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, before+1, durationSamples(t))
}

func TestHandler_ServeHTTP_Timeout(t *testing.T) {
	crm := testhelpers.NewFakeCRM(t)
	seedCRM(crm)
	crm.SetDelay(200 * time.Millisecond)

	cfg := createValidConfig()
	cfg.Timeout = 20 * time.Millisecond
	handler := createTestHandler(t, crm, cfg)

	rec := serve(handler, http.MethodGet, "/leads?query=web")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, errors.MessageUpstreamFetchFailed, decodeError(t, rec).Message)
}

func TestHandler_ServeHTTP_MethodNotAllowed(t *testing.T) {
	crm := testhelpers.NewFakeCRM(t)
	handler := createTestHandler(t, crm, createValidConfig())

	rec := serve(handler, http.MethodPost, "/leads?query=web")

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, http.MethodGet, rec.Header().Get("Allow"))
	assert.Empty(t, crm.Requests())
}

func TestHandler_ServeHTTP_Disabled(t *testing.T) {
	crm := testhelpers.NewFakeCRM(t)
	cfg := createValidConfig()
	cfg.Enabled = false
	handler := createTestHandler(t, crm, cfg)

	rec := serve(handler, http.MethodGet, "/leads?query=web")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, errors.ErrCodeHandlerDisabled, decodeError(t, rec).Code)
	assert.Empty(t, crm.Requests())
}

func TestHandler_Register(t *testing.T) {
	crm := testhelpers.NewFakeCRM(t)
	seedCRM(crm)
	handler := createTestHandler(t, crm, createValidConfig())

	mux := http.NewServeMux()
	handler.Register(mux)

	rec := serve(mux, http.MethodGet, "/leads?query=web")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandler_HealthCheck(t *testing.T) {
	crm := testhelpers.NewFakeCRM(t)
	handler := createTestHandler(t, crm, createValidConfig())

	assert.NoError(t, handler.HealthCheck(t.Context()))

	crm.Fail("/api/v4/account", http.StatusUnauthorized)
	err := handler.HealthCheck(t.Context())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "crm health check failed")
}
