package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agencyops/staffing-engine/internal/config"
	"github.com/agencyops/staffing-engine/internal/metrics"
	"github.com/agencyops/staffing-engine/internal/staffing"
	"github.com/agencyops/staffing-engine/internal/store"
	"github.com/agencyops/staffing-engine/internal/synthesis"
	"github.com/agencyops/staffing-engine/internal/taxonomy"
)

type testDeps struct {
	suggester Suggester
}

// testApp creates a Fiber app with all routes for testing.
func testApp(t *testing.T, authCfg AuthConfig, deps testDeps) *fiber.App {
	t.Helper()
	logger := zerolog.Nop()

	engine, err := synthesis.New(taxonomy.Default(), config.DefaultPolicy(), logger)
	require.NoError(t, err)

	plans, err := store.Open(filepath.Join(t.TempDir(), "plans.db"))
	require.NoError(t, err)
	t.Cleanup(func() { plans.Close() })

	m := metrics.New()
	handlers := NewHandlers(engine, plans, deps.suggester, nil, nil, m, nil, logger)

	srv := NewServer(ServerConfig{
		ListenAddr: ":0",
		AuthConfig: authCfg,
		RateLimit:  RateLimitConfig{RPS: 100, Burst: 200},
	}, handlers, m.Handler(), logger)

	return srv.App()
}

func noAuth() AuthConfig { return AuthConfig{Mode: "none"} }

func testPlanRequest() PlanRequest {
	return PlanRequest{
		Project: staffing.ProjectContext{
			Client:        staffing.NewField("Acme Motors", "Acme Motors", 0.9, staffing.MethodPattern),
			Title:         staffing.NewField("Spring Campaign", "Spring Campaign", 0.9, staffing.MethodPattern),
			DurationWeeks: staffing.NewField(26, "26 weeks", 0.9, staffing.MethodPattern),
			Type:          staffing.TypeCreativeCampaign,
			Complexity:    staffing.ComplexitySimple,
		},
		Candidates: []staffing.Candidate{
			{Title: "Account Director", AllocationHint: "50%", Confidence: 0.9},
		},
	}
}

func postJSON(t *testing.T, app *fiber.App, path string, body any) *http.Response {
	t.Helper()
	buf, err := json.Marshal(body)
	require.NoError(t, err)
	req, _ := http.NewRequest("POST", path, bytes.NewReader(buf))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func TestServer_HealthzEndpoint(t *testing.T) {
	app := testApp(t, noAuth(), testDeps{})

	req, _ := http.NewRequest("GET", "/healthz", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	json.NewDecoder(resp.Body).Decode(&body)
	assert.Equal(t, "ok", body["status"])
}

func TestServer_ReadyzEndpoint(t *testing.T) {
	app := testApp(t, noAuth(), testDeps{})

	req, _ := http.NewRequest("GET", "/readyz", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServer_MetricsEndpoint(t *testing.T) {
	app := testApp(t, noAuth(), testDeps{})

	req, _ := http.NewRequest("GET", "/metrics", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServer_CreatePlan(t *testing.T) {
	app := testApp(t, noAuth(), testDeps{})

	resp := postJSON(t, app, "/api/v1/plans", testPlanRequest())
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var plan staffing.Plan
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&plan))
	assert.NotEmpty(t, plan.ID)
	assert.True(t, plan.HasRole("account_director"))
	assert.True(t, plan.HasRole("creative_director"))
	assert.Len(t, plan.RuleTrace, 8)
	assert.Equal(t, "Acme Motors", plan.Project.Client.Value)
}

func TestServer_CreatePlan_MalformedBody(t *testing.T) {
	app := testApp(t, noAuth(), testDeps{})

	req, _ := http.NewRequest("POST", "/api/v1/plans", bytes.NewReader([]byte("{not json")))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var problem ProblemDetail
	json.NewDecoder(resp.Body).Decode(&problem)
	assert.Equal(t, "invalid_body", problem.Type)
	assert.Equal(t, "/api/v1/plans", problem.Instance)
}

func TestServer_CreatePlan_ConfigError(t *testing.T) {
	app := testApp(t, noAuth(), testDeps{})

	req := testPlanRequest()
	req.Project.Type = staffing.TypeOther
	req.Candidates = nil

	resp := postJSON(t, app, "/api/v1/plans", req)
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	var problem ProblemDetail
	json.NewDecoder(resp.Body).Decode(&problem)
	assert.Equal(t, "synthesis_config_error", problem.Type)
}

func TestServer_CreatePlan_SuggestedCandidatesMerged(t *testing.T) {
	app := testApp(t, noAuth(), testDeps{suggester: &fakeSuggester{
		candidates: []staffing.Candidate{
			{Title: "Producer", AllocationHint: "20%", Confidence: 0.8},
		},
	}})

	planReq := testPlanRequest()
	planReq.Suggest = true
	planReq.SOWText = "Produce broadcast spots for the spring launch."

	resp := postJSON(t, app, "/api/v1/plans", planReq)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var plan staffing.Plan
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&plan))
	assert.True(t, plan.HasRole("content_producer"))
}

func TestServer_CreatePlan_SuggestFailureDegrades(t *testing.T) {
	app := testApp(t, noAuth(), testDeps{suggester: &fakeSuggester{fail: true}})

	planReq := testPlanRequest()
	planReq.Suggest = true

	resp := postJSON(t, app, "/api/v1/plans", planReq)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var plan staffing.Plan
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&plan))
	assert.True(t, plan.HasRole("account_director"))
	assert.False(t, plan.HasRole("content_producer"))
}

func TestServer_PersistAndFetchPlan(t *testing.T) {
	app := testApp(t, noAuth(), testDeps{})

	planReq := testPlanRequest()
	planReq.Persist = true

	resp := postJSON(t, app, "/api/v1/plans", planReq)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var plan staffing.Plan
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&plan))

	req, _ := http.NewRequest("GET", "/api/v1/plans/"+plan.ID, nil)
	getResp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, getResp.StatusCode)

	var fetched staffing.Plan
	require.NoError(t, json.NewDecoder(getResp.Body).Decode(&fetched))
	assert.Equal(t, plan.ID, fetched.ID)

	req, _ = http.NewRequest("GET", "/api/v1/plans?client=Acme+Motors", nil)
	listResp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, listResp.StatusCode)

	var list ListPlansResponse
	require.NoError(t, json.NewDecoder(listResp.Body).Decode(&list))
	require.Equal(t, 1, list.Count)
	assert.Equal(t, plan.ID, list.Plans[0].ID)
}

func TestServer_GetPlan_NotFound(t *testing.T) {
	app := testApp(t, noAuth(), testDeps{})

	req, _ := http.NewRequest("GET", "/api/v1/plans/nope", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServer_Taxonomy(t *testing.T) {
	app := testApp(t, noAuth(), testDeps{})

	req, _ := http.NewRequest("GET", "/api/v1/taxonomy", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body TaxonomyResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Len(t, body.Departments, 4)
	assert.Equal(t, taxonomy.SeniorOversightLevel, body.SeniorOversightLevel)
	assert.NotEmpty(t, body.Roles)
}

func TestServer_Normalize(t *testing.T) {
	app := testApp(t, noAuth(), testDeps{})

	resp := postJSON(t, app, "/api/v1/normalize", NormalizeRequest{
		Hint: "520 hours", DurationWeeks: 26,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body NormalizeResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, staffing.AllocHours, body.AllocationType)
	require.NotNil(t, body.FTEPct)
	assert.InDelta(t, 50.0, *body.FTEPct, 1e-9)
}

func TestServer_Normalize_UnknownDuration(t *testing.T) {
	app := testApp(t, noAuth(), testDeps{})

	resp := postJSON(t, app, "/api/v1/normalize", NormalizeRequest{Hint: "520 hours"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body NormalizeResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Nil(t, body.FTEPct)
	require.NotNil(t, body.Hours)
	assert.InDelta(t, 520.0, *body.Hours, 1e-9)
}

func TestServer_Normalize_Unrecognized(t *testing.T) {
	app := testApp(t, noAuth(), testDeps{})

	resp := postJSON(t, app, "/api/v1/normalize", NormalizeRequest{Hint: "as needed"})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestServer_APIKeyAuth(t *testing.T) {
	app := testApp(t, AuthConfig{Mode: "api-key", APIKey: "sekrit"}, testDeps{})

	// Probes stay open
	req, _ := http.NewRequest("GET", "/healthz", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Missing key
	req, _ = http.NewRequest("GET", "/api/v1/taxonomy", nil)
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Wrong key
	req, _ = http.NewRequest("GET", "/api/v1/taxonomy", nil)
	req.Header.Set("X-API-Key", "wrong")
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Right key
	req, _ = http.NewRequest("GET", "/api/v1/taxonomy", nil)
	req.Header.Set("X-API-Key", "sekrit")
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServer_JWTAuth(t *testing.T) {
	secret := "jwt-secret"
	app := testApp(t, AuthConfig{Mode: "jwt", JWTSecret: secret}, testDeps{})

	// No token
	req, _ := http.NewRequest("GET", "/api/v1/taxonomy", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Token signed with the wrong key
	bad, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "tester",
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("other-secret"))
	require.NoError(t, err)

	req, _ = http.NewRequest("GET", "/api/v1/taxonomy", nil)
	req.Header.Set("Authorization", "Bearer "+bad)
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Valid token
	good, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "tester",
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(secret))
	require.NoError(t, err)

	req, _ = http.NewRequest("GET", "/api/v1/taxonomy", nil)
	req.Header.Set("Authorization", "Bearer "+good)
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServer_RequestIDHeader(t *testing.T) {
	app := testApp(t, noAuth(), testDeps{})

	req, _ := http.NewRequest("GET", "/healthz", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}
