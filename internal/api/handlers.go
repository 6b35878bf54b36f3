package api

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	apperrors "github.com/agencyops/staffing-engine/internal/errors"
	"github.com/agencyops/staffing-engine/internal/health"
	"github.com/agencyops/staffing-engine/internal/metrics"
	"github.com/agencyops/staffing-engine/internal/requestid"
	"github.com/agencyops/staffing-engine/internal/staffing"
	"github.com/agencyops/staffing-engine/internal/store"
	"github.com/agencyops/staffing-engine/internal/synthesis"
	"github.com/agencyops/staffing-engine/internal/taxonomy"
)

// Suggester proposes candidate roles from project context and SOW text.
type Suggester interface {
	SuggestCandidates(ctx context.Context, project *staffing.ProjectContext, sowText string) ([]staffing.Candidate, error)
}

// DocumentStore fetches extracted SOW text and archives finalized plans.
type DocumentStore interface {
	FetchExtractedText(ctx context.Context, docID string) ([]byte, error)
	PutPlanArtifact(ctx context.Context, plan *staffing.Plan) error
}

// ReviewNotifier posts review alerts for flagged plans.
type ReviewNotifier interface {
	PlanNeedsReview(ctx context.Context, plan *staffing.Plan) error
}

// Handlers implements the HTTP endpoints. The store, suggester,
// document store and notifier are optional; the matching request
// flags become no-ops when they are nil.
type Handlers struct {
	engine    *synthesis.Engine
	plans     *store.Store
	suggester Suggester
	docs      DocumentStore
	notifier  ReviewNotifier
	metrics   *metrics.Metrics
	checker   *health.Checker
	logger    zerolog.Logger
}

// NewHandlers wires the endpoint handlers.
func NewHandlers(
	engine *synthesis.Engine,
	plans *store.Store,
	suggester Suggester,
	docs DocumentStore,
	notifier ReviewNotifier,
	m *metrics.Metrics,
	checker *health.Checker,
	logger zerolog.Logger,
) *Handlers {
	return &Handlers{
		engine:    engine,
		plans:     plans,
		suggester: suggester,
		docs:      docs,
		notifier:  notifier,
		metrics:   m,
		checker:   checker,
		logger:    logger.With().Str("component", "api").Logger(),
	}
}

// requestCtx carries the request ID into collaborator calls.
func requestCtx(c *fiber.Ctx) context.Context {
	ctx := c.UserContext()
	if id, ok := c.Locals("request_id").(string); ok && id != "" {
		ctx = requestid.WithRequestID(ctx, id)
	}
	return ctx
}

// CreatePlan handles POST /api/v1/plans.
func (h *Handlers) CreatePlan(c *fiber.Ctx) error {
	var req PlanRequest
	if err := c.BodyParser(&req); err != nil {
		return problemResponse(c, fiber.StatusBadRequest,
			"invalid_body", "Bad Request",
			"request body must be valid JSON: "+err.Error())
	}

	// Unknown or missing enum values collapse to the defaults.
	req.Project.Type = staffing.ParseProjectType(string(req.Project.Type))
	req.Project.Complexity = staffing.ParseComplexity(string(req.Project.Complexity))

	ctx := requestCtx(c)

	sowText := req.SOWText
	if sowText == "" && req.DocumentKey != "" {
		if h.docs == nil {
			return problemResponse(c, fiber.StatusUnprocessableEntity,
				"docstore_unavailable", "Unprocessable Entity",
				"document_key given but document storage is not configured")
		}
		text, err := h.docs.FetchExtractedText(ctx, req.DocumentKey)
		if err != nil {
			return problemResponse(c, fiber.StatusBadGateway,
				"document_fetch_failed", "Bad Gateway",
				"could not fetch extracted text for document "+req.DocumentKey)
		}
		sowText = string(text)
	}

	candidates := req.Candidates
	if req.Suggest && h.suggester != nil {
		suggested, err := h.suggester.SuggestCandidates(ctx, &req.Project, sowText)
		if err != nil {
			// Suggestion is best-effort; carry on with what the
			// document gave us.
			h.logger.Warn().Err(err).Msg("candidate suggestion failed")
		} else {
			candidates = append(candidates, suggested...)
		}
	}

	start := time.Now()
	plan, err := h.engine.Synthesize(&req.Project, candidates)
	if err != nil {
		if apperrors.IsConfigError(err) {
			h.metrics.RecordSynthesis(string(req.Project.Type), "config_error")
			return problemResponse(c, fiber.StatusUnprocessableEntity,
				"synthesis_config_error", "Unprocessable Entity", err.Error())
		}
		h.metrics.RecordSynthesis(string(req.Project.Type), "error")
		return problemResponse(c, fiber.StatusInternalServerError,
			"synthesis_failed", "Internal Server Error", err.Error())
	}
	h.metrics.RecordSynthesis(string(req.Project.Type), "ok")
	h.metrics.ObserveSynthesisDuration(string(req.Project.Type), time.Since(start).Seconds())
	h.metrics.RecordPlan(plan)

	if req.Persist && h.plans != nil {
		if err := h.plans.Save(ctx, plan); err != nil {
			h.metrics.RecordStoreError("save")
			return problemResponse(c, fiber.StatusInternalServerError,
				"persist_failed", "Internal Server Error",
				"plan could not be saved: "+err.Error())
		}
		if h.docs != nil {
			if err := h.docs.PutPlanArtifact(ctx, plan); err != nil {
				h.logger.Warn().Err(err).Str("plan_id", plan.ID).
					Msg("plan artifact upload failed")
			}
		}
	}

	if req.Notify && h.notifier != nil && plan.NeedsReview() {
		_ = h.notifier.PlanNeedsReview(ctx, plan)
	}

	return c.JSON(plan)
}

// GetPlan handles GET /api/v1/plans/:id.
func (h *Handlers) GetPlan(c *fiber.Ctx) error {
	if h.plans == nil {
		return storeUnavailable(c)
	}
	plan, err := h.plans.Get(requestCtx(c), c.Params("id"))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return problemResponse(c, fiber.StatusNotFound,
				"plan_not_found", "Not Found",
				"no plan with id "+c.Params("id"))
		}
		h.metrics.RecordStoreError("get")
		return problemResponse(c, fiber.StatusInternalServerError,
			"store_error", "Internal Server Error", err.Error())
	}
	return c.JSON(plan)
}

// ListPlans handles GET /api/v1/plans.
func (h *Handlers) ListPlans(c *fiber.Ctx) error {
	if h.plans == nil {
		return storeUnavailable(c)
	}
	plans, err := h.plans.List(requestCtx(c), store.ListFilter{
		Client: c.Query("client"),
		Limit:  c.QueryInt("limit", 50),
		Offset: c.QueryInt("offset", 0),
	})
	if err != nil {
		h.metrics.RecordStoreError("list")
		return problemResponse(c, fiber.StatusInternalServerError,
			"store_error", "Internal Server Error", err.Error())
	}
	return c.JSON(ListPlansResponse{Plans: plans, Count: len(plans)})
}

// GetTaxonomy handles GET /api/v1/taxonomy.
func (h *Handlers) GetTaxonomy(c *fiber.Ctx) error {
	reg := h.engine.Registry()
	return c.JSON(TaxonomyResponse{
		Departments:          taxonomy.Departments(),
		SeniorOversightLevel: taxonomy.SeniorOversightLevel,
		Roles:                reg.Entries(),
	})
}

// Normalize handles POST /api/v1/normalize.
func (h *Handlers) Normalize(c *fiber.Ctx) error {
	var req NormalizeRequest
	if err := c.BodyParser(&req); err != nil {
		return problemResponse(c, fiber.StatusBadRequest,
			"invalid_body", "Bad Request",
			"request body must be valid JSON: "+err.Error())
	}
	if req.Hint == "" {
		return problemResponse(c, fiber.StatusBadRequest,
			"missing_hint", "Bad Request", "hint is required")
	}

	typ, val, ok := staffing.ParseAllocationHint(req.Hint)
	if !ok {
		return problemResponse(c, fiber.StatusUnprocessableEntity,
			"unrecognized_allocation", "Unprocessable Entity",
			"no allocation could be parsed from the hint")
	}

	resp := NormalizeResponse{AllocationType: typ, AllocationValue: val}
	switch typ {
	case staffing.AllocFTEPct:
		resp.FTEPct = &val
		if hours, known := staffing.FTEPctToHours(val, req.DurationWeeks); known {
			resp.Hours = &hours
		}
	case staffing.AllocHours:
		resp.Hours = &val
		if pct, known := staffing.HoursToFTEPct(val, req.DurationWeeks); known {
			resp.FTEPct = &pct
		}
	}
	return c.JSON(resp)
}

// Liveness handles GET /healthz.
func (h *Handlers) Liveness(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// Readiness handles GET /readyz.
func (h *Handlers) Readiness(c *fiber.Ctx) error {
	if h.checker == nil {
		return c.JSON(fiber.Map{"status": "ready"})
	}
	checks := h.checker.RunAll(requestCtx(c))
	if !health.Ready(checks) {
		return c.Status(fiber.StatusServiceUnavailable).
			JSON(fiber.Map{"status": "not_ready", "checks": checks})
	}
	return c.JSON(fiber.Map{"status": "ready", "checks": checks})
}

func storeUnavailable(c *fiber.Ctx) error {
	return problemResponse(c, fiber.StatusServiceUnavailable,
		"store_unavailable", "Service Unavailable",
		"plan persistence is not configured")
}
