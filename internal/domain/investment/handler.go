package investment

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/novafund/novafund-api/internal/middleware"
	"github.com/novafund/novafund-api/internal/pkg/response"
	"github.com/novafund/novafund-api/internal/pkg/validator"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	var req CreateInvestmentRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	if errs := validator.Validate(req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	inv, err := h.svc.Create(r.Context(), userID, req.PlanID, req.AmountCents)
	if err != nil {
		switch {
		case errors.Is(err, ErrPlanNotFound):
			response.NotFound(w, "plan not found")
		case errors.Is(err, ErrPlanInactive):
			response.Conflict(w, "plan is not open for new investments")
		case errors.Is(err, ErrAmountOutOfRange):
			response.BadRequest(w, "amount outside the plan limits")
		case errors.Is(err, ErrCountryNotAllowed):
			response.Forbidden(w, "plan is not available in your country")
		case errors.Is(err, ErrInsufficientFunds):
			response.InsufficientBalance(w, "insufficient available balance")
		default:
			response.InternalError(w)
		}
		return
	}

	response.Created(w, inv)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	items, err := h.svc.ListByUser(r.Context(), userID, limit, offset)
	if err != nil {
		response.InternalError(w)
		return
	}

	response.OK(w, map[string]interface{}{"investments": items})
}

func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	summary, err := h.svc.GetSummary(r.Context(), userID)
	if err != nil {
		response.InternalError(w)
		return
	}

	response.OK(w, summary)
}

func (h *Handler) ListPlans(w http.ResponseWriter, r *http.Request) {
	plans, err := h.svc.ListPlans(r.Context())
	if err != nil {
		response.InternalError(w)
		return
	}

	response.OK(w, map[string]interface{}{"plans": plans})
}

func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	adminID := middleware.GetUserID(r.Context())
	investmentID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid investment id")
		return
	}

	inv, err := h.svc.Cancel(r.Context(), investmentID, adminID)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvestmentNotFound):
			response.NotFound(w, "investment not found")
		case errors.Is(err, ErrNotActive):
			response.Conflict(w, "investment is not active")
		default:
			response.InternalError(w)
		}
		return
	}

	response.OK(w, inv)
}

func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)
	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/summary", h.Summary)
	r.Get("/plans", h.ListPlans)
	return r
}

func (h *Handler) AdminRoutes() chi.Router {
	r := chi.NewRouter()
	r.Post("/{id}/cancel", h.Cancel)
	return r
}
