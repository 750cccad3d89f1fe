package recurring

import (
	"errors"
	"net/http"

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

	var req CreatePlanRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	if errs := validator.Validate(req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	p, err := h.svc.CreatePlan(r.Context(), userID, req.PlanType, req.MonthlyCents)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidPlanType):
			response.BadRequest(w, "unknown plan type")
		case errors.Is(err, ErrInvalidAmount):
			response.BadRequest(w, "monthly contribution must be greater than zero")
		default:
			response.InternalError(w)
		}
		return
	}

	response.Created(w, p)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	plans, err := h.svc.ListByUser(r.Context(), userID)
	if err != nil {
		response.InternalError(w)
		return
	}

	response.OK(w, map[string]interface{}{"plans": plans})
}

func (h *Handler) Pay(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	planID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid plan id")
		return
	}

	p, err := h.svc.PayInstallment(r.Context(), planID, userID)
	if err != nil {
		h.writePlanError(w, err)
		return
	}

	response.OK(w, p)
}

func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	planID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid plan id")
		return
	}

	p, err := h.svc.Cancel(r.Context(), planID, userID)
	if err != nil {
		h.writePlanError(w, err)
		return
	}

	response.OK(w, p)
}

func (h *Handler) writePlanError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrPlanNotFound):
		response.NotFound(w, "plan not found")
	case errors.Is(err, ErrNotOwner):
		response.Forbidden(w, "plan belongs to another user")
	case errors.Is(err, ErrNotPayable):
		response.Conflict(w, "plan is not accepting installments")
	case errors.Is(err, ErrNotDue):
		response.Conflict(w, "installment is not due yet")
	case errors.Is(err, ErrInvalidTransition):
		response.Conflict(w, "plan is not in the required state")
	default:
		response.InternalError(w)
	}
}

func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)
	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Post("/{id}/pay", h.Pay)
	r.Post("/{id}/cancel", h.Cancel)
	return r
}
