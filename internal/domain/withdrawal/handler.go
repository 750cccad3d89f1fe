package withdrawal

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

	var req CreateWithdrawalRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	if errs := validator.Validate(req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	wd, err := h.svc.Create(r.Context(), userID, req.AmountCents, req.PaymentMethod, req.Destination)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidMethod):
			response.BadRequest(w, "unknown payment method")
		case errors.Is(err, ErrInvalidAmount):
			response.BadRequest(w, "amount must exceed the method fee")
		case errors.Is(err, ErrKycRequired):
			response.Forbidden(w, "identity verification required for this method")
		case errors.Is(err, ErrInsufficientBalance):
			response.InsufficientBalance(w, "insufficient available balance")
		default:
			response.InternalError(w)
		}
		return
	}

	response.Created(w, wd)
}

// Quote returns the fee breakdown without creating a request.
func (h *Handler) Quote(w http.ResponseWriter, r *http.Request) {
	var req QuoteRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	if errs := validator.Validate(req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	fee, net, err := h.svc.QuoteFee(req.PaymentMethod, req.AmountCents)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidMethod):
			response.BadRequest(w, "unknown payment method")
		case errors.Is(err, ErrInvalidAmount):
			response.BadRequest(w, "amount must exceed the method fee")
		default:
			response.InternalError(w)
		}
		return
	}

	response.OK(w, QuoteResponse{AmountCents: req.AmountCents, FeeCents: fee, NetCents: net})
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

	response.OK(w, map[string]interface{}{"withdrawals": items})
}

func (h *Handler) ListPending(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	status := Status(r.URL.Query().Get("status"))
	if status == "" {
		status = StatusPending
	}

	items, err := h.svc.ListByStatus(r.Context(), status, limit, offset)
	if err != nil {
		response.InternalError(w)
		return
	}

	response.OK(w, map[string]interface{}{"withdrawals": items})
}

func (h *Handler) MarkProcessing(w http.ResponseWriter, r *http.Request) {
	adminID := middleware.GetUserID(r.Context())
	withdrawalID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid withdrawal id")
		return
	}

	wd, err := h.svc.MarkProcessing(r.Context(), withdrawalID, adminID)
	if err != nil {
		h.writeTransitionError(w, err)
		return
	}

	response.OK(w, wd)
}

func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	adminID := middleware.GetUserID(r.Context())
	withdrawalID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid withdrawal id")
		return
	}

	wd, err := h.svc.Approve(r.Context(), withdrawalID, adminID)
	if err != nil {
		h.writeTransitionError(w, err)
		return
	}

	response.OK(w, wd)
}

func (h *Handler) Reject(w http.ResponseWriter, r *http.Request) {
	adminID := middleware.GetUserID(r.Context())
	withdrawalID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid withdrawal id")
		return
	}

	var req RejectWithdrawalRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	if errs := validator.Validate(req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	wd, err := h.svc.Reject(r.Context(), withdrawalID, adminID, req.Reason)
	if err != nil {
		h.writeTransitionError(w, err)
		return
	}

	response.OK(w, wd)
}

func (h *Handler) writeTransitionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrWithdrawalNotFound):
		response.NotFound(w, "withdrawal not found")
	case errors.Is(err, ErrInvalidTransition):
		response.Conflict(w, "withdrawal is not in the required state")
	case errors.Is(err, ErrReasonRequired):
		response.BadRequest(w, "rejection reason is required")
	default:
		response.InternalError(w)
	}
}

func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)
	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Post("/quote", h.Quote)
	return r
}

func (h *Handler) AdminRoutes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ListPending)
	r.Post("/{id}/processing", h.MarkProcessing)
	r.Post("/{id}/approve", h.Approve)
	r.Post("/{id}/reject", h.Reject)
	return r
}
