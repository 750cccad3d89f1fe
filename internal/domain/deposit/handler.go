package deposit

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/novafund/novafund-api/internal/middleware"
	"github.com/novafund/novafund-api/internal/pkg/response"
	"github.com/novafund/novafund-api/internal/pkg/storage"
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

	var req CreateDepositRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	if errs := validator.Validate(req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	d, err := h.svc.Create(r.Context(), userID, req.AmountCents, req.PaymentMethod)
	if err != nil {
		if errors.Is(err, ErrInvalidAmount) {
			response.BadRequest(w, "amount must be greater than zero")
			return
		}
		response.InternalError(w)
		return
	}

	response.Created(w, d)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	deposits, err := h.svc.ListByUser(r.Context(), userID, limit, offset)
	if err != nil {
		response.InternalError(w)
		return
	}

	response.OK(w, map[string]interface{}{"deposits": deposits})
}

// UploadProof accepts a multipart payment proof (image or PDF).
func (h *Handler) UploadProof(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	depositID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid deposit id")
		return
	}

	if err := r.ParseMultipartForm(12 << 20); err != nil {
		response.BadRequest(w, "invalid multipart body")
		return
	}
	file, _, err := r.FormFile("proof")
	if err != nil {
		response.BadRequest(w, "proof file is required")
		return
	}
	defer file.Close()

	d, err := h.svc.AttachProof(r.Context(), depositID, userID, file)
	if err != nil {
		switch {
		case errors.Is(err, ErrDepositNotFound):
			response.NotFound(w, "deposit not found")
		case errors.Is(err, ErrNotOwner):
			response.Forbidden(w, "deposit belongs to another user")
		case errors.Is(err, ErrAlreadyFinalized):
			response.Conflict(w, "deposit already finalized")
		case errors.Is(err, storage.ErrFileTooLarge), errors.Is(err, storage.ErrInvalidMimeType), errors.Is(err, storage.ErrEmptyFile):
			response.BadRequest(w, err.Error())
		default:
			response.InternalError(w)
		}
		return
	}

	response.OK(w, d)
}

func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	adminID := middleware.GetUserID(r.Context())
	depositID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid deposit id")
		return
	}

	d, err := h.svc.Approve(r.Context(), depositID, adminID)
	if err != nil {
		h.writeFinalizeError(w, err)
		return
	}

	response.OK(w, d)
}

func (h *Handler) Reject(w http.ResponseWriter, r *http.Request) {
	adminID := middleware.GetUserID(r.Context())
	depositID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid deposit id")
		return
	}

	var req RejectDepositRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	if errs := validator.Validate(req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	d, err := h.svc.Reject(r.Context(), depositID, adminID, req.Reason)
	if err != nil {
		h.writeFinalizeError(w, err)
		return
	}

	response.OK(w, d)
}

func (h *Handler) ListPendingReview(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	deposits, err := h.svc.ListPendingReview(r.Context(), limit, offset)
	if err != nil {
		response.InternalError(w)
		return
	}

	response.OK(w, map[string]interface{}{"deposits": deposits})
}

func (h *Handler) writeFinalizeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrDepositNotFound):
		response.NotFound(w, "deposit not found")
	case errors.Is(err, ErrAlreadyFinalized):
		response.Conflict(w, "deposit already finalized")
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
	r.Post("/{id}/proof", h.UploadProof)
	return r
}

func (h *Handler) AdminRoutes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ListPendingReview)
	r.Post("/{id}/approve", h.Approve)
	r.Post("/{id}/reject", h.Reject)
	return r
}
