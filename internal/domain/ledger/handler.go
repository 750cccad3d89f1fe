package ledger

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/novafund/novafund-api/internal/middleware"
	"github.com/novafund/novafund-api/internal/pkg/response"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) GetWallet(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	wallet, err := h.svc.GetWallet(r.Context(), userID)
	if err != nil {
		response.InternalError(w)
		return
	}

	response.OK(w, wallet)
}

func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	f := Filters{Limit: limit, Offset: offset}
	if kind := r.URL.Query().Get("kind"); kind != "" {
		f.Kinds = []Kind{Kind(kind)}
	}
	if bucket := r.URL.Query().Get("bucket"); bucket != "" {
		f.Bucket = Bucket(bucket)
	}

	entries, err := h.svc.ListForUser(r.Context(), userID, f)
	if err != nil {
		response.InternalError(w)
		return
	}

	response.OK(w, map[string]interface{}{"transactions": entries})
}

type adjustmentRequest struct {
	UserID      string `json:"user_id"`
	Bucket      string `json:"bucket"`
	AmountCents int64  `json:"amount_cents"`
	Note        string `json:"note"`
}

// Adjust posts a manual_adjustment entry. Admin only; the note is mandatory
// because adjustments are the audit trail for corrections.
func (h *Handler) Adjust(w http.ResponseWriter, r *http.Request) {
	adminID := middleware.GetUserID(r.Context())
	if adminID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	var req adjustmentRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		response.BadRequest(w, "invalid user_id")
		return
	}

	id, err := h.svc.ManualAdjustment(r.Context(), userID, Bucket(req.Bucket), req.AmountCents, adminID, req.Note)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidEntry):
			response.BadRequest(w, "amount must be non-zero, bucket valid and note non-empty")
		case errors.Is(err, ErrInsufficientBalance):
			response.InsufficientBalance(w, "adjustment would overdraw a balance bucket")
		default:
			response.InternalError(w)
		}
		return
	}

	response.Created(w, map[string]interface{}{"entry_id": id})
}

func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)
	r.Get("/", h.GetWallet)
	r.Get("/transactions", h.ListTransactions)
	return r
}

func (h *Handler) AdminRoutes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.Adjust)
	return r
}
