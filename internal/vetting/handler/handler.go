// Package handler exposes the vetting engine over HTTP: the administrative
// transition API, the access-check API, and the public status lookup.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"membergate/internal/platform/metrics"
	"membergate/internal/platform/middleware"
	"membergate/internal/transport/http/shared"
	"membergate/internal/vetting"
	"membergate/internal/vetting/access"
	"membergate/internal/vetting/public"
	"membergate/internal/vetting/service"
	id "membergate/pkg/domain"
	dErrors "membergate/pkg/domain-errors"
)

// Handler wires the three vetting surfaces onto one router.
type Handler struct {
	logger         *slog.Logger
	engine         *service.Service
	gate           *access.Service
	status         *public.Service
	metrics        *metrics.Metrics
	jwtValidator   middleware.JWTValidator
	adminTokenHash string
}

func New(
	engine *service.Service,
	gate *access.Service,
	status *public.Service,
	logger *slog.Logger,
	m *metrics.Metrics,
	jwtValidator middleware.JWTValidator,
	adminTokenHash string,
) *Handler {
	return &Handler{
		logger:         logger,
		engine:         engine,
		gate:           gate,
		status:         status,
		metrics:        m,
		jwtValidator:   jwtValidator,
		adminTokenHash: adminTokenHash,
	}
}

// Register mounts the vetting routes. The admin surface stacks RequireAuth
// and RequireAdmin; access checks need only authentication; the token
// lookup is anonymous by design.
func (h *Handler) Register(r chi.Router) {
	base := func(router chi.Router) {
		router.Use(middleware.Recovery(h.logger))
		router.Use(middleware.RequestID)
		router.Use(middleware.Logger(h.logger))
		router.Use(middleware.Timeout(30 * time.Second))
		router.Use(middleware.ContentTypeJSON)
		router.Use(middleware.LatencyMiddleware(h.metrics))
	}

	adminRouter := chi.NewRouter()
	base(adminRouter)
	adminRouter.Use(middleware.RequireAuth(h.jwtValidator, h.logger))
	adminRouter.Use(middleware.RequireAdmin(h.adminTokenHash, h.logger))
	adminRouter.Post("/applications/{applicationID}/transition", h.handleTransition)
	adminRouter.Post("/applications/{applicationID}/interview", h.handleScheduleInterview)
	adminRouter.Get("/applications/{applicationID}", h.handleGetApplication)
	adminRouter.Get("/applications/{applicationID}/audit", h.handleAuditTrail)

	accessRouter := chi.NewRouter()
	base(accessRouter)
	accessRouter.Use(middleware.RequireAuth(h.jwtValidator, h.logger))
	accessRouter.Get("/rsvp/{eventID}", h.handleCanRSVP)
	accessRouter.Get("/ticket/{eventID}", h.handleCanPurchaseTicket)

	statusRouter := chi.NewRouter()
	base(statusRouter)
	statusRouter.Get("/status/{token}", h.handleStatusByToken)
	statusRouter.Group(func(authed chi.Router) {
		authed.Use(middleware.RequireAuth(h.jwtValidator, h.logger))
		authed.Get("/my-status", h.handleMyStatus)
	})

	r.Mount("/admin/vetting", adminRouter)
	r.Mount("/access", accessRouter)
	r.Mount("/vetting", statusRouter)
}

type transitionRequest struct {
	TargetStatus string `json:"target_status"`
	Notes        string `json:"notes"`
}

type interviewRequest struct {
	ScheduledFor time.Time `json:"scheduled_for"`
	Location     string    `json:"location"`
}

type applicationResponse struct {
	ID                string     `json:"id"`
	ApplicationNumber string     `json:"application_number"`
	UserID            string     `json:"user_id,omitempty"`
	Email             string     `json:"email"`
	PreferredName     string     `json:"preferred_name,omitempty"`
	Status            string     `json:"status"`
	AdminNotes        string     `json:"admin_notes"`
	DecisionMadeAt    *time.Time `json:"decision_made_at,omitempty"`
	InterviewAt       *time.Time `json:"interview_at,omitempty"`
	InterviewLocation string     `json:"interview_location,omitempty"`
	SubmittedAt       time.Time  `json:"submitted_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

type auditEntryResponse struct {
	ID          int64     `json:"id"`
	Action      string    `json:"action"`
	OldValue    string    `json:"old_value,omitempty"`
	NewValue    string    `json:"new_value,omitempty"`
	PerformedBy string    `json:"performed_by"`
	PerformedAt time.Time `json:"performed_at"`
	Notes       string    `json:"notes,omitempty"`
}

type accessResponse struct {
	Allowed       bool   `json:"allowed"`
	DenialReason  string `json:"denial_reason,omitempty"`
	UserMessage   string `json:"user_message,omitempty"`
	VettingStatus string `json:"vetting_status,omitempty"`
}

func toApplicationResponse(app *vetting.Application) applicationResponse {
	resp := applicationResponse{
		ID:                app.ID.String(),
		ApplicationNumber: app.ApplicationNumber,
		Email:             app.Email,
		PreferredName:     app.PreferredName,
		Status:            string(app.Status),
		AdminNotes:        app.AdminNotes,
		DecisionMadeAt:    app.DecisionMadeAt,
		InterviewAt:       app.InterviewAt,
		InterviewLocation: app.InterviewLocation,
		SubmittedAt:       app.SubmittedAt,
		UpdatedAt:         app.UpdatedAt,
	}
	if app.UserID != nil {
		resp.UserID = app.UserID.String()
	}
	return resp
}

// actorID resolves the authenticated caller from the request context.
func (h *Handler) actorID(w http.ResponseWriter, r *http.Request) (id.UserID, bool) {
	raw := middleware.GetUserID(r.Context())
	if raw == "" {
		h.logger.ErrorContext(r.Context(), "user id missing from context despite auth middleware",
			"request_id", middleware.GetRequestID(r.Context()))
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return id.UserID{}, false
	}
	userID, err := id.ParseUserID(raw)
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "invalid subject claim"))
		return id.UserID{}, false
	}
	return userID, true
}

func applicationIDParam(r *http.Request) (id.ApplicationID, error) {
	return id.ParseApplicationID(chi.URLParam(r, "applicationID"))
}

func (h *Handler) handleTransition(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	appID, err := applicationIDParam(r)
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid application id"))
		return
	}
	actor, ok := h.actorID(w, r)
	if !ok {
		return
	}

	var req transitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	target, err := vetting.ParseStatus(req.TargetStatus)
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "unknown target status"))
		return
	}

	app, err := h.engine.RequestTransition(ctx, appID, target, req.Notes, actor)
	if err != nil {
		h.logRejection(r, "transition rejected", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toApplicationResponse(app))
}

func (h *Handler) handleScheduleInterview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	appID, err := applicationIDParam(r)
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid application id"))
		return
	}
	actor, ok := h.actorID(w, r)
	if !ok {
		return
	}

	var req interviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	app, err := h.engine.ScheduleInterview(ctx, appID, req.ScheduledFor, req.Location, actor)
	if err != nil {
		h.logRejection(r, "interview scheduling rejected", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toApplicationResponse(app))
}

func (h *Handler) handleGetApplication(w http.ResponseWriter, r *http.Request) {
	appID, err := applicationIDParam(r)
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid application id"))
		return
	}
	actor, ok := h.actorID(w, r)
	if !ok {
		return
	}

	app, err := h.engine.GetApplication(r.Context(), appID, actor)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toApplicationResponse(app))
}

func (h *Handler) handleAuditTrail(w http.ResponseWriter, r *http.Request) {
	appID, err := applicationIDParam(r)
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid application id"))
		return
	}
	actor, ok := h.actorID(w, r)
	if !ok {
		return
	}

	entries, err := h.engine.AuditTrail(r.Context(), appID, actor)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	resp := make([]auditEntryResponse, 0, len(entries))
	for _, e := range entries {
		resp = append(resp, auditEntryResponse{
			ID:          e.ID,
			Action:      e.Action,
			OldValue:    e.OldValue,
			NewValue:    e.NewValue,
			PerformedBy: e.PerformedBy.String(),
			PerformedAt: e.PerformedAt,
			Notes:       e.Notes,
		})
	}
	shared.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleCanRSVP(w http.ResponseWriter, r *http.Request) {
	h.handleAccessCheck(w, r, h.gate.CanUserRSVP)
}

func (h *Handler) handleCanPurchaseTicket(w http.ResponseWriter, r *http.Request) {
	h.handleAccessCheck(w, r, h.gate.CanUserPurchaseTicket)
}

func (h *Handler) handleAccessCheck(w http.ResponseWriter, r *http.Request,
	check func(ctx context.Context, userID id.UserID, eventID id.EventID) (access.Decision, error)) {
	userID, ok := h.actorID(w, r)
	if !ok {
		return
	}
	eventID, err := id.ParseEventID(chi.URLParam(r, "eventID"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid event id"))
		return
	}

	decision, err := check(r.Context(), userID, eventID)
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "unable to verify eligibility at this time"))
		return
	}

	resp := accessResponse{
		Allowed:      decision.Allowed,
		DenialReason: decision.Reason,
		UserMessage:  decision.UserMessage,
	}
	if decision.Status != nil {
		resp.VettingStatus = string(*decision.Status)
	}
	shared.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleMyStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.actorID(w, r)
	if !ok {
		return
	}

	view, err := h.status.GetMyStatus(r.Context(), userID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, view)
}

func (h *Handler) handleStatusByToken(w http.ResponseWriter, r *http.Request) {
	view, err := h.status.GetStatusByToken(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, view)
}

func (h *Handler) logRejection(r *http.Request, msg string, err error) {
	if h.logger == nil {
		return
	}
	code := dErrors.CodeOf(err)
	if code == dErrors.CodeInternal {
		h.logger.ErrorContext(r.Context(), msg,
			"request_id", middleware.GetRequestID(r.Context()), "error", err)
		return
	}
	h.logger.WarnContext(r.Context(), msg,
		"request_id", middleware.GetRequestID(r.Context()), "code", string(code), "error", err)
}
