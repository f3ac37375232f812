// Package access answers "can this user RSVP or buy a ticket right now"
// from their current vetting status. Denials are audited; allowances are
// not, keeping the trail focused on why someone was blocked.
package access

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"membergate/internal/platform/metrics"
	"membergate/internal/vetting"
	"membergate/internal/vetting/ports"
	id "membergate/pkg/domain"
	dErrors "membergate/pkg/domain-errors"
	"membergate/pkg/platform/audit"
)

var tracer = otel.Tracer("membergate/vetting/access")

// Action labels written into denial audit entries. Reporting filters on
// these exact strings.
const (
	ActionRSVP           = vetting.ActionRSVP
	ActionTicketPurchase = vetting.ActionTicketPurchase
)

// defaultCacheTTL bounds snapshot staleness when the point invalidation
// from the transition engine does not reach this instance.
const defaultCacheTTL = 5 * time.Minute

// Decision is the gate's answer. Status is nil when the user has no
// application on file, which always allows.
type Decision struct {
	Allowed     bool
	Reason      string
	UserMessage string
	Status      *vetting.Status
}

type Service struct {
	store vetting.Store
	cache ports.StatusCache

	auditPublisher ports.AuditPublisher
	metrics        *metrics.Metrics
	logger         *slog.Logger
	supportEmail   string
	ttl            time.Duration
	now            func() time.Time
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher ports.AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithCacheTTL overrides how long a status snapshot may be served without
// consulting the store.
func WithCacheTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithSupportEmail sets the address on-hold applicants are directed to.
func WithSupportEmail(addr string) Option {
	return func(s *Service) {
		if addr != "" {
			s.supportEmail = addr
		}
	}
}

// WithNow overrides the clock, for tests.
func WithNow(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func New(store vetting.Store, cache ports.StatusCache, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("application store is required")
	}
	if cache == nil {
		return nil, fmt.Errorf("status cache is required")
	}

	svc := &Service{
		store:        store,
		cache:        cache,
		supportEmail: "support@membergate.local",
		ttl:          defaultCacheTTL,
		now:          time.Now,
	}

	for _, opt := range opts {
		opt(svc)
	}

	return svc, nil
}

// CanUserRSVP decides whether the user may RSVP to the event.
func (s *Service) CanUserRSVP(ctx context.Context, userID id.UserID, eventID id.EventID) (Decision, error) {
	return s.check(ctx, userID, eventID, ActionRSVP, rsvpMessages)
}

// CanUserPurchaseTicket decides whether the user may buy a ticket for the
// event. Same rule set as RSVP; only the audit label and copy differ.
func (s *Service) CanUserPurchaseTicket(ctx context.Context, userID id.UserID, eventID id.EventID) (Decision, error) {
	return s.check(ctx, userID, eventID, ActionTicketPurchase, ticketMessages)
}

func (s *Service) check(ctx context.Context, userID id.UserID, eventID id.EventID, action string, messages map[vetting.Status]string) (Decision, error) {
	ctx, span := tracer.Start(ctx, "vetting.AccessCheck")
	defer span.End()
	span.SetAttributes(
		attribute.String("action", action),
		attribute.String("user_id", userID.String()),
	)

	if userID.IsNil() {
		return Decision{}, dErrors.New(dErrors.CodeBadRequest, "user_id is required")
	}

	snap, err := s.snapshot(ctx, userID)
	if err != nil {
		ports.LogAudit(ctx, s.logger, s.auditPublisher, audit.Event{
			Category:  audit.EventStatusLookupFailed.Category(),
			Timestamp: s.now().UTC(),
			UserID:    userID,
			Action:    string(audit.EventStatusLookupFailed),
			Reason:    action,
		}, "error", err)
		return Decision{}, err
	}

	decision := evaluate(snap, messages, s.supportEmail)
	s.countDecision(action, decision.Allowed)

	if !decision.Allowed {
		s.recordDenial(ctx, userID, eventID, action, snap, decision)
	}
	return decision, nil
}

// snapshot resolves the user's status, preferring the cache. Cache failures
// fall through to the store; only the store is authoritative.
func (s *Service) snapshot(ctx context.Context, userID id.UserID) (ports.StatusSnapshot, error) {
	cached, err := s.cache.Get(ctx, userID)
	if err != nil {
		s.countCacheLookup("error")
		if s.logger != nil {
			s.logger.WarnContext(ctx, "status cache read failed", "user_id", userID.String(), "error", err)
		}
	} else if cached != nil {
		s.countCacheLookup("hit")
		return *cached, nil
	} else {
		s.countCacheLookup("miss")
	}

	var snap ports.StatusSnapshot
	app, err := s.store.FindByUserID(ctx, userID)
	switch {
	case errors.Is(err, vetting.ErrNotFound):
		snap = ports.StatusSnapshot{HasApplication: false}
	case err != nil:
		return ports.StatusSnapshot{}, dErrors.Wrap(err, dErrors.CodeInternal, "status lookup failed")
	default:
		snap = ports.StatusSnapshot{
			HasApplication: true,
			ApplicationID:  app.ID,
			Status:         app.Status,
		}
	}

	if err := s.cache.Set(ctx, userID, snap, s.ttl); err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "status cache write failed", "user_id", userID.String(), "error", err)
	}
	return snap, nil
}

var denialReasons = map[vetting.Status]string{
	vetting.StatusOnHold:    "Vetting application on hold",
	vetting.StatusDenied:    "Vetting application denied",
	vetting.StatusWithdrawn: "Vetting application withdrawn",
}

var rsvpMessages = map[vetting.Status]string{
	vetting.StatusOnHold:    "Your vetting application is on hold. Please contact %s to provide additional information and reactivate your application.",
	vetting.StatusDenied:    "Your vetting application was denied. You cannot RSVP for events at this time.",
	vetting.StatusWithdrawn: "You withdrew your vetting application. You may submit a new application to gain access to events.",
}

var ticketMessages = map[vetting.Status]string{
	vetting.StatusOnHold:    "Your application is on hold. Please contact %s to reactivate your application.",
	vetting.StatusDenied:    "Your vetting application was not approved. You cannot purchase tickets at this time.",
	vetting.StatusWithdrawn: "You withdrew your vetting application. Please submit a new application if you would like to join the community.",
}

func evaluate(snap ports.StatusSnapshot, messages map[vetting.Status]string, supportEmail string) Decision {
	if !snap.HasApplication {
		return Decision{Allowed: true}
	}

	status := snap.Status
	if !status.BlocksParticipation() {
		return Decision{Allowed: true, Status: &status}
	}

	msg := messages[status]
	if status == vetting.StatusOnHold {
		msg = fmt.Sprintf(msg, supportEmail)
	}
	return Decision{
		Allowed:     false,
		Reason:      denialReasons[status],
		UserMessage: msg,
		Status:      &status,
	}
}

// recordDenial writes the per-application audit entry and the operational
// event. An audit write failure is logged but never blocks the check; the
// caller already has their answer.
func (s *Service) recordDenial(ctx context.Context, userID id.UserID, eventID id.EventID, action string, snap ports.StatusSnapshot, decision Decision) {
	entry := &vetting.AuditLog{
		ApplicationID: snap.ApplicationID,
		Action:        action,
		PerformedBy:   userID,
		PerformedAt:   s.now().UTC(),
		Notes:         fmt.Sprintf("Access denied. Vetting status: %s. Reason: %s", snap.Status, decision.Reason),
	}
	if err := s.store.AppendAudit(ctx, entry); err != nil && s.logger != nil {
		s.logger.ErrorContext(ctx, "failed to record access denial",
			"user_id", userID.String(),
			"event_id", eventID.String(),
			"action", action,
			"error", err)
	}

	ports.LogAudit(ctx, s.logger, s.auditPublisher, audit.Event{
		Category:      audit.EventAccessDenied.Category(),
		Timestamp:     s.now().UTC(),
		UserID:        userID,
		ApplicationID: snap.ApplicationID.String(),
		Action:        string(audit.EventAccessDenied),
		Decision:      action,
		Reason:        decision.Reason,
	}, "action", action, "status", string(snap.Status))
}

func (s *Service) countDecision(action string, allowed bool) {
	if s.metrics == nil {
		return
	}
	outcome := "deny"
	if allowed {
		outcome = "allow"
	}
	s.metrics.AccessDecisionsTotal.WithLabelValues(action, outcome).Inc()
}

func (s *Service) countCacheLookup(result string) {
	if s.metrics == nil {
		return
	}
	s.metrics.CacheLookupsTotal.WithLabelValues(result).Inc()
}
