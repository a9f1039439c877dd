package confirmation

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/sms-confirm-api/internal/domain"
	"github.com/sms-confirm-api/internal/infrastructure/sns"
	"github.com/sms-confirm-api/internal/pkg/code"
	"github.com/sms-confirm-api/internal/pkg/id"
)

// Placeholder is the template marker replaced by the generated code.
const Placeholder = "~"

// addressPattern is the supported destination shape: bare digits, 7-23 long.
var addressPattern = regexp.MustCompile(`^[0-9]{7,23}$`)

// ConfirmationStore is the tenant-scoped record store the engine drives.
type ConfirmationStore interface {
	UpsertPending(ctx context.Context, tenant, identifier, code string, ttl time.Duration) (*domain.Confirmation, error)
	Get(ctx context.Context, tenant, identifier string) (*domain.Confirmation, error)
	PromoteConfirmed(ctx context.Context, c *domain.Confirmation) error
	GetByHash(ctx context.Context, tenant, hash string) (*domain.Confirmation, error)
	Delete(ctx context.Context, tenant, identifier string) (*domain.Confirmation, error)
	List(ctx context.Context, tenant string) iter.Seq2[domain.Confirmation, error]
}

// DeliveryLog records dispatch attempts; best-effort, never on the request path.
type DeliveryLog interface {
	Put(ctx context.Context, d *domain.Delivery) error
}

// Service is the confirmation engine for one tenant namespace.
type Service interface {
	// RequestCode issues a fresh code for the identifier, dispatches it via
	// SMS and stores the pending record. Returns the issued code.
	RequestCode(ctx context.Context, identifier, template string) (string, error)
	// VerifyCode compares the submitted code against the stored one.
	// A missing record or a mismatch yields ok=false with a nil error; on
	// match it returns the verification hash, promoting the record on first
	// success and returning the existing hash unchanged thereafter.
	VerifyCode(ctx context.Context, identifier, submitted string) (hash string, ok bool, err error)
	// ResolveByHash returns the confirmed record a hash points to.
	ResolveByHash(ctx context.Context, hash string) (*domain.Confirmation, error)
	// List yields all live records in the tenant, lazily.
	List(ctx context.Context) iter.Seq2[domain.Confirmation, error]
	// Delete removes a record and returns what was stored.
	Delete(ctx context.Context, identifier string) (*domain.Confirmation, error)
}

// ServiceDeps wires the engine. GenerateCode and Now default to the production
// implementations; tests inject their own.
type ServiceDeps struct {
	Tenant       string
	Store        ConfirmationStore
	Deliveries   DeliveryLog // optional
	Sender       sns.SMSSender
	PendingTTL   time.Duration
	GenerateCode func() (string, error)
	Now          func() time.Time
}

type service struct {
	tenant     string
	store      ConfirmationStore
	deliveries DeliveryLog
	sender     sns.SMSSender
	pendingTTL time.Duration
	generate   func() (string, error)
	now        func() time.Time
}

func NewService(d ServiceDeps) Service {
	if d.GenerateCode == nil {
		d.GenerateCode = code.Generate
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.PendingTTL == 0 {
		d.PendingTTL = 24 * time.Hour
	}
	return &service{
		tenant:     d.Tenant,
		store:      d.Store,
		deliveries: d.Deliveries,
		sender:     d.Sender,
		pendingTTL: d.PendingTTL,
		generate:   d.GenerateCode,
		now:        d.Now,
	}
}

func (s *service) RequestCode(ctx context.Context, identifier, template string) (string, error) {
	if !addressPattern.MatchString(identifier) {
		return "", fmt.Errorf("identifier %q is not a deliverable phone number: %w", identifier, domain.ErrUnsupportedAddress)
	}
	if !strings.Contains(template, Placeholder) {
		return "", fmt.Errorf("message template must contain %q: %w", Placeholder, domain.ErrInvalidTemplate)
	}

	otp, err := s.generate()
	if err != nil || !code.Valid(otp) {
		return "", fmt.Errorf("generated code %q does not match the digit shape: %w", otp, domain.ErrCodeGeneration)
	}

	// The pending record is persisted only after the transport accepts the
	// dispatch: a code nobody could receive must not consume the
	// identifier's single pending slot.
	body := strings.ReplaceAll(template, Placeholder, otp)
	if err := s.sender.SendSMS(ctx, s.tenant, identifier, body); err != nil {
		s.logDelivery(ctx, identifier, domain.DeliveryFailed, err.Error())
		return "", fmt.Errorf("dispatch sms to %s: %w", identifier, err)
	}
	s.logDelivery(ctx, identifier, domain.DeliverySent, "")

	if _, err := s.store.UpsertPending(ctx, s.tenant, identifier, otp, s.pendingTTL); err != nil {
		return "", err
	}
	return otp, nil
}

func (s *service) VerifyCode(ctx context.Context, identifier, submitted string) (string, bool, error) {
	c, err := s.store.Get(ctx, s.tenant, identifier)
	if errors.Is(err, domain.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	if c.Code != submitted {
		return "", false, nil
	}
	if c.Confirmed() {
		// Idempotent: re-submitting the correct code returns the same proof
		// token and writes nothing.
		return c.Hash, true, nil
	}
	c.Confirm(s.now())
	if err := s.store.PromoteConfirmed(ctx, c); err != nil {
		return "", false, err
	}
	return c.Hash, true, nil
}

func (s *service) ResolveByHash(ctx context.Context, hash string) (*domain.Confirmation, error) {
	return s.store.GetByHash(ctx, s.tenant, hash)
}

func (s *service) List(ctx context.Context) iter.Seq2[domain.Confirmation, error] {
	return s.store.List(ctx, s.tenant)
}

func (s *service) Delete(ctx context.Context, identifier string) (*domain.Confirmation, error) {
	return s.store.Delete(ctx, s.tenant, identifier)
}

func (s *service) logDelivery(ctx context.Context, identifier, status, reason string) {
	if s.deliveries == nil {
		return
	}
	d := &domain.Delivery{
		DeliveryID: id.New(),
		Tenant:     s.tenant,
		Identifier: identifier,
		Status:     status,
		Reason:     reason,
		CreatedAt:  s.now().UTC(),
	}
	if err := s.deliveries.Put(ctx, d); err != nil {
		slog.Warn("failed to record delivery attempt", "tenant", s.tenant, "identifier", identifier, "err", err)
	}
}
