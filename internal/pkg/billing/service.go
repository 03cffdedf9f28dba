package billing

import (
	"errors"
	"log"
	"time"

	"github.com/gigbridge/gigbridge/app/models"
	"github.com/gigbridge/gigbridge/internal/pkg/faults"
	"gorm.io/gorm"
)

// Outcome classifies one webhook delivery.
type Outcome string

const (
	OutcomeApplied   Outcome = "applied"
	OutcomeDuplicate Outcome = "duplicate"
	OutcomeRejected  Outcome = "rejected"
)

// Service is the subscription webhook reconciler: it verifies deliveries,
// deduplicates them against the ledger, and applies subscription state
// effects exactly once even though delivery is at-least-once.
type Service struct {
	repo Repository
	cfg  Config
}

// NewService creates a billing service from an injected repository.
func NewService(repo Repository, cfg Config) *Service {
	return &Service{repo: repo, cfg: cfg}
}

// NewServiceFromDB creates a billing service from a GORM DB handle.
func NewServiceFromDB(db *gorm.DB, cfg Config) *Service {
	return NewService(NewRepository(db), cfg)
}

// HandleEvent processes one signed delivery.
//
// An invalid signature rejects before any parsing or state access. The
// ledger insert and the effect mutation run in a single transaction, so a
// crash mid-apply can leave neither a ledger entry without its effect nor
// an effect without its ledger entry. Replays hit the unique index and
// return duplicate without reapplying anything.
func (s *Service) HandleEvent(payload []byte, signatureHeader string) (Outcome, error) {
	if !VerifyStripeWebhookSignature(payload, signatureHeader, s.cfg.WebhookSecret, time.Now()) {
		return OutcomeRejected, faults.ErrSignatureInvalid
	}

	ev, err := parseEvent(payload)
	if err != nil {
		return OutcomeRejected, faults.Invalidf("malformed event payload: %v", err)
	}
	if ev.ID == "" {
		return OutcomeRejected, faults.Invalidf("event id is missing")
	}

	outcome := OutcomeApplied
	err = s.repo.Transaction(func(r Repository) error {
		event := &models.WebhookEvent{
			Provider:        ProviderStripe,
			ProviderEventID: ev.ID,
			EventType:       ev.Type,
			PayloadJSON:     string(payload),
			SignatureValid:  true,
		}
		created, err := r.InsertEventIfNew(event)
		if err != nil {
			return err
		}
		if !created {
			outcome = OutcomeDuplicate
			return nil
		}
		if err := s.applyEffect(r, ev.Type, ev.Data.Object); err != nil {
			return err
		}
		return r.MarkEventProcessed(event.ID, "")
	})
	if err != nil {
		return OutcomeRejected, err
	}
	return outcome, nil
}

// applyEffect mutates business subscription state per event type. Races
// between out-of-order updated/deleted deliveries resolve last-write-wins;
// that mirrors the processor-facing behavior this system always had.
func (s *Service) applyEffect(r Repository, eventType string, obj eventObject) error {
	switch eventType {
	case EventPaymentSucceeded:
		business, err := s.resolveBusiness(r, obj)
		if business == nil {
			return err
		}
		updates := map[string]interface{}{
			"subscription_status": models.SubscriptionActive,
		}
		if obj.PeriodEnd > 0 {
			updates["expires_at"] = time.Unix(obj.PeriodEnd, 0)
		}
		return r.UpdateBusinessSubscription(business.ID, updates)

	case EventPaymentFailed:
		// Log-only: the processor's own dunning schedule decides when a
		// failing subscription is actually cancelled.
		log.Printf("billing: payment failed for subscription %s", obj.subscriptionID())
		return nil

	case EventSubscriptionDeleted:
		business, err := s.resolveBusiness(r, obj)
		if business == nil {
			return err
		}
		return r.UpdateBusinessSubscription(business.ID, map[string]interface{}{
			"subscription_status": models.SubscriptionExpired,
		})

	case EventSubscriptionUpdated:
		business, err := s.resolveBusiness(r, obj)
		if business == nil {
			return err
		}
		switch obj.Status {
		case "canceled", "unpaid":
			return r.UpdateBusinessSubscription(business.ID, map[string]interface{}{
				"subscription_status": models.SubscriptionExpired,
			})
		case "active":
			updates := map[string]interface{}{
				"subscription_status": models.SubscriptionActive,
			}
			if obj.CurrentPeriodEnd > 0 {
				updates["expires_at"] = time.Unix(obj.CurrentPeriodEnd, 0)
			}
			if subType := s.classifyPrice(obj.priceID()); subType != "" {
				updates["subscription_type"] = subType
			}
			return r.UpdateBusinessSubscription(business.ID, updates)
		default:
			log.Printf("billing: ignoring subscription update with status %q", obj.Status)
			return nil
		}

	default:
		// Unknown event types are accepted and ignored, never rejected.
		log.Printf("billing: ignoring unhandled event type %q", eventType)
		return nil
	}
}

// resolveBusiness maps the external subscription reference to a business.
// An unknown reference is not an error: the ledger still records the event
// and the delivery is acknowledged, matching how unlinked accounts behave.
func (s *Service) resolveBusiness(r Repository, obj eventObject) (*models.Business, error) {
	subID := obj.subscriptionID()
	if subID == "" {
		log.Printf("billing: event without subscription reference, skipping")
		return nil, nil
	}
	business, err := r.GetBusinessByStripeSubscriptionID(subID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("billing: no business linked to subscription %s, skipping", subID)
			return nil, nil
		}
		return nil, err
	}
	return business, nil
}

// classifyPrice maps a processor price reference to the internal
// subscription type, or "" when it matches neither configured id.
func (s *Service) classifyPrice(priceID string) string {
	switch {
	case priceID == "":
		return ""
	case priceID == s.cfg.MonthlyPriceID:
		return models.SubscriptionTypeMonthly
	case priceID == s.cfg.YearlyPriceID:
		return models.SubscriptionTypeYearly
	default:
		return ""
	}
}

// ConfigFromEnv builds the reconciler config from process configuration.
func ConfigFromEnv(getenv func(key, def string) string) Config {
	return Config{
		WebhookSecret:  getenv("STRIPE_WEBHOOK_SECRET", ""),
		MonthlyPriceID: getenv("STRIPE_PRICE_MONTHLY", ""),
		YearlyPriceID:  getenv("STRIPE_PRICE_YEARLY", ""),
	}
}
