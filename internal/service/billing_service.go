package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	config "github.com/finnholt/beamcast/configs"
	"github.com/finnholt/beamcast/internal/models"
	"github.com/finnholt/beamcast/internal/repository"
	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/webhook"
)

type BillingService interface {
	HandleEvent(ctx context.Context, payload []byte, signature string) error
}

type billingService struct {
	cfg     config.Config
	ur      repository.UserRepository
	cr      repository.ConnectionRepository
	credits CreditService
}

func NewBillingService(
	cfg config.Config,
	ur repository.UserRepository,
	cr repository.ConnectionRepository,
	credits CreditService) BillingService {
	return &billingService{
		cfg:     cfg,
		ur:      ur,
		cr:      cr,
		credits: credits,
	}
}

// HandleEvent consumes Stripe webhook deliveries. When a webhook secret is
// configured the signature is verified; otherwise the payload is trusted as-is
// (verification upstream).
func (s *billingService) HandleEvent(ctx context.Context, payload []byte, signature string) error {
	var event stripe.Event
	if s.cfg.StripeWebhookSecret != "" {
		verified, err := webhook.ConstructEvent(payload, signature, s.cfg.StripeWebhookSecret)
		if err != nil {
			slog.Info(err.Error())
			return err
		}
		event = verified
	} else if err := json.Unmarshal(payload, &event); err != nil {
		slog.Info(err.Error())
		return err
	}

	switch event.Type {
	case "customer.subscription.created", "customer.subscription.updated":
		return s.handleSubscriptionChange(ctx, event.Data.Raw)
	case "customer.subscription.deleted":
		return s.handleSubscriptionDeleted(ctx, event.Data.Raw)
	case "checkout.session.completed":
		return s.handleCheckoutCompleted(ctx, event.Data.Raw)
	}

	return nil
}

func (s *billingService) handleSubscriptionChange(ctx context.Context, raw json.RawMessage) error {
	var sub stripe.Subscription
	if err := json.Unmarshal(raw, &sub); err != nil {
		return err
	}

	user, err := s.resolveUser(ctx, &sub)
	if err != nil {
		return err
	}

	status := mapSubscriptionStatus(sub.Status)
	endsAt := periodEnd(&sub)
	if err := s.ur.SetSubscription(ctx, user.ID, sub.ID, status, endsAt); err != nil {
		return err
	}

	if plan, ok := sub.Metadata["plan"]; ok && plan != "" {
		if _, known := models.PlanLimitsByName[plan]; !known {
			return fmt.Errorf("unknown plan %q in subscription metadata", plan)
		}
		if err := s.ur.SetPlan(ctx, user.ID, plan); err != nil {
			return err
		}
		if err := s.enforcePlatformLimit(ctx, user.ID, plan); err != nil {
			return err
		}
	}

	if status == models.SubscriptionActive {
		return s.cr.SetStatusByUser(ctx, user.ID, models.ConnectionPausedSubscription, models.ConnectionActive)
	}
	return s.cr.SetStatusByUser(ctx, user.ID, models.ConnectionActive, models.ConnectionPausedSubscription)
}

func (s *billingService) handleSubscriptionDeleted(ctx context.Context, raw json.RawMessage) error {
	var sub stripe.Subscription
	if err := json.Unmarshal(raw, &sub); err != nil {
		return err
	}

	user, err := s.resolveUser(ctx, &sub)
	if err != nil {
		return err
	}

	if err := s.ur.SetSubscription(ctx, user.ID, sub.ID, models.SubscriptionCanceled, periodEnd(&sub)); err != nil {
		return err
	}

	return s.cr.SetStatusByUser(ctx, user.ID, models.ConnectionActive, models.ConnectionPausedSubscription)
}

func (s *billingService) handleCheckoutCompleted(ctx context.Context, raw json.RawMessage) error {
	var session stripe.CheckoutSession
	if err := json.Unmarshal(raw, &session); err != nil {
		return err
	}

	creditsStr, ok := session.Metadata["credits"]
	if !ok {
		return nil
	}

	var amount int
	if _, err := fmt.Sscanf(creditsStr, "%d", &amount); err != nil || amount <= 0 {
		return fmt.Errorf("invalid credits metadata %q", creditsStr)
	}

	var userID int64
	if _, err := fmt.Sscanf(session.ClientReferenceID, "%d", &userID); err != nil || userID == 0 {
		return fmt.Errorf("invalid client reference %q", session.ClientReferenceID)
	}

	_, err := s.credits.Add(ctx, userID, amount, "credit_purchase", map[string]any{
		"checkout_session": session.ID,
	})
	return err
}

func (s *billingService) resolveUser(ctx context.Context, sub *stripe.Subscription) (*models.User, error) {
	if idStr, ok := sub.Metadata["user_id"]; ok {
		var userID int64
		if _, err := fmt.Sscanf(idStr, "%d", &userID); err == nil && userID != 0 {
			user, exists, err := s.ur.GetByID(ctx, userID)
			if err != nil {
				return nil, err
			}
			if exists {
				return user, nil
			}
		}
	}

	user, exists, err := s.ur.GetBySubscriptionID(ctx, sub.ID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("no account for subscription %s", sub.ID)
	}
	return user, nil
}

// enforcePlatformLimit pauses surplus connections after a downgrade; the
// oldest connections stay active.
func (s *billingService) enforcePlatformLimit(ctx context.Context, userID int64, plan string) error {
	limits := models.PlanLimitsByName[plan]
	if limits.MaxPlatforms <= 0 {
		return nil
	}

	connections, err := s.cr.ListByUserID(ctx, userID)
	if err != nil {
		return err
	}

	active := 0
	for _, conn := range connections {
		switch conn.Status {
		case models.ConnectionActive:
			active++
			if active > limits.MaxPlatforms {
				if err := s.cr.SetStatus(ctx, conn.ID, models.ConnectionPausedDowngrade); err != nil {
					return err
				}
			}
		case models.ConnectionPausedDowngrade:
			if active < limits.MaxPlatforms {
				active++
				if err := s.cr.SetStatus(ctx, conn.ID, models.ConnectionActive); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func mapSubscriptionStatus(status stripe.SubscriptionStatus) string {
	switch status {
	case stripe.SubscriptionStatusActive, stripe.SubscriptionStatusTrialing:
		return models.SubscriptionActive
	case stripe.SubscriptionStatusPastDue, stripe.SubscriptionStatusUnpaid:
		return models.SubscriptionPastDue
	default:
		return models.SubscriptionCanceled
	}
}

func periodEnd(sub *stripe.Subscription) *time.Time {
	if sub.CurrentPeriodEnd == 0 {
		return nil
	}
	t := time.Unix(sub.CurrentPeriodEnd, 0)
	return &t
}
