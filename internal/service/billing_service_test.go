package service

import (
	"context"
	"fmt"
	"testing"

	config "github.com/finnholt/beamcast/configs"
	"github.com/finnholt/beamcast/internal/models"
)

func billingFixture() (*fakeUserRepo, *fakeConnRepo, *fakeCreditRepo, BillingService) {
	ur := &fakeUserRepo{users: map[int64]*models.User{}}
	cr := &fakeConnRepo{counters: map[int64]int{}}
	credits := &fakeCreditRepo{balances: map[int64]int{}}
	bs := NewBillingService(config.Config{}, ur, cr, NewCreditService(credits))
	return ur, cr, credits, bs
}

func subscriptionEvent(eventType, subID, subStatus, plan string, userID int64) []byte {
	return []byte(fmt.Sprintf(`{
		"type": %q,
		"data": {"object": {
			"id": %q,
			"status": %q,
			"current_period_end": 1767225600,
			"metadata": {"user_id": "%d", "plan": %q}
		}}
	}`, eventType, subID, subStatus, userID, plan))
}

func TestBillingSubscriptionActivated(t *testing.T) {
	ur, cr, _, bs := billingFixture()
	ur.users[1] = &models.User{ID: 1, Plan: models.PlanTrial}
	cr.connections = append(cr.connections, &models.Connection{
		ID: 1, UserID: 1, Platform: "discord", Status: models.ConnectionPausedSubscription,
	})

	payload := subscriptionEvent("customer.subscription.created", "sub_123", "active", models.PlanPro, 1)
	if err := bs.HandleEvent(context.Background(), payload, ""); err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}

	user := ur.users[1]
	if user.SubscriptionID != "sub_123" {
		t.Errorf("SubscriptionID = %q, want sub_123", user.SubscriptionID)
	}
	if user.SubscriptionStatus != models.SubscriptionActive {
		t.Errorf("SubscriptionStatus = %q, want active", user.SubscriptionStatus)
	}
	if user.Plan != models.PlanPro {
		t.Errorf("Plan = %q, want %q", user.Plan, models.PlanPro)
	}
	if user.SubscriptionEndsAt == nil {
		t.Error("SubscriptionEndsAt not set from current_period_end")
	}
	if got := cr.connections[0].Status; got != models.ConnectionActive {
		t.Errorf("connection status = %q, want paused_subscription connection reactivated", got)
	}
}

func TestBillingSubscriptionDeletedPausesConnections(t *testing.T) {
	ur, cr, _, bs := billingFixture()
	ur.users[4] = &models.User{
		ID: 4, Plan: models.PlanStarter,
		SubscriptionID: "sub_del", SubscriptionStatus: models.SubscriptionActive,
	}
	cr.connections = append(cr.connections,
		&models.Connection{ID: 1, UserID: 4, Platform: "discord", Status: models.ConnectionActive},
		&models.Connection{ID: 2, UserID: 4, Platform: "slack", Status: models.ConnectionPaused},
	)

	// No metadata here: the user must be found through the subscription id.
	payload := []byte(`{
		"type": "customer.subscription.deleted",
		"data": {"object": {"id": "sub_del", "status": "canceled"}}
	}`)
	if err := bs.HandleEvent(context.Background(), payload, ""); err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}

	if got := ur.users[4].SubscriptionStatus; got != models.SubscriptionCanceled {
		t.Errorf("SubscriptionStatus = %q, want canceled", got)
	}
	if got := cr.connections[0].Status; got != models.ConnectionPausedSubscription {
		t.Errorf("active connection status = %q, want paused_subscription", got)
	}
	if got := cr.connections[1].Status; got != models.ConnectionPaused {
		t.Errorf("user-paused connection status = %q, should be untouched", got)
	}
}

func TestBillingDowngradePausesSurplusConnections(t *testing.T) {
	ur, cr, _, bs := billingFixture()
	ur.users[2] = &models.User{
		ID: 2, Plan: models.PlanPro,
		SubscriptionID: "sub_down", SubscriptionStatus: models.SubscriptionActive,
	}
	for i, platform := range []string{"discord", "slack", "telegram", "bluesky"} {
		cr.connections = append(cr.connections, &models.Connection{
			ID: int64(i + 1), UserID: 2, Platform: platform, Status: models.ConnectionActive,
		})
	}

	limit := models.PlanLimitsByName[models.PlanStarter].MaxPlatforms
	payload := subscriptionEvent("customer.subscription.updated", "sub_down", "active", models.PlanStarter, 2)
	if err := bs.HandleEvent(context.Background(), payload, ""); err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}

	active := 0
	for _, conn := range cr.connections {
		switch conn.Status {
		case models.ConnectionActive:
			active++
		case models.ConnectionPausedDowngrade:
		default:
			t.Errorf("connection %d status = %q", conn.ID, conn.Status)
		}
	}
	if active != limit {
		t.Errorf("active connections = %d, want plan limit %d", active, limit)
	}
	for _, conn := range cr.connections[:limit] {
		if conn.Status != models.ConnectionActive {
			t.Errorf("connection %d paused, oldest connections should stay active", conn.ID)
		}
	}
}

func TestBillingUpgradeReactivatesDowngradedConnections(t *testing.T) {
	ur, cr, _, bs := billingFixture()
	ur.users[3] = &models.User{
		ID: 3, Plan: models.PlanStarter,
		SubscriptionID: "sub_up", SubscriptionStatus: models.SubscriptionActive,
	}
	cr.connections = append(cr.connections,
		&models.Connection{ID: 1, UserID: 3, Platform: "discord", Status: models.ConnectionActive},
		&models.Connection{ID: 2, UserID: 3, Platform: "slack", Status: models.ConnectionPausedDowngrade},
		&models.Connection{ID: 3, UserID: 3, Platform: "telegram", Status: models.ConnectionPausedDowngrade},
	)

	payload := subscriptionEvent("customer.subscription.updated", "sub_up", "active", models.PlanPro, 3)
	if err := bs.HandleEvent(context.Background(), payload, ""); err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}

	for _, conn := range cr.connections {
		if conn.Status != models.ConnectionActive {
			t.Errorf("connection %d status = %q, want active after upgrade", conn.ID, conn.Status)
		}
	}
}

func TestBillingCheckoutAddsCredits(t *testing.T) {
	ur, _, credits, bs := billingFixture()
	ur.users[7] = &models.User{ID: 7, Plan: models.PlanStarter}
	credits.balances[7] = 3

	payload := []byte(`{
		"type": "checkout.session.completed",
		"data": {"object": {
			"id": "cs_test_1",
			"client_reference_id": "7",
			"metadata": {"credits": "50"}
		}}
	}`)
	if err := bs.HandleEvent(context.Background(), payload, ""); err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}

	if got := credits.balances[7]; got != 53 {
		t.Errorf("balance = %d, want 53", got)
	}
	if len(credits.entries) != 1 {
		t.Fatalf("ledger entries = %d, want 1", len(credits.entries))
	}
	entry := credits.entries[0]
	if entry.Type != models.CreditTypeAddition {
		t.Errorf("entry type = %q, want addition", entry.Type)
	}
	if entry.Action != "credit_purchase" {
		t.Errorf("entry action = %q, want credit_purchase", entry.Action)
	}
}

func TestBillingUnknownEventIgnored(t *testing.T) {
	_, _, credits, bs := billingFixture()

	payload := []byte(`{"type": "invoice.paid", "data": {"object": {}}}`)
	if err := bs.HandleEvent(context.Background(), payload, ""); err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}
	if len(credits.entries) != 0 {
		t.Errorf("ledger entries = %d, want none", len(credits.entries))
	}
}
