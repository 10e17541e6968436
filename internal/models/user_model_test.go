package models

import (
	"strings"
	"testing"
	"time"
)

func TestEligibilityReason(t *testing.T) {
	now := time.Now()
	archived := now.Add(-time.Hour)

	tests := []struct {
		name string
		user User
		want string
	}{
		{
			name: "trial running",
			user: User{Plan: PlanTrial, TrialEndsAt: now.Add(24 * time.Hour)},
			want: "",
		},
		{
			name: "trial expired without subscription",
			user: User{Plan: PlanTrial, TrialEndsAt: now.Add(-time.Hour)},
			want: "trial expired",
		},
		{
			name: "canceled subscriber with lapsed trial window",
			user: User{
				Plan:               PlanStarter,
				TrialEndsAt:        now.Add(-30 * 24 * time.Hour),
				SubscriptionID:     "sub_1",
				SubscriptionStatus: SubscriptionCanceled,
			},
			want: "subscription inactive",
		},
		{
			name: "past due subscriber",
			user: User{
				Plan:               PlanPro,
				TrialEndsAt:        now.Add(-time.Hour),
				SubscriptionID:     "sub_2",
				SubscriptionStatus: SubscriptionPastDue,
			},
			want: "subscription inactive",
		},
		{
			name: "active subscriber",
			user: User{
				Plan:               PlanPro,
				TrialEndsAt:        now.Add(-time.Hour),
				SubscriptionID:     "sub_3",
				SubscriptionStatus: SubscriptionActive,
			},
			want: "",
		},
		{
			name: "archived account",
			user: User{Plan: PlanTrial, TrialEndsAt: now.Add(24 * time.Hour), ArchivedAt: &archived},
			want: "archived",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.user.EligibilityReason(now)
			if tt.want == "" {
				if got != "" {
					t.Errorf("EligibilityReason = %q, want empty for an eligible account", got)
				}
				if !tt.user.Eligible(now) {
					t.Error("Eligible = false for an account with no reason")
				}
				return
			}
			if !strings.Contains(got, tt.want) {
				t.Errorf("EligibilityReason = %q, want it to mention %q", got, tt.want)
			}
			if tt.user.Eligible(now) {
				t.Error("Eligible = true for an account with a blocking reason")
			}
		})
	}
}
