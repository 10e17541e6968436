package models

import "time"

type User struct {
	ID                 int64      `db:"id" json:"id"`
	Email              string     `db:"email" json:"email"`
	PasswordHash       string     `db:"password_hash" json:"-"`
	Name               string     `db:"name" json:"name"`
	Plan               string     `db:"plan" json:"plan"`
	Credits            int        `db:"credits" json:"credits"`
	TrialEndsAt        time.Time  `db:"trial_ends_at" json:"trial_ends_at"`
	SubscriptionID     string     `db:"subscription_id" json:"-"`
	SubscriptionStatus string     `db:"subscription_status" json:"subscription_status"`
	SubscriptionEndsAt *time.Time `db:"subscription_ends_at" json:"subscription_ends_at"`
	ArchivedAt         *time.Time `db:"archived_at" json:"archived_at"`
	CreatedAt          time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time  `db:"updated_at" json:"updated_at"`
}

const (
	PlanTrial   = "trial"
	PlanStarter = "starter"
	PlanPro     = "pro"
	PlanAgency  = "agency"
)

const (
	SubscriptionActive   = "active"
	SubscriptionPastDue  = "past_due"
	SubscriptionCanceled = "canceled"
	SubscriptionNone     = ""
)

// TrialDays is how long a new account can publish before needing a paid plan.
const TrialDays = 14

// ArchiveGraceDays is how long canceled accounts keep their data before soft archive.
const ArchiveGraceDays = 90

type PlanLimits struct {
	MaxPlatforms  int
	MonthlyPosts  int
	AIGenerations int
}

var PlanLimitsByName = map[string]PlanLimits{
	PlanTrial:   {MaxPlatforms: 2, MonthlyPosts: 10, AIGenerations: 5},
	PlanStarter: {MaxPlatforms: 3, MonthlyPosts: 50, AIGenerations: 20},
	PlanPro:     {MaxPlatforms: 6, MonthlyPosts: 200, AIGenerations: 100},
	PlanAgency:  {MaxPlatforms: 12, MonthlyPosts: 1000, AIGenerations: 500},
}

// Eligible reports whether the account may publish: either the trial is still
// running or there is an active subscription.
func (u *User) Eligible(now time.Time) bool {
	if u.ArchivedAt != nil {
		return false
	}
	if u.SubscriptionStatus == SubscriptionActive {
		return true
	}
	return now.Before(u.TrialEndsAt)
}

// EligibilityReason returns a human-readable reason when Eligible is false.
// Accounts that once had a subscription get the subscription message, even
// when their trial window has also lapsed.
func (u *User) EligibilityReason(now time.Time) string {
	if u.ArchivedAt != nil {
		return "account is archived"
	}
	if u.SubscriptionStatus == SubscriptionActive {
		return ""
	}
	if u.SubscriptionID != "" {
		return "subscription inactive - upgrade to keep publishing"
	}
	if !now.Before(u.TrialEndsAt) {
		return "trial expired - upgrade to keep publishing"
	}
	return ""
}
