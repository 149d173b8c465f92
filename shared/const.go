package shared

const (
	UserID    = "user_id"
	UserEmail = "user_email"
	UserRole  = "user_role"
)

const (
	PlanYearly   = "yearly"
	PlanLifetime = "lifetime"
)

const (
	EntitlementTypeSubscription = "subscription"
	EntitlementTypeLifetime     = "lifetime"

	EntitlementStatusActive    = "active"
	EntitlementStatusInactive  = "inactive"
	EntitlementStatusCancelled = "cancelled"
	EntitlementStatusPastDue   = "past_due"
)

const (
	ProgressNotStarted = "not_started"
	ProgressInProgress = "in_progress"
	ProgressCompleted  = "completed"
)

// CatalogSize is the size of the lesson catalog used when deriving the
// not-started count from completed/in-progress totals.
const CatalogSize = 75

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)
