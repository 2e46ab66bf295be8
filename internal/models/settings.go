package models

// Settings holds persisted application configuration.
type Settings struct {
	Timezone string `json:"timezone"`
	// DefaultUser is the user ID assumed when no identity provider is
	// configured (single-user local installs).
	DefaultUser string `json:"default_user"`
	// PlanOverride forces a subscription plan locally, bypassing the
	// accounts service. Empty means no override. Meant for development
	// and for installs with no accounts service configured.
	PlanOverride string `json:"plan_override,omitempty"`
}
