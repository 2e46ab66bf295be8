package constants

// SessionState represents the current state of the TUI application
type SessionState int

const (
	AppName            = "tritrack"
	DefaultKeyringUser = "database-connection"
	TokenKeyringUser   = "accounts-token"
	DefaultConfigPath  = "~/.config/tritrack/tritrack.db"
	Version            = "v0.3.0"

	// DateFormat is the standard date format used throughout the application (YYYY-MM-DD)
	DateFormat = "2006-01-02"

	// EnvPrefix is the prefix for all tritrack environment variables
	EnvPrefix = "TRITRACK_"

	// EnvDBConnection holds an out-of-band PostgreSQL connection string
	EnvDBConnection = "TRITRACK_DB_CONNECTION"
	// EnvAccountsURL points at the accounts/profile API base URL
	EnvAccountsURL = "TRITRACK_ACCOUNTS_URL"
	// EnvAccountsToken is the bearer token for the accounts API
	EnvAccountsToken = "TRITRACK_ACCOUNTS_TOKEN"

	// ProfileCacheFileName is the bbolt file holding the last-known profile
	ProfileCacheFileName = "profile.db"

	// Session States
	StateToday SessionState = iota
	StateWeek
	StateAllTime
	StateStats
	StateConfirmRemove
)
