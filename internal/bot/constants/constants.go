package constants

import "time"

const (
	// Commands.
	PingCommandName         = "ping"
	PointsCommandName       = "points"
	VerifyCommandName       = "verify"
	RecacheCommandName      = "recache"
	FailCommandName         = "fail"
	CalendarSyncCommandName = "calendar-sync"
	ReportMenuName          = "Report Message"

	// Points subcommands.
	PointsCheckSubcommand       = "check"
	PointsLeaderboardSubcommand = "leaderboard"
	PointsUserSubcommand        = "user"
	PointsLimitOption           = "limit"
	PointsTargetOption          = "target"

	DefaultLeaderboardLimit = 10
	MaxLeaderboardLimit     = 25

	// Fail subcommands.
	FailErrorSubcommand    = "error"
	FailCriticalSubcommand = "critical"

	// Verification.
	VerifyButtonCustomID = "verify"
	VerifyModalCustomID  = "verify"
	VerifyNameInputID    = "name"
	VerifyPronounsID     = "pronouns"
	MaxNicknameLength    = 32

	// Reports.
	ReportButtonPrefix     = "report"
	ReportModalCustomID    = "report-modal"
	ReportDetailsInputID   = "report-text"
	ReportCategoryOther    = "Other"
	MinReportDetailsLength = 10
	MaxReportDetailsLength = 1000

	// Modal waits.
	ReportModalTimeout = 5 * time.Minute
	VerifyModalTimeout = 5 * time.Minute

	// Verification channel cleanup.
	VerificationClearLimit = 100

	// Calendar sync summary.
	CalendarListedPerSection = 10
	CalendarListedFailures   = 5

	// Presence.
	WatchingActivity = "engineers grow"
)

// Embed colors.
const (
	PointsEmbedColor         = 0x0099FF
	LeaderboardEmbedColor    = 0xFFD700
	ErrorEmbedColor          = 0xFF0000
	ReportPromptEmbedColor   = 0x2C3E50
	ReportMessageEmbedColor  = 0x34495E
	ReportConfirmEmbedColor  = 0x27AE60
	CalendarChangedColor     = 0x00FF00
	CalendarUnchangedColor   = 0xFF9900
	ReportOffensiveColor     = 0xE74C3C
	ReportSpamColor          = 0x95A5A6
	ReportIllegalColor       = 0xC0392B
	ReportUncomfortableColor = 0x3498DB
	ReportOtherColor         = 0x7F8C8D
)
