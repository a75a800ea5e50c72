package types

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrInvalidUserID     = errors.New("invalid user ID")
	ErrNegativePoints    = errors.New("points must not be negative")
	ErrPointsOutOfBounds = errors.New("points exceed the safe integer ceiling")
)

const (
	// MaxSafePoints is the largest point total a user can hold (2^53 - 1).
	MaxSafePoints int64 = 1<<53 - 1

	// MaxMessageHistory is the number of recent messages kept per user.
	MaxMessageHistory = 5
)

// MessageHistory is one entry of a user's recent messages.
type MessageHistory struct {
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	ChannelID string    `json:"channelId"`
}

// User is a member's point ledger record.
type User struct {
	UserID       string           `bun:",pk"                               json:"userId"`
	Name         string           `bun:",notnull"                          json:"name"`
	Pronouns     string           `bun:",notnull,default:''"               json:"pronouns"`
	Points       int64            `bun:",notnull,default:0"                json:"points"`
	LastUpdated  time.Time        `bun:",notnull"                          json:"lastUpdated"`
	LastMessages []MessageHistory `bun:",type:jsonb,notnull,default:'[]'" json:"lastMessages"`
}

// PushMessage records a message as the most recent, dropping the oldest past the cap.
func (u *User) PushMessage(message MessageHistory) {
	history := make([]MessageHistory, 0, MaxMessageHistory)
	history = append(history, message)

	for _, previous := range u.LastMessages {
		if len(history) == MaxMessageHistory {
			break
		}
		history = append(history, previous)
	}

	u.LastMessages = history
}

// RecentContents returns the contents of the recent messages, most recent first.
func (u *User) RecentContents() []string {
	contents := make([]string, 0, len(u.LastMessages))
	for _, message := range u.LastMessages {
		contents = append(contents, message.Content)
	}
	return contents
}

// Validate checks the record for values that could not have been written by the ledger.
func (u *User) Validate() error {
	if u.UserID == "" {
		return ErrInvalidUserID
	}
	if u.Points < 0 {
		return fmt.Errorf("%w (userID=%s, points=%d)", ErrNegativePoints, u.UserID, u.Points)
	}
	if u.Points > MaxSafePoints {
		return fmt.Errorf("%w (userID=%s, points=%d)", ErrPointsOutOfBounds, u.UserID, u.Points)
	}
	return nil
}
