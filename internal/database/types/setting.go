package types

import (
	"time"

	"github.com/disgoorg/snowflake/v2"
)

// GuildSettingID is the primary key of the single settings row.
const GuildSettingID = 1

// GuildSetting stores the operational role and channel ids for the guild.
type GuildSetting struct {
	ID                    uint64       `bun:",pk"`
	VerifiedRoleID        snowflake.ID `bun:",notnull,default:0"`
	VerificationChannelID snowflake.ID `bun:",notnull,default:0"`
	AdminChannelID        snowflake.ID `bun:",notnull,default:0"`
	ErrorChannelID        snowflake.ID `bun:",notnull,default:0"`
	UpdatedAt             time.Time    `bun:",notnull"`
}

// HasVerification reports whether verification can be carried out.
func (s *GuildSetting) HasVerification() bool {
	return s.VerifiedRoleID != 0 && s.VerificationChannelID != 0
}
