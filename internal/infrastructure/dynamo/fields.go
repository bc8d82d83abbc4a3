package dynamo

// DynamoDB attribute names used in update expressions across all repos.
// Using constants prevents silent runtime bugs caused by key typos.
const (
	fieldEnable           = "enable"
	fieldRole             = "role"
	fieldAvatarURL        = "avatar_url"
	fieldRefreshToken     = "refresh_token"
	fieldRefreshExpiresAt = "refresh_expires_at"
	fieldState            = "state"
	fieldUsername         = "username"
	fieldTgUserID         = "tg_user_id"
	fieldResolvedAt       = "resolved_at"
)
