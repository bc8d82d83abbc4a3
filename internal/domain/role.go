package domain

// Application roles. Admin is granted either manually or by the
// Telegram-ID promotion rule during verification consumption.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)
