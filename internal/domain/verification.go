package domain

import "time"

// VerificationState is the explicit lifecycle of a TelegramVerification.
// A record is Pending after issuance, Resolved once the bot has bound it to
// a Telegram identity, and is deleted outright on consumption.
type VerificationState string

const (
	VerificationPending  VerificationState = "pending"
	VerificationResolved VerificationState = "resolved"
)

// VerificationKind distinguishes the two web flows that issue a record.
type VerificationKind string

const (
	KindRegistration VerificationKind = "registration"
	KindLogin        VerificationKind = "login"
)

// UnresolvedUsername is the sentinel stored until the bot resolves
// the Telegram identity. Kept alongside the explicit State for the
// login-readiness check.
const UnresolvedUsername = "pending"

// TelegramVerification is the single row shared by the web process and the
// bot process. PK: token. Created by the issuer, mutated once by the bot,
// consumed (read-then-deleted) by the completer.
// ExpiresAt is a Unix timestamp used as DynamoDB TTL.
type TelegramVerification struct {
	Token        string            `json:"token" dynamodbav:"token"`
	Code         string            `json:"-" dynamodbav:"code"`
	Kind         VerificationKind  `json:"kind" dynamodbav:"kind"`
	State        VerificationState `json:"state" dynamodbav:"state"`
	Username     string            `json:"username" dynamodbav:"username"`
	PasswordHash string            `json:"-" dynamodbav:"password_hash"`
	TgUserID     string            `json:"-" dynamodbav:"tg_user_id"`
	AvatarURL    string            `json:"avatar_url,omitempty" dynamodbav:"avatar_url"`
	Attempts     int               `json:"-" dynamodbav:"attempts"`
	CreatedAt    time.Time         `json:"created" dynamodbav:"created_at"`
	ResolvedAt   *time.Time        `json:"resolved_at,omitempty" dynamodbav:"resolved_at"`
	ExpiresAt    int64             `json:"-" dynamodbav:"expires_at"` // TTL (Unix seconds)
}

// Resolved reports whether the bot half has completed.
func (v *TelegramVerification) Resolved() bool {
	return v.State == VerificationResolved && v.Username != UnresolvedUsername
}

// ExpiredAt reports whether the record has outlived its issuance window at
// the given instant. Expiry is anchored to CreatedAt, never to resolution.
func (v *TelegramVerification) ExpiredAt(now time.Time, ttl time.Duration) bool {
	return now.Sub(v.CreatedAt) > ttl
}
