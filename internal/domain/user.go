package domain

import "time"

type User struct {
	UserID       string     `json:"id" dynamodbav:"user_id"`
	Username     string     `json:"username" dynamodbav:"username"`
	PasswordHash string     `json:"-" dynamodbav:"password_hash"`
	Role         string     `json:"role" dynamodbav:"role"`
	TgUserID     string     `json:"-" dynamodbav:"tg_user_id"`
	AvatarURL    string     `json:"avatar_url,omitempty" dynamodbav:"avatar_url"`
	Bio          string     `json:"bio,omitempty" dynamodbav:"bio"`
	BalanceCents int64      `json:"balance_cents" dynamodbav:"balance_cents"`
	Banned       bool       `json:"banned" dynamodbav:"banned"`
	Enable       bool       `json:"enable" dynamodbav:"enable"`
	DeletedAt    *time.Time `json:"deleted_at,omitempty" dynamodbav:"deleted_at"`
	CreatedAt    time.Time  `json:"created" dynamodbav:"created_at"`
	UpdatedAt    time.Time  `json:"updated" dynamodbav:"updated_at"`
}
