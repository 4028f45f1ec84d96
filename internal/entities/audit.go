package entities

import "time"

type AuthAction string

const (
	AuthActionSignup AuthAction = "signup"
	AuthActionLogin  AuthAction = "login"
	AuthActionToken  AuthAction = "token_issue"
	AuthActionLogout AuthAction = "logout"
)

type AuditStatus string

const (
	AuditStatusSuccess AuditStatus = "success"
	AuditStatusFailed  AuditStatus = "failed"
)

// AuthEvent records the outcome of an authentication operation for
// observability. Events are never consulted when making access decisions.
type AuthEvent struct {
	ID        uint        `gorm:"primaryKey" json:"id"`
	UserID    uint        `gorm:"index" json:"user_id"`
	Username  string      `gorm:"size:100" json:"username"`
	Action    AuthAction  `gorm:"index;size:50" json:"action"`
	Status    AuditStatus `gorm:"size:20" json:"status"`
	IPAddress string      `gorm:"size:45" json:"ip_address,omitempty"`
	UserAgent string      `gorm:"size:500" json:"user_agent,omitempty"`
	CreatedAt time.Time   `gorm:"index" json:"created_at"`
}

func (AuthEvent) TableName() string {
	return "auth_events"
}
