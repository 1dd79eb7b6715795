package entities

import "time"

// AccountEventType identifica uma mutação confirmada do ciclo de vida
type AccountEventType string

const (
	EventUserRegistered         AccountEventType = "user.registered"
	EventVerificationSent       AccountEventType = "user.verification_sent"
	EventUserVerified           AccountEventType = "user.verified"
	EventPasswordResetRequested AccountEventType = "user.password_reset_requested"
	EventPasswordReset          AccountEventType = "user.password_reset"
	EventPasswordChanged        AccountEventType = "user.password_changed"
	EventUserRolesChanged       AccountEventType = "user.roles_changed"
	EventUserStatusChanged      AccountEventType = "user.status_changed"
	EventRoleCreated            AccountEventType = "role.created"
	EventRoleUpdated            AccountEventType = "role.updated"
	EventRoleDeactivated        AccountEventType = "role.deactivated"
)

// AccountEvent é publicado depois do commit da transação que o originou
type AccountEvent struct {
	Type       AccountEventType  `json:"type"`
	UserID     uint              `json:"user_id,omitempty"`
	RoleID     uint              `json:"role_id,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
	OccurredAt time.Time         `json:"occurred_at"`
}
