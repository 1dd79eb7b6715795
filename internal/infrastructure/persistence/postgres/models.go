package postgres

import "time"

// UserModel é o model GORM para usuários
type UserModel struct {
	ID                      uint       `gorm:"primaryKey;autoIncrement"`
	FullName                string     `gorm:"type:varchar(100);not null"`
	PhoneNumber             string     `gorm:"type:varchar(16);uniqueIndex;not null"`
	Gender                  string     `gorm:"type:varchar(10);not null"`
	BirthDate               *time.Time `gorm:"type:date"`
	Password                string     `gorm:"type:varchar(255);not null"`
	IsActive                bool       `gorm:"not null;index"`
	IsVerified              bool       `gorm:"not null"`
	VerificationCode        *string    `gorm:"type:varchar(10)"`
	VerificationCodeExpires *time.Time
	PasswordResetToken      *string `gorm:"type:varchar(255);index"`
	PasswordResetExpires    *time.Time
	CreatedAt               int64 `gorm:"autoCreateTime;index"`
	UpdatedAt               int64 `gorm:"autoUpdateTime"`
}

func (UserModel) TableName() string {
	return "users"
}

// RoleModel é o model GORM para roles
type RoleModel struct {
	ID           uint    `gorm:"primaryKey;autoIncrement"`
	Name         string  `gorm:"type:varchar(50);uniqueIndex;not null"`
	DisplayName  string  `gorm:"type:varchar(100);not null"`
	Description  *string `gorm:"type:varchar(255)"`
	IsSystemRole bool    `gorm:"not null"`
	IsActive     bool    `gorm:"not null;index"`
	CreatedAt    int64   `gorm:"autoCreateTime"`
	UpdatedAt    int64   `gorm:"autoUpdateTime"`
}

func (RoleModel) TableName() string {
	return "roles"
}

// UserRoleModel é a tabela de associação; a existência da linha significa "usuário tem o role"
type UserRoleModel struct {
	UserID uint `gorm:"primaryKey;autoIncrement:false"`
	RoleID uint `gorm:"primaryKey;autoIncrement:false;index"`
}

func (UserRoleModel) TableName() string {
	return "user_roles"
}
