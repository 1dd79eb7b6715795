package postgres

import (
	"fmt"

	"gorm.io/gorm"
)

// Migrate cria ou atualiza as tabelas de usuários, roles e associação
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&RoleModel{}, &UserModel{}, &UserRoleModel{}); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}
