package valueobjects

import (
	"regexp"
	"strings"

	domainerrors "github.com/rafabene/carelink-accounts/internal/domain/errors"
)

var roleNamePattern = regexp.MustCompile(`^[a-z][a-z0-9_]{1,49}$`)

// RoleName é a chave estável de um role: sempre minúscula
type RoleName struct {
	value string
}

// NewRoleName normaliza e valida um nome de role
func NewRoleName(raw string) (RoleName, error) {
	name := strings.ToLower(strings.TrimSpace(raw))
	if !roleNamePattern.MatchString(name) {
		return RoleName{}, domainerrors.ErrInvalidRoleName.WithField("name")
	}
	return RoleName{value: name}, nil
}

// IsValidRoleName indica se raw pode ser normalizado para um RoleName
func IsValidRoleName(raw string) bool {
	_, err := NewRoleName(raw)
	return err == nil
}

// String retorna o nome normalizado
func (r RoleName) String() string {
	return r.value
}

// NormalizeRoleNames normaliza uma lista de nomes, removendo duplicatas e preservando a ordem
func NormalizeRoleNames(raw []string) ([]RoleName, error) {
	seen := make(map[string]struct{}, len(raw))
	names := make([]RoleName, 0, len(raw))
	for _, r := range raw {
		name, err := NewRoleName(r)
		if err != nil {
			return nil, err
		}
		if _, ok := seen[name.value]; ok {
			continue
		}
		seen[name.value] = struct{}{}
		names = append(names, name)
	}
	return names, nil
}
