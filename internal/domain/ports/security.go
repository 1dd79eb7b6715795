package ports

import "time"

// PasswordHasher faz hash e verificação de senhas
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, digest string) bool
}

// TokenIssuer emite e valida bearer tokens com o ID do usuário no claim "sub"
type TokenIssuer interface {
	Issue(subjectID uint, ttl time.Duration) (token string, expiresAt time.Time, err error)
	Verify(token string) (subjectID uint, err error)
}

// CodeGenerator gera segredos de uso único a partir de uma fonte criptograficamente segura
type CodeGenerator interface {
	NumericCode(length int) (string, error)
	URLSafeToken() (string, error)
}
