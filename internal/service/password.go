// password.go — хэширование паролей учётных записей.
// Argon2id, результат в PHC-формате: $argon2id$v=19$m=...,t=...,p=...$salt$hash.
// Параметры зафиксированы в хэше, поэтому их можно менять без миграции данных.
package service

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/argon2"
)

// Параметры Argon2id.
const (
	argonMemory      = 64 * 1024 // KiB
	argonIterations  = 1
	argonParallelism = 4
	argonSaltLength  = 16
	argonKeyLength   = 32
)

// HashPassword хэширует пароль через Argon2id и возвращает PHC-строку.
func HashPassword(password string) (string, error) {
	salt := make([]byte, argonSaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("ошибка генерации соли: %w", err)
	}

	hash := argon2.IDKey(
		[]byte(password),
		salt,
		argonIterations,
		argonMemory,
		argonParallelism,
		argonKeyLength,
	)

	b64Salt := base64.RawStdEncoding.EncodeToString(salt)
	b64Hash := base64.RawStdEncoding.EncodeToString(hash)

	return fmt.Sprintf(
		"$argon2id$v=19$m=%d,t=%d,p=%d$%s$%s",
		argonMemory,
		argonIterations,
		argonParallelism,
		b64Salt,
		b64Hash,
	), nil
}

// VerifyPassword сверяет пароль с PHC-строкой Argon2id.
// Параметры берутся из самой строки.
func VerifyPassword(password, encodedHash string) error {
	// Формат: ["", "argon2id", "v=19", "m=X,t=Y,p=Z", "salt", "hash"]
	parts := splitPHC(encodedHash)
	if len(parts) != 6 {
		return errors.New("некорректный формат хэша: ожидается 6 частей")
	}
	if parts[1] != "argon2id" {
		return errors.New("некорректный формат хэша: не argon2id")
	}
	if parts[2] != "v=19" {
		return errors.New("некорректный формат хэша: неверная версия")
	}

	var mem, iters uint32
	var par uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &mem, &iters, &par); err != nil {
		return fmt.Errorf("некорректный формат хэша: параметры не разобраны: %w", err)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return fmt.Errorf("некорректный формат хэша: соль не декодирована: %w", err)
	}
	expectedHash, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return fmt.Errorf("некорректный формат хэша: хэш не декодирован: %w", err)
	}

	computed := argon2.IDKey(
		[]byte(password),
		salt,
		iters,
		mem,
		par,
		uint32(len(expectedHash)), //nolint:gosec // длина хэша всегда мала
	)

	if subtle.ConstantTimeCompare(computed, expectedHash) == 1 {
		return nil
	}
	return errors.New("пароль не совпадает")
}

// splitPHC разбивает PHC-строку по '$'.
func splitPHC(s string) []string {
	parts := make([]string, 0, 6)
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '$' {
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}
	return append(parts, s[start:])
}
