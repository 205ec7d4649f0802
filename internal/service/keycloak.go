// keycloak.go — проверка доступности Keycloak для readiness probe.
// Проверяется JWKS endpoint: он подтверждает, что realm существует
// и OIDC endpoints отвечают.
package service

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// KeycloakChecker — проверка доступности Keycloak для health endpoint.
// Реализует интерфейс handlers.ReadinessChecker.
type KeycloakChecker struct {
	jwksURL string
	client  *http.Client
}

// NewKeycloakChecker создаёт проверку доступности Keycloak.
// client может быть nil — тогда используется клиент с таймаутом 3s.
func NewKeycloakChecker(jwksURL string, client *http.Client) *KeycloakChecker {
	if client == nil {
		client = &http.Client{Timeout: 3 * time.Second}
	}
	return &KeycloakChecker{jwksURL: jwksURL, client: client}
}

// CheckReady выполняет GET к JWKS endpoint Keycloak.
// Возвращает статус ("ok", "fail") и сообщение.
func (c *KeycloakChecker) CheckReady() (status string, message string) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.jwksURL, nil)
	if err != nil {
		return "fail", fmt.Sprintf("некорректный JWKS URL: %v", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "fail", fmt.Sprintf("Keycloak недоступен: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "fail", fmt.Sprintf("Keycloak вернул статус %d", resp.StatusCode)
	}
	return "ok", "JWKS endpoint отвечает"
}
