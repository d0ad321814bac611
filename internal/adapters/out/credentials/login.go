package credentials

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/suchimauz/clinic-admin/internal/config"
	"github.com/suchimauz/clinic-admin/internal/core/ports/out"
)

// Токен обновляем заранее, чтобы он не истек посреди каскада
const refreshSkew = time.Minute

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token       string `json:"token"`
	AccessToken string `json:"access_token"`
}

// LoginProvider получает токен через POST /login и держит его до истечения exp
type LoginProvider struct {
	client   *http.Client
	baseURL  string
	email    string
	password string
	logger   out.LoggerPort
	now      func() time.Time

	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

func NewLoginProvider(cfg *config.Config, logger out.LoggerPort) *LoginProvider {
	return &LoginProvider{
		client:   &http.Client{Timeout: cfg.ClinicAPI.Timeout},
		baseURL:  strings.TrimSuffix(cfg.ClinicAPI.URL, "/"),
		email:    cfg.ClinicAPI.Email,
		password: cfg.ClinicAPI.Password,
		logger:   logger,
		now:      time.Now,
	}
}

func (p *LoginProvider) Token(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.token != "" && (p.expiresAt.IsZero() || p.now().Add(refreshSkew).Before(p.expiresAt)) {
		return p.token, nil
	}

	token, err := p.login(ctx)
	if err != nil {
		p.logger.Error("credentials.login.failed", out.LogFields{
			"email": p.email,
			"error": err.Error(),
		})
		return "", err
	}

	p.token = token
	p.expiresAt = tokenExpiry(token)
	p.logger.Info("credentials.login.success", out.LogFields{
		"email":     p.email,
		"expiresAt": p.expiresAt,
	})

	return p.token, nil
}

// Invalidate сбрасывает токен, следующий Token() выполнит вход заново
func (p *LoginProvider) Invalidate() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.token = ""
	p.expiresAt = time.Time{}
}

func (p *LoginProvider) login(ctx context.Context) (string, error) {
	body, err := json.Marshal(loginRequest{Email: p.email, Password: p.password})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/login", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("login request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("login: unexpected status code: %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var payload loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("login: decode response: %w", err)
	}

	token := payload.Token
	if token == "" {
		token = payload.AccessToken
	}
	if token == "" {
		return "", fmt.Errorf("login: %w", ErrNoToken)
	}

	return token, nil
}

// tokenExpiry читает exp без проверки подписи: ключа у клиента нет, токен проверяет API.
// Непрозрачный токен считается бессрочным.
func tokenExpiry(token string) time.Time {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}
