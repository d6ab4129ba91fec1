package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/config"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/errors"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/models"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/requestctx"
)

const userServiceName = "user"

// UserClient authenticates users and reads profiles from the upstream user API.
type UserClient interface {
	Login(ctx context.Context, req *models.LoginRequest) (*LoginResult, error)
	GetMe(ctx context.Context) (*models.User, error)
}

// LoginResult is the upstream identity of a successful login.
type LoginResult struct {
	Token string
	User  models.User
}

// Ensure HTTPUserClient implements UserClient
var _ UserClient = (*HTTPUserClient)(nil)

// HTTPUserClient implements UserClient using HTTP.
type HTTPUserClient struct {
	baseClient
	logger *logging.LoggerV2
}

// NewHTTPUserClient creates a new HTTP-based user client.
func NewHTTPUserClient(cfg config.ServiceConfig, logger *logging.LoggerV2) *HTTPUserClient {
	return &HTTPUserClient{
		baseClient: newBaseClient(userServiceName, cfg),
		logger:     logger,
	}
}

// rawUser accepts the role-specific id fields older endpoints return.
type rawUser struct {
	ID         flexID      `json:"id"`
	CustomerID flexID      `json:"cid"`
	VendorID   flexID      `json:"vid"`
	DriverID   flexID      `json:"did"`
	Name       string      `json:"name"`
	Email      string      `json:"email"`
	Phone      string      `json:"phone"`
	Role       models.Role `json:"role"`
}

func (r rawUser) normalize(fallbackRole models.Role) (models.User, error) {
	role := models.Role(strings.ToLower(string(r.Role)))
	if role == "" {
		role = fallbackRole
	}
	if !role.Valid() {
		return models.User{}, fmt.Errorf("user payload: unknown role %q", r.Role)
	}

	id := string(r.ID)
	if id == "" {
		switch role {
		case models.RoleCustomer:
			id = string(r.CustomerID)
		case models.RoleVendor:
			id = string(r.VendorID)
		case models.RoleDriver:
			id = string(r.DriverID)
		}
	}
	if id == "" {
		return models.User{}, fmt.Errorf("user payload: missing id")
	}

	return models.User{
		ID:    id,
		Name:  strings.TrimSpace(r.Name),
		Email: strings.TrimSpace(r.Email),
		Phone: strings.TrimSpace(r.Phone),
		Role:  role,
	}, nil
}

// Login forwards credentials to the user API.
func (c *HTTPUserClient) Login(ctx context.Context, loginReq *models.LoginRequest) (*LoginResult, error) {
	c.logger.Debug("Logging in user", logging.Fields{"role": loginReq.Role})

	req, err := c.newRequest(ctx, http.MethodPost, "/api/auth/login", loginReq)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Login request failed", logging.Fields{"error": err.Error()})
		return nil, errors.NewUpstreamError(c.service, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, errors.ErrUnauthorized
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.NewUpstreamStatusError(c.service, resp.StatusCode)
	}

	body, err := readBody(resp)
	if err != nil {
		return nil, errors.NewUpstreamError(c.service, err)
	}

	var payload struct {
		Token string  `json:"token"`
		User  rawUser `json:"user"`
		Data  *struct {
			Token string  `json:"token"`
			User  rawUser `json:"user"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, errors.NewUpstreamError(c.service, err)
	}
	if payload.Data != nil {
		payload.Token, payload.User = payload.Data.Token, payload.Data.User
	}
	if payload.Token == "" {
		return nil, errors.NewUpstreamError(c.service, fmt.Errorf("login payload: missing token"))
	}

	user, err := payload.User.normalize(loginReq.Role)
	if err != nil {
		return nil, errors.NewUpstreamError(c.service, err)
	}
	if user.Role != loginReq.Role {
		return nil, errors.ErrForbidden
	}

	c.logger.Info("User logged in", logging.Fields{
		"user_id": user.ID,
		"role":    user.Role,
	})

	return &LoginResult{Token: payload.Token, User: user}, nil
}

// GetMe retrieves the profile of the user whose upstream token is on ctx.
func (c *HTTPUserClient) GetMe(ctx context.Context) (*models.User, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/users/me", nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Failed to fetch profile", logging.Fields{"error": err.Error()})
		return nil, errors.NewUpstreamError(c.service, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized:
		return nil, errors.ErrUnauthorized
	case http.StatusNotFound:
		return nil, errors.ErrNotFound
	default:
		return nil, errors.NewUpstreamStatusError(c.service, resp.StatusCode)
	}

	body, err := readBody(resp)
	if err != nil {
		return nil, errors.NewUpstreamError(c.service, err)
	}

	raw, err := unwrapUser(body)
	if err != nil {
		return nil, errors.NewUpstreamError(c.service, err)
	}

	user, err := raw.normalize("")
	if err != nil {
		return nil, errors.NewUpstreamError(c.service, err)
	}
	return &user, nil
}

func unwrapUser(body []byte) (rawUser, error) {
	var envelope struct {
		Data *rawUser `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return rawUser{}, err
	}
	if envelope.Data != nil {
		return *envelope.Data, nil
	}
	var u rawUser
	err := json.Unmarshal(body, &u)
	return u, err
}

// MockUserClient is a mock implementation for testing.
type MockUserClient struct {
	users    map[string]*models.User
	password map[string]string
	tokens   map[string]string
}

// NewMockUserClient creates a mock user client.
func NewMockUserClient() *MockUserClient {
	return &MockUserClient{
		users:    make(map[string]*models.User),
		password: make(map[string]string),
		tokens:   make(map[string]string),
	}
}

// AddUser registers a user that can log in with password.
func (m *MockUserClient) AddUser(user *models.User, password string) {
	m.users[user.Email] = user
	m.password[user.Email] = password
}

func (m *MockUserClient) Login(ctx context.Context, req *models.LoginRequest) (*LoginResult, error) {
	user, ok := m.users[req.Email]
	if !ok || m.password[req.Email] != req.Password {
		return nil, errors.ErrUnauthorized
	}
	if user.Role != req.Role {
		return nil, errors.ErrForbidden
	}
	token := "upstream-" + user.ID
	m.tokens[token] = user.Email
	return &LoginResult{Token: token, User: *user}, nil
}

func (m *MockUserClient) GetMe(ctx context.Context) (*models.User, error) {
	email, ok := m.tokens[requestctx.UpstreamToken(ctx)]
	if !ok {
		return nil, errors.ErrUnauthorized
	}
	user := *m.users[email]
	return &user, nil
}
