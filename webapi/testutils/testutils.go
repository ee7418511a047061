// Package testutils builds a complete HTTP application over an in-memory
// database for handler tests.
package testutils

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	infrabus "github.com/yieldvault/ledger/infra/eventbus"
	"github.com/yieldvault/ledger/infra/lock"
	infrarepo "github.com/yieldvault/ledger/infra/repository"
	"github.com/yieldvault/ledger/pkg/app"
	"github.com/yieldvault/ledger/pkg/config"
	"github.com/yieldvault/ledger/pkg/domain/plan"
	"github.com/yieldvault/ledger/pkg/testutils"
	"github.com/yieldvault/ledger/webapi"
)

// AdminEmail is promoted to the admin role on signup.
const AdminEmail = "admin@example.com"

// Password is used for every user created through the harness.
const Password = "password123"

// Envelope mirrors common.Response with the payload left raw.
type Envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// Problem mirrors common.ProblemDetails.
type Problem struct {
	Title  string         `json:"title"`
	Status int            `json:"status"`
	Detail string         `json:"detail"`
	Errors map[string]any `json:"errors"`
}

// Harness is a running API backed by SQLite and the in-memory bus.
type Harness struct {
	T    testing.TB
	App  *fiber.App
	Core *app.App
	Uow  *infrarepo.UoW
	Bus  *infrabus.MemoryEventBus
}

// Config returns the application config used by the harness.
func Config() *config.App {
	return &config.App{
		Env: "test",
		Auth: &config.Auth{
			Jwt:         &config.Jwt{Secret: "test-secret", Expiry: time.Hour},
			AdminEmails: []string{AdminEmail},
		},
		Accrual:   &config.Accrual{Interval: time.Second, LockTTL: time.Second, ReleasePrincipal: true},
		Reconcile: &config.Reconcile{MaxRetries: 3},
	}
}

// NewHarness wires every service and route over a fresh database.
func NewHarness(t testing.TB) *Harness {
	t.Helper()
	_, uow := testutils.NewSQLiteUoW(t)
	logger := testutils.QuietLogger()
	bus := infrabus.NewWithMemory(logger)
	core := app.New(&app.Deps{
		Uow:      uow,
		EventBus: bus,
		Catalog:  plan.DefaultCatalog(),
		Lock:     lock.NewLocalLock(),
		Logger:   logger,
	}, Config())
	return &Harness{T: t, App: webapi.SetupApp(core), Core: core, Uow: uow, Bus: bus}
}

// Do sends a request with an optional JSON body and bearer token.
func (h *Harness) Do(method, path string, body any, token string) *http.Response {
	h.T.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(h.T, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	resp, err := h.App.Test(req, -1)
	require.NoError(h.T, err)
	return resp
}

// Decode reads a success envelope and unmarshals its data into out.
func Decode(t testing.TB, resp *http.Response, out any) Envelope {
	t.Helper()
	defer resp.Body.Close()
	var env Envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	if out != nil {
		require.NoError(t, json.Unmarshal(env.Data, out))
	}
	return env
}

// DecodeProblem reads a problem details body.
func DecodeProblem(t testing.TB, resp *http.Response) Problem {
	t.Helper()
	defer resp.Body.Close()
	var p Problem
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&p))
	return p
}

// Signup registers a user with email and returns its bearer token and
// account ID.
func (h *Harness) Signup(email string) (string, uuid.UUID) {
	h.T.Helper()
	username := fmt.Sprintf("u_%s", uuid.NewString()[:8])
	resp := h.Do(http.MethodPost, "/auth/signup", fiber.Map{
		"username": username, "email": email, "password": Password,
	}, "")
	require.Equal(h.T, fiber.StatusCreated, resp.StatusCode)
	_ = resp.Body.Close()
	return h.Login(email)
}

// Login returns a bearer token and the account ID for identity.
func (h *Harness) Login(identity string) (string, uuid.UUID) {
	h.T.Helper()
	resp := h.Do(http.MethodPost, "/auth/login", fiber.Map{"identity": identity, "password": Password}, "")
	require.Equal(h.T, fiber.StatusOK, resp.StatusCode)
	var out struct {
		Token     string    `json:"token"`
		AccountID uuid.UUID `json:"account_id"`
	}
	Decode(h.T, resp, &out)
	require.NotEmpty(h.T, out.Token)
	return out.Token, out.AccountID
}

// NewUser signs up a random user.
func (h *Harness) NewUser() (string, uuid.UUID) {
	return h.Signup(fmt.Sprintf("user_%s@example.com", uuid.NewString()[:8]))
}

// NewAdmin signs up the admin account.
func (h *Harness) NewAdmin() (string, uuid.UUID) {
	return h.Signup(AdminEmail)
}
