package common

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yieldvault/ledger/pkg/domain"
)

func TestErrorToStatusCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{domain.NewInvalidInput("amount", "must be positive"), fiber.StatusBadRequest},
		{fmt.Errorf("withdraw: %w", domain.ErrInsufficientBalance), fiber.StatusUnprocessableEntity},
		{domain.ErrConcurrentModification, fiber.StatusConflict},
		{domain.ErrUnauthorized, fiber.StatusForbidden},
		{domain.ErrNotFound, fiber.StatusNotFound},
		{domain.ErrInvalidTransition, fiber.StatusConflict},
		{domain.ErrAccountFrozen, fiber.StatusLocked},
		{domain.ErrAlreadyExists, fiber.StatusConflict},
		{fiber.ErrTooManyRequests, fiber.StatusTooManyRequests},
		{errors.New("boom"), fiber.StatusInternalServerError},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, ErrorToStatusCode(tt.err))
		})
	}
}

type input struct {
	Amount float64 `json:"amount" validate:"required,gt=0"`
}

func TestBindAndValidate(t *testing.T) {
	app := fiber.New()
	app.Post("/", func(c *fiber.Ctx) error {
		in, err := BindAndValidate[input](c)
		if in == nil {
			return err
		}
		return SuccessResponseJSON(c, fiber.StatusOK, "ok", in)
	})

	do := func(body string) (*http.Response, ProblemDetails) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		resp, err := app.Test(req)
		require.NoError(t, err)
		var pd ProblemDetails
		_ = json.NewDecoder(resp.Body).Decode(&pd)
		return resp, pd
	}

	resp, _ := do(`{"amount": 10}`)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, pd := do(`{"amount": -1}`)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "application/problem+json", resp.Header.Get("Content-Type"))
	assert.Equal(t, "Validation failed", pd.Title)
	assert.Equal(t, map[string]any{"amount": "gt"}, pd.Errors)

	resp, _ = do(`{"amount":`)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestProblemDetailsJSON_HidesInternalErrors(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		return ProblemDetailsJSON(c, "Internal Server Error", errors.New("dial tcp 10.0.0.1:5432"))
	})
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	var pd ProblemDetails
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&pd))
	assert.Equal(t, fiber.StatusInternalServerError, pd.Status)
	assert.Equal(t, "internal error", pd.Detail)
}
