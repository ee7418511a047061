package admin_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"github.com/yieldvault/ledger/pkg/dto"
	"github.com/yieldvault/ledger/pkg/eventbus"
	"github.com/yieldvault/ledger/webapi/testutils"
)

type AdminHandlersSuite struct {
	suite.Suite
	h          *testutils.Harness
	adminToken string
	adminID    uuid.UUID
	userToken  string
	userID     uuid.UUID
}

func TestAdminHandlers(t *testing.T) {
	suite.Run(t, new(AdminHandlersSuite))
}

func (s *AdminHandlersSuite) SetupTest() {
	s.h = testutils.NewHarness(s.T())
	s.adminToken, s.adminID = s.h.NewAdmin()
	s.userToken, s.userID = s.h.NewUser()
}

func (s *AdminHandlersSuite) do(method, path string, body any) *http.Response {
	return s.h.Do(method, path, body, s.adminToken)
}

func (s *AdminHandlersSuite) account(token string) dto.AccountRead {
	resp := s.h.Do(http.MethodGet, "/account", nil, token)
	s.Require().Equal(fiber.StatusOK, resp.StatusCode)
	var acc dto.AccountRead
	testutils.Decode(s.T(), resp, &acc)
	return acc
}

func (s *AdminHandlersSuite) requireMain(expected string) {
	acc := s.account(s.userToken)
	s.True(decimal.RequireFromString(expected).Equal(acc.MainBalance),
		"main balance %s, want %s", acc.MainBalance, expected)
}

func (s *AdminHandlersSuite) request(path string, amount float64) dto.TransactionRead {
	resp := s.h.Do(http.MethodPost, path, fiber.Map{"amount": amount, "method": "bank"}, s.userToken)
	s.Require().Equal(fiber.StatusAccepted, resp.StatusCode)
	var tx dto.TransactionRead
	testutils.Decode(s.T(), resp, &tx)
	return tx
}

func (s *AdminHandlersSuite) transition(id uuid.UUID, status string) *http.Response {
	return s.do(http.MethodPost, fmt.Sprintf("/admin/transactions/%s/status", id), fiber.Map{"status": status, "reason": "checked"})
}

func (s *AdminHandlersSuite) fund(amount float64) {
	resp := s.do(http.MethodPost, fmt.Sprintf("/admin/accounts/%s/adjust", s.userID),
		fiber.Map{"bucket": "main", "amount": amount, "note": "funding"})
	s.Require().Equal(fiber.StatusCreated, resp.StatusCode)
}

func (s *AdminHandlersSuite) TestRequiresAdmin() {
	for _, path := range []string{"/admin/accounts", "/admin/transactions", "/admin/audit"} {
		resp := s.h.Do(http.MethodGet, path, nil, s.userToken)
		s.Equal(fiber.StatusForbidden, resp.StatusCode, path)
	}
	resp := s.h.Do(http.MethodGet, "/admin/accounts", nil, "")
	s.Equal(fiber.StatusBadRequest, resp.StatusCode)
}

func (s *AdminHandlersSuite) TestApproveDepositCreditsOnce() {
	tx := s.request("/account/deposit", 1000)

	resp := s.transition(tx.ID, "approved")
	s.Require().Equal(fiber.StatusOK, resp.StatusCode)
	var updated dto.TransactionRead
	testutils.Decode(s.T(), resp, &updated)
	s.Equal("approved", updated.Status)
	s.requireMain("1000")

	s.Equal(fiber.StatusOK, s.transition(tx.ID, "approved").StatusCode)
	s.Equal(fiber.StatusOK, s.transition(tx.ID, "completed").StatusCode)
	s.requireMain("1000")

	s.Equal(fiber.StatusConflict, s.transition(tx.ID, "rejected").StatusCode)
	s.requireMain("1000")

	var changed int
	for _, e := range s.h.Bus.Published() {
		if e.Type == eventbus.BalanceChanged && e.AccountID == s.userID {
			changed++
		}
	}
	s.Equal(1, changed)
}

func (s *AdminHandlersSuite) TestRejectWithdrawalKeepsBalance() {
	s.fund(1000)
	tx := s.request("/account/withdraw", 300)

	s.Require().Equal(fiber.StatusOK, s.transition(tx.ID, "rejected").StatusCode)
	s.requireMain("1000")

	resp := s.h.Do(http.MethodGet, "/account/transactions", nil, s.userToken)
	var txs []dto.TransactionRead
	testutils.Decode(s.T(), resp, &txs)
	for _, t := range txs {
		if t.ID == tx.ID {
			s.Equal("rejected", t.Status)
			s.Equal("checked", t.RejectionReason)
		}
	}
}

func (s *AdminHandlersSuite) TestApprovingOverdrawnWithdrawalFails() {
	s.fund(100)
	first := s.request("/account/withdraw", 100)
	second := s.request("/account/withdraw", 100)

	s.Require().Equal(fiber.StatusOK, s.transition(first.ID, "approved").StatusCode)
	s.requireMain("0")

	s.Equal(fiber.StatusUnprocessableEntity, s.transition(second.ID, "approved").StatusCode)
	s.requireMain("0")
}

func (s *AdminHandlersSuite) TestTransitionValidation() {
	tx := s.request("/account/deposit", 10)
	s.Equal(fiber.StatusBadRequest, s.transition(tx.ID, "pending").StatusCode)
	s.Equal(fiber.StatusNotFound, s.transition(uuid.New(), "approved").StatusCode)

	resp := s.do(http.MethodPost, "/admin/transactions/not-a-uuid/status", fiber.Map{"status": "approved"})
	s.Equal(fiber.StatusBadRequest, resp.StatusCode)
}

func (s *AdminHandlersSuite) TestReverseWithdrawal() {
	s.fund(1000)
	tx := s.request("/account/withdraw", 400)
	s.Require().Equal(fiber.StatusOK, s.transition(tx.ID, "completed").StatusCode)
	s.requireMain("600")

	path := fmt.Sprintf("/admin/transactions/%s/reverse", tx.ID)
	resp := s.do(http.MethodPost, path, fiber.Map{"reason": "bank bounced"})
	s.Require().Equal(fiber.StatusOK, resp.StatusCode)
	var reversed dto.TransactionRead
	testutils.Decode(s.T(), resp, &reversed)
	s.NotNil(reversed.ReversedAt)
	s.requireMain("1000")

	s.Equal(fiber.StatusConflict, s.do(http.MethodPost, path, fiber.Map{}).StatusCode)
	s.requireMain("1000")
}

func (s *AdminHandlersSuite) TestFrozenAccountCannotWithdraw() {
	s.fund(500)
	path := fmt.Sprintf("/admin/accounts/%s/frozen", s.userID)
	s.Require().Equal(fiber.StatusOK, s.do(http.MethodPatch, path, fiber.Map{"frozen": true}).StatusCode)
	s.True(s.account(s.userToken).Frozen)

	resp := s.h.Do(http.MethodPost, "/account/withdraw", fiber.Map{"amount": 10, "method": "bank"}, s.userToken)
	s.Equal(fiber.StatusLocked, resp.StatusCode)

	s.Require().Equal(fiber.StatusOK, s.do(http.MethodPatch, path, fiber.Map{"frozen": false}).StatusCode)
	s.request("/account/withdraw", 10)

	s.Equal(fiber.StatusBadRequest, s.do(http.MethodPatch, path, fiber.Map{}).StatusCode)
}

func (s *AdminHandlersSuite) TestSetKYC() {
	path := fmt.Sprintf("/admin/accounts/%s/kyc", s.userID)
	s.Require().Equal(fiber.StatusOK, s.do(http.MethodPatch, path, fiber.Map{"status": "verified"}).StatusCode)
	s.Equal("verified", s.account(s.userToken).KYCStatus)

	s.Equal(fiber.StatusBadRequest, s.do(http.MethodPatch, path, fiber.Map{"status": "maybe"}).StatusCode)
	s.Equal(fiber.StatusNotFound,
		s.do(http.MethodPatch, fmt.Sprintf("/admin/accounts/%s/kyc", uuid.New()), fiber.Map{"status": "verified"}).StatusCode)
}

func (s *AdminHandlersSuite) TestAdjust() {
	s.fund(250)
	s.requireMain("250")

	path := fmt.Sprintf("/admin/accounts/%s/adjust", s.userID)
	resp := s.do(http.MethodPost, path, fiber.Map{"bucket": "main", "amount": -50, "note": "fee"})
	s.Require().Equal(fiber.StatusCreated, resp.StatusCode)
	var tx dto.TransactionRead
	testutils.Decode(s.T(), resp, &tx)
	s.Equal("withdrawal", tx.Type)
	s.Equal("completed", tx.Status)
	s.requireMain("200")

	s.Require().Equal(fiber.StatusCreated,
		s.do(http.MethodPost, path, fiber.Map{"bucket": "profit", "amount": 75}).StatusCode)
	s.True(decimal.NewFromInt(75).Equal(s.account(s.userToken).ProfitBalance))

	s.Equal(fiber.StatusBadRequest, s.do(http.MethodPost, path, fiber.Map{"bucket": "profit", "amount": -5}).StatusCode)
	s.Equal(fiber.StatusBadRequest, s.do(http.MethodPost, path, fiber.Map{"bucket": "main", "amount": 0}).StatusCode)
	s.Equal(fiber.StatusUnprocessableEntity, s.do(http.MethodPost, path, fiber.Map{"bucket": "main", "amount": -1000}).StatusCode)
}

func (s *AdminHandlersSuite) TestBotTrade() {
	s.fund(100)
	path := fmt.Sprintf("/admin/accounts/%s/bot-trade", s.userID)

	s.Require().Equal(fiber.StatusCreated, s.do(http.MethodPost, path, fiber.Map{"amount": 40, "outcome": "win"}).StatusCode)
	s.requireMain("140")
	s.Require().Equal(fiber.StatusCreated, s.do(http.MethodPost, path, fiber.Map{"amount": 90, "outcome": "loss"}).StatusCode)
	s.requireMain("50")

	s.Equal(fiber.StatusUnprocessableEntity, s.do(http.MethodPost, path, fiber.Map{"amount": 60, "outcome": "loss"}).StatusCode)
	s.Equal(fiber.StatusBadRequest, s.do(http.MethodPost, path, fiber.Map{"amount": 60, "outcome": "draw"}).StatusCode)
}

func (s *AdminHandlersSuite) TestCancelInvestmentRefundsPrincipal() {
	s.fund(1000)
	resp := s.h.Do(http.MethodPost, "/investments", fiber.Map{"plan_id": "silver", "amount": 1000}, s.userToken)
	s.Require().Equal(fiber.StatusCreated, resp.StatusCode)
	var contract dto.InvestmentRead
	testutils.Decode(s.T(), resp, &contract)
	s.requireMain("0")

	path := fmt.Sprintf("/admin/investments/%s/cancel", contract.ID)
	resp = s.do(http.MethodPost, path, fiber.Map{"reason": "requested by user"})
	s.Require().Equal(fiber.StatusOK, resp.StatusCode)
	var cancelled dto.InvestmentRead
	testutils.Decode(s.T(), resp, &cancelled)
	s.Equal("cancelled", cancelled.Status)
	s.requireMain("1000")

	s.Equal(fiber.StatusConflict, s.do(http.MethodPost, path, fiber.Map{}).StatusCode)
}

func (s *AdminHandlersSuite) TestDeleteAccount() {
	s.Equal(fiber.StatusBadRequest,
		s.do(http.MethodDelete, fmt.Sprintf("/admin/accounts/%s", s.adminID), nil).StatusCode)

	s.request("/account/deposit", 10)
	s.Require().Equal(fiber.StatusOK,
		s.do(http.MethodDelete, fmt.Sprintf("/admin/accounts/%s", s.userID), nil).StatusCode)

	resp := s.h.Do(http.MethodGet, "/account", nil, s.userToken)
	s.Equal(fiber.StatusNotFound, resp.StatusCode)
	s.Equal(fiber.StatusNotFound,
		s.do(http.MethodDelete, fmt.Sprintf("/admin/accounts/%s", s.userID), nil).StatusCode)
}

func (s *AdminHandlersSuite) TestListAccountsAndTransactions() {
	resp := s.do(http.MethodGet, "/admin/accounts", nil)
	s.Require().Equal(fiber.StatusOK, resp.StatusCode)
	var accounts []dto.AccountRead
	testutils.Decode(s.T(), resp, &accounts)
	s.Len(accounts, 2)

	s.request("/account/deposit", 10)
	s.fund(20)

	resp = s.do(http.MethodGet, "/admin/transactions?status=pending", nil)
	s.Require().Equal(fiber.StatusOK, resp.StatusCode)
	var pending []dto.TransactionRead
	testutils.Decode(s.T(), resp, &pending)
	s.Require().Len(pending, 1)
	s.Equal("deposit", pending[0].Type)

	resp = s.do(http.MethodGet, fmt.Sprintf("/admin/transactions?account_id=%s&type=bonus", s.userID), nil)
	var bonuses []dto.TransactionRead
	testutils.Decode(s.T(), resp, &bonuses)
	s.Len(bonuses, 1)

	s.Equal(fiber.StatusBadRequest, s.do(http.MethodGet, "/admin/transactions?status=done", nil).StatusCode)
	s.Equal(fiber.StatusBadRequest, s.do(http.MethodGet, "/admin/transactions?account_id=x", nil).StatusCode)
}

func (s *AdminHandlersSuite) TestAuditLog() {
	s.fund(10)
	s.do(http.MethodPatch, fmt.Sprintf("/admin/accounts/%s/kyc", s.userID), fiber.Map{"status": "pending"})

	resp := s.do(http.MethodGet, "/admin/audit?limit=10", nil)
	s.Require().Equal(fiber.StatusOK, resp.StatusCode)
	var entries []dto.AuditLogRead
	testutils.Decode(s.T(), resp, &entries)
	s.Require().Len(entries, 2)
	actions := []string{entries[0].Action, entries[1].Action}
	s.ElementsMatch([]string{"account.adjust", "account.kyc"}, actions)
	for _, e := range entries {
		s.Equal(s.userID, e.TargetID)
	}
}
