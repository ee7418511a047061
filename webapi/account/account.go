package account

import (
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/yieldvault/ledger/pkg/config"
	"github.com/yieldvault/ledger/pkg/dto"
	"github.com/yieldvault/ledger/pkg/middleware"
	accountsvc "github.com/yieldvault/ledger/pkg/service/account"
	authsvc "github.com/yieldvault/ledger/pkg/service/auth"
	"github.com/yieldvault/ledger/webapi/common"
)

// Routes registers the account endpoints. All of them act on the caller's
// own account.
//
//   - GET  /account              : balances and status
//   - POST /account/deposit      : request a deposit (pending until approved)
//   - POST /account/withdraw     : request a withdrawal (pending until approved)
//   - POST /account/swap         : move profit balance into the main balance
//   - GET  /account/transactions : transaction history, newest first
func Routes(app *fiber.App, accountSvc *accountsvc.Service, authSvc *authsvc.Service, cfg *config.App) {
	g := app.Group("/account", middleware.Protected(cfg.Auth.Jwt, authSvc)...)
	g.Get("/", GetAccount(accountSvc))
	g.Post("/deposit", Deposit(accountSvc))
	g.Post("/withdraw", Withdraw(accountSvc))
	g.Post("/swap", Swap(accountSvc))
	g.Get("/transactions", GetTransactions(accountSvc))
}

func GetAccount(accountSvc *accountsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, _ := middleware.CurrentSession(c)
		acc, err := accountSvc.Get(c.UserContext(), sess)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to load account", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Account fetched", dto.NewAccountRead(acc))
	}
}

// Deposit records a pending deposit request.
func Deposit(accountSvc *accountsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, _ := middleware.CurrentSession(c)
		input, err := common.BindAndValidate[DepositRequest](c)
		if input == nil {
			return err
		}
		tx, err := accountSvc.RequestDeposit(c.UserContext(), sess, decimal.NewFromFloat(input.Amount), input.Method)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to deposit", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusAccepted, "Deposit requested", dto.NewTransactionRead(tx))
	}
}

// Withdraw records a pending withdrawal after checking the balance.
func Withdraw(accountSvc *accountsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, _ := middleware.CurrentSession(c)
		input, err := common.BindAndValidate[WithdrawRequest](c)
		if input == nil {
			return err
		}
		tx, err := accountSvc.RequestWithdrawal(
			c.UserContext(), sess, decimal.NewFromFloat(input.Amount), input.Method, input.Details)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to withdraw", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusAccepted, "Withdrawal requested", dto.NewTransactionRead(tx))
	}
}

func Swap(accountSvc *accountsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, _ := middleware.CurrentSession(c)
		input, err := common.BindAndValidate[SwapRequest](c)
		if input == nil {
			return err
		}
		acc, err := accountSvc.SwapProfit(c.UserContext(), sess, decimal.NewFromFloat(input.Amount))
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to swap profit", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Profit swapped", dto.NewAccountRead(acc))
	}
}

func GetTransactions(accountSvc *accountsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, _ := middleware.CurrentSession(c)
		txs, err := accountSvc.ListTransactions(c.UserContext(), sess)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to list transactions", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Transactions fetched", dto.NewTransactionReads(txs))
	}
}
