// Package admin serves the back-office endpoints. Every route requires a
// token carrying the admin role.
package admin

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/yieldvault/ledger/pkg/config"
	"github.com/yieldvault/ledger/pkg/domain/account"
	"github.com/yieldvault/ledger/pkg/domain/transaction"
	"github.com/yieldvault/ledger/pkg/dto"
	"github.com/yieldvault/ledger/pkg/middleware"
	"github.com/yieldvault/ledger/pkg/service/admin"
	authsvc "github.com/yieldvault/ledger/pkg/service/auth"
	investmentsvc "github.com/yieldvault/ledger/pkg/service/investment"
	"github.com/yieldvault/ledger/pkg/service/reconcile"
	"github.com/yieldvault/ledger/webapi/common"
)

// Services groups the services behind the admin routes.
type Services struct {
	Admin      *admin.Service
	Reconcile  *reconcile.Service
	Investment *investmentsvc.Service
	Auth       *authsvc.Service
}

func Routes(app *fiber.App, svc Services, cfg *config.App) {
	handlers := append(middleware.Protected(cfg.Auth.Jwt, svc.Auth), middleware.AdminOnly())
	g := app.Group("/admin", handlers...)

	g.Get("/accounts", ListAccounts(svc.Admin))
	g.Patch("/accounts/:id/kyc", SetKYC(svc.Admin))
	g.Patch("/accounts/:id/frozen", SetFrozen(svc.Admin))
	g.Delete("/accounts/:id", DeleteAccount(svc.Admin))
	g.Post("/accounts/:id/adjust", Adjust(svc.Reconcile))
	g.Post("/accounts/:id/bot-trade", BotTrade(svc.Reconcile))

	g.Get("/transactions", ListTransactions(svc.Admin))
	g.Post("/transactions/:id/status", Transition(svc.Reconcile))
	g.Post("/transactions/:id/reverse", Reverse(svc.Reconcile))

	g.Post("/investments/:id/cancel", CancelInvestment(svc.Investment))
	g.Get("/audit", AuditLog(svc.Admin))
}

func pathID(c *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, common.ProblemDetailsJSON(c, "Invalid ID", err, "ID must be a valid UUID", fiber.StatusBadRequest)
	}
	return id, nil
}

func ListAccounts(svc *admin.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, _ := middleware.CurrentSession(c)
		accounts, err := svc.ListAccounts(c.UserContext(), sess)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to list accounts", err)
		}
		out := make([]*dto.AccountRead, 0, len(accounts))
		for _, a := range accounts {
			out = append(out, dto.NewAccountRead(a))
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Accounts fetched", out)
	}
}

func SetKYC(svc *admin.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, _ := middleware.CurrentSession(c)
		id, err := pathID(c)
		if id == uuid.Nil {
			return err
		}
		input, err := common.BindAndValidate[KYCRequest](c)
		if input == nil {
			return err
		}
		if err := svc.SetKYC(c.UserContext(), sess, id, account.KYCStatus(input.Status)); err != nil {
			return common.ProblemDetailsJSON(c, "Failed to set KYC status", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "KYC status updated", fiber.Map{"id": id, "kyc_status": input.Status})
	}
}

func SetFrozen(svc *admin.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, _ := middleware.CurrentSession(c)
		id, err := pathID(c)
		if id == uuid.Nil {
			return err
		}
		input, err := common.BindAndValidate[FrozenRequest](c)
		if input == nil {
			return err
		}
		if err := svc.SetFrozen(c.UserContext(), sess, id, *input.Frozen); err != nil {
			return common.ProblemDetailsJSON(c, "Failed to update account", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Account updated", fiber.Map{"id": id, "frozen": *input.Frozen})
	}
}

func DeleteAccount(svc *admin.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, _ := middleware.CurrentSession(c)
		id, err := pathID(c)
		if id == uuid.Nil {
			return err
		}
		if err := svc.DeleteAccount(c.UserContext(), sess, id); err != nil {
			return common.ProblemDetailsJSON(c, "Failed to delete account", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Account deleted", fiber.Map{"id": id})
	}
}

func Adjust(svc *reconcile.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, _ := middleware.CurrentSession(c)
		id, err := pathID(c)
		if id == uuid.Nil {
			return err
		}
		input, err := common.BindAndValidate[AdjustRequest](c)
		if input == nil {
			return err
		}
		tx, err := svc.Adjust(c.UserContext(), sess, id, account.Bucket(input.Bucket), decimal.NewFromFloat(input.Amount), input.Note)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to adjust balance", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusCreated, "Balance adjusted", dto.NewTransactionRead(tx))
	}
}

func BotTrade(svc *reconcile.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, _ := middleware.CurrentSession(c)
		id, err := pathID(c)
		if id == uuid.Nil {
			return err
		}
		input, err := common.BindAndValidate[BotTradeRequest](c)
		if input == nil {
			return err
		}
		tx, err := svc.RecordBotTrade(c.UserContext(), sess, id, decimal.NewFromFloat(input.Amount), transaction.Outcome(input.Outcome))
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to record bot trade", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusCreated, "Bot trade recorded", dto.NewTransactionRead(tx))
	}
}

// ListTransactions accepts status, type, account_id and limit query filters.
func ListTransactions(svc *admin.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, _ := middleware.CurrentSession(c)
		filter := dto.TransactionFilter{
			Status: transaction.Status(c.Query("status")),
			Type:   transaction.Type(c.Query("type")),
			Limit:  c.QueryInt("limit", 100),
		}
		if raw := c.Query("account_id"); raw != "" {
			id, err := uuid.Parse(raw)
			if err != nil {
				return common.ProblemDetailsJSON(c, "Invalid account_id", err, fiber.StatusBadRequest)
			}
			filter.AccountID = id
		}
		txs, err := svc.ListTransactions(c.UserContext(), sess, filter)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to list transactions", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Transactions fetched", dto.NewTransactionReads(txs))
	}
}

// Transition approves, completes, rejects or fails a transaction.
func Transition(svc *reconcile.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, _ := middleware.CurrentSession(c)
		id, err := pathID(c)
		if id == uuid.Nil {
			return err
		}
		input, err := common.BindAndValidate[StatusRequest](c)
		if input == nil {
			return err
		}
		tx, err := svc.Transition(c.UserContext(), sess, id, transaction.Status(input.Status), input.Reason)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to update transaction", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Transaction updated", dto.NewTransactionRead(tx))
	}
}

func Reverse(svc *reconcile.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, _ := middleware.CurrentSession(c)
		id, err := pathID(c)
		if id == uuid.Nil {
			return err
		}
		input, err := common.BindAndValidate[ReasonRequest](c)
		if input == nil {
			return err
		}
		tx, err := svc.Reverse(c.UserContext(), sess, id, input.Reason)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to reverse transaction", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Transaction reversed", dto.NewTransactionRead(tx))
	}
}

func CancelInvestment(svc *investmentsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, _ := middleware.CurrentSession(c)
		id, err := pathID(c)
		if id == uuid.Nil {
			return err
		}
		input, err := common.BindAndValidate[ReasonRequest](c)
		if input == nil {
			return err
		}
		contract, err := svc.Cancel(c.UserContext(), sess, id, input.Reason)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to cancel investment", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Investment cancelled", dto.NewInvestmentRead(contract))
	}
}

func AuditLog(svc *admin.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, _ := middleware.CurrentSession(c)
		entries, err := svc.AuditLog(c.UserContext(), sess, c.QueryInt("limit", 100))
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to load audit log", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Audit log fetched", entries)
	}
}
