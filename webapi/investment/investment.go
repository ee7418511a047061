// Package investment serves contract purchase and listing.
package investment

import (
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/yieldvault/ledger/pkg/config"
	"github.com/yieldvault/ledger/pkg/domain/investment"
	"github.com/yieldvault/ledger/pkg/dto"
	"github.com/yieldvault/ledger/pkg/middleware"
	authsvc "github.com/yieldvault/ledger/pkg/service/auth"
	investmentsvc "github.com/yieldvault/ledger/pkg/service/investment"
	"github.com/yieldvault/ledger/webapi/common"
)

// InvestRequest opens a contract on a plan.
type InvestRequest struct {
	PlanID string  `json:"plan_id" validate:"required,max=32"`
	Amount float64 `json:"amount" validate:"required,gt=0"`
}

func Routes(app *fiber.App, investmentSvc *investmentsvc.Service, authSvc *authsvc.Service, cfg *config.App) {
	g := app.Group("/investments", middleware.Protected(cfg.Auth.Jwt, authSvc)...)
	g.Post("/", Invest(investmentSvc))
	g.Get("/", List(investmentSvc))
}

// Invest debits the main balance and opens a contract.
func Invest(investmentSvc *investmentsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, _ := middleware.CurrentSession(c)
		input, err := common.BindAndValidate[InvestRequest](c)
		if input == nil {
			return err
		}
		contract, err := investmentSvc.Invest(c.UserContext(), sess, input.PlanID, decimal.NewFromFloat(input.Amount))
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to invest", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusCreated, "Investment opened", dto.NewInvestmentRead(contract))
	}
}

func List(investmentSvc *investmentsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, _ := middleware.CurrentSession(c)
		contracts, err := investmentSvc.List(c.UserContext(), sess)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to list investments", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Investments fetched", reads(contracts))
	}
}

func reads(contracts []*investment.Contract) []*dto.InvestmentRead {
	out := make([]*dto.InvestmentRead, 0, len(contracts))
	for _, c := range contracts {
		out = append(out, dto.NewInvestmentRead(c))
	}
	return out
}
