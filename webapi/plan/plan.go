// Package plan serves the investment tiers and the return calculator.
package plan

import (
	"github.com/gofiber/fiber/v2"
	investmentsvc "github.com/yieldvault/ledger/pkg/service/investment"
	"github.com/yieldvault/ledger/webapi/common"
)

// ProjectRequest asks for the expected payout of a principal.
// An empty plan_id picks the tier from the principal.
type ProjectRequest struct {
	Principal   float64 `json:"principal" validate:"required,gt=0"`
	PlanID      string  `json:"plan_id" validate:"max=32"`
	Compounding bool    `json:"compounding"`
}

// Routes registers the public plan endpoints.
func Routes(app *fiber.App, investmentSvc *investmentsvc.Service) {
	app.Get("/plans", ListPlans(investmentSvc))
	app.Post("/plans/project", Project(investmentSvc))
}

func ListPlans(investmentSvc *investmentsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Plans fetched", investmentSvc.Plans())
	}
}

func Project(investmentSvc *investmentsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, err := common.BindAndValidate[ProjectRequest](c)
		if input == nil {
			return err
		}
		p, err := investmentSvc.Project(input.Principal, input.PlanID, input.Compounding)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to project return", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Projection computed", p)
	}
}
