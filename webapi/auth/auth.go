package auth

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/yieldvault/ledger/pkg/domain"
	"github.com/yieldvault/ledger/pkg/dto"
	authsvc "github.com/yieldvault/ledger/pkg/service/auth"
	"github.com/yieldvault/ledger/webapi/common"
)

// Routes registers the public authentication endpoints.
func Routes(app *fiber.App, authSvc *authsvc.Service) {
	app.Post("/auth/signup", Signup(authSvc))
	app.Post("/auth/login", Login(authSvc))
}

// Signup creates a user with an empty account.
func Signup(authSvc *authsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, err := common.BindAndValidate[SignupInput](c)
		if input == nil {
			return err
		}
		u, acc, err := authSvc.Signup(c.UserContext(), input.Username, input.Email, input.Password)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to sign up", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusCreated, "User created", fiber.Map{
			"user":    dto.NewUserRead(u),
			"account": dto.NewAccountRead(acc),
		})
	}
}

// Login handles user authentication and returns a JWT token.
func Login(authSvc *authsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, err := common.BindAndValidate[LoginInput](c)
		if input == nil {
			return err
		}
		token, sess, err := authSvc.Login(c.UserContext(), input.Identity, input.Password)
		if errors.Is(err, domain.ErrUnauthorized) {
			return common.ProblemDetailsJSON(c, "Invalid identity or password", err,
				"Identity or password is incorrect", fiber.StatusUnauthorized)
		}
		if err != nil {
			return common.ProblemDetailsJSON(c, "Internal Server Error", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Success login", fiber.Map{
			"token":      token,
			"account_id": sess.AccountID,
			"role":       sess.Role,
		})
	}
}
