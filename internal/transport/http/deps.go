package http

import (
	"github.com/sms-confirm-api/internal/infrastructure/dynamo"
	jwtinfra "github.com/sms-confirm-api/internal/infrastructure/jwt"
	"github.com/sms-confirm-api/internal/infrastructure/sns"
)

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	ConfirmationRepo *dynamo.ConfirmationRepo
	DeliveryRepo     *dynamo.DeliveryRepo
	SMSSender        sns.SMSSender
	JWTProvider      *jwtinfra.Provider
}
