package controllers

import (
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/shopcanvas/backend/api/middleware"
	"github.com/shopcanvas/backend/api/responses"
	"github.com/shopcanvas/backend/api/validators"
	"github.com/shopcanvas/backend/internal/checkout"
	pkgerrors "github.com/shopcanvas/backend/pkg/errors"
	"github.com/shopcanvas/backend/pkg/logger"
)

// cartPath is where an empty-cart checkout submission is redirected.
const cartPath = "/api/v1/cart"

type checkoutRequest struct {
	Shipping checkout.ShippingForm `json:"shipping" validate:"required"`
	Payment  checkout.PaymentForm  `json:"payment" validate:"required"`
}

// SubmitCheckout turns the session cart into an order. An empty cart answers
// 303 See Other back to the cart instead of an error payload.
func SubmitCheckout(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := middleware.SessionIDFromContext(r.Context())
		userID, err := userIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req checkoutRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		detail, err := svc.Submit(r.Context(), checkout.SubmitInput{
			SessionID: sessionID,
			UserID:    userID,
			Shipping:  req.Shipping,
			Payment:   req.Payment,
		})
		if err != nil {
			if errors.Is(err, checkout.ErrCartEmpty) {
				if logg != nil {
					logg.Info(logg.WithSessionID(r.Context(), sessionID), "checkout.empty_cart_redirect")
				}
				responses.WriteRedirect(w, http.StatusSeeOther, cartPath)
				return
			}
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, detail)
	}
}

func userIDFromRequest(r *http.Request) (uuid.UUID, error) {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	userID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity invalid")
	}
	return userID, nil
}
