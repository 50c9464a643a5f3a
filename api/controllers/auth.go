package controllers

import (
	"net/http"

	"github.com/shopcanvas/backend/api/responses"
	"github.com/shopcanvas/backend/api/validators"
	internalauth "github.com/shopcanvas/backend/internal/auth"
	"github.com/shopcanvas/backend/pkg/enums"
	pkgerrors "github.com/shopcanvas/backend/pkg/errors"
	"github.com/shopcanvas/backend/pkg/logger"
)

type registerRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
	Name      string `json:"name" validate:"required,min=2"`
	Role      string `json:"role"`
	StoreName string `json:"store_name"`
	StoreSlug string `json:"store_slug"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func Register(svc internalauth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		var req registerRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		role := enums.MemberRole(req.Role)
		session, err := svc.Register(r.Context(), internalauth.RegisterInput{
			Email:     req.Email,
			Password:  req.Password,
			Name:      req.Name,
			Role:      role,
			StoreName: req.StoreName,
			StoreSlug: req.StoreSlug,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, session)
	}
}

func Login(svc internalauth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		var req loginRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		session, err := svc.Login(r.Context(), internalauth.LoginInput{
			Email:    req.Email,
			Password: req.Password,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, session)
	}
}
