package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	userapp "github.com/oksasatya/ecommerce-user-service/internal/application"
	"github.com/oksasatya/ecommerce-user-service/internal/domain/entity"
	"github.com/oksasatya/ecommerce-user-service/internal/domain/errs"
	"github.com/oksasatya/ecommerce-user-service/pkg/response"
	"github.com/oksasatya/ecommerce-user-service/pkg/validation"
)

type UserHandler struct {
	Svc    *userapp.Service
	Logger *logrus.Logger
}

func NewUserHandler(svc *userapp.Service, logger *logrus.Logger) *UserHandler {
	return &UserHandler{Svc: svc, Logger: logger}
}

type userIDParam struct {
	ID string `uri:"id" binding:"required,uuid"`
}

type registerUserRequest struct {
	Email       string  `json:"email" binding:"required"`
	FirstName   string  `json:"first_name" binding:"required,personname"`
	LastName    string  `json:"last_name" binding:"required,personname"`
	PhoneNumber *string `json:"phone_number" binding:"omitempty,phone"`
}

type updateProfileRequest struct {
	FirstName   string  `json:"first_name" binding:"required,personname"`
	LastName    string  `json:"last_name" binding:"required,personname"`
	PhoneNumber *string `json:"phone_number" binding:"omitempty,phone"`
}

type userResponse struct {
	ID          uuid.UUID `json:"id"`
	Email       string    `json:"email"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	FullName    string    `json:"full_name"`
	PhoneNumber *string   `json:"phone_number"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toUserResponse(u *entity.User) userResponse {
	return userResponse{
		ID:          u.ID(),
		Email:       u.Email().Address(),
		FirstName:   u.FirstName(),
		LastName:    u.LastName(),
		FullName:    u.FullName(),
		PhoneNumber: u.PhoneNumberPtr(),
		Status:      u.Status().String(),
		CreatedAt:   u.CreatedAt(),
		UpdatedAt:   u.UpdatedAt(),
	}
}

func (h *UserHandler) Register(c *gin.Context) {
	var req registerUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	u, err := h.Svc.RegisterUser(c.Request.Context(), userapp.RegisterUserInput{
		Email:       req.Email,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		PhoneNumber: req.PhoneNumber,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusCreated, toUserResponse(u), "user registered", nil)
}

func (h *UserHandler) Get(c *gin.Context) {
	id, ok := h.bindID(c)
	if !ok {
		return
	}
	u, err := h.Svc.GetUser(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, toUserResponse(u), "user", nil)
}

// FindByEmail serves GET /users?email=.
func (h *UserHandler) FindByEmail(c *gin.Context) {
	email := c.Query("email")
	if email == "" {
		response.Error[any](c, http.StatusBadRequest, "invalid query", map[string]string{"email": "is required"})
		return
	}
	u, err := h.Svc.GetUserByEmail(c.Request.Context(), email)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, toUserResponse(u), "user", nil)
}

func (h *UserHandler) UpdateProfile(c *gin.Context) {
	id, ok := h.bindID(c)
	if !ok {
		return
	}
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	u, err := h.Svc.UpdateProfile(c.Request.Context(), id, userapp.UpdateProfileInput{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		PhoneNumber: req.PhoneNumber,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, toUserResponse(u), "profile updated", nil)
}

func (h *UserHandler) Activate(c *gin.Context) {
	h.transition(c, h.Svc.ActivateUser, "user activated")
}

func (h *UserHandler) Deactivate(c *gin.Context) {
	h.transition(c, h.Svc.DeactivateUser, "user deactivated")
}

// Delete is the soft delete; the user stays readable with status DELETED.
func (h *UserHandler) Delete(c *gin.Context) {
	h.transition(c, h.Svc.DeleteUser, "user deleted")
}

func (h *UserHandler) Purge(c *gin.Context) {
	id, ok := h.bindID(c)
	if !ok {
		return
	}
	if err := h.Svc.PurgeUser(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}
	response.NoContent(c)
}

func (h *UserHandler) transition(c *gin.Context, op func(context.Context, uuid.UUID) (*entity.User, error), msg string) {
	id, ok := h.bindID(c)
	if !ok {
		return
	}
	u, err := op(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, toUserResponse(u), msg, nil)
}

func (h *UserHandler) bindID(c *gin.Context) (uuid.UUID, bool) {
	var p userIDParam
	if err := c.ShouldBindUri(&p); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid user id", validation.ToDetails(err))
		return uuid.Nil, false
	}
	id, err := uuid.Parse(p.ID)
	if err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid user id", map[string]string{"id": "must be a valid UUID"})
		return uuid.Nil, false
	}
	return id, true
}

// fail maps service errors to HTTP statuses.
func (h *UserHandler) fail(c *gin.Context, err error) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		h.Logger.WithError(err).WithFields(logrus.Fields{
			"request_id": c.GetString("request_id"),
			"path":       c.FullPath(),
		}).Error("user request failed")
		response.Error[any](c, status, "internal server error", nil)
		return
	}
	response.Error[any](c, status, err.Error(), nil)
}

func StatusFor(err error) int {
	switch {
	case errors.Is(err, errs.ErrInvalidEmail),
		errors.Is(err, errs.ErrNullArgument),
		errors.Is(err, errs.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, errs.ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, errs.ErrUserAlreadyExists),
		errors.Is(err, errs.ErrIllegalState):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
