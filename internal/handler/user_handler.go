package handler

import (
	"context"
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"user-management-svc/internal/models"
	"user-management-svc/internal/models/request"
	"user-management-svc/internal/models/response"
	"user-management-svc/internal/service"
	"user-management-svc/pkg/logger"
	"user-management-svc/pkg/utils"
)

// UserHandler handles user-related HTTP requests
type UserHandler struct {
	userService service.UserService
	logger      *logger.Logger
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService service.UserService, logger *logger.Logger) *UserHandler {
	return &UserHandler{
		userService: userService,
		logger:      logger,
	}
}

// ListUsers handles GET /users
// @Summary List users
// @Description Get a page of active users, 10 per page
// @Tags users
// @Produce json
// @Param page query int false "Page number" default(1)
// @Success 200 {object} utils.PaginatedResponse{data=[]response.UserResponse} "Users retrieved successfully"
// @Failure 401 {object} utils.APIResponse "Unauthorized"
// @Failure 500 {object} utils.APIResponse "Internal server error"
// @Security CookieAuth
// @Router /users [get]
func (h *UserHandler) ListUsers(c *gin.Context) {
	page := utils.GetPageQuery(c)

	users, total, err := h.userService.List(c.Request.Context(), page)
	if err != nil {
		utils.InternalServerErrorResponse(c, "Failed to get users", err)
		return
	}

	utils.PaginatedSuccessResponse(c, "Users retrieved successfully", h.present(users), page, service.PerPage, total)
}

// CreateForm handles GET /users/create
// @Summary Create form data
// @Description Get the data needed to render the create user form
// @Tags users
// @Produce json
// @Success 200 {object} utils.APIResponse{data=response.UserFormResponse} "Form data retrieved successfully"
// @Failure 401 {object} utils.APIResponse "Unauthorized"
// @Security CookieAuth
// @Router /users/create [get]
func (h *UserHandler) CreateForm(c *gin.Context) {
	utils.SuccessResponse(c, "Form data retrieved successfully", response.UserFormResponse{
		Prefixes: h.userService.Prefixes(),
	})
}

// StoreUser handles POST /users
// @Summary Create user
// @Description Create a user from a JSON body or a multipart form with an optional photo
// @Tags users
// @Accept json,mpfd
// @Produce json
// @Param request body request.UserRequest true "User data"
// @Param photo formData file false "Avatar image (jpg, png, jpeg, gif, svg)"
// @Success 201 {object} utils.APIResponse{data=response.UserResponse} "User created successfully"
// @Failure 400 {object} utils.APIResponse "Invalid request body"
// @Failure 401 {object} utils.APIResponse "Unauthorized"
// @Failure 422 {object} utils.ValidationErrorResponse "Validation failed"
// @Failure 500 {object} utils.APIResponse "Internal server error"
// @Security CookieAuth
// @Router /users [post]
func (h *UserHandler) StoreUser(c *gin.Context) {
	var req request.UserRequest
	if err := c.ShouldBind(&req); err != nil {
		h.logger.WithError(err).Error("Invalid request body")
		utils.BadRequestResponse(c, "Invalid request body", err)
		return
	}

	ctx := c.Request.Context()
	photo := formPhoto(c)
	input := toInput(req, photo)

	if err := h.userService.Validate(ctx, nil, input); err != nil {
		h.respondError(c, err, "Failed to validate user")
		return
	}

	attrs := toAttributes(req)
	if req.Password != "" {
		hash, err := h.userService.Hash(req.Password)
		if err != nil {
			h.logger.WithError(err).Error("Failed to hash password")
			utils.InternalServerErrorResponse(c, "Failed to create user", err)
			return
		}
		attrs.PasswordHash = &hash
	}
	if photo != nil {
		if filename := h.userService.Upload(ctx, photo); filename != "" {
			attrs.Photo = &filename
		}
	}

	user, err := h.userService.Store(ctx, attrs)
	if err != nil {
		h.respondError(c, err, "Failed to create user")
		return
	}

	utils.CreatedResponse(c, "User created successfully", h.userService.Present(user))
}

// ShowUser handles GET /users/:id
// @Summary Get user
// @Description Get a user with its details, trashed users included
// @Tags users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} utils.APIResponse{data=response.UserResponse} "User retrieved successfully"
// @Failure 400 {object} utils.APIResponse "Invalid user ID"
// @Failure 401 {object} utils.APIResponse "Unauthorized"
// @Failure 404 {object} utils.APIResponse "User not found"
// @Failure 500 {object} utils.APIResponse "Internal server error"
// @Security CookieAuth
// @Router /users/{id} [get]
func (h *UserHandler) ShowUser(c *gin.Context) {
	user, ok := h.findUser(c)
	if !ok {
		return
	}

	utils.SuccessResponse(c, "User retrieved successfully", h.userService.Present(user))
}

// EditForm handles GET /users/edit/:id
// @Summary Edit form data
// @Description Get the user and the data needed to render the edit form
// @Tags users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} utils.APIResponse{data=response.UserFormResponse} "Form data retrieved successfully"
// @Failure 400 {object} utils.APIResponse "Invalid user ID"
// @Failure 401 {object} utils.APIResponse "Unauthorized"
// @Failure 404 {object} utils.APIResponse "User not found"
// @Security CookieAuth
// @Router /users/edit/{id} [get]
func (h *UserHandler) EditForm(c *gin.Context) {
	user, ok := h.findUser(c)
	if !ok {
		return
	}

	utils.SuccessResponse(c, "Form data retrieved successfully", response.UserFormResponse{
		User:     h.userService.Present(user),
		Prefixes: h.userService.Prefixes(),
	})
}

// UpdateUser handles PUT /users/:id
// @Summary Update user
// @Description Update a user from a JSON body or a multipart form with an optional photo
// @Tags users
// @Accept json,mpfd
// @Produce json
// @Param id path int true "User ID"
// @Param request body request.UserRequest true "User data"
// @Param photo formData file false "Avatar image (jpg, png, jpeg, gif, svg)"
// @Success 200 {object} utils.APIResponse{data=response.UserResponse} "User updated successfully"
// @Failure 400 {object} utils.APIResponse "Invalid request"
// @Failure 401 {object} utils.APIResponse "Unauthorized"
// @Failure 404 {object} utils.APIResponse "User not found"
// @Failure 422 {object} utils.ValidationErrorResponse "Validation failed"
// @Failure 500 {object} utils.APIResponse "Internal server error"
// @Security CookieAuth
// @Router /users/{id} [put]
func (h *UserHandler) UpdateUser(c *gin.Context) {
	id, err := utils.GetIDParam(c)
	if err != nil {
		h.logger.WithError(err).WithField("id_param", c.Param("id")).Error("Invalid user ID parameter")
		utils.BadRequestResponse(c, "Invalid user ID", err)
		return
	}

	var req request.UserRequest
	if err := c.ShouldBind(&req); err != nil {
		h.logger.WithError(err).Error("Invalid request body")
		utils.BadRequestResponse(c, "Invalid request body", err)
		return
	}

	ctx := c.Request.Context()
	photo := formPhoto(c)

	if err := h.userService.Validate(ctx, &id, toInput(req, photo)); err != nil {
		h.respondError(c, err, "Failed to validate user")
		return
	}

	attrs := toAttributes(req)
	if photo != nil {
		if filename := h.userService.Upload(ctx, photo); filename != "" {
			attrs.Photo = &filename
		}
	}

	if _, err := h.userService.Update(ctx, id, attrs); err != nil {
		h.respondError(c, err, "Failed to update user")
		return
	}

	user, err := h.userService.Find(ctx, id)
	if err != nil {
		h.respondError(c, err, "Failed to get user")
		return
	}

	utils.SuccessResponse(c, "User updated successfully", h.userService.Present(user))
}

// DestroyUsers handles DELETE /users/destroy
// @Summary Move users to trash
// @Description Soft-delete the users given by userId or userIds
// @Tags users
// @Accept json
// @Produce json
// @Param request body request.UserIDsRequest true "User ids"
// @Success 200 {object} utils.APIResponse{data=response.BulkActionResponse} "Users moved to trash"
// @Failure 400 {object} utils.APIResponse "Invalid user ID"
// @Failure 401 {object} utils.APIResponse "Unauthorized"
// @Failure 500 {object} utils.APIResponse "Internal server error"
// @Security CookieAuth
// @Router /users/destroy [delete]
func (h *UserHandler) DestroyUsers(c *gin.Context) {
	h.bulkAction(c, h.userService.Destroy, "Users moved to trash")
}

// ListTrashedUsers handles GET /users/trashed
// @Summary List trashed users
// @Description Get a page of soft-deleted users, 10 per page
// @Tags users
// @Produce json
// @Param page query int false "Page number" default(1)
// @Success 200 {object} utils.PaginatedResponse{data=[]response.UserResponse} "Trashed users retrieved successfully"
// @Failure 401 {object} utils.APIResponse "Unauthorized"
// @Failure 500 {object} utils.APIResponse "Internal server error"
// @Security CookieAuth
// @Router /users/trashed [get]
func (h *UserHandler) ListTrashedUsers(c *gin.Context) {
	page := utils.GetPageQuery(c)

	users, total, err := h.userService.ListTrashed(c.Request.Context(), page)
	if err != nil {
		utils.InternalServerErrorResponse(c, "Failed to get trashed users", err)
		return
	}

	utils.PaginatedSuccessResponse(c, "Trashed users retrieved successfully", h.present(users), page, service.PerPage, total)
}

// RestoreUsers handles PATCH /users/restore
// @Summary Restore users
// @Description Restore the trashed users given by userId or userIds
// @Tags users
// @Accept json
// @Produce json
// @Param request body request.UserIDsRequest true "User ids"
// @Success 200 {object} utils.APIResponse{data=response.BulkActionResponse} "Users restored"
// @Failure 400 {object} utils.APIResponse "Invalid user ID"
// @Failure 401 {object} utils.APIResponse "Unauthorized"
// @Failure 500 {object} utils.APIResponse "Internal server error"
// @Security CookieAuth
// @Router /users/restore [patch]
func (h *UserHandler) RestoreUsers(c *gin.Context) {
	h.bulkAction(c, h.userService.Restore, "Users restored")
}

// DeleteUsers handles DELETE /users/delete
// @Summary Purge users
// @Description Permanently delete the given users; only users already in the trash are purged
// @Tags users
// @Accept json
// @Produce json
// @Param request body request.UserIDsRequest true "User ids"
// @Success 200 {object} utils.APIResponse{data=response.BulkActionResponse} "Users permanently deleted"
// @Failure 400 {object} utils.APIResponse "Invalid user ID"
// @Failure 401 {object} utils.APIResponse "Unauthorized"
// @Failure 500 {object} utils.APIResponse "Internal server error"
// @Security CookieAuth
// @Router /users/delete [delete]
func (h *UserHandler) DeleteUsers(c *gin.Context) {
	h.bulkAction(c, h.userService.Delete, "Users permanently deleted")
}

type bulkFunc func(ctx context.Context, ids ...uint) (int64, error)

func (h *UserHandler) bulkAction(c *gin.Context, action bulkFunc, message string) {
	var req request.UserIDsRequest
	if err := c.ShouldBind(&req); err != nil {
		h.logger.WithError(err).Error("Invalid request body")
		utils.BadRequestResponse(c, "Invalid request body", err)
		return
	}

	ids := req.IDs()
	if len(ids) == 0 {
		utils.BadRequestResponse(c, "Invalid user ID", service.ErrInvalidID)
		return
	}

	affected, err := action(c.Request.Context(), ids...)
	if err != nil {
		h.respondError(c, err, "Failed to process users")
		return
	}

	utils.SuccessResponse(c, message, response.BulkActionResponse{Affected: affected})
}

func (h *UserHandler) findUser(c *gin.Context) (*models.User, bool) {
	id, err := utils.GetIDParam(c)
	if err != nil {
		h.logger.WithError(err).WithField("id_param", c.Param("id")).Error("Invalid user ID parameter")
		utils.BadRequestResponse(c, "Invalid user ID", err)
		return nil, false
	}

	user, err := h.userService.Find(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err, "Failed to get user")
		return nil, false
	}

	return user, true
}

func (h *UserHandler) present(users []models.User) []*response.UserResponse {
	items := make([]*response.UserResponse, 0, len(users))
	for i := range users {
		items = append(items, h.userService.Present(&users[i]))
	}
	return items
}

// respondError maps service errors to status codes
func (h *UserHandler) respondError(c *gin.Context, err error, message string) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		utils.UnprocessableResponse(c, "The given data was invalid", verr.Fields())
	case errors.Is(err, service.ErrUserNotFound):
		utils.NotFoundResponse(c, "User not found")
	case errors.Is(err, service.ErrInvalidID):
		utils.BadRequestResponse(c, "Invalid user ID", err)
	case errors.Is(err, service.ErrInvalidCredentials), errors.Is(err, service.ErrUnauthorized):
		utils.UnauthorizedResponse(c, err.Error())
	default:
		h.logger.WithError(err).Error(message)
		utils.ErrorResponse(c, http.StatusInternalServerError, message, err)
	}
}

func formPhoto(c *gin.Context) *multipart.FileHeader {
	photo, err := c.FormFile("photo")
	if err != nil {
		return nil
	}
	return photo
}

func toInput(req request.UserRequest, photo *multipart.FileHeader) service.UserInput {
	return service.UserInput{
		Prefix:               req.Prefix,
		FirstName:            req.FirstName,
		MiddleName:           optional(req.MiddleName),
		LastName:             req.LastName,
		SuffixName:           optional(req.SuffixName),
		Username:             req.Username,
		Email:                req.Email,
		Password:             req.Password,
		PasswordConfirmation: req.PasswordConfirmation,
		Photo:                photo,
	}
}

// toAttributes leaves the optional names nil when the request did not send them,
// so an update keeps their stored values
func toAttributes(req request.UserRequest) service.UserAttributes {
	return service.UserAttributes{
		Prefix:     &req.Prefix,
		FirstName:  &req.FirstName,
		MiddleName: req.MiddleName,
		LastName:   &req.LastName,
		SuffixName: req.SuffixName,
		Username:   &req.Username,
		Email:      &req.Email,
	}
}

func optional(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
