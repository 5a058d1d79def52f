package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// APIResponse is the envelope returned by every endpoint
type APIResponse struct {
	Success bool        `json:"success" example:"true"`
	Message string      `json:"message" example:"Operation completed successfully"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// ValidationErrorResponse carries per-field validation messages
type ValidationErrorResponse struct {
	Success bool                `json:"success" example:"false"`
	Message string              `json:"message" example:"The given data was invalid"`
	Errors  map[string][]string `json:"errors"`
}

// Pagination describes the page returned in a paginated response
type Pagination struct {
	Page       int   `json:"page" example:"1"`
	PerPage    int   `json:"per_page" example:"10"`
	Total      int64 `json:"total" example:"25"`
	TotalPages int64 `json:"total_pages" example:"3"`
}

// PaginatedResponse is the envelope for list endpoints
type PaginatedResponse struct {
	Success    bool        `json:"success" example:"true"`
	Message    string      `json:"message"`
	Data       interface{} `json:"data"`
	Pagination Pagination  `json:"pagination"`
}

// SuccessResponse writes a 200 response
func SuccessResponse(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// CreatedResponse writes a 201 response
func CreatedResponse(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusCreated, APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// PaginatedSuccessResponse writes a 200 response with pagination metadata
func PaginatedSuccessResponse(c *gin.Context, message string, data interface{}, page, perPage int, total int64) {
	c.JSON(http.StatusOK, PaginatedResponse{
		Success: true,
		Message: message,
		Data:    data,
		Pagination: Pagination{
			Page:       page,
			PerPage:    perPage,
			Total:      total,
			TotalPages: TotalPages(total, perPage),
		},
	})
}

// ErrorResponse writes an error response with the given status
func ErrorResponse(c *gin.Context, status int, message string, err error) {
	resp := APIResponse{
		Success: false,
		Message: message,
	}
	if err != nil {
		resp.Error = err.Error()
	}
	c.JSON(status, resp)
}

// BadRequestResponse writes a 400 response
func BadRequestResponse(c *gin.Context, message string, err error) {
	ErrorResponse(c, http.StatusBadRequest, message, err)
}

// UnauthorizedResponse writes a 401 response
func UnauthorizedResponse(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusUnauthorized, message, nil)
}

// NotFoundResponse writes a 404 response
func NotFoundResponse(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusNotFound, message, nil)
}

// UnprocessableResponse writes a 422 response with field errors
func UnprocessableResponse(c *gin.Context, message string, errors map[string][]string) {
	c.JSON(http.StatusUnprocessableEntity, ValidationErrorResponse{
		Success: false,
		Message: message,
		Errors:  errors,
	})
}

// InternalServerErrorResponse writes a 500 response
func InternalServerErrorResponse(c *gin.Context, message string, err error) {
	ErrorResponse(c, http.StatusInternalServerError, message, err)
}

// TotalPages returns how many pages of perPage items hold total items
func TotalPages(total int64, perPage int) int64 {
	if perPage <= 0 {
		return 1
	}
	pages := total / int64(perPage)
	if total%int64(perPage) != 0 {
		pages++
	}
	return pages
}
