package utils

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
)

// GetIDParam parses the ":id" path parameter as a positive integer
func GetIDParam(c *gin.Context) (uint, error) {
	return GetUintParam(c, "id")
}

// GetUintParam parses the named path parameter as a positive integer
func GetUintParam(c *gin.Context, name string) (uint, error) {
	value, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		return 0, err
	}
	if value == 0 {
		return 0, errors.New("id must be greater than zero")
	}
	return uint(value), nil
}

// GetPageQuery reads the "page" query parameter, defaulting to 1
func GetPageQuery(c *gin.Context) int {
	if p := c.Query("page"); p != "" {
		if v, err := strconv.Atoi(p); err == nil && v > 0 {
			return v
		}
	}
	return 1
}
