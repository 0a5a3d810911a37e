package handler

import (
	"errors"
	"net/http"

	"github.com/yourorg/portfolio-sim/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// RegisterValidations adds custom binding rules to gin's validator engine.
func RegisterValidations() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("unexpected gin validator engine")
	}
	return v.RegisterValidation("frequency", func(fl validator.FieldLevel) bool {
		f := model.Frequency(fl.Field().String())
		return f.PeriodsPerYear() > 0
	})
}

// writeError maps the error taxonomy onto HTTP statuses: configuration
// problems are the caller's request, data problems are unprocessable input,
// anything else is internal.
func writeError(c *gin.Context, err error) {
	var cfgErr *model.ConfigurationError
	var dataErr *model.DataError
	var numErr *model.NumericalError

	switch {
	case errors.As(err, &cfgErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.As(err, &dataErr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.As(err, &numErr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
