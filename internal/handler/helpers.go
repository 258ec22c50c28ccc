package handler

import (
	"errors"
	"net/http"
	"reflect"
	"strconv"

	"comandas/internal/apierror"
	"comandas/internal/costing"
	"comandas/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

func init() {
	// Register decimal.Decimal as a numeric type so that validator tags like
	// min=0, gt=0, required work without panicking ("Bad field type decimal.Decimal").
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if v, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := v.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
}

// bindAndValidate binds JSON body and runs go-playground/validator tags.
// Returns false and writes the error response if validation fails;
// the caller should return immediately without writing another response.
func bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("JSON invalido: "+err.Error()))
		return false
	}
	if err := validate.Struct(req); err != nil {
		fields := make(map[string]string)
		for _, fe := range err.(validator.ValidationErrors) {
			fields[fe.Field()] = fe.Tag()
		}
		c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(fields))
		return false
	}
	return true
}

// paramUUID parses a path parameter, writing a 400 on failure.
func paramUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return uuid.Nil, false
	}
	return id, true
}

func queryInt(c *gin.Context, name string, def int) int {
	n, err := strconv.Atoi(c.Query(name))
	if err != nil {
		return def
	}
	return n
}

// respondError maps service and engine errors to status codes. Anything
// unrecognised is a 500 whose cause is only logged (see middleware.ErrorHandler).
func respondError(c *gin.Context, err error) {
	var cfgErr *costing.ConfigurationError
	switch {
	case errors.As(err, &cfgErr):
		recetaID := ""
		if cfgErr.RecipeID != uuid.Nil {
			recetaID = cfgErr.RecipeID.String()
		}
		c.JSON(http.StatusUnprocessableEntity, apierror.NewConfig(recetaID, cfgErr.Field, cfgErr.Reason))
	case errors.Is(err, service.ErrNoEncontrado):
		c.JSON(http.StatusNotFound, apierror.New(err.Error()))
	case errors.Is(err, service.ErrLoteInvalido), errors.Is(err, service.ErrEntradaInvalida):
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
	case errors.Is(err, service.ErrConflicto):
		c.JSON(http.StatusConflict, apierror.New(err.Error()))
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, apierror.New("Error interno del servidor"))
	}
}
