package handler

import (
	"errors"
	"net/http"
	"reflect"
	"strconv"

	"mvsat/internal/apierror"
	"mvsat/internal/middleware"
	"mvsat/internal/service"

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
		c.JSON(http.StatusBadRequest, apierror.New("JSON inválido: "+err.Error()))
		return false
	}
	if err := validate.Struct(req); err != nil {
		var ve validator.ValidationErrors
		if !errors.As(err, &ve) {
			c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
			return false
		}
		fields := make(map[string]string, len(ve))
		for _, fe := range ve {
			fields[fe.Field()] = fe.Tag()
		}
		c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(fields))
		return false
	}
	return true
}

// respondError maps service error kinds to HTTP statuses. Anything else is
// handed to middleware.ErrorHandler as a 500.
func respondError(c *gin.Context, err error) {
	status := 0
	switch {
	case errors.Is(err, service.ErrNaoEncontrado):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrValidacao), errors.Is(err, service.ErrVencimentoInvalido):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrConflito), errors.Is(err, service.ErrCicloJaQuitado):
		status = http.StatusConflict
	case errors.Is(err, service.ErrCredenciais):
		status = http.StatusUnauthorized
	}
	if status == 0 {
		_ = c.Error(err)
		return
	}
	c.JSON(status, apierror.New(err.Error()).WithRequestID(c.GetString(middleware.RequestIDKey)))
}

// paramID parses the :id path param, writing a 400 when it is not a UUID.
func paramID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID inválido"))
		return uuid.Nil, false
	}
	return id, true
}

// usuario is the e-mail recorded in histories and payments.
func usuario(c *gin.Context) string {
	if claims := middleware.GetClaims(c); claims != nil {
		return claims.Email
	}
	return "sistema"
}

func queryInt(c *gin.Context, key string, def int) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return def
	}
	return v
}
