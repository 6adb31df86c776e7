package handler

import (
	"errors"
	"net/http"
	"reflect"

	"github.com/AlexArancibia/AmbientalDashboard-sub001/internal/apierror"
	"github.com/AlexArancibia/AmbientalDashboard-sub001/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
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
// Returns false and writes the error response if validation fails; the
// caller must return immediately without writing another response.
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

// bindQueryAndValidate es el análogo de bindAndValidate para query strings:
// sin el paso del validador, los tags de los filtros serían letra muerta.
func bindQueryAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Query invalido: "+err.Error()))
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

// responderError traduce los errores del dominio al código HTTP que corresponde.
// Cualquier error no clasificado se trata como fallo de persistencia para no
// filtrar detalles internos al cliente.
func responderError(c *gin.Context, err error) {
	var ev *service.ErrValidacion
	switch {
	case errors.As(err, &ev):
		c.JSON(http.StatusBadRequest, apierror.NewValidation(map[string]string{ev.Campo: ev.Motivo}))
	case errors.Is(err, service.ErrNoEncontrado):
		c.JSON(http.StatusNotFound, apierror.New("Recurso no encontrado"))
	case errors.Is(err, service.ErrTotalesInvalidos):
		c.JSON(http.StatusBadRequest, apierror.New("Los totales declarados no son coherentes con los items"))
	case errors.Is(err, service.ErrConflictoSecuencia):
		c.JSON(http.StatusServiceUnavailable, apierror.New("Conflicto de numeracion, reintente la operacion"))
	case errors.Is(err, service.ErrTiempoAgotado):
		c.JSON(http.StatusGatewayTimeout, apierror.New("El almacenamiento no respondio a tiempo"))
	default:
		c.JSON(http.StatusInternalServerError, apierror.New("Error interno de persistencia"))
	}
}
