package handler

import (
	"net/http"

	"github.com/AlexArancibia/AmbientalDashboard-sub001/internal/apierror"
	"github.com/AlexArancibia/AmbientalDashboard-sub001/internal/dto"
	"github.com/AlexArancibia/AmbientalDashboard-sub001/internal/model"
	"github.com/AlexArancibia/AmbientalDashboard-sub001/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type DocumentosHandler struct {
	svc      service.DocumentoService
	consulta service.ConsultaService
}

func NewDocumentosHandler(svc service.DocumentoService, consulta service.ConsultaService) *DocumentosHandler {
	return &DocumentosHandler{svc: svc, consulta: consulta}
}

// parseTipo resolves the :tipo path segment or writes a 400.
func parseTipo(c *gin.Context) (model.TipoDocumento, bool) {
	tipo, ok := model.ParseTipo(c.Param("tipo"))
	if !ok {
		c.JSON(http.StatusBadRequest, apierror.New("Tipo de documento desconocido"))
		return "", false
	}
	return tipo, true
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return uuid.Nil, false
	}
	return id, true
}

// Crear godoc
// @Summary      Crear documento
// @Description  Crea cabecera + items como unidad atómica, asignando el siguiente número de la secuencia si no viene uno.
// @Tags         documentos
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        tipo path string true "cotizacion | orden_compra | orden_servicio"
// @Param        body body dto.CrearDocumentoRequest true "Cabecera + items"
// @Success      201  {object} dto.DocumentoResponse
// @Failure      400  {object} apierror.APIError
// @Failure      404  {object} apierror.APIError
// @Router       /v1/documentos/{tipo} [post]
func (h *DocumentosHandler) Crear(c *gin.Context) {
	tipo, ok := parseTipo(c)
	if !ok {
		return
	}
	var req dto.CrearDocumentoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Crear(c.Request.Context(), tipo, req)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Listar godoc
// @Summary      Listar documentos
// @Description  Lista documentos activos del tipo, del más reciente al más antiguo, con cliente y gestor resueltos.
// @Tags         documentos
// @Produce      json
// @Security     BearerAuth
// @Param        tipo   path  string true  "cotizacion | orden_compra | orden_servicio"
// @Param        cliente_id         query string false "Filtrar por cliente"
// @Param        desde              query string false "Fecha YYYY-MM-DD"
// @Param        hasta              query string false "Fecha YYYY-MM-DD"
// @Param        estado             query string false "Estado del tipo"
// @Param        incluir_eliminados query bool   false "Solo vistas de auditoría"
// @Success      200 {object} dto.DocumentoListResponse
// @Router       /v1/documentos/{tipo} [get]
func (h *DocumentosHandler) Listar(c *gin.Context) {
	tipo, ok := parseTipo(c)
	if !ok {
		return
	}
	var filter dto.DocumentoFilter
	if !bindQueryAndValidate(c, &filter) {
		return
	}
	resp, err := h.consulta.Listar(c.Request.Context(), tipo, filter)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Obtener godoc
// @Summary      Obtener documento por ID
// @Tags         documentos
// @Produce      json
// @Security     BearerAuth
// @Param        tipo path string true "Tipo"
// @Param        id   path string true "UUID"
// @Param        incluir_eliminados query bool false "Ver documento eliminado"
// @Success      200 {object} dto.DocumentoResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/documentos/{tipo}/{id} [get]
func (h *DocumentosHandler) Obtener(c *gin.Context) {
	tipo, ok := parseTipo(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}
	incluir := c.Query("incluir_eliminados") == "true"
	resp, err := h.svc.Obtener(c.Request.Context(), tipo, id, incluir)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Actualizar godoc
// @Summary      Actualizar documento
// @Description  Edición parcial de cabecera; si vienen items, reemplazan el juego completo y los totales se recalculan.
// @Tags         documentos
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        tipo path string true "Tipo"
// @Param        id   path string true "UUID"
// @Param        body body dto.ActualizarDocumentoRequest true "Campos a editar"
// @Success      200 {object} dto.DocumentoResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/documentos/{tipo}/{id} [put]
func (h *DocumentosHandler) Actualizar(c *gin.Context) {
	tipo, ok := parseTipo(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req dto.ActualizarDocumentoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Actualizar(c.Request.Context(), tipo, id, req)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// CambiarEstado godoc
// @Summary      Cambiar estado del documento
// @Tags         documentos
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        tipo path string true "Tipo"
// @Param        id   path string true "UUID"
// @Param        body body dto.CambiarEstadoRequest true "Nuevo estado"
// @Success      200 {object} dto.DocumentoResponse
// @Router       /v1/documentos/{tipo}/{id}/estado [patch]
func (h *DocumentosHandler) CambiarEstado(c *gin.Context) {
	tipo, ok := parseTipo(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req dto.CambiarEstadoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CambiarEstado(c.Request.Context(), tipo, id, req.Estado)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Eliminar godoc
// @Summary      Eliminar documento (lógico)
// @Description  Marca cabecera e items como eliminados; idempotente, nunca borra físicamente.
// @Tags         documentos
// @Security     BearerAuth
// @Param        tipo path string true "Tipo"
// @Param        id   path string true "UUID"
// @Success      204
// @Failure      404 {object} apierror.APIError
// @Router       /v1/documentos/{tipo}/{id} [delete]
func (h *DocumentosHandler) Eliminar(c *gin.Context) {
	tipo, ok := parseTipo(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.svc.EliminarSoft(c.Request.Context(), tipo, id); err != nil {
		responderError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// SiguienteNumero godoc
// @Summary      Vista previa del próximo número
// @Description  Para pre-llenar formularios. El número autoritativo se fija recién al crear: puede quedar desfasado si otra creación gana la carrera.
// @Tags         documentos
// @Produce      json
// @Security     BearerAuth
// @Param        tipo path string true "Tipo"
// @Success      200 {object} dto.SiguienteNumeroResponse
// @Router       /v1/documentos/{tipo}/siguiente-numero [get]
func (h *DocumentosHandler) SiguienteNumero(c *gin.Context) {
	tipo, ok := parseTipo(c)
	if !ok {
		return
	}
	resp, err := h.consulta.SiguienteNumero(c.Request.Context(), tipo)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
