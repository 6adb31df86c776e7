package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/AlexArancibia/AmbientalDashboard-sub001/internal/dto"
	"github.com/AlexArancibia/AmbientalDashboard-sub001/internal/model"
	"github.com/AlexArancibia/AmbientalDashboard-sub001/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ── Stubs ─────────────────────────────────────────────────────────────────────

// stubConsulta captures the filter that reached the service layer, so the
// tests can assert what the handler let through.
type stubConsulta struct {
	ultimoFiltro *dto.DocumentoFilter
}

func (s *stubConsulta) Listar(_ context.Context, _ model.TipoDocumento, filter dto.DocumentoFilter) (*dto.DocumentoListResponse, error) {
	s.ultimoFiltro = &filter
	return &dto.DocumentoListResponse{Data: []dto.DocumentoResponse{}, Page: filter.Page, Limit: filter.Limit}, nil
}

func (s *stubConsulta) SiguienteNumero(_ context.Context, tipo model.TipoDocumento) (*dto.SiguienteNumeroResponse, error) {
	return &dto.SiguienteNumeroResponse{Tipo: string(tipo), Numero: "COT-001"}, nil
}

var _ service.ConsultaService = (*stubConsulta)(nil)

type stubDocumentos struct{}

func (stubDocumentos) Crear(_ context.Context, _ model.TipoDocumento, _ dto.CrearDocumentoRequest) (*dto.DocumentoResponse, error) {
	return nil, service.ErrNoEncontrado
}
func (stubDocumentos) Actualizar(_ context.Context, _ model.TipoDocumento, _ uuid.UUID, _ dto.ActualizarDocumentoRequest) (*dto.DocumentoResponse, error) {
	return nil, service.ErrNoEncontrado
}
func (stubDocumentos) CambiarEstado(_ context.Context, _ model.TipoDocumento, _ uuid.UUID, _ string) (*dto.DocumentoResponse, error) {
	return nil, service.ErrNoEncontrado
}
func (stubDocumentos) Obtener(_ context.Context, _ model.TipoDocumento, _ uuid.UUID, _ bool) (*dto.DocumentoResponse, error) {
	return nil, service.ErrNoEncontrado
}
func (stubDocumentos) EliminarSoft(_ context.Context, _ model.TipoDocumento, _ uuid.UUID) error {
	return service.ErrNoEncontrado
}

var _ service.DocumentoService = (stubDocumentos{})

func setupListarRouter(t *testing.T) (*gin.Engine, *stubConsulta) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	consulta := &stubConsulta{}
	h := NewDocumentosHandler(stubDocumentos{}, consulta)
	r := gin.New()
	r.GET("/v1/documentos/:tipo", h.Listar)
	return r, consulta
}

// ── Tests ────────────────────────────────────────────────────────────────────

func TestListarValidaLosFiltrosDelQuery(t *testing.T) {
	r, _ := setupListarRouter(t)

	cases := []struct {
		nombre string
		query  string
		status int
	}{
		{"sin filtros", "", http.StatusOK},
		{"filtros validos", "?limit=10&page=2&desde=2026-01-01&estado=borrador", http.StatusOK},
		{"limit fuera de rango", "?limit=100000", http.StatusUnprocessableEntity},
		{"page cero", "?page=0", http.StatusUnprocessableEntity},
		{"cliente_id no uuid", "?cliente_id=no-es-uuid", http.StatusUnprocessableEntity},
		{"fecha malformada", "?desde=01-01-2026", http.StatusUnprocessableEntity},
	}
	for _, tc := range cases {
		t.Run(tc.nombre, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/v1/documentos/cotizacion"+tc.query, nil)
			r.ServeHTTP(w, req)
			assert.Equal(t, tc.status, w.Code, "body: %s", w.Body.String())
		})
	}
}

func TestListarRechazadoNoLlegaAlServicio(t *testing.T) {
	r, consulta := setupListarRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/documentos/cotizacion?limit=100000", nil)
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Nil(t, consulta.ultimoFiltro, "un filtro invalido no debe tocar el servicio")
}

func TestListarAplicaDefaultsDelForm(t *testing.T) {
	r, consulta := setupListarRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/documentos/cotizacion", nil)
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, consulta.ultimoFiltro)
	assert.Equal(t, 1, consulta.ultimoFiltro.Page)
	assert.Equal(t, 50, consulta.ultimoFiltro.Limit)
}

func TestListarTipoDesconocidoEs400(t *testing.T) {
	r, _ := setupListarRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/documentos/factura", nil)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
