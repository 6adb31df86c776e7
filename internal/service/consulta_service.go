package service

import (
	"context"
	"time"

	"github.com/AlexArancibia/AmbientalDashboard-sub001/internal/dto"
	"github.com/AlexArancibia/AmbientalDashboard-sub001/internal/model"
	"github.com/AlexArancibia/AmbientalDashboard-sub001/internal/numeracion"
	"github.com/AlexArancibia/AmbientalDashboard-sub001/internal/repository"

	"github.com/rs/zerolog/log"
)

// ConsultaService es el lado de lectura: listados filtrados que siempre
// respetan la visibilidad de eliminados y resuelven cliente/gestor/ítems.
type ConsultaService interface {
	Listar(ctx context.Context, tipo model.TipoDocumento, filter dto.DocumentoFilter) (*dto.DocumentoListResponse, error)
	// SiguienteNumero es una vista previa para pre-llenar formularios; puede
	// quedar desfasada si otra creación gana la carrera. El número
	// autoritativo se fija recién dentro de la transacción de Crear.
	SiguienteNumero(ctx context.Context, tipo model.TipoDocumento) (*dto.SiguienteNumeroResponse, error)
}

type consultaService struct {
	repo      repository.DocumentoRepository
	dbTimeout time.Duration
}

func NewConsultaService(repo repository.DocumentoRepository, dbTimeout time.Duration) ConsultaService {
	return &consultaService{repo: repo, dbTimeout: dbTimeout}
}

func (s *consultaService) bounded(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.dbTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.dbTimeout)
}

// Listar devuelve documentos del tipo ordenados del más reciente al más
// antiguo (desempate por id, para paginación estable).
func (s *consultaService) Listar(ctx context.Context, tipo model.TipoDocumento, filter dto.DocumentoFilter) (*dto.DocumentoListResponse, error) {
	if _, ok := model.PoliticaDe(tipo); !ok {
		return nil, validacion("tipo", "tipo de documento desconocido")
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 50
	}

	cctx, cancel := s.bounded(ctx)
	defer cancel()
	docs, total, err := s.repo.List(cctx, tipo, filter)
	if err != nil {
		return nil, almacen(err)
	}

	data := make([]dto.DocumentoResponse, 0, len(docs))
	for i := range docs {
		data = append(data, *documentoToResponse(&docs[i]))
	}
	return &dto.DocumentoListResponse{
		Data:  data,
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}, nil
}

func (s *consultaService) SiguienteNumero(ctx context.Context, tipo model.TipoDocumento) (*dto.SiguienteNumeroResponse, error) {
	pol, ok := model.PoliticaDe(tipo)
	if !ok {
		return nil, validacion("tipo", "tipo de documento desconocido")
	}
	cctx, cancel := s.bounded(ctx)
	defer cancel()
	existentes, err := s.repo.NumerosPorTipo(cctx, nil, tipo)
	if err != nil {
		return nil, almacen(err)
	}
	numero, malformados := numeracion.Siguiente(pol.Prefijo, existentes)
	for _, m := range malformados {
		log.Warn().Str("tipo", string(tipo)).Str("numero", m).
			Msg("numero legado malformado tratado como cero")
	}
	return &dto.SiguienteNumeroResponse{Tipo: string(tipo), Numero: numero}, nil
}
