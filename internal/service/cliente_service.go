package service

import (
	"context"

	"github.com/AlexArancibia/AmbientalDashboard-sub001/internal/dto"
	"github.com/AlexArancibia/AmbientalDashboard-sub001/internal/model"
	"github.com/AlexArancibia/AmbientalDashboard-sub001/internal/repository"

	"github.com/google/uuid"
)

// ClienteService administra el directorio de clientes. El núcleo de
// documentos solo lo consume en modo lectura.
type ClienteService interface {
	Crear(ctx context.Context, req dto.CrearClienteRequest) (*dto.ClienteResponse, error)
	ObtenerPorID(ctx context.Context, id uuid.UUID) (*dto.ClienteResponse, error)
	Listar(ctx context.Context) ([]dto.ClienteResponse, error)
	Actualizar(ctx context.Context, id uuid.UUID, req dto.CrearClienteRequest) (*dto.ClienteResponse, error)
	Desactivar(ctx context.Context, id uuid.UUID) error
}

type clienteService struct {
	repo repository.ClienteRepository
}

func NewClienteService(repo repository.ClienteRepository) ClienteService {
	return &clienteService{repo: repo}
}

func (s *clienteService) Crear(ctx context.Context, req dto.CrearClienteRequest) (*dto.ClienteResponse, error) {
	c := &model.Cliente{
		RazonSocial: req.RazonSocial,
		RUC:         req.RUC,
		Direccion:   req.Direccion,
		Email:       req.Email,
		Telefono:    req.Telefono,
		Activo:      true,
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, almacen(err)
	}
	return clienteToResponse(c), nil
}

func (s *clienteService) ObtenerPorID(ctx context.Context, id uuid.UUID) (*dto.ClienteResponse, error) {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, almacen(err)
	}
	return clienteToResponse(c), nil
}

func (s *clienteService) Listar(ctx context.Context) ([]dto.ClienteResponse, error) {
	clientes, err := s.repo.List(ctx)
	if err != nil {
		return nil, almacen(err)
	}
	resp := make([]dto.ClienteResponse, len(clientes))
	for i := range clientes {
		resp[i] = *clienteToResponse(&clientes[i])
	}
	return resp, nil
}

func (s *clienteService) Actualizar(ctx context.Context, id uuid.UUID, req dto.CrearClienteRequest) (*dto.ClienteResponse, error) {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, almacen(err)
	}
	c.RazonSocial = req.RazonSocial
	c.RUC = req.RUC
	c.Direccion = req.Direccion
	c.Email = req.Email
	c.Telefono = req.Telefono
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, almacen(err)
	}
	return clienteToResponse(c), nil
}

func (s *clienteService) Desactivar(ctx context.Context, id uuid.UUID) error {
	return almacen(s.repo.SoftDelete(ctx, id))
}

func clienteToResponse(c *model.Cliente) *dto.ClienteResponse {
	return &dto.ClienteResponse{
		ID:          c.ID.String(),
		RazonSocial: c.RazonSocial,
		RUC:         c.RUC,
		Direccion:   c.Direccion,
		Email:       c.Email,
		Telefono:    c.Telefono,
		Activo:      c.Activo,
	}
}
