package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/AlexArancibia/AmbientalDashboard-sub001/internal/dto"
	"github.com/AlexArancibia/AmbientalDashboard-sub001/internal/model"
	"github.com/AlexArancibia/AmbientalDashboard-sub001/internal/money"
	"github.com/AlexArancibia/AmbientalDashboard-sub001/internal/numeracion"
	"github.com/AlexArancibia/AmbientalDashboard-sub001/internal/repository"
	"github.com/AlexArancibia/AmbientalDashboard-sub001/internal/worker"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DocumentoService es el agregado: crea, actualiza y elimina (lógicamente)
// cabecera + ítems como una unidad atómica.
type DocumentoService interface {
	Crear(ctx context.Context, tipo model.TipoDocumento, req dto.CrearDocumentoRequest) (*dto.DocumentoResponse, error)
	Actualizar(ctx context.Context, tipo model.TipoDocumento, id uuid.UUID, req dto.ActualizarDocumentoRequest) (*dto.DocumentoResponse, error)
	CambiarEstado(ctx context.Context, tipo model.TipoDocumento, id uuid.UUID, estado string) (*dto.DocumentoResponse, error)
	Obtener(ctx context.Context, tipo model.TipoDocumento, id uuid.UUID, incluirEliminados bool) (*dto.DocumentoResponse, error)
	EliminarSoft(ctx context.Context, tipo model.TipoDocumento, id uuid.UUID) error
}

type documentoService struct {
	repo        repository.DocumentoRepository
	clienteRepo repository.ClienteRepository
	usuarioRepo repository.UsuarioRepository
	dispatcher  *worker.Dispatcher
	dbTimeout   time.Duration
}

func NewDocumentoService(
	repo repository.DocumentoRepository,
	clienteRepo repository.ClienteRepository,
	usuarioRepo repository.UsuarioRepository,
	dispatcher *worker.Dispatcher,
	dbTimeout time.Duration,
) DocumentoService {
	return &documentoService{
		repo:        repo,
		clienteRepo: clienteRepo,
		usuarioRepo: usuarioRepo,
		dispatcher:  dispatcher,
		dbTimeout:   dbTimeout,
	}
}

// runTx executes fn inside a GORM transaction when db is available,
// or calls fn(nil) directly when db is nil (unit test mode).
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}

// bounded acota toda operación de almacenamiento; cancelar el contexto
// aborta la transacción sin efecto visible.
func (s *documentoService) bounded(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.dbTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.dbTimeout)
}

// almacen traduce errores de la capa de almacenamiento a la taxonomía.
func almacen(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNoEncontrado
	case errors.Is(err, context.DeadlineExceeded):
		return ErrTiempoAgotado
	default:
		return fmt.Errorf("%w: %v", ErrPersistencia, err)
	}
}

// ── Crear ─────────────────────────────────────────────────────────────────────
// Secuencia:
//   1. Validación estructural (ítems, campos por política) — sin escrituras
//   2. Referencias: cliente activo, gestor activo cuando la política lo exige
//   3. Totales: cálculo automático o validación del trío manual
//   4. TX: lock por tipo, siguiente número, insert cabecera + ítems
//      (un reintento exacto si el índice único detecta un número duplicado)
//   5. (async) notificación por correo si el request la pidió

func (s *documentoService) Crear(ctx context.Context, tipo model.TipoDocumento, req dto.CrearDocumentoRequest) (*dto.DocumentoResponse, error) {
	pol, ok := model.PoliticaDe(tipo)
	if !ok {
		return nil, validacion("tipo", "tipo de documento desconocido")
	}

	// 1. Estructura
	if pol.RequiereItems && len(req.Items) == 0 {
		return nil, validacion("items", "se requiere al menos un item")
	}
	lineas, items, err := resolverItems(pol, req.Items)
	if err != nil {
		return nil, err
	}
	if pol.RequiereValidez && req.ValidezDias == nil {
		return nil, validacion("validez_dias", "obligatorio para este tipo de documento")
	}
	if pol.RequiereGestor && req.GestorID == nil {
		return nil, validacion("gestor_id", "obligatorio para este tipo de documento")
	}
	estado := pol.EstadoInicial
	if req.Estado != nil {
		if !pol.EstadoValido(*req.Estado) {
			return nil, validacion("estado", "estado no permitido para este tipo")
		}
		estado = *req.Estado
	}
	moneda := model.MonedaPEN
	if req.Moneda != "" {
		moneda = model.Moneda(req.Moneda)
	}
	fecha, err := parseFecha(req.Fecha)
	if err != nil {
		return nil, validacion("fecha", "formato esperado YYYY-MM-DD")
	}

	// 2. Referencias
	clienteID, err := uuid.Parse(req.ClienteID)
	if err != nil {
		return nil, validacion("cliente_id", "uuid invalido")
	}
	cctx, cancel := s.bounded(ctx)
	defer cancel()
	cliente, err := s.clienteRepo.FindByID(cctx, clienteID)
	if err != nil {
		return nil, almacen(err)
	}
	if !cliente.Activo {
		return nil, validacion("cliente_id", "el cliente esta inactivo")
	}
	gestorID, err := s.resolverGestor(cctx, req.GestorID)
	if err != nil {
		return nil, err
	}

	// 3. Totales
	tot, err := resolverTotales(req.Subtotal, req.Impuesto, req.Total, req.TasaImpuesto, lineas)
	if err != nil {
		return nil, err
	}

	// 4. TX con numeración atómica
	numeroManual := req.Numero != nil && *req.Numero != ""
	var docID uuid.UUID

	intento := func() error {
		tctx, tcancel := s.bounded(ctx)
		defer tcancel()
		return runTx(tctx, s.repo.DB(), func(tx *gorm.DB) error {
			doc := model.Documento{
				Tipo:          tipo,
				Fecha:         fecha,
				ClienteID:     clienteID,
				GestorID:      gestorID,
				Moneda:        moneda,
				Subtotal:      tot.Subtotal,
				Impuesto:      tot.Impuesto,
				Total:         tot.Total,
				Estado:        estado,
				ValidezDias:   req.ValidezDias,
				Descripcion:   req.Descripcion,
				Comentarios:   req.Comentarios,
				CondicionPago: req.CondicionPago,
				Items:         clonarItems(items),
			}
			if numeroManual {
				doc.Numero = *req.Numero
			} else {
				if err := s.repo.BloquearTipo(tctx, tx, tipo); err != nil {
					return err
				}
				existentes, err := s.repo.NumerosPorTipo(tctx, tx, tipo)
				if err != nil {
					return err
				}
				numero, malformados := numeracion.Siguiente(pol.Prefijo, existentes)
				for _, m := range malformados {
					log.Warn().Str("tipo", string(tipo)).Str("numero", m).
						Msg("numero legado malformado tratado como cero")
				}
				doc.Numero = numero
			}
			if err := s.repo.Create(tctx, tx, &doc); err != nil {
				return err
			}
			docID = doc.ID
			return nil
		})
	}

	err = intento()
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		if numeroManual {
			return nil, validacion("numero", "el numero ya existe para este tipo")
		}
		// un único reintento del cálculo de número bajo contención
		if err = intento(); errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrConflictoSecuencia
		}
	}
	if err != nil {
		return nil, almacen(err)
	}

	hctx, hcancel := s.bounded(ctx)
	defer hcancel()
	creado, err := s.repo.FindByID(hctx, docID, false)
	if err != nil {
		return nil, almacen(err)
	}

	// 5. Notificación asíncrona — best-effort
	if s.dispatcher != nil && req.NotificarEmail != nil && *req.NotificarEmail != "" {
		payload := worker.NotificacionPayload{
			ToEmail:     *req.NotificarEmail,
			DocumentoID: creado.ID.String(),
			Tipo:        string(creado.Tipo),
			Numero:      creado.Numero,
			Total:       creado.Total.StringFixed(2),
			Moneda:      string(creado.Moneda),
		}
		if err := s.dispatcher.EnqueueNotificacion(ctx, payload); err != nil {
			log.Error().Err(err).Str("documento", creado.Numero).Msg("no se pudo encolar notificacion")
		}
	}

	return documentoToResponse(creado), nil
}

// ── Actualizar ────────────────────────────────────────────────────────────────
// Edición parcial de cabecera; si vienen ítems, el juego completo se
// reemplaza (borrar y recrear dentro de la misma transacción).

func (s *documentoService) Actualizar(ctx context.Context, tipo model.TipoDocumento, id uuid.UUID, req dto.ActualizarDocumentoRequest) (*dto.DocumentoResponse, error) {
	pol, ok := model.PoliticaDe(tipo)
	if !ok {
		return nil, validacion("tipo", "tipo de documento desconocido")
	}

	cctx, cancel := s.bounded(ctx)
	defer cancel()
	doc, err := s.repo.FindByID(cctx, id, false)
	if err != nil {
		return nil, almacen(err)
	}
	if doc.Tipo != tipo {
		return nil, ErrNoEncontrado
	}

	// Cabecera parcial
	if req.Fecha != nil {
		fecha, err := parseFecha(*req.Fecha)
		if err != nil {
			return nil, validacion("fecha", "formato esperado YYYY-MM-DD")
		}
		doc.Fecha = fecha
	}
	if req.ClienteID != nil {
		clienteID, err := uuid.Parse(*req.ClienteID)
		if err != nil {
			return nil, validacion("cliente_id", "uuid invalido")
		}
		cliente, err := s.clienteRepo.FindByID(cctx, clienteID)
		if err != nil {
			return nil, almacen(err)
		}
		if !cliente.Activo {
			return nil, validacion("cliente_id", "el cliente esta inactivo")
		}
		doc.ClienteID = clienteID
	}
	if req.GestorID != nil {
		gestorID, err := s.resolverGestor(cctx, req.GestorID)
		if err != nil {
			return nil, err
		}
		doc.GestorID = gestorID
	}
	if req.Moneda != nil {
		doc.Moneda = model.Moneda(*req.Moneda)
	}
	if req.Estado != nil {
		if !pol.EstadoValido(*req.Estado) {
			return nil, validacion("estado", "estado no permitido para este tipo")
		}
		doc.Estado = *req.Estado
	}
	if req.ValidezDias != nil {
		doc.ValidezDias = req.ValidezDias
	}
	if req.Descripcion != nil {
		doc.Descripcion = req.Descripcion
	}
	if req.Comentarios != nil {
		doc.Comentarios = req.Comentarios
	}
	if req.CondicionPago != nil {
		doc.CondicionPago = req.CondicionPago
	}

	// Ítems y totales
	var nuevos []model.DocumentoItem
	var lineas []money.Linea
	reemplazaItems := req.Items != nil
	if reemplazaItems {
		if pol.RequiereItems && len(*req.Items) == 0 {
			return nil, validacion("items", "se requiere al menos un item")
		}
		lineas, nuevos, err = resolverItems(pol, *req.Items)
		if err != nil {
			return nil, err
		}
	} else {
		for _, it := range doc.Items {
			lineas = append(lineas, money.Linea{Cantidad: it.Cantidad, Dias: it.Dias, PrecioUnitario: it.PrecioUnitario})
		}
	}

	tot, err := resolverTotalesActualizacion(req, doc, lineas)
	if err != nil {
		return nil, err
	}
	doc.Subtotal, doc.Impuesto, doc.Total = tot.Subtotal, tot.Impuesto, tot.Total

	tctx, tcancel := s.bounded(ctx)
	defer tcancel()
	txErr := runTx(tctx, s.repo.DB(), func(tx *gorm.DB) error {
		if reemplazaItems {
			if err := s.repo.ReplaceItems(tctx, tx, doc.ID, nuevos); err != nil {
				return err
			}
		}
		return s.repo.Save(tctx, tx, doc)
	})
	if txErr != nil {
		return nil, almacen(txErr)
	}

	hctx, hcancel := s.bounded(ctx)
	defer hcancel()
	actualizado, err := s.repo.FindByID(hctx, doc.ID, false)
	if err != nil {
		return nil, almacen(err)
	}
	return documentoToResponse(actualizado), nil
}

func (s *documentoService) CambiarEstado(ctx context.Context, tipo model.TipoDocumento, id uuid.UUID, estado string) (*dto.DocumentoResponse, error) {
	return s.Actualizar(ctx, tipo, id, dto.ActualizarDocumentoRequest{Estado: &estado})
}

// ── Obtener / EliminarSoft ───────────────────────────────────────────────────

func (s *documentoService) Obtener(ctx context.Context, tipo model.TipoDocumento, id uuid.UUID, incluirEliminados bool) (*dto.DocumentoResponse, error) {
	if _, ok := model.PoliticaDe(tipo); !ok {
		return nil, validacion("tipo", "tipo de documento desconocido")
	}
	cctx, cancel := s.bounded(ctx)
	defer cancel()
	doc, err := s.repo.FindByID(cctx, id, incluirEliminados)
	if err != nil {
		return nil, almacen(err)
	}
	if doc.Tipo != tipo {
		return nil, ErrNoEncontrado
	}
	return documentoToResponse(doc), nil
}

// EliminarSoft es idempotente: eliminar un documento ya eliminado es éxito.
// Cabecera e ítems quedan marcados con el mismo instante, en una transacción.
func (s *documentoService) EliminarSoft(ctx context.Context, tipo model.TipoDocumento, id uuid.UUID) error {
	if _, ok := model.PoliticaDe(tipo); !ok {
		return validacion("tipo", "tipo de documento desconocido")
	}
	cctx, cancel := s.bounded(ctx)
	defer cancel()
	doc, err := s.repo.FindByID(cctx, id, true)
	if err != nil {
		return almacen(err)
	}
	if doc.Tipo != tipo {
		return ErrNoEncontrado
	}
	if doc.DeletedAt != nil {
		return nil
	}

	tctx, tcancel := s.bounded(ctx)
	defer tcancel()
	txErr := runTx(tctx, s.repo.DB(), func(tx *gorm.DB) error {
		return s.repo.MarkDeleted(tctx, tx, doc.ID, time.Now().UTC())
	})
	return almacen(txErr)
}

// ── Helpers ───────────────────────────────────────────────────────────────────

func (s *documentoService) resolverGestor(ctx context.Context, gestorID *string) (*uuid.UUID, error) {
	if gestorID == nil {
		return nil, nil
	}
	gid, err := uuid.Parse(*gestorID)
	if err != nil {
		return nil, validacion("gestor_id", "uuid invalido")
	}
	gestor, err := s.usuarioRepo.FindByID(ctx, gid)
	if err != nil {
		return nil, almacen(err)
	}
	if !gestor.Activo {
		return nil, validacion("gestor_id", "el gestor esta inactivo")
	}
	return &gid, nil
}

// resolverItems valida cada ítem y construye los modelos con el importe
// cacheado. Para tipos sin multiplicador de alquiler, dias queda fijo en 1.
func resolverItems(pol model.Politica, reqs []dto.ItemDocumentoRequest) ([]money.Linea, []model.DocumentoItem, error) {
	lineas := make([]money.Linea, 0, len(reqs))
	items := make([]model.DocumentoItem, 0, len(reqs))
	for i, it := range reqs {
		dias := 1
		if pol.UsaDias && it.Dias != nil {
			dias = *it.Dias
		}
		l := money.Linea{Cantidad: it.Cantidad, Dias: dias, PrecioUnitario: it.PrecioUnitario}
		if err := money.ValidarLinea(i, l); err != nil {
			return nil, nil, validacion("items", err.Error())
		}
		lineas = append(lineas, l)
		items = append(items, model.DocumentoItem{
			Codigo:         it.Codigo,
			Descripcion:    it.Descripcion,
			Cantidad:       it.Cantidad,
			Dias:           dias,
			PrecioUnitario: it.PrecioUnitario,
			Importe:        money.Importe(l).Round(2),
		})
	}
	return lineas, items, nil
}

// resolverTotales decide entre el cálculo automático y el trío manual.
// El trío manual se admite para documentos históricos/importados, pero
// total = subtotal + impuesto se valida siempre.
func resolverTotales(sub, imp, tot, tasa *decimal.Decimal, lineas []money.Linea) (money.Totales, error) {
	manual := sub != nil || imp != nil || tot != nil
	if manual {
		if sub == nil || imp == nil || tot == nil {
			return money.Totales{}, validacion("totales", "subtotal, impuesto y total deben venir juntos")
		}
		t := money.Totales{Subtotal: *sub, Impuesto: *imp, Total: *tot}
		if !money.NoNegativos(t) {
			return money.Totales{}, validacion("totales", "los montos no pueden ser negativos")
		}
		if !money.Coherentes(t) {
			return money.Totales{}, ErrTotalesInvalidos
		}
		return t, nil
	}
	rate := decimal.Zero
	if tasa != nil {
		rate = *tasa
	}
	t, err := money.Calcular(lineas, rate)
	if err != nil {
		return money.Totales{}, validacion("items", err.Error())
	}
	return t, nil
}

// resolverTotalesActualizacion recalcula con el juego de ítems vigente.
// Sin tasa nueva, el impuesto absoluto existente se conserva y el total se
// rebalancea para mantener el invariante.
func resolverTotalesActualizacion(req dto.ActualizarDocumentoRequest, doc *model.Documento, lineas []money.Linea) (money.Totales, error) {
	manual := req.Subtotal != nil || req.Impuesto != nil || req.Total != nil
	if manual || req.TasaImpuesto != nil {
		return resolverTotales(req.Subtotal, req.Impuesto, req.Total, req.TasaImpuesto, lineas)
	}
	t, err := money.Calcular(lineas, decimal.Zero)
	if err != nil {
		return money.Totales{}, validacion("items", err.Error())
	}
	t.Impuesto = doc.Impuesto
	t.Total = t.Subtotal.Add(t.Impuesto)
	return t, nil
}

func clonarItems(items []model.DocumentoItem) []model.DocumentoItem {
	out := make([]model.DocumentoItem, len(items))
	copy(out, items)
	return out
}

func parseFecha(s string) (time.Time, error) {
	if s == "" {
		now := time.Now().UTC()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	return time.Parse("2006-01-02", s)
}

func documentoToResponse(d *model.Documento) *dto.DocumentoResponse {
	items := make([]dto.ItemDocumentoResponse, 0, len(d.Items))
	for _, it := range d.Items {
		items = append(items, dto.ItemDocumentoResponse{
			ID:             it.ID.String(),
			Codigo:         it.Codigo,
			Descripcion:    it.Descripcion,
			Cantidad:       it.Cantidad,
			Dias:           it.Dias,
			PrecioUnitario: it.PrecioUnitario,
			Importe:        it.Importe,
		})
	}
	resp := &dto.DocumentoResponse{
		ID:            d.ID.String(),
		Tipo:          string(d.Tipo),
		Numero:        d.Numero,
		Fecha:         d.Fecha.Format("2006-01-02"),
		Cliente:       dto.ClienteRef{ID: d.ClienteID.String()},
		Moneda:        string(d.Moneda),
		Subtotal:      d.Subtotal,
		Impuesto:      d.Impuesto,
		Total:         d.Total,
		Estado:        d.Estado,
		ValidezDias:   d.ValidezDias,
		Descripcion:   d.Descripcion,
		Comentarios:   d.Comentarios,
		CondicionPago: d.CondicionPago,
		Items:         items,
		CreatedAt:     d.CreatedAt.Format(time.RFC3339),
		UpdatedAt:     d.UpdatedAt.Format(time.RFC3339),
	}
	if d.Cliente != nil {
		resp.Cliente.RazonSocial = d.Cliente.RazonSocial
		resp.Cliente.RUC = d.Cliente.RUC
	}
	if d.Gestor != nil {
		resp.Gestor = &dto.GestorRef{ID: d.Gestor.ID.String(), Nombre: d.Gestor.Nombre}
	} else if d.GestorID != nil {
		resp.Gestor = &dto.GestorRef{ID: d.GestorID.String()}
	}
	if d.DeletedAt != nil {
		s := d.DeletedAt.Format(time.RFC3339)
		resp.DeletedAt = &s
	}
	return resp
}
