package dto

import "github.com/shopspring/decimal"

// ─── Filter / List ──────────────────────────────────────────────────────────

// DocumentoFilter is bound from the query string of GET /v1/documentos/:tipo.
type DocumentoFilter struct {
	ClienteID string `form:"cliente_id" validate:"omitempty,uuid"`
	Desde     string `form:"desde"      validate:"omitempty,datetime=2006-01-02"`
	Hasta     string `form:"hasta"      validate:"omitempty,datetime=2006-01-02"`
	Estado    string `form:"estado"`
	// IncluirEliminados expone documentos eliminados; solo vistas de auditoría
	IncluirEliminados bool `form:"incluir_eliminados"`
	Page              int  `form:"page,default=1"   validate:"min=1"`
	Limit             int  `form:"limit,default=50" validate:"min=1,max=200"`
}

type DocumentoListResponse struct {
	Data  []DocumentoResponse `json:"data"`
	Total int64               `json:"total"`
	Page  int                 `json:"page"`
	Limit int                 `json:"limit"`
}

// ─── Request DTOs ────────────────────────────────────────────────────────────

type ItemDocumentoRequest struct {
	Codigo      string `json:"codigo"`
	Descripcion string `json:"descripcion" validate:"required"`
	Cantidad    int    `json:"cantidad"    validate:"required,min=1"`
	// Dias solo aplica a documentos de alquiler; default 1
	Dias           *int            `json:"dias"            validate:"omitempty,min=1"`
	PrecioUnitario decimal.Decimal `json:"precio_unitario" validate:"min=0"`
}

type CrearDocumentoRequest struct {
	// Numero es opcional: si falta, se asigna el siguiente de la secuencia
	Numero    *string `json:"numero"`
	Fecha     string  `json:"fecha"      validate:"omitempty,datetime=2006-01-02"`
	ClienteID string  `json:"cliente_id" validate:"required,uuid"`
	GestorID  *string `json:"gestor_id"  validate:"omitempty,uuid"`
	Moneda    string  `json:"moneda"     validate:"omitempty,oneof=PEN USD"`
	Estado    *string `json:"estado"`
	// TasaImpuesto: fracción (0.18 = IGV); nil = sin impuesto
	TasaImpuesto *decimal.Decimal `json:"tasa_impuesto" validate:"omitempty,min=0"`
	// Subtotal/Impuesto/Total: trío manual para documentos históricos o
	// importados; si los tres vienen, reemplazan al cálculo automático
	Subtotal *decimal.Decimal `json:"subtotal"`
	Impuesto *decimal.Decimal `json:"impuesto"`
	Total    *decimal.Decimal `json:"total"`

	ValidezDias   *int    `json:"validez_dias"   validate:"omitempty,min=1"`
	Descripcion   *string `json:"descripcion"`
	Comentarios   *string `json:"comentarios"`
	CondicionPago *string `json:"condicion_pago"`

	Items []ItemDocumentoRequest `json:"items" validate:"omitempty,dive"`

	// NotificarEmail: cuando viene, se encola un resumen por correo
	NotificarEmail *string `json:"notificar_email" validate:"omitempty,email"`
}

// ActualizarDocumentoRequest carries partial header edits. Items, cuando
// viene, reemplaza el juego completo de ítems (no se hace diff).
type ActualizarDocumentoRequest struct {
	Fecha     *string `json:"fecha"     validate:"omitempty,datetime=2006-01-02"`
	ClienteID *string `json:"cliente_id" validate:"omitempty,uuid"`
	GestorID  *string `json:"gestor_id"  validate:"omitempty,uuid"`
	Moneda    *string `json:"moneda"     validate:"omitempty,oneof=PEN USD"`
	Estado    *string `json:"estado"`

	TasaImpuesto *decimal.Decimal `json:"tasa_impuesto" validate:"omitempty,min=0"`
	Subtotal     *decimal.Decimal `json:"subtotal"`
	Impuesto     *decimal.Decimal `json:"impuesto"`
	Total        *decimal.Decimal `json:"total"`

	ValidezDias   *int    `json:"validez_dias" validate:"omitempty,min=1"`
	Descripcion   *string `json:"descripcion"`
	Comentarios   *string `json:"comentarios"`
	CondicionPago *string `json:"condicion_pago"`

	Items *[]ItemDocumentoRequest `json:"items" validate:"omitempty,dive"`
}

type CambiarEstadoRequest struct {
	Estado string `json:"estado" validate:"required"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ItemDocumentoResponse struct {
	ID             string          `json:"id"`
	Codigo         string          `json:"codigo,omitempty"`
	Descripcion    string          `json:"descripcion"`
	Cantidad       int             `json:"cantidad"`
	Dias           int             `json:"dias"`
	PrecioUnitario decimal.Decimal `json:"precio_unitario"`
	Importe        decimal.Decimal `json:"importe"`
}

// ClienteRef resume el cliente referenciado; el id siempre viene resuelto.
type ClienteRef struct {
	ID          string `json:"id"`
	RazonSocial string `json:"razon_social"`
	RUC         string `json:"ruc"`
}

type GestorRef struct {
	ID     string `json:"id"`
	Nombre string `json:"nombre"`
}

type DocumentoResponse struct {
	ID            string                  `json:"id"`
	Tipo          string                  `json:"tipo"`
	Numero        string                  `json:"numero"`
	Fecha         string                  `json:"fecha"`
	Cliente       ClienteRef              `json:"cliente"`
	Gestor        *GestorRef              `json:"gestor,omitempty"`
	Moneda        string                  `json:"moneda"`
	Subtotal      decimal.Decimal         `json:"subtotal"`
	Impuesto      decimal.Decimal         `json:"impuesto"`
	Total         decimal.Decimal         `json:"total"`
	Estado        string                  `json:"estado"`
	ValidezDias   *int                    `json:"validez_dias,omitempty"`
	Descripcion   *string                 `json:"descripcion,omitempty"`
	Comentarios   *string                 `json:"comentarios,omitempty"`
	CondicionPago *string                 `json:"condicion_pago,omitempty"`
	Items         []ItemDocumentoResponse `json:"items"`
	CreatedAt     string                  `json:"created_at"`
	UpdatedAt     string                  `json:"updated_at"`
	DeletedAt     *string                 `json:"deleted_at,omitempty"`
}

// SiguienteNumeroResponse: vista previa no autoritativa del próximo número.
// El número definitivo se fija recién al crear el documento.
type SiguienteNumeroResponse struct {
	Tipo   string `json:"tipo"`
	Numero string `json:"numero"`
}
