package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TipoDocumento distingue los tres documentos comerciales del sistema.
type TipoDocumento string

const (
	TipoCotizacion    TipoDocumento = "cotizacion"
	TipoOrdenCompra   TipoDocumento = "orden_compra"
	TipoOrdenServicio TipoDocumento = "orden_servicio"
)

// Moneda es una etiqueta; el sistema no convierte entre monedas.
type Moneda string

const (
	MonedaPEN Moneda = "PEN"
	MonedaUSD Moneda = "USD"
)

// Politica concentra las reglas que varían entre tipos de documento:
// prefijo de numeración, estados permitidos y campos obligatorios.
// Los tres tipos comparten el resto de la estructura.
type Politica struct {
	Prefijo         string
	Estados         []string
	EstadoInicial   string
	RequiereGestor  bool
	RequiereValidez bool
	RequiereItems   bool
	UsaDias         bool
}

var politicas = map[TipoDocumento]Politica{
	TipoCotizacion: {
		Prefijo:         "COT",
		Estados:         []string{"borrador", "enviada", "aprobada", "cancelada"},
		EstadoInicial:   "borrador",
		RequiereValidez: true,
		RequiereItems:   true,
		UsaDias:         true,
	},
	TipoOrdenCompra: {
		Prefijo:        "OC",
		Estados:        []string{"pendiente", "aprobada", "recibida", "cancelada"},
		EstadoInicial:  "pendiente",
		RequiereGestor: true,
		RequiereItems:  true,
	},
	TipoOrdenServicio: {
		Prefijo:       "OS",
		Estados:       []string{"pendiente", "en_proceso", "completada", "cancelada"},
		EstadoInicial: "pendiente",
		UsaDias:       true,
	},
}

// PoliticaDe devuelve la política del tipo, o false si el tipo no existe.
func PoliticaDe(t TipoDocumento) (Politica, bool) {
	p, ok := politicas[t]
	return p, ok
}

// ParseTipo valida el segmento de ruta :tipo.
func ParseTipo(s string) (TipoDocumento, bool) {
	t := TipoDocumento(s)
	_, ok := politicas[t]
	return t, ok
}

func (p Politica) EstadoValido(estado string) bool {
	for _, e := range p.Estados {
		if e == estado {
			return true
		}
	}
	return false
}

// Documento es la cabecera de una cotización, orden de compra u orden de
// servicio. Numero es único por tipo y nunca se reutiliza, incluso tras
// eliminación lógica. DeletedAt nulo = activo; no nulo = eliminado (se
// conserva para auditoría y queda fuera de los listados por defecto).
type Documento struct {
	ID        uuid.UUID     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Tipo      TipoDocumento `gorm:"type:varchar(20);not null;uniqueIndex:uni_documentos_tipo_numero"`
	Numero    string        `gorm:"type:varchar(20);not null;uniqueIndex:uni_documentos_tipo_numero"`
	Fecha     time.Time     `gorm:"not null"`
	ClienteID uuid.UUID     `gorm:"type:uuid;not null;index"`
	GestorID  *uuid.UUID    `gorm:"type:uuid;index"`
	Moneda    Moneda        `gorm:"type:varchar(3);not null;default:'PEN'"`
	Subtotal  decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Impuesto  decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	Total     decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Estado    string          `gorm:"type:varchar(20);not null"`
	// ValidezDias solo aplica a cotizaciones
	ValidezDias   *int
	Descripcion   *string
	Comentarios   *string
	CondicionPago *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	DeletedAt     *time.Time `gorm:"index"`

	Cliente *Cliente        `gorm:"foreignKey:ClienteID"`
	Gestor  *Usuario        `gorm:"foreignKey:GestorID"`
	Items   []DocumentoItem `gorm:"foreignKey:DocumentoID"`
}

// Activo indica si el documento es visible en las rutas de lectura por defecto.
func (d *Documento) Activo() bool { return d.DeletedAt == nil }

// DocumentoItem pertenece a exactamente un Documento. Importe cachea
// cantidad × dias × precio_unitario y debe ser reproducible con exactitud.
type DocumentoItem struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	DocumentoID uuid.UUID `gorm:"type:uuid;index;not null"`
	Codigo      string    `gorm:"type:varchar(50)"`
	Descripcion string    `gorm:"not null"`
	Cantidad    int       `gorm:"not null"`
	// Dias es el multiplicador de alquiler; 1 para tipos que no lo usan
	Dias           int             `gorm:"not null;default:1"`
	PrecioUnitario decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Importe        decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	CreatedAt      time.Time
	DeletedAt      *time.Time `gorm:"index"`
}
