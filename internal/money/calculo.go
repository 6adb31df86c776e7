// Package money computes and valida totales monetarios de documentos.
// Todas las funciones son puras; el redondeo a 2 decimales (mitad hacia
// arriba) se aplica una sola vez al final, nunca línea por línea.
package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Epsilon es la tolerancia aceptada entre el total declarado y
// subtotal + impuesto cuando el cliente provee totales manuales.
var Epsilon = decimal.NewFromFloat(0.01)

// Linea es la entrada mínima para calcular el importe de un ítem.
type Linea struct {
	Cantidad       int
	Dias           int
	PrecioUnitario decimal.Decimal
}

// Totales agrupa los tres montos derivados de un documento.
type Totales struct {
	Subtotal decimal.Decimal
	Impuesto decimal.Decimal
	Total    decimal.Decimal
}

// ErrLinea identifica una línea rechazada y el motivo.
type ErrLinea struct {
	Indice int
	Motivo string
}

func (e *ErrLinea) Error() string {
	return fmt.Sprintf("item %d: %s", e.Indice+1, e.Motivo)
}

// ValidarLinea aplica las reglas estructurales de un ítem:
// cantidad ≥ 1, días ≥ 1 y precio unitario no negativo.
func ValidarLinea(i int, l Linea) error {
	if l.Cantidad < 1 {
		return &ErrLinea{Indice: i, Motivo: "cantidad debe ser al menos 1"}
	}
	if l.Dias < 1 {
		return &ErrLinea{Indice: i, Motivo: "dias debe ser al menos 1"}
	}
	if l.PrecioUnitario.IsNegative() {
		return &ErrLinea{Indice: i, Motivo: "precio_unitario no puede ser negativo"}
	}
	return nil
}

// Importe devuelve cantidad × dias × precio_unitario sin redondear.
func Importe(l Linea) decimal.Decimal {
	return l.PrecioUnitario.
		Mul(decimal.NewFromInt(int64(l.Cantidad))).
		Mul(decimal.NewFromInt(int64(l.Dias)))
}

// Calcular suma los importes de las líneas, aplica la tasa de impuesto y
// redondea subtotal e impuesto a 2 decimales al final. El total es la suma
// de ambos montos ya redondeados, por lo que total = subtotal + impuesto
// se cumple con exactitud.
func Calcular(lineas []Linea, tasa decimal.Decimal) (Totales, error) {
	if tasa.IsNegative() {
		return Totales{}, fmt.Errorf("tasa de impuesto no puede ser negativa")
	}
	bruto := decimal.Zero
	for i, l := range lineas {
		if err := ValidarLinea(i, l); err != nil {
			return Totales{}, err
		}
		bruto = bruto.Add(Importe(l))
	}

	subtotal := bruto.Round(2)
	impuesto := bruto.Mul(tasa).Round(2)
	return Totales{
		Subtotal: subtotal,
		Impuesto: impuesto,
		Total:    subtotal.Add(impuesto),
	}, nil
}

// Coherentes verifica total == subtotal + impuesto dentro de Epsilon.
// Se usa cuando el llamador provee totales manuales (documentos históricos
// o importados) y el cálculo automático queda de lado.
func Coherentes(t Totales) bool {
	diff := t.Total.Sub(t.Subtotal.Add(t.Impuesto)).Abs()
	return diff.LessThanOrEqual(Epsilon)
}

// NoNegativos rechaza cualquier monto manual negativo.
func NoNegativos(t Totales) bool {
	return !t.Subtotal.IsNegative() && !t.Impuesto.IsNegative() && !t.Total.IsNegative()
}
