package service

import (
	"errors"
	"fmt"
)

// Taxonomía de errores del núcleo de documentos. El handler los traduce a
// códigos HTTP; ninguno se traga silenciosamente.
var (
	// ErrNoEncontrado: cabecera inexistente/eliminada o referencia ausente.
	ErrNoEncontrado = errors.New("recurso no encontrado")
	// ErrTotalesInvalidos: total ≠ subtotal + impuesto más allá de la tolerancia.
	ErrTotalesInvalidos = errors.New("el total no coincide con subtotal + impuesto")
	// ErrConflictoSecuencia: se agotó el reintento de numeración bajo
	// concurrencia; el llamador puede reintentar la operación completa.
	ErrConflictoSecuencia = errors.New("conflicto de numeracion bajo concurrencia")
	// ErrPersistencia: falla de almacenamiento; seguro de reintentar.
	ErrPersistencia = errors.New("error de almacenamiento")
	// ErrTiempoAgotado: la operación superó el timeout acotado sin mutación parcial.
	ErrTiempoAgotado = errors.New("tiempo de espera agotado en almacenamiento")
)

// ErrValidacion rechaza un campo malformado, faltante o negativo antes de
// cualquier escritura.
type ErrValidacion struct {
	Campo  string
	Motivo string
}

func (e *ErrValidacion) Error() string {
	if e.Campo == "" {
		return e.Motivo
	}
	return fmt.Sprintf("%s: %s", e.Campo, e.Motivo)
}

func validacion(campo, motivo string) error {
	return &ErrValidacion{Campo: campo, Motivo: motivo}
}
