// Package numeracion deriva números de documento legibles con formato
// <PREFIJO>-<secuencia con ceros a la izquierda> (ej. OS-001).
// La parte atómica (lock por tipo + índice único) vive en el repositorio;
// aquí solo hay parsing y formato.
package numeracion

import (
	"fmt"
	"strconv"
	"strings"
)

// Ancho es el relleno fijo observado en los datos existentes. Números por
// encima de 999 crecen de forma natural sin truncarse.
const Ancho = 3

// Formatear arma el número legible para una secuencia dada.
func Formatear(prefijo string, n int) string {
	return fmt.Sprintf("%s-%0*d", prefijo, Ancho, n)
}

// Sufijo extrae la parte numérica de un número existente. Devuelve 0 y
// false para sufijos ilegibles (datos legados malformados): el llamador
// los trata como cero en vez de fallar, pero debe registrarlos.
func Sufijo(prefijo, numero string) (int, bool) {
	resto, ok := strings.CutPrefix(numero, prefijo+"-")
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(resto)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// Siguiente calcula el próximo número a partir de los existentes (activos y
// eliminados por igual, para no reutilizar). Sin historia previa devuelve
// la semilla <PREFIJO>-001. Los números malformados se devuelven aparte
// para que el llamador los reporte.
func Siguiente(prefijo string, existentes []string) (string, []string) {
	max := 0
	var malformados []string
	for _, num := range existentes {
		n, ok := Sufijo(prefijo, num)
		if !ok {
			malformados = append(malformados, num)
			continue
		}
		if n > max {
			max = n
		}
	}
	return Formatear(prefijo, max+1), malformados
}
