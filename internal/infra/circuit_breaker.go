package infra

import (
	"errors"
	"sync"
	"time"
)

// Breaker implements the circuit-breaker pattern (Cerrado → Abierto →
// Semiabierto) around the SMTP relay. When the relay rejects several
// envíos in a row, further attempts fast-fail with ErrCircuitoAbierto
// instead of blocking a worker on a dead connection; the job lands in
// the DLQ like any other delivery failure.

// EstadoBreaker is the current breaker state.
type EstadoBreaker int

const (
	BreakerCerrado     EstadoBreaker = iota // normal, los envíos pasan
	BreakerAbierto                          // disparado, todo falla de inmediato
	BreakerSemiabierto                      // sondeo, se permite un envío
)

func (e EstadoBreaker) String() string {
	switch e {
	case BreakerCerrado:
		return "cerrado"
	case BreakerAbierto:
		return "abierto"
	case BreakerSemiabierto:
		return "semiabierto"
	default:
		return "desconocido"
	}
}

// ErrCircuitoAbierto se devuelve cuando Execute se llama con el circuito abierto.
var ErrCircuitoAbierto = errors.New("circuito abierto: relay SMTP no disponible")

// BreakerConfig holds the tunable parameters.
type BreakerConfig struct {
	UmbralFallos  int           // fallos consecutivos para abrir (default: 5)
	UmbralExitos  int           // éxitos en semiabierto para cerrar (default: 2)
	TiempoAbierto time.Duration // cuánto permanecer abierto antes de sondear (default: 60s)
}

// NewBreaker creates a breaker in the closed state, applying defaults
// for any zero-valued field.
func NewBreaker(cfg BreakerConfig) *Breaker {
	if cfg.UmbralFallos <= 0 {
		cfg.UmbralFallos = 5
	}
	if cfg.UmbralExitos <= 0 {
		cfg.UmbralExitos = 2
	}
	if cfg.TiempoAbierto <= 0 {
		cfg.TiempoAbierto = 60 * time.Second
	}
	return &Breaker{
		estado:        BreakerCerrado,
		umbralFallos:  cfg.UmbralFallos,
		umbralExitos:  cfg.UmbralExitos,
		tiempoAbierto: cfg.TiempoAbierto,
	}
}

type Breaker struct {
	mu            sync.Mutex
	estado        EstadoBreaker
	fallos        int
	exitos        int
	ultimoFallo   time.Time
	umbralFallos  int
	umbralExitos  int
	tiempoAbierto time.Duration
}

// Estado returns the current state, promoting abierto → semiabierto
// once the open window has elapsed.
func (b *Breaker) Estado() EstadoBreaker {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.estado == BreakerAbierto && time.Since(b.ultimoFallo) >= b.tiempoAbierto {
		b.estado = BreakerSemiabierto
		b.exitos = 0
	}
	return b.estado
}

// Execute runs fn through the breaker. With the circuit open it returns
// ErrCircuitoAbierto without calling fn.
func (b *Breaker) Execute(fn func() error) error {
	if b.Estado() == BreakerAbierto {
		return ErrCircuitoAbierto
	}

	err := fn()

	b.mu.Lock()
	defer b.mu.Unlock()
	if err != nil {
		b.registrarFallo()
		return err
	}
	b.registrarExito()
	return nil
}

// registrarFallo must be called under lock.
func (b *Breaker) registrarFallo() {
	b.fallos++
	b.ultimoFallo = time.Now()

	switch b.estado {
	case BreakerCerrado:
		if b.fallos >= b.umbralFallos {
			b.estado = BreakerAbierto
			b.exitos = 0
		}
	case BreakerSemiabierto:
		// el sondeo falló: de vuelta a abierto
		b.estado = BreakerAbierto
		b.fallos = 0
	}
}

// registrarExito must be called under lock.
func (b *Breaker) registrarExito() {
	switch b.estado {
	case BreakerCerrado:
		b.fallos = 0
	case BreakerSemiabierto:
		b.exitos++
		if b.exitos >= b.umbralExitos {
			b.estado = BreakerCerrado
			b.fallos = 0
			b.exitos = 0
		}
	}
}
