package model

import (
	"time"

	"github.com/google/uuid"
)

// Cliente es el directorio de clientes. El núcleo de documentos solo lo
// lee; la administración se hace por su propio CRUD.
type Cliente struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	RazonSocial string    `gorm:"not null"`
	RUC         string    `gorm:"column:ruc;uniqueIndex;not null"`
	Direccion   *string
	Email       *string
	Telefono    *string
	Activo      bool `gorm:"not null;default:true"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (Cliente) TableName() string { return "clientes" }
