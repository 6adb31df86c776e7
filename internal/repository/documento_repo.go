package repository

import (
	"context"
	"time"

	"github.com/AlexArancibia/AmbientalDashboard-sub001/internal/dto"
	"github.com/AlexArancibia/AmbientalDashboard-sub001/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DocumentoRepository interface {
	Create(ctx context.Context, tx *gorm.DB, d *model.Documento) error
	// FindByID hidrata cliente, gestor e ítems activos. Con
	// incluirEliminados=false, un documento eliminado cuenta como ausente.
	FindByID(ctx context.Context, id uuid.UUID, incluirEliminados bool) (*model.Documento, error)
	// BloquearTipo serializa la asignación de números del tipo dentro de la
	// transacción (lock consultivo de Postgres, se libera al commit/rollback).
	BloquearTipo(ctx context.Context, tx *gorm.DB, tipo model.TipoDocumento) error
	// NumerosPorTipo devuelve todos los números emitidos del tipo, activos y
	// eliminados por igual: los números nunca se reutilizan.
	NumerosPorTipo(ctx context.Context, tx *gorm.DB, tipo model.TipoDocumento) ([]string, error)
	Save(ctx context.Context, tx *gorm.DB, d *model.Documento) error
	// ReplaceItems borra físicamente los ítems del documento y crea el juego
	// nuevo, dentro de la misma transacción.
	ReplaceItems(ctx context.Context, tx *gorm.DB, documentoID uuid.UUID, items []model.DocumentoItem) error
	// MarkDeleted marca cabecera e ítems con el mismo instante.
	MarkDeleted(ctx context.Context, tx *gorm.DB, id uuid.UUID, at time.Time) error
	List(ctx context.Context, tipo model.TipoDocumento, filter dto.DocumentoFilter) ([]model.Documento, int64, error)
	DB() *gorm.DB // exposes the DB for transaction creation in service layer
}

type documentoRepo struct{ db *gorm.DB }

func NewDocumentoRepository(db *gorm.DB) DocumentoRepository { return &documentoRepo{db: db} }

func (r *documentoRepo) DB() *gorm.DB { return r.db }

func (r *documentoRepo) Create(ctx context.Context, tx *gorm.DB, d *model.Documento) error {
	return tx.WithContext(ctx).Create(d).Error
}

func (r *documentoRepo) FindByID(ctx context.Context, id uuid.UUID, incluirEliminados bool) (*model.Documento, error) {
	var d model.Documento
	q := r.db.WithContext(ctx).
		Preload("Cliente").
		Preload("Gestor").
		Preload("Items", "deleted_at IS NULL")
	if !incluirEliminados {
		q = q.Where("deleted_at IS NULL")
	}
	err := q.First(&d, "id = ?", id).Error
	return &d, err
}

func (r *documentoRepo) BloquearTipo(ctx context.Context, tx *gorm.DB, tipo model.TipoDocumento) error {
	return tx.WithContext(ctx).Exec("SELECT pg_advisory_xact_lock(hashtext(?))", string(tipo)).Error
}

func (r *documentoRepo) NumerosPorTipo(ctx context.Context, tx *gorm.DB, tipo model.TipoDocumento) ([]string, error) {
	db := r.db
	if tx != nil {
		db = tx
	}
	var numeros []string
	err := db.WithContext(ctx).Model(&model.Documento{}).
		Where("tipo = ?", tipo).
		Pluck("numero", &numeros).Error
	return numeros, err
}

func (r *documentoRepo) Save(ctx context.Context, tx *gorm.DB, d *model.Documento) error {
	return tx.WithContext(ctx).Omit("Items", "Cliente", "Gestor").Save(d).Error
}

func (r *documentoRepo) ReplaceItems(ctx context.Context, tx *gorm.DB, documentoID uuid.UUID, items []model.DocumentoItem) error {
	if err := tx.WithContext(ctx).
		Where("documento_id = ?", documentoID).
		Delete(&model.DocumentoItem{}).Error; err != nil {
		return err
	}
	// Un juego vacío es válido para tipos sin items obligatorios;
	// gorm rechaza Create sobre un slice vacío.
	if len(items) == 0 {
		return nil
	}
	for i := range items {
		items[i].DocumentoID = documentoID
	}
	return tx.WithContext(ctx).Create(&items).Error
}

func (r *documentoRepo) MarkDeleted(ctx context.Context, tx *gorm.DB, id uuid.UUID, at time.Time) error {
	if err := tx.WithContext(ctx).Model(&model.Documento{}).
		Where("id = ? AND deleted_at IS NULL", id).
		Update("deleted_at", at).Error; err != nil {
		return err
	}
	return tx.WithContext(ctx).Model(&model.DocumentoItem{}).
		Where("documento_id = ? AND deleted_at IS NULL", id).
		Update("deleted_at", at).Error
}

func (r *documentoRepo) List(ctx context.Context, tipo model.TipoDocumento, filter dto.DocumentoFilter) ([]model.Documento, int64, error) {
	var docs []model.Documento
	var total int64
	offset := (filter.Page - 1) * filter.Limit

	q := r.db.WithContext(ctx).Model(&model.Documento{}).Where("tipo = ?", tipo)

	if !filter.IncluirEliminados {
		q = q.Where("deleted_at IS NULL")
	}
	if filter.ClienteID != "" {
		q = q.Where("cliente_id = ?", filter.ClienteID)
	}
	if filter.Estado != "" {
		q = q.Where("estado = ?", filter.Estado)
	}
	if filter.Desde != "" {
		q = q.Where("fecha >= ?", filter.Desde)
	}
	if filter.Hasta != "" {
		q = q.Where("fecha <= ?", filter.Hasta)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	// Desempate por id para que la paginación sea estable
	err := q.Preload("Cliente").Preload("Gestor").Preload("Items", "deleted_at IS NULL").
		Order("created_at DESC").Order("id DESC").
		Offset(offset).Limit(filter.Limit).
		Find(&docs).Error

	return docs, total, err
}
