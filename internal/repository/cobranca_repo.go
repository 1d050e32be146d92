package repository

import (
	"context"
	"time"

	"mvsat/internal/dto"
	"mvsat/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CobrancaRepository interface {
	Create(ctx context.Context, tx *gorm.DB, c *model.Cobranca) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Cobranca, error)
	// FindByIDForUpdate reads the row inside tx holding a row lock (Postgres).
	FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.Cobranca, error)
	Update(ctx context.Context, tx *gorm.DB, c *model.Cobranca) error
	Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
	// FindByCiclo returns every cobrança of the (cliente, contrato, tipo, ano, mes) cycle.
	FindByCiclo(ctx context.Context, tx *gorm.DB, k model.ChaveCiclo) ([]model.Cobranca, error)
	List(ctx context.Context, filter dto.CobrancaFilter) ([]model.Cobranca, int64, error)
	CountByStatus(ctx context.Context) (map[string]int64, error)
	SumRecebido(ctx context.Context, desde, ate time.Time) (decimal.Decimal, error)
	DB() *gorm.DB // exposes the DB for transaction creation in service layer
}

type cobrancaRepo struct{ db *gorm.DB }

func NewCobrancaRepository(db *gorm.DB) CobrancaRepository { return &cobrancaRepo{db: db} }

func (r *cobrancaRepo) DB() *gorm.DB { return r.db }

// conn prefers the caller's transaction over the pooled connection.
func (r *cobrancaRepo) conn(ctx context.Context, tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx.WithContext(ctx)
	}
	return r.db.WithContext(ctx)
}

func (r *cobrancaRepo) Create(ctx context.Context, tx *gorm.DB, c *model.Cobranca) error {
	return r.conn(ctx, tx).Create(c).Error
}

func (r *cobrancaRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Cobranca, error) {
	var c model.Cobranca
	err := r.db.WithContext(ctx).First(&c, "id = ?", id).Error
	return &c, err
}

func (r *cobrancaRepo) FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.Cobranca, error) {
	q := r.conn(ctx, tx)
	if q.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var c model.Cobranca
	err := q.First(&c, "id = ?", id).Error
	return &c, err
}

func (r *cobrancaRepo) Update(ctx context.Context, tx *gorm.DB, c *model.Cobranca) error {
	return r.conn(ctx, tx).Save(c).Error
}

func (r *cobrancaRepo) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	return r.conn(ctx, tx).Delete(&model.Cobranca{}, "id = ?", id).Error
}

func (r *cobrancaRepo) FindByCiclo(ctx context.Context, tx *gorm.DB, k model.ChaveCiclo) ([]model.Cobranca, error) {
	q := r.conn(ctx, tx).
		Where("tipo = ? AND ano_referencia = ? AND mes_referencia = ?", k.Tipo, k.Ano, k.Mes)

	// NULL never matches "= ?"; the cycle key treats a missing reference as a value
	if k.ClienteID == nil {
		q = q.Where("cliente_id IS NULL")
	} else {
		q = q.Where("cliente_id = ?", *k.ClienteID)
	}
	if k.ContratoID == nil {
		q = q.Where("contrato_id IS NULL")
	} else {
		q = q.Where("contrato_id = ?", *k.ContratoID)
	}

	var cobrancas []model.Cobranca
	err := q.Order("created_at ASC").Find(&cobrancas).Error
	return cobrancas, err
}

func (r *cobrancaRepo) List(ctx context.Context, filter dto.CobrancaFilter) ([]model.Cobranca, int64, error) {
	var cobrancas []model.Cobranca
	var total int64
	offset := (filter.Page - 1) * filter.Limit

	q := r.db.WithContext(ctx).Model(&model.Cobranca{})

	if filter.Status != "" && filter.Status != "all" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.ClienteID != "" {
		q = q.Where("cliente_id = ?", filter.ClienteID)
	}
	if filter.ContratoID != "" {
		q = q.Where("contrato_id = ?", filter.ContratoID)
	}
	if filter.Tipo != "" {
		q = q.Where("tipo = ?", filter.Tipo)
	}
	if filter.Ano > 0 {
		q = q.Where("ano_referencia = ?", filter.Ano)
	}
	if filter.Mes > 0 {
		q = q.Where("mes_referencia = ?", filter.Mes)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := q.Order("ano_referencia DESC, mes_referencia DESC, created_at DESC").
		Offset(offset).Limit(filter.Limit).
		Find(&cobrancas).Error

	return cobrancas, total, err
}

func (r *cobrancaRepo) CountByStatus(ctx context.Context) (map[string]int64, error) {
	var rows []struct {
		Status string
		Total  int64
	}
	err := r.db.WithContext(ctx).Model(&model.Cobranca{}).
		Select("status, COUNT(*) AS total").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		out[row.Status] = row.Total
	}
	return out, nil
}

func (r *cobrancaRepo) SumRecebido(ctx context.Context, desde, ate time.Time) (decimal.Decimal, error) {
	var total decimal.NullDecimal
	row := r.db.WithContext(ctx).Model(&model.Cobranca{}).
		Select("SUM(COALESCE(valor_pago, valor))").
		Where("status = ? AND data_pagamento >= ? AND data_pagamento < ?", model.StatusPago, desde, ate).
		Row()
	if err := row.Scan(&total); err != nil || !total.Valid {
		return decimal.Zero, err
	}
	return total.Decimal, nil
}
