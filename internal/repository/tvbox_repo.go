package repository

import (
	"context"
	"time"

	"mvsat/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TvBoxRepository interface {
	Create(ctx context.Context, a *model.TvBoxAssinatura) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.TvBoxAssinatura, error)
	// FindByIDForUpdate row-locks the assinatura for the rest of tx.
	FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.TvBoxAssinatura, error)
	Update(ctx context.Context, a *model.TvBoxAssinatura) error
	UpdateDataRenovacao(ctx context.Context, tx *gorm.DB, id uuid.UUID, data time.Time) error
	List(ctx context.Context, somenteAtivas bool) ([]model.TvBoxAssinatura, error)
	FindPagamento(ctx context.Context, tx *gorm.DB, id string) (*model.PagamentoRenovacao, error)
	CreatePagamento(ctx context.Context, tx *gorm.DB, p *model.PagamentoRenovacao) error
	ListPagamentos(ctx context.Context, assinaturaID uuid.UUID) ([]model.PagamentoRenovacao, error)
	CountAtivas(ctx context.Context) (int64, error)
	CountRenovacoesAte(ctx context.Context, ate time.Time) (int64, error)
	SumPagamentosCompetencia(ctx context.Context, competencia string) (decimal.Decimal, error)
	DB() *gorm.DB
}

type tvboxRepo struct{ db *gorm.DB }

func NewTvBoxRepository(db *gorm.DB) TvBoxRepository { return &tvboxRepo{db: db} }

func (r *tvboxRepo) DB() *gorm.DB { return r.db }

func (r *tvboxRepo) conn(ctx context.Context, tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx.WithContext(ctx)
	}
	return r.db.WithContext(ctx)
}

func (r *tvboxRepo) Create(ctx context.Context, a *model.TvBoxAssinatura) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *tvboxRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.TvBoxAssinatura, error) {
	var a model.TvBoxAssinatura
	err := r.db.WithContext(ctx).First(&a, "id = ?", id).Error
	return &a, err
}

func (r *tvboxRepo) FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.TvBoxAssinatura, error) {
	q := r.conn(ctx, tx)
	// SQLite (tests) has no row locks; the whole database is locked by the writer
	if q.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var a model.TvBoxAssinatura
	err := q.First(&a, "id = ?", id).Error
	return &a, err
}

func (r *tvboxRepo) Update(ctx context.Context, a *model.TvBoxAssinatura) error {
	return r.db.WithContext(ctx).Save(a).Error
}

func (r *tvboxRepo) UpdateDataRenovacao(ctx context.Context, tx *gorm.DB, id uuid.UUID, data time.Time) error {
	return r.conn(ctx, tx).Model(&model.TvBoxAssinatura{}).
		Where("id = ?", id).
		Update("data_renovacao", data).Error
}

func (r *tvboxRepo) List(ctx context.Context, somenteAtivas bool) ([]model.TvBoxAssinatura, error) {
	var out []model.TvBoxAssinatura
	q := r.db.WithContext(ctx)
	if somenteAtivas {
		q = q.Where("ativo = ?", true)
	}
	err := q.Order("data_renovacao ASC").Find(&out).Error
	return out, err
}

func (r *tvboxRepo) FindPagamento(ctx context.Context, tx *gorm.DB, id string) (*model.PagamentoRenovacao, error) {
	var p model.PagamentoRenovacao
	err := r.conn(ctx, tx).First(&p, "id = ?", id).Error
	return &p, err
}

func (r *tvboxRepo) CreatePagamento(ctx context.Context, tx *gorm.DB, p *model.PagamentoRenovacao) error {
	return r.conn(ctx, tx).Create(p).Error
}

func (r *tvboxRepo) ListPagamentos(ctx context.Context, assinaturaID uuid.UUID) ([]model.PagamentoRenovacao, error) {
	var out []model.PagamentoRenovacao
	err := r.db.WithContext(ctx).
		Where("assinatura_id = ?", assinaturaID).
		Order("competencia DESC").
		Find(&out).Error
	return out, err
}

func (r *tvboxRepo) CountAtivas(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.TvBoxAssinatura{}).Where("ativo = ?", true).Count(&n).Error
	return n, err
}

func (r *tvboxRepo) CountRenovacoesAte(ctx context.Context, ate time.Time) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.TvBoxAssinatura{}).
		Where("ativo = ? AND data_renovacao <= ?", true, ate).
		Count(&n).Error
	return n, err
}

func (r *tvboxRepo) SumPagamentosCompetencia(ctx context.Context, competencia string) (decimal.Decimal, error) {
	var total decimal.NullDecimal
	row := r.db.WithContext(ctx).Model(&model.PagamentoRenovacao{}).
		Select("SUM(valor)").
		Where("competencia = ?", competencia).
		Row()
	if err := row.Scan(&total); err != nil || !total.Valid {
		return decimal.Zero, err
	}
	return total.Decimal, nil
}
