package repository

import (
	"context"
	"time"

	"mvsat/internal/dto"
	"mvsat/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AssinaturaRepository interface {
	Create(ctx context.Context, a *model.Assinatura) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Assinatura, error)
	List(ctx context.Context, filter dto.AssinaturaFilter) ([]model.Assinatura, int64, error)
	Update(ctx context.Context, a *model.Assinatura) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
	// UpdateUltimoVencimento moves the display marker forward; an older date
	// never overwrites a newer one.
	UpdateUltimoVencimento(ctx context.Context, tx *gorm.DB, id uuid.UUID, venc time.Time) error
}

type assinaturaRepo struct{ db *gorm.DB }

func NewAssinaturaRepository(db *gorm.DB) AssinaturaRepository { return &assinaturaRepo{db: db} }

func (r *assinaturaRepo) conn(ctx context.Context, tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx.WithContext(ctx)
	}
	return r.db.WithContext(ctx)
}

func (r *assinaturaRepo) Create(ctx context.Context, a *model.Assinatura) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *assinaturaRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Assinatura, error) {
	var a model.Assinatura
	err := r.db.WithContext(ctx).First(&a, "id = ?", id).Error
	return &a, err
}

func (r *assinaturaRepo) List(ctx context.Context, filter dto.AssinaturaFilter) ([]model.Assinatura, int64, error) {
	var assinaturas []model.Assinatura
	var total int64

	q := r.db.WithContext(ctx).Model(&model.Assinatura{})
	if filter.ClienteID != "" {
		q = q.Where("cliente_id = ?", filter.ClienteID)
	}
	if filter.SomenteAtivas {
		q = q.Where("ativo = ?", true)
	}
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.Order("created_at ASC").
		Offset((filter.Page - 1) * filter.Limit).Limit(filter.Limit).
		Find(&assinaturas).Error
	return assinaturas, total, err
}

func (r *assinaturaRepo) Update(ctx context.Context, a *model.Assinatura) error {
	return r.db.WithContext(ctx).Save(a).Error
}

func (r *assinaturaRepo) SoftDelete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.Assinatura{}).Where("id = ?", id).Update("ativo", false).Error
}

func (r *assinaturaRepo) UpdateUltimoVencimento(ctx context.Context, tx *gorm.DB, id uuid.UUID, venc time.Time) error {
	return r.conn(ctx, tx).Model(&model.Assinatura{}).
		Where("id = ? AND (ultimo_vencimento_gerado IS NULL OR ultimo_vencimento_gerado < ?)", id, venc).
		Update("ultimo_vencimento_gerado", venc).Error
}
