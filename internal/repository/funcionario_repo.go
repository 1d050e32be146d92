package repository

import (
	"context"

	"mvsat/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type FuncionarioRepository interface {
	Create(ctx context.Context, f *model.Funcionario) error
	FindByEmail(ctx context.Context, email string) (*model.Funcionario, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.Funcionario, error)
	List(ctx context.Context) ([]model.Funcionario, error)
	SoftDelete(ctx context.Context, id uuid.UUID) error
}

type funcionarioRepo struct{ db *gorm.DB }

func NewFuncionarioRepository(db *gorm.DB) FuncionarioRepository { return &funcionarioRepo{db: db} }

func (r *funcionarioRepo) Create(ctx context.Context, f *model.Funcionario) error {
	return r.db.WithContext(ctx).Create(f).Error
}

func (r *funcionarioRepo) FindByEmail(ctx context.Context, email string) (*model.Funcionario, error) {
	var f model.Funcionario
	err := r.db.WithContext(ctx).
		Where("LOWER(email) = LOWER(?) AND ativo = ?", email, true).
		First(&f).Error
	return &f, err
}

func (r *funcionarioRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Funcionario, error) {
	var f model.Funcionario
	err := r.db.WithContext(ctx).First(&f, "id = ?", id).Error
	return &f, err
}

func (r *funcionarioRepo) List(ctx context.Context) ([]model.Funcionario, error) {
	var out []model.Funcionario
	err := r.db.WithContext(ctx).Order("nome ASC").Find(&out).Error
	return out, err
}

func (r *funcionarioRepo) SoftDelete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.Funcionario{}).Where("id = ?", id).Update("ativo", false).Error
}
