package infra

import (
	"fmt"

	"mvsat/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase opens the GORM connection backed by pgx. The handle is created
// once by the entry point and injected into every repository; Close it on
// shutdown with CloseDatabase.
//
// TranslateError maps unique violations to gorm.ErrDuplicatedKey, which the
// renewal transaction relies on to detect a concurrent duplicate charge.
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	return db, nil
}

// CloseDatabase releases the pool behind db.
func CloseDatabase(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// RunMigrations creates / updates every table and then applies the DDL that
// AutoMigrate cannot express.
func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.Cliente{},
		&model.Assinatura{},
		&model.Cobranca{},
		&model.TvBoxAssinatura{},
		&model.PagamentoRenovacao{},
		&model.Funcionario{},
	); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	if db.Dialector.Name() != "postgres" {
		return nil
	}
	return applySchemaPatches(db)
}

// applySchemaPatches runs idempotent PostgreSQL DDL. Each statement is guarded
// so re-running on an already-patched DB is a no-op.
func applySchemaPatches(db *gorm.DB) error {
	patches := []struct{ descr, sql string }{
		// rollover lookups only ever care about open auto-generated invoices
		{"partial index idx_cobrancas_auto_abertas", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'idx_cobrancas_auto_abertas') THEN
    CREATE INDEX idx_cobrancas_auto_abertas
        ON cobrancas (ano_referencia, mes_referencia)
        WHERE gerada_automaticamente AND status <> 'PAGO';
  END IF;
END $$`},
		{"check chk_tvbox_dia_renovacao", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_tvbox_dia_renovacao') THEN
    ALTER TABLE tvbox_assinaturas
      ADD CONSTRAINT chk_tvbox_dia_renovacao CHECK (dia_renovacao BETWEEN 1 AND 31);
  END IF;
END $$`},
		{"check chk_cobrancas_status", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_cobrancas_status') THEN
    ALTER TABLE cobrancas
      ADD CONSTRAINT chk_cobrancas_status CHECK (status IN ('PENDENTE', 'EM_DIAS', 'VENCIDO', 'PAGO'));
  END IF;
END $$`},
	}
	for _, p := range patches {
		if err := db.Exec(p.sql).Error; err != nil {
			return fmt.Errorf("patch %q: %w", p.descr, err)
		}
	}
	return nil
}
