// Package importacao loads the JSON exports of the legacy document store into
// the relational schema.
package importacao

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Supported collections.
const (
	ColecaoClientes    = "clientes"
	ColecaoAssinaturas = "assinaturas"
	ColecaoCobrancas   = "cobrancas"
	ColecaoTvBox       = "tvbox_assinaturas"
)

// Resumo contains statistics about one import run.
type Resumo struct {
	Colecao    string
	Lidos      int
	Validos    int
	Gravados   int // rows actually inserted; existing ids are skipped
	Rejeitados int
	Erros      []string
}

type Importador struct {
	db     *gorm.DB
	dryRun bool
}

// NewImportador returns an importer. In dry-run mode documents are converted
// and validated but nothing is written.
func NewImportador(db *gorm.DB, dryRun bool) *Importador {
	return &Importador{db: db, dryRun: dryRun}
}

// Importar reads a JSON array of documents of one collection. Documents that
// cannot be converted are reported in Resumo.Erros; the valid ones are written
// in a single transaction. Ids already present are left untouched, so the
// same export can be imported twice.
func (i *Importador) Importar(ctx context.Context, colecao string, r io.Reader) (*Resumo, error) {
	converter, err := conversorDe(colecao)
	if err != nil {
		return nil, err
	}

	var docs []json.RawMessage
	if err := json.NewDecoder(r).Decode(&docs); err != nil {
		return nil, fmt.Errorf("importacao: esperado um array JSON: %w", err)
	}

	resumo := &Resumo{Colecao: colecao, Lidos: len(docs)}
	linhas := make([]any, 0, len(docs))
	for n, raw := range docs {
		linha, err := converter(raw)
		if err != nil {
			resumo.Rejeitados++
			resumo.Erros = append(resumo.Erros, fmt.Sprintf("#%d: %v", n, err))
			continue
		}
		linhas = append(linhas, linha)
	}
	resumo.Validos = len(linhas)

	if i.dryRun || len(linhas) == 0 {
		return resumo, nil
	}

	err = i.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, linha := range linhas {
			res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(linha)
			if res.Error != nil {
				return res.Error
			}
			resumo.Gravados += int(res.RowsAffected)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("importacao: gravando %s: %w", colecao, err)
	}

	log.Info().Str("colecao", colecao).Int("lidos", resumo.Lidos).Int("gravados", resumo.Gravados).
		Int("rejeitados", resumo.Rejeitados).Msg("importacao: concluída")
	return resumo, nil
}

func conversorDe(colecao string) (func(json.RawMessage) (any, error), error) {
	switch colecao {
	case ColecaoClientes:
		return func(raw json.RawMessage) (any, error) { return converterCliente(raw) }, nil
	case ColecaoAssinaturas:
		return func(raw json.RawMessage) (any, error) { return converterAssinatura(raw) }, nil
	case ColecaoCobrancas:
		return func(raw json.RawMessage) (any, error) { return converterCobranca(raw) }, nil
	case ColecaoTvBox:
		return func(raw json.RawMessage) (any, error) { return converterTvBox(raw) }, nil
	}
	return nil, fmt.Errorf("importacao: coleção %q não suportada", colecao)
}
