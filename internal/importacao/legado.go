package importacao

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"mvsat/internal/ciclo"
	"mvsat/internal/model"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// Documents as exported from the old document store. Every date field is
// decoded as any and goes through ciclo.Normalizar.

type clienteLegado struct {
	ID        string `json:"id"`
	Nome      string `json:"nome"`
	Documento string `json:"documento"`
	Email     string `json:"email"`
	Telefone  string `json:"telefone"`
	Endereco  string `json:"endereco"`
	Cidade    string `json:"cidade"`
	UF        string `json:"uf"`
	Ativo     *bool  `json:"ativo"`
}

type assinaturaLegada struct {
	ID                   string `json:"id"`
	ClienteID            string `json:"clienteId"`
	Tipo                 string `json:"tipo"`
	Valor                any    `json:"valor"`
	NumeroContrato       string `json:"numeroContrato"`
	Titular              string `json:"titular"`
	Documento            string `json:"cpf"`
	Endereco             string `json:"endereco"`
	Bairro               string `json:"bairro"`
	Cidade               string `json:"cidade"`
	UF                   string `json:"uf"`
	CEP                  string `json:"cep"`
	Ativo                *bool  `json:"ativo"`
	LastDueDateGenerated any    `json:"lastDueDateGenerated"`
	Observacoes          string `json:"observacoes"`
}

type eventoLegado struct {
	Tipo     string `json:"tipo"`
	Data     any    `json:"data"`
	Usuario  string `json:"usuario"`
	Detalhes string `json:"detalhes"`
}

type cobrancaLegada struct {
	ID                    string         `json:"id"`
	ClienteID             string         `json:"clienteId"`
	ContratoID            string         `json:"contratoId"`
	Tipo                  string         `json:"tipo"`
	Valor                 any            `json:"valor"`
	DataVencimento        any            `json:"dataVencimento"`
	DataPagamento         any            `json:"dataPagamento"`
	Status                string         `json:"status"`
	FormaPagamento        string         `json:"formaPagamento"`
	ValorPago             any            `json:"valorPago"`
	Juros                 any            `json:"juros"`
	GeradaAutomaticamente bool           `json:"geradaAutomaticamente"`
	CobrancaOrigemID      string         `json:"cobrancaOrigemId"`
	AnoReferencia         int            `json:"anoReferencia"`
	MesReferencia         int            `json:"mesReferencia"`
	Historico             []eventoLegado `json:"historico"`
}

type equipamentoLegado struct {
	Identificador string `json:"identificador"`
	ClienteID     string `json:"clienteId"`
}

type tvboxLegada struct {
	ID            string            `json:"id"`
	Login         string            `json:"login"`
	Senha         string            `json:"senha"`
	Equipamento1  equipamentoLegado `json:"equipamento1"`
	Equipamento2  equipamentoLegado `json:"equipamento2"`
	DiaRenovacao  any               `json:"diaRenovacao"`
	DataRenovacao any               `json:"dataRenovacao"`
	Ativo         *bool             `json:"ativo"`
	Observacoes   string            `json:"observacoes"`
}

var namespaceLegado = uuid.NewSHA1(uuid.NameSpaceURL, []byte("mvsat:legado"))

// IDLegado maps a document id of the old store to a stable UUID, so re-running
// an import addresses the same rows. Ids that already are UUIDs are kept.
func IDLegado(colecao, id string) uuid.UUID {
	if u, err := uuid.Parse(id); err == nil {
		return u
	}
	return uuid.NewSHA1(namespaceLegado, []byte(colecao+"/"+id))
}

func refLegada(colecao, id string) *uuid.UUID {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil
	}
	return lo.ToPtr(IDLegado(colecao, id))
}

func converterCliente(raw json.RawMessage) (*model.Cliente, error) {
	var doc clienteLegado
	if err := decodificar(raw, &doc); err != nil {
		return nil, err
	}
	if strings.TrimSpace(doc.ID) == "" {
		return nil, errors.New("documento sem id")
	}
	if strings.TrimSpace(doc.Nome) == "" {
		return nil, fmt.Errorf("cliente %s sem nome", doc.ID)
	}
	c := &model.Cliente{
		ID:       IDLegado(ColecaoClientes, doc.ID),
		Nome:     strings.TrimSpace(doc.Nome),
		Email:    lo.EmptyableToPtr(strings.TrimSpace(doc.Email)),
		Telefone: lo.EmptyableToPtr(strings.TrimSpace(doc.Telefone)),
		Endereco: lo.EmptyableToPtr(strings.TrimSpace(doc.Endereco)),
		Cidade:   lo.EmptyableToPtr(strings.TrimSpace(doc.Cidade)),
		UF:       lo.EmptyableToPtr(strings.ToUpper(strings.TrimSpace(doc.UF))),
		Ativo:    doc.Ativo == nil || *doc.Ativo,
	}
	c.Documento = lo.EmptyableToPtr(digitos(doc.Documento))
	return c, nil
}

func digitos(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}

// converterAssinatura requires the owning cliente; a contract without one is
// unusable for billing.
func converterAssinatura(raw json.RawMessage) (*model.Assinatura, error) {
	var doc assinaturaLegada
	if err := decodificar(raw, &doc); err != nil {
		return nil, err
	}
	if strings.TrimSpace(doc.ID) == "" {
		return nil, errors.New("documento sem id")
	}
	cliente := refLegada(ColecaoClientes, doc.ClienteID)
	if cliente == nil {
		return nil, fmt.Errorf("assinatura %s sem cliente", doc.ID)
	}
	tipo := model.NormalizarTipo(doc.Tipo)
	if tipo == "" {
		return nil, fmt.Errorf("assinatura %s: tipo %q desconhecido", doc.ID, doc.Tipo)
	}
	valor, err := valorDe(doc.Valor)
	if err != nil {
		valor = decimal.Zero
	}

	a := &model.Assinatura{
		ID:             IDLegado(ColecaoAssinaturas, doc.ID),
		ClienteID:      *cliente,
		Tipo:           tipo,
		Valor:          valor,
		NumeroContrato: lo.EmptyableToPtr(strings.TrimSpace(doc.NumeroContrato)),
		Titular:        lo.EmptyableToPtr(strings.TrimSpace(doc.Titular)),
		Documento:      lo.EmptyableToPtr(digitos(doc.Documento)),
		Endereco:       lo.EmptyableToPtr(strings.TrimSpace(doc.Endereco)),
		Bairro:         lo.EmptyableToPtr(strings.TrimSpace(doc.Bairro)),
		Cidade:         lo.EmptyableToPtr(strings.TrimSpace(doc.Cidade)),
		UF:             lo.EmptyableToPtr(strings.ToUpper(strings.TrimSpace(doc.UF))),
		CEP:            lo.EmptyableToPtr(digitos(doc.CEP)),
		Ativo:          doc.Ativo == nil || *doc.Ativo,
		Observacoes:    lo.EmptyableToPtr(doc.Observacoes),
	}
	if venc, err := ciclo.Normalizar(doc.LastDueDateGenerated); err == nil {
		a.UltimoVencimentoGerado = &venc
	}
	return a, nil
}

func converterCobranca(raw json.RawMessage) (*model.Cobranca, error) {
	var doc cobrancaLegada
	if err := decodificar(raw, &doc); err != nil {
		return nil, err
	}
	if strings.TrimSpace(doc.ID) == "" {
		return nil, errors.New("documento sem id")
	}
	tipo := model.NormalizarTipo(doc.Tipo)
	if tipo == "" {
		return nil, fmt.Errorf("cobrança %s: tipo %q desconhecido", doc.ID, doc.Tipo)
	}
	valor, err := valorDe(doc.Valor)
	if err != nil {
		return nil, fmt.Errorf("cobrança %s: valor: %w", doc.ID, err)
	}

	c := &model.Cobranca{
		ID:                    IDLegado(ColecaoCobrancas, doc.ID),
		ClienteID:             refLegada(ColecaoClientes, doc.ClienteID),
		ContratoID:            refLegada(ColecaoAssinaturas, doc.ContratoID),
		Tipo:                  tipo,
		Valor:                 valor,
		FormaPagamento:        lo.EmptyableToPtr(strings.ToLower(strings.TrimSpace(doc.FormaPagamento))),
		GeradaAutomaticamente: doc.GeradaAutomaticamente,
		CobrancaOrigemID:      refLegada(ColecaoCobrancas, doc.CobrancaOrigemID),
		AnoReferencia:         doc.AnoReferencia,
		MesReferencia:         doc.MesReferencia,
	}

	if venc, err := ciclo.Normalizar(doc.DataVencimento); err == nil {
		c.DataVencimento = &venc
	} else if texto, ok := doc.DataVencimento.(string); ok && strings.TrimSpace(texto) != "" {
		// kept verbatim; baixa falls back to it
		c.VencimentoTexto = lo.ToPtr(strings.TrimSpace(texto))
	}
	if c.AnoReferencia == 0 || c.MesReferencia < 1 || c.MesReferencia > 12 {
		if c.DataVencimento == nil {
			return nil, fmt.Errorf("cobrança %s sem vencimento nem referência", doc.ID)
		}
		c.AnoReferencia, c.MesReferencia = ciclo.Referencia(*c.DataVencimento)
	}

	if pago, err := ciclo.Normalizar(doc.DataPagamento); err == nil {
		c.DataPagamento = &pago
	}
	c.Status = strings.ToUpper(strings.TrimSpace(doc.Status))
	if c.Status != model.StatusPago && !model.StatusAberto(c.Status) {
		c.Status = lo.Ternary(c.DataPagamento != nil, model.StatusPago, model.StatusPendente)
	}
	if v, err := valorDe(doc.ValorPago); err == nil {
		c.ValorPago = &v
	}
	if v, err := valorDe(doc.Juros); err == nil {
		c.Juros = &v
	}

	for _, ev := range doc.Historico {
		em, err := instante(ev.Data)
		if err != nil {
			continue
		}
		c.RegistrarEvento(strings.ToUpper(ev.Tipo), ev.Usuario, ev.Detalhes, em)
	}
	return c, nil
}

func converterTvBox(raw json.RawMessage) (*model.TvBoxAssinatura, error) {
	var doc tvboxLegada
	if err := decodificar(raw, &doc); err != nil {
		return nil, err
	}
	if strings.TrimSpace(doc.ID) == "" {
		return nil, errors.New("documento sem id")
	}
	if strings.TrimSpace(doc.Login) == "" {
		return nil, fmt.Errorf("assinatura %s sem login", doc.ID)
	}

	a := &model.TvBoxAssinatura{
		ID:          IDLegado(ColecaoTvBox, doc.ID),
		Login:       strings.TrimSpace(doc.Login),
		Senha:       doc.Senha,
		Slot1:       slotLegado(doc.Equipamento1),
		Slot2:       slotLegado(doc.Equipamento2),
		Ativo:       doc.Ativo == nil || *doc.Ativo,
		Observacoes: lo.EmptyableToPtr(doc.Observacoes),
	}
	if data, err := ciclo.Normalizar(doc.DataRenovacao); err == nil {
		a.DataRenovacao = &data
	}

	dia, ok := inteiro(doc.DiaRenovacao)
	if !ok && a.DataRenovacao != nil {
		dia = a.DataRenovacao.Day()
	}
	if dia < 1 || dia > 31 {
		return nil, fmt.Errorf("assinatura %s: dia de renovação inválido", doc.ID)
	}
	a.DiaRenovacao = dia
	return a, nil
}

func slotLegado(e equipamentoLegado) model.SlotEquipamento {
	return model.SlotEquipamento{
		Identificador: lo.EmptyableToPtr(strings.TrimSpace(e.Identificador)),
		ClienteID:     refLegada(ColecaoClientes, e.ClienteID),
	}
}

func decodificar(raw json.RawMessage, dest any) error {
	dec := json.NewDecoder(strings.NewReader(string(raw)))
	dec.UseNumber()
	if err := dec.Decode(dest); err != nil {
		return fmt.Errorf("documento ilegível: %w", err)
	}
	return nil
}

// valorDe accepts numbers and the "R$ 1.234,56" / "89.90" strings typed by hand.
func valorDe(v any) (decimal.Decimal, error) {
	switch x := v.(type) {
	case nil:
		return decimal.Zero, errors.New("ausente")
	case json.Number:
		return decimal.NewFromString(x.String())
	case float64:
		return decimal.NewFromFloat(x), nil
	case string:
		s := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(x), "R$"))
		if strings.Contains(s, ",") {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.ReplaceAll(s, ",", ".")
		}
		if s == "" {
			return decimal.Zero, errors.New("ausente")
		}
		return decimal.NewFromString(s)
	}
	return decimal.Zero, fmt.Errorf("tipo %T", v)
}

func inteiro(v any) (int, bool) {
	switch x := v.(type) {
	case json.Number:
		n, err := x.Int64()
		return int(n), err == nil
	case float64:
		return int(x), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(x))
		return n, err == nil
	}
	return 0, false
}

// instante keeps the time of day of history entries; ciclo.Normalizar would
// pin it to noon.
func instante(v any) (time.Time, error) {
	switch x := v.(type) {
	case string:
		if t, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(x)); err == nil {
			return t.UTC(), nil
		}
	case map[string]any:
		for _, k := range []string{"seconds", "_seconds"} {
			if n, ok := x[k].(json.Number); ok {
				if sec, err := n.Int64(); err == nil {
					return time.Unix(sec, 0).UTC(), nil
				}
			}
		}
	}
	return ciclo.Normalizar(v)
}
