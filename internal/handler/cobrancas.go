package handler

import (
	"net/http"

	"mvsat/internal/dto"
	"mvsat/internal/service"

	"github.com/gin-gonic/gin"
)

type CobrancasHandler struct{ svc service.CobrancaService }

func NewCobrancasHandler(svc service.CobrancaService) *CobrancasHandler {
	return &CobrancasHandler{svc: svc}
}

// Criar godoc
// @Summary      Criar cobrança
// @Tags         cobrancas
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.CriarCobrancaRequest true "Cobrança"
// @Success      201  {object} dto.CobrancaResponse
// @Failure      422  {object} apierror.APIError
// @Router       /v1/cobrancas [post]
func (h *CobrancasHandler) Criar(c *gin.Context) {
	var req dto.CriarCobrancaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Criar(c.Request.Context(), req, usuario(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Listar godoc
// @Summary      Listar cobranças
// @Tags         cobrancas
// @Produce      json
// @Security     BearerAuth
// @Param        status     query string false "PENDENTE | EM_DIAS | VENCIDO | PAGO"
// @Param        cliente_id query string false "UUID do cliente"
// @Param        contrato_id query string false "UUID da assinatura"
// @Param        tipo       query string false "SKY | TV_BOX | COMBO"
// @Param        ano        query int    false "Ano de referência"
// @Param        mes        query int    false "Mês de referência"
// @Param        page       query int    false "Página (default 1)"
// @Param        limit      query int    false "Registros por página (default 20)"
// @Success      200        {object} dto.CobrancaListResponse
// @Router       /v1/cobrancas [get]
func (h *CobrancasHandler) Listar(c *gin.Context) {
	filter := dto.CobrancaFilter{
		Status:     c.Query("status"),
		ClienteID:  c.Query("cliente_id"),
		ContratoID: c.Query("contrato_id"),
		Tipo:       c.Query("tipo"),
		Ano:        queryInt(c, "ano", 0),
		Mes:        queryInt(c, "mes", 0),
		Page:       queryInt(c, "page", 1),
		Limit:      queryInt(c, "limit", 20),
	}
	resp, err := h.svc.Listar(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CobrancasHandler) ObterPorID(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	resp, err := h.svc.ObterPorID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CobrancasHandler) Excluir(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	if err := h.svc.Excluir(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Baixar godoc
// @Summary      Dar baixa em uma cobrança
// @Description  Registra o pagamento e gera a cobrança do próximo ciclo quando ainda não existe.
// @Tags         cobrancas
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path     string           true "UUID da cobrança"
// @Param        body body     dto.BaixaRequest true "Pagamento"
// @Success      200  {object} dto.BaixaResponse
// @Failure      409  {object} apierror.APIError
// @Router       /v1/cobrancas/{id}/baixa [post]
func (h *CobrancasHandler) Baixar(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var req dto.BaixaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Baixar(c.Request.Context(), id, req, usuario(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Reabrir godoc
// @Summary      Reabrir uma cobrança paga
// @Description  Desfaz a baixa e remove a cobrança automática do próximo ciclo se ainda não foi paga.
// @Tags         cobrancas
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path     string                true "UUID da cobrança"
// @Param        body body     dto.ReaberturaRequest true "Novo status"
// @Success      200  {object} dto.ReaberturaResponse
// @Failure      422  {object} apierror.APIError
// @Router       /v1/cobrancas/{id}/reabrir [post]
func (h *CobrancasHandler) Reabrir(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var req dto.ReaberturaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Reabrir(c.Request.Context(), id, req, usuario(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
