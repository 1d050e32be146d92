package handler

import (
	"net/http"

	"mvsat/internal/dto"
	"mvsat/internal/service"

	"github.com/gin-gonic/gin"
)

type AssinaturasHandler struct{ svc service.AssinaturaService }

func NewAssinaturasHandler(svc service.AssinaturaService) *AssinaturasHandler {
	return &AssinaturasHandler{svc: svc}
}

// Criar godoc
// @Summary      Cadastrar assinatura (contrato) de um cliente
// @Tags         assinaturas
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body     dto.CriarAssinaturaRequest true "Dados do contrato"
// @Success      201  {object} dto.AssinaturaResponse
// @Failure      404  {object} apierror.APIError "Cliente inexistente"
// @Router       /v1/assinaturas [post]
func (h *AssinaturasHandler) Criar(c *gin.Context) {
	var req dto.CriarAssinaturaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Criar(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *AssinaturasHandler) Listar(c *gin.Context) {
	filter := dto.AssinaturaFilter{
		ClienteID:     c.Query("cliente_id"),
		SomenteAtivas: c.Query("ativas") == "true",
		Page:          queryInt(c, "page", 1),
		Limit:         queryInt(c, "limit", 20),
	}
	resp, err := h.svc.Listar(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AssinaturasHandler) ObterPorID(c *gin.Context) {
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

func (h *AssinaturasHandler) Atualizar(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var req dto.AtualizarAssinaturaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Atualizar(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AssinaturasHandler) Desativar(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	if err := h.svc.Desativar(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
