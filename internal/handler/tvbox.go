package handler

import (
	"net/http"

	"mvsat/internal/dto"
	"mvsat/internal/service"

	"github.com/gin-gonic/gin"
)

type TvBoxHandler struct{ svc service.TvBoxService }

func NewTvBoxHandler(svc service.TvBoxService) *TvBoxHandler { return &TvBoxHandler{svc: svc} }

func (h *TvBoxHandler) Criar(c *gin.Context) {
	var req dto.CriarTvBoxRequest
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

func (h *TvBoxHandler) Listar(c *gin.Context) {
	resp, err := h.svc.Listar(c.Request.Context(), c.Query("ativas") == "true")
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *TvBoxHandler) ObterPorID(c *gin.Context) {
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

func (h *TvBoxHandler) Atualizar(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var req dto.AtualizarTvBoxRequest
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

// Renovar godoc
// @Summary      Renovar assinatura TV box
// @Description  Cobra a taxa da competência atual e avança a data de renovação. Uma vez por competência.
// @Tags         tvbox
// @Produce      json
// @Security     BearerAuth
// @Param        id  path     string true "UUID da assinatura"
// @Success      200 {object} dto.RenovacaoResponse
// @Failure      409 {object} apierror.APIError
// @Router       /v1/tvbox/{id}/renovar [post]
func (h *TvBoxHandler) Renovar(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	resp, err := h.svc.Renovar(c.Request.Context(), id, usuario(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *TvBoxHandler) ListarPagamentos(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	resp, err := h.svc.ListarPagamentos(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
