package handler

import (
	"net/http"

	"mvsat/internal/dto"
	"mvsat/internal/service"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct{ svc service.AuthService }

func NewAuthHandler(svc service.AuthService) *AuthHandler { return &AuthHandler{svc: svc} }

// Login godoc
// @Summary Login de funcionário
// @Tags auth
// @Accept json
// @Produce json
// @Param body body dto.LoginRequest true "Credenciais"
// @Success 200 {object} dto.LoginResponse
// @Failure 401 {object} apierror.APIError
// @Router /v1/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if !bindAndValidate(c, &req) {
		return
	}

	resp, err := h.svc.Login(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AuthHandler) Refresh(c *gin.Context) {
	var req dto.RefreshRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ── Funcionarios Handler ─────────────────────────────────────────────────────

type FuncionariosHandler struct{ svc service.AuthService }

func NewFuncionariosHandler(svc service.AuthService) *FuncionariosHandler {
	return &FuncionariosHandler{svc: svc}
}

// Crear godoc
// @Summary Criar funcionário
// @Tags funcionarios
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.CriarFuncionarioRequest true "Dados do funcionário"
// @Success 201 {object} dto.FuncionarioResponse
// @Failure 409 {object} apierror.APIError
// @Router /v1/funcionarios [post]
func (h *FuncionariosHandler) Criar(c *gin.Context) {
	var req dto.CriarFuncionarioRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CriarFuncionario(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *FuncionariosHandler) Listar(c *gin.Context) {
	resp, err := h.svc.ListarFuncionarios(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *FuncionariosHandler) Desativar(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	if err := h.svc.DesativarFuncionario(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
