package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"mvsat/internal/dto"
	"mvsat/internal/middleware"
	"mvsat/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() { gin.SetMode(gin.TestMode) }

// stubCobrancas returns err from every call and records what it received.
type stubCobrancas struct {
	service.CobrancaService
	err     error
	filtro  dto.CobrancaFilter
	usuario string
}

func (s *stubCobrancas) Listar(_ context.Context, f dto.CobrancaFilter) (*dto.CobrancaListResponse, error) {
	s.filtro = f
	if s.err != nil {
		return nil, s.err
	}
	return &dto.CobrancaListResponse{Page: f.Page, Limit: f.Limit}, nil
}

func (s *stubCobrancas) Baixar(_ context.Context, id uuid.UUID, _ dto.BaixaRequest, usuario string) (*dto.BaixaResponse, error) {
	s.usuario = usuario
	if s.err != nil {
		return nil, s.err
	}
	return &dto.BaixaResponse{Cobranca: dto.CobrancaResponse{ID: id.String()}}, nil
}

func motor(h *CobrancasHandler) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.ErrorHandler())
	r.GET("/cobrancas", h.Listar)
	r.POST("/cobrancas/:id/baixa", func(c *gin.Context) {
		c.Set(middleware.ClaimsKey, &middleware.JWTClaims{Email: "fin@mvsat.test"})
		c.Next()
	}, h.Baixar)
	return r
}

func chamar(r http.Handler, metodo, caminho, corpo string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(metodo, caminho, strings.NewReader(corpo))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRespondError_Mapeamento(t *testing.T) {
	casos := []struct {
		err    error
		status int
	}{
		{fmt.Errorf("%w: cobrança x", service.ErrNaoEncontrado), http.StatusNotFound},
		{fmt.Errorf("%w: valor", service.ErrValidacao), http.StatusUnprocessableEntity},
		{fmt.Errorf("%w: sem data", service.ErrVencimentoInvalido), http.StatusUnprocessableEntity},
		{fmt.Errorf("%w: paga", service.ErrConflito), http.StatusConflict},
		{fmt.Errorf("%w: 2025-01", service.ErrCicloJaQuitado), http.StatusConflict},
		{fmt.Errorf("%w", service.ErrCredenciais), http.StatusUnauthorized},
		{errors.New("connection reset"), http.StatusInternalServerError},
	}
	for _, c := range casos {
		t.Run(c.err.Error(), func(t *testing.T) {
			r := motor(NewCobrancasHandler(&stubCobrancas{err: c.err}))
			w := chamar(r, http.MethodPost, "/cobrancas/"+uuid.NewString()+"/baixa", `{"forma_pagamento":"pix"}`)
			assert.Equal(t, c.status, w.Code)
			if c.status == http.StatusInternalServerError {
				assert.NotContains(t, w.Body.String(), "connection reset")
			}
		})
	}
}

func TestBaixar_UsuarioDoToken(t *testing.T) {
	stub := &stubCobrancas{}
	r := motor(NewCobrancasHandler(stub))
	w := chamar(r, http.MethodPost, "/cobrancas/"+uuid.NewString()+"/baixa", `{"forma_pagamento":"pix"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "fin@mvsat.test", stub.usuario)
}

func TestBaixar_CorpoInvalido(t *testing.T) {
	r := motor(NewCobrancasHandler(&stubCobrancas{}))

	w := chamar(r, http.MethodPost, "/cobrancas/"+uuid.NewString()+"/baixa", `{"forma_pagamento":"cheque"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = chamar(r, http.MethodPost, "/cobrancas/"+uuid.NewString()+"/baixa", `{`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = chamar(r, http.MethodPost, "/cobrancas/123/baixa", `{"forma_pagamento":"pix"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListar_Filtros(t *testing.T) {
	stub := &stubCobrancas{}
	r := motor(NewCobrancasHandler(stub))
	w := chamar(r, http.MethodGet, "/cobrancas?status=PAGO&tipo=sky&ano=2025&mes=2&page=3&limit=abc", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, dto.CobrancaFilter{Status: "PAGO", Tipo: "sky", Ano: 2025, Mes: 2, Page: 3, Limit: 20}, stub.filtro)
}
