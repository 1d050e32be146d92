package service

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// Error kinds returned by every service. Handlers map them to HTTP statuses;
// the message shown to the user is the wrapping error's text.
var (
	ErrNaoEncontrado      = errors.New("registro não encontrado")
	ErrValidacao          = errors.New("dados inválidos")
	ErrConflito           = errors.New("operação em conflito com o estado atual")
	ErrCicloJaQuitado     = errors.New("ciclo já quitado")
	ErrVencimentoInvalido = errors.New("vencimento ausente ou ilegível")
	ErrCredenciais        = errors.New("credenciais inválidas")
)

type falhaErr struct {
	kind error
	msg  string
}

func (e *falhaErr) Error() string { return e.msg }
func (e *falhaErr) Unwrap() error { return e.kind }

// falha builds an error of the given kind with a user-facing message.
func falha(kind error, format string, args ...any) error {
	return &falhaErr{kind: kind, msg: fmt.Sprintf(format, args...)}
}

// naoEncontrado turns gorm's not-found into ErrNaoEncontrado and passes
// every other error through.
func naoEncontrado(err error, format string, args ...any) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return falha(ErrNaoEncontrado, format, args...)
	}
	return err
}
