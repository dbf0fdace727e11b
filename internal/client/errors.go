package client

import (
	"errors"
	"fmt"
	"strings"
)

// ConnectionError wraps transport-level failures (refused, DNS, timeout).
type ConnectionError struct {
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connection failed: %v", e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// APIError is a non-2xx response decoded from the server's error envelope.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s (%d %s)", e.Message, e.Status, e.Code)
}

// FriendlyMessage maps an error to an operator-facing pt-BR message. Known
// substrings get specific text; everything else falls back to a generic one.
func FriendlyMessage(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, ErrImportTimeout) {
		return "Import demorando mais que o esperado. Verifique o status manualmente."
	}

	var connErr *ConnectionError
	if errors.As(err, &connErr) {
		return "Falha de conexão com o servidor. Tente novamente."
	}

	msg := err.Error()
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		msg = apiErr.Message
		if apiErr.Status == 401 {
			return "Passcode inválido."
		}
		if apiErr.Status == 429 {
			return "Muitas requisições. Aguarde um momento e tente de novo."
		}
	}

	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "not configured"), strings.Contains(lower, "não configurado"):
		return "Serviço não configurado no servidor."
	case strings.Contains(msg, "429"), strings.Contains(lower, "rate limit"):
		return "Muitas requisições. Aguarde um momento e tente de novo."
	default:
		return "Erro ao falar com o servidor: " + msg
	}
}
