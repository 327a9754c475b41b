package calculator

import (
	"fmt"
	"strings"
)

// ValidationError indica parâmetro ausente ou inválido (HTTP 422).
type ValidationError struct {
	Param  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Param, e.Reason)
}

// YesNo lê um parâmetro que só aceita "yes" ou "no".
func (p Params) YesNo(name string) (bool, error) {
	raw, ok := p[name]
	if !ok {
		return false, &ValidationError{Param: name, Reason: "must be 'yes' or 'no'"}
	}
	s, ok := raw.(string)
	if !ok {
		return false, &ValidationError{Param: name, Reason: "must be 'yes' or 'no'"}
	}
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes":
		return true, nil
	case "no":
		return false, nil
	}
	return false, &ValidationError{Param: name, Reason: "must be 'yes' or 'no'"}
}
