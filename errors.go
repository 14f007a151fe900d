/*
Copyright © 2026 eyassino
*/

package main

import (
	"errors"
	"fmt"
	"log"
	"time"
)

func logf(cfg *Config, format string, args ...any) {
	if !cfg.verbose {
		return
	}

	log.Printf("%s | "+format, append([]any{time.Now().Format(logDate)}, args...)...)
}

// ErrorKind classifies engine errors so the transport layer can report
// them back to the requesting client without inspecting messages.
type ErrorKind string

const (
	ErrValidation    ErrorKind = "validation"
	ErrNotFound      ErrorKind = "notFound"
	ErrAuthorization ErrorKind = "authorization"
	ErrState         ErrorKind = "state"
	ErrInternal      ErrorKind = "internal"
)

// GameError is the only error type crossing the engine boundary. It is
// delivered to the requester alone and never mutates room state.
type GameError struct {
	Kind    ErrorKind
	Message string
}

func (e *GameError) Error() string {
	return e.Message
}

func validationError(format string, args ...any) error {
	return &GameError{Kind: ErrValidation, Message: fmt.Sprintf(format, args...)}
}

func notFoundError(format string, args ...any) error {
	return &GameError{Kind: ErrNotFound, Message: fmt.Sprintf(format, args...)}
}

func authorizationError(format string, args ...any) error {
	return &GameError{Kind: ErrAuthorization, Message: fmt.Sprintf(format, args...)}
}

func stateError(format string, args ...any) error {
	return &GameError{Kind: ErrState, Message: fmt.Sprintf(format, args...)}
}

func errorKind(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var ge *GameError
	if errors.As(err, &ge) {
		return ge.Kind
	}
	return ErrInternal
}
