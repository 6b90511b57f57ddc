package domain

import (
	"errors"
	"fmt"
)

// Taxonomia de errores del nucleo. Los handlers HTTP los traducen a codigos.
var (
	// ErrInvalidAnswer: valor fuera de 1-5 u otro input malformado. Sin retry.
	ErrInvalidAnswer = errors.New("answer value out of range")
	// ErrNoPendingQuestion: no hay pregunta activa para responder.
	ErrNoPendingQuestion = errors.New("no pending question")
	// ErrAssessmentCompleted: el inventario ya se agoto; estado terminal.
	ErrAssessmentCompleted = errors.New("assessment already completed")
	// ErrProfileNotReady: aun no hay firma disponible para lookups de cache.
	ErrProfileNotReady = errors.New("personality profile not ready")
	// ErrNotOwner: el caller no es dueno del personaje objetivo.
	ErrNotOwner = errors.New("character not owned by caller")
	// ErrQuotaExceeded: allotment gratuito agotado para el tipo de contenido.
	ErrQuotaExceeded = errors.New("content quota exceeded")
	// ErrCorruptedProgress: el registro persistido no cumple la forma esperada.
	// Se maneja localmente reseteando el registro, nunca llega al caller.
	ErrCorruptedProgress = errors.New("corrupted assessment progress")
	// ErrCharacterNotFound: personaje inexistente.
	ErrCharacterNotFound = errors.New("character not found")
)

// GenerationError envuelve el fallo definitivo del pipeline tras agotar retries.
type GenerationError struct {
	ContentType string
	Attempts    int
	Cause       error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation failed for %s after %d attempts: %v", e.ContentType, e.Attempts, e.Cause)
}

func (e *GenerationError) Unwrap() error { return e.Cause }
