package service

import (
	"strings"

	"companion-llm/internal/domain"
)

// Niveles discretos por rasgo. Los cortes son inclusivos por arriba:
// v <= 2.0 -> L, 2.0 < v <= 3.0 -> M, v > 3.0 -> H.
const (
	levelLow  = "L"
	levelMid  = "M"
	levelHigh = "H"
)

// quantizeLevel discretiza un valor continuo de rasgo.
// Un valor faltante (cero) cuenta como 3.0 para que el lookup de cache
// siempre sea posible.
func quantizeLevel(v float64) string {
	if v == 0 {
		v = 3.0
	}
	switch {
	case v <= 2.0:
		return levelLow
	case v <= 3.0:
		return levelMid
	default:
		return levelHigh
	}
}

// Signature deriva el codigo discreto de un vector de scores, en orden
// O, C, E, A, N. Dos vectores con los mismos niveles producen la misma firma.
// El discriminador opcional (p.ej. tag demografico) se agrega como sufijo.
// Funcion pura, sin efectos.
func Signature(scores domain.TraitScores, discriminator string) string {
	var b strings.Builder
	b.Grow(len(domain.TraitOrder) + len(discriminator) + 1)
	for _, trait := range domain.TraitOrder {
		b.WriteString(quantizeLevel(scores.Get(trait)))
	}
	if discriminator != "" {
		b.WriteByte('_')
		b.WriteString(discriminator)
	}
	return b.String()
}
