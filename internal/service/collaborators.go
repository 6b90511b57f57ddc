package service

import "context"

// Colaboradores externos al nucleo. Solo contratos; las implementaciones
// reales (calendario, chat del companion) viven en otros servicios.

// ScheduleEvent es una entrada de agenda del usuario.
type ScheduleEvent struct {
	Title    string `json:"title"`
	StartsAt string `json:"starts_at"`
}

// ScheduleProvider responde consultas de agenda (DataQuery).
type ScheduleProvider interface {
	UpcomingEvents(ctx context.Context, userID string) ([]ScheduleEvent, error)
}

// ChatProvider genera la respuesta conversacional del companion (FreeChat).
type ChatProvider interface {
	Reply(ctx context.Context, userID, characterID, message string) (string, error)
}

type disabledScheduleProvider struct{ reason string }

// NewDisabledScheduleProvider devuelve un provider que responde vacio.
func NewDisabledScheduleProvider(reason string) ScheduleProvider {
	return &disabledScheduleProvider{reason: reason}
}

func (p *disabledScheduleProvider) UpcomingEvents(ctx context.Context, userID string) ([]ScheduleEvent, error) {
	return nil, nil
}

type disabledChatProvider struct{ reply string }

// NewDisabledChatProvider devuelve un provider con respuesta fija.
func NewDisabledChatProvider(reply string) ChatProvider {
	return &disabledChatProvider{reply: reply}
}

func (p *disabledChatProvider) Reply(ctx context.Context, userID, characterID, message string) (string, error) {
	return p.reply, nil
}
