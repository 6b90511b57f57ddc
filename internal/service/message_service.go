package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"companion-llm/internal/domain"
)

// MessageService es la puerta de entrada de texto libre: clasifica la
// intencion y rutea al subsistema que corresponda.
type MessageService struct {
	assessment *AssessmentService
	content    *ContentService
	schedule   ScheduleProvider
	chat       ChatProvider
	logger     *zap.Logger
}

func NewMessageService(
	assessment *AssessmentService,
	content *ContentService,
	schedule ScheduleProvider,
	chat ChatProvider,
	logger *zap.Logger,
) *MessageService {
	return &MessageService{
		assessment: assessment,
		content:    content,
		schedule:   schedule,
		chat:       chat,
		logger:     logger,
	}
}

// MessageReply es la respuesta ruteada de un mensaje entrante.
type MessageReply struct {
	Intent   string          `json:"intent"`
	Text     string          `json:"text,omitempty"`
	Answer   *SubmitResult   `json:"answer,omitempty"`
	Content  *ContentResult  `json:"content,omitempty"`
	Schedule []ScheduleEvent `json:"schedule,omitempty"`
}

// Handle clasifica el mensaje y lo rutea. Una respuesta numerica alimenta la
// maquina de estados; un pedido de tema va al cache de contenido; una consulta
// de agenda va al colaborador externo; low-information recibe un re-prompt.
func (s *MessageService) Handle(ctx context.Context, userID, characterID, message string) (MessageReply, error) {
	intent, value := ClassifyIntent(message)
	reply := MessageReply{Intent: intent.String()}

	switch intent {
	case domain.IntentNumericAnswer:
		result, err := s.assessment.SubmitAnswer(ctx, userID, characterID, value)
		if err != nil {
			if errors.Is(err, domain.ErrNoPendingQuestion) || errors.Is(err, domain.ErrAssessmentCompleted) {
				// Un digito suelto fuera de evaluacion se trata como charla.
				return s.freeChat(ctx, userID, characterID, message, reply)
			}
			return MessageReply{}, err
		}
		reply.Answer = &result
		return reply, nil

	case domain.IntentTopicRequest:
		result, err := s.content.FetchOrGenerate(ctx, userID, characterID, domain.ContentTypeGroupChat, nil)
		if err != nil {
			return MessageReply{}, err
		}
		reply.Content = &result
		return reply, nil

	case domain.IntentDataQuery:
		events, err := s.schedule.UpcomingEvents(ctx, userID)
		if err != nil {
			return MessageReply{}, fmt.Errorf("schedule lookup: %w", err)
		}
		reply.Schedule = events
		if len(events) == 0 {
			reply.Text = "Nothing on your schedule."
		}
		return reply, nil

	case domain.IntentLowInformation:
		reply.Text = "Tell me a bit more?"
		return reply, nil
	}

	return s.freeChat(ctx, userID, characterID, message, reply)
}

func (s *MessageService) freeChat(ctx context.Context, userID, characterID, message string, reply MessageReply) (MessageReply, error) {
	reply.Intent = domain.IntentFreeChat.String()
	text, err := s.chat.Reply(ctx, userID, characterID, message)
	if err != nil {
		return MessageReply{}, fmt.Errorf("chat reply: %w", err)
	}
	reply.Text = text
	return reply, nil
}
