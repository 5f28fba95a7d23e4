package services

import (
	"context"

	"lovefindme/contract"
	"lovefindme/domain"
	"lovefindme/search"
)

// IChatService is the surface the transports (websocket gateway, REST
// handlers) program against.
type IChatService interface {
	Send(ctx context.Context, sender, receiver domain.UserID, content string) (domain.Message, error)
	Block(actor, target domain.UserID) error
	Accept(actor, target domain.UserID) error
	History(a, b domain.UserID) ([]domain.Message, error)
	DeleteConversation(a, b domain.UserID) error
	DeleteMessage(id domain.MessageID) error
	Search(ctx context.Context, a, b domain.UserID, terms string, limit int) ([]domain.MessageID, error)
}

type ChatService struct {
	router contract.IRouter
	index  *search.Index
}

func NewChatService(router contract.IRouter, index *search.Index) *ChatService {
	return &ChatService{router: router, index: index}
}

func (s *ChatService) Send(ctx context.Context, sender, receiver domain.UserID, content string) (domain.Message, error) {
	return s.router.Send(ctx, sender, receiver, content)
}

func (s *ChatService) Block(actor, target domain.UserID) error {
	return s.router.Block(actor, target)
}

func (s *ChatService) Accept(actor, target domain.UserID) error {
	return s.router.Accept(actor, target)
}

func (s *ChatService) History(a, b domain.UserID) ([]domain.Message, error) {
	return s.router.Fetch(a, b)
}

func (s *ChatService) DeleteConversation(a, b domain.UserID) error {
	return s.router.DeleteConversation(a, b)
}

func (s *ChatService) DeleteMessage(id domain.MessageID) error {
	return s.router.DeleteMessage(id)
}

func (s *ChatService) Search(ctx context.Context, a, b domain.UserID, terms string, limit int) ([]domain.MessageID, error) {
	return s.index.Search(ctx, a, b, terms, limit)
}
