package infrastructure

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/vitas-brc20/dicer/models"
)

type publishedMessage struct {
	Subject string
	Data    []byte
	MsgID   string
}

// recordingPublisher captures published messages
type recordingPublisher struct {
	mu       sync.Mutex
	messages []publishedMessage
	err      error
}

func (p *recordingPublisher) Publish(ctx context.Context, subject string, data []byte, msgID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.messages = append(p.messages, publishedMessage{Subject: subject, Data: data, MsgID: msgID})
	return nil
}

func (p *recordingPublisher) Messages() []publishedMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]publishedMessage(nil), p.messages...)
}

type mockTicketService struct {
	mock.Mock
}

func (m *mockTicketService) HandlePayment(ctx context.Context, payment models.Payment) (*models.TicketBalance, error) {
	args := m.Called(ctx, payment)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TicketBalance), args.Error(1)
}

func (m *mockTicketService) Credit(ctx context.Context, account string, count int64) (*models.TicketBalance, error) {
	args := m.Called(ctx, account, count)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TicketBalance), args.Error(1)
}

func (m *mockTicketService) Debit(ctx context.Context, account string, count int64) (*models.TicketBalance, error) {
	args := m.Called(ctx, account, count)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TicketBalance), args.Error(1)
}

func (m *mockTicketService) GetBalance(ctx context.Context, account string) (int64, error) {
	args := m.Called(ctx, account)
	return args.Get(0).(int64), args.Error(1)
}
