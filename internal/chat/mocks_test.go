package chat

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/storelink/chat-server-go/internal/model"
	"github.com/storelink/chat-server-go/internal/push"
)

// Mock message store

type mockMessageStore struct {
	mock.Mock
}

func (m *mockMessageStore) Create(ctx context.Context, params model.CreateMessageParams) (*model.Message, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Message), args.Error(1)
}

func (m *mockMessageStore) GetByID(ctx context.Context, id int64) (*model.Message, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Message), args.Error(1)
}

func (m *mockMessageStore) Update(ctx context.Context, msg *model.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *mockMessageStore) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockMessageStore) QueryByParticipants(ctx context.Context, userA, userB string, pageIndex, pageSize int) ([]model.Message, int, error) {
	args := m.Called(ctx, userA, userB, pageIndex, pageSize)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]model.Message), args.Int(1), args.Error(2)
}

func (m *mockMessageStore) QueryUnreadFor(ctx context.Context, userID, peerID string) ([]model.Message, error) {
	args := m.Called(ctx, userID, peerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Message), args.Error(1)
}

func (m *mockMessageStore) QueryUnreceivedFor(ctx context.Context, userID string) ([]model.Message, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Message), args.Error(1)
}

func (m *mockMessageStore) LastMessageBetween(ctx context.Context, userA, userB string) (*model.Message, error) {
	args := m.Called(ctx, userA, userB)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Message), args.Error(1)
}

func (m *mockMessageStore) UnreadCountFor(ctx context.Context, viewerID, peerID string) (int, error) {
	args := m.Called(ctx, viewerID, peerID)
	return args.Int(0), args.Error(1)
}

// Mock user directory

type mockUserDirectory struct {
	mock.Mock
}

func (m *mockUserDirectory) FindByID(ctx context.Context, id string) (*model.UserProfile, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.UserProfile), args.Error(1)
}

func (m *mockUserDirectory) FindByUsername(ctx context.Context, username string) (*model.UserProfile, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.UserProfile), args.Error(1)
}

func (m *mockUserDirectory) UsersWithAnyOfRoles(ctx context.Context, roles []string) ([]model.UserProfile, error) {
	args := m.Called(ctx, roles)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.UserProfile), args.Error(1)
}

// Recording connection

type testConn struct {
	id     string
	mu     sync.Mutex
	events []push.Event
}

func newTestConn(id string) *testConn {
	return &testConn{id: id}
}

func (c *testConn) ID() string { return c.id }

func (c *testConn) Deliver(ev push.Event) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, ev)
	return true
}

func (c *testConn) eventsOfType(eventType string) []push.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []push.Event
	for _, ev := range c.events {
		if ev.Type == eventType {
			out = append(out, ev)
		}
	}
	return out
}

func (c *testConn) allEvents() []push.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]push.Event(nil), c.events...)
}
