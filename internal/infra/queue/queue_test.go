package queue

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/xavierca1/ligue-leads/internal/entity"
	"github.com/xavierca1/ligue-leads/internal/infra/memory"
)

type fakePublisher struct {
	exchange, key string
	msg           amqp.Publishing
	err           error
}

func (f *fakePublisher) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	f.exchange, f.key, f.msg = exchange, key, msg
	return f.err
}

// MockMailer
type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) SendNotification(to, name string, n *entity.Notification) error {
	args := m.Called(to, name, n)
	return args.Error(0)
}

type fakeAcker struct {
	mu     sync.Mutex
	acked  []uint64
	nacked []uint64
}

func (a *fakeAcker) Ack(tag uint64, multiple bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.acked = append(a.acked, tag)
	return nil
}

func (a *fakeAcker) Nack(tag uint64, multiple, requeue bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.nacked = append(a.nacked, tag)
	return nil
}

func (a *fakeAcker) Reject(tag uint64, requeue bool) error {
	return a.Nack(tag, false, requeue)
}

type fakeConsumer struct {
	deliveries chan amqp.Delivery
}

func (c *fakeConsumer) Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error) {
	return c.deliveries, nil
}

func TestPublishNotification(t *testing.T) {
	pub := &fakePublisher{}
	n := entity.NewNotification("admin-1", "📊 Alerta de Fila", "Há 3 leads", entity.NotificationQueueAlert, map[string]any{"queueSize": 3})

	require.NoError(t, NewProducer(pub).PublishNotification(context.Background(), n))

	assert.Equal(t, ExchangeName, pub.exchange)
	assert.Equal(t, RoutingKey, pub.key)
	assert.Equal(t, n.ID, pub.msg.MessageId)
	assert.Equal(t, "queue_alert", pub.msg.Type)
	assert.Equal(t, amqp.Persistent, pub.msg.DeliveryMode)

	var decoded entity.Notification
	require.NoError(t, json.Unmarshal(pub.msg.Body, &decoded))
	assert.Equal(t, "admin-1", decoded.RecipientID)
	assert.EqualValues(t, 3, decoded.Data["queueSize"])
}

func TestPublishNotification_Error(t *testing.T) {
	pub := &fakePublisher{err: amqp.ErrClosed}

	err := NewProducer(pub).PublishNotification(context.Background(), entity.NewNotification("a", "t", "b", entity.NotificationLeadQueued, nil))

	assert.ErrorIs(t, err, amqp.ErrClosed)
}

type workerFixture struct {
	store  *memory.Store
	mailer *MockMailer
	worker *Worker
}

func newWorkerFixture(t *testing.T) *workerFixture {
	t.Helper()
	store := memory.NewStore()
	require.NoError(t, store.Agents().Create(context.Background(), &entity.Agent{
		ID: "admin-1", Name: "Ana", Email: "ana@ligue.com.br", Role: entity.RoleAdmin, IsActive: true,
	}))
	require.NoError(t, store.Agents().Create(context.Background(), &entity.Agent{
		ID: "s-noemail", Name: "Sem Email", Role: entity.RoleSeller, IsActive: true,
	}))
	mailer := new(MockMailer)
	return &workerFixture{
		store:  store,
		mailer: mailer,
		worker: NewWorker(nil, store.Agents(), mailer, store.Notifications()),
	}
}

func (f *workerFixture) body(t *testing.T, n *entity.Notification) []byte {
	t.Helper()
	require.NoError(t, f.store.Notifications().Create(context.Background(), n))
	b, err := json.Marshal(n)
	require.NoError(t, err)
	return b
}

func TestProcess_SendsAndMarksSent(t *testing.T) {
	f := newWorkerFixture(t)
	n := entity.NewNotification("admin-1", "Novo Lead", "De: Maria", entity.NotificationLeadReceived, nil)
	f.mailer.On("SendNotification", "ana@ligue.com.br", "Ana", mock.AnythingOfType("*entity.Notification")).Return(nil).Once()

	require.NoError(t, f.worker.Process(context.Background(), f.body(t, n)))

	f.mailer.AssertExpectations(t)
	stored := f.store.Notifications().ForRecipient("admin-1")
	require.Len(t, stored, 1)
	assert.True(t, stored[0].Sent)
}

func TestProcess_MailerErrorIsReturned(t *testing.T) {
	f := newWorkerFixture(t)
	n := entity.NewNotification("admin-1", "t", "b", entity.NotificationLeadReceived, nil)
	f.mailer.On("SendNotification", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("smtp fora"))

	err := f.worker.Process(context.Background(), f.body(t, n))

	assert.EqualError(t, err, "smtp fora")
	assert.False(t, f.store.Notifications().ForRecipient("admin-1")[0].Sent)
}

func TestProcess_NothingToDeliver(t *testing.T) {
	f := newWorkerFixture(t)

	for _, recipient := range []string{"ghost", "s-noemail"} {
		n := entity.NewNotification(recipient, "t", "b", entity.NotificationLeadAssigned, nil)
		assert.NoError(t, f.worker.Process(context.Background(), f.body(t, n)), recipient)
	}
	f.mailer.AssertNotCalled(t, "SendNotification", mock.Anything, mock.Anything, mock.Anything)
}

func TestProcess_MalformedMessage(t *testing.T) {
	f := newWorkerFixture(t)

	assert.ErrorIs(t, f.worker.Process(context.Background(), []byte("{")), ErrMalformedMessage)
	assert.ErrorIs(t, f.worker.Process(context.Background(), []byte(`{"id":"x"}`)), ErrMalformedMessage)
}

func TestStart_AcksAndNacks(t *testing.T) {
	f := newWorkerFixture(t)
	f.mailer.On("SendNotification", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	acker := &fakeAcker{}
	deliveries := make(chan amqp.Delivery, 2)
	f.worker.Channel = &fakeConsumer{deliveries: deliveries}

	good := f.body(t, entity.NewNotification("admin-1", "t", "b", entity.NotificationQueueAlert, nil))
	deliveries <- amqp.Delivery{Acknowledger: acker, DeliveryTag: 1, Body: good}
	deliveries <- amqp.Delivery{Acknowledger: acker, DeliveryTag: 2, Body: []byte("lixo")}
	close(deliveries)

	err := f.worker.Start(context.Background(), QueueName)

	assert.Error(t, err)
	assert.Equal(t, []uint64{1}, acker.acked)
	assert.Equal(t, []uint64{2}, acker.nacked)
}

func TestStart_StopsOnContextCancel(t *testing.T) {
	f := newWorkerFixture(t)
	f.worker.Channel = &fakeConsumer{deliveries: make(chan amqp.Delivery)}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- f.worker.Start(ctx, QueueName) }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("worker não parou")
	}
}
