package worker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ds124wfegd/pushService/internal/entity"
	"github.com/ds124wfegd/pushService/internal/rabbitMQ"
)

type fakePush struct {
	results    map[string]*entity.DeliveryResult // by endpoint, nil means unsubscribed
	redelivers []string
}

func (p *fakePush) Broadcast(ctx context.Context, message string) (*entity.SendReport, error) {
	panic("not used by the retry worker")
}

func (p *fakePush) Redeliver(ctx context.Context, endpoint string, payload *entity.NotificationPayload) (*entity.DeliveryResult, error) {
	p.redelivers = append(p.redelivers, endpoint)
	return p.results[endpoint], nil
}

type fakeQueue struct {
	tasks  []*rabbitMQ.RetryTask
	delays []time.Duration
}

func (q *fakeQueue) Publish(ctx context.Context, task *rabbitMQ.RetryTask) error {
	q.tasks = append(q.tasks, task)
	q.delays = append(q.delays, 0)
	return nil
}

func (q *fakeQueue) PublishWithDelay(ctx context.Context, task *rabbitMQ.RetryTask, delay time.Duration) error {
	q.tasks = append(q.tasks, task)
	q.delays = append(q.delays, delay)
	return nil
}

func (q *fakeQueue) Consume(ctx context.Context, handler func(task *rabbitMQ.RetryTask) error) error {
	return nil
}

func (q *fakeQueue) Close() error { return nil }

func task(endpoint string, attempt int) *rabbitMQ.RetryTask {
	return &rabbitMQ.RetryTask{
		ID:       "task-1",
		Endpoint: endpoint,
		Payload:  entity.NotificationPayload{Title: "t", Body: "b"},
		Attempt:  attempt,
	}
}

func TestProcessDelivered(t *testing.T) {
	endpoint := "https://push.example.com/ch/1"
	push := &fakePush{results: map[string]*entity.DeliveryResult{
		endpoint: {Endpoint: endpoint, Outcome: entity.OutcomeDelivered},
	}}
	queue := &fakeQueue{}
	w := NewRetryWorker(push, queue, rabbitMQ.NewRetryPolicy(3, time.Second))

	require.NoError(t, w.process(context.Background(), task(endpoint, 1)))
	assert.Equal(t, []string{endpoint}, push.redelivers)
	assert.Empty(t, queue.tasks, "a delivered retry is done")
}

func TestProcessTransientRequeues(t *testing.T) {
	endpoint := "https://push.example.com/ch/1"
	push := &fakePush{results: map[string]*entity.DeliveryResult{
		endpoint: {Endpoint: endpoint, Outcome: entity.OutcomeTransient},
	}}
	queue := &fakeQueue{}
	w := NewRetryWorker(push, queue, rabbitMQ.NewRetryPolicy(3, time.Second))

	require.NoError(t, w.process(context.Background(), task(endpoint, 1)))
	require.Len(t, queue.tasks, 1)
	assert.Equal(t, 2, queue.tasks[0].Attempt)
	assert.Positive(t, queue.delays[0])
}

func TestProcessGivesUpAtMaxAttempts(t *testing.T) {
	endpoint := "https://push.example.com/ch/1"
	push := &fakePush{results: map[string]*entity.DeliveryResult{
		endpoint: {Endpoint: endpoint, Outcome: entity.OutcomeTransient},
	}}
	queue := &fakeQueue{}
	w := NewRetryWorker(push, queue, rabbitMQ.NewRetryPolicy(3, time.Second))

	require.NoError(t, w.process(context.Background(), task(endpoint, 2)))
	assert.Empty(t, queue.tasks, "the third failure exhausts the attempt budget")
}

func TestProcessUnsubscribedEndpoint(t *testing.T) {
	push := &fakePush{}
	queue := &fakeQueue{}
	w := NewRetryWorker(push, queue, rabbitMQ.NewRetryPolicy(3, time.Second))

	require.NoError(t, w.process(context.Background(), task("https://push.example.com/ch/vanished", 1)))
	assert.Empty(t, queue.tasks)
}

func TestProcessGoneNotRequeued(t *testing.T) {
	endpoint := "https://push.example.com/ch/1"
	push := &fakePush{results: map[string]*entity.DeliveryResult{
		endpoint: {Endpoint: endpoint, Outcome: entity.OutcomeGone},
	}}
	queue := &fakeQueue{}
	w := NewRetryWorker(push, queue, rabbitMQ.NewRetryPolicy(3, time.Second))

	require.NoError(t, w.process(context.Background(), task(endpoint, 1)))
	assert.Empty(t, queue.tasks, "a dead subscription is never retried")
}
