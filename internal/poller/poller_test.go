package poller

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/fjod/go_cart/pricing-service/internal/domain"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReader struct {
	messages chan kafka.Message
	err      error
	closed   bool
}

func (f *fakeReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	if f.err != nil {
		return kafka.Message{}, f.err
	}
	select {
	case <-ctx.Done():
		return kafka.Message{}, ctx.Err()
	case m := <-f.messages:
		return m, nil
	}
}

func (f *fakeReader) Close() error {
	f.closed = true
	return nil
}

type mockClearer struct {
	m       sync.Mutex
	cleared []string
	err     error
}

func (m *mockClearer) ClearCart(_ context.Context, userID string) (*domain.Cart, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	m.cleared = append(m.cleared, userID)
	return &domain.Cart{UserID: userID}, nil
}

func (m *mockClearer) users() []string {
	m.m.Lock()
	defer m.m.Unlock()
	return append([]string(nil), m.cleared...)
}

func TestParseEvent(t *testing.T) {
	event, err := parseEvent([]byte(`{"checkout_id":"ch-1","user_id":"123","total_amount":"1"}`))
	require.NoError(t, err)
	assert.Equal(t, "123", event.UserID)
	assert.Equal(t, "ch-1", event.CheckoutID)

	_, err = parseEvent([]byte(`{"user_id":123}`))
	assert.ErrorContains(t, err, "error parsing message")

	_, err = parseEvent([]byte(`{"checkout_id":"ch-1"}`))
	assert.ErrorIs(t, err, errMissingUserID)
}

func TestPoll_ClearsCart(t *testing.T) {
	reader := &fakeReader{messages: make(chan kafka.Message, 1)}
	carts := &mockClearer{}
	p := newPoller(carts, reader, nil, 0)

	reader.messages <- kafka.Message{Value: []byte(`{"checkout_id":"ch-1","user_id":"123"}`)}
	require.NoError(t, p.poll(context.Background()))
	assert.Equal(t, []string{"123"}, carts.users())
}

func TestPoll_SkipsBadMessages(t *testing.T) {
	reader := &fakeReader{messages: make(chan kafka.Message, 2)}
	carts := &mockClearer{}
	p := newPoller(carts, reader, nil, 0)

	reader.messages <- kafka.Message{Value: []byte(`not json`)}
	reader.messages <- kafka.Message{Value: []byte(`{"checkout_id":"ch-1"}`)}
	require.NoError(t, p.poll(context.Background()))
	require.NoError(t, p.poll(context.Background()))
	assert.Empty(t, carts.users())
}

func TestPoll_ClearFailureIsNotFatal(t *testing.T) {
	reader := &fakeReader{messages: make(chan kafka.Message, 1)}
	carts := &mockClearer{err: errors.New("database error")}
	p := newPoller(carts, reader, nil, 0)

	reader.messages <- kafka.Message{Value: []byte(`{"user_id":"123"}`)}
	assert.NoError(t, p.poll(context.Background()))
}

func TestPoll_ReadError(t *testing.T) {
	reader := &fakeReader{err: errors.New("broker down")}
	p := newPoller(&mockClearer{}, reader, nil, 0)

	err := p.poll(context.Background())
	assert.ErrorContains(t, err, "broker down")
}

func TestRun_StopsOnCancel(t *testing.T) {
	reader := &fakeReader{messages: make(chan kafka.Message, 3)}
	carts := &mockClearer{}
	p := newPoller(carts, reader, nil, 10*time.Millisecond)

	for _, id := range []string{"1", "2", "3"} {
		reader.messages <- kafka.Message{Value: []byte(`{"user_id":"` + id + `"}`)}
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		return len(carts.users()) == 3
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("poller did not stop after cancel")
	}
	assert.Equal(t, []string{"1", "2", "3"}, carts.users())

	p.Close()
	assert.True(t, reader.closed)
}

func TestRun_BacksOffOnReadError(t *testing.T) {
	reader := &fakeReader{err: errors.New("broker down")}
	p := newPoller(&mockClearer{}, reader, nil, time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	p.Run(ctx)
	assert.Less(t, time.Since(start), time.Second)
}
