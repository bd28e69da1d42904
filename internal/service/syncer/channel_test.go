package syncer

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startAgentServer(t *testing.T) (string, <-chan contextualUpdate) {
	t.Helper()

	received := make(chan contextualUpdate, 16)
	upgrader := websocket.Upgrader{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			var msg contextualUpdate
			if err := conn.ReadJSON(&msg); err != nil {
				return
			}
			received <- msg
		}
	}))
	t.Cleanup(server.Close)

	return "ws" + strings.TrimPrefix(server.URL, "http"), received
}

func TestChannelSendsContextualUpdate(t *testing.T) {
	url, received := startAgentServer(t)

	channel := NewChannel(url, zerolog.Nop())
	require.NoError(t, channel.Connect(context.Background()))
	defer channel.Close()

	require.NoError(t, channel.SendContextualUpdate("diagram changed"))

	select {
	case msg := <-received:
		assert.Equal(t, "contextual_update", msg.Type)
		assert.Equal(t, "diagram changed", msg.Text)
	case <-time.After(time.Second):
		t.Fatal("update never arrived")
	}
}

func TestChannelQueuesBeforeOpen(t *testing.T) {
	url, received := startAgentServer(t)

	channel := NewChannel(url, zerolog.Nop())

	// sent before the socket is open: queued, not lost
	require.NoError(t, channel.SendContextualUpdate("first"))
	require.NoError(t, channel.SendContextualUpdate("second"))

	require.NoError(t, channel.Connect(context.Background()))
	defer channel.Close()

	var texts []string
	for i := 0; i < 2; i++ {
		select {
		case msg := <-received:
			texts = append(texts, msg.Text)
		case <-time.After(time.Second):
			t.Fatal("queued update never flushed")
		}
	}
	assert.Equal(t, []string{"first", "second"}, texts)
}

func TestChannelConcurrentSendsDuringFlush(t *testing.T) {
	url, received := startAgentServer(t)

	channel := NewChannel(url, zerolog.Nop())

	// large payloads so interleaved writes would corrupt the stream
	payload := strings.Repeat("x", 64*1024)
	const queued, concurrent = 8, 8
	for i := 0; i < queued; i++ {
		require.NoError(t, channel.SendContextualUpdate(payload))
	}

	start := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < concurrent; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			channel.SendContextualUpdate(payload)
		}()
	}

	close(start)
	require.NoError(t, channel.Connect(context.Background()))
	wg.Wait()
	defer channel.Close()

	for i := 0; i < queued+concurrent; i++ {
		select {
		case msg := <-received:
			assert.Len(t, msg.Text, len(payload))
		case <-time.After(2 * time.Second):
			t.Fatalf("got %d of %d updates", i, queued+concurrent)
		}
	}
}

func TestChannelClosedRejectsSends(t *testing.T) {
	channel := NewChannel("ws://unused", zerolog.Nop())
	require.NoError(t, channel.Close())
	assert.Error(t, channel.SendContextualUpdate("late"))
}
