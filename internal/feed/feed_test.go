package feed_test

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"codeberg.org/treska/revmon/internal/feed"
	"codeberg.org/treska/revmon/internal/logger"
	"codeberg.org/treska/revmon/internal/monitor"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	logger.Init(false, false, true)
	os.Exit(m.Run())
}

func TestPublishReachesClient(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := feed.NewHub()
	go hub.Run(ctx)

	srv := httptest.NewServer(hub.Handler())
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	snap := &monitor.Snapshot{
		Timestamp:   time.Unix(1700000000, 0),
		Position:    2048,
		Revolutions: 0.5,
		RPM:         600,
		SmoothedRPM: 600,
	}

	// The client registers asynchronously; keep publishing until the frame
	// arrives or the deadline expires.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 50; i++ {
			hub.Publish(snap)
			time.Sleep(10 * time.Millisecond)
		}
	}()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	<-done

	var frame struct {
		Type string `json:"type"`
		Data struct {
			Position    int64   `json:"position"`
			Revolutions float64 `json:"revolutions"`
			SmoothedRPM float64 `json:"smoothed_rpm"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(msg, &frame))

	assert.Equal(t, "sample", frame.Type)
	assert.Equal(t, int64(2048), frame.Data.Position)
	assert.InDelta(t, 0.5, frame.Data.Revolutions, 1e-12)
	assert.InDelta(t, 600, frame.Data.SmoothedRPM, 1e-9)
}

func TestPublishWithoutClientsDoesNotBlock(t *testing.T) {
	hub := feed.NewHub()
	// Hub not running: Publish must still return promptly, dropping frames
	// once the queue fills.
	snap := &monitor.Snapshot{Timestamp: time.Now()}
	for i := 0; i < 1000; i++ {
		hub.Publish(snap)
	}
}
