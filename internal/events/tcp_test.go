package events

import (
	"bufio"
	"context"
	"encoding/json"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func dialServer(t *testing.T, d *Dispatcher) (net.Conn, func()) {
	t.Helper()
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	server := NewTCPServer(d)
	ctx, cancel := context.WithCancel(context.Background())
	go server.Serve(ctx, listener)

	conn, err := net.Dial("tcp", listener.Addr().String())
	require.NoError(t, err)

	return conn, func() {
		conn.Close()
		cancel()
	}
}

func TestTCPHandshakeThenReceivesEvents(t *testing.T) {
	d := NewDispatcher()
	conn, cleanup := dialServer(t, d)
	defer cleanup()

	req := SubscriptionRequest{Subscribe: []Type{TypeNewBlock}}
	raw, err := json.Marshal(req)
	require.NoError(t, err)
	_, err = conn.Write(append(raw, '\n'))
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return d.SubscriberCount() == 1
	}, time.Second, 10*time.Millisecond)

	d.Dispatch(Event{Type: TypeNewBlock, BlockHeight: 100})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	reader := bufio.NewReader(conn)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)

	var got Event
	require.NoError(t, json.Unmarshal([]byte(line), &got))
	require.Equal(t, TypeNewBlock, got.Type)
	require.Equal(t, uint64(100), got.BlockHeight)
}

func TestTCPHandshakeTolerantOfBlankLinesAndPing(t *testing.T) {
	d := NewDispatcher()
	conn, cleanup := dialServer(t, d)
	defer cleanup()

	_, err := conn.Write([]byte("\nPING\n"))
	require.NoError(t, err)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	reader := bufio.NewReader(conn)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	require.Equal(t, "PONG", trimNewline(line))

	req := SubscriptionRequest{}
	raw, err := json.Marshal(req)
	require.NoError(t, err)
	_, err = conn.Write(append(raw, '\n'))
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return d.SubscriberCount() == 1
	}, time.Second, 10*time.Millisecond)
}

func TestTCPHandshakeRejectsGarbagePreamble(t *testing.T) {
	d := NewDispatcher()
	conn, cleanup := dialServer(t, d)
	defer cleanup()

	_, err := conn.Write([]byte("not json\n"))
	require.NoError(t, err)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, 16)
	n, err := conn.Read(buf)
	require.Error(t, err)
	require.Equal(t, 0, n)
}

func trimNewline(s string) string {
	for len(s) > 0 && (s[len(s)-1] == '\n' || s[len(s)-1] == '\r') {
		s = s[:len(s)-1]
	}
	return s
}
