package digest

import (
	"context"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvelope(t *testing.T) {
	tests := []struct {
		name       string
		from       string
		to         string
		sender     string
		recipients []string
		wantErr    bool
	}{
		{
			name:       "bare addresses",
			from:       "alerts@example.com",
			to:         "alice@example.com",
			sender:     "alerts@example.com",
			recipients: []string{"alice@example.com"},
		},
		{
			name:       "display names stripped",
			from:       "Job Alerts <alerts@example.com>",
			to:         `"Alice A." <alice@example.com>`,
			sender:     "alerts@example.com",
			recipients: []string{"alice@example.com"},
		},
		{
			name:       "one recipient per list entry",
			from:       "alerts@example.com",
			to:         "alice@example.com, Bob <bob@example.com>",
			sender:     "alerts@example.com",
			recipients: []string{"alice@example.com", "bob@example.com"},
		},
		{name: "bad sender", from: "not an address", to: "alice@example.com", wantErr: true},
		{name: "bad recipients", from: "alerts@example.com", to: "alice@", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sender, recipients, err := envelope(tt.from, tt.to)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.sender, sender)
			assert.Equal(t, tt.recipients, recipients)
		})
	}
}

// silentServer accepts connections and never answers.
func silentServer(t *testing.T) (host, port string) {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func(c net.Conn) {
				io.Copy(io.Discard, c)
				c.Close()
			}(conn)
		}
	}()

	host, port, err = net.SplitHostPort(ln.Addr().String())
	require.NoError(t, err)
	return host, port
}

func TestDeliverersStopWhenContextEnds(t *testing.T) {
	host, port := silentServer(t)

	deliverers := map[string]Deliverer{
		"smtp": &SMTPDeliverer{Host: host, Port: port},
		"imap": &IMAPDeliverer{Host: host, Port: port},
	}
	for name, d := range deliverers {
		t.Run(name, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
			defer cancel()

			done := make(chan error, 1)
			go func() {
				done <- d.Deliver(ctx, "alerts@example.com", "alice@example.com", []byte("hi"))
			}()

			select {
			case err := <-done:
				assert.Error(t, err)
			case <-time.After(5 * time.Second):
				t.Fatal("delivery ignored context cancellation")
			}
		})
	}
}
