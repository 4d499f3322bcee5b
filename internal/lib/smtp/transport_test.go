package smtp

import (
	"io"
	"log/slog"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/weather-dashboard/internal/config"
)

func TestTransport_Sender(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	assert.Equal(t, "noreply@example.com",
		NewTransport(config.SMTP{User: "mailer", From: "noreply@example.com"}, log).Sender())
	assert.Equal(t, "mailer", NewTransport(config.SMTP{User: "mailer"}, log).Sender())
}

func TestTransport_ConnectRequiresStartTLS(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		_, _ = conn.Write([]byte("220 localhost ESMTP\r\n"))
		buf := make([]byte, 512)
		for {
			if _, err := conn.Read(buf); err != nil {
				return
			}
			switch string(buf[:4]) {
			case "EHLO":
				_, _ = conn.Write([]byte("250-localhost\r\n250 8BITMIME\r\n"))
			case "QUIT":
				_, _ = conn.Write([]byte("221 bye\r\n"))
				return
			default:
				_, _ = conn.Write([]byte("250 ok\r\n"))
			}
		}
	}()

	host, port, err := net.SplitHostPort(ln.Addr().String())
	require.NoError(t, err)

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	_, err = NewTransport(config.SMTP{Host: host, Port: port}, log).Connect()
	assert.ErrorContains(t, err, "STARTTLS")
}

func TestTransport_ConnectDialError(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	host, port, _ := net.SplitHostPort(ln.Addr().String())
	require.NoError(t, ln.Close())

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	_, err = NewTransport(config.SMTP{Host: host, Port: port}, log).Connect()
	assert.ErrorContains(t, err, "smtp.Connect: dial")
}
