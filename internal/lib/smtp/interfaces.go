// Package smtp отправляет письма через SMTP-сервер с STARTTLS.
package smtp

import "io"

// Client - часть *smtp.Client, нужная для отправки одного письма.
type Client interface {
	Mail(from string) error
	Rcpt(to string) error
	Data() (io.WriteCloser, error)
	Quit() error
	Close() error
}

// TransportInterface открывает соединение с сервером.
type TransportInterface interface {
	Connect() (Client, error)
	Sender() string
}
