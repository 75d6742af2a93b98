package digest

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
	"github.com/emersion/go-message/mail"

	"github.com/nhle/notification-center/internal/model"
)

// dialTimeout bounds one delivery, from dial to QUIT or LOGOUT.
const dialTimeout = 30 * time.Second

// Deliverer hands a composed message to a mail server.
type Deliverer interface {
	Deliver(ctx context.Context, from, to string, msg []byte) error
}

// NewDeliverer picks the transport named by cfg.Transport.
func NewDeliverer(cfg model.EmailConfig, password string) (Deliverer, error) {
	switch cfg.Transport {
	case "smtp":
		return &SMTPDeliverer{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.Username,
			Password: password,
			TLS:      cfg.TLS,
		}, nil
	case "imap":
		return &IMAPDeliverer{
			Host:     cfg.IMAPHost,
			Port:     cfg.IMAPPort,
			Username: cfg.Username,
			Password: password,
			TLS:      cfg.TLS,
			Mailbox:  cfg.Mailbox,
		}, nil
	}
	return nil, fmt.Errorf("unknown email transport %q", cfg.Transport)
}

// SMTPDeliverer sends mail over implicit TLS or STARTTLS.
type SMTPDeliverer struct {
	Host     string
	Port     string
	Username string
	Password string
	TLS      bool
}

// Deliver implements Deliverer. from and to may carry display names and
// to may list several recipients; the envelope gets bare addresses.
func (d *SMTPDeliverer) Deliver(ctx context.Context, from, to string, msg []byte) error {
	sender, recipients, err := envelope(from, to)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()

	tlsConfig := &tls.Config{ServerName: d.Host}
	conn, err := dialMail(ctx, d.Host, d.Port, d.TLS, tlsConfig)
	if err != nil {
		return err
	}
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	client, err := smtp.NewClient(conn, d.Host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("creating SMTP client: %w", err)
	}
	defer client.Close()

	if !d.TLS {
		if err := client.StartTLS(tlsConfig); err != nil {
			return fmt.Errorf("SMTP STARTTLS: %w", err)
		}
	}

	if d.Username != "" {
		auth := smtp.PlainAuth("", d.Username, d.Password, d.Host)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("SMTP auth: %w", err)
		}
	}

	if err := client.Mail(sender); err != nil {
		return fmt.Errorf("SMTP MAIL FROM: %w", err)
	}
	for _, rcpt := range recipients {
		if err := client.Rcpt(rcpt); err != nil {
			return fmt.Errorf("SMTP RCPT TO %s: %w", rcpt, err)
		}
	}

	writer, err := client.Data()
	if err != nil {
		return fmt.Errorf("SMTP DATA: %w", err)
	}
	if _, err := writer.Write(msg); err != nil {
		return fmt.Errorf("writing email body: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("closing email body: %w", err)
	}

	return client.Quit()
}

// IMAPDeliverer files messages straight into a mailbox with APPEND, for
// users who only have IMAP access.
type IMAPDeliverer struct {
	Host     string
	Port     string
	Username string
	Password string
	TLS      bool
	Mailbox  string
}

// Deliver implements Deliverer. The mailbox is created when missing.
func (d *IMAPDeliverer) Deliver(ctx context.Context, _, _ string, msg []byte) error {
	ctx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()

	tlsConfig := &tls.Config{ServerName: d.Host}
	conn, err := dialMail(ctx, d.Host, d.Port, d.TLS, tlsConfig)
	if err != nil {
		return err
	}
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	var client *imapclient.Client
	if d.TLS {
		client = imapclient.New(conn, nil)
	} else {
		client, err = imapclient.NewStartTLS(conn, &imapclient.Options{TLSConfig: tlsConfig})
		if err != nil {
			conn.Close()
			return fmt.Errorf("IMAP STARTTLS with %s: %w", net.JoinHostPort(d.Host, d.Port), err)
		}
	}
	defer client.Close()

	if err := client.Login(d.Username, d.Password).Wait(); err != nil {
		return fmt.Errorf("IMAP login for %s: %w", d.Username, err)
	}

	mailbox := d.Mailbox
	if mailbox == "" {
		mailbox = "INBOX"
	}
	if err := ensureMailbox(client, mailbox); err != nil {
		return err
	}

	cmd := client.Append(mailbox, int64(len(msg)), &imap.AppendOptions{Time: time.Now()})
	if _, err := cmd.Write(msg); err != nil {
		return fmt.Errorf("writing IMAP message: %w", err)
	}
	if err := cmd.Close(); err != nil {
		return fmt.Errorf("closing IMAP message: %w", err)
	}
	if _, err := cmd.Wait(); err != nil {
		return fmt.Errorf("IMAP APPEND to %s: %w", mailbox, err)
	}

	return client.Logout().Wait()
}

// dialMail connects to host:port, with implicit TLS when implicitTLS is
// set and in plain text otherwise.
func dialMail(ctx context.Context, host, port string, implicitTLS bool, cfg *tls.Config) (net.Conn, error) {
	addr := net.JoinHostPort(host, port)

	var conn net.Conn
	var err error
	if implicitTLS {
		conn, err = (&tls.Dialer{Config: cfg}).DialContext(ctx, "tcp", addr)
	} else {
		conn, err = (&net.Dialer{}).DialContext(ctx, "tcp", addr)
	}
	if err != nil {
		return nil, fmt.Errorf("dial to %s: %w", addr, err)
	}
	return conn, nil
}

// envelope reduces header-style From and To values to the bare addresses
// SMTP MAIL and RCPT expect.
func envelope(from, to string) (string, []string, error) {
	sender, err := mail.ParseAddress(from)
	if err != nil {
		return "", nil, fmt.Errorf("parsing sender %q: %w", from, err)
	}
	list, err := mail.ParseAddressList(to)
	if err != nil {
		return "", nil, fmt.Errorf("parsing recipients %q: %w", to, err)
	}
	if len(list) == 0 {
		return "", nil, errors.New("no recipients")
	}

	recipients := make([]string, len(list))
	for i, a := range list {
		recipients[i] = a.Address
	}
	return sender.Address, recipients, nil
}

func ensureMailbox(client *imapclient.Client, mailbox string) error {
	if mailbox == "INBOX" {
		return nil
	}
	err := client.Create(mailbox, nil).Wait()
	if err == nil {
		return nil
	}
	var imapErr *imap.Error
	if errors.As(err, &imapErr) && imapErr.Code == imap.ResponseCodeAlreadyExists {
		return nil
	}
	return fmt.Errorf("creating mailbox %s: %w", mailbox, err)
}
