// Package mail implements alert delivery over a hand-rolled SMTP client.
//
// The protocol walk is the minimal sequence accepted by the gmail provider
// family: greeting, EHLO, STARTTLS upgrade, EHLO again, AUTH LOGIN with
// base64 credentials, envelope, data, quit. Responses are deliberately not
// status-checked except for the password step; real servers vary in benign
// ways and strict parsing broke sessions in the field.
package mail

import (
	"crypto/tls"
	"encoding/base64"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Failure taxonomy for one send attempt. The notifier collapses these to a
// boolean; they exist so logs can say which stage died.
var (
	ErrConnect  = errors.New("smtp connect failed")
	ErrTLS      = errors.New("smtp tls upgrade failed")
	ErrAuth     = errors.New("smtp authentication rejected")
	ErrProtocol = errors.New("smtp protocol exchange failed")
)

const (
	defaultDialTimeout = 10 * time.Second
	defaultStepTimeout = 10 * time.Second
	responseBufSize    = 1024
)

// Credentials authenticate the session and double as the envelope sender.
type Credentials struct {
	Username string
	Password string
}

// DialFunc opens the plaintext transport.
type DialFunc func(network, addr string, timeout time.Duration) (net.Conn, error)

// StartTLSFunc upgrades an established transport to TLS.
type StartTLSFunc func(conn net.Conn, serverName string) (net.Conn, error)

// Session drives one SMTP exchange per Send call. The walk is strictly
// sequential with no backward transitions; any failure aborts the whole
// attempt and closes the transport.
type Session struct {
	Host        string
	Port        int
	ClientName  string
	DialTimeout time.Duration
	StepTimeout time.Duration

	dial     DialFunc
	startTLS StartTLSFunc
	logger   *logrus.Logger
}

// NewSession returns a Session using real TCP and crypto/tls transports.
func NewSession(host string, port int, clientName string, logger *logrus.Logger) *Session {
	return &Session{
		Host:        host,
		Port:        port,
		ClientName:  clientName,
		DialTimeout: defaultDialTimeout,
		StepTimeout: defaultStepTimeout,
		dial:        net.DialTimeout,
		startTLS: func(conn net.Conn, serverName string) (net.Conn, error) {
			tc := tls.Client(conn, &tls.Config{ServerName: serverName})
			if err := tc.Handshake(); err != nil {
				return nil, err
			}
			return tc, nil
		},
		logger: logger,
	}
}

// exchange tracks the live transport through the walk and remembers the
// first error; once an error is set, every later step is a no-op so the
// happy path reads straight through.
type exchange struct {
	conn    net.Conn
	timeout time.Duration
	err     error
}

func (e *exchange) send(line string) {
	if e.err != nil {
		return
	}
	_ = e.conn.SetWriteDeadline(time.Now().Add(e.timeout))
	if _, err := e.conn.Write([]byte(line)); err != nil {
		e.err = fmt.Errorf("%w: write: %v", ErrProtocol, err)
	}
}

func (e *exchange) read() string {
	if e.err != nil {
		return ""
	}
	_ = e.conn.SetReadDeadline(time.Now().Add(e.timeout))
	buf := make([]byte, responseBufSize)
	n, err := e.conn.Read(buf)
	if err != nil {
		e.err = fmt.Errorf("%w: read: %v", ErrProtocol, err)
		return ""
	}
	return string(buf[:n])
}

// Send walks the full protocol and delivers one message. It returns nil only
// when every step up to QUIT completed. The transport is always closed before
// returning, swallowing secondary close errors.
func (s *Session) Send(creds Credentials, to, subject, body string) error {
	addr := net.JoinHostPort(s.Host, strconv.Itoa(s.Port))

	s.logger.WithFields(logrus.Fields{
		"server": addr,
		"to":     to,
	}).Debug("opening smtp session")

	conn, err := s.dial("tcp", addr, s.DialTimeout)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConnect, err)
	}

	ex := &exchange{conn: conn, timeout: s.StepTimeout}
	defer func() {
		_ = ex.conn.Close()
	}()

	// Greeting: any bytes count as success.
	ex.read()

	ex.send("EHLO " + s.ClientName + "\r\n")
	ex.read()

	ex.send("STARTTLS\r\n")
	ex.read()
	if ex.err != nil {
		return ex.err
	}

	tlsConn, err := s.startTLS(ex.conn, s.Host)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTLS, err)
	}
	ex.conn = tlsConn

	// EHLO must be renegotiated on the encrypted channel.
	ex.send("EHLO " + s.ClientName + "\r\n")
	ex.read()

	ex.send("AUTH LOGIN\r\n")
	ex.read()

	ex.send(base64.StdEncoding.EncodeToString([]byte(creds.Username)) + "\r\n")
	ex.read()

	ex.send(base64.StdEncoding.EncodeToString([]byte(creds.Password)) + "\r\n")
	authResp := ex.read()
	if ex.err != nil {
		return ex.err
	}
	// The one response that is actually inspected: 235 means accepted.
	if !strings.Contains(authResp, "235") {
		return fmt.Errorf("%w: server said %q", ErrAuth, firstLine(authResp))
	}

	ex.send("MAIL FROM:<" + creds.Username + ">\r\n")
	ex.read()

	ex.send("RCPT TO:<" + to + ">\r\n")
	ex.read()

	ex.send("DATA\r\n")
	ex.read()

	ex.send(formatMessage(creds.Username, to, subject, body))
	ex.read()

	ex.send("QUIT\r\n")
	ex.read()

	return ex.err
}

// formatMessage assembles headers plus body, terminated by the
// single-dot line that ends the DATA phase.
func formatMessage(from, to, subject, body string) string {
	var b strings.Builder
	b.WriteString("From: Envmon Monitor <" + from + ">\r\n")
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: " + subject + "\r\n")
	b.WriteString("Message-ID: <" + uuid.NewString() + "@envmon>\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	b.WriteString("\r\n.\r\n")
	return b.String()
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\r'); i >= 0 {
		return s[:i]
	}
	return s
}
