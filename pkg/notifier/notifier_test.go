package notifier

import (
	"bytes"
	"context"
	"errors"
	"net"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"smartparking/pkg/config"
	"smartparking/pkg/logger"
)

// startFakeSMTP accepts one session and sends the DATA payload on the returned channel.
func startFakeSMTP(t *testing.T) (host, port string, received <-chan string) {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { ln.Close() })

	ch := make(chan string, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		tp := textproto.NewConn(conn)
		_ = tp.PrintfLine("220 fake ESMTP")
		for {
			line, err := tp.ReadLine()
			if err != nil {
				return
			}
			switch {
			case strings.HasPrefix(line, "EHLO"), strings.HasPrefix(line, "HELO"):
				_ = tp.PrintfLine("250 fake")
			case strings.HasPrefix(line, "MAIL FROM"), strings.HasPrefix(line, "RCPT TO"):
				_ = tp.PrintfLine("250 OK")
			case line == "DATA":
				_ = tp.PrintfLine("354 go ahead")
				lines, err := tp.ReadDotLines()
				if err != nil {
					return
				}
				ch <- strings.Join(lines, "\n")
				_ = tp.PrintfLine("250 queued")
			case line == "QUIT":
				_ = tp.PrintfLine("221 bye")
				return
			default:
				_ = tp.PrintfLine("502 not implemented")
			}
		}
	}()

	host, port, _ = net.SplitHostPort(ln.Addr().String())
	return host, port, ch
}

func TestSMTPNotifier_Notify(t *testing.T) {
	host, port, received := startFakeSMTP(t)

	n := NewSMTPNotifier(config.SMTPConfig{
		Host:     host,
		Port:     port,
		From:     "no-reply@parking.test",
		FromName: "Smart Parking",
		TLSMode:  "none",
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := n.Notify(ctx, Notification{
		To:      "alice@example.com",
		Subject: "Payment Confirmation",
		Text:    "Your payment for parking slot 7 has been confirmed. Amount: 50.",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	select {
	case msg := <-received:
		for _, want := range []string{
			"To: alice@example.com",
			"Subject: Payment Confirmation",
			"From: Smart Parking <no-reply@parking.test>",
			"parking slot 7",
		} {
			if !strings.Contains(msg, want) {
				t.Errorf("message missing %q:\n%s", want, msg)
			}
		}
	case <-time.After(2 * time.Second):
		t.Fatal("fake server did not receive a message")
	}
}

func TestSMTPNotifier_DeliveryFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	host, port, _ := net.SplitHostPort(ln.Addr().String())
	ln.Close()

	n := NewSMTPNotifier(config.SMTPConfig{
		Host:    host,
		Port:    port,
		From:    "no-reply@parking.test",
		TLSMode: "none",
	})

	err = n.Notify(context.Background(), Notification{
		To:      "alice@example.com",
		Subject: "Payment Confirmation",
		Text:    "body",
	})
	if !errors.Is(err, ErrDelivery) {
		t.Errorf("expected ErrDelivery, got %v", err)
	}
}

func TestBuildMessage(t *testing.T) {
	t.Run("renders headers and body", func(t *testing.T) {
		msg, err := buildMessage("", "from@test", Notification{
			To:      "to@test",
			Subject: "Hello",
			Text:    "line",
		}, "test")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(msg, "From: from@test\r\n") {
			t.Errorf("unexpected from header in %q", msg)
		}
		if !strings.Contains(msg, "@test>\r\n") {
			t.Errorf("expected message id with domain in %q", msg)
		}
		if !strings.HasSuffix(msg, "\r\n\r\nline\r\n") {
			t.Errorf("unexpected body in %q", msg)
		}
	})

	tests := []struct {
		name string
		from string
		n    Notification
	}{
		{"missing recipient", "from@test", Notification{Subject: "s"}},
		{"missing from", "", Notification{To: "to@test", Subject: "s"}},
		{"missing subject", "from@test", Notification{To: "to@test"}},
		{"header injection", "from@test", Notification{To: "to@test\r\nBcc: x@test", Subject: "s"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := buildMessage("", tt.from, tt.n, "test"); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestNew_FallsBackToLogNotifier(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(logger.Config{Output: &buf})

	n := New(config.SMTPConfig{}, log)
	if _, ok := n.(*LogNotifier); !ok {
		t.Fatalf("expected *LogNotifier, got %T", n)
	}

	if err := n.Notify(context.Background(), Notification{To: "alice@example.com", Subject: "Payment Confirmation"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(buf.String(), "alice@example.com") {
		t.Errorf("expected recipient in log output, got %s", buf.String())
	}

	if _, ok := New(config.SMTPConfig{Host: "smtp.test"}, log).(*SMTPNotifier); !ok {
		t.Error("expected *SMTPNotifier when host is set")
	}
}

func TestMock(t *testing.T) {
	m := &Mock{Err: ErrDelivery}
	err := m.Notify(context.Background(), Notification{To: "a@test"})
	if !errors.Is(err, ErrDelivery) {
		t.Errorf("expected configured error, got %v", err)
	}
	if got := m.Sent(); len(got) != 1 || got[0].To != "a@test" {
		t.Errorf("unexpected recorded notifications: %+v", got)
	}
}
