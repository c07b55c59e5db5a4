package notifier

import (
	"fmt"
	"mime"
	"strings"
	"time"

	"github.com/google/uuid"
)

func formatAddress(name, addr string) string {
	if name == "" {
		return addr
	}
	return fmt.Sprintf("%s <%s>", mime.QEncoding.Encode("utf-8", name), addr)
}

func newMessageID(domain string) string {
	return fmt.Sprintf("<%s@%s>", uuid.NewString(), domain)
}

// buildMessage renders a single-part text/plain message.
func buildMessage(fromName, from string, n Notification, messageIDDomain string) (string, error) {
	if n.To == "" {
		return "", fmt.Errorf("notifier: recipient required")
	}
	if from == "" {
		return "", fmt.Errorf("notifier: from address required")
	}
	if n.Subject == "" {
		return "", fmt.Errorf("notifier: subject required")
	}
	if strings.ContainsAny(n.To, "\r\n") {
		return "", fmt.Errorf("notifier: invalid recipient")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	fmt.Fprintf(&b, "Message-ID: %s\r\n", newMessageID(messageIDDomain))
	fmt.Fprintf(&b, "From: %s\r\n", formatAddress(fromName, from))
	fmt.Fprintf(&b, "To: %s\r\n", n.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", n.Subject))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("Content-Transfer-Encoding: 8bit\r\n")
	b.WriteString("\r\n")
	b.WriteString(n.Text)
	if !strings.HasSuffix(n.Text, "\n") {
		b.WriteString("\r\n")
	}

	return b.String(), nil
}
