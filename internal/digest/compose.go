package digest

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/emersion/go-message/mail"

	"github.com/nhle/notification-center/internal/model"
)

// Compose builds an RFC 5322 text/plain message listing list in order.
// A single entry uses its title as the subject.
func Compose(from, to, owner string, list []model.Notification, now time.Time) ([]byte, error) {
	if len(list) == 0 {
		return nil, errors.New("composing digest: no notifications")
	}

	fromAddr, err := mail.ParseAddress(from)
	if err != nil {
		return nil, fmt.Errorf("parsing from address %q: %w", from, err)
	}
	toAddrs, err := mail.ParseAddressList(to)
	if err != nil {
		return nil, fmt.Errorf("parsing to address %q: %w", to, err)
	}

	var h mail.Header
	h.SetDate(now)
	h.SetAddressList("From", []*mail.Address{fromAddr})
	h.SetAddressList("To", toAddrs)
	h.SetSubject(subject(list))
	h.SetContentType("text/plain", map[string]string{"charset": "utf-8"})
	if err := h.GenerateMessageID(); err != nil {
		return nil, fmt.Errorf("generating message id: %w", err)
	}

	var buf bytes.Buffer
	w, err := mail.CreateSingleInlineWriter(&buf, h)
	if err != nil {
		return nil, fmt.Errorf("creating message writer: %w", err)
	}
	if _, err := io.WriteString(w, body(owner, list)); err != nil {
		return nil, fmt.Errorf("writing message body: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("closing message body: %w", err)
	}

	return buf.Bytes(), nil
}

func subject(list []model.Notification) string {
	if len(list) == 1 {
		return list[0].Title
	}
	return fmt.Sprintf("%d new notifications", len(list))
}

func body(owner string, list []model.Notification) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\r\n\r\n", owner)
	if len(list) == 1 {
		b.WriteString("You have a new notification.\r\n\r\n")
	} else {
		fmt.Fprintf(&b, "You have %d new notifications.\r\n\r\n", len(list))
	}

	for _, n := range list {
		fmt.Fprintf(&b, "[%s] %s", n.Category.Label(), n.Title)
		if n.Priority == model.PriorityHigh || n.Priority == model.PriorityUrgent {
			fmt.Fprintf(&b, " (%s)", n.Priority)
		}
		b.WriteString("\r\n")
		if n.Body != "" {
			fmt.Fprintf(&b, "  %s\r\n", n.Body)
		}
		fmt.Fprintf(&b, "  %s\r\n", n.CreatedAt.UTC().Format("Mon 02 Jan 2006 15:04 MST"))
		if n.HasAction() {
			fmt.Fprintf(&b, "  Open: %s\r\n", n.ActionTarget)
		}
		b.WriteString("\r\n")
	}
	return b.String()
}
