package ingest

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	_ "github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/mail"
)

// Mailbox is the IMAP-backed MessageSource.
type Mailbox struct {
	c *client.Client
}

func DialMailbox(server, username, password string) (*Mailbox, error) {
	c, err := client.DialTLS(server, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", server, err)
	}
	if err := c.Login(username, password); err != nil {
		c.Logout()
		return nil, fmt.Errorf("imap login: %w", err)
	}
	return &Mailbox{c: c}, nil
}

func (m *Mailbox) Select(folder string) error {
	if _, err := m.c.Select(folder, true); err != nil {
		return fmt.Errorf("select %q: %w", folder, err)
	}
	return nil
}

func (m *Mailbox) SearchAll() ([]uint32, error) {
	ids, err := m.c.Search(imap.NewSearchCriteria())
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	return ids, nil
}

func (m *Mailbox) FetchDate(id uint32) (time.Time, error) {
	msg, err := m.fetch(id, []imap.FetchItem{imap.FetchEnvelope})
	if err != nil {
		return time.Time{}, err
	}
	if msg.Envelope == nil {
		return time.Time{}, fmt.Errorf("message %d has no envelope", id)
	}
	return msg.Envelope.Date, nil
}

func (m *Mailbox) FetchFull(id uint32) (*RawMessage, error) {
	section := &imap.BodySectionName{Peek: true}
	msg, err := m.fetch(id, []imap.FetchItem{imap.FetchEnvelope, section.FetchItem()})
	if err != nil {
		return nil, err
	}

	raw := &RawMessage{}
	if msg.Envelope != nil {
		raw.Subject = msg.Envelope.Subject
		raw.Date = msg.Envelope.Date
		if len(msg.Envelope.From) > 0 {
			raw.From = msg.Envelope.From[0].Address()
		}
	}

	body := msg.GetBody(section)
	if body == nil {
		return raw, nil
	}
	text, err := readTextParts(body)
	if err != nil {
		return nil, fmt.Errorf("decode message %d body: %w", id, err)
	}
	raw.Body = text
	return raw, nil
}

func (m *Mailbox) Close() error {
	return m.c.Logout()
}

func (m *Mailbox) fetch(id uint32, items []imap.FetchItem) (*imap.Message, error) {
	seqset := new(imap.SeqSet)
	seqset.AddNum(id)

	messages := make(chan *imap.Message, 1)
	if err := m.c.Fetch(seqset, items, messages); err != nil {
		return nil, fmt.Errorf("fetch message %d: %w", id, err)
	}
	msg := <-messages
	if msg == nil {
		return nil, fmt.Errorf("message %d not returned by server", id)
	}
	return msg, nil
}

// readTextParts walks the MIME tree and concatenates every inline
// text/plain and text/html part, skipping attachments.
func readTextParts(r io.Reader) (string, error) {
	mr, err := mail.CreateReader(r)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return sb.String(), err
		}

		header, ok := part.Header.(*mail.InlineHeader)
		if !ok {
			continue
		}
		contentType, _, err := header.ContentType()
		if err != nil {
			continue
		}
		if contentType != "text/plain" && contentType != "text/html" {
			continue
		}
		chunk, err := io.ReadAll(part.Body)
		if err != nil {
			continue
		}
		sb.Write(chunk)
	}
	return sb.String(), nil
}
