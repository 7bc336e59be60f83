package mail

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
)

// Envelope is a summary of one message, without its body.
type Envelope struct {
	UID     uint32    `json:"uid"`
	From    string    `json:"from"`
	To      []string  `json:"to,omitempty"`
	Subject string    `json:"subject"`
	Date    time.Time `json:"date"`
	Flags   []string  `json:"flags,omitempty"`
	Size    uint32    `json:"size,omitempty"`
}

// Seen reports whether the message carries the \Seen flag.
func (e Envelope) Seen() bool {
	for _, f := range e.Flags {
		if f == string(imap.FlagSeen) {
			return true
		}
	}
	return false
}

// ListOptions control which messages ListMessages returns.
type ListOptions struct {
	// Folder is the mailbox to read. Default "INBOX".
	Folder string

	// Limit caps the number of messages returned. Default 20.
	Limit int

	// Unseen restricts the listing to messages without \Seen.
	Unseen bool
}

// ListMessages returns recent messages from the specified folder,
// newest-first.
func (c *Client) ListMessages(ctx context.Context, opts ListOptions) ([]Envelope, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.ensureConnected(ctx); err != nil {
		return nil, err
	}

	folder := opts.Folder
	if folder == "" {
		folder = "INBOX"
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = 20
	}

	if _, err := c.selectFolder(folder); err != nil {
		return nil, err
	}

	criteria := &imap.SearchCriteria{}
	if opts.Unseen {
		criteria.NotFlag = append(criteria.NotFlag, imap.FlagSeen)
	}

	searchCmd := c.client.UIDSearch(criteria, nil)
	searchData, err := searchCmd.Wait()
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", folder, err)
	}

	allUIDs := searchData.AllUIDs()
	if len(allUIDs) == 0 {
		return nil, nil
	}

	// Take the most recent N UIDs (highest UIDs = newest).
	start := 0
	if len(allUIDs) > limit {
		start = len(allUIDs) - limit
	}
	recentUIDs := allUIDs[start:]

	uidSet := imap.UIDSet{}
	for _, uid := range recentUIDs {
		uidSet.AddNum(uid)
	}

	return c.fetchEnvelopes(uidSet)
}

// fetchEnvelopes fetches envelope data for the given UIDs and returns
// them newest-first. Caller must hold c.mu and have a selected folder.
func (c *Client) fetchEnvelopes(uidSet imap.UIDSet) ([]Envelope, error) {
	fetchOpts := &imap.FetchOptions{
		UID:        true,
		Envelope:   true,
		Flags:      true,
		RFC822Size: true,
	}

	fetchCmd := c.client.Fetch(uidSet, fetchOpts)

	var envelopes []Envelope
	for {
		msg := fetchCmd.Next()
		if msg == nil {
			break
		}
		env, err := parseMessageData(msg)
		if err != nil {
			continue
		}
		envelopes = append(envelopes, env)
	}

	if err := fetchCmd.Close(); err != nil {
		return nil, fmt.Errorf("fetch envelopes: %w", err)
	}

	// Sort newest-first by UID (descending).
	for i, j := 0, len(envelopes)-1; i < j; i, j = i+1, j-1 {
		envelopes[i], envelopes[j] = envelopes[j], envelopes[i]
	}

	return envelopes, nil
}

// parseMessageData extracts an Envelope from IMAP fetch response items.
func parseMessageData(msg *imapclient.FetchMessageData) (Envelope, error) {
	var env Envelope

	for {
		item := msg.Next()
		if item == nil {
			break
		}

		switch data := item.(type) {
		case imapclient.FetchItemDataUID:
			env.UID = uint32(data.UID)
		case imapclient.FetchItemDataFlags:
			for _, f := range data.Flags {
				env.Flags = append(env.Flags, string(f))
			}
		case imapclient.FetchItemDataRFC822Size:
			env.Size = uint32(data.Size)
		case imapclient.FetchItemDataEnvelope:
			if data.Envelope != nil {
				env.Date = data.Envelope.Date
				env.Subject = data.Envelope.Subject

				if len(data.Envelope.From) > 0 {
					env.From = formatAddress(data.Envelope.From[0])
				}
				for _, addr := range data.Envelope.To {
					env.To = append(env.To, formatAddress(addr))
				}
			}
		}
	}

	if env.UID == 0 {
		return env, fmt.Errorf("message missing UID")
	}

	return env, nil
}

// formatAddress formats an IMAP address as "Name <user@host>" or
// just "user@host" if no name is set.
func formatAddress(addr imap.Address) string {
	email := addr.Addr()
	if addr.Name != "" {
		return fmt.Sprintf("%s <%s>", addr.Name, email)
	}
	return email
}

// FormatEnvelopes renders envelopes as a numbered plain-text list
// suitable as a tool observation.
func FormatEnvelopes(envelopes []Envelope) string {
	if len(envelopes) == 0 {
		return "No messages found."
	}

	var b strings.Builder
	for i, env := range envelopes {
		status := " "
		if !env.Seen() {
			status = "*"
		}
		fmt.Fprintf(&b, "%d.%s [%s] %s: %s\n", i+1, status, env.Date.Format("2006-01-02 15:04"), env.From, env.Subject)
	}
	return strings.TrimSpace(b.String())
}
