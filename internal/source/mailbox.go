package source

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
	"go.uber.org/zap"

	"outreach-engine/internal/config"
	"outreach-engine/internal/logging"
)

const (
	mailboxLookback = 90 * 24 * time.Hour
	mailboxMaxScan  = 50
)

// Message is the part of a fetched email the mailbox source looks at.
type Message struct {
	UID     imap.UID
	Subject string
	Date    time.Time
	Raw     []byte
}

// Mailbox reads the newest unseen message carrying a CSV attachment, e.g. a
// scheduled export mailed by a scraping service.
type Mailbox struct {
	Cfg      config.IMAP
	Password string
	TLS      *tls.Config
	Log      *zap.Logger
}

func (m *Mailbox) Name() string { return "imap" }

func (m *Mailbox) Fetch(ctx context.Context) (Batch, error) {
	log := logging.OrNop(m.Log)
	addr := net.JoinHostPort(m.Cfg.Host, strconv.Itoa(m.Cfg.Port))

	c, err := dialAndLogin(addr, m.Cfg.Username, m.Password, m.TLS)
	if err != nil {
		return Batch{}, err
	}
	// the connection outlives Fetch when the batch needs finalizing
	stop := context.AfterFunc(ctx, func() { _ = c.Close() })

	mailbox := m.Cfg.Mailbox
	if mailbox == "" {
		mailbox = "INBOX"
	}
	if _, err := c.Select(mailbox, nil).Wait(); err != nil {
		stop()
		logoutAndClose(c, log)
		return Batch{}, fmt.Errorf("imap select %s: %w", mailbox, err)
	}

	msgs, err := fetchUnseen(ctx, c, mailboxMaxScan)
	if err != nil {
		stop()
		logoutAndClose(c, log)
		return Batch{}, err
	}

	msg, filename, data, ok := PickCSV(msgs, m.Cfg.SubjectAny)
	if !ok {
		stop()
		logoutAndClose(c, log)
		return Batch{}, fmt.Errorf("%w: no unseen message with a csv attachment in %s", ErrNoInput, mailbox)
	}
	log.Info("mailbox export found",
		zap.Uint32("uid", uint32(msg.UID)),
		zap.String("subject", msg.Subject),
		zap.String("file", filename))

	rows, err := ReadCSV(bytes.NewReader(data), m.Name())
	if err != nil {
		stop()
		logoutAndClose(c, log)
		return Batch{}, fmt.Errorf("read %s: %w", filename, err)
	}

	if !stop() {
		return Batch{}, ctx.Err()
	}

	uid := msg.UID
	markSeen := m.Cfg.MarkSeen
	return Batch{
		Source: m.Name(),
		Rows:   rows,
		Finalize: func(context.Context) error {
			if !markSeen {
				return nil
			}
			return markSeenUIDs(c, []imap.UID{uid})
		},
		Close: func() error {
			logoutAndClose(c, log)
			return nil
		},
	}, nil
}

// PickCSV returns the first message, in the given order, whose subject
// matches subjectAny (any substring, case-insensitive; empty matches all)
// and which carries a CSV attachment.
func PickCSV(msgs []Message, subjectAny []string) (Message, string, []byte, bool) {
	for _, msg := range msgs {
		if !subjectMatches(msg.Subject, subjectAny) {
			continue
		}
		name, data, err := ExtractCSVAttachment(msg.Raw)
		if err != nil {
			continue
		}
		return msg, name, data, true
	}
	return Message{}, "", nil, false
}

func subjectMatches(subject string, keywords []string) bool {
	if len(keywords) == 0 {
		return true
	}
	s := strings.ToLower(subject)
	for _, k := range keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k != "" && strings.Contains(s, k) {
			return true
		}
	}
	return false
}

func dialAndLogin(addr, username, password string, tlsCfg *tls.Config) (*imapclient.Client, error) {
	if username == "" || password == "" {
		return nil, errors.New("imap username/password is required")
	}
	if tlsCfg == nil {
		tlsCfg = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	c, err := imapclient.DialTLS(addr, &imapclient.Options{TLSConfig: tlsCfg})
	if err != nil {
		return nil, fmt.Errorf("imap dial tls: %w", err)
	}

	if err := c.Login(username, password).Wait(); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("imap login: %w", err)
	}
	return c, nil
}

// fetchUnseen returns up to max unseen messages, newest first. Bodies are
// fetched with PEEK so nothing is marked seen here.
func fetchUnseen(ctx context.Context, c *imapclient.Client, max int) ([]Message, error) {
	criteria := &imap.SearchCriteria{
		NotFlag: []imap.Flag{imap.FlagSeen},
		Since:   time.Now().Add(-mailboxLookback),
	}
	searchData, err := c.UIDSearch(criteria, nil).Wait()
	if err != nil {
		return nil, fmt.Errorf("imap uid search unseen: %w", err)
	}

	uids := searchData.AllUIDs()
	if len(uids) == 0 {
		return nil, nil
	}
	for i, j := 0, len(uids)-1; i < j; i, j = i+1, j-1 {
		uids[i], uids[j] = uids[j], uids[i]
	}
	if len(uids) > max {
		uids = uids[:max]
	}

	bodyAll := &imap.FetchItemBodySection{Specifier: imap.PartSpecifierNone, Peek: true}
	fetchCmd := c.Fetch(imap.UIDSetNum(uids...), &imap.FetchOptions{
		UID:         true,
		Envelope:    true,
		BodySection: []*imap.FetchItemBodySection{bodyAll},
	})
	defer func() { _ = fetchCmd.Close() }()

	byUID := make(map[imap.UID]Message, len(uids))
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		msgData := fetchCmd.Next()
		if msgData == nil {
			break
		}
		buf, err := msgData.Collect()
		if err != nil {
			return nil, fmt.Errorf("imap fetch collect: %w", err)
		}

		msg := Message{UID: buf.UID}
		if buf.Envelope != nil {
			msg.Subject = buf.Envelope.Subject
			msg.Date = buf.Envelope.Date
		}
		if b := buf.FindBodySection(bodyAll); b != nil {
			msg.Raw = append([]byte(nil), b...)
		}
		byUID[msg.UID] = msg
	}
	if err := fetchCmd.Close(); err != nil {
		return nil, fmt.Errorf("imap fetch close: %w", err)
	}

	// servers may answer FETCH in any order
	out := make([]Message, 0, len(byUID))
	for _, uid := range uids {
		if msg, ok := byUID[uid]; ok {
			out = append(out, msg)
		}
	}
	return out, nil
}

func markSeenUIDs(c *imapclient.Client, uids []imap.UID) error {
	if len(uids) == 0 {
		return nil
	}
	cmd := c.Store(imap.UIDSetNum(uids...), &imap.StoreFlags{
		Op:     imap.StoreFlagsAdd,
		Silent: true,
		Flags:  []imap.Flag{imap.FlagSeen},
	}, nil)
	if err := cmd.Close(); err != nil {
		return fmt.Errorf("imap store add seen: %w", err)
	}
	return nil
}

func logoutAndClose(c *imapclient.Client, log *zap.Logger) {
	if c == nil {
		return
	}
	if err := c.Logout().Wait(); err != nil {
		log.Debug("imap logout", zap.Error(err))
	}
	_ = c.Close()
}
