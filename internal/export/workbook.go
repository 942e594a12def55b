package export

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/anonto42/nano-midea/localstore/internal/models"
	"github.com/anonto42/nano-midea/localstore/internal/store"
)

// SessionSheet is the sheet holding the session user
const SessionSheet = "session"

type sheet struct {
	name   string
	header []string
	rows   [][]any
}

// WriteWorkbook writes every collection of s to w as an xlsx workbook, one
// sheet per collection plus a session sheet. Passwords are never exported.
func WriteWorkbook(ctx context.Context, s *store.Store, w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	sheets := collectSheets(ctx, s)
	for i, sh := range sheets {
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), sh.name); err != nil {
				return fmt.Errorf("rename sheet %s: %w", sh.name, err)
			}
		} else if _, err := f.NewSheet(sh.name); err != nil {
			return fmt.Errorf("create sheet %s: %w", sh.name, err)
		}
		if err := writeSheet(f, sh); err != nil {
			return err
		}
	}
	f.SetActiveSheet(0)

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, sh sheet) error {
	header := make([]any, len(sh.header))
	for i, h := range sh.header {
		header[i] = h
	}
	if err := f.SetSheetRow(sh.name, "A1", &header); err != nil {
		return fmt.Errorf("write %s header: %w", sh.name, err)
	}
	for i, row := range sh.rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sh.name, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sh.name, i+1, err)
		}
	}
	return nil
}

func collectSheets(ctx context.Context, s *store.Store) []sheet {
	users := sheet{name: store.KeyUsers, header: []string{"username", "email", "displayName", "bio", "profilePic", "friends"}}
	for _, u := range store.NewCollection[models.User](s, store.KeyUsers).All(ctx) {
		users.rows = append(users.rows, []any{u.Username, u.Email, u.DisplayName, u.Bio, u.ProfilePic, strings.Join(u.Friends, ", ")})
	}

	posts := sheet{name: store.KeyPosts, header: []string{"id", "username", "caption", "images", "timestamp"}}
	for _, p := range store.NewCollection[models.Post](s, store.KeyPosts).All(ctx) {
		posts.rows = append(posts.rows, []any{p.ID, p.Username, p.Caption, strings.Join(p.Images, ", "), stamp(p.Timestamp)})
	}

	comments := sheet{name: store.KeyComments, header: []string{"id", "postId", "username", "text", "timestamp"}}
	for _, c := range store.NewCollection[models.Comment](s, store.KeyComments).All(ctx) {
		comments.rows = append(comments.rows, []any{c.ID, c.PostID, c.Username, c.Text, stamp(c.Timestamp)})
	}

	likes := sheet{name: store.KeyLikes, header: []string{"id", "postId", "username", "timestamp"}}
	for _, l := range store.NewCollection[models.Like](s, store.KeyLikes).All(ctx) {
		likes.rows = append(likes.rows, []any{l.ID, l.PostID, l.Username, stamp(l.Timestamp)})
	}

	messages := sheet{name: store.KeyMessages, header: []string{"id", "from", "to", "text", "timestamp", "read"}}
	for _, m := range store.NewCollection[models.Message](s, store.KeyMessages).All(ctx) {
		messages.rows = append(messages.rows, []any{m.ID, m.From, m.To, m.Text, stamp(m.Timestamp), m.Read})
	}

	requests := sheet{name: store.KeyFriendRequests, header: []string{"id", "from", "to", "status", "timestamp"}}
	for _, r := range store.NewCollection[models.FriendRequest](s, store.KeyFriendRequests).All(ctx) {
		requests.rows = append(requests.rows, []any{r.ID, r.From, r.To, string(r.Status), stamp(r.Timestamp)})
	}

	notifications := sheet{name: store.KeyNotifications, header: []string{"id", "type", "from", "to", "message", "postId", "timestamp", "read"}}
	for _, n := range store.NewCollection[models.Notification](s, store.KeyNotifications).All(ctx) {
		notifications.rows = append(notifications.rows, []any{n.ID, string(n.Type), n.From, n.To, n.Message, n.PostID, stamp(n.Timestamp), n.Read})
	}

	session := sheet{name: SessionSheet, header: []string{"username", "email", "displayName"}}
	if u := store.NewRecord[models.User](s, store.KeyCurrentUser).Get(ctx); u != nil {
		session.rows = append(session.rows, []any{u.Username, u.Email, u.DisplayName})
	}

	return []sheet{users, posts, comments, likes, messages, requests, notifications, session}
}

func stamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}
