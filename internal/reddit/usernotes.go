package reddit

import (
	"bytes"
	"context"
	"encoding/base64"
	"flairhq/internal/models"
	"flairhq/internal/providers"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"

	json "github.com/goccy/go-json"
	"github.com/klauspost/compress/zlib"
)

const (
	usernotesPage    = "usernotes"
	usernotesVersion = 6
)

// usernotesDoc is the toolbox wiki document: constants plus a zlib+base64 blob of notes.
type usernotesDoc struct {
	Version   int `json:"ver"`
	Constants struct {
		Users    []string `json:"users"`
		Warnings []string `json:"warnings"`
	} `json:"constants"`
	Blob string `json:"blob"`
}

type userNotes struct {
	Notes []noteEntry `json:"ns"`
}

type noteEntry struct {
	Note    string `json:"n"`
	Time    int64  `json:"t"`
	Mod     int    `json:"m"`
	Link    string `json:"l"`
	Warning int    `json:"w"`
}

type wikiPageResponse struct {
	Data struct {
		Content string `json:"content_md"`
	} `json:"data"`
}

// AddUsernote prepends a note for the user on the subject's toolbox usernotes page.
func (c *Client) AddUsernote(ctx context.Context, cred models.Credential, note models.Usernote) error {
	c.notesMu.Lock()
	defer c.notesMu.Unlock()

	doc, err := c.readUsernotes(ctx, cred, note.Subject)
	if err != nil {
		return fmt.Errorf("reddit.AddUsernote: %w", err)
	}

	notes, err := decodeBlob(doc.Blob)
	if err != nil {
		return fmt.Errorf("reddit.AddUsernote: %w", err)
	}

	entry := noteEntry{
		Note:    note.Note,
		Time:    c.now().Unix(),
		Mod:     constantIndex(&doc.Constants.Users, note.Mod),
		Link:    note.Link,
		Warning: constantIndex(&doc.Constants.Warnings, note.Category),
	}
	un := notes[note.User]
	un.Notes = append([]noteEntry{entry}, un.Notes...)
	notes[note.User] = un

	doc.Blob, err = encodeBlob(notes)
	if err != nil {
		return fmt.Errorf("reddit.AddUsernote: %w", err)
	}
	content, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("reddit.AddUsernote: %w", err)
	}

	form := url.Values{}
	form.Set("page", usernotesPage)
	form.Set("content", string(content))
	form.Set("reason", "\"create new note on user "+note.User+"\" via "+note.Mod)
	if err := c.postForm(ctx, cred, "/r/"+url.PathEscape(note.Subject)+"/api/wiki/edit", form, nil); err != nil {
		return fmt.Errorf("reddit.AddUsernote: %w", err)
	}
	return nil
}

func (c *Client) readUsernotes(ctx context.Context, cred models.Credential, subject string) (*usernotesDoc, error) {
	var page wikiPageResponse
	err := c.get(ctx, cred, "/r/"+url.PathEscape(subject)+"/wiki/"+usernotesPage, &page)
	if IsStatus(err, http.StatusNotFound) || (err == nil && page.Data.Content == "") {
		c.logger.Infof(providers.TypeApp, "Starting a new usernotes page on /r/%s", subject)
		return &usernotesDoc{Version: usernotesVersion}, nil
	}
	if err != nil {
		return nil, err
	}

	var doc usernotesDoc
	if err := json.Unmarshal([]byte(page.Data.Content), &doc); err != nil {
		return nil, fmt.Errorf("decode usernotes page: %w", err)
	}
	if doc.Version != usernotesVersion {
		return nil, fmt.Errorf("unsupported usernotes version %d", doc.Version)
	}
	return &doc, nil
}

func constantIndex(list *[]string, value string) int {
	if i := slices.Index(*list, value); i >= 0 {
		return i
	}
	*list = append(*list, value)
	return len(*list) - 1
}

func decodeBlob(blob string) (map[string]userNotes, error) {
	notes := make(map[string]userNotes)
	if blob == "" {
		return notes, nil
	}
	raw, err := base64.StdEncoding.DecodeString(blob)
	if err != nil {
		return nil, fmt.Errorf("decode usernotes blob: %w", err)
	}
	zr, err := zlib.NewReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("inflate usernotes blob: %w", err)
	}
	defer zr.Close()
	data, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("inflate usernotes blob: %w", err)
	}
	if err := json.Unmarshal(data, &notes); err != nil {
		return nil, fmt.Errorf("decode usernotes: %w", err)
	}
	return notes, nil
}

func encodeBlob(notes map[string]userNotes) (string, error) {
	data, err := json.Marshal(notes)
	if err != nil {
		return "", fmt.Errorf("encode usernotes: %w", err)
	}
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		return "", fmt.Errorf("deflate usernotes: %w", err)
	}
	if err := zw.Close(); err != nil {
		return "", fmt.Errorf("deflate usernotes: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
