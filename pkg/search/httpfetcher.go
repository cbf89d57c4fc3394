package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// remoteRecord is the wire shape a remote module endpoint returns.
// The id field the record is keyed by depends on the module.
type remoteRecord struct {
	UserID      string `json:"zuid,omitempty"`
	ChatID      string `json:"chat_id,omitempty"`
	MessageID   string `json:"message_id,omitempty"`
	ID          string `json:"id,omitempty"`
	Name        string `json:"name,omitempty"`
	Email       string `json:"email,omitempty"`
	Title       string `json:"title,omitempty"`
	Text        string `json:"text,omitempty"`
	Sender      string `json:"sender,omitempty"`
	Description string `json:"description,omitempty"`
	TypeCode    int    `json:"type_code,omitempty"`
}

// HTTPFetcher is a Fetcher backed by a JSON HTTP endpoint. The
// endpoint receives the serialized query and module tag as query
// parameters and returns an array of records.
type HTTPFetcher struct {
	tag     Module
	baseURL string
	client  *http.Client
}

// NewHTTPFetcher creates an HTTP-backed fetcher for one module.
func NewHTTPFetcher(tag Module, baseURL string, timeout time.Duration) *HTTPFetcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPFetcher{
		tag:     tag,
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

func (f *HTTPFetcher) Module() Module { return f.tag }

// Fetch queries the remote endpoint. Cancellation of ctx propagates
// through the HTTP client and surfaces as a context error.
func (f *HTTPFetcher) Fetch(ctx context.Context, query *ParsedQuery) ([]Item, error) {
	params := url.Values{}
	params.Set("q", query.Serialize())
	params.Set("module", string(f.tag))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", f.tag, err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		// Unwrap so cancellation stays distinguishable upstream.
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("fetch %s: %w", f.tag, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: unexpected status %d", f.tag, resp.StatusCode)
	}

	var records []remoteRecord
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return nil, fmt.Errorf("decode %s response: %w", f.tag, err)
	}

	items := make([]Item, 0, len(records))
	for _, record := range records {
		items = append(items, record.item(f.tag))
	}
	return items, nil
}

// item tags a raw record with its module, remote origin and the
// module-specific canonical identifier field.
func (r remoteRecord) item(tag Module) Item {
	switch {
	case tag == ModuleUsers:
		id := r.UserID
		if id == "" {
			id = r.ID
		}
		return UserItem{ID: id, Name: r.Name, Email: r.Email, Source: OriginRemote}
	case chatLikeModule(tag):
		id := r.ChatID
		if id == "" {
			id = r.ID
		}
		return ChatItem{ID: id, Title: r.Title, TypeCode: r.TypeCode, Tag: tag, Source: OriginRemote}
	case tag == ModuleMessages:
		id := r.MessageID
		if id == "" {
			id = r.ID
		}
		return MessageItem{ID: id, Text: r.Text, Sender: r.Sender, Source: OriginRemote}
	case tag == ModuleFiles:
		return FileItem{ID: r.ID, Name: r.Name, Source: OriginRemote}
	default:
		title := r.Title
		if title == "" {
			title = r.Name
		}
		return GenericItem{ID: r.ID, Title: title, Description: r.Description, Tag: tag, Source: OriginRemote}
	}
}
