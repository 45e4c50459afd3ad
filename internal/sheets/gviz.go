package sheets

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const DefaultBaseURL = "https://docs.google.com"

var ErrMalformed = errors.New("sheets: malformed gviz response")

// Cell is one gviz cell: the raw value and its formatted rendering.
type Cell struct {
	V any    `json:"v"`
	F string `json:"f"`
}

// Text renders the cell as the sheet shows it.
func (c *Cell) Text() string {
	if c == nil {
		return ""
	}
	switch v := c.V.(type) {
	case nil:
		return c.F
	case string:
		return strings.TrimSpace(v)
	case float64:
		if c.F != "" {
			return c.F
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprint(v)
	}
}

// Raw returns the unformatted value as a string; dates come back as
// gviz Date(y,m,d) literals.
func (c *Cell) Raw() string {
	if c == nil {
		return ""
	}
	if s, ok := c.V.(string); ok {
		return s
	}
	return c.Text()
}

// Row is one sheet row; missing cells are nil.
type Row struct {
	C []*Cell `json:"c"`
}

// Cell returns the cell at index i, or nil if the row is shorter.
func (r Row) Cell(i int) *Cell {
	if i < 0 || i >= len(r.C) {
		return nil
	}
	return r.C[i]
}

type Column struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Type  string `json:"type"`
}

type Table struct {
	Cols []Column `json:"cols"`
	Rows []Row    `json:"rows"`
}

type response struct {
	Status string `json:"status"`
	Errors []struct {
		Reason  string `json:"reason"`
		Message string `json:"message"`
	} `json:"errors"`
	Table Table `json:"table"`
}

// Parse decodes a gviz JSON-with-prefix payload:
//
//	/*O_o*/
//	google.visualization.Query.setResponse({...});
func Parse(payload []byte) (*Table, error) {
	start := bytes.IndexByte(payload, '(')
	end := bytes.LastIndexByte(payload, ')')
	if start < 0 || end <= start {
		return nil, ErrMalformed
	}
	var resp response
	if err := json.Unmarshal(payload[start+1:end], &resp); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	if resp.Status == "error" {
		msg := "unknown error"
		if len(resp.Errors) > 0 {
			msg = resp.Errors[0].Message
		}
		return nil, fmt.Errorf("sheets: query failed: %s", msg)
	}
	return &resp.Table, nil
}

// Client fetches published Google Sheets tabs through the gviz endpoint.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a Client. An empty baseURL uses DefaultBaseURL.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: &http.Client{Timeout: 15 * time.Second}}
}

// Fetch downloads and parses one tab of a sheet.
func (c *Client) Fetch(ctx context.Context, sheetID, tab string) (*Table, error) {
	q := url.Values{}
	q.Set("tqx", "out:json")
	if tab != "" {
		q.Set("sheet", tab)
	}
	u := fmt.Sprintf("%s/spreadsheets/d/%s/gviz/tq?%s", c.baseURL, url.PathEscape(sheetID), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("sheets: unexpected status %d for sheet %s", resp.StatusCode, sheetID)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil, err
	}
	return Parse(body)
}
