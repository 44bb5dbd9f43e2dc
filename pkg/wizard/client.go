package wizard

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/botslatam/admin-engine/pkg/models"
)

// Client talks to the upload endpoints on behalf of the wizard. It issues
// exactly one request per call and never retries; retry policy belongs to
// the wizard's state transitions.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates a client for the given base URL. The token is sent as
// a bearer credential on every request.
func NewClient(baseURL, token string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: httpClient,
	}
}

// previewResponse mirrors the body of POST /api/v1/upload/preview.
type previewResponse struct {
	Success bool                `json:"success"`
	Data    *models.PreviewData `json:"data"`
	Message string              `json:"message"`
}

// tablesResponse mirrors the body of GET /api/v1/upload/tables.
type tablesResponse struct {
	Success bool                              `json:"success"`
	Tables  map[string]models.TableDescriptor `json:"tables"`
	Message string                            `json:"message"`
}

// insertPayload is the body of POST /api/v1/upload/insert.
type insertPayload struct {
	TableName      string               `json:"table_name"`
	ColumnMapping  map[string]string    `json:"column_mapping"`
	Data           []map[string]string  `json:"data"`
	CreateNewTable bool                 `json:"create_new_table"`
	NewTableInfo   *models.NewTableSpec `json:"new_table_info,omitempty"`
}

// Preview uploads the file and returns the server-generated preview.
// A non-success HTTP outcome yields a TransportError; a success outcome
// whose body reports failure yields a ProcessingError.
func (c *Client) Preview(ctx context.Context, filename string, file io.Reader) (*models.PreviewData, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to build multipart body: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/upload/preview", &body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	var resp previewResponse
	if err := c.do(req, "preview", &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, &ProcessingError{Message: resp.Message}
	}
	return resp.Data, nil
}

// Tables fetches the catalog of destination tables.
func (c *Client) Tables(ctx context.Context) (map[string]models.TableDescriptor, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v1/upload/tables", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	var resp tablesResponse
	if err := c.do(req, "tables", &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, &ProcessingError{Message: resp.Message}
	}
	return resp.Tables, nil
}

// Insert posts one ingestion submission. A non-success HTTP outcome yields
// a TransportError; a success outcome whose body reports failure yields an
// InsertionError. The result is returned for display either way on success.
func (c *Client) Insert(ctx context.Context, payload *insertPayload) (*models.IngestionResult, error) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/upload/insert", bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var result models.IngestionResult
	if err := c.do(req, "insert", &result); err != nil {
		return nil, err
	}
	if !result.Success {
		return nil, &InsertionError{Message: result.Message}
	}
	return &result, nil
}

// do sends the request with the bearer token and decodes a 2xx JSON body
// into out. Everything else becomes a TransportError.
func (c *Client) do(req *http.Request, op string, out interface{}) error {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, resp.Body)
		return &TransportError{Op: op, StatusCode: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &TransportError{Op: op, Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	return nil
}
