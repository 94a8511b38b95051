package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

var (
	// ErrServiceUnreachable means the extraction service could not be
	// reached at all (DNS, connection refused, timeout).
	ErrServiceUnreachable = errors.New("extraction service unreachable")

	// ErrServiceFailure means the service responded but reported a
	// failure (non-2xx status or an error payload).
	ErrServiceFailure = errors.New("extraction service failure")

	// ErrMalformedResponse means the service returned JSON that could
	// not be parsed at all. Missing tabs are not malformed; they
	// degrade to empty.
	ErrMalformedResponse = errors.New("malformed extraction response")
)

// Remote is a Collaborator backed by an HTTP extraction service. The
// file is posted as the multipart form field "file" and the response is
// expected to carry the three tabs.
type Remote struct {
	endpoint string
	client   *http.Client
}

// NewRemote creates a Remote collaborator for one endpoint. The service
// itself imposes no deadline, so a client-side timeout is required.
func NewRemote(endpoint string, timeout time.Duration) *Remote {
	return &Remote{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

// remoteResponse covers both the success and the failure payload shapes
// the service is known to produce.
type remoteResponse struct {
	TabGuess
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (r *Remote) ExtractTabs(ctx context.Context, file File) (*TabGuess, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", file.Name)
	if err != nil {
		return nil, fmt.Errorf("building form: %w", err)
	}
	if _, err := part.Write(file.Data); err != nil {
		return nil, fmt.Errorf("writing form file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("closing form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, &body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrServiceUnreachable, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %v", ErrServiceUnreachable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := failureMessage(payload)
		if msg == "" {
			msg = strings.TrimSpace(string(payload))
		}
		return nil, fmt.Errorf("%w: status %d: %s", ErrServiceFailure, resp.StatusCode, msg)
	}

	var decoded remoteResponse
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	if decoded.Error != "" {
		return nil, fmt.Errorf("%w: %s", ErrServiceFailure, decoded.Error)
	}
	if decoded.Message != "" && emptyTabs(decoded.TabGuess) {
		return nil, fmt.Errorf("%w: %s", ErrServiceFailure, decoded.Message)
	}

	return &decoded.TabGuess, nil
}

func (r *Remote) Close() error {
	return nil
}

// failureMessage pulls the error or message field out of a failure
// payload, tolerating non-JSON bodies.
func failureMessage(payload []byte) string {
	var failure struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(payload, &failure); err != nil {
		return ""
	}
	if failure.Error != "" {
		return failure.Error
	}
	return failure.Message
}

func emptyTabs(guess TabGuess) bool {
	return len(decodeRecords(guess.ProductsTab)) == 0 &&
		len(decodeRecords(guess.CustomersTab)) == 0 &&
		len(decodeRecords(guess.InvoicesTab)) == 0
}
