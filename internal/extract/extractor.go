package extract

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"invoicedesk/internal/model"
)

// File is one uploaded source document.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// ErrUnsupportedType is returned when a file's MIME type matches none
// of the known source kinds. The file is rejected outright, with no
// partial output.
var ErrUnsupportedType = errors.New("unsupported file type")

// Extractor turns one source file into a normalized dataset. The three
// implementations (Tabular, Document, Image) are selected per file by a
// Dispatcher, keeping downstream merging and validation independent of
// the input format.
type Extractor interface {
	Extract(ctx context.Context, file File) (*model.Dataset, error)
}

// Collaborator is the external extraction service that converts raw
// document or image bytes into a loosely structured tab guess.
type Collaborator interface {
	ExtractTabs(ctx context.Context, file File) (*TabGuess, error)
	Close() error
}

// Dispatcher selects the extraction strategy for a file. Documents and
// images may be served by different collaborators (e.g. separate remote
// endpoints), or by the same one.
type Dispatcher struct {
	Documents Collaborator
	Images    Collaborator
}

// ForFile returns the extractor responsible for the file's content type.
func (d Dispatcher) ForFile(file File) (Extractor, error) {
	ct := strings.ToLower(strings.TrimSpace(file.ContentType))
	switch {
	case strings.Contains(ct, "spreadsheet"), strings.Contains(ct, "excel"), strings.Contains(ct, "csv"):
		return Tabular{}, nil
	case strings.Contains(ct, "pdf"):
		return Document{Collab: d.Documents}, nil
	case strings.HasPrefix(ct, "image/"):
		return Image{Collab: d.Images}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedType, file.ContentType)
}

// Close closes the underlying collaborators.
func (d Dispatcher) Close() error {
	var errs []error
	if d.Documents != nil {
		errs = append(errs, d.Documents.Close())
	}
	if d.Images != nil && d.Images != d.Documents {
		errs = append(errs, d.Images.Close())
	}
	return errors.Join(errs...)
}

// Document extracts a dataset from a PDF by delegating to the
// extraction collaborator.
type Document struct {
	Collab Collaborator
}

func (d Document) Extract(ctx context.Context, file File) (*model.Dataset, error) {
	return extractViaCollaborator(ctx, d.Collab, file)
}

// Image extracts a dataset from a photo or scan by delegating to the
// extraction collaborator.
type Image struct {
	Collab Collaborator
}

func (i Image) Extract(ctx context.Context, file File) (*model.Dataset, error) {
	return extractViaCollaborator(ctx, i.Collab, file)
}

func extractViaCollaborator(ctx context.Context, collab Collaborator, file File) (*model.Dataset, error) {
	guess, err := collab.ExtractTabs(ctx, file)
	if err != nil {
		return nil, fmt.Errorf("extracting %s: %w", file.Name, err)
	}
	return NormalizeGuess(guess), nil
}
