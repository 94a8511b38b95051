package docset

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"invoicedesk/internal/extract"
	"invoicedesk/internal/model"
	"invoicedesk/internal/normalize"
)

// IDGenerator generates unique batch and upload IDs
type IDGenerator interface {
	Generate() string
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

type uuidGenerator struct{}

func (uuidGenerator) Generate() string {
	return uuid.NewString()
}

type defaultTimeSource struct{}

func (defaultTimeSource) Now() time.Time {
	return time.Now()
}

// Service orchestrates batch processing: it saves the uploaded source
// documents, runs the per-file extractors sequentially, merges the
// resulting datasets, validates the merge and persists the batch.
type Service struct {
	db          DB
	storage     Storage
	dispatcher  extract.Dispatcher
	idGenerator IDGenerator
	timeSource  TimeSource
}

// NewService creates a Service with UUID ids and the wall clock.
func NewService(db DB, storage Storage, dispatcher extract.Dispatcher) *Service {
	return NewServiceWithDeps(db, storage, dispatcher, uuidGenerator{}, defaultTimeSource{})
}

// NewServiceWithDeps creates a Service with custom dependencies for testing.
func NewServiceWithDeps(db DB, storage Storage, dispatcher extract.Dispatcher, idGen IDGenerator, timeSrc TimeSource) *Service {
	return &Service{
		db:          db,
		storage:     storage,
		dispatcher:  dispatcher,
		idGenerator: idGen,
		timeSource:  timeSrc,
	}
}

var (
	filenameStrip  = regexp.MustCompile(`[^a-zA-Z0-9\s\-_]`)
	filenameSpaces = regexp.MustCompile(`\s+`)
)

// sanitizeFilename tames phone-generated and copy-pasted filenames
// before they hit the filesystem.
func sanitizeFilename(filename string) string {
	ext := filepath.Ext(filename)
	base := strings.TrimSuffix(filename, ext)
	base = filenameStrip.ReplaceAllString(base, "")
	base = strings.TrimSpace(filenameSpaces.ReplaceAllString(base, " "))
	if len(base) > 50 {
		base = base[:50]
	}
	if base == "" {
		base = "upload"
	}
	return base + ext
}

// ProcessBatch normalizes the uploaded files, in selection order, into
// one merged batch. Files are processed strictly sequentially so the
// merge order stays deterministic. Any hard failure (unsupported type,
// unreachable or failing extraction service, malformed response) aborts
// the whole batch: saved files are cleaned up and nothing is persisted.
func (s *Service) ProcessBatch(ctx context.Context, files []extract.File) (*Batch, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("at least one file is required")
	}

	now := s.timeSource.Now()
	batchID := s.idGenerator.Generate()

	var (
		uploads  []Upload
		datasets []*model.Dataset
	)

	cleanup := func() {
		for _, u := range uploads {
			if err := s.storage.Delete(u.StoredPath); err != nil {
				slog.Warn("Failed to clean up upload", "path", u.StoredPath, "error", err)
			}
		}
	}

	for _, file := range files {
		extractor, err := s.dispatcher.ForFile(file)
		if err != nil {
			cleanup()
			return nil, err
		}

		uploadID := s.idGenerator.Generate()
		savedPath, err := s.storage.Save(fmt.Sprintf("%s_%s", uploadID, sanitizeFilename(file.Name)), file.Data)
		if err != nil {
			cleanup()
			return nil, fmt.Errorf("saving %s: %w", file.Name, err)
		}
		uploads = append(uploads, Upload{
			ID:          uploadID,
			Filename:    file.Name,
			ContentType: file.ContentType,
			StoredPath:  savedPath,
			Size:        len(file.Data),
		})

		ds, err := extractor.Extract(ctx, file)
		if err != nil {
			slog.Error("Extraction failed",
				"filename", file.Name,
				"content_type", file.ContentType,
				"file_size", len(file.Data),
				"error", err,
			)
			cleanup()
			return nil, err
		}
		datasets = append(datasets, ds)
	}

	merged := Merge(datasets)
	warnings := Validate(merged)

	batch := &Batch{
		ID:        batchID,
		Dataset:   merged,
		Warnings:  warnings,
		Uploads:   uploads,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.db.SaveBatch(batch); err != nil {
		cleanup()
		return nil, fmt.Errorf("saving batch: %w", err)
	}

	return batch, nil
}

// GetBatch retrieves a batch by ID
func (s *Service) GetBatch(id string) (*Batch, error) {
	batch, err := s.db.GetBatch(id)
	if err != nil {
		return nil, fmt.Errorf("getting batch: %w", err)
	}
	return batch, nil
}

// ListBatches returns all batches
func (s *Service) ListBatches() ([]*Batch, error) {
	batches, err := s.db.ListBatches()
	if err != nil {
		return nil, fmt.Errorf("listing batches: %w", err)
	}
	return batches, nil
}

// DeleteBatch removes a batch and its stored source documents
func (s *Service) DeleteBatch(id string) error {
	batch, err := s.db.GetBatch(id)
	if err != nil {
		return fmt.Errorf("getting batch for deletion: %w", err)
	}

	for _, u := range batch.Uploads {
		if err := s.storage.Delete(u.StoredPath); err != nil {
			slog.Warn("Failed to delete stored file", "path", u.StoredPath, "error", err)
		}
	}

	if err := s.db.DeleteBatch(id); err != nil {
		return fmt.Errorf("deleting batch: %w", err)
	}
	return nil
}

// GetUploadFile returns the original bytes of one source document.
func (s *Service) GetUploadFile(batchID, uploadID string) ([]byte, string, error) {
	batch, err := s.db.GetBatch(batchID)
	if err != nil {
		return nil, "", fmt.Errorf("getting batch: %w", err)
	}

	for _, u := range batch.Uploads {
		if u.ID == uploadID {
			data, err := s.storage.Get(u.StoredPath)
			if err != nil {
				return nil, "", fmt.Errorf("getting upload file: %w", err)
			}
			return data, u.ContentType, nil
		}
	}
	return nil, "", fmt.Errorf("upload not found: %s", uploadID)
}

// ProductUpdate carries a partial product edit. Nil fields are left
// untouched.
type ProductUpdate struct {
	Name         *string  `json:"name"`
	Quantity     *float64 `json:"quantity"`
	UnitPrice    *float64 `json:"unitPrice"`
	Tax          *float64 `json:"tax"`
	PriceWithTax *float64 `json:"priceWithTax"`
	Discount     *float64 `json:"discount"`
}

// UpdateProduct applies a partial edit to a product. PriceWithTax is
// recomputed whenever UnitPrice or Tax changes, unless the update
// carries an explicit override. Invoices referencing the product keep
// their denormalized name in sync.
func (s *Service) UpdateProduct(batchID, productID string, upd ProductUpdate) (*Batch, error) {
	batch, err := s.db.GetBatch(batchID)
	if err != nil {
		return nil, fmt.Errorf("getting batch: %w", err)
	}

	var product *model.Product
	for i := range batch.Dataset.Products {
		if batch.Dataset.Products[i].ID == productID {
			product = &batch.Dataset.Products[i]
			break
		}
	}
	if product == nil {
		return nil, fmt.Errorf("product not found: %s", productID)
	}

	if upd.Name != nil && *upd.Name != "" && *upd.Name != product.Name {
		product.Name = *upd.Name
		for i := range batch.Dataset.Invoices {
			if batch.Dataset.Invoices[i].ProductID == productID {
				batch.Dataset.Invoices[i].ProductName = product.Name
			}
		}
	}
	if upd.Quantity != nil {
		product.Quantity = *upd.Quantity
	}
	if upd.Discount != nil {
		product.Discount = *upd.Discount
	}

	priceChanged := false
	if upd.UnitPrice != nil {
		product.UnitPrice = *upd.UnitPrice
		priceChanged = true
	}
	if upd.Tax != nil {
		product.Tax = *upd.Tax
		priceChanged = true
	}
	if upd.PriceWithTax != nil {
		product.PriceWithTax = *upd.PriceWithTax
	} else if priceChanged {
		product.ComputePriceWithTax()
	}

	return s.saveEdited(batch)
}

// CustomerUpdate carries a partial customer edit.
type CustomerUpdate struct {
	Name                *string  `json:"name"`
	CompanyName         *string  `json:"companyName"`
	PhoneNumber         *string  `json:"phoneNumber"`
	Email               *string  `json:"email"`
	Address             *string  `json:"address"`
	TotalPurchaseAmount *float64 `json:"totalPurchaseAmount"`
}

// UpdateCustomer applies a partial edit to a customer, keeping the
// denormalized invoice customer names in sync on rename.
func (s *Service) UpdateCustomer(batchID, customerID string, upd CustomerUpdate) (*Batch, error) {
	batch, err := s.db.GetBatch(batchID)
	if err != nil {
		return nil, fmt.Errorf("getting batch: %w", err)
	}

	var customer *model.Customer
	for i := range batch.Dataset.Customers {
		if batch.Dataset.Customers[i].ID == customerID {
			customer = &batch.Dataset.Customers[i]
			break
		}
	}
	if customer == nil {
		return nil, fmt.Errorf("customer not found: %s", customerID)
	}

	if upd.Name != nil && *upd.Name != "" && *upd.Name != customer.Name {
		customer.Name = *upd.Name
		for i := range batch.Dataset.Invoices {
			if batch.Dataset.Invoices[i].CustomerID == customerID {
				batch.Dataset.Invoices[i].CustomerName = customer.Name
			}
		}
	}
	if upd.CompanyName != nil {
		customer.CompanyName = *upd.CompanyName
	}
	if upd.PhoneNumber != nil {
		customer.PhoneNumber = *upd.PhoneNumber
	}
	if upd.Email != nil {
		customer.Email = *upd.Email
	}
	if upd.Address != nil {
		customer.Address = *upd.Address
	}
	if upd.TotalPurchaseAmount != nil {
		customer.TotalPurchaseAmount = *upd.TotalPurchaseAmount
	}

	return s.saveEdited(batch)
}

// InvoiceUpdate carries a partial invoice edit.
type InvoiceUpdate struct {
	SerialNumber *string  `json:"serialNumber"`
	Quantity     *float64 `json:"quantity"`
	Tax          *float64 `json:"tax"`
	TotalAmount  *float64 `json:"totalAmount"`
	Date         *string  `json:"date"`
}

// UpdateInvoice applies a partial edit to an invoice. Quantity must
// stay positive.
func (s *Service) UpdateInvoice(batchID, invoiceID string, upd InvoiceUpdate) (*Batch, error) {
	batch, err := s.db.GetBatch(batchID)
	if err != nil {
		return nil, fmt.Errorf("getting batch: %w", err)
	}

	var invoice *model.Invoice
	for i := range batch.Dataset.Invoices {
		if batch.Dataset.Invoices[i].ID == invoiceID {
			invoice = &batch.Dataset.Invoices[i]
			break
		}
	}
	if invoice == nil {
		return nil, fmt.Errorf("invoice not found: %s", invoiceID)
	}

	if upd.Quantity != nil {
		if *upd.Quantity <= 0 {
			return nil, fmt.Errorf("invoice quantity must be positive")
		}
		invoice.Quantity = *upd.Quantity
	}
	if upd.SerialNumber != nil && *upd.SerialNumber != "" {
		invoice.SerialNumber = *upd.SerialNumber
	}
	if upd.Tax != nil {
		invoice.Tax = *upd.Tax
	}
	if upd.TotalAmount != nil {
		invoice.TotalAmount = *upd.TotalAmount
	}
	if upd.Date != nil {
		invoice.Date = normalize.ToISODate(*upd.Date, s.timeSource.Now())
	}

	return s.saveEdited(batch)
}

func (s *Service) saveEdited(batch *Batch) (*Batch, error) {
	batch.Warnings = Validate(batch.Dataset)
	batch.UpdatedAt = s.timeSource.Now()
	if err := s.db.SaveBatch(batch); err != nil {
		return nil, fmt.Errorf("saving batch: %w", err)
	}
	return batch, nil
}
