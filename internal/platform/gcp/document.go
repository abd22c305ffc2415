package gcp

import (
	"context"
	"fmt"
	"os"
	"strings"

	documentai "cloud.google.com/go/documentai/apiv1"
	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"google.golang.org/api/option"

	"github.com/openlearn/catalog-backend/internal/platform/logger"
)

// Document is the text-extraction boundary: raw bytes plus a content type in,
// plain text plus metadata out. The content pipeline treats it as a black box.
type Document interface {
	Extract(ctx context.Context, data []byte, mimeType string) (*ExtractResult, error)
	Close() error
}

type ExtractResult struct {
	Content  string            `json:"content"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

type documentService struct {
	log       *logger.Logger
	client    *documentai.DocumentProcessorClient
	processor string
}

// NewDocument builds the Document AI client. The processor path comes from
// DOCUMENTAI_PROJECT_ID / DOCUMENTAI_LOCATION / DOCUMENTAI_PROCESSOR_ID.
func NewDocument(ctx context.Context, log *logger.Logger) (Document, error) {
	slog := log.With("service", "gcp.Document")

	projectID := strings.TrimSpace(os.Getenv("DOCUMENTAI_PROJECT_ID"))
	processorID := strings.TrimSpace(os.Getenv("DOCUMENTAI_PROCESSOR_ID"))
	if projectID == "" || processorID == "" {
		return nil, fmt.Errorf("missing env vars DOCUMENTAI_PROJECT_ID / DOCUMENTAI_PROCESSOR_ID")
	}
	location := strings.TrimSpace(os.Getenv("DOCUMENTAI_LOCATION"))
	if location == "" {
		location = "us"
	}

	// Document AI needs the regional endpoint.
	endpoint := fmt.Sprintf("%s-documentai.googleapis.com:443", location)
	opts := append([]option.ClientOption{option.WithEndpoint(endpoint)}, ClientOptionsFromEnv()...)
	client, err := documentai.NewDocumentProcessorClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("documentai client: %w", err)
	}

	slog.Info("Document AI initialized", "endpoint", endpoint)
	return &documentService{
		log:       slog,
		client:    client,
		processor: fmt.Sprintf("projects/%s/locations/%s/processors/%s", projectID, location, processorID),
	}, nil
}

func (ds *documentService) Extract(ctx context.Context, data []byte, mimeType string) (*ExtractResult, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty document")
	}
	if mimeType == "" {
		mimeType = "application/pdf"
	}

	resp, err := ds.client.ProcessDocument(ctx, &documentaipb.ProcessRequest{
		Name: ds.processor,
		Source: &documentaipb.ProcessRequest_RawDocument{
			RawDocument: &documentaipb.RawDocument{
				Content:  data,
				MimeType: mimeType,
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("process document: %w", err)
	}

	doc := resp.GetDocument()
	result := &ExtractResult{
		Content:  doc.GetText(),
		Metadata: map[string]string{"mime_type": mimeType},
	}
	if pages := doc.GetPages(); len(pages) > 0 {
		result.Metadata["pages"] = fmt.Sprintf("%d", len(pages))
	}
	return result, nil
}

func (ds *documentService) Close() error {
	return ds.client.Close()
}
