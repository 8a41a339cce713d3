package handler

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"itinera/internal/domain"
	"itinera/internal/service"
)

const (
	// webhookSlack covers JSON framing and escaping around an email body,
	// and multipart framing around uploaded files.
	webhookSlack = 1 << 20

	// MaxUploadFiles bounds the file parts of one upload request.
	MaxUploadFiles = 10
)

// IngestHandler handles document ingestion endpoints.
type IngestHandler struct {
	ingest   service.IngestionService
	maxBytes int64
}

// NewIngestHandler creates a new IngestHandler. maxBytes bounds a single document.
func NewIngestHandler(ingest service.IngestionService, maxBytes int64) *IngestHandler {
	return &IngestHandler{ingest: ingest, maxBytes: maxBytes}
}

// emailWebhookRequest is the inbound-mail provider payload.
type emailWebhookRequest struct {
	OwnerID string `json:"owner_id" binding:"required"`
	Subject string `json:"subject"`
	From    string `json:"from"`
	Text    string `json:"text"`
	HTML    string `json:"html"`
}

// uploadItem is one entry of a multi-file upload response.
type uploadItem struct {
	Filename string                  `json:"filename"`
	Result   *domain.IngestionResult `json:"result,omitempty"`
	Error    *APIError               `json:"error,omitempty"`
}

// EmailWebhook handles POST /api/v1/ingest/email
func (h *IngestHandler) EmailWebhook(c *gin.Context) {
	if h.maxBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBytes+webhookSlack)
	}

	var req emailWebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			HandleError(c, domain.ErrDocumentTooLarge)
			return
		}
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "owner_id and one of text or html are required")
		return
	}

	ownerID, err := uuid.Parse(req.OwnerID)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_OWNER", "invalid owner_id")
		return
	}

	// The HTML part wins when both are present.
	doc := &domain.InboundDocument{
		OwnerID: ownerID,
		Channel: domain.ChannelEmail,
		Subject: req.Subject,
		ReplyTo: req.From,
	}
	if strings.TrimSpace(req.HTML) != "" {
		doc.RawHTML = req.HTML
		doc.MimeType = domain.MimeTextHTML
	} else {
		doc.RawText = req.Text
		doc.MimeType = domain.MimeTextPlain
	}

	result, err := h.ingest.Ingest(c.Request.Context(), doc)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, result)
}

// Upload handles POST /api/v1/ingest/upload
func (h *IngestHandler) Upload(c *gin.Context) {
	ownerID, ok := ownerFromContext(c)
	if !ok {
		return
	}

	if h.maxBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxUploadFiles*h.maxBytes+webhookSlack)
	}

	form, err := c.MultipartForm()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			HandleError(c, domain.ErrDocumentTooLarge)
			return
		}
		RespondError(c, http.StatusBadRequest, "MISSING_FILE", "file field is required")
		return
	}
	headers := form.File["file"]
	switch {
	case len(headers) == 0:
		RespondError(c, http.StatusBadRequest, "MISSING_FILE", "file field is required")
		return
	case len(headers) > MaxUploadFiles:
		RespondError(c, http.StatusBadRequest, "TOO_MANY_FILES",
			fmt.Sprintf("at most %d files per upload", MaxUploadFiles))
		return
	}

	docs := make([]*domain.InboundDocument, 0, len(headers))
	for _, fh := range headers {
		doc, err := h.readUpload(ownerID, fh)
		if err != nil {
			HandleError(c, err)
			return
		}
		docs = append(docs, doc)
	}

	if len(docs) == 1 {
		result, err := h.ingest.Ingest(c.Request.Context(), docs[0])
		if err != nil {
			HandleError(c, err)
			return
		}
		RespondOK(c, result)
		return
	}

	batch := h.ingest.IngestBatch(c.Request.Context(), docs)
	items := make([]uploadItem, len(batch))
	for i, b := range batch {
		items[i] = uploadItem{Filename: docs[i].Filename, Result: b.Result}
		if b.Err != nil {
			_, code, msg := MapDomainError(b.Err)
			items[i].Error = &APIError{Code: code, Message: msg}
		}
	}
	RespondOK(c, items)
}

func (h *IngestHandler) readUpload(ownerID uuid.UUID, fh *multipart.FileHeader) (*domain.InboundDocument, error) {
	if h.maxBytes > 0 && fh.Size > h.maxBytes {
		return nil, fmt.Errorf("%s: %w", fh.Filename, domain.ErrDocumentTooLarge)
	}
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("opening upload %s: %w", fh.Filename, err)
	}
	defer func() { _ = f.Close() }()

	var r io.Reader = f
	if h.maxBytes > 0 {
		r = io.LimitReader(f, h.maxBytes+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading upload %s: %w", fh.Filename, err)
	}
	if h.maxBytes > 0 && int64(len(data)) > h.maxBytes {
		return nil, fmt.Errorf("%s: %w", fh.Filename, domain.ErrDocumentTooLarge)
	}

	return &domain.InboundDocument{
		SourceBytes: data,
		MimeType:    uploadMimeType(fh),
		OwnerID:     ownerID,
		Channel:     domain.ChannelUpload,
		Filename:    fh.Filename,
	}, nil
}

// uploadMimeType trusts a specific part Content-Type and otherwise falls
// back to the file extension. An empty result lets the service sniff.
func uploadMimeType(fh *multipart.FileHeader) string {
	ct := fh.Header.Get("Content-Type")
	if ct != "" && !strings.HasPrefix(ct, "application/octet-stream") {
		return ct
	}
	switch strings.ToLower(filepath.Ext(fh.Filename)) {
	case ".pdf":
		return domain.MimePDF
	case ".html", ".htm":
		return domain.MimeTextHTML
	case ".txt", ".eml":
		return domain.MimeTextPlain
	}
	return ""
}
