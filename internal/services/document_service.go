package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/fi-advisor/fi/internal/docstore"
	"github.com/fi-advisor/fi/internal/integrations/nlp"
	"github.com/fi-advisor/fi/internal/integrations/pdftext"
	"github.com/fi-advisor/fi/internal/models"
	"github.com/fi-advisor/fi/internal/storage/blob"
	apperrors "github.com/fi-advisor/fi/pkg/errors"
	"github.com/fi-advisor/fi/pkg/logger"
	"github.com/fi-advisor/fi/pkg/metrics"
	"github.com/fi-advisor/fi/pkg/validator"
)

// DefaultMaxUploadSize bounds uploaded document files.
const DefaultMaxUploadSize int64 = 10 << 20

// Document sources reported on views.
const (
	SourceDatabase = "database"
	SourceLocal    = "local"
)

const localIDPrefix = "local_"

var (
	// ErrDocumentNotFound indicates the document does not exist.
	ErrDocumentNotFound = apperrors.New("DOCUMENT_NOT_FOUND", "Document not found", http.StatusNotFound)
	// ErrDocumentFileNotFound indicates the document exists but its file is gone.
	ErrDocumentFileNotFound = apperrors.New("DOCUMENT_FILE_NOT_FOUND", "Document file not found", http.StatusNotFound)
	// ErrUnsupportedFileType rejects uploads that are neither PDF nor text.
	ErrUnsupportedFileType = apperrors.New("UNSUPPORTED_FILE_TYPE", "Only PDF and text documents are supported", http.StatusBadRequest)
	// ErrDocumentNoText is returned when analysing a document without extractable text.
	ErrDocumentNoText = apperrors.New("DOCUMENT_NO_TEXT", "Document has no extractable text", http.StatusBadRequest)
)

// EntityAnalyzer extracts entities from free text.
type EntityAnalyzer interface {
	AnalyzeEntities(ctx context.Context, text string) ([]nlp.Entity, error)
}

// UploadInput describes an uploaded document.
type UploadInput struct {
	UserID      string
	Name        string
	Description string
	Category    string
	Filename    string
	ContentType string
	Data        []byte
}

// SaveAnalysisInput is an analysis produced elsewhere and attached to a document.
type SaveAnalysisInput struct {
	DocumentType string
	Source       string
	Payload      map[string]any
	KeyPoints    []string
}

// DocumentView is the API representation of a document from either store.
type DocumentView struct {
	ID          string     `json:"id"`
	UserID      string     `json:"userId"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Category    string     `json:"category"`
	MimeType    string     `json:"mimeType"`
	Size        int64      `json:"size"`
	FileURL     string     `json:"fileUrl,omitempty"`
	UploadDate  time.Time  `json:"uploadDate"`
	AnalyzedAt  *time.Time `json:"analyzedAt,omitempty"`
	Source      string     `json:"source"`

	textContent string
	storageKey  string
}

// AnalysisView is the API representation of a document analysis.
type AnalysisView struct {
	ID           string         `json:"id"`
	DocumentID   string         `json:"documentId"`
	UserID       string         `json:"userId"`
	DocumentType string         `json:"documentType,omitempty"`
	Source       string         `json:"source"`
	Payload      map[string]any `json:"payload"`
	KeyPoints    []string       `json:"keyPoints"`
	CreatedAt    time.Time      `json:"createdAt"`
}

// DocumentStats summarises a user's documents.
type DocumentStats struct {
	Total      int            `json:"total"`
	TotalSize  int64          `json:"totalSize"`
	Analyzed   int            `json:"analyzed"`
	Local      int            `json:"local"`
	ByCategory map[string]int `json:"byCategory"`
}

// DocumentOption customises a DocumentService.
type DocumentOption func(*DocumentService)

// WithMaxUploadSize overrides DefaultMaxUploadSize.
func WithMaxUploadSize(n int64) DocumentOption {
	return func(s *DocumentService) {
		if n > 0 {
			s.maxSize = n
		}
	}
}

// WithDocumentClock overrides the time source.
func WithDocumentClock(now func() time.Time) DocumentOption {
	return func(s *DocumentService) {
		if now != nil {
			s.now = now
		}
	}
}

// DocumentService stores documents in the database and blob storage and falls back
// to the local in-memory store whenever the primary store fails or is absent.
type DocumentService struct {
	db       *gorm.DB
	blobs    blob.Storage
	local    *docstore.Store
	analyzer EntityAnalyzer
	maxSize  int64
	now      func() time.Time
	log      *zap.Logger
}

// NewDocumentService constructs a DocumentService. db, blobs and analyzer may be nil;
// local is required.
func NewDocumentService(db *gorm.DB, blobs blob.Storage, local *docstore.Store, analyzer EntityAnalyzer, opts ...DocumentOption) (*DocumentService, error) {
	if local == nil {
		return nil, errors.New("document service: local store is required")
	}
	s := &DocumentService{
		db:       db,
		blobs:    blobs,
		local:    local,
		analyzer: analyzer,
		maxSize:  DefaultMaxUploadSize,
		now:      time.Now,
		log:      logger.WithModule("documents"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Upload extracts the text of a document and stores it.
func (s *DocumentService) Upload(ctx context.Context, input UploadInput) (*DocumentView, error) {
	ctx = ensureContext(ctx)

	if len(input.Data) == 0 {
		return nil, apperrors.NewBadRequest("document file is required")
	}
	if int64(len(input.Data)) > s.maxSize {
		return nil, apperrors.ErrPayloadTooLarge
	}

	category := strings.ToLower(strings.TrimSpace(input.Category))
	if category == "" {
		category = "other"
	}
	if !validator.IsDocumentCategory(category) {
		return nil, apperrors.NewBadRequest("unknown document category " + category)
	}

	mimeType, text, err := extractText(input.ContentType, input.Data)
	if err != nil {
		return nil, err
	}

	name := firstNonEmpty(input.Name, input.Filename, "document")
	uploaded := s.now().UTC()

	if s.db != nil {
		view, err := s.uploadPrimary(ctx, input, name, category, mimeType, text, uploaded)
		if err == nil {
			return view, nil
		}
		s.fallback("upload", err)
	}

	doc := s.local.AddDocument(docstore.Document{
		UserID:      input.UserID,
		Name:        name,
		Description: strings.TrimSpace(input.Description),
		Category:    category,
		Size:        int64(len(input.Data)),
		MimeType:    mimeType,
		UploadDate:  uploaded,
		TextContent: text,
	})
	doc.LocalURL = fileURL(doc.ID)
	doc.FileURL = doc.LocalURL
	s.local.StoreFile(doc.ID, input.Data)

	view := localView(doc)
	return &view, nil
}

func (s *DocumentService) uploadPrimary(ctx context.Context, input UploadInput, name, category, mimeType, text string, uploaded time.Time) (*DocumentView, error) {
	doc := &models.Document{
		BaseModel:   models.BaseModel{ID: uuid.NewString()},
		UserID:      input.UserID,
		Name:        name,
		Description: strings.TrimSpace(input.Description),
		Category:    category,
		MimeType:    mimeType,
		Size:        int64(len(input.Data)),
		TextContent: text,
		UploadDate:  uploaded,
	}
	doc.FileURL = fileURL(doc.ID)

	if s.blobs != nil {
		doc.StorageKey = blob.DocumentKey(input.UserID, doc.ID, firstNonEmpty(input.Filename, name))
		if _, err := s.blobs.Put(ctx, doc.StorageKey, input.Data, mimeType); err != nil {
			return nil, fmt.Errorf("store file: %w", err)
		}
	}

	if err := s.db.WithContext(ctx).Create(doc).Error; err != nil {
		if s.blobs != nil {
			if delErr := s.blobs.Delete(ctx, doc.StorageKey); delErr != nil {
				s.log.Warn("failed to remove orphaned file", zap.String("key", doc.StorageKey), zap.Error(delErr))
			}
		}
		return nil, fmt.Errorf("create document: %w", err)
	}

	if s.blobs == nil {
		// Without blob storage the file body is kept in process under the database id.
		s.local.StoreFile(doc.ID, input.Data)
	}

	view := databaseView(*doc)
	return &view, nil
}

// List returns the user's documents from both stores, newest upload first.
func (s *DocumentService) List(ctx context.Context, userID string) ([]DocumentView, error) {
	ctx = ensureContext(ctx)

	var views []DocumentView
	if s.db != nil {
		var docs []models.Document
		err := s.db.WithContext(ctx).
			Where("user_id = ?", userID).
			Order("upload_date DESC").
			Find(&docs).Error
		if err != nil {
			s.fallback("list", err)
		}
		for _, doc := range docs {
			views = append(views, databaseView(doc))
		}
	}

	for _, doc := range s.local.GetDocumentsForUser(userID) {
		views = append(views, localView(doc))
	}

	sort.SliceStable(views, func(i, j int) bool {
		return views[i].UploadDate.After(views[j].UploadDate)
	})
	if views == nil {
		views = []DocumentView{}
	}
	return views, nil
}

// Get returns a document owned by userID.
func (s *DocumentService) Get(ctx context.Context, userID, id string) (*DocumentView, error) {
	ctx = ensureContext(ctx)

	view, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if view.UserID != userID {
		return nil, apperrors.ErrForbidden
	}
	return view, nil
}

// Download returns the file body of a document owned by userID.
func (s *DocumentService) Download(ctx context.Context, userID, id string) ([]byte, *DocumentView, error) {
	view, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, nil, err
	}

	if view.Source == SourceDatabase && view.storageKey != "" && s.blobs != nil {
		data, _, err := s.blobs.Get(ctx, view.storageKey)
		switch {
		case errors.Is(err, blob.ErrNotFound):
			return nil, nil, ErrDocumentFileNotFound
		case err != nil:
			return nil, nil, apperrors.NewUpstream("storage", err)
		}
		return data, view, nil
	}

	data, ok := s.local.GetFile(view.ID)
	if !ok {
		return nil, nil, ErrDocumentFileNotFound
	}
	return data, view, nil
}

// Delete removes a document owned by userID together with its file. Failure to
// remove the stored file is logged and does not fail the request.
func (s *DocumentService) Delete(ctx context.Context, userID, id string) error {
	ctx = ensureContext(ctx)

	view, err := s.Get(ctx, userID, id)
	if err != nil {
		return err
	}

	if view.Source == SourceLocal {
		if !s.local.DeleteDocument(view.ID) {
			return ErrDocumentNotFound
		}
		return nil
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("document_id = ?", view.ID).Delete(&models.DocumentAnalysis{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Document{}, "id = ?", view.ID).Error
	})
	if err != nil {
		return fmt.Errorf("document service: delete: %w", err)
	}

	s.removeFile(ctx, view)
	return nil
}

// Analyze extracts entities and financial data from a document and stores the result.
// Keyword matching stands in for entity analysis when the language service is unavailable.
func (s *DocumentService) Analyze(ctx context.Context, userID, id string) (*AnalysisView, error) {
	ctx = ensureContext(ctx)

	view, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(view.textContent) == "" {
		return nil, ErrDocumentNoText
	}

	source := "nlp"
	var entities []nlp.Entity
	if s.analyzer != nil {
		entities, err = s.analyzer.AnalyzeEntities(ctx, view.textContent)
		if err != nil {
			s.log.Warn("entity analysis failed, using keyword extraction",
				zap.String("document_id", view.ID), zap.Error(err))
			entities = nil
		}
	}
	if entities == nil {
		source = "keywords"
		entities = nlp.KeywordEntities(view.textContent)
	}
	if entities == nil {
		entities = []nlp.Entity{}
	}

	financial := nlp.ExtractFinancialData(entities)
	documentType := DocumentTypeForCategory(view.Category)

	return s.SaveAnalysis(ctx, userID, view.ID, SaveAnalysisInput{
		DocumentType: documentType,
		Source:       source,
		Payload: map[string]any{
			"documentType":  documentType,
			"entities":      entities,
			"financialData": financial,
		},
		KeyPoints: keyPoints(financial),
	})
}

// SaveAnalysis attaches an analysis to a document owned by userID. Database documents
// get a database row mirrored into the local store; local documents only the latter.
func (s *DocumentService) SaveAnalysis(ctx context.Context, userID, documentID string, input SaveAnalysisInput) (*AnalysisView, error) {
	ctx = ensureContext(ctx)

	view, err := s.Get(ctx, userID, documentID)
	if err != nil {
		return nil, err
	}

	payload := input.Payload
	if payload == nil {
		payload = map[string]any{}
	}
	keyPoints := input.KeyPoints
	if keyPoints == nil {
		keyPoints = []string{}
	}
	analysis := AnalysisView{
		DocumentID:   view.ID,
		UserID:       userID,
		DocumentType: firstNonEmpty(input.DocumentType, DocumentTypeForCategory(view.Category)),
		Source:       firstNonEmpty(input.Source, "client"),
		Payload:      payload,
		KeyPoints:    keyPoints,
		CreatedAt:    s.now().UTC(),
	}

	if view.Source == SourceDatabase {
		if err := s.saveAnalysisPrimary(ctx, &analysis); err != nil {
			s.fallback("analysis", err)
		}
	}
	if analysis.ID == "" {
		analysis.ID = docstore.AnalysisIDFor(view.ID, strconv.FormatInt(analysis.CreatedAt.UnixMilli(), 10))
	}

	s.local.StoreAnalysis(docstore.Analysis{
		ID:         analysis.ID,
		DocumentID: analysis.DocumentID,
		UserID:     analysis.UserID,
		CreatedAt:  analysis.CreatedAt,
		Payload: map[string]any{
			"documentType": analysis.DocumentType,
			"source":       analysis.Source,
			"result":       analysis.Payload,
			"keyPoints":    analysis.KeyPoints,
		},
	})
	return &analysis, nil
}

func (s *DocumentService) saveAnalysisPrimary(ctx context.Context, analysis *AnalysisView) error {
	payload, err := toJSON(analysis.Payload)
	if err != nil {
		return err
	}
	points, err := toJSON(analysis.KeyPoints)
	if err != nil {
		return err
	}

	row := models.DocumentAnalysis{
		BaseModel:    models.BaseModel{CreatedAt: analysis.CreatedAt},
		DocumentID:   analysis.DocumentID,
		UserID:       analysis.UserID,
		DocumentType: analysis.DocumentType,
		Source:       analysis.Source,
		Payload:      payload,
		KeyPoints:    points,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
		return tx.Model(&models.Document{}).
			Where("id = ?", analysis.DocumentID).
			Update("analyzed_at", analysis.CreatedAt).Error
	})
	if err != nil {
		return err
	}
	analysis.ID = row.ID
	return nil
}

// ListAnalyses returns the analyses of a document owned by userID, newest first.
func (s *DocumentService) ListAnalyses(ctx context.Context, userID, documentID string) ([]AnalysisView, error) {
	ctx = ensureContext(ctx)

	view, err := s.Get(ctx, userID, documentID)
	if err != nil {
		return nil, err
	}

	if view.Source == SourceDatabase {
		var rows []models.DocumentAnalysis
		err := s.db.WithContext(ctx).
			Where("document_id = ?", view.ID).
			Order("created_at DESC").
			Find(&rows).Error
		if err == nil {
			return analysisViews(rows), nil
		}
		s.fallback("list_analyses", err)
	}

	local := s.local.GetAnalysesForDocument(view.ID)
	views := make([]AnalysisView, 0, len(local))
	for _, analysis := range local {
		views = append(views, localAnalysisView(analysis))
	}
	return views, nil
}

// AnalysesForUser returns every analysis owned by userID across both stores, newest first.
func (s *DocumentService) AnalysesForUser(ctx context.Context, userID string) ([]AnalysisView, error) {
	ctx = ensureContext(ctx)

	var views []AnalysisView
	seen := map[string]struct{}{}
	if s.db != nil {
		var rows []models.DocumentAnalysis
		err := s.db.WithContext(ctx).
			Where("user_id = ?", userID).
			Order("created_at DESC").
			Find(&rows).Error
		if err != nil {
			s.fallback("user_analyses", err)
		}
		for _, view := range analysisViews(rows) {
			seen[view.ID] = struct{}{}
			views = append(views, view)
		}
	}

	for _, analysis := range s.local.GetAnalysesForUser(userID) {
		if _, ok := seen[analysis.ID]; ok {
			continue
		}
		views = append(views, localAnalysisView(analysis))
	}

	sort.SliceStable(views, func(i, j int) bool {
		return views[i].CreatedAt.After(views[j].CreatedAt)
	})
	if views == nil {
		views = []AnalysisView{}
	}
	return views, nil
}

// Statistics summarises the user's documents.
func (s *DocumentService) Statistics(ctx context.Context, userID string) (DocumentStats, error) {
	docs, err := s.List(ctx, userID)
	if err != nil {
		return DocumentStats{}, err
	}
	analyses, err := s.AnalysesForUser(ctx, userID)
	if err != nil {
		return DocumentStats{}, err
	}

	analyzed := map[string]struct{}{}
	for _, analysis := range analyses {
		analyzed[analysis.DocumentID] = struct{}{}
	}

	stats := DocumentStats{ByCategory: map[string]int{}}
	for _, doc := range docs {
		stats.Total++
		stats.TotalSize += doc.Size
		stats.ByCategory[doc.Category]++
		if doc.Source == SourceLocal {
			stats.Local++
		}
		if _, ok := analyzed[doc.ID]; ok || doc.AnalyzedAt != nil {
			stats.Analyzed++
		}
	}
	return stats, nil
}

// PurgeUser removes the stored files of every document owned by userID and its
// local documents. Database rows are removed with the account.
func (s *DocumentService) PurgeUser(ctx context.Context, userID string) int {
	docs, _ := s.List(ctx, userID)
	for i := range docs {
		s.removeFile(ctx, &docs[i])
	}
	return len(docs)
}

func (s *DocumentService) find(ctx context.Context, id string) (*DocumentView, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrDocumentNotFound
	}

	if s.db != nil && !strings.HasPrefix(id, localIDPrefix) {
		var doc models.Document
		err := s.db.WithContext(ctx).Take(&doc, "id = ?", id).Error
		switch {
		case err == nil:
			view := databaseView(doc)
			return &view, nil
		case errors.Is(err, gorm.ErrRecordNotFound):
			return nil, ErrDocumentNotFound
		default:
			s.fallback("get", err)
		}
	}

	doc, ok := s.local.GetDocument(id)
	if !ok {
		return nil, ErrDocumentNotFound
	}
	view := localView(doc)
	return &view, nil
}

func (s *DocumentService) removeFile(ctx context.Context, view *DocumentView) {
	if view.Source == SourceLocal {
		s.local.DeleteDocument(view.ID)
		return
	}
	if view.storageKey != "" && s.blobs != nil {
		if err := s.blobs.Delete(ctx, view.storageKey); err != nil && !errors.Is(err, blob.ErrNotFound) {
			s.log.Warn("failed to delete document file", zap.String("document_id", view.ID), zap.Error(err))
		}
	}
	s.local.DeleteFile(view.ID)
}

func (s *DocumentService) fallback(operation string, err error) {
	metrics.DocumentFallbacks.WithLabelValues(operation).Inc()
	s.log.Warn("primary document store failed, using local store",
		zap.String("operation", operation), zap.Error(err))
}

func extractText(contentType string, data []byte) (string, string, error) {
	contentType = strings.ToLower(strings.TrimSpace(contentType))
	if idx := strings.IndexByte(contentType, ';'); idx >= 0 {
		contentType = strings.TrimSpace(contentType[:idx])
	}

	switch {
	case contentType == "application/pdf" || pdftext.IsPDF(data):
		text, err := pdftext.Extract(data)
		if err != nil {
			return "", "", apperrors.NewBadRequest("could not read PDF document").WithInternal(err)
		}
		return "application/pdf", text, nil
	case strings.HasPrefix(contentType, "text/"):
		text, err := pdftext.ExtractPlain(data)
		if err != nil {
			return "", "", ErrUnsupportedFileType.WithInternal(err)
		}
		return contentType, text, nil
	default:
		return "", "", ErrUnsupportedFileType
	}
}

func keyPoints(data nlp.FinancialData) []string {
	points := []string{}
	if data.Income != "" {
		points = append(points, "Income: "+data.Income)
	}
	if data.Expenses != "" {
		points = append(points, "Expenses: "+data.Expenses)
	}
	if n := len(data.Loans); n > 0 {
		points = append(points, fmt.Sprintf("%d loan(s) detected", n))
	}
	if n := len(data.Investments); n > 0 {
		points = append(points, fmt.Sprintf("%d investment(s) detected", n))
	}
	return points
}

func fileURL(id string) string {
	return "/api/documents/" + id + "/file"
}

func databaseView(doc models.Document) DocumentView {
	return DocumentView{
		ID:          doc.ID,
		UserID:      doc.UserID,
		Name:        doc.Name,
		Description: doc.Description,
		Category:    doc.Category,
		MimeType:    doc.MimeType,
		Size:        doc.Size,
		FileURL:     doc.FileURL,
		UploadDate:  doc.UploadDate,
		AnalyzedAt:  doc.AnalyzedAt,
		Source:      SourceDatabase,
		textContent: doc.TextContent,
		storageKey:  doc.StorageKey,
	}
}

func localView(doc docstore.Document) DocumentView {
	return DocumentView{
		ID:          doc.ID,
		UserID:      doc.UserID,
		Name:        doc.Name,
		Description: doc.Description,
		Category:    doc.Category,
		MimeType:    doc.MimeType,
		Size:        doc.Size,
		FileURL:     firstNonEmpty(doc.FileURL, doc.LocalURL, fileURL(doc.ID)),
		UploadDate:  doc.UploadDate,
		Source:      SourceLocal,
		textContent: doc.TextContent,
	}
}

func analysisViews(rows []models.DocumentAnalysis) []AnalysisView {
	views := make([]AnalysisView, 0, len(rows))
	for _, row := range rows {
		var points []string
		for _, value := range jsonArray(row.KeyPoints) {
			if text, ok := value.(string); ok {
				points = append(points, text)
			}
		}
		if points == nil {
			points = []string{}
		}
		views = append(views, AnalysisView{
			ID:           row.ID,
			DocumentID:   row.DocumentID,
			UserID:       row.UserID,
			DocumentType: row.DocumentType,
			Source:       row.Source,
			Payload:      jsonObject(row.Payload),
			KeyPoints:    points,
			CreatedAt:    row.CreatedAt,
		})
	}
	return views
}

func localAnalysisView(analysis docstore.Analysis) AnalysisView {
	view := AnalysisView{
		ID:         analysis.ID,
		DocumentID: analysis.DocumentID,
		UserID:     analysis.UserID,
		Source:     SourceLocal,
		Payload:    map[string]any{},
		KeyPoints:  []string{},
		CreatedAt:  analysis.CreatedAt,
	}
	if analysis.Payload == nil {
		return view
	}
	view.DocumentType = stringValue(analysis.Payload, "documentType")
	if source := stringValue(analysis.Payload, "source"); source != "" {
		view.Source = source
	}
	if result, ok := analysis.Payload["result"].(map[string]any); ok {
		view.Payload = result
	} else {
		view.Payload = analysis.Payload
	}
	if points, ok := analysis.Payload["keyPoints"].([]string); ok {
		view.KeyPoints = points
	}
	return view
}
