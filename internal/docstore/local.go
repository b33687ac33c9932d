package docstore

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fi-advisor/fi/pkg/logger"
)

// Document is a document held by the local store.
type Document struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Category    string    `json:"category,omitempty"`
	FileURL     string    `json:"fileUrl,omitempty"`
	LocalURL    string    `json:"localUrl,omitempty"`
	Size        int64     `json:"size"`
	MimeType    string    `json:"mimeType"`
	UploadDate  time.Time `json:"uploadDate"`
	TextContent string    `json:"textContent,omitempty"`
}

// Analysis is an analysis payload attached to a document.
type Analysis struct {
	ID         string         `json:"id"`
	DocumentID string         `json:"documentId"`
	UserID     string         `json:"userId"`
	CreatedAt  time.Time      `json:"createdAt"`
	Payload    map[string]any `json:"payload,omitempty"`
}

const (
	analysisPrefix = "analysis_"
	cloudPrefix    = "cloud_"
	localPrefix    = "local_"
	uuidLength     = 36
)

// legacyLocalAnalysis matches the local_<ms>_<counter> document id at the head of
// a legacy analysis id, followed by an optional _suffix.
var legacyLocalAnalysis = regexp.MustCompile(`^(local_\d+_\d+)(?:_.*)?$`)

type storedDocument struct {
	doc Document
	seq uint64
}

type storedAnalysis struct {
	analysis Analysis
	seq      uint64
}

// Store is a volatile in-memory store for documents, their file blobs and their
// analyses. It serves requests when the primary store is unavailable.
type Store struct {
	mu         sync.RWMutex
	documents  map[string]storedDocument
	files      map[string][]byte
	analyses   map[string]storedAnalysis
	byDocument map[string]map[string]struct{}
	nextID     uint64
	seq        uint64
	now        func() time.Time
	log        *zap.Logger
}

// Option customises a Store.
type Option func(*Store)

// WithClock overrides the time source used for generated ids.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// New returns an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		documents:  make(map[string]storedDocument),
		files:      make(map[string][]byte),
		analyses:   make(map[string]storedAnalysis),
		byDocument: make(map[string]map[string]struct{}),
		nextID:     1,
		now:        time.Now,
		log:        logger.WithModule("docstore"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddDocument assigns an id of the form local_<epochMillis>_<counter> and stores doc.
// Any id already set on doc is replaced.
func (s *Store) AddDocument(doc Document) Document {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc.ID = fmt.Sprintf("local_%d_%d", s.now().UnixMilli(), s.nextID)
	s.nextID++
	s.seq++
	s.documents[doc.ID] = storedDocument{doc: doc, seq: s.seq}

	s.log.Debug("saved document to local store", zap.String("document_id", doc.ID))
	return doc
}

// StoreFile stores the file content for id, replacing any previous content.
func (s *Store) StoreFile(id string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[id] = data
}

// DeleteFile removes the file content stored for id. It reports whether content existed.
func (s *Store) DeleteFile(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.files[id]
	delete(s.files, id)
	return ok
}

// GetFile returns the file content stored for id.
func (s *Store) GetFile(id string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.files[id]
	return data, ok
}

// GetDocumentsForUser returns the user's documents, newest upload first. Documents
// with equal upload dates keep insertion order.
func (s *Store) GetDocumentsForUser(userID string) []Document {
	s.mu.RLock()
	matches := make([]storedDocument, 0)
	for _, stored := range s.documents {
		if stored.doc.UserID == userID {
			matches = append(matches, stored)
		}
	}
	s.mu.RUnlock()

	sort.Slice(matches, func(i, j int) bool {
		a, b := matches[i], matches[j]
		if !a.doc.UploadDate.Equal(b.doc.UploadDate) {
			return a.doc.UploadDate.After(b.doc.UploadDate)
		}
		return a.seq < b.seq
	})

	docs := make([]Document, len(matches))
	for i, stored := range matches {
		docs[i] = stored.doc
	}
	return docs
}

// GetDocument returns the document stored under id.
func (s *Store) GetDocument(id string) (Document, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored, ok := s.documents[id]
	return stored.doc, ok
}

// DeleteDocument removes the document. Its file and its analysis index entry are
// removed only when the document existed; analyses stay reachable by user.
func (s *Store) DeleteDocument(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.documents[id]; !ok {
		return false
	}
	delete(s.documents, id)
	delete(s.files, id)
	delete(s.byDocument, id)

	s.log.Debug("deleted document from local store", zap.String("document_id", id))
	return true
}

// StoreAnalysis stores analysis under its id and indexes it by document. When
// DocumentID is empty it is derived from a legacy analysis_<cloud_|><documentId>
// id; analyses without a resolvable document are stored unindexed.
func (s *Store) StoreAnalysis(analysis Analysis) Analysis {
	if analysis.DocumentID == "" {
		analysis.DocumentID = DocumentIDFromAnalysisID(analysis.ID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if previous, ok := s.analyses[analysis.ID]; ok && previous.analysis.DocumentID != analysis.DocumentID {
		s.unindexLocked(previous.analysis.DocumentID, analysis.ID)
	}

	s.seq++
	s.analyses[analysis.ID] = storedAnalysis{analysis: analysis, seq: s.seq}
	if analysis.DocumentID != "" {
		ids, ok := s.byDocument[analysis.DocumentID]
		if !ok {
			ids = make(map[string]struct{})
			s.byDocument[analysis.DocumentID] = ids
		}
		ids[analysis.ID] = struct{}{}
	}
	return analysis
}

// GetAnalysis returns the analysis stored under id.
func (s *Store) GetAnalysis(id string) (Analysis, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored, ok := s.analyses[id]
	return stored.analysis, ok
}

// GetAnalysesForDocument returns the analyses indexed under documentID, newest first.
func (s *Store) GetAnalysesForDocument(documentID string) []Analysis {
	s.mu.RLock()
	ids := s.byDocument[documentID]
	matches := make([]storedAnalysis, 0, len(ids))
	for id := range ids {
		if stored, ok := s.analyses[id]; ok {
			matches = append(matches, stored)
		}
	}
	s.mu.RUnlock()

	return sortAnalyses(matches)
}

// GetAnalysesForUser returns every analysis owned by userID, newest first.
func (s *Store) GetAnalysesForUser(userID string) []Analysis {
	s.mu.RLock()
	matches := make([]storedAnalysis, 0)
	for _, stored := range s.analyses {
		if stored.analysis.UserID == userID {
			matches = append(matches, stored)
		}
	}
	s.mu.RUnlock()

	return sortAnalyses(matches)
}

// Stats reports how many documents, files and analyses are held.
func (s *Store) Stats() (documents, files, analyses int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.documents), len(s.files), len(s.analyses)
}

// AnalysisIDFor builds a legacy-format analysis id for documentID:
// analysis_<documentId>_<suffix> for local documents and
// analysis_cloud_<documentId>_<suffix> for everything else.
func AnalysisIDFor(documentID, suffix string) string {
	id := analysisPrefix
	if !strings.HasPrefix(documentID, localPrefix) {
		id += cloudPrefix
	}
	id += documentID
	if suffix != "" {
		id += "_" + suffix
	}
	return id
}

// DocumentIDFromAnalysisID extracts the document id from a legacy analysis id, or
// returns "" when id does not follow that format. Cloud document ids cannot be
// told apart from a suffix when they contain underscores, so the suffix is only
// split off a leading UUID; any other cloud id is returned whole.
func DocumentIDFromAnalysisID(id string) string {
	rest, ok := strings.CutPrefix(id, analysisPrefix)
	if !ok {
		return ""
	}
	if match := legacyLocalAnalysis.FindStringSubmatch(rest); match != nil {
		return match[1]
	}

	cloud, ok := strings.CutPrefix(rest, cloudPrefix)
	if !ok || cloud == "" {
		return ""
	}
	if len(cloud) >= uuidLength && (len(cloud) == uuidLength || cloud[uuidLength] == '_') {
		if _, err := uuid.Parse(cloud[:uuidLength]); err == nil {
			return cloud[:uuidLength]
		}
	}
	return cloud
}

func (s *Store) unindexLocked(documentID, analysisID string) {
	ids, ok := s.byDocument[documentID]
	if !ok {
		return
	}
	delete(ids, analysisID)
	if len(ids) == 0 {
		delete(s.byDocument, documentID)
	}
}

func sortAnalyses(matches []storedAnalysis) []Analysis {
	sort.Slice(matches, func(i, j int) bool {
		a, b := matches[i], matches[j]
		if !a.analysis.CreatedAt.Equal(b.analysis.CreatedAt) {
			return a.analysis.CreatedAt.After(b.analysis.CreatedAt)
		}
		return a.seq < b.seq
	})

	out := make([]Analysis, len(matches))
	for i, stored := range matches {
		out[i] = stored.analysis
	}
	return out
}
