package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/fi-advisor/fi/internal/database/testutil"
	"github.com/fi-advisor/fi/internal/docstore"
	"github.com/fi-advisor/fi/internal/integrations/nlp"
	"github.com/fi-advisor/fi/internal/storage/blob"
	apperrors "github.com/fi-advisor/fi/pkg/errors"
)

const statementText = "HDFC Bank statement\nSalary credit 85,000\nHome loan EMI 22,500\nCredit card expense 14,200\n"

type fakeAnalyzer struct {
	entities []nlp.Entity
	err      error
	calls    int
}

func (f *fakeAnalyzer) AnalyzeEntities(_ context.Context, _ string) ([]nlp.Entity, error) {
	f.calls++
	return f.entities, f.err
}

type documentFixture struct {
	svc   *DocumentService
	db    *gorm.DB
	blobs *blob.MemoryStorage
	local *docstore.Store
	clock *fakeServiceClock
}

type fakeServiceClock struct {
	current time.Time
}

func (c *fakeServiceClock) Now() time.Time { return c.current }

func (c *fakeServiceClock) Advance(d time.Duration) { c.current = c.current.Add(d) }

func newDocumentFixture(t *testing.T, analyzer EntityAnalyzer) *documentFixture {
	t.Helper()
	clock := &fakeServiceClock{current: time.Date(2024, 4, 1, 10, 0, 0, 0, time.UTC)}
	db := testutil.NewDB(t)
	blobs := blob.NewMemory()
	local := docstore.New(docstore.WithClock(clock.Now))

	svc, err := NewDocumentService(db, blobs, local, analyzer, WithDocumentClock(clock.Now), WithMaxUploadSize(1024))
	require.NoError(t, err)
	return &documentFixture{svc: svc, db: db, blobs: blobs, local: local, clock: clock}
}

func textUpload(userID, name, category string) UploadInput {
	return UploadInput{
		UserID:      userID,
		Name:        name,
		Category:    category,
		Filename:    name + ".txt",
		ContentType: "text/plain; charset=utf-8",
		Data:        []byte(statementText),
	}
}

func TestDocumentServiceUploadListDownloadDelete(t *testing.T) {
	fx := newDocumentFixture(t, nil)
	ctx := context.Background()

	first, err := fx.svc.Upload(ctx, textUpload("u1", "march", "bank_statement"))
	require.NoError(t, err)
	require.Equal(t, SourceDatabase, first.Source)
	require.Equal(t, "text/plain", first.MimeType)
	require.Equal(t, "/api/documents/"+first.ID+"/file", first.FileURL)
	require.Equal(t, 1, fx.blobs.Len())

	fx.clock.Advance(time.Hour)
	second, err := fx.svc.Upload(ctx, textUpload("u1", "april", "salary_slip"))
	require.NoError(t, err)

	docs, err := fx.svc.List(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, docs, 2)
	require.Equal(t, second.ID, docs[0].ID)
	require.Equal(t, first.ID, docs[1].ID)

	data, view, err := fx.svc.Download(ctx, "u1", first.ID)
	require.NoError(t, err)
	require.Equal(t, statementText, string(data))
	require.Equal(t, "march", view.Name)

	require.NoError(t, fx.svc.Delete(ctx, "u1", first.ID))
	require.Equal(t, 1, fx.blobs.Len())
	_, err = fx.svc.Get(ctx, "u1", first.ID)
	require.ErrorIs(t, err, ErrDocumentNotFound)
}

func TestDocumentServiceRejectsInvalidUploads(t *testing.T) {
	fx := newDocumentFixture(t, nil)
	ctx := context.Background()

	input := textUpload("u1", "img", "other")
	input.ContentType = "image/png"
	input.Data = []byte{0x89, 'P', 'N', 'G'}
	_, err := fx.svc.Upload(ctx, input)
	require.ErrorIs(t, err, ErrUnsupportedFileType)

	input = textUpload("u1", "big", "other")
	input.Data = make([]byte, 2048)
	_, err = fx.svc.Upload(ctx, input)
	require.ErrorIs(t, err, apperrors.ErrPayloadTooLarge)

	_, err = fx.svc.Upload(ctx, textUpload("u1", "x", "receipts"))
	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	require.Equal(t, 400, appErr.StatusCode)

	input = textUpload("u1", "empty", "other")
	input.Data = nil
	_, err = fx.svc.Upload(ctx, input)
	require.Error(t, err)
}

func TestDocumentServiceOwnership(t *testing.T) {
	fx := newDocumentFixture(t, nil)
	ctx := context.Background()

	doc, err := fx.svc.Upload(ctx, textUpload("owner", "mine", "tax"))
	require.NoError(t, err)

	_, err = fx.svc.Get(ctx, "intruder", doc.ID)
	require.ErrorIs(t, err, apperrors.ErrForbidden)
	require.ErrorIs(t, fx.svc.Delete(ctx, "intruder", doc.ID), apperrors.ErrForbidden)
	_, _, err = fx.svc.Download(ctx, "intruder", doc.ID)
	require.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestDocumentServiceFallsBackWhenDatabaseFails(t *testing.T) {
	fx := newDocumentFixture(t, nil)
	ctx := context.Background()

	sqlDB, err := fx.db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	doc, err := fx.svc.Upload(ctx, textUpload("u1", "offline", "bank_statement"))
	require.NoError(t, err)
	require.Equal(t, SourceLocal, doc.Source)
	require.Regexp(t, `^local_\d+_\d+$`, doc.ID)

	docs, err := fx.svc.List(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, docs, 1)

	data, _, err := fx.svc.Download(ctx, "u1", doc.ID)
	require.NoError(t, err)
	require.Equal(t, statementText, string(data))

	analysis, err := fx.svc.Analyze(ctx, "u1", doc.ID)
	require.NoError(t, err)
	require.Equal(t, "keywords", analysis.Source)

	analyses, err := fx.svc.ListAnalyses(ctx, "u1", doc.ID)
	require.NoError(t, err)
	require.Len(t, analyses, 1)
	require.Equal(t, analysis.ID, analyses[0].ID)

	require.NoError(t, fx.svc.Delete(ctx, "u1", doc.ID))
	_, err = fx.svc.Get(ctx, "u1", doc.ID)
	require.ErrorIs(t, err, ErrDocumentNotFound)
}

func TestDocumentServiceWithoutDatabase(t *testing.T) {
	local := docstore.New()
	svc, err := NewDocumentService(nil, nil, local, nil)
	require.NoError(t, err)
	ctx := context.Background()

	doc, err := svc.Upload(ctx, textUpload("u1", "note", "other"))
	require.NoError(t, err)
	require.Equal(t, SourceLocal, doc.Source)

	require.NoError(t, svc.Delete(ctx, "u1", doc.ID))
	require.ErrorIs(t, svc.Delete(ctx, "u1", doc.ID), ErrDocumentNotFound)

	_, err = NewDocumentService(nil, nil, nil, nil)
	require.Error(t, err)
}

func TestDocumentServiceStoresFileLocallyWithoutBlobStorage(t *testing.T) {
	db := testutil.NewDB(t)
	local := docstore.New()
	svc, err := NewDocumentService(db, nil, local, nil)
	require.NoError(t, err)
	ctx := context.Background()

	doc, err := svc.Upload(ctx, textUpload("u1", "slip", "salary_slip"))
	require.NoError(t, err)
	require.Equal(t, SourceDatabase, doc.Source)

	data, _, err := svc.Download(ctx, "u1", doc.ID)
	require.NoError(t, err)
	require.Equal(t, statementText, string(data))

	require.NoError(t, svc.Delete(ctx, "u1", doc.ID))
	_, ok := local.GetFile(doc.ID)
	require.False(t, ok)
}

func TestDocumentServiceAnalyze(t *testing.T) {
	analyzer := &fakeAnalyzer{entities: []nlp.Entity{
		{Name: "Salary", Type: "PRICE", Metadata: map[string]string{"value": "85000"}},
		{Name: "mutual fund", Type: "OTHER", Metadata: map[string]string{"amount": "5000"}},
	}}
	fx := newDocumentFixture(t, analyzer)
	ctx := context.Background()

	doc, err := fx.svc.Upload(ctx, textUpload("u1", "slip", "salary_slip"))
	require.NoError(t, err)

	analysis, err := fx.svc.Analyze(ctx, "u1", doc.ID)
	require.NoError(t, err)
	require.Equal(t, "nlp", analysis.Source)
	require.Equal(t, DocTypeSalarySlip, analysis.DocumentType)
	require.Contains(t, analysis.KeyPoints, "Income: 85000")
	require.Contains(t, analysis.KeyPoints, "1 investment(s) detected")
	require.Equal(t, 1, analyzer.calls)

	fx.clock.Advance(time.Minute)
	analyzer.err = errors.New("quota exceeded")
	fallback, err := fx.svc.Analyze(ctx, "u1", doc.ID)
	require.NoError(t, err)
	require.Equal(t, "keywords", fallback.Source)

	analyses, err := fx.svc.ListAnalyses(ctx, "u1", doc.ID)
	require.NoError(t, err)
	require.Len(t, analyses, 2)
	require.Equal(t, fallback.ID, analyses[0].ID)

	mirrored := fx.local.GetAnalysesForDocument(doc.ID)
	require.Len(t, mirrored, 2)

	all, err := fx.svc.AnalysesForUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, all, 2)

	reloaded, err := fx.svc.Get(ctx, "u1", doc.ID)
	require.NoError(t, err)
	require.NotNil(t, reloaded.AnalyzedAt)
}

func TestDocumentServiceSaveAnalysisAndStatistics(t *testing.T) {
	fx := newDocumentFixture(t, nil)
	ctx := context.Background()

	bank, err := fx.svc.Upload(ctx, textUpload("u1", "bank", "bank_statement"))
	require.NoError(t, err)
	_, err = fx.svc.Upload(ctx, textUpload("u1", "policy", "insurance"))
	require.NoError(t, err)

	saved, err := fx.svc.SaveAnalysis(ctx, "u1", bank.ID, SaveAnalysisInput{
		Payload:   map[string]any{"summary": "steady income"},
		KeyPoints: []string{"Income is regular"},
	})
	require.NoError(t, err)
	require.Equal(t, DocTypeBankStatement, saved.DocumentType)
	require.Equal(t, "client", saved.Source)

	stats, err := fx.svc.Statistics(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, 2, stats.Total)
	require.Equal(t, 1, stats.Analyzed)
	require.Equal(t, int64(2*len(statementText)), stats.TotalSize)
	require.Equal(t, 1, stats.ByCategory["insurance"])

	require.Equal(t, 2, fx.svc.PurgeUser(ctx, "u1"))
	require.Zero(t, fx.blobs.Len())
}

func TestDocumentServiceAnalyzeRequiresText(t *testing.T) {
	fx := newDocumentFixture(t, nil)
	ctx := context.Background()

	input := textUpload("u1", "blank", "other")
	input.Data = []byte("   \n ")
	doc, err := fx.svc.Upload(ctx, input)
	require.NoError(t, err)

	_, err = fx.svc.Analyze(ctx, "u1", doc.ID)
	require.ErrorIs(t, err, ErrDocumentNoText)
}
