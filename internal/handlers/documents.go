package handlers

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/fi-advisor/fi/internal/services"
	"github.com/fi-advisor/fi/pkg/errors"
	"github.com/fi-advisor/fi/pkg/response"
)

const (
	documentFormField     = "document"
	defaultMaxUploadBytes = 10 << 20
	// multipart framing and the text fields ride on top of the file itself
	multipartOverhead = 1 << 20
)

// DocumentHandler serves document upload, retrieval and analysis.
type DocumentHandler struct {
	documents *services.DocumentService
	maxUpload int64
}

func NewDocumentHandler(documents *services.DocumentService, maxUploadBytes int64) *DocumentHandler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = defaultMaxUploadBytes
	}
	return &DocumentHandler{documents: documents, maxUpload: maxUploadBytes}
}

type saveAnalysisRequest struct {
	DocumentType string         `json:"documentType" validate:"max=64"`
	Source       string         `json:"source" validate:"max=32"`
	Payload      map[string]any `json:"payload" validate:"required"`
	KeyPoints    []string       `json:"keyPoints"`
}

// POST /api/documents
func (h *DocumentHandler) Upload(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUpload+multipartOverhead)

	header, err := c.FormFile(documentFormField)
	if err != nil {
		if strings.Contains(err.Error(), "request body too large") {
			response.Error(c, errors.ErrPayloadTooLarge)
			return
		}
		response.Error(c, errors.NewBadRequest(fmt.Sprintf("multipart field %q is required", documentFormField)))
		return
	}
	if header.Size > h.maxUpload {
		response.Error(c, errors.ErrPayloadTooLarge)
		return
	}

	file, err := header.Open()
	if err != nil {
		response.Error(c, errors.NewBadRequest("unable to read uploaded file"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.maxUpload+1))
	if err != nil {
		response.Error(c, errors.NewBadRequest("unable to read uploaded file"))
		return
	}

	view, err := h.documents.Upload(requestContext(c), services.UploadInput{
		UserID:      userID,
		Name:        c.PostForm("name"),
		Description: c.PostForm("description"),
		Category:    c.PostForm("category"),
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithMeta(c, http.StatusCreated, view, &response.Meta{Source: view.Source})
}

// GET /api/documents
func (h *DocumentHandler) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	docs, err := h.documents.List(requestContext(c), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, docs, nil)
}

// GET /api/documents/statistics
func (h *DocumentHandler) Statistics(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	stats, err := h.documents.Statistics(requestContext(c), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, stats)
}

// GET /api/documents/:id
func (h *DocumentHandler) Get(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	view, err := h.documents.Get(requestContext(c), userID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithMeta(c, http.StatusOK, view, &response.Meta{Source: view.Source})
}

// GET /api/documents/:id/file
func (h *DocumentHandler) File(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	data, view, err := h.documents.Download(requestContext(c), userID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=%q", view.Name))
	c.Data(http.StatusOK, view.MimeType, data)
}

// DELETE /api/documents/:id
func (h *DocumentHandler) Delete(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	if err := h.documents.Delete(requestContext(c), userID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

// POST /api/documents/:id/analyze
func (h *DocumentHandler) Analyze(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	analysis, err := h.documents.Analyze(requestContext(c), userID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithMeta(c, http.StatusCreated, analysis, &response.Meta{Source: analysis.Source})
}

// GET /api/documents/:id/analyses
func (h *DocumentHandler) ListAnalyses(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	analyses, err := h.documents.ListAnalyses(requestContext(c), userID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, analyses, nil)
}

// POST /api/documents/:id/analyses
func (h *DocumentHandler) SaveAnalysis(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req saveAnalysisRequest
	if !bindAndValidate(c, &req) {
		return
	}

	analysis, err := h.documents.SaveAnalysis(requestContext(c), userID, c.Param("id"), services.SaveAnalysisInput{
		DocumentType: req.DocumentType,
		Source:       req.Source,
		Payload:      req.Payload,
		KeyPoints:    req.KeyPoints,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, analysis)
}
