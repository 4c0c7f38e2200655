package server

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/docsift/docsift/constants"
	"github.com/docsift/docsift/internal/common"
	"github.com/docsift/docsift/internal/pipeline"
)

type processRequest struct {
	Source string `json:"source"`
}

type runSummary struct {
	RunID         string         `json:"run_id"`
	Source        string         `json:"source"`
	Status        string         `json:"status"`
	Pages         int            `json:"pages"`
	OCRConfidence float32        `json:"ocr_confidence"`
	Counts        map[string]int `json:"counts"`
	Warnings      []string       `json:"warnings,omitempty"`
	Tables        any            `json:"tables,omitempty"`
	ElapsedMs     int64          `json:"elapsed_ms"`
}

// processDocument runs the pipeline for a JSON {source} body or a multipart
// "file" upload and returns the run summary. Add ?include=rows for the full
// tables in the response.
func (s *Server) processDocument(c *gin.Context) {
	res, ok := s.runPipeline(c)
	if !ok {
		return
	}

	summary := runSummary{
		RunID:         res.RunID.String(),
		Source:        res.Source,
		Status:        string(res.Status),
		Pages:         res.Pages,
		OCRConfidence: res.OCRConfidence,
		Counts: map[string]int{
			"documents":  len(res.Tables.Documents),
			"line_items": len(res.Tables.LineItems),
			"payments":   len(res.Tables.Payments),
		},
		Warnings:  res.Warnings,
		ElapsedMs: res.Duration.Milliseconds(),
	}
	if c.Query("include") == "rows" {
		summary.Tables = res.Tables
	}
	c.JSON(http.StatusOK, summary)
}

// processAndExport runs the pipeline and responds with the XLSX workbook.
func (s *Server) processAndExport(c *gin.Context) {
	res, ok := s.runPipeline(c)
	if !ok {
		return
	}

	wb, err := s.exporter.WorkbookXLSX(res.Tables)
	if err != nil {
		s.logger.Error("http.export.failed", "run_id", res.RunID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "export failed"})
		return
	}

	filename := fmt.Sprintf("docsift-%s.xlsx", res.RunID)
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", wb)
}

// runPipeline extracts the source from the request (JSON body, form field, or
// uploaded file), processes it, and writes the error response itself when the
// run fails. The bool reports whether processing succeeded.
func (s *Server) runPipeline(c *gin.Context) (*pipeline.Result, bool) {
	source, cleanup, ok := s.resolveRequestSource(c)
	if !ok {
		return nil, false
	}
	defer cleanup()

	res, err := s.processor.ProcessDocument(c.Request.Context(), source)
	if err != nil {
		s.logger.Error("http.process.failed", "source", source, "error", err)
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return nil, false
	}
	return res, true
}

// statusForError maps pipeline error classes onto HTTP statuses.
func statusForError(err error) int {
	switch {
	case errors.Is(err, common.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, common.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrOCR):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) resolveRequestSource(c *gin.Context) (string, func(), bool) {
	noop := func() {}

	ct := c.ContentType()
	if strings.HasPrefix(ct, "multipart/form-data") {
		fh, err := c.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "multipart upload requires a 'file' part"})
			return "", noop, false
		}
		if constants.MapExtToFormat(filepath.Ext(fh.Filename)) != constants.PDF {
			c.JSON(http.StatusBadRequest, gin.H{"error": "only PDF uploads are supported"})
			return "", noop, false
		}
		tmp, err := os.CreateTemp("", "docsift-upload-*.pdf")
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "temp file"})
			return "", noop, false
		}
		_ = tmp.Close()
		if err := c.SaveUploadedFile(fh, tmp.Name()); err != nil {
			_ = os.Remove(tmp.Name())
			c.JSON(http.StatusInternalServerError, gin.H{"error": "save upload"})
			return "", noop, false
		}
		return tmp.Name(), func() { _ = os.Remove(tmp.Name()) }, true
	}

	var req processRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Source) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "body must be JSON with a non-empty 'source'"})
		return "", noop, false
	}
	return strings.TrimSpace(req.Source), noop, true
}
