package server

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/KaramelBytes/insightloom/internal/report"
	"github.com/KaramelBytes/insightloom/internal/table"
)

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) analyze(c *gin.Context) {
	rep, ok := s.buildReport(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, rep)
}

func (s *Server) report(c *gin.Context) {
	rep, ok := s.buildReport(c)
	if !ok {
		return
	}
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(http.StatusOK)
	if err := rep.HTML(c.Writer); err != nil {
		_ = c.Error(err)
	}
}

// buildReport loads the uploaded table (and optional comparison table) and
// runs the analysis. On failure it writes the error response and returns false.
func (s *Server) buildReport(c *gin.Context) (*report.Report, bool) {
	fh, err := c.FormFile("file")
	if err != nil {
		s.uploadError(c, err)
		return nil, false
	}
	dir, err := os.MkdirTemp("", "insightloom-upload-*")
	if err != nil {
		sendError(c, http.StatusInternalServerError, "create temp dir failed")
		return nil, false
	}
	defer os.RemoveAll(dir)

	opt := s.cfg.Load
	if sheet := c.PostForm("sheet"); sheet != "" {
		opt.SheetName = sheet
	}
	t, ok := s.loadUpload(c, dir, "main", fh, opt)
	if !ok {
		return nil, false
	}

	var compare *table.Table
	if cfh, err := c.FormFile("compare"); err == nil {
		if compare, ok = s.loadUpload(c, dir, "compare", cfh, s.cfg.Load); !ok {
			return nil, false
		}
	} else if !errors.Is(err, http.ErrMissingFile) {
		s.uploadError(c, err)
		return nil, false
	}
	return report.Analyze(fh.Filename, t, compare, s.cfg.Classifier, s.cfg.Options), true
}

func (s *Server) loadUpload(c *gin.Context, dir, slot string, fh *multipart.FileHeader, opt table.LoadOptions) (*table.Table, bool) {
	name := filepath.Base(fh.Filename)
	if name == "." || name == string(filepath.Separator) {
		name = "upload"
	}
	sub := filepath.Join(dir, slot)
	if err := os.MkdirAll(sub, 0o755); err != nil {
		sendError(c, http.StatusInternalServerError, "create temp dir failed")
		return nil, false
	}
	path := filepath.Join(sub, name)
	if err := c.SaveUploadedFile(fh, path); err != nil {
		sendError(c, http.StatusInternalServerError, "store upload failed")
		return nil, false
	}
	t, err := table.Load(path, opt)
	if err != nil {
		var le *table.LoadError
		if errors.As(err, &le) {
			sendError(c, http.StatusUnprocessableEntity, fmt.Sprintf("%s: %v", fh.Filename, le.Cause))
			return nil, false
		}
		sendError(c, http.StatusInternalServerError, err.Error())
		return nil, false
	}
	return t, true
}

func (s *Server) uploadError(c *gin.Context, err error) {
	var tooBig *http.MaxBytesError
	switch {
	case errors.As(err, &tooBig):
		sendError(c, http.StatusRequestEntityTooLarge, fmt.Sprintf("upload exceeds %d MB", s.cfg.MaxUploadMB))
	case errors.Is(err, http.ErrMissingFile):
		sendError(c, http.StatusBadRequest, `multipart field "file" is required`)
	default:
		sendError(c, http.StatusBadRequest, err.Error())
	}
}
