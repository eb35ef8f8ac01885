package server

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/ccollicutt/logsift/pkg/analyzer"
	"github.com/ccollicutt/logsift/pkg/filter"
	"github.com/ccollicutt/logsift/pkg/output"
	"github.com/ccollicutt/logsift/pkg/parser"
)

// errorResponse is the body of every non-2xx response.
type errorResponse struct {
	Error string `json:"error"`
}

// DatasetResponse is returned when a dataset is created or fetched.
type DatasetResponse struct {
	ID         string           `json:"id"`
	Summary    analyzer.Summary `json:"summary"`
	FileErrors []FileError      `json:"file_errors"`
}

// EntriesResponse is one window of filtered entries.
type EntriesResponse struct {
	Total   int                `json:"total"`
	Offset  int                `json:"offset"`
	Limit   int                `json:"limit"`
	Entries []*parser.LogEntry `json:"entries"`
}

func newDatasetResponse(ds *Dataset) DatasetResponse {
	return DatasetResponse{
		ID:         ds.ID,
		Summary:    ds.Result.Summary,
		FileErrors: ds.FileErrors,
	}
}

func abortWithError(c *gin.Context, status int, err error) {
	c.AbortWithStatusJSON(status, errorResponse{Error: err.Error()})
}

// createDataset parses a raw text body or a multipart upload of "files".
func (s *Server) createDataset(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.opts.MaxUploadBytes)

	var (
		text       string
		fileErrors []FileError
		err        error
	)
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		text, fileErrors, err = s.readMultipart(c)
	} else {
		var body []byte
		body, err = io.ReadAll(c.Request.Body)
		text = string(body)
	}
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			abortWithError(c, http.StatusRequestEntityTooLarge, fmt.Errorf("upload exceeds %d bytes", maxErr.Limit))
			return
		}
		abortWithError(c, http.StatusBadRequest, err)
		return
	}

	result, err := s.analyzer.Parse(c.Request.Context(), text)
	if err != nil {
		log.Error().Err(err).Msg("parse failed")
		abortWithError(c, http.StatusInternalServerError, err)
		return
	}

	ds := s.store.Put(result, fileErrors)
	log.Info().Str("id", ds.ID).Str("summary", result.Summary.String()).Int("file_errors", len(fileErrors)).Msg("dataset created")
	c.JSON(http.StatusCreated, newDatasetResponse(ds))
}

// readMultipart reads every uploaded file on its own. A file that cannot be
// read is reported and skipped; the others are joined in upload order.
func (s *Server) readMultipart(c *gin.Context) (string, []FileError, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return "", nil, fmt.Errorf("reading multipart form: %w", err)
	}

	headers := form.File["files"]
	if len(headers) == 0 {
		return "", nil, errors.New(`multipart upload has no "files" parts`)
	}

	var (
		texts      []parser.FileText
		fileErrors []FileError
	)
	for _, fh := range headers {
		data, err := readPart(fh)
		if err != nil {
			log.Warn().Err(err).Str("file", fh.Filename).Msg("skipping unreadable upload")
			fileErrors = append(fileErrors, FileError{File: fh.Filename, Error: err.Error()})
			continue
		}
		texts = append(texts, parser.FileText{Path: fh.Filename, Text: data})
	}
	return parser.JoinTexts(texts), fileErrors, nil
}

func readPart(fh *multipart.FileHeader) (string, error) {
	f, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, f); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// dataset loads the dataset named by the :id parameter or aborts with 404.
func (s *Server) dataset(c *gin.Context) (*Dataset, bool) {
	ds, err := s.store.Get(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusNotFound, err)
		return nil, false
	}
	return ds, true
}

// filtered applies the levels, from, to and q query parameters.
func (s *Server) filtered(c *gin.Context, ds *Dataset) ([]*parser.LogEntry, bool) {
	var levels []string
	if v := c.Query("levels"); v != "" {
		levels = []string{v}
	}
	criteria, err := filter.NewCriteria(levels, c.Query("from"), c.Query("to"), c.Query("q"), s.opts.Location)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err)
		return nil, false
	}
	return filter.Apply(ds.Result.Entries, criteria), true
}

func (s *Server) getDataset(c *gin.Context) {
	ds, ok := s.dataset(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, newDatasetResponse(ds))
}

func (s *Server) deleteDataset(c *gin.Context) {
	if err := s.store.Delete(c.Param("id")); err != nil {
		abortWithError(c, http.StatusNotFound, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) listEntries(c *gin.Context) {
	ds, ok := s.dataset(c)
	if !ok {
		return
	}
	entries, ok := s.filtered(c, ds)
	if !ok {
		return
	}

	offset, err := intQuery(c, "offset", 0)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err)
		return
	}
	limit, err := intQuery(c, "limit", filter.DefaultPageSize)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err)
		return
	}

	c.JSON(http.StatusOK, EntriesResponse{
		Total:   len(entries),
		Offset:  offset,
		Limit:   limit,
		Entries: filter.Window(entries, offset, limit),
	})
}

func (s *Server) getReport(c *gin.Context) {
	ds, ok := s.dataset(c)
	if !ok {
		return
	}
	top, err := intQuery(c, "top", s.opts.TopThreads)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err)
		return
	}

	report, err := output.NewReport(ds.Result, output.ReportOptions{TopThreads: top})
	if errors.Is(err, output.ErrNoData) {
		abortWithError(c, http.StatusUnprocessableEntity, err)
		return
	}
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (s *Server) exportText(c *gin.Context) {
	ds, ok := s.dataset(c)
	if !ok {
		return
	}
	entries, ok := s.filtered(c, ds)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := output.ExportPlainText(&buf, entries); err != nil {
		abortWithError(c, http.StatusInternalServerError, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="logs.txt"`)
	c.Data(http.StatusOK, "text/plain; charset=utf-8", buf.Bytes())
}

func (s *Server) exportReport(c *gin.Context) {
	ds, ok := s.dataset(c)
	if !ok {
		return
	}

	// Filter parameters do not apply; the report covers the whole dataset.
	var buf bytes.Buffer
	err := output.ExportJSONReport(&buf, ds.Result.Entries)
	if errors.Is(err, output.ErrNoData) {
		abortWithError(c, http.StatusUnprocessableEntity, err)
		return
	}
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="log-report.json"`)
	c.Data(http.StatusOK, "application/json; charset=utf-8", buf.Bytes())
}

func intQuery(c *gin.Context, name string, def int) (int, error) {
	v := c.Query(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: must be an integer", name, v)
	}
	return n, nil
}
