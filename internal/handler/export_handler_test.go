package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/minwon-api/internal/dto"
	appErrors "github.com/noah-isme/minwon-api/pkg/errors"
)

type fakeExportSrv struct {
	req  dto.ExportRequest
	file *dto.ExportFile
	err  error
}

func (f *fakeExportSrv) Export(_ context.Context, req dto.ExportRequest) (*dto.ExportFile, error) {
	f.req = req
	return f.file, f.err
}

func newExportRouter(srv *fakeExportSrv) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/complaints/export", NewExportHandler(srv).Download)
	return router
}

func TestExportHandlerStreamsAttachment(t *testing.T) {
	srv := &fakeExportSrv{file: &dto.ExportFile{
		Filename:    "minwon-20240517-093000.csv",
		ContentType: "text/csv; charset=utf-8",
		Data:        []byte("ID,Title\n"),
		Rows:        0,
	}}
	rec, _ := doRequest(newExportRouter(srv), http.MethodGet, "/complaints/export?format=csv&status=%EB%AF%B8%ED%95%B4%EA%B2%B0", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, dto.ExportFormatCSV, srv.req.Format)
	assert.Equal(t, "미해결", srv.req.Status)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="minwon-20240517-093000.csv"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "0", rec.Header().Get("X-Export-Rows"))
	assert.Equal(t, "ID,Title\n", rec.Body.String())
}

func TestExportHandlerUnsupportedFormat(t *testing.T) {
	srv := &fakeExportSrv{err: appErrors.ErrUnsupportedFormat}
	rec, envelope := doRequest(newExportRouter(srv), http.MethodGet, "/complaints/export?format=xlsx", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, appErrors.ErrUnsupportedFormat.Code, envelope.Error.Code)
}
