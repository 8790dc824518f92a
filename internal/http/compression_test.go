package httpx

import (
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcceptsGzip(t *testing.T) {
	tests := []struct {
		header string
		want   bool
	}{
		{"", false},
		{"gzip", true},
		{"deflate, gzip;q=0.8", true},
		{"GZIP", true},
		{"gzip;q=0", false},
		{"gzip; q=0.000", false},
		{"br", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, acceptsGzip(tt.header), tt.header)
	}
}

func serveCompressed(t *testing.T, h http.HandlerFunc, acceptEncoding string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if acceptEncoding != "" {
		req.Header.Set("Accept-Encoding", acceptEncoding)
	}
	rec := httptest.NewRecorder()
	Compression(CompressionConfig{Level: 6})(h).ServeHTTP(rec, req)
	return rec
}

func TestCompression_HTML(t *testing.T) {
	page := strings.Repeat("<p>attendance</p>", 200)
	rec := serveCompressed(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Content-Length", "3400")
		_, _ = io.WriteString(w, page)
	}, "gzip")

	assert.Equal(t, "gzip", rec.Header().Get("Content-Encoding"))
	assert.Empty(t, rec.Header().Get("Content-Length"))
	assert.Contains(t, rec.Header().Values("Vary"), "Accept-Encoding")

	zr, err := gzip.NewReader(rec.Body)
	require.NoError(t, err)
	got, err := io.ReadAll(zr)
	require.NoError(t, err)
	assert.Equal(t, page, string(got))
}

func TestCompression_Passthrough(t *testing.T) {
	tests := []struct {
		name    string
		accept  string
		handler http.HandlerFunc
	}{
		{
			name:   "client without gzip",
			accept: "",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "text/html")
				_, _ = io.WriteString(w, "<p>hi</p>")
			},
		},
		{
			name:   "report download",
			accept: "gzip",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "text/csv")
				w.Header().Set("Content-Disposition", "attachment; filename=a.csv")
				_, _ = io.WriteString(w, "a,b")
			},
		},
		{
			name:   "binary",
			accept: "gzip",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/pdf")
				_, _ = io.WriteString(w, "%PDF")
			},
		},
		{
			name:   "no content",
			accept: "gzip",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusNoContent)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serveCompressed(t, tt.handler, tt.accept)
			assert.Empty(t, rec.Header().Get("Content-Encoding"))
		})
	}
}
