package testutil

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"net/url"
	"strings"
	"testing"
)

// Field is one key/value pair of a test submission. Order is kept.
type Field struct {
	Key   string
	Value string
}

// File is one file part of a multipart test submission.
type File struct {
	Field       string
	Filename    string
	ContentType string
	Content     []byte
}

// MultipartBody encodes fields then files as multipart/form-data.
// Returns the body and its Content-Type header.
func MultipartBody(t testing.TB, fields []Field, files []File) (*bytes.Buffer, string) {
	t.Helper()
	body, ct, err := EncodeMultipart(fields, files)
	if err != nil {
		t.Fatalf("encode multipart: %v", err)
	}
	return body, ct
}

// EncodeMultipart is MultipartBody for callers without a testing.TB.
func EncodeMultipart(fields []Field, files []File) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, f := range fields {
		if err := w.WriteField(f.Key, f.Value); err != nil {
			return nil, "", fmt.Errorf("write field %q: %w", f.Key, err)
		}
	}
	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition",
			fmt.Sprintf(`form-data; name="%s"; filename="%s"`, escapeQuotes(f.Field), escapeQuotes(f.Filename)))
		ct := f.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		h.Set("Content-Type", ct)
		pw, err := w.CreatePart(h)
		if err != nil {
			return nil, "", fmt.Errorf("create part %q: %w", f.Field, err)
		}
		if _, err := pw.Write(f.Content); err != nil {
			return nil, "", fmt.Errorf("write part %q: %w", f.Field, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart writer: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}

// BuildRequest builds a POST to target, multipart when asked or when files
// are present, urlencoded otherwise.
func BuildRequest(target string, multipartBody bool, fields []Field, files []File) (*http.Request, error) {
	if multipartBody || len(files) > 0 {
		body, ct, err := EncodeMultipart(fields, files)
		if err != nil {
			return nil, err
		}
		req := httptest.NewRequest(http.MethodPost, target, body)
		req.Header.Set("Content-Type", ct)
		return req, nil
	}
	vals := url.Values{}
	for _, f := range fields {
		vals.Add(f.Key, f.Value)
	}
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(vals.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req, nil
}

// NewMultipartRequest builds a POST with a multipart/form-data body.
func NewMultipartRequest(t testing.TB, target string, fields []Field, files []File) *http.Request {
	t.Helper()
	body, ct := MultipartBody(t, fields, files)
	req := httptest.NewRequest(http.MethodPost, target, body)
	req.Header.Set("Content-Type", ct)
	return req
}

// NewFormRequest builds a POST with an application/x-www-form-urlencoded body.
func NewFormRequest(t testing.TB, target string, fields []Field) *http.Request {
	t.Helper()
	req, err := BuildRequest(target, false, fields, nil)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	return req
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
