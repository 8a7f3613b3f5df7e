package blob

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/require"
)

// mockS3 serves the tiny subset of the S3 API the store uses.
type mockS3 struct {
	mu    sync.Mutex
	state map[string]mockObject
}

type mockObject struct {
	body        []byte
	contentType string
}

func response(code int, body []byte, header http.Header) *http.Response {
	if header == nil {
		header = http.Header{}
	}
	return &http.Response{StatusCode: code, Body: io.NopCloser(bytes.NewReader(body)), Header: header}
}

func notFound(code string) *http.Response {
	body := fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?><Error><Code>%s</Code><Message>not found</Message></Error>`, code)
	return response(http.StatusNotFound, []byte(body), http.Header{"Content-Type": {"application/xml"}})
}

func (m *mockS3) RoundTrip(req *http.Request) (*http.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// path style: /bucket/key
	parts := strings.SplitN(strings.TrimPrefix(req.URL.Path, "/"), "/", 2)
	key := ""
	if len(parts) == 2 {
		key = parts[1]
	}
	obj, exists := m.state[key]

	switch req.Method {
	case http.MethodPut:
		var body []byte
		if req.Body != nil {
			body, _ = io.ReadAll(req.Body)
		}
		if dec, ok := decodeChunked(body); ok {
			body = dec
		}
		m.state[key] = mockObject{body: body, contentType: req.Header.Get("Content-Type")}
		return response(http.StatusOK, nil, http.Header{"ETag": {`"etag123"`}}), nil
	case http.MethodHead:
		if !exists {
			return response(http.StatusNotFound, nil, nil), nil
		}
		return response(http.StatusOK, nil, http.Header{"Content-Length": {fmt.Sprint(len(obj.body))}}), nil
	case http.MethodGet:
		if !exists {
			return notFound("NoSuchKey"), nil
		}
		return response(http.StatusOK, obj.body, http.Header{
			"Content-Length": {fmt.Sprint(len(obj.body))},
			"Content-Type":   {obj.contentType},
			"ETag":           {`"etag123"`},
			"Last-Modified":  {time.Now().UTC().Format(http.TimeFormat)},
		}), nil
	case http.MethodDelete:
		delete(m.state, key)
		return response(http.StatusNoContent, nil, nil), nil
	}
	return response(http.StatusNotImplemented, nil, nil), nil
}

// decodeChunked unwraps a single chunk aws-chunked body, as sent with trailing checksums.
func decodeChunked(b []byte) ([]byte, bool) {
	parts := strings.Split(string(b), "\r\n")
	if len(parts) < 3 {
		return nil, false
	}
	n, err := strconv.ParseInt(parts[0], 16, 64)
	if err != nil || n <= 0 || int64(len(parts[1])) != n || parts[2] != "0" {
		return nil, false
	}
	return []byte(parts[1]), true
}

func newMockS3Store(t *testing.T) *S3Store {
	t.Helper()
	rt := &mockS3{state: make(map[string]mockObject)}
	store, err := NewS3Store(context.Background(), S3Config{
		Bucket:          "koinonia-test",
		Region:          "us-east-1",
		Endpoint:        "https://mock.s3.local",
		AccessKeyID:     "AKIA",
		SecretAccessKey: "SECRET",
		PathStyle:       true,
	}, func(o *s3.Options) {
		o.HTTPClient = &http.Client{Transport: rt}
	})
	require.NoError(t, err)
	return store
}

func TestS3Store(t *testing.T) {
	testStore(t, newMockS3Store(t))
}

func TestNewS3Store_RequiresBucket(t *testing.T) {
	_, err := NewS3Store(context.Background(), S3Config{})
	require.EqualError(t, err, "s3 bucket required")
}
