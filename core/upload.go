package core

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/pkg/errors"
)

var imageExtensions = map[string]string{"image/jpeg": ".jpg", "image/png": ".png", "image/webp": ".webp", "image/gif": ".gif"}

// ReadImage reads an uploaded image of at most `max` bytes and sniffs its content type,
// which must be in `allowed`. Problems are reported as field errors on `field`.
func ReadImage(r io.Reader, field string, max int64, allowed []string) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	n, err := io.Copy(&buf, io.LimitReader(r, max+1))
	if err != nil {
		return nil, "", errors.Wrap(err, "reading upload")
	}
	if n == 0 {
		return nil, "", NewFieldError(field, "this field is required")
	}
	if n > max {
		return nil, "", NewFieldError(field, fmt.Sprintf("file cannot exceed %s", HumanSize(max)))
	}
	contentType, err := DetectImageType(buf.Bytes(), field, allowed)
	if err != nil {
		return nil, "", err
	}
	return &buf, contentType, nil
}

// DetectImageType sniffs the content type of `head` and checks it against `allowed`.
func DetectImageType(head []byte, field string, allowed []string) (string, error) {
	contentType := http.DetectContentType(head)
	if i := strings.Index(contentType, ";"); i >= 0 {
		contentType = contentType[:i]
	}
	if !ContainsString(allowed, contentType) {
		return "", NewFieldError(field, fmt.Sprintf("unsupported file type %q: allowed types are %s",
			contentType, strings.Join(allowed, ", ")))
	}
	return contentType, nil
}

func ImageExtension(contentType string) string {
	return imageExtensions[contentType]
}

// HumanSize formats a byte count: 2097152 -> "2MB".
func HumanSize(n int64) string {
	switch {
	case n >= 1<<20 && n%(1<<20) == 0:
		return fmt.Sprintf("%dMB", n>>20)
	case n >= 1<<10 && n%(1<<10) == 0:
		return fmt.Sprintf("%dKB", n>>10)
	default:
		return fmt.Sprintf("%d bytes", n)
	}
}
