package core

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeEnum(t *testing.T) {
	tests := map[string]string{
		"":               "",
		"  tithe ":       "tithe",
		"Sunday Service": "sunday_service",
		"SUNDAY-SERVICE": "sunday_service",
		"sundayService":  "sunday_service",
		"Mobile  Money":  "mobile_money",
		"bank_transfer":  "bank_transfer",
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizeEnum(in), in)
	}
}

func TestEnumLabel(t *testing.T) {
	assert.Equal(t, "Sunday Service", EnumLabel("sunday_service"))
	assert.Equal(t, "Tithe", EnumLabel("tithe"))
	assert.Equal(t, "", EnumLabel(""))
}

func TestSlugify(t *testing.T) {
	tests := map[string]string{
		"Harvest Thanksgiving!": "harvest-thanksgiving",
		"  Easter -- 2024  ":    "easter-2024",
		"Ẁhat's new?":           "what-s-new",
		"Ɔdɔ Yɛ Dɛ":             "odo-ye-de",
		"Crème brûlée Sunday":   "creme-brulee-sunday",
		"Straße":                "strasse",
		"福音":                    "",
		"!!!":                   "",
		"already-a-slug":        "already-a-slug",
	}
	for in, want := range tests {
		assert.Equal(t, want, Slugify(in), in)
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short text", Truncate("short   text", 20))
	assert.Equal(t, "one two...", Truncate("one two three", 8))
	// no usable word boundary: cut mid-word
	assert.Equal(t, "abcdef...", Truncate("abcdefghij", 6))
}

func TestContainsString(t *testing.T) {
	assert.True(t, ContainsString([]string{"a", "b"}, "b"))
	assert.False(t, ContainsString(nil, "b"))
}

func TestHumanSize(t *testing.T) {
	assert.Equal(t, "2MB", HumanSize(2<<20))
	assert.Equal(t, "512KB", HumanSize(512<<10))
	assert.Equal(t, "1536 bytes", HumanSize(1536))
}

func TestReadImage(t *testing.T) {
	png := append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 64)...)
	allowed := []string{"image/png", "image/jpeg"}

	buf, contentType, err := ReadImage(bytes.NewReader(png), "photo", 1024, allowed)
	require.NoError(t, err)
	assert.Equal(t, "image/png", contentType)
	assert.Equal(t, ".png", ImageExtension(contentType))
	assert.Equal(t, png, buf.Bytes())

	tests := []struct {
		name string
		data []byte
		max  int64
		want string
	}{
		{"empty", nil, 1024, "this field is required"},
		{"too big", png, 16, "file cannot exceed 16 bytes"},
		{"not an image", []byte("hello there"), 1024, `unsupported file type "text/plain": allowed types are image/png, image/jpeg`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ReadImage(bytes.NewReader(tt.data), "photo", tt.max, allowed)
			vErr, ok := err.(*ValidationError)
			require.True(t, ok, "want a *ValidationError, got %v", err)
			require.Len(t, vErr.Fields, 1)
			assert.Equal(t, FieldError{Field: "photo", Error: tt.want}, vErr.Fields[0])
		})
	}
}
