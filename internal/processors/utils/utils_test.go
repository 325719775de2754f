package utils

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockProber struct {
	mock.Mock
}

func (m *mockProber) ContentLength(ctx context.Context, rawURL string) (int64, bool, error) {
	args := m.Called(ctx, rawURL)
	return args.Get(0).(int64), args.Bool(1), args.Error(2)
}

func TestIsValidURL(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"https://example.com/doc.pdf", true},
		{"http://localhost:8080/a?b=c", true},
		{"ftp://example.com/doc.pdf", false},
		{"example.com/doc.pdf", false},
		{"https://", false},
		{"", false},
		{"not a url", false},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValidURL(tt.url))
		})
	}
}

func TestIsS3File(t *testing.T) {
	assert.True(t, IsS3File("https://bucket.s3.amazonaws.com/doc.pdf", ""))
	assert.True(t, IsS3File("http://minio:9000/bucket/doc.pdf", "minio:9000"))
	assert.False(t, IsS3File("https://example.com/doc.pdf", "minio:9000"))
	assert.True(t, IsS3File("s3://bucket/docs/a.pdf", ""))
}

func TestIsS3URI(t *testing.T) {
	assert.True(t, IsS3URI("s3://bucket/docs/a.pdf"))
	assert.True(t, IsS3URI("S3://bucket/a.pdf"))
	assert.False(t, IsS3URI("s3://bucket"))
	assert.False(t, IsS3URI("https://bucket.s3.amazonaws.com/a.pdf"))
	assert.False(t, IsS3URI("::"))

	// s3:// 不是可以直接下载的地址
	assert.False(t, IsValidURL("s3://bucket/docs/a.pdf"))
}

func TestMaxFileSizeMB(t *testing.T) {
	assert.Greater(t, MaxFileSizeMB(), 0)
}

func TestIsAcceptedURLFileSize(t *testing.T) {
	ctx := context.Background()
	const url = "https://example.com/doc.pdf"

	tests := []struct {
		name    string
		length  int64
		known   bool
		err     error
		want    bool
		wantErr bool
	}{
		{name: "below limit", length: 10, known: true, want: true},
		{name: "at limit", length: 100, known: true, want: true},
		{name: "above limit", length: 101, known: true, want: false},
		{name: "unknown length", known: false, want: true},
		{name: "head request failure", err: errors.New("dial tcp: refused"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prober := new(mockProber)
			prober.On("ContentLength", ctx, url).Return(tt.length, tt.known, tt.err)

			got, err := IsAcceptedURLFileSize(ctx, prober, url, 100)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
			prober.AssertExpectations(t)
		})
	}
}

func TestCreateTempFileWithBytesContent(t *testing.T) {
	base := t.TempDir()

	path, cleanup, err := CreateTempFileWithBytesContent(base, []byte("content"))
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "content", string(data))

	cleanup()
	_, err = os.Stat(filepath.Dir(path))
	assert.True(t, os.IsNotExist(err))
}

func TestCreateTempFileWithBytesContent_BadDir(t *testing.T) {
	_, cleanup, err := CreateTempFileWithBytesContent(filepath.Join(t.TempDir(), "missing", "dir"), []byte("x"))
	assert.Error(t, err)
	cleanup()
}
