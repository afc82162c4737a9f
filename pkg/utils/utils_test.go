package utils

import (
	"encoding/base64"
	"mime/multipart"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateImageFile(t *testing.T) {
	u := NewWithLimit(1024)

	tests := []struct {
		name    string
		file    *multipart.FileHeader
		wantErr error
	}{
		{name: "nil file", file: nil, wantErr: ErrNoFile},
		{name: "jpg", file: &multipart.FileHeader{Filename: "class.jpg", Size: 10}},
		{name: "upper case jpeg", file: &multipart.FileHeader{Filename: "CLASS.JPEG", Size: 10}},
		{name: "png", file: &multipart.FileHeader{Filename: "room.png", Size: 10}},
		{name: "text file", file: &multipart.FileHeader{Filename: "notes.txt", Size: 10}, wantErr: ErrUnsupportedExtension},
		{name: "no extension", file: &multipart.FileHeader{Filename: "photo", Size: 10}, wantErr: ErrUnsupportedExtension},
		{name: "too large", file: &multipart.FileHeader{Filename: "big.png", Size: 2048}, wantErr: ErrFileTooLarge},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := u.ValidateImageFile(tc.file)
			if tc.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestDecodeBase64Image(t *testing.T) {
	u := New()
	raw := []byte{0x89, 'P', 'N', 'G'}
	encoded := base64.StdEncoding.EncodeToString(raw)

	t.Run("bare base64", func(t *testing.T) {
		data, err := u.DecodeBase64Image(encoded)
		require.NoError(t, err)
		assert.Equal(t, raw, data)
	})

	t.Run("data url", func(t *testing.T) {
		data, err := u.DecodeBase64Image("data:image/png;base64," + encoded)
		require.NoError(t, err)
		assert.Equal(t, raw, data)
	})

	t.Run("data url without base64 marker", func(t *testing.T) {
		_, err := u.DecodeBase64Image("data:image/png," + encoded)
		assert.ErrorIs(t, err, ErrInvalidBase64)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := u.DecodeBase64Image("%%%")
		assert.ErrorIs(t, err, ErrInvalidBase64)
	})

	t.Run("empty", func(t *testing.T) {
		_, err := u.DecodeBase64Image("  ")
		assert.ErrorIs(t, err, ErrNoFile)
	})
}

func TestEncodeDataURIRoundTrip(t *testing.T) {
	u := New()
	uri := u.EncodeDataURI("image/jpeg", []byte("abc"))
	assert.Equal(t, "data:image/jpeg;base64,YWJj", uri)

	data, err := u.DecodeBase64Image(uri)
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), data)
}

func TestULID(t *testing.T) {
	u := New()
	id, err := u.NewULIDFromTimestamp(time.Now())
	require.NoError(t, err)
	assert.Len(t, id, 26)
	assert.True(t, u.IsULID(id))
	assert.False(t, u.IsULID("not-a-ulid"))
}
