package storage

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanKey(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"materials/math101/notes.pdf", "materials/math101/notes.pdf", false},
		{"/materials//x.pdf", "materials/x.pdf", false},
		{`materials\win.pdf`, "materials/win.pdf", false},
		{"../etc/passwd", "", true},
		{"materials/../../x", "", true},
		{"materials/v1..2.pdf", "materials/v1..2.pdf", false},
		{"", "", true},
		{"/", "", true},
	}
	for _, tt := range tests {
		got, err := CleanKey(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestFSStoreRoundTrip(t *testing.T) {
	s, err := NewFSStore(t.TempDir())
	require.NoError(t, err)

	key, err := s.Put("/materials/math101/notes.txt", strings.NewReader("limits"))
	require.NoError(t, err)
	assert.Equal(t, "materials/math101/notes.txt", key)

	rc, err := s.Get(key)
	require.NoError(t, err)
	b, err := io.ReadAll(rc)
	rc.Close()
	require.NoError(t, err)
	assert.Equal(t, "limits", string(b))

	require.NoError(t, s.Delete(key))
	require.NoError(t, s.Delete(key), "deleting twice is fine")
	_, err = s.Get(key)
	assert.Error(t, err)

	_, err = s.Put("../escape", strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrBadKey)
}
