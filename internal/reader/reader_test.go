package reader_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"readsum/internal/reader"
)

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"no scheme", "example.com/a", "https://example.com/a"},
		{"surrounding whitespace", "  example.com/a  ", "https://example.com/a"},
		{"https kept", "https://example.com/a", "https://example.com/a"},
		{"http kept", "http://example.com/a", "http://example.com/a"},
		{"upper case scheme kept", "HTTPS://Example.com/A", "HTTPS://Example.com/A"},
		{"mixed case scheme kept", "hTtP://example.com", "hTtP://example.com"},
		{"other scheme gets prefix", "ftp://example.com", "https://ftp://example.com"},
		{"empty", "   ", ""},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.want, reader.NormalizeURL(test.raw))
		})
	}
}

func TestNormalizeURLIsIdempotent(t *testing.T) {
	inputs := []string{"example.com", "www.example.com/path?q=1", "HTTP://x.y", "https://a.b/c"}

	for _, in := range inputs {
		once := reader.NormalizeURL(in)
		assert.Equal(t, once, reader.NormalizeURL(once), "input %q", in)
	}
}

func TestNewSelectsMode(t *testing.T) {
	r, err := reader.New("", "", nil, nil)
	require.NoError(t, err)
	assert.IsType(t, &reader.ProxyRetriever{}, r)

	r, err = reader.New("DIRECT", "", nil, nil)
	require.NoError(t, err)
	assert.IsType(t, &reader.DirectRetriever{}, r)

	_, err = reader.New("carrier-pigeon", "", nil, nil)
	require.Error(t, err)
}
