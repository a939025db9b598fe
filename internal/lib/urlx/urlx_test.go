package urlx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{
			name: "bare domain gets https scheme",
			raw:  "example.com",
			want: "https://example.com",
		},
		{
			name: "host is lowercased",
			raw:  "https://EXAMPLE.com/Path",
			want: "https://example.com/Path",
		},
		{
			name: "default https port is dropped",
			raw:  "https://example.com:443/page",
			want: "https://example.com/page",
		},
		{
			name: "default http port is dropped",
			raw:  "http://example.com:80",
			want: "http://example.com",
		},
		{
			name: "custom port is kept",
			raw:  "https://example.com:8443",
			want: "https://example.com:8443",
		},
		{
			name: "fragment is dropped",
			raw:  "https://example.com/page#section",
			want: "https://example.com/page",
		},
		{
			name: "trailing slash of empty path is dropped",
			raw:  "https://example.com/",
			want: "https://example.com",
		},
		{
			name: "surrounding spaces are trimmed",
			raw:  "  https://example.com  ",
			want: "https://example.com",
		},
		{
			name:    "empty string",
			raw:     "",
			wantErr: true,
		},
		{
			name:    "unsupported scheme",
			raw:     "ftp://example.com",
			wantErr: true,
		},
		{
			name:    "host without dot",
			raw:     "https://localhost",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidURL)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeIsIdempotent(t *testing.T) {
	raw := "HTTPS://WWW.Example.com:443/Page#top"
	first, err := Normalize(raw)
	require.NoError(t, err)
	second, err := Normalize(first)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestDomain(t *testing.T) {
	tests := []struct {
		name       string
		normalized string
		want       string
	}{
		{name: "plain domain", normalized: "https://example.com/page", want: "example.com"},
		{name: "www prefix is dropped", normalized: "https://www.example.com", want: "example.com"},
		{name: "subdomain is kept", normalized: "https://blog.example.com", want: "blog.example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Domain(tt.normalized))
		})
	}
}
