package research

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{"valid https", "https://example.com/docs", false},
		{"http rejected", "http://example.com/docs", true},
		{"ftp rejected", "ftp://example.com/file", true},
		{"localhost", "https://localhost/admin", true},
		{"loopback ip", "https://127.0.0.1/admin", true},
		{"ipv6 loopback", "https://[::1]/admin", true},
		{"local domain", "https://server.local/x", true},
		{"internal domain", "https://db.internal/x", true},
		{"private ip", "https://192.168.1.1/router", true},
		{"cgnat ip", "https://100.64.0.1/x", true},
		{"public ip", "https://93.184.216.34/", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateURL(tt.url)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestIsPrivateIP(t *testing.T) {
	tests := []struct {
		ip      string
		private bool
	}{
		{"10.0.0.1", true},
		{"172.16.5.5", true},
		{"192.168.1.1", true},
		{"127.0.0.1", true},
		{"169.254.1.1", true},
		{"100.64.0.1", true},
		{"fc00::1", true},
		{"fe80::1", true},
		{"::ffff:10.0.0.1", true},
		{"8.8.8.8", false},
		{"93.184.216.34", false},
		{"2606:4700::1111", false},
	}

	for _, tt := range tests {
		t.Run(tt.ip, func(t *testing.T) {
			ip := net.ParseIP(tt.ip)
			assert.NotNil(t, ip)
			assert.Equal(t, tt.private, IsPrivateIP(ip))
		})
	}
}

func TestExtractURLs(t *testing.T) {
	text := `Compare with https://example.com/pricing, and see
https://docs.example.com/api. The old notes at http://legacy.example.com
and the router at https://192.168.1.1 should be ignored.
https://example.com/pricing appears twice.`

	urls := ExtractURLs(text)
	assert.Equal(t, []string{
		"https://example.com/pricing",
		"https://docs.example.com/api",
	}, urls)
}

func TestExtractURLsEmptyText(t *testing.T) {
	assert.Empty(t, ExtractURLs("no links in here"))
}

func TestExtractURLsStripsTrailingPunctuation(t *testing.T) {
	urls := ExtractURLs("see https://example.com/guide.")
	assert.Equal(t, []string{"https://example.com/guide"}, urls)
}
