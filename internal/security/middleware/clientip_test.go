package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTrustedProxies(t *testing.T) {
	proxies, err := ParseTrustedProxies([]string{"10.0.0.0/8", " 192.168.1.7 ", "", "fd00::/8"})
	require.NoError(t, err)
	assert.Len(t, proxies, 3)

	_, err = ParseTrustedProxies([]string{"not-an-ip"})
	assert.Error(t, err)
	_, err = ParseTrustedProxies([]string{"10.0.0.0/99"})
	assert.Error(t, err)
}

func TestClientIP(t *testing.T) {
	proxies, err := ParseTrustedProxies([]string{"10.0.0.0/8"})
	require.NoError(t, err)

	cases := []struct {
		name      string
		proxies   TrustedProxies
		remote    string
		forwarded string
		want      string
	}{
		{"no proxies ignores header", nil, "203.0.113.9:1234", "198.51.100.1", "203.0.113.9"},
		{"untrusted peer ignores header", proxies, "203.0.113.9:1234", "198.51.100.1", "203.0.113.9"},
		{"trusted peer without header", proxies, "10.1.2.3:1234", "", "10.1.2.3"},
		{"trusted peer uses forwarded client", proxies, "10.1.2.3:1234", "198.51.100.1", "198.51.100.1"},
		{"rightmost untrusted hop wins", proxies, "10.1.2.3:1234", "1.1.1.1, 198.51.100.1, 10.9.9.9", "198.51.100.1"},
		{"all hops trusted", proxies, "10.1.2.3:1234", "10.4.4.4", "10.4.4.4"},
		{"remote without port", nil, "203.0.113.9", "", "203.0.113.9"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/score", nil)
			req.RemoteAddr = tc.remote
			if tc.forwarded != "" {
				req.Header.Set("X-Forwarded-For", tc.forwarded)
			}
			assert.Equal(t, tc.want, tc.proxies.ClientIP(req))
		})
	}
}
