// pkg/httpclient/httpclient.go

package httpclient

import (
	"crypto/tls"
	"net"
	"net/http"
	"time"
)

var defaultClient = &http.Client{
	Timeout: 30 * time.Second,
	Transport: &http.Transport{
		TLSClientConfig: &tls.Config{MinVersion: tls.VersionTLS12},
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
	},
}

// DefaultClient returns the preconfigured HTTP client used across hostprep.
// The 30s timeout bounds remote key fetches so a stalled server cannot hang
// a run indefinitely.
func DefaultClient() *http.Client {
	return defaultClient
}

// SetDefaultClient replaces the default client, for tests.
func SetDefaultClient(client *http.Client) {
	defaultClient = client
}
