package proxy

import (
	"crypto/tls"
	"net"
	"net/http"
	"net/url"
	"time"
)

// ClientFunc builds the client used for one outbound call. A nil proxyURL
// means a direct connection.
type ClientFunc func(proxyURL *url.URL, timeout time.Duration) *http.Client

// NewClientFunc returns a ClientFunc that builds a fresh transport per call,
// so no proxy setting is ever shared between requests.
func NewClientFunc(insecureSkipVerify bool) ClientFunc {
	return func(proxyURL *url.URL, timeout time.Duration) *http.Client {
		return NewHTTPClient(proxyURL, timeout, insecureSkipVerify)
	}
}

func NewHTTPClient(proxyURL *url.URL, timeout time.Duration, insecureSkipVerify bool) *http.Client {
	tr := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   timeout,
		ResponseHeaderTimeout: timeout,
		MaxIdleConns:          10,
		IdleConnTimeout:       30 * time.Second,
	}
	if proxyURL != nil {
		tr.Proxy = http.ProxyURL(proxyURL)
		// rotating endpoints hand out a new exit IP per connection
		tr.DisableKeepAlives = true
	}
	if insecureSkipVerify {
		tr.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}
	return &http.Client{Transport: tr, Timeout: timeout}
}
