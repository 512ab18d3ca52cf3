package proxy

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/nijaru/yt-transcript/config"
	apperrors "github.com/nijaru/yt-transcript/errors"
)

const (
	webshareDomain = "p.webshare.io"
	websharePort   = 80
)

// Route is the proxy decision for one outbound call. It is immutable and
// built per request; nothing in it is shared client state.
type Route struct {
	Mode string
	// Proxy is set for static and webshare routes.
	Proxy *url.URL
	// PoolPath is set for pool routes.
	PoolPath string
}

func Direct() Route {
	return Route{Mode: config.ProxyModeDirect}
}

func Static(rawURL string) (Route, error) {
	const op = "proxy.Static"

	if strings.TrimSpace(rawURL) == "" {
		return Route{}, apperrors.Configuration(op, nil, "Missing required environment variable: PROXY_URL")
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return Route{}, apperrors.Configuration(op, err, "Invalid PROXY_URL")
	}
	return Route{Mode: config.ProxyModeStatic, Proxy: u}, nil
}

// Webshare routes through the provider's rotating residential endpoint.
func Webshare(username, password string) (Route, error) {
	const op = "proxy.Webshare"

	if strings.TrimSpace(username) == "" || strings.TrimSpace(password) == "" {
		return Route{}, apperrors.Configuration(op, nil, "Missing required environment variables: PROXY_USERNAME and PROXY_PASSWORD")
	}
	u := &url.URL{
		Scheme: "http",
		User:   url.UserPassword(username+"-rotate", password),
		Host:   fmt.Sprintf("%s:%d", webshareDomain, websharePort),
		Path:   "/",
	}
	return Route{Mode: config.ProxyModeWebshare, Proxy: u}, nil
}

func Pool(path string) Route {
	return Route{Mode: config.ProxyModePool, PoolPath: path}
}

// Describe renders the route for debug output without credentials.
func (r Route) Describe() string {
	switch r.Mode {
	case config.ProxyModePool:
		return r.PoolPath
	case config.ProxyModeStatic, config.ProxyModeWebshare:
		return Redact(r.Proxy)
	default:
		return ""
	}
}

// RouteFromConfig resolves the route used by proxied endpoints. In auto mode
// the first configured mechanism wins: webshare credentials, PROXY_URL, then
// an existing pool file.
func RouteFromConfig(cfg config.ProxyConfig) (Route, error) {
	switch cfg.Mode {
	case config.ProxyModeDirect:
		return Direct(), nil
	case config.ProxyModeStatic:
		return Static(cfg.URL)
	case config.ProxyModeWebshare:
		return Webshare(cfg.Username, cfg.Password)
	case config.ProxyModePool:
		return Pool(cfg.ListPath), nil
	}

	if cfg.Username != "" && cfg.Password != "" {
		return Webshare(cfg.Username, cfg.Password)
	}
	if cfg.URL != "" {
		return Static(cfg.URL)
	}
	if cfg.ListPath != "" {
		if _, err := os.Stat(cfg.ListPath); err == nil {
			return Pool(cfg.ListPath), nil
		}
	}
	return Route{}, apperrors.Configuration("proxy.RouteFromConfig", nil, "Missing required environment variable: PROXY_URL")
}
