package proxy

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Record is one line of the proxy list: host:port:username:password.
type Record struct {
	Host     string
	Port     int
	Username string
	Password string
}

// ParseRecord parses a single host:port:username:password line.
func ParseRecord(line string) (Record, error) {
	fields := strings.Split(strings.TrimSpace(line), ":")
	if len(fields) != 4 {
		return Record{}, errors.Errorf("expected 4 colon-separated fields, got %d", len(fields))
	}

	host := strings.TrimSpace(fields[0])
	if host == "" {
		return Record{}, errors.New("empty host")
	}

	port, err := strconv.Atoi(strings.TrimSpace(fields[1]))
	if err != nil {
		return Record{}, errors.Wrapf(err, "invalid port %q", fields[1])
	}
	if port < 1 || port > 65535 {
		return Record{}, errors.Errorf("port %d out of range", port)
	}

	return Record{
		Host:     host,
		Port:     port,
		Username: strings.TrimSpace(fields[2]),
		Password: strings.TrimSpace(fields[3]),
	}, nil
}

func (r Record) Address() string {
	return net.JoinHostPort(r.Host, strconv.Itoa(r.Port))
}

// URL is the http proxy URL with credentials embedded.
func (r Record) URL() *url.URL {
	u := &url.URL{Scheme: "http", Host: r.Address()}
	if r.Username != "" || r.Password != "" {
		u.User = url.UserPassword(r.Username, r.Password)
	}
	return u
}

// String masks the password so records can be logged.
func (r Record) String() string {
	if r.Username == "" {
		return fmt.Sprintf("http://%s", r.Address())
	}
	return fmt.Sprintf("http://%s:***@%s", r.Username, r.Address())
}

// Redact masks the password of an arbitrary proxy URL.
func Redact(u *url.URL) string {
	if u == nil {
		return ""
	}
	return u.Redacted()
}
