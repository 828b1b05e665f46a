package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
)

type ContextKey string

const (
	RequestIDPrefix         string     = "r"
	RequestIDContextKey     ContextKey = "request.id"
	RequestNumberContextKey ContextKey = "request.number"
)

var ErrInvalidBookID = errors.New("book id must be a positive integer")

// GetValueFromContext returns the value of a given key in the context
// if this key is not available, it returns an empty string.
func GetValueFromContext(ctx context.Context, contextKey ContextKey) string {
	if val, ok := ctx.Value(contextKey).(string); ok {
		return val
	}
	return ""
}

// GetRequestNumberFromContext returns the request number set in
// the context. if not previously set then it returns 0.
func GetRequestNumberFromContext(ctx context.Context) uint64 {
	if val, ok := ctx.Value(RequestNumberContextKey).(uint64); ok {
		return val
	}
	return 0
}

// DecodeBookUpdateRequestBody reads the content of a book creation or update
// request and checks the fields constraints. Dates are parsed while decoding.
func DecodeBookUpdateRequestBody(r *http.Request, u *BookUpdate) error {
	if r.Body == nil || r.Body == http.NoBody {
		return errors.New("invalid book request body")
	}
	if err := json.NewDecoder(r.Body).Decode(u); err != nil {
		return err
	}
	return u.Validate()
}

// ParseBookID reads a book id from its path parameter text.
func ParseBookID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidBookID, s)
	}
	return id, nil
}

// ParseCriteria builds the listing criteria from the query parameters.
// Empty parameters are ignored.
func ParseCriteria(q url.Values) (Criteria, error) {
	var c Criteria
	if v := q.Get("author"); v != "" {
		c.Author = StringPtr(v)
	}
	if v := q.Get("title"); v != "" {
		c.Title = StringPtr(v)
	}
	if v := q.Get("published_date_from"); v != "" {
		d, err := ParseDate(v)
		if err != nil {
			return c, err
		}
		c.PublishedDateFrom = &d
	}
	if v := q.Get("published_date_to"); v != "" {
		d, err := ParseDate(v)
		if err != nil {
			return c, err
		}
		c.PublishedDateTo = &d
	}
	return c, nil
}

// GetRequestSourceIP helps find the source IP of the caller.
func GetRequestSourceIP(r *http.Request) string {
	// Get IP from the X-REAL-IP header
	ip := r.Header.Get("X-REAL-IP")
	netIP := net.ParseIP(ip)
	if netIP != nil {
		return ip
	}

	// Get IP from X-FORWARDED-FOR header
	ips := r.Header.Get("X-FORWARDED-FOR")
	splitIps := strings.Split(ips, ",")
	for _, ip := range splitIps {
		ip = strings.TrimSpace(ip)
		netIP = net.ParseIP(ip)
		if netIP != nil {
			return ip
		}
	}

	// Get IP from RemoteAddr
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return ""
	}
	netIP = net.ParseIP(ip)
	if netIP != nil {
		return ip
	}
	return ""
}

// IsAppRunningInDocker checks the existence of the .dockerenv
// file at the root directory and returns a boolean result.
func IsAppRunningInDocker() bool {
	if _, err := os.Stat("/.dockerenv"); err == nil {
		return true
	}
	return false
}
