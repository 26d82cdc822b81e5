// Package cookie carries JSON values in HTTP cookies.
package cookie

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Options are the base attributes applied to every cookie the jar writes.
type Options struct {
	Path     string
	Domain   string
	Secure   bool
	HTTPOnly bool
	SameSite http.SameSite
}

// Jar reads cookies from one request and writes them to its response.
// Values are URL-escaped JSON so quotes and commas survive net/http sanitizing.
type Jar struct {
	w    http.ResponseWriter
	r    *http.Request
	opts Options
	now  func() time.Time
}

// NewJar binds a jar to a single request/response pair.
func NewJar(w http.ResponseWriter, r *http.Request, opts Options) *Jar {
	if opts.Path == "" {
		opts.Path = "/"
	}
	return &Jar{w: w, r: r, opts: opts, now: time.Now}
}

// ReadJSON returns the decoded cookie payload. It does not check that the payload
// is valid JSON; callers parse it.
func (j *Jar) ReadJSON(name string) (json.RawMessage, bool) {
	c, err := j.r.Cookie(name)
	if err != nil {
		return nil, false
	}
	raw, err := url.QueryUnescape(c.Value)
	if err != nil || raw == "" {
		return nil, false
	}
	return json.RawMessage(raw), true
}

// WriteJSON sets the cookie on the response. A later write with the same name
// replaces an earlier one, so one response never carries two values for a name.
func (j *Jar) WriteJSON(name string, value any, maxAge time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode cookie %s: %w", name, err)
	}
	c := &http.Cookie{
		Name:     name,
		Value:    url.QueryEscape(string(data)),
		Path:     j.opts.Path,
		Domain:   j.opts.Domain,
		Secure:   j.opts.Secure,
		HttpOnly: j.opts.HTTPOnly,
		SameSite: j.opts.SameSite,
	}
	if maxAge > 0 {
		c.MaxAge = int(maxAge / time.Second)
		c.Expires = j.now().Add(maxAge).UTC()
	}
	line := c.String()
	if line == "" {
		return fmt.Errorf("cookie %s: invalid name", name)
	}

	header := j.w.Header()
	var kept []string
	for _, existing := range header.Values("Set-Cookie") {
		if !strings.HasPrefix(existing, name+"=") {
			kept = append(kept, existing)
		}
	}
	header.Del("Set-Cookie")
	for _, existing := range kept {
		header.Add("Set-Cookie", existing)
	}
	header.Add("Set-Cookie", line)
	return nil
}
