package selection

import (
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Cookie names of the persisted record.
const (
	CookieName        = "fanbox_name"
	CookieAddress     = "fanbox_address"
	CookieFullAddress = "fanbox_full_address"
	CookieDescription = "fanbox_description"
	CookieSchedule    = "fanbox_schedule"
)

// CookieMaxAge is refreshed on every selection.
const CookieMaxAge = 30 * 24 * time.Hour

// CookieNames lists every cookie of the record.
var CookieNames = []string{CookieName, CookieAddress, CookieFullAddress, CookieDescription, CookieSchedule}

// Jar is a raw name/value cookie store, a browser document or an HTTP exchange.
type Jar interface {
	Get(name string) (string, bool)
	Set(name, value string, maxAge time.Duration)
	Delete(name string)
}

// Encode percent-encodes a value the way encodeURIComponent does for the
// characters a locker payload can contain.
func Encode(v string) string {
	return strings.ReplaceAll(url.QueryEscape(v), "+", "%20")
}

// Decode reverses Encode. Values that are not valid escapes are returned as is.
func Decode(v string) string {
	out, err := url.PathUnescape(v)
	if err != nil {
		return v
	}
	return out
}

// Load reads the record from a jar.
func Load(j Jar) Record {
	get := func(name string) string {
		v, ok := j.Get(name)
		if !ok {
			return ""
		}
		return Decode(v)
	}
	return Record{
		Name:        get(CookieName),
		Address:     get(CookieAddress),
		FullAddress: get(CookieFullAddress),
		Description: get(CookieDescription),
		Schedule:    get(CookieSchedule),
	}
}

// Save writes the record. The address pair is always written so a previous
// locker's location cannot survive; the other cookies only when non-empty.
func Save(j Jar, r Record) {
	j.Set(CookieAddress, Encode(r.Address), CookieMaxAge)
	for _, c := range []struct{ name, value string }{
		{CookieName, r.Name},
		{CookieFullAddress, r.FullAddress},
		{CookieDescription, r.Description},
		{CookieSchedule, r.Schedule},
	} {
		if c.value != "" {
			j.Set(c.name, Encode(c.value), CookieMaxAge)
		}
	}
}

// Clear erases every cookie of the record.
func Clear(j Jar) {
	for _, name := range CookieNames {
		j.Delete(name)
	}
}

// HTTPJar reads cookies from a request and writes them to a response.
type HTTPJar struct {
	Request *http.Request
	Writer  http.ResponseWriter
	Now     func() time.Time
	Secure  bool
}

// Get implements Jar.
func (j HTTPJar) Get(name string) (string, bool) {
	if j.Request == nil {
		return "", false
	}
	c, err := j.Request.Cookie(name)
	if err != nil {
		return "", false
	}
	return c.Value, true
}

// Set implements Jar.
func (j HTTPJar) Set(name, value string, maxAge time.Duration) {
	now := time.Now
	if j.Now != nil {
		now = j.Now
	}
	http.SetCookie(j.Writer, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  now().Add(maxAge),
		MaxAge:   int(maxAge / time.Second),
		Secure:   j.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Delete implements Jar.
func (j HTTPJar) Delete(name string) {
	http.SetCookie(j.Writer, &http.Cookie{
		Name:    name,
		Value:   "",
		Path:    "/",
		Expires: time.Unix(0, 0),
		MaxAge:  -1,
	})
}
