// Package pagination holds the offset pagination arithmetic shared by all paged lists.
package pagination

import (
	"math"
	"net/http"
	"net/url"
	"strconv"
)

const DefaultSize = 10

type Page struct {
	Number int
	Size   int
}

// FromRequest reads the "page" query param. Missing, invalid or < 1 values mean page 1.
func FromRequest(r *http.Request, size int) Page {
	number, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil {
		number = 1
	}
	return New(number, size)
}

func New(number, size int) Page {
	if number < 1 {
		number = 1
	}
	if size < 1 {
		size = DefaultSize
	}
	// offsets stay within int32, past that every page is empty anyway
	if maxNumber := math.MaxInt32/size + 1; number > maxNumber {
		number = maxNumber
	}
	return Page{Number: number, Size: size}
}

func (p Page) Offset() int {
	return (p.Number - 1) * p.Size
}

func (p Page) Limit() int {
	return p.Size
}

// Result describes a fetched page together with the total row count,
// for rendering page controls.
type Result struct {
	Page
	Total int

	base url.URL
}

func NewResult(page Page, total int) Result {
	return Result{Page: page, Total: total, base: url.URL{Path: "/"}}
}

// WithBaseURL sets the URL page links are built from, keeping its other query params.
func (r Result) WithBaseURL(u *url.URL) Result {
	r.base = url.URL{Path: u.Path, RawQuery: u.RawQuery}
	return r
}

// Link returns the URL of page n.
func (r Result) Link(n int) string {
	u := r.base
	q := u.Query()
	q.Set("page", strconv.Itoa(n))
	u.RawQuery = q.Encode()
	return u.String()
}

func (r Result) Pages() int {
	if r.Total <= 0 {
		return 1
	}
	return (r.Total + r.Size - 1) / r.Size
}

func (r Result) HasPrev() bool {
	return r.Number > 1
}

func (r Result) HasNext() bool {
	return r.Number < r.Pages()
}

func (r Result) Prev() int {
	if !r.HasPrev() {
		return 1
	}
	return r.Number - 1
}

func (r Result) Next() int {
	if !r.HasNext() {
		return r.Number
	}
	return r.Number + 1
}
