package web

import (
	"bytes"
	"fmt"
	"html/template"
	"net/url"
	"strconv"
	"strings"

	"github.com/yuin/goldmark"
)

func urlencode(s string) (string, error) {
	return url.PathEscape(s), nil
}

// decimal formats a value given in tenths, e.g. a height in decimetres as metres.
func decimal(tenths int) string {
	return strconv.FormatFloat(float64(tenths)/10, 'f', 1, 64)
}

// percent returns v relative to max, clamped to [0, 100].
func percent(v, max int) int {
	if max <= 0 || v <= 0 {
		return 0
	}
	return min(100, v*100/max)
}

type NavBar []*NavBarItem

type NavBarItem struct {
	path   string
	Title  string
	Active bool
}

func (n *NavBarItem) URI() string {
	return n.path
}

func NavItem(path, title string) *NavBarItem {
	return &NavBarItem{
		path:  path,
		Title: title,
	}
}

func NewNavBar(items ...*NavBarItem) NavBar {
	return items
}

// SetActive marks the item whose path is activePath, or a prefix of it, as active.
func (ns NavBar) SetActive(activePath string) NavBar {
	activePath = strings.TrimSuffix(activePath, "/")
	for _, n := range ns {
		p := strings.TrimSuffix(n.path, "/")
		if activePath == p || strings.HasPrefix(activePath, p+"/") {
			n.Active = true
			break
		}
	}
	return ns
}

// pageURL returns u with its offset query parameter set to offset.
func pageURL(u *url.URL, offset int) string {
	v := *u
	q := v.Query()
	if offset > 0 {
		q.Set("offset", strconv.Itoa(offset))
	} else {
		q.Del("offset")
	}
	v.RawQuery = q.Encode()
	return v.RequestURI()
}

func markdown(input string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(input), &buf); err != nil {
		return "", fmt.Errorf("failed to process markdown: %v", err)
	}
	return template.HTML(buf.String()), nil
}
