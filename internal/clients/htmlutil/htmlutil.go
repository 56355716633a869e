// Package htmlutil extracts the page title and a handful of meta tags the
// name-guess verifier uses as content-relevance evidence.
package htmlutil

import (
	"strings"

	"golang.org/x/net/html"
)

// Meta is the small set of head tags the verifiers care about.
type Meta struct {
	Title       string
	Description string
	OGTitle     string
	OGSiteName  string
}

// Parse walks the document tree looking for <title> and the description/
// og:title/og:site_name meta tags. It tolerates malformed markup the way
// browsers do, since name-guess candidates are arbitrary third-party pages.
func Parse(body string) Meta {
	var meta Meta
	doc, err := html.Parse(strings.NewReader(body))
	if err != nil {
		return meta
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "title":
				if n.FirstChild != nil && meta.Title == "" {
					meta.Title = strings.TrimSpace(n.FirstChild.Data)
				}
			case "meta":
				applyMetaTag(n, &meta)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return meta
}

func applyMetaTag(n *html.Node, meta *Meta) {
	var name, property, content string
	for _, a := range n.Attr {
		switch strings.ToLower(a.Key) {
		case "name":
			name = strings.ToLower(a.Val)
		case "property":
			property = strings.ToLower(a.Val)
		case "content":
			content = a.Val
		}
	}
	switch {
	case name == "description" && meta.Description == "":
		meta.Description = content
	case property == "og:title" && meta.OGTitle == "":
		meta.OGTitle = content
	case property == "og:site_name" && meta.OGSiteName == "":
		meta.OGSiteName = content
	}
}

// CheckText concatenates the title and meta fields with the first n bytes of
// body, lowercased, the window the content-relevance rules scan.
func CheckText(meta Meta, body string, n int) string {
	if n > len(body) {
		n = len(body)
	}
	parts := []string{meta.Title, meta.Description, meta.OGTitle, meta.OGSiteName, body[:n]}
	return strings.ToLower(strings.Join(parts, " "))
}
