package htmlutil

import "testing"

func TestParseExtractsTitleAndMeta(t *testing.T) {
	body := `<html><head>
		<title>Acme Plumbing — Home</title>
		<meta name="description" content="Acme Plumbing serves the city">
		<meta property="og:title" content="Acme Plumbing">
	</head><body>hello</body></html>`

	meta := Parse(body)
	if meta.Title != "Acme Plumbing — Home" {
		t.Errorf("Title = %q", meta.Title)
	}
	if meta.Description != "Acme Plumbing serves the city" {
		t.Errorf("Description = %q", meta.Description)
	}
	if meta.OGTitle != "Acme Plumbing" {
		t.Errorf("OGTitle = %q", meta.OGTitle)
	}
}

func TestCheckTextConcatenatesLowercased(t *testing.T) {
	meta := Meta{Title: "ACME Plumbing"}
	text := CheckText(meta, "Welcome to ACME", 100)
	if text != "acme plumbing    welcome to acme" {
		t.Errorf("CheckText = %q", text)
	}
}
