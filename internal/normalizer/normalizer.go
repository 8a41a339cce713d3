// Package normalizer turns raw email bodies and transcribed documents into
// plain text suitable for classification and extraction.
package normalizer

import (
	"html"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	nethtml "golang.org/x/net/html"

	"itinera/internal/domain"
)

// Elements whose content is never visible to a reader.
const strippedSelector = "script, style, head, noscript, template, svg, iframe, object"

var blockElements = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true, "br": true,
	"dd": true, "div": true, "dl": true, "dt": true, "fieldset": true, "figcaption": true,
	"figure": true, "footer": true, "form": true, "h1": true, "h2": true, "h3": true,
	"h4": true, "h5": true, "h6": true, "header": true, "hr": true, "li": true,
	"main": true, "nav": true, "ol": true, "p": true, "pre": true, "section": true,
	"table": true, "tbody": true, "thead": true, "tfoot": true, "tr": true, "ul": true,
	"center": true,
}

var cellElements = map[string]bool{"td": true, "th": true}

var (
	tagPattern        = regexp.MustCompile(`(?s)<[^>]*>`)
	hiddenPattern     = regexp.MustCompile(`(?is)<(script|style|head|noscript|template|svg)[^>]*>.*?</(script|style|head|noscript|template|svg)>`)
	spaceRunPattern   = regexp.MustCompile(`[ \t\f\v\x{00a0}\x{200b}]+`)
	blankLinesPattern = regexp.MustCompile(`\n{3,}`)
)

// Normalize converts content of the given mime type into plain text. It never
// fails: HTML that cannot be parsed is reduced by tag stripping instead.
func Normalize(content, mimeType string) string {
	if content == "" {
		return ""
	}
	if mimeType == domain.MimeTextHTML || looksLikeHTML(content) && mimeType != domain.MimeTextPlain {
		return collapse(htmlToText(content))
	}
	return collapse(content)
}

// NormalizeDocument picks the populated text payload of doc and normalizes it
// under doc.MimeType. PDF sources must be transcribed first and yield "".
func NormalizeDocument(doc *domain.InboundDocument) string {
	switch {
	case doc.MimeType == domain.MimePDF:
		return ""
	case len(doc.SourceBytes) > 0:
		return Normalize(string(doc.SourceBytes), doc.MimeType)
	case doc.RawHTML != "":
		return Normalize(doc.RawHTML, domain.MimeTextHTML)
	case doc.MimeType != "":
		return Normalize(doc.RawText, doc.MimeType)
	default:
		return Normalize(doc.RawText, domain.MimeTextPlain)
	}
}

func looksLikeHTML(s string) bool {
	head := strings.ToLower(s)
	if len(head) > 1024 {
		head = head[:1024]
	}
	return strings.Contains(head, "<html") || strings.Contains(head, "<body") ||
		strings.Contains(head, "<div") || strings.Contains(head, "<table") ||
		strings.Contains(head, "<p>") || strings.Contains(head, "<br")
}

func htmlToText(raw string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return stripTags(raw)
	}
	doc.Find(strippedSelector).Remove()

	var sb strings.Builder
	for _, n := range doc.Selection.Nodes {
		walk(&sb, n)
	}
	return sb.String()
}

func walk(sb *strings.Builder, n *nethtml.Node) {
	switch n.Type {
	case nethtml.TextNode:
		sb.WriteString(n.Data)
		return
	case nethtml.CommentNode, nethtml.DoctypeNode:
		return
	}

	block := n.Type == nethtml.ElementNode && blockElements[n.Data]
	cell := n.Type == nethtml.ElementNode && cellElements[n.Data]
	if block {
		sb.WriteByte('\n')
	}
	if n.Type == nethtml.ElementNode && n.Data == "img" {
		for _, a := range n.Attr {
			if a.Key == "alt" && strings.TrimSpace(a.Val) != "" {
				sb.WriteString(a.Val)
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(sb, c)
	}
	switch {
	case block:
		sb.WriteByte('\n')
	case cell:
		sb.WriteByte(' ')
	}
}

// stripTags is the parser-free fallback.
func stripTags(raw string) string {
	out := hiddenPattern.ReplaceAllString(raw, " ")
	out = tagPattern.ReplaceAllString(out, " ")
	return html.UnescapeString(out)
}

func collapse(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")

	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(spaceRunPattern.ReplaceAllString(line, " "))
	}
	s = strings.Join(lines, "\n")
	s = blankLinesPattern.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
