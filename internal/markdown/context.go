package markdown

import "strings"

// BreadcrumbHeader opens the context block consumed by the model prompt.
const BreadcrumbHeader = "### DOCUMENT LOCATION BREADCRUMB\n"

// BuildContext renders the header stack as the compact continuity context
// for the next batch: the breadcrumb header followed by one line per open
// heading, indented two spaces per level below the root. This breadcrumb
// is the entire memory carried between batches; raw prior text is not
// included, which keeps the prompt size bounded regardless of document
// length.
func BuildContext(stack HeaderStack) string {
	var b strings.Builder
	b.WriteString(BreadcrumbHeader)
	for i, h := range stack {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(strings.Repeat("  ", h.Level-1))
		b.WriteString(h.Line)
	}
	return b.String()
}
