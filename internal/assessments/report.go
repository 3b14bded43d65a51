package assessments

import (
	"bytes"
	"fmt"
	"time"
)

const reportContentType = "text/markdown; charset=utf-8"

// ReportKey is the object key of the archived report for an assessment.
func ReportKey(id string) string {
	return "reports/" + id + ".md"
}

// RenderReport formats an assessment as a standalone Markdown document.
func RenderReport(a Assessment) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "# ATS Resume Expert: %s\n\n", a.Variant.Label())
	fmt.Fprintf(&buf, "- Assessment: `%s`\n", a.ID)
	fmt.Fprintf(&buf, "- Model: `%s`\n", a.Model)
	fmt.Fprintf(&buf, "- Created: %s\n\n", a.CreatedAt.UTC().Format(time.RFC3339))
	buf.WriteString("## The Response is:\n\n")
	buf.WriteString(a.Response)
	if a.Response == "" || a.Response[len(a.Response)-1] != '\n' {
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}
