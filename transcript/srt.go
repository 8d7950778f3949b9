package transcript

import "strings"

// ParseSRT extracts clean plain text from SRT subtitle content.
// Sequence numbers and timestamps are dropped, and consecutive lines that
// repeat (common in auto-generated rolling captions) are collapsed.
func ParseSRT(content string) string {
	var lines []string

	for _, block := range strings.Split(content, "\n\n") {
		blockLines := strings.Split(block, "\n")
		if len(blockLines) < 3 {
			continue
		}
		// Skip sequence number and timestamp, keep text lines.
		for i := 2; i < len(blockLines); i++ {
			if line := strings.TrimSpace(blockLines[i]); line != "" {
				lines = append(lines, line)
			}
		}
	}

	var b strings.Builder
	prev := ""
	for _, line := range lines {
		duplicate := prev != "" && (strings.Contains(line, prev) || strings.Contains(prev, line))
		if !duplicate {
			if b.Len() > 0 {
				b.WriteString("\n")
			}
			b.WriteString(line)
		}
		prev = line
	}
	return strings.TrimSpace(b.String())
}
