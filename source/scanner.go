package source

import "strings"

// Scanner walks the non-blank lines of a source text. Tabs are removed and
// lines are trimmed before they are yielded.
type Scanner struct {
	lines []string
	pos   int
}

// NewScanner prepares text for scanning.
func NewScanner(text string) *Scanner {
	s := &Scanner{pos: -1}
	for line := range strings.Lines(text) {
		line = strings.TrimSpace(strings.ReplaceAll(line, "\t", ""))
		if line != "" {
			s.lines = append(s.lines, line)
		}
	}
	return s
}

// Scan advances to the next line. It returns false once the input is
// exhausted.
func (s *Scanner) Scan() bool {
	if s.pos+1 >= len(s.lines) {
		s.pos = len(s.lines)
		return false
	}
	s.pos++
	return true
}

// Text returns the current line.
func (s *Scanner) Text() string {
	if s.pos < 0 || s.pos >= len(s.lines) {
		return ""
	}
	return s.lines[s.pos]
}

// Prev returns the line before the current one, or "" on the first line.
func (s *Scanner) Prev() string {
	if s.pos <= 0 || s.pos > len(s.lines) {
		return ""
	}
	return s.lines[s.pos-1]
}

// isComment reports whether line is a comment line of any style.
func isComment(line string) bool {
	return strings.HasPrefix(line, "//") ||
		strings.HasPrefix(line, "/*") ||
		strings.HasPrefix(line, "*")
}
