package annotation

import "strings"

// commentBlock is the decoration-stripped, non-blank content of one
// /* ... */ comment.
type commentBlock []string

// blockComments returns every block comment of src in source order. Line
// decoration (leading "*" and surrounding whitespace) is removed and blank
// lines are dropped. An unterminated comment runs to the end of src.
//
// String literals, template literals and line comments are skipped, so a
// "/*" inside '/files/*' or after "//" does not open a comment.
func blockComments(src string) []commentBlock {
	var blocks []commentBlock

	for i := 0; i < len(src); {
		switch {
		case src[i] == '\'' || src[i] == '"' || src[i] == '`':
			i = skipLiteral(src, i)
		case strings.HasPrefix(src[i:], "//"):
			end := strings.IndexByte(src[i:], '\n')
			if end < 0 {
				return blocks
			}
			i += end + 1
		case strings.HasPrefix(src[i:], "/*"):
			body := src[i+2:]
			if end := strings.Index(body, "*/"); end >= 0 {
				body = body[:end]
				i += end + 4
			} else {
				i = len(src)
			}

			if block := stripDecoration(body); len(block) > 0 {
				blocks = append(blocks, block)
			}
		default:
			i++
		}
	}

	return blocks
}

// skipLiteral returns the offset just past the quoted literal opening at
// src[i]. Backslash escapes are honoured. Quoted strings also stop at a line
// break, template literals only at their closing backtick or the end of src.
func skipLiteral(src string, i int) int {
	quote := src[i]
	for i++; i < len(src); i++ {
		switch src[i] {
		case '\\':
			i++
		case quote:
			return i + 1
		case '\n':
			if quote != '`' {
				return i + 1
			}
		}
	}
	return len(src)
}

func stripDecoration(body string) commentBlock {
	var block commentBlock
	for line := range strings.Lines(body) {
		line = strings.TrimSpace(line)
		line = strings.TrimSpace(strings.TrimLeft(line, "*"))
		if line != "" {
			block = append(block, line)
		}
	}
	return block
}
