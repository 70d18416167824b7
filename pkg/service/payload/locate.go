package payload

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// blockLanguage is the info string language of the fenced block carrying tickets
const blockLanguage = "json"

const fenceMarker = "```"

// Goldmark parsers keep no state between Parse calls.
var markdown = goldmark.New()

// Block is a fenced structured block found in assistant text
type Block struct {
	// Raw is the text between the fences
	Raw string
	// Start is the byte offset of the opening fence line
	Start int
	// End is the byte offset just past the closing fence line, or the end of
	// the text when the fence is never closed
	End int
}

// Locate returns the first fenced code block tagged as json. Later blocks are
// ignored. Fences that are not Markdown blocks, such as one written inline
// after prose or indented as code, are found by their delimiters instead.
func Locate(content string) (*Block, bool) {
	if block, ok := locateFenced(content); ok {
		return block, true
	}
	return locateDelimited(content)
}

// locateDelimited pairs the first "```json" with the next "```". A block
// without a closing fence is not reported.
func locateDelimited(content string) (*Block, bool) {
	open := strings.Index(content, fenceMarker+blockLanguage)
	if open < 0 {
		return nil, false
	}
	body := open + len(fenceMarker) + len(blockLanguage)
	closing := strings.Index(content[body:], fenceMarker)
	if closing < 0 {
		return nil, false
	}
	closing += body

	return &Block{
		Raw:   strings.TrimSpace(content[body:closing]),
		Start: open,
		End:   closing + len(fenceMarker),
	}, true
}

func locateFenced(content string) (*Block, bool) {
	source := []byte(content)
	document := markdown.Parser().Parse(text.NewReader(source))

	var found *ast.FencedCodeBlock
	_ = ast.Walk(document, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		fenced, ok := node.(*ast.FencedCodeBlock)
		if !ok {
			return ast.WalkContinue, nil
		}
		if !strings.EqualFold(string(fenced.Language(source)), blockLanguage) {
			return ast.WalkSkipChildren, nil
		}
		found = fenced
		return ast.WalkStop, nil
	})
	if found == nil || found.Info == nil {
		return nil, false
	}

	var raw strings.Builder
	lines := found.Lines()
	for i := 0; i < lines.Len(); i++ {
		segment := lines.At(i)
		raw.Write(segment.Value(source))
	}

	start := lineStart(source, found.Info.Segment.Start)
	contentEnd := lineEnd(source, found.Info.Segment.Stop)
	if lines.Len() > 0 {
		contentEnd = lines.At(lines.Len() - 1).Stop
	}

	return &Block{
		Raw:   raw.String(),
		Start: start,
		End:   closingFenceEnd(source, contentEnd),
	}, true
}

// lineStart returns the offset of the first byte of the line containing pos
func lineStart(source []byte, pos int) int {
	for pos > 0 && source[pos-1] != '\n' {
		pos--
	}
	return pos
}

// lineEnd returns the offset just past the newline terminating the line containing pos
func lineEnd(source []byte, pos int) int {
	for pos < len(source) && source[pos] != '\n' {
		pos++
	}
	if pos < len(source) {
		pos++
	}
	return pos
}

// closingFenceEnd returns the end of the closing fence line that starts at
// pos. An unclosed fence extends to the end of the source.
func closingFenceEnd(source []byte, pos int) int {
	if pos >= len(source) {
		return len(source)
	}
	end := lineEnd(source, pos)
	line := strings.TrimLeft(string(source[pos:end]), " \t")
	if strings.HasPrefix(line, fenceMarker) || strings.HasPrefix(line, "~~~") {
		return end
	}
	return len(source)
}
