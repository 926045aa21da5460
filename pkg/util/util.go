package util

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/xplshn/impc/pkg/config"
	"github.com/xplshn/impc/pkg/token"
)

// SourceFileRecord tracks the name and content of a single source file.
type SourceFileRecord struct {
	Name    string
	Content []rune
}

// Diagnostic is a fatal error as it was reported to the user.
type Diagnostic struct {
	File    string
	Line    int
	Column  int
	Message string
}

func (d *Diagnostic) Error() string {
	return fmt.Sprintf("%s:%d:%d: %s", d.File, d.Line, d.Column, d.Message)
}

// Reporter prints diagnostics against the registered source files. Every fatal
// error funnels through Abort, so a caller can swap process exit for something else.
type Reporter struct {
	cfg   *config.Config
	files []SourceFileRecord
	Out   io.Writer
	Abort func(*Diagnostic)
	color bool
}

func NewReporter(cfg *config.Config) *Reporter {
	return &Reporter{
		cfg:   cfg,
		Out:   os.Stderr,
		Abort: func(*Diagnostic) { os.Exit(1) },
		color: cfg.Color,
	}
}

// AddFile registers a source file and returns the index tokens should carry.
func (r *Reporter) AddFile(name string, content []rune) int {
	r.files = append(r.files, SourceFileRecord{Name: name, Content: content})
	return len(r.files) - 1
}

// FileName returns the name registered under index, or "unknown".
func (r *Reporter) FileName(index int) string {
	if index < 0 || index >= len(r.files) {
		return "unknown"
	}
	return r.files[index].Name
}

func (r *Reporter) paint(code, s string) string {
	if !r.color {
		return s
	}
	return "\033[" + code + "m" + s + "\033[0m"
}

// printErrorLine prints the source line and a caret indicating the error position
func (r *Reporter) printErrorLine(tok token.Token) {
	if tok.FileIndex < 0 || tok.FileIndex >= len(r.files) || tok.Line == 0 {
		return
	}

	content := r.files[tok.FileIndex].Content
	lineNum := tok.Line
	lineStart := 0
	for i, c := range content {
		if lineNum <= 1 {
			break
		}
		if c == '\n' {
			lineNum--
			lineStart = i + 1
		}
	}

	lineEnd := len(content)
	for i := lineStart; i < len(content); i++ {
		if content[i] == '\n' {
			lineEnd = i
			break
		}
	}

	fmt.Fprintf(r.Out, "  %s\n", string(content[lineStart:lineEnd]))

	col := tok.Column
	if col < 1 {
		col = 1
	}
	caret := "^"
	if tok.Len > 1 {
		caret += strings.Repeat("~", tok.Len-1)
	}
	fmt.Fprintf(r.Out, "  %s%s\n", strings.Repeat(" ", col-1), r.paint("32", caret))
}

// Error prints a formatted error message and aborts the compilation.
func (r *Reporter) Error(tok token.Token, format string, args ...interface{}) {
	d := &Diagnostic{
		File:    r.FileName(tok.FileIndex),
		Line:    tok.Line,
		Column:  tok.Column,
		Message: fmt.Sprintf(format, args...),
	}
	fmt.Fprintf(r.Out, "%s:%d:%d: %s %s\n", d.File, d.Line, d.Column, r.paint("31", "error:"), d.Message)
	r.printErrorLine(tok)
	r.Abort(d)
	// Abort hooks must not return; keep the parser from running on broken state.
	panic(d)
}

// Warn prints a formatted warning message if the corresponding warning is enabled
func (r *Reporter) Warn(wt config.Warning, tok token.Token, format string, args ...interface{}) {
	if !r.cfg.IsWarningEnabled(wt) {
		return
	}
	fmt.Fprintf(r.Out, "%s:%d:%d: %s ", r.FileName(tok.FileIndex), tok.Line, tok.Column, r.paint("33", "warning:"))
	fmt.Fprintf(r.Out, format, args...)
	fmt.Fprintf(r.Out, " [-W%s]\n", r.cfg.Warnings[wt].Name)
	r.printErrorLine(tok)
}

// Trap runs fn with an Abort hook that unwinds instead of exiting and
// returns the fatal diagnostic, if any.
func (r *Reporter) Trap(fn func()) (diag *Diagnostic) {
	prev := r.Abort
	r.Abort = func(d *Diagnostic) { panic(d) }
	defer func() {
		r.Abort = prev
		if rec := recover(); rec != nil {
			d, ok := rec.(*Diagnostic)
			if !ok {
				panic(rec)
			}
			diag = d
		}
	}()
	fn()
	return nil
}
