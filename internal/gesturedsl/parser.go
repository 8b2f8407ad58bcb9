// Package gesturedsl parses gesture scripts that synthesize pointer input, e.g.
//
//	down 7 100 200 stylus
//	wait 16ms
//	move 7 105 202; up 7
package gesturedsl

import (
	"fmt"
	"time"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

var (
	ruleComment    = lexer.SimpleRule{Name: "Comment", Pattern: `#[^\n]*`}
	ruleDuration   = lexer.SimpleRule{Name: "Duration", Pattern: `\d+(\.\d+)?(ns|us|µs|ms|s|m|h)`}
	ruleNumber     = lexer.SimpleRule{Name: "Number", Pattern: `[-+]?(\d*\.)?\d+`}
	ruleIdent      = lexer.SimpleRule{Name: "Ident", Pattern: `[a-z][\w\d]*`}
	ruleSep        = lexer.SimpleRule{Name: "Sep", Pattern: `[;\n]`}
	ruleWhitespace = lexer.SimpleRule{Name: "Whitespace", Pattern: `[ \t\r]+`}
)

var scriptLexer = lexer.MustSimple([]lexer.SimpleRule{
	ruleComment,
	ruleDuration,
	ruleNumber,
	ruleIdent,
	ruleSep,
	ruleWhitespace,
})

var scriptParser = participle.MustBuild[Script](
	participle.Lexer(scriptLexer),
	participle.UseLookahead(2),
	participle.Elide(ruleComment.Name, ruleWhitespace.Name),
)

type Script struct {
	Steps []*Step `parser:"Sep* (@@ Sep*)*" json:"steps"`
}

type Step struct {
	Action  string    `parser:"  @('down' | 'move' | 'up' | 'cancel')" json:"action,omitempty"`
	Contact *Contact  `parser:"  @@" json:"contact,omitempty"`
	Wait    *Duration `parser:"| 'wait' @Duration" json:"wait,omitempty"`
}

type Contact struct {
	ID   int      `parser:"@Number" json:"id"`
	X    *float64 `parser:"(@Number" json:"x,omitempty"`
	Y    *float64 `parser:" @Number)?" json:"y,omitempty"`
	Tool string   `parser:"@Ident?" json:"tool,omitempty"`
}

type Duration time.Duration

func (d *Duration) Capture(values []string) error {
	v, err := time.ParseDuration(values[0])
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", values[0], err)
	}
	*d = Duration(v)
	return nil
}

func Parse(script string) (*Script, error) {
	result, err := scriptParser.ParseString("", script)
	if err != nil {
		return nil, fmt.Errorf("failed to parse gesture script: %w", err)
	}
	return result, nil
}
