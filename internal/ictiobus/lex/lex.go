package lex

import (
	"fmt"
	"io"
	"regexp"

	"github.com/dekarrin/glossa/internal/ictiobus/types"
)

type patAct struct {
	src string
	pat *regexp.Regexp
	act Action
}

type Lexer interface {
	// Lex returns a token stream, lexing lazily: tokens are produced on
	// demand as the stream is walked, with error token productions
	// returned to the stream's caller at the point where they occur
	// rather than failing the whole call up front.
	Lex(input io.Reader) (types.TokenStream, error)
	AddClass(cl types.TokenClass, forState string)
	AddPattern(pat string, action Action, forState string) error
	StartingState() string
}

type lexerTemplate struct {
	patterns   map[string][]patAct
	StartState string

	// classes by ID by state
	classes map[string]map[string]types.TokenClass
}

func (lx *lexerTemplate) Lex(input io.Reader) (types.TokenStream, error) {
	return lx.LazyLex(input)
}

func (lx *lexerTemplate) StartingState() string {
	return lx.StartState
}

func NewLexer() Lexer {
	return &lexerTemplate{
		patterns:   map[string][]patAct{},
		StartState: "",
		classes:    map[string]map[string]types.TokenClass{},
	}
}

// AddClass adds the given token class to the lexer. This will mark that token
// class as a lexable token class, and make it available for use in the Action
// of an AddPattern.
//
// If the given token class's ID() returns a string matching one already added,
// the provided one will replace the existing one.
func (lx *lexerTemplate) AddClass(cl types.TokenClass, forState string) {
	stateClasses, ok := lx.classes[forState]
	if !ok {
		stateClasses = map[string]types.TokenClass{}
	}

	stateClasses[cl.ID()] = cl
	lx.classes[forState] = stateClasses
}

func (lx *lexerTemplate) AddPattern(pat string, action Action, forState string) error {
	statePatterns, ok := lx.patterns[forState]
	if !ok {
		statePatterns = make([]patAct, 0)
	}
	stateClasses, ok := lx.classes[forState]
	if !ok {
		stateClasses = map[string]types.TokenClass{}
	}

	compiled, err := regexp.Compile(pat)
	if err != nil {
		return fmt.Errorf("cannot compile regex: %w", err)
	}

	if action.Type == ActionScan || action.Type == ActionScanAndState {
		// check class exists
		id := action.ClassID
		_, ok := stateClasses[id]
		if !ok {
			return fmt.Errorf("%q is not a defined token class on this lexer; add it with AddClass first", id)
		}
	}
	if action.Type == ActionState || action.Type == ActionScanAndState {
		if action.State == "" {
			return fmt.Errorf("action includes state shift but does not define state to shift to (cannot shift to empty state)")
		}
	}

	record := patAct{
		src: pat,
		pat: compiled,
		act: action,
	}
	statePatterns = append(statePatterns, record)

	lx.patterns[forState] = statePatterns
	// not modifying lx.classes so no need to set it again
	return nil
}
