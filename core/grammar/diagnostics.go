package grammar

import "fmt"

// DiagnosticKind classifies a grammar-load warning.
type DiagnosticKind int

const (
	// DeadEnd marks a symbol that can never derive a terminal string (it
	// only ever expands into itself or other dead-end symbols).
	DeadEnd DiagnosticKind = iota
	// Unreachable marks a symbol no rule and no path from Start ever
	// produces.
	Unreachable
	// UnknownTerminal marks a terminal no lexer entry point (Lex's
	// match-table keys, so far as load time can tell) is known to
	// produce, and that Unlex also never returns an entry for.
	UnknownTerminal
)

// Diagnostic is one grammar-load warning. Diagnostics are surfaced at
// load time only; they never occur during parse/generate/correct.
type Diagnostic struct {
	Kind   DiagnosticKind
	Symbol SymbolID
	Name   string
}

func (d Diagnostic) String() string {
	switch d.Kind {
	case DeadEnd:
		return fmt.Sprintf("dead-end symbol: %s never derives a terminal string", d.Name)
	case Unreachable:
		return fmt.Sprintf("unreachable symbol: %s is never derived from the start symbol", d.Name)
	case UnknownTerminal:
		return fmt.Sprintf("unknown terminal: %q is not produced or unlexed by the lexer", d.Name)
	default:
		return "unknown diagnostic"
	}
}

// Validate checks g for dead-end symbols, symbols unreachable from Start,
// and terminals the lexer can't produce via Unlex with T's zero value.
// Validate assumes Compile has already been called. It never errors; it
// only returns advisory diagnostics, per spec (grammar-load problems are
// surfaced once, here, not during parse/generate/correct).
func Validate[T any](g *Grammar[T]) []Diagnostic {
	var diags []Diagnostic

	derivesTerminal := computeDerivesTerminal(g)
	for sym := range g.Names {
		if !derivesTerminal[SymbolID(sym)] {
			diags = append(diags, Diagnostic{Kind: DeadEnd, Symbol: SymbolID(sym), Name: g.Name(SymbolID(sym))})
		}
	}

	reachable := computeReachable(g)
	for sym := range g.Names {
		if !reachable[SymbolID(sym)] {
			diags = append(diags, Diagnostic{Kind: Unreachable, Symbol: SymbolID(sym), Name: g.Name(SymbolID(sym))})
		}
	}

	for _, name := range unknownTerminals(g) {
		diags = append(diags, Diagnostic{Kind: UnknownTerminal, Name: name})
	}

	return diags
}

// computeDerivesTerminal does a least-fixpoint pass: a symbol derives a
// terminal string if any of its rules is all-terminal, or all-terminal-
// or-already-known-good.
func computeDerivesTerminal[T any](g *Grammar[T]) map[SymbolID]bool {
	good := make(map[SymbolID]bool, len(g.Names))
	changed := true
	for changed {
		changed = false
		for _, r := range g.Rules {
			if good[r.LHS] {
				continue
			}
			ok := true
			for _, term := range r.RHS {
				if term.IsSymbol() && !good[term.Symbol()] {
					ok = false
					break
				}
			}
			if ok {
				good[r.LHS] = true
				changed = true
			}
		}
	}
	// Rules with an empty RHS (epsilon productions) trivially derive the
	// empty terminal string.
	for _, r := range g.Rules {
		if len(r.RHS) == 0 {
			good[r.LHS] = true
		}
	}
	return good
}

func computeReachable[T any](g *Grammar[T]) map[SymbolID]bool {
	reachable := map[SymbolID]bool{g.Start: true}
	queue := []SymbolID{g.Start}
	for len(queue) > 0 {
		sym := queue[0]
		queue = queue[1:]
		for _, ri := range g.RulesFor(sym) {
			for _, term := range g.Rules[ri].RHS {
				if term.IsSymbol() && !reachable[term.Symbol()] {
					reachable[term.Symbol()] = true
					queue = append(queue, term.Symbol())
				}
			}
		}
	}
	return reachable
}

func unknownTerminals[T any](g *Grammar[T]) []string {
	seen := make(map[string]bool)
	var names []string
	var zero T
	for _, r := range g.Rules {
		for _, term := range r.RHS {
			if term.IsSymbol() {
				continue
			}
			name := term.Terminal()
			if seen[name] {
				continue
			}
			seen[name] = true
			if g.Lexer == nil || len(g.Lexer.Unlex(name, zero)) == 0 {
				names = append(names, name)
			}
		}
	}
	return names
}
