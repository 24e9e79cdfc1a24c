/*
Glossa is an interactive command-line front end for the grammar engine:
it loads a grammar source file and lets a user parse, generate, and
correct utterances against it, either one-shot from flags or in a
readline-backed repl.

Usage:

	glossa [flags] parse INPUT
	glossa [flags] generate TARGET
	glossa [flags] correct INPUT
	glossa [flags] repl

The flags are:

	-v, --version
		Give the current version of glossa and then exit.

	-g, --grammar FILE
		Load the grammar source from FILE. Defaults to "grammar.gls" in the
		current working directory.

	-p, --payload NAME
		Select the payload type the loaded grammar's values are given in.
		One of "int", "str", or "expr". Defaults to "str".

	-s, --seed SEED
		Seed the random generator driving generate/correct. Defaults to a
		fixed seed for reproducible output; pass a different value for a
		different realization of the same target.

	-d, --direct
		Force reading repl input directly from stdin rather than through
		GNU readline, even when stdin is a tty.

	--dump FILE
		After running, write a rezi-encoded snapshot of the result to FILE.

	-c, --config FILE
		Load default --grammar/--payload/--seed values from the given TOML
		file, if it exists. Explicit flags always take precedence. Defaults
		to "glossarc.toml" in the current working directory.

Once a session has started, "parse"/"generate"/"correct" run once and
exit; "repl" reads one line at a time and parses each one, until end of
input or the "QUIT" command.
*/
package main

import (
	"fmt"
	"io"
	"math/rand"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/pflag"

	"github.com/dekarrin/rezi"

	"github.com/dekarrin/glossa/core/correct"
	"github.com/dekarrin/glossa/core/deriv"
	"github.com/dekarrin/glossa/core/earley"
	"github.com/dekarrin/glossa/core/generate"
	"github.com/dekarrin/glossa/core/grammar"
	corepayload "github.com/dekarrin/glossa/core/payload"
	"github.com/dekarrin/glossa/internal/grammarsrc"
	"github.com/dekarrin/glossa/internal/lexicon"
	pl "github.com/dekarrin/glossa/internal/payload"
	"github.com/dekarrin/glossa/internal/payload/cached"
	"github.com/dekarrin/glossa/internal/replio"
	"github.com/dekarrin/glossa/internal/version"
)

const (
	// ExitSuccess indicates a successful program execution.
	ExitSuccess = iota

	// ExitUsageError indicates a missing subcommand or an unsupported
	// --payload value.
	ExitUsageError

	// ExitInitError indicates an unsuccessful program execution because
	// the config file or the grammar file could not be read.
	ExitInitError

	// ExitRunError indicates a failure once the session runs: compiling
	// the grammar source, an unknown subcommand or missing argument, or
	// parsing, generating, or correcting.
	ExitRunError
)

var (
	returnCode  = ExitSuccess
	flagVersion = pflag.BoolP("version", "v", false, "Gives the version info")
	flagGrammar = pflag.StringP("grammar", "g", "grammar.gls", "The grammar source file to load")
	flagPayload = pflag.StringP("payload", "p", "str", `Payload type: "int", "str", or "expr"`)
	flagSeed    = pflag.Int64P("seed", "s", 1, "Seed for the random generator used by generate/correct")
	flagDirect  = pflag.BoolP("direct", "d", false, "Force reading repl input directly from stdin")
	flagDump    = pflag.String("dump", "", "Write a rezi-encoded snapshot of the result to the given file")
	flagConfig  = pflag.StringP("config", "c", "glossarc.toml", "Load default grammar/payload/seed settings from the given TOML file, if it exists")
)

// rcConfig is the shape of a glossarc.toml: defaults for the flags a user
// would otherwise have to repeat on every invocation, in the same vein as
// the engine's own TOML-based world manifests. Explicit flags always win
// over a loaded config value.
type rcConfig struct {
	Grammar string `toml:"grammar"`
	Payload string `toml:"payload"`
	Seed    int64  `toml:"seed"`
}

// loadConfig reads path if it exists, applying its values as new flag
// defaults wherever the corresponding flag wasn't explicitly given. A
// missing config file is not an error; only a malformed one is.
func loadConfig(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}

	var rc rcConfig
	if _, err := toml.Decode(string(data), &rc); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}

	if rc.Grammar != "" && !pflag.Lookup("grammar").Changed {
		*flagGrammar = rc.Grammar
	}
	if rc.Payload != "" && !pflag.Lookup("payload").Changed {
		*flagPayload = rc.Payload
	}
	if rc.Seed != 0 && !pflag.Lookup("seed").Changed {
		*flagSeed = rc.Seed
	}
	return nil
}

// dumpSnapshot is what --dump writes: a flat, rezi-serializable summary
// of a run, not the derivation tree itself. core/deriv.Derivation is
// generic over an arbitrary payload value T (including *internal/
// payload.Node for the expr payload), which rezi's reflection-based
// encoding has no way to walk generically; the stringified forms below
// are what every payload type already knows how to produce.
type dumpSnapshot struct {
	Subcommand string
	Input      string
	Value      string
	Tree       string
}

func main() {
	defer func() {
		if panicErr := recover(); panicErr != nil {
			// make sure we dont lose the panic just because we checked
			panic(fmt.Sprintf("unrecoverable panic occurred: %v", panicErr))
		} else {
			os.Exit(returnCode)
		}
	}()

	pflag.Parse()

	if *flagVersion {
		fmt.Printf("%s\n", version.Current)
		return
	}

	if err := loadConfig(*flagConfig); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
		returnCode = ExitInitError
		return
	}

	args := pflag.Args()
	if len(args) < 1 {
		fmt.Fprintf(os.Stderr, "Missing subcommand: parse, generate, correct, or repl\nDo -h for help.\n")
		returnCode = ExitUsageError
		return
	}
	sub := strings.ToLower(args[0])
	rest := args[1:]

	src, err := os.ReadFile(*flagGrammar)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: could not read grammar file: %s\n", err.Error())
		returnCode = ExitInitError
		return
	}

	switch strings.ToLower(*flagPayload) {
	case "int":
		err = runSession(string(src), pl.Int{}, sub, rest)
	case "str":
		err = runSession(string(src), pl.Str{}, sub, rest)
	case "expr":
		// *payload.Node is a pointer: generation/correction memoize on
		// value equality, so expr needs cached.Payload's Stringify-based
		// key instead of raw pointer identity.
		err = runSession(string(src), cached.Payload[*pl.Node]{P: pl.Expr{}}, sub, rest)
	default:
		fmt.Fprintf(os.Stderr, "ERROR: unsupported payload type: %q\n", *flagPayload)
		returnCode = ExitUsageError
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
		returnCode = ExitRunError
	}
}

// runSession loads src for payload type T, lexing one rune per token,
// and dispatches to sub.
func runSession[T comparable](src string, p corepayload.Payload[T], sub string, args []string) error {
	factory := func(string) (grammar.Lexer[T], error) {
		return lexicon.Chars[T]{P: p}, nil
	}
	g, err := grammarsrc.Load[T](src, p, factory)
	if err != nil {
		return fmt.Errorf("load grammar: %w", err)
	}
	g.Compile()

	sess := &session[T]{g: g, p: p, rng: rand.New(rand.NewSource(*flagSeed))}

	switch sub {
	case "parse":
		if len(args) < 1 {
			return fmt.Errorf("parse requires an INPUT argument")
		}
		return sess.runParse(strings.Join(args, " "))
	case "generate":
		if len(args) < 1 {
			return fmt.Errorf("generate requires a TARGET argument")
		}
		return sess.runGenerate(strings.Join(args, " "))
	case "correct":
		if len(args) < 1 {
			return fmt.Errorf("correct requires an INPUT argument")
		}
		return sess.runCorrect(strings.Join(args, " "))
	case "repl":
		return sess.runRepl()
	default:
		return fmt.Errorf("unknown subcommand %q", sub)
	}
}

type session[T comparable] struct {
	g   *grammar.Grammar[T]
	p   corepayload.Payload[T]
	rng *rand.Rand
}

func (sess *session[T]) runParse(input string) error {
	tree, err := earley.Parse(sess.g, input, earley.Options{})
	if err != nil {
		return fmt.Errorf("no parse: %w", err)
	}
	fmt.Printf("%s\n", sess.p.Stringify(tree.Value))
	fmt.Println(tree.String())
	return sess.dump("parse", input, sess.p.Stringify(tree.Value), tree.String())
}

func (sess *session[T]) runGenerate(target string) error {
	val, err := sess.p.Parse(target)
	if err != nil {
		return fmt.Errorf("target is not valid: %w", err)
	}
	gen := generate.New(sess.g, sess.p)
	tree, ok := gen.Generate(sess.rng, val)
	if !ok {
		return fmt.Errorf("no utterance realizes target %q", target)
	}
	text := renderText(tree)
	fmt.Println(text)
	return sess.dump("generate", target, text, tree.String())
}

func (sess *session[T]) runCorrect(input string) error {
	tree, err := earley.Parse(sess.g, input, earley.Options{})
	if err != nil {
		return fmt.Errorf("no parse: %w", err)
	}
	corrector := correct.New(sess.g, sess.p)
	fixed := corrector.Correct(sess.rng, tree)

	text := renderText(fixed.Tree)
	fmt.Println(text)
	for _, d := range fixed.Diff {
		if d.Wrong == nil {
			continue
		}
		fmt.Printf("corrected: %v\n", d.Wrong.Errors)
	}
	return sess.dump("correct", input, text, fixed.Tree.String())
}

func (sess *session[T]) runRepl() error {
	var reader interface {
		ReadLine() (string, error)
		Close() error
	}
	var err error
	if *flagDirect {
		reader = replio.NewDirectReader(os.Stdin)
	} else {
		reader, err = replio.NewInteractiveReader()
		if err != nil {
			return fmt.Errorf("start repl: %w", err)
		}
	}
	defer reader.Close()

	for {
		line, err := reader.ReadLine()
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
		if strings.EqualFold(line, "QUIT") {
			return nil
		}
		if runErr := sess.runParse(line); runErr != nil {
			fmt.Fprintf(os.Stderr, "ERROR: %s\n", runErr.Error())
		}
	}
}

func (sess *session[T]) dump(subcommand, input, value, tree string) error {
	if *flagDump == "" {
		return nil
	}
	snap := dumpSnapshot{Subcommand: subcommand, Input: input, Value: value, Tree: tree}
	data := rezi.EncBinary(snap)
	return os.WriteFile(*flagDump, data, 0644)
}

func renderText[T any](tree *deriv.Derivation[T]) string {
	var sb strings.Builder
	for i, m := range tree.Matches() {
		if i > 0 {
			sb.WriteString(" ")
		}
		sb.WriteString(m.Texts["default"])
	}
	return sb.String()
}
