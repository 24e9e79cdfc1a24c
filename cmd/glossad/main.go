/*
Glossad starts a glossa grammar server and begins listening for HTTP
requests.

Usage:

	glossad [flags] --grammar FILE
	glossad [flags] -l [[ADDRESS]:PORT] --grammar FILE

Once started, glossad loads the grammar source named by --grammar,
compiles it for the payload type named by --payload, and serves
POST /api/v1/parse, /api/v1/generate, and /api/v1/correct over HTTP. By
default it listens on localhost:8080; this can be changed with the
--listen/-l flag or the GLOSSAD_LISTEN_ADDRESS environment variable.

The flags are:

	-v, --version
		Give the current version of glossad and then exit.

	-l, --listen LISTEN_ADDRESS
		Listen on the given address. Must be in BIND_ADDRESS:PORT or :PORT
		format. If not given, defaults to the value of environment variable
		GLOSSAD_LISTEN_ADDRESS, and if that is not given, to localhost:8080.

	-g, --grammar FILE
		Load the grammar source from FILE. Required.

	-p, --payload NAME
		Select the payload type the loaded grammar's values are given in.
		One of "int", "str", or "expr". Defaults to "str".
*/
package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/pflag"

	"github.com/dekarrin/glossa/core/grammar"
	"github.com/dekarrin/glossa/core/payload"
	"github.com/dekarrin/glossa/internal/grammarsrc"
	"github.com/dekarrin/glossa/internal/httpapi"
	"github.com/dekarrin/glossa/internal/lexicon"
	pl "github.com/dekarrin/glossa/internal/payload"
	"github.com/dekarrin/glossa/internal/payload/cached"
	"github.com/dekarrin/glossa/internal/version"
)

const (
	EnvListen = "GLOSSAD_LISTEN_ADDRESS"
)

var (
	flagVersion = pflag.BoolP("version", "v", false, "Give the current version of glossad and then exit.")
	flagListen  = pflag.StringP("listen", "l", "", "Listen on the given address.")
	flagGrammar = pflag.StringP("grammar", "g", "", "Load the grammar source from the given file.")
	flagPayload = pflag.StringP("payload", "p", "str", `Payload type: "int", "str", or "expr".`)
)

func main() {
	pflag.Parse()

	if *flagVersion {
		fmt.Printf("%s (glossa v%s)\n", version.ServerCurrent, version.Current)
		return
	}

	if len(pflag.Args()) > 0 {
		fmt.Fprintf(os.Stderr, "Too many arguments\nDo -h for help.\n")
		os.Exit(1)
	}

	if *flagGrammar == "" {
		fmt.Fprintf(os.Stderr, "--grammar is required\nDo -h for help.\n")
		os.Exit(1)
	}

	addr, port := resolveListenAddr()

	src, err := os.ReadFile(*flagGrammar)
	if err != nil {
		log.Fatalf("FATAL could not read grammar file: %s", err.Error())
	}

	var router http.Handler
	switch strings.ToLower(*flagPayload) {
	case "int":
		router, err = buildRouter(string(src), pl.Int{})
	case "str":
		router, err = buildRouter(string(src), pl.Str{})
	case "expr":
		// Expr's T is *payload.Node, a pointer: two structurally-equal
		// expressions built by separate Merge calls are different
		// allocations, so the memoization generate/correct rely on
		// needs a canonicalized key. cached.Payload supplies that,
		// keying on Stringify rather than pointer identity.
		router, err = buildRouter(string(src), cached.Payload[*pl.Node]{P: pl.Expr{}})
	default:
		fmt.Fprintf(os.Stderr, "unsupported payload type: %q\nDo -h for help.\n", *flagPayload)
		os.Exit(1)
		return
	}
	if err != nil {
		log.Fatalf("FATAL could not load grammar: %s", err.Error())
	}

	listenAddr := fmt.Sprintf("%s:%d", addr, port)
	log.Printf("INFO  Starting glossad %s on %s...", version.ServerCurrent, listenAddr)
	if err := http.ListenAndServe(listenAddr, router); err != nil {
		log.Fatalf("FATAL server exited: %s", err.Error())
	}
}

// buildRouter compiles src for payload type T, lexing with a one-rune-per-
// token lexicon, and returns the resulting HTTP router. Chars is the
// simplest grammar.Lexer the core engine has, and is enough to cover any
// grammar whose terminals are literal characters or catch-all runes; a
// deployment needing a closed word vocabulary instead builds its own
// lexicon.Words-based factory and calls httpapi.New directly rather than
// going through glossad.
func buildRouter[T comparable](src string, p payload.Payload[T]) (http.Handler, error) {
	factory := func(string) (grammar.Lexer[T], error) {
		return lexicon.Chars[T]{P: p}, nil
	}

	g, err := grammarsrc.Load[T](src, p, factory)
	if err != nil {
		return nil, err
	}
	g.Compile()

	api := httpapi.New[T](g, p)
	return api.Router(), nil
}

func resolveListenAddr() (addr string, port int) {
	addr, port = "localhost", 8080

	listenAddr := os.Getenv(EnvListen)
	if pflag.Lookup("listen").Changed {
		listenAddr = *flagListen
	}
	if listenAddr == "" {
		return addr, port
	}

	bindParts := strings.SplitN(listenAddr, ":", 2)
	if len(bindParts) != 2 {
		fmt.Fprintf(os.Stderr, "Listen address is not in ADDRESS:PORT or :PORT format.\nDo -h for help.\n")
		os.Exit(1)
	}

	p, err := strconv.Atoi(bindParts[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "%q is not a valid port number.\nDo -h for help.\n", bindParts[1])
		os.Exit(1)
	}
	return bindParts[0], p
}
