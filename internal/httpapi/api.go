// Package httpapi exposes a compiled grammar over HTTP: parse, generate,
// and correct as three stateless JSON endpoints, modelled on the shape of
// the TunaQuest server's server/api package (an EndpointFunc wrapper that
// turns a request into a result.Result, panic recovery, and per-request
// logging) scaled down to a grammar engine with no accounts or sessions to
// guard.
package httpapi

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"runtime/debug"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/dekarrin/glossa/core/correct"
	"github.com/dekarrin/glossa/core/deriv"
	"github.com/dekarrin/glossa/core/earley"
	"github.com/dekarrin/glossa/core/generate"
	"github.com/dekarrin/glossa/core/grammar"
	corepayload "github.com/dekarrin/glossa/core/payload"
	"github.com/dekarrin/glossa/internal/httpapi/result"
)

// PathPrefix is the prefix every glossa HTTP endpoint is mounted under.
const PathPrefix = "/api/v1"

// API serves a single compiled grammar over HTTP. T is fixed at startup by
// whichever payload cmd/glossad was configured with (Int, Str, or Expr);
// the three endpoints below are generic over it but a given running server
// only ever instantiates one. T must be comparable, same as generate.New
// and correct.New require, since generation memoizes on (term, value)
// keys.
type API[T comparable] struct {
	Grammar *grammar.Grammar[T]
	Payload corepayload.Payload[T]
	Opts    earley.Options
}

// New builds an API serving g with payload semantics p. g must already be
// Compiled.
func New[T comparable](g *grammar.Grammar[T], p corepayload.Payload[T]) *API[T] {
	return &API[T]{Grammar: g, Payload: p}
}

// Router mounts parse/generate/correct under PathPrefix, with a
// request-ID and panic-recovery middleware chain wrapping every call.
func (a *API[T]) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Route(PathPrefix, func(r chi.Router) {
		r.Post("/parse", a.httpEndpoint(a.handleParse))
		r.Post("/generate", a.httpEndpoint(a.handleGenerate))
		r.Post("/correct", a.httpEndpoint(a.handleCorrect))
	})
	return r
}

type endpointFunc func(req *http.Request) result.Result

// httpEndpoint wraps ep with panic recovery and logging, tagging the log
// line with chi's request ID so client and server logs correlate the same
// way server/api.go's did with its own uuid-based correlation.
func (a *API[T]) httpEndpoint(ep endpointFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		reqID := chimw.GetReqID(req.Context())
		if reqID == "" {
			reqID = uuid.NewString()
		}
		defer func() {
			if panicErr := recover(); panicErr != nil {
				r := result.InternalServerError("panic: %v\n%s", panicErr, debug.Stack())
				r.WriteResponse(w)
				r.Log(reqID, req)
			}
		}()

		r := ep(req)
		r.WriteResponse(w)
		r.Log(reqID, req)
	}
}

func decodeJSON(req *http.Request, v interface{}) error {
	dec := json.NewDecoder(req.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// ParseRequest is the body of POST /parse.
type ParseRequest struct {
	Input string `json:"input"`
}

// ParseResponse is the body of a successful POST /parse.
type ParseResponse struct {
	Value string `json:"value"`
	Tree  string `json:"tree"`
}

func (a *API[T]) handleParse(req *http.Request) result.Result {
	var body ParseRequest
	if err := decodeJSON(req, &body); err != nil {
		return result.BadRequest("request body is not valid JSON", "%s", err.Error())
	}

	tree, err := earley.Parse(a.Grammar, body.Input, a.Opts)
	if err != nil {
		return result.BadRequest(err.Error(), "no parse: %s", err.Error())
	}

	return result.OK(ParseResponse{
		Value: a.Payload.Stringify(tree.Value),
		Tree:  tree.String(),
	})
}

// GenerateRequest is the body of POST /generate.
type GenerateRequest struct {
	// Target is the semantic value to generate an utterance for, in the
	// payload's own Parse syntax.
	Target string `json:"target"`
	// Seed drives the generator's random choices; the same seed and
	// grammar always produce the same utterance.
	Seed int64 `json:"seed"`
}

// GenerateResponse is the body of a successful POST /generate.
type GenerateResponse struct {
	Text string `json:"text"`
}

func (a *API[T]) handleGenerate(req *http.Request) result.Result {
	var body GenerateRequest
	if err := decodeJSON(req, &body); err != nil {
		return result.BadRequest("request body is not valid JSON", "%s", err.Error())
	}

	target, err := a.Payload.Parse(body.Target)
	if err != nil {
		return result.BadRequest(fmt.Sprintf("target is not valid: %s", err.Error()), "%s", err.Error())
	}

	gen := generate.New(a.Grammar, a.Payload)
	rng := rand.New(rand.NewSource(body.Seed))
	tree, ok := gen.Generate(rng, target)
	if !ok {
		return result.BadRequest("no utterance realizes that target", "generate: unreachable target %q", body.Target)
	}

	return result.OK(GenerateResponse{Text: renderMatches(tree)})
}

// CorrectRequest is the body of POST /correct.
type CorrectRequest struct {
	Input string `json:"input"`
	Seed  int64  `json:"seed"`
}

// CorrectResponse is the body of a successful POST /correct.
type CorrectResponse struct {
	Text      string   `json:"text"`
	Corrected bool     `json:"corrected"`
	Changes   []string `json:"changes,omitempty"`
}

func (a *API[T]) handleCorrect(req *http.Request) result.Result {
	var body CorrectRequest
	if err := decodeJSON(req, &body); err != nil {
		return result.BadRequest("request body is not valid JSON", "%s", err.Error())
	}

	tree, err := earley.Parse(a.Grammar, body.Input, a.Opts)
	if err != nil {
		return result.BadRequest(err.Error(), "no parse: %s", err.Error())
	}

	corrector := correct.New(a.Grammar, a.Payload)
	rng := rand.New(rand.NewSource(body.Seed))
	fixed := corrector.Correct(rng, tree)

	changes := make([]string, 0, len(fixed.Diff))
	for _, d := range fixed.Diff {
		if d.Wrong == nil {
			continue
		}
		changes = append(changes, fmt.Sprintf("%v -> %v (%v)", d.Wrong.OldMatches, d.Wrong.NewMatches, d.Wrong.Errors))
	}

	return result.OK(CorrectResponse{
		Text:      renderMatches(fixed.Tree),
		Corrected: len(changes) > 0,
		Changes:   changes,
	})
}

func renderMatches[T any](tree *deriv.Derivation[T]) string {
	s := ""
	for i, m := range tree.Matches() {
		if i > 0 {
			s += " "
		}
		s += m.Texts["default"]
	}
	return s
}

