package earley

import (
	"fmt"
	"io"

	"github.com/dekarrin/rosed"

	"github.com/dekarrin/glossa/core/grammar"
)

// debugSink renders a human-readable trace of the chart as it's built,
// one table per column, for use with Options.Debug.
type debugSink struct {
	w io.Writer
}

// dumpColumn renders one column's states and scores as a table. It takes
// g and c as parameters (rather than closing over them) because
// debugSink itself must be non-generic to live as a field on chart[T].
func dumpColumn[T any](d *debugSink, g *grammar.Grammar[T], c *chart[T], col *column) {
	data := [][]string{{"rule", "cursor", "start", "score"}}
	for _, sid := range col.states {
		st := c.st(sid)
		r := g.Rules[st.ruleIdx]
		data = append(data, []string{
			fmt.Sprintf("%s -> %v", g.Name(r.LHS), r.RHS),
			fmt.Sprintf("%d", st.cursor),
			fmt.Sprintf("%d", st.start),
			fmt.Sprintf("%.3f", st.score),
		})
	}
	out := rosed.Edit(fmt.Sprintf("column %d", col.end)).
		InsertTableOpts(1, data, 100, rosed.Options{TableBorders: true}).
		String()
	fmt.Fprintln(d.w, out)
}
