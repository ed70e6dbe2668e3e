package navigation

import (
	"testing"

	"github.com/HendryAvila/formnav/internal/formdef"
	"github.com/HendryAvila/formnav/internal/formindex"
	"github.com/HendryAvila/formnav/internal/formtree"
	"github.com/HendryAvila/formnav/internal/instance"
)

var idx = formindex.MustParse

// --- Definition builders ---

func q(name string) formdef.Element {
	return formdef.Element{Name: name, Type: formdef.TypeQuestion}
}

func group(name string, kids ...formdef.Element) formdef.Element {
	return formdef.Element{Name: name, Type: formdef.TypeGroup, Children: kids}
}

func fieldList(name string, kids ...formdef.Element) formdef.Element {
	return formdef.Element{Name: name, Type: formdef.TypeGroup, FieldList: true, Children: kids}
}

func repeat(name string, count int, kids ...formdef.Element) formdef.Element {
	return formdef.Element{Name: name, Type: formdef.TypeRepeat, Count: count, Children: kids}
}

func irrelevant(e formdef.Element) formdef.Element {
	off := false
	e.Relevant = &off
	return e
}

func paginated(e formdef.Element) formdef.Element {
	e.FieldList = true
	return e
}

func newTree(kids ...formdef.Element) *instance.Tree {
	return instance.New(&formdef.Definition{ID: "fixture", Children: kids})
}

// mixedForm exercises every structural feature at once.
//
//	0        q
//	1        group
//	1,0        q
//	1,1        field list
//	1,1,0        q
//	1,1,1        group
//	1,1,1,0        q
//	1,2        q (irrelevant)
//	2_k      repeat, 2 instances of {a, b}, prompt 2_2
//	3_k      field-list repeat, 1 instance of {x, y}, prompt 3_1
//	4        field list
//	4,0        q
//	4,1_k      repeat, no instances, prompt 4,1_0
//	5        q
func mixedForm() *instance.Tree {
	return newTree(
		q("intro"),
		group("household",
			q("head"),
			fieldList("address",
				q("street"),
				group("extra", q("landmark")),
			),
			irrelevant(q("hidden")),
		),
		repeat("member", 2, q("a"), q("b")),
		paginated(repeat("plot", 1, q("x"), q("y"))),
		fieldList("assets",
			q("car"),
			repeat("animal", 0, q("z")),
		),
		q("closing"),
	)
}

// mixedForwardPath is the canonical index sequence from Start to End.
var mixedForwardPath = []string{
	"START",
	"0",
	"1,0",
	"1,1",
	"2_0,0",
	"2_0,1",
	"2_1,0",
	"2_1,1",
	"2_2",
	"3_0",
	"3_1",
	"4",
	"5",
	"END",
}

// --- Test doubles ---

// countingModel records IsRelevant calls per index.
type countingModel struct {
	formtree.Model
	calls map[string]int
}

func newCountingModel(m formtree.Model) *countingModel {
	return &countingModel{Model: m, calls: make(map[string]int)}
}

func (m *countingModel) IsRelevant(i formindex.Index) bool {
	m.calls[i.String()]++
	return m.Model.IsRelevant(i)
}

func (m *countingModel) reset() { m.calls = make(map[string]int) }

// recordingObserver keeps every transition.
type recordingObserver struct {
	transitions []Transition
}

func (r *recordingObserver) OnTransition(t Transition) {
	r.transitions = append(r.transitions, t)
}

// --- Helpers ---

func walkForward(t *testing.T, e *Engine) []string {
	t.Helper()
	path := []string{e.CurrentIndex().String()}
	for !e.AtEnd() {
		s, err := e.StepForward()
		if err != nil {
			t.Fatalf("StepForward from %s: %v", path[len(path)-1], err)
		}
		path = append(path, s.Index.String())
		if len(path) > 1000 {
			t.Fatal("forward walk does not terminate")
		}
	}
	return path
}

func walkBackward(t *testing.T, e *Engine) []string {
	t.Helper()
	path := []string{e.CurrentIndex().String()}
	for !e.AtStart() {
		s, err := e.StepBackward()
		if err != nil {
			t.Fatalf("StepBackward from %s: %v", path[len(path)-1], err)
		}
		path = append(path, s.Index.String())
		if len(path) > 1000 {
			t.Fatal("backward walk does not terminate")
		}
	}
	return path
}

func reversed(in []string) []string {
	out := make([]string, len(in))
	for n, s := range in {
		out[len(in)-1-n] = s
	}
	return out
}

func mustJump(t *testing.T, e *Engine, to string) Screen {
	t.Helper()
	s, err := e.JumpTo(idx(to))
	if err != nil {
		t.Fatalf("JumpTo(%s): %v", to, err)
	}
	return s
}
