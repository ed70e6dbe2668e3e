package navigation

import (
	"errors"
	"testing"

	"github.com/HendryAvila/formnav/internal/formindex"
	"github.com/HendryAvila/formnav/internal/formtree"
	"github.com/google/go-cmp/cmp"
)

// --- Forward and backward stepping ---

func TestEngine_SingleFieldList(t *testing.T) {
	e := NewEngine(newTree(fieldList("g", q("only"))))

	s, err := e.StepForward()
	if err != nil {
		t.Fatal(err)
	}
	want := Screen{Kind: ScreenFieldList, Index: idx("0"), Questions: []formindex.Index{idx("0,0")}}
	if diff := cmp.Diff(want, s); diff != "" {
		t.Errorf("first screen mismatch (-want +got):\n%s", diff)
	}

	s, err = e.StepForward()
	if err != nil {
		t.Fatal(err)
	}
	if s.Kind != ScreenEnd || !e.AtEnd() {
		t.Errorf("second forward step = %s, want END", s)
	}

	s, err = e.StepBackward()
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(want, s); diff != "" {
		t.Errorf("backward from END mismatch (-want +got):\n%s", diff)
	}
}

func TestEngine_FieldListInsidePlainGroup(t *testing.T) {
	e := NewEngine(newTree(group("outer", fieldList("inner", q("only")))))

	got := walkForward(t, e)
	want := []string{"START", "0,0", "END"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("path mismatch (-want +got):\n%s", diff)
	}
}

func TestEngine_NestedPlainGroupsShowOneQuestionPerScreen(t *testing.T) {
	e := NewEngine(newTree(group("a", group("b", q("q0"), q("q1"), q("q2")))))

	got := walkForward(t, e)
	want := []string{"START", "0,0,0", "0,0,1", "0,0,2", "END"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("path mismatch (-want +got):\n%s", diff)
	}

	s, err := e.StepBackward()
	if err != nil {
		t.Fatal(err)
	}
	if s.Kind != ScreenQuestion || s.Index.String() != "0,0,2" {
		t.Errorf("StepBackward from END = %s, want question 0,0,2", s)
	}
}

func TestEngine_MixedFormForwardPath(t *testing.T) {
	e := NewEngine(mixedForm())

	got := walkForward(t, e)
	if diff := cmp.Diff(mixedForwardPath, got); diff != "" {
		t.Errorf("forward path mismatch (-want +got):\n%s", diff)
	}
}

func TestEngine_BackwardIsInverseOfForward(t *testing.T) {
	e := NewEngine(mixedForm())

	forward := walkForward(t, e)
	backward := walkBackward(t, e)
	if diff := cmp.Diff(forward, reversed(backward)); diff != "" {
		t.Errorf("backward walk is not the reverse of forward (-forward +reversed backward):\n%s", diff)
	}
}

func TestEngine_StepBackwardThenForwardReturns(t *testing.T) {
	e := NewEngine(mixedForm())

	for _, at := range mixedForwardPath[1 : len(mixedForwardPath)-1] {
		mustJump(t, e, at)
		if _, err := e.StepBackward(); err != nil {
			t.Fatalf("StepBackward from %s: %v", at, err)
		}
		s, err := e.StepForward()
		if err != nil {
			t.Fatalf("StepForward back to %s: %v", at, err)
		}
		if s.Index.String() != at {
			t.Errorf("back then forward from %s landed on %s", at, s.Index)
		}
	}
}

func TestEngine_FieldListIsLeftInOneStep(t *testing.T) {
	e := NewEngine(mixedForm())

	for !e.AtEnd() {
		before, err := e.CurrentScreen()
		if err != nil {
			t.Fatal(err)
		}
		after, err := e.StepForward()
		if err != nil {
			t.Fatal(err)
		}
		if before.Kind != ScreenFieldList {
			continue
		}
		for _, i := range after.Indices() {
			if before.Index.IsPrefixOf(i) {
				t.Errorf("step from field list %s stayed inside it at %s", before.Index, i)
			}
		}
	}
}

func TestEngine_BoundariesAreNoOps(t *testing.T) {
	obs := &recordingObserver{}
	e := NewEngine(mixedForm(), WithObserver(obs))

	s, err := e.StepBackward()
	if err != nil || s.Kind != ScreenStart || !e.AtStart() {
		t.Errorf("StepBackward at START = %s, %v; want START, nil", s, err)
	}

	mustJump(t, e, "END")
	obs.transitions = nil
	s, err = e.StepForward()
	if err != nil || s.Kind != ScreenEnd || !e.AtEnd() {
		t.Errorf("StepForward at END = %s, %v; want END, nil", s, err)
	}
	if len(obs.transitions) != 0 {
		t.Errorf("boundary step emitted %d transitions, want 0", len(obs.transitions))
	}
}

func TestEngine_EmptyForm(t *testing.T) {
	e := NewEngine(newTree())

	got := walkForward(t, e)
	if diff := cmp.Diff([]string{"START", "END"}, got); diff != "" {
		t.Errorf("path mismatch (-want +got):\n%s", diff)
	}
	s, err := e.StepBackward()
	if err != nil || s.Kind != ScreenStart {
		t.Errorf("StepBackward on empty form = %s, %v; want START", s, err)
	}
}

func TestEngine_OutermostPaginatedAncestorWins(t *testing.T) {
	e := NewEngine(newTree(fieldList("outer", q("a"), fieldList("inner", q("b")))))

	s := mustJump(t, e, "0,1,0")
	want := Screen{
		Kind:      ScreenFieldList,
		Index:     idx("0"),
		Questions: []formindex.Index{idx("0,0"), idx("0,1,0")},
	}
	if diff := cmp.Diff(want, s); diff != "" {
		t.Errorf("screen mismatch (-want +got):\n%s", diff)
	}
}

// --- Relevance ---

func TestEngine_RelevanceQueriedAtMostOncePerStep(t *testing.T) {
	model := newCountingModel(mixedForm())
	e := NewEngine(model)

	for !e.AtEnd() {
		model.reset()
		from := e.CurrentIndex()
		if _, err := e.StepForward(); err != nil {
			t.Fatal(err)
		}
		for key, n := range model.calls {
			if n > 1 {
				t.Errorf("step from %s queried IsRelevant(%s) %d times", from, key, n)
			}
		}
	}
	for !e.AtStart() {
		model.reset()
		from := e.CurrentIndex()
		if _, err := e.StepBackward(); err != nil {
			t.Fatal(err)
		}
		for key, n := range model.calls {
			if n > 1 {
				t.Errorf("step back from %s queried IsRelevant(%s) %d times", from, key, n)
			}
		}
	}
}

func TestEngine_RelevanceChangeBetweenSteps(t *testing.T) {
	tree := mixedForm()
	e := NewEngine(tree)
	mustJump(t, e, "1,0")

	if err := tree.SetRelevant(idx("1,1"), false); err != nil {
		t.Fatal(err)
	}
	s, err := e.StepForward()
	if err != nil {
		t.Fatal(err)
	}
	if s.Index.String() != "2_0,0" {
		t.Errorf("StepForward after hiding 1,1 = %s, want 2_0,0", s.Index)
	}

	if err := tree.SetRelevant(idx("1,2"), true); err != nil {
		t.Fatal(err)
	}
	s, err = e.StepBackward()
	if err != nil {
		t.Fatal(err)
	}
	if s.Index.String() != "1,2" {
		t.Errorf("StepBackward after showing 1,2 = %s, want 1,2", s.Index)
	}
}

func TestEngine_CurrentScreenMovesForwardWhenCurrentBecomesIrrelevant(t *testing.T) {
	tree := mixedForm()
	obs := &recordingObserver{}
	e := NewEngine(tree, WithObserver(obs))
	mustJump(t, e, "1,0")
	obs.transitions = nil

	if err := tree.SetRelevant(idx("1,0"), false); err != nil {
		t.Fatal(err)
	}
	s, err := e.CurrentScreen()
	if err != nil {
		t.Fatal(err)
	}
	if s.Kind != ScreenFieldList || s.Index.String() != "1,1" {
		t.Errorf("CurrentScreen = %s, want field list 1,1", s)
	}
	if e.CurrentIndex().String() != "1,1" {
		t.Errorf("CurrentIndex = %s, want 1,1", e.CurrentIndex())
	}
	if len(obs.transitions) != 0 {
		t.Errorf("CurrentScreen emitted %d transitions, want 0", len(obs.transitions))
	}
}

func TestEngine_RepeatInstanceRelevance(t *testing.T) {
	tree := mixedForm()
	e := NewEngine(tree)
	mustJump(t, e, "1,1")

	if err := tree.SetRelevant(idx("2_0"), false); err != nil {
		t.Fatal(err)
	}
	s, err := e.StepForward()
	if err != nil {
		t.Fatal(err)
	}
	if s.Index.String() != "2_1,0" {
		t.Errorf("StepForward past hidden instance = %s, want 2_1,0", s.Index)
	}
}

func TestEngine_HiddenAncestorOfCurrentPosition(t *testing.T) {
	tests := []struct {
		name string
		at   string
		hide string
		op   func(*Engine) (Screen, error)
		want string
	}{
		{"current screen leaves hidden group", "1,0", "1", (*Engine).CurrentScreen, "2_0,0"},
		{"step forward leaves hidden group", "1,0", "1", (*Engine).StepForward, "2_0,0"},
		{"step forward from field list in hidden group", "1,1", "1", (*Engine).StepForward, "2_0,0"},
		{"step backward from field list in hidden group", "1,1", "1", (*Engine).StepBackward, "0"},
		{"current screen leaves hidden instance", "2_0,0", "2_0", (*Engine).CurrentScreen, "2_1,0"},
		{"step forward leaves hidden instance", "2_0,0", "2_0", (*Engine).StepForward, "2_1,0"},
		{"step backward leaves hidden instance", "2_0,1", "2_0", (*Engine).StepBackward, "1,1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree := mixedForm()
			e := NewEngine(tree)
			mustJump(t, e, tt.at)
			if err := tree.SetRelevant(idx(tt.hide), false); err != nil {
				t.Fatal(err)
			}

			s, err := tt.op(e)
			if err != nil {
				t.Fatal(err)
			}
			if s.Index.String() != tt.want {
				t.Errorf("screen = %s, want %s", s, tt.want)
			}
			// The held position must stay reachable.
			if _, err := e.JumpTo(e.CurrentIndex()); err != nil {
				t.Errorf("JumpTo(CurrentIndex()) = %v", err)
			}
		})
	}
}

// --- Jumping ---

func TestEngine_JumpTo(t *testing.T) {
	tests := []struct {
		name     string
		target   string
		wantKind ScreenKind
		wantAt   string
	}{
		{"question", "0", ScreenQuestion, "0"},
		{"question inside field list", "1,1,1,0", ScreenFieldList, "1,1"},
		{"plain group", "1", ScreenQuestion, "1,0"},
		{"repeat instance", "2_1", ScreenQuestion, "2_1,0"},
		{"paginated repeat instance", "3_0", ScreenFieldList, "3_0"},
		{"prompt", "2_2", ScreenNewRepeatPrompt, "2_2"},
		{"folded prompt", "4,1_0", ScreenFieldList, "4"},
		{"end", "END", ScreenEnd, "END"},
		{"start", "START", ScreenStart, "START"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewEngine(mixedForm())
			s := mustJump(t, e, tt.target)
			if s.Kind != tt.wantKind || s.Index.String() != tt.wantAt {
				t.Errorf("JumpTo(%s) = %s, want %s at %s", tt.target, s, tt.wantKind, tt.wantAt)
			}
			if e.CurrentIndex().String() != tt.wantAt {
				t.Errorf("CurrentIndex = %s, want %s", e.CurrentIndex(), tt.wantAt)
			}
		})
	}
}

func TestEngine_JumpToUnreachable(t *testing.T) {
	tree := mixedForm()
	if err := tree.SetRelevant(idx("4"), false); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		target string
	}{
		{"irrelevant question", "1,2"},
		{"irrelevant ancestor", "4,0"},
		{"missing position", "9"},
		{"missing instance", "2_7"},
		{"multiplicity on group", "1_0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewEngine(tree)
			mustJump(t, e, "0")
			_, err := e.JumpTo(idx(tt.target))
			if !errors.Is(err, ErrUnreachableIndex) {
				t.Fatalf("JumpTo(%s) err = %v, want ErrUnreachableIndex", tt.target, err)
			}
			if e.CurrentIndex().String() != "0" {
				t.Errorf("failed jump moved current to %s", e.CurrentIndex())
			}
		})
	}
}

// --- Observer ---

func TestEngine_ObserverSeesEveryTransition(t *testing.T) {
	obs := &recordingObserver{}
	e := NewEngine(mixedForm(), WithObserver(obs))

	if _, err := e.StepForward(); err != nil {
		t.Fatal(err)
	}
	mustJump(t, e, "2_2")
	if _, err := e.PromptNewRepeat(); err != nil {
		t.Fatal(err)
	}
	if _, err := e.DeleteCurrentRepeat(); err != nil {
		t.Fatal(err)
	}
	if _, err := e.StepBackward(); err != nil {
		t.Fatal(err)
	}

	type summary struct{ Op, From, Target, To string }
	var got []summary
	for _, tr := range obs.transitions {
		got = append(got, summary{string(tr.Op), tr.From.String(), tr.Target.String(), tr.Screen.Index.String()})
	}
	want := []summary{
		{"step-forward", "START", "START", "0"},
		{"jump", "0", "2_2", "2_2"},
		{"add-repeat", "2_2", "2_2", "2_2,0"},
		{"delete-repeat", "2_2,0", "2_2", "2_2"},
		{"step-backward", "2_2", "START", "2_1,1"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("transitions mismatch (-want +got):\n%s", diff)
	}
}

func TestEngine_SetObserverReplacesObserver(t *testing.T) {
	first, second := &recordingObserver{}, &recordingObserver{}
	e := NewEngine(mixedForm(), WithObserver(first))
	e.SetObserver(second)

	if _, err := e.StepForward(); err != nil {
		t.Fatal(err)
	}
	if len(first.transitions) != 0 || len(second.transitions) != 1 {
		t.Errorf("transitions: first=%d second=%d, want 0 and 1", len(first.transitions), len(second.transitions))
	}
}

// --- Inconsistent trees ---

// lyingModel reports a first child that skips a level.
type lyingModel struct{ formtree.Model }

func (m lyingModel) FirstChild(i formindex.Index) (formindex.Index, bool) {
	if i.IsStart() {
		return idx("0,0"), true
	}
	return m.Model.FirstChild(i)
}

// foreignSiblingModel reports a sibling under another parent.
type foreignSiblingModel struct{ formtree.Model }

func (m foreignSiblingModel) NextSibling(i formindex.Index) (formindex.Index, bool) {
	if i.String() == "1,0" {
		return idx("2,1"), true
	}
	return m.Model.NextSibling(i)
}

func TestEngine_InconsistentTree(t *testing.T) {
	t.Run("first child skips a level", func(t *testing.T) {
		e := NewEngine(lyingModel{mixedForm()})
		if _, err := e.StepForward(); !errors.Is(err, ErrInconsistentTree) {
			t.Errorf("StepForward err = %v, want ErrInconsistentTree", err)
		}
		if !e.AtStart() {
			t.Errorf("failed step moved current to %s", e.CurrentIndex())
		}
	})

	t.Run("sibling under another parent", func(t *testing.T) {
		e := NewEngine(foreignSiblingModel{mixedForm()})
		mustJump(t, e, "1,0")
		if _, err := e.StepForward(); !errors.Is(err, ErrInconsistentTree) {
			t.Errorf("StepForward err = %v, want ErrInconsistentTree", err)
		}
	})
}
