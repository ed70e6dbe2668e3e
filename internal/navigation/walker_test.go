package navigation

import (
	"errors"
	"testing"

	"github.com/HendryAvila/formnav/internal/formindex"
	"github.com/google/go-cmp/cmp"
)

func TestNextLeaf_VisitsLeavesInDocumentOrder(t *testing.T) {
	tree := mixedForm()

	var got []string
	for i := formindex.Start; ; {
		next, err := NewWalker(tree).NextLeaf(i)
		if err != nil {
			t.Fatalf("NextLeaf(%s): %v", i, err)
		}
		if next.IsEnd() {
			break
		}
		got = append(got, next.String())
		i = next
	}

	want := []string{
		"0", "1,0", "1,1,0", "1,1,1,0",
		"2_0,0", "2_0,1", "2_1,0", "2_1,1", "2_2",
		"3_0,0", "3_0,1", "3_1",
		"4,0", "4,1_0",
		"5",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("leaf order mismatch (-want +got):\n%s", diff)
	}
}

func TestPreviousLeaf_MirrorsNextLeaf(t *testing.T) {
	tree := mixedForm()

	var got []string
	for i := formindex.End; ; {
		prev, err := NewWalker(tree).PreviousLeaf(i)
		if err != nil {
			t.Fatalf("PreviousLeaf(%s): %v", i, err)
		}
		if prev.IsStart() {
			break
		}
		got = append(got, prev.String())
		i = prev
	}

	want := []string{
		"5",
		"4,1_0", "4,0",
		"3_1", "3_0,1", "3_0,0",
		"2_2", "2_1,1", "2_1,0", "2_0,1", "2_0,0",
		"1,1,1,0", "1,1,0", "1,0", "0",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("reverse leaf order mismatch (-want +got):\n%s", diff)
	}
}

func TestWalker_Boundaries(t *testing.T) {
	w := NewWalker(mixedForm())

	if _, err := w.NextLeaf(formindex.End); !errors.Is(err, ErrNoSuchElement) {
		t.Errorf("NextLeaf(End) err = %v, want ErrNoSuchElement", err)
	}
	if _, err := w.PreviousLeaf(formindex.Start); !errors.Is(err, ErrNoSuchElement) {
		t.Errorf("PreviousLeaf(Start) err = %v, want ErrNoSuchElement", err)
	}

	empty := NewWalker(newTree())
	if got, err := empty.NextLeaf(formindex.Start); err != nil || !got.IsEnd() {
		t.Errorf("NextLeaf(Start) on empty form = %s, %v; want END", got, err)
	}
	if got, err := empty.PreviousLeaf(formindex.End); err != nil || !got.IsStart() {
		t.Errorf("PreviousLeaf(End) on empty form = %s, %v; want START", got, err)
	}
}

func TestNextLeafAfter_SkipsSubtree(t *testing.T) {
	w := NewWalker(mixedForm())

	got, err := w.NextLeafAfter(idx("1,1"))
	if err != nil {
		t.Fatal(err)
	}
	if got.String() != "2_0,0" {
		t.Errorf("NextLeafAfter(1,1) = %s, want 2_0,0 (1,2 is irrelevant)", got)
	}
}

func TestWalker_LeavesHiddenAncestorAsAWhole(t *testing.T) {
	tree := mixedForm()
	if err := tree.SetRelevant(idx("1"), false); err != nil {
		t.Fatal(err)
	}
	w := NewWalker(tree)

	tests := []struct {
		name string
		walk func(formindex.Index) (formindex.Index, error)
		from string
		want string
	}{
		{"NextLeafAfter from a question", w.NextLeafAfter, "1,0", "2_0,0"},
		{"NextLeafAfter from a field list", w.NextLeafAfter, "1,1", "2_0,0"},
		{"NextLeaf from a container", w.NextLeaf, "1,1", "2_0,0"},
		{"PreviousLeaf from a deep question", w.PreviousLeaf, "1,1,1,0", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.walk(idx(tt.from))
			if err != nil {
				t.Fatal(err)
			}
			if got.String() != tt.want {
				t.Errorf("from %s = %s, want %s", tt.from, got, tt.want)
			}
		})
	}
}

func TestFirstLeafIn(t *testing.T) {
	tree := mixedForm()

	tests := []struct {
		root   string
		want   string
		wantOK bool
	}{
		{"1", "1,0", true},
		{"1,1", "1,1,0", true},
		{"3_0", "3_0,0", true},
		{"2_2", "2_2", true},
		{"1,2", "", false},
		{"END", "", false},
	}
	for _, tt := range tests {
		got, ok, err := NewWalker(tree).FirstLeafIn(idx(tt.root))
		if err != nil {
			t.Errorf("FirstLeafIn(%s): %v", tt.root, err)
			continue
		}
		if ok != tt.wantOK || (ok && got.String() != tt.want) {
			t.Errorf("FirstLeafIn(%s) = %s, %v; want %s, %v", tt.root, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestWalker_SkipsNonGrowablePrompt(t *testing.T) {
	capped := repeat("r", 1, q("a"))
	capped.Max = 1
	tree := newTree(capped, q("after"))

	got, err := NewWalker(tree).NextLeaf(idx("0_0,0"))
	if err != nil {
		t.Fatal(err)
	}
	if got.String() != "1" {
		t.Errorf("NextLeaf past a full repeat = %s, want 1", got)
	}
}

func TestWalker_RelevanceQueriedOncePerNode(t *testing.T) {
	model := newCountingModel(mixedForm())
	w := NewWalker(model)

	for i := formindex.Start; !i.IsEnd(); {
		next, err := w.NextLeaf(i)
		if err != nil {
			t.Fatal(err)
		}
		i = next
	}
	for i := formindex.End; !i.IsStart(); {
		prev, err := w.PreviousLeaf(i)
		if err != nil {
			t.Fatal(err)
		}
		i = prev
	}

	for key, n := range model.calls {
		if n != 1 {
			t.Errorf("IsRelevant(%s) called %d times on one walker, want 1", key, n)
		}
	}
}
