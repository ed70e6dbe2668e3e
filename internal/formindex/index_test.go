package formindex

import (
	"encoding/json"
	"sort"
	"testing"
)

// --- Ordering ---

func TestCompare_SentinelsBracketRealIndices(t *testing.T) {
	i := New(Pos(3), Rep(1, 2))
	if Start.Compare(i) != -1 {
		t.Error("Start should sort before a real index")
	}
	if End.Compare(i) != 1 {
		t.Error("End should sort after a real index")
	}
	if Start.Compare(End) != -1 {
		t.Error("Start should sort before End")
	}
	if !Start.Equal(Index{}) {
		t.Error("zero Index should equal Start")
	}
}

func TestCompare_PreOrder(t *testing.T) {
	ordered := []string{
		"START",
		"0",
		"0,0",
		"0,0,2",
		"0,1",
		"1_0",
		"1_0,0",
		"1_1",
		"1_2",
		"2",
		"END",
	}

	shuffled := []Index{}
	for n := len(ordered) - 1; n >= 0; n-- {
		shuffled = append(shuffled, MustParse(ordered[n]))
	}
	sort.Slice(shuffled, func(a, b int) bool { return shuffled[a].Compare(shuffled[b]) < 0 })

	for n, want := range ordered {
		if got := shuffled[n].String(); got != want {
			t.Errorf("position %d = %s, want %s", n, got, want)
		}
	}
}

func TestCompare_AbsentMultiplicitySortsFirst(t *testing.T) {
	if New(Pos(1)).Compare(New(Rep(1, 0))) != -1 {
		t.Error("step without multiplicity should sort before repeat instance 0")
	}
}

// --- Structure ---

func TestParentAndChild(t *testing.T) {
	i := MustParse("0,2_1,3")

	if got := i.Parent().String(); got != "0,2_1" {
		t.Errorf("Parent = %s, want 0,2_1", got)
	}
	if !MustParse("4").Parent().IsStart() {
		t.Error("parent of a top-level index should be Start")
	}
	if got := Start.Child(Pos(0)).String(); got != "0" {
		t.Errorf("Start.Child = %s, want 0", got)
	}
	if got := i.Parent().Child(Pos(3)); !got.Equal(i) {
		t.Errorf("Parent().Child(Last()) = %s, want %s", got, i)
	}
	if got := i.WithLast(Pos(4)).String(); got != "0,2_1,4" {
		t.Errorf("WithLast = %s, want 0,2_1,4", got)
	}
}

func TestIsPrefixOf(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"0", "0,1", true},
		{"0,1", "0,1", false},
		{"0,1", "0", false},
		{"1_0", "1_0,2", true},
		{"1_0", "1_1,2", false},
		{"START", "3", true},
		{"START", "END", false},
	}

	for _, tt := range tests {
		if got := MustParse(tt.a).IsPrefixOf(MustParse(tt.b)); got != tt.want {
			t.Errorf("%s.IsPrefixOf(%s) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestSteps_ReturnsCopy(t *testing.T) {
	i := MustParse("0,1")
	steps := i.Steps()
	steps[0] = Pos(9)
	if i.String() != "0,1" {
		t.Errorf("mutating Steps() changed the index: %s", i)
	}
}

// --- Serialization ---

func TestParse_RoundTrip(t *testing.T) {
	for _, s := range []string{"START", "END", "0", "0,0,2", "2_0,1,3_4"} {
		i, err := Parse(s)
		if err != nil {
			t.Fatalf("Parse(%q): %v", s, err)
		}
		if i.String() != s {
			t.Errorf("Parse(%q).String() = %q", s, i.String())
		}
	}
}

func TestParse_Invalid(t *testing.T) {
	for _, s := range []string{"a", "0,,1", "1_x", "-2", "0_-1"} {
		if _, err := Parse(s); err == nil {
			t.Errorf("Parse(%q) should fail", s)
		}
	}
}

func TestMarshalText_JSON(t *testing.T) {
	type wrapper struct {
		At Index `json:"at"`
	}
	data, err := json.Marshal(wrapper{At: MustParse("1_2,0")})
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"at":"1_2,0"}` {
		t.Errorf("json = %s", data)
	}

	var back wrapper
	if err := json.Unmarshal([]byte(`{"at":"END"}`), &back); err != nil {
		t.Fatal(err)
	}
	if !back.At.IsEnd() {
		t.Errorf("decoded %s, want END", back.At)
	}
}
