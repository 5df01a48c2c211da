package score

import (
	"regexp"
	"testing"

	"github.com/romtools/oneg1r/candidate"
)

func TestPadGroupPadsPositionWise(t *testing.T) {
	cands := []*candidate.Candidate{
		{Revision: "1.2"},
		{Revision: "10.3"},
	}
	PadGroup(cands)

	if cands[0].Revision != "01.2" {
		t.Fatalf("expected 01.2, got %q", cands[0].Revision)
	}
	if cands[1].Revision != "10.3" {
		t.Fatalf("expected 10.3, got %q", cands[1].Revision)
	}
}

func TestComputeRegionUnselectedSentinel(t *testing.T) {
	c := &candidate.Candidate{Region: "KOR"}
	s := Compute(c, Options{Regions: []string{"USA", "EUR"}})
	if s.Region != UnselectedRegion {
		t.Fatalf("expected unselected sentinel, got %d", s.Region)
	}
}

func TestComputeRegionSelectedIndex(t *testing.T) {
	c := &candidate.Candidate{Region: "EUR"}
	s := Compute(c, Options{Regions: []string{"USA", "EUR"}})
	if s.Region != 1 {
		t.Fatalf("expected index 1, got %d", s.Region)
	}
}

func TestComputeLanguagesNegativeWhenSelected(t *testing.T) {
	c := &candidate.Candidate{Languages: []string{"en"}}
	s := Compute(c, Options{Languages: []string{"en", "fr"}, LanguageWeight: 3})
	if s.Languages >= 0 {
		t.Fatalf("expected negative language score, got %d", s.Languages)
	}
}

func TestComputeLanguagesZeroWhenNoneSelected(t *testing.T) {
	c := &candidate.Candidate{Languages: []string{"de"}}
	s := Compute(c, Options{Languages: []string{"en", "fr"}, LanguageWeight: 3})
	if s.Languages != 0 {
		t.Fatalf("expected 0, got %d", s.Languages)
	}
}

func TestLessIsBadSortsAfterGood(t *testing.T) {
	kg := KeyGenerator{}
	good := Ranked{Candidate: &candidate.Candidate{IsBad: false}}
	bad := Ranked{Candidate: &candidate.Candidate{IsBad: true}}

	if !kg.Less(good, bad) {
		t.Fatalf("expected good dump to sort before bad dump")
	}
	if kg.Less(bad, good) {
		t.Fatalf("expected bad dump to not sort before good dump")
	}
}

func TestLessRegionScoreBreaksTie(t *testing.T) {
	kg := KeyGenerator{}
	better := Ranked{Candidate: &candidate.Candidate{}, Score: Score{Region: 0}}
	worse := Ranked{Candidate: &candidate.Candidate{}, Score: Score{Region: 1}}

	if !kg.Less(better, worse) {
		t.Fatalf("expected lower region score to win")
	}
}

func TestLessAvoidPatternSortsLast(t *testing.T) {
	kg := KeyGenerator{Avoid: []*regexp.Regexp{regexp.MustCompile("Beta")}}
	clean := Ranked{Candidate: &candidate.Candidate{Name: "Good Game (USA)"}}
	avoided := Ranked{Candidate: &candidate.Candidate{Name: "Good Game (USA) (Beta)"}}

	if !kg.Less(clean, avoided) {
		t.Fatalf("expected non-avoided candidate to sort first")
	}
}

func TestLessParentBreaksFinalTie(t *testing.T) {
	kg := KeyGenerator{}
	parent := Ranked{Candidate: &candidate.Candidate{IsParent: true}}
	clone := Ranked{Candidate: &candidate.Candidate{IsParent: false}}

	if !kg.Less(parent, clone) {
		t.Fatalf("expected parent to win the final tiebreaker")
	}
}
