package selector

import (
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/romtools/oneg1r/candidate"
	"github.com/romtools/oneg1r/index"
	"github.com/romtools/oneg1r/score"
)

func TestFilterAndOrderDropsUnselectedRegionByDefault(t *testing.T) {
	cands := []*candidate.Candidate{
		{Name: "Game (USA)", Region: "USA"},
		{Name: "Game (KOR)", Region: "KOR"},
	}
	ordered := FilterAndOrder(cands, score.Options{Regions: []string{"USA"}}, score.KeyGenerator{}, nil, false, false, false)

	if len(ordered) != 1 || ordered[0].Candidate.Region != "USA" {
		t.Fatalf("expected only the selected-region candidate to survive, got %v", ordered)
	}
}

func TestFilterAndOrderAllRegionsKeepsEverything(t *testing.T) {
	cands := []*candidate.Candidate{
		{Name: "Game (USA)", Region: "USA"},
		{Name: "Game (KOR)", Region: "KOR"},
	}
	ordered := FilterAndOrder(cands, score.Options{Regions: []string{"USA"}}, score.KeyGenerator{}, nil, false, true, false)

	if len(ordered) != 2 {
		t.Fatalf("expected all_regions to keep every candidate, got %d", len(ordered))
	}
}

func TestFilterAndOrderExcludeDropsMatchingName(t *testing.T) {
	cands := []*candidate.Candidate{
		{Name: "Game (USA)", Region: "USA"},
		{Name: "Game (USA) (Beta)", Region: "USA"},
	}
	exclude := []*regexp.Regexp{regexp.MustCompile("Beta")}
	ordered := FilterAndOrder(cands, score.Options{Regions: []string{"USA"}}, score.KeyGenerator{}, exclude, false, false, false)

	if len(ordered) != 1 || ordered[0].Candidate.Name != "Game (USA)" {
		t.Fatalf("expected excluded candidate to be dropped, got %v", ordered)
	}
}

func TestResolveByHashRequiresAllRomsPresent(t *testing.T) {
	c := &candidate.Candidate{
		Name: "Game (USA)",
		Roms: []candidate.Rom{{Name: "a.bin", SHA1: "aaaa"}, {Name: "b.bin", SHA1: "bbbb"}},
	}
	d := &Driver{Index: map[string]index.Location{
		"aaaa": {Path: "/roms/a.bin"},
	}}

	_, ok := d.resolveCandidate(c)
	if ok {
		t.Fatalf("expected resolution to fail when one rom digest is missing")
	}
}

func TestResolveByHashSucceedsWhenAllRomsPresent(t *testing.T) {
	c := &candidate.Candidate{
		Name: "Game (USA)",
		Roms: []candidate.Rom{{Name: "a.bin", SHA1: "aaaa"}},
	}
	d := &Driver{Index: map[string]index.Location{
		"aaaa": {Path: "/roms/game.zip", Member: "a.bin", IsArchive: true},
	}}

	files, ok := d.resolveCandidate(c)
	if !ok || len(files) != 1 {
		t.Fatalf("expected a resolved archive member, got %v ok=%v", files, ok)
	}
	if files[0].DestName != "Game (USA)" {
		t.Fatalf("expected archive dest name to be the candidate name, got %q", files[0].DestName)
	}
}

func TestResolveByNameFindsFlatFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "Game (USA).zip"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	c := &candidate.Candidate{Name: "Game (USA)", Roms: []candidate.Rom{{Name: "game.bin"}}}
	d := &Driver{InputDir: dir, Extension: "zip"}

	files, ok := d.resolveCandidate(c)
	if !ok || len(files) != 1 {
		t.Fatalf("expected the flat file to resolve, got %v ok=%v", files, ok)
	}
}

func TestResolveStopsGroupOnExcludeAfter(t *testing.T) {
	d := &Driver{Index: map[string]index.Location{}}
	ordered := []score.Ranked{{Candidate: &candidate.Candidate{Name: "Game (USA) (Beta)"}}}
	excludeAfter := []*regexp.Regexp{regexp.MustCompile("Beta")}

	res, err := d.Resolve("Game", ordered, excludeAfter)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res != nil {
		t.Fatalf("expected the group to be skipped entirely, got %+v", res)
	}
}

func TestDestNameFlattensSingleRomWithNoSubdir(t *testing.T) {
	c := &candidate.Candidate{Name: "Game (USA)"}
	if got := destName(c, "game.bin", false); got != "game.bin" {
		t.Fatalf("expected a flat name, got %q", got)
	}
}

func TestDestNameUsesSubdirForMultiRom(t *testing.T) {
	c := &candidate.Candidate{Name: "Game (USA)"}
	want := filepath.Join("Game (USA)", "disk1.bin")
	if got := destName(c, "disk1.bin", true); got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestDestNameUsesSubdirForNestedSingleRom(t *testing.T) {
	c := &candidate.Candidate{Name: "Game (USA)"}
	romName := filepath.Join("disc1", "game.bin")
	want := filepath.Join("Game (USA)", romName)
	if got := destName(c, romName, false); got != want {
		t.Fatalf("expected a single nested rom to still land under its own subdirectory, got %q want %q", got, want)
	}
}

func TestParseModeDefaultsEmptyStringToPreview(t *testing.T) {
	mode, err := ParseMode("")
	if err != nil || mode != ModePreview {
		t.Fatalf("expected ModePreview with no error, got %v err=%v", mode, err)
	}
}

func TestParseModeRejectsUnknownString(t *testing.T) {
	if _, err := ParseMode("bogus"); err == nil {
		t.Fatalf("expected an error for an unrecognized mode")
	}
}

func TestResolveTriesNextCandidateOnFailure(t *testing.T) {
	d := &Driver{Index: map[string]index.Location{
		"good": {Path: "/roms/good.bin"},
	}}
	ordered := []score.Ranked{
		{Candidate: &candidate.Candidate{Name: "Bad", Roms: []candidate.Rom{{Name: "x", SHA1: "missing"}}}},
		{Candidate: &candidate.Candidate{Name: "Good", Roms: []candidate.Rom{{Name: "y", SHA1: "good"}}}},
	}

	res, err := d.Resolve("Parent", ordered, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res == nil || res.Candidate.Name != "Good" {
		t.Fatalf("expected the second candidate to win, got %+v", res)
	}
}
