package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestValidateRequiresDat(t *testing.T) {
	o := Defaults()
	o.Regions = []string{"USA"}
	if err := o.Validate(); err == nil {
		t.Fatalf("expected error for missing dat")
	}
}

func TestValidateRequiresRegions(t *testing.T) {
	o := Defaults()
	o.Dat = "foo.dat"
	if err := o.Validate(); err == nil {
		t.Fatalf("expected error for missing regions")
	}
}

func TestValidateRejectsZeroThreads(t *testing.T) {
	o := Defaults()
	o.Dat = "foo.dat"
	o.Regions = []string{"USA"}
	o.Threads = 0
	if err := o.Validate(); err == nil {
		t.Fatalf("expected error for zero threads")
	}
}

func TestValidateAcceptsDefaults(t *testing.T) {
	o := Defaults()
	o.Dat = "foo.dat"
	o.Regions = []string{"USA"}
	if err := o.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestApplyNoAllExpandsEveryFilter(t *testing.T) {
	o := Defaults()
	o.Dat = "foo.dat"
	o.Regions = []string{"USA"}
	o.NoAll = true
	if err := o.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !o.NoBIOS || !o.NoBeta || !o.NoUnlicensed {
		t.Fatalf("expected no_all to expand into every individual filter")
	}
}

func TestResolvePatternListInline(t *testing.T) {
	got, err := ResolvePatternList("Beta,Proto")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got[0] != "Beta" || got[1] != "Proto" {
		t.Fatalf("unexpected result: %v", got)
	}
}

func TestResolvePatternListFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "patterns.txt")
	if err := os.WriteFile(path, []byte("Beta\nProto\n\n"), 0644); err != nil {
		t.Fatal(err)
	}

	got, err := ResolvePatternList("file:" + path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got[0] != "Beta" || got[1] != "Proto" {
		t.Fatalf("unexpected result: %v", got)
	}
}

func TestCompilePatternsEscapesLiterals(t *testing.T) {
	res, err := CompilePatterns([]string{"(Beta)"}, false, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res[0].MatchString("Game (Beta)") {
		t.Fatalf("expected literal substring match")
	}
}
