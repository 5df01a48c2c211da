package title

import (
	"testing"

	"github.com/romtools/oneg1r/region"
)

func TestParseWorldExpandsThreeRegions(t *testing.T) {
	reg := region.NewRegistry()
	p := Parse("Some Game (World)", nil, reg, Filters{})

	want := map[string]bool{"EUR": true, "JPN": true, "USA": true}
	if len(p.Regions) != len(want) {
		t.Fatalf("expected 3 regions, got %v", p.Regions)
	}
	for _, r := range p.Regions {
		if !want[r] {
			t.Fatalf("unexpected region %q", r)
		}
	}
}

func TestParseRevisionDefault(t *testing.T) {
	reg := region.NewRegistry()
	p := Parse("Some Game (USA)", nil, reg, Filters{})
	if p.Revision != "0" {
		t.Fatalf("expected default revision 0, got %q", p.Revision)
	}
}

func TestParseRevisionCaptured(t *testing.T) {
	reg := region.NewRegistry()
	p := Parse("Some Game (USA) (Rev 2)", nil, reg, Filters{})
	if p.Revision != "2" {
		t.Fatalf("expected revision 2, got %q", p.Revision)
	}
}

func TestParsePrereleaseMarkers(t *testing.T) {
	reg := region.NewRegistry()
	p := Parse("Some Game (USA) (Beta 2)", nil, reg, Filters{})
	if !p.IsPrerelease {
		t.Fatalf("expected prerelease")
	}
	if p.Beta != "2" {
		t.Fatalf("expected captured beta label 2, got %q", p.Beta)
	}
	if p.Demo != absentMarker || p.Sample != absentMarker || p.Proto != absentMarker {
		t.Fatalf("expected other markers absent")
	}
}

func TestParseLanguagesFromBlock(t *testing.T) {
	reg := region.NewRegistry()
	p := Parse("Some Game (USA) (en,fr+de)", nil, reg, Filters{})
	want := []string{"en", "fr", "de"}
	if len(p.Languages) != len(want) {
		t.Fatalf("expected %v, got %v", want, p.Languages)
	}
	for i, l := range want {
		if p.Languages[i] != l {
			t.Fatalf("expected %v, got %v", want, p.Languages)
		}
	}
}

func TestParseLanguagesFallbackFromRegion(t *testing.T) {
	reg := region.NewRegistry()
	p := Parse("Some Game (France)", nil, reg, Filters{})
	if len(p.Languages) != 1 || p.Languages[0] != "fr" {
		t.Fatalf("expected language fallback [fr], got %v", p.Languages)
	}
}

func TestParseReleaseMergeRegistersUnknown(t *testing.T) {
	reg := region.NewRegistry()
	p := Parse("Some Game", []Release{{Region: "ZZZ"}}, reg, Filters{})
	if len(p.Regions) != 1 || p.Regions[0] != "ZZZ" {
		t.Fatalf("expected unknown release region registered, got %v", p.Regions)
	}
	if _, ok := reg.Lookup("ZZZ"); !ok {
		t.Fatalf("expected ZZZ to now be in the registry")
	}
}

func TestParseFiltersDropBios(t *testing.T) {
	reg := region.NewRegistry()
	p := Parse("[BIOS] Some Chip (USA)", nil, reg, Filters{NoBIOS: true})
	if !p.Dropped {
		t.Fatalf("expected BIOS to be dropped")
	}
}

func TestParseBadDump(t *testing.T) {
	reg := region.NewRegistry()
	p := Parse("Some Game (USA) [b]", nil, reg, Filters{})
	if !p.IsBad {
		t.Fatalf("expected bad dump flag")
	}
}
