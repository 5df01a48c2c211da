package candidate

import (
	"testing"

	"github.com/romtools/oneg1r/datfile"
	"github.com/romtools/oneg1r/region"
)

func sampleDat() *datfile.Dat {
	return &datfile.Dat{
		Games: []datfile.Game{
			{
				Name: "Super Game (World)",
				Roms: []datfile.Rom{{Name: "Super Game (World).bin", SHA1: "aaaa", Size: 10}},
			},
			{
				Name:    "Super Game (Japan) (Rev 2)",
				CloneOf: "Super Game (World)",
				Roms:    []datfile.Rom{{Name: "Super Game (Japan) (Rev 2).bin", SHA1: "bbbb", Size: 10}},
			},
		},
	}
}

func TestBuildExpandsWorldIntoThreeCandidates(t *testing.T) {
	reg := region.NewRegistry()
	group, err := Build(sampleDat(), reg, Options{})
	if err != nil {
		t.Fatalf("build error: %v", err)
	}

	cands := group.ByParent["Super Game (World)"]
	var worldRegions int
	for _, c := range cands {
		if c.Name == "Super Game (World)" {
			worldRegions++
		}
	}
	if worldRegions != 3 {
		t.Fatalf("expected 3 candidates for the World game, got %d", worldRegions)
	}
}

func TestBuildGroupsCloneUnderParent(t *testing.T) {
	reg := region.NewRegistry()
	group, err := Build(sampleDat(), reg, Options{})
	if err != nil {
		t.Fatalf("build error: %v", err)
	}

	found := false
	for _, c := range group.ByParent["Super Game (World)"] {
		if c.Name == "Super Game (Japan) (Rev 2)" {
			found = true
			if c.Revision != "2" {
				t.Fatalf("expected revision 2, got %q", c.Revision)
			}
		}
	}
	if !found {
		t.Fatalf("expected clone to be grouped under its parent's name")
	}
}

func TestBuildReturnsAmbiguousCatalogErrorWhenNoCloneOfAnywhere(t *testing.T) {
	reg := region.NewRegistry()
	dat := &datfile.Dat{Games: []datfile.Game{{Name: "Some Game (USA)"}}}

	_, err := Build(dat, reg, Options{})
	if err == nil {
		t.Fatalf("expected an error for a DAT with no cloneof relationships")
	}
	if !AmbiguousCatalogError.Contains(err) {
		t.Fatalf("expected an AmbiguousCatalogError, got %v", err)
	}
}

func TestBuildProceedsPastAmbiguousCatalogWhenConfirmed(t *testing.T) {
	reg := region.NewRegistry()
	dat := &datfile.Dat{Games: []datfile.Game{{Name: "Some Game (USA)"}}}

	group, err := Build(dat, reg, Options{ConfirmAmbiguous: true})
	if err != nil {
		t.Fatalf("unexpected error once confirmed: %v", err)
	}
	if len(group.ByParent["Some Game (USA)"]) == 0 {
		t.Fatalf("expected the standard DAT's game to become its own singleton parent group")
	}
}

func TestBuildRequireSHA1Fails(t *testing.T) {
	reg := region.NewRegistry()
	dat := &datfile.Dat{Games: []datfile.Game{
		{Name: "Parent (USA)", Roms: []datfile.Rom{{Name: "p.bin"}}},
		{Name: "Clone (USA)", CloneOf: "Parent (USA)", Roms: []datfile.Rom{{Name: "c.bin", SHA1: "x"}}},
	}}

	_, err := Build(dat, reg, Options{RequireSHA1: true})
	if err == nil {
		t.Fatalf("expected missing checksum error")
	}
}

func TestBuildDropsTitleWithNoParseableRegionOrReleases(t *testing.T) {
	reg := region.NewRegistry()
	dat := &datfile.Dat{Games: []datfile.Game{
		{Name: "Parent (USA)", CloneOf: ""},
		{Name: "No Region At All", CloneOf: "Parent (USA)"},
	}}

	group, err := Build(dat, reg, Options{})
	if err != nil {
		t.Fatalf("build error: %v", err)
	}
	for _, c := range group.ByParent["Parent (USA)"] {
		if c.Name == "No Region At All" {
			t.Fatalf("expected unparseable title to be dropped")
		}
	}
}
