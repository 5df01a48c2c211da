package datfile

import (
	"encoding/xml"
	"strings"
	"testing"
)

func mustDecode(t *testing.T, doc string) *Dat {
	t.Helper()
	var dat Dat
	if err := xml.NewDecoder(strings.NewReader(doc)).Decode(&dat); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	return &dat
}

const sampleDat = `<?xml version="1.0"?>
<datafile>
  <header><name>Sample</name></header>
  <game name="Super Game">
    <release name="Super Game (USA)" region="USA"/>
    <rom name="Super Game (USA).bin" sha1="aaaa" size="1024"/>
  </game>
  <game name="Super Game (Europe)" cloneof="Super Game">
    <release name="Super Game (Europe)" region="EUR"/>
    <rom name="Super Game (Europe).bin" sha1="bbbb" size="1024"/>
  </game>
  <game name="Orphan Clone" cloneof="Nonexistent Parent">
    <rom name="Orphan Clone.bin" sha1="cccc" size="512"/>
  </game>
</datafile>`

func TestParseGamesAndRoms(t *testing.T) {
	dat := mustDecode(t, sampleDat)
	if len(dat.Games) != 3 {
		t.Fatalf("expected 3 games, got %d", len(dat.Games))
	}
	if dat.Games[0].Roms[0].SHA1 != "aaaa" {
		t.Fatalf("unexpected sha1 %q", dat.Games[0].Roms[0].SHA1)
	}
}

func TestParentGroupsCollectsClones(t *testing.T) {
	dat := mustDecode(t, sampleDat)
	order, groups := dat.ParentGroups()

	if len(order) != 2 {
		t.Fatalf("expected 2 parent groups (one promoted orphan), got %v", order)
	}
	if order[0] != "Super Game" {
		t.Fatalf("expected Super Game first, got %v", order)
	}
	if len(groups["Super Game"]) != 2 {
		t.Fatalf("expected parent + 1 clone under Super Game, got %d", len(groups["Super Game"]))
	}
}

func TestParentGroupsPromotesOrphanClone(t *testing.T) {
	dat := mustDecode(t, sampleDat)
	order, groups := dat.ParentGroups()

	found := false
	for _, name := range order {
		if name == "Orphan Clone" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected orphan clone to be promoted to its own parent group, got %v", order)
	}
	if len(groups["Orphan Clone"]) != 1 {
		t.Fatalf("expected exactly the orphan itself in its promoted group")
	}
}

func TestIsParent(t *testing.T) {
	dat := mustDecode(t, sampleDat)
	if !dat.Games[0].IsParent() {
		t.Fatalf("expected first game to be a parent")
	}
	if dat.Games[1].IsParent() {
		t.Fatalf("expected second game to be a clone")
	}
}
