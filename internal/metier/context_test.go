package metier_test

import (
	"reflect"
	"testing"

	"jobmate/rome-service/internal/flatten"
	"jobmate/rome-service/internal/metier"
)

func parse(t *testing.T, raw string) *flatten.Node {
	t.Helper()
	n, err := flatten.Parse([]byte(raw))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return n
}

func TestExtractCategory_SourceOrderAndDuplicates(t *testing.T) {
	rec := parse(t, `{"contextesTravail": [
		{"categorie": "CONDITIONS_TRAVAIL", "libelle": "Travail en hauteur"},
		{"categorie": "HORAIRE_ET_DUREE_TRAVAIL", "libelle": "Travail de nuit"},
		{"categorie": "CONDITIONS_TRAVAIL", "libelle": "  Risques de chutes "},
		{"categorie": "CONDITIONS_TRAVAIL", "libelle": "Travail en hauteur"}
	]}`)

	got := metier.ExtractCategory(rec, "contextesTravail", metier.CategoryConditions)
	want := []string{"Travail en hauteur", "Risques de chutes", "Travail en hauteur"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ExtractCategory = %v, want %v", got, want)
	}
}

func TestExtractCategory_SkipsBlankLabels(t *testing.T) {
	rec := parse(t, `{"contextesTravail": [
		{"categorie": "CONDITIONS_TRAVAIL", "libelle": "   "},
		{"categorie": "CONDITIONS_TRAVAIL"},
		{"categorie": "CONDITIONS_TRAVAIL", "libelle": "Bruit"}
	]}`)

	got := metier.ExtractCategory(rec, "contextesTravail", metier.CategoryConditions)
	if !reflect.DeepEqual(got, []string{"Bruit"}) {
		t.Errorf("ExtractCategory = %v, want [Bruit]", got)
	}
}

func TestExtractCategory_ExactCategoryMatch(t *testing.T) {
	rec := parse(t, `{"contextesTravail": [{"categorie": "conditions_travail", "libelle": "Bruit"}]}`)
	if got := metier.ExtractCategory(rec, "contextesTravail", metier.CategoryConditions); len(got) != 0 {
		t.Errorf("category match must be case-sensitive, got %v", got)
	}
}

func TestExtractCategory_MissingField(t *testing.T) {
	rec := parse(t, `{"code": "A1413"}`)
	got := metier.ExtractCategory(rec, "contextesTravail", metier.CategoryConditions)
	if got == nil || len(got) != 0 {
		t.Errorf("missing field should yield an empty, non-nil slice, got %#v", got)
	}
}

func TestExtractCategory_FieldCasing(t *testing.T) {
	rec := parse(t, `{"contextesTravail": [{"categorie": "CONDITIONS_TRAVAIL", "libelle": "Bruit"}]}`)
	got := metier.ExtractCategory(rec, "contextestravail", metier.CategoryConditions)
	if !reflect.DeepEqual(got, []string{"Bruit"}) {
		t.Errorf("selector casing should resolve to the payload key, got %v", got)
	}
}

func TestContextEntries_IgnoresNonMappings(t *testing.T) {
	rec := parse(t, `{"contextesTravail": ["x", {"categorie": "A", "libelle": "B"}]}`)
	got := metier.ContextEntries(rec, "contextesTravail")
	want := []metier.ContextEntry{{Category: "A", Label: "B"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ContextEntries = %v, want %v", got, want)
	}
}
