package flatten_test

import (
	"encoding/json"
	"testing"

	"jobmate/rome-service/internal/flatten"
)

const metierJSON = `{
	"code": "A1413",
	"libelle": "Chef de projet",
	"domaineProfessionnel": {
		"code": "A14",
		"libelle": "Encadrement",
		"grandDomaine": {"code": "A", "libelle": "Agriculture"}
	},
	"emploiCadre": true,
	"contextesTravail": [
		{"categorie": "CONDITIONS_TRAVAIL", "libelle": "Risques de chutes"},
		{"categorie": "HORAIRE_ET_DUREE_TRAVAIL", "libelle": "Travail de nuit"}
	],
	"themes": [],
	"secteursActivites": {},
	"formacodes": ["31734", 2.5, null]
}`

func mustParse(t *testing.T, raw string) *flatten.Node {
	t.Helper()
	n, err := flatten.Parse([]byte(raw))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return n
}

// ── Parse ──────────────────────────────────────────────────────────────────

func TestParse_InvalidJSON(t *testing.T) {
	if _, err := flatten.Parse([]byte(`{"code": `)); err == nil {
		t.Error("Parse(truncated) expected error, got nil")
	}
}

func TestParse_KeepsKeyOrder(t *testing.T) {
	n := mustParse(t, `{"z": 1, "a": 2, "m": 3}`)
	want := []string{"z", "a", "m"}
	for i, f := range n.Fields {
		if f.Key != want[i] {
			t.Errorf("field %d = %q, want %q", i, f.Key, want[i])
		}
	}
}

func TestParse_ScalarTypes(t *testing.T) {
	n := mustParse(t, `{"s": "x", "i": 42, "f": 1.5, "t": true, "n": null}`)
	cases := map[string]any{"s": "x", "i": int64(42), "f": 1.5, "t": true, "n": nil}
	for k, want := range cases {
		if got := n.Get(k).Value; got != want {
			t.Errorf("Get(%q).Value = %#v, want %#v", k, got, want)
		}
	}
}

// ── Flatten ────────────────────────────────────────────────────────────────

func TestFlatten_Paths(t *testing.T) {
	row := flatten.Flatten(mustParse(t, metierJSON), "_")

	want := []struct {
		key string
		val any
	}{
		{"code", "A1413"},
		{"libelle", "Chef de projet"},
		{"domaineProfessionnel_code", "A14"},
		{"domaineProfessionnel_libelle", "Encadrement"},
		{"domaineProfessionnel_grandDomaine_code", "A"},
		{"domaineProfessionnel_grandDomaine_libelle", "Agriculture"},
		{"emploiCadre", true},
		{"contextesTravail_0_categorie", "CONDITIONS_TRAVAIL"},
		{"contextesTravail_0_libelle", "Risques de chutes"},
		{"contextesTravail_1_categorie", "HORAIRE_ET_DUREE_TRAVAIL"},
		{"contextesTravail_1_libelle", "Travail de nuit"},
		{"formacodes_0", "31734"},
		{"formacodes_1", 2.5},
		{"formacodes_2", nil},
	}

	keys := row.Keys()
	if len(keys) != len(want) {
		t.Fatalf("Flatten produced %d entries (%v), want %d", len(keys), keys, len(want))
	}
	for i, w := range want {
		if keys[i] != w.key {
			t.Errorf("key %d = %q, want %q", i, keys[i], w.key)
		}
		got, ok := row.Get(w.key)
		if !ok || got != w.val {
			t.Errorf("row[%q] = %#v (present=%v), want %#v", w.key, got, ok, w.val)
		}
	}
}

func TestFlatten_EmptyBranchesDropped(t *testing.T) {
	row := flatten.Flatten(mustParse(t, `{"a": {}, "b": [], "c": [{}], "d": 1}`), "_")
	if row.Len() != 1 || !row.Has("d") {
		t.Errorf("Flatten kept empty branches: %v", row.Keys())
	}
}

func TestFlatten_LeafCountMatches(t *testing.T) {
	raw := `{"a": {"b": [1, 2, {"c": "x", "d": [true, false]}]}, "e": "y"}`
	row := flatten.Flatten(mustParse(t, raw), ".")
	if row.Len() != 6 {
		t.Errorf("Flatten entries = %d, want 6 leaves (%v)", row.Len(), row.Keys())
	}
	if v, _ := row.Get("a.b.2.d.1"); v != false {
		t.Errorf("row[a.b.2.d.1] = %#v, want false", v)
	}
}

func TestFlatten_IdempotentOnFlatInput(t *testing.T) {
	n := mustParse(t, `{"code": "K2204", "libelle": "Nettoyage", "n": 3}`)
	row := flatten.Flatten(n, "_")
	again := flatten.Flatten(flatten.Unflatten(row, ""), "_")

	if len(row.Keys()) != 3 {
		t.Fatalf("unexpected keys %v", row.Keys())
	}
	for i, k := range row.Keys() {
		if n.Fields[i].Key != k {
			t.Errorf("key %d = %q, want %q", i, k, n.Fields[i].Key)
		}
		a, _ := row.Get(k)
		b, _ := again.Get(k)
		if a != b || a != n.Fields[i].Value.Value {
			t.Errorf("value for %q changed: %#v / %#v", k, a, b)
		}
	}
}

func TestFlatten_CustomSeparator(t *testing.T) {
	row := flatten.Flatten(mustParse(t, `{"a": {"b": [5]}}`), "/")
	if v, ok := row.Get("a/b/0"); !ok || v != int64(5) {
		t.Errorf("row[a/b/0] = %#v (present=%v), want 5", v, ok)
	}
}

func TestFlatten_Nil(t *testing.T) {
	if flatten.Flatten(nil, "_").Len() != 0 {
		t.Error("Flatten(nil) should be empty")
	}
}

// ── Unflatten ──────────────────────────────────────────────────────────────

func TestUnflatten_RoundTrip(t *testing.T) {
	raw := `{"code":"A1413","domaine":{"code":"A14","tags":["x","y"]},"contextes":[{"categorie":"C","libelle":"L"}],"n":null}`
	row := flatten.Flatten(mustParse(t, raw), "_")
	back := flatten.Unflatten(row, "_")

	got, err := json.Marshal(back)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(got) != raw {
		t.Errorf("round trip\n got: %s\nwant: %s", got, raw)
	}
}

func TestUnflatten_PadsDroppedSequenceElements(t *testing.T) {
	row := flatten.Flatten(mustParse(t, `{"a": [{}, 7]}`), "_")
	back := flatten.Unflatten(row, "_")

	got, _ := json.Marshal(back)
	if string(got) != `{"a":[null,7]}` {
		t.Errorf("Unflatten = %s, want {\"a\":[null,7]}", got)
	}
}

func TestUnflatten_NumericKeyBesideNamedKey(t *testing.T) {
	raw := `{"a":{"0":"zero","x":"ex"}}`
	row := flatten.Flatten(mustParse(t, raw), "_")
	back := flatten.Unflatten(row, "_")

	got, _ := json.Marshal(back)
	if string(got) != raw {
		t.Errorf("Unflatten = %s, want %s", got, raw)
	}

	again := flatten.Flatten(back, "_")
	if again.Len() != row.Len() {
		t.Fatalf("reflattened keys = %v, want %v", again.Keys(), row.Keys())
	}
	for _, k := range row.Keys() {
		want, _ := row.Get(k)
		if v, ok := again.Get(k); !ok || v != want {
			t.Errorf("%s = %#v, want %#v", k, v, want)
		}
	}
}

func TestUnflatten_PaddingDroppedOnMappingFallback(t *testing.T) {
	row := flatten.Flatten(mustParse(t, `{"a":{"1":"one","x":"ex"}}`), "_")
	got, _ := json.Marshal(flatten.Unflatten(row, "_"))
	if string(got) != `{"a":{"1":"one","x":"ex"}}` {
		t.Errorf("Unflatten = %s", got)
	}
}

func TestUnflatten_LargeIndexStaysMappingKey(t *testing.T) {
	row := flatten.NewRow()
	row.Set("a_5000000", "v")

	back := flatten.Unflatten(row, "_")
	a := back.Get("a")
	if a == nil || a.Kind != flatten.Mapping || len(a.Fields) != 1 {
		t.Fatalf("a = %+v, want a one-field mapping", a)
	}
	if a.Fields[0].Key != "5000000" || a.Fields[0].Value.Text() != "v" {
		t.Errorf("a = %+v", a.Fields[0])
	}
}

// ── Row ────────────────────────────────────────────────────────────────────

func TestRow_SetKeepsFirstPosition(t *testing.T) {
	r := flatten.NewRow()
	r.Set("b", 1)
	r.Set("a", 2)
	r.Set("b", 3)

	got, _ := json.Marshal(r)
	if string(got) != `{"b":3,"a":2}` {
		t.Errorf("Row JSON = %s", got)
	}
}

// ── Node lookups ───────────────────────────────────────────────────────────

func TestGetFold(t *testing.T) {
	n := mustParse(t, `{"contextesTravail": [1]}`)
	if n.GetFold("contextestravail") == nil {
		t.Error("GetFold should match keys case-insensitively")
	}
	if n.Get("contextestravail") != nil {
		t.Error("Get should be case-sensitive")
	}
}
