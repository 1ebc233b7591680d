package language

import "testing"

func TestFromLabelIsCaseSensitive(t *testing.T) {
	lang, ok := FromLabel("German")
	if !ok || lang.Code != German {
		t.Fatalf("expected German to map to de, got %+v ok=%v", lang, ok)
	}
	if _, ok := FromLabel("german"); ok {
		t.Fatal("expected lowercase label to be rejected")
	}
	if _, ok := FromLabel("Deutsch"); ok {
		t.Fatal("expected unknown label to be rejected")
	}
}

func TestNormalize(t *testing.T) {
	cases := map[string]string{
		"":   English,
		"en": English,
		"de": German,
		"fr": English,
	}
	for input, want := range cases {
		if got := Normalize(input); got != want {
			t.Fatalf("Normalize(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestLabelsKeepOrder(t *testing.T) {
	labels := Labels()
	if len(labels) != 2 || labels[0] != "English" || labels[1] != "German" {
		t.Fatalf("unexpected labels %v", labels)
	}
}
