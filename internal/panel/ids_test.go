package panel

import (
	"regexp"
	"testing"
)

var slugRe = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

func TestGenerateItemID_Examples(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		existing []string
		want     string
	}{
		{"Formal Uniform!", nil, "formal_uniform"},
		{"Formal Uniform!", []string{"formal_uniform"}, "formal_uniform_2"},
		{"Formal Uniform!", []string{"formal_uniform", "formal_uniform_2"}, "formal_uniform_3"},
		{"PE  Kit", nil, "pe_kit"},
		{"2nd Shirt", nil, "item_2nd_shirt"},
		{"_hidden", nil, "item__hidden"},
		{"  Lunch Box  ", nil, "lunch_box"},
		{"Café Card", nil, "caf_card"},
		{"Gym\u00a0Bag", nil, "gym_bag"},
		{"Gym\u2003\tBag", nil, "gym_bag"},
		{"!!!", nil, "item_1"},
		{"!!!", []string{"item_1", "item_2"}, "item_3"},
	}
	for _, tc := range cases {
		if got := GenerateItemID(tc.name, tc.existing); got != tc.want {
			t.Fatalf("GenerateItemID(%q, %v) = %q; want %q", tc.name, tc.existing, got, tc.want)
		}
	}
}

func TestGenerateItemID_NeverCollidesAndMatchesSlug(t *testing.T) {
	t.Parallel()

	names := []string{
		"Formal Uniform!", "PE kit", "9", "---", "Swim Bag", "swim bag", "SWIM   BAG",
		"日本語", "a", "a b c", "Library Book", "  x  ", "1 2 3",
	}
	var existing []string
	for round := 0; round < 3; round++ {
		for _, n := range names {
			id := GenerateItemID(n, existing)
			if !slugRe.MatchString(id) {
				t.Fatalf("GenerateItemID(%q) = %q; does not match slug pattern", n, id)
			}
			for _, e := range existing {
				if e == id {
					t.Fatalf("GenerateItemID(%q) = %q; collides with existing", n, id)
				}
			}
			existing = append(existing, id)
		}
	}
}

func TestGenerateItemID_Deterministic(t *testing.T) {
	t.Parallel()

	existing := []string{"pe_kit", "pe_kit_2"}
	a := GenerateItemID("PE kit", existing)
	b := GenerateItemID("PE kit", existing)
	if a != b {
		t.Fatalf("expected deterministic output; got %q then %q", a, b)
	}
	if len(existing) != 2 || existing[0] != "pe_kit" {
		t.Fatalf("existing ids were mutated: %v", existing)
	}
}
