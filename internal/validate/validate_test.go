package validate

import "testing"

func TestEmail(t *testing.T) {
	t.Parallel()

	valid := []string{"user@example.com", "a.b@c.d.org", "x@y.io"}
	for _, email := range valid {
		if err := Email(email); err != nil {
			t.Fatalf("expected %q to be valid: %v", email, err)
		}
	}

	invalid := []string{"", "plain", "no@dot", "two@@at.com", "spa ce@x.com", "@x.com"}
	for _, email := range invalid {
		if err := Email(email); err == nil {
			t.Fatalf("expected %q to be rejected", email)
		}
	}
}

func TestWord(t *testing.T) {
	t.Parallel()

	if err := Word("Hiking"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, word := range []string{"", "1234", "!!!"} {
		if err := Word(word); err == nil {
			t.Fatalf("expected %q to be rejected", word)
		}
	}
}
