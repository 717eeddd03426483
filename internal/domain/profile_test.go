package domain

import "testing"

func TestProfileAttributes(t *testing.T) {
	base := Profile{
		Name:        "Asha",
		Email:       "asha@example.com",
		Phone:       "555-0100",
		Gender:      "female",
		DateOfBirth: "1990-04-01",
		Gotra:       "Kashyap",
		Bio:         "hello",
	}

	t.Run("maps visible fields", func(t *testing.T) {
		p := base
		attrs := p.Attributes()

		if attrs.String(AttrFirstName) != "Asha" {
			t.Errorf("expected first name Asha, got %v", attrs[AttrFirstName])
		}
		if attrs.Gender() != GenderFemale {
			t.Errorf("expected gender F, got %v", attrs[AttrGender])
		}
		if attrs.String(AttrBirthday) != "1990-04-01" {
			t.Errorf("expected birthday, got %v", attrs[AttrBirthday])
		}
		if attrs.String("email") != "asha@example.com" || attrs.String("phone") != "555-0100" {
			t.Error("expected contact fields to be present")
		}
		if attrs.String("gotra") != "Kashyap" || attrs.String(AttrBio) != "hello" {
			t.Error("expected gotra and bio")
		}
		if attrs.Has("pravara") {
			t.Error("expected empty fields to be skipped")
		}
	})

	t.Run("hidden fields are omitted", func(t *testing.T) {
		p := base
		p.HideEmail = true
		p.HidePhone = true
		p.HideDob = true
		attrs := p.Attributes()

		for _, key := range []string{"email", "phone", AttrBirthday} {
			if attrs.Has(key) {
				t.Errorf("expected %s to be hidden", key)
			}
		}
		if got := p.HiddenKeys(); len(got) != 3 {
			t.Errorf("expected 3 hidden keys, got %v", got)
		}
	})

	t.Run("no hidden keys by default", func(t *testing.T) {
		p := base
		if got := p.HiddenKeys(); len(got) != 0 {
			t.Errorf("expected no hidden keys, got %v", got)
		}
	})
}
