package domain

// Profile is the signed-in user's own record. Saving it creates or updates
// the root node of the user's tree.
type Profile struct {
	Name              string `json:"name" yaml:"name" validate:"required,min=2"`
	Nickname          string `json:"nickname,omitempty" yaml:"nickname,omitempty"`
	Email             string `json:"email" yaml:"email" validate:"required,email"`
	Phone             string `json:"phone,omitempty" yaml:"phone,omitempty"`
	Gender            string `json:"gender" yaml:"gender" validate:"required"`
	DateOfBirth       string `json:"date_of_birth,omitempty" yaml:"date_of_birth,omitempty"`
	BirthCity         string `json:"birth_city,omitempty" yaml:"birth_city,omitempty"`
	BirthState        string `json:"birth_state,omitempty" yaml:"birth_state,omitempty"`
	BirthCountry      string `json:"birth_country,omitempty" yaml:"birth_country,omitempty"`
	CurrentCity       string `json:"current_city,omitempty" yaml:"current_city,omitempty"`
	CurrentState      string `json:"current_state,omitempty" yaml:"current_state,omitempty"`
	CurrentCountry    string `json:"current_country,omitempty" yaml:"current_country,omitempty"`
	Gotra             string `json:"gotra,omitempty" yaml:"gotra,omitempty"`
	Pravara           string `json:"pravara,omitempty" yaml:"pravara,omitempty"`
	Occupation        string `json:"occupation,omitempty" yaml:"occupation,omitempty"`
	Company           string `json:"company,omitempty" yaml:"company,omitempty"`
	Industry          string `json:"industry,omitempty" yaml:"industry,omitempty"`
	PrimaryLanguage   string `json:"primary_language,omitempty" yaml:"primary_language,omitempty"`
	SecondaryLanguage string `json:"secondary_language,omitempty" yaml:"secondary_language,omitempty"`
	Community         string `json:"community,omitempty" yaml:"community,omitempty"`
	Bio               string `json:"bio,omitempty" yaml:"bio,omitempty"`

	HideEmail bool `json:"hide_email" yaml:"hide_email"`
	HidePhone bool `json:"hide_phone" yaml:"hide_phone"`
	HideDob   bool `json:"hide_dob" yaml:"hide_dob"`
}

// Attributes maps the profile onto node attributes. Fields the user chose to
// hide are left out; empty fields are skipped.
func (p *Profile) Attributes() Attributes {
	attrs := Attributes{
		AttrFirstName: p.Name,
	}
	if g := ParseGender(p.Gender); g != GenderUnknown {
		attrs[AttrGender] = string(g)
	}

	set := func(key, value string) {
		if value != "" {
			attrs[key] = value
		}
	}
	if !p.HideDob {
		set(AttrBirthday, p.DateOfBirth)
	}
	if !p.HideEmail {
		set("email", p.Email)
	}
	if !p.HidePhone {
		set("phone", p.Phone)
	}
	set("nickname", p.Nickname)
	set("birth city", p.BirthCity)
	set("birth state", p.BirthState)
	set("birth country", p.BirthCountry)
	set("current city", p.CurrentCity)
	set("current state", p.CurrentState)
	set("current country", p.CurrentCountry)
	set("gotra", p.Gotra)
	set("pravara", p.Pravara)
	set("occupation", p.Occupation)
	set("company", p.Company)
	set("industry", p.Industry)
	set("primary language", p.PrimaryLanguage)
	set("secondary language", p.SecondaryLanguage)
	set("community", p.Community)
	set(AttrBio, p.Bio)

	return attrs
}

// HiddenKeys lists the attribute keys suppressed by the privacy flags
func (p *Profile) HiddenKeys() []string {
	var keys []string
	if p.HideDob {
		keys = append(keys, AttrBirthday)
	}
	if p.HideEmail {
		keys = append(keys, "email")
	}
	if p.HidePhone {
		keys = append(keys, "phone")
	}
	return keys
}
