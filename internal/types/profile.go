// Package types provides type definitions for structured data used throughout the career-path system.
package types

// Profile is the structured extraction of a résumé.
// Every field is always present; sequences are never nil.
type Profile struct {
	Name       string       `json:"name"`
	Email      string       `json:"email"`
	Phone      string       `json:"phone"`
	Skills     []string     `json:"skills"`
	Education  []Education  `json:"education"`
	Experience []Experience `json:"experience"`
	RawText    string       `json:"raw_text"`
	Error      string       `json:"error,omitempty"`
}

// Education is one entry of a profile's education history
type Education struct {
	Degree      string `json:"degree"`
	Institution string `json:"institution"`
	Year        string `json:"year"`
}

// Experience is one entry of a profile's work history
type Experience struct {
	Role        string `json:"role"`
	Company     string `json:"company"`
	Duration    string `json:"duration"`
	Description string `json:"description"`
}

// NewDegradedProfile returns a profile with empty structured fields that keeps
// the raw text and records why extraction failed.
func NewDegradedProfile(rawText, reason string) Profile {
	return Profile{
		Skills:     []string{},
		Education:  []Education{},
		Experience: []Experience{},
		RawText:    rawText,
		Error:      reason,
	}
}

// Degraded reports whether the profile came out of a failed extraction.
func (p Profile) Degraded() bool {
	return p.Error != ""
}

// Clone returns a deep copy so callers cannot mutate a stored profile.
func (p Profile) Clone() Profile {
	out := p
	out.Skills = append([]string{}, p.Skills...)
	out.Education = append([]Education{}, p.Education...)
	out.Experience = append([]Experience{}, p.Experience...)
	return out
}
