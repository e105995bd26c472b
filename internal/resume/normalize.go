package resume

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/jonathan/career-path/internal/types"
)

// flexString accepts a JSON string, number or null.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		*f = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(trimmed, &s); err == nil {
		*f = flexString(s)
		return nil
	}
	var n float64
	if err := json.Unmarshal(trimmed, &n); err != nil {
		return err
	}
	*f = flexString(strconv.FormatFloat(n, 'f', -1, 64))
	return nil
}

func (f flexString) String() string {
	return strings.TrimSpace(string(f))
}

// extracted is the document the model is asked to produce.
type extracted struct {
	Name       flexString `json:"name"`
	Email      flexString `json:"email"`
	Phone      flexString `json:"phone"`
	Skills     []string   `json:"skills"`
	Education  []struct {
		Degree      flexString `json:"degree"`
		Institution flexString `json:"institution"`
		Year        flexString `json:"year"`
	} `json:"education"`
	Experience []struct {
		Role        flexString `json:"role"`
		Company     flexString `json:"company"`
		Duration    flexString `json:"duration"`
		Description flexString `json:"description"`
	} `json:"experience"`
}

// toProfile normalizes an extraction: scalars are trimmed, missing sequences
// become empty, blank entries are dropped and skills are deduplicated.
func (e extracted) toProfile(rawText string) types.Profile {
	p := types.Profile{
		Name:       e.Name.String(),
		Email:      e.Email.String(),
		Phone:      e.Phone.String(),
		Skills:     NormalizeSkills(e.Skills),
		Education:  make([]types.Education, 0, len(e.Education)),
		Experience: make([]types.Experience, 0, len(e.Experience)),
		RawText:    rawText,
	}

	for _, ed := range e.Education {
		entry := types.Education{Degree: ed.Degree.String(), Institution: ed.Institution.String(), Year: ed.Year.String()}
		if entry != (types.Education{}) {
			p.Education = append(p.Education, entry)
		}
	}
	for _, ex := range e.Experience {
		entry := types.Experience{
			Role:        ex.Role.String(),
			Company:     ex.Company.String(),
			Duration:    ex.Duration.String(),
			Description: ex.Description.String(),
		}
		if entry != (types.Experience{}) {
			p.Experience = append(p.Experience, entry)
		}
	}
	return p
}

// NormalizeSkills trims skills, drops blanks and removes case-insensitive
// duplicates, keeping the first occurrence and its casing. Never returns nil.
func NormalizeSkills(skills []string) []string {
	normalized := make([]string, 0, len(skills))
	seen := make(map[string]struct{}, len(skills))

	for _, skill := range skills {
		skill = strings.Join(strings.Fields(skill), " ")
		if skill == "" {
			continue
		}
		key := strings.ToLower(skill)
		if _, exists := seen[key]; exists {
			continue
		}
		seen[key] = struct{}{}
		normalized = append(normalized, skill)
	}
	return normalized
}
