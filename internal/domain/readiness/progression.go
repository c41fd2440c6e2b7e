package readiness

// Progression describes the step up from a role: the next role, the
// skills expected of someone holding this role, and the minimum average
// confidence HR guidance suggests before moving on.
type Progression struct {
	Next           string
	RequiredSkills []string
	MinConfidence  float64
}

// defaultLadder is the fallback ordering used when a role is missing
// from the progression table.
var defaultLadder = []string{
	"Junior Developer",
	"Mid-Level Developer",
	"Senior Developer",
	"Lead Developer",
	"Principal Engineer",
}

// defaultProgression is immutable configuration data; callers needing an
// alternate table inject one via WithProgression.
var defaultProgression = map[string]Progression{
	"Junior Developer": {
		Next:           "Mid-Level Developer",
		RequiredSkills: []string{"Programming Language", "Version Control"},
		MinConfidence:  60,
	},
	"Mid-Level Developer": {
		Next:           "Senior Developer",
		RequiredSkills: []string{"System Design", "Code Review", "Mentoring"},
		MinConfidence:  70,
	},
	"Senior Developer": {
		Next:           "Lead Developer",
		RequiredSkills: []string{"Architecture", "Team Leadership", "Project Management"},
		MinConfidence:  75,
	},
	"Lead Developer": {
		Next:           "Principal Engineer",
		RequiredSkills: []string{"Technical Strategy", "Cross-team Collaboration", "Innovation"},
		MinConfidence:  80,
	},
}
