package core

// Project is an entry of the closed project catalogue donations refer to.
type Project struct {
	Code  string
	Label string
}

var projects = []Project{
	{Code: "education", Label: "Education Support"},
	{Code: "healthcare", Label: "Healthcare Initiative"},
	{Code: "environment", Label: "Environmental Conservation"},
	{Code: "community", Label: "Community Development"},
}

// Projects returns the catalogue in display order. The slice is a copy.
func Projects() []Project {
	return append([]Project(nil), projects...)
}

// ProjectCodes returns the catalogue codes in display order.
func ProjectCodes() []string {
	codes := make([]string, len(projects))
	for i, p := range projects {
		codes[i] = p.Code
	}
	return codes
}

// ProjectLabel returns the label for a code, or the code itself when it is
// not in the catalogue.
func ProjectLabel(code string) string {
	for _, p := range projects {
		if p.Code == code {
			return p.Label
		}
	}
	return code
}

// IsKnownProject reports whether code belongs to the catalogue.
func IsKnownProject(code string) bool {
	for _, p := range projects {
		if p.Code == code {
			return true
		}
	}
	return false
}
