package model

import "strings"

// methodClass folds the scraper's method strings ("KO/TKO", "Submission",
// "U-DEC", "TKO - Doctor's Stoppage", ...) into KO, SUB, DEC or "".
func methodClass(method string) string {
	m := strings.ToUpper(strings.TrimSpace(method))
	switch {
	case m == "":
		return ""
	case strings.Contains(m, "KO"), strings.Contains(m, "DOCTOR"):
		return "KO"
	case strings.HasPrefix(m, "SUB"):
		return "SUB"
	case strings.Contains(m, "DEC"):
		return "DEC"
	}
	return ""
}
