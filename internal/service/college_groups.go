package service

import "strings"

// reportedColleges is the fixed set of group labels used in rollups. Satellite
// campuses and historical spellings fold onto these.
var reportedColleges = []string{
	"CASS", "CBDEM", "CHEFS", "CA", "CHS", "IMEAS", "CHK", "CED", "CVM", "CTI",
	"MEDICINE", "CSM", "CEIT", "Libungan", "Mlang", "Aleosan", "Grad School", "COL",
}

// collegeGroup folds a raw college string onto its canonical report group.
func collegeGroup(raw string) string {
	if raw == "" {
		return "Unknown"
	}
	c := strings.TrimSpace(raw)

	switch {
	case c == "GS":
		return "Grad School"
	case strings.HasSuffix(c, "-LC"):
		return "Libungan"
	case strings.HasSuffix(c, "-MC"):
		return "Mlang"
	case strings.HasSuffix(c, "-AL"), strings.HasSuffix(c, "-AC"):
		return "Aleosan"
	case strings.Contains(c, "Libungan"):
		return "Libungan"
	case strings.Contains(c, "Mlang"):
		return "Mlang"
	case strings.Contains(c, "Aleosan"):
		return "Aleosan"
	case strings.Contains(c, "Graduate School"):
		return "Grad School"
	case c == "MED", c == "Medicine":
		return "MEDICINE"
	}

	return c
}
