package app

import "strings"

// StationKey identifies a duty station. The set is closed reference data;
// exactly one person occupies a station per shift.
type StationKey string

const (
	StationORMain        StationKey = "or_main"
	StationORObstetrics  StationKey = "or_obstetrics"
	StationORCardiac     StationKey = "or_cardiac"
	StationORNeuro       StationKey = "or_neuro"
	StationORPediatric   StationKey = "or_pediatric"
	StationORUrology     StationKey = "or_urology"
	StationOROrthopedics StationKey = "or_orthopedics"
	StationICU           StationKey = "icu"
	StationPICU          StationKey = "picu"
	StationNICU          StationKey = "nicu"
	StationER            StationKey = "er"
	StationTrauma        StationKey = "trauma"
	StationWardA         StationKey = "ward_a"
	StationWardB         StationKey = "ward_b"
	StationPainClinic    StationKey = "pain_clinic"
	StationPreopClinic   StationKey = "preop_clinic"
	StationRecovery      StationKey = "recovery"
	StationSeniorOnCall  StationKey = "senior_on_call"
)

// Station carries the locale label and display metadata for one duty post.
type Station struct {
	Key      StationKey `json:"key"`
	Label    string     `json:"label"`
	Category string     `json:"category"`
	Color    string     `json:"color"`
}

// Stations lists the full catalog in enumeration order. Statistics
// tie-breaking and feed ordering both follow this order.
var Stations = []Station{
	{Key: StationORMain, Label: "חדר ניתוח ראשי", Category: "operating_room", Color: "#1565c0"},
	{Key: StationORObstetrics, Label: "חדר לידה", Category: "operating_room", Color: "#ad1457"},
	{Key: StationORCardiac, Label: "ניתוחי לב", Category: "operating_room", Color: "#b71c1c"},
	{Key: StationORNeuro, Label: "נוירוכירורגיה", Category: "operating_room", Color: "#4527a0"},
	{Key: StationORPediatric, Label: "ניתוחי ילדים", Category: "operating_room", Color: "#00838f"},
	{Key: StationORUrology, Label: "אורולוגיה", Category: "operating_room", Color: "#558b2f"},
	{Key: StationOROrthopedics, Label: "אורתופדיה", Category: "operating_room", Color: "#6d4c41"},
	{Key: StationICU, Label: "טיפול נמרץ", Category: "intensive_care", Color: "#c62828"},
	{Key: StationPICU, Label: "טיפול נמרץ ילדים", Category: "intensive_care", Color: "#ef6c00"},
	{Key: StationNICU, Label: "פגייה", Category: "intensive_care", Color: "#f9a825"},
	{Key: StationER, Label: "מלר\"ד", Category: "emergency", Color: "#2e7d32"},
	{Key: StationTrauma, Label: "טראומה", Category: "emergency", Color: "#37474f"},
	{Key: StationWardA, Label: "מחלקה א'", Category: "ward", Color: "#0277bd"},
	{Key: StationWardB, Label: "מחלקה ב'", Category: "ward", Color: "#00695c"},
	{Key: StationPainClinic, Label: "מרפאת כאב", Category: "clinic", Color: "#7b1fa2"},
	{Key: StationPreopClinic, Label: "מרפאה טרום ניתוחית", Category: "clinic", Color: "#283593"},
	{Key: StationRecovery, Label: "התאוששות", Category: "clinic", Color: "#9e9d24"},
	{Key: StationSeniorOnCall, Label: "תורן בכיר", Category: "senior", Color: "#424242"},
}

// stationByKey is derived from Stations at init for O(1) lookups.
var stationByKey = func() map[StationKey]Station {
	m := make(map[StationKey]Station, len(Stations))
	for _, s := range Stations {
		m[s.Key] = s
	}
	return m
}()

// headerAliases maps localized spreadsheet column headers to canonical
// station keys. The Hebrew forms are the ones the department sheets use;
// a header that already is a canonical key needs no entry here.
var headerAliases = map[string]StationKey{
	"חדר ניתוח ראשי":       StationORMain,
	"חדר ניתוח":            StationORMain,
	"חדר לידה":             StationORObstetrics,
	"ניתוחי לב":            StationORCardiac,
	"נוירוכירורגיה":        StationORNeuro,
	"ניתוחי ילדים":         StationORPediatric,
	"אורולוגיה":            StationORUrology,
	"אורתופדיה":            StationOROrthopedics,
	"טיפול נמרץ":           StationICU,
	"טיפול נמרץ ילדים":     StationPICU,
	"פגייה":                StationNICU,
	"מלר\"ד":               StationER,
	"מיון":                 StationER,
	"טראומה":               StationTrauma,
	"מחלקה א'":             StationWardA,
	"מחלקה א":              StationWardA,
	"מחלקה ב'":             StationWardB,
	"מחלקה ב":              StationWardB,
	"מרפאת כאב":            StationPainClinic,
	"מרפאה טרום ניתוחית":   StationPreopClinic,
	"התאוששות":             StationRecovery,
	"תורן בכיר":            StationSeniorOnCall,
}

// dateHeaders are the recognized names for the date column.
var dateHeaders = map[string]bool{
	"תאריך": true,
	"date":  true,
}

// StationLookup returns the catalog entry for a key, if it is known.
func StationLookup(key StationKey) (Station, bool) {
	s, ok := stationByKey[key]
	return s, ok
}

// StationLabel returns the locale label for a key, falling back to the
// raw key for stations imported through unrecognized headers.
func StationLabel(key StationKey) string {
	if s, ok := stationByKey[key]; ok {
		return s.Label
	}
	return string(key)
}

// CanonicalStationKey maps a spreadsheet header to a station key.
// Recognized localized headers map to their catalog key; anything else
// passes through unchanged so sheets with ad-hoc columns still import.
func CanonicalStationKey(header string) StationKey {
	h := strings.TrimSpace(header)
	if key, ok := headerAliases[h]; ok {
		return key
	}
	return StationKey(h)
}

// IsDateHeader reports whether a header names the roster date column.
func IsDateHeader(header string) bool {
	return dateHeaders[strings.ToLower(strings.TrimSpace(header))]
}
