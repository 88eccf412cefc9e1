package models

// Phase is a named stage of an investigation that groups catalog steps.
type Phase string

const (
	PhaseOSArtifacts      Phase = "OS_ARTIFACTS"
	PhaseMemory           Phase = "MEMORY"
	PhaseMalwareStatic    Phase = "MALWARE_STATIC"
	PhaseMalwareDynamic   Phase = "MALWARE_DYNAMIC"
	PhaseMalwareReversing Phase = "MALWARE_REVERSING"
)

// CanonicalPhases lists every phase in navigation order.
var CanonicalPhases = []Phase{
	PhaseOSArtifacts,
	PhaseMemory,
	PhaseMalwareStatic,
	PhaseMalwareDynamic,
	PhaseMalwareReversing,
}

var phaseTitles = map[Phase]string{
	PhaseOSArtifacts:      "Phase 1: Deep OS & Artifacts",
	PhaseMemory:           "Phase 2: Memory Analysis",
	PhaseMalwareStatic:    "Phase 3.1: Static Analysis",
	PhaseMalwareDynamic:   "Phase 3.2: Dynamic Analysis",
	PhaseMalwareReversing: "Phase 3.3: Reverse Engineering",
}

// Title returns the section heading used in reports.
func (p Phase) Title() string {
	if title, ok := phaseTitles[p]; ok {
		return title
	}
	return string(p)
}

// Valid reports whether p is one of the canonical phases.
func (p Phase) Valid() bool {
	_, ok := phaseTitles[p]
	return ok
}

// Order returns the position of p in CanonicalPhases, or -1 for unknown phases.
func (p Phase) Order() int {
	for i, phase := range CanonicalPhases {
		if phase == p {
			return i
		}
	}
	return -1
}

// Status is the lifecycle state of a case.
type Status string

const (
	StatusOpen   Status = "Open"
	StatusClosed Status = "Closed"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	return s == StatusOpen || s == StatusClosed
}

// ColorTag is a display color label from a fixed palette.
type ColorTag string

const (
	ColorCyan    ColorTag = "bg-cyan-500"
	ColorBlue    ColorTag = "bg-blue-500"
	ColorPurple  ColorTag = "bg-purple-500"
	ColorRed     ColorTag = "bg-red-500"
	ColorOrange  ColorTag = "bg-orange-500"
	ColorEmerald ColorTag = "bg-emerald-500"

	DefaultTimelineColor = ColorCyan
	DefaultIOCColor      = ColorRed
)

// Palette lists the selectable color tags.
var Palette = []ColorTag{ColorCyan, ColorBlue, ColorPurple, ColorRed, ColorOrange, ColorEmerald}

// colorOrDefault returns c when it belongs to the palette and fallback otherwise.
func colorOrDefault(c ColorTag, fallback ColorTag) ColorTag {
	for _, p := range Palette {
		if p == c {
			return c
		}
	}
	return fallback
}
