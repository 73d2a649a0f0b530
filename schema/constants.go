package schema

// Custom string types for type safety.
type (
	// VariableType represents how a variable's values are interpreted.
	VariableType string

	// Category represents the broad area a hypothesis belongs to.
	Category string

	// Verdict represents the outcome of a correlation analysis.
	Verdict string

	// HypothesisStatus represents the lifecycle state of a hypothesis.
	HypothesisStatus string

	// PhaseState represents the baseline phase of a hypothesis.
	PhaseState string

	// PreferredTime represents when the user prefers to be prompted.
	PreferredTime string

	// PairingMode represents how data points are paired for correlation.
	PairingMode string

	// ParserKind represents the parser backend used for free-text hypotheses.
	ParserKind string

	// OutputMode represents the format of the output.
	OutputMode string

	// DatabaseBackend represents the database backend for persistence.
	DatabaseBackend string
)

// All variable types supported.
const (
	ScaleVariable   VariableType = "scale"   // 1-10
	BinaryVariable  VariableType = "binary"  // 0 or 1
	NumericVariable VariableType = "numeric" // unbounded
)

// All hypothesis categories supported.
const (
	CognitiveCategory  Category = "cognitive"
	PhysicalCategory   Category = "physical"
	EmotionalCategory  Category = "emotional"
	BehavioralCategory Category = "behavioral"
	SleepCategory      Category = "sleep"
	NutritionCategory  Category = "nutrition"
	GeneralCategory    Category = "general" // default
)

// All verdicts supported.
const (
	SupportedVerdict    Verdict = "supported"
	RejectedVerdict     Verdict = "rejected"
	InconclusiveVerdict Verdict = "inconclusive"
)

// All hypothesis statuses supported.
const (
	ActiveStatus    HypothesisStatus = "active" // default
	ArchivedStatus  HypothesisStatus = "archived"
	ConcludedStatus HypothesisStatus = "concluded"
)

// All phase states supported.
const (
	NoBaseline       PhaseState = "no-baseline"
	BaselineActive   PhaseState = "baseline-active"
	BaselineComplete PhaseState = "baseline-complete"
)

// All preferred prompting times supported.
const (
	MorningTime   PreferredTime = "morning"
	AfternoonTime PreferredTime = "afternoon"
	EveningTime   PreferredTime = "evening"
	AnyTime       PreferredTime = "anytime" // default
)

// All pairing modes supported.
const (
	ExactPairing       PairingMode = "exact" // default
	CalendarDayPairing PairingMode = "calendar-day"
)

// All parser backends supported.
const (
	RuleParser   ParserKind = "rule" // default
	OpenAIParser ParserKind = "openai"
)

// All output modes supported.
const (
	CSVOut  OutputMode = "csv"
	TextOut OutputMode = "text" // default
	JSONOut OutputMode = "json"
)

// All database backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	MemoryBackend     DatabaseBackend = "memory"
)

// Placeholders used when the parser cannot extract anything specific.
const (
	DefaultIntervention = "daily intervention"
	DefaultOutcome      = "well-being"
)

// AllCategories lists the keyword-scanned categories in scan priority order.
var AllCategories = []Category{
	CognitiveCategory,
	PhysicalCategory,
	EmotionalCategory,
	SleepCategory,
	NutritionCategory,
	BehavioralCategory,
}

// ValidVariableTypes lists all valid variable types.
var ValidVariableTypes = map[VariableType]struct{}{
	ScaleVariable:   {},
	BinaryVariable:  {},
	NumericVariable: {},
}

// ValidCategories lists all valid categories.
var ValidCategories = map[Category]struct{}{
	CognitiveCategory:  {},
	PhysicalCategory:   {},
	EmotionalCategory:  {},
	BehavioralCategory: {},
	SleepCategory:      {},
	NutritionCategory:  {},
	GeneralCategory:    {},
}

// ValidStatuses lists all valid hypothesis statuses.
var ValidStatuses = map[HypothesisStatus]struct{}{
	ActiveStatus:    {},
	ArchivedStatus:  {},
	ConcludedStatus: {},
}

// ValidPreferredTimes lists all valid prompting times.
var ValidPreferredTimes = map[PreferredTime]struct{}{
	MorningTime:   {},
	AfternoonTime: {},
	EveningTime:   {},
	AnyTime:       {},
}

// ValidPairingModes lists all valid pairing modes.
var ValidPairingModes = map[PairingMode]struct{}{
	ExactPairing:       {},
	CalendarDayPairing: {},
}

// ValidParserKinds lists all valid parser backends.
var ValidParserKinds = map[ParserKind]struct{}{
	RuleParser:   {},
	OpenAIParser: {},
}

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	CSVOut:  {},
	TextOut: {},
	JSONOut: {},
}

// ValidDatabaseBackends lists all valid database backends.
var ValidDatabaseBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	MemoryBackend:     {},
}
