// Package settings holds runtime generation configuration: the active
// connection, sampling knobs, safety thresholds, and named presets. It
// replaces ambient global state with an explicit service backed by a store.
package settings

// Kind identifies a backend integration target.
type Kind string

const (
	// Direct HTTP APIs
	KindKobold    Kind = "Kobold"
	KindOoba      Kind = "Ooba"
	KindAphrodite Kind = "Aphrodite"
	KindOpenAI    Kind = "OAI"
	KindPaLM      Kind = "PaLM"

	// Volunteer job-queue service
	KindHorde Kind = "Horde"

	// Reverse-proxy-fronted vendor APIs
	KindProxyOpenAI    Kind = "P-OAI"
	KindProxyClaude    Kind = "P-Claude"
	KindProxyAWSClaude Kind = "P-AWS-Claude"
)

// Kinds lists every recognized provider kind.
var Kinds = []Kind{
	KindKobold, KindOoba, KindAphrodite, KindOpenAI, KindPaLM,
	KindHorde, KindProxyOpenAI, KindProxyClaude, KindProxyAWSClaude,
}

// Valid reports whether k is a recognized provider kind.
func (k Kind) Valid() bool {
	for _, known := range Kinds {
		if k == known {
			return true
		}
	}
	return false
}

// Sampling holds the numeric and boolean generation knobs. A zero value for
// any field means "unset": adapters substitute their documented default at
// payload-build time, so callers cannot request a literal zero for most knobs.
type Sampling struct {
	RepPen           float64 `json:"rep_pen"`
	RepPenRange      int     `json:"rep_pen_range"`
	Temperature      float64 `json:"temperature"`
	SamplerOrder     []int   `json:"sampler_order"`
	TopK             int     `json:"top_k"`
	TopP             float64 `json:"top_p"`
	TopA             float64 `json:"top_a"`
	TFS              float64 `json:"tfs"`
	Typical          float64 `json:"typical"`
	SingleLine       bool    `json:"singleline"`
	FullDeterminism  bool    `json:"sampler_full_determinism"`
	MaxLength        int     `json:"max_length"`
	MinLength        int     `json:"min_length"`
	MaxContextLength int     `json:"max_context_length"`
	MaxTokens        int     `json:"max_tokens"`
	PresencePenalty  float64 `json:"presence_penalty"`
	FrequencyPenalty float64 `json:"frequency_penalty"`
	MirostatMode     int     `json:"mirostat_mode"`
	MirostatTau      float64 `json:"mirostat_tau"`
	MirostatEta      float64 `json:"mirostat_eta"`
}

// DefaultSampling returns the stored defaults applied to a fresh install.
func DefaultSampling() Sampling {
	return Sampling{
		RepPen:           1.0,
		RepPenRange:      512,
		Temperature:      0.9,
		SamplerOrder:     []int{6, 3, 2, 5, 0, 1, 4},
		TopK:             0,
		TopP:             0.9,
		TopA:             0,
		TFS:              0,
		Typical:          0.9,
		SingleLine:       true,
		FullDeterminism:  false,
		MaxLength:        350,
		MinLength:        0,
		MaxContextLength: 2048,
		MaxTokens:        350,
	}
}

// BlockLevel is a safety-filter threshold for one harm category.
type BlockLevel string

const (
	BlockNone           BlockLevel = "BLOCK_NONE"
	BlockOnlyHigh       BlockLevel = "BLOCK_ONLY_HIGH"
	BlockMediumAndAbove BlockLevel = "BLOCK_MEDIUM_AND_ABOVE"
	BlockLowAndAbove    BlockLevel = "BLOCK_LOW_AND_ABOVE"
	BlockUnspecified    BlockLevel = "HARM_BLOCK_THRESHOLD_UNSPECIFIED"
)

// HarmCategories is the fixed, ordered category list the filtered provider
// expects in its safety block.
var HarmCategories = []string{
	"HARM_CATEGORY_UNSPECIFIED",
	"HARM_CATEGORY_DEROGATORY",
	"HARM_CATEGORY_TOXICITY",
	"HARM_CATEGORY_VIOLENCE",
	"HARM_CATEGORY_SEXUAL",
	"HARM_CATEGORY_MEDICAL",
	"HARM_CATEGORY_DANGEROUS",
}

// SafetyThresholds maps harm category to block level.
type SafetyThresholds map[string]BlockLevel

// DefaultSafetyThresholds disables blocking for every category.
func DefaultSafetyThresholds() SafetyThresholds {
	t := make(SafetyThresholds, len(HarmCategories))
	for _, c := range HarmCategories {
		t[c] = BlockNone
	}
	return t
}

// Level returns the configured level for category, or BLOCK_NONE when unset.
func (t SafetyThresholds) Level(category string) BlockLevel {
	if t == nil {
		return BlockNone
	}
	if lvl, ok := t[category]; ok && lvl != "" {
		return lvl
	}
	return BlockNone
}

// ConnectionProfile identifies one configured backend connection. Exactly one
// profile is current at a time; when no preset is selected an ephemeral
// default profile is assembled from the loose settings.
type ConnectionProfile struct {
	ID          string           `json:"_id"`
	Name        string           `json:"name"`
	Endpoint    string           `json:"endpoint"`
	Kind        Kind             `json:"endpointType"`
	Key         string           `json:"password"`
	OpenAIModel string           `json:"openaiModel"`
	ClaudeModel string           `json:"claudeModel"`
	PaLMModel   string           `json:"palmModel"`
	HordeModel  string           `json:"hordeModel"`
	Filters     SafetyThresholds `json:"palmFilters"`
}

// SamplingPreset is a named, persisted Sampling configuration.
type SamplingPreset struct {
	ID   string `json:"_id"`
	Name string `json:"name"`
	Sampling
}

// TokenizerKind selects the token-counting model family used by the UI.
type TokenizerKind string

const (
	TokenizerLLaMA TokenizerKind = "LLaMA"
	TokenizerGPT   TokenizerKind = "GPT"
)

// Snapshot is the immutable view of the settings read by the gateway at call
// time. Mutating a snapshot has no effect on the service.
type Snapshot struct {
	Endpoint     string
	Kind         Kind
	Key          string
	Sampling     Sampling
	StopBrackets bool
	MultiLine    bool
	OpenAIModel  string
	ClaudeModel  string
	PaLMModel    string
	HordeModel   string
	Filters      SafetyThresholds
	Tokenizer    TokenizerKind
}
