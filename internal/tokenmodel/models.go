package tokenmodel

import (
	"regexp"
)

// NewDefaultRegistry returns a Registry pre-populated with the five
// required models (spec §4.7), "ultralight-state-machine" set as default,
// and the legacy aliases observed from earlier extension releases.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	models := []Model{
		simpleModel{},
		advancedModel{},
		cptBlendMixModel{},
		singleRegexPassModel{},
		ultralightStateMachineModel{},
	}
	for _, m := range models {
		_ = r.Register(m)
	}
	_ = r.SetDefaultModel("ultralight-state-machine")

	// Legacy names carried over from earlier extension versions.
	r.RegisterLegacyAlias("default", "ultralight-state-machine")
	r.RegisterLegacyAlias("fast", "simple")
	r.RegisterLegacyAlias("precise", "advanced")
	r.RegisterLegacyAlias("gpt", "cpt-blend-mix")
	r.RegisterLegacyAlias("regex", "single-regex-pass")
	return r
}

// simpleModel: characters / 4, the crudest approximation, used as a quick
// floor estimate.
type simpleModel struct{}

func (simpleModel) GetMetadata() Metadata {
	return Metadata{
		ID:          "simple",
		Name:        "Simple",
		ShortName:   "Simple",
		Description: "Character-count heuristic: roughly one token per four characters. Fast, coarse.",
	}
}

func (simpleModel) Estimate(rawText string, calibration float64) int {
	t := NormalizeText(rawText)
	n := len(t) / 4
	return ApplyCalibration(n, calibration)
}

// advancedModel blends a word-count estimate with a character-count
// estimate, weighting toward whichever signal is denser for the input
// (long average word length skews toward the character estimate).
type advancedModel struct{}

func (advancedModel) GetMetadata() Metadata {
	return Metadata{
		ID:          "advanced",
		Name:        "Advanced",
		ShortName:   "Advanced",
		Description: "Blends a word-count and character-count estimate, weighted by average word length.",
	}
}

func (advancedModel) Estimate(rawText string, calibration float64) int {
	t := NormalizeText(rawText)
	if t == "" {
		return 0
	}
	words := wordCount(t)
	chars := len(t)
	avgWordLen := float64(chars) / float64(max1(words))
	wordEstimate := float64(words) * 1.3
	charEstimate := float64(chars) / 4.0
	weight := clamp01((avgWordLen - 3) / 5)
	n := wordEstimate*(1-weight) + charEstimate*weight
	return ApplyCalibration(int(n+0.5), calibration)
}

// cptBlendMixModel mirrors the historical "cpt" (characters-per-token)
// heuristic blended with punctuation-density adjustment: punctuation and
// digits tend to tokenize more densely than prose.
type cptBlendMixModel struct{}

func (cptBlendMixModel) GetMetadata() Metadata {
	return Metadata{
		ID:          "cpt-blend-mix",
		Name:        "CPT Blend Mix",
		ShortName:   "CPT Mix",
		Description: "Characters-per-token baseline adjusted upward for punctuation- and digit-dense text.",
	}
}

var punctOrDigitRE = regexp.MustCompile(`[\p{P}0-9]`)

func (cptBlendMixModel) Estimate(rawText string, calibration float64) int {
	t := NormalizeText(rawText)
	if t == "" {
		return 0
	}
	chars := len(t)
	dense := len(punctOrDigitRE.FindAllString(t, -1))
	density := float64(dense) / float64(chars)
	cpt := 4.0 - 1.5*density // denser text -> fewer chars per token
	if cpt < 2 {
		cpt = 2
	}
	n := float64(chars) / cpt
	return ApplyCalibration(int(n+0.5), calibration)
}

// singleRegexPassModel tokenizes with one regular-expression pass that
// mimics common BPE boundary behavior: runs of letters, runs of digits, and
// individual punctuation/symbol characters each count as one token, and
// whitespace is a boundary only, matching the "one regex pass" the legacy
// extension used before switching to a state machine.
type singleRegexPassModel struct{}

func (singleRegexPassModel) GetMetadata() Metadata {
	return Metadata{
		ID:          "single-regex-pass",
		Name:        "Single Regex Pass",
		ShortName:   "Regex",
		Description: "One regex pass splitting text into letter runs, digit runs, and individual punctuation tokens.",
	}
}

var regexPassRE = regexp.MustCompile(`[\p{L}]+|[0-9]+|[^\s\p{L}0-9]`)

func (singleRegexPassModel) Estimate(rawText string, calibration float64) int {
	t := NormalizeText(rawText)
	n := len(regexPassRE.FindAllString(t, -1))
	return ApplyCalibration(n, calibration)
}

// ultralightStateMachineModel walks the text once with a tiny state
// machine (letter run / digit run / punctuation / whitespace), splitting
// long letter runs every ~4 characters to approximate sub-word tokenization
// without a real tokenizer table. This is the registry's default model: it
// is the cheapest model that still reacts to word-length variance.
type ultralightStateMachineModel struct{}

func (ultralightStateMachineModel) GetMetadata() Metadata {
	return Metadata{
		ID:          "ultralight-state-machine",
		Name:        "Ultralight State Machine",
		ShortName:   "Ultralight",
		Description: "Single-pass character state machine approximating sub-word tokenization without a tokenizer table.",
		Performance: "fastest",
		IsDefault:   true,
	}
}

func (ultralightStateMachineModel) Estimate(rawText string, calibration float64) int {
	t := NormalizeText(rawText)
	if t == "" {
		return 0
	}
	const maxRun = 4
	count := 0
	runKind := 0 // 0=none, 1=letter/digit, 2=punct
	runLen := 0
	flush := func() {
		if runLen == 0 {
			return
		}
		if runKind == 1 {
			count += (runLen + maxRun - 1) / maxRun
		} else {
			count += runLen
		}
		runLen = 0
	}
	for _, r := range t {
		switch {
		case r == ' ':
			flush()
			runKind = 0
		case isWordRune(r):
			if runKind != 1 {
				flush()
				runKind = 1
			}
			runLen++
		default:
			if runKind != 2 {
				flush()
				runKind = 2
			}
			runLen++
		}
	}
	flush()
	return ApplyCalibration(count, calibration)
}

func isWordRune(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r > 127
}

func max1(n int) int {
	if n < 1 {
		return 1
	}
	return n
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
