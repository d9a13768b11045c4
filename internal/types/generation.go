package types

import "strings"

type DetailLevel string

const (
	DetailSuperSimple  DetailLevel = "super-simple"
	DetailBasic        DetailLevel = "basic"
	DetailSemiDetailed DetailLevel = "semi-detailed"
	DetailDetailed     DetailLevel = "detailed"
	DetailSuperDetail  DetailLevel = "super-detailed"
)

// DetailLevels lists the tiers from least to most detailed.
var DetailLevels = []DetailLevel{
	DetailSuperSimple,
	DetailBasic,
	DetailSemiDetailed,
	DetailDetailed,
	DetailSuperDetail,
}

type AspectRatio string

const (
	AspectSixteenNine AspectRatio = "16:9"
	AspectFourThree   AspectRatio = "4:3"
	AspectSquare      AspectRatio = "1:1"
)

type Language string

const (
	LanguageEnglish Language = "en"
	LanguageItalian Language = "it"
)

const DefaultSlideCount = 5

// GenerationConfig is the per-run setting set chosen by the user. It is
// forwarded to the script and image clients as-is; only WithDefaults
// interprets it.
type GenerationConfig struct {
	// SlideCount is a hint for the script writer, not a parser constraint.
	SlideCount  int         `json:"slideCount" yaml:"slideCount"`
	DetailLevel DetailLevel `json:"detailLevel" yaml:"detailLevel"`
	// Style is free text; empty selects the house style.
	Style       string      `json:"style,omitempty" yaml:"style,omitempty"`
	AspectRatio AspectRatio `json:"aspectRatio" yaml:"aspectRatio"`
	Language    Language    `json:"language" yaml:"language"`
	// Model is the text model used for scripting. Empty uses the server default.
	Model string `json:"model,omitempty" yaml:"model,omitempty"`
	// ImageModel is the image model used per slide. Empty uses the server default.
	ImageModel string `json:"imageModel,omitempty" yaml:"imageModel,omitempty"`
}

// WithDefaults fills unset fields with the values the UI starts from.
func (c GenerationConfig) WithDefaults() GenerationConfig {
	if c.SlideCount <= 0 {
		c.SlideCount = DefaultSlideCount
	}
	if strings.TrimSpace(string(c.DetailLevel)) == "" {
		c.DetailLevel = DetailBasic
	}
	if strings.TrimSpace(string(c.AspectRatio)) == "" {
		c.AspectRatio = AspectSixteenNine
	}
	if strings.TrimSpace(string(c.Language)) == "" {
		c.Language = LanguageEnglish
	}
	c.Style = strings.TrimSpace(c.Style)
	c.Model = strings.TrimSpace(c.Model)
	c.ImageModel = strings.TrimSpace(c.ImageModel)
	return c
}

// LanguageName maps the language code to the name used in prompts.
func (c GenerationConfig) LanguageName() string {
	switch Language(strings.ToLower(string(c.Language))) {
	case LanguageItalian:
		return "Italian"
	default:
		return "English"
	}
}
