package llm

import (
	"fmt"
	"strings"

	"infographify/internal/types"
)

const defaultStyle = "Modern, professional, corporate tech style with clean lines and balanced whitespace."

var detailGuide = map[types.DetailLevel]string{
	types.DetailSuperSimple:  "Minimal text, 1 key takeaway, large icons.",
	types.DetailBasic:        "Summary format, 2-3 bullet points.",
	types.DetailSemiDetailed: "Balanced layout with 3-4 sections.",
	types.DetailDetailed:     "Comprehensive breakdown, sub-metrics, and data points.",
	types.DetailSuperDetail:  "In-depth analysis, complex diagrams, extensive text blocks.",
}

// ScriptSystemInstruction tells the script writer which header format the
// slide parser expects.
func ScriptSystemInstruction(cfg types.GenerationConfig) string {
	cfg = cfg.WithDefaults()
	var b strings.Builder
	b.WriteString("You are an expert Infographic Script Designer.\n")
	b.WriteString("Your task is to transform provided content (text or URLs) into a structured infographic script.\n\n")
	b.WriteString("FORMATTING RULES:\n")
	b.WriteString("For each slide, you MUST use this exact header format:\n")
	b.WriteString("#### Infographic X/Y: [Title]\n\n")
	b.WriteString("Inside each slide block, include:\n")
	b.WriteString("- Layout Description: A visual description for an AI image generator.\n")
	b.WriteString("- Body Sections: Content to be displayed.\n")
	b.WriteString("- Content Details: Specific instructions on colors, icons, and text style.\n\n")
	b.WriteString("DETAIL LEVEL GUIDELINES:\n")
	for _, lvl := range types.DetailLevels {
		fmt.Fprintf(&b, "- %s: %s\n", lvl, detailGuide[lvl])
	}
	fmt.Fprintf(&b, "\nSTYLE: %s\n\n", firstNonEmpty(cfg.Style, defaultStyle))
	fmt.Fprintf(&b, "NUMBER OF SLIDES: Generate exactly %d slides.\n", cfg.SlideCount)
	fmt.Fprintf(&b, "LANGUAGE: Write every slide in %s.\n", cfg.LanguageName())
	return b.String()
}

// ScriptPrompt is the user turn sent along with ScriptSystemInstruction.
func ScriptPrompt(cfg types.GenerationConfig, source string) string {
	cfg = cfg.WithDefaults()
	return fmt.Sprintf(
		"Generate a %s infographic script with %d slides based on the following source content:\n\n%s",
		cfg.DetailLevel, cfg.SlideCount, strings.TrimSpace(source),
	)
}

// ImagePrompt wraps one slide's prompt for the image model.
func ImagePrompt(slidePrompt, aspectRatio string) string {
	aspectRatio = firstNonEmpty(strings.TrimSpace(aspectRatio), string(types.AspectSixteenNine))
	return "Create a professional, high-quality infographic image based on this script segment.\n" +
		"Ensure all text described is incorporated visually and clearly.\n" +
		"The style should be consistent, aesthetic, and professional.\n" +
		"Aspect Ratio: " + aspectRatio + "\n\n" +
		"Segment:\n" + slidePrompt
}
