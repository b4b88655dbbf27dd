package prompt

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nao1215/scrapesynth/internal/chart"
	"github.com/nao1215/scrapesynth/internal/model"
)

// Persona directives.
const (
	analystPersona = "You are an expert data analyst."

	narratorPersona = `You are the "Dungeon Master" of this website.
Your goal is to gamify the browsing experience. Transform the provided website content into a text adventure setting.
- The <header> is the Sky Castle or Entrance.
- The 'Pricing' section is the Merchant's Guild.
- The 'About/Team' section is the Hall of Heroes.
- Describe the scene vividly using RPG tropes (loot, quests, enemies).
- END with 3 distinct choices (A, B, C) for what the player can do next based on the links/content.
- Be immersive, fun, and dramatic.`
)

// Source count disclosures.
const (
	comparisonMode = "Comparison Mode Active."
	singleMode     = "Single Source Mode."
)

const outputRules = `STRICT OUTPUT RULES (Ignored in RPG Mode):
- If User asks for "Images Only": Return ONLY an image gallery using Markdown: ![Alt](Src). No other text.
- If User asks for "Links Only": Return ONLY a bulleted list of links.
- If User asks for "Text Only": Return ONLY the cleaned body text. Do not show images/charts.
- If User asks for "Structure/Headings Only": Return ONLY the heading hierarchy.
- Otherwise, answer naturally using all available data, displaying images where relevant.`

const formattingRules = `FORMATTING STANDARDS (Apply to ALL responses):
- Use **Bold** for key terms and insights.
- Use "### Headings" to organize sections clearly.
- Use Bullet points for lists (never long blocks of text).
- Keep paragraphs short (maximum 3-4 lines).
- Use "---" (Horizontal Rules) to separate major sections.
- Make it visually pleasing and easy to scan.`

// dataHeader precedes the serialized records.
const dataHeader = "--- DATA SOURCES ---"

// chartInstruction asks for at most one chart block between the sentinels.
var chartInstruction = fmt.Sprintf(`When the data supports a chart, GENERATE one JSON object in this format wrapped in '%[1]s' and '%[2]s':
%[1]s
{
    "type": "bar", // or "pie"
    "title": "Chart Title",
    "data": [
        { "name": "Label 1", "value": 10 },
        { "name": "Label 2", "value": 20 }
    ]
}
%[2]s`, chart.StartSentinel, chart.EndSentinel)

// TimeTravelDisclosure returns the sentence announcing historical content.
func TimeTravelDisclosure(year int) string {
	return fmt.Sprintf("TIME TRAVEL MODE ACTIVE: You are analyzing a historical snapshot from around %d. "+
		"Treat this as historical data from that year.", year)
}

// Compose builds the instruction document. Each flag in modes is rendered
// independently.
func Compose(records model.AggregatedContext, instruction string, modes model.ModeFlags) string {
	var b strings.Builder

	b.WriteString("System: ")
	if modes.GameMode {
		b.WriteString(narratorPersona)
	} else {
		b.WriteString(analystPersona)
	}
	b.WriteString("\n\n")

	if modes.TimeTravel {
		b.WriteString(TimeTravelDisclosure(modes.Year()))
		b.WriteString("\n")
	}
	if records.IsComparison() {
		b.WriteString(comparisonMode)
	} else {
		b.WriteString(singleMode)
	}
	b.WriteString("\n\n")

	b.WriteString("User Request: ")
	b.WriteString(instruction)
	b.WriteString("\n\n")

	b.WriteString(outputRules)
	b.WriteString("\n\n")
	b.WriteString(formattingRules)
	b.WriteString("\n")
	b.WriteString(chartInstruction)
	b.WriteString("\n\n")

	b.WriteString(dataHeader)
	b.WriteString("\n")
	b.WriteString(SerializeRecords(records))
	b.WriteString("\n")

	return b.String()
}

// SerializeRecords renders records as two-space indented JSON. HTML
// characters are left unescaped so the model sees the text as extracted.
func SerializeRecords(records model.AggregatedContext) string {
	if records == nil {
		records = model.AggregatedContext{}
	}
	var b strings.Builder
	enc := json.NewEncoder(&b)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(records); err != nil {
		// Records hold only strings and ints.
		return "[]"
	}
	return strings.TrimRight(b.String(), "\n")
}
