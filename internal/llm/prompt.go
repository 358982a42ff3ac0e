package llm

import (
	"strings"
)

// SystemPrompt is sent with every request
const SystemPrompt = `You are an editorial assistant. You classify a news article into exactly one of the 8 Smartocto 2.0 user needs and rate three impact indicators I1, I3 and I4. Every indicator must be one of 1, 3, 5, 7, 9, picking the closest level from the descriptions. Answer with JSON only, no other text. Check that every value is allowed before answering.`

const userNeedSection = `Classify the article into exactly ONE of the 8 Smartocto 2.0 user needs:

Know (fact driven)
- "Update me": new information, news, figures, latest developments.
- "Keep me engaged": follow-ups on a story the reader is already tracking.

Understand (context driven)
- "Educate me": explanations, how-tos, background knowledge.
- "Give me perspective": analysis, commentary, multiple viewpoints, deep context.

Feel (emotion driven)
- "Inspire me": inspiring stories, overcoming hardship, achievements.
- "Divert me": entertainment, humour, light lifestyle content.

Do (action driven)
- "Help me": concrete actions, tips, practical advice.
- "Connect me": community, calls to participate, events, interaction.
`

const gateSection = `Do not fall back to "Update me" or "Educate me" as a safe choice:
1. A concrete call to action or practical advice means Help me or Connect me.
2. Analysis, opinion or several viewpoints mean Give me perspective.
3. A structured explanation or how-to means Educate me.
4. The next development of an ongoing story means Keep me engaged.
5. Only plain new information with none of the above means Update me.
`

const scoringSection = `Rate the article on three indicators. Only 1, 3, 5, 7 or 9 are allowed (never 2, 4, 6, 8 or 10). If a rating falls between two levels pick the nearest one.

I1 - Emotional impact
- 1: no emotional element.
- 3: slight, unremarkable emotion.
- 5: some empathy, emotion present but not deep.
- 7: clearly evokes emotion (curiosity, excitement, compassion).
- 9: strong, shareable emotion that can drive community action.

I3 - Public discourse potential
- 1: sparks no discussion.
- 3: shareable but not debated.
- 5: may draw individual comments, no wave.
- 7: can trigger discussion within a specific community.
- 9: likely to become a hot, widely debated topic.

I4 - Policy or social change relevance
- 1: unrelated (entertainment, light news, personal hobbies).
- 3: low (consumer or local news, indirect link to policy).
- 5: medium (public issues without going into policy or reform).
- 7: high (directly discusses policy, law, major social trends).
- 9: very high (investigations or policy analysis that can drive change).
`

const (
	combinedOutput = `{"user_need": "<one of the 8 labels>", "I1": <1|3|5|7|9>, "I3": <1|3|5|7|9>, "I4": <1|3|5|7|9>}`
	userNeedOutput = `{"user_need": "<one of the 8 labels>"}`
	scoringOutput  = `{"I1": <1|3|5|7|9>, "I3": <1|3|5|7|9>, "I4": <1|3|5|7|9>}`
)

// CombinedPrompt asks for the label and all three indicators in one answer
func CombinedPrompt(articleText string) string {
	return buildPrompt(articleText, combinedOutput, userNeedSection, scoringSection)
}

// UserNeedPrompt asks only for the label, with tie-breaking rules
func UserNeedPrompt(articleText string) string {
	return buildPrompt(articleText, userNeedOutput, userNeedSection, gateSection)
}

// ScoringPrompt asks only for the three indicators
func ScoringPrompt(articleText string) string {
	return buildPrompt(articleText, scoringOutput, scoringSection)
}

func buildPrompt(articleText, output string, sections ...string) string {
	var sb strings.Builder
	for i, s := range sections {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(s)
	}
	sb.WriteString("\n---\nOUTPUT: reply with valid JSON only, shaped as\n")
	sb.WriteString(output)
	sb.WriteString("\n\n---\nARTICLE:\n")
	sb.WriteString(strings.TrimSpace(articleText))
	sb.WriteString("\n")
	return sb.String()
}
