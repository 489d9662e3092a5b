package generation

import (
	"fmt"
	"strings"
)

// PromptVersion is folded into cache keys; bump it when prompts change.
const PromptVersion = "3"

const notesSystemPrompt = `You are a podcast research assistant. You condense one part of a long transcript into dense notes that another writer will use without seeing the transcript.`

const descriptionSystemPrompt = `You are an expert YouTube content strategist. You write engaging, accurate descriptions for podcast episodes. Respond with a single JSON object and nothing else.`

const titlesSystemPrompt = `You are a viral YouTube title expert. You write compelling, truthful titles for podcast episodes. Respond with a single JSON object and nothing else.`

const chaptersSystemPrompt = `You are a podcast editor creating YouTube chapters. You identify the major topic transitions in a transcript. Respond with a single JSON object and nothing else.`

func notesPrompt(part, parts int, text string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "This is part %d of %d of a podcast transcript.\n\n", part+1, parts)
	b.WriteString("TRANSCRIPT PART:\n")
	b.WriteString(text)
	b.WriteString(`

Write notes for this part:
- The topics discussed, in order
- Key claims, stories, numbers, and names
- Memorable or quotable moments

Plain text only, no JSON, no preamble. Keep it under 400 words.`)
	return b.String()
}

// sourceBlock labels the material a final prompt works from.
func sourceBlock(material string, condensed bool) string {
	if condensed {
		return "EPISODE NOTES (condensed from the full transcript, in order):\n" + material
	}
	return "TRANSCRIPT:\n" + material
}

func descriptionPrompt(material string, condensed bool, maxRunes int) string {
	var b strings.Builder
	b.WriteString("Create an engaging YouTube description for this podcast episode.\n\n")
	b.WriteString(sourceBlock(material, condensed))
	fmt.Fprintf(&b, `

Create a YouTube description with these sections:
1. Hook (2-3 compelling sentences that grab attention and create curiosity)
2. Summary (3-5 bullet points covering the main topics and takeaways)
3. Call to Action (subscribe, like, comment prompt)

Guidelines:
- Write in an engaging, conversational tone
- Include relevant keywords naturally for SEO
- Keep the total description under 500 words and never above %d characters
- Use line breaks for readability
- Don't use hashtags

Respond with JSON: {"description": "<the description text>"}`, maxRunes)
	return b.String()
}

func titlesPrompt(material string, condensed bool, count int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Generate %d compelling title variations for this podcast episode.\n\n", count)
	b.WriteString(sourceBlock(material, condensed))
	fmt.Fprintf(&b, `

For each title, provide:
1. The title (under 60 characters for full display)
2. Thumbnail text (2-4 words that would overlay on a thumbnail)
3. Brief reasoning for why this title works

Use these proven title formulas:
- Curiosity gap ("I Tried X for 30 Days...")
- Contrarian take ("Why X is Actually Wrong")
- How-to with benefit ("How to X (Without Y)")
- List format ("5 Things...")
- Story hook ("The Day I Realized...")
- Question format ("Is X Really Worth It?")
- Urgency or warning ("Stop Doing X Before...")

Respond with JSON:
{"titles": [{"title": "The video title", "thumbnail_text": "SHORT TEXT", "reasoning": "Why this works"}]}

Generate exactly %d unique titles with different approaches.`, count)
	return b.String()
}

func chaptersPrompt(text string, count int, durationSeconds float64, part, parts int) string {
	var b strings.Builder
	if parts > 1 {
		fmt.Fprintf(&b, "This is part %d of %d of a podcast transcript (about %s long). Identify the major topic transitions within this part only.\n\n",
			part+1, parts, humanDuration(durationSeconds))
	} else {
		fmt.Fprintf(&b, "Identify the major topic transitions in this podcast transcript (about %s long).\n\n", humanDuration(durationSeconds))
	}
	b.WriteString("TRANSCRIPT:\n")
	b.WriteString(text)
	fmt.Fprintf(&b, `

REQUIREMENTS:
- Create up to %d chapters that cover the full text above, in order
- The first chapter starts at the very beginning of the text
- Each chapter should represent a distinct topic or segment
- Titles should be concise (2-6 words) and descriptive
- For each chapter give "quote": 5-12 words copied exactly from the transcript where the chapter begins
- Also give "position": where the chapter begins as a fraction of the text above (0.0 = start, 1.0 = end)
- Optionally give "description": one short line summarizing the chapter

Respond with JSON:
{"chapters": [{"quote": "so today we are talking about", "position": 0.0, "title": "Introduction"}]}`, count)
	return b.String()
}

func humanDuration(seconds float64) string {
	total := int(seconds)
	if total >= 3600 {
		return fmt.Sprintf("%dh%02dm", total/3600, (total%3600)/60)
	}
	return fmt.Sprintf("%dm%02ds", total/60, total%60)
}
