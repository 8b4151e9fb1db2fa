package agent

import (
	"fmt"
	"strings"
)

// maxContextTurnLen truncates conversation turns echoed into the prompt so a
// long previous answer cannot crowd out the new question.
const maxContextTurnLen = 200

// BuildSystemPrompt composes the system instruction: the tool catalog plus
// the grounding rules that keep final answers verbatim-faithful to retrieved
// observations.
func BuildSystemPrompt(institution string, reg Registry) string {
	var b strings.Builder
	fmt.Fprintf(&b, `You are a helpful %[1]s Virtual Assistant that uses the ReAct (Reasoning and Acting) framework to answer student questions.

You have access to the following tools:
- database_query: Query the %[1]s knowledge database for official information about courses, prerequisites, programs, deadlines, FAQs, campus resources, etc. ALWAYS use this tool FIRST for any %[1]s-specific questions.
- web_search: Search the web for current information not in the database

`, institution)
	b.WriteString(reg.Catalog())
	fmt.Fprintf(&b, `
Use this format:

Thought: Consider what information you need to answer the question
Action: [tool_name]
Action Input: [input for the tool]
Observation: [result from the tool]
... (repeat Thought/Action/Observation as needed)
Thought: I now have enough information to answer
Final Answer: [your complete answer to the user]

CRITICAL RULES - READ CAREFULLY:
1. ALWAYS use database_query tool FIRST for questions about %[1]s courses, prerequisites, programs, or policies
2. If database_query returns "No information found", you MUST use web_search tool next
3. When using web_search, search for "%[1]s [course code] prerequisites" to find current information
4. When you see the Observation from database_query with actual course information, read it WORD BY WORD
5. Your Final Answer MUST use the EXACT text from the Observation - DO NOT CHANGE ANY WORDS
6. DO NOT add any information that is not in the Observation
7. DO NOT substitute or add different course codes than what appears in the results
8. The %[2]s marker shows you the best result - use ONLY that information
9. Copy the prerequisite requirements EXACTLY as they appear - including phrases like "or instructor consent"
10. DO NOT hallucinate or invent course numbers that are not in the Observation
11. If BOTH database_query AND web_search fail, then say: "I couldn't find information about this course. Please check the official %[1]s catalog or contact the department."
12. NEVER make up prerequisites - always use tools first`, institution, MostRelevantMarker)
	return b.String()
}

// BuildUserPrompt composes the initial user prompt: a worked example that
// primes correct tool usage, the most recent conversation exchange for
// follow-up continuity, and the question itself.
func BuildUserPrompt(institution, query, extra string, turns []ConversationTurn) string {
	var b strings.Builder
	fmt.Fprintf(&b, `Here's an example of how to properly answer a question:

Question: What are the prerequisites for CMPE 259?

Thought: I need to find information about CMPE 259 prerequisites. I should query the %[1]s database first.
Action: database_query
Action Input: CMPE 259 prerequisites
Observation: %[2]s CMPE 259 - Natural Language Processing: Prerequisites: CMPE 252 or CMPE 255 or CMPE 257, or instructor consent.
Thought: I found the prerequisites in the database. I will provide the exact information.
Final Answer: The prerequisites for CMPE 259 (Natural Language Processing) are: CMPE 252 or CMPE 255 or CMPE 257, or instructor consent.

---
Now answer the following question using the same approach:

`, institution, MostRelevantMarker)

	if len(turns) >= 2 {
		recent := turns[len(turns)-2:]
		b.WriteString("Recent conversation for context:\n")
		for _, turn := range recent {
			content := turn.Content
			if len(content) > maxContextTurnLen {
				content = content[:maxContextTurnLen]
			}
			fmt.Fprintf(&b, "%s: %s\n", titleRole(turn.Role), content)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "Question: %s\n\n", query)
	if extra != "" {
		fmt.Fprintf(&b, "Additional Context: %s\n\n", extra)
	}
	b.WriteString("Thought:")
	return b.String()
}

// RenderScratchpad appends the completed reasoning steps to the base prompt.
// The step log is the source of truth; the prompt string is rendered fresh
// before every model call.
func RenderScratchpad(base string, steps []ReasoningStep) string {
	var b strings.Builder
	b.WriteString(base)
	for _, step := range steps {
		if step.Err != "" {
			continue
		}
		fmt.Fprintf(&b, "\n\nThought: %s", step.Thought)
		if step.Action != "" {
			fmt.Fprintf(&b, "\nAction: %s", step.Action)
		}
		if step.ActionInput != "" {
			fmt.Fprintf(&b, "\nAction Input: %s", step.ActionInput)
		}
		if step.Observation != "" {
			fmt.Fprintf(&b, "\nObservation: %s", step.Observation)
		}
		b.WriteString("\n\nContinue reasoning:")
	}
	return b.String()
}

func titleRole(r Role) string {
	switch r {
	case RoleUser:
		return "User"
	case RoleAssistant:
		return "Assistant"
	}
	return string(r)
}
