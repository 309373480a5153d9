package prompt

// CoachingTips asks for a sectioned coaching tip about one gameplay aspect.
var CoachingTips = Template{
	Name:     "coaching-tips",
	MaxWords: 500,
	Body: `As an expert Rocket League 3v3 coach, provide a focused set of advice about {label} in {category} gameplay.

Create a concise coaching tip section (maximum {max_words} words) covering:

1. Technical Execution
- Core mechanics involved
- Key inputs and timing
- Critical positioning requirements

2. Implementation Guide
- When to use this technique/strategy
- How to integrate with team play
- Key decision-making points

3. Common Mistakes
- Typical errors to avoid
- Quick fixes and solutions
- Recovery options

4. Training Tips
- Specific practice methods
- Key focus points
- Progress indicators

Keep the tone direct and practical, focusing on actionable advice a player can immediately use.
Maintain technical precision while being concise and clear.`,
}

// TacticalAdvice asks for scenario advice that opens with a fixed phrase.
// Entries are terminated with an end-of-sequence marker.
var TacticalAdvice = Template{
	Name:        "tactical-advice",
	MaxWords:    400,
	Opening:     "In a 3v3 match, when {label}, the optimal strategy is to...",
	EntrySuffix: " EOS",
	Body: `As a professional Rocket League 3v3 coach, provide specific tactical advice for the following scenario:

When {label} in {category}, here's what you should do:

Create a concise response (maximum {max_words} words) following this structure:

1. Immediate Action
- What to do first
- Key mechanics to use
- Critical positioning

2. Team Coordination
- Communication needs
- Teammate expectations
- Role assignments

3. Follow-up Steps
- Next moves
- Adaptation points
- Recovery position

4. Common Mistakes
- What to avoid
- Emergency backup plans
- Risk management

Format the response to start with:
"{opening}"

Keep the advice practical, specific, and focused on high-level competitive play. Include specific button inputs or mechanical techniques where relevant.`,
}
