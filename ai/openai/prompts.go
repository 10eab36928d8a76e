package openai

const skillExtractionSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "skills": {
      "type": "array",
      "items": {
        "type": "string",
        "pattern": "^[a-z0-9+#.]+( [a-z0-9+#.]+)*$"
      }
    }
  },
  "required": ["skills"],
  "additionalProperties": false
}`

const skillExtractionPrompt = `Extract the skill and technology terms from the given recruiter query and return them as JSON.

Output ONLY valid JSON which complies with the schema given below. Do not include any preamble, explanation,
greeting, or acknowledgment. Start your response directly with the opening brace { and end with the closing
brace }. Your output must exactly follow this schema:

%s

Rules:
- Skills must be lowercase.
- Preserve multi-word terms as single entries: "machine learning" is one skill, not two.
- Order from most specific to most general.
- Include programming languages, frameworks, tools, platforms, methodologies and certifications.
- Exclude seniority words (senior, junior, lead), years of experience, and locations.
- If no skills can be identified, return "skills": [].
- The JSON must parse without errors; no trailing commas, no extra keys, and no extraneous text outside the object.

Example:
Input: "Senior Python developer with machine learning and AWS experience"
Output:
{
  "skills": ["machine learning", "python", "aws"]
}

Example (informal):
Input: "need someone who knows react + node, typescript a plus"
Output:
{
  "skills": ["react", "node.js", "typescript"]
}

Example (no skills):
Input: "someone based in Berlin available next month"
Output:
{
  "skills": []
}`

const relatedSkillsSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "related": {
      "type": "array",
      "items": {
        "type": "string",
        "pattern": "^[a-z0-9+#.]+( [a-z0-9+#.]+)*$"
      }
    }
  },
  "required": ["related"],
  "additionalProperties": false
}`

const relatedSkillsPrompt = `Given a list of skills, suggest up to %d closely related skills a candidate with those skills
would plausibly also have: tools, frameworks, and adjacent specialties. Return them as JSON.

Output ONLY valid JSON which complies with the schema given below. Do not include any preamble, explanation,
greeting, or acknowledgment. Start your response directly with the opening brace { and end with the closing
brace }. Your output must exactly follow this schema:

%s

Rules:
- Suggestions must be lowercase.
- Never repeat a skill from the input list.
- Prefer concrete technologies over vague categories.
- The JSON must parse without errors; no trailing commas, no extra keys, and no extraneous text outside the object.

Example:
Input: "python, machine learning"
Output:
{
  "related": ["pytorch", "scikit-learn", "pandas", "numpy", "deep learning"]
}`

const rerankSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "scores": {
      "type": "array",
      "items": {
        "type": "number",
        "minimum": 0,
        "maximum": 1
      }
    }
  },
  "required": ["scores"],
  "additionalProperties": false
}`

const rerankPrompt = `Score each numbered candidate summary for relevance to the query. Return one score per candidate,
in the same order, as JSON.

Output ONLY valid JSON which complies with the schema given below. Do not include any preamble, explanation,
greeting, or acknowledgment. Start your response directly with the opening brace { and end with the closing
brace }. Your output must exactly follow this schema:

%s

Rules:
- Each score is a number between 0.0 (irrelevant) and 1.0 (perfect match).
- The scores array must have exactly one entry per numbered candidate, in order.
- Judge by skill overlap, experience fit, and seniority fit; ignore formatting.
- The JSON must parse without errors; no trailing commas, no extra keys, and no extraneous text outside the object.`

const explanationPrompt = `You write one short paragraph (2-3 sentences) explaining why a candidate matches a search query.
Mention the strongest overlapping skills and relevant experience. Be concrete and factual; never invent
skills the summary does not mention. Output plain text only, no JSON, no markdown.`
