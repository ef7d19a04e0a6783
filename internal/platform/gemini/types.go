package gemini

import "google.golang.org/genai"

// planResponse mirrors the JSON contract both providers share: a top-level
// "plan" array of per-asset entries, each carrying its generated tasks.
type planResponse struct {
	Plan []planEntry `json:"plan"`
}

// planEntry is one asset's slice of the plan.
type planEntry struct {
	MaintenanceItemID   string       `json:"maintenanceItemId"`
	MaintenanceItemName string       `json:"maintenanceItemName"`
	Model               string       `json:"model,omitempty"`
	Tasks               []taskSchema `json:"tasks"`
}

// taskSchema is the wire shape of a single generated task. Field names and
// types match the response schema exactly; bounds are re-checked locally
// after decoding.
type taskSchema struct {
	TaskName              string   `json:"taskName"`
	Description           string   `json:"description"`
	Priority              int      `json:"priority"`
	Frequency             string   `json:"frequency"`
	FrequencyInWeeks      int      `json:"frequencyInWeeks"`
	Difficulty            string   `json:"difficulty"`
	Duration              string   `json:"duration"`
	DurationMinutes       int      `json:"durationMinutes"`
	Who                   string   `json:"who"`
	Steps                 []string `json:"steps"`
	Tools                 []string `json:"tools"`
	ManufacturerSnippet   string   `json:"manufacturerSnippet,omitempty"`
	ManufacturerSourceURL string   `json:"manufacturerSourceUrl,omitempty"`
	ManufacturerDocTitle  string   `json:"manufacturerDocTitle,omitempty"`
}

// asset is the input the prompt presents to the model for one item.
type asset struct {
	MaintenanceItemID   string `json:"maintenanceItemId"`
	MaintenanceItemName string `json:"maintenanceItemName"`
	Model               string `json:"model,omitempty"`
}

// planResponseSchema builds the response schema attached to the request so
// Gemini constrains its own output. The local decoder remains the authority:
// anything that slips past the provider-side check still fails parsing.
func planResponseSchema() *genai.Schema {
	stringArray := &genai.Schema{
		Type:  genai.TypeArray,
		Items: &genai.Schema{Type: genai.TypeString},
	}

	taskDef := &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"taskName":         {Type: genai.TypeString},
			"description":      {Type: genai.TypeString},
			"priority":         {Type: genai.TypeInteger},
			"frequency":        {Type: genai.TypeString},
			"frequencyInWeeks": {Type: genai.TypeInteger},
			"difficulty": {
				Type: genai.TypeString,
				Enum: []string{"easy", "medium", "hard", "very hard"},
			},
			"duration":        {Type: genai.TypeString},
			"durationMinutes": {Type: genai.TypeInteger},
			"who": {
				Type: genai.TypeString,
				Enum: []string{"owner", "professional"},
			},
			"steps":                 stringArray,
			"tools":                 stringArray,
			"manufacturerSnippet":   {Type: genai.TypeString},
			"manufacturerSourceUrl": {Type: genai.TypeString},
			"manufacturerDocTitle":  {Type: genai.TypeString},
		},
		Required: []string{
			"taskName", "description", "priority", "frequency",
			"frequencyInWeeks", "difficulty", "duration", "durationMinutes",
			"who", "steps", "tools",
		},
	}

	entryDef := &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"maintenanceItemId":   {Type: genai.TypeString},
			"maintenanceItemName": {Type: genai.TypeString},
			"model":               {Type: genai.TypeString},
			"tasks": {
				Type:  genai.TypeArray,
				Items: taskDef,
			},
		},
		Required: []string{"maintenanceItemId", "maintenanceItemName", "tasks"},
	}

	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"plan": {
				Type:  genai.TypeArray,
				Items: entryDef,
			},
		},
		Required: []string{"plan"},
	}
}

// planPrompt instructs the model to return exact fields and types required
// by the schema. No extra fields, no strings for numeric fields, no synonyms.
const planPrompt = `You are a precise maintenance planner. Return JSON ONLY that adheres to the schema I provide.
Follow these rules EXACTLY:

- Output a JSON object with a top-level "plan" array. Do not wrap in prose.
- For every asset, include:
  - "maintenanceItemId": string identifier (provided in input Assets)
  - "maintenanceItemName": short name
  - "model": include if provided in input Assets

- For each task, you MUST output the following properties with the EXACT names and types:
  - taskName: string
  - description: string
  - priority: integer (1..10)  // 1=critical, 5=recommended, 10=optional
  - frequency: string (e.g., "weekly", "monthly", "yearly", "as needed")
  - frequencyInWeeks: integer  // numeric weeks; if "as needed", use 52 and say so in description
  - difficulty: one of ["easy","medium","hard","very hard"]
  - duration: string (human-readable, e.g., "30 minutes", "1-2 hours")
  - durationMinutes: integer  // exact total minutes for the task duration
  - who: one of ["owner","professional"]
  - steps: array of strings
  - tools: array of strings

- Please include manufacturer citation fields (MUST be specific to the model/series):
  - manufacturerSnippet: string (<= 80 words, short verbatim)
  - manufacturerSourceUrl: string (public OEM URL)
  - manufacturerDocTitle: string

- DO NOT invent URLs or quotes. If you are unsure, omit the three manufacturer fields.
- If an asset includes a specific model number, tailor tasks to that exact model or compatible series.

- SAFETY: Keep all homeowner tasks safe; if risky work is required, set who="professional".

- STRICTNESS:
  - All numeric fields must be numbers (not strings).
  - Use EXACT property names.
  - Do NOT include any fields other than those allowed by the schema.
  - Ensure JSON is valid and matches the schema exactly.

Return ONLY the JSON object. No extra commentary.`
