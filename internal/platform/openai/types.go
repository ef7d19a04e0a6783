package openai

import "github.com/sashabaranov/go-openai/jsonschema"

// planResponse mirrors the structured-output contract: a top-level "plan"
// array of per-asset entries, each carrying its generated tasks.
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
// types match the JSON schema sent to the provider exactly; bounds are
// re-checked locally after decoding.
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

// planResponseSchema builds the JSON schema sent with the request so the
// provider constrains its own output. The local decoder remains the
// authority: anything that slips past the provider-side check still fails
// parseResponse.
func planResponseSchema() *jsonschema.Definition {
	taskDef := jsonschema.Definition{
		Type: jsonschema.Object,
		Properties: map[string]jsonschema.Definition{
			"taskName":         {Type: jsonschema.String},
			"description":      {Type: jsonschema.String},
			"priority":         {Type: jsonschema.Integer},
			"frequency":        {Type: jsonschema.String},
			"frequencyInWeeks": {Type: jsonschema.Integer},
			"difficulty": {
				Type: jsonschema.String,
				Enum: []string{"easy", "medium", "hard", "very hard"},
			},
			"duration":        {Type: jsonschema.String},
			"durationMinutes": {Type: jsonschema.Integer},
			"who": {
				Type: jsonschema.String,
				Enum: []string{"owner", "professional"},
			},
			"steps": {
				Type:  jsonschema.Array,
				Items: &jsonschema.Definition{Type: jsonschema.String},
			},
			"tools": {
				Type:  jsonschema.Array,
				Items: &jsonschema.Definition{Type: jsonschema.String},
			},
			"manufacturerSnippet":   {Type: jsonschema.String},
			"manufacturerSourceUrl": {Type: jsonschema.String},
			"manufacturerDocTitle":  {Type: jsonschema.String},
		},
		Required: []string{
			"taskName", "description", "priority", "frequency",
			"frequencyInWeeks", "difficulty", "duration", "durationMinutes",
			"who", "steps", "tools",
		},
	}

	entryDef := jsonschema.Definition{
		Type: jsonschema.Object,
		Properties: map[string]jsonschema.Definition{
			"maintenanceItemId":   {Type: jsonschema.String},
			"maintenanceItemName": {Type: jsonschema.String},
			"model":               {Type: jsonschema.String},
			"tasks": {
				Type:  jsonschema.Array,
				Items: &taskDef,
			},
		},
		Required: []string{"maintenanceItemId", "maintenanceItemName", "tasks"},
	}

	return &jsonschema.Definition{
		Type: jsonschema.Object,
		Properties: map[string]jsonschema.Definition{
			"plan": {
				Type:  jsonschema.Array,
				Items: &entryDef,
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
