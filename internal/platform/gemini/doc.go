// Package gemini implements the generation.Generator interface using
// Google's Gemini API with JSON-constrained output. It is the alternate
// provider, selected with llm.provider = "gemini".
package gemini
