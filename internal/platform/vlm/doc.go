// Package vlm implements the extract.Invoker interface against
// Google's Gemini API. The model reads the referenced document
// directly; this package never handles document bytes.
package vlm
