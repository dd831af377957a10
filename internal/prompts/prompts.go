package prompts

import (
	"bytes"
	"errors"
	"fmt"
)

// Render executes a prompt template with the provided data and returns the result.
// The data type must match the prompt:
//
//	text, err := prompts.Render(prompts.CaseImport, prompts.ImportData{CSV: batch})
func Render(id PromptID, data any) (string, error) {
	if err := ValidateData(id, data); err != nil {
		return "", err
	}
	tmpl, err := globalRegistry.get(id)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", errors.Join(ErrTemplateExecution, fmt.Errorf("prompt %s: %w", id, err))
	}
	return buf.String(), nil
}

// MustRender executes a prompt template and panics on error.
// Use it only with the typed data the prompt expects.
func MustRender(id PromptID, data any) string {
	result, err := Render(id, data)
	if err != nil {
		panic(fmt.Sprintf("prompts.MustRender(%s): %v", id, err))
	}
	return result
}

// List returns all registered prompt IDs.
func List() []PromptID {
	return globalRegistry.list()
}

// Exists checks if a prompt ID is registered.
func Exists(id PromptID) bool {
	_, err := globalRegistry.get(id)
	return err == nil
}

// ValidateData checks that data has the type the prompt expects.
// System instructions take no data.
func ValidateData(id PromptID, data any) error {
	var ok bool
	switch id {
	case SystemAuthor, SystemImport, SystemDefect, SystemVisual:
		ok = data == nil
	case CaseGenerate:
		_, ok = data.(GenerateData)
	case CaseRefine:
		_, ok = data.(RefineData)
	case CaseVariants:
		_, ok = data.(VariantsData)
	case CaseImport:
		_, ok = data.(ImportData)
	case DefectReport:
		_, ok = data.(DefectData)
	case EvidenceAnalysis:
		_, ok = data.(AnalysisData)
	default:
		return fmt.Errorf("%w: %s", ErrTemplateNotFound, id)
	}
	if !ok {
		return fmt.Errorf("%w: %s got %T", ErrInvalidData, id, data)
	}
	return nil
}
