package ai

import (
	"github.com/mrz1836/testmo/internal/domain"
	"github.com/mrz1836/testmo/internal/prompts"
)

// projectOf maps project settings onto the prompt context.
func projectOf(p domain.ProjectSettings) prompts.Project {
	return prompts.Project{
		Name:        p.ProjectName,
		Description: p.Description,
		Systems:     p.Systems,
		URLs:        p.URLs,
		Release:     p.ReleaseVersion,
	}
}

func systemPrompt(id prompts.PromptID) string {
	return prompts.MustRender(id, nil)
}

func generatePrompt(in *GenerateInput) string {
	data := prompts.GenerateData{
		Project:  projectOf(in.Settings),
		Context:  in.Context,
		Role:     in.Role,
		Priority: string(in.Priority),
	}
	if in.Media != nil {
		data.Media = prompts.MediaImage
		if in.Media.MIMEType == "application/pdf" {
			data.Media = prompts.MediaPDF
		}
	}
	return prompts.MustRender(prompts.CaseGenerate, data)
}

type refineStep struct {
	Desc     string `json:"desc"`
	Expected string `json:"expected"`
	Data     string `json:"data"`
}

type refineInput struct {
	Title   string       `json:"title"`
	Summary string       `json:"summary"`
	Steps   []refineStep `json:"steps"`
	Meta    domain.Meta  `json:"meta,omitempty"`
}

func refinePrompt(caseJSON string, p domain.ProjectSettings) string {
	return prompts.MustRender(prompts.CaseRefine, prompts.RefineData{Project: projectOf(p), CaseJSON: caseJSON})
}

type variantInput struct {
	Title   string      `json:"title"`
	Summary string      `json:"summary"`
	Steps   []string    `json:"steps"`
	Meta    domain.Meta `json:"meta,omitempty"`
}

func variantsPrompt(caseJSON string, p domain.ProjectSettings) string {
	return prompts.MustRender(prompts.CaseVariants, prompts.VariantsData{Project: projectOf(p), CaseJSON: caseJSON})
}

func importPrompt(batch string) string {
	return prompts.MustRender(prompts.CaseImport, prompts.ImportData{CSV: batch})
}

func defectPrompt(tc *domain.TestCase, step *domain.TestStep, metaJSON string) string {
	return prompts.MustRender(prompts.DefectReport, prompts.DefectData{
		CaseTitle: tc.Title,
		Step:      step.Description,
		Expected:  step.ExpectedResult,
		Notes:     step.Notes,
		MetaJSON:  metaJSON,
	})
}

func analysisPrompt(expected string, p domain.ProjectSettings) string {
	return prompts.MustRender(prompts.EvidenceAnalysis, prompts.AnalysisData{Project: projectOf(p), Expected: expected})
}
