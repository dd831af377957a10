package prompts

// PromptID identifies a prompt template by its path below templates/.
type PromptID string

// System instructions.
const (
	SystemAuthor PromptID = "system/author"
	SystemImport PromptID = "system/import"
	SystemDefect PromptID = "system/defect"
	SystemVisual PromptID = "system/visual"
)

// Task prompts.
const (
	CaseGenerate     PromptID = "case/generate"
	CaseRefine       PromptID = "case/refine"
	CaseVariants     PromptID = "case/variants"
	CaseImport       PromptID = "case/import"
	DefectReport     PromptID = "defect/report"
	EvidenceAnalysis PromptID = "evidence/analysis"
)

// Project is the project context a prompt is grounded in.
type Project struct {
	Name        string
	Description string
	Systems     string
	URLs        string
	Release     string
}

// Empty reports whether no project setting is filled in.
func (p Project) Empty() bool { return p == Project{} }

// Media kinds attached to a generation request.
const (
	MediaNone  = ""
	MediaImage = "image"
	MediaPDF   = "pdf"
)

// GenerateData is the input of CaseGenerate.
type GenerateData struct {
	Project  Project
	Context  string
	Role     string
	Priority string
	// Media is MediaImage or MediaPDF when a file is attached.
	Media string
}

// RefineData is the input of CaseRefine.
type RefineData struct {
	Project Project
	// CaseJSON is the trimmed case being improved.
	CaseJSON string
}

// VariantsData is the input of CaseVariants.
type VariantsData struct {
	Project  Project
	CaseJSON string
}

// ImportData is the input of CaseImport.
type ImportData struct {
	// CSV is one batch: the header row plus data rows.
	CSV string
}

// DefectData is the input of DefectReport.
type DefectData struct {
	CaseTitle string
	Step      string
	Expected  string
	Notes     string
	MetaJSON  string
}

// AnalysisData is the input of EvidenceAnalysis.
type AnalysisData struct {
	Project  Project
	Expected string
}
