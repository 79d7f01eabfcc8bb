package dto

const (
	BudgetFormatBC3  = "bc3"
	BudgetFormatXLSX = "xlsx"
)

type GenerateBudgetRequest struct {
	Items       []string `json:"items" validate:"required,min=1,max=100,dive,required,max=500"`
	ProjectName string   `json:"project_name,omitempty" validate:"omitempty,max=200"`
	Format      string   `json:"format,omitempty" validate:"omitempty,oneof=bc3 xlsx"`
}

// BudgetLineDTO reports the outcome of one requested line item alongside
// the generated file.
type BudgetLineDTO struct {
	Query     string  `json:"query"`
	Code      string  `json:"code,omitempty"`
	Summary   string  `json:"summary,omitempty"`
	Unit      string  `json:"unit,omitempty"`
	Price     float64 `json:"price"`
	Estimated bool    `json:"estimated"`
	Error     string  `json:"error,omitempty"`
}
