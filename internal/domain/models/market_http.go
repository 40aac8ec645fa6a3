package models

// OverviewRequest selects which prediction model's outputs to display.
// An empty model falls back to the first configured model key.
type OverviewRequest struct {
	Model string `query:"model" json:"model" validate:"omitempty,alphanum,max=32"`
}
