package models

// AnalyzeResponse is returned after a spreadsheet has been analyzed.
// Slices are never nil so they always encode as JSON arrays.
type AnalyzeResponse struct {
	TaskID             string   `json:"task_id"`
	PreviewData        []Record `json:"preview_data"`
	TotalGroupedItems  int      `json:"total_grouped_items"`
	TotalGroups        int      `json:"total_groups"`
	GroupColorsPresent []string `json:"group_colors_present"`
}

// ErrorResponse is the body of every failed API call.
type ErrorResponse struct {
	Message string `json:"message"`
}
