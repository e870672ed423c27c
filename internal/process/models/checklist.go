package models

// Fixed checklist item ids created with every process.
const (
	ChecklistDescribeSituation = "1"
	ChecklistUploadDocuments   = "2"
	ChecklistCompleteFields    = "3"
	ChecklistReview            = "4"
)

// ChecklistItem is a coarse milestone driven by external events. Items have
// no dependencies and are never reverted.
type ChecklistItem struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
	Required  bool   `json:"required"`
}
