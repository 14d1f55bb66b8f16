package leave

import "time"

const dateLayout = "2006-01-02"

type SubmitLeaveRequest struct {
	StartDate    string  `json:"start_date" binding:"required"`
	EndDate      string  `json:"end_date" binding:"required"`
	DurationDays float64 `json:"duration_days"`
	Category     string  `json:"category" binding:"required"`
	SubCase      string  `json:"sub_case" binding:"required"`
	Reason       string  `json:"reason"`
}

type RejectLeaveRequest struct {
	Reason string `json:"reason"`
}

// ListFilter narrows ListAll. Zero values mean "any"; a Month without a
// Year refers to the current year.
type ListFilter struct {
	Status     string
	Name       string
	Department string
	Month      int
	Year       int
}

type LeaveResponse struct {
	ID              string     `json:"id"`
	Requester       string     `json:"requester"`
	RequesterName   string     `json:"requester_name"`
	Department      string     `json:"department"`
	Category        string     `json:"category"`
	CategoryLabel   string     `json:"category_label"`
	SubCase         string     `json:"sub_case"`
	SubCaseLabel    string     `json:"sub_case_label"`
	StartDate       string     `json:"start_date"`
	EndDate         string     `json:"end_date"`
	DurationDays    float64    `json:"duration_days"`
	Reason          string     `json:"reason"`
	Status          string     `json:"status"`
	RequestedAt     time.Time  `json:"requested_at"`
	ApprovedBy      *string    `json:"approved_by"`
	ApprovedAt      *time.Time `json:"approved_at"`
	RejectionReason *string    `json:"rejection_reason,omitempty"`
}

func mapToResponse(l Leave) LeaveResponse {
	resp := LeaveResponse{
		ID:              l.ID.String(),
		Requester:       l.Requester,
		RequesterName:   l.RequesterName,
		Department:      l.Department,
		Category:        l.Category,
		SubCase:         l.SubCase,
		StartDate:       l.StartDate.Format(dateLayout),
		EndDate:         l.EndDate.Format(dateLayout),
		DurationDays:    l.DurationDays.InexactFloat64(),
		Reason:          l.Reason,
		Status:          l.Status,
		RequestedAt:     l.RequestedAt,
		ApprovedBy:      l.ApprovedBy,
		ApprovedAt:      l.ApprovedAt,
		RejectionReason: l.RejectionReason,
	}
	if c, ok := FindCategory(l.Category); ok {
		resp.CategoryLabel = c.Label
		for _, s := range c.SubCases {
			if s.Code == l.SubCase {
				resp.SubCaseLabel = s.Label
			}
		}
	}
	return resp
}

func mapToListResponse(leaves []Leave) []LeaveResponse {
	out := make([]LeaveResponse, 0, len(leaves))
	for _, l := range leaves {
		out = append(out, mapToResponse(l))
	}
	return out
}
