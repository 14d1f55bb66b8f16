package leave

type SubCase struct {
	Code  string `json:"code"`
	Label string `json:"label"`
}

type Category struct {
	Code     string    `json:"code"`
	Label    string    `json:"label"`
	SubCases []SubCase `json:"sub_cases"`
}

const (
	CategoryAnnual          = "ANNUAL"
	CategoryUnpaid          = "UNPAID"
	CategorySocialInsurance = "SOCIAL_INSURANCE"
	CategoryPaidPersonal    = "PAID_PERSONAL"
)

var catalog = []Category{
	{
		Code:  CategoryAnnual,
		Label: "Annual leave",
		SubCases: []SubCase{
			{Code: "ANNUAL", Label: "Annual leave"},
		},
	},
	{
		Code:  CategoryUnpaid,
		Label: "Unpaid leave",
		SubCases: []SubCase{
			{Code: "ANNUAL_EXHAUSTED", Label: "Annual leave exhausted"},
			{Code: "PERSONAL_MATTERS", Label: "Extended personal matters"},
		},
	},
	{
		Code:  CategorySocialInsurance,
		Label: "Social-insurance-covered leave",
		SubCases: []SubCase{
			{Code: "PERSONAL_SICKNESS", Label: "Personal sickness"},
			{Code: "CHILD_SICKNESS", Label: "Child sickness"},
			{Code: "EXTENDED_SICKNESS", Label: "Extended personal sickness"},
			{Code: "MATERNITY", Label: "Maternity (female)"},
			{Code: "PATERNITY", Label: "Paternity (male)"},
			{Code: "POST_PROCEDURE_RECOVERY", Label: "Post-procedure recovery"},
			{Code: "REDUCED_WORK_CAPACITY", Label: "Reduced work capacity (15–51%)"},
		},
	},
	{
		Code:  CategoryPaidPersonal,
		Label: "Paid personal leave",
		SubCases: []SubCase{
			{Code: "OWN_WEDDING", Label: "Own wedding"},
			{Code: "CHILD_WEDDING", Label: "Child's wedding"},
			{Code: "BEREAVEMENT", Label: "Bereavement (parent/spouse/child)"},
		},
	},
}

// Categories returns a copy of the fixed catalog in display order.
func Categories() []Category {
	out := make([]Category, len(catalog))
	for i, c := range catalog {
		out[i] = Category{Code: c.Code, Label: c.Label, SubCases: append([]SubCase(nil), c.SubCases...)}
	}
	return out
}

func FindCategory(code string) (Category, bool) {
	for _, c := range catalog {
		if c.Code == code {
			return c, true
		}
	}
	return Category{}, false
}

func (c Category) HasSubCase(code string) bool {
	for _, s := range c.SubCases {
		if s.Code == code {
			return true
		}
	}
	return false
}

// DebitsBalance reports whether approving a request of this category
// consumes remaining days.
func DebitsBalance(category string) bool {
	return category == CategoryAnnual
}
