package catalog

import (
	"github.com/bww/go-rfqclient/v1/resource"
)

type Customer struct {
	resource.Record
}

type Item struct {
	resource.Record
}

type Program struct {
	resource.Record
}

// A request for quotation. RFQs carry a title rather than a name and have no
// summary format.
type RFQ struct {
	ID          string             `json:"id" validate:"required"`
	UserID      string             `json:"user_id,omitempty"`
	Title       string             `json:"title"`
	Description string             `json:"description,omitempty"`
	CreatedAt   resource.Timestamp `json:"created_at,omitempty"`
	UpdatedAt   resource.Timestamp `json:"updated_at,omitempty"`
}

// Summary format fields shared by items and programs
const (
	SummarySpec     = "규격"
	SummaryQuantity = "수량"
	SummaryPrice    = "단가"
	SummaryTotal    = "총액"
	SummaryDueDate  = "납기"
	SummaryRemarks  = "비고"

	SummaryProductName = "제품명"
	SummaryProgramName = "프로그램명"
)

func quotationSummary(title string) resource.Summary {
	return resource.Summary{
		title:           "",
		SummarySpec:     "",
		SummaryQuantity: 0,
		SummaryPrice:    0,
		SummaryTotal:    0,
		SummaryDueDate:  "",
		SummaryRemarks:  "",
	}
}

// DefaultCustomerSummary is empty; customers define no summary fields until
// one is set.
func DefaultCustomerSummary() resource.Summary {
	return resource.Summary{}
}

func DefaultItemSummary() resource.Summary {
	return quotationSummary(SummaryProductName)
}

func DefaultProgramSummary() resource.Summary {
	return quotationSummary(SummaryProgramName)
}

var (
	Customers = resource.Kind{Path: "customers", Noun: "Customer", Summary: DefaultCustomerSummary}
	Items     = resource.Kind{Path: "items", Noun: "Item", Summary: DefaultItemSummary}
	Programs  = resource.Kind{Path: "program", Noun: "Program", Summary: DefaultProgramSummary}
	RFQs      = resource.Kind{Path: "rfq", Noun: "RFQ"}
)
