package adm

// AnyDocument holds a Document subtype.
type AnyDocument interface {
	DocumentBase() *Document
}

// Document is the abstract base of plans, recommendations, work orders and
// work records.
type Document struct {
	Id            CompoundIdentifier
	ContextItems  []ContextItem
	CropIds       []int32
	CropZoneIds   []int32
	Description   string
	EstimatedArea *NumericRepresentationValue
	FarmIds       []int32
	FieldIds      []int32
	GrowerId      *int32
	PersonRoleIds []int32
	TimeScopes    []TimeScope
	Version       string
}

// DocumentBase returns the Document part of the value.
func (d *Document) DocumentBase() *Document { return d }

type Plan struct {
	Document
	WorkItemIds []int32
}

type Recommendation struct {
	Document
	WorkItemIds []int32
}

type WorkOrder struct {
	Document
	WorkItemIds []int32
}

type WorkRecord struct {
	Document
	LoggedDataIds []int32
	SummariesIds  []int32
}
