package adm

import "time"

// AnyWorkingData holds a WorkingData subtype.
type AnyWorkingData interface {
	WorkingDataBase() *WorkingData
}

// WorkingData is one channel logged by a device element.
type WorkingData struct {
	Id                 CompoundIdentifier
	DeviceElementUseId int32
	Representation     AnyRepresentation
	AppliedLatency     int32
	ReportedLatency    int32
}

// WorkingDataBase returns the WorkingData part of the value.
func (w *WorkingData) WorkingDataBase() *WorkingData { return w }

type EnumeratedWorkingData struct {
	WorkingData
	ValueCodes []int32
}

type NumericWorkingData struct {
	WorkingData
	UnitOfMeasure *UnitOfMeasure
	Values        []float64
}

// SpatialRecord is one georeferenced sample of every meter of an operation.
// Operations hold millions of them; they are written as record streams.
type SpatialRecord struct {
	Geometry             AnyShape
	Timestamp            time.Time
	MeterValues          map[int32]AnyRepresentationValue
	AppliedLatencyValues map[int32]int32
}

// SetMeterValue records value for the working data with id.
func (r *SpatialRecord) SetMeterValue(workingDataId int32, value AnyRepresentationValue) {
	if r.MeterValues == nil {
		r.MeterValues = make(map[int32]AnyRepresentationValue)
	}
	r.MeterValues[workingDataId] = value
}

// MeterValue returns the value recorded for the working data with id.
func (r *SpatialRecord) MeterValue(workingDataId int32) (AnyRepresentationValue, bool) {
	v, ok := r.MeterValues[workingDataId]
	return v, ok
}

// SetAppliedLatency records the latency applied to the working data with id.
func (r *SpatialRecord) SetAppliedLatency(workingDataId, latency int32) {
	if r.AppliedLatencyValues == nil {
		r.AppliedLatencyValues = make(map[int32]int32)
	}
	r.AppliedLatencyValues[workingDataId] = latency
}

// OperationData describes one operation within logged data. Its spatial
// records are stored separately.
type OperationData struct {
	Id                        CompoundIdentifier
	LoadId                    *int32
	OperationType             OperationType
	PrescriptionId            *int32
	ProductId                 *int32
	VarietyLocatorId          *int32
	WorkItemOperationId       *int32
	MaxDepth                  int32
	SpatialRecordCount        int32
	EquipmentConfigurationIds []int32
}

// LoggedData is the as-applied data of a work session.
type LoggedData struct {
	Id                    CompoundIdentifier
	WorkRecordId          *int32
	GrowerId              *int32
	FarmId                *int32
	FieldId               *int32
	CropZoneId            *int32
	TimeScopes            []TimeScope
	PersonRoleIds         []int32
	GuidanceAllocationIds []int32
	WorkItemIds           []int32
	SummaryId             *int32
	OperationData         []OperationData
	Description           string
}
