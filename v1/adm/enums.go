package adm

// ShapeType names the geometry a Shape holds.
type ShapeType int32

const (
	ShapeTypeUnknown ShapeType = iota
	ShapeTypePoint
	ShapeTypeLinearRing
	ShapeTypeLineString
	ShapeTypePolygon
	ShapeTypeMultiPoint
	ShapeTypeMultiLineString
	ShapeTypeMultiPolygon
)

// CodeSource identifies the authority that defines a representation code.
type CodeSource int32

const (
	CodeSourceUnknown CodeSource = iota
	CodeSourceADAPT
	CodeSourceISO11783DDI
	CodeSourceGS1
)

// Dimension is the physical dimension of a unit or numeric representation.
type Dimension int32

const (
	DimensionDimensionless Dimension = iota
	DimensionLength
	DimensionArea
	DimensionVolume
	DimensionMass
	DimensionTime
	DimensionTemperature
	DimensionAreaDensity
	DimensionVolumePerArea
	DimensionSpeed
)

// IdType is the format of a UniqueId.
type IdType int32

const (
	IdTypeUnknown IdType = iota
	IdTypeUUID
	IdTypeString
	IdTypeLongInt
	IdTypeURI
)

// IdSourceType tells whether a UniqueId source is a URI or a free name.
type IdSourceType int32

const (
	IdSourceTypeURI IdSourceType = iota
	IdSourceTypeGLN
)

// DateContext qualifies a TimeScope.
type DateContext int32

const (
	DateContextUnknown DateContext = iota
	DateContextActualStart
	DateContextActualEnd
	DateContextProposedStart
	DateContextProposedEnd
	DateContextCreation
	DateContextModification
	DateContextValidityRange
	DateContextTimingEvent
)

// OperationType is the kind of field operation logged data records.
type OperationType int32

const (
	OperationTypeUnknown OperationType = iota
	OperationTypeFertilizing
	OperationTypeSowingAndPlanting
	OperationTypeCropProtection
	OperationTypeTillage
	OperationTypeHarvesting
	OperationTypeMowing
	OperationTypeBaling
	OperationTypeIrrigation
)
