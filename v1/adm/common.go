package adm

import (
	"time"

	"github.com/google/uuid"
)

// CompoundIdentifier is the identity of a catalog object: a reference id
// local to the data set plus any number of globally unique ids.
type CompoundIdentifier struct {
	ReferenceId int32
	UniqueIds   []UniqueId
}

// UniqueId is one external identifier of an object.
type UniqueId struct {
	Id         string
	IdType     IdType
	Source     string
	SourceType IdSourceType
}

// NewUUID returns a UniqueId holding a fresh random UUID.
func NewUUID(source string) UniqueId {
	return UniqueId{Id: uuid.NewString(), IdType: IdTypeUUID, Source: source}
}

// UUID parses the id as a UUID.
func (u UniqueId) UUID() (uuid.UUID, error) {
	return uuid.Parse(u.Id)
}

// TimeScope is a point in time or an interval attached to an object.
type TimeScope struct {
	Id          CompoundIdentifier
	Description string
	DateContext DateContext
	TimeStamp1  *time.Time
	TimeStamp2  *time.Time
	Duration    *time.Duration
}

// ContextItem is a coded key/value annotation. Items nest.
type ContextItem struct {
	Code        string
	Value       string
	ValueUOM    string
	NestedItems []ContextItem
	TimeScopes  []TimeScope
}
