package ast

// Unit is the schedulable atom the feature stream produces: a feature
// file, its inherited meta files, and at most one data record
// (§GLOSSARY "FeatureUnit", §4.F). It is a Node in the closed NodeType
// sum so the event bus can emit Before/After events around whole-unit
// evaluation alongside every other node kind (§4.J).
type Unit struct {
	id           string
	ref          SourceRef
	FeatureFile  string
	MetaFiles    []string
	DataRecord   map[string]string // nil when the unit has no associated data record
	RecordNumber int               // 1-based index of DataRecord among its siblings, 0 when DataRecord is nil
}

func NewUnit(uuid string, ref SourceRef, featureFile string, metaFiles []string, dataRecord map[string]string, recordNumber int) Unit {
	return Unit{id: uuid, ref: ref, FeatureFile: featureFile, MetaFiles: metaFiles, DataRecord: dataRecord, RecordNumber: recordNumber}
}

func (u Unit) UUID() string   { return u.id }
func (u Unit) Type() NodeType { return NodeUnit }
func (u Unit) Ref() SourceRef { return u.ref }

func (u Unit) HasDataRecord() bool { return u.DataRecord != nil }
