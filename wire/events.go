package wire

// Event is one record of the decode stream. Concrete types are listed below;
// consumers type-switch on the concrete type.
type Event interface {
	eventTag() string
}

// Header is always the first event, carrying the stream preamble.
type Header struct {
	StreamerVersion int
	ByteOrder       byte // 'L' or 'B'
	SystemVersion   int
}

// BeginTypedValues opens a group of one or more values sharing a single
// type-encoding list (the common case is one encoding, one value; arrays of
// encodings appear for compound C types written together).
type BeginTypedValues struct {
	Encodings []Encoding
}

// EndTypedValues closes the most recently opened BeginTypedValues.
type EndTypedValues struct{}

// Atom is a single decoded primitive scalar. Exactly the field matching
// Encoding.Kind is meaningful.
type Atom struct {
	Encoding Encoding
	Int      int64
	Uint     uint64
	Float32  float32
	Float64  float64
	Bool     bool
}

// BeginObject opens an archived object and assigns it ID in the object
// namespace.
type BeginObject struct {
	ID int
}

// EndObject closes the most recently opened BeginObject.
type EndObject struct{}

// BeginArray opens a fixed-length array value.
type BeginArray struct {
	Encoding Encoding
	Len      int
}

// EndArray closes the most recently opened BeginArray.
type EndArray struct{}

// BeginStruct opens a struct value.
type BeginStruct struct {
	Encoding Encoding
}

// EndStruct closes the most recently opened BeginStruct.
type EndStruct struct{}

// CString is a literal byte string value, whether freshly introduced or
// resolved from a shared-string reference. ID is its position in the
// c-string namespace either way, so callers can deduplicate by ID if they
// choose to.
type CString struct {
	ID    int
	Value []byte
}

// Selector is an Objective-C selector literal, sharing the c-string
// namespace's mechanics.
type Selector struct {
	ID    int
	Value []byte
}

// ObjectReference is a back-reference to a previously begun object.
type ObjectReference struct {
	ID int
}

// Nil represents a nil object in an `@` slot, or the end of a class chain
// when encountered while reading class links.
type Nil struct{}

// SingleClass is one link of a freshly introduced class chain.
type SingleClass struct {
	ID      int
	Name    string
	Version int
}

// ClassReference is a back-reference to a previously introduced class
// chain.
type ClassReference struct {
	ID int
}

func (Header) eventTag() string           { return "Header" }
func (BeginTypedValues) eventTag() string { return "BeginTypedValues" }
func (EndTypedValues) eventTag() string   { return "EndTypedValues" }
func (Atom) eventTag() string             { return "Atom" }
func (BeginObject) eventTag() string      { return "BeginObject" }
func (EndObject) eventTag() string        { return "EndObject" }
func (BeginArray) eventTag() string       { return "BeginArray" }
func (EndArray) eventTag() string         { return "EndArray" }
func (BeginStruct) eventTag() string      { return "BeginStruct" }
func (EndStruct) eventTag() string        { return "EndStruct" }
func (CString) eventTag() string          { return "CString" }
func (Selector) eventTag() string         { return "Selector" }
func (ObjectReference) eventTag() string  { return "ObjectReference" }
func (Nil) eventTag() string              { return "Nil" }
func (SingleClass) eventTag() string      { return "SingleClass" }
func (ClassReference) eventTag() string   { return "ClassReference" }
