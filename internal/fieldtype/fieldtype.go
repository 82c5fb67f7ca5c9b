// Package fieldtype defines the closed set of DocField kinds and the
// classification sets used to tell value-bearing fields from layout ones.
package fieldtype

// Type is a DocField fieldtype tag such as "Data" or "Section Break".
type Type string

// Value-bearing fieldtypes.
const (
	Autocomplete   Type = "Autocomplete"
	Attach         Type = "Attach"
	AttachImage    Type = "Attach Image"
	Barcode        Type = "Barcode"
	Check          Type = "Check"
	Code           Type = "Code"
	Color          Type = "Color"
	Currency       Type = "Currency"
	Data           Type = "Data"
	Date           Type = "Date"
	Datetime       Type = "Datetime"
	Duration       Type = "Duration"
	DynamicLink    Type = "Dynamic Link"
	Float          Type = "Float"
	Geolocation    Type = "Geolocation"
	HTMLEditor     Type = "HTML Editor"
	Icon           Type = "Icon"
	Int            Type = "Int"
	JSON           Type = "JSON"
	Link           Type = "Link"
	LongText       Type = "Long Text"
	MarkdownEditor Type = "Markdown Editor"
	Password       Type = "Password"
	Percent        Type = "Percent"
	Phone          Type = "Phone"
	Rating         Type = "Rating"
	ReadOnly       Type = "Read Only"
	Select         Type = "Select"
	Signature      Type = "Signature"
	SmallText      Type = "Small Text"
	Text           Type = "Text"
	TextEditor     Type = "Text Editor"
	Time           Type = "Time"
)

// Child table fieldtypes.
const (
	Table            Type = "Table"
	TableMultiSelect Type = "Table MultiSelect"
)

// Layout and presentational fieldtypes.
const (
	SectionBreak Type = "Section Break"
	ColumnBreak  Type = "Column Break"
	TabBreak     Type = "Tab Break"
	HTML         Type = "HTML"
	Button       Type = "Button"
	Image        Type = "Image"
	Fold         Type = "Fold"
	Heading      Type = "Heading"
)

// Set is a set of fieldtypes.
type Set map[Type]struct{}

func newSet(types ...Type) Set {
	s := make(Set, len(types))
	for _, t := range types {
		s[t] = struct{}{}
	}
	return s
}

// Has reports whether t is a member of s.
func (s Set) Has(t Type) bool {
	_, ok := s[t]
	return ok
}

// NoValueFields are fieldtypes that store no value of their own. Table and
// Table MultiSelect hold child rows rather than a column value.
var NoValueFields = newSet(
	SectionBreak, ColumnBreak, TabBreak, HTML, Table, TableMultiSelect,
	Button, Image, Fold, Heading,
)

// DisplayFieldtypes are read-only, presentational fieldtypes.
var DisplayFieldtypes = newSet(
	SectionBreak, ColumnBreak, TabBreak, HTML, Button, Image, Fold, Heading,
)

// excluded is NoValueFields ∪ DisplayFieldtypes.
var excluded = func() Set {
	s := make(Set, len(NoValueFields)+len(DisplayFieldtypes))
	for t := range NoValueFields {
		s[t] = struct{}{}
	}
	for t := range DisplayFieldtypes {
		s[t] = struct{}{}
	}
	return s
}()

// known holds every fieldtype a DocType definition may declare.
var known = newSet(
	Autocomplete, Attach, AttachImage, Barcode, Check, Code, Color, Currency,
	Data, Date, Datetime, Duration, DynamicLink, Float, Geolocation, HTMLEditor,
	Icon, Int, JSON, Link, LongText, MarkdownEditor, Password, Percent, Phone,
	Rating, ReadOnly, Select, Signature, SmallText, Text, TextEditor, Time,
	Table, TableMultiSelect,
	SectionBreak, ColumnBreak, TabBreak, HTML, Button, Image, Fold, Heading,
)

// IsValueField reports whether a field of this type carries a stored value,
// i.e. it is in neither NoValueFields nor DisplayFieldtypes. Unknown tags
// are treated as value fields.
func IsValueField(t Type) bool {
	return !excluded.Has(t)
}

// Known reports whether t is a recognised fieldtype.
func Known(t Type) bool {
	return known.Has(t)
}
