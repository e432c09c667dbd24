package models

// Column maps a displayed column title to the backend field it shows.
type Column struct {
	Title string
	Key   string
}

// Backend field keys the core relies on.
const (
	FieldRunNumber = "run_number"
	FieldTitle     = "title"
	FieldDuration  = "duration"
)

var neutronColumns = []Column{
	{Title: "Run Number", Key: FieldRunNumber},
	{Title: "Title", Key: FieldTitle},
	{Title: "Start Time", Key: "start_time"},
	{Title: "Duration", Key: FieldDuration},
	{Title: "Proton Charge", Key: "proton_charge"},
	{Title: "User", Key: "user_name"},
	{Title: "RB Number", Key: "experiment_identifier"},
}

var muonColumns = []Column{
	{Title: "Run Number", Key: FieldRunNumber},
	{Title: "Title", Key: FieldTitle},
	{Title: "Start Time", Key: "start_time"},
	{Title: "End Time", Key: "end_time"},
	{Title: "Duration", Key: FieldDuration},
	{Title: "Events (M)", Key: "total_mevents"},
	{Title: "User", Key: "user_name"},
	{Title: "RB Number", Key: "experiment_identifier"},
}

// DefaultColumns returns a copy of the type-level default run-data columns.
func DefaultColumns(t InstrumentType) []Column {
	if t == InstrumentMuon {
		return append([]Column(nil), muonColumns...)
	}
	return append([]Column(nil), neutronColumns...)
}

// Instrument is a named measurement device.
type Instrument struct {
	name            string
	alternativeName string
	kind            InstrumentType
	userDefined     bool
	columns         []Column
}

// NewInstrument creates an instrument. alternativeName may be empty.
func NewInstrument(name, alternativeName string, kind InstrumentType, userDefined bool) Instrument {
	return Instrument{
		name:            name,
		alternativeName: alternativeName,
		kind:            kind,
		userDefined:     userDefined,
	}
}

func (i Instrument) Name() string            { return i.name }
func (i Instrument) Type() InstrumentType    { return i.kind }
func (i Instrument) UserDefined() bool       { return i.userDefined }
func (i Instrument) AlternativeName() string { return i.alternativeName }

// PathName is the name used in filesystem paths, preferring the alternative name.
func (i Instrument) PathName() string {
	if i.alternativeName != "" {
		return i.alternativeName
	}
	return i.name
}

// Columns returns the instrument's run-data columns, falling back to the
// defaults for its type when no override is set.
func (i Instrument) Columns() []Column {
	if len(i.columns) > 0 {
		return append([]Column(nil), i.columns...)
	}
	return DefaultColumns(i.kind)
}

// HasCustomColumns reports whether a column override is set.
func (i Instrument) HasCustomColumns() bool {
	return len(i.columns) > 0
}

// WithColumns returns a copy of the instrument with a column override.
// Passing no columns clears the override.
func (i Instrument) WithColumns(cols []Column) Instrument {
	i.columns = append([]Column(nil), cols...)
	return i
}
