package models

// Journal is one entry of a source's journal index.
type Journal struct {
	Name        string `json:"display_name"`
	Filename    string `json:"filename"`
	Description string `json:"description,omitempty"`
}

// ErrorInfo is the title and message shown for a failed operation.
type ErrorInfo struct {
	Title   string
	Message string
}

// SourceDescriptor is the wire form of a journal source sent with every
// backend request that targets a source.
type SourceDescriptor struct {
	Name             string `json:"sourceID"`
	Type             string `json:"sourceType"`
	Instrument       string `json:"instrument"`
	JournalRootURL   string `json:"rootUrl,omitempty"`
	IndexFile        string `json:"indexFile,omitempty"`
	RunDataRoot      string `json:"runDataRootUrl,omitempty"`
	DataOrganisation string `json:"dataOrganisation,omitempty"`
}
