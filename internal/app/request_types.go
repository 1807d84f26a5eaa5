package app

// AddDocumentRequest is the input for creating a new document.
type AddDocumentRequest struct {
	// Kind is a document kind tag or any name ParseKind accepts.
	Kind string
	// Fields holds the document as a JSON-style object. number, date and
	// amount are optional; every other field is kept as is.
	Fields map[string]any
}
