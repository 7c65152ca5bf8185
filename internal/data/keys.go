package data

const (
	// DepExtractedText represents the plain text extracted from the submission's
	// document file (the first pdf or pdf/a file).
	//
	// An empty string means no document file was available.
	DepExtractedText DependencyKey = "submission.extracted_text"

	// DepRegistryCreated represents the canonical creation timestamp of the
	// submission's primary identifier, as reported by the bibliographic registry.
	//
	// The value is a zone-stripped time.Time.
	DepRegistryCreated DependencyKey = "registry.created"
)
