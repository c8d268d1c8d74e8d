package config

const (
	ErrDocumentIDRequired = "Document id required"
	ErrUploadTooLarge     = "Upload too large"
)
