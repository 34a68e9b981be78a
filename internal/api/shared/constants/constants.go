package constants

const (
	// MAX_IMAGE_FORM_MEMORY is the multipart memory budget before parts spill to disk
	MAX_IMAGE_FORM_MEMORY = 8 << 20
	// IMAGE_FORM_FIELD is the multipart field carrying the plantation photo
	IMAGE_FORM_FIELD = "image"
	SERVICE_NAME     = "carbon-marketplace-api"
)
