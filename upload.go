package corvid

import "github.com/corvid-http/corvid/pkg/endpoint"

// UploadFile is the type Form[T]-wrapped struct fields declare to
// receive an uploaded multipart file part. It is a plain alias onto
// pkg/endpoint's implementation so the endpoint runtime and application
// code refer to the identical concrete type.
type UploadFile = endpoint.UploadFile
