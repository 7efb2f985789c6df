package endpoint

import "mime/multipart"

// UploadFile wraps a decoded multipart file part, per spec.md §3's File
// role. Grounded on the teacher's internal/web/request/upload.go, which
// exposed the same filename/size/content-type/open surface directly off
// *multipart.FileHeader; UploadFile keeps that shape as a corvid-owned
// type so pkg/signature can register it as the File-role type without importing
// mime/multipart into the request struct's field types directly.
type UploadFile struct {
	header *multipart.FileHeader
}

func newUploadFile(h *multipart.FileHeader) *UploadFile {
	return &UploadFile{header: h}
}

// Filename returns the client-supplied filename.
func (f *UploadFile) Filename() string { return f.header.Filename }

// Size returns the file size in bytes.
func (f *UploadFile) Size() int64 { return f.header.Size }

// ContentType returns the part's declared Content-Type header, if any.
func (f *UploadFile) ContentType() string { return f.header.Header.Get("Content-Type") }

// Open opens the underlying file part for reading.
func (f *UploadFile) Open() (multipart.File, error) { return f.header.Open() }
