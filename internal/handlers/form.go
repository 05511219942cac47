package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"
)

const (
	multipartMemory  = 32 << 20
	maxJSONBodyBytes = 1 << 20
)

const msgBodyTooLarge = "Upload exceeds the maximum allowed size"

var errNotMultipart = errors.New("request is not multipart/form-data")

func isMultipart(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && strings.HasPrefix(mediaType, "multipart/")
}

// parseMultipart caps the body at maxBytes and parses the form. Files above
// the in-memory threshold spill to temporary files that are removed by the
// caller through cleanupMultipart.
func parseMultipart(w http.ResponseWriter, r *http.Request, maxBytes int64) error {
	if !isMultipart(r) {
		return errNotMultipart
	}
	if maxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	}
	return r.ParseMultipartForm(multipartMemory)
}

func cleanupMultipart(r *http.Request) {
	if r.MultipartForm != nil {
		_ = r.MultipartForm.RemoveAll()
	}
}

// formValue reads a field from the request body only; query parameters never
// stand in for form fields.
func formValue(r *http.Request, key string) string {
	return strings.TrimSpace(r.PostFormValue(key))
}

// decodeJSON decodes a size-capped JSON body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)
	return json.NewDecoder(r.Body).Decode(dst)
}

// rejectBody answers 400 for an unreadable body, naming the size limit when
// that is what tripped.
func rejectBody(ctx context.Context, w http.ResponseWriter, err error, message string) {
	if isBodyTooLarge(err) {
		message = msgBodyTooLarge
	}
	respondMessage(ctx, w, http.StatusBadRequest, message)
}

// formFile returns the first uploaded file found under any of the given field names.
func formFile(r *http.Request, names ...string) (*multipart.FileHeader, bool) {
	if r.MultipartForm == nil {
		return nil, false
	}
	for _, name := range names {
		if files := r.MultipartForm.File[name]; len(files) > 0 && files[0].Size > 0 {
			return files[0], true
		}
	}
	return nil, false
}

func fileContentType(header *multipart.FileHeader) string {
	return header.Header.Get("Content-Type")
}

func isBodyTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}
