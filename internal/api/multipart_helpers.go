package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const (
	maxVideoUploadBytes = int64(2) << 30
	maxImageUploadBytes = int64(10) << 20
	maxFormFieldBytes   = int64(1) << 20
)

// multipartForm holds the decoded parts of a multipart request: plain text
// fields and buffered file uploads keyed by form name.
type multipartForm struct {
	fields map[string]string
	files  map[string]*stagedFile
}

func (f *multipartForm) field(name string) string {
	return strings.TrimSpace(f.fields[name])
}

func (f *multipartForm) file(name string) *stagedFile {
	return f.files[name]
}

// parseMultipartForm streams the request body, buffering file parts named in
// fileLimits (value is the per-file byte cap) and collecting everything else
// as text fields. Unknown file parts are rejected.
func parseMultipartForm(r *http.Request, fileLimits map[string]int64) (*multipartForm, error) {
	reader, err := r.MultipartReader()
	if err != nil {
		return nil, fmt.Errorf("invalid multipart payload")
	}
	form := &multipartForm{
		fields: make(map[string]string),
		files:  make(map[string]*stagedFile),
	}
	for {
		part, err := reader.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read multipart data: %w", err)
		}
		name := part.FormName()
		if name == "" {
			_ = part.Close()
			continue
		}
		if limit, ok := fileLimits[name]; ok && part.FileName() != "" {
			if _, exists := form.files[name]; exists {
				_ = part.Close()
				continue
			}
			file, readErr := readMultipartFile(part, limit)
			if readErr != nil {
				return nil, readErr
			}
			form.files[name] = file
			continue
		}
		if part.FileName() != "" {
			_ = part.Close()
			return nil, fmt.Errorf("unexpected file field %q", name)
		}
		payload, readErr := io.ReadAll(io.LimitReader(part, maxFormFieldBytes))
		_ = part.Close()
		if readErr != nil {
			return nil, fmt.Errorf("read form field: %w", readErr)
		}
		form.fields[name] = strings.TrimSpace(string(payload))
	}
	return form, nil
}

func isMultipartRequest(r *http.Request) bool {
	contentType := strings.ToLower(strings.TrimSpace(r.Header.Get("Content-Type")))
	return strings.HasPrefix(contentType, "multipart/form-data")
}
