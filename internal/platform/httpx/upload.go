package httpx

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
)

// MaxUploadMemory is the part of a multipart body kept in memory; the rest
// spills to temporary files.
const MaxUploadMemory = 32 << 20

// ErrFileType is returned when an upload has an extension outside the
// allowed set.
var ErrFileType = errors.New("file type not allowed")

// ParseForm parses a urlencoded or multipart body into r.PostForm.
func ParseForm(r *http.Request) error {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		return r.ParseMultipartForm(MaxUploadMemory)
	}
	return r.ParseForm()
}

// UploadedFile is an opened multipart file part.
type UploadedFile struct {
	Filename string
	File     multipart.File
}

// OpenFiles opens every non-empty file part of field. allowed lists lower
// case extensions such as ".pdf"; an empty list accepts any file. Callers
// must call the returned close func once the files are consumed.
func OpenFiles(r *http.Request, field string, allowed ...string) ([]UploadedFile, func(), error) {
	noop := func() {}
	if r.MultipartForm == nil {
		return nil, noop, nil
	}
	headers := r.MultipartForm.File[field]
	for _, fh := range headers {
		if !extensionAllowed(fh.Filename, allowed) {
			return nil, noop, fmt.Errorf("%s: %w", fh.Filename, ErrFileType)
		}
	}
	files := make([]UploadedFile, 0, len(headers))
	closeAll := func() {
		for _, f := range files {
			_ = f.File.Close()
		}
	}
	for _, fh := range headers {
		if fh.Size == 0 && fh.Filename == "" {
			continue
		}
		f, err := fh.Open()
		if err != nil {
			closeAll()
			return nil, noop, err
		}
		files = append(files, UploadedFile{Filename: filepath.Base(fh.Filename), File: f})
	}
	return files, closeAll, nil
}

func extensionAllowed(name string, allowed []string) bool {
	if len(allowed) == 0 {
		return true
	}
	ext := strings.ToLower(filepath.Ext(name))
	for _, a := range allowed {
		if ext == a {
			return true
		}
	}
	return false
}
