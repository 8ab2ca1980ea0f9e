package forms

import (
	"fmt"
	"mime/multipart"
	"path"
	"strings"
	"unicode/utf8"
)

// AllowedExtensions - что предлагает диалог выбора файла.
var AllowedExtensions = []string{".pdf", ".doc", ".docx", ".jpg", ".jpeg", ".png", ".txt"}

const maxFileNameLength = 100

type UploadRules struct {
	MaxFiles    int
	MaxBytes    int64
	StrictTypes bool
}

// Accept - значение атрибута accept для input type=file.
func Accept() string {
	return strings.Join(AllowedExtensions, ",")
}

func AllowedExtension(name string) bool {
	ext := strings.ToLower(path.Ext(name))
	for _, allowed := range AllowedExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

// ValidateUploads проверяет новые файлы, прикладываемые к отчёту. Ошибки по
// конкретным файлам складываются в поле "files".
func ValidateUploads(files []*multipart.FileHeader, rules UploadRules) Errors {
	errs := Errors{}

	if rules.MaxFiles > 0 && len(files) > rules.MaxFiles {
		errs.Add(NonField, fmt.Sprintf("Please submit at most %d files.", rules.MaxFiles))
		return errs
	}

	for _, fh := range files {
		name := baseName(fh.Filename)
		switch {
		case name == "":
			errs.Add("files", "No file was submitted. Check the encoding type on the form.")
		case fh.Size == 0:
			errs.Add("files", fmt.Sprintf("%s: the submitted file is empty.", name))
		case utf8.RuneCountInString(name) > maxFileNameLength:
			errs.Add("files", fmt.Sprintf("Ensure this filename has at most %d characters (it has %d).", maxFileNameLength, utf8.RuneCountInString(name)))
		case rules.MaxBytes > 0 && fh.Size > rules.MaxBytes:
			errs.Add("files", fmt.Sprintf("%s: file is too large (%d bytes, limit %d).", name, fh.Size, rules.MaxBytes))
		case rules.StrictTypes && !AllowedExtension(name):
			errs.Add("files", fmt.Sprintf("%s: file type is not allowed. Allowed: %s.", name, strings.Join(AllowedExtensions, ", ")))
		}
	}
	return errs
}

// браузеры на Windows присылают полный путь
func baseName(name string) string {
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	return strings.TrimSpace(name)
}
