// file: internals/features/forms/responses/validation/file_validator.go
package validation

import (
	"fmt"
	"mime"
	"strings"

	"triddle_backend/internals/constants"
	formModel "triddle_backend/internals/features/forms/forms/model"
	"triddle_backend/internals/features/forms/responses/model"
	"triddle_backend/internals/helpers/apperror"
)

// FileCandidate: file yang akan diupload (belum menyentuh storage).
type FileCandidate struct {
	Name     string
	Size     int64
	MimeType string
}

func CandidatesFromRefs(refs []model.FileRef) []FileCandidate {
	out := make([]FileCandidate, 0, len(refs))
	for _, r := range refs {
		out = append(out, FileCandidate{Name: r.Name, Size: r.Size, MimeType: r.MimeType})
	}
	return out
}

// ValidateFile: size dulu, baru tipe MIME.
func ValidateFile(questionID string, rules formModel.FileRules, f FileCandidate) error {
	maxSize := constants.DefaultMaxUploadBytes
	if rules.MaxSize != nil {
		maxSize = *rules.MaxSize
	}
	if f.Size > maxSize {
		return &apperror.FileTooLargeError{QuestionID: questionID, FileName: f.Name, Size: f.Size, MaxSize: maxSize}
	}
	if len(rules.AllowedTypes) > 0 && !mimeAllowed(f.MimeType, rules.AllowedTypes) {
		return &apperror.FileTypeNotAllowedError{
			QuestionID: questionID,
			FileName:   f.Name,
			MimeType:   f.MimeType,
			Allowed:    append([]string(nil), rules.AllowedTypes...),
		}
	}
	return nil
}

// ValidateFiles memeriksa satu per satu; kegagalan pertama membatalkan seluruh batch.
func ValidateFiles(q *formModel.FormQuestionModel, files []FileCandidate) error {
	qid := q.FormQuestionID.String()
	if q.FormQuestionType != formModel.QuestionTypeFileUpload {
		return apperror.Invalid(qid, RuleType, "question does not accept files")
	}
	if len(files) == 0 {
		if q.FormQuestionRequired {
			return apperror.Invalid(qid, RuleRequired, "this question is required")
		}
		return nil
	}
	if len(files) > 1 && !q.FormQuestionFile.Multiple {
		return apperror.Invalid(qid, RuleMultiple, "only one file is allowed")
	}
	if len(files) > constants.MaxFilesPerQuestion {
		return apperror.Invalid(qid, RuleMultiple, fmt.Sprintf("at most %d files are allowed", constants.MaxFilesPerQuestion))
	}
	for _, f := range files {
		if err := ValidateFile(qid, q.FormQuestionFile, f); err != nil {
			return err
		}
	}
	return nil
}

// mimeAllowed: case-insensitive, parameter (;charset=...) diabaikan, "image/*" didukung.
func mimeAllowed(declared string, allowed []string) bool {
	mt := normalizeMime(declared)
	if mt == "" {
		return false
	}
	for _, a := range allowed {
		a = normalizeMime(a)
		if a == mt {
			return true
		}
		if strings.HasSuffix(a, "/*") && strings.HasPrefix(mt, strings.TrimSuffix(a, "*")) {
			return true
		}
	}
	return false
}

func normalizeMime(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if mt, _, err := mime.ParseMediaType(s); err == nil {
		return strings.ToLower(mt)
	}
	return strings.ToLower(s)
}
