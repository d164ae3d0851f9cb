package prep

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ExtractPDF pulls plain text out of a PDF document. The underlying
// parser panics on some malformed files, so extraction runs behind a
// recover.
func ExtractPDF(data []byte) (text string, err error) {
	if len(data) == 0 {
		return "", &ValidationError{
			Code:    CodePDFEmpty,
			Message: "uploaded file is empty",
		}
	}

	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = &ValidationError{
				Code:    CodePDFInvalid,
				Message: fmt.Sprintf("failed to parse PDF: %v", r),
			}
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", &ValidationError{
			Code:    CodePDFInvalid,
			Message: fmt.Sprintf("failed to parse PDF: %v", err),
		}
	}

	plainText, err := reader.GetPlainText()
	if err != nil {
		return "", &ValidationError{
			Code:    CodePDFInvalid,
			Message: fmt.Sprintf("failed to extract PDF text: %v", err),
		}
	}

	var sb strings.Builder
	if _, err := io.Copy(&sb, plainText); err != nil {
		return "", &ValidationError{
			Code:    CodePDFInvalid,
			Message: fmt.Sprintf("failed to read PDF text: %v", err),
		}
	}

	if strings.TrimSpace(sb.String()) == "" {
		return "", &ValidationError{
			Code:    CodePDFNoText,
			Message: "PDF contains no extractable text",
		}
	}

	return sb.String(), nil
}
