package chat

import (
	"fmt"
	"regexp"
	"strings"
)

// Attachment size limits, keyed by MIME type. Checked in declaration
// order; the first matching rule wins, so an oversized PDF is rejected
// with the PDF reason even though the generic rule would also fire.
const (
	MaxImageBytes = 5 << 20  // 5 MiB
	MaxVideoBytes = 10 << 20 // 10 MiB
	MaxPDFBytes   = 5 << 20  // 5 MiB
	MaxOtherBytes = 5 << 20  // 5 MiB, everything else
)

// Attachment describes a file to be sent, independent of its bytes. The
// policy inspects only the descriptor; it performs no I/O.
type Attachment struct {
	Name string
	Type string // MIME type as reported by the client
	Size int64
}

// ValidateAttachment decides whether a file is acceptable. Pure
// predicate: nil means acceptable, otherwise a *ValidationError naming
// the violated limit.
func ValidateAttachment(att Attachment) error {
	switch {
	case strings.HasPrefix(att.Type, "image/"):
		if att.Size > MaxImageBytes {
			return &ValidationError{Field: "file", Reason: "image files must be 5 MiB or less"}
		}
	case strings.HasPrefix(att.Type, "video/"):
		if att.Size > MaxVideoBytes {
			return &ValidationError{Field: "file", Reason: "video files must be 10 MiB or less"}
		}
	case att.Type == "application/pdf":
		if att.Size > MaxPDFBytes {
			return &ValidationError{Field: "file", Reason: "PDF files must be 5 MiB or less"}
		}
	default:
		if att.Size > MaxOtherBytes {
			return &ValidationError{Field: "file", Reason: "files must be 5 MiB or less"}
		}
	}
	return nil
}

// ValidateMessage checks a full outgoing payload. The empty-message
// check runs before any attachment rule.
func ValidateMessage(content string, att *Attachment) error {
	if strings.TrimSpace(content) == "" && att == nil {
		return ErrEmptyMessage
	}
	if att != nil {
		return ValidateAttachment(*att)
	}
	return nil
}

var usernameRE = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

const (
	MinUsernameLen = 3
	MaxUsernameLen = 20
)

// ValidateUsername enforces the account naming rules: 3–20 characters
// from [A-Za-z0-9_-].
func ValidateUsername(username string) error {
	if len(username) < MinUsernameLen || len(username) > MaxUsernameLen {
		return &ValidationError{
			Field:  "username",
			Reason: fmt.Sprintf("must be %d-%d characters", MinUsernameLen, MaxUsernameLen),
		}
	}
	if !usernameRE.MatchString(username) {
		return &ValidationError{Field: "username", Reason: "only letters, digits, '_' and '-' are allowed"}
	}
	return nil
}
