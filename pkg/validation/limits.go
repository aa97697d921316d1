package validation

import (
	"fmt"

	dErrors "auditwatch/pkg/domain-errors"
)

// MaxBodySize is the maximum allowed request body size (64 KB).
const MaxBodySize = 64 * 1024

// Slice element count limits
const (
	MaxStandards          = 16
	MaxResponseActions    = 50
	MaxArtifactRefs       = 100
	MaxMitigations        = 50
	MaxPreventiveMeasures = 50
)

// String element length limits
const (
	MaxIdentifierLength = 128
	MaxNameLength       = 255
	MaxActionLength     = 500
	MaxFreeTextLength   = 4000
	MaxRefLength        = 2048
)

// CheckSliceCount validates that a slice does not exceed the maximum count.
func CheckSliceCount(fieldName string, count, max int) error {
	if count > max {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("too many %s: max %d allowed", fieldName, max))
	}
	return nil
}

// CheckStringLength validates that a string does not exceed the maximum length.
func CheckStringLength(fieldName, value string, max int) error {
	if len(value) > max {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("%s exceeds max length of %d", fieldName, max))
	}
	return nil
}

// CheckEachStringLength validates that each string in a slice does not exceed the maximum length.
func CheckEachStringLength(fieldName string, values []string, max int) error {
	for _, v := range values {
		if len(v) > max {
			return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("%s exceeds max length of %d", fieldName, max))
		}
	}
	return nil
}

// CheckList applies count and per-element length limits in one call.
func CheckList(fieldName string, values []string, maxCount, maxLength int) error {
	if err := CheckSliceCount(fieldName, len(values), maxCount); err != nil {
		return err
	}
	return CheckEachStringLength(fieldName, values, maxLength)
}
