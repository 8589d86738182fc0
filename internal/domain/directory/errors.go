package directory

import (
	"fmt"
	"strings"

	"github.com/earthcare/backend/internal/domain/shared"
)

func invalidField(field, format string, args ...any) error {
	code := "INVALID_" + strings.ToUpper(field)
	return shared.NewDomainError(code, fmt.Sprintf("%s %s", field, fmt.Sprintf(format, args...)))
}

func requiredField(field string) error {
	return invalidField(field, "is required")
}
