package validators

import (
	"strconv"
	"strings"

	pkgerrors "github.com/harvestconnect/harvestcart/pkg/errors"
)

// ParsePositiveID parses a path parameter holding a product id.
func ParsePositiveID(raw, field string) (int64, error) {
	value, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "path parameter must be numeric").WithDetails(map[string]any{"field": field})
	}
	if value < 1 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "path parameter must be positive").WithDetails(map[string]any{"field": field})
	}
	return value, nil
}
