package queue

import (
	"fmt"
	"strings"
)

func qualifiedStructName(v any) string {
	return strings.TrimLeft(fmt.Sprintf("%T", v), "*")
}
