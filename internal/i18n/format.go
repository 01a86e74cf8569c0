package i18n

import (
	"fmt"
	"strings"
)

// MissingParamError reports a placeholder with no matching parameter.
type MissingParamError struct {
	Name string
}

func (e *MissingParamError) Error() string {
	return fmt.Sprintf("missing format parameter %q", e.Name)
}

// Format substitutes {name} placeholders in template. Doubled braces are
// literal braces, and anything after a ':' inside a placeholder is ignored.
// An unterminated or unmatched brace is copied as is.
func Format(template string, params map[string]any) (string, error) {
	if !strings.ContainsAny(template, "{}") {
		return template, nil
	}

	var b strings.Builder
	b.Grow(len(template))

	for i := 0; i < len(template); i++ {
		c := template[i]
		switch {
		case c == '{' && i+1 < len(template) && template[i+1] == '{':
			b.WriteByte('{')
			i++
		case c == '}' && i+1 < len(template) && template[i+1] == '}':
			b.WriteByte('}')
			i++
		case c == '{':
			end := strings.IndexByte(template[i+1:], '}')
			if end < 0 {
				b.WriteString(template[i:])
				return b.String(), nil
			}
			name := template[i+1 : i+1+end]
			if colon := strings.IndexByte(name, ':'); colon >= 0 {
				name = name[:colon]
			}
			val, ok := params[name]
			if !ok {
				return "", &MissingParamError{Name: name}
			}
			b.WriteString(fmt.Sprint(val))
			i += end + 1
		default:
			b.WriteByte(c)
		}
	}
	return b.String(), nil
}
