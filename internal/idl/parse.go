package idl

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	identRe     = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]*$`)
	typeNameRe  = regexp.MustCompile(`^[A-Z][a-zA-Z0-9_]*$`)
	fieldNameRe = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)
	constNameRe = regexp.MustCompile(`^[A-Z][A-Z0-9_]*$`)
)

// ParseMsg parses the text of a .msg interface description into a Schema
// named name. Nested types without a package resolve to name's package.
func ParseMsg(name, text string) (*Schema, error) {
	pkg, _, _, err := SplitName(name)
	if err != nil {
		return nil, err
	}

	s := &Schema{Name: name}
	seen := map[string]bool{}
	for i, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(stripComment(raw))
		if line == "" {
			continue
		}
		if err := parseLine(s, pkg, line, seen); err != nil {
			return nil, fmt.Errorf("%s:%d: %w", name, i+1, err)
		}
	}
	return s, nil
}

func parseLine(s *Schema, pkg, line string, seen map[string]bool) error {
	typeTok, rest, ok := cutSpace(line)
	if !ok {
		return fmt.Errorf("%w: expected \"<type> <name>\", got %q", ErrInvalidSchema, line)
	}
	ft, err := ParseType(pkg, typeTok)
	if err != nil {
		return err
	}
	rest = strings.TrimSpace(rest)

	// Constants are "TYPE NAME=value"; the name never contains whitespace.
	if eq := strings.IndexByte(rest, '='); eq > 0 && !strings.ContainsAny(strings.TrimSpace(rest[:eq]), " \t") {
		cname := strings.TrimSpace(rest[:eq])
		if !constNameRe.MatchString(cname) {
			return fmt.Errorf("%w: bad constant name %q", ErrInvalidSchema, cname)
		}
		if ft.IsArray() || ft.Kind == KindMessage {
			return fmt.Errorf("%w: constant %s must have a primitive type", ErrInvalidSchema, cname)
		}
		v, err := parseLiteral(ft, strings.TrimSpace(rest[eq+1:]))
		if err != nil {
			return fmt.Errorf("constant %s: %w", cname, err)
		}
		if seen[cname] {
			return fmt.Errorf("%w: duplicate name %q", ErrInvalidSchema, cname)
		}
		seen[cname] = true
		s.Constants = append(s.Constants, Constant{Name: cname, Type: ft, Value: v})
		return nil
	}

	fname, lit, _ := cutSpace(rest)
	lit = strings.TrimSpace(lit)
	if !fieldNameRe.MatchString(fname) {
		return fmt.Errorf("%w: bad field name %q", ErrInvalidSchema, fname)
	}
	if seen[fname] {
		return fmt.Errorf("%w: duplicate name %q", ErrInvalidSchema, fname)
	}
	seen[fname] = true

	f := Field{Name: fname, Type: ft}
	if lit != "" {
		if ft.Kind == KindMessage {
			return fmt.Errorf("%w: field %s: nested messages take no default", ErrInvalidSchema, fname)
		}
		v, err := parseLiteral(ft, lit)
		if err != nil {
			return fmt.Errorf("field %s: %w", fname, err)
		}
		f.Default = v
	}
	s.Fields = append(s.Fields, f)
	return nil
}

// ParseType parses a type token such as "int8", "string<=10",
// "geometry_msgs/Point[3]" or "float64[<=8]".
func ParseType(pkg, tok string) (FieldType, error) {
	var ft FieldType
	base := tok
	if strings.HasSuffix(tok, "]") {
		open := strings.LastIndexByte(tok, '[')
		if open <= 0 {
			return ft, fmt.Errorf("%w: malformed array type %q", ErrInvalidSchema, tok)
		}
		base = tok[:open]
		inner := tok[open+1 : len(tok)-1]
		switch {
		case inner == "":
			ft.Array = Sequence
		case strings.HasPrefix(inner, "<="):
			n, err := parseBound(inner[2:])
			if err != nil {
				return ft, fmt.Errorf("%w: sequence bound in %q", err, tok)
			}
			ft.Array, ft.Length = BoundedSequence, n
		default:
			n, err := parseBound(inner)
			if err != nil {
				return ft, fmt.Errorf("%w: array length in %q", err, tok)
			}
			ft.Array, ft.Length = FixedArray, n
		}
	}

	if strings.HasPrefix(base, "string<=") {
		n, err := parseBound(strings.TrimPrefix(base, "string<="))
		if err != nil {
			return ft, fmt.Errorf("%w: string bound in %q", err, tok)
		}
		ft.Kind, ft.StringBound = KindString, n
		return ft, nil
	}
	if k, ok := primitiveKinds[base]; ok {
		ft.Kind = k
		return ft, nil
	}

	ft.Kind = KindMessage
	switch parts := strings.Split(base, "/"); {
	case base == "Header":
		ft.Message = "std_msgs/msg/Header"
	case base == "time":
		ft.Message = "builtin_interfaces/msg/Time"
	case base == "duration":
		ft.Message = "builtin_interfaces/msg/Duration"
	case len(parts) == 1:
		ft.Message = QualifiedName(pkg, "msg", base)
	case len(parts) == 2:
		ft.Message = QualifiedName(parts[0], "msg", parts[1])
	case len(parts) == 3:
		ft.Message = base
	default:
		return ft, fmt.Errorf("%w: unknown type %q", ErrInvalidSchema, tok)
	}
	if _, _, _, err := SplitName(ft.Message); err != nil {
		return ft, fmt.Errorf("unknown type %q: %w", tok, err)
	}
	return ft, nil
}

func parseBound(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, ErrInvalidSchema
	}
	return n, nil
}

// parseLiteral converts a default or constant literal to the loose
// representation stored in Field.Default.
func parseLiteral(ft FieldType, lit string) (any, error) {
	if ft.IsArray() {
		if !strings.HasPrefix(lit, "[") || !strings.HasSuffix(lit, "]") {
			return nil, fmt.Errorf("%w: array default %q must be bracketed", ErrInvalidSchema, lit)
		}
		inner := strings.TrimSpace(lit[1 : len(lit)-1])
		out := []any{}
		if inner == "" {
			return out, nil
		}
		for _, el := range strings.Split(inner, ",") {
			v, err := parseLiteral(ft.Elem(), strings.TrimSpace(el))
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	}

	k := ft.Kind
	switch {
	case k == KindBool:
		switch strings.ToLower(lit) {
		case "true", "1":
			return true, nil
		case "false", "0":
			return false, nil
		}
	case k == KindString:
		if len(lit) >= 2 && (lit[0] == '"' || lit[0] == '\'') && lit[len(lit)-1] == lit[0] {
			if lit[0] == '"' {
				if s, err := strconv.Unquote(lit); err == nil {
					return s, nil
				}
			}
			return lit[1 : len(lit)-1], nil
		}
		return lit, nil
	case k.IsSigned():
		if v, err := strconv.ParseInt(lit, 0, 64); err == nil {
			return v, nil
		}
	case k.IsInteger():
		if v, err := strconv.ParseUint(lit, 0, 64); err == nil {
			return v, nil
		}
	case k.IsFloat():
		if v, err := strconv.ParseFloat(lit, 64); err == nil {
			return v, nil
		}
	}
	return nil, fmt.Errorf("%w: %q is not a valid %s literal", ErrInvalidSchema, lit, k)
}

// cutSpace splits s around its first run of blanks.
func cutSpace(s string) (before, after string, found bool) {
	i := strings.IndexAny(s, " \t")
	if i < 0 {
		return s, "", false
	}
	return s[:i], strings.TrimLeft(s[i:], " \t"), true
}

// stripComment removes a trailing # comment that is not inside quotes.
func stripComment(line string) string {
	var quote byte
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case quote != 0:
			if c == '\\' {
				i++
			} else if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '#':
			return line[:i]
		}
	}
	return line
}
