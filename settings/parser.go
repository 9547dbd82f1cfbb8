package settings

import (
	"bufio"
	"bytes"
	"strconv"
	"strings"
)

// Parse builds a schema from the contents of one descriptor file. The
// filename only labels errors and the schema; reading the file is the
// caller's business.
func Parse(filename string, data []byte) (*Schema, error) {
	entries, err := logicalEntries(filename, data)
	if err != nil {
		return nil, err
	}

	parsed := make([]Setting, 0, len(entries))
	for _, entry := range entries {
		set, err := parseSetting(filename, entry)
		if err != nil {
			return nil, err
		}
		parsed = append(parsed, set)
	}

	// Verify that nibbles come in pairs.
	halves := 0
	for i := range parsed {
		switch parsed[i].Size {
		case SizeNibble:
			halves = 1 - halves
		case SizeByte:
			if halves != 0 {
				return nil, parseErrorf(filename, "The setting %q follows a lonesome nibble. Nibble settings must always be in pairs!", parsed[i].Name)
			}
		}
	}

	schema := New(filename, parsed)
	if err := schema.link(); err != nil {
		return nil, err
	}
	return schema, nil
}

// logicalEntries joins the physical lines of a descriptor file into one
// string per setting. A line without a colon continues the entry above
// it, comma separated unless that entry still ends with its colon.
func logicalEntries(filename string, data []byte) ([]string, error) {
	var entries []string

	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := scanner.Text()

		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}

		if !strings.Contains(line, ":") {
			if len(entries) == 0 {
				return nil, parseErrorf(filename, "Missing setting name before size, read-only specifier, defaults or value in %q. Perhaps you forgot a colon?", line)
			}
			last := entries[len(entries)-1]
			if strings.HasSuffix(strings.TrimSpace(last), ":") {
				entries[len(entries)-1] = last + line
			} else {
				entries[len(entries)-1] = last + "," + line
			}
			continue
		}

		entries = append(entries, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, parseErrorf(filename, "%v", err)
	}

	return entries, nil
}

func parseSetting(filename, entry string) (Setting, error) {
	name, rest, _ := strings.Cut(entry, ":")
	name = strings.TrimSpace(name)
	rest = strings.TrimSpace(rest)

	var clauses []string
	for _, clause := range strings.Split(rest, ",") {
		clauses = append(clauses, strings.TrimSpace(clause))
	}

	// Width first so clauses whose meaning depends on it can appear in
	// any order within the entry.
	size, length, err := parseWidth(filename, name, clauses)
	if err != nil {
		return Setting{}, err
	}

	readOnly := ReadOnly{}
	values := make(map[int64]string)
	var def Default

	for _, clause := range clauses {
		switch {
		case strings.Contains(clause, "byte") || strings.Contains(clause, "nibble"):
			// Already handled by the width pass.
		case strings.Contains(clause, "read-only"):
			if readOnly, err = parseReadOnly(filename, name, clause); err != nil {
				return Setting{}, err
			}
		case strings.Contains(clause, "default"):
			if def, err = parseDefault(filename, name, clause, size, length, def); err != nil {
				return Setting{}, err
			}
		default:
			kv, err := parseValues(filename, name, clause)
			if err != nil {
				return Setting{}, err
			}
			for k, v := range kv {
				values[k] = v
			}
		}
	}

	if len(values) == 0 && readOnly.Kind != ReadOnlyAlways {
		return Setting{}, parseErrorf(filename, "Setting %q is missing any valid values!", name)
	}

	return Setting{
		Name:     name,
		Size:     size,
		Length:   length,
		ReadOnly: readOnly,
		Values:   values,
		Default:  def,
	}, nil
}

func parseWidth(filename, name string, clauses []string) (Size, int, error) {
	size := SizeUnknown
	length := 1

	for _, clause := range clauses {
		if !strings.Contains(clause, "byte") && !strings.Contains(clause, "nibble") {
			continue
		}

		unit := clause
		explicit := false
		if lenstr, rest, ok := strings.Cut(clause, " "); ok {
			n, err := strconv.Atoi(strings.TrimSpace(lenstr))
			if err != nil {
				return size, length, parseErrorf(filename, "Failed to parse setting %q, could not understand length %q.", name, strings.TrimSpace(lenstr))
			}
			length = n
			unit = strings.TrimSpace(rest)
			explicit = true
		}

		switch {
		case strings.Contains(unit, "byte"):
			size = SizeByte
		case strings.Contains(unit, "nibble"):
			size = SizeNibble
		default:
			return size, length, parseErrorf(filename, "Unrecognized unit %q for setting %q. Perhaps you misspelled \"byte\" or \"nibble\"?", unit, name)
		}

		if size == SizeNibble && explicit {
			return size, length, parseErrorf(filename, "Invalid length \"%d\" for setting %q. You should only specify a length for bytes.", length, name)
		}
	}

	if size == SizeUnknown {
		return size, length, parseErrorf(filename, "Setting %q is missing a size specifier!", name)
	}

	return size, length, nil
}

func parseReadOnly(filename, name, clause string) (ReadOnly, error) {
	var condstr string
	var negate, hasCond bool

	prefix := clause
	if b, a, ok := strings.Cut(clause, " if "); ok {
		prefix, condstr, negate, hasCond = b, a, true, true
	} else if b, a, ok := strings.Cut(clause, " unless "); ok {
		prefix, condstr, negate, hasCond = b, a, false, true
	}

	if strings.TrimSpace(prefix) != "read-only" {
		return ReadOnly{}, parseErrorf(filename, "Cannot parse read-only condition %q for setting %q!", clause, name)
	}

	if !hasCond {
		return ReadOnly{Kind: ReadOnlyAlways}, nil
	}

	cond, err := parseCondition(filename, name, condstr)
	if err != nil {
		return ReadOnly{}, err
	}
	cond.Negate = negate

	return ReadOnly{Kind: ReadOnlyWhen, Condition: cond}, nil
}

func parseDefault(filename, name, clause string, size Size, length int, def Default) (Default, error) {
	keyword, rest, ok := strings.Cut(clause, " is ")
	if !ok {
		return def, parseErrorf(filename, "Cannot parse default for setting %q! Specify defaults like \"default is 0\".", name)
	}
	if strings.TrimSpace(keyword) != "default" {
		return def, parseErrorf(filename, "Cannot parse default %q for setting %q!", clause, name)
	}

	var condstr string
	var negate, hasCond bool
	if b, a, ok := strings.Cut(rest, " if "); ok {
		rest, condstr, negate, hasCond = b, a, false, true
	} else if b, a, ok := strings.Cut(rest, " unless "); ok {
		rest, condstr, negate, hasCond = b, a, true, true
	}

	hex := strings.NewReplacer(" ", "", "\t", "").Replace(strings.TrimSpace(rest))
	literal, ok := decodeHexPairs(hex)
	if !ok {
		return def, parseErrorf(filename, "Failed to parse setting %q, could not understand default %q.", name, hex)
	}

	want := 1
	if size == SizeByte {
		switch length {
		case 1, 2, 4:
			want = length
		default:
			return def, parseErrorf(filename, "Cannot convert default %q for setting %q because we don't know how to handle length \"%d\"!", clause, name, length)
		}
	}
	if len(literal) != want {
		return def, parseErrorf(filename, "The default for setting %q does not match its declared size!", name)
	}

	var value int64
	for i, b := range literal {
		value |= int64(b) << (8 * i)
	}

	if !hasCond {
		switch def.Kind {
		case DefaultConditional:
			return def, parseErrorf(filename, "Cannot specify an unconditional default alongside conditional defaults for setting %q!", name)
		case DefaultLiteral:
			return def, parseErrorf(filename, "Cannot specify more than one default for setting %q!", name)
		}
		return Default{Kind: DefaultLiteral, Value: value}, nil
	}

	if def.Kind == DefaultLiteral {
		return def, parseErrorf(filename, "Cannot specify an unconditional default alongside conditional defaults for setting %q!", name)
	}

	cond, err := parseCondition(filename, name, condstr)
	if err != nil {
		return def, err
	}
	cond.Negate = negate

	def.Kind = DefaultConditional
	def.Rules = append(def.Rules, DefaultRule{Condition: cond, Value: value})
	return def, nil
}

// parseCondition understands the "<setting> is <hex> [or <hex> ...]"
// grammar shared by read-only and default clauses. The caller assigns the
// polarity.
func parseCondition(filename, owner, condstr string) (Condition, error) {
	name, rest, ok := strings.Cut(condstr, " is ")
	if !ok {
		return Condition{}, parseErrorf(filename, "Failed to parse setting %q, could not understand if condition %q.", owner, condstr)
	}

	var values []int64
	for _, v := range strings.Split(rest, " or ") {
		value, err := strconv.ParseInt(strings.TrimSpace(v), 16, 64)
		if err != nil {
			return Condition{}, parseErrorf(filename, "Failed to parse setting %q, could not understand if condition %q.", owner, condstr)
		}
		values = append(values, value)
	}

	return Condition{Name: strings.TrimSpace(name), Values: values}, nil
}

func parseValues(filename, name, clause string) (map[int64]string, error) {
	if strings.Contains(clause, "-") {
		if strings.Contains(clause, " to ") {
			return nil, parseErrorf(filename, "Setting %q cannot have a range for valid values that includes a dash! %q should be specified like \"20 to E0\".", name, clause)
		}

		k, label, _ := strings.Cut(clause, "-")
		key, err := strconv.ParseInt(strings.TrimSpace(k), 16, 64)
		if err != nil {
			return nil, parseErrorf(filename, "Failed to parse setting %q, could not understand value %q.", name, clause)
		}
		return map[int64]string{key: strings.TrimSpace(label)}, nil
	}

	if low, high, ok := strings.Cut(clause, " to "); ok {
		lo, err := strconv.ParseInt(strings.TrimSpace(low), 16, 64)
		if err != nil {
			return nil, parseErrorf(filename, "Failed to parse setting %q, could not understand value %q.", name, clause)
		}
		hi, err := strconv.ParseInt(strings.TrimSpace(high), 16, 64)
		if err != nil {
			return nil, parseErrorf(filename, "Failed to parse setting %q, could not understand value %q.", name, clause)
		}

		values := make(map[int64]string)
		for v := lo; v <= hi; v++ {
			values[v] = strconv.FormatInt(v, 10)
		}
		return values, nil
	}

	key, err := strconv.ParseInt(strings.TrimSpace(clause), 16, 64)
	if err != nil {
		return nil, parseErrorf(filename, "Failed to parse setting %q, could not understand value %q.", name, clause)
	}
	return map[int64]string{key: strconv.FormatInt(key, 10)}, nil
}

// decodeHexPairs turns a string of hex digit pairs into the byte sequence
// they spell, tolerating a lone trailing digit.
func decodeHexPairs(s string) ([]byte, bool) {
	if s == "" {
		return nil, false
	}

	out := make([]byte, 0, (len(s)+1)/2)
	for i := 0; i < len(s); i += 2 {
		end := i + 2
		if end > len(s) {
			end = len(s)
		}
		v, err := strconv.ParseUint(s[i:end], 16, 8)
		if err != nil {
			return nil, false
		}
		out = append(out, byte(v))
	}
	return out, true
}
