package aries

import (
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// LookupTables resolves symbolic expression references against the
// project's side-channel tables: the sidefile/system-table mapping, any
// custom lookup tables, and the common default lines used when a record's
// expression is abbreviated away entirely.
type LookupTables struct {
	// References maps "TABLE.ALIAS" to the literal expression fragment
	// the reference stands for.
	References map[string]string
	// CustomTables maps a full reference token to its replacement.
	CustomTables map[string]string
	// CommonLines maps a keyword to its project-level default expression.
	CommonLines map[string]string
}

// CommonLine returns the project default expression for a keyword.
func (lk *LookupTables) CommonLine(keyword string) (string, bool) {
	if lk == nil || lk.CommonLines == nil {
		return "", false
	}
	expr, ok := lk.CommonLines[strings.ToUpper(keyword)]
	return expr, ok
}

// Tokenize splits an expression into its positional token list, resolving
// @-style symbolic references to literal values. It is pure over its
// inputs and the lookup tables. An unresolvable reference fails the whole
// expression; callers log and skip the row.
func (lk *LookupTables) Tokenize(expression string) ([]string, error) {
	var out []string
	for _, tok := range strings.Fields(expression) {
		if !strings.HasPrefix(tok, "@") {
			out = append(out, tok)
			continue
		}
		resolved, err := lk.resolve(tok)
		if err != nil {
			return nil, err
		}
		// A reference may stand for several tokens.
		out = append(out, strings.Fields(resolved)...)
	}
	return out, nil
}

func (lk *LookupTables) resolve(tok string) (string, error) {
	if lk != nil {
		if lk.CustomTables != nil {
			if v, ok := lk.CustomTables[tok]; ok {
				return v, nil
			}
		}
		// "@TABLE.ALIAS" or "@TABLE(ALIAS)".
		ref := strings.TrimPrefix(tok, "@")
		if i := strings.IndexByte(ref, '('); i > 0 && strings.HasSuffix(ref, ")") {
			ref = ref[:i] + "." + ref[i+1:len(ref)-1]
		}
		if lk.References != nil {
			if v, ok := lk.References[strings.ToUpper(ref)]; ok {
				return v, nil
			}
		}
	}
	return "", eris.Errorf("aries: unresolved lookup reference %q", tok)
}

// TryParseNumber attempts a numeric read of a token without using parse
// failure as control flow at call sites. Thousands separators are
// tolerated; the "X" carry-forward sentinel is not a number.
func TryParseNumber(tok string) (float64, bool) {
	s := strings.ReplaceAll(strings.TrimSpace(tok), ",", "")
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// Token returns the i-th token or "" when the expression is short.
func Token(ls []string, i int) string {
	if i < 0 || i >= len(ls) {
		return ""
	}
	return ls[i]
}

// IsCarryForward reports the "X" sentinel meaning "repeat the previous
// segment's value".
func IsCarryForward(tok string) bool {
	return strings.EqualFold(strings.TrimSpace(tok), "X")
}
