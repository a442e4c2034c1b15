package generator

import (
	"strings"
	"text/template"
	"unicode"
)

// templateFuncs returns custom template functions.
func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"join":  strings.Join,
		"where": whereClause,
	}
}

// kotlinKeywords are hard keywords that must be quoted when used as names.
var kotlinKeywords = map[string]bool{
	"as": true, "break": true, "class": true, "continue": true, "do": true,
	"else": true, "false": true, "for": true, "fun": true, "if": true,
	"in": true, "interface": true, "is": true, "null": true, "object": true,
	"package": true, "return": true, "super": true, "this": true, "throw": true,
	"true": true, "try": true, "typealias": true, "typeof": true, "val": true,
	"var": true, "when": true, "while": true,
}

// ident quotes name with backticks when it is a Kotlin keyword.
func ident(name string) string {
	if kotlinKeywords[name] {
		return "`" + name + "`"
	}
	return name
}

// upperFirst upper-cases the first rune and keeps the rest.
func upperFirst(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

// pascalCase converts to PascalCase.
func pascalCase(s string) string {
	words := splitWords(s)
	for i, word := range words {
		words[i] = upperFirst(word)
	}
	return strings.Join(words, "")
}

// splitWords splits a type rendering into its identifier words, so
// "Map<String, List<Int>>?" yields Map, String, List, Int.
func splitWords(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// whereClause renders ` where A, B` or nothing.
func whereClause(clauses []string) string {
	if len(clauses) == 0 {
		return ""
	}
	return " where " + strings.Join(clauses, ", ")
}

// typeParamList renders `<A, B>` or nothing.
func typeParamList(params []string) string {
	if len(params) == 0 {
		return ""
	}
	return "<" + strings.Join(params, ", ") + ">"
}

// formatHeader turns a configured header into comment lines. Text that is
// already a comment is kept as is.
func formatHeader(header string) string {
	header = strings.TrimSpace(header)
	if header == "" {
		return ""
	}
	if strings.HasPrefix(header, "//") || strings.HasPrefix(header, "/*") {
		return header
	}
	lines := strings.Split(header, "\n")
	for i, line := range lines {
		line = strings.TrimRight(line, " ")
		if line == "" {
			lines[i] = "//"
		} else {
			lines[i] = "// " + line
		}
	}
	return strings.Join(lines, "\n")
}
