// Package vocab corrects recurring recognition mistakes in transcripts
// (product names, acronyms, teammate names) before they are enriched.
//
// A vocabulary file holds one substitution per line:
//
//	pull request => PR
//	s/\bmonday\s*dot\s*com\b/monday.com/g
//
// Blank lines and lines starting with '#' are ignored.
package vocab

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
)

const defaultPassLimit = 30

// Vocabulary applies substitutions repeatedly until the text stops
// changing or the pass limit is reached.
type Vocabulary struct {
	subs      []substitution
	passLimit int
}

// Load reads a vocabulary file. A blank path or a missing file yields an
// empty vocabulary that leaves text untouched.
func Load(path string, passLimit int) (*Vocabulary, error) {
	if strings.TrimSpace(path) == "" {
		return newVocabulary(nil, passLimit), nil
	}

	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return newVocabulary(nil, passLimit), nil
		}
		return nil, fmt.Errorf("failed to open vocabulary %q: %w", path, err)
	}
	defer file.Close()

	v, err := Parse(file, passLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to parse vocabulary %q: %w", path, err)
	}
	return v, nil
}

// Parse compiles substitutions from r.
func Parse(r io.Reader, passLimit int) (*Vocabulary, error) {
	var subs []substitution
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		sub, err := parseLine(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		subs = append(subs, sub)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return newVocabulary(subs, passLimit), nil
}

func newVocabulary(subs []substitution, passLimit int) *Vocabulary {
	if passLimit <= 0 {
		passLimit = defaultPassLimit
	}
	return &Vocabulary{subs: subs, passLimit: passLimit}
}

// Len reports how many substitutions are loaded.
func (v *Vocabulary) Len() int {
	return len(v.subs)
}

func (v *Vocabulary) Apply(text string) (string, error) {
	if len(v.subs) == 0 {
		return text, nil
	}

	for pass := 0; pass < v.passLimit; pass++ {
		changed := false
		for _, sub := range v.subs {
			if next := sub.apply(text); next != text {
				text = next
				changed = true
			}
		}
		if !changed {
			break
		}
	}
	return text, nil
}

type substitution struct {
	re          *regexp.Regexp
	replacement string
	all         bool
}

func (s substitution) apply(input string) string {
	if s.all {
		return s.re.ReplaceAllString(input, s.replacement)
	}
	loc := s.re.FindStringSubmatchIndex(input)
	if loc == nil {
		return input
	}
	expanded := s.re.ExpandString(nil, s.replacement, input, loc)
	return input[:loc[0]] + string(expanded) + input[loc[1]:]
}

func parseLine(line string) (substitution, error) {
	if isSedForm(line) {
		return parseSed(line)
	}
	if strings.Contains(line, "=>") {
		return parsePhrase(line)
	}
	return substitution{}, errors.New("expected 'phrase => replacement' or 's/pattern/replacement/flags'")
}

// parsePhrase matches the phrase case-insensitively as whole words.
func parsePhrase(line string) (substitution, error) {
	from, to, _ := strings.Cut(line, "=>")
	from = strings.TrimSpace(from)
	to = strings.TrimSpace(to)
	if from == "" {
		return substitution{}, errors.New("phrase cannot be empty")
	}

	pattern := regexp.QuoteMeta(from)
	if isWordByte(from[0]) {
		pattern = `\b` + pattern
	}
	if isWordByte(from[len(from)-1]) {
		pattern += `\b`
	}
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return substitution{}, fmt.Errorf("invalid phrase: %w", err)
	}
	return substitution{re: re, replacement: escapeDollar(to), all: true}, nil
}

func parseSed(line string) (substitution, error) {
	delim := line[1]
	pattern, next, err := readDelimited(line, 2, delim)
	if err != nil {
		return substitution{}, fmt.Errorf("invalid pattern: %w", err)
	}
	replacement, next, err := readDelimited(line, next, delim)
	if err != nil {
		return substitution{}, fmt.Errorf("invalid replacement: %w", err)
	}

	// Substitutions are case-insensitive unless the pattern says otherwise.
	inline := "i"
	all := false
	for _, flag := range strings.TrimSpace(line[next:]) {
		switch flag {
		case 'g':
			all = true
		case 'i':
		case 'm', 's':
			inline += string(flag)
		default:
			return substitution{}, fmt.Errorf("unsupported flag %q", flag)
		}
	}

	re, err := regexp.Compile("(?" + inline + ")" + pattern)
	if err != nil {
		return substitution{}, fmt.Errorf("invalid pattern: %w", err)
	}
	return substitution{re: re, replacement: replacement, all: all}, nil
}

// readDelimited returns the text up to the next unescaped delim. Escapes
// other than an escaped delimiter are kept for the regexp compiler.
func readDelimited(line string, start int, delim byte) (string, int, error) {
	var b strings.Builder
	for i := start; i < len(line); i++ {
		c := line[i]
		if c == '\\' && i+1 < len(line) {
			if line[i+1] == delim {
				b.WriteByte(delim)
			} else {
				b.WriteByte(c)
				b.WriteByte(line[i+1])
			}
			i++
			continue
		}
		if c == delim {
			return b.String(), i + 1, nil
		}
		b.WriteByte(c)
	}
	return "", 0, errors.New("unterminated expression")
}

func isSedForm(line string) bool {
	return len(line) > 2 && line[0] == 's' && !isWordByte(line[1]) && line[1] != ' ' && line[1] != '\t'
}

func isWordByte(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

func escapeDollar(s string) string {
	return strings.ReplaceAll(s, "$", "$$")
}
