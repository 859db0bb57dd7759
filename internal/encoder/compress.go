package encoder

import (
	"regexp"
	"strings"

	"github.com/HartBrook/cpf/internal/document"
	"github.com/HartBrook/cpf/internal/markdown"
	"github.com/HartBrook/cpf/internal/notation"
)

// compressor turns lines of prose into notation for one document.
type compressor struct {
	table   *notation.Table
	refs    map[string]document.Key // heading slug -> block
	aliases map[string]string       // path -> $name
	used    map[string]bool         // tokens and aliases that were emitted
}

var (
	boldKeyPattern = regexp.MustCompile(`^(?:\*\*|__)([^*_]{1,40}?)(?::(?:\*\*|__)\s*|(?:\*\*|__)\s*[:\-–—]\s*)(.+)$`)

	leadingCondPattern  = regexp.MustCompile(`(?i)^(if not|unless|if|when|whenever)\b[\s,]*(.+?)(?:\s*,\s*then\s+|\s+then\s+|\s*[:,]\s+|\s+[-–—]+\s+)(.+)$`)
	condOnlyPattern     = regexp.MustCompile(`(?i)^(if not|unless|if|when|whenever)\b[\s,]+(.+)$`)
	trailingCondPattern = regexp.MustCompile(`(?i)^(.+?)\s*,?\s+(if not|unless|if|when|whenever)\s+(.+)$`)
	otherwisePattern    = regexp.MustCompile(`(?i)^(.+?)\s*[,;]?\s+(?:otherwise|else)\b[\s,]*(.+)$`)

	negationPattern   = regexp.MustCompile(`(?i)^(?:do\s+not|don'?t|never|avoid|must\s+not|should\s+not|cannot|can'?t)\b[\s:,]*(.+)$`)
	mustPattern       = regexp.MustCompile(`(?i)^(?:always|you\s+must|must|ensure(?:\s+that)?|make\s+sure(?:\s+that|\s+to)?|be\s+sure\s+to|important)\b[\s:,]*(.+)$`)
	preferPattern     = regexp.MustCompile(`(?i)^prefer\s+(.+?)\s+(?:over|instead of|rather than)\s+(.+)$`)
	definitionPattern = regexp.MustCompile(`(?i)^(.+?)\s+(?:means|is defined as|stands for)\s+(.+)$`)
)

// whetherVerbs take "if" to mean "whether", so "check if X" is not a
// trailing condition.
var whetherVerbs = map[string]bool{
	"check": true, "verify": true, "ask": true, "see": true, "determine": true,
	"test": true, "know": true, "decide": true, "confirm": true, "sure": true,
	"unsure": true, "wonder": true, "tell": true, "find": true,
}

// line compresses one source line into zero or more notation lines.
func (c *compressor) line(raw string) []string {
	text := strings.TrimSpace(markdown.StripBullet(raw))
	if text == "" {
		return nil
	}
	if markdown.IsTableRow(text) {
		return []string{"`" + strings.ReplaceAll(text, "`", "'") + "`"}
	}
	if m := boldKeyPattern.FindStringSubmatch(text); m != nil {
		if out := c.keyed(strings.TrimSpace(m[1]), markdown.StripEmphasis(m[2])); len(out) > 0 {
			return out
		}
	}
	text = markdown.StripEmphasis(text)
	if num, rest, ok := markdown.Numbered(text); ok {
		out := c.statements(rest)
		if len(out) == 0 {
			return nil
		}
		out[0] = "#" + num + " " + out[0]
		return out
	}
	return c.statements(text)
}

// keyed handles "**Key:** value" lines. Keys that are really emphasis
// markers fold into the statements instead of becoming definitions.
func (c *compressor) keyed(key, value string) []string {
	switch strings.ToLower(strings.TrimSuffix(key, ":")) {
	case "important", "critical", "required", "must", "always":
		return emphasize(notation.Must, c.statements(value))
	case "never", "forbidden", "do not", "don't":
		return emphasize(notation.Never, c.statements(value))
	case "note", "tip", "hint", "warning", "caution":
		return c.statements(value)
	}
	lits := &literals{}
	k := c.fragment(c.protect(strings.TrimSuffix(key, ":"), lits))
	v := c.fragment(c.protect(value, lits))
	if k == "" || v == "" {
		return nil
	}
	return []string{lits.restore(k + notation.Means + v)}
}

// emphasize applies sym to each statement, inside the action of a
// conditional so the condition still opens the line.
func emphasize(sym string, lines []string) []string {
	for i, line := range lines {
		switch {
		case strings.HasPrefix(line, sym):
		case strings.HasPrefix(line, notation.If):
			if cond, action, found := strings.Cut(line, notation.Then); found && !strings.HasPrefix(action, sym) {
				lines[i] = cond + notation.Then + sym + action
			}
		default:
			lines[i] = sym + line
		}
	}
	return lines
}

// statements compresses each sentence of text on its own. Sentences that
// carry structure get a line to themselves so an operator never reaches
// into a neighbouring sentence; plain sentences share a line.
func (c *compressor) statements(text string) []string {
	var out, plain []string
	flush := func() {
		if len(plain) > 0 {
			out = append(out, strings.Join(plain, ". "))
			plain = nil
		}
	}
	for _, sentence := range sentences(text) {
		body := c.statement(sentence)
		if body == "" {
			continue
		}
		if structured(body) {
			flush()
			out = append(out, body)
			continue
		}
		plain = append(plain, body)
	}
	flush()
	return out
}

// statement compresses one sentence with its list markers already removed.
func (c *compressor) statement(text string) string {
	lits := &literals{}
	return strings.TrimSpace(lits.restore(c.structure(c.protect(text, lits))))
}

// structuralOperators scope over the rest of a line.
var structuralOperators = []string{notation.If, notation.Never, notation.Must, notation.Then, notation.Means, notation.Produces, notation.See, "prefer("}

func structured(body string) bool {
	text := notation.Unquoted(body)
	for _, sym := range structuralOperators {
		if strings.Contains(text, sym) {
			return true
		}
	}
	return false
}

var sentenceEndPattern = regexp.MustCompile(`[.!?]\s+([A-Z])`)

// sentenceContinuations open a sentence that belongs to the one before.
var sentenceContinuations = map[string]bool{"otherwise": true, "else": true}

// sentences splits text at sentence ends outside backtick spans. A
// sentence opening with "Otherwise" stays with the one before it.
func sentences(text string) []string {
	var out []string
	var cur strings.Builder
	flush := func() {
		if s := strings.TrimSpace(cur.String()); s != "" {
			out = append(out, s)
		}
		cur.Reset()
	}
	for _, seg := range notation.Segments(text) {
		if seg.Literal {
			cur.WriteString(seg.Text)
			continue
		}
		rest := seg.Text
		from := 0
		for {
			loc := sentenceEndPattern.FindStringSubmatchIndex(rest[from:])
			if loc == nil {
				break
			}
			end, next := from+loc[0]+1, from+loc[2]
			if !sentenceBreak(rest[:end], rest[next:]) {
				from = end
				continue
			}
			cur.WriteString(rest[:end])
			flush()
			rest, from = rest[next:], 0
		}
		cur.WriteString(rest)
	}
	flush()
	return out
}

var abbreviationEnds = []string{"e.g.", "i.e.", "vs.", "etc."}

func sentenceBreak(before, after string) bool {
	lower := strings.ToLower(before)
	for _, abbr := range abbreviationEnds {
		if strings.HasSuffix(lower, abbr) {
			return false
		}
	}
	first := strings.FieldsFunc(after, func(r rune) bool { return !notation.IsWordRune(r) })
	return len(first) == 0 || !sentenceContinuations[strings.ToLower(first[0])]
}

func (c *compressor) structure(text string) string {
	text = strings.TrimSpace(text)
	if m := leadingCondPattern.FindStringSubmatch(text); m != nil {
		return c.conditional(m[1], m[2], m[3])
	}
	if m := condOnlyPattern.FindStringSubmatch(text); m != nil {
		if cond := c.fragment(m[2]); cond != "" {
			return condition(m[1], cond)
		}
	}
	if m := trailingCondPattern.FindStringSubmatch(text); m != nil && !endsWithWhetherVerb(m[1]) {
		if cond := c.fragment(m[3]); cond != "" {
			if action := c.action(m[1]); action != "" {
				return condition(m[2], cond) + notation.Then + action
			}
		}
	}
	return c.action(text)
}

// action compresses the consequence side of a statement. It never
// introduces a conditional, so output nests at most one level.
func (c *compressor) action(text string) string {
	text = strings.TrimSpace(text)
	if m := negationPattern.FindStringSubmatch(text); m != nil {
		if body := c.fragment(m[1]); body != "" {
			return notation.Never + body
		}
	}
	if m := mustPattern.FindStringSubmatch(text); m != nil {
		if body := c.action(m[1]); body != "" && !strings.HasPrefix(body, notation.Must) {
			return notation.Must + body
		}
	}
	if m := preferPattern.FindStringSubmatch(text); m != nil {
		x, y := c.fragment(m[1]), c.fragment(m[2])
		if x != "" && y != "" {
			return "prefer(" + x + ")>" + y
		}
	}
	if m := definitionPattern.FindStringSubmatch(text); m != nil && len(strings.Fields(m[1])) <= 4 {
		k, v := c.fragment(m[1]), c.fragment(m[2])
		if k != "" && v != "" {
			return k + notation.Means + v
		}
	}
	return c.fragment(text)
}

// conditional renders "if X, Y[, otherwise Z]" as ?X->Y[;Z]. A trailing
// "otherwise if" continues the chain as another clause.
func (c *compressor) conditional(keyword, cond, rest string) string {
	compressed := c.fragment(cond)
	if compressed == "" {
		return c.action(rest)
	}
	main, alt := rest, ""
	if m := otherwisePattern.FindStringSubmatch(rest); m != nil {
		main, alt = m[1], m[2]
	}

	out := condition(keyword, compressed)
	if action := c.action(main); action != "" {
		out += notation.Then + action
	}
	if alt == "" {
		return out
	}
	var next string
	if m := leadingCondPattern.FindStringSubmatch(strings.TrimSpace(alt)); m != nil {
		next = c.conditional(m[1], m[2], m[3])
	} else {
		next = c.action(alt)
	}
	if next == "" {
		return out
	}
	return out + notation.Otherwise + next
}

// condition prefixes a compressed condition with ? or ?!. A condition that
// is itself negated flips the operator so ?!! never appears.
func condition(keyword, cond string) string {
	negated := false
	if sym, ok := notation.LookupOperator(keyword); ok && sym == notation.Unless {
		negated = true
	}
	if strings.HasPrefix(cond, notation.Never) {
		negated = !negated
		cond = strings.TrimSpace(strings.TrimPrefix(cond, notation.Never))
	}
	if negated {
		return notation.Unless + cond
	}
	return notation.If + cond
}

func endsWithWhetherVerb(text string) bool {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return true
	}
	return whetherVerbs[strings.ToLower(strings.Trim(fields[len(fields)-1], ".,:;"))]
}

// trailingPunct is sentence punctuation that may end a word.
const trailingPunct = ".,;:!?"

// protect hides text that must pass through untouched: backtick spans,
// paths and words that would read as operators. Sentence punctuation that
// collides with operators is neutralized.
func (c *compressor) protect(text string, lits *literals) string {
	var b strings.Builder
	for _, seg := range notation.Segments(text) {
		if seg.Literal {
			code := seg.Text
			if !strings.HasSuffix(code, "`") || len(code) < 2 {
				code += "`"
			}
			b.WriteString(lits.add(code))
			continue
		}
		b.WriteString(c.protectWords(seg.Text, lits))
	}
	return b.String()
}

func (c *compressor) protectWords(text string, lits *literals) string {
	var b strings.Builder
	for i, chunk := range strings.Split(text, " ") {
		if i > 0 {
			b.WriteByte(' ')
		}
		if chunk == "" {
			continue
		}
		if sym, ok := notation.MatchOperator(chunk); ok && sym == chunk {
			switch {
			case notation.IsBinary(sym):
				b.WriteString(sym)
			case sym == notation.Otherwise:
				b.WriteByte(',')
			case sym == notation.If || sym == notation.Unless:
			default:
				b.WriteString(lits.add("`" + sym + "`"))
			}
			continue
		}

		core, tail := splitTrailing(chunk)
		lead := ""
		for len(core) > 0 && strings.ContainsRune("(\"'", rune(core[0])) {
			lead += core[:1]
			core = core[1:]
		}
		closing := ""
		for len(core) > 0 && strings.ContainsRune(")\"'", rune(core[len(core)-1])) {
			closing = core[len(core)-1:] + closing
			core = core[:len(core)-1]
		}
		core, inner := splitTrailing(core)

		switch {
		case core == "":
		case c.aliases[core] != "":
			alias := c.aliases[core]
			c.used[alias] = true
			core = lits.add(alias)
		case notation.ContainsOperatorChar(core) || strings.HasPrefix(core, "$") || strings.HasPrefix(core, "@"):
			core = lits.add("`" + core + "`")
		case notation.IsPathLike(core):
			core = lits.add(core)
		case strings.ContainsRune(core, '@') || hasInnerPunct(core):
			core = lits.add("`" + core + "`")
		}
		b.WriteString(lead + core + inner + closing + tail)
	}
	return b.String()
}

// hasInnerPunct reports whether word has punctuation other than a joiner
// between two word runes, as in an email address or key=value.
func hasInnerPunct(word string) bool {
	runes := []rune(word)
	for i := 1; i+1 < len(runes); i++ {
		r := runes[i]
		if notation.IsWordRune(r) || r == '-' || r == '\'' || r == '.' {
			continue
		}
		if notation.IsWordRune(runes[i-1]) && notation.IsWordRune(runes[i+1]) {
			return true
		}
	}
	return false
}

// splitTrailing separates sentence punctuation from the end of a word.
// Question and exclamation marks are dropped and semicolons become commas
// since all three would read as operators.
func splitTrailing(word string) (string, string) {
	core := strings.TrimRight(word, trailingPunct)
	tail := strings.NewReplacer("?", "", "!", "", ";", ",").Replace(word[len(core):])
	if strings.Count(tail, ":") > 1 {
		tail = ":"
	}
	return core, tail
}

var (
	phraseRewrites = []struct {
		pattern *regexp.Regexp
		replace string
	}{
		{regexp.MustCompile(`(?i)\b(?:for example|for instance|such as)\b`), "e.g."},
		{regexp.MustCompile(`(?i)\bin order to\b`), "to"},
		{regexp.MustCompile(`(?i)\bso that\b`), "so"},
		{regexp.MustCompile(`(?i)\b(?:with respect to|with regard to|regarding)\b`), "re"},
		{regexp.MustCompile(`(?i)\bat least\b`), " >= "},
		{regexp.MustCompile(`(?i)\bat most\b`), " <= "},
		{regexp.MustCompile(`(?i)\b(?:more|greater) than\b`), " > "},
		{regexp.MustCompile(`(?i)\b(?:less|fewer) than\b`), " < "},
		{regexp.MustCompile(`(?i)\b(?:as well as|along with)\b`), "and"},
		{regexp.MustCompile(`(?i)\b(?:results in|leads to)\b`), " => "},
		{regexp.MustCompile(`(?i)\b(?:do not|don't|must not|should not|cannot|can't|never)\b`), " !!"},
		{regexp.MustCompile(`(?i)\b(?:it is important to|you should|we need to|we should|there is|there are|this is|that is|in this case|at this point|for this purpose|basically|essentially|simply|just|please)\b`), ""},
		{regexp.MustCompile(`(?i)(\S)\s*,?\s+then\s+(\S)`), "$1 -> $2"},
	}

	// dropped words carry no instruction content.
	dropped = map[string]bool{
		"a": true, "an": true, "the": true,
		"it": true, "its": true, "this": true, "that": true, "these": true, "those": true,
		"you": true, "your": true, "we": true, "our": true, "they": true, "them": true, "their": true,
		"which": true, "who": true, "whom": true,
	}
)

// fragment compresses a clause with no further structure.
func (c *compressor) fragment(text string) string {
	for _, r := range phraseRewrites {
		text = r.pattern.ReplaceAllString(text, r.replace)
	}
	toks := lex(text)
	toks = c.references(toks)
	toks = dropWords(toks)
	toks = connect(toks)
	toks = c.abbreviate(toks)
	toks = group(toks)
	return tidy(render(toks))
}

// references turns "see <heading>" into a block reference when the heading
// names a block of this document.
func (c *compressor) references(toks []tok) []tok {
	var out []tok
	for i := 0; i < len(toks); i++ {
		t := toks[i]
		start := i + 1
		switch {
		case t.isWord("see"):
		case t.isWord("refer") && start < len(toks) && toks[start].isWord("to"):
			start++
		default:
			out = append(out, t)
			continue
		}
		if start < len(toks) && toks[start].isWord("the") {
			start++
		}
		key, end, ok := c.resolve(toks, start)
		if !ok {
			out = append(out, t)
			continue
		}
		if end < len(toks) && toks[end].isWord("section") {
			end++
		}
		out = append(out, tok{text: notation.See + key.String(), kind: litTok, space: t.space})
		i = end - 1
	}
	return out
}

// resolve finds the longest run of words starting at start that names a
// block, trying at most six words.
func (c *compressor) resolve(toks []tok, start int) (document.Key, int, bool) {
	end := start
	for end < len(toks) && end-start < 6 && toks[end].kind == wordTok {
		end++
	}
	for ; end > start; end-- {
		words := make([]string, 0, end-start)
		for _, t := range toks[start:end] {
			words = append(words, t.text)
		}
		if key, ok := c.refs[markdown.Slugify(strings.Join(words, " "))]; ok {
			return key, end, true
		}
	}
	return document.Key{}, 0, false
}

func dropWords(toks []tok) []tok {
	var out []tok
	carry := false
	for _, t := range toks {
		if t.kind == wordTok && dropped[strings.ToLower(t.text)] {
			carry = carry || t.space
			continue
		}
		if carry {
			t.space = true
			carry = false
		}
		out = append(out, t)
	}
	return out
}

// connect turns "and"/"or" between operands into + and |. Commas that
// list single words ahead of a connector join the same run.
func connect(toks []tok) []tok {
	// "a, b, and c": the comma before the connector word goes.
	var trimmed []tok
	for i, t := range toks {
		if t.kind == punctTok && t.text == "," && i+1 < len(toks) && toks[i+1].isWord("and", "or") {
			continue
		}
		trimmed = append(trimmed, t)
	}
	toks = trimmed

	for i, t := range toks {
		if !t.isWord("and", "or") || i == 0 || i+1 >= len(toks) {
			continue
		}
		if !toks[i-1].operand() || !toks[i+1].operand() {
			continue
		}
		sym := notation.And
		if strings.EqualFold(t.text, "or") {
			sym = notation.Or
		}
		toks[i] = tok{text: sym, kind: opTok}

		for j := i - 1; j >= 2; j -= 2 {
			if toks[j-1].kind != punctTok || toks[j-1].text != "," || !toks[j-2].operand() {
				break
			}
			toks[j-1] = tok{text: sym, kind: opTok}
			toks[j].space = false
		}
	}
	return toks
}

// abbreviate replaces known terms with their tokens, longest term first.
func (c *compressor) abbreviate(toks []tok) []tok {
	var out []tok
	for i := 0; i < len(toks); {
		if toks[i].kind != wordTok {
			out = append(out, toks[i])
			i++
			continue
		}
		var words []string
		for j := i; j < len(toks) && toks[j].kind == wordTok && (j == i || toks[j].space); j++ {
			words = append(words, toks[j].text)
		}
		token, n, ok := c.table.Match(words)
		if !ok {
			t := toks[i]
			if notation.IsEverydayToken(t.text) {
				// Quoted so it decodes as written, not as the term.
				t = tok{text: "`" + t.text + "`", kind: litTok, space: t.space}
			}
			out = append(out, t)
			i++
			continue
		}
		c.used[token] = true
		out = append(out, tok{text: token, kind: wordTok, space: toks[i].space})
		i += n
	}
	return out
}

// group parenthesizes a run of single-word operands joined by one
// connector when words sit on both sides of it, so "maintained module or
// plugin exists" reads mnt(mod|plg)exists. Runs that join verbs are
// clause-level and stay bare.
func group(toks []tok) []tok {
	var out []tok
	segStart := 0
	for i := 0; i <= len(toks); i++ {
		if i < len(toks) && !boundary(toks[i]) {
			continue
		}
		out = append(out, groupSegment(toks[segStart:i])...)
		if i < len(toks) {
			out = append(out, toks[i])
		}
		segStart = i + 1
	}
	return out
}

func boundary(t tok) bool {
	switch t.kind {
	case opTok:
		return !t.connector()
	case punctTok:
		return strings.ContainsAny(t.text, ",;:.()")
	}
	return false
}

func groupSegment(seg []tok) []tok {
	var out []tok
	for i := 0; i < len(seg); {
		if !seg[i].operand() || i+2 >= len(seg) || !seg[i+1].connector() || !seg[i+2].operand() {
			out = append(out, seg[i])
			i++
			continue
		}
		sym := seg[i+1].text
		end := i + 3
		for end+1 < len(seg) && seg[end].connector() && seg[end].text == sym && seg[end+1].operand() {
			end += 2
		}
		run := seg[i:end]
		if i == 0 || end == len(seg) || joinsVerbs(run) {
			out = append(out, run...)
			i = end
			continue
		}
		out = append(out, tok{text: "(", kind: openTok})
		first := run[0]
		first.space = false
		out = append(out, first)
		out = append(out, run[1:]...)
		out = append(out, tok{text: ")", kind: closeTok})
		i = end
	}
	return out
}

func joinsVerbs(run []tok) bool {
	for i := 2; i < len(run); i += 2 {
		if run[i].kind == wordTok && imperativeVerbs[strings.ToLower(run[i].text)] {
			return true
		}
	}
	return false
}

var spaceRunPattern = regexp.MustCompile(`\s+`)

// tidy trims stray punctuation and dangling operators from a fragment.
func tidy(s string) string {
	s = spaceRunPattern.ReplaceAllString(strings.TrimSpace(s), " ")
	for {
		before := s
		s = strings.TrimSpace(strings.TrimRight(s, ".,;:"))
		s = strings.TrimSpace(strings.TrimLeft(s, ".,;:"))
		for _, sym := range []string{notation.Then, notation.Produces, notation.Means, notation.And, notation.Or, notation.Never, notation.Must, notation.See} {
			s = strings.TrimSpace(strings.TrimSuffix(s, sym))
		}
		for _, sym := range []string{notation.Then, notation.Produces, notation.Means, notation.And, notation.Or} {
			s = strings.TrimSpace(strings.TrimPrefix(s, sym))
		}
		if s == before {
			return s
		}
	}
}
