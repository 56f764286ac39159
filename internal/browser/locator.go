package browser

import (
	"errors"
	"fmt"
	"strings"

	"github.com/chromedp/chromedp"
)

// ErrInvalidLocator is returned for a locator that does not name exactly one strategy.
var ErrInvalidLocator = errors.New("invalid locator")

const (
	upperASCII = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	lowerASCII = "abcdefghijklmnopqrstuvwxyz"
)

// roleXPaths maps supported ARIA roles to the elements that carry them implicitly.
var roleXPaths = map[string]string{
	"link":    `//a[@href] | //*[@role='link']`,
	"button":  `//button | //input[@type='button' or @type='submit'] | //*[@role='button']`,
	"heading": `//h1 | //h2 | //h3 | //h4 | //h5 | //h6 | //*[@role='heading']`,
}

// Locator identifies elements on the page. Exactly one of CSS, Role or Text is set.
// Role locators optionally narrow by Name, a case-insensitive substring of the
// element's text or aria-label. Actions that need a single element use the
// first match in document order.
type Locator struct {
	CSS  string `toml:"css,omitempty"`
	Role string `toml:"role,omitempty"`
	Name string `toml:"name,omitempty"`
	Text string `toml:"text,omitempty"`
}

// CSS returns a locator for a CSS selector.
func CSS(selector string) Locator { return Locator{CSS: selector} }

// Role returns a locator for an ARIA role with an optional accessible name.
func Role(role, name string) Locator { return Locator{Role: role, Name: name} }

// Text returns a locator for the element whose own text contains s.
func Text(s string) Locator { return Locator{Text: s} }

// IsZero reports whether no strategy is set.
func (l Locator) IsZero() bool {
	return l.CSS == "" && l.Role == "" && l.Text == ""
}

// Validate checks that exactly one strategy is set and the role is supported.
func (l Locator) Validate() error {
	set := 0
	for _, s := range []string{l.CSS, l.Role, l.Text} {
		if s != "" {
			set++
		}
	}
	if set != 1 {
		return fmt.Errorf("%w: exactly one of css, role, text must be set (got %d)", ErrInvalidLocator, set)
	}
	if l.Name != "" && l.Role == "" {
		return fmt.Errorf("%w: name requires role", ErrInvalidLocator)
	}
	if l.Role != "" {
		if _, ok := roleXPaths[l.Role]; !ok {
			return fmt.Errorf("%w: unsupported role %q", ErrInvalidLocator, l.Role)
		}
	}
	return nil
}

func (l Locator) String() string {
	switch {
	case l.CSS != "":
		return "css=" + l.CSS
	case l.Role != "" && l.Name != "":
		return fmt.Sprintf("role=%s[name=%q]", l.Role, l.Name)
	case l.Role != "":
		return "role=" + l.Role
	case l.Text != "":
		return fmt.Sprintf("text=%q", l.Text)
	default:
		return "<empty>"
	}
}

// XPath returns an expression selecting every match of a role or text locator.
func (l Locator) XPath() (string, error) {
	if err := l.Validate(); err != nil {
		return "", err
	}
	switch {
	case l.Role != "":
		base := roleXPaths[l.Role]
		if l.Name == "" {
			return base, nil
		}
		return fmt.Sprintf(`(%s)[contains(%s, %s)]`,
			base,
			foldCase("normalize-space(concat(string(.), ' ', @aria-label))"),
			xpathLiteral(strings.ToLower(l.Name)),
		), nil
	case l.Text != "":
		return fmt.Sprintf(`//*[not(self::script or self::style or self::title)][text()[contains(%s, %s)]]`,
			foldCase("normalize-space(.)"),
			xpathLiteral(strings.ToLower(strings.Join(strings.Fields(l.Text), " "))),
		), nil
	default:
		return "", fmt.Errorf("%w: css locator has no xpath form", ErrInvalidLocator)
	}
}

// query returns the chromedp selector and options targeting the first match.
func (l Locator) query() (string, []chromedp.QueryOption, error) {
	if err := l.Validate(); err != nil {
		return "", nil, err
	}
	if l.CSS != "" {
		return l.CSS, []chromedp.QueryOption{chromedp.ByQuery}, nil
	}
	xp, err := l.XPath()
	if err != nil {
		return "", nil, err
	}
	return "(" + xp + ")[1]", []chromedp.QueryOption{chromedp.BySearch}, nil
}

// jsElements returns a JS expression evaluating to an array of all matches.
func (l Locator) jsElements() (string, error) {
	if err := l.Validate(); err != nil {
		return "", err
	}
	if l.CSS != "" {
		return fmt.Sprintf(`Array.from(document.querySelectorAll('%s'))`, escJS(l.CSS)), nil
	}
	xp, err := l.XPath()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(`(() => {
		const r = document.evaluate('%s', document, null, XPathResult.ORDERED_NODE_SNAPSHOT_TYPE, null);
		const out = [];
		for (let i = 0; i < r.snapshotLength; i++) out.push(r.snapshotItem(i));
		return out;
	})()`, escJS(xp)), nil
}

func foldCase(expr string) string {
	return fmt.Sprintf("translate(%s, '%s', '%s')", expr, upperASCII, lowerASCII)
}

// xpathLiteral quotes s for XPath 1.0, which has no escape sequences.
func xpathLiteral(s string) string {
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	parts := strings.Split(s, "'")
	quoted := make([]string, 0, len(parts)*2)
	for i, p := range parts {
		if i > 0 {
			quoted = append(quoted, `"'"`)
		}
		quoted = append(quoted, "'"+p+"'")
	}
	return "concat(" + strings.Join(quoted, ", ") + ")"
}

func escJS(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `'`, `\'`)
	s = strings.ReplaceAll(s, "\n", `\n`)
	return s
}
