package footer

import (
	"errors"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/librespark/verbadge/internal/versioncheck"
)

// ErrNoFooter is returned when the document has neither a copyright line nor
// a footer container to attach to.
var ErrNoFooter = errors.New("footer not found")

const (
	lineClass  = "text-gray-500 text-sm mt-1 text-center md:text-left"
	badgeClass = "inline-flex items-center bg-red-600 text-white text-xs px-2 py-0.5 rounded-md ml-1 cursor-pointer animate-pulse font-medium"
	styleID    = "verbadge-pulse"

	// State values of the data-verbadge attribute.
	StateLatest = "latest"
	StateUpdate = "update"
	StateFailed = "failed"
)

const pulseCSS = `
@keyframes pulse {
  0%, 100% { opacity: 1; }
  50% { opacity: 0.6; }
}
.animate-pulse {
  animation: pulse 2s cubic-bezier(0.4, 0, 0.6, 1) infinite;
}
`

// Link is where the update badge points. NewTab opens it in a new browsing
// context.
type Link struct {
	URL    string
	NewTab bool
}

// Adapter turns a check outcome into footer markup.
type Adapter struct {
	Labels *Labels
	Badge  Link
}

// New returns an Adapter printing with labels and pointing the badge at badge.
func New(labels *Labels, badge Link) *Adapter {
	if labels == nil {
		labels = NewLabels()
	}
	return &Adapter{Labels: labels, Badge: badge}
}

// Node builds the version paragraph. A non-nil err renders the failure state
// with the message only in the title attribute.
func (a *Adapter) Node(res *versioncheck.Result, err error) *html.Node {
	p := element(atom.P, "class", lineClass)

	if err != nil || res == nil {
		if err == nil {
			err = errors.New("no result")
		}
		setAttr(p, "data-verbadge", StateFailed)
		setAttr(p, "title", a.Labels.sprintf(msgErrorDetails, err.Error()))
		p.AppendChild(text(a.Labels.sprintf(msgVersion, "")))
		span := element(atom.Span, "class", "text-amber-500")
		span.AppendChild(text(a.Labels.sprintf(msgFailed)))
		p.AppendChild(span)
		return p
	}

	current := res.CurrentFormatted
	if current == versioncheck.UnknownVersion {
		current = a.Labels.sprintf(msgUnknown)
	}
	p.AppendChild(text(a.Labels.sprintf(msgVersion, current)))

	if !res.HasUpdate {
		setAttr(p, "data-verbadge", StateLatest)
		p.AppendChild(text(" "))
		span := element(atom.Span, "class", "text-green-500")
		span.AppendChild(text(a.Labels.sprintf(msgLatest)))
		p.AppendChild(span)
		return p
	}

	setAttr(p, "data-verbadge", StateUpdate)
	p.AppendChild(text(" "))
	p.AppendChild(a.badge(res))
	return p
}

func (a *Adapter) badge(res *versioncheck.Result) *html.Node {
	link := element(atom.A,
		"class", badgeClass,
		"href", a.Badge.URL,
		"title", res.LatestFormatted,
	)
	if a.Badge.NewTab {
		setAttr(link, "target", "_blank")
		setAttr(link, "rel", "noopener noreferrer")
	}

	svg := &html.Node{
		Type:      html.ElementNode,
		DataAtom:  atom.Svg,
		Data:      "svg",
		Namespace: "svg",
		Attr: []html.Attribute{
			{Key: "xmlns", Val: "http://www.w3.org/2000/svg"},
			{Key: "class", Val: "h-3 w-3 mr-1"},
			{Key: "fill", Val: "none"},
			{Key: "viewBox", Val: "0 0 24 24"},
			{Key: "stroke", Val: "currentColor"},
		},
	}
	svg.AppendChild(&html.Node{
		Type:      html.ElementNode,
		Data:      "path",
		Namespace: "svg",
		Attr: []html.Attribute{
			{Key: "stroke-linecap", Val: "round"},
			{Key: "stroke-linejoin", Val: "round"},
			{Key: "stroke-width", Val: "2"},
			{Key: "d", Val: "M13 10V3L4 14h7v7l9-11h-7z"},
		},
	})
	link.AppendChild(svg)
	link.AppendChild(text(a.Labels.sprintf(msgNewVersion)))
	return link
}

// Apply renders the outcome into doc. The node goes right after the first
// `.footer p.text-gray-500.text-sm`; failing that, it is appended to the first
// div inside `.footer .container`. The pulse stylesheet is added to <head>
// once per document.
func (a *Adapter) Apply(doc *html.Node, res *versioncheck.Result, err error) error {
	node := a.Node(res, err)

	if line := findCopyrightLine(doc); line != nil {
		line.Parent.InsertBefore(node, line.NextSibling)
	} else if div := findContainerDiv(doc); div != nil {
		div.AppendChild(node)
	} else {
		return ErrNoFooter
	}

	ensureStyle(doc)
	return nil
}

func findCopyrightLine(doc *html.Node) *html.Node {
	return find(doc, func(n *html.Node) bool {
		return n.DataAtom == atom.P &&
			hasClass(n, "text-gray-500") && hasClass(n, "text-sm") &&
			attr(n, "data-verbadge") == "" &&
			hasAncestor(n, func(p *html.Node) bool { return hasClass(p, "footer") })
	})
}

func findContainerDiv(doc *html.Node) *html.Node {
	container := find(doc, func(n *html.Node) bool {
		return hasClass(n, "container") &&
			hasAncestor(n, func(p *html.Node) bool { return hasClass(p, "footer") })
	})
	if container == nil {
		return nil
	}
	for c := container.FirstChild; c != nil; c = c.NextSibling {
		if div := find(c, func(n *html.Node) bool { return n.DataAtom == atom.Div }); div != nil {
			return div
		}
	}
	return nil
}

func ensureStyle(doc *html.Node) {
	head := find(doc, func(n *html.Node) bool { return n.DataAtom == atom.Head })
	if head == nil {
		return
	}
	if find(head, func(n *html.Node) bool { return n.DataAtom == atom.Style && attr(n, "id") == styleID }) != nil {
		return
	}
	style := element(atom.Style, "id", styleID)
	style.AppendChild(text(pulseCSS))
	head.AppendChild(style)
}
