// Package footer renders the version indicator into an HTML document. It
// builds one paragraph node describing the check outcome and inserts it after
// the footer's copyright line, or into the footer container when that line is
// missing. Labels are localized through golang.org/x/text.
package footer
