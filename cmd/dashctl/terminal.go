package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/codemaster-stack/supamart-dashboard/components/dashboard"
)

// terminalView prints what a browser shell would draw.
type terminalView struct {
	mu  sync.Mutex
	out io.Writer
}

func newTerminalView(out io.Writer) *terminalView {
	return &terminalView{out: out}
}

func (v *terminalView) printf(format string, args ...any) {
	v.mu.Lock()
	defer v.mu.Unlock()
	fmt.Fprintf(v.out, format, args...)
}

func (v *terminalView) SetActive(string, bool) {}

func (v *terminalView) SetTitle(title string) {
	v.printf("== %s ==\n", title)
}

func (v *terminalView) SetSidebarOpen(bool) {}

// IsNarrow reports true so the sidebar closes after each selection, as on a
// phone-sized layout.
func (v *terminalView) IsNarrow() bool { return true }

func (v *terminalView) Mount(_ string, content dashboard.Node) {
	v.mu.Lock()
	defer v.mu.Unlock()
	writeNode(v.out, content)
}

// PricesUpdated reprints the section once prices are in the viewer currency.
func (v *terminalView) PricesUpdated(_ string, content dashboard.Node) {
	v.mu.Lock()
	defer v.mu.Unlock()
	fmt.Fprintln(v.out, "-- converted prices --")
	writeNode(v.out, content)
}

func (v *terminalView) ShowBusy(control string, busy bool) {
	if busy {
		v.printf("... %s\n", control)
	}
}

func (v *terminalView) ShowOverlay(bool) {}

func (v *terminalView) ShowMessage(level dashboard.MessageLevel, text string) {
	v.printf("[%s] %s\n", level, text)
}

func (v *terminalView) ShowCurrencyIndicator(currency string) {
	v.printf("Prices shown in %s\n", currency)
}

// writeNode prints table rows one per line and other leaf text as paragraphs.
func writeNode(w io.Writer, root dashboard.Node) {
	dashboard.Walk(root, func(n dashboard.Node) bool {
		el, ok := n.(*dashboard.Element)
		if !ok {
			return true
		}
		switch {
		case el.Tag == "tr":
			cells := make([]string, 0, len(el.Kids))
			for _, cell := range el.Kids {
				field, _ := cell.Attr("data-field")
				cells = append(cells, field+"="+cell.TextContent())
			}
			id, _ := el.Attr(dashboard.AttrRecord)
			if id != "" {
				fmt.Fprintf(w, "%s\t%s\n", id, strings.Join(cells, "  "))
			} else {
				fmt.Fprintln(w, strings.Join(cells, "  "))
			}
			return false
		case len(el.Kids) == 0 && el.Text() != "":
			fmt.Fprintln(w, el.Text())
		}
		return true
	})
}

// terminalPrompter asks on the terminal and treats anything but y/yes as no.
type terminalPrompter struct {
	mu  sync.Mutex
	in  *bufio.Reader
	out io.Writer
}

func newTerminalPrompter(in io.Reader, out io.Writer) *terminalPrompter {
	return &terminalPrompter{in: bufio.NewReader(in), out: out}
}

func (p *terminalPrompter) Confirm(ctx context.Context, message string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return false, err
	}
	fmt.Fprintf(p.out, "%s [y/N] ", message)
	line, err := p.in.ReadString('\n')
	if err != nil && err != io.EOF {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}

type terminalRedirector struct {
	out io.Writer
}

func (r terminalRedirector) Redirect(_ context.Context, url string) error {
	_, err := fmt.Fprintf(r.out, "-> %s\n", url)
	return err
}
