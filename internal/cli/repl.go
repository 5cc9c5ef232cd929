// Package cli is the line-oriented terminal front end of the marketplace.
// Every command goes through the session controller.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"CampusMart/internal/catalog"
	"CampusMart/internal/listing"
	"CampusMart/internal/session"
)

const helpText = `Commands:
  browse                 show the catalog with the current filters
  search <term>          filter by a term in title or description ("search" alone clears it)
  category <name>        filter by category ("category all" clears it)
  sort <key>             newest | oldest | price-asc | price-desc
  show <n>               open listing n from the last list
  back                   leave the listing view
  login <email> <name>   log in with your university email
  logout                 log out
  sell                   publish a listing
  mine                   your listings
  delete <id>            remove one of your listings
  contact                mail link for the seller of the open listing
  reload                 fetch the catalog again
  help                   this text
  quit                   leave`

type REPL struct {
	ctrl   *session.Controller
	in     *bufio.Reader
	out    io.Writer
	prompt bool

	// shown is the last printed list; show <n> indexes into it.
	shown []listing.Listing
}

// New wires a REPL to ctrl. Prompts are printed only when prompt is set,
// so piped input produces clean output.
func New(ctrl *session.Controller, in io.Reader, out io.Writer, prompt bool) *REPL {
	return &REPL{
		ctrl:   ctrl,
		in:     bufio.NewReader(in),
		out:    out,
		prompt: prompt,
	}
}

// Run loads the catalog and then executes commands until quit or EOF.
func (r *REPL) Run(ctx context.Context) error {
	r.println("CampusMart: buy and sell within your university (type 'help' for commands)")
	if r.reload(ctx) {
		r.browse()
	}

	for {
		if ctx.Err() != nil {
			return nil
		}
		if r.prompt {
			fmt.Fprintf(r.out, "campusmart %s> ", r.status())
		}

		line, err := r.readLine()
		if err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		eof := err != nil

		cmd, arg, _ := strings.Cut(strings.TrimLeft(line, " \t"), " ")
		if cmd != "" && r.exec(ctx, strings.ToLower(cmd), arg) {
			r.println("Bye!")
			return nil
		}
		if eof {
			return nil
		}
	}
}

func (r *REPL) exec(ctx context.Context, cmd, arg string) (quit bool) {
	switch cmd {
	case "help":
		r.println(helpText)
	case "browse":
		_ = r.ctrl.Navigate(session.KindBrowse)
		r.browse()
	case "search":
		q := r.ctrl.State().Query
		q.Search = arg
		r.ctrl.SetQuery(q)
		r.browse()
	case "category":
		r.category(strings.TrimSpace(arg))
	case "sort":
		r.sort(arg)
	case "show":
		r.show(arg)
	case "back":
		r.ctrl.Back()
		r.browse()
	case "login":
		r.login(ctx, arg)
	case "logout":
		r.ctrl.Logout()
		r.println("Logged out.")
	case "sell":
		r.sell(ctx)
	case "mine":
		r.mine()
	case "delete":
		r.remove(ctx, strings.TrimSpace(arg))
	case "contact":
		r.contact()
	case "reload":
		if r.reload(ctx) {
			r.browse()
		}
	case "quit", "exit":
		return true
	default:
		r.printf("Unknown command: %s\n", cmd)
	}
	return false
}

func (r *REPL) status() string {
	st := r.ctrl.State()
	who := "guest"
	if st.User != nil {
		who = st.User.Name
	}
	return fmt.Sprintf("[%s, %s] ", who, st.View.Kind())
}

func (r *REPL) reload(ctx context.Context) bool {
	r.println("Loading listings...")
	if err := r.ctrl.LoadListings(ctx); err != nil {
		r.failure(err)
		return false
	}
	return true
}

func (r *REPL) browse() {
	v := r.ctrl.Browse()
	q := r.ctrl.State().Query

	filters := []string{"sort " + q.Sort.String()}
	if q.Category != "" && q.Category != catalog.AllCategories {
		filters = append(filters, "category "+q.Category)
	}
	if q.Search != "" {
		filters = append(filters, fmt.Sprintf("search %q", q.Search))
	}
	r.printf("%d listing(s), %s\n", len(v.Listings), strings.Join(filters, ", "))

	if len(v.Listings) == 0 {
		r.println("No listings found. Try adjusting your search or filters.")
	}
	r.list(v.Listings)
}

func (r *REPL) list(ls []listing.Listing) {
	r.shown = ls
	for i, l := range ls {
		r.printf("%3d. %-42s %12s  %s\n", i+1, truncate(l.Title, 42), FormatINR(l.Price), l.Category)
	}
}

func (r *REPL) category(name string) {
	cats := r.ctrl.Browse().Categories

	q := r.ctrl.State().Query
	switch {
	case name == "" || strings.EqualFold(name, catalog.AllCategories):
		q.Category = ""
	default:
		found := ""
		for _, c := range cats {
			if strings.EqualFold(c, name) {
				found = c
				break
			}
		}
		if found == "" {
			r.printf("Unknown category %q. Choose one of: %s\n", name, strings.Join(cats, ", "))
			return
		}
		q.Category = found
	}

	r.ctrl.SetQuery(q)
	r.browse()
}

func (r *REPL) sort(arg string) {
	k, err := catalog.ParseSortKey(arg)
	if err != nil {
		names := make([]string, 0, 4)
		for _, k := range catalog.SortKeys() {
			names = append(names, k.String())
		}
		r.printf("Unknown sort %q. Choose one of: %s\n", strings.TrimSpace(arg), strings.Join(names, ", "))
		return
	}

	q := r.ctrl.State().Query
	q.Sort = k
	r.ctrl.SetQuery(q)
	r.browse()
}

func (r *REPL) show(arg string) {
	n, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil || n < 1 || n > len(r.shown) {
		r.printf("Pick a number between 1 and %d.\n", len(r.shown))
		return
	}

	l := r.shown[n-1]
	r.ctrl.SelectListing(l)

	r.println(l.Title)
	r.println(FormatINR(l.Price))
	r.printf("Category: %s\n", l.Category)
	r.println(l.Description)
	r.printf("Listed by %s on %s\n", l.SellerName, l.CreatedAt.Local().Format("2 Jan 2006"))
	r.printf("Image: %s\n", l.ImageURL)
	r.printf("Id: %s\n", l.ID)
	if r.ctrl.State().LoggedIn() {
		r.println("Type 'contact' to email the seller.")
	} else {
		r.println("Log in to contact the seller.")
	}
}

func (r *REPL) login(ctx context.Context, arg string) {
	email, name, _ := strings.Cut(strings.TrimSpace(arg), " ")
	if email == "" {
		r.println("Usage: login <email> <name>")
		return
	}

	if err := r.ctrl.Login(ctx, email, strings.TrimSpace(name)); err != nil {
		r.failure(err)
		return
	}
	r.printf("Welcome, %s!\n", r.ctrl.State().User.Name)
}

// sell prompts for each draft field. An empty answer keeps the value from
// a previous failed attempt.
func (r *REPL) sell(ctx context.Context) {
	if err := r.ctrl.Navigate(session.KindCreate); err != nil || !r.ctrl.State().LoggedIn() {
		r.println("Please log in to sell an item.")
		return
	}

	var prev listing.Draft
	if d := r.ctrl.State().Draft; d != nil {
		prev = *d
	}

	var d listing.Draft
	var err error
	if d.Title, err = r.ask("Title", prev.Title); err != nil {
		return
	}
	if d.Description, err = r.ask("Description", prev.Description); err != nil {
		return
	}

	prevPrice := ""
	if prev.Title != "" {
		prevPrice = strconv.FormatFloat(prev.Price, 'f', -1, 64)
	}
	price, err := r.ask("Price (₹)", prevPrice)
	if err != nil {
		return
	}
	if d.Price, err = strconv.ParseFloat(strings.TrimSpace(price), 64); err != nil {
		r.printf("Invalid price %q.\n", price)
		return
	}

	if d.Category, err = r.ask("Category", prev.Category); err != nil {
		return
	}
	if d.ImageURL, err = r.ask("Image URL (optional)", prev.ImageURL); err != nil {
		return
	}

	r.println("Posting...")
	if err := r.ctrl.CreateListing(ctx, d); err != nil {
		r.failure(err)
		return
	}
	r.printf("Listed %q.\n", d.Title)
	r.mine()
}

func (r *REPL) ask(label, current string) (string, error) {
	if current != "" {
		r.printf("%s [%s]: ", label, current)
	} else {
		r.printf("%s: ", label)
	}

	line, err := r.readLine()
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		r.println("")
		return "", err
	}
	if strings.TrimSpace(line) == "" {
		return current, nil
	}
	return line, nil
}

func (r *REPL) mine() {
	_ = r.ctrl.Navigate(session.KindDashboard)
	if !r.ctrl.State().LoggedIn() {
		r.println("Please log in to see your listings.")
		return
	}

	mine := r.ctrl.MyListings()
	if len(mine) == 0 {
		r.println("You haven't listed any items yet.")
	}
	r.printf("You have %d listing(s).\n", len(mine))
	r.list(mine)
}

func (r *REPL) remove(ctx context.Context, id string) {
	if id == "" {
		r.println("Usage: delete <id>")
		return
	}
	if err := r.ctrl.RemoveListing(ctx, id); err != nil {
		r.failure(err)
		return
	}
	r.println("Listing removed.")
}

func (r *REPL) contact() {
	uri, err := r.ctrl.ContactSeller()
	switch {
	case errors.Is(err, session.ErrLoginRequired):
		r.println("Please log in to contact the seller.")
	case errors.Is(err, session.ErrNoSelection):
		r.println("Open a listing first with 'show <n>'.")
	case err != nil:
		r.failure(err)
	default:
		r.println(uri)
	}
}

// failure prints the controller's message for err, if it left one.
func (r *REPL) failure(err error) {
	if msg := r.ctrl.State().Error; msg != "" {
		r.println(msg)
		return
	}
	if errors.Is(err, session.ErrLoginRequired) {
		r.println("Please log in first.")
		return
	}
	r.printf("Error: %v\n", err)
}

func (r *REPL) readLine() (string, error) {
	line, err := r.in.ReadString('\n')
	return strings.TrimRight(line, "\r\n"), err
}

func (r *REPL) println(s string) { fmt.Fprintln(r.out, s) }

func (r *REPL) printf(format string, args ...any) { fmt.Fprintf(r.out, format, args...) }

func truncate(s string, n int) string {
	rs := []rune(s)
	if len(rs) <= n {
		return s
	}
	return string(rs[:n-1]) + "…"
}
