// Package console is the interactive front end of the directory client.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/userdir/userdir/internal/directory"
	"github.com/userdir/userdir/internal/model"
	"github.com/userdir/userdir/internal/querycache"
)

const prompt = "users> "

// DefaultUser is what "post" sends when no record is given.
var DefaultUser = model.User{ID: 9, Name: "auto"}

// Directory is the client surface the console drives.
// *directory.Directory satisfies it.
type Directory interface {
	FetchDirectory(ctx context.Context) directory.Result
	AppendAndSync(ctx context.Context, user model.User) (model.User, error)
	PeekCached() ([]model.User, bool)
	Status() querycache.Entry[[]model.User]
	Invalidate()
	Stats() querycache.Stats
}

// Console reads commands line by line and writes rendered output.
type Console struct {
	dir Directory
	out io.Writer
}

// New creates a Console writing to out.
func New(dir Directory, out io.Writer) *Console {
	return &Console{dir: dir, out: out}
}

// Run loops until in is exhausted, the user types exit or quit, or ctx ends.
//
// Commands:
//
//	list              fetch (or reuse) the listing and render it
//	post [id name]    append a user, then render the refreshed listing
//	cached            render the cached listing without fetching
//	status            show the cache entry state
//	invalidate        force the next list to refetch
//	help              show commands
//	exit | quit       leave
func (c *Console) Run(ctx context.Context, in io.Reader) error {
	lines, readErr := readLines(ctx, in)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		fmt.Fprint(c.out, prompt)

		var line string
		select {
		case <-ctx.Done():
			fmt.Fprintln(c.out)
			return ctx.Err()
		case l, ok := <-lines:
			if !ok {
				fmt.Fprintln(c.out)
				return <-readErr
			}
			line = l
		}

		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "help", "h":
			c.help()
		case "list", "l":
			c.list(ctx)
		case "post", "p":
			c.post(ctx, args)
		case "cached", "c":
			c.cached()
		case "status", "s":
			c.status()
		case "invalidate":
			c.dir.Invalidate()
			fmt.Fprintln(c.out, "cache invalidated")
		case "exit", "quit":
			fmt.Fprintln(c.out, "Bye!")
			return nil
		default:
			fmt.Fprintf(c.out, "Unknown command: %s (try help)\n", cmd)
		}
	}
}

// readLines scans in on its own goroutine so Run can stop on ctx while a read
// is blocked. A reader that never returns, like an idle terminal, leaves the
// goroutine parked until the process exits. The read error is sent before
// lines is closed.
func readLines(ctx context.Context, in io.Reader) (<-chan string, <-chan error) {
	lines := make(chan string)
	readErr := make(chan error, 1)

	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				readErr <- ctx.Err()
				return
			}
		}
		readErr <- scanner.Err()
	}()

	return lines, readErr
}

func (c *Console) help() {
	fmt.Fprintln(c.out, "Available commands: (l)ist, (p)ost [id name], (c)ached, (s)tatus, invalidate, help, exit")
}

func (c *Console) list(ctx context.Context) {
	res := c.dir.FetchDirectory(ctx)
	switch {
	case res.Err != nil && res.Status == querycache.StatusError:
		fmt.Fprintf(c.out, "Main\nError: %v\n", res.Err)
	case res.Err != nil:
		fmt.Fprintf(c.out, "Main\nLoading... (%v)\n", res.Err)
	default:
		c.render("Main", res.Users)
	}
}

func (c *Console) post(ctx context.Context, args []string) {
	user, err := parseUser(args)
	if err != nil {
		fmt.Fprintf(c.out, "post: %v\n", err)
		return
	}

	created, err := c.dir.AppendAndSync(ctx, user)
	if err != nil {
		fmt.Fprintf(c.out, "post failed: %v\n", err)
		return
	}
	fmt.Fprintf(c.out, "added %s\n", created)
	c.list(ctx)
}

func (c *Console) cached() {
	users, ok := c.dir.PeekCached()
	if !ok {
		fmt.Fprintln(c.out, "BackUpUsers (from cache)\n(nothing cached yet)")
		return
	}
	c.render("BackUpUsers (from cache)", users)
}

func (c *Console) status() {
	e := c.dir.Status()
	st := c.dir.Stats()

	fmt.Fprintf(c.out, "status=%s stale=%t cached=%d", e.Status, e.Stale, len(e.Value))
	if !e.UpdatedAt.IsZero() {
		fmt.Fprintf(c.out, " updated=%s", e.UpdatedAt.Format(time.RFC3339))
	}
	if e.Err != nil {
		fmt.Fprintf(c.out, " error=%q", e.Err.Error())
	}
	fmt.Fprintf(c.out, " hits=%d misses=%d fetches=%d\n", st.Hits, st.Misses, st.Fetches)
}

func (c *Console) render(title string, users []model.User) {
	fmt.Fprintln(c.out, title)
	if len(users) == 0 {
		fmt.Fprintln(c.out, "(empty)")
		return
	}
	for _, u := range users {
		fmt.Fprintf(c.out, "  %d  %s\n", u.ID, u.Name)
	}
}

// parseUser reads "post" arguments: none for DefaultUser, or an id followed
// by a name that may contain spaces.
func parseUser(args []string) (model.User, error) {
	if len(args) == 0 {
		return DefaultUser, nil
	}
	if len(args) < 2 {
		return model.User{}, fmt.Errorf("usage: post [id name]")
	}

	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return model.User{}, fmt.Errorf("invalid id %q", args[0])
	}
	return model.User{ID: id, Name: strings.Join(args[1:], " ")}, nil
}
