package console

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/userdir/userdir/internal/directory"
	"github.com/userdir/userdir/internal/model"
	"github.com/userdir/userdir/internal/querycache"
)

type fakeDirectory struct {
	users       []model.User
	fetched     bool
	fetchErr    error
	appendErr   error
	appended    []model.User
	calls       []string
	invalidated int
}

func (f *fakeDirectory) FetchDirectory(context.Context) directory.Result {
	f.calls = append(f.calls, "fetch")
	if f.fetchErr != nil {
		return directory.Result{Status: querycache.StatusError, Err: f.fetchErr}
	}
	f.fetched = true
	return directory.Result{Status: querycache.StatusSuccess, Users: model.CloneUsers(f.users)}
}

func (f *fakeDirectory) AppendAndSync(_ context.Context, u model.User) (model.User, error) {
	f.calls = append(f.calls, "append")
	if f.appendErr != nil {
		return model.User{}, f.appendErr
	}
	f.appended = append(f.appended, u)
	f.users = append(f.users, u)
	return u, nil
}

func (f *fakeDirectory) PeekCached() ([]model.User, bool) {
	f.calls = append(f.calls, "peek")
	if !f.fetched {
		return nil, false
	}
	return model.CloneUsers(f.users), true
}

func (f *fakeDirectory) Status() querycache.Entry[[]model.User] {
	if !f.fetched {
		return querycache.Entry[[]model.User]{Status: querycache.StatusIdle}
	}
	return querycache.Entry[[]model.User]{Status: querycache.StatusSuccess, Value: f.users, HasValue: true}
}

func (f *fakeDirectory) Invalidate() {
	f.invalidated++
}

func (f *fakeDirectory) Stats() querycache.Stats {
	return querycache.Stats{Fetches: 1}
}

func run(t *testing.T, dir Directory, lines ...string) string {
	t.Helper()
	var out bytes.Buffer
	err := New(dir, &out).Run(context.Background(), strings.NewReader(strings.Join(lines, "\n")))
	require.NoError(t, err)
	return out.String()
}

func TestConsole_ListRendersUsers(t *testing.T) {
	dir := &fakeDirectory{users: model.SeedUsers()}

	out := run(t, dir, "list", "exit")

	assert.Contains(t, out, "Main\n")
	for _, u := range model.SeedUsers() {
		assert.Contains(t, out, u.Name)
	}
	assert.Contains(t, out, "Bye!")
}

func TestConsole_PostDefaultUser(t *testing.T) {
	dir := &fakeDirectory{users: model.SeedUsers()}

	out := run(t, dir, "post", "quit")

	require.Len(t, dir.appended, 1)
	assert.Equal(t, DefaultUser, dir.appended[0])
	assert.Equal(t, []string{"append", "fetch"}, dir.calls)
	assert.Contains(t, out, "9  auto")
}

func TestConsole_PostExplicitUser(t *testing.T) {
	dir := &fakeDirectory{}

	run(t, dir, "post 12 Mary Ann")

	require.Len(t, dir.appended, 1)
	assert.Equal(t, model.User{ID: 12, Name: "Mary Ann"}, dir.appended[0])
}

func TestConsole_PostBadArgs(t *testing.T) {
	dir := &fakeDirectory{}

	out := run(t, dir, "post abc name", "post 7")

	assert.Empty(t, dir.appended)
	assert.Contains(t, out, `invalid id "abc"`)
	assert.Contains(t, out, "usage: post [id name]")
}

func TestConsole_PostFailure(t *testing.T) {
	dir := &fakeDirectory{appendErr: errors.New("conflict")}

	out := run(t, dir, "post")

	assert.Contains(t, out, "post failed: conflict")
	assert.Equal(t, []string{"append"}, dir.calls)
}

func TestConsole_ListError(t *testing.T) {
	dir := &fakeDirectory{fetchErr: errors.New("unreachable")}

	out := run(t, dir, "list")

	assert.Contains(t, out, "Error: unreachable")
}

func TestConsole_CachedAndStatus(t *testing.T) {
	dir := &fakeDirectory{users: model.SeedUsers()}

	out := run(t, dir, "cached", "status", "list", "cached", "status", "invalidate")

	assert.Contains(t, out, "(nothing cached yet)")
	assert.Contains(t, out, "status=idle")
	assert.Contains(t, out, "BackUpUsers (from cache)\n  1  Akshay")
	assert.Contains(t, out, "status=success stale=false cached=5")
	assert.Contains(t, out, "cache invalidated")
	assert.Equal(t, 1, dir.invalidated)
}

func TestConsole_UnknownAndBlankLines(t *testing.T) {
	dir := &fakeDirectory{}

	out := run(t, dir, "", "   ", "foobar", "help")

	assert.Contains(t, out, "Unknown command: foobar")
	assert.Contains(t, out, "Available commands:")
	assert.Empty(t, dir.calls)
}

func TestConsole_StopsOnCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	err := New(&fakeDirectory{}, &out).Run(ctx, strings.NewReader("list\n"))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, out.String())
}

func TestParseUser(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    model.User
		wantErr bool
	}{
		{name: "default", args: nil, want: DefaultUser},
		{name: "id and name", args: []string{"6", "zed"}, want: model.User{ID: 6, Name: "zed"}},
		{name: "negative id kept", args: []string{"-1", "neg"}, want: model.User{ID: -1, Name: "neg"}},
		{name: "missing name", args: []string{"6"}, wantErr: true},
		{name: "bad id", args: []string{"x", "y"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseUser(tt.args)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConsole_CancelWhileWaitingForInput(t *testing.T) {
	pr, pw := io.Pipe()
	t.Cleanup(func() { _ = pw.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- New(&fakeDirectory{}, io.Discard).Run(ctx, pr)
	}()

	// Nothing is ever written, so Run is parked at the prompt.
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after the context was canceled")
	}
}

func TestConsole_ReadError(t *testing.T) {
	pr, pw := io.Pipe()
	readFailed := errors.New("terminal gone")
	_ = pw.CloseWithError(readFailed)

	err := New(&fakeDirectory{}, io.Discard).Run(context.Background(), pr)
	assert.ErrorIs(t, err, readFailed)
}
