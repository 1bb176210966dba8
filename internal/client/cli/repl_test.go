package cli

import (
	"bufio"
	"context"
	"strings"
	"testing"
)

type fakeExec struct {
	unlocked bool

	calls []string
	args  []string
}

func (f *fakeExec) isUnlocked() bool { return f.unlocked }
func (f *fakeExec) Setup(ctx context.Context) error {
	f.calls = append(f.calls, "setup")
	return nil
}
func (f *fakeExec) Unlock(ctx context.Context) error {
	f.calls = append(f.calls, "unlock")
	f.unlocked = true
	return nil
}
func (f *fakeExec) Lock(ctx context.Context) error {
	f.calls = append(f.calls, "lock")
	f.unlocked = false
	return nil
}
func (f *fakeExec) ChangePassword(ctx context.Context) error {
	f.calls = append(f.calls, "passwd")
	return nil
}
func (f *fakeExec) Board(ctx context.Context) error {
	f.calls = append(f.calls, "board")
	return nil
}
func (f *fakeExec) AddColumn(ctx context.Context, args []string) error {
	f.calls = append(f.calls, "addcolumn")
	f.args = args
	return nil
}
func (f *fakeExec) RemoveColumn(ctx context.Context, args []string) error {
	f.calls = append(f.calls, "rmcolumn")
	return nil
}
func (f *fakeExec) AddCard(ctx context.Context) error {
	f.calls = append(f.calls, "addcard")
	return nil
}
func (f *fakeExec) Process(ctx context.Context, args []string) error {
	f.calls = append(f.calls, "process")
	return nil
}
func (f *fakeExec) Tables(ctx context.Context) error {
	f.calls = append(f.calls, "tables")
	return nil
}
func (f *fakeExec) Table(ctx context.Context, args []string) error {
	f.calls = append(f.calls, "table")
	return nil
}
func (f *fakeExec) Export(ctx context.Context, args []string) error {
	f.calls = append(f.calls, "export")
	return nil
}
func (f *fakeExec) DeleteRows(ctx context.Context, args []string) error {
	f.calls = append(f.calls, "delete")
	return nil
}
func (f *fakeExec) Undo(ctx context.Context, args []string) error {
	f.calls = append(f.calls, "undo")
	return nil
}
func (f *fakeExec) Redo(ctx context.Context, args []string) error {
	f.calls = append(f.calls, "redo")
	return nil
}
func (f *fakeExec) Weekly(ctx context.Context, args []string) error {
	f.calls = append(f.calls, "weekly")
	return nil
}
func (f *fakeExec) Summary(ctx context.Context, args []string) error {
	f.calls = append(f.calls, "summary")
	return nil
}
func (f *fakeExec) Todos(ctx context.Context) error {
	f.calls = append(f.calls, "todos")
	return nil
}
func (f *fakeExec) AddTodo(ctx context.Context, args []string) error {
	f.calls = append(f.calls, "addtodo")
	return nil
}
func (f *fakeExec) AddUniform(ctx context.Context) error {
	f.calls = append(f.calls, "adduniform")
	return nil
}
func (f *fakeExec) Sources(ctx context.Context) error {
	f.calls = append(f.calls, "sources")
	return nil
}
func (f *fakeExec) SetSource(ctx context.Context, args []string) error {
	f.calls = append(f.calls, "source")
	return nil
}
func (f *fakeExec) Import(ctx context.Context, args []string) error {
	f.calls = append(f.calls, "import")
	return nil
}
func (f *fakeExec) Validate(ctx context.Context) error {
	f.calls = append(f.calls, "validate")
	return nil
}

func TestRunREPL_UnlockFlowAndCommands(t *testing.T) {
	origPrint := printlnFn
	printlnFn = func(...any) (int, error) { return 0, nil }
	t.Cleanup(func() { printlnFn = origPrint })

	input := strings.NewReader(strings.Join([]string{
		"help",
		"unlock",
		"help",
		"board",
		"addcolumn Intake Review",
		"tables",
		"table kanban_cards",
		"undo tok-1",
		"foobar",
		"exit",
	}, "\n"))

	exec := &fakeExec{unlocked: false}
	sc := bufio.NewScanner(input)

	runREPL(context.Background(), exec, func() string { return "status" }, sc)

	wantOrder := []string{"unlock", "board", "addcolumn", "tables", "table", "undo"}
	if len(exec.calls) < len(wantOrder) {
		t.Fatalf("few calls: %+v", exec.calls)
	}
	idx := 0
	for _, c := range exec.calls {
		if idx < len(wantOrder) && c == wantOrder[idx] {
			idx++
		}
	}
	if idx != len(wantOrder) {
		t.Fatalf("commands order mismatch: got %v, want subseq %v", exec.calls, wantOrder)
	}
	if len(exec.args) != 2 || exec.args[0] != "Intake" || exec.args[1] != "Review" {
		t.Fatalf("addcolumn args: %v", exec.args)
	}
}

func TestRunREPL_Aliases(t *testing.T) {
	origPrint := printlnFn
	printlnFn = func(...any) (int, error) { return 0, nil }
	t.Cleanup(func() { printlnFn = origPrint })

	input := strings.NewReader("login\nb\nt\nlogout\nquit\n")
	exec := &fakeExec{}
	sc := bufio.NewScanner(input)

	runREPL(context.Background(), exec, func() string { return "s" }, sc)

	want := []string{"unlock", "board", "tables", "lock"}
	if len(exec.calls) != len(want) {
		t.Fatalf("calls: %v", exec.calls)
	}
	for i, c := range want {
		if exec.calls[i] != c {
			t.Fatalf("call %d: got %q, want %q", i, exec.calls[i], c)
		}
	}
}

func TestRunREPL_BlankAndEOF(t *testing.T) {
	origPrint := printlnFn
	printlnFn = func(...any) (int, error) { return 0, nil }
	t.Cleanup(func() { printlnFn = origPrint })

	input := strings.NewReader("\n   \n")
	exec := &fakeExec{unlocked: true}
	sc := bufio.NewScanner(input)

	runREPL(context.Background(), exec, func() string { return "s" }, sc)

	if len(exec.calls) != 0 {
		t.Fatalf("unexpected calls: %v", exec.calls)
	}
}
