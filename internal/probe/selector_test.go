package probe

import (
	"testing"

	"axoscope/internal/model"
)

func TestByIndexCanonicalOrder(t *testing.T) {
	seq := model.NewSequential(
		&model.Scale{Factor: 1},
		&model.Scale{Factor: 2},
		&model.Scale{Factor: 3},
	)

	paths, err := ByIndex(2, 0).Select(seq)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if len(paths) != 2 || paths[0].String() != "0" || paths[1].String() != "2" {
		t.Fatalf("expected ascending positions, got %v", paths)
	}
}

func TestByIndexRejectsNonPipeline(t *testing.T) {
	if _, err := ByIndex(0).Select(&model.Scale{Factor: 1}); err == nil {
		t.Fatal("expected error for non-sequential root")
	}
}

func TestByPathCopiesInput(t *testing.T) {
	seq := model.NewSequential(&model.Scale{Factor: 1}, &model.Scale{Factor: 2})

	given := model.Path{1}
	paths, err := ByPath(given).Select(seq)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	given[0] = 0
	if paths[0][0] != 1 {
		t.Fatal("selector must not alias caller-owned paths")
	}
}

func TestByPathValidatesAgainstModel(t *testing.T) {
	seq := model.NewSequential(&model.Scale{Factor: 1})
	if _, err := ByPath(model.Path{2}).Select(seq); err == nil {
		t.Fatal("expected dangling path error")
	}
}

func TestWhereDepthFirstOrder(t *testing.T) {
	inner := model.NewSequential(&model.Scale{Factor: 2}, &model.Scale{Factor: 3})
	root := model.NewSequential(&model.Scale{Factor: 1}, inner)

	paths, err := Where(func(_ model.Path, m model.Module) bool {
		_, ok := m.(*model.Scale)
		return ok
	}).Select(root)
	if err != nil {
		t.Fatalf("select: %v", err)
	}

	want := []string{"0", "1/0", "1/1"}
	if len(paths) != len(want) {
		t.Fatalf("unexpected selection: %v", paths)
	}
	for i := range want {
		if paths[i].String() != want[i] {
			t.Fatalf("unexpected order: got=%v want=%v", paths, want)
		}
	}
}

func TestByTypeSelectsAllInstances(t *testing.T) {
	inner := model.NewSequential(&model.Scale{Factor: 2}, &model.Activation{Name: "relu"})
	root := model.NewSequential(&model.Scale{Factor: 1}, inner)

	paths, err := ByType[*model.Scale]().Select(root)
	if err != nil {
		t.Fatalf("select: %v", err)
	}

	want := []string{"0", "1/0"}
	if len(paths) != len(want) {
		t.Fatalf("unexpected selection: %v", paths)
	}
	for i := range want {
		if paths[i].String() != want[i] {
			t.Fatalf("unexpected order: got=%v want=%v", paths, want)
		}
	}
}

func TestWhereNeverSelectsRoot(t *testing.T) {
	root := model.NewSequential(&model.Scale{Factor: 1})

	paths, err := Where(func(model.Path, model.Module) bool { return true }).Select(root)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	for _, p := range paths {
		if len(p) == 0 {
			t.Fatal("root must not be selected")
		}
	}
}

func TestWhereRequiresPredicate(t *testing.T) {
	if _, err := Where(nil).Select(model.NewSequential()); err == nil {
		t.Fatal("expected error for nil predicate")
	}
}
