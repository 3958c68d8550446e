package assets

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/Faultbox/rsm2gltf/pkg/grf/grftest"
)

func writeArchive(t *testing.T, dir, name string, files []grftest.File) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := grftest.WriteFile(path, files); err != nil {
		t.Fatalf("writing archive: %v", err)
	}
	return path
}

func TestManagerPriority(t *testing.T) {
	dir := t.TempDir()
	base := writeArchive(t, dir, "data.grf", []grftest.File{
		{Name: `data\texture\wall.bmp`, Data: []byte("base")},
		{Name: `data\model\tree.rsm`, Data: []byte("tree")},
	})
	patch := writeArchive(t, dir, "patch.grf", []grftest.File{
		{Name: `data\texture\wall.bmp`, Data: []byte("patched")},
	})

	m := NewManager()
	defer m.Close()
	if err := m.AddArchive(base); err != nil {
		t.Fatalf("AddArchive: %v", err)
	}
	if err := m.AddArchive(patch); err != nil {
		t.Fatalf("AddArchive: %v", err)
	}

	data, err := m.Load(`DATA\Texture\Wall.bmp`)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if string(data) != "patched" {
		t.Errorf("Load = %q, want patched", data)
	}

	data, err = m.Load("data/model/tree.rsm")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if string(data) != "tree" {
		t.Errorf("Load = %q, want tree", data)
	}

	want := []string{"data/model/tree.rsm", "data/texture/wall.bmp"}
	got := m.List()
	if len(got) != len(want) {
		t.Fatalf("List = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("List[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestManagerDirOverridesArchive(t *testing.T) {
	dir := t.TempDir()
	archive := writeArchive(t, dir, "data.grf", []grftest.File{
		{Name: `data\texture\wall.bmp`, Data: []byte("archive")},
	})

	root := filepath.Join(dir, "extracted")
	texDir := filepath.Join(root, "Data", "Texture")
	if err := os.MkdirAll(texDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(texDir, "WALL.BMP"), []byte("loose"), 0o644); err != nil {
		t.Fatal(err)
	}

	m := NewManager()
	defer m.Close()
	if err := m.AddArchive(archive); err != nil {
		t.Fatalf("AddArchive: %v", err)
	}
	if err := m.AddDir(root); err != nil {
		t.Fatalf("AddDir: %v", err)
	}

	data, err := m.Load("data/texture/wall.bmp")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if string(data) != "loose" {
		t.Errorf("Load = %q, want loose", data)
	}
	if !m.Exists(`data\texture\WALL.bmp`) {
		t.Error("Exists = false, want true")
	}
}

func TestManagerNotFound(t *testing.T) {
	m := NewManager()
	defer m.Close()

	if err := m.AddDir(t.TempDir()); err != nil {
		t.Fatalf("AddDir: %v", err)
	}
	if m.Exists("missing.bmp") {
		t.Error("Exists = true for missing file")
	}
	if _, err := m.Load("missing.bmp"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Load error = %v, want ErrNotFound", err)
	}
}

func TestManagerAddErrors(t *testing.T) {
	m := NewManager()
	defer m.Close()

	if err := m.AddArchive(filepath.Join(t.TempDir(), "none.grf")); err == nil {
		t.Error("AddArchive on missing file succeeded")
	}
	if err := m.AddDir(filepath.Join(t.TempDir(), "none")); err == nil {
		t.Error("AddDir on missing directory succeeded")
	}
}

func TestManagerCaches(t *testing.T) {
	dir := t.TempDir()
	archive := writeArchive(t, dir, "data.grf", []grftest.File{
		{Name: "a.txt", Data: []byte("a")},
	})

	m := NewManager()
	defer m.Close()
	if err := m.AddArchive(archive); err != nil {
		t.Fatalf("AddArchive: %v", err)
	}

	for i := 0; i < 3; i++ {
		if _, err := m.Load("A.TXT"); err != nil {
			t.Fatalf("Load: %v", err)
		}
	}
	hits, misses := m.Stats()
	if hits != 2 || misses != 1 {
		t.Errorf("Stats = %d hits %d misses, want 2 and 1", hits, misses)
	}
}

func TestCacheLimit(t *testing.T) {
	c := NewCacheWithLimit(4)

	if !c.Set("a", []byte("abc")) {
		t.Fatal("Set within budget rejected")
	}
	if c.Set("b", []byte("de")) {
		t.Error("Set over budget accepted")
	}
	if !c.Set("a", []byte("abcd")) {
		t.Error("replacing an entry within budget rejected")
	}
	if c.Size() != 4 {
		t.Errorf("Size = %d, want 4", c.Size())
	}
	if _, ok := c.Get("b"); ok {
		t.Error("rejected entry is cached")
	}

	c.Clear()
	if c.Size() != 0 {
		t.Errorf("Size after Clear = %d, want 0", c.Size())
	}
	if hits, misses := c.Stats(); hits != 0 || misses != 0 {
		t.Errorf("Stats after Clear = %d, %d", hits, misses)
	}
}
