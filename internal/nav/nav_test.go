package nav

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/starford/rtfm/internal/models"
)

func TestBuildTree_SiblingDocumentsShareDirectory(t *testing.T) {
	tree := BuildTree([]string{"a/b.md", "a/c.md"})
	if len(tree) != 1 {
		t.Fatalf("len(tree) = %d, want 1", len(tree))
	}
	dir := tree[0]
	if !dir.IsDir() || dir.Name != "a" {
		t.Fatalf("root = %+v, want directory a", dir)
	}
	if len(dir.Children) != 2 {
		t.Fatalf("children = %d, want 2", len(dir.Children))
	}
	if dir.Children[0].Title != "b" || dir.Children[1].Title != "c" {
		t.Errorf("children = %q, %q", dir.Children[0].Title, dir.Children[1].Title)
	}
	if dir.Children[0].Path != "a/b" {
		t.Errorf("path = %q, want a/b", dir.Children[0].Path)
	}
}

func TestBuildTree_ReservedNamesExcluded(t *testing.T) {
	tree := BuildTree([]string{"README.md", "index.md"})
	if len(tree) != 0 {
		t.Errorf("tree = %+v, want empty", tree)
	}
}

func TestBuildTree_Empty(t *testing.T) {
	tree := BuildTree(nil)
	if tree == nil || len(tree) != 0 {
		t.Errorf("tree = %#v, want empty non-nil", tree)
	}
	data, _ := json.Marshal(tree)
	if string(data) != "[]" {
		t.Errorf("json = %s, want []", data)
	}
}

func TestBuildTree_RootDocument(t *testing.T) {
	tree := BuildTree([]string{"getting-started.md"})
	want := []models.NavNode{{
		Kind:  models.NodeDocument,
		Name:  "getting-started.md",
		Title: "getting started",
		Path:  "getting-started",
	}}
	if !reflect.DeepEqual(tree, want) {
		t.Errorf("tree = %+v, want %+v", tree, want)
	}
}

func TestBuildTree_NestedAndInterleaved(t *testing.T) {
	tree := BuildTree([]string{
		"api/v1/users.md",
		"api/v2/users.md",
		"guide/how-to/deploy.md",
		"guide/setup.md",
		"zeta.md",
	})
	if len(tree) != 3 {
		t.Fatalf("len(tree) = %d, want 3", len(tree))
	}
	api := tree[0]
	if len(api.Children) != 2 || api.Children[0].Name != "v1" || api.Children[1].Name != "v2" {
		t.Errorf("api children = %+v", api.Children)
	}
	guide := tree[1]
	if guide.Children[0].Title != "how to" || !guide.Children[0].IsDir() {
		t.Errorf("guide first child = %+v", guide.Children[0])
	}
	if guide.Children[1].Path != "guide/setup" {
		t.Errorf("guide second child = %+v", guide.Children[1])
	}
	if tree[2].Kind != models.NodeDocument {
		t.Errorf("zeta should be a document, got %+v", tree[2])
	}
}

func TestBuildTree_NoDuplicateDirectories(t *testing.T) {
	tree := BuildTree([]string{"a/x.md", "b/y.md", "a/z.md"})
	if len(tree) != 2 {
		t.Fatalf("len(tree) = %d, want 2", len(tree))
	}
	if len(tree[0].Children) != 2 {
		t.Errorf("a children = %d, want 2", len(tree[0].Children))
	}
}

func TestBuildTree_NestedReservedNamesKept(t *testing.T) {
	tree := BuildTree([]string{"guide/index.md"})
	if len(tree) != 1 || len(tree[0].Children) != 1 {
		t.Fatalf("tree = %+v", tree)
	}
	if tree[0].Children[0].Path != "guide/index" {
		t.Errorf("path = %q", tree[0].Children[0].Path)
	}
}

func TestBuildTree_Deterministic(t *testing.T) {
	paths := []string{"a/b/c.md", "a/b/d.md", "a/e.md", "f-g.md", "h/i.md"}
	first, _ := json.Marshal(BuildTree(paths))
	second, _ := json.Marshal(BuildTree(paths))
	if string(first) != string(second) {
		t.Errorf("outputs differ:\n%s\n%s", first, second)
	}
}

func TestBuildTree_WireFormat(t *testing.T) {
	data, err := json.Marshal(BuildTree([]string{"guide/setup.md"}))
	if err != nil {
		t.Fatal(err)
	}
	want := `[{"type":"dir","name":"guide","title":"guide","children":[{"type":"file","name":"setup.md","title":"setup","path":"guide/setup"}]}]`
	if string(data) != want {
		t.Errorf("json = %s\nwant %s", data, want)
	}
}
