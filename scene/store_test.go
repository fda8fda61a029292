package scene

import (
	"fmt"
	"testing"

	"github.com/zeptools/certmerge/elements"
)

func seqIDs() Option {
	n := 0
	return WithIDFunc(func() string {
		n++
		return fmt.Sprintf("new-%d", n)
	})
}

// addShapes adds rectangles with ids a, b, c... the way the editor does: z = current count
func addShapes(s *Store, ids ...string) {
	for _, id := range ids {
		s.AddElement(elements.NewShape(id, s.CanvasSize(), s.NextZIndex(), elements.ShapeRectangle))
	}
}

func paintOrder(s *Store) string {
	out := ""
	for _, e := range s.SortedElements() {
		out += e.Common().ID
	}
	return out
}

func TestNewStoreDefaults(t *testing.T) {
	s := NewStore()
	if s.CanvasSize() != elements.SizeA4 || s.Scale() != 1 || !s.ShowGrid() || s.Len() != 0 {
		t.Errorf("defaults: size=%+v scale=%v grid=%v len=%d", s.CanvasSize(), s.Scale(), s.ShowGrid(), s.Len())
	}
	if bg := s.Background(); bg.Type != elements.BackgroundColor || bg.Color != "#ffffff" {
		t.Errorf("background = %+v", bg)
	}
}

func TestAddElementZOrder(t *testing.T) {
	s := NewStore()
	for i := range 5 {
		before := s.Len()
		addShapes(s, fmt.Sprint(i))
		e, _ := s.Element(fmt.Sprint(i))
		if e.Common().ZIndex != before {
			t.Errorf("element %d z = %d, want %d", i, e.Common().ZIndex, before)
		}
		if e.Common().Selected {
			t.Error("new elements start unselected")
		}
	}
	if !elements.ZOrderDense(s.Elements()) {
		t.Error("z-orders should be 0..n-1")
	}
}

func TestAddElementStoresCopy(t *testing.T) {
	s := NewStore()
	e := elements.NewText("t", s.CanvasSize(), 0)
	s.AddElement(e)
	e.Text = "mutated"
	got, _ := s.Element("t")
	if got.(*elements.Text).Text != elements.DefaultText {
		t.Error("store shares the caller's element")
	}
}

func TestUpdateElement(t *testing.T) {
	s := NewStore()
	addShapes(s, "a", "b")
	s.SelectElement("b")

	upd, _ := s.Element("b")
	upd.Common().X = 42
	s.UpdateElement(upd)
	got, _ := s.Element("b")
	if got.Common().X != 42 {
		t.Errorf("x = %v", got.Common().X)
	}
	sel, _ := s.Selected()
	if sel.Common().X != 42 {
		t.Error("selection should follow the update")
	}

	ghost := elements.NewShape("zzz", s.CanvasSize(), 9, elements.ShapeCircle)
	s.UpdateElement(ghost)
	if s.Len() != 2 {
		t.Error("unknown id must be ignored")
	}
}

func TestSelectElement(t *testing.T) {
	s := NewStore()
	addShapes(s, "a", "b", "c")

	s.SelectElement("b")
	for _, e := range s.Elements() {
		if e.Common().Selected != (e.Common().ID == "b") {
			t.Errorf("%s selected = %v", e.Common().ID, e.Common().Selected)
		}
	}
	if sel, ok := s.Selected(); !ok || sel.Common().ID != "b" {
		t.Error("b should be the selection")
	}

	s.SelectElement("missing")
	if _, ok := s.Selected(); ok {
		t.Error("unknown id clears the selection")
	}
	for _, e := range s.Elements() {
		if e.Common().Selected {
			t.Errorf("%s still flagged", e.Common().ID)
		}
	}

	s.SelectElement("c")
	s.ClearSelection()
	if _, ok := s.Selected(); ok {
		t.Error("ClearSelection")
	}
	if e, _ := s.Element("c"); e.Common().Selected {
		t.Error("ClearSelection resets flags")
	}
}

func TestDeleteElement(t *testing.T) {
	s := NewStore()
	addShapes(s, "a", "b", "c", "d")
	s.SelectElement("b")
	s.DeleteElement("b")

	if s.Len() != 3 {
		t.Fatalf("len = %d", s.Len())
	}
	if _, ok := s.Selected(); ok {
		t.Error("deleting the selection clears it")
	}
	if paintOrder(s) != "acd" || !elements.ZOrderDense(s.Elements()) {
		t.Errorf("order = %s dense=%v", paintOrder(s), elements.ZOrderDense(s.Elements()))
	}

	s.SelectElement("a")
	s.DeleteElement("c")
	if sel, ok := s.Selected(); !ok || sel.Common().ID != "a" {
		t.Error("deleting another element keeps the selection")
	}
	s.DeleteElement("nope")
	if s.Len() != 2 {
		t.Error("unknown id must be ignored")
	}
}

func TestReorder(t *testing.T) {
	tests := []struct {
		name string
		op   func(s *Store)
		want string
	}{
		{"forward middle", func(s *Store) { s.BringForward("b") }, "acbd"},
		{"forward top is a no-op", func(s *Store) { s.BringForward("d") }, "abcd"},
		{"backward middle", func(s *Store) { s.SendBackward("c") }, "acbd"},
		{"backward bottom is a no-op", func(s *Store) { s.SendBackward("a") }, "abcd"},
		{"forward then backward restores", func(s *Store) { s.BringForward("b"); s.SendBackward("b") }, "abcd"},
		{"backward then forward restores", func(s *Store) { s.SendBackward("c"); s.BringForward("c") }, "abcd"},
		{"unknown id", func(s *Store) { s.BringForward("x") }, "abcd"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStore()
			addShapes(s, "a", "b", "c", "d")
			tt.op(s)
			if got := paintOrder(s); got != tt.want {
				t.Errorf("order = %s, want %s", got, tt.want)
			}
			if !elements.ZOrderDense(s.Elements()) {
				t.Error("z-orders not dense")
			}
		})
	}
}

func TestReorderSortsFirst(t *testing.T) {
	s := NewStore()
	// inserted out of paint order
	for i, id := range []string{"c", "a", "b"} {
		e := elements.NewShape(id, s.CanvasSize(), []int{2, 0, 1}[i], elements.ShapeRectangle)
		s.AddElement(e)
	}
	s.BringForward("a")
	if got := paintOrder(s); got != "bac" {
		t.Errorf("order = %s, want bac", got)
	}
}

func TestClipboard(t *testing.T) {
	s := NewStore(seqIDs())
	addShapes(s, "a")
	orig, _ := s.Element("a")
	orig.Common().X, orig.Common().Y = 10, 10
	s.UpdateElement(orig)

	if id := s.PasteElement(); id != "" || s.Len() != 1 {
		t.Fatal("paste with an empty clipboard must not change the scene")
	}

	s.CopySelectedElement()
	if s.HasClipboard() {
		t.Fatal("copy without a selection keeps the clipboard empty")
	}

	s.SelectElement("a")
	s.CopySelectedElement()
	id := s.PasteElement()
	if id != "new-1" || s.Len() != 2 {
		t.Fatalf("paste id = %q len = %d", id, s.Len())
	}
	p, _ := s.Element(id)
	b := p.Common()
	if b.X != 30 || b.Y != 30 || b.Selected || b.ZIndex != 1 {
		t.Errorf("pasted = %+v", b)
	}

	// the clipboard holds a snapshot: later edits to the source do not leak in
	orig.Common().X = 500
	s.UpdateElement(orig)
	id2 := s.PasteElement()
	p2, _ := s.Element(id2)
	if p2.Common().X != 30 || p2.Common().ZIndex != 2 {
		t.Errorf("second paste = %+v", p2.Common())
	}
}

func TestDuplicate(t *testing.T) {
	s := NewStore(seqIDs())
	e := elements.NewText("t", s.CanvasSize(), 0)
	e.X, e.Y = 10, 10
	s.AddElement(e)
	s.SelectElement("t")

	id := s.DuplicateElement("t")
	d, ok := s.Element(id)
	if !ok || id == "t" {
		t.Fatalf("duplicate id = %q", id)
	}
	if d.Common().X != 30 || d.Common().Y != 30 || d.Common().Selected {
		t.Errorf("duplicate = %+v", d.Common())
	}
	if d.(*elements.Text).Text != e.Text {
		t.Error("duplicate should carry the text")
	}
	if s.HasClipboard() {
		t.Error("DuplicateElement leaves the clipboard alone")
	}
	if s.DuplicateElement("missing") != "" || s.Len() != 2 {
		t.Error("duplicate of an unknown id")
	}
}

func TestDefaultIDsAreUUIDs(t *testing.T) {
	s := NewStore()
	addShapes(s, "a")
	id := s.DuplicateElement("a")
	if len(id) != 36 {
		t.Errorf("id = %q", id)
	}
}

func TestLoadClearSnapshot(t *testing.T) {
	s := NewStore()
	addShapes(s, "a", "b")
	s.SelectElement("a")
	bg := elements.Background{Type: elements.BackgroundColor, Color: "#101010"}
	s.SetBackground(bg)

	snap := s.Snapshot("Course")
	if snap.Name != "Course" || len(snap.Elements) != 2 || snap.Background.Color != "#101010" {
		t.Fatalf("snapshot = %+v", snap)
	}
	for _, e := range snap.Elements {
		if e.Common().Selected {
			t.Error("snapshots carry no selection")
		}
	}

	s.ClearCanvas()
	if s.Len() != 0 || s.Background().Color != "#ffffff" {
		t.Error("ClearCanvas")
	}

	s.LoadTemplate(snap.Elements, elements.SizeCertificate, snap.Background)
	if s.Len() != 2 || s.CanvasSize() != elements.SizeCertificate || s.Background().Color != "#101010" {
		t.Error("LoadTemplate")
	}
	if _, ok := s.Selected(); ok {
		t.Error("LoadTemplate clears the selection")
	}

	s.LoadTemplate(nil, elements.SizeA4, nil)
	if s.Background().Color != "#101010" {
		t.Error("a nil background keeps the current one")
	}
}

func TestSettings(t *testing.T) {
	s := NewStore()
	s.SetScale(0.5)
	s.SetScale(-1)
	if s.Scale() != 0.5 {
		t.Errorf("scale = %v", s.Scale())
	}
	s.ToggleGrid()
	if s.ShowGrid() {
		t.Error("ToggleGrid")
	}
	s.SetCanvasSize(elements.SizeLetter)
	if s.CanvasSize() != elements.SizeLetter {
		t.Error("SetCanvasSize")
	}
}
