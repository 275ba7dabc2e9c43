package wsi

import "testing"

func TestProperties_SetGetDelete(t *testing.T) {
	p := NewProperties()
	p.Set("leica.barcode", "ABC123")

	v, ok := p.Get("leica.barcode")
	if !ok || v != "ABC123" {
		t.Fatalf("Get = (%q, %v), want (\"ABC123\", true)", v, ok)
	}

	p.Delete("leica.barcode")
	if _, ok := p.Get("leica.barcode"); ok {
		t.Fatal("property still present after Delete")
	}
}

func TestProperties_SealForbidsWrites(t *testing.T) {
	p := NewProperties()
	p.Set("a", "1")
	p.Seal()

	defer func() {
		if r := recover(); r == nil {
			t.Error("Set after Seal did not panic")
		}
	}()
	p.Set("b", "2")
}

func TestProperties_SealForbidsDelete(t *testing.T) {
	p := NewProperties()
	p.Set("a", "1")
	p.Seal()

	defer func() {
		if r := recover(); r == nil {
			t.Error("Delete after Seal did not panic")
		}
	}()
	p.Delete("a")
}

func TestProperties_GetStillWorksAfterSeal(t *testing.T) {
	p := NewProperties()
	p.Set("a", "1")
	p.Seal()

	if v, ok := p.Get("a"); !ok || v != "1" {
		t.Errorf("Get after Seal = (%q, %v), want (\"1\", true)", v, ok)
	}
}

func TestProperties_AllReturnsIndependentCopy(t *testing.T) {
	p := NewProperties()
	p.Set("a", "1")

	all := p.All()
	all["a"] = "mutated"
	all["b"] = "new"

	if v, _ := p.Get("a"); v != "1" {
		t.Error("mutating the map returned by All() affected the underlying Properties")
	}
	if _, ok := p.Get("b"); ok {
		t.Error("adding to the map returned by All() affected the underlying Properties")
	}
}
