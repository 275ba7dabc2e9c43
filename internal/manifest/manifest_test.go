package manifest

import (
	"strings"
	"testing"
)

func wrapSCN(inner string) string {
	return `<?xml version="1.0"?>
<scn xmlns="http://www.leica-microsystems.com/scn/2010/10/01">
  <collection sizeX="100000" sizeY="80000">
` + inner + `
  </collection>
</scn>`
}

const mainImage = `
    <image>
      <creationDate>2024-01-01T00:00:00</creationDate>
      <device model="SCN400" version="1.0"/>
      <scanSettings>
        <illuminationSettings>
          <illuminationSource>brightfield</illuminationSource>
          <numericalAperture>0.75</numericalAperture>
        </illuminationSettings>
        <objectiveSettings><objective>20x</objective></objectiveSettings>
      </scanSettings>
      <view sizeX="90000" sizeY="72000" offsetX="5000" offsetY="4000"/>
      <pixels>
        <dimension sizeX="10000" sizeY="8000" ifd="1" z="0"/>
        <dimension sizeX="2500" sizeY="2000" ifd="2" z="0"/>
        <dimension sizeX="10000" sizeY="8000" ifd="9" z="1"/>
      </pixels>
    </image>`

const macroImage = `
    <image>
      <view sizeX="100000" sizeY="80000" offsetX="0" offsetY="0"/>
      <pixels>
        <dimension sizeX="500" sizeY="400" ifd="6" z="0"/>
      </pixels>
    </image>`

func TestParse_RejectsNonLeicaNamespace(t *testing.T) {
	_, err := Parse(`<foo/>`)
	if err == nil {
		t.Fatal("expected error for non-Leica document")
	}
}

func TestParse_MainImageAndBarcode(t *testing.T) {
	xml := wrapSCN(`<barcode>ABC123</barcode>` + mainImage)
	c, err := Parse(xml)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !c.HasBarcode || c.Barcode != "ABC123" {
		t.Errorf("barcode = (%q, %v), want (\"ABC123\", true)", c.Barcode, c.HasBarcode)
	}
	if c.ClicksAcross != 100000 || c.ClicksDown != 80000 {
		t.Errorf("collection extent = (%d,%d), want (100000,80000)", c.ClicksAcross, c.ClicksDown)
	}
	if len(c.Images) != 1 {
		t.Fatalf("len(Images) = %d, want 1", len(c.Images))
	}

	img := c.Images[0]
	if len(img.Dimensions) != 2 {
		t.Fatalf("len(Dimensions) = %d, want 2 (z=1 plane must be filtered)", len(img.Dimensions))
	}
	if img.Dimensions[0].Width != 10000 || img.Dimensions[1].Width != 2500 {
		t.Errorf("dimensions not sorted descending by width: %+v", img.Dimensions)
	}
	if got, want := img.Dimensions[0].ClicksPerPixel, 9.0; got != want {
		t.Errorf("ClicksPerPixel = %v, want %v", got, want)
	}
	if img.DeviceModel != "SCN400" || img.Objective != "20x" || img.IlluminationSource != "brightfield" {
		t.Errorf("optional metadata not captured: %+v", img)
	}
	if img.IsMacro(c) {
		t.Error("sub-extent main image must not be classified as macro")
	}
}

func TestParse_NoBarcodeElement(t *testing.T) {
	xml := wrapSCN(mainImage)
	c, err := Parse(xml)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if c.HasBarcode {
		t.Error("HasBarcode = true, want false when <barcode> is absent")
	}
}

func TestParse_MacroDetection(t *testing.T) {
	xml := wrapSCN(mainImage + macroImage)
	c, err := Parse(xml)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(c.Images) != 2 {
		t.Fatalf("len(Images) = %d, want 2", len(c.Images))
	}
	main, macro := c.Images[0], c.Images[1]
	if !macro.IsMacro(c) {
		t.Error("second image should be classified as macro: zero offset, full extent")
	}
	if main.IsMacro(c) {
		t.Error("main image spans a sub-region and must not be classified as macro")
	}
}

func TestParse_MissingRequiredAttribute(t *testing.T) {
	xml := `<?xml version="1.0"?>
<scn xmlns="http://www.leica-microsystems.com/scn/2010/10/01">
  <collection sizeY="80000">
  </collection>
</scn>`
	_, err := Parse(xml)
	if err == nil || !strings.Contains(err.Error(), "sizeX") {
		t.Fatalf("Parse error = %v, want error mentioning missing sizeX", err)
	}
}

func TestParse_ImageWithNoZPlaneZeroDimensions(t *testing.T) {
	xml := wrapSCN(`
    <image>
      <view sizeX="100000" sizeY="80000" offsetX="0" offsetY="0"/>
      <pixels>
        <dimension sizeX="10000" sizeY="8000" ifd="1" z="1"/>
      </pixels>
    </image>`)
	_, err := Parse(xml)
	if err == nil {
		t.Fatal("expected error when no dimension at z=0 survives filtering")
	}
}
