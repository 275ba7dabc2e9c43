// Package manifest parses the Leica SCN ImageDescription XML into a
// Collection tree. The manifest is ephemeral: callers consume it during
// level synthesis and then let it be garbage collected.
package manifest

import (
	"sort"
	"strconv"
	"strings"

	"github.com/beevik/etree"

	"github.com/openscn/scnslide/internal/leicaerr"
)

// Namespace is the Leica SCN XML namespace every valid manifest declares.
const Namespace = "http://www.leica-microsystems.com/scn/2010/10/01"

// Collection is the top-level container in the manifest: the whole slide.
type Collection struct {
	Barcode      string
	HasBarcode   bool
	ClicksAcross int64
	ClicksDown   int64
	Images       []*Image
}

// Image is one acquisition (main or macro) with its pyramid and placement.
type Image struct {
	CreationDate       string
	DeviceModel        string
	DeviceVersion      string
	IlluminationSource string
	Objective          string
	Aperture           string

	ClicksAcross    int64
	ClicksDown      int64
	ClicksOffsetX   int64
	ClicksOffsetY   int64

	Dimensions []*Dimension
}

// IsMacro reports whether img is the whole-slide macro overview: zero offset
// and full collection extent.
func (img *Image) IsMacro(c *Collection) bool {
	return img.ClicksOffsetX == 0 && img.ClicksOffsetY == 0 &&
		img.ClicksAcross == c.ClicksAcross && img.ClicksDown == c.ClicksDown
}

// Dimension is one pyramid level of one acquired image, backed by one IFD.
type Dimension struct {
	Dir            int64
	Width          int64
	Height         int64
	ClicksPerPixel float64
}

// Parse parses a Leica ImageDescription XML document into a Collection.
// It gates twice on the Leica namespace: a cheap substring check before
// parsing (so non-Leica TIFFs fail fast without paying for XML parsing),
// and an authoritative check of the parsed root's namespace afterward.
func Parse(xmlText string) (*Collection, error) {
	if !strings.Contains(xmlText, Namespace) {
		return nil, leicaerr.New(leicaerr.FormatNotSupported, "ImageDescription does not contain Leica SCN namespace")
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromString(xmlText); err != nil {
		return nil, leicaerr.Wrap(leicaerr.BadData, "parsing ImageDescription XML", err)
	}

	root := doc.Root()
	if root == nil || root.Tag != "scn" {
		return nil, leicaerr.New(leicaerr.BadData, "ImageDescription: missing scn root element")
	}
	if ns := root.SelectAttrValue("xmlns", ""); ns != Namespace {
		return nil, leicaerr.New(leicaerr.FormatNotSupported, "ImageDescription: root element not in Leica SCN namespace")
	}

	collectionEl := root.SelectElement("collection")
	if collectionEl == nil {
		return nil, leicaerr.New(leicaerr.BadData, "scn: missing collection element")
	}

	clicksAcross, err := intAttr(collectionEl, "sizeX")
	if err != nil {
		return nil, leicaerr.Wrap(leicaerr.BadData, "collection@sizeX", err)
	}
	clicksDown, err := intAttr(collectionEl, "sizeY")
	if err != nil {
		return nil, leicaerr.Wrap(leicaerr.BadData, "collection@sizeY", err)
	}

	c := &Collection{ClicksAcross: clicksAcross, ClicksDown: clicksDown}
	if barcodeEl := collectionEl.SelectElement("barcode"); barcodeEl != nil {
		c.Barcode = strings.TrimSpace(barcodeEl.Text())
		c.HasBarcode = true
	}

	for _, imageEl := range collectionEl.SelectElements("image") {
		img, err := parseImage(imageEl)
		if err != nil {
			return nil, err
		}
		c.Images = append(c.Images, img)
	}

	return c, nil
}

func parseImage(imageEl *etree.Element) (*Image, error) {
	viewEl := imageEl.SelectElement("view")
	if viewEl == nil {
		return nil, leicaerr.New(leicaerr.BadData, "image: missing view element")
	}

	clicksAcross, err := intAttr(viewEl, "sizeX")
	if err != nil {
		return nil, leicaerr.Wrap(leicaerr.BadData, "view@sizeX", err)
	}
	clicksDown, err := intAttr(viewEl, "sizeY")
	if err != nil {
		return nil, leicaerr.Wrap(leicaerr.BadData, "view@sizeY", err)
	}
	offsetX, err := intAttr(viewEl, "offsetX")
	if err != nil {
		return nil, leicaerr.Wrap(leicaerr.BadData, "view@offsetX", err)
	}
	offsetY, err := intAttr(viewEl, "offsetY")
	if err != nil {
		return nil, leicaerr.Wrap(leicaerr.BadData, "view@offsetY", err)
	}

	img := &Image{
		ClicksAcross:  clicksAcross,
		ClicksDown:    clicksDown,
		ClicksOffsetX: offsetX,
		ClicksOffsetY: offsetY,
	}

	if el := imageEl.SelectElement("creationDate"); el != nil {
		img.CreationDate = strings.TrimSpace(el.Text())
	}
	if deviceEl := imageEl.SelectElement("device"); deviceEl != nil {
		img.DeviceModel = deviceEl.SelectAttrValue("model", "")
		img.DeviceVersion = deviceEl.SelectAttrValue("version", "")
	}
	if scanEl := imageEl.SelectElement("scanSettings"); scanEl != nil {
		if illumEl := scanEl.SelectElement("illuminationSettings"); illumEl != nil {
			if srcEl := illumEl.SelectElement("illuminationSource"); srcEl != nil {
				img.IlluminationSource = strings.TrimSpace(srcEl.Text())
			}
			if apEl := illumEl.SelectElement("numericalAperture"); apEl != nil {
				img.Aperture = strings.TrimSpace(apEl.Text())
			}
		}
		if objEl := scanEl.SelectElement("objectiveSettings"); objEl != nil {
			if oEl := objEl.SelectElement("objective"); oEl != nil {
				img.Objective = strings.TrimSpace(oEl.Text())
			}
		}
	}

	pixelsEl := imageEl.SelectElement("pixels")
	if pixelsEl == nil {
		return nil, leicaerr.New(leicaerr.BadData, "image: missing pixels element")
	}

	for _, dimEl := range pixelsEl.SelectElements("dimension") {
		if z := dimEl.SelectAttrValue("z", "0"); z != "0" {
			continue
		}

		dir, err := intAttr(dimEl, "ifd")
		if err != nil {
			return nil, leicaerr.Wrap(leicaerr.BadData, "dimension@ifd", err)
		}
		width, err := intAttr(dimEl, "sizeX")
		if err != nil {
			return nil, leicaerr.Wrap(leicaerr.BadData, "dimension@sizeX", err)
		}
		height, err := intAttr(dimEl, "sizeY")
		if err != nil {
			return nil, leicaerr.Wrap(leicaerr.BadData, "dimension@sizeY", err)
		}

		img.Dimensions = append(img.Dimensions, &Dimension{
			Dir:            dir,
			Width:          width,
			Height:         height,
			ClicksPerPixel: float64(img.ClicksAcross) / float64(width),
		})
	}

	if len(img.Dimensions) == 0 {
		return nil, leicaerr.New(leicaerr.BadData, "image: no usable dimensions at z=0")
	}

	// Sort by descending width; SliceStable preserves input order for ties.
	sort.SliceStable(img.Dimensions, func(i, j int) bool {
		return img.Dimensions[i].Width > img.Dimensions[j].Width
	})

	return img, nil
}

func intAttr(el *etree.Element, name string) (int64, error) {
	attr := el.SelectAttr(name)
	if attr == nil {
		return 0, leicaerr.Newf(leicaerr.BadData, "missing attribute %q on <%s>", name, el.Tag)
	}
	v, err := strconv.ParseInt(attr.Value, 10, 64)
	if err != nil {
		return 0, leicaerr.Newf(leicaerr.BadData, "attribute %q on <%s> is not an integer", name, el.Tag)
	}
	return v, nil
}
